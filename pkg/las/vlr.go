package las

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/pointstream/lasio/pkg/errors"
)

// vlrHeaderSize is the fixed prefix of every variable length record.
const vlrHeaderSize = 54

// VLR is a variable length record stored between the public header block
// and the point data. The engine treats payloads as opaque blobs; spatial
// reference metadata and codec parameters ride through here.
type VLR struct {
	Reserved    uint16
	UserID      string // 16 bytes on disk
	RecordID    uint16
	Description string // 32 bytes on disk
	Payload     []byte
}

func (v *VLR) size() uint32 {
	return vlrHeaderSize + uint32(len(v.Payload))
}

// Equal reports whether two VLRs are identical including payload bytes.
func (v *VLR) Equal(other *VLR) bool {
	return v.Reserved == other.Reserved &&
		v.UserID == other.UserID &&
		v.RecordID == other.RecordID &&
		v.Description == other.Description &&
		bytes.Equal(v.Payload, other.Payload)
}

func parseVLR(r io.Reader) (*VLR, error) {
	buf := make([]byte, vlrHeaderSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, errors.Wrap(err, errors.ErrorTypeFormat, "truncated variable length record header")
		}
		return nil, errors.Wrap(err, errors.ErrorTypeIO, "reading variable length record")
	}

	le := binary.LittleEndian
	v := &VLR{
		Reserved:    le.Uint16(buf[0:]),
		UserID:      trimFixedString(buf[2:18]),
		RecordID:    le.Uint16(buf[18:]),
		Description: trimFixedString(buf[22:54]),
	}
	payloadLen := le.Uint16(buf[20:])
	if payloadLen > 0 {
		v.Payload = make([]byte, payloadLen)
		if _, err := io.ReadFull(r, v.Payload); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeFormat, "truncated variable length record payload")
		}
	}
	return v, nil
}

func (v *VLR) serialize(w io.Writer) error {
	if len(v.Payload) > int(^uint16(0)) {
		return errors.Newf(errors.ErrorTypeFormat, "VLR payload too large: %d bytes", len(v.Payload))
	}

	le := binary.LittleEndian
	buf := make([]byte, vlrHeaderSize)
	le.PutUint16(buf[0:], v.Reserved)
	putFixedString(buf[2:18], v.UserID)
	le.PutUint16(buf[18:], v.RecordID)
	le.PutUint16(buf[20:], uint16(len(v.Payload)))
	putFixedString(buf[22:54], v.Description)

	if _, err := w.Write(buf); err != nil {
		return errors.Wrap(err, errors.ErrorTypeIO, "writing variable length record")
	}
	if len(v.Payload) > 0 {
		if _, err := w.Write(v.Payload); err != nil {
			return errors.Wrap(err, errors.ErrorTypeIO, "writing variable length record payload")
		}
	}
	return nil
}

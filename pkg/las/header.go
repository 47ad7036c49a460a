// Package las implements reading and writing of LAS point-cloud files:
// the fixed public header block, variable length records, point record
// encoding for point data formats 0-3, and sequential plus random-access
// point I/O through an optional compressed container.
//
// Coordinates are stored as raw quantized integers exactly as they appear
// on disk. Real-world values are derived on demand via Point.XYZ using the
// header's scale/offset triples (real = raw*scale + offset); the engine
// never divides by the scale factors.
package las

import (
	"bytes"
	"encoding/binary"
	"io"
	"reflect"

	"github.com/pointstream/lasio/pkg/errors"
)

// FileSignature is the 4-byte magic at offset 0 of every LAS file.
const FileSignature = "LASF"

// baseHeaderSize is the size of the LAS 1.0-1.2 public header block.
const baseHeaderSize = 227

// compressedFormatBit marks the point data format byte of a compressed
// file, following the LAZ convention of flagging the high bit.
const compressedFormatBit = 0x80

// Header is the in-memory form of the public header block. It is parsed
// once at reader construction and serialized once at writer construction;
// mutating it afterwards does not rewrite bytes already on the stream.
type Header struct {
	FileSourceID   uint16
	GlobalEncoding uint16
	ProjectID1     uint32
	ProjectID2     uint16
	ProjectID3     uint16
	ProjectID4     [8]byte

	VersionMajor uint8
	VersionMinor uint8

	SystemID           string // 32 bytes on disk
	GeneratingSoftware string // 32 bytes on disk

	FileCreationDay  uint16
	FileCreationYear uint16

	HeaderSize        uint16
	OffsetToPoints    uint32
	PointFormat       PointFormat
	PointRecordLength uint16
	NumberOfPoints    uint32
	PointsByReturn    [5]uint32

	XScale, YScale, ZScale    float64
	XOffset, YOffset, ZOffset float64
	MaxX, MinX                float64
	MaxY, MinY                float64
	MaxZ, MinZ                float64

	// Compressed mirrors the high bit of the on-disk point format byte.
	Compressed bool

	// VLRs are carried as opaque payloads between the header block and the
	// point data. Spatial reference records pass through here unmodified.
	VLRs []VLR
}

// DefaultHeader returns a header usable for writing without further
// configuration: LAS 1.2, point format 1, millimeter scale resolution.
func DefaultHeader() *Header {
	h := &Header{
		VersionMajor:       1,
		VersionMinor:       2,
		SystemID:           "lasio",
		GeneratingSoftware: "lasio",
		HeaderSize:         baseHeaderSize,
		PointFormat:        PointFormat1,
		XScale:             0.001,
		YScale:             0.001,
		ZScale:             0.001,
	}
	h.PointRecordLength = h.PointFormat.Size()
	h.OffsetToPoints = h.pointDataOffset()
	return h
}

// SetCompressed flips only the compression flag. It performs no codec
// setup; the adapter is selected from the flag at reader/writer
// construction time.
func (h *Header) SetCompressed(compressed bool) {
	h.Compressed = compressed
}

// Version returns the major.minor pair.
func (h *Header) Version() (major, minor uint8) {
	return h.VersionMajor, h.VersionMinor
}

// pointDataOffset computes where point data begins given the current VLRs.
func (h *Header) pointDataOffset() uint32 {
	off := uint32(baseHeaderSize)
	for i := range h.VLRs {
		off += h.VLRs[i].size()
	}
	return off
}

// Validate checks internal consistency. It is called by ParseHeader after
// decoding and by NewWriter before serializing.
func (h *Header) Validate() error {
	if h.VersionMajor != 1 || h.VersionMinor > 4 {
		return errors.Newf(errors.ErrorTypeFormat, "unsupported LAS version %d.%d", h.VersionMajor, h.VersionMinor)
	}
	if h.XScale == 0 || h.YScale == 0 || h.ZScale == 0 {
		return errors.New(errors.ErrorTypeFormat, "scale factors must be non-zero")
	}
	if !h.PointFormat.Known() {
		return errors.Newf(errors.ErrorTypeFormat, "unknown point data format %d", uint8(h.PointFormat))
	}
	if h.PointRecordLength < h.PointFormat.Size() {
		return errors.Newf(errors.ErrorTypeFormat,
			"point record length %d too small for format %d (need %d)",
			h.PointRecordLength, uint8(h.PointFormat), h.PointFormat.Size())
	}
	if h.HeaderSize != 0 && h.HeaderSize < baseHeaderSize {
		return errors.Newf(errors.ErrorTypeFormat, "header size %d below minimum %d", h.HeaderSize, baseHeaderSize)
	}
	if h.OffsetToPoints != 0 && h.OffsetToPoints < uint32(h.HeaderSize) {
		return errors.Newf(errors.ErrorTypeFormat,
			"offset to point data %d inside header block", h.OffsetToPoints)
	}
	return nil
}

// ParseHeader decodes the public header block and any VLRs from r.
// The stream is left positioned at the end of the last VLR; callers seek
// to OffsetToPoints before reading point data.
func ParseHeader(r io.Reader) (*Header, error) {
	buf := make([]byte, baseHeaderSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, errors.Wrap(err, errors.ErrorTypeFormat, "truncated public header block")
		}
		return nil, errors.Wrap(err, errors.ErrorTypeIO, "reading public header block")
	}

	if string(buf[0:4]) != FileSignature {
		return nil, errors.Newf(errors.ErrorTypeFormat,
			"bad file signature %q, want %q", string(buf[0:4]), FileSignature)
	}

	le := binary.LittleEndian
	h := &Header{}
	h.FileSourceID = le.Uint16(buf[4:])
	h.GlobalEncoding = le.Uint16(buf[6:])
	h.ProjectID1 = le.Uint32(buf[8:])
	h.ProjectID2 = le.Uint16(buf[12:])
	h.ProjectID3 = le.Uint16(buf[14:])
	copy(h.ProjectID4[:], buf[16:24])
	h.VersionMajor = buf[24]
	h.VersionMinor = buf[25]
	h.SystemID = trimFixedString(buf[26:58])
	h.GeneratingSoftware = trimFixedString(buf[58:90])
	h.FileCreationDay = le.Uint16(buf[90:])
	h.FileCreationYear = le.Uint16(buf[92:])
	h.HeaderSize = le.Uint16(buf[94:])
	h.OffsetToPoints = le.Uint32(buf[96:])
	numVLRs := le.Uint32(buf[100:])

	formatByte := buf[104]
	h.Compressed = formatByte&compressedFormatBit != 0
	h.PointFormat = PointFormat(formatByte &^ compressedFormatBit)

	h.PointRecordLength = le.Uint16(buf[105:])
	h.NumberOfPoints = le.Uint32(buf[107:])
	for i := 0; i < 5; i++ {
		h.PointsByReturn[i] = le.Uint32(buf[111+4*i:])
	}
	h.XScale = float64FromLE(buf[131:])
	h.YScale = float64FromLE(buf[139:])
	h.ZScale = float64FromLE(buf[147:])
	h.XOffset = float64FromLE(buf[155:])
	h.YOffset = float64FromLE(buf[163:])
	h.ZOffset = float64FromLE(buf[171:])
	h.MaxX = float64FromLE(buf[179:])
	h.MinX = float64FromLE(buf[187:])
	h.MaxY = float64FromLE(buf[195:])
	h.MinY = float64FromLE(buf[203:])
	h.MaxZ = float64FromLE(buf[211:])
	h.MinZ = float64FromLE(buf[219:])

	if err := h.Validate(); err != nil {
		return nil, err
	}

	// LAS 1.3/1.4 headers carry extra fields after the 1.2 block; they are
	// skipped here and preserved only as far as OffsetToPoints accounts for
	// them.
	if extra := int(h.HeaderSize) - baseHeaderSize; extra > 0 {
		if _, err := io.CopyN(io.Discard, r, int64(extra)); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeFormat, "truncated extended header")
		}
	}

	for i := uint32(0); i < numVLRs; i++ {
		vlr, err := parseVLR(r)
		if err != nil {
			return nil, err
		}
		h.VLRs = append(h.VLRs, *vlr)
	}

	return h, nil
}

// Serialize writes the public header block followed by all VLRs.
// The header size, VLR count and offset-to-point-data fields are derived
// from the current VLR set at serialization time so that the block on disk
// is always self-consistent.
func (h *Header) Serialize(w io.Writer) error {
	if err := h.Validate(); err != nil {
		return err
	}

	le := binary.LittleEndian
	buf := make([]byte, baseHeaderSize)
	copy(buf[0:4], FileSignature)
	le.PutUint16(buf[4:], h.FileSourceID)
	le.PutUint16(buf[6:], h.GlobalEncoding)
	le.PutUint32(buf[8:], h.ProjectID1)
	le.PutUint16(buf[12:], h.ProjectID2)
	le.PutUint16(buf[14:], h.ProjectID3)
	copy(buf[16:24], h.ProjectID4[:])
	buf[24] = h.VersionMajor
	buf[25] = h.VersionMinor
	putFixedString(buf[26:58], h.SystemID)
	putFixedString(buf[58:90], h.GeneratingSoftware)
	le.PutUint16(buf[90:], h.FileCreationDay)
	le.PutUint16(buf[92:], h.FileCreationYear)
	le.PutUint16(buf[94:], baseHeaderSize)
	le.PutUint32(buf[96:], h.pointDataOffset())
	le.PutUint32(buf[100:], uint32(len(h.VLRs)))

	formatByte := uint8(h.PointFormat)
	if h.Compressed {
		formatByte |= compressedFormatBit
	}
	buf[104] = formatByte

	le.PutUint16(buf[105:], h.PointRecordLength)
	le.PutUint32(buf[107:], h.NumberOfPoints)
	for i := 0; i < 5; i++ {
		le.PutUint32(buf[111+4*i:], h.PointsByReturn[i])
	}
	float64ToLE(buf[131:], h.XScale)
	float64ToLE(buf[139:], h.YScale)
	float64ToLE(buf[147:], h.ZScale)
	float64ToLE(buf[155:], h.XOffset)
	float64ToLE(buf[163:], h.YOffset)
	float64ToLE(buf[171:], h.ZOffset)
	float64ToLE(buf[179:], h.MaxX)
	float64ToLE(buf[187:], h.MinX)
	float64ToLE(buf[195:], h.MaxY)
	float64ToLE(buf[203:], h.MinY)
	float64ToLE(buf[211:], h.MaxZ)
	float64ToLE(buf[219:], h.MinZ)

	if _, err := w.Write(buf); err != nil {
		return errors.Wrap(err, errors.ErrorTypeIO, "writing public header block")
	}

	for i := range h.VLRs {
		if err := h.VLRs[i].serialize(w); err != nil {
			return err
		}
	}
	return nil
}

// Equal reports whether two headers describe the same file layout and
// dequantization parameters. VLR payloads are compared byte for byte.
func (h *Header) Equal(other *Header) bool {
	if h == nil || other == nil {
		return h == other
	}
	a, b := *h, *other
	av, bv := a.VLRs, b.VLRs
	a.VLRs, b.VLRs = nil, nil
	// Derived fields may be stale on programmatically built headers.
	a.HeaderSize, b.HeaderSize = 0, 0
	a.OffsetToPoints, b.OffsetToPoints = 0, 0
	if !reflect.DeepEqual(a, b) {
		return false
	}
	if len(av) != len(bv) {
		return false
	}
	for i := range av {
		if !av[i].Equal(&bv[i]) {
			return false
		}
	}
	return true
}

func trimFixedString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

func putFixedString(dst []byte, s string) {
	for i := range dst {
		dst[i] = 0
	}
	copy(dst, s)
}

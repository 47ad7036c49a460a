package las

import (
	"io"

	"github.com/pointstream/lasio/pkg/compression"
	"github.com/pointstream/lasio/pkg/errors"
)

// The compression adapter decouples point I/O from the storage encoding.
// Reader and Writer speak PointSource/PointSink exclusively; whether the
// records travel through a codec stream or straight to the file is decided
// once, at construction time, from the header's compressed flag.

// PointSource yields raw point-record bytes from a stream.
type PointSource interface {
	// ReadRecord fills buf with the next sequential record. It returns
	// io.EOF when the point data is exhausted before the first byte of a
	// record, and a format error when a record is cut short.
	ReadRecord(buf []byte) error

	// SeekRecord positions the source so the next ReadRecord returns the
	// record at the given zero-based index. For raw streams this is an
	// O(1) seek. For codec streams it may cost O(index): backward moves
	// restart the decoder from the beginning of the point data.
	SeekRecord(index int64) error

	// Close releases decoder state. The underlying stream is borrowed and
	// stays open.
	Close() error
}

// PointSink accepts raw point-record bytes and appends them to a stream.
type PointSink interface {
	WriteRecord(buf []byte) error

	// Close flushes any codec trailer. The underlying stream stays open.
	Close() error
}

// codec VLR: records which compression algorithm produced the point data
// so readers can reconstruct the codec. Absent VLR on a compressed file
// means the default algorithm.
const (
	codecVLRUserID   = "lasio"
	codecVLRRecordID = 22204
)

var codecAlgorithmIDs = map[compression.Algorithm]byte{
	compression.LZ4:    1,
	compression.Zstd:   2,
	compression.Snappy: 3,
	compression.S2:     4,
}

func codecVLR(cfg *compression.Config) VLR {
	return VLR{
		UserID:      codecVLRUserID,
		RecordID:    codecVLRRecordID,
		Description: "point data codec",
		Payload:     []byte{codecAlgorithmIDs[cfg.Algorithm], byte(cfg.Level)},
	}
}

func codecConfigFromHeader(h *Header) (*compression.Config, error) {
	for i := range h.VLRs {
		v := &h.VLRs[i]
		if v.UserID != codecVLRUserID || v.RecordID != codecVLRRecordID {
			continue
		}
		if len(v.Payload) < 2 {
			return nil, errors.New(errors.ErrorTypeFormat, "malformed codec VLR payload")
		}
		for alg, id := range codecAlgorithmIDs {
			if id == v.Payload[0] {
				return &compression.Config{Algorithm: alg, Level: compression.Level(v.Payload[1])}, nil
			}
		}
		return nil, errors.Newf(errors.ErrorTypeFormat, "unknown codec algorithm id %d", v.Payload[0])
	}
	return compression.DefaultConfig(), nil
}

// openPointSource selects and opens the adapter for reading. rs must be
// positioned anywhere; the source seeks to the point-data origin itself.
func openPointSource(rs io.ReadSeeker, h *Header) (PointSource, error) {
	origin := int64(h.OffsetToPoints)
	recLen := int64(h.PointRecordLength)
	if !h.Compressed {
		src := &rawSource{rs: rs, origin: origin, recLen: recLen}
		if err := src.SeekRecord(0); err != nil {
			return nil, err
		}
		return src, nil
	}

	cfg, err := codecConfigFromHeader(h)
	if err != nil {
		return nil, err
	}
	comp, err := compression.NewCompressor(cfg)
	if err != nil {
		return nil, err
	}
	src := &codecSource{rs: rs, origin: origin, recLen: recLen, comp: comp}
	if err := src.restart(); err != nil {
		return nil, err
	}
	return src, nil
}

// openPointSink selects and opens the adapter for writing at the stream's
// current position.
func openPointSink(w io.Writer, h *Header, cfg *compression.Config) (PointSink, error) {
	if !h.Compressed {
		return &rawSink{w: w}, nil
	}
	comp, err := compression.NewCompressor(cfg)
	if err != nil {
		return nil, err
	}
	cw, err := comp.NewStreamWriter(w)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeIO, "opening codec stream")
	}
	return &codecSink{cw: cw}, nil
}

// rawSource reads fixed-size records straight off a seekable stream.
type rawSource struct {
	rs     io.ReadSeeker
	origin int64
	recLen int64
}

func (s *rawSource) ReadRecord(buf []byte) error {
	n, err := io.ReadFull(s.rs, buf)
	if err == io.EOF {
		return io.EOF
	}
	if err == io.ErrUnexpectedEOF {
		return errors.Newf(errors.ErrorTypeFormat,
			"truncated point record: got %d of %d bytes", n, len(buf))
	}
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeIO, "reading point record")
	}
	return nil
}

func (s *rawSource) SeekRecord(index int64) error {
	if _, err := s.rs.Seek(s.origin+index*s.recLen, io.SeekStart); err != nil {
		return errors.Wrap(err, errors.ErrorTypeIO, "seeking point record")
	}
	return nil
}

func (s *rawSource) Close() error { return nil }

// rawSink appends records straight to the stream.
type rawSink struct {
	w io.Writer
}

func (s *rawSink) WriteRecord(buf []byte) error {
	if _, err := s.w.Write(buf); err != nil {
		return errors.Wrap(err, errors.ErrorTypeIO, "writing point record")
	}
	return nil
}

func (s *rawSink) Close() error { return nil }

// codecSource reads records through a sequential decompression stream.
// The codec provides no internal index, so SeekRecord to an earlier index
// restarts decoding from the point-data origin; forward decode state is
// kept so nearby forward accesses only skip the gap.
type codecSource struct {
	rs     io.ReadSeeker
	origin int64
	recLen int64
	comp   compression.Compressor

	stream io.ReadCloser
	next   int64 // index the next ReadRecord will yield
}

func (s *codecSource) restart() error {
	if s.stream != nil {
		_ = s.stream.Close()
		s.stream = nil
	}
	if _, err := s.rs.Seek(s.origin, io.SeekStart); err != nil {
		return errors.Wrap(err, errors.ErrorTypeIO, "seeking point data origin")
	}
	stream, err := s.comp.NewStreamReader(s.rs)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeFormat, "opening codec stream")
	}
	s.stream = stream
	s.next = 0
	return nil
}

func (s *codecSource) ReadRecord(buf []byte) error {
	n, err := io.ReadFull(s.stream, buf)
	if err == io.EOF {
		return io.EOF
	}
	if err == io.ErrUnexpectedEOF {
		return errors.Newf(errors.ErrorTypeFormat,
			"truncated point record in codec stream: got %d of %d bytes", n, len(buf))
	}
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeFormat, "decoding point record")
	}
	s.next++
	return nil
}

func (s *codecSource) SeekRecord(index int64) error {
	if index < s.next {
		if err := s.restart(); err != nil {
			return err
		}
	}
	if index > s.next {
		skip := (index - s.next) * s.recLen
		n, err := io.CopyN(io.Discard, s.stream, skip)
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			// Leave the shortfall for ReadRecord to report as EOF.
			s.next += n / s.recLen
			return nil
		}
		if err != nil {
			return errors.Wrap(err, errors.ErrorTypeFormat, "skipping codec stream")
		}
		s.next = index
	}
	return nil
}

func (s *codecSource) Close() error {
	if s.stream == nil {
		return nil
	}
	err := s.stream.Close()
	s.stream = nil
	return err
}

// codecSink writes records through a compression stream.
type codecSink struct {
	cw io.WriteCloser
}

func (s *codecSink) WriteRecord(buf []byte) error {
	if _, err := s.cw.Write(buf); err != nil {
		return errors.Wrap(err, errors.ErrorTypeIO, "writing codec stream")
	}
	return nil
}

func (s *codecSink) Close() error {
	if err := s.cw.Close(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeIO, "closing codec stream")
	}
	return nil
}

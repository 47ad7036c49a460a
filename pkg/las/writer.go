package las

import (
	"io"

	"github.com/pointstream/lasio/pkg/compression"
	"github.com/pointstream/lasio/pkg/errors"
)

type writerState int

const (
	writerHeaderWritten writerState = iota
	writerWriting
	writerClosed
	writerFailed
)

// Writer serializes point records to a LAS stream.
//
// The header is serialized at the stream's current position at
// construction time; pre-positioning the stream before construction gives
// the append pattern. The Writer keeps its own copy of the header, so
// mutating the caller's header afterwards does not change bytes already
// written. On Close, if the stream supports backward seeking, the header
// is rewritten with the final point count, per-return counts and bounds.
//
// The Writer must have exclusive ownership of its destination stream for
// its entire lifetime. The stream handle itself is borrowed and is not
// closed by Close.
type Writer struct {
	w      io.Writer
	header Header
	sink   PointSink
	filter PointFilter

	state   writerState
	count   uint32
	dropped uint64
	err     error

	headerPos int64 // stream offset of the header block, -1 when unseekable
	recBuf    []byte
}

// WriterOption configures a Writer at construction time.
type WriterOption func(*Writer) error

// WithWriterFilter attaches a filter pipeline. Rejected points are
// silently dropped, not written and not an error; Dropped reports how
// many.
func WithWriterFilter(f PointFilter) WriterOption {
	return func(w *Writer) error {
		w.filter = f
		return nil
	}
}

// WithCompression enables the compressed container using the given codec
// configuration. The header's compressed flag is set and the codec is
// recorded in a VLR so readers can reconstruct it.
func WithCompression(cfg *compression.Config) WriterOption {
	return func(w *Writer) error {
		if cfg == nil {
			cfg = compression.DefaultConfig()
		}
		if _, ok := codecAlgorithmIDs[cfg.Algorithm]; !ok && cfg.Algorithm != compression.None {
			return errors.Newf(errors.ErrorTypeConfig,
				"algorithm %s cannot be recorded in a codec VLR", cfg.Algorithm)
		}
		if cfg.Algorithm == compression.None {
			w.header.SetCompressed(false)
			return nil
		}
		w.header.SetCompressed(true)
		w.setCodecVLR(cfg)
		return nil
	}
}

func (w *Writer) setCodecVLR(cfg *compression.Config) {
	vlr := codecVLR(cfg)
	for i := range w.header.VLRs {
		if w.header.VLRs[i].UserID == codecVLRUserID && w.header.VLRs[i].RecordID == codecVLRRecordID {
			w.header.VLRs[i] = vlr
			return
		}
	}
	w.header.VLRs = append(w.header.VLRs, vlr)
}

// NewWriter constructs a Writer and immediately serializes the header at
// the stream's current position. A construction error leaves no usable
// Writer and nothing guaranteed on the stream.
func NewWriter(ws io.Writer, h *Header, opts ...WriterOption) (*Writer, error) {
	if h == nil {
		return nil, errors.New(errors.ErrorTypeConfig, "nil header")
	}

	w := &Writer{
		w:         ws,
		header:    *h,
		headerPos: -1,
		state:     writerHeaderWritten,
	}
	w.header.VLRs = append([]VLR(nil), h.VLRs...)
	if w.header.PointRecordLength == 0 {
		w.header.PointRecordLength = w.header.PointFormat.Size()
	}

	for _, opt := range opts {
		if err := opt(w); err != nil {
			return nil, err
		}
	}

	if seeker, ok := ws.(io.Seeker); ok {
		pos, err := seeker.Seek(0, io.SeekCurrent)
		if err == nil {
			w.headerPos = pos
		}
	}

	// Zero the counters the Writer maintains itself; Close writes the
	// final values back.
	w.header.NumberOfPoints = 0
	w.header.PointsByReturn = [5]uint32{}
	w.header.OffsetToPoints = w.header.pointDataOffset()

	if err := w.header.Serialize(ws); err != nil {
		return nil, err
	}

	cfg, err := codecConfigFromHeader(&w.header)
	if err != nil {
		return nil, err
	}
	sink, err := openPointSink(ws, &w.header, cfg)
	if err != nil {
		return nil, err
	}
	w.sink = sink
	w.recBuf = make([]byte, w.header.PointRecordLength)
	return w, nil
}

// Header returns the Writer's working copy of the header. Count and bound
// fields are finalized on Close.
func (w *Writer) Header() *Header {
	return &w.header
}

// Count returns the number of points written so far.
func (w *Writer) Count() uint32 {
	return w.count
}

// Dropped returns the number of points rejected by the attached filter.
func (w *Writer) Dropped() uint64 {
	return w.dropped
}

func (w *Writer) fail(err error) error {
	w.state = writerFailed
	w.err = err
	return err
}

// WritePoint encodes p and appends it through the compression adapter's
// sink. A point rejected by the attached filter is silently dropped.
func (w *Writer) WritePoint(p *Point) error {
	switch w.state {
	case writerFailed:
		return w.err
	case writerClosed:
		return errors.New(errors.ErrorTypeState, "write on closed writer")
	}

	if w.filter != nil && !w.filter.Accepts(p) {
		w.dropped++
		return nil
	}

	if err := EncodePoint(w.recBuf, p, w.header.PointFormat); err != nil {
		return w.fail(err)
	}
	if err := w.sink.WriteRecord(w.recBuf); err != nil {
		return w.fail(err)
	}

	w.state = writerWriting
	w.count++
	w.updateSummary(p)
	return nil
}

// updateSummary folds a written point into the running bounds and
// per-return counts.
func (w *Writer) updateSummary(p *Point) {
	x, y, z := p.XYZ(&w.header)
	if w.count == 1 {
		w.header.MinX, w.header.MaxX = x, x
		w.header.MinY, w.header.MaxY = y, y
		w.header.MinZ, w.header.MaxZ = z, z
	} else {
		if x < w.header.MinX {
			w.header.MinX = x
		}
		if x > w.header.MaxX {
			w.header.MaxX = x
		}
		if y < w.header.MinY {
			w.header.MinY = y
		}
		if y > w.header.MaxY {
			w.header.MaxY = y
		}
		if z < w.header.MinZ {
			w.header.MinZ = z
		}
		if z > w.header.MaxZ {
			w.header.MaxZ = z
		}
	}
	if p.ReturnNumber >= 1 && p.ReturnNumber <= 5 {
		w.header.PointsByReturn[p.ReturnNumber-1]++
	}
}

// Close flushes the point sink and, when the stream supports backward
// seeking, rewrites the header with the final point count and bounds.
// Errors are reported, never swallowed. Close on a failed Writer returns
// the failure; Close is idempotent once it has succeeded.
func (w *Writer) Close() error {
	switch w.state {
	case writerFailed:
		return w.err
	case writerClosed:
		return nil
	}

	if err := w.sink.Close(); err != nil {
		return w.fail(err)
	}

	w.header.NumberOfPoints = w.count

	if w.headerPos >= 0 {
		seeker := w.w.(io.Seeker)
		if _, err := seeker.Seek(w.headerPos, io.SeekStart); err != nil {
			return w.fail(errors.Wrap(err, errors.ErrorTypeIO, "seeking header for rewrite"))
		}
		if err := w.header.Serialize(w.w); err != nil {
			return w.fail(err)
		}
		if _, err := seeker.Seek(0, io.SeekEnd); err != nil {
			return w.fail(errors.Wrap(err, errors.ErrorTypeIO, "seeking stream end"))
		}
	}

	w.state = writerClosed
	return nil
}

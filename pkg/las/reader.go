package las

import (
	"io"

	"github.com/pointstream/lasio/pkg/errors"
)

// PointFilter is the predicate contract applied between the decoder and
// the caller. The filter package provides chains and built-in predicates;
// anything implementing Accepts can be attached.
type PointFilter interface {
	Accepts(p *Point) bool
}

type readerState int

const (
	readerHeaderLoaded readerState = iota
	readerStreaming
	readerExhausted
	readerFailed
)

// Reader reads point records from a LAS stream, sequentially or by index.
//
// The stream handle is borrowed: the caller owns it and must keep it open
// for the Reader's lifetime. A Reader is not safe for concurrent use;
// open one Reader per goroutine, each with its own stream handle.
type Reader struct {
	rs     io.ReadSeeker
	header *Header
	source PointSource
	filter PointFilter

	state    readerState
	cursor   int64 // index of the next sequential record
	needSeek bool  // source position no longer matches cursor

	point     Point
	havePoint bool
	err       error

	recBuf []byte
}

// ReaderOption configures a Reader at construction time.
type ReaderOption func(*Reader)

// WithFilter attaches a filter pipeline to the reader. Filters affect
// which points ReadNext yields; they never hide the result of a direct
// positional read. The chain must not be mutated once reading begins.
func WithFilter(f PointFilter) ReaderOption {
	return func(r *Reader) { r.filter = f }
}

// NewReader constructs a Reader over a complete LAS stream. The header is
// parsed immediately; on any construction error no partially usable Reader
// exists. After successful construction the header is always available.
func NewReader(rs io.ReadSeeker, opts ...ReaderOption) (*Reader, error) {
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeIO, "seeking stream start")
	}
	header, err := ParseHeader(rs)
	if err != nil {
		return nil, err
	}

	r := &Reader{
		rs:     rs,
		header: header,
		state:  readerHeaderLoaded,
		recBuf: make([]byte, header.PointRecordLength),
	}
	for _, opt := range opts {
		opt(r)
	}

	source, err := openPointSource(rs, header)
	if err != nil {
		return nil, err
	}
	r.source = source
	return r, nil
}

// Header returns the parsed public header block. It is valid for the
// Reader's entire lifetime.
func (r *Reader) Header() *Header {
	return r.header
}

// Err returns the terminal error that moved the Reader into its failed
// state, or nil.
func (r *Reader) Err() error {
	return r.err
}

// fail transitions to the failed state; all further calls re-fail
// deterministically with the same error.
func (r *Reader) fail(err error) {
	r.state = readerFailed
	r.err = err
}

// ReadNext advances to the next sequential point that passes the filter
// pipeline. It returns false when no further point exists in the file;
// points rejected by the filter are skipped internally, not reported as
// the end. After false, check Err to distinguish exhaustion from failure.
func (r *Reader) ReadNext() bool {
	if r.state == readerFailed || r.state == readerExhausted {
		return false
	}

	for {
		if r.cursor >= int64(r.header.NumberOfPoints) {
			r.state = readerExhausted
			return false
		}
		if r.needSeek {
			if err := r.source.SeekRecord(r.cursor); err != nil {
				r.fail(err)
				return false
			}
			r.needSeek = false
		}

		if err := r.source.ReadRecord(r.recBuf); err != nil {
			if err == io.EOF {
				// Declared record count extends past the actual data.
				r.fail(errors.Newf(errors.ErrorTypeFormat,
					"point data ends at record %d of %d", r.cursor, r.header.NumberOfPoints))
			} else {
				r.fail(err)
			}
			return false
		}

		p, err := DecodePoint(r.recBuf, r.header.PointFormat)
		if err != nil {
			r.fail(err)
			return false
		}
		r.cursor++

		if r.filter == nil || r.filter.Accepts(&p) {
			r.point = p
			r.havePoint = true
			r.state = readerStreaming
			return true
		}
	}
}

// Point returns the most recently read point. It returns nil before the
// first successful ReadNext or ReadPointAt.
func (r *Reader) Point() *Point {
	if !r.havePoint {
		return nil
	}
	return &r.point
}

// ReadPointAt reads the point at the given zero-based index, bypassing
// the sequential cursor. The filter pipeline classifies the result (the
// returned bool), but unlike ReadNext it never hides it: Point returns
// the decoded record either way, since a positional read targets exactly
// one index.
//
// On a compressed stream this may cost O(index); see PointSource.
func (r *Reader) ReadPointAt(index int64) (bool, error) {
	if r.state == readerFailed {
		return false, r.err
	}
	if index < 0 || index >= int64(r.header.NumberOfPoints) {
		return false, errors.Newf(errors.ErrorTypeIndex,
			"point index %d out of range [0, %d)", index, r.header.NumberOfPoints)
	}

	if err := r.source.SeekRecord(index); err != nil {
		r.fail(err)
		return false, r.err
	}
	r.needSeek = true // sequential cursor must re-position itself

	if err := r.source.ReadRecord(r.recBuf); err != nil {
		if err == io.EOF {
			err = errors.Newf(errors.ErrorTypeFormat,
				"point data ends before record %d of %d", index, r.header.NumberOfPoints)
		}
		r.fail(err)
		return false, r.err
	}

	p, err := DecodePoint(r.recBuf, r.header.PointFormat)
	if err != nil {
		r.fail(err)
		return false, r.err
	}

	r.point = p
	r.havePoint = true
	accepted := r.filter == nil || r.filter.Accepts(&r.point)
	return accepted, nil
}

// Seek repositions the sequential cursor so the next ReadNext begins at
// index, without decoding anything. Seeking at or past the end of the
// file is not an error; the next ReadNext simply returns false.
func (r *Reader) Seek(index int64) error {
	if r.state == readerFailed {
		return r.err
	}
	if index < 0 {
		return errors.Newf(errors.ErrorTypeIndex, "negative point index %d", index)
	}
	r.cursor = index
	r.needSeek = true
	if r.state == readerExhausted {
		r.state = readerStreaming
	}
	return nil
}

// Close releases decoder state owned by the Reader. The borrowed stream
// handle is left open for the caller.
func (r *Reader) Close() error {
	if r.source == nil {
		return nil
	}
	err := r.source.Close()
	r.source = nil
	return err
}

package las

import (
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/pointstream/lasio/pkg/errors"
	"github.com/pointstream/lasio/pkg/logger"
)

// FileType classifies a path by extension and content sniffing.
type FileType string

const (
	// FileTypeLAS is an uncompressed LAS file
	FileTypeLAS FileType = "las"
	// FileTypeLAZ is a compressed point-data container
	FileTypeLAZ FileType = "laz"
	// FileTypeUnknown is anything else
	FileTypeUnknown FileType = "unknown"
)

// DetectFileType reports the type of the file at path. The extension is a
// hint only; the signature bytes and the header's compressed flag decide.
func DetectFileType(path string) FileType {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".las" && ext != ".laz" {
		return FileTypeUnknown
	}

	f, err := os.Open(path)
	if err != nil {
		return FileTypeUnknown
	}
	defer f.Close()

	h, err := ParseHeader(f)
	if err != nil {
		return FileTypeUnknown
	}
	if h.Compressed {
		return FileTypeLAZ
	}
	return FileTypeLAS
}

// FileReader couples a Reader with an os.File it owns. It exists for the
// common open-by-path case; Close releases both.
type FileReader struct {
	*Reader
	f *os.File
}

// Open opens the LAS or LAZ file at path and constructs a Reader over it.
// The compression adapter is selected from the header, not the extension.
func Open(path string, opts ...ReaderOption) (*FileReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeIO, "opening file")
	}

	r, err := NewReader(f, opts...)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	logger.Get().Debug("opened point file",
		zap.String("path", path),
		zap.Uint32("points", r.Header().NumberOfPoints),
		zap.Bool("compressed", r.Header().Compressed))

	return &FileReader{Reader: r, f: f}, nil
}

// Close releases the Reader and the underlying file.
func (fr *FileReader) Close() error {
	rerr := fr.Reader.Close()
	ferr := fr.f.Close()
	if rerr != nil {
		return rerr
	}
	if ferr != nil {
		return errors.Wrap(ferr, errors.ErrorTypeIO, "closing file")
	}
	return nil
}

// FileWriter couples a Writer with an os.File it owns.
type FileWriter struct {
	*Writer
	f *os.File
}

// Create creates (or truncates) the file at path and constructs a Writer
// with the given header. The header is serialized immediately.
func Create(path string, h *Header, opts ...WriterOption) (*FileWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeIO, "creating file")
	}

	w, err := NewWriter(f, h, opts...)
	if err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return nil, err
	}

	return &FileWriter{Writer: w, f: f}, nil
}

// Close finalizes the Writer (flushing the sink and rewriting the header)
// and closes the underlying file. The first error wins; none are
// swallowed.
func (fw *FileWriter) Close() error {
	werr := fw.Writer.Close()
	ferr := fw.f.Close()
	if werr != nil {
		return werr
	}
	if ferr != nil {
		return errors.Wrap(ferr, errors.ErrorTypeIO, "closing file")
	}
	return nil
}

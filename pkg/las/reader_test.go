package las_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pointstream/lasio/pkg/errors"
	"github.com/pointstream/lasio/pkg/filter"
	"github.com/pointstream/lasio/pkg/las"
)

// writeTestFile writes n format-1 points with X = i*10, classification
// alternating ground/vegetation, and return 1 of 1.
func writeTestFile(t *testing.T, path string, n int, opts ...las.WriterOption) {
	t.Helper()

	w, err := las.Create(path, las.DefaultHeader(), opts...)
	require.NoError(t, err)
	for i := 0; i < n; i++ {
		class := las.ClassGround
		if i%2 == 1 {
			class = las.ClassLowVegetation
		}
		p := las.Point{
			X:               int32(i * 10),
			Y:               int32(i),
			Z:               int32(-i),
			Intensity:       uint16(i),
			ReturnNumber:    1,
			NumberOfReturns: 1,
			Classification:  class,
			GPSTime:         float64(i) * 0.5,
		}
		require.NoError(t, w.WritePoint(&p))
	}
	require.NoError(t, w.Close())
}

func TestReaderSequential(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seq.las")
	writeTestFile(t, path, 5)

	r, err := las.Open(path)
	require.NoError(t, err)
	defer r.Close()

	require.NotNil(t, r.Header())
	assert.Equal(t, uint32(5), r.Header().NumberOfPoints)

	var xs []int32
	for r.ReadNext() {
		xs = append(xs, r.Point().X)
	}
	require.NoError(t, r.Err())
	assert.Equal(t, []int32{0, 10, 20, 30, 40}, xs)

	// Exhausted stays exhausted.
	assert.False(t, r.ReadNext())
	require.NoError(t, r.Err())
}

func TestReaderPointBeforeRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "early.las")
	writeTestFile(t, path, 2)

	r, err := las.Open(path)
	require.NoError(t, err)
	defer r.Close()

	assert.Nil(t, r.Point())
}

func TestSequentialMatchesRandomAccess(t *testing.T) {
	path := filepath.Join(t.TempDir(), "both.las")
	writeTestFile(t, path, 20)

	r, err := las.Open(path)
	require.NoError(t, err)
	defer r.Close()

	var sequential []las.Point
	for r.ReadNext() {
		sequential = append(sequential, *r.Point())
	}
	require.NoError(t, r.Err())
	require.Len(t, sequential, 20)

	for i := int64(0); i < 20; i++ {
		_, err := r.ReadPointAt(i)
		require.NoError(t, err)
		assert.Equal(t, sequential[i], *r.Point(), "index %d", i)
	}
}

func TestReadPointAtOutOfRange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "oob.las")
	writeTestFile(t, path, 3)

	r, err := las.Open(path)
	require.NoError(t, err)
	defer r.Close()

	_, err = r.ReadPointAt(3)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeIndex))

	_, err = r.ReadPointAt(-1)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeIndex))

	// An out-of-range positional read is not fatal to the Reader.
	assert.True(t, r.ReadNext())
}

func TestReaderSeek(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seek.las")
	writeTestFile(t, path, 10)

	r, err := las.Open(path)
	require.NoError(t, err)
	defer r.Close()

	require.NoError(t, r.Seek(7))
	require.True(t, r.ReadNext())
	assert.Equal(t, int32(70), r.Point().X)

	// Seeking past the end is not an error; the next read reports the end.
	require.NoError(t, r.Seek(1000))
	assert.False(t, r.ReadNext())
	require.NoError(t, r.Err())

	// The cursor can come back after exhaustion.
	require.NoError(t, r.Seek(0))
	require.True(t, r.ReadNext())
	assert.Equal(t, int32(0), r.Point().X)

	require.Error(t, r.Seek(-2))
}

func TestReaderFilterSkipsOnSequential(t *testing.T) {
	path := filepath.Join(t.TempDir(), "filtered.las")
	writeTestFile(t, path, 10)

	chain := filter.NewChain(filter.NewClassificationFilter(false, las.ClassGround))
	r, err := las.Open(path, las.WithFilter(chain))
	require.NoError(t, err)
	defer r.Close()

	count := 0
	for r.ReadNext() {
		assert.Equal(t, las.ClassGround, r.Point().Classification)
		count++
	}
	require.NoError(t, r.Err())
	assert.Equal(t, 5, count, "only even-indexed points are ground")
}

func TestReadPointAtIgnoresFilterForVisibility(t *testing.T) {
	path := filepath.Join(t.TempDir(), "view.las")
	writeTestFile(t, path, 4)

	chain := filter.NewChain(filter.NewClassificationFilter(false, las.ClassGround))
	r, err := las.Open(path, las.WithFilter(chain))
	require.NoError(t, err)
	defer r.Close()

	// Index 1 is vegetation: rejected by the chain, still readable.
	accepted, err := r.ReadPointAt(1)
	require.NoError(t, err)
	assert.False(t, accepted)
	require.NotNil(t, r.Point())
	assert.Equal(t, las.ClassLowVegetation, r.Point().Classification)

	accepted, err = r.ReadPointAt(2)
	require.NoError(t, err)
	assert.True(t, accepted)
}

func TestReaderEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.las")
	writeTestFile(t, path, 0)

	r, err := las.Open(path)
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, uint32(0), r.Header().NumberOfPoints)
	assert.False(t, r.ReadNext())
	require.NoError(t, r.Err())
}

func TestReaderTruncatedPointData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trunc.las")
	writeTestFile(t, path, 5)

	info, err := os.Stat(path)
	require.NoError(t, err)
	// Cut the last record in half.
	require.NoError(t, os.Truncate(path, info.Size()-14))

	r, err := las.Open(path)
	require.NoError(t, err)
	defer r.Close()

	count := 0
	for r.ReadNext() {
		count++
	}
	assert.Equal(t, 4, count)
	require.Error(t, r.Err())
	assert.True(t, errors.IsType(r.Err(), errors.ErrorTypeFormat))

	// A failed reader re-fails deterministically.
	firstErr := r.Err()
	assert.False(t, r.ReadNext())
	assert.Equal(t, firstErr, r.Err())
	_, err = r.ReadPointAt(0)
	assert.Equal(t, firstErr, err)
}

func TestReaderRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.las")
	require.NoError(t, os.WriteFile(path, []byte("not a point cloud at all"), 0o644))

	_, err := las.Open(path)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeFormat))
}

func TestDetectFileType(t *testing.T) {
	dir := t.TempDir()

	lasPath := filepath.Join(dir, "plain.las")
	writeTestFile(t, lasPath, 1)
	assert.Equal(t, las.FileTypeLAS, las.DetectFileType(lasPath))

	assert.Equal(t, las.FileTypeUnknown, las.DetectFileType(filepath.Join(dir, "missing.las")))
	assert.Equal(t, las.FileTypeUnknown, las.DetectFileType("readme.txt"))
}

package las_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pointstream/lasio/pkg/compression"
	"github.com/pointstream/lasio/pkg/filter"
	"github.com/pointstream/lasio/pkg/las"
)

func TestWriteThenReadBack(t *testing.T) {
	// Header with point format 1 and three points with increasing X.
	path := filepath.Join(t.TempDir(), "appended.las")

	w, err := las.Create(path, las.DefaultHeader())
	require.NoError(t, err)
	for _, x := range []int32{10, 20, 30} {
		require.NoError(t, w.WritePoint(&las.Point{X: x, ReturnNumber: 1, NumberOfReturns: 1}))
	}
	require.NoError(t, w.Close())
	assert.Equal(t, uint32(3), w.Count())

	r, err := las.Open(path)
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, las.PointFormat1, r.Header().PointFormat)
	assert.Equal(t, uint32(3), r.Header().NumberOfPoints)

	var xs []int32
	for r.ReadNext() {
		xs = append(xs, r.Point().X)
	}
	require.NoError(t, r.Err())
	assert.Equal(t, []int32{10, 20, 30}, xs)
}

func TestWriterRewritesHeaderOnClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "counts.las")

	h := las.DefaultHeader()
	h.XOffset = 1000
	w, err := las.Create(path, h)
	require.NoError(t, err)
	require.NoError(t, w.WritePoint(&las.Point{X: -500, ReturnNumber: 1, NumberOfReturns: 1}))
	require.NoError(t, w.WritePoint(&las.Point{X: 2000, ReturnNumber: 2, NumberOfReturns: 2}))
	require.NoError(t, w.Close())

	r, err := las.Open(path)
	require.NoError(t, err)
	defer r.Close()

	got := r.Header()
	assert.Equal(t, uint32(2), got.NumberOfPoints)
	assert.Equal(t, [5]uint32{1, 1, 0, 0, 0}, got.PointsByReturn)
	// Bounds hold dequantized coordinates: raw*0.001 + 1000.
	assert.InDelta(t, 999.5, got.MinX, 1e-9)
	assert.InDelta(t, 1002.0, got.MaxX, 1e-9)
}

func TestWriterFilterDropsSilently(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dropped.las")

	chain := filter.NewChain(filter.NewClassificationFilter(false, las.ClassGround))
	w, err := las.Create(path, las.DefaultHeader(), las.WithWriterFilter(chain))
	require.NoError(t, err)

	require.NoError(t, w.WritePoint(&las.Point{Classification: las.ClassGround}))
	require.NoError(t, w.WritePoint(&las.Point{Classification: las.ClassWater}))
	require.NoError(t, w.WritePoint(&las.Point{Classification: las.ClassGround}))
	require.NoError(t, w.Close())

	assert.Equal(t, uint32(2), w.Count())
	assert.Equal(t, uint64(1), w.Dropped())

	r, err := las.Open(path)
	require.NoError(t, err)
	defer r.Close()
	assert.Equal(t, uint32(2), r.Header().NumberOfPoints)
}

func TestWriteOnClosedWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "closed.las")

	w, err := las.Create(path, las.DefaultHeader())
	require.NoError(t, err)
	require.NoError(t, w.Writer.Close())
	require.Error(t, w.WritePoint(&las.Point{}))
	// Close after Close is a no-op.
	require.NoError(t, w.Writer.Close())
}

func TestCopyPreservesPoints(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.las")
	dst := filepath.Join(dir, "dst.las")
	writeTestFile(t, src, 12)

	reader, err := las.Open(src)
	require.NoError(t, err)
	defer reader.Close()

	header := *reader.Header()
	writer, err := las.Create(dst, &header)
	require.NoError(t, err)

	var original []las.Point
	for reader.ReadNext() {
		original = append(original, *reader.Point())
		require.NoError(t, writer.WritePoint(reader.Point()))
	}
	require.NoError(t, reader.Err())
	require.NoError(t, writer.Close())

	copied, err := las.Open(dst)
	require.NoError(t, err)
	defer copied.Close()

	assert.Equal(t, uint32(len(original)), copied.Header().NumberOfPoints)
	i := 0
	for copied.ReadNext() {
		require.Less(t, i, len(original))
		assert.Equal(t, original[i], *copied.Point(), "point %d", i)
		i++
	}
	require.NoError(t, copied.Err())
	assert.Equal(t, len(original), i)
}

func TestCompressedRoundTrip(t *testing.T) {
	algorithms := []compression.Algorithm{
		compression.Zstd,
		compression.LZ4,
		compression.Snappy,
		compression.S2,
	}

	for _, alg := range algorithms {
		t.Run(string(alg), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "points.laz")
			cfg := &compression.Config{Algorithm: alg, Level: compression.Default}

			w, err := las.Create(path, las.DefaultHeader(), las.WithCompression(cfg))
			require.NoError(t, err)
			for i := 0; i < 50; i++ {
				p := las.Point{X: int32(i * 10), Y: int32(i), ReturnNumber: 1, NumberOfReturns: 1, GPSTime: float64(i)}
				require.NoError(t, w.WritePoint(&p))
			}
			require.NoError(t, w.Close())

			assert.Equal(t, las.FileTypeLAZ, las.DetectFileType(path))

			r, err := las.Open(path)
			require.NoError(t, err)
			defer r.Close()

			assert.True(t, r.Header().Compressed)
			assert.Equal(t, uint32(50), r.Header().NumberOfPoints)

			count := 0
			for r.ReadNext() {
				assert.Equal(t, int32(count*10), r.Point().X)
				count++
			}
			require.NoError(t, r.Err())
			assert.Equal(t, 50, count)
		})
	}
}

func TestCompressedRandomAccess(t *testing.T) {
	path := filepath.Join(t.TempDir(), "random.laz")

	w, err := las.Create(path, las.DefaultHeader(), las.WithCompression(nil))
	require.NoError(t, err)
	for i := 0; i < 30; i++ {
		require.NoError(t, w.WritePoint(&las.Point{X: int32(i), ReturnNumber: 1, NumberOfReturns: 1}))
	}
	require.NoError(t, w.Close())

	r, err := las.Open(path)
	require.NoError(t, err)
	defer r.Close()

	// Forward, then backward: the backward move forces a decoder restart.
	for _, idx := range []int64{5, 20, 3, 29, 0} {
		_, err := r.ReadPointAt(idx)
		require.NoError(t, err, "index %d", idx)
		assert.Equal(t, int32(idx), r.Point().X)
	}

	// Sequential reading still works after positional jumps.
	require.NoError(t, r.Seek(10))
	require.True(t, r.ReadNext())
	assert.Equal(t, int32(10), r.Point().X)
}

func TestWriterHeaderCopyIsIsolated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "isolated.las")

	h := las.DefaultHeader()
	w, err := las.Create(path, h)
	require.NoError(t, err)

	// Mutating the caller's header after construction must not change
	// what was serialized.
	h.XScale = 123
	require.NoError(t, w.WritePoint(&las.Point{ReturnNumber: 1, NumberOfReturns: 1}))
	require.NoError(t, w.Close())

	r, err := las.Open(path)
	require.NoError(t, err)
	defer r.Close()
	assert.Equal(t, 0.001, r.Header().XScale)
}

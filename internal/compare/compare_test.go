package compare

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pointstream/lasio/pkg/las"
)

func writeFile(t *testing.T, path string, xs []int32) {
	t.Helper()

	w, err := las.Create(path, las.DefaultHeader())
	require.NoError(t, err)
	for _, x := range xs {
		require.NoError(t, w.WritePoint(&las.Point{X: x, ReturnNumber: 1, NumberOfReturns: 1}))
	}
	require.NoError(t, w.Close())
}

func TestIdenticalFiles(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.las")
	b := filepath.Join(dir, "b.las")
	writeFile(t, a, []int32{10, 20, 30})
	writeFile(t, b, []int32{10, 20, 30})

	res, err := Files(a, b)
	require.NoError(t, err)
	assert.True(t, res.Identical)
	assert.Empty(t, res.Differences)
}

func TestDifferingPoint(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.las")
	b := filepath.Join(dir, "b.las")
	writeFile(t, a, []int32{10, 20, 30})
	writeFile(t, b, []int32{10, 25, 30})

	res, err := Files(a, b)
	require.NoError(t, err)
	assert.False(t, res.Identical)

	found := false
	for _, d := range res.Differences {
		if d.Field == "point[1]" {
			found = true
		}
	}
	assert.True(t, found, "expected point[1] to be reported, got %+v", res.Differences)
}

func TestDifferingCount(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.las")
	b := filepath.Join(dir, "b.las")
	writeFile(t, a, []int32{10, 20})
	writeFile(t, b, []int32{10, 20, 30})

	res, err := Files(a, b)
	require.NoError(t, err)
	assert.False(t, res.Identical)

	found := false
	for _, d := range res.Differences {
		if d.Field == "number_of_points" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestMissingFile(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.las")
	writeFile(t, a, []int32{1})

	_, err := Files(a, filepath.Join(dir, "nope.las"))
	require.Error(t, err)
}

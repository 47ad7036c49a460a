// Package compare implements structural equality checking between point
// files, backing the lasio diff command. It is a pure consumer of the
// read contract: both files are loaded through Readers and compared field
// by field, then point by point.
package compare

import (
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/pointstream/lasio/pkg/las"
)

// Difference describes one field that differs between the two files.
type Difference struct {
	Field string `json:"field"`
	A     string `json:"a"`
	B     string `json:"b"`
}

// Result is the outcome of a comparison.
type Result struct {
	PathA       string       `json:"a"`
	PathB       string       `json:"b"`
	Identical   bool         `json:"identical"`
	Differences []Difference `json:"differences,omitempty"`
}

// maxPointDiffs caps how many per-point differences are collected before
// the scan stops early; one is enough to decide inequality, a handful is
// enough to debug with.
const maxPointDiffs = 10

type loaded struct {
	header *las.Header
	points []las.Point
}

func load(path string) (*loaded, error) {
	r, err := las.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	l := &loaded{
		header: r.Header(),
		points: make([]las.Point, 0, r.Header().NumberOfPoints),
	}
	for r.ReadNext() {
		l.points = append(l.points, *r.Point())
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	return l, nil
}

// Files compares the two point files structurally. Both sides are read
// concurrently, each through its own Reader and stream handle.
func Files(pathA, pathB string) (*Result, error) {
	var a, b *loaded

	var g errgroup.Group
	g.Go(func() error {
		var err error
		a, err = load(pathA)
		return err
	})
	g.Go(func() error {
		var err error
		b, err = load(pathB)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &Result{PathA: pathA, PathB: pathB}
	res.Differences = append(res.Differences, headerDiffs(a.header, b.header)...)
	res.Differences = append(res.Differences, pointDiffs(a.points, b.points)...)
	res.Identical = len(res.Differences) == 0
	return res, nil
}

func headerDiffs(a, b *las.Header) []Difference {
	var diffs []Difference
	add := func(field string, av, bv interface{}) {
		if av != bv {
			diffs = append(diffs, Difference{
				Field: field,
				A:     fmt.Sprint(av),
				B:     fmt.Sprint(bv),
			})
		}
	}

	add("version.major", a.VersionMajor, b.VersionMajor)
	add("version.minor", a.VersionMinor, b.VersionMinor)
	add("point_format", a.PointFormat, b.PointFormat)
	add("point_record_length", a.PointRecordLength, b.PointRecordLength)
	add("number_of_points", a.NumberOfPoints, b.NumberOfPoints)
	add("compressed", a.Compressed, b.Compressed)
	add("scale.x", a.XScale, b.XScale)
	add("scale.y", a.YScale, b.YScale)
	add("scale.z", a.ZScale, b.ZScale)
	add("offset.x", a.XOffset, b.XOffset)
	add("offset.y", a.YOffset, b.YOffset)
	add("offset.z", a.ZOffset, b.ZOffset)
	add("bounds.min_x", a.MinX, b.MinX)
	add("bounds.max_x", a.MaxX, b.MaxX)
	add("bounds.min_y", a.MinY, b.MinY)
	add("bounds.max_y", a.MaxY, b.MaxY)
	add("bounds.min_z", a.MinZ, b.MinZ)
	add("bounds.max_z", a.MaxZ, b.MaxZ)
	return diffs
}

func pointDiffs(a, b []las.Point) []Difference {
	var diffs []Difference
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n && len(diffs) < maxPointDiffs; i++ {
		if a[i] != b[i] {
			diffs = append(diffs, Difference{
				Field: fmt.Sprintf("point[%d]", i),
				A:     fmt.Sprintf("%+v", a[i]),
				B:     fmt.Sprintf("%+v", b[i]),
			})
		}
	}
	return diffs
}

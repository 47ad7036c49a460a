// Package filter implements the inclusion/exclusion predicate pipeline
// applied between the point decoder and the caller (on read) or between
// the caller and the encoder (on write).
//
// A Chain is construct-once, use-many: build it, attach it to a Reader or
// Writer, and do not mutate it while streaming. Chains and filters are
// pure predicates; evaluation has no side effects, so ordering only
// matters for reproducibility.
package filter

import (
	"github.com/pointstream/lasio/pkg/las"
)

// Filter is a predicate over a decoded point. Evaluate returns the raw
// verdict; Exclusion inverts it, turning "keep what matches" into "drop
// what matches". Custom filters implement this interface directly.
type Filter interface {
	// Evaluate returns the raw predicate result for p.
	Evaluate(p *las.Point) bool

	// Exclusion reports whether the raw result is inverted.
	Exclusion() bool
}

// Base carries the exclusion toggle shared by the built-in filters.
// Embed it and implement Evaluate.
type Base struct {
	Exclude bool
}

// Exclusion reports whether this filter inverts its predicate.
func (b Base) Exclusion() bool {
	return b.Exclude
}

// Chain is an ordered sequence of filters combined with logical AND.
// A point passes the chain only if every filter's evaluation, XORed with
// that filter's exclusion flag, is true. The zero-value Chain accepts
// everything.
type Chain struct {
	filters []Filter
}

// NewChain builds a chain over the given filters, preserving order.
func NewChain(filters ...Filter) *Chain {
	return &Chain{filters: filters}
}

// Append adds a filter to the end of the chain. Append must not be called
// once the chain is attached to a streaming Reader or Writer.
func (c *Chain) Append(f Filter) {
	c.filters = append(c.filters, f)
}

// Len returns the number of filters in the chain.
func (c *Chain) Len() int {
	return len(c.filters)
}

// Accepts folds every filter over p: each raw result is XORed with the
// filter's exclusion flag, and the chain accepts only if all pass.
func (c *Chain) Accepts(p *las.Point) bool {
	for _, f := range c.filters {
		if f.Evaluate(p) == f.Exclusion() {
			return false
		}
	}
	return true
}

var _ las.PointFilter = (*Chain)(nil)

// ClassificationFilter accepts points whose classification code is a
// member of the configured set. With Exclude set it accepts points whose
// classification is NOT in the set.
type ClassificationFilter struct {
	Base
	classes map[las.Classification]struct{}
}

// NewClassificationFilter builds a set-membership filter over the given
// classification codes.
func NewClassificationFilter(exclude bool, classes ...las.Classification) *ClassificationFilter {
	set := make(map[las.Classification]struct{}, len(classes))
	for _, c := range classes {
		set[c] = struct{}{}
	}
	return &ClassificationFilter{
		Base:    Base{Exclude: exclude},
		classes: set,
	}
}

// Evaluate reports set membership of the point's classification.
func (f *ClassificationFilter) Evaluate(p *las.Point) bool {
	_, ok := f.classes[p.Classification]
	return ok
}

// LastReturnFilter accepts points whose return number equals their pulse's
// total number of returns.
type LastReturnFilter struct {
	Base
}

// NewLastReturnFilter builds a last-return filter.
func NewLastReturnFilter(exclude bool) *LastReturnFilter {
	return &LastReturnFilter{Base{Exclude: exclude}}
}

// Evaluate reports whether p is a last return.
func (f *LastReturnFilter) Evaluate(p *las.Point) bool {
	return p.LastReturn()
}

// BoundsFilter accepts points whose dequantized coordinates fall inside an
// axis-aligned box. The header supplies the scale/offset triples.
type BoundsFilter struct {
	Base
	Header     *las.Header
	MinX, MaxX float64
	MinY, MaxY float64
	MinZ, MaxZ float64
}

// Evaluate reports whether p's real-world coordinates are inside the box.
func (f *BoundsFilter) Evaluate(p *las.Point) bool {
	x, y, z := p.XYZ(f.Header)
	return x >= f.MinX && x <= f.MaxX &&
		y >= f.MinY && y <= f.MaxY &&
		z >= f.MinZ && z <= f.MaxZ
}

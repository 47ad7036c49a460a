// Package lasio is a point-cloud file I/O engine for the LAS binary
// format: public header parsing and validation, point-record codecs for
// point data formats 0-3, sequential and random-access reading, writing
// with append semantics, an optional compressed point-data container, and
// an inclusion/exclusion filter pipeline between source and sink.
//
// # Architecture
//
// The engine is layered leaf-first:
//
//  1. Header model (pkg/las): parse, validate and serialize the fixed
//     public header block and its variable length records.
//
//  2. Point record codec (pkg/las): fixed-offset encode/decode of a
//     single record for a given point data format.
//
//  3. Compression adapter (pkg/las + pkg/compression): a PointSource/
//     PointSink pair selected once at construction from the header's
//     compressed flag. Callers never branch on compression.
//
//  4. Filter pipeline (pkg/filter): an ordered chain of predicates, each
//     with an inclusion/exclusion toggle, folded with logical AND.
//
//  5. Reader and Writer (pkg/las): own a borrowed stream, a header and an
//     optional filter chain.
//
// # Quick start
//
// Copy the ground points of a file:
//
//	chain := filter.NewChain(filter.NewClassificationFilter(false, las.ClassGround))
//	src, err := las.Open("in.las", las.WithFilter(chain))
//	if err != nil {
//	    return err
//	}
//	defer src.Close()
//
//	header := *src.Header()
//	dst, err := las.Create("ground.las", &header)
//	if err != nil {
//	    return err
//	}
//	for src.ReadNext() {
//	    if err := dst.WritePoint(src.Point()); err != nil {
//	        return err
//	    }
//	}
//	if err := src.Err(); err != nil {
//	    return err
//	}
//	return dst.Close()
package lasio

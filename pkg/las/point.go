package las

// PointFormat identifies the point data record variant. The format
// determines which optional attributes (GPS time, color) are present and
// the exact byte size of each record.
type PointFormat uint8

const (
	// PointFormat0 is the 20-byte core record
	PointFormat0 PointFormat = 0
	// PointFormat1 adds GPS time
	PointFormat1 PointFormat = 1
	// PointFormat2 adds RGB color
	PointFormat2 PointFormat = 2
	// PointFormat3 adds GPS time and RGB color
	PointFormat3 PointFormat = 3
)

// Known reports whether the format is one the codec can decode.
func (f PointFormat) Known() bool {
	return f <= PointFormat3
}

// Size returns the on-disk byte size of a point record in this format.
// Unknown formats return 0.
func (f PointFormat) Size() uint16 {
	switch f {
	case PointFormat0:
		return 20
	case PointFormat1:
		return 28
	case PointFormat2:
		return 26
	case PointFormat3:
		return 34
	default:
		return 0
	}
}

// HasGPSTime reports whether records in this format carry a GPS timestamp.
func (f PointFormat) HasGPSTime() bool {
	return f == PointFormat1 || f == PointFormat3
}

// HasRGB reports whether records in this format carry color channels.
func (f PointFormat) HasRGB() bool {
	return f == PointFormat2 || f == PointFormat3
}

// Classification wraps a point classification code. The code domain is
// 0-31 in the base format; the three high bits of the on-disk byte are
// the synthetic/keypoint/withheld flags, kept separately on Point.
type Classification uint8

// Standard ASPRS classification codes.
const (
	ClassCreated          Classification = 0
	ClassUnclassified     Classification = 1
	ClassGround           Classification = 2
	ClassLowVegetation    Classification = 3
	ClassMediumVegetation Classification = 4
	ClassHighVegetation   Classification = 5
	ClassBuilding         Classification = 6
	ClassLowPoint         Classification = 7
	ClassWater            Classification = 9
)

// Point is a single decoded point record. X, Y and Z hold the raw
// quantized integers exactly as stored on disk; use XYZ with the owning
// header to obtain real-world coordinates.
type Point struct {
	X, Y, Z int32

	Intensity uint16

	ReturnNumber     uint8 // 1-based, 3 bits on disk
	NumberOfReturns  uint8 // 3 bits on disk
	ScanDirection    uint8 // 1 bit
	EdgeOfFlightLine bool

	Classification Classification
	Synthetic      bool
	KeyPoint       bool
	Withheld       bool

	ScanAngleRank int8
	UserData      uint8
	PointSourceID uint16

	// GPSTime is meaningful only for formats 1 and 3.
	GPSTime float64

	// Red, Green, Blue are meaningful only for formats 2 and 3.
	Red, Green, Blue uint16
}

// XYZ dequantizes the raw coordinates using the header's scale and offset
// triples: real = raw*scale + offset.
func (p *Point) XYZ(h *Header) (x, y, z float64) {
	x = float64(p.X)*h.XScale + h.XOffset
	y = float64(p.Y)*h.YScale + h.YOffset
	z = float64(p.Z)*h.ZScale + h.ZOffset
	return x, y, z
}

// LastReturn reports whether this point is the last return of its pulse.
// The result is only meaningful when ReturnNumber <= NumberOfReturns,
// which decoders preserve but do not enforce.
func (p *Point) LastReturn() bool {
	return p.ReturnNumber == p.NumberOfReturns
}

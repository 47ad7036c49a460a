package las

import (
	"encoding/binary"
	"math"

	"github.com/pointstream/lasio/pkg/errors"
)

// Point record layout, common to all formats:
//
//	offset 0   int32   X
//	offset 4   int32   Y
//	offset 8   int32   Z
//	offset 12  uint16  intensity
//	offset 14  byte    return number (0:2) | number of returns (3:5) |
//	                   scan direction (6) | edge of flight line (7)
//	offset 15  byte    classification (0:4) | synthetic (5) | keypoint (6) |
//	                   withheld (7)
//	offset 16  int8    scan angle rank
//	offset 17  byte    user data
//	offset 18  uint16  point source ID
//
// Formats 1 and 3 append a float64 GPS time; formats 2 and 3 append three
// uint16 color channels.

// DecodePoint decodes one point record from buf. buf must hold at least
// format.Size() bytes; shorter input is rejected as truncated.
func DecodePoint(buf []byte, format PointFormat) (Point, error) {
	var p Point
	if !format.Known() {
		return p, errors.Newf(errors.ErrorTypeFormat, "unknown point data format %d", uint8(format))
	}
	if len(buf) < int(format.Size()) {
		return p, errors.Newf(errors.ErrorTypeFormat,
			"truncated point record: have %d bytes, format %d needs %d",
			len(buf), uint8(format), format.Size())
	}

	le := binary.LittleEndian
	p.X = int32(le.Uint32(buf[0:]))
	p.Y = int32(le.Uint32(buf[4:]))
	p.Z = int32(le.Uint32(buf[8:]))
	p.Intensity = le.Uint16(buf[12:])

	bits := buf[14]
	p.ReturnNumber = bits & 0x07
	p.NumberOfReturns = (bits >> 3) & 0x07
	p.ScanDirection = (bits >> 6) & 0x01
	p.EdgeOfFlightLine = bits&0x80 != 0

	class := buf[15]
	p.Classification = Classification(class & 0x1f)
	p.Synthetic = class&0x20 != 0
	p.KeyPoint = class&0x40 != 0
	p.Withheld = class&0x80 != 0

	p.ScanAngleRank = int8(buf[16])
	p.UserData = buf[17]
	p.PointSourceID = le.Uint16(buf[18:])

	next := 20
	if format.HasGPSTime() {
		p.GPSTime = float64FromLE(buf[next:])
		next += 8
	}
	if format.HasRGB() {
		p.Red = le.Uint16(buf[next:])
		p.Green = le.Uint16(buf[next+2:])
		p.Blue = le.Uint16(buf[next+4:])
	}
	return p, nil
}

// EncodePoint encodes p into buf in the given format. buf must hold at
// least format.Size() bytes. EncodePoint is the exact inverse of
// DecodePoint for every point valid under the format.
func EncodePoint(buf []byte, p *Point, format PointFormat) error {
	if !format.Known() {
		return errors.Newf(errors.ErrorTypeFormat, "unknown point data format %d", uint8(format))
	}
	if len(buf) < int(format.Size()) {
		return errors.Newf(errors.ErrorTypeFormat,
			"point record buffer too small: have %d bytes, format %d needs %d",
			len(buf), uint8(format), format.Size())
	}

	le := binary.LittleEndian
	le.PutUint32(buf[0:], uint32(p.X))
	le.PutUint32(buf[4:], uint32(p.Y))
	le.PutUint32(buf[8:], uint32(p.Z))
	le.PutUint16(buf[12:], p.Intensity)

	bits := p.ReturnNumber & 0x07
	bits |= (p.NumberOfReturns & 0x07) << 3
	bits |= (p.ScanDirection & 0x01) << 6
	if p.EdgeOfFlightLine {
		bits |= 0x80
	}
	buf[14] = bits

	class := uint8(p.Classification) & 0x1f
	if p.Synthetic {
		class |= 0x20
	}
	if p.KeyPoint {
		class |= 0x40
	}
	if p.Withheld {
		class |= 0x80
	}
	buf[15] = class

	buf[16] = uint8(p.ScanAngleRank)
	buf[17] = p.UserData
	le.PutUint16(buf[18:], p.PointSourceID)

	next := 20
	if format.HasGPSTime() {
		float64ToLE(buf[next:], p.GPSTime)
		next += 8
	}
	if format.HasRGB() {
		le.PutUint16(buf[next:], p.Red)
		le.PutUint16(buf[next+2:], p.Green)
		le.PutUint16(buf[next+4:], p.Blue)
	}
	return nil
}

func float64FromLE(b []byte) float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(b))
}

func float64ToLE(b []byte, f float64) {
	binary.LittleEndian.PutUint64(b, math.Float64bits(f))
}

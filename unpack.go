package grib2mrms

import "fmt"

// Unpack is the strict Value Decoder: it turns section 7 into g.Len()
// physical values, NaN where the data is missing. Unlike the section 3 and
// 5 parsers it never substitutes defaults.
func Unpack(sec7 []byte, p Packing, g LatLonGrid, bm Bitmap, o Options) ([]float64, error) {
	switch p := p.(type) {
	case SimplePacking:
		return unpackSimple(sec7, p, g, bm, o)
	case ImagePacking:
		return unpackPNG(sec7, p, g, bm, o)
	case UnsupportedPacking:
		return nil, newDecodeError(ErrUnsupportedPacking, "unpack", -1,
			fmt.Sprintf("DRS template 5.%d", p.Template))
	default:
		return nil, newDecodeError(ErrUnsupportedPacking, "unpack", -1,
			fmt.Sprintf("unknown packing %T", p))
	}
}

package grib2mrms

import "fmt"

// Bitmap indicator values from section 6, octet 6.
const (
	bitmapPresent = 0
	bitmapNone    = 255
)

// Bitmap marks which grid points carry a packed value. A nil Bitmap means
// every point does.
//
// GRIB2 bitmaps are MSB-first: bit 7 of byte 0 is grid point 0,
// bit 6 of byte 0 is grid point 1, and so on.
type Bitmap []byte

// Has reports whether grid point i has data. Points past the end of the
// bitmap have none.
func (b Bitmap) Has(i int) bool {
	if b == nil {
		return true
	}
	byteIdx := i / 8
	if i < 0 || byteIdx >= len(b) {
		return false
	}
	return (b[byteIdx]>>uint(7-(i%8)))&1 == 1
}

// Count returns the number of set bits among the first n points.
func (b Bitmap) Count(n int) int {
	if b == nil {
		return n
	}
	c := 0
	for i := 0; i < n; i++ {
		if b.Has(i) {
			c++
		}
	}
	return c
}

// parseBitmap decodes section 6. Predefined bitmaps (indicators 1-254)
// are not supported.
func parseBitmap(sec []byte) (Bitmap, error) {
	if len(sec) < 6 {
		return nil, newDecodeError(ErrUnsupportedPacking, "section 6", -1,
			fmt.Sprintf("too short (%d bytes)", len(sec)))
	}
	switch sec[5] {
	case bitmapNone:
		return nil, nil
	case bitmapPresent:
		return Bitmap(sec[6:]), nil
	default:
		return nil, newDecodeError(ErrUnsupportedPacking, "section 6", -1,
			fmt.Sprintf("bitmap indicator %d not supported", sec[5]))
	}
}

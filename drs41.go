package grib2mrms

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
)

// maxPNGPixelsFactor bounds the embedded image relative to the grid.
const maxPNGPixelsFactor = 4

// unpackPNG decodes a DRS Template 5.41 section 7. The payload is a PNG;
// 16-bit grayscale pixels are used as-is, colour pixels combine the first
// two channels as R<<8 | G. An undecodable image fails the whole step.
func unpackPNG(sec7 []byte, p ImagePacking, g LatLonGrid, bm Bitmap, o Options) ([]float64, error) {
	if err := checkBitWidth(p.Nbits, p); err != nil {
		return nil, err
	}
	data := payload(sec7)
	fail := func(detail string, err error) error {
		e := newDecodeError(ErrCompressedPayload, "unpack", -1, detail)
		e.Header = headerAt(data, 0)
		e.Err = err
		return e
	}

	// Check dimensions before Decode allocates the pixel buffer.
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fail("DRS 5.41 PNG header", err)
	}
	if int64(cfg.Width)*int64(cfg.Height) > maxPNGPixelsFactor*int64(g.Len()) {
		return nil, fail(fmt.Sprintf("DRS 5.41 PNG is %dx%d for a %dx%d grid",
			cfg.Width, cfg.Height, g.Nx, g.Ny), nil)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fail("DRS 5.41 PNG decode", err)
	}

	vals := missingGrid(g.Len())
	next, nbits := pixels(img)
	fill(vals, bm, next, newScaler(p.ScaleParams, sentinelFor(nbits), o))
	return vals, nil
}

// pixels returns a row-major iterator over img's packed integers and the
// width of those integers in bits.
func pixels(img image.Image) (func() (uint32, bool), int) {
	b := img.Bounds()
	x, y := b.Min.X, b.Min.Y

	var at func(x, y int) uint32
	nbits := 16
	switch m := img.(type) {
	case *image.Gray16:
		at = func(x, y int) uint32 { return uint32(m.Gray16At(x, y).Y) }
	case *image.Gray:
		at = func(x, y int) uint32 { return uint32(m.GrayAt(x, y).Y) }
		nbits = 8
	case *image.NRGBA:
		at = func(x, y int) uint32 {
			c := m.NRGBAAt(x, y)
			return uint32(c.R)<<8 | uint32(c.G)
		}
	default:
		at = func(x, y int) uint32 {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			return uint32(c.R)<<8 | uint32(c.G)
		}
	}

	return func() (uint32, bool) {
		if b.Empty() || y >= b.Max.Y {
			return 0, false
		}
		v := at(x, y)
		if x++; x >= b.Max.X {
			x = b.Min.X
			y++
		}
		return v, true
	}, nbits
}

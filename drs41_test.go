package grib2mrms

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func imagePacking(R float64, D, nbits int) ImagePacking {
	return ImagePacking{ScaleParams{ReferenceValue: R, DecimalScaleFactor: D, Nbits: nbits}}
}

func TestUnpackPNGGray16(t *testing.T) {
	img := image.NewGray16(image.Rect(0, 0, 2, 2))
	img.SetGray16(0, 0, color.Gray16{Y: 300})
	img.SetGray16(1, 0, color.Gray16{Y: 0})
	img.SetGray16(0, 1, color.Gray16{Y: 500})
	img.SetGray16(1, 1, color.Gray16{Y: 0xFFFF})

	vals, err := Unpack(buildDataSection(encodePNG(t, img)), imagePacking(0, 1, 16),
		LatLonGrid{Nx: 2, Ny: 2}, nil, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 30.0, vals[0])
	assert.True(t, IsMissing(vals[1]))
	assert.Equal(t, 50.0, vals[2])
	assert.True(t, IsMissing(vals[3]))
}

func TestUnpackPNGChannelsCombine(t *testing.T) {
	// R<<8 | G: 0x01,0x2C → 300; 0x02,0x58 → 600.
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 0x01, G: 0x2C, B: 0, A: 0xFF})
	img.SetNRGBA(1, 0, color.NRGBA{R: 0x02, G: 0x58, B: 0x99, A: 0xFF})

	vals, err := Unpack(buildDataSection(encodePNG(t, img)), imagePacking(0, 1, 16),
		LatLonGrid{Nx: 2, Ny: 1}, nil, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 30.0, vals[0])
	assert.Equal(t, 60.0, vals[1])
}

func TestUnpackPNGGray8(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 3, 1))
	img.SetGray(0, 0, color.Gray{Y: 40})
	img.SetGray(1, 0, color.Gray{Y: 255})
	img.SetGray(2, 0, color.Gray{Y: 0})

	vals, err := Unpack(buildDataSection(encodePNG(t, img)), imagePacking(0, 0, 8),
		LatLonGrid{Nx: 3, Ny: 1}, nil, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 40.0, vals[0])
	assert.True(t, IsMissing(vals[1]))
	assert.True(t, IsMissing(vals[2]))
}

func TestUnpackPNGSmallerThanGrid(t *testing.T) {
	img := image.NewGray16(image.Rect(0, 0, 2, 1))
	img.SetGray16(0, 0, color.Gray16{Y: 100})
	img.SetGray16(1, 0, color.Gray16{Y: 200})

	vals, err := Unpack(buildDataSection(encodePNG(t, img)), imagePacking(0, 1, 16),
		LatLonGrid{Nx: 2, Ny: 2}, nil, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, vals, 4)
	assert.Equal(t, 10.0, vals[0])
	assert.Equal(t, 20.0, vals[1])
	assert.True(t, IsMissing(vals[2]))
	assert.True(t, IsMissing(vals[3]))
}

func TestUnpackPNGCorrupt(t *testing.T) {
	img := image.NewGray16(image.Rect(0, 0, 4, 4))
	good := encodePNG(t, img)

	cases := map[string][]byte{
		"garbage":   []byte("definitely not a png"),
		"empty":     nil,
		"truncated": good[:len(good)/2],
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Unpack(buildDataSection(payload), imagePacking(0, 1, 16),
				LatLonGrid{Nx: 4, Ny: 4}, nil, DefaultOptions())
			require.ErrorIs(t, err, ErrCompressedPayload)
		})
	}
}

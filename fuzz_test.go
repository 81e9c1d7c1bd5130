package grib2mrms

import (
	"testing"
)

// FuzzDecode feeds arbitrary byte slices to Decode.
// The invariant is that it must never panic, and a successful decode
// always has exactly Nx*Ny values.
// Run with: go test -fuzz=FuzzDecode -fuzztime=60s .
func FuzzDecode(f *testing.F) {
	seeds := [][]byte{
		simpleMessage(2, 2, 300, 0, 500, 65535),
		simpleMessage(3, 1, 1, 2, 3),
		[]byte("GRIB\x00\x00\x00\x02\x00\x00\x00\x00\x00\x00\x00\x10"),
		[]byte("NOTGRIB"),
		{},
		[]byte("GRIB"),
		func() []byte {
			b := make([]byte, 20)
			copy(b[0:4], "GRIB")
			b[7] = 2
			b[15] = 20
			copy(b[16:], "7777")
			return b
		}(),
		{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF,
			0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF},
	}
	for _, s := range seeds {
		f.Add(s)
	}

	f.Fuzz(func(t *testing.T, data []byte) {
		field, err := Decode(data, WithWorkers(2))
		if err != nil {
			return
		}
		if len(field.Vals) != field.Grid.Len() {
			t.Fatalf("decoded %d values for a %dx%d grid", len(field.Vals), field.Grid.Nx, field.Grid.Ny)
		}
	})
}

// FuzzUnpackPNG feeds arbitrary section 7 payloads to the PNG path.
// Run with: go test -fuzz=FuzzUnpackPNG -fuzztime=60s .
func FuzzUnpackPNG(f *testing.F) {
	f.Add([]byte("\x89PNG\r\n\x1a\n"))
	f.Add([]byte{})
	f.Add(make([]byte, 64))

	p := ImagePacking{ScaleParams{DecimalScaleFactor: 1, Nbits: 16}}
	g := LatLonGrid{Nx: 8, Ny: 8}
	f.Fuzz(func(t *testing.T, data []byte) {
		_, _ = Unpack(buildDataSection(data), p, g, nil, DefaultOptions())
	})
}

// FuzzScan verifies the scanner never panics and never reports a section
// that runs past the buffer.
func FuzzScan(f *testing.F) {
	f.Add(simpleMessage(2, 2, 1, 2, 3, 4))
	f.Add([]byte("GRIB\x00\x00\x00\x02\x00\x00\x00\x00\x00\x00\x00\x10\xff\xff\xff\xff\x03"))
	f.Fuzz(func(t *testing.T, data []byte) {
		msg, err := Scan(data)
		if err != nil {
			return
		}
		for id, s := range msg.Sections {
			if s.Offset+s.Length > len(data) || s.ID != id {
				t.Fatalf("section %d at %d+%d exceeds %d bytes", id, s.Offset, s.Length, len(data))
			}
		}
	})
}

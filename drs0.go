package grib2mrms

import (
	"fmt"
	"sync"
)

// unpackSimple decodes a DRS Template 5.0 section 7. Values are consecutive
// big-endian unsigned integers of p.Nbits (8 or 16) after the 5-byte header.
func unpackSimple(sec7 []byte, p SimplePacking, g LatLonGrid, bm Bitmap, o Options) ([]float64, error) {
	if err := checkBitWidth(p.Nbits, p); err != nil {
		return nil, err
	}
	vals := missingGrid(g.Len())
	words := newWordReader(payload(sec7), p.Nbits)
	s := newScaler(p.ScaleParams, sentinelFor(p.Nbits), o)

	// A bitmap makes the value index depend on every earlier bit, so only
	// the dense layout can be split by row.
	if bm != nil || o.Workers <= 1 || g.Ny < 2 {
		fill(vals, bm, words.cursor(), s)
		return vals, nil
	}
	unpackRows(vals, words, g, s, o.Workers)
	return vals, nil
}

// unpackRows splits the grid into contiguous row ranges, one per worker.
// Ranges are disjoint, so workers never write the same slot.
func unpackRows(vals []float64, words wordReader, g LatLonGrid, s scaler, workers int) {
	if workers > g.Ny {
		workers = g.Ny
	}
	rowsPer := (g.Ny + workers - 1) / workers
	avail := words.len()

	var wg sync.WaitGroup
	for r0 := 0; r0 < g.Ny; r0 += rowsPer {
		r1 := r0 + rowsPer
		if r1 > g.Ny {
			r1 = g.Ny
		}
		lo, hi := r0*g.Nx, r1*g.Nx
		if lo >= avail {
			break
		}
		if hi > avail {
			hi = avail
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			for i := lo; i < hi; i++ {
				raw, _ := words.at(i)
				vals[i] = s.value(raw)
			}
		}(lo, hi)
	}
	wg.Wait()
}

func checkBitWidth(nbits int, p Packing) error {
	if nbits == 8 || nbits == 16 {
		return nil
	}
	return newDecodeError(ErrUnsupportedPacking, "unpack", -1,
		fmt.Sprintf("%T: %d bits per value (supported: 8, 16)", p, nbits))
}

// payload strips the section 7 header. A section too short to hold even
// the header decodes as empty.
func payload(sec7 []byte) []byte {
	if len(sec7) < sectionHdrLen {
		return nil
	}
	return sec7[sectionHdrLen:]
}

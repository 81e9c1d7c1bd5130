package grib2mrms

import "math"

// scaler turns raw packed integers into physical values.
type scaler struct {
	ref      float64
	binScale float64 // 2^E
	decScale float64 // 10^D
	min, max float64
	sentinel uint32 // all-bits-set pattern for the value width
}

func newScaler(p ScaleParams, sentinel uint32, o Options) scaler {
	return scaler{
		ref:      p.ReferenceValue,
		binScale: math.Ldexp(1.0, p.BinaryScaleFactor),
		decScale: math.Pow(10, float64(p.DecimalScaleFactor)),
		min:      o.ValueMin,
		max:      o.ValueMax,
		sentinel: sentinel,
	}
}

// value returns the physical value for raw, or NaN when raw is a missing
// sentinel (0 or all bits set) or the result falls outside [min, max].
func (s scaler) value(raw uint32) float64 {
	if raw == 0 || raw == s.sentinel {
		return math.NaN()
	}
	v := (s.ref + float64(raw)*s.binScale) / s.decScale
	if v < s.min || v > s.max || math.IsNaN(v) {
		return math.NaN()
	}
	return round1(v)
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }

// sentinelFor returns the all-bits-set value for an nbits-wide integer.
func sentinelFor(nbits int) uint32 { return uint32(1)<<uint(nbits) - 1 }

// IsMissing reports whether a decoded slot holds no value.
func IsMissing(v float64) bool { return math.IsNaN(v) }

// fill decodes values in slot order, skipping points the bitmap marks
// empty. It stops when next runs dry; the remaining slots stay NaN.
func fill(vals []float64, bm Bitmap, next func() (uint32, bool), s scaler) {
	for i := range vals {
		if !bm.Has(i) {
			continue
		}
		raw, ok := next()
		if !ok {
			return
		}
		vals[i] = s.value(raw)
	}
}

func missingGrid(n int) []float64 {
	vals := make([]float64, n)
	nan := math.NaN()
	for i := range vals {
		vals[i] = nan
	}
	return vals
}

package grib2mrms

import "fmt"

// ValidFraction returns the share of slots in vals that hold a value.
func ValidFraction(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	n := 0
	for _, v := range vals {
		if !IsMissing(v) {
			n++
		}
	}
	return float64(n) / float64(len(vals))
}

// CheckValidity is the Validity Gate. Wrong-template or corrupt payloads
// can unpack without a structural error yet yield almost nothing but
// sentinels; a valid fraction at or below minFraction is rejected with
// ErrLowValidity.
func CheckValidity(vals []float64, minFraction float64) (float64, error) {
	f := ValidFraction(vals)
	if f <= minFraction {
		return f, newDecodeError(ErrLowValidity, "validity", -1,
			fmt.Sprintf("%.2f%% of %d points valid (need more than %.2f%%)",
				f*100, len(vals), minFraction*100))
	}
	return f, nil
}

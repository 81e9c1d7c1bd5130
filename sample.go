package grib2mrms

// GeoSample is one retained grid cell.
type GeoSample struct {
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	Value float64 `json:"value"`
}

// Sample thins f to every stride-th row and column and keeps cells whose
// value is present and above threshold. Output is in row-major order and
// depends only on the inputs.
func Sample(f *Field, stride int, threshold float64) []GeoSample {
	if stride < 1 {
		stride = 1
	}
	g := f.Grid
	if len(f.Vals) < g.Len() {
		return nil
	}
	var out []GeoSample
	for row := 0; row < g.Ny; row += stride {
		for col := 0; col < g.Nx; col += stride {
			v := f.Vals[row*g.Nx+col]
			if IsMissing(v) || v <= threshold {
				continue
			}
			lat, lon := g.LatLon(row, col)
			out = append(out, GeoSample{Lat: lat, Lon: lon, Value: round1(v)})
		}
	}
	return out
}

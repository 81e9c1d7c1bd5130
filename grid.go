// Package grib2mrms decodes NOAA MRMS GRIB2 radar mosaics: GDT 3.0
// (regular latitude/longitude) grids packed with DRS Template 5.0 (simple
// packing) or 5.41 (PNG), and thins the result into geo-tagged samples.
package grib2mrms

import (
	"encoding/binary"
	"fmt"
)

// microDeg converts the GRIB2 integer angle unit (10^-6 degree) to degrees.
const microDeg = 1e6

// Input sanity limits, well above the MRMS CONUS 7000x3500 mosaic.
const (
	maxGridDim    = 30000
	maxGridPoints = 1 << 25
)

// gdtLatLon is Grid Definition Template 3.0.
const gdtLatLon = 0

// minGridSectionLen covers the header plus GDT 3.0 up to the scanning mode.
const minGridSectionLen = 72

// LatLonGrid holds GDT 3.0 parameters. Angles are kept in the wire unit
// (micro-degrees); longitudes use the 0-360 convention.
type LatLonGrid struct {
	Nx, Ny   int
	La1, Lo1 int32 // first grid point
	La2, Lo2 int32 // last grid point
	Dx, Dy   int32 // i/j direction increments
	ScanMode byte
	Template uint16
}

// DefaultGrid is the MRMS CONUS 0.01 degree mosaic used when section 3 is
// missing or malformed.
var DefaultGrid = LatLonGrid{
	Nx:       7000,
	Ny:       3500,
	La1:      54995000,
	Lo1:      230005000,
	La2:      20005000,
	Lo2:      299995000,
	Dx:       10000,
	Dy:       10000,
	Template: gdtLatLon,
}

// Len returns the number of grid points.
func (g LatLonGrid) Len() int { return g.Nx * g.Ny }

// LatLon returns the signed-degree position of cell (row, col). Rows run
// southward from La1, columns eastward from Lo1.
func (g LatLonGrid) LatLon(row, col int) (lat, lon float64) {
	lat = float64(g.La1)/microDeg - float64(row)*float64(g.Dy)/microDeg
	lon = float64(g.Lo1)/microDeg + float64(col)*float64(g.Dx)/microDeg
	return lat, NormLon(lon)
}

// NormLon converts a 0-360 longitude to [-180, 180).
func NormLon(lon float64) float64 {
	for lon >= 180 {
		lon -= 360
	}
	for lon < -180 {
		lon += 360
	}
	return lon
}

// Defaulted reports that a tolerant stage substituted a default instead of
// decoding its section. It is an outcome, not an error.
type Defaulted struct {
	Stage  string `json:"stage"`
	Reason string `json:"reason"`
}

func (d *Defaulted) String() string { return d.Stage + ": " + d.Reason }

// ParseGrid decodes section 3. Any template id is read with the GDT 3.0
// layout, since MRMS only produces that template. A short or inconsistent
// section yields DefaultGrid and a non-nil *Defaulted.
//
// Offsets (sec includes the 5-byte header):
//
//	6..9    number of data points
//	12..13  grid definition template number
//	30..33  Ni
//	34..37  Nj
//	46..49  La1 (µdeg)
//	50..53  Lo1 (µdeg, 0-360)
//	55..58  La2 (µdeg)
//	59..62  Lo2 (µdeg)
//	63..66  Di (µdeg)
//	67..70  Dj (µdeg)
//	71      scanning mode
func ParseGrid(sec []byte) (LatLonGrid, *Defaulted) {
	fallback := func(format string, args ...any) (LatLonGrid, *Defaulted) {
		return DefaultGrid, &Defaulted{Stage: "section 3", Reason: fmt.Sprintf(format, args...)}
	}
	if len(sec) < minGridSectionLen {
		return fallback("too short (%d bytes, need %d)", len(sec), minGridSectionLen)
	}

	u32 := func(off int) uint32 { return binary.BigEndian.Uint32(sec[off : off+4]) }
	i32 := func(off int) int32 { return int32(u32(off)) }

	npts := u32(6)
	nx := u32(30)
	ny := u32(34)
	if nx == 0 || nx > maxGridDim || ny == 0 || ny > maxGridDim {
		return fallback("invalid grid dimensions %dx%d (max %d)", nx, ny, maxGridDim)
	}
	// int64 products avoid overflow on 32-bit platforms.
	if int64(nx)*int64(ny) > maxGridPoints {
		return fallback("%dx%d grid exceeds %d points", nx, ny, maxGridPoints)
	}
	if npts != 0 && int64(nx)*int64(ny) != int64(npts) {
		return fallback("%dx%d grid disagrees with %d declared points", nx, ny, npts)
	}

	return LatLonGrid{
		Nx:       int(nx),
		Ny:       int(ny),
		La1:      i32(46),
		Lo1:      i32(50),
		La2:      i32(55),
		Lo2:      i32(59),
		Dx:       i32(63),
		Dy:       i32(67),
		ScanMode: sec[71],
		Template: binary.BigEndian.Uint16(sec[12:14]),
	}, nil
}

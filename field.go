package grib2mrms

import (
	"encoding/binary"
	"math"
	"time"
)

// Field is a decoded GRIB2 field: a lat/lon grid + float64 values.
// Values are stored row-major: Vals[row*Grid.Nx + col]; NaN is missing.
type Field struct {
	Grid LatLonGrid
	Vals []float64
	Meta Metadata
	// ValidFraction is the share of non-missing values, as measured by
	// the Validity Gate.
	ValidFraction float64
	// Defaults lists the tolerant stages that fell back to defaults.
	Defaults []Defaulted
}

// At returns the value at (row, col), or NaN outside the grid.
func (f *Field) At(row, col int) float64 {
	if row < 0 || row >= f.Grid.Ny || col < 0 || col >= f.Grid.Nx {
		return math.NaN()
	}
	return f.Vals[row*f.Grid.Nx+col]
}

// Metadata identifies the product carried by a message.
type Metadata struct {
	Discipline        uint8     `json:"discipline"`
	ParameterCategory uint8     `json:"parameterCategory"`
	ParameterNumber   uint8     `json:"parameterNumber"`
	Centre            uint16    `json:"centre"`
	SubCentre         uint16    `json:"subCentre"`
	ReferenceTime     time.Time `json:"referenceTime"`
}

// parseMetadata collects discipline from the indicator, centre and
// reference time from section 1 and parameter identity from section 4.
// Both sections are optional; short ones leave fields zero.
func parseMetadata(msg *Message) Metadata {
	m := Metadata{Discipline: msg.Indicator.Discipline}
	if s, ok := msg.Sections.Lookup(SectionIdentification); ok && len(s.Data) >= 19 {
		b := s.Data
		m.Centre = binary.BigEndian.Uint16(b[5:7])
		m.SubCentre = binary.BigEndian.Uint16(b[7:9])
		year := int(binary.BigEndian.Uint16(b[12:14]))
		if year > 0 && b[14] >= 1 && b[14] <= 12 {
			m.ReferenceTime = time.Date(year, time.Month(b[14]), int(b[15]),
				int(b[16]), int(b[17]), int(b[18]), 0, time.UTC)
		}
	}
	if s, ok := msg.Sections.Lookup(SectionProduct); ok && len(s.Data) >= 11 {
		m.ParameterCategory = s.Data[9]
		m.ParameterNumber = s.Data[10]
	}
	return m
}

// GridInfo is the JSON form of a LatLonGrid in degrees.
type GridInfo struct {
	Nx  int     `json:"nx"`
	Ny  int     `json:"ny"`
	La1 float64 `json:"la1"`
	Lo1 float64 `json:"lo1"`
	La2 float64 `json:"la2"`
	Lo2 float64 `json:"lo2"`
	Dx  float64 `json:"dx"`
	Dy  float64 `json:"dy"`
}

// Info converts g to degrees with longitudes normalized to [-180, 180).
func (g LatLonGrid) Info() GridInfo {
	return GridInfo{
		Nx:  g.Nx,
		Ny:  g.Ny,
		La1: float64(g.La1) / microDeg,
		Lo1: NormLon(float64(g.Lo1) / microDeg),
		La2: float64(g.La2) / microDeg,
		Lo2: NormLon(float64(g.Lo2) / microDeg),
		Dx:  float64(g.Dx) / microDeg,
		Dy:  float64(g.Dy) / microDeg,
	}
}

// Product is what callers serialize for the map frontend.
type Product struct {
	Samples  []GeoSample `json:"samples"`
	Grid     GridInfo    `json:"grid"`
	Meta     Metadata    `json:"metadata"`
	Valid    float64     `json:"validFraction"`
	Degraded bool        `json:"degraded"`
	Reason   string      `json:"reason,omitempty"`
	Defaults []Defaulted `json:"defaults,omitempty"`
}

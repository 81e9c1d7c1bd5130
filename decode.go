package grib2mrms

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// mandatory sections, in the order they are reported when absent.
var mandatory = []uint8{SectionGrid, SectionRepresentation, SectionData}

// Decode decodes a raw GRIB2 message into a Field and applies the Validity
// Gate. Errors are *DecodeError values; match them with errors.Is against
// the Err* kinds.
func Decode(raw []byte, opts ...Option) (*Field, error) {
	o, err := buildOptions(opts)
	if err != nil {
		return nil, err
	}
	return decode(raw, o)
}

// DecodeProduct decodes raw and samples it with the configured stride and
// threshold.
func DecodeProduct(raw []byte, opts ...Option) (*Product, error) {
	o, err := buildOptions(opts)
	if err != nil {
		return nil, err
	}
	f, err := decode(raw, o)
	if err != nil {
		return nil, err
	}
	p := &Product{
		Samples:  Sample(f, o.Stride, o.Threshold),
		Grid:     f.Grid.Info(),
		Meta:     f.Meta,
		Valid:    f.ValidFraction,
		Defaults: f.Defaults,
	}
	if p.Samples == nil {
		p.Samples = []GeoSample{}
	}
	o.Logger.Debug("product sampled",
		zap.Int("samples", len(p.Samples)),
		zap.Int("stride", o.Stride),
		zap.Float64("threshold", o.Threshold))
	return p, nil
}

func decode(raw []byte, o Options) (*Field, error) {
	log := o.Logger
	msg, err := scan(raw, log)
	if err != nil {
		return nil, err
	}

	var absent []string
	for _, id := range mandatory {
		if _, ok := msg.Sections.Lookup(id); !ok {
			absent = append(absent, fmt.Sprint(id))
		}
	}
	if len(absent) > 0 {
		e := newDecodeError(ErrMissingSection, "scan", -1,
			"section(s) "+strings.Join(absent, ", ")+" absent")
		e.Sections = msg.Sections.Infos()
		return nil, e
	}

	f := &Field{Meta: parseMetadata(msg)}
	noteDefault := func(d *Defaulted) {
		if d == nil {
			return
		}
		log.Warn("using default", zap.String("stage", d.Stage), zap.String("reason", d.Reason))
		f.Defaults = append(f.Defaults, *d)
	}

	gridSec := msg.Sections[SectionGrid]
	grid, d := ParseGrid(gridSec.Data)
	noteDefault(d)
	if d == nil && grid.Template != gdtLatLon {
		log.Warn("grid template read with lat/lon layout", zap.Uint16("template", grid.Template))
	}
	f.Grid = grid

	packing, d := ParseRepresentation(msg.Sections[SectionRepresentation].Data)
	noteDefault(d)

	var bm Bitmap
	if s, ok := msg.Sections.Lookup(SectionBitmap); ok {
		if bm, err = parseBitmap(s.Data); err != nil {
			return nil, annotate(err, msg, s.Offset)
		}
	}

	if n, ok := packedCount(packing); ok && n > 0 && bm != nil {
		if set := bm.Count(grid.Len()); set != n {
			log.Warn("bitmap population disagrees with section 5",
				zap.Int("bitmap_points", set),
				zap.Int("packed_values", n))
		}
	}

	dataSec := msg.Sections[SectionData]
	f.Vals, err = Unpack(dataSec.Data, packing, grid, bm, o)
	if err != nil {
		return nil, annotate(err, msg, dataSec.Offset)
	}
	f.ValidFraction, err = CheckValidity(f.Vals, o.MinValidFraction)
	if err != nil {
		return nil, annotate(err, msg, dataSec.Offset)
	}

	log.Debug("field decoded",
		zap.Int("nx", grid.Nx),
		zap.Int("ny", grid.Ny),
		zap.String("packing", fmt.Sprintf("%T", packing)),
		zap.Int("bits", packing.BitWidth()),
		zap.Float64("valid_fraction", f.ValidFraction))
	return f, nil
}

// packedCount returns the number of packed values declared in section 5.
func packedCount(p Packing) (int, bool) {
	switch p := p.(type) {
	case SimplePacking:
		return p.N, true
	case ImagePacking:
		return p.N, true
	}
	return 0, false
}

// annotate fills in the section table and offset of a *DecodeError raised
// by a stage that only saw its own section.
func annotate(err error, msg *Message, off int) error {
	var de *DecodeError
	if !errors.As(err, &de) {
		return err
	}
	if de.Offset < 0 {
		de.Offset = off
	}
	if de.Sections == nil {
		de.Sections = msg.Sections.Infos()
	}
	return de
}

package grib2mrms

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Data Representation Template numbers handled by the decoder.
const (
	drsSimple = 0
	drsPNG    = 41
)

// minDRSSectionLen is the header, N, template number and the 10 bytes
// shared by templates 5.0 and 5.41.
const minDRSSectionLen = 11 + 10

// Packing is the decoded Data Representation Section. It is one of
// SimplePacking, ImagePacking or UnsupportedPacking.
type Packing interface {
	// BitWidth is the number of bits per packed value.
	BitWidth() int
	packing()
}

// ScaleParams are the fields shared by templates 5.0 and 5.41.
// Unpacking formula: Y = (R + X × 2^E) / 10^D
type ScaleParams struct {
	ReferenceValue     float64
	BinaryScaleFactor  int
	DecimalScaleFactor int
	Nbits              int
	TypeOfValue        byte
	N                  int // number of packed values from sec[5:9]
}

// SimplePacking is DRS Template 5.0: a flat big-endian array of Nbits-wide
// unsigned integers.
type SimplePacking struct{ ScaleParams }

// ImagePacking is DRS Template 5.41: the data section holds a PNG whose
// pixels carry the packed integers.
type ImagePacking struct{ ScaleParams }

// UnsupportedPacking is produced for any other template. It carries no
// scale information and Unpack rejects it.
type UnsupportedPacking struct {
	Template uint16
	Nbits    int
}

func (p SimplePacking) BitWidth() int      { return p.Nbits }
func (p ImagePacking) BitWidth() int       { return p.Nbits }
func (p UnsupportedPacking) BitWidth() int { return p.Nbits }

func (SimplePacking) packing()      {}
func (ImagePacking) packing()       {}
func (UnsupportedPacking) packing() {}

// ParseRepresentation decodes section 5. Unknown templates and short
// sections degrade to UnsupportedPacking with a 16-bit width and a non-nil
// *Defaulted; the failure surfaces later as ErrUnsupportedPacking.
//
// Offsets (sec includes the 5-byte header):
//
//	5..8    number of packed values
//	9..10   template number
//	11..14  reference value (IEEE float32)
//	15..16  binary scale factor E (sign-magnitude)
//	17..18  decimal scale factor D (sign-magnitude)
//	19      bits per value
//	20      type of original field values
func ParseRepresentation(sec []byte) (Packing, *Defaulted) {
	if len(sec) < 11 {
		return UnsupportedPacking{Nbits: 16}, &Defaulted{
			Stage:  "section 5",
			Reason: fmt.Sprintf("too short (%d bytes)", len(sec)),
		}
	}
	tmpl := binary.BigEndian.Uint16(sec[9:11])
	if tmpl != drsSimple && tmpl != drsPNG {
		return UnsupportedPacking{Template: tmpl, Nbits: 16}, &Defaulted{
			Stage:  "section 5",
			Reason: fmt.Sprintf("template 5.%d not supported (supported: 5.0, 5.41)", tmpl),
		}
	}
	if len(sec) < minDRSSectionLen {
		return UnsupportedPacking{Template: tmpl, Nbits: 16}, &Defaulted{
			Stage:  "section 5",
			Reason: fmt.Sprintf("template 5.%d: too short (%d bytes, need %d)", tmpl, len(sec), minDRSSectionLen),
		}
	}

	sp := ScaleParams{
		ReferenceValue:     float64(math.Float32frombits(binary.BigEndian.Uint32(sec[11:15]))),
		BinaryScaleFactor:  decodeScaleFactor(binary.BigEndian.Uint16(sec[15:17])),
		DecimalScaleFactor: decodeScaleFactor(binary.BigEndian.Uint16(sec[17:19])),
		Nbits:              int(sec[19]),
		TypeOfValue:        sec[20],
		N:                  int(binary.BigEndian.Uint32(sec[5:9])),
	}
	if tmpl == drsPNG {
		return ImagePacking{sp}, nil
	}
	return SimplePacking{sp}, nil
}

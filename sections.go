package grib2mrms

import (
	"encoding/binary"
	"fmt"
	"sort"

	"go.uber.org/zap"
)

// Section identifiers used by the decoder.
const (
	SectionIdentification = 1
	SectionLocalUse       = 2
	SectionGrid           = 3
	SectionProduct        = 4
	SectionRepresentation = 5
	SectionBitmap         = 6
	SectionData           = 7
)

const (
	indicatorLen  = 16
	sectionHdrLen = 5
	supportedEd   = 2
	endMarker     = "7777"
	gribMagic     = "GRIB"

	// maxScanFrames bounds the scan loop; a real message has at most ~10.
	maxScanFrames = 64
)

// Indicator is the GRIB2 Indicator Section (section 0, 16 bytes).
type Indicator struct {
	Discipline  byte
	Edition     byte
	TotalLength uint64
}

// RawSection is one length-delimited section as found in the message.
// Data includes the 5-byte length+id header so field offsets match the
// WMO tables directly.
type RawSection struct {
	Offset int
	Length int
	ID     uint8
	Data   []byte
}

// SectionTable maps section id to the last section seen with that id.
type SectionTable map[uint8]RawSection

// Lookup returns the section with the given id and whether it was present.
func (t SectionTable) Lookup(id uint8) (RawSection, bool) {
	s, ok := t[id]
	return s, ok
}

// Infos returns a diagnostic summary of the table, ordered by offset.
func (t SectionTable) Infos() []SectionInfo {
	out := make([]SectionInfo, 0, len(t))
	for _, s := range t {
		out = append(out, SectionInfo{ID: s.ID, Offset: s.Offset, Length: s.Length})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Offset < out[j].Offset })
	return out
}

// Message is the result of scanning a raw GRIB2 buffer.
type Message struct {
	Indicator Indicator
	Sections  SectionTable
	// Terminated reports whether the "7777" end marker was reached.
	// A scan that stopped on a truncated section leaves it false.
	Terminated bool
}

// parseIndicator decodes the 16-byte indicator section.
func parseIndicator(b []byte) (Indicator, error) {
	if len(b) < 4 || string(b[0:4]) != gribMagic {
		e := newDecodeError(ErrFormat, "indicator", 0, "missing GRIB magic")
		e.Header = headerAt(b, 0)
		return Indicator{}, e
	}
	if len(b) < indicatorLen {
		e := newDecodeError(ErrFormat, "indicator", 0,
			fmt.Sprintf("need %d bytes, got %d", indicatorLen, len(b)))
		e.Header = headerAt(b, 0)
		return Indicator{}, e
	}
	ind := Indicator{
		Discipline:  b[6],
		Edition:     b[7],
		TotalLength: binary.BigEndian.Uint64(b[8:16]),
	}
	if ind.Edition != supportedEd {
		e := newDecodeError(ErrUnsupportedEdition, "indicator", 7,
			fmt.Sprintf("edition %d (only %d supported)", ind.Edition, supportedEd))
		e.Header = headerAt(b, 0)
		return Indicator{}, e
	}
	return ind, nil
}

// sectionAt reads the section header at off. ok is false when the scan
// must stop: end marker, truncated header, zero length, or a length that
// runs past the buffer. end reports whether the stop was the end marker.
func sectionAt(buf []byte, off int) (s RawSection, ok, end bool) {
	if off+4 <= len(buf) && string(buf[off:off+4]) == endMarker {
		return RawSection{}, false, true
	}
	if off+sectionHdrLen > len(buf) {
		return RawSection{}, false, false
	}
	sLen := binary.BigEndian.Uint32(buf[off : off+4])
	if sLen < sectionHdrLen {
		return RawSection{}, false, false
	}
	// uint64 arithmetic avoids int overflow on 32-bit platforms.
	if uint64(off)+uint64(sLen) > uint64(len(buf)) {
		return RawSection{}, false, false
	}
	n := int(sLen)
	return RawSection{
		Offset: off,
		Length: n,
		ID:     buf[off+4],
		Data:   buf[off : off+n],
	}, true, false
}

// Scan verifies the indicator and splits raw into sections. A truncated or
// inconsistent section ends the scan early without failing it; presence of
// the mandatory sections is checked by the caller.
func Scan(raw []byte, opts ...Option) (*Message, error) {
	o, err := buildOptions(opts)
	if err != nil {
		return nil, err
	}
	return scan(raw, o.Logger)
}

func scan(raw []byte, log *zap.Logger) (*Message, error) {
	ind, err := parseIndicator(raw)
	if err != nil {
		return nil, err
	}

	msg := &Message{Indicator: ind, Sections: make(SectionTable)}
	off := indicatorLen
	for i := 0; i < maxScanFrames; i++ {
		s, ok, end := sectionAt(raw, off)
		if end {
			msg.Terminated = true
			break
		}
		if !ok {
			if off < len(raw) {
				log.Debug("section scan stopped early",
					zap.Int("offset", off),
					zap.Int("buffer_len", len(raw)),
					zap.Binary("header", headerAt(raw, off)))
			}
			break
		}
		msg.Sections[s.ID] = s
		off += s.Length
	}

	if ce := log.Check(zap.DebugLevel, "sections found"); ce != nil {
		ids := make([]int, 0, len(msg.Sections))
		for _, info := range msg.Sections.Infos() {
			ids = append(ids, int(info.ID))
		}
		ce.Write(zap.Ints("ids", ids), zap.Bool("terminated", msg.Terminated))
	}
	return msg, nil
}

// decodeScaleFactor decodes a GRIB2 sign-magnitude 2-byte scale factor.
// MSB is the sign bit (1=negative), remaining 15 bits are magnitude.
func decodeScaleFactor(raw uint16) int {
	magnitude := int(raw & 0x7FFF)
	if raw&0x8000 != 0 {
		return -magnitude
	}
	return magnitude
}

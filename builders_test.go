package grib2mrms

import (
	"encoding/binary"
	"math"
)

func concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// buildIndicator builds a 16-byte section 0; the total length is patched
// by buildMessage.
func buildIndicator(discipline, edition byte) []byte {
	return []byte{
		'G', 'R', 'I', 'B', 0, 0,
		discipline,
		edition,
		0, 0, 0, 0, 0, 0, 0, 0,
	}
}

// buildMessage frames sections between an edition-2 indicator and "7777".
func buildMessage(sections ...[]byte) []byte {
	msg := concat(buildIndicator(209, 2), concat(sections...), []byte("7777"))
	binary.BigEndian.PutUint64(msg[8:16], uint64(len(msg)))
	return msg
}

func buildSection(id byte, body []byte) []byte {
	sec := make([]byte, 5+len(body))
	binary.BigEndian.PutUint32(sec[0:4], uint32(len(sec)))
	sec[4] = id
	copy(sec[5:], body)
	return sec
}

// buildSection1 builds a 21-byte identification section.
func buildSection1(centre uint16, year uint16, month, day, hour, minute, second byte) []byte {
	sec := make([]byte, 21)
	binary.BigEndian.PutUint32(sec[0:4], 21)
	sec[4] = 1
	binary.BigEndian.PutUint16(sec[5:7], centre)
	binary.BigEndian.PutUint16(sec[12:14], year)
	sec[14], sec[15], sec[16], sec[17], sec[18] = month, day, hour, minute, second
	return sec
}

// buildGridSection builds a 72-byte GDT 3.0 section 3.
func buildGridSection(nx, ny uint32, la1, lo1, la2, lo2, dx, dy int32) []byte {
	sec := make([]byte, 72)
	binary.BigEndian.PutUint32(sec[0:4], 72)
	sec[4] = 3
	binary.BigEndian.PutUint32(sec[6:10], nx*ny)
	binary.BigEndian.PutUint16(sec[12:14], 0)
	binary.BigEndian.PutUint32(sec[30:34], nx)
	binary.BigEndian.PutUint32(sec[34:38], ny)
	binary.BigEndian.PutUint32(sec[46:50], uint32(la1))
	binary.BigEndian.PutUint32(sec[50:54], uint32(lo1))
	binary.BigEndian.PutUint32(sec[55:59], uint32(la2))
	binary.BigEndian.PutUint32(sec[59:63], uint32(lo2))
	binary.BigEndian.PutUint32(sec[63:67], uint32(dx))
	binary.BigEndian.PutUint32(sec[67:71], uint32(dy))
	return sec
}

// buildProductSection builds a 34-byte section 4 with the given parameter.
func buildProductSection(category, number byte) []byte {
	sec := make([]byte, 34)
	binary.BigEndian.PutUint32(sec[0:4], 34)
	sec[4] = 4
	sec[9] = category
	sec[10] = number
	return sec
}

// buildDRSSection builds a 21-byte section 5 for template 5.0 or 5.41.
func buildDRSSection(tmpl uint16, n int, R float32, E, D int16, nBits int) []byte {
	sec := make([]byte, 21)
	binary.BigEndian.PutUint32(sec[0:4], 21)
	sec[4] = 5
	binary.BigEndian.PutUint32(sec[5:9], uint32(n))
	binary.BigEndian.PutUint16(sec[9:11], tmpl)
	binary.BigEndian.PutUint32(sec[11:15], math.Float32bits(R))
	// Encode E and D as sign-magnitude 2-byte values
	encSM := func(v int16) uint16 {
		if v < 0 {
			return 0x8000 | uint16(-v)
		}
		return uint16(v)
	}
	binary.BigEndian.PutUint16(sec[15:17], encSM(E))
	binary.BigEndian.PutUint16(sec[17:19], encSM(D))
	sec[19] = byte(nBits)
	return sec
}

func buildBitmapSection(indicator byte, bits ...byte) []byte {
	return buildSection(6, concat([]byte{indicator}, bits))
}

func buildDataSection(payload []byte) []byte { return buildSection(7, payload) }

func pack16(vals ...uint16) []byte {
	out := make([]byte, 2*len(vals))
	for i, v := range vals {
		binary.BigEndian.PutUint16(out[2*i:], v)
	}
	return out
}

func pack8(vals ...uint8) []byte { return append([]byte(nil), vals...) }

// simpleMessage builds a complete 16-bit simple-packed message over an
// nx*ny grid anchored at 40N, 100W with 0.1 degree spacing and D=1.
func simpleMessage(nx, ny uint32, raw ...uint16) []byte {
	return buildMessage(
		buildSection1(161, 2026, 5, 14, 12, 30, 0),
		buildGridSection(nx, ny, 40000000, -100000000, 0, 0, 100000, 100000),
		buildProductSection(15, 5),
		buildDRSSection(drsSimple, len(raw), 0, 0, 1, 16),
		buildDataSection(pack16(raw...)),
	)
}

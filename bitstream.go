package grib2mrms

import "encoding/binary"

// wordReader gives random access to a flat array of big-endian unsigned
// integers of 1 or 2 bytes each, as laid out by simple packing at 8 or 16
// bits per value.
type wordReader struct {
	buf   []byte
	width int // bytes per value
}

func newWordReader(b []byte, nbits int) wordReader {
	return wordReader{buf: b, width: nbits / 8}
}

// len returns how many complete values buf holds.
func (r wordReader) len() int { return len(r.buf) / r.width }

// at returns value i. ok is false once i runs past the buffer, which is how
// a truncated payload ends decoding.
func (r wordReader) at(i int) (v uint32, ok bool) {
	off := i * r.width
	if i < 0 || off+r.width > len(r.buf) {
		return 0, false
	}
	switch r.width {
	case 1:
		return uint32(r.buf[off]), true
	case 2:
		return uint32(binary.BigEndian.Uint16(r.buf[off:])), true
	}
	return 0, false
}

// cursor returns a sequential reader over r starting at value 0.
func (r wordReader) cursor() func() (uint32, bool) {
	i := 0
	return func() (uint32, bool) {
		v, ok := r.at(i)
		i++
		return v, ok
	}
}

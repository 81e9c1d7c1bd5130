package grib2mrms

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Match with errors.Is; use errors.As with *DecodeError for context.
var (
	ErrFormat             = errors.New("not a GRIB message")
	ErrUnsupportedEdition = errors.New("unsupported GRIB edition")
	ErrMissingSection     = errors.New("mandatory section missing")
	ErrUnsupportedPacking = errors.New("unsupported data packing")
	ErrCompressedPayload  = errors.New("embedded image payload corrupt")
	ErrLowValidity        = errors.New("too few valid grid points")
)

// DecodeError carries enough context to tell "wrong format entirely" from
// "known format, unsupported variant" from "known format, data corrupted".
type DecodeError struct {
	Kind     error         // one of the Err* kinds above
	Stage    string        // "indicator", "scan", "section 5", "unpack", "validity", ...
	Offset   int           // byte offset into the message, -1 if not applicable
	Header   []byte        // raw bytes at the failure point (at most 16)
	Sections []SectionInfo // sections found before the failure
	Detail   string
	Err      error // underlying cause, if any
}

// SectionInfo summarizes one scanned section for diagnostics.
type SectionInfo struct {
	ID     uint8 `json:"id"`
	Offset int   `json:"offset"`
	Length int   `json:"length"`
}

func (e *DecodeError) Error() string {
	var b strings.Builder
	b.WriteString(e.Stage)
	b.WriteString(": ")
	b.WriteString(e.Kind.Error())
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Offset >= 0 {
		fmt.Fprintf(&b, " (offset %d)", e.Offset)
	}
	if len(e.Header) > 0 {
		fmt.Fprintf(&b, " [header % x]", e.Header)
	}
	if len(e.Sections) > 0 {
		b.WriteString(" [sections")
		for _, s := range e.Sections {
			fmt.Fprintf(&b, " %d@%d+%d", s.ID, s.Offset, s.Length)
		}
		b.WriteString("]")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *DecodeError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newDecodeError(kind error, stage string, offset int, detail string) *DecodeError {
	return &DecodeError{Kind: kind, Stage: stage, Offset: offset, Detail: detail}
}

// headerAt returns up to 16 bytes of buf starting at off, for error context.
func headerAt(buf []byte, off int) []byte {
	if off < 0 || off >= len(buf) {
		return nil
	}
	end := off + 16
	if end > len(buf) {
		end = len(buf)
	}
	h := make([]byte, end-off)
	copy(h, buf[off:end])
	return h
}

package datasource

import (
	"bytes"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// MaxStringLength caps the scan for a NUL terminator.
const MaxStringLength = 0x100000

// CStringAt returns the NUL-terminated string at off, without the NUL.
// A buffer that ends before the terminator is an error.
func (s *Source) CStringAt(off int64) (string, error) {
	str, _, err := s.CStringSizeAt(off)
	return str, err
}

// CStringSizeAt is CStringAt that also returns the number of bytes the
// string occupies on disk, NUL included. Decoding may make the returned
// string longer than that.
func (s *Source) CStringSizeAt(off int64) (string, int64, error) {
	if off < 0 || off >= int64(len(s.data)) {
		return "", 0, &ReadError{Offset: off, Length: 1, Err: ErrOutOfRange}
	}
	rest := s.data[off:]
	if len(rest) > MaxStringLength {
		rest = rest[:MaxStringLength]
	}
	end := bytes.IndexByte(rest, 0)
	if end < 0 {
		return "", 0, &ReadError{Offset: off, Length: len(rest) + 1, Err: ErrOutOfRange}
	}
	return Decode(rest[:end]), int64(end) + 1, nil
}

// PascalStringAt returns the string at off that is prefixed by a one byte
// length.
func (s *Source) PascalStringAt(off int64) (string, error) {
	n, err := s.Uint8At(off)
	if err != nil {
		return "", err
	}
	b, err := s.span(off+1, int(n))
	if err != nil {
		return "", err
	}
	return Decode(b), nil
}

// FixedStringAt returns the n bytes at off with trailing NUL padding removed.
func (s *Source) FixedStringAt(off int64, n int) (string, error) {
	b, err := s.span(off, n)
	if err != nil {
		return "", err
	}
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return Decode(b), nil
}

// Decode converts ANSI (Windows-1252) text to a Go string. ASCII input is
// returned unchanged.
func Decode(b []byte) string {
	ascii := true
	for _, c := range b {
		if c >= utf8.RuneSelf {
			ascii = false
			break
		}
	}
	if ascii {
		return string(b)
	}
	out, err := charmap.Windows1252.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(out)
}

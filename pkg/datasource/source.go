// Package datasource provides positioned little-endian reads over an
// immutable byte buffer, backed either by memory or by a read-only file
// mapping.
package datasource

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/edsrzf/mmap-go"
	"github.com/pkg/errors"
)

// ErrOutOfRange is reported, wrapped in a *ReadError, when a read extends
// past the end of the buffer.
var ErrOutOfRange = errors.New("read out of range")

// ReadError is the single failure kind produced by a Source. It records the
// offset and length of the read that failed.
type ReadError struct {
	Offset int64
	Length int
	Err    error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read of %d bytes at 0x%x: %v", e.Length, e.Offset, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// Source is an immutable byte buffer. Every accessor takes an explicit
// offset, so a Source may be shared between goroutines.
type Source struct {
	data   []byte
	mapped mmap.MMap
}

// Open maps filename read-only.
func Open(filename string) (*Source, error) {
	handle, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = handle.Close()
	}()

	info, err := handle.Stat()
	if err != nil {
		return nil, err
	}
	// mmap of an empty file fails on most platforms.
	if info.Size() == 0 {
		return New(nil), nil
	}

	mapped, err := mmap.Map(handle, mmap.RDONLY, 0)
	if err != nil {
		return nil, errors.Wrapf(err, "map %s", filename)
	}
	return &Source{data: mapped, mapped: mapped}, nil
}

// New wraps data. The caller must not modify data afterwards.
func New(data []byte) *Source {
	return &Source{data: data}
}

// Close releases the file mapping, if any. The Source must not be used
// afterwards.
func (s *Source) Close() error {
	if s.mapped == nil {
		return nil
	}
	err := s.mapped.Unmap()
	s.mapped = nil
	s.data = nil
	return err
}

// Len returns the size of the buffer in bytes.
func (s *Source) Len() int64 {
	return int64(len(s.data))
}

func (s *Source) span(off int64, n int) ([]byte, error) {
	if off < 0 || n < 0 || off > int64(len(s.data)) || int64(n) > int64(len(s.data))-off {
		return nil, &ReadError{Offset: off, Length: n, Err: ErrOutOfRange}
	}
	return s.data[off : off+int64(n)], nil
}

// ReadAt implements io.ReaderAt.
func (s *Source) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, &ReadError{Offset: off, Length: len(p), Err: ErrOutOfRange}
	}
	if off >= int64(len(s.data)) {
		return 0, io.EOF
	}
	n := copy(p, s.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Section returns a reader over n bytes starting at off.
func (s *Source) Section(off int64, n int64) *io.SectionReader {
	return io.NewSectionReader(s, off, n)
}

// BytesAt returns a copy of the n bytes at off.
func (s *Source) BytesAt(off int64, n int) ([]byte, error) {
	b, err := s.span(off, n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}

// HasPrefixAt reports whether the bytes at off equal sig. A short buffer
// yields false.
func (s *Source) HasPrefixAt(off int64, sig []byte) bool {
	b, err := s.span(off, len(sig))
	if err != nil {
		return false
	}
	return bytes.Equal(b, sig)
}

func (s *Source) Uint8At(off int64) (uint8, error) {
	b, err := s.span(off, 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (s *Source) Uint16At(off int64) (uint16, error) {
	b, err := s.span(off, 2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (s *Source) Uint32At(off int64) (uint32, error) {
	b, err := s.span(off, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (s *Source) Uint64At(off int64) (uint64, error) {
	b, err := s.span(off, 8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (s *Source) Int8At(off int64) (int8, error) {
	v, err := s.Uint8At(off)
	return int8(v), err
}

func (s *Source) Int16At(off int64) (int16, error) {
	v, err := s.Uint16At(off)
	return int16(v), err
}

func (s *Source) Int32At(off int64) (int32, error) {
	v, err := s.Uint32At(off)
	return int32(v), err
}

func (s *Source) Int64At(off int64) (int64, error) {
	v, err := s.Uint64At(off)
	return int64(v), err
}

func (s *Source) Float32At(off int64) (float32, error) {
	v, err := s.Uint32At(off)
	return math.Float32frombits(v), err
}

func (s *Source) Float64At(off int64) (float64, error) {
	v, err := s.Uint64At(off)
	return math.Float64frombits(v), err
}

// ReadStructAt decodes the fixed-size value v (a pointer to a struct, array
// or integer) from the bytes at off.
func (s *Source) ReadStructAt(off int64, v interface{}) error {
	size := binary.Size(v)
	if size < 0 {
		return errors.Errorf("cannot decode %T", v)
	}
	b, err := s.span(off, size)
	if err != nil {
		return err
	}
	return binary.Read(bytes.NewReader(b), binary.LittleEndian, v)
}

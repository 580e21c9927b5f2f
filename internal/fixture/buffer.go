// Package fixture builds small synthetic COFF objects, PE images and
// CodeView NB11 blobs for tests.
package fixture

import (
	"encoding/binary"
)

// Buffer appends little-endian values.
type Buffer struct {
	b []byte
}

func (w *Buffer) U8(v uint8) *Buffer {
	w.b = append(w.b, v)
	return w
}

func (w *Buffer) U16(v uint16) *Buffer {
	w.b = binary.LittleEndian.AppendUint16(w.b, v)
	return w
}

func (w *Buffer) U32(v uint32) *Buffer {
	w.b = binary.LittleEndian.AppendUint32(w.b, v)
	return w
}

func (w *Buffer) U64(v uint64) *Buffer {
	w.b = binary.LittleEndian.AppendUint64(w.b, v)
	return w
}

func (w *Buffer) Bytes(p []byte) *Buffer {
	w.b = append(w.b, p...)
	return w
}

// Fixed writes s truncated or NUL padded to n bytes.
func (w *Buffer) Fixed(s string, n int) *Buffer {
	p := make([]byte, n)
	copy(p, s)
	return w.Bytes(p)
}

// CString writes s and a NUL.
func (w *Buffer) CString(s string) *Buffer {
	return w.Bytes(append([]byte(s), 0))
}

// Pascal writes s after a one byte length.
func (w *Buffer) Pascal(s string) *Buffer {
	return w.U8(uint8(len(s))).Bytes([]byte(s))
}

func (w *Buffer) Zero(n int) *Buffer {
	return w.Bytes(make([]byte, n))
}

// AlignTo pads with zeros to a multiple of n.
func (w *Buffer) AlignTo(n int) *Buffer {
	if r := len(w.b) % n; r != 0 {
		w.Zero(n - r)
	}
	return w
}

// PutU32 overwrites four bytes at off.
func (w *Buffer) PutU32(off int, v uint32) *Buffer {
	binary.LittleEndian.PutUint32(w.b[off:], v)
	return w
}

func (w *Buffer) Len() int {
	return len(w.b)
}

func (w *Buffer) Data() []byte {
	return w.b
}

package codeview

import (
	"bytes"

	"coffdbg/pkg/datasource"

	"github.com/lunixbochs/struc"
	"github.com/pkg/errors"
)

// dirHeader opens the subsection directory. The directory may declare a
// longer header; only the leading fields are decoded.
type dirHeader struct {
	HeaderLength uint16 `struc:"uint16,little"`
	EntryLength  uint16 `struc:"uint16,little"`
	NumEntries   uint32 `struc:"uint32,little"`
}

type dirEntry struct {
	Type   uint16 `struc:"uint16,little"`
	Module uint16 `struc:"uint16,little"`
	LFO    uint32 `struc:"uint32,little"`
	Size   uint32 `struc:"uint32,little"`
}

type moduleHeader struct {
	Overlay     uint16  `struc:"uint16,little"`
	Library     uint16  `struc:"uint16,little"`
	NumSegments uint16  `struc:"uint16,little"`
	Style       [2]byte `struc:"[2]byte"`
}

// SegInfo is one code segment contributed by a module.
type SegInfo struct {
	Segment uint16 `struc:"uint16,little"`
	Pad     uint16 `struc:"uint16,little"`
	Offset  uint32 `struc:"uint32,little"`
	Size    uint32 `struc:"uint32,little"`
}

type symbolTableHeader struct {
	SymHash    uint16 `struc:"uint16,little"`
	AddrHash   uint16 `struc:"uint16,little"`
	CbSymbol   uint32 `struc:"uint32,little"`
	CbSymHash  uint32 `struc:"uint32,little"`
	CbAddrHash uint32 `struc:"uint32,little"`
}

type countsHeader struct {
	First  uint16 `struc:"uint16,little"`
	Second uint16 `struc:"uint16,little"`
}

type globalTypesHeader struct {
	Flags    uint32 `struc:"uint32,little"`
	NumTypes uint32 `struc:"uint32,little"`
}

// SegDesc is a segment map descriptor.
type SegDesc struct {
	Flags     uint16 `struc:"uint16,little"`
	Overlay   uint16 `struc:"uint16,little"`
	Group     uint16 `struc:"uint16,little"`
	Frame     uint16 `struc:"uint16,little"`
	SegName   uint16 `struc:"uint16,little"`
	ClassName uint16 `struc:"uint16,little"`
	Offset    uint32 `struc:"uint32,little"`
	Size      uint32 `struc:"uint32,little"`
}

// unpack decodes the packed little-endian struct v at off.
func unpack(src *datasource.Source, off int64, v interface{}) error {
	n, err := struc.Sizeof(v)
	if err != nil {
		return errors.WithStack(err)
	}
	raw, err := src.BytesAt(off, n)
	if err != nil {
		return err
	}
	return errors.Wrapf(struc.Unpack(bytes.NewReader(raw), v), "unpack %T at 0x%x", v, off)
}

// Package codeview decodes CodeView 4/5 ("NB11") debug information: the
// subsection directory, the subsections it points at, and the symbol and
// type records stored in them.
//
// Every value in this package is a view over an offset into a
// datasource.Source. Records never hold other records; accessors re-read the
// buffer on demand.
package codeview

import (
	"sync"

	"coffdbg/pkg/datasource"
	"coffdbg/pkg/log"

	"github.com/pkg/errors"
)

// Signature opens NB11 debug data and follows its subsection directory.
var Signature = []byte{'N', 'B', '1', '1'}

// HasSignature reports whether NB11 debug data starts at offset.
func HasSignature(src *datasource.Source, offset int64) bool {
	return src.HasPrefixAt(offset, Signature)
}

// VC50 is the root of NB11 debug data.
type VC50 struct {
	src       *datasource.Source
	lfaBase   int64
	dirOffset int64

	directory func() (*SubsectionDirectory, error)
}

// New opens the NB11 debug data at offset. Subsection offsets inside the data
// are relative to offset.
func New(src *datasource.Source, offset int64) (*VC50, error) {
	if !HasSignature(src, offset) {
		return nil, errors.Wrapf(ErrBadSignature, "debug info at 0x%x", offset)
	}
	lfo, err := src.Int32At(offset + 4)
	if err != nil {
		return nil, errors.WithMessage(err, "read subsection directory offset")
	}

	v := &VC50{
		src:       src,
		lfaBase:   offset,
		dirOffset: offset + int64(lfo),
	}
	if err := v.verify(); err != nil {
		return nil, err
	}
	v.directory = sync.OnceValues(func() (*SubsectionDirectory, error) {
		return newSubsectionDirectory(v, v.dirOffset)
	})

	log.Debugln("NB11 debug info at 0x%x, subsection directory at 0x%x", offset, v.dirOffset)
	return v, nil
}

// verify looks for the NB11 tag that must follow the last directory entry.
func (v *VC50) verify() error {
	var h dirHeader
	if err := unpack(v.src, v.dirOffset, &h); err != nil {
		return errors.WithMessage(err, "read subsection directory header")
	}
	end := v.dirOffset + int64(h.HeaderLength) + int64(h.NumEntries)*int64(h.EntryLength)
	if !HasSignature(v.src, end) {
		return errors.Wrapf(ErrBadSignature, "end of debug info at 0x%x", end)
	}
	return nil
}

// Offset is the file offset of the leading NB11 tag.
func (v *VC50) Offset() int64 {
	return v.lfaBase
}

func (v *VC50) SubsectionDirectoryOffset() int64 {
	return v.dirOffset
}

func (v *VC50) SubsectionDirectory() (*SubsectionDirectory, error) {
	return v.directory()
}

// Source returns the buffer the debug info is read from.
func (v *VC50) Source() *datasource.Source {
	return v.src
}

func (v *VC50) global(lfo uint32) int64 {
	return v.lfaBase + int64(lfo)
}

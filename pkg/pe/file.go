package pe

import (
	"sync"

	"coffdbg/pkg/codeview"
	"coffdbg/pkg/datasource"
	"coffdbg/pkg/log"

	"github.com/pkg/errors"
)

// File is a parsed COFF object file or PE image. Every structure reachable
// from it is decoded from the underlying buffer on demand.
type File struct {
	Filename string

	src               *datasource.Source
	isImage           bool
	imageHeaderOffset int64
	header            *FileHeader

	debugDirectory func() (*DebugDirectory, error)
}

// Open maps filename and parses it.
func Open(filename string) (*File, error) {
	src, err := datasource.Open(filename)
	if err != nil {
		return nil, err
	}
	f, err := NewFile(src)
	if err != nil {
		_ = src.Close()
		return nil, err
	}
	f.Filename = filename
	return f, nil
}

// Parse parses an in-memory file.
func Parse(data []byte) (*File, error) {
	return NewFile(datasource.New(data))
}

// NewFile parses the COFF header found in src. A file whose PE signature
// probe fails for any reason is treated as an object file.
func NewFile(src *datasource.Source) (*File, error) {
	f := &File{src: src}
	f.probeImage()

	header, err := newFileHeader(f, f.imageHeaderOffset)
	if err != nil {
		return nil, err
	}
	f.header = header
	f.debugDirectory = sync.OnceValues(f.loadDebugDirectory)
	return f, nil
}

func (f *File) probeImage() {
	peOffset, err := f.src.Uint32At(IMAGE_PE_POINTER_OFFSET)
	if err != nil {
		log.Debugln("no PE pointer (%v), treating input as an object file", err)
		return
	}
	if !f.src.HasPrefixAt(int64(peOffset), IMAGE_NT_SIGNATURE) {
		log.Debugln("no PE signature at 0x%x, treating input as an object file", peOffset)
		return
	}
	f.isImage = true
	f.imageHeaderOffset = int64(peOffset) + int64(len(IMAGE_NT_SIGNATURE))
}

// Close releases the underlying buffer.
func (f *File) Close() error {
	return f.src.Close()
}

// Source returns the buffer the file was parsed from.
func (f *File) Source() *datasource.Source {
	return f.src
}

// IsImage reports whether the file carries a PE signature.
func (f *File) IsImage() bool {
	return f.isImage
}

// ImageHeaderOffset is the offset of the COFF header: just past the PE
// signature for images, zero for object files.
func (f *File) ImageHeaderOffset() int64 {
	return f.imageHeaderOffset
}

func (f *File) Header() *FileHeader {
	return f.header
}

// DebugDirectory follows the optional header to the debug directory. Object
// files, images without an optional header and images whose optional header
// has no debug slot or an empty one all yield nil.
func (f *File) DebugDirectory() (*DebugDirectory, error) {
	return f.debugDirectory()
}

func (f *File) loadDebugDirectory() (*DebugDirectory, error) {
	opt, err := f.header.OptionalHeader()
	if err != nil || opt == nil {
		return nil, err
	}
	dirs, err := opt.DataDirectories()
	if err != nil {
		return nil, err
	}
	if dirs.Len() <= IMAGE_DIRECTORY_ENTRY_DEBUG {
		return nil, nil
	}
	return dirs.DebugDirectory()
}

// DebugVC50Offset locates the first CodeView NB11 blob listed in the debug
// directory and returns its file offset. ok is false when there is none.
func (f *File) DebugVC50Offset() (offset int64, ok bool, err error) {
	dir, err := f.DebugDirectory()
	if err != nil || dir == nil {
		return 0, false, err
	}
	for i := 0; i < dir.NumEntries(); i++ {
		entry, err := dir.Entry(i)
		if err != nil {
			return 0, false, errors.WithMessagef(err, "debug directory entry %d", i)
		}
		if off, ok := entry.VC50Offset(); ok {
			return off, true, nil
		}
	}
	return 0, false, nil
}

// DebugVC50 opens the first CodeView NB11 blob listed in the debug
// directory, or returns nil if there is none.
func (f *File) DebugVC50() (*codeview.VC50, error) {
	offset, ok, err := f.DebugVC50Offset()
	if err != nil || !ok {
		return nil, err
	}
	return codeview.New(f.src, offset)
}

package pe

import (
	"sync"

	"coffdbg/pkg/log"

	"github.com/pkg/errors"
)

// OptionalHeader is the image-only header that follows the COFF header. Its
// magic selects the PE32 or PE32+ layout of everything after it.
type OptionalHeader struct {
	Magic uint16

	file       *File
	fileOffset int64

	standardFields func() (*StandardFields, error)
	windowsFields  func() (*WindowsSpecificFields, error)
	dataDirs       func() (*DataDirectories, error)
}

func newOptionalHeader(f *File, fileOffset int64) (*OptionalHeader, error) {
	magic, err := f.src.Uint16At(fileOffset)
	if err != nil {
		return nil, errors.WithMessage(err, "read optional header magic")
	}
	switch magic {
	case IMAGE_NT_OPTIONAL_HDR32_MAGIC, IMAGE_NT_OPTIONAL_HDR64_MAGIC, IMAGE_ROM_OPTIONAL_HDR_MAGIC:
	default:
		log.Warnln("unknown optional header magic 0x%x at 0x%x, assuming PE32 layout", magic, fileOffset)
	}

	o := &OptionalHeader{Magic: magic, file: f, fileOffset: fileOffset}
	o.standardFields = sync.OnceValues(o.loadStandardFields)
	o.windowsFields = sync.OnceValues(o.loadWindowsFields)
	o.dataDirs = sync.OnceValues(o.loadDataDirectories)
	return o, nil
}

// IsPE32Plus reports whether the header uses the 64-bit layout. ROM images
// and unknown magics use the PE32 layout.
func (o *OptionalHeader) IsPE32Plus() bool {
	return o.Magic == IMAGE_NT_OPTIONAL_HDR64_MAGIC
}

func (o *OptionalHeader) IsROM() bool {
	return o.Magic == IMAGE_ROM_OPTIONAL_HDR_MAGIC
}

func (o *OptionalHeader) windowsFieldsOffset() int64 {
	if o.IsPE32Plus() {
		return o.fileOffset + pe32PlusWindowsFieldsOffset
	}
	return o.fileOffset + pe32WindowsFieldsOffset
}

func (o *OptionalHeader) dataDirectoriesOffset() int64 {
	if o.IsPE32Plus() {
		return o.fileOffset + pe32PlusDataDirectoriesOffset
	}
	return o.fileOffset + pe32DataDirectoriesOffset
}

func (o *OptionalHeader) StandardFields() (*StandardFields, error) {
	return o.standardFields()
}

func (o *OptionalHeader) WindowsSpecificFields() (*WindowsSpecificFields, error) {
	return o.windowsFields()
}

func (o *OptionalHeader) DataDirectories() (*DataDirectories, error) {
	return o.dataDirs()
}

// StandardFields holds the fields common to every optional header.
type StandardFields struct {
	MajorLinkerVersion      uint8
	MinorLinkerVersion      uint8
	SizeOfCode              uint32
	SizeOfInitializedData   uint32
	SizeOfUninitializedData uint32
	AddressOfEntryPoint     uint32
	BaseOfCode              uint32

	baseOfData uint32
	pe32Plus   bool
	fileOffset int64
}

// BaseOfData exists only in the PE32 layout.
func (s *StandardFields) BaseOfData() (uint32, error) {
	if s.pe32Plus {
		return 0, ErrNotPE32
	}
	return s.baseOfData, nil
}

func (o *OptionalHeader) loadStandardFields() (*StandardFields, error) {
	offset := o.fileOffset + standardFieldsOffset
	s := &StandardFields{pe32Plus: o.IsPE32Plus(), fileOffset: offset}
	if o.IsPE32Plus() {
		var raw ImageOptionalStandardFields64
		if err := o.file.src.ReadStructAt(offset, &raw); err != nil {
			return nil, errors.WithMessage(err, "read optional header standard fields")
		}
		s.MajorLinkerVersion = raw.MajorLinkerVersion
		s.MinorLinkerVersion = raw.MinorLinkerVersion
		s.SizeOfCode = raw.SizeOfCode
		s.SizeOfInitializedData = raw.SizeOfInitializedData
		s.SizeOfUninitializedData = raw.SizeOfUninitializedData
		s.AddressOfEntryPoint = raw.AddressOfEntryPoint
		s.BaseOfCode = raw.BaseOfCode
		return s, nil
	}

	var raw ImageOptionalStandardFields32
	if err := o.file.src.ReadStructAt(offset, &raw); err != nil {
		return nil, errors.WithMessage(err, "read optional header standard fields")
	}
	s.MajorLinkerVersion = raw.MajorLinkerVersion
	s.MinorLinkerVersion = raw.MinorLinkerVersion
	s.SizeOfCode = raw.SizeOfCode
	s.SizeOfInitializedData = raw.SizeOfInitializedData
	s.SizeOfUninitializedData = raw.SizeOfUninitializedData
	s.AddressOfEntryPoint = raw.AddressOfEntryPoint
	s.BaseOfCode = raw.BaseOfCode
	s.baseOfData = raw.BaseOfData
	return s, nil
}

// WindowsSpecificFields holds the loader fields. Fields that are 4 bytes
// wide in PE32 and 8 bytes wide in PE32+ are widened to uint64.
type WindowsSpecificFields struct {
	ImageBase                   uint64
	SectionAlignment            uint32
	FileAlignment               uint32
	MajorOperatingSystemVersion uint16
	MinorOperatingSystemVersion uint16
	MajorImageVersion           uint16
	MinorImageVersion           uint16
	MajorSubsystemVersion       uint16
	MinorSubsystemVersion       uint16
	SizeOfImage                 uint32
	SizeOfHeaders               uint32
	CheckSum                    uint32
	Subsystem                   uint16
	DllCharacteristics          uint16
	SizeOfStackReserve          uint64
	SizeOfStackCommit           uint64
	SizeOfHeapReserve           uint64
	SizeOfHeapCommit            uint64
	LoaderFlags                 uint32
	NumberOfRvaAndSizes         uint32

	fileOffset int64
	flags      map[string]bool
}

func (w *WindowsSpecificFields) String() string {
	return structString(w.fileOffset, "IMAGE_OPTIONAL_HEADER (Windows fields)", *w) + flagString(w.flags)
}

func (o *OptionalHeader) loadWindowsFields() (*WindowsSpecificFields, error) {
	offset := o.windowsFieldsOffset()
	w := &WindowsSpecificFields{fileOffset: offset, flags: make(map[string]bool)}
	if o.IsPE32Plus() {
		var raw ImageOptionalWindowsFields64
		if err := o.file.src.ReadStructAt(offset, &raw); err != nil {
			return nil, errors.WithMessage(err, "read optional header windows fields")
		}
		w.ImageBase = raw.ImageBase
		w.SectionAlignment = raw.SectionAlignment
		w.FileAlignment = raw.FileAlignment
		w.MajorOperatingSystemVersion = raw.MajorOperatingSystemVersion
		w.MinorOperatingSystemVersion = raw.MinorOperatingSystemVersion
		w.MajorImageVersion = raw.MajorImageVersion
		w.MinorImageVersion = raw.MinorImageVersion
		w.MajorSubsystemVersion = raw.MajorSubsystemVersion
		w.MinorSubsystemVersion = raw.MinorSubsystemVersion
		w.SizeOfImage = raw.SizeOfImage
		w.SizeOfHeaders = raw.SizeOfHeaders
		w.CheckSum = raw.CheckSum
		w.Subsystem = raw.Subsystem
		w.DllCharacteristics = raw.DllCharacteristics
		w.SizeOfStackReserve = raw.SizeOfStackReserve
		w.SizeOfStackCommit = raw.SizeOfStackCommit
		w.SizeOfHeapReserve = raw.SizeOfHeapReserve
		w.SizeOfHeapCommit = raw.SizeOfHeapCommit
		w.LoaderFlags = raw.LoaderFlags
		w.NumberOfRvaAndSizes = raw.NumberOfRvaAndSizes
	} else {
		var raw ImageOptionalWindowsFields32
		if err := o.file.src.ReadStructAt(offset, &raw); err != nil {
			return nil, errors.WithMessage(err, "read optional header windows fields")
		}
		w.ImageBase = uint64(raw.ImageBase)
		w.SectionAlignment = raw.SectionAlignment
		w.FileAlignment = raw.FileAlignment
		w.MajorOperatingSystemVersion = raw.MajorOperatingSystemVersion
		w.MinorOperatingSystemVersion = raw.MinorOperatingSystemVersion
		w.MajorImageVersion = raw.MajorImageVersion
		w.MinorImageVersion = raw.MinorImageVersion
		w.MajorSubsystemVersion = raw.MajorSubsystemVersion
		w.MinorSubsystemVersion = raw.MinorSubsystemVersion
		w.SizeOfImage = raw.SizeOfImage
		w.SizeOfHeaders = raw.SizeOfHeaders
		w.CheckSum = raw.CheckSum
		w.Subsystem = raw.Subsystem
		w.DllCharacteristics = raw.DllCharacteristics
		w.SizeOfStackReserve = uint64(raw.SizeOfStackReserve)
		w.SizeOfStackCommit = uint64(raw.SizeOfStackCommit)
		w.SizeOfHeapReserve = uint64(raw.SizeOfHeapReserve)
		w.SizeOfHeapCommit = uint64(raw.SizeOfHeapCommit)
		w.LoaderFlags = raw.LoaderFlags
		w.NumberOfRvaAndSizes = raw.NumberOfRvaAndSizes
	}
	SetFlags(w.flags, DllCharacteristics, uint32(w.DllCharacteristics))

	if w.FileAlignment > 512 && !PowerOfTwo(w.FileAlignment) {
		log.Warnln("if FileAlignment > 512 it should be a power of 2: 0x%x", w.FileAlignment)
	}
	if PowerOfTwo(w.FileAlignment) && AlignUpUInt32(w.SizeOfHeaders, w.FileAlignment) != w.SizeOfHeaders {
		log.Warnln("SizeOfHeaders 0x%x is not a multiple of FileAlignment 0x%x", w.SizeOfHeaders, w.FileAlignment)
	}
	return w, nil
}

func (o *OptionalHeader) loadDataDirectories() (*DataDirectories, error) {
	w, err := o.WindowsSpecificFields()
	if err != nil {
		return nil, err
	}
	if w.NumberOfRvaAndSizes > IMAGE_NUMBEROF_DIRECTORY_ENTRIES {
		log.Warnln("Suspicious NumberOfRvaAndSizes in the Optional Header. "+
			"Normal values are never larger than 16, the value is: 0x%x", w.NumberOfRvaAndSizes)
	}
	return newDataDirectories(o.file, o.dataDirectoriesOffset(), w.NumberOfRvaAndSizes), nil
}

package fixture

// DataDirectory is an optional header data directory entry.
type DataDirectory struct {
	VirtualAddress uint32
	Size           uint32
}

// Image is a PE image with a 64 byte DOS stub.
type Image struct {
	Machine         uint16
	Characteristics uint16
	// Magic overrides the optional header magic chosen by PE32Plus.
	Magic    uint16
	PE32Plus bool

	ImageBase           uint64
	AddressOfEntryPoint uint32
	SectionAlignment    uint32
	FileAlignment       uint32
	Subsystem           uint16
	DllCharacteristics  uint16
	SizeOfStackReserve  uint64

	// NumberOfRvaAndSizes defaults to 16.
	NumberOfRvaAndSizes uint32
	Directories         [16]DataDirectory

	Sections []Section
}

const dosStubSize = 0x40

func (img *Image) fileAlignment() uint32 {
	if img.FileAlignment == 0 {
		return 0x200
	}
	return img.FileAlignment
}

func (img *Image) numberOfRvaAndSizes() uint32 {
	if img.NumberOfRvaAndSizes == 0 {
		return 16
	}
	return img.NumberOfRvaAndSizes
}

// SizeOfOptionalHeader is the size of the optional header Build writes.
func (img *Image) SizeOfOptionalHeader() int {
	fixed := 96
	if img.PE32Plus {
		fixed = 112
	}
	return fixed + 8*int(img.numberOfRvaAndSizes())
}

// OptionalHeaderOffset is the file offset of the optional header magic.
func (img *Image) OptionalHeaderOffset() int {
	return dosStubSize + 4 + 20
}

func alignUp(x, align int) int {
	if r := x % align; r != 0 {
		return x + align - r
	}
	return x
}

func (img *Image) sizeOfHeaders() int {
	end := img.OptionalHeaderOffset() + img.SizeOfOptionalHeader() + 40*len(img.Sections)
	return alignUp(end, int(img.fileAlignment()))
}

// RawPointer is the file offset Build gives the data of section i. It
// depends only on the lengths of the sections' data.
func (img *Image) RawPointer(i int) uint32 {
	off := img.sizeOfHeaders()
	for _, s := range img.Sections[:i] {
		off = alignUp(off+len(s.Data), int(img.fileAlignment()))
	}
	return uint32(off)
}

func (img *Image) magic() uint16 {
	switch {
	case img.Magic != 0:
		return img.Magic
	case img.PE32Plus:
		return 0x20b
	}
	return 0x10b
}

func (img *Image) writeOptionalHeader(w *Buffer) {
	sectionAlignment := img.SectionAlignment
	if sectionAlignment == 0 {
		sectionAlignment = 0x1000
	}
	var sizeOfImage uint32
	for _, s := range img.Sections {
		if end := s.VirtualAddress + s.VirtualSize; end > sizeOfImage {
			sizeOfImage = end
		}
	}

	w.U16(img.magic()).
		U8(14).U8(0). // linker version
		U32(0).       // SizeOfCode
		U32(0).       // SizeOfInitializedData
		U32(0).       // SizeOfUninitializedData
		U32(img.AddressOfEntryPoint).
		U32(0x1000) // BaseOfCode
	if img.PE32Plus {
		w.U64(img.ImageBase)
	} else {
		// BaseOfData precedes the 32-bit ImageBase.
		w.U32(0x2000).U32(uint32(img.ImageBase))
	}
	w.U32(sectionAlignment).
		U32(img.fileAlignment()).
		U16(6).U16(0). // operating system version
		U16(0).U16(0). // image version
		U16(6).U16(0). // subsystem version
		U32(0).        // Win32VersionValue
		U32(sizeOfImage).
		U32(uint32(img.sizeOfHeaders())).
		U32(0). // CheckSum
		U16(img.Subsystem).
		U16(img.DllCharacteristics)
	sizes := []uint64{img.SizeOfStackReserve, 0x1000, 0x100000, 0x1000}
	for _, v := range sizes {
		if img.PE32Plus {
			w.U64(v)
		} else {
			w.U32(uint32(v))
		}
	}
	w.U32(0).U32(img.numberOfRvaAndSizes())
	for i := 0; i < int(img.numberOfRvaAndSizes()); i++ {
		var d DataDirectory
		if i < len(img.Directories) {
			d = img.Directories[i]
		}
		w.U32(d.VirtualAddress).U32(d.Size)
	}
}

// Build writes the DOS stub, PE signature, COFF header, optional header,
// section headers and file-aligned section data.
func (img *Image) Build() []byte {
	var w Buffer
	w.Fixed("MZ", 0x3c).U32(dosStubSize)
	w.Bytes([]byte{'P', 'E', 0, 0})
	w.U16(img.Machine).
		U16(uint16(len(img.Sections))).
		U32(0).
		U32(0).
		U32(0).
		U16(uint16(img.SizeOfOptionalHeader())).
		U16(img.Characteristics)
	img.writeOptionalHeader(&w)

	st := newStringTable()
	for i, s := range img.Sections {
		var ptr uint32
		if len(s.Data) > 0 {
			ptr = img.RawPointer(i)
		}
		writeSectionHeader(&w, st, s, ptr, 0, 0)
	}
	for i, s := range img.Sections {
		w.Zero(int(img.RawPointer(i)) - w.Len())
		w.Bytes(s.Data)
	}
	w.AlignTo(int(img.fileAlignment()))
	return w.Data()
}

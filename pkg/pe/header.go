package pe

import (
	"sync"

	"coffdbg/pkg/log"

	"github.com/elastic/go-freelru"
	"github.com/pkg/errors"
)

// symbolCacheSize bounds the number of decoded symbols kept per file.
const symbolCacheSize = 4096

type FileHeader struct {
	ImageFileHeader

	file       *File
	fileOffset int64
	size       int
	flags      map[string]bool

	stringTable    func() (*StringTable, error)
	optionalHeader func() (*OptionalHeader, error)
	sections       []func() (*SectionHeader, error)
	symbols        *freelru.SyncedLRU[uint32, *Symbol]
}

func newFileHeader(f *File, fileOffset int64) (*FileHeader, error) {
	h := &FileHeader{
		file:       f,
		fileOffset: fileOffset,
		size:       IMAGE_SIZEOF_FILE_HEADER,
		flags:      make(map[string]bool),
	}
	if err := f.src.ReadStructAt(fileOffset, &h.ImageFileHeader); err != nil {
		return nil, errors.WithMessage(err, "read COFF header")
	}
	SetFlags(h.flags, ImageCharacteristics, uint32(h.Characteristics))

	symbols, err := freelru.NewSynced[uint32, *Symbol](symbolCacheSize, hashSymbolIndex)
	if err != nil {
		return nil, err
	}
	h.symbols = symbols

	h.stringTable = sync.OnceValues(h.loadStringTable)
	h.optionalHeader = sync.OnceValues(h.loadOptionalHeader)
	h.sections = make([]func() (*SectionHeader, error), h.NumberOfSections)
	for i := range h.sections {
		index := i + 1
		h.sections[i] = sync.OnceValues(func() (*SectionHeader, error) {
			return newSectionHeader(h, index)
		})
	}
	return h, nil
}

func hashSymbolIndex(index uint32) uint32 {
	// Fibonacci hashing spreads sequential indices over the buckets.
	return index * 2654435769
}

func (h *FileHeader) String() string {
	return structString(h.fileOffset, "IMAGE_FILE_HEADER", h.ImageFileHeader) + flagString(h.flags)
}

// HasCharacteristic reports whether any bit of characteristic is set.
func (h *FileHeader) HasCharacteristic(characteristic uint16) bool {
	return h.Characteristics&characteristic != 0
}

// MachineName returns the symbolic machine type, or its hex value.
func (h *FileHeader) MachineName() string {
	if name, ok := MachineTypes[h.Machine]; ok {
		return name
	}
	return "0x" + hexString(uint64(h.Machine))
}

// OptionalHeader returns nil when SizeOfOptionalHeader is zero, as it is
// for object files.
func (h *FileHeader) OptionalHeader() (*OptionalHeader, error) {
	return h.optionalHeader()
}

func (h *FileHeader) loadOptionalHeader() (*OptionalHeader, error) {
	if h.SizeOfOptionalHeader == 0 {
		return nil, nil
	}
	return newOptionalHeader(h.file, h.fileOffset+IMAGE_SIZEOF_FILE_HEADER)
}

// SectionHeader returns the section with the given 1-based index.
func (h *FileHeader) SectionHeader(index int) (*SectionHeader, error) {
	if index < 1 || index > len(h.sections) {
		return nil, indexError("section", index, len(h.sections))
	}
	return h.sections[index-1]()
}

// Sections decodes every section header in table order.
func (h *FileHeader) Sections() ([]*SectionHeader, error) {
	sections := make([]*SectionHeader, 0, len(h.sections))
	for i := 1; i <= len(h.sections); i++ {
		s, err := h.SectionHeader(i)
		if err != nil {
			return nil, err
		}
		sections = append(sections, s)
	}
	return sections, nil
}

// Symbol returns the symbol table slot with the given 0-based index.
// Auxiliary records occupy slots too; callers skip them using
// NumberOfAuxSymbols.
func (h *FileHeader) Symbol(index int) (*Symbol, error) {
	if index < 0 || index >= int(h.NumberOfSymbols) {
		return nil, indexError("symbol", index, int(h.NumberOfSymbols))
	}
	if sym, ok := h.symbols.Get(uint32(index)); ok {
		return sym, nil
	}
	sym, err := newSymbol(h, index)
	if err != nil {
		return nil, err
	}
	h.symbols.Add(uint32(index), sym)
	return sym, nil
}

// Symbols walks the symbol table, skipping auxiliary slots, and calls fn for
// every primary symbol until fn returns false.
func (h *FileHeader) Symbols(fn func(*Symbol) bool) error {
	for i := 0; i < int(h.NumberOfSymbols); {
		sym, err := h.Symbol(i)
		if err != nil {
			return err
		}
		if !fn(sym) {
			return nil
		}
		i += 1 + int(sym.NumberOfAuxSymbols)
	}
	return nil
}

// StringTable returns the long name table following the symbol table.
func (h *FileHeader) StringTable() (*StringTable, error) {
	return h.stringTable()
}

func (h *FileHeader) loadStringTable() (*StringTable, error) {
	if h.PointerToSymbolTable == 0 {
		return emptyStringTable(), nil
	}
	offset := int64(h.PointerToSymbolTable) + int64(h.NumberOfSymbols)*IMAGE_SIZEOF_SYMBOL
	return newStringTable(h.file.src, offset)
}

// NumberOfStrings returns the number of entries in the string table.
func (h *FileHeader) NumberOfStrings() (int, error) {
	st, err := h.StringTable()
	if err != nil {
		return 0, err
	}
	return st.Len(), nil
}

// StringByIndex returns string table entry i.
func (h *FileHeader) StringByIndex(i int) (string, error) {
	st, err := h.StringTable()
	if err != nil {
		return "", err
	}
	return st.Get(i)
}

// StringAt returns the string table entry starting at the absolute file
// offset off.
func (h *FileHeader) StringAt(off int64) (string, error) {
	st, err := h.StringTable()
	if err != nil {
		return "", err
	}
	return st.AtOffset(off)
}

// RVAToFileOffset maps a relative virtual address to a file offset using the
// first section whose [VirtualAddress, VirtualAddress+VirtualSize) range
// contains it. An RVA of zero maps to zero.
func (h *FileHeader) RVAToFileOffset(rva uint32) (int64, error) {
	if rva == 0 {
		return 0, nil
	}
	s, err := h.SectionByRVA(rva)
	if err != nil {
		return 0, err
	}
	if s == nil {
		log.Debugln("RVA 0x%x is not covered by any of %d sections", rva, h.NumberOfSections)
		return 0, errors.Wrapf(ErrFormat, "unable to find RVA 0x%x in any section", rva)
	}
	return int64(s.PointerToRawData) + int64(rva-s.VirtualAddress), nil
}

// SectionByRVA returns the section containing rva, or nil.
func (h *FileHeader) SectionByRVA(rva uint32) (*SectionHeader, error) {
	for i := 1; i <= len(h.sections); i++ {
		s, err := h.SectionHeader(i)
		if err != nil {
			return nil, err
		}
		if s.ContainsRVA(rva) {
			return s, nil
		}
	}
	return nil, nil
}

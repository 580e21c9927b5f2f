package pe

import (
	"encoding/binary"
	"strings"

	"github.com/pkg/errors"
)

// SymbolKind selects which auxiliary record layout follows a symbol. It is
// derived from the storage class, type, section number and name.
type SymbolKind int

const (
	SymbolOther SymbolKind = iota
	SymbolFunctionDefinition
	SymbolBfEf
	SymbolWeakExternal
	SymbolFile
	SymbolSectionDefinition
)

func (k SymbolKind) String() string {
	switch k {
	case SymbolFunctionDefinition:
		return "function definition"
	case SymbolBfEf:
		return "begin/end function"
	case SymbolWeakExternal:
		return "weak external"
	case SymbolFile:
		return "file"
	case SymbolSectionDefinition:
		return "section definition"
	default:
		return "other"
	}
}

type Symbol struct {
	ImageSymbol

	Name  string
	Index int

	header     *FileHeader
	fileOffset int64
}

func newSymbol(h *FileHeader, index int) (*Symbol, error) {
	s := &Symbol{
		Index:      index,
		header:     h,
		fileOffset: int64(h.PointerToSymbolTable) + int64(index)*IMAGE_SIZEOF_SYMBOL,
	}
	if err := h.file.src.ReadStructAt(s.fileOffset, &s.ImageSymbol); err != nil {
		return nil, errors.WithMessagef(err, "read symbol %d", index)
	}

	if binary.LittleEndian.Uint32(s.ShortName[:4]) == 0 {
		st, err := h.StringTable()
		if err != nil {
			return nil, err
		}
		name, err := st.AtTableOffset(binary.LittleEndian.Uint32(s.ShortName[4:]))
		if err != nil {
			return nil, errors.WithMessagef(err, "name of symbol %d", index)
		}
		s.Name = name
	} else {
		s.Name = cString(s.ShortName[:])
	}
	return s, nil
}

func (s *Symbol) String() string {
	return structString(s.fileOffset, "IMAGE_SYMBOL "+s.Name, s.ImageSymbol)
}

// ComplexType returns the IMAGE_SYM_DTYPE_* part of the type field.
func (s *Symbol) ComplexType() uint16 {
	return (s.Type & N_TMASK) >> N_BTSHFT
}

// BaseType returns the IMAGE_SYM_TYPE_* part of the type field.
func (s *Symbol) BaseType() uint16 {
	return s.Type & 0xf
}

func (s *Symbol) IsFunctionDefinition() bool {
	return s.StorageClass == IMAGE_SYM_CLASS_EXTERNAL &&
		s.ComplexType() == IMAGE_SYM_DTYPE_FUNCTION &&
		s.SectionNumber > 0
}

func (s *Symbol) IsBfOrEf() bool {
	return (s.Name == ".bf" || s.Name == ".ef") && s.StorageClass == IMAGE_SYM_CLASS_FUNCTION
}

func (s *Symbol) IsWeakExternal() bool {
	return s.StorageClass == IMAGE_SYM_CLASS_EXTERNAL &&
		s.SectionNumber == IMAGE_SYM_UNDEFINED &&
		s.Value == 0
}

func (s *Symbol) IsFile() bool {
	return s.Name == ".file" && s.StorageClass == IMAGE_SYM_CLASS_FILE
}

func (s *Symbol) IsSectionDefinition() bool {
	return strings.HasPrefix(s.Name, ".") && s.StorageClass == IMAGE_SYM_CLASS_STATIC
}

// Kind applies the predicates in a fixed order; the first match wins.
func (s *Symbol) Kind() SymbolKind {
	switch {
	case s.IsFunctionDefinition():
		return SymbolFunctionDefinition
	case s.IsBfOrEf():
		return SymbolBfEf
	case s.IsWeakExternal():
		return SymbolWeakExternal
	case s.IsFile():
		return SymbolFile
	case s.IsSectionDefinition():
		return SymbolSectionDefinition
	default:
		return SymbolOther
	}
}

// Section returns the section the symbol is defined in, or nil for
// undefined, absolute and debug symbols.
func (s *Symbol) Section() (*SectionHeader, error) {
	if s.SectionNumber <= 0 {
		return nil, nil
	}
	return s.header.SectionHeader(int(s.SectionNumber))
}

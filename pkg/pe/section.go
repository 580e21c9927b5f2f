package pe

import (
	"strconv"
	"strings"

	"coffdbg/pkg/datasource"

	"github.com/pkg/errors"
)

type SectionHeader struct {
	ImageSectionHeader

	// Name is the resolved section name; long names are looked up in the
	// string table.
	Name string
	// Index is the 1-based position in the section table.
	Index int

	header     *FileHeader
	fileOffset int64
	size       int
	flags      map[string]bool
}

func newSectionHeader(h *FileHeader, index int) (*SectionHeader, error) {
	offset := h.fileOffset + IMAGE_SIZEOF_FILE_HEADER + int64(h.SizeOfOptionalHeader) +
		int64(index-1)*IMAGE_SIZEOF_SECTION_HEADER
	s := &SectionHeader{
		Index:      index,
		header:     h,
		fileOffset: offset,
		size:       IMAGE_SIZEOF_SECTION_HEADER,
		flags:      make(map[string]bool),
	}
	if err := h.file.src.ReadStructAt(offset, &s.ImageSectionHeader); err != nil {
		return nil, errors.WithMessagef(err, "read section header %d", index)
	}
	name, err := s.resolveName()
	if err != nil {
		return nil, err
	}
	s.Name = name
	SetFlags(s.flags, SectionCharacteristics, s.Characteristics)
	return s, nil
}

// resolveName decodes the inline name, or a "/N" reference where N is the
// decimal byte offset of the name within the string table.
func (s *SectionHeader) resolveName() (string, error) {
	raw := s.ImageSectionHeader.Name[:]
	if raw[0] != '/' {
		return cString(raw), nil
	}
	digits := strings.TrimRight(string(raw[1:]), "\x00 ")
	n, err := strconv.ParseUint(digits, 10, 32)
	if err != nil {
		return "", errors.Wrapf(ErrFormat, "section header at 0x%x: bad string table reference %q", s.fileOffset, digits)
	}
	st, err := s.header.StringTable()
	if err != nil {
		return "", err
	}
	return st.AtTableOffset(uint32(n))
}

func (s *SectionHeader) String() string {
	return structString(s.fileOffset, "IMAGE_SECTION_HEADER", s.ImageSectionHeader) + flagString(s.flags)
}

// HasFlag reports whether any bit of flag is set in the characteristics.
func (s *SectionHeader) HasFlag(flag uint32) bool {
	return s.Characteristics&flag != 0
}

// ContainsRVA reports whether rva falls inside the section's virtual range.
func (s *SectionHeader) ContainsRVA(rva uint32) bool {
	return s.VirtualAddress <= rva && uint64(rva) < uint64(s.VirtualAddress)+uint64(s.VirtualSize)
}

// RawData returns a copy of the section's raw data.
func (s *SectionHeader) RawData() ([]byte, error) {
	if s.PointerToRawData == 0 || s.SizeOfRawData == 0 {
		return nil, nil
	}
	return s.header.file.src.BytesAt(int64(s.PointerToRawData), int(s.SizeOfRawData))
}

type Relocation struct {
	ImageRelocation
	fileOffset int64
}

func (r *Relocation) String() string {
	return structString(r.fileOffset, "IMAGE_RELOCATION", r.ImageRelocation)
}

// Relocation returns relocation entry i (0-based).
func (s *SectionHeader) Relocation(i int) (*Relocation, error) {
	if i < 0 || i >= int(s.NumberOfRelocations) {
		return nil, indexError("relocation", i, int(s.NumberOfRelocations))
	}
	r := &Relocation{fileOffset: int64(s.PointerToRelocations) + int64(i)*IMAGE_SIZEOF_RELOCATION}
	if err := s.header.file.src.ReadStructAt(r.fileOffset, &r.ImageRelocation); err != nil {
		return nil, err
	}
	return r, nil
}

type LineNumber struct {
	ImageLinenumber
	fileOffset int64
}

func (l *LineNumber) String() string {
	return structString(l.fileOffset, "IMAGE_LINENUMBER", l.ImageLinenumber)
}

// LineNumber returns COFF line number entry i (0-based).
func (s *SectionHeader) LineNumber(i int) (*LineNumber, error) {
	if i < 0 || i >= int(s.NumberOfLinenumbers) {
		return nil, indexError("line number", i, int(s.NumberOfLinenumbers))
	}
	l := &LineNumber{fileOffset: int64(s.PointerToLinenumbers) + int64(i)*IMAGE_SIZEOF_LINENUMBER}
	if err := s.header.file.src.ReadStructAt(l.fileOffset, &l.ImageLinenumber); err != nil {
		return nil, err
	}
	return l, nil
}

func cString(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return datasource.Decode(b[:i])
		}
	}
	return datasource.Decode(b)
}

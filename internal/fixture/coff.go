package fixture

import (
	"strconv"
)

// Section is a section of an object file or image.
type Section struct {
	Name            string
	VirtualAddress  uint32
	VirtualSize     uint32
	Characteristics uint32
	Data            []byte

	// Relocations and LineNumbers are written by Object.Build only.
	Relocations []Relocation
	LineNumbers []LineNumber
}

type Relocation struct {
	VirtualAddress   uint32
	SymbolTableIndex uint32
	Type             uint16
}

// LineNumber is a COFF line number entry. Line zero marks a function whose
// symbol table index is in Type.
type LineNumber struct {
	Type uint32
	Line uint16
}

// Symbol is a symbol table entry. Aux holds whole 18 byte auxiliary
// records.
type Symbol struct {
	Name          string
	Value         uint32
	SectionNumber int16
	Type          uint16
	StorageClass  uint8
	Aux           [][]byte
}

// Object is a COFF object file. Section and symbol names longer than eight
// bytes are stored in the string table.
type Object struct {
	Machine         uint16
	Characteristics uint16
	Sections        []Section
	Symbols         []Symbol
}

type stringTable struct {
	buf Buffer
}

func newStringTable() *stringTable {
	st := &stringTable{}
	st.buf.U32(0)
	return st
}

// add stores s and returns its offset from the start of the table.
func (st *stringTable) add(s string) uint32 {
	off := uint32(st.buf.Len())
	st.buf.CString(s)
	return off
}

func (st *stringTable) bytes() []byte {
	st.buf.PutU32(0, uint32(st.buf.Len()))
	return st.buf.Data()
}

func numberOfSymbols(symbols []Symbol) uint32 {
	n := 0
	for _, s := range symbols {
		n += 1 + len(s.Aux)
	}
	return uint32(n)
}

func writeSectionHeader(w *Buffer, st *stringTable, s Section, rawPointer, relocPointer, linePointer uint32) {
	if len(s.Name) > 8 {
		w.Fixed("/"+strconv.Itoa(int(st.add(s.Name))), 8)
	} else {
		w.Fixed(s.Name, 8)
	}
	w.U32(s.VirtualSize).
		U32(s.VirtualAddress).
		U32(uint32(len(s.Data))).
		U32(rawPointer).
		U32(relocPointer).
		U32(linePointer).
		U16(uint16(len(s.Relocations))).
		U16(uint16(len(s.LineNumbers))).
		U32(s.Characteristics)
}

func writeSymbols(w *Buffer, st *stringTable, symbols []Symbol) {
	for _, s := range symbols {
		if len(s.Name) > 8 {
			w.U32(0).U32(st.add(s.Name))
		} else {
			w.Fixed(s.Name, 8)
		}
		w.U32(s.Value).
			U16(uint16(s.SectionNumber)).
			U16(s.Type).
			U8(s.StorageClass).
			U8(uint8(len(s.Aux)))
		for _, aux := range s.Aux {
			w.Fixed(string(aux), 18)
		}
	}
}

// Build lays the object out as header, section headers, section data,
// symbol table and string table.
func (o *Object) Build() []byte {
	st := newStringTable()
	headersEnd := 20 + 40*len(o.Sections)

	var data Buffer
	pointers := make([]uint32, len(o.Sections))
	for i, s := range o.Sections {
		if len(s.Data) > 0 {
			pointers[i] = uint32(headersEnd + data.Len())
			data.Bytes(s.Data)
		}
	}
	relocPointers := make([]uint32, len(o.Sections))
	linePointers := make([]uint32, len(o.Sections))
	for i, s := range o.Sections {
		if len(s.Relocations) > 0 {
			relocPointers[i] = uint32(headersEnd + data.Len())
		}
		for _, r := range s.Relocations {
			data.U32(r.VirtualAddress).U32(r.SymbolTableIndex).U16(r.Type)
		}
		if len(s.LineNumbers) > 0 {
			linePointers[i] = uint32(headersEnd + data.Len())
		}
		for _, l := range s.LineNumbers {
			data.U32(l.Type).U16(l.Line)
		}
	}

	var symtab uint32
	if len(o.Symbols) > 0 {
		symtab = uint32(headersEnd + data.Len())
	}

	var w Buffer
	w.U16(o.Machine).
		U16(uint16(len(o.Sections))).
		U32(0).
		U32(symtab).
		U32(numberOfSymbols(o.Symbols)).
		U16(0).
		U16(o.Characteristics)
	for i, s := range o.Sections {
		writeSectionHeader(&w, st, s, pointers[i], relocPointers[i], linePointers[i])
	}
	w.Bytes(data.Data())
	if len(o.Symbols) > 0 {
		writeSymbols(&w, st, o.Symbols)
		w.Bytes(st.bytes())
	}
	return w.Data()
}

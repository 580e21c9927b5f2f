package fixture

// Subsection is one entry of an NB11 subsection directory.
type Subsection struct {
	Type   uint16
	Module uint16
	Data   []byte
}

// SubsectionOffsets returns where VC50 places each subsection, relative to
// the leading NB11 tag.
func SubsectionOffsets(subs ...Subsection) []uint32 {
	offsets := make([]uint32, len(subs))
	off := 8
	for i, s := range subs {
		offsets[i] = uint32(off)
		off = alignUp(off+len(s.Data), 4)
	}
	return offsets
}

// VC50 lays out NB11 debug data: the signature and directory offset, the
// subsections, the directory, then the trailing NB11 tag.
func VC50(subs ...Subsection) []byte {
	var w Buffer
	w.Bytes([]byte("NB11")).U32(0)
	offsets := SubsectionOffsets(subs...)
	for _, s := range subs {
		w.Bytes(s.Data).AlignTo(4)
	}

	w.PutU32(4, uint32(w.Len()))
	w.U16(16).U16(12).U32(uint32(len(subs))).U32(0).U32(0)
	for i, s := range subs {
		w.U16(s.Type).U16(s.Module).U32(offsets[i]).U32(uint32(len(s.Data)))
	}
	start := w.Len()
	w.Bytes([]byte("NB11")).U32(uint32(start + 8))
	return w.Data()
}

// SymbolRecord encodes a symbol with its length and type header.
func SymbolRecord(typ uint16, body []byte) []byte {
	var w Buffer
	w.U16(uint16(2 + len(body))).U16(typ).Bytes(body)
	return w.Data()
}

// SymbolTable builds an sstGlobalSym style subsection with empty hash
// tables.
func SymbolTable(records ...[]byte) []byte {
	var syms Buffer
	for _, r := range records {
		syms.Bytes(r)
	}
	var w Buffer
	w.U16(0).U16(0).U32(uint32(syms.Len())).U32(0).U32(0)
	return w.Bytes(syms.Data()).Data()
}

// TypeRecord joins leaves into one length-prefixed type record.
func TypeRecord(leaves ...[]byte) []byte {
	var body Buffer
	for _, l := range leaves {
		body.Bytes(l)
	}
	var w Buffer
	return w.U16(uint16(body.Len())).Bytes(body.Data()).Data()
}

// GlobalTypes builds an sstGlobalTypes subsection.
func GlobalTypes(records ...[]byte) []byte {
	var w Buffer
	w.U32(0).U32(uint32(len(records)))
	off := 0
	for _, r := range records {
		w.U32(uint32(off))
		off += len(r)
	}
	for _, r := range records {
		w.Bytes(r)
	}
	return w.Data()
}

package fixture

// Export is one named export. A non-empty Forwarder replaces Address with
// the RVA of the forwarder string.
type Export struct {
	Name      string
	Address   uint32
	Forwarder string
}

// ExportDirectory lays out an export directory whose first byte has RVA
// rva: the 40 byte table, the address, name pointer and ordinal tables, then
// the strings.
func ExportDirectory(rva uint32, dll string, ordinalBase uint32, exports []Export) []byte {
	n := uint32(len(exports))
	addressTable := rva + 40
	namePointers := addressTable + 4*n
	ordinals := namePointers + 4*n
	strings := ordinals + 2*n

	var str Buffer
	addString := func(s string) uint32 {
		at := strings + uint32(str.Len())
		str.CString(s)
		return at
	}
	dllName := addString(dll)
	names := make([]uint32, n)
	addresses := make([]uint32, n)
	for i, e := range exports {
		names[i] = addString(e.Name)
		addresses[i] = e.Address
		if e.Forwarder != "" {
			addresses[i] = addString(e.Forwarder)
		}
	}

	var w Buffer
	w.U32(0).U32(0).U16(0).U16(0).
		U32(dllName).
		U32(ordinalBase).
		U32(n).
		U32(n).
		U32(addressTable).
		U32(namePointers).
		U32(ordinals)
	for _, a := range addresses {
		w.U32(a)
	}
	for _, p := range names {
		w.U32(p)
	}
	for i := range exports {
		w.U16(uint16(i))
	}
	return w.Bytes(str.Data()).Data()
}

// DebugDirectoryEntry encodes a 28 byte debug directory entry.
func DebugDirectoryEntry(typ, size, rva, pointer uint32) []byte {
	var w Buffer
	w.U32(0).U32(0).U16(0).U16(0).U32(typ).U32(size).U32(rva).U32(pointer)
	return w.Data()
}

// RSDS encodes a PDB 7.0 CodeView record.
func RSDS(guid [16]byte, age uint32, path string) []byte {
	var w Buffer
	w.Bytes([]byte("RSDS")).Bytes(guid[:]).U32(age).CString(path)
	return w.Data()
}

// NB10 encodes a PDB 2.0 CodeView record.
func NB10(timestamp, age uint32, path string) []byte {
	var w Buffer
	w.Bytes([]byte("NB10")).U32(0).U32(timestamp).U32(age).CString(path)
	return w.Data()
}

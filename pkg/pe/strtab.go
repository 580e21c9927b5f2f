package pe

import (
	"bytes"
	"sort"

	"coffdbg/pkg/datasource"

	"github.com/pkg/errors"
)

type stringEntry struct {
	value  string
	offset int64
}

// StringTable is the COFF long name table. It starts with a 4 byte length
// that counts itself, followed by NUL-terminated names.
type StringTable struct {
	offset  int64
	size    uint32
	data    []byte
	entries []stringEntry
}

func emptyStringTable() *StringTable {
	return &StringTable{}
}

func newStringTable(src *datasource.Source, offset int64) (*StringTable, error) {
	size, err := src.Uint32At(offset)
	if err != nil {
		return nil, errors.WithMessage(err, "read string table length")
	}
	st := &StringTable{offset: offset, size: size}
	if size <= 4 {
		return st, nil
	}
	st.data, err = src.BytesAt(offset+4, int(size-4))
	if err != nil {
		return nil, errors.WithMessagef(err, "read string table of %d bytes", size)
	}

	for start := 0; start < len(st.data); {
		end := bytes.IndexByte(st.data[start:], 0)
		if end < 0 {
			break
		}
		st.entries = append(st.entries, stringEntry{
			value:  datasource.Decode(st.data[start : start+end]),
			offset: offset + 4 + int64(start),
		})
		start += end + 1
	}
	return st, nil
}

// Len returns the number of names in the table.
func (st *StringTable) Len() int {
	return len(st.entries)
}

// Offset returns the file offset of the table, or zero if there is none.
func (st *StringTable) Offset() int64 {
	return st.offset
}

// Get returns the i-th name.
func (st *StringTable) Get(i int) (string, error) {
	if i < 0 || i >= len(st.entries) {
		return "", indexError("string", i, len(st.entries))
	}
	return st.entries[i].value, nil
}

// AtOffset returns the name starting at the absolute file offset off.
// Offsets into the middle of a name, as produced by linkers that share name
// suffixes, are decoded directly from the table data.
func (st *StringTable) AtOffset(off int64) (string, error) {
	i := sort.Search(len(st.entries), func(i int) bool {
		return st.entries[i].offset >= off
	})
	if i < len(st.entries) && st.entries[i].offset == off {
		return st.entries[i].value, nil
	}

	rel := off - st.offset - 4
	if st.offset == 0 || rel < 0 || rel >= int64(len(st.data)) {
		return "", errors.Wrapf(ErrFormat, "no string found at file offset 0x%x", off)
	}
	end := bytes.IndexByte(st.data[rel:], 0)
	if end < 0 {
		return "", errors.Wrapf(ErrFormat, "unterminated string at file offset 0x%x", off)
	}
	return datasource.Decode(st.data[rel : rel+int64(end)]), nil
}

// AtTableOffset resolves an offset relative to the start of the table, as
// stored in symbol names and "/N" section names.
func (st *StringTable) AtTableOffset(rel uint32) (string, error) {
	if st.offset == 0 {
		return "", errors.Wrapf(ErrFormat, "string table reference %d without a string table", rel)
	}
	return st.AtOffset(st.offset + int64(rel))
}

package pe

import (
	"testing"

	"coffdbg/internal/fixture"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSectionRelocationsAndLineNumbers(t *testing.T) {
	text := textSection()
	text.VirtualAddress = 0x1000
	text.VirtualSize = 0x10
	text.Relocations = []fixture.Relocation{
		{VirtualAddress: 0x4, SymbolTableIndex: 7, Type: 4},
		{VirtualAddress: 0xc, SymbolTableIndex: 9, Type: 1},
	}
	text.LineNumbers = []fixture.LineNumber{{Type: 2}, {Type: 0x1008, Line: 3}}

	obj := fixture.Object{Machine: IMAGE_FILE_MACHINE_AMD64, Sections: []fixture.Section{text}}
	f, err := Parse(obj.Build())
	require.NoError(t, err)

	s, err := f.Header().SectionHeader(1)
	require.NoError(t, err)
	assert.True(t, s.HasFlag(IMAGE_SCN_CNT_CODE))
	assert.True(t, s.ContainsRVA(0x100f))
	assert.False(t, s.ContainsRVA(0x1010))

	data, err := s.RawData()
	require.NoError(t, err)
	assert.Len(t, data, 16)

	r, err := s.Relocation(1)
	require.NoError(t, err)
	assert.Equal(t, ImageRelocation{VirtualAddress: 0xc, SymbolTableIndex: 9, Type: 1}, r.ImageRelocation)
	_, err = s.Relocation(2)
	assert.Error(t, err)

	fn, err := s.LineNumber(0)
	require.NoError(t, err)
	assert.Equal(t, ImageLinenumber{Type: 2}, fn.ImageLinenumber)
	line, err := s.LineNumber(1)
	require.NoError(t, err)
	assert.Equal(t, ImageLinenumber{Type: 0x1008, Linenumber: 3}, line.ImageLinenumber)
	_, err = s.LineNumber(-1)
	assert.Error(t, err)
}

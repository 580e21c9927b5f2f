package pe

import (
	"testing"

	"coffdbg/internal/fixture"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func funcDefAux(totalSize uint32) []byte {
	var b fixture.Buffer
	b.U32(0).U32(totalSize).U32(0x1234).U32(0).U16(0)
	return b.Data()
}

func symbolObject() []byte {
	var secDef fixture.Buffer
	secDef.U32(16).U16(0).U16(0).U32(0xdeadbeef).U16(0).U8(0).Zero(3)

	obj := fixture.Object{
		Machine: IMAGE_FILE_MACHINE_AMD64,
		Sections: []fixture.Section{
			textSection(),
			{Name: ".debug$Symbols", Data: []byte{1, 2, 3, 4}},
		},
		Symbols: []fixture.Symbol{
			{Name: ".file", SectionNumber: -2, StorageClass: IMAGE_SYM_CLASS_FILE, Aux: [][]byte{[]byte("hello.c")}},
			{Name: ".text", SectionNumber: 1, StorageClass: IMAGE_SYM_CLASS_STATIC, Aux: [][]byte{secDef.Data()}},
			{
				Name: "main", SectionNumber: 1, Type: IMAGE_SYM_DTYPE_FUNCTION << N_BTSHFT,
				StorageClass: IMAGE_SYM_CLASS_EXTERNAL, Aux: [][]byte{funcDefAux(16)},
			},
			{Name: ".bf", SectionNumber: 1, StorageClass: IMAGE_SYM_CLASS_FUNCTION, Aux: [][]byte{make([]byte, 18)}},
			{Name: "a_rather_long_external_name", StorageClass: IMAGE_SYM_CLASS_EXTERNAL},
			{Name: "static_fn", SectionNumber: 1, Type: 0x20, StorageClass: IMAGE_SYM_CLASS_STATIC},
		},
	}
	return obj.Build()
}

func TestSymbolTable(t *testing.T) {
	f, err := Parse(symbolObject())
	require.NoError(t, err)
	h := f.Header()
	assert.Equal(t, uint32(10), h.NumberOfSymbols)

	var names []string
	var kinds []SymbolKind
	require.NoError(t, h.Symbols(func(s *Symbol) bool {
		names = append(names, s.Name)
		kinds = append(kinds, s.Kind())
		return true
	}))
	assert.Equal(t, []string{".file", ".text", "main", ".bf", "a_rather_long_external_name", "static_fn"}, names)
	assert.Equal(t, []SymbolKind{
		SymbolFile,
		SymbolSectionDefinition,
		SymbolFunctionDefinition,
		SymbolBfEf,
		SymbolWeakExternal,
		SymbolOther,
	}, kinds)

	var first []string
	require.NoError(t, h.Symbols(func(s *Symbol) bool {
		first = append(first, s.Name)
		return len(first) < 2
	}))
	assert.Equal(t, []string{".file", ".text"}, first)
}

func TestLongNames(t *testing.T) {
	f, err := Parse(symbolObject())
	require.NoError(t, err)
	h := f.Header()

	s, err := h.SectionHeader(2)
	require.NoError(t, err)
	assert.Equal(t, ".debug$Symbols", s.Name)

	n, err := h.NumberOfStrings()
	require.NoError(t, err)
	require.Equal(t, 3, n)
	for i, want := range []string{".debug$Symbols", "a_rather_long_external_name", "static_fn"} {
		name, err := h.StringByIndex(i)
		require.NoError(t, err)
		assert.Equal(t, want, name)
	}
	_, err = h.StringByIndex(3)
	assert.Error(t, err)

	st, err := h.StringTable()
	require.NoError(t, err)
	name, err := h.StringAt(st.Offset() + 4)
	require.NoError(t, err)
	assert.Equal(t, ".debug$Symbols", name)
}

func TestAuxiliaryRecords(t *testing.T) {
	f, err := Parse(symbolObject())
	require.NoError(t, err)
	h := f.Header()

	file, err := h.Symbol(0)
	require.NoError(t, err)
	name, err := file.AuxFileName()
	require.NoError(t, err)
	assert.Equal(t, "hello.c", name)

	text, err := h.Symbol(2)
	require.NoError(t, err)
	def, err := text.AuxSectionDefinition()
	require.NoError(t, err)
	assert.Equal(t, uint32(16), def.Length)
	assert.Equal(t, uint32(0xdeadbeef), def.CheckSum)

	main, err := h.Symbol(4)
	require.NoError(t, err)
	require.Equal(t, "main", main.Name)
	assert.True(t, main.IsFunctionDefinition())
	fn, err := main.AuxFunctionDefinition()
	require.NoError(t, err)
	assert.Equal(t, uint32(16), fn.TotalSize)
	assert.Equal(t, uint32(0x1234), fn.PointerToLinenumber)

	sec, err := main.Section()
	require.NoError(t, err)
	require.NotNil(t, sec)
	assert.Equal(t, ".text", sec.Name)

	ext, err := h.Symbol(8)
	require.NoError(t, err)
	_, err = ext.AuxWeakExternal()
	assert.ErrorIs(t, err, ErrFormat)
	sec, err = ext.Section()
	require.NoError(t, err)
	assert.Nil(t, sec)
}

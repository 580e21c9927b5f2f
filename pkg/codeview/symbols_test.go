package codeview

import (
	"testing"

	"coffdbg/internal/fixture"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func procRecord(name string, end uint32) []byte {
	var b fixture.Buffer
	b.U32(0).U32(end).U32(0)
	b.U32(0x20).U32(3).U32(0x1c)
	b.U32(0x1000).U32(0x10).U16(1).U8(PROCFLAGS_FRAME_POINTER_OMITTED)
	b.Pascal(name)
	return fixture.SymbolRecord(uint16(S_GPROC32), b.Data())
}

func globalSymbols() [][]byte {
	var bprel, data, constant fixture.Buffer
	bprel.U32(0xfffffff8).U32(0x74).Pascal("x")
	data.U32(0x74).U32(0x400).U16(2).Pascal("counter")
	constant.U32(0x75).U16(uint16(LF_USHORT)).U16(300).Pascal("K")

	// proc (44 bytes) + bprel (14 bytes) puts S_END at 58.
	return [][]byte{
		procRecord("main", 58),
		fixture.SymbolRecord(uint16(S_BPREL32), bprel.Data()),
		fixture.SymbolRecord(uint16(S_END), nil),
		fixture.SymbolRecord(uint16(S_GDATA32), data.Data()),
		fixture.SymbolRecord(uint16(S_CONSTANT), constant.Data()),
	}
}

func TestAlignSymLinksCountFromSubsectionStart(t *testing.T) {
	var b fixture.Buffer
	b.U32(1)
	// The signature (4 bytes) and the procedure (44 bytes) put S_END at 48.
	b.Bytes(procRecord("main", 48))
	b.Bytes(fixture.SymbolRecord(uint16(S_END), nil))

	a := openSymbolTable(t, SST_ALIGN_SYM, b.Data()).(*AlignSym)
	it, err := a.Symbols()
	require.NoError(t, err)
	require.Equal(t, S_GPROC32, it.Type())
	assert.Equal(t, a.Offset()+4, it.RecordOffset())

	off, err := it.ProcEndOffset()
	require.NoError(t, err)
	assert.Equal(t, a.Offset()+48, off)

	end, err := it.ProcEnd()
	require.NoError(t, err)
	require.False(t, end.Done())
	assert.Equal(t, S_END, end.Type())

	require.NoError(t, it.Next())
	assert.Equal(t, end.RecordOffset(), it.RecordOffset())
}

func openSymbolTable(t *testing.T, typ SubsectionType, data []byte) Subsection {
	t.Helper()
	vc := openVC50(t, fixture.Subsection{Type: uint16(typ), Module: ModuleIndependent, Data: data})
	dir, err := vc.SubsectionDirectory()
	require.NoError(t, err)
	s, err := dir.Subsection(0)
	require.NoError(t, err)
	return s
}

func TestSymbolIterator(t *testing.T) {
	records := globalSymbols()
	st := openSymbolTable(t, SST_GLOBAL_SYM, fixture.SymbolTable(records...)).(*SymbolTable)
	total := 0
	for _, r := range records {
		total += len(r)
	}
	assert.Equal(t, uint32(total), st.SymTabSize())

	it, err := st.Symbols()
	require.NoError(t, err)

	var kinds []SymbolType
	var names []string
	for !it.Done() {
		kinds = append(kinds, it.Type())
		name, err := it.Name()
		require.NoError(t, err)
		names = append(names, name)
		require.NoError(t, it.Next())
	}
	assert.Equal(t, []SymbolType{S_GPROC32, S_BPREL32, S_END, S_GDATA32, S_CONSTANT}, kinds)
	assert.Equal(t, []string{"main", "x", "", "counter", "K"}, names)

	err = it.Next()
	assert.True(t, errors.Is(err, ErrNoMoreElements))
}

func TestProcSymbol(t *testing.T) {
	st := openSymbolTable(t, SST_GLOBAL_SYM, fixture.SymbolTable(globalSymbols()...)).(*SymbolTable)
	it, err := st.Symbols()
	require.NoError(t, err)
	require.Equal(t, S_GPROC32, it.Type())
	assert.Equal(t, uint16(42), it.Length())
	assert.Equal(t, it.RecordOffset()+4, it.Offset())

	parent, err := it.ProcParent()
	require.NoError(t, err)
	assert.Nil(t, parent)

	length, err := it.ProcLength()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x20), length)
	off, err := it.ProcOffset()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x10), off)
	seg, err := it.ProcSegment()
	require.NoError(t, err)
	assert.Equal(t, uint16(1), seg)
	flags, err := it.ProcFlags()
	require.NoError(t, err)
	assert.Equal(t, uint8(PROCFLAGS_FRAME_POINTER_OMITTED), flags)

	endOffset, err := it.ProcEndOffset()
	require.NoError(t, err)
	assert.Equal(t, it.RecordOffset()+58, endOffset)

	end, err := it.ProcEnd()
	require.NoError(t, err)
	require.NotNil(t, end)
	assert.Equal(t, S_END, end.Type())
	require.NoError(t, end.Next())
	assert.Equal(t, S_GDATA32, end.Type())

	require.NoError(t, it.Next())
	rel, err := it.BPRelOffset()
	require.NoError(t, err)
	assert.Equal(t, int32(-8), rel)
}

func TestDataAndConstantSymbols(t *testing.T) {
	st := openSymbolTable(t, SST_GLOBAL_SYM, fixture.SymbolTable(globalSymbols()...)).(*SymbolTable)
	it, err := st.Symbols()
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		require.NoError(t, it.Next())
	}

	require.Equal(t, S_GDATA32, it.Type())
	seg, err := it.DataSegment()
	require.NoError(t, err)
	assert.Equal(t, uint16(2), seg)
	off, err := it.DataOffset()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x400), off)

	require.NoError(t, it.Next())
	require.Equal(t, S_CONSTANT, it.Type())
	v, err := it.ConstantValueInt()
	require.NoError(t, err)
	assert.Equal(t, int64(300), v)
	_, err = it.ConstantValueFloat32()
	assert.True(t, errors.Is(err, ErrWrongNumericType))
	name, err := it.ConstantName()
	require.NoError(t, err)
	assert.Equal(t, "K", name)
}

func TestThunkSymbol(t *testing.T) {
	var b fixture.Buffer
	b.U32(0).U32(0).U32(0)
	b.U32(0x80).U16(1).U16(6).U8(THUNK_ADJUSTOR)
	b.Pascal("thk").U16(0xfffc).Pascal("target")

	st := openSymbolTable(t, SST_GLOBAL_SYM,
		fixture.SymbolTable(fixture.SymbolRecord(uint16(S_THUNK32), b.Data()))).(*SymbolTable)
	it, err := st.Symbols()
	require.NoError(t, err)

	ord, err := it.ThunkType()
	require.NoError(t, err)
	assert.Equal(t, uint8(THUNK_ADJUSTOR), ord)
	length, err := it.ThunkLength()
	require.NoError(t, err)
	assert.Equal(t, uint16(6), length)
	name, err := it.Name()
	require.NoError(t, err)
	assert.Equal(t, "thk", name)
	delta, err := it.ThunkAdjustorThisDelta()
	require.NoError(t, err)
	assert.Equal(t, int16(-4), delta)
	target, err := it.ThunkAdjustorTargetName()
	require.NoError(t, err)
	assert.Equal(t, "target", target)

	next, err := it.ThunkNext()
	require.NoError(t, err)
	assert.Nil(t, next)
}

func TestAlignSymSkipsSignature(t *testing.T) {
	var b fixture.Buffer
	b.U32(1)
	var udt fixture.Buffer
	udt.U32(0x1003).Pascal("point")
	b.Bytes(fixture.SymbolRecord(uint16(S_UDT), udt.Data()))

	s := openSymbolTable(t, SST_ALIGN_SYM, b.Data())
	a, ok := s.(*AlignSym)
	require.True(t, ok)

	it, err := a.Symbols()
	require.NoError(t, err)
	require.False(t, it.Done())
	assert.Equal(t, S_UDT, it.Type())
	typ, err := it.UDTType()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x1003), typ)
	name, err := it.UDTName()
	require.NoError(t, err)
	assert.Equal(t, "point", name)

	require.NoError(t, it.Next())
	assert.True(t, it.Done())
}

package codeview

import (
	"testing"

	"coffdbg/internal/fixture"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func leaf(build func(b *fixture.Buffer)) []byte {
	var b fixture.Buffer
	build(&b)
	return b.Data()
}

// globalTypes builds the records 0x1000 through 0x1005:
//
//	0x1000 int arr[5]
//	0x1001 field list {a at 0, pad, b at 40000}
//	0x1002 struct pair
//	0x1003 an unassigned leaf
//	0x1004 pointer based on type 0x1002, then LF_PAD1
//	0x1005 vtable shape with three entries
func globalTypes() []byte {
	return fixture.GlobalTypes(
		fixture.TypeRecord(leaf(func(b *fixture.Buffer) {
			b.U16(uint16(LF_ARRAY)).U32(0x74).U32(0x22).U16(5).Pascal("arr")
		})),
		fixture.TypeRecord(
			leaf(func(b *fixture.Buffer) { b.U16(uint16(LF_FIELDLIST)) }),
			leaf(func(b *fixture.Buffer) { b.U16(uint16(LF_MEMBER)).U16(3).U32(0x74).U16(0).Pascal("a") }),
			[]byte{0xf2, 0xf1},
			leaf(func(b *fixture.Buffer) {
				b.U16(uint16(LF_MEMBER)).U16(3).U32(0x74).U16(uint16(LF_USHORT)).U16(40000).Pascal("b")
			}),
		),
		fixture.TypeRecord(leaf(func(b *fixture.Buffer) {
			b.U16(uint16(LF_STRUCTURE)).U16(2).U16(0).U32(0x1001).U32(0).U32(0).U16(8).Pascal("pair")
		})),
		fixture.TypeRecord(leaf(func(b *fixture.Buffer) { b.U16(0x1300).U32(0) })),
		fixture.TypeRecord(
			leaf(func(b *fixture.Buffer) {
				b.U16(uint16(LF_POINTER)).U32(0x1002).U32(POINTER_PTRTYPE_BASED_ON_TYPE).U32(0x1002).Pascal("seg")
			}),
			[]byte{0xf1},
		),
		fixture.TypeRecord(leaf(func(b *fixture.Buffer) { b.U16(uint16(LF_VTSHAPE)).U16(3).U8(0x21).U8(0x03) })),
	)
}

func openGlobalTypes(t *testing.T) *GlobalTypes {
	t.Helper()
	vc := openVC50(t, fixture.Subsection{Type: uint16(SST_GLOBAL_TYPES), Module: ModuleIndependent, Data: globalTypes()})
	dir, err := vc.SubsectionDirectory()
	require.NoError(t, err)
	s, err := dir.Subsection(0)
	require.NoError(t, err)
	g, ok := s.(*GlobalTypes)
	require.True(t, ok)
	return g
}

// seek advances it to the record with the given biased index.
func seek(t *testing.T, it *TypeIterator, typeIndex uint32) {
	t.Helper()
	for it.TypeIndex() < typeIndex {
		require.NoError(t, it.Next())
	}
	require.False(t, it.Done())
}

func TestTypeIteratorRecords(t *testing.T) {
	g := openGlobalTypes(t)
	assert.Equal(t, 6, g.NumTypes())

	it, err := g.Types()
	require.NoError(t, err)

	var indices []uint32
	for !it.Done() {
		indices = append(indices, it.TypeIndex())
		off, err := g.TypeOffset(len(indices) - 1)
		require.NoError(t, err)
		assert.Equal(t, off, it.RecordOffset())
		require.NoError(t, it.Next())
	}
	assert.Equal(t, []uint32{0x1000, 0x1001, 0x1002, 0x1003, 0x1004, 0x1005}, indices)

	err = it.Next()
	assert.True(t, errors.Is(err, ErrNoMoreElements))
}

func TestArrayLeaf(t *testing.T) {
	it, err := openGlobalTypes(t).Types()
	require.NoError(t, err)
	require.Equal(t, LF_ARRAY, it.Leaf())
	assert.Equal(t, uint16(16), it.Length())

	elem, err := it.ArrayElementType()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x74), elem)
	idx, err := it.ArrayIndexType()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x22), idx)
	n, err := it.ArrayLength()
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)
	name, err := it.ArrayName()
	require.NoError(t, err)
	assert.Equal(t, "arr", name)

	require.NoError(t, it.TypeStringNext())
	assert.True(t, it.TypeStringDone())
}

func TestStructureFieldList(t *testing.T) {
	it, err := openGlobalTypes(t).Types()
	require.NoError(t, err)
	seek(t, it, 0x1002)
	require.Equal(t, LF_STRUCTURE, it.Leaf())

	size, err := it.ClassSize()
	require.NoError(t, err)
	assert.Equal(t, int64(8), size)
	name, err := it.ClassName()
	require.NoError(t, err)
	assert.Equal(t, "pair", name)

	fields, err := it.ClassFieldListIterator()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x1001), fields.TypeIndex())
	require.Equal(t, LF_FIELDLIST, fields.Leaf())

	type member struct {
		name   string
		offset int64
	}
	var members []member
	var leaves []LeafType
	require.NoError(t, fields.TypeStringNext())
	for !fields.TypeStringDone() {
		leaves = append(leaves, fields.Leaf())
		if fields.Leaf() == LF_MEMBER {
			name, err := fields.MemberName()
			require.NoError(t, err)
			off, err := fields.MemberOffset()
			require.NoError(t, err)
			members = append(members, member{name, off})
		}
		require.NoError(t, fields.TypeStringNext())
	}
	assert.Equal(t, []LeafType{LF_MEMBER, LF_PAD0 + 2, LF_MEMBER}, leaves)
	assert.Equal(t, []member{{"a", 0}, {"b", 40000}}, members)

	// The field list iterator is independent of the one it came from.
	assert.Equal(t, uint32(0x1002), it.TypeIndex())
	assert.Equal(t, LF_STRUCTURE, it.Leaf())
}

func TestUnrecognizedLeaf(t *testing.T) {
	it, err := openGlobalTypes(t).Types()
	require.NoError(t, err)
	seek(t, it, 0x1003)

	err = it.TypeStringNext()
	assert.True(t, errors.Is(err, ErrUnrecognizedLeaf))

	require.NoError(t, it.Next())
	assert.Equal(t, uint32(0x1004), it.TypeIndex())
	assert.Equal(t, LF_POINTER, it.Leaf())
}

func TestPointerBasedOnType(t *testing.T) {
	it, err := openGlobalTypes(t).Types()
	require.NoError(t, err)
	seek(t, it, 0x1004)
	require.Equal(t, LF_POINTER, it.Leaf())

	based, err := it.PointerBasedOnTypeIndex()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x1002), based)
	name, err := it.PointerBasedOnTypeName()
	require.NoError(t, err)
	assert.Equal(t, "seg", name)

	start := it.TypeStringOffset()
	require.NoError(t, it.TypeStringNext())
	assert.Equal(t, LF_PAD0+1, it.Leaf())
	assert.Equal(t, int64(18), it.TypeStringOffset()-start)

	require.NoError(t, it.TypeStringNext())
	assert.True(t, it.TypeStringDone())
	err = it.TypeStringNext()
	assert.True(t, errors.Is(err, ErrNoMoreElements))
}

func TestVTShape(t *testing.T) {
	it, err := openGlobalTypes(t).Types()
	require.NoError(t, err)
	seek(t, it, 0x1005)
	require.Equal(t, LF_VTSHAPE, it.Leaf())

	count, err := it.VTShapeCount()
	require.NoError(t, err)
	var got []uint8
	for i := 0; i < int(count); i++ {
		d, err := it.VTShapeDescriptor(i)
		require.NoError(t, err)
		got = append(got, d)
	}
	assert.Equal(t, []uint8{1, 2, 3}, got)

	require.NoError(t, it.TypeStringNext())
	assert.True(t, it.TypeStringDone())
}

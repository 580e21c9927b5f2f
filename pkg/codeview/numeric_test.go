package codeview

import (
	"testing"

	"coffdbg/internal/fixture"
	"coffdbg/pkg/datasource"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumericLeafLengths(t *testing.T) {
	cases := []struct {
		tag    LeafType
		length int64
	}{
		{LF_CHAR, 3},
		{LF_SHORT, 4},
		{LF_USHORT, 4},
		{LF_LONG, 6},
		{LF_ULONG, 6},
		{LF_REAL32, 6},
		{LF_REAL64, 10},
		{LF_REAL80, 12},
		{LF_REAL128, 18},
		{LF_QUADWORD, 18},
		{LF_UQUADWORD, 18},
		{LF_REAL48, 8},
		{LF_COMPLEX32, 10},
		{LF_COMPLEX64, 18},
		{LF_COMPLEX80, 26},
		{LF_COMPLEX128, 66},
	}
	for _, c := range cases {
		t.Run(c.tag.String(), func(t *testing.T) {
			var b fixture.Buffer
			b.U16(uint16(c.tag)).Zero(int(c.length) - 2).Pascal("next")
			src := datasource.New(b.Data())

			n, err := NumericLeafLength(src, 0)
			require.NoError(t, err)
			assert.Equal(t, c.length, n)

			name, err := src.PascalStringAt(n)
			require.NoError(t, err)
			assert.Equal(t, "next", name)
		})
	}
}

func TestNumericLeafInlineValue(t *testing.T) {
	var b fixture.Buffer
	b.U16(0x7fff)
	src := datasource.New(b.Data())

	n, err := NumericLeafLength(src, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	v, err := NumericInt(src, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(0x7fff), v)

	data, err := NumericData(src, 0)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xff, 0x7f}, data)
}

func TestNumericLeafVarString(t *testing.T) {
	var b fixture.Buffer
	b.U16(uint16(LF_VARSTRING)).U16(5).Bytes([]byte("hello")).Pascal("after")
	src := datasource.New(b.Data())

	n, err := NumericLeafLength(src, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(9), n)

	name, err := src.PascalStringAt(n)
	require.NoError(t, err)
	assert.Equal(t, "after", name)
}

func TestNumericLeafUnknownTag(t *testing.T) {
	var b fixture.Buffer
	b.U16(0x8011).Zero(8)
	src := datasource.New(b.Data())

	_, err := NumericLeafLength(src, 0)
	assert.True(t, errors.Is(err, ErrWrongNumericType))
}

// A numeric leaf followed by a string: the string is found only if the
// leaf length is exact.
func TestUShortFollowedByString(t *testing.T) {
	var b fixture.Buffer
	b.U16(uint16(LF_USHORT)).U16(300).Pascal("ok")
	src := datasource.New(b.Data())

	v, err := NumericInt(src, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(300), v)

	n, err := NumericLeafLength(src, 0)
	require.NoError(t, err)
	s, err := src.PascalStringAt(n)
	require.NoError(t, err)
	assert.Equal(t, "ok", s)

	sl, err := PascalStringLength(src, n)
	require.NoError(t, err)
	assert.Equal(t, int64(len(b.Data())), n+sl)
}

func TestNumericValues(t *testing.T) {
	leaf := func(tag LeafType, payload func(*fixture.Buffer)) *datasource.Source {
		var b fixture.Buffer
		b.U16(uint16(tag))
		payload(&b)
		return datasource.New(b.Data())
	}

	ints := []struct {
		name string
		src  *datasource.Source
		want int64
	}{
		{"char", leaf(LF_CHAR, func(b *fixture.Buffer) { b.U8(0xff) }), -1},
		{"short", leaf(LF_SHORT, func(b *fixture.Buffer) { b.U16(0xfffe) }), -2},
		{"ushort", leaf(LF_USHORT, func(b *fixture.Buffer) { b.U16(0xfffe) }), 0xfffe},
		{"long", leaf(LF_LONG, func(b *fixture.Buffer) { b.U32(0xfffffffd) }), -3},
		{"ulong", leaf(LF_ULONG, func(b *fixture.Buffer) { b.U32(0xffffffff) }), 0xffffffff},
	}
	for _, c := range ints {
		t.Run(c.name, func(t *testing.T) {
			v, err := NumericInt(c.src, 0)
			require.NoError(t, err)
			assert.Equal(t, c.want, v)

			l, err := NumericLong(c.src, 0)
			require.NoError(t, err)
			assert.Equal(t, c.want, l)
		})
	}

	quad := leaf(LF_QUADWORD, func(b *fixture.Buffer) { b.U64(1 << 40) })
	_, err := NumericInt(quad, 0)
	assert.True(t, errors.Is(err, ErrWrongNumericType))
	l, err := NumericLong(quad, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1<<40), l)

	real32 := leaf(LF_REAL32, func(b *fixture.Buffer) { b.U32(0x3fc00000) })
	f32, err := NumericFloat32(real32, 0)
	require.NoError(t, err)
	assert.Equal(t, float32(1.5), f32)
	_, err = NumericFloat64(real32, 0)
	assert.True(t, errors.Is(err, ErrWrongNumericType))

	real64 := leaf(LF_REAL64, func(b *fixture.Buffer) { b.U64(0x4002000000000000) })
	f64, err := NumericFloat64(real64, 0)
	require.NoError(t, err)
	assert.Equal(t, 2.25, f64)

	data, err := NumericData(real64, 0)
	require.NoError(t, err)
	assert.Len(t, data, 8)
}

package codeview

import (
	"testing"

	"coffdbg/internal/fixture"
	"coffdbg/pkg/datasource"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openVC50 places the debug data behind a few bytes of padding so that
// offsets relative to the NB11 tag are distinguishable from file offsets.
func openVC50(t *testing.T, subs ...fixture.Subsection) *VC50 {
	t.Helper()
	var b fixture.Buffer
	b.Zero(0x20).Bytes(fixture.VC50(subs...))
	src := datasource.New(b.Data())
	require.True(t, HasSignature(src, 0x20))
	vc, err := New(src, 0x20)
	require.NoError(t, err)
	return vc
}

func moduleData() []byte {
	var b fixture.Buffer
	b.U16(0).U16(0).U16(2).Fixed("CV", 2)
	b.U16(1).U16(0).U32(0x10).U32(0x100)
	b.U16(2).U16(0).U32(0x0).U32(0x40)
	b.Pascal("main.obj")
	return b.Data()
}

func TestNewVC50(t *testing.T) {
	vc := openVC50(t,
		fixture.Subsection{Type: uint16(SST_MODULE), Module: 1, Data: moduleData()},
	)
	assert.Equal(t, int64(0x20), vc.Offset())

	dir, err := vc.SubsectionDirectory()
	require.NoError(t, err)
	assert.Equal(t, uint16(16), dir.HeaderLength())
	assert.Equal(t, uint16(12), dir.EntryLength())
	require.Equal(t, 1, dir.NumEntries())

	e, err := dir.Entry(0)
	require.NoError(t, err)
	assert.Equal(t, SST_MODULE, e.Type)
	assert.Equal(t, uint16(1), e.Module)
	assert.Equal(t, int64(0x20+8), e.Offset)
	assert.Equal(t, uint32(len(moduleData())), e.Size)

	_, err = dir.Entry(1)
	assert.True(t, errors.Is(err, ErrIndexOutOfRange))
}

func TestNewVC50Signatures(t *testing.T) {
	src := datasource.New([]byte("NB10\x08\x00\x00\x00"))
	assert.False(t, HasSignature(src, 0))
	_, err := New(src, 0)
	assert.True(t, errors.Is(err, ErrBadSignature))

	data := fixture.VC50()
	copy(data[len(data)-8:], "NB09")
	_, err = New(datasource.New(data), 0)
	assert.True(t, errors.Is(err, ErrBadSignature))
}

func TestModule(t *testing.T) {
	vc := openVC50(t,
		fixture.Subsection{Type: uint16(SST_MODULE), Module: 1, Data: moduleData()},
	)
	dir, err := vc.SubsectionDirectory()
	require.NoError(t, err)
	s, err := dir.Subsection(0)
	require.NoError(t, err)
	m, ok := s.(*Module)
	require.True(t, ok)

	assert.Equal(t, 2, m.NumSegments())
	assert.Equal(t, "CV", m.Style())
	info, err := m.SegInfo(1)
	require.NoError(t, err)
	assert.Equal(t, SegInfo{Segment: 2, Offset: 0, Size: 0x40}, *info)

	name, err := m.Name()
	require.NoError(t, err)
	assert.Equal(t, "main.obj", name)

	_, err = m.SegInfo(2)
	assert.True(t, errors.Is(err, ErrIndexOutOfRange))
}

func TestSubsectionDispatch(t *testing.T) {
	vc := openVC50(t,
		fixture.Subsection{Type: uint16(SST_MODULE), Module: 1, Data: moduleData()},
		fixture.Subsection{Type: uint16(SST_PRE_COMP_MAP), Module: 1, Data: []byte{1, 2, 3, 4}},
		fixture.Subsection{Type: uint16(SST_LIBRARIES), Module: ModuleIndependent, Data: []byte{0, 3, 'a', 'b', 'c'}},
		fixture.Subsection{Type: uint16(SST_MODULE), Module: 2, Data: moduleData()},
	)
	dir, err := vc.SubsectionDirectory()
	require.NoError(t, err)

	s, err := dir.Subsection(1)
	require.NoError(t, err)
	assert.Nil(t, s)

	s, err = dir.Subsection(2)
	require.NoError(t, err)
	opaque, ok := s.(*Opaque)
	require.True(t, ok)
	assert.Equal(t, SST_LIBRARIES, opaque.Type())
	data, err := opaque.Data()
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 3, 'a', 'b', 'c'}, data)

	var seen []int
	require.NoError(t, dir.Subsections(func(i int, s Subsection) bool {
		seen = append(seen, i)
		return true
	}))
	assert.Equal(t, []int{0, 2, 3}, seen)

	modules, err := dir.Lookup(SST_MODULE)
	require.NoError(t, err)
	require.Len(t, modules, 2)
	assert.Equal(t, uint16(2), modules[1].Module())
}

func TestUnknownSubsection(t *testing.T) {
	vc := openVC50(t, fixture.Subsection{Type: 0x200, Data: []byte{0, 0, 0, 0}})
	dir, err := vc.SubsectionDirectory()
	require.NoError(t, err)
	_, err = dir.Subsection(0)
	assert.True(t, errors.Is(err, ErrUnknownSubsection))
}

func TestSegMapAndNames(t *testing.T) {
	var segMap fixture.Buffer
	segMap.U16(2).U16(2)
	segMap.U16(0x0109).U16(0).U16(0).U16(1).U16(0).U16(6).U32(0).U32(0x1000)
	segMap.U16(0x010b).U16(0).U16(0).U16(2).U16(6).U16(0xffff).U32(0).U32(0x200)

	var names fixture.Buffer
	names.CString(".text").CString(".data")

	vc := openVC50(t,
		fixture.Subsection{Type: uint16(SST_SEG_MAP), Module: ModuleIndependent, Data: segMap.Data()},
		fixture.Subsection{Type: uint16(SST_SEG_NAME), Module: ModuleIndependent, Data: names.Data()},
	)
	dir, err := vc.SubsectionDirectory()
	require.NoError(t, err)

	s, err := dir.Subsection(0)
	require.NoError(t, err)
	m := s.(*SegMap)
	assert.Equal(t, 2, m.NumSegDesc())
	assert.Equal(t, 2, m.NumLogicalSegDesc())
	d, err := m.SegDesc(1)
	require.NoError(t, err)
	assert.Equal(t, uint16(2), d.Frame)
	assert.Equal(t, uint16(6), d.SegName)
	assert.Equal(t, uint32(0x200), d.Size)

	s, err = dir.Subsection(1)
	require.NoError(t, err)
	n := s.(*SegName)
	name, err := n.NameAt(d.SegName)
	require.NoError(t, err)
	assert.Equal(t, ".data", name)

	all, err := n.Names()
	require.NoError(t, err)
	assert.Equal(t, []string{".text", ".data"}, all)

	_, err = n.NameAt(64)
	assert.True(t, errors.Is(err, ErrIndexOutOfRange))
}

func TestSegNamesWithANSIBytes(t *testing.T) {
	var names fixture.Buffer
	names.CString("caf\xe9").CString(".data")

	vc := openVC50(t, fixture.Subsection{Type: uint16(SST_SEG_NAME), Module: ModuleIndependent, Data: names.Data()})
	dir, err := vc.SubsectionDirectory()
	require.NoError(t, err)
	s, err := dir.Subsection(0)
	require.NoError(t, err)

	all, err := s.(*SegName).Names()
	require.NoError(t, err)
	assert.Equal(t, []string{"café", ".data"}, all)
}

func TestFileIndex(t *testing.T) {
	var b fixture.Buffer
	b.U16(2).U16(3)
	b.U16(0).U16(2) // module starts
	b.U16(2).U16(1) // reference counts
	b.U32(0).U32(4).U32(8)
	b.Pascal("a.c").Pascal("b.h").Pascal("lib.c")

	vc := openVC50(t, fixture.Subsection{Type: uint16(SST_FILE_INDEX), Module: ModuleIndependent, Data: b.Data()})
	dir, err := vc.SubsectionDirectory()
	require.NoError(t, err)
	s, err := dir.Subsection(0)
	require.NoError(t, err)
	fi := s.(*FileIndex)

	assert.Equal(t, 2, fi.NumModules())
	assert.Equal(t, 3, fi.NumReferences())

	files, err := fi.ModuleFileNames(0)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.c", "b.h"}, files)

	files, err = fi.ModuleFileNames(1)
	require.NoError(t, err)
	assert.Equal(t, []string{"lib.c"}, files)

	_, err = fi.ModuleStart(2)
	assert.True(t, errors.Is(err, ErrIndexOutOfRange))
}

func srcModuleData() []byte {
	var b fixture.Buffer
	b.U16(1).U16(1)
	b.U32(20)               // file table
	b.U32(0x10).U32(0x40)   // segment range
	b.U16(1).Zero(2)        // segment index
	b.U16(1).U16(0).U32(44) // file: one segment, line map at 44
	b.U32(0x10).U32(0x40)
	b.Pascal("main.c").AlignTo(4)
	b.U16(1).U16(3)
	b.U32(0x10).U32(0x20).U32(0x30)
	b.U16(10).U16(12).U16(15)
	return b.Data()
}

func TestSrcModule(t *testing.T) {
	vc := openVC50(t, fixture.Subsection{Type: uint16(SST_SRC_MODULE), Module: 1, Data: srcModuleData()})
	dir, err := vc.SubsectionDirectory()
	require.NoError(t, err)
	s, err := dir.Subsection(0)
	require.NoError(t, err)
	m := s.(*SrcModule)

	assert.Equal(t, 1, m.NumSourceFiles())
	assert.Equal(t, 1, m.NumCodeSegments())
	start, err := m.SegmentStart(0)
	require.NoError(t, err)
	end, err := m.SegmentEnd(0)
	require.NoError(t, err)
	assert.Equal(t, [2]uint32{0x10, 0x40}, [2]uint32{start, end})
	seg, err := m.Segment(0)
	require.NoError(t, err)
	assert.Equal(t, uint16(1), seg)

	f, err := m.SourceFile(0)
	require.NoError(t, err)
	name, err := f.Name()
	require.NoError(t, err)
	assert.Equal(t, "main.c", name)

	lm, err := f.LineNumberMap(0)
	require.NoError(t, err)
	assert.Equal(t, uint16(1), lm.Segment())
	assert.Equal(t, 3, lm.NumPairs())
	line, err := lm.LineNumber(2)
	require.NoError(t, err)
	assert.Equal(t, uint16(15), line)

	sl, err := m.LineForOffset(1, 0x25)
	require.NoError(t, err)
	require.NotNil(t, sl)
	assert.Equal(t, SourceLine{File: "main.c", Line: 12, Offset: 0x20}, *sl)

	sl, err = m.LineForOffset(1, 0x50)
	require.NoError(t, err)
	assert.Nil(t, sl)

	sl, err = m.LineForOffset(2, 0x25)
	require.NoError(t, err)
	assert.Nil(t, sl)
}

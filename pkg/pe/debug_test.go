package pe

import (
	"testing"

	"coffdbg/internal/fixture"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testGUID = [16]byte{
	0x78, 0x56, 0x34, 0x12, 0x34, 0x12, 0x78, 0x56,
	0x9a, 0xbc, 0xde, 0xf0, 0x12, 0x34, 0x56, 0x78,
}

// debugImage places three CodeView records after the debug directory in
// .rdata: RSDS, NB10 and an NB11 blob.
func debugImage(t *testing.T) (*File, int64) {
	t.Helper()
	rsds := fixture.RSDS(testGUID, 2, `C:\build\app.pdb`)
	nb10 := fixture.NB10(0x5f000000, 1, "app.pdb")
	nb11 := fixture.VC50()

	const dirSize = 3 * IMAGE_SIZEOF_DEBUG_DIRECTORY
	rsdsAt := dirSize
	nb10At := rsdsAt + len(rsds)
	nb11At := (nb10At + len(nb10) + 3) &^ 3
	size := nb11At + len(nb11)

	img := twoSectionImage(false)
	img.Sections[1].VirtualSize = uint32(size)
	img.Sections[1].Data = make([]byte, size)
	base := img.RawPointer(1)

	var data fixture.Buffer
	data.Bytes(fixture.DebugDirectoryEntry(IMAGE_DEBUG_TYPE_CODEVIEW, uint32(len(rsds)), 0x2000+uint32(rsdsAt), base+uint32(rsdsAt)))
	data.Bytes(fixture.DebugDirectoryEntry(IMAGE_DEBUG_TYPE_CODEVIEW, uint32(len(nb10)), 0x2000+uint32(nb10At), base+uint32(nb10At)))
	data.Bytes(fixture.DebugDirectoryEntry(IMAGE_DEBUG_TYPE_CODEVIEW, uint32(len(nb11)), 0x2000+uint32(nb11At), base+uint32(nb11At)))
	data.Bytes(rsds).Bytes(nb10).AlignTo(4).Bytes(nb11)
	require.Equal(t, size, data.Len())
	img.Sections[1].Data = data.Data()
	img.Directories[IMAGE_DIRECTORY_ENTRY_DEBUG] = fixture.DataDirectory{VirtualAddress: 0x2000, Size: dirSize}

	f, err := Parse(img.Build())
	require.NoError(t, err)
	return f, int64(base) + int64(nb11At)
}

func TestDebugDirectory(t *testing.T) {
	f, _ := debugImage(t)
	dd, err := f.DebugDirectory()
	require.NoError(t, err)
	require.NotNil(t, dd)
	require.Equal(t, 3, dd.NumEntries())

	e, err := dd.Entry(0)
	require.NoError(t, err)
	assert.Equal(t, "IMAGE_DEBUG_TYPE_CODEVIEW", e.TypeName())
	b, err := e.RawDataByte(0)
	require.NoError(t, err)
	assert.Equal(t, byte('R'), b)
	_, err = e.RawDataByte(int(e.SizeOfData))
	assert.True(t, errors.Is(err, ErrIndexOutOfRange))

	_, err = dd.Entry(3)
	assert.True(t, errors.Is(err, ErrIndexOutOfRange))
}

func TestPDBInfo(t *testing.T) {
	f, _ := debugImage(t)
	dd, err := f.DebugDirectory()
	require.NoError(t, err)

	e, err := dd.Entry(0)
	require.NoError(t, err)
	info, err := e.PDBInfo()
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, "RSDS", info.Signature)
	assert.Equal(t, "12345678-1234-5678-9abc-def012345678", info.GUID.String())
	assert.Equal(t, uint32(2), info.Age)
	assert.Equal(t, `C:\build\app.pdb`, info.Path)
	assert.Equal(t, "12345678123456789ABCDEF0123456782", info.SymbolServerKey())

	e, err = dd.Entry(1)
	require.NoError(t, err)
	info, err = e.PDBInfo()
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, "NB10", info.Signature)
	assert.Equal(t, "app.pdb", info.Path)
	assert.Equal(t, "5F0000001", info.SymbolServerKey())

	e, err = dd.Entry(2)
	require.NoError(t, err)
	info, err = e.PDBInfo()
	require.NoError(t, err)
	assert.Nil(t, info)
}

func TestDebugVC50(t *testing.T) {
	f, nb11 := debugImage(t)

	off, ok, err := f.DebugVC50Offset()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, nb11, off)

	vc, err := f.DebugVC50()
	require.NoError(t, err)
	require.NotNil(t, vc)
	assert.Equal(t, nb11, vc.Offset())
	dir, err := vc.SubsectionDirectory()
	require.NoError(t, err)
	assert.Equal(t, 0, dir.NumEntries())

	dd, err := f.DebugDirectory()
	require.NoError(t, err)
	e, err := dd.Entry(0)
	require.NoError(t, err)
	vc, err = e.DebugVC50()
	require.NoError(t, err)
	assert.Nil(t, vc)
}

func TestDebugDirectoryUnavailable(t *testing.T) {
	img := twoSectionImage(false)
	img.NumberOfRvaAndSizes = 6
	f, err := Parse(img.Build())
	require.NoError(t, err)

	opt, err := f.Header().OptionalHeader()
	require.NoError(t, err)
	dirs, err := opt.DataDirectories()
	require.NoError(t, err)
	assert.Equal(t, 6, dirs.Len())
	_, err = dirs.Debug()
	assert.True(t, errors.Is(err, ErrDirectoryUnavailable))
	imp, err := dirs.ImportTable()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x2010), imp.VirtualAddress)

	dd, err := f.DebugDirectory()
	require.NoError(t, err)
	assert.Nil(t, dd)
}

func TestDebugDirectoryBadSize(t *testing.T) {
	img := twoSectionImage(false)
	img.Directories[IMAGE_DIRECTORY_ENTRY_DEBUG] = fixture.DataDirectory{VirtualAddress: 0x2000, Size: 30}
	f, err := Parse(img.Build())
	require.NoError(t, err)

	_, err = f.DebugDirectory()
	assert.True(t, errors.Is(err, ErrFormat))
}

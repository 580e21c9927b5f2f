package pe

import (
	"testing"

	"coffdbg/internal/fixture"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exportImage(t *testing.T) *File {
	t.Helper()
	edata := fixture.ExportDirectory(0x3000, "test.dll", 5, []fixture.Export{
		{Name: "Alpha", Address: 0x1000},
		{Name: "Beta", Forwarder: "other.Gamma"},
		{Name: "?Gamma@@YAXXZ", Address: 0x1040},
	})
	img := twoSectionImage(false)
	img.Sections = append(img.Sections, fixture.Section{
		Name: ".edata", VirtualAddress: 0x3000, VirtualSize: uint32(len(edata)), Data: edata,
	})
	img.Directories[IMAGE_DIRECTORY_ENTRY_EXPORT] = fixture.DataDirectory{VirtualAddress: 0x3000, Size: uint32(len(edata))}

	f, err := Parse(img.Build())
	require.NoError(t, err)
	return f
}

func exportTable(t *testing.T, f *File) *ExportDirectoryTable {
	t.Helper()
	opt, err := f.Header().OptionalHeader()
	require.NoError(t, err)
	dirs, err := opt.DataDirectories()
	require.NoError(t, err)
	table, err := dirs.ExportDirectoryTable()
	require.NoError(t, err)
	require.NotNil(t, table)
	return table
}

func TestExports(t *testing.T) {
	table := exportTable(t, exportImage(t))

	name, err := table.DLLName()
	require.NoError(t, err)
	assert.Equal(t, "test.dll", name)
	assert.Equal(t, uint32(5), table.Base)
	assert.Equal(t, uint32(3), table.NumberOfNames)

	exports, err := table.Exports()
	require.NoError(t, err)
	require.Len(t, exports, 3)
	assert.Equal(t, Export{Name: "Alpha", Ordinal: 5, Address: 0x1000}, exports[0])
	assert.Equal(t, "Beta", exports[1].Name)
	assert.Equal(t, uint32(6), exports[1].Ordinal)
	assert.Equal(t, "other.Gamma", exports[1].Forwarder)
	assert.Equal(t, "?Gamma@@YAXXZ", exports[2].Name)
	assert.Empty(t, exports[2].Forwarder)
}

func TestExportOrdinalsIndexAddressesDirectly(t *testing.T) {
	table := exportTable(t, exportImage(t))

	ordinal, err := table.ExportOrdinal(2)
	require.NoError(t, err)
	assert.Equal(t, uint16(2), ordinal)

	addr, err := table.ExportAddress(0)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x1000), addr)

	forwarder, err := table.IsExportAddressForwarder(1)
	require.NoError(t, err)
	assert.True(t, forwarder)
	forwarder, err = table.IsExportAddressForwarder(0)
	require.NoError(t, err)
	assert.False(t, forwarder)

	target, err := table.ExportAddressForwarder(1)
	require.NoError(t, err)
	assert.Equal(t, "other.Gamma", target)

	_, err = table.ExportAddress(3)
	assert.True(t, errors.Is(err, ErrIndexOutOfRange))
	_, err = table.ExportName(3)
	assert.True(t, errors.Is(err, ErrIndexOutOfRange))
}

func TestExportDirectoryOutsideSections(t *testing.T) {
	img := twoSectionImage(false)
	img.Directories[IMAGE_DIRECTORY_ENTRY_EXPORT] = fixture.DataDirectory{VirtualAddress: 0x9000, Size: 0x40}
	f, err := Parse(img.Build())
	require.NoError(t, err)

	opt, err := f.Header().OptionalHeader()
	require.NoError(t, err)
	dirs, err := opt.DataDirectories()
	require.NoError(t, err)
	_, err = dirs.ExportDirectoryTable()
	assert.True(t, errors.Is(err, ErrFormat))
}

package report

import (
	"bytes"
	"testing"

	"coffdbg/internal/fixture"
	"coffdbg/pkg/codeview"
	"coffdbg/pkg/pe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func nb11() []byte {
	var module fixture.Buffer
	module.U16(0).U16(0).U16(0).Fixed("CV", 2).Pascal("app.obj")

	var data fixture.Buffer
	data.U32(0x74).U32(0x10).U16(2).Pascal("counter")
	var udt fixture.Buffer
	udt.U32(0x1000).Pascal("point")

	var structure fixture.Buffer
	structure.U16(uint16(codeview.LF_STRUCTURE)).U16(0).U16(0).U32(0).U32(0).U32(0).U16(8).Pascal("point")

	return fixture.VC50(
		fixture.Subsection{Type: uint16(codeview.SST_MODULE), Module: 1, Data: module.Data()},
		fixture.Subsection{
			Type: uint16(codeview.SST_GLOBAL_SYM), Module: codeview.ModuleIndependent,
			Data: fixture.SymbolTable(
				fixture.SymbolRecord(uint16(codeview.S_GDATA32), data.Data()),
				fixture.SymbolRecord(uint16(codeview.S_UDT), udt.Data()),
			),
		},
		fixture.Subsection{
			Type: uint16(codeview.SST_GLOBAL_TYPES), Module: codeview.ModuleIndependent,
			Data: fixture.GlobalTypes(fixture.TypeRecord(structure.Data())),
		},
	)
}

func testImage(t *testing.T) *pe.File {
	t.Helper()
	edata := fixture.ExportDirectory(0x3000, "app.dll", 1, []fixture.Export{
		{Name: "Run", Address: 0x1000},
		{Name: "Stop", Forwarder: "kernel32.ExitProcess"},
	})
	cv := nb11()

	img := &fixture.Image{
		Machine:          pe.IMAGE_FILE_MACHINE_I386,
		Characteristics:  pe.IMAGE_FILE_EXECUTABLE_IMAGE,
		ImageBase:        0x10000000,
		SectionAlignment: 0x1000,
		Sections: []fixture.Section{
			{Name: ".text", VirtualAddress: 0x1000, VirtualSize: 0x10, Characteristics: pe.IMAGE_SCN_CNT_CODE, Data: make([]byte, 0x10)},
			{Name: ".rdata", VirtualAddress: 0x2000, Data: make([]byte, pe.IMAGE_SIZEOF_DEBUG_DIRECTORY+len(cv))},
			{Name: ".edata", VirtualAddress: 0x3000, VirtualSize: uint32(len(edata)), Data: edata},
		},
	}
	rdata := &img.Sections[1]
	rdata.VirtualSize = uint32(len(rdata.Data))
	pointer := img.RawPointer(1) + pe.IMAGE_SIZEOF_DEBUG_DIRECTORY

	var b fixture.Buffer
	b.Bytes(fixture.DebugDirectoryEntry(pe.IMAGE_DEBUG_TYPE_CODEVIEW, uint32(len(cv)), 0x2000+pe.IMAGE_SIZEOF_DEBUG_DIRECTORY, pointer))
	b.Bytes(cv)
	rdata.Data = b.Data()

	img.Directories[pe.IMAGE_DIRECTORY_ENTRY_EXPORT] = fixture.DataDirectory{VirtualAddress: 0x3000, Size: uint32(len(edata))}
	img.Directories[pe.IMAGE_DIRECTORY_ENTRY_DEBUG] = fixture.DataDirectory{VirtualAddress: 0x2000, Size: pe.IMAGE_SIZEOF_DEBUG_DIRECTORY}

	f, err := pe.Parse(img.Build())
	require.NoError(t, err)
	return f
}

func TestBuildHeaders(t *testing.T) {
	r, err := BuildHeaders(testImage(t))
	require.NoError(t, err)

	assert.True(t, r.Image)
	assert.Equal(t, "IMAGE_FILE_MACHINE_I386", r.Machine)
	assert.Contains(t, r.Characteristics, "IMAGE_FILE_EXECUTABLE_IMAGE")
	require.NotNil(t, r.Optional)
	assert.Equal(t, "PE32", r.Optional.Magic)
	assert.Equal(t, uint64(0x10000000), r.Optional.ImageBase)
	require.Len(t, r.Optional.Directories, 2)
	assert.Equal(t, uint32(0x3000), r.Optional.Directories[0].VirtualAddress)

	require.Len(t, r.Sections, 3)
	assert.Equal(t, ".edata", r.Sections[2].Name)
	assert.Contains(t, r.Sections[0].Characteristics, "IMAGE_SCN_CNT_CODE")
}

func TestBuildHeadersObject(t *testing.T) {
	obj := fixture.Object{Machine: pe.IMAGE_FILE_MACHINE_AMD64, Sections: []fixture.Section{{Name: ".text", Data: []byte{0xc3}}}}
	f, err := pe.Parse(obj.Build())
	require.NoError(t, err)

	r, err := BuildHeaders(f)
	require.NoError(t, err)
	assert.False(t, r.Image)
	assert.Nil(t, r.Optional)
	require.Len(t, r.Sections, 1)

	ex, err := BuildExports(f)
	require.NoError(t, err)
	assert.Empty(t, ex.Exports)

	di, err := BuildDebugInfo(f, Limits{MaxSymbols: -1, MaxTypes: -1})
	require.NoError(t, err)
	assert.Empty(t, di.Entries)
	assert.Nil(t, di.CodeView)
}

func TestBuildExports(t *testing.T) {
	r, err := BuildExports(testImage(t))
	require.NoError(t, err)

	assert.Equal(t, "app.dll", r.DLL)
	require.Len(t, r.Exports, 2)
	assert.Equal(t, &Export{Ordinal: 1, Name: "Run", Address: 0x1000}, r.Exports[0])
	forwarders := r.Forwarders()
	require.Len(t, forwarders, 1)
	assert.Equal(t, "kernel32.ExitProcess", forwarders[0].Forwarder)
}

func TestBuildDebugInfo(t *testing.T) {
	r, err := BuildDebugInfo(testImage(t), Limits{MaxSymbols: -1, MaxTypes: -1})
	require.NoError(t, err)

	require.Len(t, r.Entries, 1)
	assert.Equal(t, "IMAGE_DEBUG_TYPE_CODEVIEW", r.Entries[0].Type)
	assert.Nil(t, r.Entries[0].PDB)

	cv := r.CodeView
	require.NotNil(t, cv)
	require.Len(t, cv.Subsections, 3)
	assert.Equal(t, "sstModule", cv.Subsections[0].Type)
	assert.Equal(t, "app.obj", cv.Subsections[0].Detail)
	assert.Equal(t, "1 types", cv.Subsections[2].Detail)

	require.Len(t, cv.Symbols, 2)
	assert.Equal(t, "counter", cv.Symbols[0].Name)
	assert.Equal(t, "sstGlobalSym", cv.Symbols[0].Table)
	assert.Equal(t, "point", cv.Symbols[1].Name)

	require.Len(t, cv.Types, 1)
	assert.Equal(t, &Type{Index: 0x1000, Leaf: "LF_STRUCTURE", Name: "point"}, cv.Types[0])
}

func TestBuildDebugInfoLimits(t *testing.T) {
	r, err := BuildDebugInfo(testImage(t), Limits{MaxSymbols: 1, MaxTypes: 0})
	require.NoError(t, err)
	require.NotNil(t, r.CodeView)
	assert.Len(t, r.CodeView.Symbols, 1)
	assert.Empty(t, r.CodeView.Types)
}

func TestWrite(t *testing.T) {
	r, err := BuildExports(testImage(t))
	require.NoError(t, err)

	var text bytes.Buffer
	require.NoError(t, Write(&text, Text, r))
	assert.Contains(t, text.String(), "app.dll exports 2 names (1 forwarded)")
	assert.Contains(t, text.String(), "Stop -> kernel32.ExitProcess")

	var out bytes.Buffer
	require.NoError(t, Write(&out, YAML, r))
	var decoded Exports
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, r.DLL, decoded.DLL)
	assert.Len(t, decoded.Exports, 2)

	_, err = ParseFormat("json")
	assert.Error(t, err)
	f, err := ParseFormat("yaml")
	require.NoError(t, err)
	assert.Equal(t, YAML, f)
}

package pe

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// File Header
type ImageFileHeader struct {
	Machine              uint16
	NumberOfSections     uint16
	TimeDateStamp        uint32
	PointerToSymbolTable uint32
	NumberOfSymbols      uint32
	SizeOfOptionalHeader uint16
	Characteristics      uint16
}

// Section Header
type ImageSectionHeader struct {
	Name                 [IMAGE_SIZEOF_SHORT_NAME]uint8
	VirtualSize          uint32
	VirtualAddress       uint32
	SizeOfRawData        uint32
	PointerToRawData     uint32
	PointerToRelocations uint32
	PointerToLinenumbers uint32
	NumberOfRelocations  uint16
	NumberOfLinenumbers  uint16
	Characteristics      uint32
}

// Symbol table entry
type ImageSymbol struct {
	ShortName          [8]uint8
	Value              uint32
	SectionNumber      int16
	Type               uint16
	StorageClass       uint8
	NumberOfAuxSymbols uint8
}

type ImageRelocation struct {
	VirtualAddress   uint32
	SymbolTableIndex uint32
	Type             uint16
}

// ImageLinenumber holds a symbol table index when Linenumber is zero and a
// virtual address otherwise.
type ImageLinenumber struct {
	Type       uint32
	Linenumber uint16
}

// Auxiliary symbol records. Each occupies one 18 byte symbol table slot.

type ImageAuxFunctionDefinition struct {
	TagIndex              uint32
	TotalSize             uint32
	PointerToLinenumber   uint32
	PointerToNextFunction uint32
	Unused                [2]uint8
}

type ImageAuxBfEf struct {
	Unused1               uint32
	Linenumber            uint16
	Unused2               [6]uint8
	PointerToNextFunction uint32
	Unused3               [2]uint8
}

type ImageAuxWeakExternal struct {
	TagIndex        uint32
	Characteristics uint32
	Unused          [10]uint8
}

type ImageAuxSectionDefinition struct {
	Length              uint32
	NumberOfRelocations uint16
	NumberOfLinenumbers uint16
	CheckSum            uint32
	Number              uint16
	Selection           uint8
	Unused              [3]uint8
}

// Optional Header, standard fields (after the magic)
type ImageOptionalStandardFields32 struct {
	MajorLinkerVersion      uint8
	MinorLinkerVersion      uint8
	SizeOfCode              uint32
	SizeOfInitializedData   uint32
	SizeOfUninitializedData uint32
	AddressOfEntryPoint     uint32
	BaseOfCode              uint32
	BaseOfData              uint32
}

type ImageOptionalStandardFields64 struct {
	MajorLinkerVersion      uint8
	MinorLinkerVersion      uint8
	SizeOfCode              uint32
	SizeOfInitializedData   uint32
	SizeOfUninitializedData uint32
	AddressOfEntryPoint     uint32
	BaseOfCode              uint32
}

// Optional Header, Windows-specific fields
type ImageOptionalWindowsFields32 struct {
	ImageBase                   uint32
	SectionAlignment            uint32
	FileAlignment               uint32
	MajorOperatingSystemVersion uint16
	MinorOperatingSystemVersion uint16
	MajorImageVersion           uint16
	MinorImageVersion           uint16
	MajorSubsystemVersion       uint16
	MinorSubsystemVersion       uint16
	Reserved1                   uint32
	SizeOfImage                 uint32
	SizeOfHeaders               uint32
	CheckSum                    uint32
	Subsystem                   uint16
	DllCharacteristics          uint16
	SizeOfStackReserve          uint32
	SizeOfStackCommit           uint32
	SizeOfHeapReserve           uint32
	SizeOfHeapCommit            uint32
	LoaderFlags                 uint32
	NumberOfRvaAndSizes         uint32
}

type ImageOptionalWindowsFields64 struct {
	ImageBase                   uint64
	SectionAlignment            uint32
	FileAlignment               uint32
	MajorOperatingSystemVersion uint16
	MinorOperatingSystemVersion uint16
	MajorImageVersion           uint16
	MinorImageVersion           uint16
	MajorSubsystemVersion       uint16
	MinorSubsystemVersion       uint16
	Reserved1                   uint32
	SizeOfImage                 uint32
	SizeOfHeaders               uint32
	CheckSum                    uint32
	Subsystem                   uint16
	DllCharacteristics          uint16
	SizeOfStackReserve          uint64
	SizeOfStackCommit           uint64
	SizeOfHeapReserve           uint64
	SizeOfHeapCommit            uint64
	LoaderFlags                 uint32
	NumberOfRvaAndSizes         uint32
}

// Data Directory
type ImageDataDirectory struct {
	VirtualAddress uint32
	Size           uint32
}

// Export Directory
type ImageExportDirectory struct {
	Characteristics       uint32
	TimeDateStamp         uint32
	MajorVersion          uint16
	MinorVersion          uint16
	Name                  uint32
	Base                  uint32
	NumberOfFunctions     uint32
	NumberOfNames         uint32
	AddressOfFunctions    uint32
	AddressOfNames        uint32
	AddressOfNameOrdinals uint32
}

// Debug Directory
type ImageDebugDirectory struct {
	Characteristics  uint32
	TimeDateStamp    uint32
	MajorVersion     uint16
	MinorVersion     uint16
	Type             uint32
	SizeOfData       uint32
	AddressOfRawData uint32
	PointerToRawData uint32
}

type OMFSignature struct {
	Signature uint32
	Filepos   uint32
}

type CvInfoPdb20 struct {
	CvHeader  OMFSignature
	Signature uint32
	Age       uint32
}

type CvInfoPdb70 struct {
	CvSignature uint32
	Signature   [16]byte
	Age         uint32
}

func structString(fileOffset int64, structName string, iface interface{}) string {
	sType := reflect.TypeOf(iface)
	sValue := reflect.ValueOf(iface)
	values := "[" + structName + "]\n"
	for i := 0; i < sType.NumField(); i++ {
		sField := sType.Field(i)
		vField := sValue.Field(i)
		if !sField.IsExported() {
			continue
		}

		fieldOffset := uint64(fileOffset) + uint64(sField.Offset)
		switch vField.Kind() {
		case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
			reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			values += fmt.Sprintf("0x%-4X\t\t0x%-4X\t%-28s\t0x%X\n",
				fieldOffset, sField.Offset, sField.Name, vField.Interface())
		case reflect.Array, reflect.String:
			values += fmt.Sprintf("0x%-4X\t\t0x%-4X\t%-28s\t%q\n",
				fieldOffset, sField.Offset, sField.Name, fmt.Sprint(vField.Interface()))
		case reflect.Bool:
			values += fmt.Sprintf("0x%-4X\t\t0x%-4X\t%-28s\t%t\n",
				fieldOffset, sField.Offset, sField.Name, vField.Interface())
		}
	}
	return values
}

func flagString(flagMap map[string]bool) string {
	var set []string
	for key, value := range flagMap {
		if value {
			set = append(set, key)
		}
	}
	if len(set) == 0 {
		return "No Flags\n"
	}
	sort.Strings(set)
	return "Flags: " + strings.Join(set, " | ") + "\n"
}

// SetFlags records, for every named flag in charMap, whether all of its bits
// are set in flags.
func SetFlags(flagMap map[string]bool, charMap map[string]uint32, flags uint32) {
	for key, value := range charMap {
		flagMap[key] = (flags & value) == value
	}
}

// FlagNames returns the sorted names of the flags in charMap that are set
// in flags.
func FlagNames(charMap map[string]uint32, flags uint32) []string {
	flagMap := make(map[string]bool)
	SetFlags(flagMap, charMap, flags)
	var names []string
	for name, set := range flagMap {
		if set {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

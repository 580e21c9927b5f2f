package pe

const (
	IMAGE_SIZEOF_FILE_HEADER      = 20
	IMAGE_SIZEOF_SECTION_HEADER   = 40
	IMAGE_SIZEOF_SYMBOL           = 18
	IMAGE_SIZEOF_AUX_SYMBOL       = 18
	IMAGE_SIZEOF_RELOCATION       = 10
	IMAGE_SIZEOF_LINENUMBER       = 6
	IMAGE_SIZEOF_DATA_DIRECTORY   = 8
	IMAGE_SIZEOF_DEBUG_DIRECTORY  = 28
	IMAGE_SIZEOF_EXPORT_DIRECTORY = 40
	IMAGE_SIZEOF_SHORT_NAME       = 8

	IMAGE_NUMBEROF_DIRECTORY_ENTRIES = 16

	// Offset of the pointer to the PE signature in an image.
	IMAGE_PE_POINTER_OFFSET = 0x3c
)

var IMAGE_NT_SIGNATURE = []byte{'P', 'E', 0, 0}

// Optional header magic numbers.
const (
	IMAGE_ROM_OPTIONAL_HDR_MAGIC  = 0x107
	IMAGE_NT_OPTIONAL_HDR32_MAGIC = 0x10b
	IMAGE_NT_OPTIONAL_HDR64_MAGIC = 0x20b
)

// Offsets within the optional header, relative to its magic.
const (
	standardFieldsOffset          = 2
	pe32WindowsFieldsOffset       = 28
	pe32DataDirectoriesOffset     = 96
	pe32PlusWindowsFieldsOffset   = 24
	pe32PlusDataDirectoriesOffset = 112
)

// Data directory indices.
const (
	IMAGE_DIRECTORY_ENTRY_EXPORT         = 0
	IMAGE_DIRECTORY_ENTRY_IMPORT         = 1
	IMAGE_DIRECTORY_ENTRY_RESOURCE       = 2
	IMAGE_DIRECTORY_ENTRY_EXCEPTION      = 3
	IMAGE_DIRECTORY_ENTRY_SECURITY       = 4
	IMAGE_DIRECTORY_ENTRY_BASERELOC      = 5
	IMAGE_DIRECTORY_ENTRY_DEBUG          = 6
	IMAGE_DIRECTORY_ENTRY_ARCHITECTURE   = 7
	IMAGE_DIRECTORY_ENTRY_GLOBALPTR      = 8
	IMAGE_DIRECTORY_ENTRY_TLS            = 9
	IMAGE_DIRECTORY_ENTRY_LOAD_CONFIG    = 10
	IMAGE_DIRECTORY_ENTRY_BOUND_IMPORT   = 11
	IMAGE_DIRECTORY_ENTRY_IAT            = 12
	IMAGE_DIRECTORY_ENTRY_DELAY_IMPORT   = 13
	IMAGE_DIRECTORY_ENTRY_COM_DESCRIPTOR = 14
	IMAGE_DIRECTORY_ENTRY_RESERVED       = 15
)

var DirectoryEntryTypes = map[int]string{
	IMAGE_DIRECTORY_ENTRY_EXPORT:         "IMAGE_DIRECTORY_ENTRY_EXPORT",
	IMAGE_DIRECTORY_ENTRY_IMPORT:         "IMAGE_DIRECTORY_ENTRY_IMPORT",
	IMAGE_DIRECTORY_ENTRY_RESOURCE:       "IMAGE_DIRECTORY_ENTRY_RESOURCE",
	IMAGE_DIRECTORY_ENTRY_EXCEPTION:      "IMAGE_DIRECTORY_ENTRY_EXCEPTION",
	IMAGE_DIRECTORY_ENTRY_SECURITY:       "IMAGE_DIRECTORY_ENTRY_SECURITY",
	IMAGE_DIRECTORY_ENTRY_BASERELOC:      "IMAGE_DIRECTORY_ENTRY_BASERELOC",
	IMAGE_DIRECTORY_ENTRY_DEBUG:          "IMAGE_DIRECTORY_ENTRY_DEBUG",
	IMAGE_DIRECTORY_ENTRY_ARCHITECTURE:   "IMAGE_DIRECTORY_ENTRY_ARCHITECTURE",
	IMAGE_DIRECTORY_ENTRY_GLOBALPTR:      "IMAGE_DIRECTORY_ENTRY_GLOBALPTR",
	IMAGE_DIRECTORY_ENTRY_TLS:            "IMAGE_DIRECTORY_ENTRY_TLS",
	IMAGE_DIRECTORY_ENTRY_LOAD_CONFIG:    "IMAGE_DIRECTORY_ENTRY_LOAD_CONFIG",
	IMAGE_DIRECTORY_ENTRY_BOUND_IMPORT:   "IMAGE_DIRECTORY_ENTRY_BOUND_IMPORT",
	IMAGE_DIRECTORY_ENTRY_IAT:            "IMAGE_DIRECTORY_ENTRY_IAT",
	IMAGE_DIRECTORY_ENTRY_DELAY_IMPORT:   "IMAGE_DIRECTORY_ENTRY_DELAY_IMPORT",
	IMAGE_DIRECTORY_ENTRY_COM_DESCRIPTOR: "IMAGE_DIRECTORY_ENTRY_COM_DESCRIPTOR",
	IMAGE_DIRECTORY_ENTRY_RESERVED:       "IMAGE_DIRECTORY_ENTRY_RESERVED",
}

// Machine types.
const (
	IMAGE_FILE_MACHINE_UNKNOWN = 0x0
	IMAGE_FILE_MACHINE_I386    = 0x14c
	IMAGE_FILE_MACHINE_R4000   = 0x166
	IMAGE_FILE_MACHINE_ALPHA   = 0x184
	IMAGE_FILE_MACHINE_ARM     = 0x1c0
	IMAGE_FILE_MACHINE_ARMNT   = 0x1c4
	IMAGE_FILE_MACHINE_IA64    = 0x200
	IMAGE_FILE_MACHINE_AMD64   = 0x8664
	IMAGE_FILE_MACHINE_ARM64   = 0xaa64
)

var MachineTypes = map[uint16]string{
	IMAGE_FILE_MACHINE_UNKNOWN: "IMAGE_FILE_MACHINE_UNKNOWN",
	IMAGE_FILE_MACHINE_I386:    "IMAGE_FILE_MACHINE_I386",
	IMAGE_FILE_MACHINE_R4000:   "IMAGE_FILE_MACHINE_R4000",
	IMAGE_FILE_MACHINE_ALPHA:   "IMAGE_FILE_MACHINE_ALPHA",
	IMAGE_FILE_MACHINE_ARM:     "IMAGE_FILE_MACHINE_ARM",
	IMAGE_FILE_MACHINE_ARMNT:   "IMAGE_FILE_MACHINE_ARMNT",
	IMAGE_FILE_MACHINE_IA64:    "IMAGE_FILE_MACHINE_IA64",
	IMAGE_FILE_MACHINE_AMD64:   "IMAGE_FILE_MACHINE_AMD64",
	IMAGE_FILE_MACHINE_ARM64:   "IMAGE_FILE_MACHINE_ARM64",
}

// File header characteristics.
const (
	IMAGE_FILE_RELOCS_STRIPPED         = 0x0001
	IMAGE_FILE_EXECUTABLE_IMAGE        = 0x0002
	IMAGE_FILE_LINE_NUMS_STRIPPED      = 0x0004
	IMAGE_FILE_LOCAL_SYMS_STRIPPED     = 0x0008
	IMAGE_FILE_AGGRESIVE_WS_TRIM       = 0x0010
	IMAGE_FILE_LARGE_ADDRESS_AWARE     = 0x0020
	IMAGE_FILE_BYTES_REVERSED_LO       = 0x0080
	IMAGE_FILE_32BIT_MACHINE           = 0x0100
	IMAGE_FILE_DEBUG_STRIPPED          = 0x0200
	IMAGE_FILE_REMOVABLE_RUN_FROM_SWAP = 0x0400
	IMAGE_FILE_NET_RUN_FROM_SWAP       = 0x0800
	IMAGE_FILE_SYSTEM                  = 0x1000
	IMAGE_FILE_DLL                     = 0x2000
	IMAGE_FILE_UP_SYSTEM_ONLY          = 0x4000
	IMAGE_FILE_BYTES_REVERSED_HI       = 0x8000
)

var ImageCharacteristics = map[string]uint32{
	"IMAGE_FILE_RELOCS_STRIPPED":         IMAGE_FILE_RELOCS_STRIPPED,
	"IMAGE_FILE_EXECUTABLE_IMAGE":        IMAGE_FILE_EXECUTABLE_IMAGE,
	"IMAGE_FILE_LINE_NUMS_STRIPPED":      IMAGE_FILE_LINE_NUMS_STRIPPED,
	"IMAGE_FILE_LOCAL_SYMS_STRIPPED":     IMAGE_FILE_LOCAL_SYMS_STRIPPED,
	"IMAGE_FILE_AGGRESIVE_WS_TRIM":       IMAGE_FILE_AGGRESIVE_WS_TRIM,
	"IMAGE_FILE_LARGE_ADDRESS_AWARE":     IMAGE_FILE_LARGE_ADDRESS_AWARE,
	"IMAGE_FILE_BYTES_REVERSED_LO":       IMAGE_FILE_BYTES_REVERSED_LO,
	"IMAGE_FILE_32BIT_MACHINE":           IMAGE_FILE_32BIT_MACHINE,
	"IMAGE_FILE_DEBUG_STRIPPED":          IMAGE_FILE_DEBUG_STRIPPED,
	"IMAGE_FILE_REMOVABLE_RUN_FROM_SWAP": IMAGE_FILE_REMOVABLE_RUN_FROM_SWAP,
	"IMAGE_FILE_NET_RUN_FROM_SWAP":       IMAGE_FILE_NET_RUN_FROM_SWAP,
	"IMAGE_FILE_SYSTEM":                  IMAGE_FILE_SYSTEM,
	"IMAGE_FILE_DLL":                     IMAGE_FILE_DLL,
	"IMAGE_FILE_UP_SYSTEM_ONLY":          IMAGE_FILE_UP_SYSTEM_ONLY,
	"IMAGE_FILE_BYTES_REVERSED_HI":       IMAGE_FILE_BYTES_REVERSED_HI,
}

// DLL characteristics.
const (
	IMAGE_DLLCHARACTERISTICS_HIGH_ENTROPY_VA       = 0x0020
	IMAGE_DLLCHARACTERISTICS_DYNAMIC_BASE          = 0x0040
	IMAGE_DLLCHARACTERISTICS_FORCE_INTEGRITY       = 0x0080
	IMAGE_DLLCHARACTERISTICS_NX_COMPAT             = 0x0100
	IMAGE_DLLCHARACTERISTICS_NO_ISOLATION          = 0x0200
	IMAGE_DLLCHARACTERISTICS_NO_SEH                = 0x0400
	IMAGE_DLLCHARACTERISTICS_NO_BIND               = 0x0800
	IMAGE_DLLCHARACTERISTICS_APPCONTAINER          = 0x1000
	IMAGE_DLLCHARACTERISTICS_WDM_DRIVER            = 0x2000
	IMAGE_DLLCHARACTERISTICS_GUARD_CF              = 0x4000
	IMAGE_DLLCHARACTERISTICS_TERMINAL_SERVER_AWARE = 0x8000
)

var DllCharacteristics = map[string]uint32{
	"IMAGE_DLLCHARACTERISTICS_HIGH_ENTROPY_VA":       IMAGE_DLLCHARACTERISTICS_HIGH_ENTROPY_VA,
	"IMAGE_DLLCHARACTERISTICS_DYNAMIC_BASE":          IMAGE_DLLCHARACTERISTICS_DYNAMIC_BASE,
	"IMAGE_DLLCHARACTERISTICS_FORCE_INTEGRITY":       IMAGE_DLLCHARACTERISTICS_FORCE_INTEGRITY,
	"IMAGE_DLLCHARACTERISTICS_NX_COMPAT":             IMAGE_DLLCHARACTERISTICS_NX_COMPAT,
	"IMAGE_DLLCHARACTERISTICS_NO_ISOLATION":          IMAGE_DLLCHARACTERISTICS_NO_ISOLATION,
	"IMAGE_DLLCHARACTERISTICS_NO_SEH":                IMAGE_DLLCHARACTERISTICS_NO_SEH,
	"IMAGE_DLLCHARACTERISTICS_NO_BIND":               IMAGE_DLLCHARACTERISTICS_NO_BIND,
	"IMAGE_DLLCHARACTERISTICS_APPCONTAINER":          IMAGE_DLLCHARACTERISTICS_APPCONTAINER,
	"IMAGE_DLLCHARACTERISTICS_WDM_DRIVER":            IMAGE_DLLCHARACTERISTICS_WDM_DRIVER,
	"IMAGE_DLLCHARACTERISTICS_GUARD_CF":              IMAGE_DLLCHARACTERISTICS_GUARD_CF,
	"IMAGE_DLLCHARACTERISTICS_TERMINAL_SERVER_AWARE": IMAGE_DLLCHARACTERISTICS_TERMINAL_SERVER_AWARE,
}

// Subsystems.
const (
	IMAGE_SUBSYSTEM_UNKNOWN                  = 0
	IMAGE_SUBSYSTEM_NATIVE                   = 1
	IMAGE_SUBSYSTEM_WINDOWS_GUI              = 2
	IMAGE_SUBSYSTEM_WINDOWS_CUI              = 3
	IMAGE_SUBSYSTEM_POSIX_CUI                = 7
	IMAGE_SUBSYSTEM_WINDOWS_CE_GUI           = 9
	IMAGE_SUBSYSTEM_EFI_APPLICATION          = 10
	IMAGE_SUBSYSTEM_EFI_BOOT_SERVICE_DRIVER  = 11
	IMAGE_SUBSYSTEM_EFI_RUNTIME_DRIVER       = 12
	IMAGE_SUBSYSTEM_EFI_ROM                  = 13
	IMAGE_SUBSYSTEM_XBOX                     = 14
	IMAGE_SUBSYSTEM_WINDOWS_BOOT_APPLICATION = 16
)

// Section characteristics.
const (
	IMAGE_SCN_TYPE_NO_PAD            = 0x00000008
	IMAGE_SCN_CNT_CODE               = 0x00000020
	IMAGE_SCN_CNT_INITIALIZED_DATA   = 0x00000040
	IMAGE_SCN_CNT_UNINITIALIZED_DATA = 0x00000080
	IMAGE_SCN_LNK_OTHER              = 0x00000100
	IMAGE_SCN_LNK_INFO               = 0x00000200
	IMAGE_SCN_LNK_REMOVE             = 0x00000800
	IMAGE_SCN_LNK_COMDAT             = 0x00001000
	IMAGE_SCN_GPREL                  = 0x00008000
	IMAGE_SCN_ALIGN_1BYTES           = 0x00100000
	IMAGE_SCN_ALIGN_16BYTES          = 0x00500000
	IMAGE_SCN_LNK_NRELOC_OVFL        = 0x01000000
	IMAGE_SCN_MEM_DISCARDABLE        = 0x02000000
	IMAGE_SCN_MEM_NOT_CACHED         = 0x04000000
	IMAGE_SCN_MEM_NOT_PAGED          = 0x08000000
	IMAGE_SCN_MEM_SHARED             = 0x10000000
	IMAGE_SCN_MEM_EXECUTE            = 0x20000000
	IMAGE_SCN_MEM_READ               = 0x40000000
	IMAGE_SCN_MEM_WRITE              = 0x80000000
)

var SectionCharacteristics = map[string]uint32{
	"IMAGE_SCN_TYPE_NO_PAD":            IMAGE_SCN_TYPE_NO_PAD,
	"IMAGE_SCN_CNT_CODE":               IMAGE_SCN_CNT_CODE,
	"IMAGE_SCN_CNT_INITIALIZED_DATA":   IMAGE_SCN_CNT_INITIALIZED_DATA,
	"IMAGE_SCN_CNT_UNINITIALIZED_DATA": IMAGE_SCN_CNT_UNINITIALIZED_DATA,
	"IMAGE_SCN_LNK_OTHER":              IMAGE_SCN_LNK_OTHER,
	"IMAGE_SCN_LNK_INFO":               IMAGE_SCN_LNK_INFO,
	"IMAGE_SCN_LNK_REMOVE":             IMAGE_SCN_LNK_REMOVE,
	"IMAGE_SCN_LNK_COMDAT":             IMAGE_SCN_LNK_COMDAT,
	"IMAGE_SCN_GPREL":                  IMAGE_SCN_GPREL,
	"IMAGE_SCN_LNK_NRELOC_OVFL":        IMAGE_SCN_LNK_NRELOC_OVFL,
	"IMAGE_SCN_MEM_DISCARDABLE":        IMAGE_SCN_MEM_DISCARDABLE,
	"IMAGE_SCN_MEM_NOT_CACHED":         IMAGE_SCN_MEM_NOT_CACHED,
	"IMAGE_SCN_MEM_NOT_PAGED":          IMAGE_SCN_MEM_NOT_PAGED,
	"IMAGE_SCN_MEM_SHARED":             IMAGE_SCN_MEM_SHARED,
	"IMAGE_SCN_MEM_EXECUTE":            IMAGE_SCN_MEM_EXECUTE,
	"IMAGE_SCN_MEM_READ":               IMAGE_SCN_MEM_READ,
	"IMAGE_SCN_MEM_WRITE":              IMAGE_SCN_MEM_WRITE,
}

// Special section numbers.
const (
	IMAGE_SYM_UNDEFINED = 0
	IMAGE_SYM_ABSOLUTE  = -1
	IMAGE_SYM_DEBUG     = -2
)

// Symbol base and complex types. The complex type occupies bits 4 and 5 of
// the type field.
const (
	IMAGE_SYM_TYPE_NULL      = 0
	IMAGE_SYM_DTYPE_NULL     = 0
	IMAGE_SYM_DTYPE_POINTER  = 1
	IMAGE_SYM_DTYPE_FUNCTION = 2
	IMAGE_SYM_DTYPE_ARRAY    = 3

	N_BTSHFT = 4
	N_TMASK  = 0x30
)

// Storage classes.
const (
	IMAGE_SYM_CLASS_END_OF_FUNCTION  = 0xff
	IMAGE_SYM_CLASS_NULL             = 0
	IMAGE_SYM_CLASS_AUTOMATIC        = 1
	IMAGE_SYM_CLASS_EXTERNAL         = 2
	IMAGE_SYM_CLASS_STATIC           = 3
	IMAGE_SYM_CLASS_REGISTER         = 4
	IMAGE_SYM_CLASS_EXTERNAL_DEF     = 5
	IMAGE_SYM_CLASS_LABEL            = 6
	IMAGE_SYM_CLASS_UNDEFINED_LABEL  = 7
	IMAGE_SYM_CLASS_MEMBER_OF_STRUCT = 8
	IMAGE_SYM_CLASS_ARGUMENT         = 9
	IMAGE_SYM_CLASS_STRUCT_TAG       = 10
	IMAGE_SYM_CLASS_MEMBER_OF_UNION  = 11
	IMAGE_SYM_CLASS_UNION_TAG        = 12
	IMAGE_SYM_CLASS_TYPE_DEFINITION  = 13
	IMAGE_SYM_CLASS_UNDEFINED_STATIC = 14
	IMAGE_SYM_CLASS_ENUM_TAG         = 15
	IMAGE_SYM_CLASS_MEMBER_OF_ENUM   = 16
	IMAGE_SYM_CLASS_REGISTER_PARAM   = 17
	IMAGE_SYM_CLASS_BIT_FIELD        = 18
	IMAGE_SYM_CLASS_BLOCK            = 100
	IMAGE_SYM_CLASS_FUNCTION         = 101
	IMAGE_SYM_CLASS_END_OF_STRUCT    = 102
	IMAGE_SYM_CLASS_FILE             = 103
	IMAGE_SYM_CLASS_SECTION          = 104
	IMAGE_SYM_CLASS_WEAK_EXTERNAL    = 105
	IMAGE_SYM_CLASS_CLR_TOKEN        = 107
)

// Weak external search characteristics.
const (
	IMAGE_WEAK_EXTERN_SEARCH_NOLIBRARY = 1
	IMAGE_WEAK_EXTERN_SEARCH_LIBRARY   = 2
	IMAGE_WEAK_EXTERN_SEARCH_ALIAS     = 3
)

// COMDAT selection values.
const (
	IMAGE_COMDAT_SELECT_NODUPLICATES = 1
	IMAGE_COMDAT_SELECT_ANY          = 2
	IMAGE_COMDAT_SELECT_SAME_SIZE    = 3
	IMAGE_COMDAT_SELECT_EXACT_MATCH  = 4
	IMAGE_COMDAT_SELECT_ASSOCIATIVE  = 5
	IMAGE_COMDAT_SELECT_LARGEST      = 6
)

// Debug types.
const (
	IMAGE_DEBUG_TYPE_UNKNOWN       = 0
	IMAGE_DEBUG_TYPE_COFF          = 1
	IMAGE_DEBUG_TYPE_CODEVIEW      = 2
	IMAGE_DEBUG_TYPE_FPO           = 3
	IMAGE_DEBUG_TYPE_MISC          = 4
	IMAGE_DEBUG_TYPE_EXCEPTION     = 5
	IMAGE_DEBUG_TYPE_FIXUP         = 6
	IMAGE_DEBUG_TYPE_OMAP_TO_SRC   = 7
	IMAGE_DEBUG_TYPE_OMAP_FROM_SRC = 8
	IMAGE_DEBUG_TYPE_BORLAND       = 9
	IMAGE_DEBUG_TYPE_RESERVED10    = 10
	IMAGE_DEBUG_TYPE_CLSID         = 11
	IMAGE_DEBUG_TYPE_REPRO         = 16
)

var DebugTypes = map[uint32]string{
	IMAGE_DEBUG_TYPE_UNKNOWN:       "IMAGE_DEBUG_TYPE_UNKNOWN",
	IMAGE_DEBUG_TYPE_COFF:          "IMAGE_DEBUG_TYPE_COFF",
	IMAGE_DEBUG_TYPE_CODEVIEW:      "IMAGE_DEBUG_TYPE_CODEVIEW",
	IMAGE_DEBUG_TYPE_FPO:           "IMAGE_DEBUG_TYPE_FPO",
	IMAGE_DEBUG_TYPE_MISC:          "IMAGE_DEBUG_TYPE_MISC",
	IMAGE_DEBUG_TYPE_EXCEPTION:     "IMAGE_DEBUG_TYPE_EXCEPTION",
	IMAGE_DEBUG_TYPE_FIXUP:         "IMAGE_DEBUG_TYPE_FIXUP",
	IMAGE_DEBUG_TYPE_OMAP_TO_SRC:   "IMAGE_DEBUG_TYPE_OMAP_TO_SRC",
	IMAGE_DEBUG_TYPE_OMAP_FROM_SRC: "IMAGE_DEBUG_TYPE_OMAP_FROM_SRC",
	IMAGE_DEBUG_TYPE_BORLAND:       "IMAGE_DEBUG_TYPE_BORLAND",
	IMAGE_DEBUG_TYPE_RESERVED10:    "IMAGE_DEBUG_TYPE_RESERVED10",
	IMAGE_DEBUG_TYPE_CLSID:         "IMAGE_DEBUG_TYPE_CLSID",
	IMAGE_DEBUG_TYPE_REPRO:         "IMAGE_DEBUG_TYPE_REPRO",
}

// CodeView signatures found at the start of CODEVIEW debug data.
const (
	CV_PDB_20_SIGNATURE = 0x3031424e // "NB10"
	CV_PDB_70_SIGNATURE = 0x53445352 // "RSDS"
	CV_NB11_SIGNATURE   = 0x3131424e // "NB11"
)

package codeview

import "fmt"

// LeafType is the tag of a type string leaf or numeric leaf.
type LeafType uint16

// Leaves that start type records.
const (
	LF_MODIFIER   LeafType = 0x1001
	LF_POINTER    LeafType = 0x1002
	LF_ARRAY      LeafType = 0x1003
	LF_CLASS      LeafType = 0x1004
	LF_STRUCTURE  LeafType = 0x1005
	LF_UNION      LeafType = 0x1006
	LF_ENUM       LeafType = 0x1007
	LF_PROCEDURE  LeafType = 0x1008
	LF_MFUNCTION  LeafType = 0x1009
	LF_VTSHAPE    LeafType = 0x000a
	LF_COBOL0     LeafType = 0x100a
	LF_COBOL1     LeafType = 0x000c
	LF_BARRAY     LeafType = 0x100b
	LF_LABEL      LeafType = 0x000e
	LF_NULL       LeafType = 0x000f
	LF_NOTTRAN    LeafType = 0x0010
	LF_DIMARRAY   LeafType = 0x100c
	LF_VFTPATH    LeafType = 0x100d
	LF_PRECOMP    LeafType = 0x100e
	LF_ENDPRECOMP LeafType = 0x0014
	LF_OEM        LeafType = 0x100f
	LF_TYPESERVER LeafType = 0x0016
)

// Leaves referenced from other type records.
const (
	LF_SKIP       LeafType = 0x1200
	LF_ARGLIST    LeafType = 0x1201
	LF_DEFARG     LeafType = 0x1202
	LF_FIELDLIST  LeafType = 0x1203
	LF_DERIVED    LeafType = 0x1204
	LF_BITFIELD   LeafType = 0x1205
	LF_METHODLIST LeafType = 0x1206
	LF_DIMCONU    LeafType = 0x1207
	LF_DIMCONLU   LeafType = 0x1208
	LF_DIMVARU    LeafType = 0x1209
	LF_DIMVARLU   LeafType = 0x120a
	LF_REFSYM     LeafType = 0x020c
)

// Field list leaves.
const (
	LF_BCLASS       LeafType = 0x1400
	LF_VBCLASS      LeafType = 0x1401
	LF_IVBCLASS     LeafType = 0x1402
	LF_ENUMERATE    LeafType = 0x0403
	LF_FRIENDFCN    LeafType = 0x1403
	LF_INDEX        LeafType = 0x1404
	LF_MEMBER       LeafType = 0x1405
	LF_STMEMBER     LeafType = 0x1406
	LF_METHOD       LeafType = 0x1407
	LF_NESTTYPE     LeafType = 0x1408
	LF_VFUNCTAB     LeafType = 0x1409
	LF_FRIENDCLS    LeafType = 0x140a
	LF_ONEMETHOD    LeafType = 0x140b
	LF_VFUNCOFF     LeafType = 0x140c
	LF_NESTTYPEEX   LeafType = 0x140d
	LF_MEMBERMODIFY LeafType = 0x140e
)

// Numeric leaves. A tag below LF_NUMERIC is itself the value.
const (
	LF_NUMERIC    LeafType = 0x8000
	LF_CHAR       LeafType = 0x8000
	LF_SHORT      LeafType = 0x8001
	LF_USHORT     LeafType = 0x8002
	LF_LONG       LeafType = 0x8003
	LF_ULONG      LeafType = 0x8004
	LF_REAL32     LeafType = 0x8005
	LF_REAL64     LeafType = 0x8006
	LF_REAL80     LeafType = 0x8007
	LF_REAL128    LeafType = 0x8008
	LF_QUADWORD   LeafType = 0x8009
	LF_UQUADWORD  LeafType = 0x800a
	LF_REAL48     LeafType = 0x800b
	LF_COMPLEX32  LeafType = 0x800c
	LF_COMPLEX64  LeafType = 0x800d
	LF_COMPLEX80  LeafType = 0x800e
	LF_COMPLEX128 LeafType = 0x800f
	LF_VARSTRING  LeafType = 0x8010
)

// Single byte padding leaves. LF_PADn skips n bytes.
const (
	LF_PAD0  LeafType = 0xf0
	LF_PAD15 LeafType = 0xff
)

var leafNames = map[LeafType]string{
	LF_MODIFIER: "LF_MODIFIER", LF_POINTER: "LF_POINTER", LF_ARRAY: "LF_ARRAY",
	LF_CLASS: "LF_CLASS", LF_STRUCTURE: "LF_STRUCTURE", LF_UNION: "LF_UNION",
	LF_ENUM: "LF_ENUM", LF_PROCEDURE: "LF_PROCEDURE", LF_MFUNCTION: "LF_MFUNCTION",
	LF_VTSHAPE: "LF_VTSHAPE", LF_COBOL0: "LF_COBOL0", LF_COBOL1: "LF_COBOL1",
	LF_BARRAY: "LF_BARRAY", LF_LABEL: "LF_LABEL", LF_NULL: "LF_NULL",
	LF_NOTTRAN: "LF_NOTTRAN", LF_DIMARRAY: "LF_DIMARRAY", LF_VFTPATH: "LF_VFTPATH",
	LF_PRECOMP: "LF_PRECOMP", LF_ENDPRECOMP: "LF_ENDPRECOMP", LF_OEM: "LF_OEM",
	LF_TYPESERVER: "LF_TYPESERVER",

	LF_SKIP: "LF_SKIP", LF_ARGLIST: "LF_ARGLIST", LF_DEFARG: "LF_DEFARG",
	LF_FIELDLIST: "LF_FIELDLIST", LF_DERIVED: "LF_DERIVED", LF_BITFIELD: "LF_BITFIELD",
	LF_METHODLIST: "LF_METHODLIST", LF_DIMCONU: "LF_DIMCONU", LF_DIMCONLU: "LF_DIMCONLU",
	LF_DIMVARU: "LF_DIMVARU", LF_DIMVARLU: "LF_DIMVARLU", LF_REFSYM: "LF_REFSYM",

	LF_BCLASS: "LF_BCLASS", LF_VBCLASS: "LF_VBCLASS", LF_IVBCLASS: "LF_IVBCLASS",
	LF_ENUMERATE: "LF_ENUMERATE", LF_FRIENDFCN: "LF_FRIENDFCN", LF_INDEX: "LF_INDEX",
	LF_MEMBER: "LF_MEMBER", LF_STMEMBER: "LF_STMEMBER", LF_METHOD: "LF_METHOD",
	LF_NESTTYPE: "LF_NESTTYPE", LF_VFUNCTAB: "LF_VFUNCTAB", LF_FRIENDCLS: "LF_FRIENDCLS",
	LF_ONEMETHOD: "LF_ONEMETHOD", LF_VFUNCOFF: "LF_VFUNCOFF", LF_NESTTYPEEX: "LF_NESTTYPEEX",
	LF_MEMBERMODIFY: "LF_MEMBERMODIFY",

	LF_CHAR: "LF_CHAR", LF_SHORT: "LF_SHORT", LF_USHORT: "LF_USHORT",
	LF_LONG: "LF_LONG", LF_ULONG: "LF_ULONG", LF_REAL32: "LF_REAL32",
	LF_REAL64: "LF_REAL64", LF_REAL80: "LF_REAL80", LF_REAL128: "LF_REAL128",
	LF_QUADWORD: "LF_QUADWORD", LF_UQUADWORD: "LF_UQUADWORD", LF_REAL48: "LF_REAL48",
	LF_COMPLEX32: "LF_COMPLEX32", LF_COMPLEX64: "LF_COMPLEX64", LF_COMPLEX80: "LF_COMPLEX80",
	LF_COMPLEX128: "LF_COMPLEX128", LF_VARSTRING: "LF_VARSTRING",
}

func (l LeafType) String() string {
	if l >= LF_PAD0 && l <= LF_PAD15 {
		return fmt.Sprintf("LF_PAD%d", l-LF_PAD0)
	}
	if name, ok := leafNames[l]; ok {
		return name
	}
	return fmt.Sprintf("leaf(0x%x)", uint16(l))
}

// Member attribute bits of field list leaves.
const (
	MEMATTR_ACCESS_MASK    = 0x0003
	MEMATTR_ACCESS_NO      = 0
	MEMATTR_ACCESS_PRIVATE = 1
	MEMATTR_ACCESS_PROTECT = 2
	MEMATTR_ACCESS_PUBLIC  = 3

	MEMATTR_MPROP_MASK                     = 0x001c
	MEMATTR_MPROP_VANILLA                  = 0x0000
	MEMATTR_MPROP_VIRTUAL                  = 0x0004
	MEMATTR_MPROP_STATIC                   = 0x0008
	MEMATTR_MPROP_FRIEND                   = 0x000c
	MEMATTR_MPROP_INTRODUCING_VIRTUAL      = 0x0010
	MEMATTR_MPROP_PURE_VIRTUAL             = 0x0014
	MEMATTR_MPROP_PURE_INTRODUCING_VIRTUAL = 0x0018

	MEMATTR_PSEUDO      = 0x0020
	MEMATTR_NOINHERIT   = 0x0040
	MEMATTR_NOCONSTRUCT = 0x0080
)

// LF_POINTER attribute fields.
const (
	POINTER_PTRTYPE_MASK  = 0x0000001f
	POINTER_PTRTYPE_SHIFT = 0

	POINTER_PTRTYPE_NEAR                               = 0
	POINTER_PTRTYPE_FAR                                = 1
	POINTER_PTRTYPE_HUGE                               = 2
	POINTER_PTRTYPE_BASED_ON_SEGMENT                   = 3
	POINTER_PTRTYPE_BASED_ON_VALUE                     = 4
	POINTER_PTRTYPE_BASED_ON_SEGMENT_OF_VALUE          = 5
	POINTER_PTRTYPE_BASED_ON_ADDRESS_OF_SYMBOL         = 6
	POINTER_PTRTYPE_BASED_ON_SEGMENT_OF_SYMBOL_ADDRESS = 7
	POINTER_PTRTYPE_BASED_ON_TYPE                      = 8
	POINTER_PTRTYPE_BASED_ON_SELF                      = 9
	POINTER_PTRTYPE_NEAR32                             = 10
	POINTER_PTRTYPE_FAR32                              = 11
	POINTER_PTRTYPE_64                                 = 12

	POINTER_PTRMODE_MASK  = 0x000000e0
	POINTER_PTRMODE_SHIFT = 5

	POINTER_PTRMODE_POINTER            = 0
	POINTER_PTRMODE_REFERENCE          = 1
	POINTER_PTRMODE_PTR_TO_DATA_MEMBER = 2
	POINTER_PTRMODE_PTR_TO_METHOD      = 3

	POINTER_IS_FLAT_32 = 0x00000100
	POINTER_VOLATILE   = 0x00000200
	POINTER_CONST      = 0x00000400
	POINTER_UNALIGNED  = 0x00000800
	POINTER_RESTRICT   = 0x00001000
)

// Class, structure, union and enum property bits.
const (
	PROPERTY_PACKED   = 0x0001
	PROPERTY_CTOR     = 0x0002
	PROPERTY_OVEROPS  = 0x0004
	PROPERTY_ISNESTED = 0x0008
	PROPERTY_CNESTED  = 0x0010
	PROPERTY_OPASSIGN = 0x0020
	PROPERTY_OPCAST   = 0x0040
	PROPERTY_FWDREF   = 0x0080
	PROPERTY_SCOPED   = 0x0100
)

// Type indices below TypeIndexBias name primitive types; records of
// sstGlobalTypes are numbered from it.
const TypeIndexBias = 0x1000

package codeview

import "fmt"

// SymbolType is the type tag of a symbol record.
type SymbolType uint16

const (
	S_COMPILE   SymbolType = 0x0001
	S_REGISTER  SymbolType = 0x1001
	S_CONSTANT  SymbolType = 0x1002
	S_UDT       SymbolType = 0x1003
	S_SSEARCH   SymbolType = 0x0005
	S_END       SymbolType = 0x0006
	S_SKIP      SymbolType = 0x0007
	S_CVRESERVE SymbolType = 0x0008
	S_OBJNAME   SymbolType = 0x0009
	S_ENDARG    SymbolType = 0x000a
	S_COBOLUDT  SymbolType = 0x1004
	S_MANYREG   SymbolType = 0x1005
	S_RETURN    SymbolType = 0x000d
	S_ENTRYTHIS SymbolType = 0x000e

	// 16:32 segmented and 32-bit flat symbols.
	S_BPREL32    SymbolType = 0x1006
	S_LDATA32    SymbolType = 0x1007
	S_GDATA32    SymbolType = 0x1008
	S_PUB32      SymbolType = 0x1009
	S_LPROC32    SymbolType = 0x100a
	S_GPROC32    SymbolType = 0x100b
	S_THUNK32    SymbolType = 0x0206
	S_BLOCK32    SymbolType = 0x0207
	S_WITH32     SymbolType = 0x0208
	S_LABEL32    SymbolType = 0x0209
	S_CEXMODEL32 SymbolType = 0x020a
	S_VFTTABLE32 SymbolType = 0x100c
	S_REGREL32   SymbolType = 0x100d
	S_LTHREAD32  SymbolType = 0x100e
	S_GTHREAD32  SymbolType = 0x100f

	S_LPROCMIPS SymbolType = 0x1010
	S_GPROCMIPS SymbolType = 0x1011

	// Global symbol table references.
	S_PROCREF SymbolType = 0x0400
	S_DATAREF SymbolType = 0x0401
	S_ALIGN   SymbolType = 0x0402
)

var symbolNames = map[SymbolType]string{
	S_COMPILE:    "S_COMPILE",
	S_REGISTER:   "S_REGISTER",
	S_CONSTANT:   "S_CONSTANT",
	S_UDT:        "S_UDT",
	S_SSEARCH:    "S_SSEARCH",
	S_END:        "S_END",
	S_SKIP:       "S_SKIP",
	S_CVRESERVE:  "S_CVRESERVE",
	S_OBJNAME:    "S_OBJNAME",
	S_ENDARG:     "S_ENDARG",
	S_COBOLUDT:   "S_COBOLUDT",
	S_MANYREG:    "S_MANYREG",
	S_RETURN:     "S_RETURN",
	S_ENTRYTHIS:  "S_ENTRYTHIS",
	S_BPREL32:    "S_BPREL32",
	S_LDATA32:    "S_LDATA32",
	S_GDATA32:    "S_GDATA32",
	S_PUB32:      "S_PUB32",
	S_LPROC32:    "S_LPROC32",
	S_GPROC32:    "S_GPROC32",
	S_THUNK32:    "S_THUNK32",
	S_BLOCK32:    "S_BLOCK32",
	S_WITH32:     "S_WITH32",
	S_LABEL32:    "S_LABEL32",
	S_CEXMODEL32: "S_CEXMODEL32",
	S_VFTTABLE32: "S_VFTTABLE32",
	S_REGREL32:   "S_REGREL32",
	S_LTHREAD32:  "S_LTHREAD32",
	S_GTHREAD32:  "S_GTHREAD32",
	S_LPROCMIPS:  "S_LPROCMIPS",
	S_GPROCMIPS:  "S_GPROCMIPS",
	S_PROCREF:    "S_PROCREF",
	S_DATAREF:    "S_DATAREF",
	S_ALIGN:      "S_ALIGN",
}

func (t SymbolType) String() string {
	if name, ok := symbolNames[t]; ok {
		return name
	}
	return fmt.Sprintf("sym(0x%x)", uint16(t))
}

// Thunk ordinals of S_THUNK32.
const (
	THUNK_NOTYPE   = 0
	THUNK_ADJUSTOR = 1
	THUNK_VCALL    = 2
	THUNK_PCODE    = 3
)

// Procedure flag bits of S_LPROC32 and S_GPROC32.
const (
	PROCFLAGS_FRAME_POINTER_OMITTED = 0x01
	PROCFLAGS_INTERRUPT_RETURN      = 0x02
	PROCFLAGS_FAR_RETURN            = 0x04
	PROCFLAGS_NEVER_RETURN          = 0x08
)

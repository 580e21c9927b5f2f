package codeview

import (
	"coffdbg/pkg/datasource"
	"coffdbg/pkg/log"

	"github.com/pkg/errors"
)

const symbolHeaderSize = 4

// SymbolIterator walks the symbol records of a byte range. Each record is a
// 2-byte length (not counting itself), a 2-byte type and a body. Accessors
// read the body of the current record at fixed or data-dependent offsets;
// callers pick the accessors matching Type.
//
// Parent, End and Next accessors of procedure, thunk and block records
// return new iterators over the same range.
type SymbolIterator struct {
	src  *datasource.Source
	base int64
	size int64
	// linkBase is what record pointers are relative to. It precedes base
	// when the range starts after a signature.
	linkBase int64

	pos    int64
	length uint16
	typ    SymbolType
}

func newSymbolIterator(src *datasource.Source, base, size int64) (*SymbolIterator, error) {
	return newSymbolIteratorAt(src, base, size, base, base)
}

func newSymbolIteratorAt(src *datasource.Source, base, size, linkBase, pos int64) (*SymbolIterator, error) {
	it := &SymbolIterator{src: src, base: base, size: size, linkBase: linkBase, pos: pos}
	if err := it.load(); err != nil {
		return nil, err
	}
	return it, nil
}

func (it *SymbolIterator) load() error {
	if it.Done() {
		return nil
	}
	if it.pos < it.base {
		return errors.Wrapf(ErrIndexOutOfRange, "symbol at 0x%x precedes table at 0x%x", it.pos, it.base)
	}
	var err error
	if it.length, err = it.src.Uint16At(it.pos); err != nil {
		return errors.WithMessage(err, "read symbol length")
	}
	typ, err := it.src.Uint16At(it.pos + 2)
	if err != nil {
		return errors.WithMessage(err, "read symbol type")
	}
	it.typ = SymbolType(typ)
	return nil
}

// Done reports whether the iterator has passed the last record.
func (it *SymbolIterator) Done() bool {
	return it.pos >= it.base+it.size
}

// Next moves to the following record.
func (it *SymbolIterator) Next() error {
	if it.Done() {
		return errors.WithStack(ErrNoMoreElements)
	}
	it.pos += int64(it.length) + 2
	return it.load()
}

// Length is the current record's length, excluding the length field.
func (it *SymbolIterator) Length() uint16 {
	return it.length
}

func (it *SymbolIterator) Type() SymbolType {
	return it.typ
}

// Offset is the absolute offset of the current record's body.
func (it *SymbolIterator) Offset() int64 {
	return it.pos + symbolHeaderSize
}

// RecordOffset is the absolute offset of the current record's length field.
func (it *SymbolIterator) RecordOffset() int64 {
	return it.pos
}

func (it *SymbolIterator) at(k int64) int64 {
	return it.pos + symbolHeaderSize + k
}

func (it *SymbolIterator) u8(k int64) (uint8, error)   { return it.src.Uint8At(it.at(k)) }
func (it *SymbolIterator) u16(k int64) (uint16, error) { return it.src.Uint16At(it.at(k)) }
func (it *SymbolIterator) u32(k int64) (uint32, error) { return it.src.Uint32At(it.at(k)) }
func (it *SymbolIterator) i16(k int64) (int16, error)  { return it.src.Int16At(it.at(k)) }
func (it *SymbolIterator) i32(k int64) (int32, error)  { return it.src.Int32At(it.at(k)) }

func (it *SymbolIterator) name(k int64) (string, error) {
	return it.src.PascalStringAt(it.at(k))
}

func (it *SymbolIterator) nameLength(k int64) (int64, error) {
	return PascalStringLength(it.src, it.at(k))
}

// link reads a table-relative record pointer. Zero means no record.
func (it *SymbolIterator) link(k int64) (int64, error) {
	v, err := it.u32(k)
	if err != nil || v == 0 {
		return 0, err
	}
	return it.linkBase + int64(v), nil
}

func (it *SymbolIterator) follow(k int64) (*SymbolIterator, error) {
	off, err := it.link(k)
	if err != nil || off == 0 {
		return nil, err
	}
	return newSymbolIteratorAt(it.src, it.base, it.size, it.linkBase, off)
}

// Name returns the name of any record kind that carries one, and "" for the
// others.
func (it *SymbolIterator) Name() (string, error) {
	switch it.typ {
	case S_COMPILE:
		return it.CompilerVersion()
	case S_REGISTER:
		return it.RegisterSymbolName()
	case S_CONSTANT:
		return it.ConstantName()
	case S_UDT:
		return it.UDTName()
	case S_OBJNAME:
		return it.ObjectName()
	case S_MANYREG:
		return it.ManyRegName()
	case S_BPREL32:
		return it.BPRelName()
	case S_LDATA32, S_GDATA32, S_PUB32:
		return it.DataName()
	case S_LPROC32, S_GPROC32:
		return it.ProcName()
	case S_THUNK32:
		return it.ThunkName()
	case S_BLOCK32:
		return it.BlockName()
	case S_LABEL32:
		return it.LabelName()
	case S_REGREL32:
		return it.RegRelName()
	case S_LTHREAD32, S_GTHREAD32:
		return it.ThreadName()
	}
	return "", nil
}

// S_COMPILE

func (it *SymbolIterator) CompilerTargetProcessor() (uint8, error) {
	return it.u8(0)
}

// CompilerFlags packs the three flag bytes, first byte highest.
func (it *SymbolIterator) CompilerFlags() (uint32, error) {
	raw, err := it.src.BytesAt(it.at(1), 3)
	if err != nil {
		return 0, err
	}
	return uint32(raw[0])<<16 | uint32(raw[1])<<8 | uint32(raw[2]), nil
}

func (it *SymbolIterator) CompilerVersion() (string, error) {
	return it.name(4)
}

// S_REGISTER

func (it *SymbolIterator) RegisterSymbolType() (uint32, error) { return it.u32(0) }
func (it *SymbolIterator) RegisterEnum() (uint16, error)       { return it.u16(4) }
func (it *SymbolIterator) RegisterSymbolName() (string, error) { return it.name(6) }

// S_CONSTANT

func (it *SymbolIterator) ConstantType() (uint32, error) {
	return it.u32(0)
}

func (it *SymbolIterator) ConstantValueInt() (int64, error) {
	return NumericInt(it.src, it.at(4))
}

func (it *SymbolIterator) ConstantValueLong() (int64, error) {
	return NumericLong(it.src, it.at(4))
}

func (it *SymbolIterator) ConstantValueFloat32() (float32, error) {
	return NumericFloat32(it.src, it.at(4))
}

func (it *SymbolIterator) ConstantValueFloat64() (float64, error) {
	return NumericFloat64(it.src, it.at(4))
}

func (it *SymbolIterator) ConstantName() (string, error) {
	n, err := NumericLeafLength(it.src, it.at(4))
	if err != nil {
		return "", err
	}
	return it.name(4 + n)
}

// S_UDT

func (it *SymbolIterator) UDTType() (uint32, error) { return it.u32(0) }
func (it *SymbolIterator) UDTName() (string, error) { return it.name(4) }

// S_SSEARCH

func (it *SymbolIterator) SearchSymbolOffset() (uint32, error) { return it.u32(0) }
func (it *SymbolIterator) SearchSegment() (uint16, error)      { return it.u16(4) }

// S_OBJNAME

func (it *SymbolIterator) ObjectSignature() (uint32, error) { return it.u32(0) }
func (it *SymbolIterator) ObjectName() (string, error)      { return it.name(4) }

// S_MANYREG

func (it *SymbolIterator) ManyRegType() (uint32, error) { return it.u32(0) }
func (it *SymbolIterator) ManyRegCount() (uint8, error) { return it.u8(4) }

func (it *SymbolIterator) ManyRegRegister(i int) (uint8, error) {
	return it.u8(5 + int64(i))
}

func (it *SymbolIterator) ManyRegName() (string, error) {
	count, err := it.ManyRegCount()
	if err != nil {
		return "", err
	}
	return it.name(5 + int64(count))
}

// S_RETURN

func (it *SymbolIterator) ReturnFlags() (uint16, error)        { return it.u16(0) }
func (it *SymbolIterator) ReturnStyle() (uint8, error)         { return it.u8(2) }
func (it *SymbolIterator) ReturnRegisterCount() (uint8, error) { return it.u8(3) }

func (it *SymbolIterator) ReturnRegister(i int) (uint8, error) {
	return it.u8(4 + int64(i))
}

// AdvanceToEntryThis moves into the symbol embedded in an S_ENTRYTHIS
// record.
func (it *SymbolIterator) AdvanceToEntryThis() error {
	inner, err := it.src.Uint16At(it.pos + symbolHeaderSize)
	if err != nil {
		return err
	}
	typ, err := it.src.Uint16At(it.pos + symbolHeaderSize + 2)
	if err != nil {
		return err
	}
	if it.pos+int64(it.length)+2 != it.pos+symbolHeaderSize+int64(inner) {
		log.Warnln("S_ENTRYTHIS at 0x%x: inner symbol does not end with its container", it.pos)
	}
	it.pos += symbolHeaderSize
	it.length = inner
	it.typ = SymbolType(typ)
	return nil
}

// S_BPREL32

func (it *SymbolIterator) BPRelOffset() (int32, error) { return it.i32(0) }
func (it *SymbolIterator) BPRelType() (uint32, error)  { return it.u32(4) }
func (it *SymbolIterator) BPRelName() (string, error)  { return it.name(8) }

// S_LDATA32, S_GDATA32 and S_PUB32

func (it *SymbolIterator) DataType() (uint32, error)    { return it.u32(0) }
func (it *SymbolIterator) DataOffset() (uint32, error)  { return it.u32(4) }
func (it *SymbolIterator) DataSegment() (uint16, error) { return it.u16(8) }
func (it *SymbolIterator) DataName() (string, error)    { return it.name(10) }

// S_LPROC32 and S_GPROC32

func (it *SymbolIterator) ProcParentOffset() (int64, error)     { return it.link(0) }
func (it *SymbolIterator) ProcParent() (*SymbolIterator, error) { return it.follow(0) }
func (it *SymbolIterator) ProcEndOffset() (int64, error)        { return it.link(4) }
func (it *SymbolIterator) ProcEnd() (*SymbolIterator, error)    { return it.follow(4) }
func (it *SymbolIterator) ProcNextOffset() (int64, error)       { return it.link(8) }
func (it *SymbolIterator) ProcNext() (*SymbolIterator, error)   { return it.follow(8) }
func (it *SymbolIterator) ProcLength() (uint32, error)          { return it.u32(12) }
func (it *SymbolIterator) ProcDebugStart() (uint32, error)      { return it.u32(16) }
func (it *SymbolIterator) ProcDebugEnd() (uint32, error)        { return it.u32(20) }
func (it *SymbolIterator) ProcType() (uint32, error)            { return it.u32(24) }
func (it *SymbolIterator) ProcOffset() (uint32, error)          { return it.u32(28) }
func (it *SymbolIterator) ProcSegment() (uint16, error)         { return it.u16(32) }
func (it *SymbolIterator) ProcFlags() (uint8, error)            { return it.u8(34) }
func (it *SymbolIterator) ProcName() (string, error)            { return it.name(35) }

// S_THUNK32

func (it *SymbolIterator) ThunkParentOffset() (int64, error)     { return it.link(0) }
func (it *SymbolIterator) ThunkParent() (*SymbolIterator, error) { return it.follow(0) }
func (it *SymbolIterator) ThunkEndOffset() (int64, error)        { return it.link(4) }
func (it *SymbolIterator) ThunkEnd() (*SymbolIterator, error)    { return it.follow(4) }
func (it *SymbolIterator) ThunkNextOffset() (int64, error)       { return it.link(8) }
func (it *SymbolIterator) ThunkNext() (*SymbolIterator, error)   { return it.follow(8) }
func (it *SymbolIterator) ThunkOffset() (uint32, error)          { return it.u32(12) }
func (it *SymbolIterator) ThunkSegment() (uint16, error)         { return it.u16(16) }
func (it *SymbolIterator) ThunkLength() (uint16, error)          { return it.u16(18) }

// ThunkType is one of the THUNK_ ordinals; it selects which variant
// accessors apply.
func (it *SymbolIterator) ThunkType() (uint8, error) { return it.u8(20) }

func (it *SymbolIterator) ThunkName() (string, error) { return it.name(21) }

// thunkVariant is the offset of the variant data following the name.
func (it *SymbolIterator) thunkVariant() (int64, error) {
	n, err := it.nameLength(21)
	if err != nil {
		return 0, err
	}
	return 21 + n, nil
}

func (it *SymbolIterator) ThunkAdjustorThisDelta() (int16, error) {
	k, err := it.thunkVariant()
	if err != nil {
		return 0, err
	}
	return it.i16(k)
}

func (it *SymbolIterator) ThunkAdjustorTargetName() (string, error) {
	k, err := it.thunkVariant()
	if err != nil {
		return "", err
	}
	return it.name(k + 2)
}

func (it *SymbolIterator) ThunkVCallDisplacement() (int16, error) {
	k, err := it.thunkVariant()
	if err != nil {
		return 0, err
	}
	return it.i16(k)
}

func (it *SymbolIterator) ThunkPCodeOffset() (uint32, error) {
	k, err := it.thunkVariant()
	if err != nil {
		return 0, err
	}
	return it.u32(k)
}

func (it *SymbolIterator) ThunkPCodeSegment() (uint16, error) {
	k, err := it.thunkVariant()
	if err != nil {
		return 0, err
	}
	return it.u16(k + 4)
}

// S_BLOCK32

func (it *SymbolIterator) BlockParentOffset() (int64, error)     { return it.link(0) }
func (it *SymbolIterator) BlockParent() (*SymbolIterator, error) { return it.follow(0) }
func (it *SymbolIterator) BlockEndOffset() (int64, error)        { return it.link(4) }
func (it *SymbolIterator) BlockEnd() (*SymbolIterator, error)    { return it.follow(4) }
func (it *SymbolIterator) BlockLength() (uint32, error)          { return it.u32(8) }
func (it *SymbolIterator) BlockOffset() (uint32, error)          { return it.u32(12) }
func (it *SymbolIterator) BlockSegment() (uint16, error)         { return it.u16(16) }
func (it *SymbolIterator) BlockName() (string, error)            { return it.name(18) }

// S_LABEL32

func (it *SymbolIterator) LabelOffset() (uint32, error)  { return it.u32(0) }
func (it *SymbolIterator) LabelSegment() (uint16, error) { return it.u16(4) }
func (it *SymbolIterator) LabelFlags() (uint8, error)    { return it.u8(6) }
func (it *SymbolIterator) LabelName() (string, error)    { return it.name(7) }

// S_CEXMODEL32

func (it *SymbolIterator) ChangeOffset() (uint32, error)  { return it.u32(0) }
func (it *SymbolIterator) ChangeSegment() (uint16, error) { return it.u16(4) }
func (it *SymbolIterator) ChangeModel() (uint16, error)   { return it.u16(6) }

// S_VFTTABLE32

func (it *SymbolIterator) VTableRoot() (uint32, error)    { return it.u32(0) }
func (it *SymbolIterator) VTablePath() (uint32, error)    { return it.u32(4) }
func (it *SymbolIterator) VTableOffset() (uint32, error)  { return it.u32(8) }
func (it *SymbolIterator) VTableSegment() (uint16, error) { return it.u16(12) }

// S_REGREL32

func (it *SymbolIterator) RegRelOffset() (int32, error)    { return it.i32(0) }
func (it *SymbolIterator) RegRelType() (uint32, error)     { return it.u32(4) }
func (it *SymbolIterator) RegRelRegister() (uint16, error) { return it.u16(8) }
func (it *SymbolIterator) RegRelName() (string, error)     { return it.name(10) }

// S_LTHREAD32 and S_GTHREAD32

func (it *SymbolIterator) ThreadType() (uint32, error)    { return it.u32(0) }
func (it *SymbolIterator) ThreadOffset() (uint32, error)  { return it.u32(4) }
func (it *SymbolIterator) ThreadSegment() (uint16, error) { return it.u16(8) }
func (it *SymbolIterator) ThreadName() (string, error)    { return it.name(10) }

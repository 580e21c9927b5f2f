package codeview

import (
	"coffdbg/pkg/datasource"
)

func (t *TypeIterator) src() *datasource.Source {
	return t.types.vc.src
}

func (t *TypeIterator) at(k int64) int64 {
	return t.leafOffset + k
}

func (t *TypeIterator) u8(k int64) (uint8, error)   { return t.src().Uint8At(t.at(k)) }
func (t *TypeIterator) u16(k int64) (uint16, error) { return t.src().Uint16At(t.at(k)) }
func (t *TypeIterator) u32(k int64) (uint32, error) { return t.src().Uint32At(t.at(k)) }
func (t *TypeIterator) i32(k int64) (int32, error)  { return t.src().Int32At(t.at(k)) }

func (t *TypeIterator) name(k int64) (string, error) {
	return t.src().PascalStringAt(t.at(k))
}

// nameAfterNumeric reads the string that follows the numeric leaf at k.
func (t *TypeIterator) nameAfterNumeric(k int64) (string, error) {
	n, err := t.NumericLengthAt(k)
	if err != nil {
		return "", err
	}
	return t.name(k + n)
}

func isIntroducingVirtual(attr uint16) bool {
	switch attr & MEMATTR_MPROP_MASK {
	case MEMATTR_MPROP_INTRODUCING_VIRTUAL, MEMATTR_MPROP_PURE_INTRODUCING_VIRTUAL:
		return true
	}
	return false
}

// LF_MODIFIER

func (t *TypeIterator) ModifierIndex() (uint32, error)     { return t.u32(2) }
func (t *TypeIterator) ModifierAttribute() (uint16, error) { return t.u16(6) }

// LF_POINTER

func (t *TypeIterator) PointerType() (uint32, error)             { return t.u32(2) }
func (t *TypeIterator) PointerAttributes() (uint32, error)       { return t.u32(6) }
func (t *TypeIterator) PointerBasedOnTypeIndex() (uint32, error) { return t.u32(10) }
func (t *TypeIterator) PointerBasedOnTypeName() (string, error)  { return t.name(14) }
func (t *TypeIterator) PointerToMemberClass() (uint32, error)    { return t.u32(10) }
func (t *TypeIterator) PointerToMemberFormat() (uint16, error)   { return t.u16(14) }

// LF_ARRAY

func (t *TypeIterator) ArrayElementType() (uint32, error) { return t.u32(2) }
func (t *TypeIterator) ArrayIndexType() (uint32, error)   { return t.u32(6) }

// ArrayLength is the array size in bytes.
func (t *TypeIterator) ArrayLength() (int64, error) { return t.NumericIntAt(10) }
func (t *TypeIterator) ArrayName() (string, error)  { return t.nameAfterNumeric(10) }

// LF_CLASS and LF_STRUCTURE

func (t *TypeIterator) ClassCount() (uint16, error)          { return t.u16(2) }
func (t *TypeIterator) ClassProperty() (uint16, error)       { return t.u16(4) }
func (t *TypeIterator) ClassFieldList() (uint32, error)      { return t.u32(6) }
func (t *TypeIterator) ClassDerivationList() (uint32, error) { return t.u32(10) }
func (t *TypeIterator) ClassVShape() (uint32, error)         { return t.u32(14) }
func (t *TypeIterator) ClassSize() (int64, error)            { return t.NumericIntAt(18) }
func (t *TypeIterator) ClassName() (string, error)           { return t.nameAfterNumeric(18) }

// ClassFieldListIterator starts a new iterator at the class's field list
// record.
func (t *TypeIterator) ClassFieldListIterator() (*TypeIterator, error) {
	index, err := t.ClassFieldList()
	if err != nil {
		return nil, err
	}
	return t.iteratorFor(index)
}

// LF_UNION

func (t *TypeIterator) UnionCount() (uint16, error)     { return t.u16(2) }
func (t *TypeIterator) UnionProperty() (uint16, error)  { return t.u16(4) }
func (t *TypeIterator) UnionFieldList() (uint32, error) { return t.u32(6) }
func (t *TypeIterator) UnionSize() (int64, error)       { return t.NumericIntAt(10) }
func (t *TypeIterator) UnionName() (string, error)      { return t.nameAfterNumeric(10) }

func (t *TypeIterator) UnionFieldListIterator() (*TypeIterator, error) {
	index, err := t.UnionFieldList()
	if err != nil {
		return nil, err
	}
	return t.iteratorFor(index)
}

// LF_ENUM

func (t *TypeIterator) EnumCount() (uint16, error)     { return t.u16(2) }
func (t *TypeIterator) EnumProperty() (uint16, error)  { return t.u16(4) }
func (t *TypeIterator) EnumType() (uint32, error)      { return t.u32(6) }
func (t *TypeIterator) EnumFieldList() (uint32, error) { return t.u32(10) }
func (t *TypeIterator) EnumName() (string, error)      { return t.name(14) }

func (t *TypeIterator) EnumFieldListIterator() (*TypeIterator, error) {
	index, err := t.EnumFieldList()
	if err != nil {
		return nil, err
	}
	return t.iteratorFor(index)
}

// LF_PROCEDURE

func (t *TypeIterator) ProcedureReturnType() (uint32, error)         { return t.u32(2) }
func (t *TypeIterator) ProcedureCallingConvention() (uint8, error)   { return t.u8(6) }
func (t *TypeIterator) ProcedureNumberOfParameters() (uint16, error) { return t.u16(8) }
func (t *TypeIterator) ProcedureArgumentList() (uint32, error)       { return t.u32(10) }

func (t *TypeIterator) ProcedureArgumentListIterator() (*TypeIterator, error) {
	index, err := t.ProcedureArgumentList()
	if err != nil {
		return nil, err
	}
	return t.iteratorFor(index)
}

// LF_MFUNCTION

func (t *TypeIterator) MFunctionReturnType() (uint32, error)         { return t.u32(2) }
func (t *TypeIterator) MFunctionContainingClass() (uint32, error)    { return t.u32(6) }
func (t *TypeIterator) MFunctionThis() (uint32, error)               { return t.u32(10) }
func (t *TypeIterator) MFunctionCallingConvention() (uint8, error)   { return t.u8(14) }
func (t *TypeIterator) MFunctionNumberOfParameters() (uint16, error) { return t.u16(16) }
func (t *TypeIterator) MFunctionArgumentList() (uint32, error)       { return t.u32(18) }
func (t *TypeIterator) MFunctionThisAdjust() (int32, error)          { return t.i32(22) }

func (t *TypeIterator) MFunctionArgumentListIterator() (*TypeIterator, error) {
	index, err := t.MFunctionArgumentList()
	if err != nil {
		return nil, err
	}
	return t.iteratorFor(index)
}

// LF_VTSHAPE

func (t *TypeIterator) VTShapeCount() (uint16, error) { return t.u16(2) }

// VTShapeDescriptor returns the 4-bit descriptor i. Descriptors are packed
// two per byte, low nibble first.
func (t *TypeIterator) VTShapeDescriptor(i int) (uint8, error) {
	b, err := t.u8(4 + int64(i/2))
	if err != nil {
		return 0, err
	}
	if i%2 != 0 {
		return b >> 4, nil
	}
	return b & 0x0f, nil
}

// LF_BARRAY

func (t *TypeIterator) BasicArrayType() (uint32, error) { return t.u32(2) }

// LF_LABEL

func (t *TypeIterator) LabelAddressMode() (uint16, error) { return t.u16(2) }

// LF_DIMARRAY

func (t *TypeIterator) DimArrayType() (uint32, error)    { return t.u32(2) }
func (t *TypeIterator) DimArrayDimInfo() (uint32, error) { return t.u32(6) }
func (t *TypeIterator) DimArrayName() (string, error)    { return t.name(10) }

// LF_VFTPATH

func (t *TypeIterator) VFTPathCount() (uint32, error) { return t.u32(2) }

func (t *TypeIterator) VFTPathBase(i int) (uint32, error) {
	return t.u32(6 + 4*int64(i))
}

// LF_SKIP

func (t *TypeIterator) SkipIndex() (uint32, error) { return t.u32(2) }

// LF_ARGLIST

func (t *TypeIterator) ArgListCount() (uint32, error) { return t.u32(2) }

func (t *TypeIterator) ArgListType(i int) (uint32, error) {
	return t.u32(6 + 4*int64(i))
}

// LF_DEFARG

func (t *TypeIterator) DefaultArgType() (uint32, error)       { return t.u32(2) }
func (t *TypeIterator) DefaultArgExpression() (string, error) { return t.name(6) }

// LF_DERIVED

func (t *TypeIterator) DerivedCount() (uint32, error) { return t.u32(2) }

func (t *TypeIterator) DerivedType(i int) (uint32, error) {
	return t.u32(6 + 4*int64(i))
}

// LF_BITFIELD

func (t *TypeIterator) BitfieldFieldType() (uint32, error) { return t.u32(2) }
func (t *TypeIterator) BitfieldLength() (uint8, error)     { return t.u8(6) }
func (t *TypeIterator) BitfieldPosition() (uint8, error)   { return t.u8(7) }

// LF_METHODLIST

func (t *TypeIterator) MListAttribute() (uint16, error) { return t.u16(2) }

func (t *TypeIterator) IsMListIntroducingVirtual() (bool, error) {
	attr, err := t.MListAttribute()
	if err != nil {
		return false, err
	}
	return isIntroducingVirtual(attr), nil
}

// MListLength is the number of method types in the list. It is derived
// from the record length.
func (t *TypeIterator) MListLength() (int, error) {
	virtual, err := t.IsMListIntroducingVirtual()
	if err != nil {
		return 0, err
	}
	n := int(t.Length()) - 6
	if virtual {
		n -= 4
	}
	if n < 0 {
		return 0, nil
	}
	return n / 4, nil
}

func (t *TypeIterator) MListType(i int) (uint32, error) {
	return t.u32(6 + 4*int64(i))
}

func (t *TypeIterator) MListVtabOffset() (uint32, error) {
	n, err := t.MListLength()
	if err != nil {
		return 0, err
	}
	return t.u32(6 + 4*int64(n))
}

// LF_REFSYM

// RefSym iterates the single symbol record embedded in the leaf.
func (t *TypeIterator) RefSym() (*SymbolIterator, error) {
	n, err := t.u16(2)
	if err != nil {
		return nil, err
	}
	return newSymbolIterator(t.src(), t.at(2), int64(n)+2)
}

// LF_BCLASS

func (t *TypeIterator) BClassAttribute() (uint16, error) { return t.u16(2) }
func (t *TypeIterator) BClassType() (uint32, error)      { return t.u32(4) }
func (t *TypeIterator) BClassOffset() (int64, error)     { return t.NumericIntAt(8) }

// LF_VBCLASS

func (t *TypeIterator) VBClassAttribute() (uint16, error)            { return t.u16(2) }
func (t *TypeIterator) VBClassBaseClassType() (uint32, error)        { return t.u32(4) }
func (t *TypeIterator) VBClassVirtualBaseClassType() (uint32, error) { return t.u32(8) }
func (t *TypeIterator) VBClassVBPOff() (int64, error)                { return t.NumericIntAt(12) }
func (t *TypeIterator) VBClassVBOff() (int64, error)                 { return t.secondNumeric(12) }

// LF_IVBCLASS

func (t *TypeIterator) IVBClassAttribute() (uint16, error) { return t.u16(2) }
func (t *TypeIterator) IVBClassBType() (uint32, error)     { return t.u32(4) }
func (t *TypeIterator) IVBClassVBPType() (uint32, error)   { return t.u32(8) }
func (t *TypeIterator) IVBClassVBPOff() (int64, error)     { return t.NumericIntAt(12) }
func (t *TypeIterator) IVBClassVBOff() (int64, error)      { return t.secondNumeric(12) }

func (t *TypeIterator) secondNumeric(k int64) (int64, error) {
	n, err := t.NumericLengthAt(k)
	if err != nil {
		return 0, err
	}
	return t.NumericIntAt(k + n)
}

// LF_ENUMERATE

func (t *TypeIterator) EnumerateAttribute() (uint16, error) { return t.u16(2) }
func (t *TypeIterator) EnumerateValue() (int64, error)      { return t.NumericLongAt(4) }
func (t *TypeIterator) EnumerateName() (string, error)      { return t.nameAfterNumeric(4) }

// LF_FRIENDFCN

func (t *TypeIterator) FriendFcnType() (uint32, error) { return t.u32(4) }
func (t *TypeIterator) FriendFcnName() (string, error) { return t.name(8) }

// LF_INDEX

func (t *TypeIterator) IndexValue() (uint32, error) { return t.u32(4) }

// IndexIterator starts a new iterator at the field list continuation.
func (t *TypeIterator) IndexIterator() (*TypeIterator, error) {
	index, err := t.IndexValue()
	if err != nil {
		return nil, err
	}
	return t.iteratorFor(index)
}

// LF_MEMBER

func (t *TypeIterator) MemberAttribute() (uint16, error) { return t.u16(2) }
func (t *TypeIterator) MemberType() (uint32, error)      { return t.u32(4) }
func (t *TypeIterator) MemberOffset() (int64, error)     { return t.NumericIntAt(8) }
func (t *TypeIterator) MemberName() (string, error)      { return t.nameAfterNumeric(8) }

// LF_STMEMBER

func (t *TypeIterator) StaticAttribute() (uint16, error) { return t.u16(2) }
func (t *TypeIterator) StaticType() (uint32, error)      { return t.u32(4) }
func (t *TypeIterator) StaticName() (string, error)      { return t.name(8) }

// LF_METHOD

func (t *TypeIterator) MethodCount() (uint16, error) { return t.u16(2) }
func (t *TypeIterator) MethodList() (uint32, error)  { return t.u32(4) }
func (t *TypeIterator) MethodName() (string, error)  { return t.name(8) }

// LF_NESTTYPE

func (t *TypeIterator) NestedType() (uint32, error) { return t.u32(4) }
func (t *TypeIterator) NestedName() (string, error) { return t.name(8) }

// LF_VFUNCTAB

func (t *TypeIterator) VFuncTabType() (uint32, error) { return t.u32(4) }

// LF_FRIENDCLS

func (t *TypeIterator) FriendClsType() (uint32, error) { return t.u32(4) }

// LF_ONEMETHOD

func (t *TypeIterator) OneMethodAttribute() (uint16, error) { return t.u16(2) }
func (t *TypeIterator) OneMethodType() (uint32, error)      { return t.u32(4) }

func (t *TypeIterator) IsOneMethodIntroducingVirtual() (bool, error) {
	attr, err := t.OneMethodAttribute()
	if err != nil {
		return false, err
	}
	return isIntroducingVirtual(attr), nil
}

// OneMethodVBaseOff is only present for introducing virtual methods.
func (t *TypeIterator) OneMethodVBaseOff() (uint32, error) { return t.u32(8) }

func (t *TypeIterator) OneMethodName() (string, error) {
	k, err := t.oneMethodNameOffset()
	if err != nil {
		return "", err
	}
	return t.name(k)
}

func (t *TypeIterator) oneMethodNameOffset() (int64, error) {
	virtual, err := t.IsOneMethodIntroducingVirtual()
	if err != nil {
		return 0, err
	}
	if virtual {
		return 12, nil
	}
	return 8, nil
}

// LF_VFUNCOFF

func (t *TypeIterator) VFuncOffType() (uint32, error)  { return t.u32(4) }
func (t *TypeIterator) VFuncOffOffset() (int32, error) { return t.i32(8) }

// LF_NESTTYPEEX

func (t *TypeIterator) NestedExAttribute() (uint16, error) { return t.u16(2) }
func (t *TypeIterator) NestedExType() (uint32, error)      { return t.u32(4) }
func (t *TypeIterator) NestedExName() (string, error)      { return t.name(8) }

// LF_MEMBERMODIFY

func (t *TypeIterator) MemberModifyAttribute() (uint16, error) { return t.u16(2) }
func (t *TypeIterator) MemberModifyType() (uint32, error)      { return t.u32(4) }
func (t *TypeIterator) MemberModifyName() (string, error)      { return t.name(8) }

// Numeric leaves at k bytes into the current leaf.

func (t *TypeIterator) NumericTypeAt(k int64) (LeafType, error) {
	tag, err := t.u16(k)
	return LeafType(tag), err
}

func (t *TypeIterator) NumericLengthAt(k int64) (int64, error) {
	return NumericLeafLength(t.src(), t.at(k))
}

func (t *TypeIterator) NumericIntAt(k int64) (int64, error) {
	return NumericInt(t.src(), t.at(k))
}

func (t *TypeIterator) NumericLongAt(k int64) (int64, error) {
	return NumericLong(t.src(), t.at(k))
}

func (t *TypeIterator) NumericFloat32At(k int64) (float32, error) {
	return NumericFloat32(t.src(), t.at(k))
}

func (t *TypeIterator) NumericFloat64At(k int64) (float64, error) {
	return NumericFloat64(t.src(), t.at(k))
}

func (t *TypeIterator) NumericDataAt(k int64) ([]byte, error) {
	return NumericData(t.src(), t.at(k))
}

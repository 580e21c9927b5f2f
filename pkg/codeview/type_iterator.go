package codeview

import (
	"github.com/pkg/errors"
)

// TypeIterator walks the records of an sstGlobalTypes subsection. It has two
// positions: the current record, moved by Next using the subsection's offset
// table, and the current leaf inside that record's type string, moved by
// TypeStringNext. Moving to another record resets the leaf position, so a
// bad leaf length never affects record navigation.
//
// Leaf accessors read the current leaf; callers pick them by Leaf. Offsets
// of later fields depend on the lengths of earlier numeric leaves and
// strings, which the accessors compute.
type TypeIterator struct {
	types *GlobalTypes

	index        int
	recordOffset int64
	recordSize   uint16

	leafOffset int64
	leaf       LeafType
}

func newTypeIterator(g *GlobalTypes, index int, offset int64) (*TypeIterator, error) {
	t := &TypeIterator{types: g, index: index}
	if t.Done() {
		return t, nil
	}
	t.recordOffset = offset
	if err := t.loadRecord(); err != nil {
		return nil, err
	}
	return t, nil
}

// iteratorFor starts a new iterator at a biased type index.
func (t *TypeIterator) iteratorFor(typeIndex uint32) (*TypeIterator, error) {
	index := int(typeIndex) - TypeIndexBias
	if index < 0 || index >= t.types.NumTypes() {
		return nil, errors.Wrapf(ErrIndexOutOfRange, "type index 0x%x", typeIndex)
	}
	offset, err := t.types.TypeOffset(index)
	if err != nil {
		return nil, err
	}
	return newTypeIterator(t.types, index, offset)
}

func (t *TypeIterator) loadRecord() error {
	size, err := t.src().Uint16At(t.recordOffset)
	if err != nil {
		return errors.WithMessagef(err, "read type record %d", t.index)
	}
	t.recordSize = size
	t.leafOffset = t.recordOffset + 2
	if t.TypeStringDone() {
		return nil
	}
	return t.loadLeaf()
}

// loadLeaf reads the leaf tag at leafOffset. Padding leaves are one byte.
func (t *TypeIterator) loadLeaf() error {
	lo, err := t.src().Uint8At(t.leafOffset)
	if err != nil {
		return err
	}
	if LeafType(lo) >= LF_PAD0 {
		t.leaf = LeafType(lo)
		return nil
	}
	tag, err := t.src().Uint16At(t.leafOffset)
	if err != nil {
		return err
	}
	t.leaf = LeafType(tag)
	return nil
}

func (t *TypeIterator) Done() bool {
	return t.index >= t.types.NumTypes()
}

// Next moves to the following type record.
func (t *TypeIterator) Next() error {
	if t.Done() {
		return errors.WithStack(ErrNoMoreElements)
	}
	t.index++
	if t.Done() {
		return nil
	}
	offset, err := t.types.TypeOffset(t.index)
	if err != nil {
		return err
	}
	t.recordOffset = offset
	return t.loadRecord()
}

// Length is the current record's length, excluding the length field.
func (t *TypeIterator) Length() uint16 {
	return t.recordSize
}

// TypeIndex is the biased index symbols and other types use to refer to the
// current record.
func (t *TypeIterator) TypeIndex() uint32 {
	return uint32(t.index + TypeIndexBias)
}

func (t *TypeIterator) NumTypes() int {
	return t.types.NumTypes()
}

func (t *TypeIterator) RecordOffset() int64 {
	return t.recordOffset
}

// TypeStringDone reports whether the leaf position has left the record.
func (t *TypeIterator) TypeStringDone() bool {
	return t.leafOffset-t.recordOffset-2 >= int64(t.recordSize)
}

// TypeStringNext moves to the following leaf of the current record.
func (t *TypeIterator) TypeStringNext() error {
	if t.TypeStringDone() {
		return errors.WithStack(ErrNoMoreElements)
	}
	n, err := t.leafLength()
	if err != nil {
		return err
	}
	t.leafOffset += n
	if t.TypeStringDone() {
		return nil
	}
	return t.loadLeaf()
}

func (t *TypeIterator) Leaf() LeafType {
	return t.leaf
}

// TypeStringOffset is the absolute offset of the current leaf.
func (t *TypeIterator) TypeStringOffset() int64 {
	return t.leafOffset
}

func unsupportedLeaf(leaf LeafType, off int64) error {
	return errors.Wrapf(ErrUnrecognizedLeaf, "%s at 0x%x is not supported", leaf, off)
}

// leafLength computes the encoded size of the current leaf.
func (t *TypeIterator) leafLength() (int64, error) {
	if t.leaf >= LF_PAD0 && t.leaf <= LF_PAD15 {
		n := int64(t.leaf - LF_PAD0)
		if n == 0 {
			n = 1
		}
		return n, nil
	}

	switch t.leaf {
	case LF_MODIFIER:
		return 8, nil
	case LF_POINTER:
		attrs, err := t.PointerAttributes()
		if err != nil {
			return 0, err
		}
		ptrType := (attrs & POINTER_PTRTYPE_MASK) >> POINTER_PTRTYPE_SHIFT
		ptrMode := (attrs & POINTER_PTRMODE_MASK) >> POINTER_PTRMODE_SHIFT
		switch {
		case ptrType == POINTER_PTRTYPE_BASED_ON_TYPE:
			return t.withString(14)
		case ptrMode == POINTER_PTRMODE_PTR_TO_DATA_MEMBER, ptrMode == POINTER_PTRMODE_PTR_TO_METHOD:
			return 16, nil
		}
		return 10, nil
	case LF_ARRAY, LF_UNION:
		return t.numericThenString(10)
	case LF_CLASS, LF_STRUCTURE:
		return t.numericThenString(18)
	case LF_ENUM, LF_PRECOMP:
		return t.withString(14)
	case LF_PROCEDURE:
		return 14, nil
	case LF_MFUNCTION:
		return 26, nil
	case LF_VTSHAPE:
		count, err := t.VTShapeCount()
		if err != nil {
			return 0, err
		}
		return 4 + (int64(count)+1)/2, nil
	case LF_BARRAY:
		return 6, nil
	case LF_LABEL:
		return 4, nil
	case LF_NULL, LF_NOTTRAN:
		return 2, nil
	case LF_DIMARRAY, LF_TYPESERVER:
		return t.withString(10)
	case LF_VFTPATH:
		count, err := t.VFTPathCount()
		if err != nil {
			return 0, err
		}
		return 6 + 4*int64(count), nil
	case LF_ENDPRECOMP:
		return 6, nil
	case LF_SKIP:
		n, err := t.NumericLengthAt(6)
		if err != nil {
			return 0, err
		}
		return 6 + n, nil
	case LF_ARGLIST:
		count, err := t.ArgListCount()
		if err != nil {
			return 0, err
		}
		return 6 + 4*int64(count), nil
	case LF_DEFARG:
		return t.withString(6)
	case LF_FIELDLIST:
		return 2, nil
	case LF_DERIVED:
		count, err := t.DerivedCount()
		if err != nil {
			return 0, err
		}
		return 6 + 4*int64(count), nil
	case LF_BITFIELD:
		return 8, nil
	case LF_METHODLIST:
		n, err := t.MListLength()
		if err != nil {
			return 0, err
		}
		virtual, err := t.IsMListIntroducingVirtual()
		if err != nil {
			return 0, err
		}
		if virtual {
			return 10 + 4*int64(n), nil
		}
		return 6 + 4*int64(n), nil
	case LF_REFSYM:
		n, err := t.u16(2)
		if err != nil {
			return 0, err
		}
		return 4 + int64(n), nil
	case LF_BCLASS:
		n, err := t.NumericLengthAt(8)
		if err != nil {
			return 0, err
		}
		return 8 + n, nil
	case LF_VBCLASS, LF_IVBCLASS:
		first, err := t.NumericLengthAt(12)
		if err != nil {
			return 0, err
		}
		second, err := t.NumericLengthAt(12 + first)
		if err != nil {
			return 0, err
		}
		return 12 + first + second, nil
	case LF_ENUMERATE:
		return t.numericThenString(4)
	case LF_FRIENDFCN, LF_STMEMBER, LF_METHOD, LF_NESTTYPE, LF_NESTTYPEEX, LF_MEMBERMODIFY:
		return t.withString(8)
	case LF_INDEX, LF_VFUNCTAB, LF_FRIENDCLS:
		return 8, nil
	case LF_MEMBER:
		return t.numericThenString(8)
	case LF_ONEMETHOD:
		k, err := t.oneMethodNameOffset()
		if err != nil {
			return 0, err
		}
		return t.withString(k)
	case LF_VFUNCOFF:
		return 12, nil
	case LF_COBOL0, LF_COBOL1, LF_OEM, LF_DIMCONU, LF_DIMCONLU, LF_DIMVARU, LF_DIMVARLU:
		return 0, unsupportedLeaf(t.leaf, t.leafOffset)
	}
	if t.leaf >= LF_NUMERIC && t.leaf <= LF_VARSTRING {
		return 0, errors.Wrapf(ErrUnrecognizedLeaf, "numeric leaf %s in type string at 0x%x", t.leaf, t.leafOffset)
	}
	return 0, errors.Wrapf(ErrUnrecognizedLeaf, "%s in type string at 0x%x", t.leaf, t.leafOffset)
}

// withString is the size of a leaf that ends with a length-prefixed string
// at k.
func (t *TypeIterator) withString(k int64) (int64, error) {
	n, err := PascalStringLength(t.src(), t.at(k))
	if err != nil {
		return 0, err
	}
	return k + n, nil
}

// numericThenString is the size of a leaf ending with a numeric leaf at k
// followed by a length-prefixed string.
func (t *TypeIterator) numericThenString(k int64) (int64, error) {
	n, err := t.NumericLengthAt(k)
	if err != nil {
		return 0, err
	}
	return t.withString(k + n)
}

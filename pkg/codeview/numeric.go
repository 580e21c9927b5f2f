package codeview

import (
	"coffdbg/pkg/datasource"

	"github.com/pkg/errors"
)

var numericLeafLengths = map[LeafType]int64{
	LF_CHAR:       3,
	LF_SHORT:      4,
	LF_USHORT:     4,
	LF_LONG:       6,
	LF_ULONG:      6,
	LF_REAL32:     6,
	LF_REAL64:     10,
	LF_REAL80:     12,
	LF_REAL128:    18,
	LF_QUADWORD:   18,
	LF_UQUADWORD:  18,
	LF_REAL48:     8,
	LF_COMPLEX32:  10,
	LF_COMPLEX64:  18,
	LF_COMPLEX80:  26,
	LF_COMPLEX128: 66,
}

func numericTag(src *datasource.Source, off int64) (LeafType, error) {
	tag, err := src.Uint16At(off)
	return LeafType(tag), err
}

func wrongNumeric(tag LeafType, off int64) error {
	return errors.Wrapf(ErrWrongNumericType, "%s at 0x%x", tag, off)
}

// NumericLeafLength returns the encoded size, tag included, of the numeric
// leaf at off.
func NumericLeafLength(src *datasource.Source, off int64) (int64, error) {
	tag, err := numericTag(src, off)
	if err != nil {
		return 0, err
	}
	if tag < LF_NUMERIC {
		return 2, nil
	}
	if n, ok := numericLeafLengths[tag]; ok {
		return n, nil
	}
	if tag == LF_VARSTRING {
		n, err := NumericInt(src, off+2)
		if err != nil {
			return 0, err
		}
		if n < 0 {
			return 0, errors.Wrapf(ErrWrongNumericType, "negative LF_VARSTRING length %d at 0x%x", n, off)
		}
		return 4 + n, nil
	}
	return 0, wrongNumeric(tag, off)
}

// NumericInt decodes an integer numeric leaf of at most 32 bits. Signed
// kinds are sign extended.
func NumericInt(src *datasource.Source, off int64) (int64, error) {
	tag, err := numericTag(src, off)
	if err != nil {
		return 0, err
	}
	if tag < LF_NUMERIC {
		return int64(tag), nil
	}
	switch tag {
	case LF_CHAR:
		v, err := src.Int8At(off + 2)
		return int64(v), err
	case LF_SHORT:
		v, err := src.Int16At(off + 2)
		return int64(v), err
	case LF_USHORT:
		v, err := src.Uint16At(off + 2)
		return int64(v), err
	case LF_LONG:
		v, err := src.Int32At(off + 2)
		return int64(v), err
	case LF_ULONG:
		v, err := src.Uint32At(off + 2)
		return int64(v), err
	}
	return 0, wrongNumeric(tag, off)
}

// NumericLong decodes any integer numeric leaf. LF_UQUADWORD values above
// the int64 range wrap.
func NumericLong(src *datasource.Source, off int64) (int64, error) {
	tag, err := numericTag(src, off)
	if err != nil {
		return 0, err
	}
	switch tag {
	case LF_QUADWORD, LF_UQUADWORD:
		return src.Int64At(off + 2)
	}
	return NumericInt(src, off)
}

// NumericFloat32 decodes an LF_REAL32 leaf.
func NumericFloat32(src *datasource.Source, off int64) (float32, error) {
	tag, err := numericTag(src, off)
	if err != nil {
		return 0, err
	}
	if tag != LF_REAL32 {
		return 0, wrongNumeric(tag, off)
	}
	return src.Float32At(off + 2)
}

// NumericFloat64 decodes an LF_REAL64 leaf.
func NumericFloat64(src *datasource.Source, off int64) (float64, error) {
	tag, err := numericTag(src, off)
	if err != nil {
		return 0, err
	}
	if tag != LF_REAL64 {
		return 0, wrongNumeric(tag, off)
	}
	return src.Float64At(off + 2)
}

// NumericData returns the raw value bytes of the numeric leaf at off, tag
// excluded. Inline values yield their two bytes.
func NumericData(src *datasource.Source, off int64) ([]byte, error) {
	n, err := NumericLeafLength(src, off)
	if err != nil {
		return nil, err
	}
	tag, _ := numericTag(src, off)
	if tag < LF_NUMERIC {
		return src.BytesAt(off, 2)
	}
	return src.BytesAt(off+2, int(n-2))
}

// PascalStringLength returns the encoded size, length byte included, of the
// length-prefixed string at off.
func PascalStringLength(src *datasource.Source, off int64) (int64, error) {
	n, err := src.Uint8At(off)
	if err != nil {
		return 0, err
	}
	return 1 + int64(n), nil
}

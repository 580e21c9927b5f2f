package codeview

import "github.com/pkg/errors"

var (
	// ErrBadSignature means an NB11 tag was not where the format requires one.
	ErrBadSignature = errors.New("NB11 signature not found")
	// ErrUnknownSubsection is returned for a directory entry whose type tag is
	// not a VC50 subsection type.
	ErrUnknownSubsection = errors.New("unknown subsection type")
	// ErrUnrecognizedLeaf is returned when the length of a type string leaf
	// cannot be computed.
	ErrUnrecognizedLeaf = errors.New("unrecognized leaf")
	// ErrWrongNumericType is returned when a numeric leaf does not hold a value
	// of the requested kind.
	ErrWrongNumericType = errors.New("wrong numeric leaf type")
	// ErrNoMoreElements is returned by Next on an exhausted iterator.
	ErrNoMoreElements = errors.New("no more elements")
	// ErrIndexOutOfRange is returned for table indices past the declared count.
	ErrIndexOutOfRange = errors.New("index out of range")
)

func indexError(what string, index, count int) error {
	return errors.Wrapf(ErrIndexOutOfRange, "%s %d (count %d)", what, index, count)
}

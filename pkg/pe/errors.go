package pe

import (
	"github.com/pkg/errors"
)

var (
	// ErrFormat marks input that violates the COFF/PE layout.
	ErrFormat = errors.New("malformed COFF/PE data")

	// ErrIndexOutOfRange is reported for table indices outside the table.
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrDirectoryUnavailable is reported for a data directory index at or
	// beyond NumberOfRvaAndSizes.
	ErrDirectoryUnavailable = errors.New("data directory unavailable")

	// ErrNotPE32 is reported when a PE32-only field is requested from a
	// PE32+ header.
	ErrNotPE32 = errors.New("field not present in PE32+ images")
)

func indexError(what string, index, count int) error {
	return errors.Wrapf(ErrIndexOutOfRange, "%s %d (have %d)", what, index, count)
}

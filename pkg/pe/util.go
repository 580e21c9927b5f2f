package pe

import (
	"regexp"
	"strconv"
)

func hexString(v uint64) string {
	return strconv.FormatUint(v, 16)
}

func MinUInt32(x, y uint32) uint32 {
	if x < y {
		return x
	}
	return y
}

// Returns whether this value is a power of 2
func PowerOfTwo(val uint32) bool {
	return (val != 0) && (val&(val-1)) == 0x0
}

func AlignUpUInt32(x, align uint32) uint32 {
	if (x & (align - 1)) != 0 {
		return x&^(align-1) + align
	}
	return x
}

// Check if a exported name uses the valid accepted characters expected in
// mangled function names.
var validFuncNameRegex = regexp.MustCompile(`^[\pL\pN_\?@$\(\)<>~.:,* &=+\-!\[\]]+$`)

func validFuncName(name string) bool {
	return validFuncNameRegex.MatchString(name)
}

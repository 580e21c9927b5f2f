package pe

import (
	"encoding"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// GUID is a Windows GUID as stored in RSDS CodeView records.
type GUID struct {
	Data1 uint32
	Data2 uint16
	Data3 uint16
	Data4 [8]byte
}

var _ = (encoding.TextMarshaler)(GUID{})

// GuidFromWindowsArray decodes the mixed-endian Windows encoding.
func GuidFromWindowsArray(b [16]byte) GUID {
	var g GUID
	g.Data1 = binary.LittleEndian.Uint32(b[0:4])
	g.Data2 = binary.LittleEndian.Uint16(b[4:6])
	g.Data3 = binary.LittleEndian.Uint16(b[6:8])
	copy(g.Data4[:], b[8:16])
	return g
}

// ToString formats the GUID. The format can be "N", "D", "B" or "P"; an
// empty format means "D".
func (g GUID) ToString(format string) (string, error) {
	digits := fmt.Sprintf("%08x-%04x-%04x-%04x-%012x", g.Data1, g.Data2, g.Data3, g.Data4[:2], g.Data4[2:])
	switch format {
	case "", "D":
		return digits, nil
	case "N":
		return strings.ReplaceAll(digits, "-", ""), nil
	case "B":
		return "{" + digits + "}", nil
	case "P":
		return "(" + digits + ")", nil
	}
	return "", errors.Errorf("invalid GUID format %q", format)
}

func (g GUID) String() string {
	guidStr, _ := g.ToString("")
	return guidStr
}

// MarshalText returns the textual representation of the GUID.
func (g GUID) MarshalText() ([]byte, error) {
	return []byte(g.String()), nil
}

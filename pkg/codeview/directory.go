package codeview

import (
	"fmt"

	"github.com/pkg/errors"
)

// SubsectionType is the type tag of a subsection directory entry.
type SubsectionType uint16

const (
	SST_MODULE       SubsectionType = 0x120
	SST_TYPES        SubsectionType = 0x121
	SST_PUBLIC       SubsectionType = 0x122
	SST_PUBLIC_SYM   SubsectionType = 0x123
	SST_SYMBOLS      SubsectionType = 0x124
	SST_ALIGN_SYM    SubsectionType = 0x125
	SST_SRC_LN_SEG   SubsectionType = 0x126
	SST_SRC_MODULE   SubsectionType = 0x127
	SST_LIBRARIES    SubsectionType = 0x128
	SST_GLOBAL_SYM   SubsectionType = 0x129
	SST_GLOBAL_PUB   SubsectionType = 0x12a
	SST_GLOBAL_TYPES SubsectionType = 0x12b
	SST_MPC          SubsectionType = 0x12c
	SST_SEG_MAP      SubsectionType = 0x12d
	SST_SEG_NAME     SubsectionType = 0x12e
	SST_PRE_COMP     SubsectionType = 0x12f
	SST_PRE_COMP_MAP SubsectionType = 0x130
	SST_OFFSET_MAP16 SubsectionType = 0x131
	SST_OFFSET_MAP32 SubsectionType = 0x132
	SST_FILE_INDEX   SubsectionType = 0x133
	SST_STATIC_SYM   SubsectionType = 0x134
)

// ModuleIndependent is the module index of tables that belong to no module.
const ModuleIndependent = 0xffff

var subsectionNames = map[SubsectionType]string{
	SST_MODULE:       "sstModule",
	SST_TYPES:        "sstTypes",
	SST_PUBLIC:       "sstPublic",
	SST_PUBLIC_SYM:   "sstPublicSym",
	SST_SYMBOLS:      "sstSymbols",
	SST_ALIGN_SYM:    "sstAlignSym",
	SST_SRC_LN_SEG:   "sstSrcLnSeg",
	SST_SRC_MODULE:   "sstSrcModule",
	SST_LIBRARIES:    "sstLibraries",
	SST_GLOBAL_SYM:   "sstGlobalSym",
	SST_GLOBAL_PUB:   "sstGlobalPub",
	SST_GLOBAL_TYPES: "sstGlobalTypes",
	SST_MPC:          "sstMPC",
	SST_SEG_MAP:      "sstSegMap",
	SST_SEG_NAME:     "sstSegName",
	SST_PRE_COMP:     "sstPreComp",
	SST_PRE_COMP_MAP: "sstPreCompMap",
	SST_OFFSET_MAP16: "sstOffsetMap16",
	SST_OFFSET_MAP32: "sstOffsetMap32",
	SST_FILE_INDEX:   "sstFileIndex",
	SST_STATIC_SYM:   "sstStaticSym",
}

func (t SubsectionType) String() string {
	if name, ok := subsectionNames[t]; ok {
		return name
	}
	return fmt.Sprintf("sst(0x%x)", uint16(t))
}

// DirEntry is a decoded subsection directory entry. Offset is absolute.
type DirEntry struct {
	Type   SubsectionType
	Module uint16
	Offset int64
	Size   uint32
}

// SubsectionDirectory lists the subsections of NB11 debug info.
type SubsectionDirectory struct {
	vc     *VC50
	offset int64
	header dirHeader
}

func newSubsectionDirectory(vc *VC50, offset int64) (*SubsectionDirectory, error) {
	d := &SubsectionDirectory{vc: vc, offset: offset}
	if err := unpack(vc.src, offset, &d.header); err != nil {
		return nil, errors.WithMessage(err, "read subsection directory header")
	}
	return d, nil
}

func (d *SubsectionDirectory) HeaderLength() uint16 {
	return d.header.HeaderLength
}

func (d *SubsectionDirectory) EntryLength() uint16 {
	return d.header.EntryLength
}

func (d *SubsectionDirectory) NumEntries() int {
	return int(d.header.NumEntries)
}

// Entry decodes directory entry i without interpreting the subsection.
func (d *SubsectionDirectory) Entry(i int) (*DirEntry, error) {
	if i < 0 || i >= d.NumEntries() {
		return nil, indexError("subsection", i, d.NumEntries())
	}
	off := d.offset + int64(d.header.HeaderLength) + int64(i)*int64(d.header.EntryLength)
	var raw dirEntry
	if err := unpack(d.vc.src, off, &raw); err != nil {
		return nil, errors.WithMessagef(err, "read subsection directory entry %d", i)
	}
	return &DirEntry{
		Type:   SubsectionType(raw.Type),
		Module: raw.Module,
		Offset: d.vc.global(raw.LFO),
		Size:   raw.Size,
	}, nil
}

// Subsection decodes subsection i. sstPreCompMap entries yield nil.
func (d *SubsectionDirectory) Subsection(i int) (Subsection, error) {
	e, err := d.Entry(i)
	if err != nil {
		return nil, err
	}
	return d.vc.decode(*e)
}

// Subsections calls fn for every subsection in directory order until fn
// returns false. sstPreCompMap entries are skipped.
func (d *SubsectionDirectory) Subsections(fn func(i int, s Subsection) bool) error {
	for i := 0; i < d.NumEntries(); i++ {
		s, err := d.Subsection(i)
		if err != nil {
			return err
		}
		if s == nil {
			continue
		}
		if !fn(i, s) {
			return nil
		}
	}
	return nil
}

// Lookup returns every subsection of type t.
func (d *SubsectionDirectory) Lookup(t SubsectionType) ([]Subsection, error) {
	var found []Subsection
	for i := 0; i < d.NumEntries(); i++ {
		e, err := d.Entry(i)
		if err != nil {
			return nil, err
		}
		if e.Type != t {
			continue
		}
		s, err := d.vc.decode(*e)
		if err != nil {
			return nil, err
		}
		if s != nil {
			found = append(found, s)
		}
	}
	return found, nil
}

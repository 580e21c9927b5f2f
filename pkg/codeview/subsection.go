package codeview

import (
	"encoding/binary"
	"sync"

	"github.com/pkg/errors"
)

// Subsection is one decoded subsection directory entry. The concrete type
// is one of *Module, *SrcModule, *SymbolTable, *AlignSym, *GlobalTypes,
// *SegMap, *SegName, *FileIndex or *Opaque.
type Subsection interface {
	Type() SubsectionType
	// Module is the 1-based module index, or ModuleIndependent.
	Module() uint16
	Offset() int64
	Size() uint32

	isSubsection()
}

type subsection struct {
	vc    *VC50
	entry DirEntry
}

func (s *subsection) Type() SubsectionType { return s.entry.Type }
func (s *subsection) Module() uint16       { return s.entry.Module }
func (s *subsection) Offset() int64        { return s.entry.Offset }
func (s *subsection) Size() uint32         { return s.entry.Size }
func (s *subsection) isSubsection()        {}

// Opaque is a subsection whose contents are not decoded: sstTypes,
// sstPublic, sstPublicSym, sstSymbols, sstSrcLnSeg, sstLibraries, sstMPC,
// sstPreComp, sstOffsetMap16 and sstOffsetMap32.
type Opaque struct {
	subsection
}

// Data returns a copy of the subsection's bytes.
func (o *Opaque) Data() ([]byte, error) {
	return o.vc.src.BytesAt(o.entry.Offset, int(o.entry.Size))
}

func (v *VC50) decode(e DirEntry) (Subsection, error) {
	base := subsection{vc: v, entry: e}
	switch e.Type {
	case SST_MODULE:
		return newModule(base)
	case SST_SRC_MODULE:
		return newSrcModule(base)
	case SST_GLOBAL_SYM, SST_GLOBAL_PUB, SST_STATIC_SYM:
		return newSymbolTable(base)
	case SST_ALIGN_SYM:
		return &AlignSym{subsection: base}, nil
	case SST_GLOBAL_TYPES:
		return newGlobalTypes(base)
	case SST_SEG_MAP:
		return newSegMap(base)
	case SST_SEG_NAME:
		return &SegName{subsection: base}, nil
	case SST_FILE_INDEX:
		return newFileIndex(base)
	case SST_TYPES, SST_PUBLIC, SST_PUBLIC_SYM, SST_SYMBOLS, SST_SRC_LN_SEG,
		SST_LIBRARIES, SST_MPC, SST_PRE_COMP, SST_OFFSET_MAP16, SST_OFFSET_MAP32:
		return &Opaque{subsection: base}, nil
	case SST_PRE_COMP_MAP:
		return nil, nil
	default:
		return nil, errors.Wrapf(ErrUnknownSubsection, "type 0x%x at 0x%x", uint16(e.Type), e.Offset)
	}
}

// Module is an sstModule subsection.
type Module struct {
	subsection
	header moduleHeader
}

func newModule(base subsection) (*Module, error) {
	m := &Module{subsection: base}
	if err := unpack(base.vc.src, base.entry.Offset, &m.header); err != nil {
		return nil, errors.WithMessage(err, "read sstModule header")
	}
	return m, nil
}

func (m *Module) OverlayNumber() uint16 { return m.header.Overlay }
func (m *Module) LibraryIndex() uint16  { return m.header.Library }
func (m *Module) NumSegments() int      { return int(m.header.NumSegments) }

// Style is the debugging style tag, "CV" for CodeView.
func (m *Module) Style() string {
	return string(m.header.Style[:])
}

func (m *Module) SegInfo(i int) (*SegInfo, error) {
	if i < 0 || i >= m.NumSegments() {
		return nil, indexError("module segment", i, m.NumSegments())
	}
	var info SegInfo
	if err := unpack(m.vc.src, m.entry.Offset+8+int64(i)*12, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (m *Module) Name() (string, error) {
	return m.vc.src.PascalStringAt(m.entry.Offset + 8 + int64(m.NumSegments())*12)
}

// SymbolTable is one of the hashed symbol tables: sstGlobalSym,
// sstGlobalPub or sstStaticSym.
type SymbolTable struct {
	subsection
	header symbolTableHeader
}

const symbolTableHeaderSize = 16

func newSymbolTable(base subsection) (*SymbolTable, error) {
	t := &SymbolTable{subsection: base}
	if err := unpack(base.vc.src, base.entry.Offset, &t.header); err != nil {
		return nil, errors.WithMessagef(err, "read %s header", base.entry.Type)
	}
	return t, nil
}

func (t *SymbolTable) SymHashIndex() uint16  { return t.header.SymHash }
func (t *SymbolTable) AddrHashIndex() uint16 { return t.header.AddrHash }
func (t *SymbolTable) SymTabSize() uint32    { return t.header.CbSymbol }
func (t *SymbolTable) SymHashSize() uint32   { return t.header.CbSymHash }
func (t *SymbolTable) AddrHashSize() uint32  { return t.header.CbAddrHash }

func (t *SymbolTable) Symbols() (*SymbolIterator, error) {
	return newSymbolIterator(t.vc.src, t.entry.Offset+symbolTableHeaderSize, int64(t.header.CbSymbol))
}

// AlignSym is a module's sstAlignSym subsection.
type AlignSym struct {
	subsection
}

// Symbols iterates the module's symbols. A leading symbol-table signature is
// skipped; record pointers still count from the start of the subsection.
func (a *AlignSym) Symbols() (*SymbolIterator, error) {
	start := a.entry.Offset
	base, size := start, int64(a.entry.Size)
	if size >= 4 {
		first, err := a.vc.src.Uint32At(base)
		if err != nil {
			return nil, err
		}
		// A record starts with its length and a nonzero type, so anything
		// below 0x10000 is the signature.
		if first < 0x10000 {
			base += 4
			size -= 4
		}
	}
	return newSymbolIteratorAt(a.vc.src, base, size, start, base)
}

// GlobalTypes is the sstGlobalTypes subsection.
type GlobalTypes struct {
	subsection
	header globalTypesHeader

	offsets func() ([]int64, error)
}

func newGlobalTypes(base subsection) (*GlobalTypes, error) {
	g := &GlobalTypes{subsection: base}
	if err := unpack(base.vc.src, base.entry.Offset, &g.header); err != nil {
		return nil, errors.WithMessage(err, "read sstGlobalTypes header")
	}
	g.offsets = sync.OnceValues(g.loadOffsets)
	return g, nil
}

func (g *GlobalTypes) Flags() uint32 { return g.header.Flags }
func (g *GlobalTypes) NumTypes() int { return int(g.header.NumTypes) }

// loadOffsets reads the whole index-to-offset table.
func (g *GlobalTypes) loadOffsets() ([]int64, error) {
	n := int64(g.header.NumTypes)
	if 4*(n+2) > int64(g.entry.Size) {
		return nil, errors.Wrapf(ErrIndexOutOfRange, "%d type offsets do not fit in %d bytes", n, g.entry.Size)
	}
	raw, err := g.vc.src.BytesAt(g.entry.Offset+8, int(4*n))
	if err != nil {
		return nil, errors.WithMessage(err, "read type offsets")
	}
	first := g.firstType()
	offsets := make([]int64, n)
	for i := range offsets {
		offsets[i] = first + int64(binary.LittleEndian.Uint32(raw[4*i:]))
	}
	return offsets, nil
}

func (g *GlobalTypes) firstType() int64 {
	return g.entry.Offset + 4*(int64(g.header.NumTypes)+2)
}

// TypeOffset returns the absolute offset of type record i (0-based,
// unbiased).
func (g *GlobalTypes) TypeOffset(i int) (int64, error) {
	offsets, err := g.offsets()
	if err != nil {
		return 0, err
	}
	if i < 0 || i >= len(offsets) {
		return 0, indexError("type", i, len(offsets))
	}
	return offsets[i], nil
}

// Types iterates the type records from the first one.
func (g *GlobalTypes) Types() (*TypeIterator, error) {
	return newTypeIterator(g, 0, g.firstType())
}

// SegMap is the sstSegMap subsection.
type SegMap struct {
	subsection
	counts countsHeader
}

func newSegMap(base subsection) (*SegMap, error) {
	m := &SegMap{subsection: base}
	if err := unpack(base.vc.src, base.entry.Offset, &m.counts); err != nil {
		return nil, errors.WithMessage(err, "read sstSegMap header")
	}
	return m, nil
}

func (m *SegMap) NumSegDesc() int        { return int(m.counts.First) }
func (m *SegMap) NumLogicalSegDesc() int { return int(m.counts.Second) }

func (m *SegMap) SegDesc(i int) (*SegDesc, error) {
	if i < 0 || i >= m.NumSegDesc() {
		return nil, indexError("segment descriptor", i, m.NumSegDesc())
	}
	var d SegDesc
	if err := unpack(m.vc.src, m.entry.Offset+4+20*int64(i), &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// SegName is the sstSegName subsection, a block of NUL terminated names
// referenced from SegDesc by byte offset.
type SegName struct {
	subsection
}

// NameAt returns the name starting off bytes into the subsection.
func (n *SegName) NameAt(off uint16) (string, error) {
	if uint32(off) >= n.entry.Size {
		return "", indexError("segment name offset", int(off), int(n.entry.Size))
	}
	return n.vc.src.CStringAt(n.entry.Offset + int64(off))
}

// Names lists every name in the block.
func (n *SegName) Names() ([]string, error) {
	var names []string
	end := n.entry.Offset + int64(n.entry.Size)
	for pos := n.entry.Offset; pos < end; {
		name, size, err := n.vc.src.CStringSizeAt(pos)
		if err != nil {
			return nil, err
		}
		names = append(names, name)
		pos += size
	}
	return names, nil
}

// FileIndex is the sstFileIndex subsection. It maps modules to the source
// files that contribute to them.
type FileIndex struct {
	subsection
	counts countsHeader
}

func newFileIndex(base subsection) (*FileIndex, error) {
	f := &FileIndex{subsection: base}
	if err := unpack(base.vc.src, base.entry.Offset, &f.counts); err != nil {
		return nil, errors.WithMessage(err, "read sstFileIndex header")
	}
	return f, nil
}

func (f *FileIndex) NumModules() int    { return int(f.counts.First) }
func (f *FileIndex) NumReferences() int { return int(f.counts.Second) }

// ModuleStart is the first name reference of module i (0-based).
func (f *FileIndex) ModuleStart(i int) (uint16, error) {
	if i < 0 || i >= f.NumModules() {
		return 0, indexError("module", i, f.NumModules())
	}
	return f.vc.src.Uint16At(f.entry.Offset + 4 + 2*int64(i))
}

// ReferenceCount is the number of files module i (0-based) references.
func (f *FileIndex) ReferenceCount(i int) (uint16, error) {
	if i < 0 || i >= f.NumModules() {
		return 0, indexError("module", i, f.NumModules())
	}
	return f.vc.src.Uint16At(f.entry.Offset + 4 + 2*int64(f.NumModules()) + 2*int64(i))
}

// NameRef is entry i of the name reference table, an offset into the name
// block.
func (f *FileIndex) NameRef(i int) (uint32, error) {
	if i < 0 || i >= f.NumReferences() {
		return 0, indexError("name reference", i, f.NumReferences())
	}
	return f.vc.src.Uint32At(f.entry.Offset + 4 + 4*int64(f.NumModules()) + 4*int64(i))
}

func (f *FileIndex) namesOffset() int64 {
	return f.entry.Offset + 4 + 4*int64(f.NumModules()) + 4*int64(f.NumReferences())
}

// Name returns the file name for name reference i.
func (f *FileIndex) Name(i int) (string, error) {
	ref, err := f.NameRef(i)
	if err != nil {
		return "", err
	}
	return f.vc.src.PascalStringAt(f.namesOffset() + int64(ref))
}

// ModuleFileNames lists the files of module i (0-based).
func (f *FileIndex) ModuleFileNames(i int) ([]string, error) {
	start, err := f.ModuleStart(i)
	if err != nil {
		return nil, err
	}
	count, err := f.ReferenceCount(i)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, count)
	for j := 0; j < int(count); j++ {
		name, err := f.Name(int(start) + j)
		if err != nil {
			return nil, errors.WithMessagef(err, "module %d file %d", i, j)
		}
		names = append(names, name)
	}
	return names, nil
}

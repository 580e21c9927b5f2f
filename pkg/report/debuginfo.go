package report

import (
	"fmt"
	"text/tabwriter"

	"coffdbg/pkg/codeview"
	"coffdbg/pkg/log"
	"coffdbg/pkg/pe"

	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// Limits caps how many CodeView records BuildDebugInfo lists. A negative
// limit lists everything.
type Limits struct {
	MaxSymbols int
	MaxTypes   int
}

type DebugInfo struct {
	File     string        `yaml:"file"`
	Entries  []*DebugEntry `yaml:"entries"`
	CodeView *CodeView     `yaml:"codeview,omitempty"`
}

type DebugEntry struct {
	Type    string `yaml:"type"`
	Size    uint32 `yaml:"size"`
	RVA     uint32 `yaml:"rva"`
	Pointer uint32 `yaml:"pointer"`
	PDB     *PDB   `yaml:"pdb,omitempty"`
}

type PDB struct {
	Signature string `yaml:"signature"`
	GUID      string `yaml:"guid,omitempty"`
	Timestamp uint32 `yaml:"timestamp,omitempty"`
	Age       uint32 `yaml:"age"`
	Path      string `yaml:"path"`
	// Key is the symbol server directory for the PDB.
	Key string `yaml:"key"`
}

type CodeView struct {
	Offset      int64         `yaml:"offset"`
	Subsections []*Subsection `yaml:"subsections"`
	Symbols     []*Symbol     `yaml:"symbols,omitempty"`
	Types       []*Type       `yaml:"types,omitempty"`
}

type Subsection struct {
	Type   string `yaml:"type"`
	Module uint16 `yaml:"module"`
	Offset int64  `yaml:"offset"`
	Size   uint32 `yaml:"size"`
	Detail string `yaml:"detail,omitempty"`
}

type Symbol struct {
	Table  string `yaml:"table"`
	Kind   string `yaml:"kind"`
	Name   string `yaml:"name,omitempty"`
	Offset int64  `yaml:"offset"`
}

type Type struct {
	Index uint32 `yaml:"index"`
	Leaf  string `yaml:"leaf"`
	Name  string `yaml:"name,omitempty"`
}

// BuildDebugInfo lists the debug directory and, when present, summarizes the
// NB11 CodeView data it points at.
func BuildDebugInfo(f *pe.File, limits Limits) (*DebugInfo, error) {
	r := &DebugInfo{File: f.Filename}
	dd, err := f.DebugDirectory()
	if err != nil || dd == nil {
		return r, err
	}
	for i := 0; i < dd.NumEntries(); i++ {
		e, err := dd.Entry(i)
		if err != nil {
			return nil, err
		}
		entry := &DebugEntry{
			Type:    e.TypeName(),
			Size:    e.SizeOfData,
			RVA:     e.AddressOfRawData,
			Pointer: e.PointerToRawData,
		}
		info, err := e.PDBInfo()
		if err != nil {
			return nil, errors.WithMessagef(err, "debug directory entry %d", i)
		}
		if info != nil {
			entry.PDB = &PDB{
				Signature: info.Signature,
				Timestamp: info.Timestamp,
				Age:       info.Age,
				Path:      info.Path,
				Key:       info.SymbolServerKey(),
			}
			if info.Signature == "RSDS" {
				entry.PDB.GUID = info.GUID.String()
			}
		}
		r.Entries = append(r.Entries, entry)
	}

	vc, err := f.DebugVC50()
	if err != nil || vc == nil {
		return r, err
	}
	if r.CodeView, err = buildCodeView(vc, limits); err != nil {
		return nil, err
	}
	return r, nil
}

func buildCodeView(vc *codeview.VC50, limits Limits) (*CodeView, error) {
	dir, err := vc.SubsectionDirectory()
	if err != nil {
		return nil, err
	}
	cv := &CodeView{Offset: vc.Offset()}
	var walkErr error
	err = dir.Subsections(func(_ int, s codeview.Subsection) bool {
		info := &Subsection{Type: s.Type().String(), Module: s.Module(), Offset: s.Offset(), Size: s.Size()}
		cv.Subsections = append(cv.Subsections, info)

		switch s := s.(type) {
		case *codeview.Module:
			info.Detail, walkErr = s.Name()
		case *codeview.SrcModule:
			info.Detail = fmt.Sprintf("%d files, %d segments", s.NumSourceFiles(), s.NumCodeSegments())
		case *codeview.SymbolTable:
			walkErr = cv.addSymbols(info.Type, s.Symbols, limits.MaxSymbols)
		case *codeview.AlignSym:
			walkErr = cv.addSymbols(info.Type, s.Symbols, limits.MaxSymbols)
		case *codeview.GlobalTypes:
			info.Detail = fmt.Sprintf("%d types", s.NumTypes())
			walkErr = cv.addTypes(s, limits.MaxTypes)
		case *codeview.FileIndex:
			info.Detail = fmt.Sprintf("%d modules, %d file references", s.NumModules(), s.NumReferences())
		}
		return walkErr == nil
	})
	if err == nil {
		err = walkErr
	}
	if err != nil {
		return nil, err
	}
	return cv, nil
}

func full(n, limit int) bool {
	return limit >= 0 && n >= limit
}

func (cv *CodeView) addSymbols(table string, open func() (*codeview.SymbolIterator, error), limit int) error {
	it, err := open()
	if err != nil {
		return err
	}
	for !it.Done() && !full(len(cv.Symbols), limit) {
		name, err := it.Name()
		if err != nil {
			log.Warnln("%s symbol at 0x%x: %v", it.Type(), it.RecordOffset(), err)
		}
		cv.Symbols = append(cv.Symbols, &Symbol{Table: table, Kind: it.Type().String(), Name: name, Offset: it.RecordOffset()})
		if err := it.Next(); err != nil {
			return err
		}
	}
	return nil
}

func (cv *CodeView) addTypes(g *codeview.GlobalTypes, limit int) error {
	it, err := g.Types()
	if err != nil {
		return err
	}
	for !it.Done() && !full(len(cv.Types), limit) {
		name, err := typeName(it)
		if err != nil {
			log.Warnln("type 0x%x: %v", it.TypeIndex(), err)
		}
		cv.Types = append(cv.Types, &Type{Index: it.TypeIndex(), Leaf: it.Leaf().String(), Name: name})
		if err := it.Next(); err != nil {
			return err
		}
	}
	return nil
}

// typeName returns the name of the named type kinds.
func typeName(it *codeview.TypeIterator) (string, error) {
	switch it.Leaf() {
	case codeview.LF_CLASS, codeview.LF_STRUCTURE:
		return it.ClassName()
	case codeview.LF_UNION:
		return it.UnionName()
	case codeview.LF_ENUM:
		return it.EnumName()
	case codeview.LF_ARRAY:
		return it.ArrayName()
	}
	return "", nil
}

func (r *DebugInfo) writeText(w *tabwriter.Writer) {
	if len(r.Entries) == 0 {
		fmt.Fprintf(w, "%s: no debug directory\n", r.File)
		return
	}
	fmt.Fprintf(w, "type\tsize\trva\tpointer\tpdb\n")
	for _, e := range r.Entries {
		pdb := ""
		if e.PDB != nil {
			pdb = fmt.Sprintf("%s %s (%s)", e.PDB.Signature, e.PDB.Path, e.PDB.Key)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", e.Type, hex(e.Size), hex(e.RVA), hex(e.Pointer), pdb)
	}

	cv := r.CodeView
	if cv == nil {
		return
	}
	fmt.Fprintf(w, "\nNB11 debug info at %s\n", hex(cv.Offset))
	fmt.Fprintf(w, "subsection\tmodule\toffset\tsize\t\n")
	for _, s := range cv.Subsections {
		module := fmt.Sprint(s.Module)
		if s.Module == codeview.ModuleIndependent {
			module = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", s.Type, module, hex(s.Offset), hex(s.Size), s.Detail)
	}

	if len(cv.Symbols) > 0 {
		fmt.Fprintf(w, "\nsymbol\tkind\ttable\n")
		for _, s := range cv.Symbols {
			fmt.Fprintf(w, "%s\t%s\t%s\n", lo.Ternary(s.Name == "", "-", s.Name), s.Kind, s.Table)
		}
	}
	if len(cv.Types) > 0 {
		fmt.Fprintf(w, "\ntype\tleaf\tname\n")
		for _, t := range cv.Types {
			fmt.Fprintf(w, "%s\t%s\t%s\n", hex(t.Index), t.Leaf, t.Name)
		}
	}
}

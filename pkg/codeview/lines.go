package codeview

import (
	"github.com/pkg/errors"
)

// SrcModule is a module's sstSrcModule subsection: the source files that
// contribute code to the module and their line number tables.
type SrcModule struct {
	subsection
	counts countsHeader
}

func newSrcModule(base subsection) (*SrcModule, error) {
	m := &SrcModule{subsection: base}
	if err := unpack(base.vc.src, base.entry.Offset, &m.counts); err != nil {
		return nil, errors.WithMessage(err, "read sstSrcModule header")
	}
	return m, nil
}

func (m *SrcModule) NumSourceFiles() int  { return int(m.counts.First) }
func (m *SrcModule) NumCodeSegments() int { return int(m.counts.Second) }

// SourceFile decodes the descriptor of source file i.
func (m *SrcModule) SourceFile(i int) (*FileDesc, error) {
	if i < 0 || i >= m.NumSourceFiles() {
		return nil, indexError("source file", i, m.NumSourceFiles())
	}
	rel, err := m.vc.src.Uint32At(m.entry.Offset + 4 + 4*int64(i))
	if err != nil {
		return nil, err
	}
	f := &FileDesc{module: m, offset: m.entry.Offset + int64(rel)}
	if f.numSegments, err = m.vc.src.Uint16At(f.offset); err != nil {
		return nil, errors.WithMessagef(err, "read source file %d", i)
	}
	return f, nil
}

// SegmentStart and SegmentEnd bound the code the module contributes to its
// i-th segment.
func (m *SrcModule) SegmentStart(i int) (uint32, error) {
	return m.segmentBound(i, 0)
}

func (m *SrcModule) SegmentEnd(i int) (uint32, error) {
	return m.segmentBound(i, 4)
}

func (m *SrcModule) segmentBound(i int, k int64) (uint32, error) {
	if i < 0 || i >= m.NumCodeSegments() {
		return 0, indexError("code segment", i, m.NumCodeSegments())
	}
	return m.vc.src.Uint32At(m.entry.Offset + 4*(int64(m.NumSourceFiles())+1) + 8*int64(i) + k)
}

// Segment is the segment index of the module's i-th code segment.
func (m *SrcModule) Segment(i int) (uint16, error) {
	if i < 0 || i >= m.NumCodeSegments() {
		return 0, indexError("code segment", i, m.NumCodeSegments())
	}
	n := int64(m.NumSourceFiles())
	return m.vc.src.Uint16At(m.entry.Offset + 4*(n+1) + 8*int64(m.NumCodeSegments()) + 2*int64(i))
}

// SourceLine is a resolved code address.
type SourceLine struct {
	File string
	Line uint16
	// Offset is the start of the line's code, at or below the queried offset.
	Offset uint32
}

// LineForOffset finds the source line covering segment:offset. It returns
// nil when no line table of the module covers the address.
func (m *SrcModule) LineForOffset(segment uint16, offset uint32) (*SourceLine, error) {
	var best *SourceLine
	var bestFile *FileDesc
	for i := 0; i < m.NumSourceFiles(); i++ {
		f, err := m.SourceFile(i)
		if err != nil {
			return nil, err
		}
		for j := 0; j < f.NumCodeSegments(); j++ {
			start, end, err := f.SegmentRange(j)
			if err != nil {
				return nil, err
			}
			if offset < start || offset > end {
				continue
			}
			lm, err := f.LineNumberMap(j)
			if err != nil {
				return nil, err
			}
			if lm.Segment() != segment {
				continue
			}
			line, at, ok, err := lm.lineFor(offset)
			if err != nil {
				return nil, err
			}
			if ok && (best == nil || at > best.Offset) {
				best = &SourceLine{Line: line, Offset: at}
				bestFile = f
			}
		}
	}
	if best == nil {
		return nil, nil
	}
	name, err := bestFile.Name()
	if err != nil {
		return nil, err
	}
	best.File = name
	return best, nil
}

// FileDesc describes one source file of an sstSrcModule subsection.
type FileDesc struct {
	module      *SrcModule
	offset      int64
	numSegments uint16
}

func (f *FileDesc) Offset() int64 {
	return f.offset
}

func (f *FileDesc) NumCodeSegments() int {
	return int(f.numSegments)
}

// LineNumberMap decodes the line table for the file's i-th code segment.
func (f *FileDesc) LineNumberMap(i int) (*LineNumberMap, error) {
	if i < 0 || i >= f.NumCodeSegments() {
		return nil, indexError("file code segment", i, f.NumCodeSegments())
	}
	src := f.module.vc.src
	rel, err := src.Uint32At(f.offset + 4 + 4*int64(i))
	if err != nil {
		return nil, err
	}
	lm := &LineNumberMap{module: f.module, offset: f.module.entry.Offset + int64(rel)}
	if err := unpack(src, lm.offset, &lm.counts); err != nil {
		return nil, errors.WithMessage(err, "read line number map")
	}
	return lm, nil
}

// SegmentRange returns the code range of the file's i-th segment.
func (f *FileDesc) SegmentRange(i int) (start, end uint32, err error) {
	if i < 0 || i >= f.NumCodeSegments() {
		return 0, 0, indexError("file code segment", i, f.NumCodeSegments())
	}
	src := f.module.vc.src
	at := f.offset + 4*(int64(f.numSegments)+1) + 8*int64(i)
	if start, err = src.Uint32At(at); err != nil {
		return 0, 0, err
	}
	if end, err = src.Uint32At(at + 4); err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

// Name is the source file name. It is stored with a one byte length.
func (f *FileDesc) Name() (string, error) {
	return f.module.vc.src.PascalStringAt(f.offset + 4 + 12*int64(f.numSegments))
}

// LineNumberMap pairs code offsets with line numbers for one segment.
type LineNumberMap struct {
	module *SrcModule
	offset int64
	counts countsHeader
}

func (lm *LineNumberMap) Segment() uint16 { return lm.counts.First }
func (lm *LineNumberMap) NumPairs() int   { return int(lm.counts.Second) }

func (lm *LineNumberMap) CodeOffset(i int) (uint32, error) {
	if i < 0 || i >= lm.NumPairs() {
		return 0, indexError("line pair", i, lm.NumPairs())
	}
	return lm.module.vc.src.Uint32At(lm.offset + 4 + 4*int64(i))
}

func (lm *LineNumberMap) LineNumber(i int) (uint16, error) {
	if i < 0 || i >= lm.NumPairs() {
		return 0, indexError("line pair", i, lm.NumPairs())
	}
	return lm.module.vc.src.Uint16At(lm.offset + 4*(int64(lm.NumPairs())+1) + 2*int64(i))
}

// lineFor returns the pair with the greatest code offset not above offset.
func (lm *LineNumberMap) lineFor(offset uint32) (line uint16, at uint32, ok bool, err error) {
	best := -1
	for i := 0; i < lm.NumPairs(); i++ {
		o, err := lm.CodeOffset(i)
		if err != nil {
			return 0, 0, false, err
		}
		if o <= offset && (best < 0 || o >= at) {
			best, at = i, o
		}
	}
	if best < 0 {
		return 0, 0, false, nil
	}
	if line, err = lm.LineNumber(best); err != nil {
		return 0, 0, false, err
	}
	return line, at, true, nil
}

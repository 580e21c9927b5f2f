package pe

import (
	"fmt"
	"strings"

	"coffdbg/pkg/codeview"

	"github.com/pkg/errors"
)

// DebugDirectory is the array of 28 byte debug descriptors.
type DebugDirectory struct {
	file       *File
	fileOffset int64
	size       uint32
	numEntries int
}

func newDebugDirectory(f *File, fileOffset int64, size uint32) (*DebugDirectory, error) {
	if size%IMAGE_SIZEOF_DEBUG_DIRECTORY != 0 {
		return nil, errors.Wrapf(ErrFormat, "corrupt debug directory at offset 0x%x (size %d)", fileOffset, size)
	}
	return &DebugDirectory{
		file:       f,
		fileOffset: fileOffset,
		size:       size,
		numEntries: int(size / IMAGE_SIZEOF_DEBUG_DIRECTORY),
	}, nil
}

func (d *DebugDirectory) NumEntries() int {
	return d.numEntries
}

func (d *DebugDirectory) Entry(i int) (*DebugDirectoryEntry, error) {
	if i < 0 || i >= d.numEntries {
		return nil, indexError("debug directory entry", i, d.numEntries)
	}
	e := &DebugDirectoryEntry{
		file:       d.file,
		fileOffset: d.fileOffset + int64(i)*IMAGE_SIZEOF_DEBUG_DIRECTORY,
	}
	if err := d.file.src.ReadStructAt(e.fileOffset, &e.ImageDebugDirectory); err != nil {
		return nil, errors.WithMessagef(err, "read debug directory entry %d", i)
	}
	return e, nil
}

type DebugDirectoryEntry struct {
	ImageDebugDirectory

	file       *File
	fileOffset int64
}

func (e *DebugDirectoryEntry) String() string {
	return structString(e.fileOffset, "IMAGE_DEBUG_DIRECTORY", e.ImageDebugDirectory)
}

// TypeName returns the symbolic debug type.
func (e *DebugDirectoryEntry) TypeName() string {
	if name, ok := DebugTypes[e.Type]; ok {
		return name
	}
	return fmt.Sprintf("0x%x", e.Type)
}

// RawDataByte returns byte i of the entry's data.
func (e *DebugDirectoryEntry) RawDataByte(i int) (byte, error) {
	if i < 0 || i >= int(e.SizeOfData) {
		return 0, indexError("debug data byte", i, int(e.SizeOfData))
	}
	return e.file.src.Uint8At(int64(e.PointerToRawData) + int64(i))
}

// RawData returns a copy of the entry's data.
func (e *DebugDirectoryEntry) RawData() ([]byte, error) {
	return e.file.src.BytesAt(int64(e.PointerToRawData), int(e.SizeOfData))
}

// VC50Offset reports where the entry's NB11 CodeView data starts, if the
// entry carries any.
func (e *DebugDirectoryEntry) VC50Offset() (int64, bool) {
	if e.Type != IMAGE_DEBUG_TYPE_CODEVIEW {
		return 0, false
	}
	offset := int64(e.PointerToRawData)
	if !codeview.HasSignature(e.file.src, offset) {
		return 0, false
	}
	return offset, true
}

// DebugVC50 opens the entry's CodeView NB11 data. Entries of another type
// or with another signature yield nil.
func (e *DebugDirectoryEntry) DebugVC50() (*codeview.VC50, error) {
	offset, ok := e.VC50Offset()
	if !ok {
		return nil, nil
	}
	return codeview.New(e.file.src, offset)
}

// PDBInfo describes an external program database referenced by a CodeView
// entry.
type PDBInfo struct {
	Signature string
	GUID      GUID
	Timestamp uint32
	Age       uint32
	Path      string
}

// SymbolServerKey is the directory name a symbol server files the PDB under.
func (p *PDBInfo) SymbolServerKey() string {
	if p.Signature == "RSDS" {
		guid, _ := p.GUID.ToString("N")
		return strings.ToUpper(guid) + fmt.Sprintf("%X", p.Age)
	}
	return fmt.Sprintf("%08X%X", p.Timestamp, p.Age)
}

// PDBInfo decodes RSDS (PDB 7.0) and NB10 (PDB 2.0) CodeView records. Other
// entries yield nil.
func (e *DebugDirectoryEntry) PDBInfo() (*PDBInfo, error) {
	if e.Type != IMAGE_DEBUG_TYPE_CODEVIEW || e.SizeOfData < 4 {
		return nil, nil
	}
	offset := int64(e.PointerToRawData)
	signature, err := e.file.src.Uint32At(offset)
	if err != nil {
		return nil, err
	}

	switch signature {
	case CV_PDB_70_SIGNATURE:
		var cvInfoPdb CvInfoPdb70
		if err = e.file.src.ReadStructAt(offset, &cvInfoPdb); err != nil {
			return nil, errors.WithMessage(err, "corrupt PDB 7.0 data")
		}
		path, err := e.file.src.CStringAt(offset + 24)
		if err != nil {
			return nil, errors.WithMessage(err, "PDB 7.0 file name")
		}
		return &PDBInfo{
			Signature: "RSDS",
			GUID:      GuidFromWindowsArray(cvInfoPdb.Signature),
			Age:       cvInfoPdb.Age,
			Path:      path,
		}, nil

	case CV_PDB_20_SIGNATURE:
		var cvInfoPdb CvInfoPdb20
		if err = e.file.src.ReadStructAt(offset, &cvInfoPdb); err != nil {
			return nil, errors.WithMessage(err, "corrupt PDB 2.0 data")
		}
		path, err := e.file.src.CStringAt(offset + 16)
		if err != nil {
			return nil, errors.WithMessage(err, "PDB 2.0 file name")
		}
		return &PDBInfo{
			Signature: "NB10",
			Timestamp: cvInfoPdb.Signature,
			Age:       cvInfoPdb.Age,
			Path:      path,
		}, nil
	}
	return nil, nil
}

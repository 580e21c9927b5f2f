package pe

import (
	"sync"

	"coffdbg/pkg/log"

	"github.com/pkg/errors"
)

// ExportDirectoryTable is the DLL export table. Only the fixed header is
// decoded up front; the name, ordinal and address tables are read on first
// use and cached.
type ExportDirectoryTable struct {
	ImageExportDirectory

	file             *File
	fileOffset       int64
	exportDataDirRVA uint32
	size             uint32

	dllName      func() (string, error)
	namePointers func() ([]int64, error)
	ordinals     func() ([]uint16, error)
	addresses    func() ([]uint32, error)
	names        sync.Map
}

// Export is one named entry of the export table.
type Export struct {
	Name      string
	Ordinal   uint32
	Address   uint32
	Forwarder string
}

func newExportDirectoryTable(f *File, rva, size uint32) (*ExportDirectoryTable, error) {
	offset, err := f.header.RVAToFileOffset(rva)
	if err != nil {
		return nil, errors.WithMessage(err, "locate export directory")
	}
	e := &ExportDirectoryTable{
		file:             f,
		fileOffset:       offset,
		exportDataDirRVA: rva,
		size:             size,
	}
	if err = f.src.ReadStructAt(offset, &e.ImageExportDirectory); err != nil {
		return nil, errors.WithMessage(err, "read export directory")
	}

	e.dllName = sync.OnceValues(func() (string, error) {
		return e.stringAtRVA(e.Name)
	})
	e.namePointers = sync.OnceValues(e.loadNamePointers)
	e.ordinals = sync.OnceValues(e.loadOrdinals)
	e.addresses = sync.OnceValues(e.loadAddresses)
	return e, nil
}

func (e *ExportDirectoryTable) String() string {
	return structString(e.fileOffset, "IMAGE_EXPORT_DIRECTORY", e.ImageExportDirectory)
}

func (e *ExportDirectoryTable) stringAtRVA(rva uint32) (string, error) {
	offset, err := e.file.header.RVAToFileOffset(rva)
	if err != nil {
		return "", err
	}
	return e.file.src.CStringAt(offset)
}

func (e *ExportDirectoryTable) readTable(rva uint32, count uint32, width int64, what string) (int64, error) {
	offset, err := e.file.header.RVAToFileOffset(rva)
	if err != nil {
		return 0, errors.WithMessagef(err, "RVA %s in the export directory points to an invalid address: 0x%x", what, rva)
	}
	if end := offset + int64(count)*width; end > e.file.src.Len() {
		return 0, errors.Wrapf(ErrFormat, "%s table of %d entries at 0x%x runs past the end of the file", what, count, offset)
	}
	return offset, nil
}

func (e *ExportDirectoryTable) loadNamePointers() ([]int64, error) {
	offset, err := e.readTable(e.AddressOfNames, e.NumberOfNames, 4, "AddressOfNames")
	if err != nil {
		return nil, err
	}
	rvas := make([]uint32, e.NumberOfNames)
	for i := range rvas {
		if rvas[i], err = e.file.src.Uint32At(offset + int64(i)*4); err != nil {
			return nil, err
		}
	}
	pointers := make([]int64, len(rvas))
	for i, rva := range rvas {
		if pointers[i], err = e.file.header.RVAToFileOffset(rva); err != nil {
			return nil, errors.WithMessagef(err, "export name %d", i)
		}
	}
	return pointers, nil
}

func (e *ExportDirectoryTable) loadOrdinals() ([]uint16, error) {
	// There is one ordinal per name pointer.
	offset, err := e.readTable(e.AddressOfNameOrdinals, e.NumberOfNames, 2, "AddressOfNameOrdinals")
	if err != nil {
		return nil, err
	}
	ordinals := make([]uint16, e.NumberOfNames)
	for i := range ordinals {
		if ordinals[i], err = e.file.src.Uint16At(offset + int64(i)*2); err != nil {
			return nil, err
		}
	}
	return ordinals, nil
}

func (e *ExportDirectoryTable) loadAddresses() ([]uint32, error) {
	// Entries are either export RVAs or forwarder RVAs; neither is
	// translated here.
	offset, err := e.readTable(e.AddressOfFunctions, e.NumberOfFunctions, 4, "AddressOfFunctions")
	if err != nil {
		return nil, err
	}
	addresses := make([]uint32, e.NumberOfFunctions)
	for i := range addresses {
		if addresses[i], err = e.file.src.Uint32At(offset + int64(i)*4); err != nil {
			return nil, err
		}
	}
	return addresses, nil
}

// DLLName returns the name the DLL was linked as.
func (e *ExportDirectoryTable) DLLName() (string, error) {
	return e.dllName()
}

// ExportName returns the i-th entry of the name pointer table.
func (e *ExportDirectoryTable) ExportName(i int) (string, error) {
	pointers, err := e.namePointers()
	if err != nil {
		return "", err
	}
	if i < 0 || i >= len(pointers) {
		return "", indexError("export name", i, len(pointers))
	}
	if name, ok := e.names.Load(i); ok {
		return name.(string), nil
	}
	name, err := e.file.src.CStringAt(pointers[i])
	if err != nil {
		return "", err
	}
	e.names.Store(i, name)
	return name, nil
}

// ExportOrdinal returns the i-th entry of the ordinal table, an index into
// the export address table.
func (e *ExportDirectoryTable) ExportOrdinal(i int) (uint16, error) {
	ordinals, err := e.ordinals()
	if err != nil {
		return 0, err
	}
	if i < 0 || i >= len(ordinals) {
		return 0, indexError("export ordinal", i, len(ordinals))
	}
	return ordinals[i], nil
}

// ExportAddress indexes the export address table directly with ordinal.
// The ordinal base is not subtracted: the ordinal table already stores
// unbiased indices.
func (e *ExportDirectoryTable) ExportAddress(ordinal uint16) (uint32, error) {
	addresses, err := e.addresses()
	if err != nil {
		return 0, err
	}
	if int(ordinal) >= len(addresses) {
		return 0, indexError("export address", int(ordinal), len(addresses))
	}
	return addresses[ordinal], nil
}

// IsExportAddressForwarder reports whether the address for ordinal falls
// inside the export data directory's own RVA range.
func (e *ExportDirectoryTable) IsExportAddressForwarder(ordinal uint16) (bool, error) {
	addr, err := e.ExportAddress(ordinal)
	if err != nil {
		return false, err
	}
	return e.exportDataDirRVA <= addr && uint64(addr) < uint64(e.exportDataDirRVA)+uint64(e.size), nil
}

// ExportAddressForwarder returns the "DLL.Symbol" string an export forwards
// to.
func (e *ExportDirectoryTable) ExportAddressForwarder(ordinal uint16) (string, error) {
	addr, err := e.ExportAddress(ordinal)
	if err != nil {
		return "", err
	}
	return e.stringAtRVA(addr)
}

// Exports resolves every named export.
func (e *ExportDirectoryTable) Exports() ([]Export, error) {
	exports := make([]Export, 0, e.NumberOfNames)
	for i := 0; i < int(e.NumberOfNames); i++ {
		name, err := e.ExportName(i)
		if err != nil {
			return nil, err
		}
		if !validFuncName(name) {
			log.Warnln("export %d has a suspicious name %q", i, name)
		}
		ordinal, err := e.ExportOrdinal(i)
		if err != nil {
			return nil, err
		}
		addr, err := e.ExportAddress(ordinal)
		if err != nil {
			return nil, err
		}
		exp := Export{Name: name, Ordinal: e.Base + uint32(ordinal), Address: addr}
		forwarder, err := e.IsExportAddressForwarder(ordinal)
		if err != nil {
			return nil, err
		}
		if forwarder {
			if exp.Forwarder, err = e.ExportAddressForwarder(ordinal); err != nil {
				return nil, err
			}
		}
		exports = append(exports, exp)
	}
	return exports, nil
}

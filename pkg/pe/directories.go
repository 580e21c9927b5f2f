package pe

import (
	"sync"

	"github.com/pkg/errors"
)

type DataDirectory struct {
	ImageDataDirectory

	Name  string
	Index int

	fileOffset int64
}

func (d *DataDirectory) String() string {
	return structString(d.fileOffset, d.Name, d.ImageDataDirectory)
}

// Empty reports whether the directory has no RVA or no size.
func (d *DataDirectory) Empty() bool {
	return d.VirtualAddress == 0 || d.Size == 0
}

// DataDirectories is the (RVA, size) array at the end of the optional
// header. Only NumberOfRvaAndSizes entries exist.
type DataDirectories struct {
	file       *File
	fileOffset int64
	declared   uint32
	count      int

	exportDirectoryTable func() (*ExportDirectoryTable, error)
	debugDirectory       func() (*DebugDirectory, error)
}

func newDataDirectories(f *File, fileOffset int64, declared uint32) *DataDirectories {
	d := &DataDirectories{
		file:       f,
		fileOffset: fileOffset,
		declared:   declared,
		count:      int(MinUInt32(declared, IMAGE_NUMBEROF_DIRECTORY_ENTRIES)),
	}
	d.exportDirectoryTable = sync.OnceValues(d.loadExportDirectoryTable)
	d.debugDirectory = sync.OnceValues(d.loadDebugDirectory)
	return d
}

// Len returns the number of directories that may be requested.
func (d *DataDirectories) Len() int {
	return d.count
}

// Directory returns directory i, or ErrDirectoryUnavailable if the header
// declares fewer than i+1 directories.
func (d *DataDirectories) Directory(i int) (*DataDirectory, error) {
	if i < 0 || i >= d.count {
		return nil, errors.Wrapf(ErrDirectoryUnavailable, "directory %d unavailable (only %d tables present)", i, d.declared)
	}
	dir := &DataDirectory{
		Name:       DirectoryEntryTypes[i],
		Index:      i,
		fileOffset: d.fileOffset + int64(i)*IMAGE_SIZEOF_DATA_DIRECTORY,
	}
	if err := d.file.src.ReadStructAt(dir.fileOffset, &dir.ImageDataDirectory); err != nil {
		return nil, errors.WithMessagef(err, "read data directory %d", i)
	}
	return dir, nil
}

func (d *DataDirectories) ExportTable() (*DataDirectory, error) {
	return d.Directory(IMAGE_DIRECTORY_ENTRY_EXPORT)
}

func (d *DataDirectories) ImportTable() (*DataDirectory, error) {
	return d.Directory(IMAGE_DIRECTORY_ENTRY_IMPORT)
}

func (d *DataDirectories) ResourceTable() (*DataDirectory, error) {
	return d.Directory(IMAGE_DIRECTORY_ENTRY_RESOURCE)
}

func (d *DataDirectories) ExceptionTable() (*DataDirectory, error) {
	return d.Directory(IMAGE_DIRECTORY_ENTRY_EXCEPTION)
}

func (d *DataDirectories) CertificateTable() (*DataDirectory, error) {
	return d.Directory(IMAGE_DIRECTORY_ENTRY_SECURITY)
}

func (d *DataDirectories) BaseRelocationTable() (*DataDirectory, error) {
	return d.Directory(IMAGE_DIRECTORY_ENTRY_BASERELOC)
}

func (d *DataDirectories) Debug() (*DataDirectory, error) {
	return d.Directory(IMAGE_DIRECTORY_ENTRY_DEBUG)
}

func (d *DataDirectories) Architecture() (*DataDirectory, error) {
	return d.Directory(IMAGE_DIRECTORY_ENTRY_ARCHITECTURE)
}

func (d *DataDirectories) GlobalPtr() (*DataDirectory, error) {
	return d.Directory(IMAGE_DIRECTORY_ENTRY_GLOBALPTR)
}

func (d *DataDirectories) TLSTable() (*DataDirectory, error) {
	return d.Directory(IMAGE_DIRECTORY_ENTRY_TLS)
}

func (d *DataDirectories) LoadConfigTable() (*DataDirectory, error) {
	return d.Directory(IMAGE_DIRECTORY_ENTRY_LOAD_CONFIG)
}

func (d *DataDirectories) BoundImportTable() (*DataDirectory, error) {
	return d.Directory(IMAGE_DIRECTORY_ENTRY_BOUND_IMPORT)
}

func (d *DataDirectories) ImportAddressTable() (*DataDirectory, error) {
	return d.Directory(IMAGE_DIRECTORY_ENTRY_IAT)
}

func (d *DataDirectories) DelayImportDescriptor() (*DataDirectory, error) {
	return d.Directory(IMAGE_DIRECTORY_ENTRY_DELAY_IMPORT)
}

func (d *DataDirectories) CLRRuntimeHeader() (*DataDirectory, error) {
	return d.Directory(IMAGE_DIRECTORY_ENTRY_COM_DESCRIPTOR)
}

// ExportDirectoryTable returns nil when the export directory is empty.
func (d *DataDirectories) ExportDirectoryTable() (*ExportDirectoryTable, error) {
	return d.exportDirectoryTable()
}

func (d *DataDirectories) loadExportDirectoryTable() (*ExportDirectoryTable, error) {
	dir, err := d.ExportTable()
	if err != nil {
		return nil, err
	}
	if dir.Empty() {
		return nil, nil
	}
	return newExportDirectoryTable(d.file, dir.VirtualAddress, dir.Size)
}

// DebugDirectory returns nil when the debug directory is empty.
func (d *DataDirectories) DebugDirectory() (*DebugDirectory, error) {
	return d.debugDirectory()
}

func (d *DataDirectories) loadDebugDirectory() (*DebugDirectory, error) {
	dir, err := d.Debug()
	if err != nil {
		return nil, err
	}
	if dir.Empty() {
		return nil, nil
	}
	offset, err := d.file.header.RVAToFileOffset(dir.VirtualAddress)
	if err != nil {
		return nil, errors.WithMessage(err, "locate debug directory")
	}
	return newDebugDirectory(d.file, offset, dir.Size)
}

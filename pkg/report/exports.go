package report

import (
	"fmt"
	"text/tabwriter"

	"coffdbg/pkg/pe"

	"github.com/samber/lo"
)

type Exports struct {
	File    string    `yaml:"file"`
	DLL     string    `yaml:"dll,omitempty"`
	Base    uint32    `yaml:"ordinal_base"`
	Exports []*Export `yaml:"exports"`
}

type Export struct {
	Ordinal   uint32 `yaml:"ordinal"`
	Name      string `yaml:"name"`
	Address   uint32 `yaml:"rva"`
	Forwarder string `yaml:"forwarder,omitempty"`
}

// BuildExports lists the named exports of an image. Files without an
// export directory produce an empty list.
func BuildExports(f *pe.File) (*Exports, error) {
	r := &Exports{File: f.Filename}
	table, err := exportTable(f)
	if err != nil || table == nil {
		return r, err
	}
	if r.DLL, err = table.DLLName(); err != nil {
		return nil, err
	}
	r.Base = table.Base

	exports, err := table.Exports()
	if err != nil {
		return nil, err
	}
	r.Exports = lo.Map(exports, func(e pe.Export, _ int) *Export {
		return &Export{Ordinal: e.Ordinal, Name: e.Name, Address: e.Address, Forwarder: e.Forwarder}
	})
	return r, nil
}

func exportTable(f *pe.File) (*pe.ExportDirectoryTable, error) {
	opt, err := f.Header().OptionalHeader()
	if err != nil || opt == nil {
		return nil, err
	}
	dirs, err := opt.DataDirectories()
	if err != nil {
		return nil, err
	}
	if dirs.Len() <= pe.IMAGE_DIRECTORY_ENTRY_EXPORT {
		return nil, nil
	}
	return dirs.ExportDirectoryTable()
}

// Forwarders returns the exports that forward to another DLL.
func (r *Exports) Forwarders() []*Export {
	return lo.Filter(r.Exports, func(e *Export, _ int) bool {
		return e.Forwarder != ""
	})
}

func (r *Exports) writeText(w *tabwriter.Writer) {
	if r.DLL == "" {
		fmt.Fprintf(w, "%s: no exports\n", r.File)
		return
	}
	fmt.Fprintf(w, "%s exports %d names (%d forwarded), ordinal base %d\n",
		r.DLL, len(r.Exports), len(r.Forwarders()), r.Base)
	fmt.Fprintf(w, "ordinal\trva\tname\n")
	for _, e := range r.Exports {
		if e.Forwarder != "" {
			fmt.Fprintf(w, "%d\t\t%s -> %s\n", e.Ordinal, e.Name, e.Forwarder)
			continue
		}
		fmt.Fprintf(w, "%d\t%s\t%s\n", e.Ordinal, hex(e.Address), e.Name)
	}
}

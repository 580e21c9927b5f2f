package report

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"coffdbg/pkg/pe"

	"github.com/samber/lo"
)

type Headers struct {
	File            string     `yaml:"file"`
	Image           bool       `yaml:"image"`
	Machine         string     `yaml:"machine"`
	TimeDateStamp   uint32     `yaml:"timestamp"`
	Characteristics []string   `yaml:"characteristics,flow"`
	Symbols         uint32     `yaml:"symbols"`
	Strings         int        `yaml:"strings"`
	Optional        *Optional  `yaml:"optional,omitempty"`
	Sections        []*Section `yaml:"sections"`
}

type Optional struct {
	Magic               string       `yaml:"magic"`
	EntryPoint          uint32       `yaml:"entry_point"`
	ImageBase           uint64       `yaml:"image_base"`
	SectionAlignment    uint32       `yaml:"section_alignment"`
	FileAlignment       uint32       `yaml:"file_alignment"`
	SizeOfImage         uint32       `yaml:"size_of_image"`
	Subsystem           uint16       `yaml:"subsystem"`
	DllCharacteristics  []string     `yaml:"dll_characteristics,flow"`
	NumberOfRvaAndSizes uint32       `yaml:"number_of_rva_and_sizes"`
	Directories         []*Directory `yaml:"directories,omitempty"`
}

type Directory struct {
	Name           string `yaml:"name"`
	VirtualAddress uint32 `yaml:"rva"`
	Size           uint32 `yaml:"size"`
}

type Section struct {
	Index           int      `yaml:"index"`
	Name            string   `yaml:"name"`
	VirtualAddress  uint32   `yaml:"rva"`
	VirtualSize     uint32   `yaml:"virtual_size"`
	RawPointer      uint32   `yaml:"raw_pointer"`
	RawSize         uint32   `yaml:"raw_size"`
	Characteristics []string `yaml:"characteristics,flow"`
}

// BuildHeaders summarizes the COFF header, optional header and section
// table. Only non-empty data directories are listed.
func BuildHeaders(f *pe.File) (*Headers, error) {
	h := f.Header()
	numStrings, err := h.NumberOfStrings()
	if err != nil {
		return nil, err
	}
	sections, err := h.Sections()
	if err != nil {
		return nil, err
	}

	r := &Headers{
		File:            f.Filename,
		Image:           f.IsImage(),
		Machine:         h.MachineName(),
		TimeDateStamp:   h.TimeDateStamp,
		Characteristics: pe.FlagNames(pe.ImageCharacteristics, uint32(h.Characteristics)),
		Symbols:         h.NumberOfSymbols,
		Strings:         numStrings,
		Sections: lo.Map(sections, func(s *pe.SectionHeader, _ int) *Section {
			return &Section{
				Index:           s.Index,
				Name:            s.Name,
				VirtualAddress:  s.VirtualAddress,
				VirtualSize:     s.VirtualSize,
				RawPointer:      s.PointerToRawData,
				RawSize:         s.SizeOfRawData,
				Characteristics: pe.FlagNames(pe.SectionCharacteristics, s.Characteristics),
			}
		}),
	}

	opt, err := h.OptionalHeader()
	if err != nil || opt == nil {
		return r, err
	}
	if r.Optional, err = buildOptional(opt); err != nil {
		return nil, err
	}
	return r, nil
}

func buildOptional(opt *pe.OptionalHeader) (*Optional, error) {
	std, err := opt.StandardFields()
	if err != nil {
		return nil, err
	}
	w, err := opt.WindowsSpecificFields()
	if err != nil {
		return nil, err
	}
	dirs, err := opt.DataDirectories()
	if err != nil {
		return nil, err
	}

	o := &Optional{
		Magic:               magicName(opt),
		EntryPoint:          std.AddressOfEntryPoint,
		ImageBase:           w.ImageBase,
		SectionAlignment:    w.SectionAlignment,
		FileAlignment:       w.FileAlignment,
		SizeOfImage:         w.SizeOfImage,
		Subsystem:           w.Subsystem,
		DllCharacteristics:  pe.FlagNames(pe.DllCharacteristics, uint32(w.DllCharacteristics)),
		NumberOfRvaAndSizes: w.NumberOfRvaAndSizes,
	}
	for i := 0; i < dirs.Len(); i++ {
		d, err := dirs.Directory(i)
		if err != nil {
			return nil, err
		}
		if !d.Empty() {
			o.Directories = append(o.Directories, &Directory{Name: d.Name, VirtualAddress: d.VirtualAddress, Size: d.Size})
		}
	}
	return o, nil
}

func magicName(opt *pe.OptionalHeader) string {
	switch {
	case opt.IsPE32Plus():
		return "PE32+"
	case opt.IsROM():
		return "ROM"
	case opt.Magic == pe.IMAGE_NT_OPTIONAL_HDR32_MAGIC:
		return "PE32"
	}
	return hex(opt.Magic)
}

func (r *Headers) writeText(w *tabwriter.Writer) {
	kind := "object"
	if r.Image {
		kind = "image"
	}
	fmt.Fprintf(w, "file:\t%s (%s)\n", r.File, kind)
	fmt.Fprintf(w, "machine:\t%s\n", r.Machine)
	fmt.Fprintf(w, "timestamp:\t%s\n", hex(r.TimeDateStamp))
	fmt.Fprintf(w, "characteristics:\t%s\n", strings.Join(r.Characteristics, " | "))
	fmt.Fprintf(w, "symbols:\t%d (%d long names)\n", r.Symbols, r.Strings)

	if o := r.Optional; o != nil {
		fmt.Fprintf(w, "\noptional header:\t%s\n", o.Magic)
		fmt.Fprintf(w, "entry point:\t%s\n", hex(o.EntryPoint))
		fmt.Fprintf(w, "image base:\t%s\n", hex(o.ImageBase))
		fmt.Fprintf(w, "alignment:\tsection %s, file %s\n", hex(o.SectionAlignment), hex(o.FileAlignment))
		fmt.Fprintf(w, "subsystem:\t%d\n", o.Subsystem)
		fmt.Fprintf(w, "directories:\t%d\n", o.NumberOfRvaAndSizes)
		for _, d := range o.Directories {
			fmt.Fprintf(w, "  %s\t%s\t%s\n", d.Name, hex(d.VirtualAddress), hex(d.Size))
		}
	}

	fmt.Fprintf(w, "\n#\tname\trva\tvsize\traw\trawsize\tflags\n")
	for _, s := range r.Sections {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n", s.Index, s.Name,
			hex(s.VirtualAddress), hex(s.VirtualSize), hex(s.RawPointer), hex(s.RawSize),
			strings.Join(s.Characteristics, " | "))
	}
}

package pe

import (
	"github.com/pkg/errors"
)

type AuxFunctionDefinition struct {
	ImageAuxFunctionDefinition
	fileOffset int64
}

func (a *AuxFunctionDefinition) String() string {
	return structString(a.fileOffset, "IMAGE_AUX_SYMBOL (function definition)", a.ImageAuxFunctionDefinition)
}

type AuxBfEf struct {
	ImageAuxBfEf
	fileOffset int64
}

func (a *AuxBfEf) String() string {
	return structString(a.fileOffset, "IMAGE_AUX_SYMBOL (.bf/.ef)", a.ImageAuxBfEf)
}

type AuxWeakExternal struct {
	ImageAuxWeakExternal
	fileOffset int64
}

func (a *AuxWeakExternal) String() string {
	return structString(a.fileOffset, "IMAGE_AUX_SYMBOL (weak external)", a.ImageAuxWeakExternal)
}

type AuxSectionDefinition struct {
	ImageAuxSectionDefinition
	fileOffset int64
}

func (a *AuxSectionDefinition) String() string {
	return structString(a.fileOffset, "IMAGE_AUX_SYMBOL (section definition)", a.ImageAuxSectionDefinition)
}

func (s *Symbol) auxOffset() (int64, error) {
	if s.NumberOfAuxSymbols == 0 {
		return 0, errors.Wrapf(ErrFormat, "symbol %d (%s) has no auxiliary record", s.Index, s.Name)
	}
	return s.fileOffset + IMAGE_SIZEOF_SYMBOL, nil
}

func (s *Symbol) readAux(v interface{}) (int64, error) {
	off, err := s.auxOffset()
	if err != nil {
		return 0, err
	}
	if err := s.header.file.src.ReadStructAt(off, v); err != nil {
		return 0, errors.WithMessagef(err, "auxiliary record of symbol %d", s.Index)
	}
	return off, nil
}

// AuxFunctionDefinition decodes the record following a function definition.
func (s *Symbol) AuxFunctionDefinition() (*AuxFunctionDefinition, error) {
	a := new(AuxFunctionDefinition)
	off, err := s.readAux(&a.ImageAuxFunctionDefinition)
	if err != nil {
		return nil, err
	}
	a.fileOffset = off
	return a, nil
}

// AuxBfEf decodes the record following a .bf or .ef symbol.
func (s *Symbol) AuxBfEf() (*AuxBfEf, error) {
	a := new(AuxBfEf)
	off, err := s.readAux(&a.ImageAuxBfEf)
	if err != nil {
		return nil, err
	}
	a.fileOffset = off
	return a, nil
}

// AuxWeakExternal decodes the record following a weak external.
func (s *Symbol) AuxWeakExternal() (*AuxWeakExternal, error) {
	a := new(AuxWeakExternal)
	off, err := s.readAux(&a.ImageAuxWeakExternal)
	if err != nil {
		return nil, err
	}
	a.fileOffset = off
	return a, nil
}

// AuxSectionDefinition decodes the record following a section definition.
func (s *Symbol) AuxSectionDefinition() (*AuxSectionDefinition, error) {
	a := new(AuxSectionDefinition)
	off, err := s.readAux(&a.ImageAuxSectionDefinition)
	if err != nil {
		return nil, err
	}
	a.fileOffset = off
	return a, nil
}

// AuxFileName returns the source file name carried by a .file symbol. Long
// names continue across all of the symbol's auxiliary records.
func (s *Symbol) AuxFileName() (string, error) {
	off, err := s.auxOffset()
	if err != nil {
		return "", err
	}
	n := int(s.NumberOfAuxSymbols) * IMAGE_SIZEOF_AUX_SYMBOL
	name, err := s.header.file.src.FixedStringAt(off, n)
	if err != nil {
		return "", errors.WithMessagef(err, "file name of symbol %d", s.Index)
	}
	return name, nil
}

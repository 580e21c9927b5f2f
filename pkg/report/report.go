// Package report turns parsed files into plain values for the command line
// tool to print as text or YAML.
package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Format selects how a report is written.
type Format string

const (
	Text Format = "text"
	YAML Format = "yaml"
)

// ParseFormat validates a format name.
func ParseFormat(name string) (Format, error) {
	switch f := Format(name); f {
	case Text, YAML:
		return f, nil
	}
	return "", errors.Errorf("unknown output format %q (want text or yaml)", name)
}

// Report is implemented by every report value.
type Report interface {
	writeText(w *tabwriter.Writer)
}

// Write prints r to w in the given format.
func Write(w io.Writer, format Format, r Report) error {
	switch format {
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return errors.Wrap(err, "encode report")
		}
		return enc.Close()
	case Text:
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		r.writeText(tw)
		return tw.Flush()
	}
	return errors.Errorf("unknown output format %q", format)
}

func hex(v interface{}) string {
	return fmt.Sprintf("0x%x", v)
}

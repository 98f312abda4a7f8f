package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pterm/pterm"
	"gopkg.in/yaml.v3"
)

// tabular is implemented by every result the CLI prints.
// The first row is the header.
type tabular interface {
	rows() [][]string
}

// printer renders results as a table, JSON or YAML.
type printer struct {
	format string
	w      io.Writer
}

func newPrinter(format string, w io.Writer) *printer {
	return &printer{format: strings.ToLower(format), w: w}
}

// interactive reports whether human-oriented extras such as progress
// bars should be drawn.
func (p *printer) interactive() bool {
	return p.format == "" || p.format == "table"
}

func (p *printer) print(v tabular) error {
	switch p.format {
	case "json":
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal json: %w", err)
		}
		_, err = fmt.Fprintln(p.w, string(data))
		return err
	case "yaml":
		data, err := yaml.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshal yaml: %w", err)
		}
		_, err = p.w.Write(data)
		return err
	default:
		rows := v.rows()
		if len(rows) <= 1 {
			_, err := fmt.Fprintln(p.w, "No entries.")
			return err
		}
		s, err := pterm.DefaultTable.WithHasHeader(true).WithData(rows).Srender()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(p.w, s)
		return err
	}
}

// message prints a one-line confirmation for commands without a payload.
type message struct {
	Op     string `json:"op" yaml:"op"`
	Path   string `json:"path,omitempty" yaml:"path,omitempty"`
	Result string `json:"result" yaml:"result"`
}

func (m message) rows() [][]string {
	return [][]string{{"OP", "PATH", "RESULT"}, {m.Op, m.Path, m.Result}}
}

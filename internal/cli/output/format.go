// Package output renders CLI results as tables, JSON or YAML.
package output

import (
	"fmt"
	"io"
	"strings"
)

// Format is an output format name.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat parses a format name. Empty input means table.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "table":
		return FormatTable, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("invalid output format: %q (valid: table, json, yaml)", s)
	}
}

func (f Format) String() string {
	return string(f)
}

// Printer writes command results in one format.
type Printer struct {
	out    io.Writer
	format Format
	color  bool
}

// NewPrinter creates a Printer writing to out.
func NewPrinter(out io.Writer, format Format, color bool) *Printer {
	return &Printer{out: out, format: format, color: color}
}

// Format returns the printer's format.
func (p *Printer) Format() Format {
	return p.format
}

// Print writes data. In table format data must implement TableRenderer;
// anything else is written as JSON.
func (p *Printer) Print(data any) error {
	switch p.format {
	case FormatJSON:
		return PrintJSON(p.out, data)
	case FormatYAML:
		return PrintYAML(p.out, data)
	case FormatTable:
		if r, ok := data.(TableRenderer); ok {
			return PrintTable(p.out, r)
		}
		return PrintJSON(p.out, data)
	default:
		return fmt.Errorf("unknown format: %s", p.format)
	}
}

// Success prints msg in green. It prints nothing outside table format so
// structured output stays parseable.
func (p *Printer) Success(msg string) {
	p.status("32", msg)
}

// Warning prints msg in yellow, in table format only.
func (p *Printer) Warning(msg string) {
	p.status("33", msg)
}

// Failure prints msg in red, in table format only.
func (p *Printer) Failure(msg string) {
	p.status("31", msg)
}

func (p *Printer) status(color, msg string) {
	if p.format != FormatTable {
		return
	}
	if p.color {
		_, _ = fmt.Fprintf(p.out, "\033[%sm%s\033[0m\n", color, msg)
		return
	}
	_, _ = fmt.Fprintln(p.out, msg)
}

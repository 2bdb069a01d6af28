package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Format represents the output format type
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// ParseFormat validates a --format flag value.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatJSON, "":
		return FormatJSON, nil
	case FormatText:
		return FormatText, nil
	default:
		return "", fmt.Errorf("unknown output format: %s", s)
	}
}

// Printer renders command results
type Printer struct {
	format Format
	writer io.Writer
}

// NewPrinter creates a new printer
func NewPrinter(format Format, writer io.Writer) *Printer {
	return &Printer{format: format, writer: writer}
}

// JSON outputs the value as indented JSON regardless of format
func (p *Printer) JSON(v any) error {
	encoder := json.NewEncoder(p.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// Result outputs a structured value. Text format falls back to JSON
// since every result shape is defined in JSON terms.
func (p *Printer) Result(v any) error {
	return p.JSON(v)
}

// Raw outputs a plain string. JSON format wraps it so the output stays
// machine-parseable.
func (p *Printer) Raw(s string) error {
	if p.format == FormatText {
		_, err := fmt.Fprintln(p.writer, s)
		return err
	}
	return p.JSON(map[string]string{"content": s})
}

// Table prints rows under headers. JSON format gets the rows as
// objects keyed by header instead.
func (p *Printer) Table(headers []string, rows [][]string) error {
	if p.format == FormatJSON {
		objects := make([]map[string]string, 0, len(rows))
		for _, row := range rows {
			obj := make(map[string]string, len(headers))
			for i, h := range headers {
				if i < len(row) {
					obj[strings.ToLower(h)] = row[i]
				}
			}
			objects = append(objects, obj)
		}
		return p.JSON(objects)
	}
	return p.printTable(headers, rows)
}

// printTable prints a simple table
func (p *Printer) printTable(headers []string, rows [][]string) error {
	if len(headers) == 0 {
		return nil
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	p.printRow(headers, widths)
	p.printSeparator(widths)
	for _, row := range rows {
		p.printRow(row, widths)
	}
	return nil
}

// printRow prints a table row
func (p *Printer) printRow(cells []string, widths []int) {
	for i, cell := range cells {
		if i < len(widths) {
			fmt.Fprintf(p.writer, "%-*s", widths[i], cell)
			if i < len(cells)-1 {
				fmt.Fprint(p.writer, "  ")
			}
		}
	}
	fmt.Fprintln(p.writer)
}

// printSeparator prints a table separator
func (p *Printer) printSeparator(widths []int) {
	for i, w := range widths {
		fmt.Fprint(p.writer, strings.Repeat("-", w))
		if i < len(widths)-1 {
			fmt.Fprint(p.writer, "  ")
		}
	}
	fmt.Fprintln(p.writer)
}

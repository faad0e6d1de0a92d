// Package cmdfmt renders structured command output either as an aligned
// table or as JSON, selected by the caller.
package cmdfmt

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
)

// Printer collects rows under a fixed set of columns and renders them once.
type Printer interface {
	AppendRow(values ...any)
	Render() error
}

// NewPrinter returns a table printer, or a JSON printer when asJSON is set.
func NewPrinter(out io.Writer, columns []string, asJSON, pretty bool) Printer {
	if asJSON {
		return &jsonPrinter{out: out, columns: columns, pretty: pretty}
	}
	w := table.NewWriter()
	w.SetOutputMirror(out)
	header := make(table.Row, 0, len(columns))
	for _, col := range columns {
		header = append(header, col)
	}
	w.AppendHeader(header)
	return &tablePrinter{w: w, columns: len(columns)}
}

type tablePrinter struct {
	w       table.Writer
	columns int
}

func (p *tablePrinter) AppendRow(values ...any) {
	if len(values) != p.columns {
		panic(fmt.Sprintf("row has %d values for %d columns (this is likely a bug)", len(values), p.columns))
	}
	p.w.AppendRow(table.Row(values))
}

func (p *tablePrinter) Render() error {
	p.w.Render()
	return nil
}

type jsonPrinter struct {
	out     io.Writer
	columns []string
	rows    []map[string]any
	pretty  bool
}

func (p *jsonPrinter) AppendRow(values ...any) {
	if len(values) != len(p.columns) {
		panic(fmt.Sprintf("row has %d values for %d columns (this is likely a bug)", len(values), len(p.columns)))
	}
	row := make(map[string]any, len(values))
	for i, col := range p.columns {
		row[col] = values[i]
	}
	p.rows = append(p.rows, row)
}

func (p *jsonPrinter) Render() error {
	enc := json.NewEncoder(p.out)
	if p.pretty {
		enc.SetIndent("", " ")
	}
	return enc.Encode(p.rows)
}

// Package format renders detective results and listings as terminal or
// Markdown tables.
package format

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Mode controls the output format.
type Mode int

const (
	ASCII Mode = iota
	Markdown
)

// ParseMode maps "table" (or "ascii") and "markdown" to a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "table", "ascii":
		return ASCII, nil
	case "markdown", "md":
		return Markdown, nil
	default:
		return ASCII, fmt.Errorf("unknown table mode %q", s)
	}
}

// Align is a column alignment.
type Align int

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

// Table collects rows and renders them in one Mode.
type Table struct {
	mode    Mode
	writer  table.Writer
	columns map[int]table.ColumnConfig
}

func NewTable(m Mode) *Table {
	w := table.NewWriter()
	if m == ASCII {
		w.SetStyle(table.StyleLight)
	}
	return &Table{mode: m, writer: w, columns: make(map[int]table.ColumnConfig)}
}

func (t *Table) Header(cols ...string) {
	row := make(table.Row, len(cols))
	for i, c := range cols {
		row[i] = c
	}
	t.writer.AppendHeader(row)
}

// Row appends one row; cells are printed with fmt.Sprint.
func (t *Table) Row(cells ...any) {
	t.writer.AppendRow(append(table.Row(nil), cells...))
}

// Align sets the alignment of the given 1-based columns.
func (t *Table) Align(a Align, cols ...int) {
	for _, n := range cols {
		c := t.column(n)
		c.Align = a.text()
		t.columns[n] = c
	}
}

// Wrap wraps cells of the 1-based column n at width. Markdown ignores it.
func (t *Table) Wrap(n, width int) {
	c := t.column(n)
	c.WidthMax = width
	t.columns[n] = c
}

func (t *Table) column(n int) table.ColumnConfig {
	c, ok := t.columns[n]
	if !ok {
		c.Number = n
	}
	return c
}

func (t *Table) String() string {
	cfgs := make([]table.ColumnConfig, 0, len(t.columns))
	for _, c := range t.columns {
		cfgs = append(cfgs, c)
	}
	t.writer.SetColumnConfigs(cfgs)
	if t.mode == Markdown {
		return t.writer.RenderMarkdown()
	}
	return t.writer.Render()
}

func (a Align) text() text.Align {
	switch a {
	case AlignCenter:
		return text.AlignCenter
	case AlignRight:
		return text.AlignRight
	default:
		return text.AlignLeft
	}
}

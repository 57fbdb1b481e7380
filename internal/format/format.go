package format

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Mode controls the output format.
type Mode int

const (
	Plain Mode = iota // whitespace-aligned, no borders (describe-style output)
	ASCII             // box-drawn terminal table
)

// Table is a thin builder over go-pretty's table.Writer.
type Table struct {
	w table.Writer
}

// NewTable returns a Table that renders in the given Mode.
func NewTable(m Mode) *Table {
	w := table.NewWriter()
	switch m {
	case Plain:
		style := table.StyleDefault
		style.Options = table.OptionsNoBordersAndSeparators
		style.Format.Header = text.FormatDefault
		style.Box.PaddingLeft = ""
		style.Box.PaddingRight = "  "
		w.SetStyle(style)
	case ASCII:
		style := table.StyleLight
		style.Format.Header = text.FormatDefault
		w.SetStyle(style)
	}
	return &Table{w: w}
}

// Header sets the column headers.
func (t *Table) Header(cols ...string) {
	row := make(table.Row, len(cols))
	for i, c := range cols {
		row[i] = c
	}
	t.w.AppendHeader(row)
}

// Row appends a data row.
func (t *Table) Row(vals ...any) {
	row := make(table.Row, len(vals))
	copy(row, vals)
	t.w.AppendRow(row)
}

// AlignRight right-aligns every column from the given 1-based index onwards, up to n columns.
func (t *Table) AlignRight(from, n int) {
	cfgs := make([]table.ColumnConfig, 0, n)
	for i := from; i <= n; i++ {
		cfgs = append(cfgs, table.ColumnConfig{Number: i, Align: text.AlignRight, AlignHeader: text.AlignRight})
	}
	t.w.SetColumnConfigs(cfgs)
}

// String renders the table.
func (t *Table) String() string { return t.w.Render() }

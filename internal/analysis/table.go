package analysis

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind is the inferred type of a column.
type Kind string

const (
	KindNumeric     Kind = "numeric"
	KindCategorical Kind = "categorical"
)

// missingTokens are cell values treated as missing, in addition to blank cells.
var missingTokens = map[string]struct{}{
	"#N/A": {}, "#N/A N/A": {}, "#NA": {}, "-1.#IND": {}, "-1.#QNAN": {}, "-NaN": {}, "-nan": {},
	"1.#IND": {}, "1.#QNAN": {}, "<NA>": {}, "N/A": {}, "NA": {}, "NULL": {}, "NaN": {},
	"None": {}, "n/a": {}, "nan": {}, "null": {},
}

// Column is one named column of a Dataset. Raw keeps the trimmed cell text ("" when missing);
// Nums holds parsed values for numeric columns (NaN when missing).
type Column struct {
	Name string
	Kind Kind
	Raw  []string
	Nums []float64
}

// Missing reports whether row i holds no value.
func (c *Column) Missing(i int) bool { return c.Raw[i] == "" }

// Values returns the non-missing numeric values in row order.
func (c *Column) Values() []float64 {
	out := make([]float64, 0, len(c.Nums))
	for _, v := range c.Nums {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// Dataset is an ordered set of uniquely named columns of equal length.
type Dataset struct {
	Name    string
	Columns []*Column
	rows    int
	index   map[string]int
}

// NewDataset builds a Dataset from a header and row-major records. Records shorter than the
// header are padded with missing values; callers reject longer ones before getting here.
func NewDataset(name string, header []string, records [][]string) *Dataset {
	names := uniqueNames(header)
	ds := &Dataset{Name: name, rows: len(records), index: make(map[string]int, len(names))}
	for j, n := range names {
		col := &Column{Name: n, Raw: make([]string, len(records))}
		for i, rec := range records {
			if j < len(rec) {
				col.Raw[i] = normalizeCell(rec[j])
			}
		}
		inferKind(col)
		ds.index[n] = j
		ds.Columns = append(ds.Columns, col)
	}
	return ds
}

// Rows returns the number of data rows.
func (d *Dataset) Rows() int { return d.rows }

// Empty reports whether the dataset has no rows or no columns.
func (d *Dataset) Empty() bool { return d == nil || d.rows == 0 || len(d.Columns) == 0 }

// Names returns column names in order.
func (d *Dataset) Names() []string {
	out := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		out[i] = c.Name
	}
	return out
}

// Column looks up a column by exact name.
func (d *Dataset) Column(name string) (*Column, bool) {
	i, ok := d.index[name]
	if !ok {
		return nil, false
	}
	return d.Columns[i], true
}

// Has reports whether name is a column of the dataset.
func (d *Dataset) Has(name string) bool {
	_, ok := d.index[name]
	return ok
}

// Row returns the raw cells of row i.
func (d *Dataset) Row(i int) []string {
	out := make([]string, len(d.Columns))
	for j, c := range d.Columns {
		out[j] = c.Raw[i]
	}
	return out
}

func normalizeCell(v string) string {
	v = strings.TrimSpace(v)
	if _, ok := missingTokens[v]; ok {
		return ""
	}
	return v
}

// inferKind marks a column numeric when every present value parses as a float. A column with no
// values at all is numeric too.
func inferKind(c *Column) {
	nums := make([]float64, len(c.Raw))
	for i, v := range c.Raw {
		if v == "" {
			nums[i] = math.NaN()
			continue
		}
		x, err := strconv.ParseFloat(v, 64)
		if err != nil {
			c.Kind = KindCategorical
			return
		}
		nums[i] = x
	}
	c.Kind = KindNumeric
	c.Nums = nums
}

// uniqueNames fills blank header cells and suffixes duplicates with .1, .2, ...
func uniqueNames(header []string) []string {
	out := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("Unnamed: %d", i)
		}
		out[i] = h
	}
	taken := make(map[string]bool, len(out))
	for _, n := range out {
		taken[n] = true
	}
	for i, n := range out {
		cnt, dup := seen[n]
		if !dup {
			seen[n] = 1
			continue
		}
		cand := fmt.Sprintf("%s.%d", n, cnt)
		for taken[cand] {
			cnt++
			cand = fmt.Sprintf("%s.%d", n, cnt)
		}
		seen[n] = cnt + 1
		taken[cand] = true
		out[i] = cand
	}
	return out
}

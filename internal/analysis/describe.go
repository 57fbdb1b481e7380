package analysis

import (
	"math"
	"sort"
	"strconv"

	"github.com/KaramelBytes/insightloom/internal/format"
)

// ColumnSummary captures the describe statistics for one column. Fields that do not apply to the
// column's Kind are left at their zero value.
type ColumnSummary struct {
	Name  string
	Kind  Kind
	Count int
	// Categorical stats
	Unique int
	Top    string
	Freq   int
	// Numeric stats; NaN when undefined (e.g. std of a single value)
	Mean, Std, Min, Q1, Median, Q3, Max float64
}

// Description is the describe-all-columns summary of a Dataset.
type Description struct {
	Cols []ColumnSummary
}

// CategoryCount is a value and its number of occurrences.
type CategoryCount struct {
	Value string
	Count int
}

// Describe computes per-column summary statistics.
func Describe(ds *Dataset) *Description {
	d := &Description{Cols: make([]ColumnSummary, 0, len(ds.Columns))}
	for _, c := range ds.Columns {
		s := ColumnSummary{Name: c.Name, Kind: c.Kind}
		if c.Kind == KindNumeric {
			describeNumeric(&s, c.Values())
		} else {
			counts := Frequencies(c)
			for _, kv := range counts {
				s.Count += kv.Count
			}
			s.Unique = len(counts)
			if len(counts) > 0 {
				s.Top, s.Freq = counts[0].Value, counts[0].Count
			}
		}
		d.Cols = append(d.Cols, s)
	}
	return d
}

func describeNumeric(s *ColumnSummary, vals []float64) {
	s.Count = len(vals)
	nan := math.NaN()
	s.Mean, s.Std, s.Min, s.Q1, s.Median, s.Q3, s.Max = nan, nan, nan, nan, nan, nan, nan
	if len(vals) == 0 {
		return
	}
	// Welford
	var mean, m2 float64
	for i, x := range vals {
		delta := x - mean
		mean += delta / float64(i+1)
		m2 += delta * (x - mean)
	}
	s.Mean = mean
	if len(vals) > 1 {
		s.Std = math.Sqrt(m2 / float64(len(vals)-1))
	}
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)
	s.Min = sorted[0]
	s.Max = sorted[len(sorted)-1]
	s.Q1 = quantile(sorted, 0.25)
	s.Median = quantile(sorted, 0.5)
	s.Q3 = quantile(sorted, 0.75)
}

// Frequencies counts the present values of a column, sorted by count desc then value asc
// (numeric order for numeric columns).
func Frequencies(c *Column) []CategoryCount {
	m := map[string]int{}
	var order []string
	for i, v := range c.Raw {
		if c.Missing(i) {
			continue
		}
		if _, ok := m[v]; !ok {
			order = append(order, v)
		}
		m[v]++
	}
	out := make([]CategoryCount, 0, len(m))
	for _, k := range order {
		out = append(out, CategoryCount{Value: k, Count: m[k]})
	}
	numeric := c.Kind == KindNumeric
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		if numeric {
			a, _ := strconv.ParseFloat(out[i].Value, 64)
			b, _ := strconv.ParseFloat(out[j].Value, 64)
			return a < b
		}
		return out[i].Value < out[j].Value
	})
	return out
}

// String renders the description as an aligned text table: one row per statistic, one column
// per dataset column. Rows that apply to no column are omitted.
func (d *Description) String() string {
	var hasNum, hasCat bool
	for _, c := range d.Cols {
		if c.Kind == KindNumeric {
			hasNum = true
		} else {
			hasCat = true
		}
	}
	tb := format.NewTable(format.Plain)
	header := make([]string, 0, len(d.Cols)+1)
	header = append(header, "")
	for _, c := range d.Cols {
		header = append(header, c.Name)
	}
	tb.Header(header...)

	row := func(label string, cell func(ColumnSummary) string) {
		vals := make([]any, 0, len(d.Cols)+1)
		vals = append(vals, label)
		for _, c := range d.Cols {
			vals = append(vals, cell(c))
		}
		tb.Row(vals...)
	}
	num := func(get func(ColumnSummary) float64) func(ColumnSummary) string {
		return func(c ColumnSummary) string {
			if c.Kind != KindNumeric {
				return "NaN"
			}
			return formatStat(get(c))
		}
	}
	row("count", func(c ColumnSummary) string { return strconv.Itoa(c.Count) })
	if hasCat {
		row("unique", func(c ColumnSummary) string {
			if c.Kind == KindNumeric {
				return "NaN"
			}
			return strconv.Itoa(c.Unique)
		})
		row("top", func(c ColumnSummary) string {
			if c.Kind == KindNumeric || c.Count == 0 {
				return "NaN"
			}
			return c.Top
		})
		row("freq", func(c ColumnSummary) string {
			if c.Kind == KindNumeric || c.Count == 0 {
				return "NaN"
			}
			return strconv.Itoa(c.Freq)
		})
	}
	if hasNum {
		row("mean", num(func(c ColumnSummary) float64 { return c.Mean }))
		row("std", num(func(c ColumnSummary) float64 { return c.Std }))
		row("min", num(func(c ColumnSummary) float64 { return c.Min }))
		row("25%", num(func(c ColumnSummary) float64 { return c.Q1 }))
		row("50%", num(func(c ColumnSummary) float64 { return c.Median }))
		row("75%", num(func(c ColumnSummary) float64 { return c.Q3 }))
		row("max", num(func(c ColumnSummary) float64 { return c.Max }))
	}
	tb.AlignRight(2, len(header))
	return tb.String()
}

// formatStat prints at most six decimals and drops trailing zeros.
func formatStat(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	if math.IsInf(v, 0) {
		if v > 0 {
			return "inf"
		}
		return "-inf"
	}
	if math.Abs(v) >= 1e15 {
		return strconv.FormatFloat(v, 'g', 6, 64)
	}
	r := math.Round(v*1e6) / 1e6
	if r == 0 {
		r = 0 // normalise -0
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}

// quantile expects sorted input and interpolates linearly between ranks.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

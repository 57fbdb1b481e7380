package analysis

import (
	"math"
	"strings"
	"testing"
)

func sampleDataset() *Dataset {
	return NewDataset("sales.csv", []string{"category", "amount"}, [][]string{
		{"A", "10"},
		{"B", "30"},
		{"A", "20"},
	})
}

func TestNewDatasetInfersKinds(t *testing.T) {
	ds := NewDataset("mixed.csv", []string{"id", "label", "score", "empty"}, [][]string{
		{"1", "x", "1.5", ""},
		{"2", "y", "NA", ""},
		{"3", "7", "", "null"},
	})
	want := map[string]Kind{"id": KindNumeric, "label": KindCategorical, "score": KindNumeric, "empty": KindNumeric}
	for name, kind := range want {
		c, ok := ds.Column(name)
		if !ok {
			t.Fatalf("missing column %q", name)
		}
		if c.Kind != kind {
			t.Fatalf("column %q: kind %s, want %s", name, c.Kind, kind)
		}
	}
	score, _ := ds.Column("score")
	if got := score.Values(); len(got) != 1 || got[0] != 1.5 {
		t.Fatalf("score values = %v", got)
	}
	if !score.Missing(1) || !score.Missing(2) {
		t.Fatalf("expected NA and blank to be missing")
	}
}

func TestNewDatasetPadsShortRows(t *testing.T) {
	ds := NewDataset("short.csv", []string{"a", "b"}, [][]string{{"1"}, {"2", "3"}})
	if ds.Rows() != 2 {
		t.Fatalf("rows = %d", ds.Rows())
	}
	b, _ := ds.Column("b")
	if !b.Missing(0) || b.Raw[1] != "3" {
		t.Fatalf("unexpected b column: %#v", b.Raw)
	}
}

func TestUniqueNames(t *testing.T) {
	tests := []struct {
		in   []string
		want []string
	}{
		{[]string{"a", "b"}, []string{"a", "b"}},
		{[]string{"a", "a", "a"}, []string{"a", "a.1", "a.2"}},
		{[]string{"a", "a.1", "a"}, []string{"a", "a.1", "a.2"}},
		{[]string{"", " x ", ""}, []string{"Unnamed: 0", "x", "Unnamed: 2"}},
	}
	for _, tt := range tests {
		got := uniqueNames(tt.in)
		if strings.Join(got, "|") != strings.Join(tt.want, "|") {
			t.Errorf("uniqueNames(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEmpty(t *testing.T) {
	if !NewDataset("h.csv", []string{"a"}, nil).Empty() {
		t.Fatalf("header-only dataset should be empty")
	}
	if sampleDataset().Empty() {
		t.Fatalf("sample dataset should not be empty")
	}
	var nilDS *Dataset
	if !nilDS.Empty() {
		t.Fatalf("nil dataset should be empty")
	}
}

func TestDescribeNumericAndCategorical(t *testing.T) {
	d := Describe(sampleDataset())
	if len(d.Cols) != 2 {
		t.Fatalf("cols = %d", len(d.Cols))
	}
	cat, amt := d.Cols[0], d.Cols[1]
	if cat.Count != 3 || cat.Unique != 2 || cat.Top != "A" || cat.Freq != 2 {
		t.Fatalf("category summary = %+v", cat)
	}
	checks := []struct {
		name      string
		got, want float64
	}{
		{"mean", amt.Mean, 20},
		{"std", amt.Std, 10},
		{"min", amt.Min, 10},
		{"25%", amt.Q1, 15},
		{"50%", amt.Median, 20},
		{"75%", amt.Q3, 25},
		{"max", amt.Max, 30},
	}
	for _, c := range checks {
		if math.Abs(c.got-c.want) > 1e-9 {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
}

func TestDescribeSingleValueStdIsNaN(t *testing.T) {
	d := Describe(NewDataset("one.csv", []string{"x"}, [][]string{{"4"}}))
	if !math.IsNaN(d.Cols[0].Std) {
		t.Fatalf("std of a single value should be NaN, got %v", d.Cols[0].Std)
	}
}

func TestFrequenciesTieBreak(t *testing.T) {
	ds := NewDataset("t.csv", []string{"s", "n"}, [][]string{
		{"b", "10"},
		{"a", "9"},
		{"b", "10"},
		{"a", "9"},
	})
	s, _ := ds.Column("s")
	if got := Frequencies(s); got[0].Value != "a" {
		t.Fatalf("string tie should pick lexically first, got %+v", got)
	}
	n, _ := ds.Column("n")
	if got := Frequencies(n); got[0].Value != "9" {
		t.Fatalf("numeric tie should pick numerically smallest, got %+v", got)
	}
}

func TestDescriptionString(t *testing.T) {
	out := Describe(sampleDataset()).String()
	for _, want := range []string{"category", "amount", "count", "unique", "top", "freq", "mean", "std", "25%", "75%", "max", "NaN"} {
		if !strings.Contains(out, want) {
			t.Fatalf("summary missing %q:\n%s", want, out)
		}
	}
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 12 {
		t.Fatalf("expected header + 11 stat rows, got %d:\n%s", len(lines), out)
	}
}

func TestDescriptionStringOmitsInapplicableRows(t *testing.T) {
	out := Describe(NewDataset("n.csv", []string{"x"}, [][]string{{"1"}, {"2"}})).String()
	if strings.Contains(out, "unique") || strings.Contains(out, "freq") {
		t.Fatalf("numeric-only summary should not have categorical rows:\n%s", out)
	}
	out = Describe(NewDataset("c.csv", []string{"x"}, [][]string{{"a"}, {"b"}})).String()
	if strings.Contains(out, "mean") || strings.Contains(out, "std") {
		t.Fatalf("categorical-only summary should not have numeric rows:\n%s", out)
	}
}

func TestFormatStat(t *testing.T) {
	tests := map[float64]string{
		20:          "20",
		8.16496580:  "8.164966",
		12.5:        "12.5",
		-0.0000001:  "0",
		math.NaN():  "NaN",
		math.Inf(1): "inf",
	}
	for in, want := range tests {
		if got := formatStat(in); got != want {
			t.Errorf("formatStat(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestQuantile(t *testing.T) {
	s := []float64{1, 2, 3, 4}
	if got := quantile(s, 0.5); got != 2.5 {
		t.Fatalf("median = %v", got)
	}
	if got := quantile(s, 0.25); got != 1.75 {
		t.Fatalf("q1 = %v", got)
	}
	if !math.IsNaN(quantile(nil, 0.5)) {
		t.Fatalf("quantile of empty input should be NaN")
	}
}

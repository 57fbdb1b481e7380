package chart

import (
	"bytes"
	"errors"
	"testing"

	"github.com/KaramelBytes/insightloom/internal/analysis"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func sales() *analysis.Dataset {
	return analysis.NewDataset("sales.csv", []string{"category", "amount", "note"}, [][]string{
		{"A", "10", "x"},
		{"B", "30", "y"},
		{"A", "20", "z"},
	})
}

func TestRenderKinds(t *testing.T) {
	for _, k := range Kinds() {
		t.Run(string(k), func(t *testing.T) {
			png, err := Render(k, sales(), "category", "amount")
			if err != nil {
				t.Fatalf("Render: %v", err)
			}
			if !bytes.HasPrefix(png, pngMagic) {
				t.Fatalf("not a PNG")
			}
		})
	}
}

func TestRenderSingleRowLine(t *testing.T) {
	ds := analysis.NewDataset("one.csv", []string{"c", "v"}, [][]string{{"only", "5"}})
	png, err := Render(Line, ds, "c", "v")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !bytes.HasPrefix(png, pngMagic) {
		t.Fatalf("not a PNG")
	}
}

func TestRenderErrors(t *testing.T) {
	zero := analysis.NewDataset("z.csv", []string{"c", "v"}, [][]string{{"a", "0"}, {"b", "0"}})
	negative := analysis.NewDataset("n.csv", []string{"c", "v"}, [][]string{{"a", "-1"}, {"b", "3"}})
	blank := analysis.NewDataset("b.csv", []string{"c", "v"}, [][]string{{"a", ""}, {"b", "NA"}})
	cases := []struct {
		name string
		kind Kind
		ds   *analysis.Dataset
		col  string
		val  string
	}{
		{"unknown kind", Kind("scatter"), sales(), "category", "amount"},
		{"unknown column", Bar, sales(), "nope", "amount"},
		{"unknown value column", Bar, sales(), "category", "nope"},
		{"text value column", Line, sales(), "category", "note"},
		{"no values", Bar, blank, "c", "v"},
		{"zero pie", Pie, zero, "c", "v"},
		{"negative pie", Pie, negative, "c", "v"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Render(tc.kind, tc.ds, tc.col, tc.val)
			var re *RenderError
			if !errors.As(err, &re) {
				t.Fatalf("expected RenderError, got %v", err)
			}
			if re.Kind != tc.kind {
				t.Fatalf("kind = %q", re.Kind)
			}
		})
	}
}

func TestPieSumsByCategoryInFirstSeenOrder(t *testing.T) {
	pts := collect(mustColumn(t, sales(), "category"), mustColumn(t, sales(), "amount"))
	pc, err := pieChart("t", pts)
	if err != nil {
		t.Fatalf("pieChart: %v", err)
	}
	if len(pc.Values) != 2 {
		t.Fatalf("slices = %d", len(pc.Values))
	}
	if pc.Values[0].Label != "A (50.0%)" || pc.Values[0].Value != 30 {
		t.Fatalf("first slice = %+v", pc.Values[0])
	}
	if pc.Values[1].Label != "B (50.0%)" || pc.Values[1].Value != 30 {
		t.Fatalf("second slice = %+v", pc.Values[1])
	}
}

func TestBarChartKeepsRowOrder(t *testing.T) {
	pts := collect(mustColumn(t, sales(), "category"), mustColumn(t, sales(), "amount"))
	bc := barChart("t", "amount", pts)
	var labels []string
	for _, b := range bc.Bars {
		labels = append(labels, b.Label)
	}
	if len(labels) != 3 || labels[0] != "A" || labels[1] != "B" || labels[2] != "A" {
		t.Fatalf("labels = %v", labels)
	}
}

func TestParseKind(t *testing.T) {
	if k, err := ParseKind(" PIE "); err != nil || k != Pie {
		t.Fatalf("ParseKind = %q, %v", k, err)
	}
	if _, err := ParseKind("area"); err == nil {
		t.Fatalf("expected error")
	}
}

func mustColumn(t *testing.T, ds *analysis.Dataset, name string) *analysis.Column {
	t.Helper()
	c, ok := ds.Column(name)
	if !ok {
		t.Fatalf("missing column %s", name)
	}
	return c
}

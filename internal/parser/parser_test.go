package parser_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/KaramelBytes/insightloom/internal/analysis"
	"github.com/KaramelBytes/insightloom/internal/parser"
	"github.com/xuri/excelize/v2"
)

func buildWorkbook(t *testing.T, sheets map[string][][]any, order ...string) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, name := range order {
		switch {
		case i == 0 && name != "Sheet1":
			if err := f.SetSheetName("Sheet1", name); err != nil {
				t.Fatalf("rename sheet: %v", err)
			}
		case i > 0:
			if _, err := f.NewSheet(name); err != nil {
				t.Fatalf("new sheet: %v", err)
			}
		}
		for r, row := range sheets[name] {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			if err != nil {
				t.Fatalf("cell name: %v", err)
			}
			row := row
			if err := f.SetSheetRow(name, cell, &row); err != nil {
				t.Fatalf("set row: %v", err)
			}
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}

func TestParseCSV(t *testing.T) {
	ds, err := parser.Parse("sales.csv", []byte("category,amount\nA,10\nB,30\nA,20\n"), parser.Options{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if ds.Rows() != 3 || len(ds.Columns) != 2 {
		t.Fatalf("shape = %dx%d", ds.Rows(), len(ds.Columns))
	}
	amt, _ := ds.Column("amount")
	if amt.Kind != analysis.KindNumeric {
		t.Fatalf("amount kind = %s", amt.Kind)
	}
	if ds.Name != "sales.csv" {
		t.Fatalf("name = %q", ds.Name)
	}
}

func TestParseCSVWithBOMAndBlankLines(t *testing.T) {
	content := append([]byte{0xEF, 0xBB, 0xBF}, []byte("a,b\n\n1,2\n\n3,4\n")...)
	ds, err := parser.Parse("x.csv", content, parser.Options{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if ds.Rows() != 2 || ds.Columns[0].Name != "a" {
		t.Fatalf("unexpected dataset: rows=%d names=%v", ds.Rows(), ds.Names())
	}
}

func TestParseTSVByExtension(t *testing.T) {
	ds, err := parser.Parse("metrics.TSV", []byte("a\tb\n1\t2\n"), parser.Options{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(ds.Columns) != 2 {
		t.Fatalf("expected tab-separated columns, got %v", ds.Names())
	}
}

func TestParseUnknownExtensionFallsBackToCSV(t *testing.T) {
	ds, err := parser.Parse("upload.data", []byte("a,b\n1,2\n"), parser.Options{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(ds.Columns) != 2 {
		t.Fatalf("names = %v", ds.Names())
	}
}

func TestParseEmptyInputs(t *testing.T) {
	cases := map[string][]byte{
		"zero bytes":  nil,
		"blank lines": []byte("\n\n"),
		"header only": []byte("category,amount\n"),
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := parser.Parse("e.csv", content, parser.Options{})
			if !errors.Is(err, parser.ErrEmptyDataset) {
				t.Fatalf("expected ErrEmptyDataset, got %v", err)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name, file string
		content    []byte
		contains   string
	}{
		{"too many fields", "bad.csv", []byte("a,b\n1,2\n1,2,3\n"), "expected 2 fields in line 3, saw 3"},
		{"invalid utf8", "bad.csv", []byte{'a', '\n', 0xff, 0xfe, '\n'}, "UTF-8"},
		{"not a workbook", "bad.xlsx", []byte("definitely not a zip"), "open xlsx"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parser.Parse(tc.file, tc.content, parser.Options{})
			var pe *parser.ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("expected ParseError, got %T %v", err, err)
			}
			if !strings.Contains(pe.Error(), tc.contains) {
				t.Fatalf("error %q does not mention %q", pe.Error(), tc.contains)
			}
		})
	}
}

func TestParseXLSXFirstSheet(t *testing.T) {
	wb := buildWorkbook(t, map[string][][]any{
		"Data":  {{"category", "amount"}, {"A", 10}, {}, {"B", 30}, {"A", 20}},
		"Other": {{"x"}, {"1"}},
	}, "Data", "Other")
	ds, err := parser.Parse("book.xlsx", wb, parser.Options{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if ds.Rows() != 3 {
		t.Fatalf("rows = %d (blank rows should be skipped)", ds.Rows())
	}
	amt, ok := ds.Column("amount")
	if !ok || amt.Kind != analysis.KindNumeric {
		t.Fatalf("amount column missing or not numeric: %v", ds.Names())
	}
}

func TestParseXLSXSheetByName(t *testing.T) {
	wb := buildWorkbook(t, map[string][][]any{
		"Data":  {{"category", "amount"}, {"A", 10}},
		"Other": {{"x", "y"}, {1, 2}, {3, 4}},
	}, "Data", "Other")
	ds, err := parser.Parse("book.xlsx", wb, parser.Options{Sheet: "other"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if ds.Rows() != 2 || ds.Columns[0].Name != "x" {
		t.Fatalf("unexpected dataset: %v rows=%d", ds.Names(), ds.Rows())
	}

	_, err = parser.Parse("book.xlsx", wb, parser.Options{Sheet: "Missing"})
	var pe *parser.ParseError
	if !errors.As(err, &pe) || !strings.Contains(err.Error(), "Available sheets: Data, Other") {
		t.Fatalf("expected sheet-not-found ParseError, got %v", err)
	}
}

// styledWorkbook writes rows to Sheet1 and applies numFmt to every data cell of column B.
func styledWorkbook(t *testing.T, rows [][]any, numFmt int, customFmt string) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for r, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, r+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		row := row
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	style := &excelize.Style{NumFmt: numFmt}
	if customFmt != "" {
		style = &excelize.Style{CustomNumFmt: &customFmt}
	}
	id, err := f.NewStyle(style)
	if err != nil {
		t.Fatalf("new style: %v", err)
	}
	last, err := excelize.CoordinatesToCellName(2, len(rows))
	if err != nil {
		t.Fatalf("cell name: %v", err)
	}
	if err := f.SetCellStyle("Sheet1", "B2", last, id); err != nil {
		t.Fatalf("set style: %v", err)
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}

func TestParseXLSXReadsStoredNumbers(t *testing.T) {
	cases := []struct {
		name   string
		numFmt int
		custom string
		rows   [][]any
		want   []float64
	}{
		{"thousands separator", 4, "", [][]any{{"category", "amount"}, {"A", 1234.5}, {"B", 2000}}, []float64{1234.5, 2000}},
		{"rounded to two decimals", 2, "", [][]any{{"category", "amount"}, {"A", 10.555}, {"B", 10.555}}, []float64{10.555, 10.555}},
		{"percent", 9, "", [][]any{{"category", "share"}, {"A", 0.25}, {"B", 0.5}}, []float64{0.25, 0.5}},
		{"currency", 0, `"$"#,##0.00`, [][]any{{"category", "price"}, {"A", 1500.25}, {"B", 3}}, []float64{1500.25, 3}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			wb := styledWorkbook(t, tc.rows, tc.numFmt, tc.custom)
			ds, err := parser.Parse("styled.xlsx", wb, parser.Options{})
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			col := ds.Columns[1]
			if col.Kind != analysis.KindNumeric {
				t.Fatalf("kind = %s, raw = %q", col.Kind, col.Raw)
			}
			for i, want := range tc.want {
				if col.Nums[i] != want {
					t.Fatalf("row %d = %v, want %v", i, col.Nums[i], want)
				}
			}
		})
	}
}

func TestParseXLSXKeepsDatesAsText(t *testing.T) {
	wb := styledWorkbook(t, [][]any{{"event", "day"}, {"launch", 45292}, {"review", 45323}}, 14, "")
	ds, err := parser.Parse("dates.xlsx", wb, parser.Options{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	day := ds.Columns[1]
	if day.Kind != analysis.KindCategorical {
		t.Fatalf("date column should stay text, got %s raw=%q", day.Kind, day.Raw)
	}
	if day.Raw[0] == "45292" {
		t.Fatalf("date cell was read as its serial number")
	}
}

func TestParseXLSXHeaderOnlyIsEmpty(t *testing.T) {
	wb := buildWorkbook(t, map[string][][]any{"Sheet1": {{"a", "b"}}}, "Sheet1")
	if _, err := parser.Parse("h.xlsx", wb, parser.Options{}); !errors.Is(err, parser.ErrEmptyDataset) {
		t.Fatalf("expected ErrEmptyDataset, got %v", err)
	}
}

func TestIsSpreadsheet(t *testing.T) {
	if !parser.IsSpreadsheet("Report.XLSX") || parser.IsSpreadsheet("report.csv") {
		t.Fatalf("extension dispatch is wrong")
	}
}

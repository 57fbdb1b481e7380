package parser

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

type xlsxDecoder struct{}

// Decode reads the requested sheet (first sheet by default). Numbers come back as stored, not as
// their number format displays them; dates and booleans keep their displayed text. Fully blank
// rows are skipped and cells beyond the header width get unnamed columns.
func (xlsxDecoder) Decode(content []byte, opt Options) ([]string, [][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, nil
	}
	sheet := sheets[0]
	if opt.Sheet != "" {
		sheet = ""
		for _, s := range sheets {
			if strings.EqualFold(s, opt.Sheet) {
				sheet = s
				break
			}
		}
		if sheet == "" {
			return nil, nil, fmt.Errorf("sheet '%s' not found. Available sheets: %s", opt.Sheet, strings.Join(sheets, ", "))
		}
	}
	rows, err := readRows(f, sheet)
	if err != nil {
		return nil, nil, err
	}

	var header []string
	var records [][]string
	for _, row := range rows {
		if blankRow(row) {
			continue
		}
		if header == nil {
			header = row
			continue
		}
		if len(row) > len(header) {
			header = append(header, make([]string, len(row)-len(header))...)
		}
		records = append(records, row)
	}
	return header, records, nil
}

func blankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// readRows returns raw cell values, swapping in the displayed text for date, time and boolean
// cells.
func readRows(f *excelize.File, sheet string) ([][]string, error) {
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	shown, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	for i, row := range rows {
		if i >= len(shown) {
			break
		}
		for j, v := range row {
			if j >= len(shown[i]) || shown[i][j] == v {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				return nil, err
			}
			if keepDisplayed(f, sheet, cell) {
				row[j] = shown[i][j]
			}
		}
	}
	return rows, nil
}

func keepDisplayed(f *excelize.File, sheet, cell string) bool {
	if typ, err := f.GetCellType(sheet, cell); err == nil {
		switch typ {
		case excelize.CellTypeBool, excelize.CellTypeDate:
			return true
		}
	}
	idx, err := f.GetCellStyle(sheet, cell)
	if err != nil {
		return false
	}
	style, err := f.GetStyle(idx)
	if err != nil || style == nil {
		return false
	}
	if isDateNumFmt(style.NumFmt) {
		return true
	}
	return style.CustomNumFmt != nil && isDatePattern(*style.CustomNumFmt)
}

// isDateNumFmt reports whether a built-in number format id renders a date or time.
func isDateNumFmt(id int) bool {
	switch {
	case id >= 14 && id <= 22, id >= 27 && id <= 36, id >= 45 && id <= 47, id >= 50 && id <= 58:
		return true
	}
	return false
}

// isDatePattern reports whether a custom format code has date or time tokens outside quoted
// literals and bracketed sections.
func isDatePattern(code string) bool {
	depth, quoted := 0, false
	for _, r := range strings.ToLower(code) {
		switch {
		case r == '"':
			quoted = !quoted
		case quoted:
		case r == '[':
			depth++
		case r == ']':
			if depth > 0 {
				depth--
			}
		case depth > 0:
		case strings.ContainsRune("ymdhs", r):
			return true
		}
	}
	return false
}

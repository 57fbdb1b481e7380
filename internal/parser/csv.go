package parser

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

type delimitedDecoder struct {
	comma rune
}

func (d delimitedDecoder) Decode(content []byte, _ Options) ([]string, [][]string, error) {
	content = bytes.TrimPrefix(content, utf8BOM)
	if !utf8.Valid(content) {
		return nil, nil, errors.New("invalid UTF-8 encoding; save the file as UTF-8 text")
	}
	r := csv.NewReader(bytes.NewReader(content))
	r.Comma = d.comma
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	var records [][]string
	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, nil, fmt.Errorf("read row %d: %w", len(records)+1, err)
		}
		if len(rec) > len(header) {
			line, _ := r.FieldPos(0)
			return nil, nil, fmt.Errorf("error tokenizing data: expected %d fields in line %d, saw %d", len(header), line, len(rec))
		}
		records = append(records, rec)
	}
	return header, records, nil
}

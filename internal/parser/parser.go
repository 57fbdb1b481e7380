package parser

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/insightloom/internal/analysis"
)

// Options tunes decoding. The zero value reads the first sheet of a workbook.
type Options struct {
	// Sheet selects a workbook sheet by name (case-insensitive).
	Sheet string
}

// Decoder turns raw bytes into a header row and data records.
type Decoder interface {
	Decode(content []byte, opt Options) (header []string, records [][]string, err error)
}

// registry maps a lower-cased file extension to its decoder. Anything else is read as CSV.
var registry = map[string]Decoder{
	".xlsx": xlsxDecoder{},
	".tsv":  delimitedDecoder{comma: '\t'},
}

var fallback Decoder = delimitedDecoder{comma: ','}

// ErrEmptyDataset is returned when decoding succeeds but yields no rows or no columns.
var ErrEmptyDataset = errors.New("dataset is empty")

// ParseError wraps the underlying decoder failure.
type ParseError struct {
	Filename string
	Err      error
}

func (e *ParseError) Error() string { return e.Err.Error() }

func (e *ParseError) Unwrap() error { return e.Err }

// DecoderFor returns the decoder selected by the filename's extension.
func DecoderFor(filename string) Decoder {
	if d, ok := registry[strings.ToLower(filepath.Ext(filename))]; ok {
		return d
	}
	return fallback
}

// IsSpreadsheet reports whether filename is dispatched to the workbook decoder.
func IsSpreadsheet(filename string) bool {
	_, ok := DecoderFor(filename).(xlsxDecoder)
	return ok
}

// Parse decodes content according to filename and builds a Dataset.
// It fails with *ParseError or ErrEmptyDataset; there is no partial result.
func Parse(filename string, content []byte, opt Options) (*analysis.Dataset, error) {
	if len(content) == 0 {
		return nil, ErrEmptyDataset
	}
	header, records, err := DecoderFor(filename).Decode(content, opt)
	if err != nil {
		return nil, &ParseError{Filename: filename, Err: err}
	}
	ds := analysis.NewDataset(filepath.Base(filename), header, records)
	if ds.Empty() {
		return nil, ErrEmptyDataset
	}
	return ds, nil
}

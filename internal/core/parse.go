package core

// parse.go turns an uploaded file into raw records. It knows nothing about
// graduates; header detection and field mapping happen in the normalizer.
//
// CSV input may be UTF-8 (with or without BOM), UTF-16 with BOM, or
// Windows-1255, which is what Hebrew Excel installs still write by default.
// The delimiter is sniffed from the first line.

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	xunicode "golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Supported upload formats.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
	FormatXLS  = "xls"
)

// Record is one raw row. Line is the 1-based physical row in the source:
// the CSV line on which the record starts, or the worksheet row number.
// Numeric marks workbook cells that held a plain number rather than text;
// it is nil for CSV records.
type Record struct {
	Line    int
	Cells   []string
	Numeric []bool
}

// IsNumeric reports whether cell i held a plain number.
func (r Record) IsNumeric(i int) bool {
	return i < len(r.Numeric) && r.Numeric[i]
}

// Table is the raw content of an uploaded file.
type Table struct {
	Format  string
	Records []Record
}

// FormatOf returns the upload format for a file name, judged by extension.
func FormatOf(name string) (string, error) {
	switch ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), ".")); ext {
	case FormatCSV, FormatXLSX, FormatXLS:
		return ext, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(name))
	}
}

// ParseFile reads the records of a CSV or Excel file.
func ParseFile(name string, data []byte) (*Table, error) {
	format, err := FormatOf(name)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}

	var records []Record
	switch format {
	case FormatCSV:
		records, err = parseCSV(data)
	default:
		records, err = parseWorkbook(data)
	}
	if err != nil {
		return nil, err
	}
	return &Table{Format: format, Records: records}, nil
}

// decodeText converts CSV bytes to UTF-8. A BOM always wins; otherwise
// valid UTF-8 passes through and anything else is read as Windows-1255.
func decodeText(data []byte) ([]byte, error) {
	var fallback transform.Transformer = transform.Nop
	if !utf8.Valid(data) {
		fallback = charmap.Windows1255.NewDecoder()
	}
	out, _, err := transform.Bytes(xunicode.BOMOverride(fallback), data)
	if err != nil {
		return nil, fmt.Errorf("%w: decode text: %v", ErrInvalidFile, err)
	}
	return out, nil
}

// sniffDelimiter picks the most frequent of comma, semicolon and tab on the
// first line, ignoring quoted sections. Comma wins ties.
func sniffDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}

	counts := map[rune]int{}
	quoted := false
	for _, r := range string(line) {
		switch {
		case r == '"':
			quoted = !quoted
		case !quoted && (r == ',' || r == ';' || r == '\t'):
			counts[r]++
		}
	}

	best := ','
	for _, r := range []rune{';', '\t'} {
		if counts[r] > counts[best] {
			best = r
		}
	}
	return best
}

func parseCSV(data []byte) ([]Record, error) {
	text, err := decodeText(data)
	if err != nil {
		return nil, err
	}

	r := csv.NewReader(bytes.NewReader(text))
	r.Comma = sniffDelimiter(text)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var records []Record
	for {
		cells, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFile, err)
		}
		line, _ := r.FieldPos(0)
		records = append(records, Record{Line: line, Cells: cells})
	}
	return records, nil
}

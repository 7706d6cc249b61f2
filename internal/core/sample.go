package core

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/xuri/excelize/v2"
)

const sampleSheet = "בוגרים"

// sampleRows are valid, non-colliding example graduates in Fields order.
var sampleRows = [][]string{
	{"משה", "כהן", "123456782", "15/01/1990", "050-1234567", "02-6543210", "moshe.cohen@example.com", "ירושלים", "רחוב הנביאים 12", "תשס\"ח", "", "A1001"},
	{"David", "Levi", "000000018", "1992-03-04", "0527654321", "", "david.levi@example.com", "Bnei Brak", "Rabbi Akiva 5", "2010", "קשר דרך ההורים", ""},
}

func sampleHeader() []string {
	h := make([]string, len(Fields))
	for i, f := range Fields {
		h[i] = FieldLabels[f]
	}
	return h
}

// SampleCSV returns a template CSV with Hebrew headers. It starts with a
// UTF-8 BOM so that Excel opens it with the right encoding.
func SampleCSV() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("\ufeff")

	w := csv.NewWriter(&buf)
	if err := w.Write(sampleHeader()); err != nil {
		return nil, err
	}
	if err := w.WriteAll(sampleRows); err != nil {
		return nil, fmt.Errorf("write sample csv: %w", err)
	}
	return buf.Bytes(), nil
}

// SampleXLSX returns the same template as an Excel workbook. All cells are
// text so IDs and phone numbers keep their leading zeros.
func SampleXLSX() ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", sampleSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	rtl := true
	if err := f.SetSheetView(sampleSheet, -1, &excelize.ViewOptions{RightToLeft: &rtl}); err != nil {
		return nil, fmt.Errorf("set sheet view: %w", err)
	}

	rows := append([][]string{sampleHeader()}, sampleRows...)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, err
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(sampleSheet, cell, &values); err != nil {
			return nil, fmt.Errorf("write sample row %d: %w", i+1, err)
		}
	}

	lastCol, err := excelize.ColumnNumberToName(len(Fields))
	if err != nil {
		return nil, err
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}
	if err := f.SetCellStyle(sampleSheet, "A1", lastCol+"1", headerStyle); err != nil {
		return nil, fmt.Errorf("style header: %w", err)
	}
	if err := f.SetColWidth(sampleSheet, "A", lastCol, 16); err != nil {
		return nil, fmt.Errorf("set column width: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write sample xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

// Sample returns the template in the requested format.
func Sample(format string) (data []byte, contentType string, err error) {
	switch format {
	case FormatCSV:
		data, err = SampleCSV()
		return data, "text/csv; charset=utf-8", err
	case FormatXLSX:
		data, err = SampleXLSX()
		return data, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", err
	default:
		return nil, "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

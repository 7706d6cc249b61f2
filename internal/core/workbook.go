package core

// workbook.go reads the first worksheet of an Excel upload. The container is
// picked by content, not extension: compound documents (BIFF8 .xls) go to the
// xls reader and everything else is opened as an xlsx zip package, so a
// workbook saved under the wrong extension still imports.
//
// xlsx cells are read raw. A numeric cell whose style displays it as a date
// is converted to YYYY-MM-DD here, because the style is the only thing that
// tells a date serial apart from a plain number such as a year or a phone.

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/alumni/internal/validate"
)

// oleMagic starts every OLE2 compound document, which is the container of
// BIFF8 (.xls) workbooks.
var oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

// openBIFF returns the cell text of the first sheet of an xls workbook.
var openBIFF = readBIFF

func parseWorkbook(data []byte) ([]Record, error) {
	if bytes.HasPrefix(data, oleMagic) {
		return parseXLS(data)
	}
	return parseXLSX(data)
}

func parseXLSX(data []byte) ([]Record, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: open workbook: %v", ErrInvalidFile, err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyFile
	}
	sheet := sheets[0]

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet %q: %v", ErrInvalidFile, sheet, err)
	}

	formats := &dateFormats{f: f, known: map[int]bool{}}
	date1904 := f.WorkBook != nil && f.WorkBook.WorkbookPr != nil && f.WorkBook.WorkbookPr.Date1904

	records := make([]Record, len(rows))
	for i, cells := range rows {
		rec := Record{Line: i + 1, Cells: cells}
		for j, v := range cells {
			n, err := strconv.ParseFloat(v, 64)
			if err != nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				continue
			}
			if typ, err := f.GetCellType(sheet, cell); err != nil ||
				(typ != excelize.CellTypeUnset && typ != excelize.CellTypeNumber) {
				continue
			}
			if style, err := f.GetCellStyle(sheet, cell); err == nil && formats.isDate(style) {
				if t, err := excelize.ExcelDateToTime(n, date1904); err == nil {
					cells[j] = t.Format(validate.ISODate)
					continue
				}
			}
			if rec.Numeric == nil {
				rec.Numeric = make([]bool, len(cells))
			}
			rec.Numeric[j] = true
		}
		records[i] = rec
	}
	return records, nil
}

// dateFormats caches, per cell style index, whether the style's number
// format shows a date.
type dateFormats struct {
	f     *excelize.File
	known map[int]bool
}

func (d *dateFormats) isDate(style int) bool {
	if style == 0 {
		return false
	}
	if v, ok := d.known[style]; ok {
		return v
	}
	v := false
	if s, err := d.f.GetStyle(style); err == nil {
		if s.CustomNumFmt != nil {
			v = isDateFormatCode(d.customCode(style))
		} else {
			v = isDateNumFmt(s.NumFmt)
		}
	}
	d.known[style] = v
	return v
}

// customCode returns the format code of a custom number format. Style.CustomNumFmt
// cannot be used for this: excelize fills it with the last custom format of
// the workbook, not the one the style refers to.
func (d *dateFormats) customCode(style int) string {
	ss := d.f.Styles
	if ss == nil || ss.CellXfs == nil || ss.NumFmts == nil || style >= len(ss.CellXfs.Xf) {
		return ""
	}
	id := ss.CellXfs.Xf[style].NumFmtID
	if id == nil {
		return ""
	}
	for _, nf := range ss.NumFmts.NumFmt {
		if nf != nil && nf.NumFmtID == *id {
			return nf.FormatCode
		}
	}
	return ""
}

// isDateNumFmt reports whether a built-in number format shows a date.
// Time-only formats (18-21, 45-47) are not dates.
func isDateNumFmt(id int) bool {
	switch {
	case id >= 14 && id <= 17, id == 22:
		return true
	case id >= 27 && id <= 36, id >= 50 && id <= 58:
		return true
	}
	return false
}

// isDateFormatCode reports whether a custom format code contains date
// tokens. Quoted literals, bracketed sections and escaped characters are
// ignored; a lone m counts only when no hour or second token makes it a
// minute.
func isDateFormatCode(code string) bool {
	var b strings.Builder
	quoted, bracket := false, false
	for i := 0; i < len(code); i++ {
		c := code[i]
		switch {
		case quoted:
			quoted = c != '"'
		case bracket:
			bracket = c != ']'
		case c == '"':
			quoted = true
		case c == '[':
			bracket = true
		case c == '\\' || c == '_' || c == '*':
			i++
		default:
			b.WriteByte(c)
		}
	}
	s := strings.ToLower(b.String())
	if strings.ContainsAny(s, "yd") {
		return true
	}
	return strings.Contains(s, "m") && !strings.ContainsAny(s, "hs")
}

func parseXLS(data []byte) ([]Record, error) {
	rows, err := openBIFF(data)
	if err != nil {
		return nil, err
	}
	records := make([]Record, len(rows))
	for i, cells := range rows {
		rec := Record{Line: i + 1, Cells: cells}
		for j, v := range cells {
			// The xls reader renders numbers and text alike, so a cell made
			// only of digits is taken to have been a number.
			if v != "" && isDigits(v) {
				if rec.Numeric == nil {
					rec.Numeric = make([]bool, len(cells))
				}
				rec.Numeric[j] = true
			}
		}
		records[i] = rec
	}
	return records, nil
}

func readBIFF(data []byte) (rows [][]string, err error) {
	// The xls reader panics on some malformed records.
	defer func() {
		if r := recover(); r != nil {
			rows, err = nil, fmt.Errorf("%w: read xls workbook: %v", ErrInvalidFile, r)
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("%w: open xls workbook: %v", ErrInvalidFile, err)
	}
	if wb == nil {
		return nil, fmt.Errorf("%w: no workbook stream in compound document", ErrInvalidFile)
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, ErrEmptyFile
	}

	rows = make([][]string, int(sheet.MaxRow)+1)
	for i := range rows {
		rows[i] = biffRow(sheet, i)
	}
	return rows, nil
}

// biffRow returns the cells of row i without trailing blanks. Rows the sheet
// does not store come back nil; the reader panics when asked for them.
func biffRow(sheet *xls.WorkSheet, i int) (cells []string) {
	defer func() {
		if recover() != nil {
			cells = nil
		}
	}()

	row := sheet.Row(i)
	if row == nil {
		return nil
	}
	for j := 0; j <= row.LastCol(); j++ {
		cells = append(cells, row.Col(j))
	}
	for len(cells) > 0 && strings.TrimSpace(cells[len(cells)-1]) == "" {
		cells = cells[:len(cells)-1]
	}
	return cells
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

package pipeline

import (
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"tablero/internal"
	"tablero/internal/util"
)

// sheetTable is one worksheet cut at its header row. Cells are kept twice: as
// displayed (number formats applied) and raw, which is what dates parse from.
type sheetTable struct {
	sheet     string
	headers   []string
	index     map[string]int
	formatted [][]string
	raw       [][]string
	sheetRows []int
	date1904  bool
}

func readSheet(f *excelize.File, sheet string, headerRow int) (*sheetTable, bool, error) {
	formatted, err := f.GetRows(sheet)
	if err != nil {
		return nil, false, err
	}
	raw, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, false, err
	}
	if len(formatted) < headerRow {
		return nil, false, nil
	}

	t := &sheetTable{
		sheet: sheet,
		index: map[string]int{},
	}
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		t.date1904 = *props.Date1904
	}

	for i, h := range formatted[headerRow-1] {
		h = util.NormalizeHeader(h)
		t.headers = append(t.headers, h)
		if h == "" {
			continue
		}
		if _, dup := t.index[h]; !dup {
			t.index[h] = i
		}
	}

	for i := headerRow; i < len(formatted); i++ {
		if isBlankRow(formatted[i]) {
			continue
		}
		t.formatted = append(t.formatted, formatted[i])
		t.sheetRows = append(t.sheetRows, i+1)
		if i < len(raw) {
			t.raw = append(t.raw, raw[i])
		} else {
			t.raw = append(t.raw, nil)
		}
	}
	return t, true, nil
}

func (t *sheetTable) len() int { return len(t.formatted) }

func (t *sheetTable) has(header string) bool {
	_, ok := t.index[header]
	return ok
}

func (t *sheetTable) text(i int, header string) string {
	col, ok := t.index[header]
	if !ok {
		return ""
	}
	return pick(t.formatted[i], col)
}

func (t *sheetTable) optText(i int, header string) *string {
	return util.NonEmptyPtr(t.text(i, header))
}

func (t *sheetTable) date(i int, header string) *time.Time {
	col, ok := t.index[header]
	if !ok {
		return nil
	}
	if v := parseDate(pick(t.raw[i], col), t.date1904); v != nil {
		return v
	}
	return parseDate(pick(t.formatted[i], col), t.date1904)
}

// value returns the cell as a classifier input, keeping non-text cells apart
// from text ones.
func (t *sheetTable) value(f *excelize.File, i int, header string) internal.Value {
	col, ok := t.index[header]
	if !ok {
		return internal.Absent()
	}
	display := pick(t.formatted[i], col)
	if display == "" {
		return internal.Absent()
	}
	cell, err := excelize.CoordinatesToCellName(col+1, t.sheetRows[i])
	if err != nil {
		return internal.Text(display)
	}
	typ, err := f.GetCellType(t.sheet, cell)
	if err != nil {
		return internal.Text(display)
	}
	switch typ {
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeFormula:
		return internal.Text(display)
	default:
		return internal.Other(display)
	}
}

func pick(cells []string, idx int) string {
	if idx >= 0 && idx < len(cells) {
		return cells[idx]
	}
	return ""
}

func isBlankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

var dateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"02-01-06",
}

// parseDate accepts Excel serial numbers and the text layouts the exports use.
// Anything else yields nil, like a coerced parse.
func parseDate(raw string, date1904 bool) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if serial, err := strconv.ParseFloat(raw, 64); err == nil {
		if serial <= 0 {
			return nil
		}
		t, err := excelize.ExcelDateToTime(serial, date1904)
		if err != nil {
			return nil
		}
		return &t
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}
	return nil
}

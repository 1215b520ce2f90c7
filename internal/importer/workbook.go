// Package importer reads purchase history exports into price records.
package importer

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"steelprice/server/internal/models"
)

// Columns expected in the header row, matched case-insensitively.
var Columns = []string{
	"order_no", "order_date", "supplier_no", "article_no", "description",
	"material_group", "size_class", "weight", "quantity", "unit_price",
}

var dateLayouts = []string{"2006-01-02", "02.01.2006", "01-02-06", "1/2/06"}

var ErrMissingColumn = errors.New("missing column")

// RowError describes a spreadsheet row that could not be imported.
type RowError struct {
	Row int
	Err error
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

// ReadWorkbook reads all rows of sheet (the first sheet when empty).
// Rows that cannot be converted are returned as RowErrors and skipped.
func ReadWorkbook(r io.Reader, sheet string) ([]models.PriceRecord, []RowError, error) {
	xl, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer func() { _ = xl.Close() }()

	if sheet == "" {
		sheet = xl.GetSheetName(0)
	}
	rows, err := xl.GetRows(sheet)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, nil, nil
	}

	index, err := headerIndex(rows[0])
	if err != nil {
		return nil, nil, err
	}

	var records []models.PriceRecord
	var rowErrors []RowError
	for i, row := range rows[1:] {
		if blank(row) {
			continue
		}
		rec, err := parseRow(row, index)
		if err != nil {
			rowErrors = append(rowErrors, RowError{Row: i + 2, Err: err})
			continue
		}
		records = append(records, rec)
	}
	return records, rowErrors, nil
}

func headerIndex(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, col := range Columns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, col)
		}
	}
	return index, nil
}

func parseRow(row []string, index map[string]int) (models.PriceRecord, error) {
	cell := func(col string) string {
		i := index[col]
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	rec := models.PriceRecord{
		OrderNo:     cell("order_no"),
		ArticleNo:   cell("article_no"),
		Description: cell("description"),
		SizeClass:   cell("size_class"),
		SupplierNo:  cell("supplier_no"),
	}
	if rec.OrderNo == "" || rec.ArticleNo == "" {
		return rec, errors.New("order_no and article_no are required")
	}

	group, err := strconv.Atoi(cell("material_group"))
	if err != nil {
		return rec, fmt.Errorf("material_group: %w", err)
	}
	rec.MaterialGroup = group

	for col, dst := range map[string]*float64{"weight": &rec.Weight, "quantity": &rec.Quantity, "unit_price": &rec.UnitPrice} {
		v, err := parseNumber(cell(col))
		if err != nil {
			return rec, fmt.Errorf("%s: %w", col, err)
		}
		*dst = v
	}

	date, err := parseDate(cell("order_date"))
	if err != nil {
		return rec, err
	}
	rec.OrderDate = date
	return rec, nil
}

// parseNumber accepts both decimal point and decimal comma. The separator
// that comes last is the decimal one, so "1.234,56" and "1,234.56" agree.
func parseNumber(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	} else {
		s = strings.ReplaceAll(s, ",", "")
	}
	return strconv.ParseFloat(s, 64)
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("order_date: unrecognised date %q", s)
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

package api

import (
	"fmt"
	"regexp"

	"github.com/xuri/excelize/v2"

	"steelprice/server/internal/calculation"
)

var unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// buildMatchWorkbook writes the summary and the match list of outcome into
// a single sheet.
func buildMatchWorkbook(outcome *calculation.Outcome) ([]byte, error) {
	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()

	sheet := "Matches"
	if err := xl.SetSheetName(xl.GetSheetName(0), sheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	summary := [][]interface{}{
		{"Material", outcome.Material},
		{"Period", outcome.StartDate + " - " + outcome.EndDate},
		{"Average", outcome.AverageSummary},
		{"Records", outcome.Result.Count},
	}
	if outcome.PiecePrice != "" {
		summary = append(summary, []interface{}{"Piece price", outcome.PiecePrice})
	}
	for i, row := range summary {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := xl.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write summary: %w", err)
		}
	}

	headerRow := len(summary) + 2
	header := []interface{}{"Article no.", "Size class"}
	cell, _ := excelize.CoordinatesToCellName(1, headerRow)
	if err := xl.SetSheetRow(sheet, cell, &header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	for i, m := range outcome.Result.Matches {
		record := []interface{}{m.ArticleNo, m.SizeClass}
		cell, _ := excelize.CoordinatesToCellName(1, headerRow+1+i)
		if err := xl.SetSheetRow(sheet, cell, &record); err != nil {
			return nil, fmt.Errorf("failed to write match %d: %w", i, err)
		}
	}

	buf, err := xl.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func exportFilename(outcome *calculation.Outcome) string {
	name := unsafeFilename.ReplaceAllString(outcome.Material, "_")
	if name == "" {
		name = "all"
	}
	return fmt.Sprintf("kg_price_%s_%s_%s.xlsx", name, outcome.StartDate, outcome.EndDate)
}

package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/auditpulse/backend/internal/aggregation"
)

// ScorecardXLSX renders a project scorecard as a two-sheet workbook: a
// summary sheet and a per-indicator breakdown sheet.
func ScorecardXLSX(card aggregation.ProjectScorecard) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	summary := "Summary"
	f.SetSheetName("Sheet1", summary)

	rows := [][]interface{}{
		{"Project", card.ProjectName},
		{"Total audits", card.TotalAudits},
		{"Average score", fmt.Sprintf("%.1f", card.AvgScore)},
		{"Average CSAT", fmt.Sprintf("%.1f", card.AvgCSAT)},
	}
	if card.TargetScore > 0 {
		rows = append(rows, []interface{}{"Target score", card.TargetScore})
	}
	if card.TargetCSAT > 0 {
		rows = append(rows, []interface{}{"Target CSAT", card.TargetCSAT})
	}

	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(summary, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write summary row: %w", err)
		}
	}

	breakdown := "Breakdown"
	if _, err := f.NewSheet(breakdown); err != nil {
		return nil, fmt.Errorf("failed to create breakdown sheet: %w", err)
	}

	header := []interface{}{"Indicator", "Category", "Pass rate %", "Evaluations", "Failures"}
	if err := f.SetSheetRow(breakdown, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write breakdown header: %w", err)
	}

	for i, row := range card.Breakdown {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		values := []interface{}{
			row.Item.Label,
			string(row.Item.Category),
			row.AvgPassRate,
			row.Count,
			row.Failures,
		}
		if err := f.SetSheetRow(breakdown, cell, &values); err != nil {
			return nil, fmt.Errorf("failed to write breakdown row: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}

	return buf.Bytes(), nil
}

// Package excel exports discovered relationships as a spreadsheet report.
package excel

import (
	"fmt"

	"edgefinder/models"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Relationships"

var reportHeaders = []string{
	"Event Type", "Market Asset", "Hit Rate", "Edge", "P-Value",
	"Sample Size", "Description", "Discovered At",
}

// WriteRelationshipReport writes relationships to an xlsx file, newest first.
func WriteRelationshipReport(path string, rels []models.Relationship) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("creating sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	for col, header := range reportHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	for row, rel := range rels {
		values := []interface{}{
			rel.EventType,
			rel.MarketAsset,
			rel.HitRate,
			rel.Edge,
			rel.PValue,
			rel.SampleSize,
			rel.Description,
			rel.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return fmt.Errorf("writing row %d: %w", row+1, err)
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving report to %s: %w", path, err)
	}
	return nil
}

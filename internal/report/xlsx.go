package report

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/banshee-data/laneguard/internal/ledger"
	"github.com/banshee-data/laneguard/internal/monitoring"
)

const (
	violationsSheet = "Violations"
	summarySheet    = "Summary"

	// evidenceRowHeight leaves room for the embedded thumbnail.
	evidenceRowHeight = 80.0
)

// WriteXLSX serialises the records into a spreadsheet on w: one row per
// violation with the evidence image embedded next to its path, plus a summary
// sheet. Records are not mutated and re-exporting the same records produces
// the same workbook. Missing evidence files degrade to a path-only cell
// rather than failing the whole export.
func WriteXLSX(w io.Writer, records []ledger.ViolationRecord) error {
	f, err := buildWorkbook(records)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

func buildWorkbook(records []ledger.ViolationRecord) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", violationsSheet); err != nil {
		return nil, fmt.Errorf("rename violations sheet: %w", err)
	}

	header := []string{"Vehicle ID", "Vehicle Class", "Frame", "Recorded At", "Evidence Path", "Evidence"}
	for col, title := range header {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(violationsSheet, cell, title); err != nil {
			return nil, fmt.Errorf("write header: %w", err)
		}
	}
	f.SetColWidth(violationsSheet, "A", "B", 16)
	f.SetColWidth(violationsSheet, "C", "D", 22)
	f.SetColWidth(violationsSheet, "E", "E", 44)
	f.SetColWidth(violationsSheet, "F", "F", 24)

	for i, rec := range records {
		row := i + 2
		values := []interface{}{
			rec.Identity,
			rec.Class,
			rec.FrameIndex,
			rec.RecordedAt.UTC().Format(time.RFC3339),
			rec.EvidencePath,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(violationsSheet, cell, v); err != nil {
				return nil, fmt.Errorf("write row %d: %w", row, err)
			}
		}

		if _, err := os.Stat(rec.EvidencePath); err != nil {
			monitoring.Logf("report: evidence image missing for %s (%s), embedding skipped", rec.Identity, rec.EvidencePath)
			continue
		}

		f.SetRowHeight(violationsSheet, row, evidenceRowHeight)
		cell, _ := excelize.CoordinatesToCellName(6, row)
		if err := f.AddPicture(violationsSheet, cell, rec.EvidencePath, &excelize.GraphicOptions{
			AutoFit:     true,
			Positioning: "oneCell",
		}); err != nil {
			return nil, fmt.Errorf("embed evidence for %s: %w", rec.Identity, err)
		}
	}

	if err := writeSummarySheet(f, records); err != nil {
		return nil, err
	}
	return f, nil
}

func writeSummarySheet(f *excelize.File, records []ledger.ViolationRecord) error {
	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("create summary sheet: %w", err)
	}

	s := Summarise(records)
	rows := [][]interface{}{
		{"Total violations", s.TotalViolations},
		{"First frame", s.FirstFrame},
		{"Last frame", s.LastFrame},
		{"Mean frame gap", s.MeanFrameGap},
		{"Stddev frame gap", s.StddevFrameGap},
		{"Max frame gap", s.MaxFrameGap},
		{},
		{"Class", "Count"},
	}
	for _, cc := range s.ClassBreakdown() {
		rows = append(rows, []interface{}{cc.Class, cc.Count})
	}

	for i, cols := range rows {
		for j, v := range cols {
			cell, _ := excelize.CoordinatesToCellName(j+1, i+1)
			if err := f.SetCellValue(summarySheet, cell, v); err != nil {
				return fmt.Errorf("write summary row %d: %w", i+1, err)
			}
		}
	}
	f.SetColWidth(summarySheet, "A", "A", 22)
	return nil
}

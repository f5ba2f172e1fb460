// Package xlsxexport renders a session as an Excel workbook.
package xlsxexport

import (
	"fmt"
	"io"
	"sort"

	"github.com/xuri/excelize/v2"

	"labassist/internal/csvexport"
	"labassist/internal/domain"
)

const (
	resultsSheet = "Results"
	summarySheet = "Summary"
)

// Write renders the report and interpretation as a two-sheet workbook: test
// results with their findings, and a summary with patient info and disclaimers.
func Write(w io.Writer, report *domain.StructuredReport, interp *domain.Interpretation) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", resultsSheet); err != nil {
		return fmt.Errorf("renaming sheet: %w", err)
	}
	if err := writeResults(f, report, interp); err != nil {
		return err
	}
	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("creating summary sheet: %w", err)
	}
	if err := writeSummary(f, report, interp); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func writeResults(f *excelize.File, report *domain.StructuredReport, interp *domain.Interpretation) error {
	header := make([]interface{}, len(csvexport.Columns))
	for i, c := range csvexport.Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(resultsSheet, "A1", &header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}
	flagged, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "9C0006"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"FFC7CE"}},
	})
	if err != nil {
		return fmt.Errorf("creating flag style: %w", err)
	}
	if err := f.SetRowStyle(resultsSheet, 1, 1, bold); err != nil {
		return fmt.Errorf("styling header: %w", err)
	}

	for i, row := range csvexport.Rows(report, interp) {
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = v
		}
		// Numeric values are written as numbers so spreadsheets can chart them.
		if t := report.TestResults[i]; t.Value.Number != nil {
			cells[2] = *t.Value.Number
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(resultsSheet, cell, &cells); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
		if report.TestResults[i].Flag.IsAbnormal() {
			flagCell, _ := excelize.CoordinatesToCellName(6, i+2)
			if err := f.SetCellStyle(resultsSheet, flagCell, flagCell, flagged); err != nil {
				return fmt.Errorf("styling flag: %w", err)
			}
		}
	}

	_ = f.SetColWidth(resultsSheet, "A", "F", 16)
	_ = f.SetColWidth(resultsSheet, "H", "H", 80)
	return nil
}

func writeSummary(f *excelize.File, report *domain.StructuredReport, interp *domain.Interpretation) error {
	var rows [][]interface{}
	if report != nil {
		for _, k := range sortedKeys(report.PatientInfo) {
			rows = append(rows, []interface{}{"Patient " + k, report.PatientInfo[k]})
		}
		for _, k := range sortedKeys(report.Metadata) {
			rows = append(rows, []interface{}{k, report.Metadata[k]})
		}
	}
	if interp != nil {
		rows = append(rows, []interface{}{"Summary", interp.Summary})
		for _, q := range interp.QuestionsForDoctor {
			rows = append(rows, []interface{}{"Question for doctor", q})
		}
		for _, tip := range interp.LifestyleTips {
			rows = append(rows, []interface{}{"Lifestyle tip", tip})
		}
		for _, d := range interp.Disclaimers {
			rows = append(rows, []interface{}{"Disclaimer", d})
		}
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return fmt.Errorf("writing summary row %d: %w", i+1, err)
		}
	}
	_ = f.SetColWidth(summarySheet, "A", "A", 24)
	_ = f.SetColWidth(summarySheet, "B", "B", 100)
	return nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

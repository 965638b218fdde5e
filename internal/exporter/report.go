package exporter

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"
)

const (
	batchSheet   = "Instruments"
	summarySheet = "Summary"
)

var reportHeaders = []interface{}{
	"Instrument", "Status", "Records", "Trades", "Self-trades",
	"Degenerate days", "Buyer rows", "Seller rows", "Duration (s)", "Error",
}

// ReportRow is one instrument line of the batch report
type ReportRow struct {
	Instrument     string
	Status         string
	Records        int
	Trades         int
	SelfTrades     int
	DegenerateDays int
	BuyerRows      int
	SellerRows     int
	Duration       time.Duration
	Error          string
}

// BatchReport is the content of one batch report workbook
type BatchReport struct {
	StartedAt   time.Time
	FinishedAt  time.Time
	Methodology string
	Workers     int
	Rows        []ReportRow
}

// ReportFileName returns the workbook name for a batch started at t
func ReportFileName(t time.Time) string {
	return fmt.Sprintf("batch_report_%s.xlsx", t.Format("20060102_150405"))
}

// WriteBatchReport writes the batch report workbook to path. The first sheet
// lists every instrument; the second holds run totals.
func WriteBatchReport(path string, report BatchReport) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", batchSheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	if err := writeInstrumentSheet(f, report.Rows); err != nil {
		return err
	}
	if err := writeSummarySheet(f, report); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save batch report %s: %w", path, err)
	}
	return nil
}

func writeInstrumentSheet(f *excelize.File, rows []ReportRow) error {
	sw, err := f.NewStreamWriter(batchSheet)
	if err != nil {
		return fmt.Errorf("failed to open stream writer: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := sw.SetColWidth(1, 1, 18); err != nil {
		return err
	}
	if err := sw.SetColWidth(10, 10, 60); err != nil {
		return err
	}

	header := make([]interface{}, len(reportHeaders))
	for i, h := range reportHeaders {
		header[i] = excelize.Cell{StyleID: bold, Value: h}
	}
	if err := sw.SetRow("A1", header); err != nil {
		return err
	}

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := []interface{}{
			r.Instrument, r.Status, r.Records, r.Trades, r.SelfTrades,
			r.DegenerateDays, r.BuyerRows, r.SellerRows, r.Duration.Seconds(), r.Error,
		}
		if err := sw.SetRow(cell, values); err != nil {
			return fmt.Errorf("failed to write report row %d: %w", i, err)
		}
	}

	return sw.Flush()
}

func writeSummarySheet(f *excelize.File, report BatchReport) error {
	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("failed to add summary sheet: %w", err)
	}

	counts := make(map[string]int)
	var buyers, sellers int
	for _, r := range report.Rows {
		counts[r.Status]++
		buyers += r.BuyerRows
		sellers += r.SellerRows
	}

	lines := [][]interface{}{
		{"Started", report.StartedAt.UTC().Format(time.RFC3339)},
		{"Finished", report.FinishedAt.UTC().Format(time.RFC3339)},
		{"Methodology", report.Methodology},
		{"Workers", report.Workers},
		{"Instruments", len(report.Rows)},
		{"Succeeded", counts["success"]},
		{"Skipped", counts["skipped"]},
		{"Failed", counts["failed"]},
		{"Buyer rows", buyers},
		{"Seller rows", sellers},
	}
	for i, line := range lines {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(summarySheet, cell, &line); err != nil {
			return err
		}
	}
	return nil
}

package operations

import (
	"log/slog"
	"time"

	"metaorder/internal/exporter"
	"metaorder/pkg/contracts/domain"
)

// BatchSummary collects the results of one batch run
type BatchSummary struct {
	TraceID     string
	Methodology domain.Methodology
	Workers     int
	StartedAt   time.Time
	FinishedAt  time.Time
	Results     []*InstrumentResult
}

// Count returns the number of instruments with the given status
func (s *BatchSummary) Count(status JobStatus) int {
	n := 0
	for _, r := range s.Results {
		if r.Status == status {
			n++
		}
	}
	return n
}

// Failed returns the results of failed instruments
func (s *BatchSummary) Failed() []*InstrumentResult {
	var failed []*InstrumentResult
	for _, r := range s.Results {
		if r.Status == StatusFailed {
			failed = append(failed, r)
		}
	}
	return failed
}

// Rows returns the total rows written for a side
func (s *BatchSummary) Rows(side domain.Side) int {
	n := 0
	for _, r := range s.Results {
		n += r.Rows(side)
	}
	return n
}

// Report converts the summary into the batch report workbook content
func (s *BatchSummary) Report() exporter.BatchReport {
	rows := make([]exporter.ReportRow, len(s.Results))
	for i, r := range s.Results {
		rows[i] = exporter.ReportRow{
			Instrument:     r.Instrument,
			Status:         string(r.Status),
			Records:        r.Records,
			Trades:         r.Stats.Retained,
			SelfTrades:     r.Stats.SelfTrades,
			DegenerateDays: r.Diagnostics.DegenerateDays,
			BuyerRows:      r.Rows(domain.SideBuyer),
			SellerRows:     r.Rows(domain.SideSeller),
			Duration:       r.Duration,
			Error:          r.ErrorMessage(),
		}
	}
	return exporter.BatchReport{
		StartedAt:   s.StartedAt,
		FinishedAt:  s.FinishedAt,
		Methodology: string(s.Methodology),
		Workers:     s.Workers,
		Rows:        rows,
	}
}

// Log writes the batch totals at info level, and each failure at error level
func (s *BatchSummary) Log(logger *slog.Logger) {
	logger.Info("Batch complete",
		slog.String("trace_id", s.TraceID),
		slog.Int("instruments", len(s.Results)),
		slog.Int("succeeded", s.Count(StatusSuccess)),
		slog.Int("skipped", s.Count(StatusSkipped)),
		slog.Int("failed", s.Count(StatusFailed)),
		slog.Int("buyer_rows", s.Rows(domain.SideBuyer)),
		slog.Int("seller_rows", s.Rows(domain.SideSeller)),
		slog.Duration("duration", s.FinishedAt.Sub(s.StartedAt)))

	for _, r := range s.Failed() {
		logger.Error("Instrument failed",
			slog.String("instrument", r.Instrument),
			slog.String("error", r.ErrorMessage()))
	}
}

package operations

import (
	"time"

	"metaorder/internal/dataprocessing"
	"metaorder/internal/exporter"
	"metaorder/internal/infrastructure"
	"metaorder/pkg/contracts/domain"
)

// JobStatus is the outcome of one instrument job
type JobStatus string

const (
	StatusSuccess JobStatus = infrastructure.StatusSuccess
	StatusSkipped JobStatus = infrastructure.StatusSkipped
	StatusFailed  JobStatus = infrastructure.StatusFailed
)

// Stage identifiers, used as span names below instrument.process
const (
	StageLoad    = "load"
	StageCompute = "compute"
	StageExport  = "export"
)

// InstrumentResult records what happened to one instrument
type InstrumentResult struct {
	Instrument  string
	Status      JobStatus
	Records     int
	Stats       dataprocessing.NormalizeStats
	Diagnostics dataprocessing.Diagnostics
	Written     *exporter.Written
	DailyPath   string
	Duration    time.Duration
	Err         error
}

// Rows returns the number of rows written for a side
func (r *InstrumentResult) Rows(side domain.Side) int {
	if r.Written == nil {
		return 0
	}
	return r.Written.Rows[side]
}

// ErrorMessage returns the error text, or "" when the job had no error
func (r *InstrumentResult) ErrorMessage() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

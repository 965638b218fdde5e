package operations

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"metaorder/internal/config"
	"metaorder/internal/dataprocessing"
	"metaorder/internal/errors"
	"metaorder/internal/exporter"
	"metaorder/internal/files"
	"metaorder/internal/infrastructure"
	"metaorder/pkg/contracts/domain"
)

// Manager orchestrates one batch run over many instruments
type Manager struct {
	cfg       *config.Config
	paths     *config.Paths
	providers *infrastructure.OTelProviders
	logger    *slog.Logger
}

// NewManager creates a batch manager. providers may be nil.
func NewManager(cfg *config.Config, paths *config.Paths, providers *infrastructure.OTelProviders, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		cfg:       cfg,
		paths:     paths,
		providers: providers,
		logger:    infrastructure.WithComponent(logger, "batch"),
	}
}

// Execute processes the given instruments, or every instrument the source
// holds when none are given. Per-instrument failures are recorded in the
// summary; only configuration errors, failure to enumerate instruments and
// cancellation are returned as errors.
func (m *Manager) Execute(ctx context.Context, instruments []string) (*BatchSummary, error) {
	ctx = infrastructure.EnsureTraceID(ctx)

	methodology, err := domain.ParseMethodology(m.cfg.Processing.Methodology)
	if err != nil {
		return nil, errors.NewConfigError("invalid methodology", err)
	}

	if err := m.paths.EnsureDirectories(); err != nil {
		return nil, errors.NewStorageError("failed to create output directories", err)
	}

	source, closeSource := m.newSource()
	defer closeSource()

	if len(instruments) == 0 {
		instruments, err = source.Instruments()
		if err != nil {
			return nil, fmt.Errorf("failed to enumerate instruments: %w", err)
		}
	}

	exp, err := exporter.NewStatsExporter(files.NewManager(m.paths, m.logger), m.cfg.Processing.OutputFormat, m.logger)
	if err != nil {
		return nil, err
	}
	tracer, err := NewInstrumentTracer(m.providers)
	if err != nil {
		return nil, err
	}

	processor := NewInstrumentProcessor(source, dataprocessing.NewPipeline(methodology, m.logger), exp,
		tracer, m.cfg.Processing.WriteDaily, m.logger)
	pool := NewPool(m.cfg.WorkerCount(), m.logger)

	summary := &BatchSummary{
		TraceID:     infrastructure.GetTraceID(ctx),
		Methodology: methodology,
		Workers:     pool.Workers(),
		StartedAt:   time.Now(),
	}

	m.logger.InfoContext(ctx, "Batch started",
		slog.Int("instruments", len(instruments)),
		slog.Int("workers", pool.Workers()),
		slog.String("methodology", string(methodology)),
		slog.String("format", exp.Extension()))

	summary.Results, err = pool.Run(ctx, instruments, processor.Process)
	summary.FinishedAt = time.Now()
	if err != nil {
		m.logger.WarnContext(ctx, "Batch interrupted",
			slog.Int("completed", len(summary.Results)),
			slog.Int("instruments", len(instruments)),
			slog.String("error", err.Error()))
		return summary, err
	}

	return summary, nil
}

// WriteReport writes the batch report workbook and returns its path
func (m *Manager) WriteReport(summary *BatchSummary) (string, error) {
	path := m.paths.GetReportPath(exporter.ReportFileName(summary.StartedAt))
	if err := exporter.WriteBatchReport(path, summary.Report()); err != nil {
		return "", errors.NewStorageError("failed to write batch report", err)
	}
	m.logger.Info("Batch report written", slog.String("path", path))
	return path, nil
}

// newSource picks the archive when one is configured, else the trade directory
func (m *Manager) newSource() (TradeSource, func()) {
	if m.paths.ArchivePath == "" {
		return NewDirectorySource(m.paths.TradeDir, m.logger), func() {}
	}

	src := NewArchiveSource(files.NewArchive(m.paths.ArchivePath, m.paths.ExtractDir, m.logger), m.logger)
	return src, func() {
		if err := src.Close(); err != nil {
			m.logger.Warn("Failed to clean extract directory", slog.String("error", err.Error()))
		}
	}
}

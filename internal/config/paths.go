package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains every location the batch reads from or writes to.
// It is built once from Config and passed explicitly to each component.
type Paths struct {
	DataDir      string
	TradeDir     string // one sub-directory per instrument
	ProcessedDir string
	BuyerDir     string
	SellerDir    string
	DailyDir     string
	ExtractDir   string
	ArchivePath  string // optional tar archive of instrument files
	ReportsDir   string
	LogsDir      string
}

// NewPaths resolves all paths from the configuration. Relative
// subdirectories are anchored at DataDir.
func NewPaths(cfg PathsConfig) (*Paths, error) {
	if cfg.DataDir == "" {
		return nil, fmt.Errorf("data directory is required")
	}

	dataDir, err := filepath.Abs(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory: %w", err)
	}

	resolve := func(value, fallback string) string {
		if value == "" {
			value = fallback
		}
		if filepath.IsAbs(value) {
			return value
		}
		return filepath.Join(dataDir, value)
	}

	processedDir := resolve(cfg.ProcessedDir, DefaultOutputSubdir)

	paths := &Paths{
		DataDir:      dataDir,
		TradeDir:     resolve(cfg.TradeDir, DefaultTradeSubdir),
		ProcessedDir: processedDir,
		BuyerDir:     filepath.Join(processedDir, BuyerSubdir),
		SellerDir:    filepath.Join(processedDir, SellerSubdir),
		DailyDir:     filepath.Join(processedDir, DailySubdir),
		ExtractDir:   resolve(cfg.ExtractDir, DefaultExtractDir),
		ReportsDir:   resolve(cfg.ReportsDir, DefaultReportsDir),
		LogsDir:      resolve(cfg.LogsDir, DefaultLogsDir),
	}
	if cfg.ArchivePath != "" {
		paths.ArchivePath = resolve(cfg.ArchivePath, DefaultArchiveName)
	}

	return paths, nil
}

// EnsureDirectories creates all output directories if they don't exist.
// Input directories are never created.
func (p *Paths) EnsureDirectories() error {
	directories := []string{
		p.ProcessedDir,
		p.BuyerDir,
		p.SellerDir,
		p.ReportsDir,
		p.LogsDir,
	}

	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// SideDir returns the output directory for a side ("buyer" or "seller")
func (p *Paths) SideDir(side string) string {
	if side == SellerSubdir {
		return p.SellerDir
	}
	return p.BuyerDir
}

// InstrumentDir returns the input folder of an instrument
func (p *Paths) InstrumentDir(instrument string) string {
	return filepath.Join(p.TradeDir, instrument)
}

// GetLogPath returns the full path for a log file
func (p *Paths) GetLogPath(filename string) string {
	return filepath.Join(p.LogsDir, filename)
}

// GetReportPath returns the full path for a report file
func (p *Paths) GetReportPath(filename string) string {
	return filepath.Join(p.ReportsDir, filename)
}

// LogPathResolution logs all resolved paths at debug level
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("Path resolution",
		slog.String("data_dir", p.DataDir),
		slog.String("trade_dir", p.TradeDir),
		slog.String("processed_dir", p.ProcessedDir),
		slog.String("extract_dir", p.ExtractDir),
		slog.String("archive_path", p.ArchivePath),
		slog.String("reports_dir", p.ReportsDir),
		slog.String("logs_dir", p.LogsDir))
}

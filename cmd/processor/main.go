package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"metaorder/internal/config"
	"metaorder/internal/infrastructure"
	"metaorder/internal/operations"
	"metaorder/pkg/contracts"
)

const (
	exitOK     = 0
	exitFatal  = 1
	exitFailed = 2 // batch finished but some instruments failed
)

// options holds the command line flags. Empty values leave the config as loaded.
type options struct {
	configFile  string
	tickers     []string
	workers     int
	archive     string
	format      string
	methodology string
	daily       bool
	version     bool
}

func main() {
	// .env is optional
	_ = godotenv.Load()

	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		os.Exit(flagExitCode(err))
	}
	if opts.version {
		fmt.Println(contracts.GetFullVersionString())
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, opts))
}

// flagExitCode maps a flag parsing error to the exit status; -h is not a failure
func flagExitCode(err error) int {
	if errors.Is(err, flag.ErrHelp) {
		return exitOK
	}
	return exitFatal
}

func parseFlags(args []string, output io.Writer) (*options, error) {
	fs := flag.NewFlagSet("processor", flag.ContinueOnError)
	fs.SetOutput(output)

	opts := &options{}
	var tickers string
	fs.StringVar(&opts.configFile, "config", "", "YAML configuration file (default $METAORDER_CONFIG)")
	fs.StringVar(&tickers, "tickers", "", "comma separated instruments to process (default all)")
	fs.IntVar(&opts.workers, "workers", -1, "number of workers (0 = NumCPU-1)")
	fs.StringVar(&opts.archive, "archive", "", "tar archive holding the instrument files")
	fs.StringVar(&opts.format, "format", "", "output format: parquet or csv")
	fs.StringVar(&opts.methodology, "methodology", "", "session or normalized")
	fs.BoolVar(&opts.daily, "daily", false, "also write the per-day overview")
	fs.BoolVar(&opts.version, "version", false, "print version information and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	opts.tickers = parseTickers(tickers)
	return opts, nil
}

// parseTickers splits a comma separated list, dropping blanks and duplicates
func parseTickers(s string) []string {
	var tickers []string
	seen := make(map[string]bool)
	for _, t := range strings.Split(s, ",") {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		tickers = append(tickers, t)
	}
	return tickers
}

// applyOverrides copies explicitly set flags onto the loaded configuration
// and validates the result
func applyOverrides(cfg *config.Config, opts *options) error {
	if opts.workers >= 0 {
		cfg.Processing.Workers = opts.workers
	}
	if opts.archive != "" {
		cfg.Paths.ArchivePath = opts.archive
	}
	if opts.format != "" {
		cfg.Processing.OutputFormat = opts.format
	}
	if opts.methodology != "" {
		cfg.Processing.Methodology = opts.methodology
	}
	if opts.daily {
		cfg.Processing.WriteDaily = true
	}
	return cfg.Validate()
}

func run(ctx context.Context, opts *options) int {
	cfg, err := config.Load(opts.configFile)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		return exitFatal
	}
	if err := applyOverrides(cfg, opts); err != nil {
		slog.Error("Invalid command line options", "error", err)
		return exitFatal
	}

	paths, err := config.NewPaths(cfg.Paths)
	if err != nil {
		slog.Error("Failed to resolve paths", "error", err)
		return exitFatal
	}
	if cfg.Logging.Output != "console" && cfg.Logging.FilePath == "" {
		cfg.Logging.FilePath = paths.GetLogPath("processor.log")
	}

	logger, closer, err := infrastructure.NewLogger(cfg.Logging)
	if err != nil {
		slog.Error("Failed to initialize logger", "error", err)
		return exitFatal
	}
	defer closer.Close()
	slog.SetDefault(logger)

	ctx = infrastructure.ContextWithTraceID(ctx)
	paths.LogPathResolution(logger)

	providers, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFrom(cfg.Telemetry), logger)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to initialize telemetry", slog.String("error", err.Error()))
		return exitFatal
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()

	logger.InfoContext(ctx, "Starting metaorder processing",
		slog.String("version", contracts.GetFullVersionString()),
		slog.String("methodology", cfg.Processing.Methodology),
		slog.String("format", cfg.Processing.OutputFormat),
		slog.Int("workers", cfg.WorkerCount()),
		slog.Any("tickers", opts.tickers))

	mgr := operations.NewManager(cfg, paths, providers, logger)
	summary, err := mgr.Execute(ctx, opts.tickers)
	if summary == nil {
		logger.ErrorContext(ctx, "Batch failed", slog.String("error", err.Error()))
		return exitFatal
	}

	summary.Log(logger)
	if _, reportErr := mgr.WriteReport(summary); reportErr != nil {
		logger.ErrorContext(ctx, "Failed to write batch report", slog.String("error", reportErr.Error()))
	}
	if metricsErr := providers.WriteMetricsFile(cfg.Telemetry.MetricsFile); metricsErr != nil {
		logger.ErrorContext(ctx, "Failed to write metrics file", slog.String("error", metricsErr.Error()))
	}

	if err != nil {
		logger.WarnContext(ctx, "Batch cancelled", slog.String("error", err.Error()))
		return exitFatal
	}
	if n := summary.Count(operations.StatusFailed); n > 0 {
		fmt.Fprintf(os.Stderr, "%d of %d instruments failed\n", n, len(summary.Results))
		return exitFailed
	}
	return exitOK
}

package config

import (
	"fmt"
	"os"
	"runtime"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Processing ProcessingConfig `yaml:"processing" envconfig:"PROCESSING"`
	Paths      PathsConfig      `yaml:"paths" envconfig:"PATHS"`
	Logging    LoggingConfig    `yaml:"logging" envconfig:"LOGGING"`
	Telemetry  TelemetryConfig  `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// ProcessingConfig controls how trader statistics are computed and written
type ProcessingConfig struct {
	Methodology  string `yaml:"methodology" envconfig:"METHODOLOGY" validate:"omitempty,oneof=session normalized"`
	Workers      int    `yaml:"workers" envconfig:"WORKERS" validate:"gte=0"`
	OutputFormat string `yaml:"output_format" envconfig:"OUTPUT_FORMAT" validate:"omitempty,oneof=parquet csv"`
	WriteDaily   bool   `yaml:"write_daily" envconfig:"WRITE_DAILY"`
}

// PathsConfig contains file system paths configuration.
// Empty subdirectories are derived from DataDir.
type PathsConfig struct {
	DataDir      string `yaml:"data_dir" envconfig:"DATA_DIR" validate:"required"`
	TradeDir     string `yaml:"trade_dir" envconfig:"TRADE_DIR"`
	ProcessedDir string `yaml:"processed_dir" envconfig:"PROCESSED_DIR"`
	ExtractDir   string `yaml:"extract_dir" envconfig:"EXTRACT_DIR"`
	ArchivePath  string `yaml:"archive_path" envconfig:"ARCHIVE_PATH"`
	ReportsDir   string `yaml:"reports_dir" envconfig:"REPORTS_DIR"`
	LogsDir      string `yaml:"logs_dir" envconfig:"LOGS_DIR"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"omitempty,oneof=debug info warn warning error"`
	Format   string `yaml:"format" envconfig:"FORMAT" validate:"omitempty,oneof=json text"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"omitempty,oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// TelemetryConfig contains tracing and metrics configuration
type TelemetryConfig struct {
	EnableTracing bool   `yaml:"enable_tracing" envconfig:"ENABLE_TRACING"`
	TraceExporter string `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" validate:"omitempty,oneof=stdout none"`
	EnableMetrics bool   `yaml:"enable_metrics" envconfig:"ENABLE_METRICS"`
	MetricsFile   string `yaml:"metrics_file" envconfig:"METRICS_FILE"`
}

// Load builds the configuration from defaults, an optional YAML file and
// METAORDER_* environment variables, in increasing order of precedence.
func Load(configFile string) (*Config, error) {
	cfg := Default()

	if configFile == "" {
		configFile = os.Getenv(EnvConfigFile)
	}
	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// envconfig only overwrites fields whose variables are set
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays a YAML file onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate checks struct constraints and normalizes empty enum fields
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	if c.Processing.Methodology == "" {
		c.Processing.Methodology = DefaultMethodology
	}
	if c.Processing.OutputFormat == "" {
		c.Processing.OutputFormat = DefaultOutputFormat
	}
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = DefaultLogFormat
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "console"
	}
	if c.Telemetry.TraceExporter == "" {
		c.Telemetry.TraceExporter = "none"
	}

	return nil
}

// WorkerCount resolves the worker pool size. One CPU is reserved for the
// orchestrator and an explicit override can only lower the count.
func (c *Config) WorkerCount() int {
	return ResolveWorkers(c.Processing.Workers, runtime.NumCPU())
}

// ResolveWorkers returns min(requested, cpus-1), at least 1. A requested
// value of 0 selects cpus-1.
func ResolveWorkers(requested, cpus int) int {
	limit := cpus - 1
	if limit < 1 {
		limit = 1
	}
	if requested <= 0 || requested > limit {
		return limit
	}
	return requested
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Processing: ProcessingConfig{
			Methodology:  DefaultMethodology,
			Workers:      0,
			OutputFormat: DefaultOutputFormat,
			WriteDaily:   false,
		},
		Paths: PathsConfig{
			DataDir: DefaultDataDir,
		},
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
			Output: "console",
		},
		Telemetry: TelemetryConfig{
			EnableTracing: false,
			TraceExporter: "none",
			EnableMetrics: true,
		},
	}
}

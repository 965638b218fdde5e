package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metaorder/internal/config"
	"metaorder/internal/shared/testutil"
)

func TestParseTickers(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{input: "", want: nil},
		{input: "ESZ3", want: []string{"ESZ3"}},
		{input: "ESZ3, NQH4,,ESZ3 ", want: []string{"ESZ3", "NQH4"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, parseTickers(tt.input))
		})
	}
}

func TestParseFlags(t *testing.T) {
	opts, err := parseFlags([]string{
		"-config", "cfg.yaml",
		"-tickers", "ESZ3,NQH4",
		"-workers", "3",
		"-archive", "chain.tar",
		"-format", "csv",
		"-methodology", "normalized",
		"-daily",
	}, &bytes.Buffer{})
	require.NoError(t, err)

	assert.Equal(t, "cfg.yaml", opts.configFile)
	assert.Equal(t, []string{"ESZ3", "NQH4"}, opts.tickers)
	assert.Equal(t, 3, opts.workers)
	assert.Equal(t, "chain.tar", opts.archive)
	assert.Equal(t, "csv", opts.format)
	assert.Equal(t, "normalized", opts.methodology)
	assert.True(t, opts.daily)
	assert.False(t, opts.version)
}

func TestParseFlags_Defaults(t *testing.T) {
	opts, err := parseFlags(nil, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, -1, opts.workers)
	assert.Nil(t, opts.tickers)
	assert.False(t, opts.daily)
}

func TestParseFlags_Unknown(t *testing.T) {
	var out bytes.Buffer
	_, err := parseFlags([]string{"-bogus"}, &out)
	assert.Error(t, err)
	assert.Contains(t, out.String(), "bogus")
}

func TestParseFlags_Help(t *testing.T) {
	var out bytes.Buffer
	_, err := parseFlags([]string{"-h"}, &out)
	require.ErrorIs(t, err, flag.ErrHelp)
	assert.Contains(t, out.String(), "-methodology")
	assert.Equal(t, exitOK, flagExitCode(err))
}

func TestFlagExitCode(t *testing.T) {
	_, err := parseFlags([]string{"-bogus"}, &bytes.Buffer{})
	require.Error(t, err)
	assert.Equal(t, exitFatal, flagExitCode(err))
	assert.Equal(t, exitOK, flagExitCode(fmt.Errorf("parse: %w", flag.ErrHelp)))
}

func TestApplyOverrides(t *testing.T) {
	tests := []struct {
		name    string
		opts    options
		wantErr bool
		check   func(*testing.T, *config.Config)
	}{
		{
			name: "unset flags keep config",
			opts: options{workers: -1},
			check: func(t *testing.T, cfg *config.Config) {
				assert.Equal(t, 0, cfg.Processing.Workers)
				assert.Equal(t, "session", cfg.Processing.Methodology)
				assert.False(t, cfg.Processing.WriteDaily)
			},
		},
		{
			name: "flags override",
			opts: options{workers: 4, archive: "chain.tar", format: "csv", methodology: "normalized", daily: true},
			check: func(t *testing.T, cfg *config.Config) {
				assert.Equal(t, 4, cfg.Processing.Workers)
				assert.Equal(t, "chain.tar", cfg.Paths.ArchivePath)
				assert.Equal(t, "csv", cfg.Processing.OutputFormat)
				assert.Equal(t, "normalized", cfg.Processing.Methodology)
				assert.True(t, cfg.Processing.WriteDaily)
			},
		},
		{
			name:    "invalid methodology",
			opts:    options{workers: -1, methodology: "vwap"},
			wantErr: true,
		},
		{
			name:    "invalid format",
			opts:    options{workers: -1, format: "feather"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			err := applyOverrides(cfg, &tt.opts)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestRun(t *testing.T) {
	base := t.TempDir()
	t.Setenv("METAORDER_PATHS_DATA_DIR", base)
	t.Setenv("METAORDER_LOGGING_LEVEL", "error")
	t.Setenv("METAORDER_TELEMETRY_METRICS_FILE", filepath.Join(base, "metaorder.prom"))

	instrumentDir := filepath.Join(base, "trade", "ESZ3")
	require.NoError(t, os.MkdirAll(instrumentDir, 0755))
	require.NoError(t, parquet.WriteFile(filepath.Join(instrumentDir, "part-0.parquet"), testutil.ThreeTradeDay()))

	code := run(context.Background(), &options{workers: 1, format: "csv", daily: true})
	assert.Equal(t, exitOK, code)

	assert.FileExists(t, filepath.Join(base, "processed", "buyer", "ESZ3.csv"))
	assert.FileExists(t, filepath.Join(base, "processed", "seller", "ESZ3.csv"))
	assert.FileExists(t, filepath.Join(base, "processed", "daily", "ESZ3.csv"))
	assert.FileExists(t, filepath.Join(base, "metaorder.prom"))

	reports, err := filepath.Glob(filepath.Join(base, "reports", "batch_report_*.xlsx"))
	require.NoError(t, err)
	assert.Len(t, reports, 1)
}

func TestRun_FailedInstrument(t *testing.T) {
	base := t.TempDir()
	t.Setenv("METAORDER_PATHS_DATA_DIR", base)
	t.Setenv("METAORDER_LOGGING_LEVEL", "error")

	require.NoError(t, os.MkdirAll(filepath.Join(base, "trade", "BAD"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(base, "trade", "BAD", "x.csv"), []byte("xltime\n1\n"), 0644))

	assert.Equal(t, exitFailed, run(context.Background(), &options{workers: 1}))
}

func TestRun_MissingTradeDir(t *testing.T) {
	t.Setenv("METAORDER_PATHS_DATA_DIR", t.TempDir())
	t.Setenv("METAORDER_LOGGING_LEVEL", "error")

	assert.Equal(t, exitFatal, run(context.Background(), &options{workers: -1}))
}

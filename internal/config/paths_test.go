package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPaths(t *testing.T) {
	base := t.TempDir()

	tests := []struct {
		name     string
		cfg      PathsConfig
		wantErr  bool
		validate func(*testing.T, *Paths)
	}{
		{
			name: "derived from data dir",
			cfg:  PathsConfig{DataDir: base},
			validate: func(t *testing.T, p *Paths) {
				assert.Equal(t, filepath.Join(base, "trade"), p.TradeDir)
				assert.Equal(t, filepath.Join(base, "processed"), p.ProcessedDir)
				assert.Equal(t, filepath.Join(base, "processed", "buyer"), p.BuyerDir)
				assert.Equal(t, filepath.Join(base, "processed", "seller"), p.SellerDir)
				assert.Equal(t, filepath.Join(base, "processed", "daily"), p.DailyDir)
				assert.Equal(t, filepath.Join(base, "extracts"), p.ExtractDir)
				assert.Empty(t, p.ArchivePath)
			},
		},
		{
			name: "relative overrides anchored at data dir",
			cfg:  PathsConfig{DataDir: base, TradeDir: "ticks", ArchivePath: "chain.tar"},
			validate: func(t *testing.T, p *Paths) {
				assert.Equal(t, filepath.Join(base, "ticks"), p.TradeDir)
				assert.Equal(t, filepath.Join(base, "chain.tar"), p.ArchivePath)
			},
		},
		{
			name: "absolute overrides kept",
			cfg:  PathsConfig{DataDir: base, ProcessedDir: "/tmp/out"},
			validate: func(t *testing.T, p *Paths) {
				assert.Equal(t, "/tmp/out", p.ProcessedDir)
				assert.Equal(t, "/tmp/out/seller", p.SellerDir)
			},
		},
		{
			name:    "missing data dir",
			cfg:     PathsConfig{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewPaths(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.validate(t, p)
		})
	}
}

func TestPaths_EnsureDirectories(t *testing.T) {
	base := t.TempDir()
	p, err := NewPaths(PathsConfig{DataDir: base})
	require.NoError(t, err)

	require.NoError(t, p.EnsureDirectories())

	for _, dir := range []string{p.BuyerDir, p.SellerDir, p.ReportsDir, p.LogsDir} {
		info, err := os.Stat(dir)
		require.NoError(t, err, dir)
		assert.True(t, info.IsDir())
	}

	// input directories are never created
	_, err = os.Stat(p.TradeDir)
	assert.True(t, os.IsNotExist(err))
}

func TestPaths_Helpers(t *testing.T) {
	p, err := NewPaths(PathsConfig{DataDir: "/data"})
	require.NoError(t, err)

	assert.Equal(t, "/data/processed/seller", p.SideDir("seller"))
	assert.Equal(t, "/data/processed/buyer", p.SideDir("buyer"))
	assert.Equal(t, "/data/trade/ESZ3", p.InstrumentDir("ESZ3"))
	assert.Equal(t, "/data/logs/run.log", p.GetLogPath("run.log"))
	assert.Equal(t, "/data/reports/batch.xlsx", p.GetReportPath("batch.xlsx"))
}

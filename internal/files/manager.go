package files

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"metaorder/internal/config"
)

// Manager provides file management operations relative to the configured paths
type Manager struct {
	paths  *config.Paths
	logger *slog.Logger
}

// Move is one pending rename of a fully written temporary file
type Move struct {
	Temp  string
	Final string
}

// NewManager creates a new file manager instance
func NewManager(paths *config.Paths, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{paths: paths, logger: logger.With("component", "files")}
}

// TempPath returns an unused hidden path in the directory of final.
// The directory is created if needed.
func (m *Manager) TempPath(final string) (string, error) {
	fullPath := m.resolvePath(final)
	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	f, err := os.CreateTemp(dir, "."+filepath.Base(fullPath)+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %w", err)
	}
	name := f.Name()
	if err := f.Close(); err != nil {
		os.Remove(name)
		return "", err
	}
	if err := os.Chmod(name, 0644); err != nil {
		os.Remove(name)
		return "", err
	}
	return name, nil
}

// CommitAll renames every temporary file onto its final path. If any rename
// fails, the files already committed and all remaining temporaries are
// removed, so either every final path is written or none is.
func (m *Manager) CommitAll(moves []Move) error {
	for i, mv := range moves {
		final := m.resolvePath(mv.Final)
		if err := os.Rename(mv.Temp, final); err != nil {
			for _, done := range moves[:i] {
				os.Remove(m.resolvePath(done.Final))
			}
			for _, pending := range moves[i:] {
				os.Remove(pending.Temp)
			}
			m.logger.Error("Commit failed, outputs rolled back",
				slog.String("path", final),
				slog.String("error", err.Error()))
			return fmt.Errorf("failed to commit %s: %w", final, err)
		}
	}
	return nil
}

// Discard removes temporary files of an abandoned commit
func (m *Manager) Discard(moves []Move) {
	for _, mv := range moves {
		if mv.Temp != "" {
			os.Remove(mv.Temp)
		}
	}
}

// OutputPath returns the output file of an instrument for a side
// ("buyer", "seller" or "daily") and file extension
func (m *Manager) OutputPath(kind, instrument, ext string) string {
	return m.resolvePath(filepath.Join(kind, instrument+ext))
}

// resolvePath maps relative paths onto the configured directories
func (m *Manager) resolvePath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}

	path = filepath.ToSlash(path)
	switch {
	case strings.HasPrefix(path, config.BuyerSubdir+"/"):
		return filepath.Join(m.paths.BuyerDir, strings.TrimPrefix(path, config.BuyerSubdir+"/"))
	case strings.HasPrefix(path, config.SellerSubdir+"/"):
		return filepath.Join(m.paths.SellerDir, strings.TrimPrefix(path, config.SellerSubdir+"/"))
	case strings.HasPrefix(path, config.DailySubdir+"/"):
		return filepath.Join(m.paths.DailyDir, strings.TrimPrefix(path, config.DailySubdir+"/"))
	default:
		return filepath.Join(m.paths.DataDir, path)
	}
}

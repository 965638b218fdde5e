package operations

import (
	"context"
	"log/slog"

	"metaorder/internal/files"
	"metaorder/pkg/contracts/domain"
)

// TradeSource enumerates instruments and loads their raw trade records
type TradeSource interface {
	Instruments() ([]string, error)
	Load(ctx context.Context, instrument string) ([]domain.RawTradeRecord, error)
}

// DirectorySource reads instruments from per-instrument folders
type DirectorySource struct {
	loader *files.Loader
}

// NewDirectorySource creates a source over tradeDir/<instrument>/
func NewDirectorySource(tradeDir string, logger *slog.Logger) *DirectorySource {
	return &DirectorySource{loader: files.NewLoader(tradeDir, logger)}
}

// Instruments lists every instrument folder
func (s *DirectorySource) Instruments() ([]string, error) {
	return s.loader.Discovery().FindInstruments()
}

// Load concatenates all trade files of an instrument
func (s *DirectorySource) Load(ctx context.Context, instrument string) ([]domain.RawTradeRecord, error) {
	return s.loader.LoadInstrument(ctx, instrument)
}

// ArchiveSource reads instruments from members of a tar archive. Each member
// is extracted, loaded and removed again.
type ArchiveSource struct {
	archive *files.Archive
	logger  *slog.Logger
}

// NewArchiveSource creates a source over a tar archive
func NewArchiveSource(archive *files.Archive, logger *slog.Logger) *ArchiveSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &ArchiveSource{archive: archive, logger: logger}
}

// Instruments lists the instruments that have a trade file member
func (s *ArchiveSource) Instruments() ([]string, error) {
	return s.archive.Instruments()
}

// Load extracts the instrument's member and reads it
func (s *ArchiveSource) Load(ctx context.Context, instrument string) ([]domain.RawTradeRecord, error) {
	path, format, err := s.archive.ExtractInstrument(ctx, instrument)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := s.archive.Cleanup(path); err != nil {
			s.logger.WarnContext(ctx, "Failed to remove extracted file",
				slog.String("path", path),
				slog.String("error", err.Error()))
		}
	}()

	return files.LoadFile(path, format)
}

// Close removes anything left in the extraction directory
func (s *ArchiveSource) Close() error {
	return s.archive.CleanExtracts()
}

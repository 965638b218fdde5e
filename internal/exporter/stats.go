package exporter

import (
	"context"
	"fmt"
	"log/slog"

	"metaorder/internal/config"
	"metaorder/internal/errors"
	"metaorder/internal/files"
	"metaorder/pkg/contracts/domain"
)

// Output formats
const (
	FormatParquet = "parquet"
	FormatCSV     = "csv"
)

// dailyColumns is the flat-file header of the daily overview
var dailyColumns = []string{"day", "trade_count", "day_volume", "day_std", "day_price_std"}

// Written describes the files committed for one instrument
type Written struct {
	Paths     map[domain.Side]string
	Rows      map[domain.Side]int
	DailyPath string // empty unless the daily overview was requested
}

// Tables holds the outputs of one instrument. Daily is written only when
// IncludeDaily is set.
type Tables struct {
	Buyers       []domain.TraderStatRow
	Sellers      []domain.TraderStatRow
	Daily        []domain.DailySummary
	IncludeDaily bool
}

// StatsExporter writes the buyer and seller tables of an instrument
type StatsExporter struct {
	files  *files.Manager
	csv    *CSVWriter
	format string
	logger *slog.Logger
}

// NewStatsExporter creates an exporter writing format ("parquet" or "csv")
func NewStatsExporter(manager *files.Manager, format string, logger *slog.Logger) (*StatsExporter, error) {
	switch format {
	case "":
		format = FormatParquet
	case FormatParquet, FormatCSV:
	default:
		return nil, errors.NewAppValidationError(fmt.Sprintf("unsupported output format %q", format))
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &StatsExporter{
		files:  manager,
		csv:    NewCSVWriter(),
		format: format,
		logger: logger.With("component", "exporter"),
	}, nil
}

// Extension returns the output file extension including the dot
func (e *StatsExporter) Extension() string {
	return "." + e.format
}

// ExportTraderStats writes both side tables of an instrument
func (e *StatsExporter) ExportTraderStats(ctx context.Context, instrument string, buyers, sellers []domain.TraderStatRow) (*Written, error) {
	return e.Export(ctx, instrument, Tables{Buyers: buyers, Sellers: sellers})
}

// Export writes the tables of an instrument. Each table is written to a
// temporary file first; the final files are only replaced once all of them
// are complete, and a failure leaves none.
func (e *StatsExporter) Export(ctx context.Context, instrument string, tables Tables) (*Written, error) {
	sides := map[domain.Side][]domain.TraderStatRow{
		domain.SideBuyer:  tables.Buyers,
		domain.SideSeller: tables.Sellers,
	}

	written := &Written{
		Paths: make(map[domain.Side]string, len(domain.Sides)),
		Rows:  make(map[domain.Side]int, len(domain.Sides)),
	}
	moves := make([]files.Move, 0, len(domain.Sides)+1)

	for _, side := range domain.Sides {
		if err := ctx.Err(); err != nil {
			e.files.Discard(moves)
			return nil, err
		}

		final := e.files.OutputPath(sideDir(side), instrument, e.Extension())
		tmp, err := e.files.TempPath(final)
		if err != nil {
			e.files.Discard(moves)
			return nil, errors.NewStorageError(fmt.Sprintf("failed to prepare %s output", side), err)
		}
		moves = append(moves, files.Move{Temp: tmp, Final: final})

		if err := e.writeStats(tmp, sides[side]); err != nil {
			e.files.Discard(moves)
			return nil, errors.NewStorageError(fmt.Sprintf("failed to write %s table", side), err).
				WithContext("instrument", instrument)
		}
		written.Paths[side] = final
		written.Rows[side] = len(sides[side])
	}

	if tables.IncludeDaily {
		final := e.files.OutputPath(config.DailySubdir, instrument, e.Extension())
		tmp, err := e.files.TempPath(final)
		if err != nil {
			e.files.Discard(moves)
			return nil, errors.NewStorageError("failed to prepare daily output", err)
		}
		moves = append(moves, files.Move{Temp: tmp, Final: final})

		if err := e.writeDaily(tmp, tables.Daily); err != nil {
			e.files.Discard(moves)
			return nil, errors.NewStorageError("failed to write daily table", err).
				WithContext("instrument", instrument)
		}
		written.DailyPath = final
	}

	if err := e.files.CommitAll(moves); err != nil {
		return nil, errors.NewStorageError("failed to commit instrument tables", err).
			WithContext("instrument", instrument)
	}

	e.logger.InfoContext(ctx, "Exported trader statistics",
		slog.String("instrument", instrument),
		slog.Int("buyer_rows", written.Rows[domain.SideBuyer]),
		slog.Int("seller_rows", written.Rows[domain.SideSeller]),
		slog.Bool("daily", tables.IncludeDaily),
		slog.String("format", e.format))

	return written, nil
}

func (e *StatsExporter) writeStats(path string, rows []domain.TraderStatRow) error {
	if e.format == FormatParquet {
		return WriteParquet(path, rows)
	}

	stream, err := e.csv.CreateStreamWriter(path, domain.TraderStatColumns, false)
	if err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			formatFloat(r.VolumePct),
			formatFloat(r.PriceImpactPct),
			formatFloat(r.MetaorderDuration),
			formatFloat(r.DayStd),
		}
		if err := stream.WriteRecord(record); err != nil {
			stream.Close()
			return err
		}
	}
	return stream.Close()
}

func (e *StatsExporter) writeDaily(path string, daily []domain.DailySummary) error {
	if e.format == FormatParquet {
		return WriteParquet(path, daily)
	}

	records := make([][]string, len(daily))
	for i, d := range daily {
		records[i] = []string{
			formatDate(d.Day),
			formatInt(d.TradeCount),
			formatFloat(d.DayVolume),
			formatOptionalFloat(d.DayStd),
			formatOptionalFloat(d.DayPriceStd),
		}
	}
	return e.csv.WriteCSV(path, WriteOptions{Headers: dailyColumns, Records: records})
}

func sideDir(side domain.Side) string {
	if side == domain.SideSeller {
		return config.SellerSubdir
	}
	return config.BuyerSubdir
}

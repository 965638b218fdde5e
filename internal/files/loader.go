package files

import (
	"compress/gzip"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/parquet-go/parquet-go"

	"metaorder/internal/errors"
	"metaorder/pkg/contracts/domain"
)

// Raw trade column names
const (
	ColXLTime     = "xltime"
	ColPrice      = "trade-price"
	ColVolume     = "trade-volume"
	ColRawFlag    = "trade-rawflag"
	ColStringFlag = "trade-stringflag"
)

var requiredColumns = []string{ColXLTime, ColPrice, ColVolume}

// parquetTrade reads the vendor columns with every field nullable, the way
// dataframe exports write them. Files with required columns convert into it.
type parquetTrade struct {
	XLTime     *float64 `parquet:"xltime,optional"`
	Price      *float64 `parquet:"trade-price,optional"`
	Volume     *float64 `parquet:"trade-volume,optional"`
	RawFlag    *string  `parquet:"trade-rawflag,optional"`
	StringFlag *string  `parquet:"trade-stringflag,optional"`
}

// record maps nulls to NaN and empty strings, matching the csv decoding
func (t parquetTrade) record() domain.RawTradeRecord {
	return domain.RawTradeRecord{
		XLTime:     floatOrNaN(t.XLTime),
		Price:      floatOrNaN(t.Price),
		Volume:     floatOrNaN(t.Volume),
		RawFlag:    stringOrEmpty(t.RawFlag),
		StringFlag: stringOrEmpty(t.StringFlag),
	}
}

func floatOrNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

func stringOrEmpty(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

// Loader reads raw trade records from parquet, csv and csv.gz files
type Loader struct {
	discovery *Discovery
	logger    *slog.Logger
}

// NewLoader creates a loader rooted at the trade directory
func NewLoader(tradeDir string, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		discovery: NewDiscovery(tradeDir),
		logger:    logger.With("component", "loader"),
	}
}

// Discovery returns the discovery instance used for the trade directory
func (l *Loader) Discovery() *Discovery {
	return l.discovery
}

// LoadInstrument reads and concatenates every trade file of one instrument
// folder, in file name order.
func (l *Loader) LoadInstrument(ctx context.Context, instrument string) ([]domain.RawTradeRecord, error) {
	files, format, err := l.discovery.FindTradeFiles(instrument)
	if err != nil {
		return nil, err
	}

	var records []domain.RawTradeRecord
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rows, err := LoadFile(f.Path, format)
		if err != nil {
			return nil, err
		}
		l.logger.DebugContext(ctx, "Loaded trade file",
			slog.String("file", f.Name),
			slog.String("format", string(format)),
			slog.Int("rows", len(rows)))
		records = append(records, rows...)
	}

	l.logger.InfoContext(ctx, "Loaded instrument",
		slog.String("instrument", instrument),
		slog.Int("files", len(files)),
		slog.Int("records", len(records)))

	return records, nil
}

// LoadFile reads a single trade file in the given format
func LoadFile(path string, format Format) ([]domain.RawTradeRecord, error) {
	switch format {
	case FormatParquet:
		rows, err := parquet.ReadFile[parquetTrade](path)
		if err != nil {
			return nil, errors.NewParsingError(fmt.Sprintf("failed to read parquet file %s", path), err)
		}
		records := make([]domain.RawTradeRecord, len(rows))
		for i, row := range rows {
			records[i] = row.record()
		}
		return records, nil
	case FormatCSV, FormatCSVGzip:
		return loadCSVFile(path, format == FormatCSVGzip)
	default:
		return nil, errors.NewAppValidationError(fmt.Sprintf("unsupported trade file format %q", format))
	}
}

func loadCSVFile(path string, gzipped bool) ([]domain.RawTradeRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.NewStorageError(fmt.Sprintf("failed to open %s", path), err)
	}
	defer file.Close()

	var r io.Reader = file
	if gzipped {
		gz, err := gzip.NewReader(file)
		if err != nil {
			return nil, errors.NewParsingError(fmt.Sprintf("failed to open gzip stream %s", path), err)
		}
		defer gz.Close()
		r = gz
	}

	rows, err := ReadCSV(r)
	if err != nil {
		return nil, errors.NewParsingError(fmt.Sprintf("failed to parse %s", path), err)
	}
	return rows, nil
}

// ReadCSV decodes raw trade records from a CSV stream with a header row.
// Columns are matched by name; the flag columns are optional. An empty
// numeric cell decodes as NaN.
func ReadCSV(r io.Reader) ([]domain.RawTradeRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("missing required column %q", col)
		}
	}

	cell := func(row []string, col string) string {
		i, ok := index[col]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	var records []domain.RawTradeRecord
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		var rec domain.RawTradeRecord
		if rec.XLTime, err = parseFloat(cell(row, ColXLTime)); err != nil {
			return nil, fmt.Errorf("line %d: column %s: %w", line, ColXLTime, err)
		}
		if rec.Price, err = parseFloat(cell(row, ColPrice)); err != nil {
			return nil, fmt.Errorf("line %d: column %s: %w", line, ColPrice, err)
		}
		if rec.Volume, err = parseFloat(cell(row, ColVolume)); err != nil {
			return nil, fmt.Errorf("line %d: column %s: %w", line, ColVolume, err)
		}
		rec.RawFlag = cell(row, ColRawFlag)
		rec.StringFlag = cell(row, ColStringFlag)
		records = append(records, rec)
	}

	return records, nil
}

func parseFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

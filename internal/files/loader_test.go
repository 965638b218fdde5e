package files

import (
	"bytes"
	"compress/gzip"
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metaorder/internal/errors"
	"metaorder/internal/shared/testutil"
	"metaorder/pkg/contracts/domain"
)

const sampleCSV = `xltime,trade-price,trade-volume,trade-rawflag,trade-stringflag
45000.5,100.25,3,[BNPP Seller ID]1[BNPP Buyer ID]2,XOFF
45000.75,101,,[BNPP Buyer ID]2,
`

func writeGzip(t *testing.T, path, content string) {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
}

func TestReadCSV(t *testing.T) {
	records, err := ReadCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, 45000.5, records[0].XLTime)
	assert.Equal(t, 100.25, records[0].Price)
	assert.Equal(t, 3.0, records[0].Volume)
	assert.Equal(t, "[BNPP Seller ID]1[BNPP Buyer ID]2", records[0].RawFlag)
	assert.Equal(t, "XOFF", records[0].StringFlag)

	assert.True(t, math.IsNaN(records[1].Volume))
	assert.Empty(t, records[1].StringFlag)
}

func TestReadCSV_ColumnOrderAndOptionalFlags(t *testing.T) {
	input := "\ufefftrade-volume,xltime,trade-price\n2,45001,99\n"

	records, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, domain.RawTradeRecord{XLTime: 45001, Price: 99, Volume: 2}, records[0])
}

func TestReadCSV_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "missing column", input: "xltime,trade-price\n1,2\n"},
		{name: "bad number", input: "xltime,trade-price,trade-volume\n1,abc,2\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestReadCSV_Empty(t *testing.T) {
	records, err := ReadCSV(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestLoadFile_Parquet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ESZ3.parquet")
	want := testutil.ThreeTradeDay()
	require.NoError(t, parquet.WriteFile(path, want))

	got, err := LoadFile(path, FormatParquet)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadFile_ParquetNullableColumns(t *testing.T) {
	day := testutil.At(2023, time.March, 15, 10, 0, 0)
	records := []domain.RawTradeRecord{
		testutil.RawTrade(day, 100, 2, 1, 2),
		testutil.RawTrade(day.Add(time.Minute), math.NaN(), 3, 1, 2),
		testutil.RawTrade(day.Add(2*time.Minute), 101, math.NaN(), 1, 2),
		{XLTime: math.NaN(), Price: 102, Volume: 1, RawFlag: testutil.Flag(2, 1)},
	}
	path := filepath.Join(t.TempDir(), "ESZ3.parquet")
	require.NoError(t, parquet.WriteFile(path, testutil.Nullable(records)))

	got, err := LoadFile(path, FormatParquet)
	require.NoError(t, err)
	require.Len(t, got, 4)

	assert.Equal(t, records[0], got[0])
	assert.True(t, math.IsNaN(got[1].Price), "null price must not load as zero")
	assert.Equal(t, 3.0, got[1].Volume)
	assert.True(t, math.IsNaN(got[2].Volume))
	assert.True(t, math.IsNaN(got[3].XLTime))
	assert.Equal(t, testutil.Flag(2, 1), got[3].RawFlag)
	assert.Empty(t, got[3].StringFlag)
}

func TestLoadFile_ParquetAndCSVAgreeOnNulls(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "ESZ3.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("xltime,trade-price,trade-volume,trade-rawflag\n45000.5,,3,[BNPP Buyer ID]1\n"), 0644))

	parquetPath := filepath.Join(dir, "ESZ3.parquet")
	require.NoError(t, parquet.WriteFile(parquetPath, testutil.Nullable([]domain.RawTradeRecord{
		{XLTime: 45000.5, Price: math.NaN(), Volume: 3, RawFlag: "[BNPP Buyer ID]1"},
	})))

	fromCSV, err := LoadFile(csvPath, FormatCSV)
	require.NoError(t, err)
	fromParquet, err := LoadFile(parquetPath, FormatParquet)
	require.NoError(t, err)

	require.Len(t, fromCSV, 1)
	require.Len(t, fromParquet, 1)
	assert.True(t, math.IsNaN(fromCSV[0].Price))
	assert.True(t, math.IsNaN(fromParquet[0].Price))
	assert.Equal(t, fromCSV[0].XLTime, fromParquet[0].XLTime)
	assert.Equal(t, fromCSV[0].Volume, fromParquet[0].Volume)
}

func TestLoadFile_Errors(t *testing.T) {
	dir := t.TempDir()
	bogus := filepath.Join(dir, "bogus.parquet")
	require.NoError(t, os.WriteFile(bogus, []byte("not parquet"), 0644))

	_, err := LoadFile(bogus, FormatParquet)
	require.Error(t, err)
	assert.Equal(t, errors.ErrTypeParsing, errors.TypeOf(err))

	_, err = LoadFile(filepath.Join(dir, "absent.csv"), FormatCSV)
	require.Error(t, err)
	assert.Equal(t, errors.ErrTypeStorage, errors.TypeOf(err))

	notGzip := filepath.Join(dir, "plain.csv.gz")
	require.NoError(t, os.WriteFile(notGzip, []byte(sampleCSV), 0644))
	_, err = LoadFile(notGzip, FormatCSVGzip)
	assert.Equal(t, errors.ErrTypeParsing, errors.TypeOf(err))

	_, err = LoadFile(bogus, Format("feather"))
	assert.Equal(t, errors.ErrTypeValidation, errors.TypeOf(err))
}

func TestLoader_LoadInstrument(t *testing.T) {
	base := t.TempDir()
	writeGzip(t, filepath.Join(base, "ESZ3", "part-2.csv.gz"), sampleCSV)
	writeGzip(t, filepath.Join(base, "ESZ3", "part-1.csv.gz"), "xltime,trade-price,trade-volume\n44999,1,1\n")
	// lower-priority format is ignored
	touch(t, filepath.Join(base, "ESZ3", "ignored.csv"))

	logger, handler := testutil.NewTestLogger(t)
	records, err := NewLoader(base, logger).LoadInstrument(context.Background(), "ESZ3")
	require.NoError(t, err)

	require.Len(t, records, 3)
	assert.Equal(t, 44999.0, records[0].XLTime)
	assert.Equal(t, 45000.5, records[1].XLTime)
	testutil.AssertLogAttr(t, handler, "records", 3)
}

func TestLoader_LoadInstrumentParquetParts(t *testing.T) {
	base := t.TempDir()
	dir := filepath.Join(base, "NQH4")
	require.NoError(t, os.MkdirAll(dir, 0755))

	day := testutil.At(2023, time.March, 1, 10, 0, 0)
	require.NoError(t, parquet.WriteFile(filepath.Join(dir, "a.parquet"), []domain.RawTradeRecord{
		testutil.RawTrade(day, 10, 1, 1, 2),
	}))
	require.NoError(t, parquet.WriteFile(filepath.Join(dir, "b.parquet"), []domain.RawTradeRecord{
		testutil.RawTrade(day.Add(time.Minute), 11, 1, 2, 1),
		testutil.RawTrade(day.Add(2*time.Minute), 12, 1, 1, 2),
	}))

	records, err := NewLoader(base, nil).LoadInstrument(context.Background(), "NQH4")
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []float64{10, 11, 12}, []float64{records[0].Price, records[1].Price, records[2].Price})
}

func TestLoader_LoadInstrumentMissing(t *testing.T) {
	_, err := NewLoader(t.TempDir(), nil).LoadInstrument(context.Background(), "ESZ3")
	assert.Error(t, err)
}

func TestLoader_LoadInstrumentCancelled(t *testing.T) {
	base := t.TempDir()
	touch(t, filepath.Join(base, "ESZ3", "a.csv"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewLoader(base, nil).LoadInstrument(ctx, "ESZ3")
	assert.ErrorIs(t, err, context.Canceled)
}

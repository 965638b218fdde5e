package exporter

import (
	"fmt"

	"github.com/parquet-go/parquet-go"
)

// WriteParquet writes rows to path with the schema derived from T's
// parquet struct tags. Output is deterministic for identical input.
func WriteParquet[T any](path string, rows []T) error {
	if err := parquet.WriteFile(path, rows, parquet.Compression(&parquet.Snappy)); err != nil {
		return fmt.Errorf("failed to write parquet file %s: %w", path, err)
	}
	return nil
}

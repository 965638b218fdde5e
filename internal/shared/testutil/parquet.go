package testutil

import (
	"fmt"

	"github.com/parquet-go/parquet-go"
)

// ReadParquet reads every row of a parquet output file
func ReadParquet[T any](path string) ([]T, error) {
	rows, err := parquet.ReadFile[T](path)
	if err != nil {
		return nil, fmt.Errorf("failed to read parquet file %s: %w", path, err)
	}
	return rows, nil
}

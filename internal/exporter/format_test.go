package exporter

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		input    float64
		expected string
	}{
		{0, "0"},
		{123.456, "123.456"},
		{-0.5, "-0.5"},
		{1e-7, "0.0000001"},
		{0.1 + 0.2, "0.30000000000000004"},
		{1000000, "1000000"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatFloat(tt.input))
		})
	}
}

func TestFormatOptionalFloat(t *testing.T) {
	v := 2.25
	assert.Equal(t, "2.25", formatOptionalFloat(&v))
	assert.Equal(t, "", formatOptionalFloat(nil))

	nan := math.NaN()
	assert.Equal(t, "NaN", formatOptionalFloat(&nan))
}

func TestFormatInt(t *testing.T) {
	assert.Equal(t, "42", formatInt(42))
	assert.Equal(t, "-7", formatInt(-7))
}

func TestFormatDate(t *testing.T) {
	day := time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "2023-03-01", formatDate(day))

	// late evening in a western zone is still the next UTC day
	ny := time.FixedZone("EST", -5*3600)
	assert.Equal(t, "2023-03-02", formatDate(time.Date(2023, 3, 1, 22, 0, 0, 0, ny)))
}

package exporter

import (
	"strconv"
	"time"
)

// formatFloat formats a float64 for flat-file output using the shortest
// representation that round-trips
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// formatOptionalFloat formats a nullable value; nil becomes an empty cell
func formatOptionalFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return formatFloat(*f)
}

// formatInt formats an int64 value for CSV output
func formatInt(i int64) string {
	return strconv.FormatInt(i, 10)
}

// formatDate formats a day as YYYY-MM-DD
func formatDate(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// Package shared holds helpers used across the metaorder packages.
//
// The testutil subpackage provides a capturing slog handler and builders for
// raw trade fixtures:
//
//	logger, handler := testutil.NewTestLogger(t)
//	records := testutil.ThreeTradeDay()
package shared

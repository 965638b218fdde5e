// Package files locates, reads and writes the files of a metaorder batch.
//
// Discovery finds instrument folders and their trade files. Loader decodes
// raw trade records from parquet, csv or gzip-compressed csv. Archive pulls
// single instrument files out of a tar archive. Manager resolves output
// paths and commits groups of temporary files all-or-nothing.
//
//	loader := files.NewLoader(paths.TradeDir, logger)
//	records, err := loader.LoadInstrument(ctx, "ESZ3")
package files

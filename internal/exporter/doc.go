// Package exporter writes the results of the metaorder pipeline.
//
// StatsExporter writes the buyer and seller tables of an instrument as
// parquet (snappy) or CSV. Both tables go to temporary files next to their
// destinations and are renamed into place together, so an instrument never
// ends up with only one side written. The optional daily overview is written
// the same way.
//
// WriteBatchReport produces the xlsx workbook summarising a batch run.
//
// Example usage:
//
//	exp, err := exporter.NewStatsExporter(files.NewManager(paths, logger), "parquet", logger)
//	if err != nil {
//		return err
//	}
//	written, err := exp.ExportTraderStats(ctx, "ESZ3", result.Buyers, result.Sellers)
package exporter

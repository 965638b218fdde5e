// Package operations runs the metaorder batch.
//
// Manager enumerates instruments from the trade directory or a tar archive
// and hands them to a Pool. Each worker runs an InstrumentProcessor job to
// completion: load the raw trades, run the pipeline, export both trader
// tables. Jobs share no state; one failing or panicking instrument is recorded
// in the BatchSummary and the rest of the batch continues.
//
//	mgr := operations.NewManager(cfg, paths, providers, logger)
//	summary, err := mgr.Execute(ctx, nil)
//	if err != nil {
//		return err
//	}
//	summary.Log(logger)
//	mgr.WriteReport(summary)
package operations

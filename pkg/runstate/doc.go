// Package runstate keeps a short-lived ledger of pipeline runs in Redis.
//
// Every fetch or convert run is recorded once it finishes, under its own key
// and as the latest run of its kind:
//
//	sales:run:<kind>:<id>
//	sales:run:<kind>:latest
//
// Records are JSON and expire after the store's TTL (7 days by default).
//
// # Basic Usage
//
//	client, err := runstate.Dial(ctx, "redis://localhost:6379/0")
//	if err != nil {
//		return err
//	}
//	store := runstate.NewStore(client, runstate.DefaultTTL)
//
//	record := runstate.NewRecord(runstate.KindFetch, "2022-08-09")
//	// ... run the fetch ...
//	record.Finish(err)
//	if err := store.Save(ctx, record); err != nil {
//		log.Warn().Err(err).Msg("Failed to record run")
//	}
//
//	latest, err := store.Latest(ctx, runstate.KindFetch)
//	if errors.Is(err, runstate.ErrNotFound) {
//		// no run recorded yet
//	}
//
// The ledger is informational. A failed Save must never fail the run it
// describes; callers log the error and carry on.
//
// # Metrics
//
//   - sales_runstate_errors_total{operation} - Redis and encoding failures
package runstate

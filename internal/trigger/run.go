package trigger

import (
	"context"

	"github.com/atroinina/sales-pipeline/pkg/convert"
	"github.com/atroinina/sales-pipeline/pkg/logging"
	"github.com/atroinina/sales-pipeline/pkg/pagination"
	"github.com/atroinina/sales-pipeline/pkg/runstate"
)

// RunFetch fetches date into rawDir and records the run in ledger. The
// returned record is finished whether or not the fetch succeeded.
func RunFetch(ctx context.Context, fetcher Fetcher, ledger Ledger, rawDir, date string) (*runstate.Record, pagination.Summary, error) {
	record := runstate.NewRecord(runstate.KindFetch, date)
	record.RawDir = rawDir

	summary, err := fetcher.FetchAndPersist(ctx, rawDir, date)
	record.Pages = summary.Pages
	record.Files = len(summary.Files)
	record.Finish(err)
	saveRun(ctx, ledger, record)

	return record, summary, err
}

// RunConvert converts rawDir into stgDir and records the run in ledger.
// date only labels the record and may be empty.
func RunConvert(ctx context.Context, converter Converter, ledger Ledger, date, rawDir, stgDir string) (*runstate.Record, convert.Summary, error) {
	record := runstate.NewRecord(runstate.KindConvert, date)
	record.RawDir = rawDir
	record.StgDir = stgDir

	summary, err := converter.ConvertAll(rawDir, stgDir)
	record.Files = len(summary.Files)
	record.Records = summary.Records
	record.Finish(err)
	saveRun(ctx, ledger, record)

	return record, summary, err
}

// saveRun records a finished run. Ledger failures are logged, never returned.
func saveRun(ctx context.Context, ledger Ledger, record *runstate.Record) {
	if ledger == nil {
		return
	}
	if err := ledger.Save(ctx, record); err != nil {
		logging.FromContext(ctx).Warn().
			Err(err).
			Str("run_id", record.ID).
			Msg("Failed to record run")
	}
}

// Package pagination drives the sequential page fetch for one sales date and
// persists every page as a Raw File.
//
// The sales API has no page count header. The only end-of-data signal is a
// 404, and the same 404 also means "no data at all" when it comes back for
// the first page. The engine therefore fetches strictly in order, one request
// in flight, and interprets each status relative to the page that preceded it:
//
//	200            -> persist page, ask for the next one   (StateFetching)
//	404, page > 1  -> stop, pages 1..page-1 are complete    (StateEndOfStream)
//	404, page == 1 -> fail with ErrEmptyResult              (StateFailed)
//	anything else  -> fail with ErrUnexpectedStatus         (StateFailed)
//
// Example usage:
//
//	salesClient, _ := client.New(client.DefaultConfig(baseURL, token))
//	engine := pagination.NewEngine(salesClient, pagination.DefaultConfig())
//	summary, err := engine.FetchAndPersist(ctx, "/data/raw/sales/2022-08-09", "2022-08-09")
//
// The target directory is cleared once at the start of every run, so a re-run
// replaces the previous attempt's files. Nothing is retried and nothing already
// written is rolled back on failure.
package pagination

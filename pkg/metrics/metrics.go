// Package metrics exposes the pipeline's Prometheus metrics.
// Collectors are defined in their own packages (client, pagination, convert,
// runstate) and registered on Registry via promauto.With; this package
// serves them.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the registerer every pipeline collector is created on.
var Registry = prometheus.DefaultRegisterer

// Gatherer is the registry scraped by Handler.
var Gatherer = prometheus.DefaultGatherer

// Handler returns the HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{})
}

// Metrics Documentation
//
// Sales API Metrics (pkg/client):
//   - sales_api_requests_total{status} (Counter): Page requests by HTTP status
//   - sales_api_request_duration_seconds (Histogram): Page request duration
//   - sales_api_errors_total{class} (Counter): Non-200 and transport outcomes by class
//
// Fetch Metrics (pkg/pagination):
//   - sales_fetch_runs_total{outcome} (Counter): Fetch runs by outcome (success, empty, failed)
//   - sales_pages_persisted_total (Counter): Raw files written
//
// Conversion Metrics (pkg/convert):
//   - sales_convert_runs_total{outcome} (Counter): Conversion runs by outcome (success, failed)
//   - sales_files_converted_total (Counter): Avro files written
//   - sales_records_converted_total (Counter): Records written to Avro files
//
// Run Ledger Metrics (pkg/runstate):
//   - sales_runstate_errors_total{operation} (Counter): Ledger failures by operation
//
// Example Prometheus Queries:
//
//   # Failed fetch runs in the last day
//   increase(sales_fetch_runs_total{outcome="failed"}[1d])
//
//   # Pages per successful fetch run
//   increase(sales_pages_persisted_total[1d]) / increase(sales_fetch_runs_total{outcome="success"}[1d])
//
//   # P95 page latency
//   histogram_quantile(0.95, rate(sales_api_request_duration_seconds_bucket[5m]))

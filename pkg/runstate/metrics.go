package runstate

import (
	"github.com/atroinina/sales-pipeline/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// StoreErrors tracks ledger operation errors.
var StoreErrors = promauto.With(metrics.Registry).NewCounterVec(
	prometheus.CounterOpts{
		Name: "sales_runstate_errors_total",
		Help: "Total number of run ledger operation errors",
	},
	[]string{"operation"}, // "save", "get", "latest"
)

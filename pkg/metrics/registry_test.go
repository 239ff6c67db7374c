package metrics_test

import (
	"testing"

	_ "github.com/atroinina/sales-pipeline/pkg/client"
	_ "github.com/atroinina/sales-pipeline/pkg/convert"
	"github.com/atroinina/sales-pipeline/pkg/metrics"
	_ "github.com/atroinina/sales-pipeline/pkg/pagination"
)

func TestPipelineCollectorsRegistered(t *testing.T) {
	families, err := metrics.Gatherer.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}

	found := make(map[string]bool, len(families))
	for _, mf := range families {
		found[mf.GetName()] = true
	}

	for _, name := range []string{
		"sales_api_request_duration_seconds",
		"sales_pages_persisted_total",
		"sales_files_converted_total",
		"sales_records_converted_total",
	} {
		if !found[name] {
			t.Errorf("Expected %s to be registered on metrics.Registry", name)
		}
	}
}

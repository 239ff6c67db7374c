// Package trigger exposes the fetch and convert stages over HTTP.
//
// Each stage gets its own server. POST / runs the stage once for the paths
// in the request body; GET /health, GET /metrics and GET /runs/latest are
// served alongside.
package trigger

import (
	"context"
	"errors"
	"net/http"

	"github.com/atroinina/sales-pipeline/pkg/convert"
	"github.com/atroinina/sales-pipeline/pkg/logging"
	"github.com/atroinina/sales-pipeline/pkg/metrics"
	"github.com/atroinina/sales-pipeline/pkg/pagination"
	"github.com/atroinina/sales-pipeline/pkg/runstate"
)

// Fetcher runs the paginated fetch for one date.
type Fetcher interface {
	FetchAndPersist(ctx context.Context, targetDir, date string) (pagination.Summary, error)
}

// Converter converts a raw directory into Avro files.
type Converter interface {
	ConvertAll(rawDir, outDir string) (convert.Summary, error)
}

// Ledger records finished runs. A nil Ledger disables run tracking.
type Ledger interface {
	Save(ctx context.Context, record *runstate.Record) error
	Latest(ctx context.Context, kind runstate.Kind) (*runstate.Record, error)
}

// Messages returned on success and on rejected requests.
const (
	MsgFetched          = "Sales data extracted successfully!"
	MsgConverted        = "JSON files converted to Avro."
	MsgRawDirRequired   = "raw_dir is required."
	MsgDirsRequired     = "raw_dir and stg_dir are required."
	MsgInvalidBody      = "request body must be a JSON object."
	MsgMethodNotAllowed = "method not allowed."
)

// FetchRequest is the body of POST / on the fetch server.
type FetchRequest struct {
	RawDir string `json:"raw_dir"`
	Date   string `json:"date,omitempty"`
}

// FetchResponse is returned when a fetch run succeeds.
type FetchResponse struct {
	Message string `json:"message"`
	RunID   string `json:"run_id"`
	Date    string `json:"date"`
	RawDir  string `json:"raw_dir"`
	Pages   int    `json:"pages"`
}

// ConvertRequest is the body of POST / on the convert server.
type ConvertRequest struct {
	RawDir string `json:"raw_dir"`
	StgDir string `json:"stg_dir"`
}

// ConvertResponse is returned when a conversion run succeeds.
type ConvertResponse struct {
	Message string `json:"message"`
	RunID   string `json:"run_id"`
	Files   int    `json:"files"`
	Records int    `json:"records"`
}

// NewFetchHandler returns the fetch server's routes. dateFor resolves the
// date to fetch from the (possibly empty) date in the request.
func NewFetchHandler(fetcher Fetcher, ledger Ledger, dateFor func(string) string) http.Handler {
	run := func(w http.ResponseWriter, r *http.Request) {
		var req FetchRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, MsgInvalidBody)
			return
		}
		if req.RawDir == "" {
			writeError(w, http.StatusBadRequest, MsgRawDirRequired)
			return
		}

		ctx := r.Context()
		logger := logging.FromContext(ctx)

		date := dateFor(req.Date)
		record, summary, err := RunFetch(ctx, fetcher, ledger, req.RawDir, date)

		if err != nil {
			logger.Error().Err(err).Str("run_id", record.ID).Str("date", date).Msg("Fetch run failed")
			writeError(w, fetchStatus(err), err.Error())
			return
		}

		writeJSON(w, http.StatusCreated, FetchResponse{
			Message: MsgFetched,
			RunID:   record.ID,
			Date:    date,
			RawDir:  req.RawDir,
			Pages:   summary.Pages,
		})
	}

	return newMux("trigger-fetch", runstate.KindFetch, ledger, run)
}

// NewConvertHandler returns the convert server's routes.
func NewConvertHandler(converter Converter, ledger Ledger) http.Handler {
	run := func(w http.ResponseWriter, r *http.Request) {
		var req ConvertRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, MsgInvalidBody)
			return
		}
		if req.RawDir == "" || req.StgDir == "" {
			writeError(w, http.StatusBadRequest, MsgDirsRequired)
			return
		}

		ctx := r.Context()
		logger := logging.FromContext(ctx)

		record, summary, err := RunConvert(ctx, converter, ledger, "", req.RawDir, req.StgDir)

		if err != nil {
			logger.Error().Err(err).Str("run_id", record.ID).Msg("Conversion run failed")
			writeError(w, convertStatus(err), err.Error())
			return
		}

		writeJSON(w, http.StatusCreated, ConvertResponse{
			Message: MsgConverted,
			RunID:   record.ID,
			Files:   len(summary.Files),
			Records: summary.Records,
		})
	}

	return newMux("trigger-convert", runstate.KindConvert, ledger, run)
}

func newMux(component string, kind runstate.Kind, ledger Ledger, run http.HandlerFunc) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			writeError(w, http.StatusMethodNotAllowed, MsgMethodNotAllowed)
			return
		}
		run(w, r)
	})

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	mux.Handle("/metrics", metrics.Handler())

	mux.HandleFunc("/runs/latest", func(w http.ResponseWriter, r *http.Request) {
		if ledger == nil {
			writeError(w, http.StatusNotFound, "run ledger is not configured.")
			return
		}
		record, err := ledger.Latest(r.Context(), kind)
		if errors.Is(err, runstate.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no run recorded yet.")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, record)
	})

	return withRequestLogging(component, mux)
}

// fetchStatus maps a fetch run error to the response status.
func fetchStatus(err error) int {
	var fetchErr *pagination.FetchError
	switch {
	case errors.Is(err, pagination.ErrInvalidDate):
		return http.StatusBadRequest
	case errors.Is(err, pagination.ErrEmptyResult):
		return http.StatusNotFound
	case errors.As(err, &fetchErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// convertStatus maps a conversion run error to the response status.
func convertStatus(err error) int {
	switch {
	case errors.Is(err, convert.ErrParse), errors.Is(err, convert.ErrSchemaValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, convert.ErrSameDirectory):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

package pagination

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/atroinina/sales-pipeline/pkg/logging"
	"github.com/atroinina/sales-pipeline/pkg/metrics"
	"github.com/atroinina/sales-pipeline/pkg/staging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// DateLayout is the format of the sales date partition (ISO date).
const DateLayout = "2006-01-02"

// Prometheus metrics for fetch runs.
var (
	fetchRunsTotal = promauto.With(metrics.Registry).NewCounterVec(prometheus.CounterOpts{
		Name: "sales_fetch_runs_total",
		Help: "Total fetch runs by outcome",
	}, []string{"outcome"}) // "success", "empty", "failed"

	pagesPersistedTotal = promauto.With(metrics.Registry).NewCounter(prometheus.CounterOpts{
		Name: "sales_pages_persisted_total",
		Help: "Total sales pages written as raw files",
	})
)

// Config holds engine configuration.
type Config struct {
	// FilePrefix is the first segment of raw file names: <prefix>-<date>_<page>.json
	FilePrefix string

	// Indent used when re-serializing page payloads.
	Indent string
}

// DefaultConfig returns the configuration matching the raw file layout
// expected downstream.
func DefaultConfig() Config {
	return Config{
		FilePrefix: "sales",
		Indent:     "    ",
	}
}

// PageFetcher fetches a single page of sales for a date.
// Every HTTP status is returned as a value; err is reserved for transport
// failures where no response was received.
type PageFetcher interface {
	FetchPage(ctx context.Context, date string, page int) (statusCode int, body []byte, err error)
}

// Summary describes a completed fetch run.
type Summary struct {
	Date     string
	Pages    int
	Files    []string
	Duration time.Duration
}

// Engine fetches every page for a date and lands each as a raw JSON file.
type Engine struct {
	fetcher PageFetcher
	config  Config
	logger  zerolog.Logger
}

// NewEngine creates a new fetch engine.
func NewEngine(fetcher PageFetcher, config Config) *Engine {
	if config.FilePrefix == "" {
		config.FilePrefix = "sales"
	}
	if config.Indent == "" {
		config.Indent = "    "
	}

	return &Engine{
		fetcher: fetcher,
		config:  config,
		logger:  logging.NewLogger("pagination"),
	}
}

// RawFileName returns the raw file name for one page of a date.
func RawFileName(prefix, date string, page int) string {
	return fmt.Sprintf("%s-%s_%d.json", prefix, date, page)
}

// ValidateDate reports ErrInvalidDate unless date is a YYYY-MM-DD calendar
// date. Dates become path segments, so callers check them before deriving
// any directory from one.
func ValidateDate(date string) error {
	if _, err := time.Parse(DateLayout, date); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	return nil
}

// FetchAndPersist clears targetDir, then fetches pages 1, 2, ... for date
// until the sales API signals the end of data, writing each page to
// targetDir as it arrives.
//
// On success targetDir holds exactly Summary.Pages raw files, one per page.
// On failure the pages written so far stay on disk and the returned
// Summary lists them.
func (e *Engine) FetchAndPersist(ctx context.Context, targetDir, date string) (Summary, error) {
	start := time.Now()
	summary := Summary{Date: date}

	if err := ValidateDate(date); err != nil {
		return summary, err
	}

	if err := staging.EnsureEmpty(targetDir); err != nil {
		fetchRunsTotal.WithLabelValues("failed").Inc()
		return summary, fmt.Errorf("prepare raw directory: %w", err)
	}

	e.logger.Info().
		Str("date", date).
		Str("target_dir", targetDir).
		Msg("Starting sales fetch")

	state := StateFetching
	page := 1

	for state == StateFetching {
		statusCode, body, err := e.fetcher.FetchPage(ctx, date, page)
		if err != nil {
			return e.fail(summary, start, &FetchError{Date: date, Page: page, Err: err})
		}

		next, err := transition(page, statusCode)
		switch next {
		case StateFetching:
			path, err := e.persist(targetDir, date, page, body)
			if err != nil {
				return e.fail(summary, start, err)
			}
			summary.Files = append(summary.Files, path)
			page++

		case StateEndOfStream:
			e.logger.Debug().
				Str("date", date).
				Int("page", page).
				Msg("End of sales data reached")

		case StateFailed:
			return e.fail(summary, start, &FetchError{
				Date:       date,
				Page:       page,
				StatusCode: statusCode,
				Err:        err,
			})
		}

		state = next
	}

	summary.Pages = page - 1
	summary.Duration = time.Since(start)
	fetchRunsTotal.WithLabelValues("success").Inc()

	e.logger.Info().
		Str("date", date).
		Int("pages", summary.Pages).
		Dur("duration", summary.Duration).
		Msg("Fetch complete")

	return summary, nil
}

// persist validates a page body and writes it, re-indented, as a raw file.
func (e *Engine) persist(targetDir, date string, page int, body []byte) (string, error) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, body, "", e.config.Indent); err != nil {
		return "", &FetchError{
			Date:       date,
			Page:       page,
			StatusCode: 200,
			Err:        fmt.Errorf("%w: %v", ErrInvalidPayload, err),
		}
	}

	path := filepath.Join(targetDir, RawFileName(e.config.FilePrefix, date, page))
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write raw file: %w", err)
	}

	pagesPersistedTotal.Inc()
	e.logger.Debug().
		Str("file", path).
		Int("page", page).
		Int("bytes", buf.Len()).
		Msg("Sales page saved")

	return path, nil
}

func (e *Engine) fail(summary Summary, start time.Time, err error) (Summary, error) {
	summary.Pages = len(summary.Files)
	summary.Duration = time.Since(start)

	outcome := "failed"
	if errors.Is(err, ErrEmptyResult) {
		outcome = "empty"
	}
	fetchRunsTotal.WithLabelValues(outcome).Inc()

	e.logger.Error().
		Err(err).
		Str("date", summary.Date).
		Int("pages_written", summary.Pages).
		Msg("Fetch failed")

	return summary, err
}

// Package client provides the HTTP client for the remote sales API.
//
// The client issues exactly one GET per (date, page) pair and hands the raw
// status code and body back to the caller. It does not retry and does not
// interpret 404; deciding what a status means for a fetch run is the job of
// pkg/pagination.
package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/atroinina/sales-pipeline/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultBaseURL is the sales endpoint used when none is configured.
const DefaultBaseURL = "https://fake-api-vycpfa6oca-uc.a.run.app/sales"

// DefaultUserAgent identifies the pipeline to the sales API.
const DefaultUserAgent = "sales-pipeline/0.1.0"

// Prometheus metrics for sales API requests.
var (
	salesRequestsTotal = promauto.With(metrics.Registry).NewCounterVec(prometheus.CounterOpts{
		Name: "sales_api_requests_total",
		Help: "Total sales API requests by HTTP status",
	}, []string{"status"})

	salesRequestDuration = promauto.With(metrics.Registry).NewHistogram(prometheus.HistogramOpts{
		Name:    "sales_api_request_duration_seconds",
		Help:    "Sales API request duration in seconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	})

	salesErrorsTotal = promauto.With(metrics.Registry).NewCounterVec(prometheus.CounterOpts{
		Name: "sales_api_errors_total",
		Help: "Total sales API errors by class",
	}, []string{"class"})
)

// ErrorClass represents a classification of a sales API response or failure.
type ErrorClass string

const (
	// ErrorClassNotFound represents a 404, which the API also uses as its
	// end-of-data signal.
	ErrorClassNotFound ErrorClass = "not_found"

	// ErrorClassClient represents the remaining 4xx errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassUnexpected represents non-error statuses other than 200.
	ErrorClassUnexpected ErrorClass = "unexpected"

	// ErrorClassNetwork represents transport failures (no response).
	ErrorClassNetwork ErrorClass = "network"
)

// Config holds the client configuration.
type Config struct {
	// BaseURL is the sales endpoint; date and page are added as query params.
	BaseURL string

	// AuthToken is sent verbatim in the Authorization header (REQUIRED).
	AuthToken string

	// UserAgent header sent with every request.
	UserAgent string

	// Timeout for a single page request.
	Timeout time.Duration

	// HTTPClient overrides the default http.Client (optional).
	HTTPClient *http.Client
}

// DefaultConfig returns a configuration with safe defaults.
func DefaultConfig(baseURL, authToken string) Config {
	return Config{
		BaseURL:   baseURL,
		AuthToken: authToken,
		UserAgent: DefaultUserAgent,
		Timeout:   30 * time.Second,
	}
}

// Client is the sales API client.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	config     Config
	logger     zerolog.Logger
}

// New creates a new sales API client.
func New(cfg Config) (*Client, error) {
	if cfg.AuthToken == "" {
		return nil, fmt.Errorf("auth token is required")
	}

	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}

	baseURL, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if baseURL.Scheme != "http" && baseURL.Scheme != "https" {
		return nil, fmt.Errorf("base url must be http or https (got %q)", cfg.BaseURL)
	}

	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		config:     cfg,
		logger:     log.With().Str("component", "sales-client").Logger(),
	}, nil
}

// FetchPage requests one page of sales for date and returns the status code
// and the full response body.
//
// Every HTTP status is returned as a value, not an error. A non-nil error
// means no response was received and is an *APIError of class network.
func (c *Client) FetchPage(ctx context.Context, date string, page int) (int, []byte, error) {
	startTime := time.Now()
	defer func() {
		salesRequestDuration.Observe(time.Since(startTime).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.pageURL(date, page), nil)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Authorization", c.config.AuthToken)
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().
		Str("date", date).
		Int("page", page).
		Msg("Requesting sales page")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, c.networkError(date, page, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, c.networkError(date, page, fmt.Errorf("read response body: %w", err))
	}

	salesRequestsTotal.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()

	if errClass := classifyStatus(resp.StatusCode); errClass != "" {
		salesErrorsTotal.WithLabelValues(string(errClass)).Inc()
		c.logger.Debug().
			Str("date", date).
			Int("page", page).
			Int("status_code", resp.StatusCode).
			Str("error_class", string(errClass)).
			Msg("Sales API returned non-200 status")
	}

	return resp.StatusCode, body, nil
}

// pageURL builds the request URL, keeping any query params already present
// in the base URL.
func (c *Client) pageURL(date string, page int) string {
	u := *c.baseURL
	query := u.Query()
	query.Set("date", date)
	query.Set("page", strconv.Itoa(page))
	u.RawQuery = query.Encode()
	return u.String()
}

func (c *Client) networkError(date string, page int, err error) error {
	salesErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
	salesRequestsTotal.WithLabelValues("network_error").Inc()

	c.logger.Error().
		Err(err).
		Str("date", date).
		Int("page", page).
		Msg("Sales API request failed")

	return &APIError{
		ErrorClass: ErrorClassNetwork,
		Message:    "request failed",
		Err:        err,
	}
}

// classifyStatus categorizes a status code for observability.
// Returns "" for 200.
func classifyStatus(statusCode int) ErrorClass {
	switch {
	case statusCode == http.StatusOK:
		return ""
	case statusCode == http.StatusNotFound:
		return ErrorClassNotFound
	case statusCode >= 400 && statusCode < 500:
		return ErrorClassClient
	case statusCode >= 500:
		return ErrorClassServer
	default:
		return ErrorClassUnexpected
	}
}

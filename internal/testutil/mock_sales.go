// Package testutil provides testing utilities for the sales pipeline.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"time"
)

// MockResponse defines one scripted response of the mock sales API.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// RecordedRequest captures what the mock received for one call.
type RecordedRequest struct {
	Date          string
	Page          int
	Authorization string
	UserAgent     string
}

// MockSalesAPI is a mock sales API that plays back a scripted sequence of
// responses, one per request, in call order. Once the script is exhausted
// every further request gets 404.
type MockSalesAPI struct {
	server *httptest.Server

	mu       sync.Mutex
	script   []MockResponse
	requests []RecordedRequest
}

// NewMockSalesAPI creates a mock sales API serving responses in order.
func NewMockSalesAPI(responses ...MockResponse) *MockSalesAPI {
	mock := &MockSalesAPI{
		script: append([]MockResponse(nil), responses...),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(mock.handle))

	return mock
}

// URL returns the sales endpoint URL of the mock server.
func (m *MockSalesAPI) URL() string {
	return m.server.URL + "/sales"
}

// Close shuts down the mock server.
func (m *MockSalesAPI) Close() {
	m.server.Close()
}

// SetScript replaces the remaining responses and clears recorded requests.
func (m *MockSalesAPI) SetScript(responses ...MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append([]MockResponse(nil), responses...)
	m.requests = nil
}

// Requests returns a copy of the requests received so far.
func (m *MockSalesAPI) Requests() []RecordedRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]RecordedRequest(nil), m.requests...)
}

// RequestCount returns the number of requests received so far.
func (m *MockSalesAPI) RequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

func (m *MockSalesAPI) handle(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))

	m.mu.Lock()
	m.requests = append(m.requests, RecordedRequest{
		Date:          r.URL.Query().Get("date"),
		Page:          page,
		Authorization: r.Header.Get("Authorization"),
		UserAgent:     r.Header.Get("User-Agent"),
	})

	resp := NewNotFoundResponse()
	if len(m.script) > 0 {
		resp = m.script[0]
		m.script = m.script[1:]
	}
	m.mu.Unlock()

	if resp.Delay > 0 {
		time.Sleep(resp.Delay)
	}

	for key, value := range resp.Headers {
		w.Header().Set(key, value)
	}

	w.WriteHeader(resp.StatusCode)
	if resp.Body != "" {
		w.Write([]byte(resp.Body))
	}
}

// NewPageResponse creates a 200 OK response with a JSON body.
func NewPageResponse(body string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       body,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewSalesPageResponse creates a 200 OK response holding n sales records
// tagged with the page number.
func NewSalesPageResponse(page, n int) MockResponse {
	body := "["
	for i := 0; i < n; i++ {
		if i > 0 {
			body += ","
		}
		body += fmt.Sprintf(
			`{"client":"Client %d-%d","purchase_date":"2022-08-09","product":"Product %d","price":%d}`,
			page, i, i, 100*page+i,
		)
	}
	body += "]"
	return NewPageResponse(body)
}

// NewNotFoundResponse creates a 404 response, the API's end-of-data signal.
func NewNotFoundResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusNotFound,
		Body:       `{"message": "You requested page that doesn't exist"}`,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"error": "Internal server error"}`,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewUnauthorizedResponse creates a 401 response for a rejected token.
func NewUnauthorizedResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusUnauthorized,
		Body:       `{"message": "Unauthorized"}`,
	}
}

package pagination

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/atroinina/sales-pipeline/internal/testutil"
	"github.com/atroinina/sales-pipeline/pkg/client"
)

const testDate = "2022-08-09"

// scriptedFetcher returns the scripted statuses in call order and records
// the pages it was asked for.
type scriptedFetcher struct {
	statuses []int
	bodies   map[int]string
	err      error
	pages    []int
}

func (f *scriptedFetcher) FetchPage(ctx context.Context, date string, page int) (int, []byte, error) {
	f.pages = append(f.pages, page)
	if f.err != nil {
		return 0, nil, f.err
	}
	if len(f.statuses) == 0 {
		return 404, nil, nil
	}
	status := f.statuses[0]
	f.statuses = f.statuses[1:]

	body := fmt.Sprintf(`[{"client":"c%d","price":%d}]`, page, page)
	if b, ok := f.bodies[page]; ok {
		body = b
	}
	return status, []byte(body), nil
}

func okThenEnd(k int) []int {
	statuses := make([]int, 0, k+1)
	for i := 0; i < k; i++ {
		statuses = append(statuses, 200)
	}
	return append(statuses, 404)
}

func listFiles(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir(%s) error = %v", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

func TestTransition(t *testing.T) {
	tests := []struct {
		name      string
		page      int
		status    int
		wantState State
		wantErr   error
	}{
		{"ok first page", 1, 200, StateFetching, nil},
		{"ok later page", 7, 200, StateFetching, nil},
		{"not found first page", 1, 404, StateFailed, ErrEmptyResult},
		{"not found after pages", 2, 404, StateEndOfStream, nil},
		{"server error", 1, 500, StateFailed, ErrUnexpectedStatus},
		{"server error later", 3, 503, StateFailed, ErrUnexpectedStatus},
		{"unauthorized", 1, 401, StateFailed, ErrUnexpectedStatus},
		{"no content", 2, 204, StateFailed, ErrUnexpectedStatus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state, err := transition(tt.page, tt.status)
			if state != tt.wantState {
				t.Errorf("transition(%d, %d) state = %v, want %v", tt.page, tt.status, state, tt.wantState)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("transition(%d, %d) err = %v, want %v", tt.page, tt.status, err, tt.wantErr)
			}
		})
	}
}

func TestStateString(t *testing.T) {
	if StateFetching.String() != "fetching" || StateEndOfStream.String() != "end_of_stream" ||
		StateFailed.String() != "failed" || State(42).String() != "unknown" {
		t.Error("unexpected State.String() values")
	}
}

func TestFetchAndPersist_PagesThenEnd(t *testing.T) {
	for k := 1; k <= 5; k++ {
		t.Run(fmt.Sprintf("%d_pages", k), func(t *testing.T) {
			dir := t.TempDir()
			fetcher := &scriptedFetcher{statuses: okThenEnd(k)}
			engine := NewEngine(fetcher, DefaultConfig())

			summary, err := engine.FetchAndPersist(context.Background(), dir, testDate)
			if err != nil {
				t.Fatalf("FetchAndPersist() error = %v", err)
			}

			if summary.Pages != k {
				t.Errorf("Pages = %d, want %d", summary.Pages, k)
			}

			files := listFiles(t, dir)
			if len(files) != k {
				t.Fatalf("file count = %d, want %d (%v)", len(files), k, files)
			}
			for page := 1; page <= k; page++ {
				name := RawFileName("sales", testDate, page)
				data, err := os.ReadFile(filepath.Join(dir, name))
				if err != nil {
					t.Errorf("missing raw file %s: %v", name, err)
					continue
				}
				if !json.Valid(data) {
					t.Errorf("raw file %s is not valid JSON", name)
				}
			}

			// Pages requested strictly in order, one past the last page.
			for i, page := range fetcher.pages {
				if page != i+1 {
					t.Errorf("request %d asked for page %d", i, page)
				}
			}
			if len(fetcher.pages) != k+1 {
				t.Errorf("requests = %d, want %d", len(fetcher.pages), k+1)
			}
		})
	}
}

func TestFetchAndPersist_EmptyResult(t *testing.T) {
	dir := t.TempDir()
	engine := NewEngine(&scriptedFetcher{statuses: []int{404}}, DefaultConfig())

	_, err := engine.FetchAndPersist(context.Background(), dir, testDate)
	if !errors.Is(err, ErrEmptyResult) {
		t.Fatalf("error = %v, want ErrEmptyResult", err)
	}

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("Expected *FetchError, got %T", err)
	}
	if fetchErr.StatusCode != 404 || fetchErr.Page != 1 {
		t.Errorf("FetchError = status %d page %d, want 404 / 1", fetchErr.StatusCode, fetchErr.Page)
	}

	if files := listFiles(t, dir); len(files) != 0 {
		t.Errorf("Expected no files, got %v", files)
	}
}

func TestFetchAndPersist_UnexpectedStatus(t *testing.T) {
	tests := []struct {
		name      string
		statuses  []int
		wantFiles int
		wantCode  int
	}{
		{"server error first", []int{500}, 0, 500},
		{"server error after pages", []int{200, 200, 502}, 2, 502},
		{"forbidden", []int{403}, 0, 403},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			engine := NewEngine(&scriptedFetcher{statuses: tt.statuses}, DefaultConfig())

			summary, err := engine.FetchAndPersist(context.Background(), dir, testDate)
			if !errors.Is(err, ErrUnexpectedStatus) {
				t.Fatalf("error = %v, want ErrUnexpectedStatus", err)
			}

			var fetchErr *FetchError
			if !errors.As(err, &fetchErr) || fetchErr.StatusCode != tt.wantCode {
				t.Errorf("Expected FetchError with status %d, got %v", tt.wantCode, err)
			}

			// Pages already written stay on disk.
			if files := listFiles(t, dir); len(files) != tt.wantFiles {
				t.Errorf("file count = %d, want %d", len(files), tt.wantFiles)
			}
			if summary.Pages != tt.wantFiles {
				t.Errorf("Summary.Pages = %d, want %d", summary.Pages, tt.wantFiles)
			}
		})
	}
}

func TestFetchAndPersist_ErrorMessage(t *testing.T) {
	engine := NewEngine(&scriptedFetcher{statuses: []int{500}}, DefaultConfig())

	_, err := engine.FetchAndPersist(context.Background(), t.TempDir(), testDate)
	if err == nil {
		t.Fatal("Expected error")
	}

	want := "error fetching data: 500 (date 2022-08-09, page 1): unexpected status from sales API"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestFetchAndPersist_IdempotentRerun(t *testing.T) {
	dir := t.TempDir()

	first := NewEngine(&scriptedFetcher{statuses: []int{200, 404}}, DefaultConfig())
	if _, err := first.FetchAndPersist(context.Background(), dir, testDate); err != nil {
		t.Fatalf("first run error = %v", err)
	}

	second := NewEngine(&scriptedFetcher{statuses: []int{200, 200, 404}}, DefaultConfig())
	if _, err := second.FetchAndPersist(context.Background(), dir, testDate); err != nil {
		t.Fatalf("second run error = %v", err)
	}

	files := listFiles(t, dir)
	want := []string{"sales-2022-08-09_1.json", "sales-2022-08-09_2.json"}
	if len(files) != len(want) || files[0] != want[0] || files[1] != want[1] {
		t.Errorf("files = %v, want %v", files, want)
	}
}

func TestFetchAndPersist_ClearsStaleFiles(t *testing.T) {
	dir := t.TempDir()
	stale := filepath.Join(dir, "sales-2022-08-09_9.json")
	if err := os.WriteFile(stale, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	engine := NewEngine(&scriptedFetcher{statuses: []int{404}}, DefaultConfig())
	_, _ = engine.FetchAndPersist(context.Background(), dir, testDate)

	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("Expected stale file to be cleared even when the run fails")
	}
}

func TestFetchAndPersist_InvalidPayload(t *testing.T) {
	dir := t.TempDir()
	fetcher := &scriptedFetcher{
		statuses: []int{200, 200, 404},
		bodies:   map[int]string{2: "<html>oops</html>"},
	}
	engine := NewEngine(fetcher, DefaultConfig())

	_, err := engine.FetchAndPersist(context.Background(), dir, testDate)
	if !errors.Is(err, ErrInvalidPayload) {
		t.Fatalf("error = %v, want ErrInvalidPayload", err)
	}

	if files := listFiles(t, dir); len(files) != 1 {
		t.Errorf("Expected page 1 to remain, got %v", files)
	}
}

func TestFetchAndPersist_TransportError(t *testing.T) {
	transportErr := errors.New("connection refused")
	engine := NewEngine(&scriptedFetcher{err: transportErr}, DefaultConfig())

	_, err := engine.FetchAndPersist(context.Background(), t.TempDir(), testDate)
	if !errors.Is(err, transportErr) {
		t.Fatalf("error = %v, want wrapped transport error", err)
	}

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) || fetchErr.StatusCode != 0 {
		t.Errorf("Expected FetchError with status 0, got %v", err)
	}
}

func TestFetchAndPersist_InvalidDate(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "never-created")
	fetcher := &scriptedFetcher{statuses: []int{200, 404}}
	engine := NewEngine(fetcher, DefaultConfig())

	for _, date := range []string{"", "09-08-2022", "2022-13-01", "yesterday"} {
		_, err := engine.FetchAndPersist(context.Background(), dir, date)
		if !errors.Is(err, ErrInvalidDate) {
			t.Errorf("date %q: error = %v, want ErrInvalidDate", date, err)
		}
	}

	if len(fetcher.pages) != 0 {
		t.Error("No request should be made for an invalid date")
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Error("Directory should not be touched for an invalid date")
	}
}

func TestValidateDate(t *testing.T) {
	tests := []struct {
		date    string
		wantErr bool
	}{
		{"2022-08-09", false},
		{"2024-02-29", false},
		{"2022-8-9", true},
		{"../..", true},
		{"2022-08-09/..", true},
		{"2023-02-29", true},
	}

	for _, tt := range tests {
		err := ValidateDate(tt.date)
		if tt.wantErr && !errors.Is(err, ErrInvalidDate) {
			t.Errorf("ValidateDate(%q) = %v, want ErrInvalidDate", tt.date, err)
		}
		if !tt.wantErr && err != nil {
			t.Errorf("ValidateDate(%q) = %v, want nil", tt.date, err)
		}
	}
}

func TestFetchAndPersist_RawFileFormat(t *testing.T) {
	dir := t.TempDir()
	fetcher := &scriptedFetcher{
		statuses: []int{200, 404},
		bodies:   map[int]string{1: `[{"z":1,"a":"x"}]`},
	}
	engine := NewEngine(fetcher, DefaultConfig())

	if _, err := engine.FetchAndPersist(context.Background(), dir, testDate); err != nil {
		t.Fatalf("FetchAndPersist() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "sales-2022-08-09_1.json"))
	if err != nil {
		t.Fatal(err)
	}

	// Four-space indentation, original key order.
	want := "[\n    {\n        \"z\": 1,\n        \"a\": \"x\"\n    }\n]"
	if string(data) != want {
		t.Errorf("raw file =\n%s\nwant\n%s", data, want)
	}
}

func TestFetchAndPersist_WithSalesClient(t *testing.T) {
	mock := testutil.NewMockSalesAPI(
		testutil.NewSalesPageResponse(1, 3),
		testutil.NewSalesPageResponse(2, 2),
		testutil.NewNotFoundResponse(),
	)
	defer mock.Close()

	salesClient, err := client.New(client.DefaultConfig(mock.URL(), "token-123"))
	if err != nil {
		t.Fatalf("client.New() error = %v", err)
	}

	dir := filepath.Join(t.TempDir(), "raw", "sales", testDate)
	engine := NewEngine(salesClient, DefaultConfig())

	summary, err := engine.FetchAndPersist(context.Background(), dir, testDate)
	if err != nil {
		t.Fatalf("FetchAndPersist() error = %v", err)
	}
	if summary.Pages != 2 || len(summary.Files) != 2 {
		t.Errorf("summary = %+v, want 2 pages", summary)
	}

	for _, req := range mock.Requests() {
		if req.Authorization != "token-123" || req.Date != testDate {
			t.Errorf("unexpected request %+v", req)
		}
	}
	if mock.RequestCount() != 3 {
		t.Errorf("request count = %d, want 3", mock.RequestCount())
	}

	var records []map[string]any
	data, _ := os.ReadFile(filepath.Join(dir, "sales-2022-08-09_1.json"))
	if err := json.Unmarshal(data, &records); err != nil {
		t.Fatalf("raw file is not valid JSON: %v", err)
	}
	if len(records) != 3 {
		t.Errorf("page 1 records = %d, want 3", len(records))
	}
}

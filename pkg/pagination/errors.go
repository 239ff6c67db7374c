package pagination

import (
	"errors"
	"fmt"
)

// Errors reported by a fetch run. Use errors.Is on the returned error.
var (
	// ErrEmptyResult is returned when the very first page comes back 404.
	ErrEmptyResult = errors.New("no sales data for the first page")

	// ErrUnexpectedStatus is returned for any status other than 200 and 404.
	ErrUnexpectedStatus = errors.New("unexpected status from sales API")

	// ErrInvalidPayload is returned when a 200 body is not valid JSON.
	ErrInvalidPayload = errors.New("page payload is not valid JSON")

	// ErrInvalidDate is returned when the date is not YYYY-MM-DD.
	ErrInvalidDate = errors.New("invalid sales date")
)

// FetchError describes the page at which a fetch run failed.
type FetchError struct {
	Date string
	Page int

	// StatusCode is the HTTP status received, 0 when no response arrived.
	StatusCode int

	Err error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("error fetching data (date %s, page %d): %v", e.Date, e.Page, e.Err)
	}
	return fmt.Sprintf("error fetching data: %d (date %s, page %d): %v", e.StatusCode, e.Date, e.Page, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *FetchError) Unwrap() error {
	return e.Err
}

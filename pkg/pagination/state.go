package pagination

import (
	"net/http"
)

// State is the state of a fetch run.
type State int

const (
	// StateFetching means the last response was a page and the next one is due.
	StateFetching State = iota

	// StateEndOfStream means a 404 followed at least one page; the run succeeded.
	StateEndOfStream

	// StateFailed means the run stopped on an error.
	StateFailed
)

// String returns the state name used in logs.
func (s State) String() string {
	switch s {
	case StateFetching:
		return "fetching"
	case StateEndOfStream:
		return "end_of_stream"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// transition returns the state that follows receiving statusCode for page.
// The returned error is non-nil exactly when the state is StateFailed.
func transition(page int, statusCode int) (State, error) {
	switch {
	case statusCode == http.StatusOK:
		return StateFetching, nil

	case statusCode == http.StatusNotFound && page == 1:
		// Nothing was ever returned: indistinguishable from a bad request,
		// so it is not accepted as an empty day.
		return StateFailed, ErrEmptyResult

	case statusCode == http.StatusNotFound:
		return StateEndOfStream, nil

	default:
		return StateFailed, ErrUnexpectedStatus
	}
}

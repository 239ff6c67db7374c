package client

import (
	"fmt"
)

// APIError represents a sales API request that got no usable response.
// Non-200 statuses are returned as values by FetchPage, not as APIError.
type APIError struct {
	ErrorClass ErrorClass
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("sales API %s error: %s: %v", e.ErrorClass, e.Message, e.Err)
	}
	return fmt.Sprintf("sales API %s error: %s", e.ErrorClass, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *APIError) Unwrap() error {
	return e.Err
}

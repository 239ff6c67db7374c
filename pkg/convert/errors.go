package convert

import (
	"errors"
	"fmt"
)

// Errors reported by a conversion run. Use errors.Is on the returned error.
var (
	// ErrSchema is returned when the record schema cannot be read or parsed.
	ErrSchema = errors.New("invalid record schema")

	// ErrParse is returned when a raw file is not valid JSON.
	ErrParse = errors.New("malformed JSON")

	// ErrSchemaValidation is returned when a payload does not fit the schema.
	ErrSchemaValidation = errors.New("payload does not match schema")

	// ErrSameDirectory is returned when the raw and output directories are
	// the same path; clearing the output would delete the input.
	ErrSameDirectory = errors.New("raw and output directories must differ")
)

// ConvertError identifies the raw file (and record, when known) that
// stopped a conversion run.
type ConvertError struct {
	File string

	// Record is the zero-based index in the file's record set, -1 when the
	// failure is not tied to one record.
	Record int

	Err error
}

// Error implements the error interface.
func (e *ConvertError) Error() string {
	if e.Record >= 0 {
		return fmt.Sprintf("convert %s (record %d): %v", e.File, e.Record, e.Err)
	}
	return fmt.Sprintf("convert %s: %v", e.File, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *ConvertError) Unwrap() error {
	return e.Err
}

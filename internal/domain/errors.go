package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidBatchSize is returned when a batch size is not positive.
	ErrInvalidBatchSize = errors.New("batch size must be positive")

	// ErrInvalidYearRange is returned by YearRange.Validate.
	ErrInvalidYearRange = errors.New("invalid year range")

	// ErrTableFinalized is returned when ingesting into a finalized table.
	ErrTableFinalized = errors.New("employment table is finalized")

	// ErrQuotaExceeded is wrapped by querier errors when the API refuses
	// further requests (daily threshold reached). Retrying does not help.
	ErrQuotaExceeded = errors.New("api request quota exceeded")
)

// MalformedIdentifierError reports a series ID too short to decode.
type MalformedIdentifierError struct {
	ID string
}

func (e *MalformedIdentifierError) Error() string {
	return fmt.Sprintf("malformed series id %q: need at least %d characters, got %d", e.ID, occupationEnd, len(e.ID))
}

// UnresolvedOccupationError reports a source occupation code that is not in
// the occupation dictionary, even after the zero-last-digit fallback.
type UnresolvedOccupationError struct {
	Raw       string
	Candidate string
	Fallback  string
}

func (e *UnresolvedOccupationError) Error() string {
	return fmt.Sprintf("unresolved occupation code %q: neither %q nor %q is in the occupation dictionary", e.Raw, e.Candidate, e.Fallback)
}

// UnexpectedSeriesError reports a result whose state or occupation is not a
// row or column of the table it was ingested into.
type UnexpectedSeriesError struct {
	ID  string
	Key SeriesKey
}

func (e *UnexpectedSeriesError) Error() string {
	return fmt.Sprintf("series %s (state %q, occupation %q) was not requested", e.ID, e.Key.State, e.Key.Occupation)
}

// MalformedValueError reports an observation value that is neither numeric
// nor a suppression marker. The cell is still written as CellMalformed.
type MalformedValueError struct {
	ID    string
	Value string
}

func (e *MalformedValueError) Error() string {
	return fmt.Sprintf("series %s: unparseable value %q", e.ID, e.Value)
}

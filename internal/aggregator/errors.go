package aggregator

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoData reports that no events were available, either from one provider or,
// wrapped in *AggregateError, from every provider in a cycle.
var ErrNoData = errors.New("no data available")

// HTTPError is a non-success response from a provider.
type HTTPError struct {
	Provider   string
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s API returned HTTP %d", e.Provider, e.StatusCode)
}

// DecodingError is a provider payload that did not match the expected schema.
type DecodingError struct {
	Provider string
	Err      error
}

func (e *DecodingError) Error() string {
	return fmt.Sprintf("failed to decode %s response: %v", e.Provider, e.Err)
}

func (e *DecodingError) Unwrap() error { return e.Err }

// NoDataError is a valid response that held no usable events.
type NoDataError struct {
	Provider string
	Reason   string
}

func (e *NoDataError) Error() string {
	return fmt.Sprintf("%s: %s", e.Provider, e.Reason)
}

func (e *NoDataError) Is(target error) bool { return target == ErrNoData }

// AggregateError is returned when every provider in a cycle failed.
type AggregateError struct {
	CycleID  string
	Failures []ProviderFailure
}

func (e *AggregateError) Error() string {
	if len(e.Failures) == 0 {
		return "no data available: no providers configured"
	}
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, f.Message)
	}
	return "no data available: all providers failed: " + strings.Join(parts, "; ")
}

func (e *AggregateError) Is(target error) bool { return target == ErrNoData }

// Transient reports whether any failure looks like a network, HTTP or decoding
// problem that may clear on retry. When false, every provider answered but none
// had events, which callers should present as "no upcoming events".
func (e *AggregateError) Transient() bool {
	for _, f := range e.Failures {
		if !errors.Is(f.Err, ErrNoData) {
			return true
		}
	}
	return false
}

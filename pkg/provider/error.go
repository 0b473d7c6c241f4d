// Package provider classifies failures from external APIs so callers can
// distinguish transient conditions from bad content without string matching.
package provider

import (
	"errors"
	"fmt"
)

type Kind int

const (
	// Unavailable covers network failures, timeouts and 5xx responses.
	Unavailable Kind = iota
	// RateLimited marks a 429 from the provider.
	RateLimited
	// InvalidContent means the provider rejected or returned an empty result.
	InvalidContent
	// ParseError means the provider responded but the payload was unusable.
	ParseError
)

func (k Kind) String() string {
	switch k {
	case Unavailable:
		return "unavailable"
	case RateLimited:
		return "rate_limited"
	case InvalidContent:
		return "invalid_content"
	case ParseError:
		return "parse_error"
	}
	return "unknown"
}

type Error struct {
	Kind     Kind
	Provider string
	Op       string
	Err      error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s: %s", e.Provider, e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %s: %v", e.Provider, e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewError(kind Kind, providerName, op string, err error) *Error {
	return &Error{
		Kind:     kind,
		Provider: providerName,
		Op:       op,
		Err:      err,
	}
}

// KindOf reports the kind of a provider error, or Unavailable for anything
// that is not one.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return Unavailable
}

func IsRateLimited(err error) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.Kind == RateLimited
}

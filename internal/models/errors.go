package models

import (
	"errors"
	"fmt"
)

// ValidationError reports malformed input rejected at the boundary.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is or wraps a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ProviderErrorKind classifies failures from external collaborators.
type ProviderErrorKind string

const (
	ProviderNetwork      ProviderErrorKind = "network"
	ProviderParsing      ProviderErrorKind = "parsing"
	ProviderNoResults    ProviderErrorKind = "noResults"
	ProviderBadRequest   ProviderErrorKind = "badRequest"
	ProviderUnauthorized ProviderErrorKind = "unauthorized"
)

func (k ProviderErrorKind) String() string {
	return string(k)
}

// ProviderError wraps a failure from the places, position or storage provider.
type ProviderError struct {
	Kind ProviderErrorKind
	Op   string
	Err  error
}

func (e *ProviderError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// ProviderKind returns the kind of a wrapped ProviderError, if any.
func ProviderKind(err error) (ProviderErrorKind, bool) {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind, true
	}
	return "", false
}

package models

import (
	"errors"
	"fmt"
)

var (
	ErrValidation          = errors.New("validation error")
	ErrDataIntegrity       = errors.New("data integrity error")
	ErrMalformedRecord     = errors.New("malformed reservation record")
	ErrUpstreamUnavailable = errors.New("booking backend unavailable")
)

// ValidationError reports malformed caller input at the public boundary.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("invalid %s: %q", e.Field, e.Value)
	}
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// DataIntegrityError reports a provider court id missing from the registry.
// The mapping is a closed enumeration, so this is a deployment mismatch.
type DataIntegrityError struct {
	ProviderID int64
}

func (e *DataIntegrityError) Error() string {
	return fmt.Sprintf("unmapped provider court id %d", e.ProviderID)
}

func (e *DataIntegrityError) Is(target error) bool { return target == ErrDataIntegrity }

// MalformedRecordError names the reservation record and field that failed to parse.
type MalformedRecordError struct {
	Index int
	Field string
	Value string
	Err   error
}

func (e *MalformedRecordError) Error() string {
	msg := fmt.Sprintf("reservation %d: bad %s %q", e.Index, e.Field, e.Value)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MalformedRecordError) Is(target error) bool { return target == ErrMalformedRecord }

func (e *MalformedRecordError) Unwrap() error { return e.Err }

// UpstreamUnavailableError describes why the booking backend gave no usable data.
// It never aborts a query; callers see it as an unverified result.
type UpstreamUnavailableError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *UpstreamUnavailableError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("%s: http %d: %v", e.Op, e.StatusCode, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: http %d", e.Op, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return e.Op
	}
}

func (e *UpstreamUnavailableError) Is(target error) bool { return target == ErrUpstreamUnavailable }

func (e *UpstreamUnavailableError) Unwrap() error { return e.Err }

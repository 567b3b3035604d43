package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/ziadkadry99/krishi-mitra/internal/schema"
)

// ErrorKind classifies a flow failure for callers that map errors to status
// codes or user-facing notices.
type ErrorKind string

const (
	KindConfiguration ErrorKind = "configuration"
	KindValidation    ErrorKind = "validation"
	KindUpstream      ErrorKind = "upstream"
	KindCoercion      ErrorKind = "coercion"
	KindNotFound      ErrorKind = "not_found"
	KindCanceled      ErrorKind = "canceled"
	KindInternal      ErrorKind = "internal"
)

// ValidationError is the validator's error type, re-exported so callers need
// only this package to classify failures.
type ValidationError = schema.ValidationError

// ConfigurationError is a missing credential or a malformed flow definition.
type ConfigurationError struct {
	Component string
	Reason    string
	Err       error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("configuration error in %s: %s: %v", e.Component, e.Reason, e.Err)
	}
	return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// UpstreamError is a failure talking to the generation or weather service.
type UpstreamError struct {
	Service string
	Err     error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s upstream error: %v", e.Service, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// CoercionError means the upstream answered but the payload was absent or did
// not match the output schema.
type CoercionError struct {
	Flow   string
	Reason string
	Err    error
}

func (e *CoercionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("flow %s: %s: %v", e.Flow, e.Reason, e.Err)
	}
	return fmt.Sprintf("flow %s: %s", e.Flow, e.Reason)
}

func (e *CoercionError) Unwrap() error { return e.Err }

// NotFoundError is returned when a flow name is not registered.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("flow %q not found", e.Name)
}

// KindOf classifies err. Coercion is checked before validation because a
// CoercionError wraps the output ValidationError.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var (
		cfg  *ConfigurationError
		coer *CoercionError
		val  *ValidationError
		up   *UpstreamError
		nf   *NotFoundError
	)
	switch {
	case errors.As(err, &cfg):
		return KindConfiguration
	case errors.As(err, &coer):
		return KindCoercion
	case errors.As(err, &val):
		return KindValidation
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	case errors.As(err, &up):
		return KindUpstream
	case errors.As(err, &nf):
		return KindNotFound
	}
	return KindInternal
}

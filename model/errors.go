package model

import (
	"errors"
	"fmt"

	"github.com/neovate-digital/namesys/name"
	"github.com/neovate-digital/namesys/record"
	"github.com/neovate-digital/namesys/resolve"
	"github.com/neovate-digital/namesys/routing"
)

type ErrorCode string

const (
	ErrInvalidRequest         ErrorCode = "INVALID_REQUEST"
	ErrMalformedKey           ErrorCode = "MALFORMED_KEY"
	ErrUnsupportedKeyType     ErrorCode = "UNSUPPORTED_KEY_TYPE"
	ErrInvalidName            ErrorCode = "INVALID_NAME"
	ErrInvalidRecord          ErrorCode = "INVALID_RECORD"
	ErrInvalidContentHash     ErrorCode = "INVALID_CONTENT_HASH"
	ErrNonMonotonicSequence   ErrorCode = "NON_MONOTONIC_SEQUENCE"
	ErrMissingStore           ErrorCode = "MISSING_STORE"
	ErrMissingRouting         ErrorCode = "MISSING_ROUTING"
	ErrRoutingUnavailable     ErrorCode = "ROUTING_UNAVAILABLE"
	ErrRoutingRejected        ErrorCode = "ROUTING_REJECTED"
	ErrNotFound               ErrorCode = "NOT_FOUND"
	ErrAllStrategiesExhausted ErrorCode = "ALL_STRATEGIES_EXHAUSTED"
	ErrInternal               ErrorCode = "INTERNAL"
)

// CodedError is a stable error with a machine-readable code and a human
// message. It unwraps to the underlying failure, so errors.Is still sees
// sentinels (including context cancellation) through the boundary.
type CodedError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`

	cause error
}

func (e *CodedError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *CodedError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

func NewError(code ErrorCode, message string) *CodedError {
	return &CodedError{Code: code, Message: message}
}

func wrapError(code ErrorCode, cause error) *CodedError {
	return &CodedError{Code: code, Message: cause.Error(), cause: cause}
}

// asCoded extracts the CodedError from err, falling back to INTERNAL.
func asCoded(err error) *CodedError {
	var ce *CodedError
	if errors.As(err, &ce) {
		return ce
	}
	return NewError(ErrInternal, err.Error())
}

// mapErr projects package-level failures onto boundary codes.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	var ce *CodedError
	if errors.As(err, &ce) {
		return ce
	}
	switch {
	case name.IsKind(err, name.KindUnsupported):
		return wrapError(ErrUnsupportedKeyType, err)
	case name.IsKind(err, name.KindMalformed):
		return wrapError(ErrMalformedKey, err)
	case name.IsKind(err, name.KindName):
		return wrapError(ErrInvalidName, err)
	case record.IsKind(err, record.KindValue):
		return wrapError(ErrInvalidContentHash, err)
	case record.IsKind(err, record.KindSequence):
		return wrapError(ErrNonMonotonicSequence, err)
	case record.IsKind(err, record.KindParse),
		record.IsKind(err, record.KindCrypto),
		record.IsKind(err, record.KindValidation):
		return wrapError(ErrInvalidRecord, err)
	case routing.IsRejected(err):
		return wrapError(ErrRoutingRejected, err)
	case routing.IsUnavailable(err):
		return wrapError(ErrRoutingUnavailable, err)
	case routing.IsNotFound(err):
		return wrapError(ErrNotFound, err)
	case resolve.IsExhausted(err):
		return wrapError(ErrAllStrategiesExhausted, err)
	}
	return wrapError(ErrInternal, err)
}

// Package errors defines the coded failures that cross the router boundary.
// Every failure a user can trigger maps to one of these codes so that logs can
// tell them apart while the user always sees the same message.
package errors

import (
	"errors"
	"fmt"
)

// Error codes. The first four are the interaction failures; the rest cover startup.
const (
	CodeUnknown        = "UNKNOWN"
	CodeNoInputText    = "NO_INPUT_TEXT"
	CodeTransport      = "TRANSPORT_FAILURE"
	CodeUpstream       = "UPSTREAM_FAILURE"
	CodeCarrierDecode  = "CARRIER_DECODE_FAILURE"
	CodeConfig         = "CONFIG"
	CodeDeliveryFailed = "DELIVERY_FAILURE"
)

// ApplicationError is implemented by every error created in this package.
type ApplicationError interface {
	error
	Code() string
	Unwrap() error
}

// Error is a coded error with an optional cause.
type Error struct {
	code    string
	message string
	err     error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.message, e.err)
	}
	return e.message
}

func (e *Error) Code() string {
	return e.code
}

func (e *Error) Unwrap() error {
	return e.err
}

// Is reports whether target carries the same code, so that
// errors.Is(err, errors.ErrUpstream) works on wrapped values.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.message == "" && t.err == nil && t.code == e.code
}

// Sentinels for errors.Is checks. They match any Error with the same code.
var (
	ErrNoInputText    = &Error{code: CodeNoInputText}
	ErrTransport      = &Error{code: CodeTransport}
	ErrUpstream       = &Error{code: CodeUpstream}
	ErrCarrierDecode  = &Error{code: CodeCarrierDecode}
	ErrConfig         = &Error{code: CodeConfig}
	ErrDeliveryFailed = &Error{code: CodeDeliveryFailed}
)

// Code returns the code of the first ApplicationError in err's chain,
// or CodeUnknown.
func Code(err error) string {
	var appErr ApplicationError
	if errors.As(err, &appErr) {
		return appErr.Code()
	}
	return CodeUnknown
}

func newError(code, message string, cause error) error {
	return &Error{code: code, message: message, err: cause}
}

// NewNoInputText reports an invocation that carried no text to explain.
func NewNoInputText(message string) error {
	return newError(CodeNoInputText, message, nil)
}

// NewTransport reports that the explanation service could not be reached.
func NewTransport(message string, cause error) error {
	return newError(CodeTransport, message, cause)
}

// NewUpstream reports that the explanation service answered with a failure.
func NewUpstream(message string, cause error) error {
	return newError(CodeUpstream, message, cause)
}

// NewCarrierDecode reports a follow-up carrier that could not be parsed.
func NewCarrierDecode(message string, cause error) error {
	return newError(CodeCarrierDecode, message, cause)
}

// NewConfig reports invalid or unreadable configuration.
func NewConfig(message string, cause error) error {
	return newError(CodeConfig, message, cause)
}

// NewDeliveryFailed reports a reply that the platform refused or never received.
func NewDeliveryFailed(message string, cause error) error {
	return newError(CodeDeliveryFailed, message, cause)
}

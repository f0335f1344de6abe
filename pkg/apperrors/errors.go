// Package apperrors defines the error kinds shared by the encryption, OAuth and
// publishing layers and their mapping to HTTP status codes.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error independently of its message.
type Kind string

const (
	KindInvalidInput        Kind = "invalid_input"
	KindConfig              Kind = "config_error"
	KindDecryptionFailed    Kind = "decryption_failed"
	KindNotConfigured       Kind = "not_configured"
	KindTokenExchangeFailed Kind = "token_exchange_failed"
	KindTokenRefreshFailed  Kind = "token_refresh_failed"
	KindProfileFetchFailed  Kind = "profile_fetch_failed"
	KindValidationFailed    Kind = "validation_failed"
	KindPublishFailed       Kind = "publish_failed"
	KindNotFound            Kind = "not_found"
)

// Sentinels for errors.Is. They match any *Error of the same kind.
var (
	ErrInvalidInput        = &Error{Kind: KindInvalidInput}
	ErrConfig              = &Error{Kind: KindConfig}
	ErrDecryptionFailed    = &Error{Kind: KindDecryptionFailed}
	ErrNotConfigured       = &Error{Kind: KindNotConfigured}
	ErrTokenExchangeFailed = &Error{Kind: KindTokenExchangeFailed}
	ErrTokenRefreshFailed  = &Error{Kind: KindTokenRefreshFailed}
	ErrProfileFetchFailed  = &Error{Kind: KindProfileFetchFailed}
	ErrValidationFailed    = &Error{Kind: KindValidationFailed}
	ErrPublishFailed       = &Error{Kind: KindPublishFailed}
	ErrNotFound            = &Error{Kind: KindNotFound}
)

// Error is a classified error with an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a sentinel of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Cause == nil && t.Kind == e.Kind
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// KindOf returns the kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// HTTPStatus maps an error to the status code handlers respond with.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindInvalidInput, KindValidationFailed:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindNotConfigured:
		return http.StatusNotImplemented
	case KindTokenExchangeFailed, KindTokenRefreshFailed, KindProfileFetchFailed, KindPublishFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

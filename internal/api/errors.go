package api

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"syscall"
)

// ErrorType categorizes failures of the controller API boundary.
type ErrorType int

const (
	// ErrTypeTransport indicates the controller could not be reached
	// (connection refused, timeout, DNS). Never fatal: the next poll tick
	// or an explicit retry recovers.
	ErrTypeTransport ErrorType = iota
	// ErrTypeServer indicates a non-2xx response from the controller.
	ErrTypeServer
	// ErrTypeParse indicates a malformed response body.
	ErrTypeParse
	// ErrTypeValidation indicates a value rejected before it was sent.
	ErrTypeValidation
	// ErrTypeStale indicates a response for a superseded or cancelled
	// request cycle. Silently discarded, never shown to the operator.
	ErrTypeStale
)

// String returns a human-readable name for the error type.
func (et ErrorType) String() string {
	switch et {
	case ErrTypeTransport:
		return "Transport Error"
	case ErrTypeServer:
		return "Server Error"
	case ErrTypeParse:
		return "Parse Error"
	case ErrTypeValidation:
		return "Validation Error"
	case ErrTypeStale:
		return "Stale Request"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// APIError is the error returned by every controller API operation.
type APIError struct {
	Type       ErrorType // Category of error
	Message    string    // Human-readable error message
	StatusCode int       // HTTP status code (ErrTypeServer only)
	Detail     string    // Structured detail from the controller, if any
	Err        error     // Underlying error, if any
	Retryable  bool      // Whether retrying can succeed
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for error chain inspection.
func (e *APIError) Unwrap() error {
	return e.Err
}

// NewTransportError creates a transport-level error, classifying the
// underlying network failure for the message.
func NewTransportError(message string, err error) *APIError {
	if err != nil {
		if os.IsTimeout(err) {
			message = message + ": request timed out"
		} else if isConnectionRefused(err) {
			message = message + ": controller refused connection"
		}
	}
	return &APIError{
		Type:      ErrTypeTransport,
		Message:   message,
		Err:       err,
		Retryable: true,
	}
}

// NewServerError creates an error for a non-2xx controller response. The
// detail string is the controller's structured message when one was
// supplied; it is surfaced to the operator verbatim.
func NewServerError(statusCode int, detail string) *APIError {
	message := fmt.Sprintf("controller returned HTTP %d", statusCode)
	if detail != "" {
		message = detail
	}
	return &APIError{
		Type:       ErrTypeServer,
		Message:    message,
		StatusCode: statusCode,
		Detail:     detail,
		Retryable:  statusCode >= 500,
	}
}

// NewParseError creates a parsing error.
func NewParseError(message string, err error) *APIError {
	return &APIError{
		Type:      ErrTypeParse,
		Message:   message,
		Err:       err,
		Retryable: false,
	}
}

// NewValidationError creates a client-side validation error.
func NewValidationError(message string) *APIError {
	return &APIError{
		Type:      ErrTypeValidation,
		Message:   message,
		Retryable: false,
	}
}

// NewStaleError marks a response as belonging to a superseded cycle.
func NewStaleError(message string) *APIError {
	return &APIError{
		Type:      ErrTypeStale,
		Message:   message,
		Retryable: false,
	}
}

func isConnectionRefused(err error) bool {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		err = urlErr.Err
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return errors.Is(opErr.Err, syscall.ECONNREFUSED)
	}
	return false
}

// IsTransportError checks whether an error is a transport error.
func IsTransportError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Type == ErrTypeTransport
}

// IsServerError checks whether an error is a non-2xx server error.
func IsServerError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Type == ErrTypeServer
}

// IsParseError checks whether an error is a parse error.
func IsParseError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Type == ErrTypeParse
}

// IsValidationError checks whether an error is a validation error.
func IsValidationError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Type == ErrTypeValidation
}

// IsStale checks whether an error marks a superseded request cycle.
// Stale errors are discarded without operator-visible reporting.
func IsStale(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Type == ErrTypeStale
}

// IsRetryable checks whether an error should be retried.
func IsRetryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable
	}
	return false
}

// ShortMessage returns a concise, operator-facing message for the status
// line. Transient transport failures and server errors read differently so
// the operator knows whether the controller itself complained.
func ShortMessage(err error) string {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return err.Error()
	}

	switch apiErr.Type {
	case ErrTypeTransport:
		return "controller unreachable - will retry"
	case ErrTypeServer:
		if apiErr.Detail != "" {
			return apiErr.Detail
		}
		return fmt.Sprintf("controller error (HTTP %d)", apiErr.StatusCode)
	case ErrTypeParse:
		return "unreadable controller response"
	case ErrTypeValidation:
		return apiErr.Message
	default:
		return apiErr.Message
	}
}

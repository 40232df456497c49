package api

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorTypeString(t *testing.T) {
	tests := []struct {
		et   ErrorType
		want string
	}{
		{ErrTypeTransport, "Transport Error"},
		{ErrTypeServer, "Server Error"},
		{ErrTypeParse, "Parse Error"},
		{ErrTypeValidation, "Validation Error"},
		{ErrTypeStale, "Stale Request"},
	}

	for _, tt := range tests {
		if got := tt.et.String(); got != tt.want {
			t.Errorf("ErrorType(%d).String() = %q, want %q", tt.et, got, tt.want)
		}
	}
}

func TestErrorPredicates(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"transport", NewTransportError("boom", nil), IsTransportError},
		{"server", NewServerError(503, ""), IsServerError},
		{"parse", NewParseError("bad json", nil), IsParseError},
		{"validation", NewValidationError("out of range"), IsValidationError},
		{"stale", NewStaleError("superseded"), IsStale},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.check(tt.err) {
				t.Errorf("predicate failed for %v", tt.err)
			}
			// Wrapped errors keep their classification.
			wrapped := fmt.Errorf("poll cycle: %w", tt.err)
			if !tt.check(wrapped) {
				t.Errorf("predicate failed for wrapped %v", wrapped)
			}
		})
	}
}

func TestRetryableClassification(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"transport retryable", NewTransportError("down", nil), true},
		{"server 5xx retryable", NewServerError(500, ""), true},
		{"server 4xx not retryable", NewServerError(404, "Unknown module 'x'"), false},
		{"parse not retryable", NewParseError("bad", nil), false},
		{"validation not retryable", NewValidationError("bad"), false},
		{"stale not retryable", NewStaleError("old"), false},
		{"plain error not retryable", errors.New("other"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestServerErrorDetailVerbatim(t *testing.T) {
	err := NewServerError(400, "value 120 for 'fan_power' is above max=80")
	if msg := ShortMessage(err); msg != "value 120 for 'fan_power' is above max=80" {
		t.Errorf("ShortMessage = %q, want controller detail verbatim", msg)
	}

	// Without a detail, fall back to a generic HTTP-status message.
	err = NewServerError(502, "")
	if msg := ShortMessage(err); msg != "controller error (HTTP 502)" {
		t.Errorf("ShortMessage = %q", msg)
	}
}

func TestUnwrap(t *testing.T) {
	inner := errors.New("connection reset")
	err := NewTransportError("poll failed", inner)
	if !errors.Is(err, inner) {
		t.Error("APIError should unwrap to the underlying error")
	}
}

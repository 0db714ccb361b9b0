package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorString(t *testing.T) {
	err := New(ErrCodeInvalidDomain, "invalid domain %q", "exa mple.com")
	if got, want := err.Error(), `INVALID_DOMAIN: invalid domain "exa mple.com"`; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	dial := errors.New("connection refused")
	wrapped := Wrap(ErrCodeNetwork, dial, "fetch chain for %s", "example.com")
	if got, want := wrapped.Error(), "NETWORK_ERROR: fetch chain for example.com: connection refused"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(wrapped, dial) || errors.Unwrap(wrapped) != dial {
		t.Error("wrapped error should unwrap to its cause")
	}
}

func TestCodes(t *testing.T) {
	upstream := New(ErrCodeUpstream, "chain api: Could not build chain of trust")
	tests := []struct {
		name    string
		err     error
		code    Code
		invalid bool
		status  int
	}{
		{"bad domain", New(ErrCodeInvalidDomain, "x"), ErrCodeInvalidDomain, true, http.StatusBadRequest},
		{"bad month", New(ErrCodeInvalidDate, "x"), ErrCodeInvalidDate, true, http.StatusBadRequest},
		{"bad format", New(ErrCodeInvalidFormat, "x"), ErrCodeInvalidFormat, true, http.StatusBadRequest},
		{"unknown domain", New(ErrCodeNotFound, "x"), ErrCodeNotFound, false, http.StatusNotFound},
		{"missing file", New(ErrCodeFileNotFound, "x"), ErrCodeFileNotFound, false, http.StatusNotFound},
		{"upstream", upstream, ErrCodeUpstream, false, http.StatusBadGateway},
		{"upstream behind fmt", fmt.Errorf("render: %w", upstream), ErrCodeUpstream, false, http.StatusBadGateway},
		{"network", Wrap(ErrCodeNetwork, errors.New("eof"), "x"), ErrCodeNetwork, false, http.StatusBadGateway},
		{"timeout", New(ErrCodeTimeout, "x"), ErrCodeTimeout, false, http.StatusGatewayTimeout},
		{"rate limited", &RateLimitedError{RetryAfter: 5}, ErrCodeRateLimited, false, http.StatusTooManyRequests},
		{"unsupported", New(ErrCodeUnsupported, "x"), ErrCodeUnsupported, false, http.StatusNotImplemented},
		{"plain", errors.New("boom"), "", false, http.StatusInternalServerError},
		{"nil", nil, "", false, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.code {
				t.Errorf("GetCode() = %q, want %q", got, tt.code)
			}
			if tt.code != "" && tt.code != ErrCodeRateLimited && !Is(tt.err, tt.code) {
				t.Errorf("Is(%q) = false", tt.code)
			}
			if got := IsInvalid(tt.err); got != tt.invalid {
				t.Errorf("IsInvalid() = %v, want %v", got, tt.invalid)
			}
			if got := HTTPStatus(tt.err); got != tt.status {
				t.Errorf("HTTPStatus() = %d, want %d", got, tt.status)
			}
		})
	}
}

func TestIsOuterCode(t *testing.T) {
	err := Wrap(ErrCodeUpstream, New(ErrCodeInvalidDomain, "inner"), "outer")
	if !Is(err, ErrCodeUpstream) {
		t.Error("Is() should match the outermost code")
	}
	if Is(err, ErrCodeInvalidDomain) {
		t.Error("Is() should not look past the first coded error")
	}
}

func TestUserMessage(t *testing.T) {
	if got := UserMessage(New(ErrCodeInvalidDate, "date must be YYYY-MM")); got != "date must be YYYY-MM" {
		t.Errorf("UserMessage() = %q", got)
	}
	if got := UserMessage(errors.New("plain")); got != "plain" {
		t.Errorf("UserMessage() = %q", got)
	}
}

func TestRateLimitedError(t *testing.T) {
	if got := (&RateLimitedError{RetryAfter: 60}).Error(); got != "rate limited: retry after 60 seconds" {
		t.Errorf("Error() = %q", got)
	}
	if got := (&RateLimitedError{}).Error(); got != "rate limited" {
		t.Errorf("Error() = %q", got)
	}
}

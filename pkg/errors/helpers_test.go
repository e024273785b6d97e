package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestShouldRetry(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil", nil, false},
		{"transport", NewTransportError("subscribe", fmt.Errorf("eof")), true},
		{"batch decode", NewDecodeError("subscribe", fmt.Errorf("bad json")), true},
		{"rate limit", NewServerError(429, "", ""), true},
		{"server failure", NewServerError(503, "", ""), true},
		{"forbidden", NewServerError(403, "Access Manager", "Forbidden"), false},
		{"signing", NewSigningError("missing publish key", nil), false},
		{"registry", NewRegistryError(CodeNotFound, "x", "unknown listener"), false},
		{"cancelled", context.Canceled, false},
		{"deadline", context.DeadlineExceeded, true},
		{"wrapped transport", fmt.Errorf("poll: %w", NewTransportError("subscribe", nil)), true},
		{"plain", fmt.Errorf("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldRetry(tt.err); got != tt.expected {
				t.Errorf("ShouldRetry(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestPredicates(t *testing.T) {
	transport := NewTransportError("subscribe", nil)
	decode := NewDecodeError("subscribe", nil)
	signing := NewSigningError("", nil)
	server := NewServerError(429, "", "")
	registry := NewRegistryError(CodeNotFound, "t", "unknown listener")

	if !IsTransport(transport) || IsTransport(decode) {
		t.Error("IsTransport mismatch")
	}
	if !IsDecode(decode) || IsDecode(transport) {
		t.Error("IsDecode mismatch")
	}
	if !IsSigning(signing) || IsSigning(server) {
		t.Error("IsSigning mismatch")
	}
	if !IsServer(server) || IsServer(registry) {
		t.Error("IsServer mismatch")
	}
	if !IsRegistry(registry) || IsRegistry(server) {
		t.Error("IsRegistry mismatch")
	}
	if !IsRateLimit(server) || IsRateLimit(NewServerError(500, "", "")) {
		t.Error("IsRateLimit mismatch")
	}
	if !IsRateLimit(ErrTooManyRequests) {
		t.Error("Expected sentinel to be a rate limit")
	}
	if !IsNotFound(registry) || !IsNotFound(ErrNotFound) || IsNotFound(nil) {
		t.Error("IsNotFound mismatch")
	}
}

func TestGetErrorCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"nil", nil, CodeOK},
		{"custom", NewSigningError("", nil), CodeSigning},
		{"closed", ErrClosed, CodeCancelled},
		{"cancelled", context.Canceled, CodeCancelled},
		{"deadline", context.DeadlineExceeded, CodeTimeout},
		{"forbidden sentinel", fmt.Errorf("x: %w", ErrForbidden), CodeForbidden},
		{"plain", errors.New("boom"), CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetErrorCode(tt.err); got != tt.expected {
				t.Errorf("GetErrorCode() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestGetErrorMessage(t *testing.T) {
	if GetErrorMessage(nil) != "" {
		t.Error("Expected empty message for nil")
	}
	if got := GetErrorMessage(NewSigningError("bad secret", fmt.Errorf("cause"))); got != "bad secret" {
		t.Errorf("Expected bare message, got %q", got)
	}
	if got := GetErrorMessage(errors.New("plain")); got != "plain" {
		t.Errorf("Expected plain message, got %q", got)
	}
}

func TestCause(t *testing.T) {
	root := errors.New("root")
	err := Wrap(NewTransportError("subscribe", root), "poll")
	if Cause(err) != root {
		t.Errorf("Expected root cause, got %v", Cause(err))
	}
	if Cause(root) != root {
		t.Error("Expected error without cause to be its own root")
	}
}

func TestCategories(t *testing.T) {
	tests := []struct {
		code     string
		category ErrorCategory
	}{
		{CodeValidation, CategoryClient},
		{CodeMalformed, CategoryServer},
		{CodeNotFound, CategoryClient},
		{CodeForbidden, CategoryAuth},
		{CodeSigning, CategoryAuth},
		{CodeTimeout, CategoryTimeout},
		{CodeTransport, CategoryNetwork},
		{CodeServiceUnavailable, CategoryNetwork},
		{CodeInternal, CategoryServer},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if got := GetCategory(tt.code); got != tt.category {
				t.Errorf("GetCategory(%q) = %q, want %q", tt.code, got, tt.category)
			}
		})
	}

	if !IsRetryable(CodeRateLimit) || IsRetryable(CodeForbidden) {
		t.Error("IsRetryable mismatch")
	}
	if GetCategory("SOMETHING_NEW") != CategoryServer || IsRetryable("SOMETHING_NEW") {
		t.Error("unknown codes should be terminal server errors")
	}
}

func TestCodeForStatus(t *testing.T) {
	tests := []struct {
		status int
		code   string
	}{
		{http.StatusOK, CodeOK},
		{http.StatusBadRequest, CodeInvalidArgument},
		{http.StatusRequestEntityTooLarge, CodeInvalidArgument},
		{http.StatusNotFound, CodeNotFound},
		{http.StatusForbidden, CodeForbidden},
		{http.StatusTooManyRequests, CodeRateLimit},
		{http.StatusBadGateway, CodeServiceUnavailable},
		{http.StatusTeapot, CodeInternal},
		{http.StatusInternalServerError, CodeInternal},
	}

	for _, tt := range tests {
		if got := CodeForStatus(tt.status); got != tt.code {
			t.Errorf("CodeForStatus(%d) = %q, want %q", tt.status, got, tt.code)
		}
		if tt.status >= 400 && tt.code != CodeInternal && codeToHTTPStatus(tt.code) == http.StatusInternalServerError {
			t.Errorf("code %q has no status mapping", tt.code)
		}
	}
}

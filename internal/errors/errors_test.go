package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestAppErrorFormatting(t *testing.T) {
	err := NewFileSystemError("delete", "/tmp/a.txt", "permission denied", nil)
	got := err.Error()
	if !strings.Contains(got, "filesystem error in delete") {
		t.Errorf("Expected type and operation in message, got '%s'", got)
	}
	if !strings.Contains(got, "[/tmp/a.txt]") {
		t.Errorf("Expected path in message, got '%s'", got)
	}

	noPath := NewConfigError("load", "bad yaml", nil)
	if noPath.Error() != "config error in load: bad yaml" {
		t.Errorf("Unexpected message: '%s'", noPath.Error())
	}
}

func TestAppErrorFallsBackToWrappedMessage(t *testing.T) {
	err := NewContentError("parse", "book.xlsx", "", fmt.Errorf("zip: not a valid zip file"))
	if !strings.Contains(err.Error(), "zip: not a valid zip file") {
		t.Errorf("Expected wrapped message, got '%s'", err.Error())
	}
}

func TestIsTypeAndUnwrap(t *testing.T) {
	base := errors.New("connection refused")
	wrapped := fmt.Errorf("list: %w", NewNetworkError("list", "backend unreachable", base))

	if !IsType(wrapped, ErrorTypeNetwork) {
		t.Error("Expected network error type through wrapping")
	}
	if IsType(wrapped, ErrorTypeContent) {
		t.Error("Did not expect content error type")
	}
	if !errors.Is(wrapped, base) {
		t.Error("Expected errors.Is to reach the base error")
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"plain", errors.New("boom"), "boom"},
		{"validation", NewValidationError("connect", "host is required"), "host is required"},
		{"wrapped", fmt.Errorf("x: %w", NewValidationError("connect", "username is required")), "username is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.want {
				t.Errorf("Expected '%s', got '%s'", tt.want, got)
			}
		})
	}
}

func TestErrorTypeString(t *testing.T) {
	if ErrorTypeRemote.String() != "remote" {
		t.Errorf("Expected 'remote', got '%s'", ErrorTypeRemote.String())
	}
	if ErrorType(99).String() != "unknown" {
		t.Errorf("Expected 'unknown', got '%s'", ErrorType(99).String())
	}
}

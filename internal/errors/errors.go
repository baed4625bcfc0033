package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents different types of errors that can occur
type ErrorType int

const (
	ErrorTypeNetwork ErrorType = iota
	ErrorTypeContent
	ErrorTypeValidation
	ErrorTypeFileSystem
	ErrorTypeRemote
	ErrorTypeConfig
)

// String returns a string representation of the error type
func (et ErrorType) String() string {
	switch et {
	case ErrorTypeNetwork:
		return "network"
	case ErrorTypeContent:
		return "content"
	case ErrorTypeValidation:
		return "validation"
	case ErrorTypeFileSystem:
		return "filesystem"
	case ErrorTypeRemote:
		return "remote"
	case ErrorTypeConfig:
		return "config"
	default:
		return "unknown"
	}
}

// AppError represents a structured application error
type AppError struct {
	Type      ErrorType
	Operation string
	Path      string
	Message   string
	Err       error
}

func (e *AppError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Path != "" {
		return fmt.Sprintf("%s error in %s [%s]: %s", e.Type, e.Operation, e.Path, msg)
	}
	return fmt.Sprintf("%s error in %s: %s", e.Type, e.Operation, msg)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewNetworkError creates an error for a failed backend request
func NewNetworkError(operation, message string, err error) *AppError {
	return &AppError{Type: ErrorTypeNetwork, Operation: operation, Message: message, Err: err}
}

// NewContentError creates an error for content that could not be parsed or rendered
func NewContentError(operation, path, message string, err error) *AppError {
	return &AppError{Type: ErrorTypeContent, Operation: operation, Path: path, Message: message, Err: err}
}

// NewValidationError creates an error for rejected user input
func NewValidationError(operation, message string) *AppError {
	return &AppError{Type: ErrorTypeValidation, Operation: operation, Message: message}
}

// NewFileSystemError creates a new filesystem error
func NewFileSystemError(operation, path, message string, err error) *AppError {
	return &AppError{Type: ErrorTypeFileSystem, Operation: operation, Path: path, Message: message, Err: err}
}

// NewRemoteError creates an error raised by an SSH/SFTP session
func NewRemoteError(operation, path, message string, err error) *AppError {
	return &AppError{Type: ErrorTypeRemote, Operation: operation, Path: path, Message: message, Err: err}
}

// NewConfigError creates a new configuration error
func NewConfigError(operation, message string, err error) *AppError {
	return &AppError{Type: ErrorTypeConfig, Operation: operation, Message: message, Err: err}
}

// IsType reports whether any AppError in err's chain has the given type
func IsType(err error, et ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == et
	}
	return false
}

// UserMessage returns the text shown to the user for err: the AppError
// message when present, else the plain error string.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return err.Error()
}

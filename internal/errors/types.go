package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeInput      ErrorType = "input"
	ErrorTypeIO         ErrorType = "io"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeConflict   ErrorType = "conflict"
	ErrorTypeInternal   ErrorType = "internal"
)

// QuickstartError is a structured error type with context.
type QuickstartError struct {
	Type        ErrorType
	Code        string
	Message     string
	Cause       error
	Context     map[string]interface{}
	Path        string
	Recoverable bool
}

// Error implements the error interface.
func (e *QuickstartError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.Path != "" {
		parts = append(parts, e.Path)
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *QuickstartError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison.
func (e *QuickstartError) Is(target error) bool {
	var t *QuickstartError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithContext adds context information to the error.
func (e *QuickstartError) WithContext(key string, value interface{}) *QuickstartError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value

	return e
}

// WithPath adds the filesystem path the error refers to.
func (e *QuickstartError) WithPath(path string) *QuickstartError {
	e.Path = path

	return e
}

// Error creation functions

// NewValidationError creates a validation error.
func NewValidationError(code, message string) *QuickstartError {
	return &QuickstartError{
		Type:        ErrorTypeValidation,
		Code:        code,
		Message:     message,
		Recoverable: false,
	}
}

// NewInputError creates an error for malformed user input such as a corrupt archive.
func NewInputError(code, message string, cause error) *QuickstartError {
	return &QuickstartError{
		Type:    ErrorTypeInput,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewIOError creates an I/O error.
func NewIOError(code, message string, cause error) *QuickstartError {
	return &QuickstartError{
		Type:        ErrorTypeIO,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: false,
	}
}

// NewConflictError creates an error for a name or path that is already taken.
func NewConflictError(code, message string) *QuickstartError {
	return &QuickstartError{
		Type:    ErrorTypeConflict,
		Code:    code,
		Message: message,
	}
}

// NewConfigError creates a configuration error.
func NewConfigError(code, message string) *QuickstartError {
	return &QuickstartError{
		Type:        ErrorTypeConfig,
		Code:        code,
		Message:     message,
		Recoverable: false,
	}
}

// NewInternalError creates an internal error.
func NewInternalError(code, message string, cause error) *QuickstartError {
	return &QuickstartError{
		Type:        ErrorTypeInternal,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: false,
	}
}

// IsRecoverable checks if an error is recoverable.
func IsRecoverable(err error) bool {
	var qe *QuickstartError
	if errors.As(err, &qe) {
		return qe.Recoverable
	}

	return false
}

// HasCode reports whether any QuickstartError in err's chain carries code.
func HasCode(err error, code string) bool {
	for err != nil {
		var qe *QuickstartError
		if !errors.As(err, &qe) {
			return false
		}
		if qe.Code == code {
			return true
		}
		err = qe.Cause
	}

	return false
}

// Common error codes.
const (
	ErrCodeArchiveInvalid      = "ERR_ARCHIVE_INVALID"
	ErrCodeArchiveVersion      = "ERR_ARCHIVE_VERSION"
	ErrCodeArchiveExtension    = "ERR_ARCHIVE_EXTENSION"
	ErrCodeFileNotFound        = "ERR_FILE_NOT_FOUND"
	ErrCodeUnsafePath          = "ERR_UNSAFE_PATH"
	ErrCodeVariableRequired    = "ERR_VARIABLE_REQUIRED"
	ErrCodeTemplateNotFound    = "ERR_TEMPLATE_NOT_FOUND"
	ErrCodeTemplateExists      = "ERR_TEMPLATE_EXISTS"
	ErrCodeRenameCollision     = "ERR_RENAME_COLLISION"
	ErrCodeRenameFailed        = "ERR_RENAME_FAILED"
	ErrCodeInvalidTemplateName = "ERR_INVALID_TEMPLATE_NAME"
	ErrCodeInvalidRepo         = "ERR_INVALID_REPO"
	ErrCodeConfigInvalid       = "ERR_CONFIG_INVALID"
	ErrCodeTargetNotEmpty      = "ERR_TARGET_NOT_EMPTY"
	ErrCodeUnknownScript       = "ERR_UNKNOWN_SCRIPT"
	ErrCodeInternalError       = "ERR_INTERNAL"
)

// Helper functions for common errors

// ErrTemplateNotFound creates a template not found error.
func ErrTemplateNotFound(name string) *QuickstartError {
	return NewValidationError(
		ErrCodeTemplateNotFound,
		fmt.Sprintf("template %q not found", name),
	).WithContext("template", name)
}

// ErrTemplateExists creates an error for a template name already in use.
func ErrTemplateExists(name string) *QuickstartError {
	return NewConflictError(
		ErrCodeTemplateExists,
		fmt.Sprintf("template %q already exists", name),
	).WithContext("template", name)
}

// ErrUnsafePath creates an error for a path that would escape its root.
func ErrUnsafePath(path string) *QuickstartError {
	return NewInputError(ErrCodeUnsafePath, "unsafe path", nil).WithPath(path)
}

// ErrInvalidArchive wraps a decoding failure of an archive.
func ErrInvalidArchive(cause error) *QuickstartError {
	return NewInputError(ErrCodeArchiveInvalid, "invalid archive", cause)
}

// ErrVariablesRequired reports required variables that received no value.
func ErrVariablesRequired(names []string) *QuickstartError {
	return NewValidationError(
		ErrCodeVariableRequired,
		fmt.Sprintf("required variable(s) without value or default: %s", strings.Join(names, ", ")),
	).WithContext("variables", names)
}

package errors

import (
	"errors"
)

// Wrap wraps an error with additional context, creating a QuickstartError if the input is not already one
func Wrap(err error, errType ErrorType, code, message string) *QuickstartError {
	if err == nil {
		return nil
	}

	// Preserve the context and recoverability of an existing QuickstartError
	var qe *QuickstartError
	if errors.As(err, &qe) {
		return &QuickstartError{
			Type:        errType,
			Code:        code,
			Message:     message,
			Cause:       qe,
			Context:     qe.Context,
			Path:        qe.Path,
			Recoverable: qe.Recoverable,
		}
	}

	return &QuickstartError{
		Type:        errType,
		Code:        code,
		Message:     message,
		Cause:       err,
		Recoverable: errType == ErrorTypeConflict,
	}
}

// WrapIO wraps an error as an I/O error
func WrapIO(err error, code, message string) *QuickstartError {
	qe := Wrap(err, ErrorTypeIO, code, message)
	if qe != nil {
		qe.Recoverable = false
	}
	return qe
}

// WrapRecoverable wraps an error and marks it recoverable. Callers log such
// errors and keep going instead of aborting the operation.
func WrapRecoverable(err error, errType ErrorType, code, message string) *QuickstartError {
	qe := Wrap(err, errType, code, message)
	if qe != nil {
		qe.Recoverable = true
	}
	return qe
}

// GetType extracts the ErrorType of err, or "" when err is not a QuickstartError.
func GetType(err error) ErrorType {
	var qe *QuickstartError
	if errors.As(err, &qe) {
		return qe.Type
	}
	return ""
}

// GetCode extracts the outermost error code of err.
func GetCode(err error) string {
	var qe *QuickstartError
	if errors.As(err, &qe) {
		return qe.Code
	}
	return ""
}

package nlq

import (
	"errors"
	"fmt"
)

// ErrorCode is the machine-readable failure taxonomy surfaced on NLResponse
// and at the API boundary. Every code is fatal for the request only; nothing
// is retried inside the pipeline.
type ErrorCode string

const (
	CodeInputTooLong          ErrorCode = "INPUT_TOO_LONG"
	CodeInputTooShort         ErrorCode = "INPUT_TOO_SHORT"
	CodeGenerationUnsupported ErrorCode = "GENERATION_UNSUPPORTED"
	CodeValidationFailed      ErrorCode = "VALIDATION_FAILED"
	CodeExecutionFailed       ErrorCode = "EXECUTION_FAILED"
)

type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// CodeOf extracts the taxonomy code from an error chain. Unknown errors map
// to CodeExecutionFailed since they can only originate downstream of
// generation and validation.
func CodeOf(err error) ErrorCode {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Code
	}
	return CodeExecutionFailed
}

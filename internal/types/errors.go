package types

import (
	"errors"
	"fmt"
)

// ErrorCode is a stable machine-readable failure category. Codes appear in
// JSON error envelopes and in the events log; they never change meaning.
type ErrorCode string

// Error taxonomy
const (
	CodeAuth            ErrorCode = "AUTH_401"
	CodePermission      ErrorCode = "PERM_403"
	CodeNotFound        ErrorCode = "NOT_FOUND_404"
	CodeRateLimit       ErrorCode = "RATE_LIMIT"
	CodeNetworkTimeout  ErrorCode = "NETWORK_TIMEOUT"
	CodeConfirmRequired ErrorCode = "CONFIRM_REQUIRED"
	CodeValidation      ErrorCode = "VALIDATION_ERROR"
	CodePolicyViolation ErrorCode = "POLICY_VIOLATION"
	CodeInternal        ErrorCode = "INTERNAL_ERROR"
)

// IsValid checks if the code is part of the taxonomy
func (c ErrorCode) IsValid() bool {
	switch c {
	case CodeAuth, CodePermission, CodeNotFound, CodeRateLimit, CodeNetworkTimeout,
		CodeConfirmRequired, CodeValidation, CodePolicyViolation, CodeInternal:
		return true
	}
	return false
}

// CLIError carries a taxonomy code and a user-facing message through command
// failure paths. Details, when present, are included verbatim in the JSON
// error envelope.
type CLIError struct {
	Code    ErrorCode
	Message string
	Details map[string]any
}

// NewCLIError builds a CLIError with a formatted message.
func NewCLIError(code ErrorCode, format string, args ...any) *CLIError {
	return &CLIError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Error implements the error interface.
func (e *CLIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// WithDetail attaches one detail entry and returns the error for chaining.
func (e *CLIError) WithDetail(key string, value any) *CLIError {
	if e.Details == nil {
		e.Details = map[string]any{}
	}
	e.Details[key] = value
	return e
}

// AsCLIError unwraps err into a *CLIError when one is in the chain.
func AsCLIError(err error) (*CLIError, bool) {
	var ce *CLIError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// WrapInternal coerces any error to a CLIError, defaulting unknown errors
// to INTERNAL_ERROR so raw transport or database detail never leaks as a code.
func WrapInternal(err error) *CLIError {
	if err == nil {
		return nil
	}
	if ce, ok := AsCLIError(err); ok {
		return ce
	}
	return &CLIError{Code: CodeInternal, Message: err.Error()}
}

// Package errors defines the engine's typed error taxonomy. Every condition
// is caller-correctable and carries a machine-readable code so the calling
// layer can render a precise message.
package errors

import "fmt"

// Code is a machine-readable error code.
type Code string

const (
	CodeInsufficientFunds Code = "INSUFFICIENT_FUNDS"
	CodeBelowMinimum      Code = "BELOW_MINIMUM"
	CodeTaskNotActivated  Code = "TASK_NOT_ACTIVATED"
	CodeDailyLimitReached Code = "DAILY_LIMIT_REACHED"
	CodeNotMatured        Code = "NOT_MATURED"
	CodeAlreadyClaimed    Code = "ALREADY_CLAIMED"
	CodeAlreadyDecided    Code = "ALREADY_DECIDED"
	CodeInvalidSource     Code = "INVALID_SOURCE"
	CodeNotFound          Code = "NOT_FOUND"

	// CodeTransientFailure covers unexpected persistence failures. The
	// surrounding atomic unit is aborted whole and the caller may retry.
	CodeTransientFailure Code = "TRANSIENT_FAILURE"
)

// Error is a coded domain error. Two Errors match under errors.Is when their
// codes are equal, so sentinels below work against wrapped instances.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// New builds a coded error.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf builds a coded error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code to an underlying error.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

// CodeOf extracts the code from err, walking wrapped errors.
func CodeOf(err error) Code {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Code
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return CodeTransientFailure
}

// Sentinels for errors.Is checks.
var (
	ErrInsufficientFunds = New(CodeInsufficientFunds, "insufficient funds")
	ErrBelowMinimum      = New(CodeBelowMinimum, "amount below minimum")
	ErrTaskNotActivated  = New(CodeTaskNotActivated, "click task not activated")
	ErrDailyLimitReached = New(CodeDailyLimitReached, "daily click limit reached")
	ErrNotMatured        = New(CodeNotMatured, "package not matured")
	ErrAlreadyClaimed    = New(CodeAlreadyClaimed, "package already claimed")
	ErrAlreadyDecided    = New(CodeAlreadyDecided, "withdrawal already decided")
	ErrInvalidSource     = New(CodeInvalidSource, "invalid balance source")
	ErrNotFound          = New(CodeNotFound, "not found")
	ErrTransientFailure  = New(CodeTransientFailure, "transient failure")
)

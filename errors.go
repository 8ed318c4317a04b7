package did

import (
	"errors"
	"fmt"
)

// Error codes carried by *Error.
const (
	CodeInvalidFormat      = "INVALID_FORMAT"
	CodeInvalidKeyLength   = "INVALID_KEY_LENGTH"
	CodeUnsupportedKeyType = "UNSUPPORTED_KEY_TYPE"
	CodeUnsupportedMethod  = "UNSUPPORTED_METHOD"
	CodeInvalidDomain      = "INVALID_DOMAIN"
	CodeInvalidDID         = "INVALID_DID"
	CodeInvalidDocument    = "INVALID_DOCUMENT"
	CodeInternal           = "INTERNAL"
)

// Error is the single failure kind returned by creation, normalization and
// document operations.
type Error struct {
	Message string
	Code    string

	cause error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches another *Error with the same code, so callers can test against
// the sentinels below with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code != "" && t.Code == e.Code
}

var (
	ErrInvalidFormat      = &Error{Message: "invalid format", Code: CodeInvalidFormat}
	ErrInvalidKeyLength   = &Error{Message: "invalid key length", Code: CodeInvalidKeyLength}
	ErrUnsupportedKeyType = &Error{Message: "unsupported key type", Code: CodeUnsupportedKeyType}
	ErrUnsupportedMethod  = &Error{Message: "unsupported DID method", Code: CodeUnsupportedMethod}
	ErrInvalidDomain      = &Error{Message: "invalid domain", Code: CodeInvalidDomain}
	ErrInvalidDID         = &Error{Message: "invalid DID", Code: CodeInvalidDID}
	ErrInvalidDocument    = &Error{Message: "invalid DID document", Code: CodeInvalidDocument}
)

var ErrInvalidSignature = fmt.Errorf("invalid signature")

func newError(code, format string, args ...any) *Error {
	return &Error{Message: fmt.Sprintf(format, args...), Code: code}
}

func wrapError(code string, cause error, format string, args ...any) *Error {
	msg := fmt.Sprintf(format, args...)
	return &Error{Message: msg + ": " + cause.Error(), Code: code, cause: cause}
}

// ErrorCode returns the code of the first *Error in err's chain, or "".
func ErrorCode(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

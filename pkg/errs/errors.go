// Package errs holds the error taxonomy shared by every ss3 package.
//
// Store backends map their SDK errors into *errs.Error at their boundary, so
// the transfer engine and the CLI only ever inspect a Kind.
package errs

import (
	"errors"
	"fmt"
)

// Kind categorises an error without exposing provider-specific types.
type Kind int

const (
	KindUnknown        Kind = iota
	KindConfiguration       // no credentials, neither region nor endpoint
	KindPathInvalid         // missing source path, key without a file name
	KindPolicyConflict      // fail mode hit an existing destination
	KindUnsupported         // directory to file copy, etag download
	KindProvider            // any object store request failure
	KindIO                  // local filesystem failure
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindPathInvalid:
		return "path_invalid"
	case KindPolicyConflict:
		return "policy_conflict"
	case KindUnsupported:
		return "unsupported"
	case KindProvider:
		return "provider"
	case KindIO:
		return "io"
	default:
		return "unknown"
	}
}

// Error is the single domain error type.
type Error struct {
	Kind    Kind
	Message string
	// Code is the provider error code; only set for KindProvider.
	Code  string
	Cause error
}

func (e *Error) Error() string {
	if e.Kind == KindProvider {
		return fmt.Sprintf("store error:\n       Code: %s\n    Message: %s", e.Code, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap allows errors.Is / errors.As to traverse the cause chain.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates an *Error with the given kind and message.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Newf is New with a format string.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an *Error with an underlying cause.
func Wrap(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// Provider wraps a store failure with the provider's code and message.
func Provider(code, message string, cause error) *Error {
	if code == "" {
		code = "NO_CODE"
	}
	return &Error{Kind: KindProvider, Code: code, Message: message, Cause: cause}
}

// FilePathNotFound reports a local source that is not a file or directory.
func FilePathNotFound(path string) *Error {
	return Newf(KindPathInvalid, "File path '%s' not found.", path)
}

// InvalidPath reports a path or key with no usable file name.
func InvalidPath(path string) *Error {
	return Newf(KindPathInvalid, "Cannot perform, invalid key '%s'", path)
}

// NotSupported reports an operation the engine refuses to perform.
func NotSupported(feature string) *Error {
	return Newf(KindUnsupported, "Not Supported - '%s' feature is not supported.", feature)
}

// ObjectExists reports a fail-mode conflict on a remote destination.
func ObjectExists(url string) *Error {
	return Newf(KindPolicyConflict, "Fail mode is on and the object '%s' already exists", url)
}

// FileExists reports a fail-mode conflict on a local destination.
func FileExists(path string) *Error {
	return Newf(KindPolicyConflict, "Fail mode is on and the file '%s' already exists", path)
}

func IsConfiguration(err error) bool  { return KindOf(err) == KindConfiguration }
func IsPathInvalid(err error) bool    { return KindOf(err) == KindPathInvalid }
func IsPolicyConflict(err error) bool { return KindOf(err) == KindPolicyConflict }
func IsUnsupported(err error) bool    { return KindOf(err) == KindUnsupported }
func IsProvider(err error) bool       { return KindOf(err) == KindProvider }
func IsIO(err error) bool             { return KindOf(err) == KindIO }

// KindOf extracts the Kind from any error in the chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

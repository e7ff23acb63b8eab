// Package codec error types.
//
// Malformed input is reported with *DecodeError (or *EncodeError on the
// encode side), carrying a code that callers can match with errors.Is
// against the exported sentinels below. Descriptor and value-type mistakes
// are programming errors and surface as a panic carrying *ProgrammingError.
package codec

import (
	"errors"
	"fmt"
)

// Error codes used throughout the codec.
const (
	CodeTruncated     = "TRUNCATED"      // A read ran past the end of the buffer
	CodeNonCanonical  = "NON_CANONICAL"  // CompactSize was not minimally encoded
	CodeSizeTooLarge  = "SIZE_TOO_LARGE" // CompactSize outside the supported 32-bit range
	CodeUnknownType   = "UNKNOWN_TYPE"   // Type ID not present in the registry
	CodeTrailingBytes = "TRAILING_BYTES" // Strict decode left bytes unconsumed
	CodeInvalidValue  = "INVALID_VALUE"  // Encoded value cannot be represented on the wire
)

// Sentinels for errors.Is matching against *DecodeError and *EncodeError.
var (
	ErrTruncated     = &DecodeError{Code: CodeTruncated}
	ErrNonCanonical  = &DecodeError{Code: CodeNonCanonical}
	ErrSizeTooLarge  = &DecodeError{Code: CodeSizeTooLarge}
	ErrUnknownType   = &DecodeError{Code: CodeUnknownType}
	ErrTrailingBytes = &DecodeError{Code: CodeTrailingBytes}
	ErrInvalidValue  = &EncodeError{Code: CodeInvalidValue}
)

// DecodeError is returned when input bytes cannot be decoded.
type DecodeError struct {
	Code    string // Error code (e.g., CodeTruncated)
	Field   string // Descriptor path of the field being decoded, if known
	Offset  int    // Absolute byte offset where the failure was detected
	Message string // Human-readable error message
	Cause   error  // Underlying error (if any)
}

func (e *DecodeError) Error() string {
	where := ""
	if e.Field != "" {
		where = fmt.Sprintf(" in %s", e.Field)
	}
	if e.Cause != nil {
		return fmt.Sprintf("decode error [%s]%s at offset %d: %s: %v",
			e.Code, where, e.Offset, e.Message, e.Cause)
	}
	return fmt.Sprintf("decode error [%s]%s at offset %d: %s",
		e.Code, where, e.Offset, e.Message)
}

func (e *DecodeError) Unwrap() error { return e.Cause }

// Is matches any codec error with the same code, so ErrSizeTooLarge also
// matches an *EncodeError raised for an oversized CompactSize.
func (e *DecodeError) Is(target error) bool {
	code, ok := codeOf(target)
	return ok && code == e.Code
}

// EncodeError is returned when a value cannot be written to the wire.
type EncodeError struct {
	Code    string
	Field   string
	Message string
}

func (e *EncodeError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("encode error [%s] in %s: %s", e.Code, e.Field, e.Message)
	}
	return fmt.Sprintf("encode error [%s]: %s", e.Code, e.Message)
}

// Is matches any codec error with the same code.
func (e *EncodeError) Is(target error) bool {
	code, ok := codeOf(target)
	return ok && code == e.Code
}

func codeOf(err error) (string, bool) {
	switch t := err.(type) {
	case *DecodeError:
		return t.Code, true
	case *EncodeError:
		return t.Code, true
	}
	return "", false
}

// ProgrammingError indicates a broken descriptor table or a value of the
// wrong Go type handed to the encoder. It is raised with panic.
type ProgrammingError struct {
	Message string
}

func (e *ProgrammingError) Error() string {
	return "codec programming error: " + e.Message
}

func programmingError(format string, args ...any) *ProgrammingError {
	return &ProgrammingError{Message: fmt.Sprintf(format, args...)}
}

// withField annotates a decode error with the outermost field path that was
// being decoded. Inner paths win, so the first annotation is kept and outer
// names are prefixed.
func withField(err error, field string) error {
	var de *DecodeError
	if !errors.As(err, &de) {
		return err
	}
	if de.Field == "" {
		de.Field = field
	} else {
		de.Field = field + "." + de.Field
	}
	return de
}

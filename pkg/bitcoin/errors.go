package bitcoin

import (
	"errors"
	"fmt"
)

// Error codes for operations whose preconditions are not met.
const (
	CodeNoTransactions      = "NO_TRANSACTIONS"       // Block carries no transactions
	CodeNotSegWit           = "NOT_SEGWIT"            // Operation needs witness data
	CodeBadWitnessNonce     = "BAD_WITNESS_NONCE"     // Coinbase witness is not a single 32-byte item
	CodeNoWitnessCommitment = "NO_WITNESS_COMMITMENT" // Coinbase has no commitment output
	CodeInvalidEntity       = "INVALID_ENTITY"        // Entity cannot be serialised
)

// Sentinels for errors.Is matching against *PreconditionError.
var (
	ErrNoTransactions      = &PreconditionError{Code: CodeNoTransactions}
	ErrNotSegWit           = &PreconditionError{Code: CodeNotSegWit}
	ErrBadWitnessNonce     = &PreconditionError{Code: CodeBadWitnessNonce}
	ErrNoWitnessCommitment = &PreconditionError{Code: CodeNoWitnessCommitment}
	ErrInvalidEntity       = &PreconditionError{Code: CodeInvalidEntity}
)

// PreconditionError is returned when a derived value is requested from an
// entity that lacks the data needed to compute it.
type PreconditionError struct {
	Code    string // Error code (e.g., CodeNotSegWit)
	Op      string // Operation that was attempted
	Message string // Human-readable error message
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s [%s]: %s", e.Op, e.Code, e.Message)
}

// Is matches any *PreconditionError with the same code.
func (e *PreconditionError) Is(target error) bool {
	var t *PreconditionError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

func precondition(code, op, msg string) error {
	return &PreconditionError{Code: code, Op: op, Message: msg}
}

// Package errs defines the typed failure taxonomy shared by the ledger core.
// Callers branch on these with errors.As; none of them are retried internally.
package errs

import "fmt"

// ValidationError reports malformed or out-of-range input.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation: %s", e.Msg)
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Msg)
}

// Validation builds a ValidationError for a named field.
func Validation(field, format string, args ...any) error {
	return &ValidationError{Field: field, Msg: fmt.Sprintf(format, args...)}
}

// AccessDeniedError reports an unsatisfied share access structure.
type AccessDeniedError struct {
	Msg string
}

func (e *AccessDeniedError) Error() string { return "access denied: " + e.Msg }

// AccessDenied builds an AccessDeniedError.
func AccessDenied(format string, args ...any) error {
	return &AccessDeniedError{Msg: fmt.Sprintf(format, args...)}
}

// ReconstructionError reports a cryptographic mismatch during secret
// reconstruction.
type ReconstructionError struct {
	Msg string
}

func (e *ReconstructionError) Error() string { return "reconstruction: " + e.Msg }

// Reconstruction builds a ReconstructionError.
func Reconstruction(format string, args ...any) error {
	return &ReconstructionError{Msg: fmt.Sprintf(format, args...)}
}

// DoubleSpendError reports reuse of a nullifier or a duplicate vote.
type DoubleSpendError struct {
	Token string
}

func (e *DoubleSpendError) Error() string { return "double spend: " + e.Token }

// DoubleSpend builds a DoubleSpendError for the reused token.
func DoubleSpend(token string) error {
	return &DoubleSpendError{Token: token}
}

// ChainIntegrityError reports a broken audit chain link.
type ChainIntegrityError struct {
	Seq uint64
	Msg string
}

func (e *ChainIntegrityError) Error() string {
	return fmt.Sprintf("chain integrity: entry %d: %s", e.Seq, e.Msg)
}

// ChainIntegrity builds a ChainIntegrityError for the first broken entry.
func ChainIntegrity(seq uint64, format string, args ...any) error {
	return &ChainIntegrityError{Seq: seq, Msg: fmt.Sprintf(format, args...)}
}

// ExpiredError reports a time-boxed key or freeze past its validity window.
type ExpiredError struct {
	Msg string
}

func (e *ExpiredError) Error() string { return "expired: " + e.Msg }

// Expired builds an ExpiredError.
func Expired(format string, args ...any) error {
	return &ExpiredError{Msg: fmt.Sprintf(format, args...)}
}

// StateError reports an operation invalid for the current lifecycle state.
type StateError struct {
	Op    string
	State string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("invalid state: cannot %s in state %s", e.Op, e.State)
}

// State builds a StateError.
func State(op, state string) error {
	return &StateError{Op: op, State: state}
}

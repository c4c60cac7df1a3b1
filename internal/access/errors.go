package access

import "errors"

// ErrInvalidCode is returned when a scanned code resolves to nothing.
// Nothing is logged and no gate is touched for unrecognized codes.
var ErrInvalidCode = errors.New("invalid code")

// DeniedError is returned when a credential resolved but authorization
// rules reject it. The denial has already been appended to the ledger
// when this error is returned.
type DeniedError struct {
	Reason string
}

func (e *DeniedError) Error() string {
	return "access denied: " + e.Reason
}

// ValidationError is returned for malformed requests before any state is
// touched
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

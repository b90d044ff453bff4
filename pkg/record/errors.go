package record

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by point lookups when no record matches.
	ErrNotFound = errors.New("record not found")

	// ErrUnknownKind is returned when a caller names a collection kind
	// the catalog does not declare.
	ErrUnknownKind = errors.New("unknown record kind")
)

// ValidationError is a permanent rejection of a write: the record is
// missing a required field, a field has the wrong type, or an enum
// constraint failed. Retrying the same record is pointless.
type ValidationError struct {
	Collection string
	Field      string
	Reason     string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", e.Collection, e.Reason)
	}
	return fmt.Sprintf("%s: field %q: %s", e.Collection, e.Field, e.Reason)
}

// StorageError wraps a transient engine failure (connectivity, timeout,
// server unavailable). Callers may retry with backoff; inserts are not
// idempotent across retries unless the caller supplies a dedup key.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// ProvisioningError is fatal at bootstrap: the named step failed and the
// target may be partially provisioned. The operator re-runs bootstrap
// (it is idempotent) or starts from a clean target.
type ProvisioningError struct {
	Step string
	Err  error
}

func (e *ProvisioningError) Error() string {
	return fmt.Sprintf("provisioning: %s: %v", e.Step, e.Err)
}

func (e *ProvisioningError) Unwrap() error { return e.Err }

// IsValidation reports whether err is a permanent validation rejection.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsStorage reports whether err is a transient storage failure.
func IsStorage(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}

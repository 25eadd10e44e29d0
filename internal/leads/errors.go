package leads

import (
	"errors"
	"fmt"
)

var (
	// ErrLeadNotFound is returned when a lead is not found
	ErrLeadNotFound = errors.New("lead not found")

	// ErrStorage marks every failure to persist or read a lead.
	ErrStorage = errors.New("leads: storage failure")
)

// StorageConstraintError reports an insert rejected by a database constraint,
// such as a reference id deleted between validation and insert.
type StorageConstraintError struct {
	Code       string
	Constraint string
	Err        error
}

func (e *StorageConstraintError) Error() string {
	return fmt.Sprintf("leads: constraint %q violated (sqlstate %s): %v", e.Constraint, e.Code, e.Err)
}

func (e *StorageConstraintError) Unwrap() error {
	return e.Err
}

// Is lets callers match any storage failure with errors.Is(err, ErrStorage).
func (e *StorageConstraintError) Is(target error) bool {
	return target == ErrStorage
}

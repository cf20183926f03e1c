package database

import (
	"errors"
	"fmt"
)

// DuplicateError reports a uniqueness violation
type DuplicateError struct {
	Entity string
	Key    string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%s already exists: %s", e.Entity, e.Key)
}

// IsDuplicate reports whether err is a uniqueness violation
func IsDuplicate(err error) bool {
	var dup *DuplicateError
	return errors.As(err, &dup)
}

// IsNotFound reports whether err means the record does not exist
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

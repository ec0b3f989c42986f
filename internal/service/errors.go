package service

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is returned when the trimmed query is empty
var ErrInvalidInput = errors.New("address query is empty")

// StorageError wraps any backing-store failure during an operation
// No partial results accompany it
type StorageError struct {
	Op  string // "fuzzy_search", "exact_search", "health_check"
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

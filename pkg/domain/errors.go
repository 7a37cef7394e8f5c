package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound reports that an entity referenced by ID does not exist. Updates
// and deletes against unknown identifiers surface this instead of silently
// no-opping.
type ErrNotFound struct {
	Entity EntityType
	ID     string
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// IsNotFound reports whether err is (or wraps) an ErrNotFound.
func IsNotFound(err error) bool {
	var nf ErrNotFound
	return errors.As(err, &nf)
}

// StorageError wraps a backend read/write failure so callers can distinguish
// "storage broken" from "legitimately absent".
type StorageError struct {
	Op  string
	Err error
}

func (e StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e StorageError) Unwrap() error { return e.Err }

// IsStorageError reports whether err is (or wraps) a StorageError.
func IsStorageError(err error) bool {
	var se StorageError
	return errors.As(err, &se)
}

// ErrInvalidCredentials is returned by authentication when no user matches the
// supplied email and password. It deliberately does not say which part was wrong.
var ErrInvalidCredentials = errors.New("invalid credentials")

package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrEmptyUpdate occurs when a patch carries no fields.
	ErrEmptyUpdate = errors.New("update contains no fields")
)

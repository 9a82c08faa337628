// Package apperr holds the sentinel errors shared across layers.
package apperr

import "errors"

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")
	// ErrSuggestionUnavailable is absorbed by the note workflow and never
	// reaches API callers.
	ErrSuggestionUnavailable = errors.New("tag suggestion unavailable")
	ErrPersistence           = errors.New("persistence failed")
)

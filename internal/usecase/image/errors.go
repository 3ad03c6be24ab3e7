package image

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrImageNotFound     = errors.New("image not found")
	ErrInvalidImage      = errors.New("invalid image")
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrVariantPending    = errors.New("variant is being generated")
	ErrValidation        = errors.New("validation failed")
	ErrStorageError      = errors.New("storage error")
	ErrDatabaseError     = errors.New("database error")
	ErrMessageQueueError = errors.New("message queue error")
)

// ValidationError lists the attributes that failed validation, keyed by
// their JSON name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s %s", k, e.Fields[k]))
	}
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(parts, ", "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

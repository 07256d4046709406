package docx

import (
	"fmt"

	"gitlab.com/tozd/go/errors"
)

var (
	// ErrNotDocx is returned when a package lacks a main document part.
	ErrNotDocx = errors.Base("not a valid DOCX file")
	// ErrPartNotFound is returned when a named part is absent.
	ErrPartNotFound = errors.Base("part not found")
	// ErrNoBody is returned when the main document has no w:body.
	ErrNoBody = errors.Base("document has no body")
	// ErrDetachedReference is returned when a paragraph used as an insertion
	// reference, or passed to Remove, is not attached to a body.
	ErrDetachedReference = errors.Base("paragraph is detached")
	// ErrAttached is returned when inserting a paragraph that already has a parent.
	ErrAttached = errors.Base("paragraph is already attached")
)

// DocumentError represents an error during package operations
type DocumentError struct {
	Operation string
	Path      string
	Cause     error
}

func (e *DocumentError) Error() string {
	if e.Path != "" && e.Cause != nil {
		return fmt.Sprintf("document error during %s of '%s': %v", e.Operation, e.Path, e.Cause)
	} else if e.Path != "" {
		return fmt.Sprintf("document error during %s of '%s'", e.Operation, e.Path)
	} else if e.Cause != nil {
		return fmt.Sprintf("document error during %s: %v", e.Operation, e.Cause)
	}
	return fmt.Sprintf("document error during %s", e.Operation)
}

func (e *DocumentError) Unwrap() error {
	return e.Cause
}

// NewDocumentError creates a new document error
func NewDocumentError(operation, path string, cause error) error {
	return &DocumentError{
		Operation: operation,
		Path:      path,
		Cause:     cause,
	}
}

// IsDocumentError checks if an error is, or wraps, a document error
func IsDocumentError(err error) bool {
	var de *DocumentError
	return errors.As(err, &de)
}

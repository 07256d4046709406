package section

import (
	"fmt"
	"strings"

	"gitlab.com/tozd/go/errors"

	"github.com/benjaminschreck/go-docsection/pkg/docx"
)

var (
	// ErrAnchorNotFound is returned when no paragraph matches the start anchor.
	ErrAnchorNotFound = errors.Base("anchor not found")
	// ErrDetachedReference is returned when a paragraph used for insertion or
	// removal is not attached to a body.
	ErrDetachedReference = docx.ErrDetachedReference
	// ErrEmptyItemList is returned when a rewrite is requested with no items.
	ErrEmptyItemList = errors.Base("empty item list")
	// ErrInvalidBounds is returned for a malformed deletion range or anchor.
	ErrInvalidBounds = errors.Base("invalid section bounds")
	// ErrUnknownPreset is returned when a preset name is not registered.
	ErrUnknownPreset = errors.Base("unknown preset")
	// ErrInvalidPreset is returned when a preset fails validation.
	ErrInvalidPreset = errors.Base("invalid preset")
)

// AnchorError reports a start marker that matched no paragraph.
type AnchorError struct {
	Marker string
}

func (e *AnchorError) Error() string {
	if e.Marker == "" {
		return "section start anchor not found"
	}
	return fmt.Sprintf("'%s' not found", e.Marker)
}

func (e *AnchorError) Unwrap() error {
	return ErrAnchorNotFound
}

// RewriteError reports a rejected rewrite. Stage is the stage the rewrite
// failed to reach.
type RewriteError struct {
	Stage Stage
	Cause error
}

func (e *RewriteError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("rewrite failed before %s: %v", e.Stage, e.Cause)
	}
	return fmt.Sprintf("rewrite failed before %s", e.Stage)
}

func (e *RewriteError) Unwrap() error {
	return e.Cause
}

// ValidationIssue represents a single validation problem
type ValidationIssue struct {
	Field   string
	Message string
}

// ValidationError represents multiple validation issues
type ValidationError struct {
	Issues []ValidationIssue
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "validation error"
	}

	if len(e.Issues) == 1 {
		return fmt.Sprintf("validation error: %s - %s", e.Issues[0].Field, e.Issues[0].Message)
	}

	var parts []string
	parts = append(parts, fmt.Sprintf("%d validation issues:", len(e.Issues)))
	for _, issue := range e.Issues {
		parts = append(parts, fmt.Sprintf("  %s: %s", issue.Field, issue.Message))
	}
	return strings.Join(parts, "\n")
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidPreset
}

// MultiError collects multiple errors
type MultiError struct {
	errors []error
}

// NewMultiError creates a new multi-error collector
func NewMultiError() *MultiError {
	return &MultiError{
		errors: make([]error, 0),
	}
}

// Add adds an error to the collection (ignores nil errors)
func (m *MultiError) Add(err error) {
	if err != nil {
		m.errors = append(m.errors, err)
	}
}

// Len returns the number of errors
func (m *MultiError) Len() int {
	return len(m.errors)
}

// Err returns the multi-error or nil if empty
func (m *MultiError) Err() error {
	if len(m.errors) == 0 {
		return nil
	}
	if len(m.errors) == 1 {
		return m.errors[0]
	}
	return m
}

func (m *MultiError) Error() string {
	if len(m.errors) == 0 {
		return "no errors"
	}

	if len(m.errors) == 1 {
		return m.errors[0].Error()
	}

	var parts []string
	parts = append(parts, fmt.Sprintf("%d errors occurred:", len(m.errors)))
	for i, err := range m.errors {
		parts = append(parts, fmt.Sprintf("  [%d] %v", i+1, err))
	}
	return strings.Join(parts, "\n")
}

// Unwrap returns the collected errors so errors.Is and errors.As see each one.
func (m *MultiError) Unwrap() []error {
	return m.errors
}

// IsAnchorNotFound reports whether err is caused by a missing start anchor.
func IsAnchorNotFound(err error) bool {
	return errors.Is(err, ErrAnchorNotFound)
}

// IsDetachedReference reports whether err is a structural invariant violation.
func IsDetachedReference(err error) bool {
	return errors.Is(err, ErrDetachedReference)
}

// IsEmptyItemList reports whether err is caused by an empty item list.
func IsEmptyItemList(err error) bool {
	return errors.Is(err, ErrEmptyItemList)
}

// IsInputError reports whether err was caused by the caller's input rather
// than by the document or an internal failure.
func IsInputError(err error) bool {
	return errors.Is(err, ErrAnchorNotFound) ||
		errors.Is(err, ErrEmptyItemList) ||
		errors.Is(err, ErrUnknownPreset) ||
		errors.Is(err, ErrInvalidPreset) ||
		errors.Is(err, ErrInvalidBounds)
}

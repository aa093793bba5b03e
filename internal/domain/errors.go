package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrDecode signals a malformed PDF document.
	ErrDecode = errors.New("document decode failed")
	// ErrNoDocument signals an operation that needs an open document.
	ErrNoDocument = errors.New("no document loaded")
	// ErrPageOutOfRange signals a page number outside the open document.
	ErrPageOutOfRange = errors.New("page out of range")
	// ErrSelectionAmbiguous signals a selection spanning text layers or yielding no rectangles.
	ErrSelectionAmbiguous = errors.New("selection ambiguous")
	// ErrInvalidAnnotation signals an annotation that must never be stored.
	ErrInvalidAnnotation = errors.New("invalid annotation")
	// ErrDuplicateID signals an identifier collision in the annotation store.
	ErrDuplicateID = errors.New("duplicate annotation id")
	// ErrInvalidColor signals an unparsable color value.
	ErrInvalidColor = errors.New("invalid color")
	// ErrNoPendingCapture signals a confirm or cancel with nothing pending.
	ErrNoPendingCapture = errors.New("no pending capture")
	// ErrPersistenceFormat signals a malformed annotations file.
	ErrPersistenceFormat = errors.New("invalid annotations file format")
	// ErrNothingToExport signals an export of an empty store.
	ErrNothingToExport = errors.New("no annotations to export")
	// ErrRemoteStore signals a taxonomy store failure.
	ErrRemoteStore = errors.New("taxonomy store error")
	// ErrInvalidTransition signals an out-of-order page render step.
	ErrInvalidTransition = errors.New("invalid page state transition")
	// ErrInvalidTaxonomy signals an invalid label or color definition.
	ErrInvalidTaxonomy = errors.New("invalid taxonomy entry")
)

// FormatError wraps ErrPersistenceFormat with the offending location.
type FormatError struct {
	Path   string
	Reason string
}

func (e *FormatError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %s", ErrPersistenceFormat.Error(), e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", ErrPersistenceFormat.Error(), e.Path, e.Reason)
}

func (e *FormatError) Unwrap() error { return ErrPersistenceFormat }

// NewFormatError creates a persistence format error.
func NewFormatError(path, reason string) error {
	return &FormatError{Path: path, Reason: reason}
}

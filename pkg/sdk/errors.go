package annotator

import "github.com/kailas-cloud/annotator/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrDecode            = domain.ErrDecode
	ErrNoDocument        = domain.ErrNoDocument
	ErrPageOutOfRange    = domain.ErrPageOutOfRange
	ErrNoPendingCapture  = domain.ErrNoPendingCapture
	ErrDuplicateID       = domain.ErrDuplicateID
	ErrInvalidColor      = domain.ErrInvalidColor
	ErrPersistenceFormat = domain.ErrPersistenceFormat
	ErrNothingToExport   = domain.ErrNothingToExport
	ErrNotFound          = domain.ErrNotFound
)

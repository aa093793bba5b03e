package annotator

import (
	domann "github.com/kailas-cloud/annotator/internal/domain/annotation"
	"github.com/kailas-cloud/annotator/internal/domain/geometry"
	"github.com/kailas-cloud/annotator/internal/usecase/render"
)

// Geometry in client or page-local pixels.
type (
	Point     = geometry.Point
	Rect      = geometry.Rect
	Selection = geometry.Selection
)

// Session views returned by the engine.
type (
	Session      = render.SessionSummary
	Pending      = render.PendingView
	Page         = render.PageSnapshot
	ImportResult = render.ImportResult
)

// Annotation is a stored highlight.
type Annotation struct {
	ID         string
	PageNumber int
	Text       string
	Label      string
	LabelID    string
	Color      string
	Rects      []Rect
}

func annotationFromDomain(a domann.Annotation) Annotation {
	return Annotation{
		ID:         a.ID(),
		PageNumber: a.PageNumber(),
		Text:       a.Text(),
		Label:      a.Label(),
		LabelID:    a.LabelID(),
		Color:      a.Color(),
		Rects:      a.Rects(),
	}
}

// Click is the result of a pointer click.
type Click struct {
	// RemovedID is the deleted annotation, empty when nothing was hit.
	RemovedID string
	// Cancelled reports that the click dismissed a pending capture.
	Cancelled bool
}

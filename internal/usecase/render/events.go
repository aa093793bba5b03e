package render

import (
	"context"

	domann "github.com/kailas-cloud/annotator/internal/domain/annotation"
	"github.com/kailas-cloud/annotator/internal/domain/geometry"
)

// Event is a typed interaction routed through the dispatcher.
type Event interface {
	apply(ctx context.Context, c *Coordinator) (Outcome, error)
}

// Outcome is the result of one event. Only the fields relevant to the event are set.
type Outcome struct {
	Session          *SessionSummary
	Page             *PageSnapshot
	Pending          *PendingView
	Import           *ImportResult
	AnnotationID     string
	Removed          bool
	Cancelled        bool
	SelectionCleared bool

	preview *previewSource
}

// FileOpened loads a new document, replacing the current one.
type FileOpened struct {
	Name string
	Data []byte
}

func (e FileOpened) apply(ctx context.Context, c *Coordinator) (Outcome, error) {
	return c.openDocument(ctx, e.Name, e.Data)
}

// DocumentClosed reverts to the empty session and clears the store.
type DocumentClosed struct{}

func (DocumentClosed) apply(_ context.Context, c *Coordinator) (Outcome, error) {
	return c.closeDocument(), nil
}

// SelectionCaptured carries the platform selection for the active range.
type SelectionCaptured struct {
	Selection geometry.Selection
}

func (e SelectionCaptured) apply(_ context.Context, c *Coordinator) (Outcome, error) {
	return c.captureSelection(e.Selection)
}

// TextDragged is a drag over the text layer between two client points. The
// engine resolves the text nodes under both ends and captures the range.
type TextDragged struct {
	Start geometry.Point
	End   geometry.Point
}

func (e TextDragged) apply(_ context.Context, c *Coordinator) (Outcome, error) {
	return c.dragSelection(e.Start, e.End)
}

// LabelConfirmed commits the pending capture with a label.
// An empty Color keeps the color chosen at capture time.
type LabelConfirmed struct {
	Label   string
	LabelID string
	Color   string
}

func (e LabelConfirmed) apply(_ context.Context, c *Coordinator) (Outcome, error) {
	return c.confirmLabel(e.Label, e.LabelID, e.Color)
}

// CaptureCancelled discards the pending capture.
type CaptureCancelled struct{}

func (CaptureCancelled) apply(_ context.Context, c *Coordinator) (Outcome, error) {
	return c.cancelCapture(), nil
}

// PointerClicked is a click in client space. ShapeID identifies a drawn
// highlight when the surface knows it; FragmentRect is the client box of the
// clicked fragment when only geometry is available.
type PointerClicked struct {
	ClientPoint  geometry.Point
	ShapeID      string
	FragmentRect *geometry.Rect
}

func (e PointerClicked) apply(_ context.Context, c *Coordinator) (Outcome, error) {
	return c.click(e)
}

// HighlightModeToggled switches highlight mode.
type HighlightModeToggled struct {
	On bool
}

func (e HighlightModeToggled) apply(_ context.Context, c *Coordinator) (Outcome, error) {
	return c.setHighlightMode(e.On), nil
}

// ColorSelected sets the color of new highlights.
type ColorSelected struct {
	Color string
}

func (e ColorSelected) apply(_ context.Context, c *Coordinator) (Outcome, error) {
	return c.selectColor(e.Color)
}

// Scrolled moves the viewer's scroll offset.
type Scrolled struct {
	Y float64
}

func (e Scrolled) apply(_ context.Context, c *Coordinator) (Outcome, error) {
	return c.scroll(e.Y), nil
}

// ImportRequested replaces the store with records from a parsed annotations file.
type ImportRequested struct {
	DocumentName string
	Scale        float64
	Drafts       []domann.Draft
}

func (e ImportRequested) apply(_ context.Context, c *Coordinator) (Outcome, error) {
	return c.importDrafts(e)
}

// SessionQueried reads the session summary.
type SessionQueried struct{}

func (SessionQueried) apply(_ context.Context, c *Coordinator) (Outcome, error) {
	summary := c.summary()
	return Outcome{Session: &summary}, nil
}

// PageQueried reads the drawn state of one page.
type PageQueried struct {
	Page int
}

func (e PageQueried) apply(_ context.Context, c *Coordinator) (Outcome, error) {
	snap, err := c.snapshot(e.Page)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Page: snap}, nil
}

type previewRequested struct {
	page int
}

func (e previewRequested) apply(_ context.Context, c *Coordinator) (Outcome, error) {
	src, err := c.previewSource(e.page)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{preview: src}, nil
}

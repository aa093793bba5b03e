package render

import (
	"fmt"
	"image"

	"github.com/kailas-cloud/annotator/internal/domain"
	"github.com/kailas-cloud/annotator/internal/domain/geometry"
	"github.com/kailas-cloud/annotator/internal/domain/page"
	"github.com/kailas-cloud/annotator/internal/textlayer"
)

// DrawnShape is one highlight fragment painted over a page.
type DrawnShape struct {
	ID           string        `json:"id"`
	AnnotationID string        `json:"annotationId,omitempty"`
	Rect         geometry.Rect `json:"rect"`
	Color        string        `json:"color"`
	Temp         bool          `json:"temp,omitempty"`
}

// DrawnLabel is the floating label of an annotation.
type DrawnLabel struct {
	AnnotationID string         `json:"annotationId"`
	Text         string         `json:"text"`
	Color        string         `json:"color"`
	At           geometry.Point `json:"at"`
}

// PageView is the display state of one page.
type PageView struct {
	Number    int
	State     page.State
	Viewport  page.Viewport
	Surface   *image.RGBA
	TextLayer *textlayer.Layer
	Shapes    []DrawnShape
	Labels    []DrawnLabel
}

func (pv *PageView) advance(next page.State) error {
	if !pv.State.CanTransition(next) {
		return fmt.Errorf("page %d: %s -> %s: %w", pv.Number, pv.State, next, domain.ErrInvalidTransition)
	}
	pv.State = next
	return nil
}

// ready reports whether the text layer exists, so annotations can be positioned.
func (pv *PageView) ready() bool {
	return pv.State >= page.TextLayerReady
}

// contains reports whether a page-local point lies on the page.
func (pv *PageView) contains(p geometry.Point) bool {
	return p.X >= 0 && p.Y >= 0 && p.X <= pv.Viewport.Width && p.Y <= pv.Viewport.Height
}

// PendingCapture is a highlight drawn but not yet committed, awaiting a label.
type PendingCapture struct {
	ID    string
	Page  int
	Text  string
	Rects []geometry.Rect
	Color string
}

// Session is the whole mutable state of one viewer session.
// It is owned by the dispatcher goroutine.
type Session struct {
	doc           Document
	name          string
	pages         []*PageView
	scale         float64
	highlightMode bool
	color         string
	pending       *PendingCapture
	scrollY       float64
	generation    uint64
}

func newSession(cfg domain.EngineConfig) *Session {
	return &Session{scale: cfg.Scale, color: cfg.DefaultColor}
}

func (s *Session) page(n int) (*PageView, error) {
	if s.doc == nil {
		return nil, domain.ErrNoDocument
	}
	if n < 1 || n > len(s.pages) {
		return nil, fmt.Errorf("page %d of %d: %w", n, len(s.pages), domain.ErrPageOutOfRange)
	}
	return s.pages[n-1], nil
}

// Package annotation defines the highlight annotation aggregate.
package annotation

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/kailas-cloud/annotator/internal/domain"
	"github.com/kailas-cloud/annotator/internal/domain/geometry"
)

// Draft is an annotation without identity: the result of a capture or an imported record.
type Draft struct {
	PageNumber int
	Text       string
	Label      string
	LabelID    string
	Color      string
	Rects      []geometry.Rect
}

// Annotation is a labeled, colored highlight spanning one or more rectangles on one page
// (immutable value object).
type Annotation struct {
	id         string
	pageNumber int
	text       string
	label      string
	labelID    string
	color      string
	rects      []geometry.Rect
}

// NewID returns a fresh opaque identifier (UUIDv4, 122 random bits).
func NewID() string {
	return uuid.NewString()
}

// New validates and creates an Annotation.
// Page numbers start at 1, at least one rect is required and every rect must be valid.
// The color must be hex and is stored as #rrggbb.
func New(id string, d Draft) (Annotation, error) {
	if err := validate(id, d); err != nil {
		return Annotation{}, err
	}
	color, err := NormalizeColor(d.Color)
	if err != nil {
		return Annotation{}, err
	}
	return build(id, d, color), nil
}

// Restore recreates an annotation from a loaded record. It validates like New
// but keeps any non-hex color (a CSS name, rgb() and so on) verbatim.
func Restore(id string, d Draft) (Annotation, error) {
	if err := validate(id, d); err != nil {
		return Annotation{}, err
	}
	color, err := NormalizeColor(d.Color)
	if err != nil {
		color = strings.TrimSpace(d.Color)
	}
	return build(id, d, color), nil
}

func validate(id string, d Draft) error {
	if id == "" {
		return fmt.Errorf("annotation id is required: %w", domain.ErrInvalidAnnotation)
	}
	if d.PageNumber < 1 {
		return fmt.Errorf("page number %d must be positive: %w", d.PageNumber, domain.ErrInvalidAnnotation)
	}
	if len(d.Rects) == 0 {
		return fmt.Errorf("annotation has no rects: %w", domain.ErrInvalidAnnotation)
	}
	for i, r := range d.Rects {
		if !r.Valid() {
			return fmt.Errorf("rect %d is invalid: %w", i, domain.ErrInvalidAnnotation)
		}
	}
	return nil
}

func build(id string, d Draft, color string) Annotation {
	rects := make([]geometry.Rect, len(d.Rects))
	copy(rects, d.Rects)

	return Annotation{
		id:         id,
		pageNumber: d.PageNumber,
		text:       d.Text,
		label:      strings.TrimSpace(d.Label),
		labelID:    d.LabelID,
		color:      color,
		rects:      rects,
	}
}

// ID returns the annotation identifier.
func (a *Annotation) ID() string { return a.id }

// PageNumber returns the 1-based page the annotation belongs to.
func (a *Annotation) PageNumber() int { return a.pageNumber }

// Text returns the captured plain-text span.
func (a *Annotation) Text() string { return a.text }

// Label returns the display label.
func (a *Annotation) Label() string { return a.label }

// LabelID returns the taxonomy reference, empty when the label was typed freely.
func (a *Annotation) LabelID() string { return a.labelID }

// Color returns the #rrggbb color, or the verbatim value of a restored record.
func (a *Annotation) Color() string { return a.color }

// Rects returns a copy of the page-local rectangles in capture order.
func (a *Annotation) Rects() []geometry.Rect {
	out := make([]geometry.Rect, len(a.rects))
	copy(out, a.rects)
	return out
}

// FirstRect returns the first rectangle; annotations always have one.
func (a *Annotation) FirstRect() geometry.Rect { return a.rects[0] }

// LastRect returns the last rectangle.
func (a *Annotation) LastRect() geometry.Rect { return a.rects[len(a.rects)-1] }

// Draft returns the annotation content without its identifier.
func (a *Annotation) Draft() Draft {
	return Draft{
		PageNumber: a.pageNumber,
		Text:       a.text,
		Label:      a.label,
		LabelID:    a.labelID,
		Color:      a.color,
		Rects:      a.Rects(),
	}
}

// Package hittest resolves pointer interactions on highlight fragments back to
// the logical annotation that owns them.
package hittest

import (
	"github.com/kailas-cloud/annotator/internal/domain/geometry"
	"github.com/kailas-cloud/annotator/internal/metrics"
)

// DefaultTolerance is roughly one device pixel.
const DefaultTolerance = 1.0

// Tester resolves clicks by shape identity or by geometry.
// Ties are broken by store order, so a point never resolves to two ids.
type Tester struct {
	src       AnnotationSource
	index     *Index
	tolerance float64
}

// New creates a Tester. A non-positive tolerance falls back to DefaultTolerance.
func New(src AnnotationSource, index *Index, tolerance float64) *Tester {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	if index == nil {
		index = NewIndex()
	}
	return &Tester{src: src, index: index, tolerance: tolerance}
}

// Index returns the shape identity table.
func (t *Tester) Index() *Index { return t.index }

// Tolerance returns the geometric match tolerance in pixels.
func (t *Tester) Tolerance() float64 { return t.tolerance }

// ResolveShape looks up the annotation that owns a drawn shape.
func (t *Tester) ResolveShape(shapeID string) (string, bool) {
	id, ok := t.index.Lookup(shapeID)
	observe("identity", ok)
	return id, ok
}

// ResolveFragment finds the first annotation on page with a rect equal to
// fragment within tolerance in left, top, width and height.
func (t *Tester) ResolveFragment(page int, fragment geometry.Rect) (string, bool) {
	for _, a := range t.src.FilterByPage(page) {
		for _, r := range a.Rects() {
			if r.Matches(fragment, t.tolerance) {
				observe("fragment", true)
				return a.ID(), true
			}
		}
	}
	observe("fragment", false)
	return "", false
}

// ResolvePoint finds the first annotation on page with a rect that contains
// the page-local point, each rect grown by the tolerance.
func (t *Tester) ResolvePoint(page int, p geometry.Point) (string, bool) {
	for _, a := range t.src.FilterByPage(page) {
		for _, r := range a.Rects() {
			if r.ContainsPoint(p, t.tolerance) {
				observe("point", true)
				return a.ID(), true
			}
		}
	}
	observe("point", false)
	return "", false
}

func observe(strategy string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	metrics.HitTestTotal.WithLabelValues(strategy, result).Inc()
}

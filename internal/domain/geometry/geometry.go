// Package geometry converts between client-space selection rectangles and
// page-local coordinates anchored at a text layer's top-left corner.
//
// Page-local rectangles are only meaningful together with the render scale
// that was active when they were captured. Scrolling or moving the viewer
// changes the text layer origin, not the stored rectangles.
package geometry

import (
	"errors"
	"math"
	"strings"
)

// ErrSelectionEmpty is returned when a selection yields no rectangles or no text.
var ErrSelectionEmpty = errors.New("selection is empty")

// Point is a position in either client or page-local pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is an axis-aligned rectangle in pixels.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Right returns the x coordinate of the right edge.
func (r Rect) Right() float64 { return r.Left + r.Width }

// Bottom returns the y coordinate of the bottom edge.
func (r Rect) Bottom() float64 { return r.Top + r.Height }

// Valid reports whether all components are finite and the size is non-negative.
func (r Rect) Valid() bool {
	for _, v := range [...]float64{r.Left, r.Top, r.Width, r.Height} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return r.Width >= 0 && r.Height >= 0
}

// Translate returns r shifted by (dx, dy).
func (r Rect) Translate(dx, dy float64) Rect {
	return Rect{Left: r.Left + dx, Top: r.Top + dy, Width: r.Width, Height: r.Height}
}

// Matches reports whether every component of r and o differs by less than tol.
func (r Rect) Matches(o Rect, tol float64) bool {
	return math.Abs(r.Left-o.Left) < tol &&
		math.Abs(r.Top-o.Top) < tol &&
		math.Abs(r.Width-o.Width) < tol &&
		math.Abs(r.Height-o.Height) < tol
}

// ContainsPoint reports whether p lies inside r grown by tol on every side.
func (r Rect) ContainsPoint(p Point, tol float64) bool {
	return p.X >= r.Left-tol && p.X <= r.Right()+tol &&
		p.Y >= r.Top-tol && p.Y <= r.Bottom()+tol
}

// Selection is what the platform selection API reports for the active range:
// the client-space boxes of the selected glyph runs plus the plain text.
type Selection struct {
	Anchor      Point  `json:"anchor"`
	Focus       Point  `json:"focus"`
	ClientRects []Rect `json:"clientRects"`
	Text        string `json:"text"`
}

// Capture translates the selection's client rectangles into page-local
// coordinates by subtracting the text layer origin. Order and sizes are kept.
// The caller is responsible for checking that the selection stays in one layer.
func Capture(sel Selection, origin Point) ([]Rect, string, error) {
	text := strings.TrimSpace(sel.Text)
	if len(sel.ClientRects) == 0 || text == "" {
		return nil, "", ErrSelectionEmpty
	}

	rects := make([]Rect, len(sel.ClientRects))
	for i, cr := range sel.ClientRects {
		rects[i] = cr.Translate(-origin.X, -origin.Y)
	}
	return rects, text, nil
}

// Project maps page-local rectangles back into client space for the given origin.
func Project(rects []Rect, origin Point) []Rect {
	out := make([]Rect, len(rects))
	for i, r := range rects {
		out[i] = r.Translate(origin.X, origin.Y)
	}
	return out
}

// ToLocal maps a client-space point into page-local coordinates.
func ToLocal(p, origin Point) Point {
	return Point{X: p.X - origin.X, Y: p.Y - origin.Y}
}

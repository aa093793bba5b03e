// Package textlayer builds the selectable text overlay of a rendered page:
// positioned text nodes in page-local pixels, the coordinate frame every
// highlight rectangle is stored in.
package textlayer

import (
	"context"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/annotator/internal/domain/geometry"
	"github.com/kailas-cloud/annotator/internal/domain/page"
)

const (
	ascentRatio   = 0.8  // baseline sits at 80% of the font box
	avgGlyphRatio = 0.5  // width estimate when a run carries none
	lineSlack     = 0.5  // points of baseline drift tolerated within one line
	joinGap       = 0.3  // max gap, in font sizes, for runs to join one node
	spaceGap      = 0.15 // gap, in font sizes, that implies a word break
)

// Node is one positioned, selectable span of text.
type Node struct {
	Index int           `json:"index"`
	Text  string        `json:"text"`
	Rect  geometry.Rect `json:"rect"`
}

// Layer is the text overlay of one page.
type Layer struct {
	Page   int     `json:"page"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Nodes  []Node  `json:"nodes"`
}

// Builder converts engine text runs into a Layer.
type Builder struct{}

// NewBuilder creates a text-layer builder.
func NewBuilder() *Builder { return &Builder{} }

// Build positions the runs in viewport space and merges adjacent runs on the
// same baseline into nodes. A page without text yields a layer with no nodes.
func (b *Builder) Build(ctx context.Context, pageNum int, runs []page.TextRun, vp page.Viewport) (*Layer, error) {
	if vp.Scale <= 0 {
		return nil, fmt.Errorf("viewport scale must be positive, got %v", vp.Scale)
	}
	layer := &Layer{Page: pageNum, Width: vp.Width, Height: vp.Height}
	pageHeight := vp.Height / vp.Scale

	var cur *pending
	for i, r := range runs {
		if i%256 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("build text layer: %w", err)
			}
		}
		if r.Text == "" || r.FontSize <= 0 {
			continue
		}
		w := r.Width
		if w <= 0 {
			w = float64(utf8.RuneCountInString(r.Text)) * r.FontSize * avgGlyphRatio
		}
		if cur != nil && cur.joins(r) {
			cur.extend(r, w)
			continue
		}
		if cur != nil {
			layer.appendNode(cur, pageHeight, vp.Scale)
		}
		cur = &pending{text: r.Text, x: r.X, y: r.Y, end: r.X + w, size: r.FontSize}
	}
	if cur != nil {
		layer.appendNode(cur, pageHeight, vp.Scale)
	}
	return layer, nil
}

type pending struct {
	text string
	x, y float64
	end  float64
	size float64
}

func (p *pending) joins(r page.TextRun) bool {
	if math.Abs(r.Y-p.y) > lineSlack {
		return false
	}
	gap := r.X - p.end
	return gap >= -p.size*joinGap && gap <= p.size*joinGap
}

func (p *pending) extend(r page.TextRun, w float64) {
	if r.X-p.end > p.size*spaceGap && !strings.HasSuffix(p.text, " ") && !strings.HasPrefix(r.Text, " ") {
		p.text += " "
	}
	p.text += r.Text
	p.end = math.Max(p.end, r.X+w)
	p.size = math.Max(p.size, r.FontSize)
}

func (l *Layer) appendNode(p *pending, pageHeight, scale float64) {
	l.Nodes = append(l.Nodes, Node{
		Index: len(l.Nodes),
		Text:  p.text,
		Rect: geometry.Rect{
			Left:   p.x * scale,
			Top:    (pageHeight - p.y - p.size*ascentRatio) * scale,
			Width:  (p.end - p.x) * scale,
			Height: p.size * scale,
		},
	})
}

// NodeAt returns the index of the node containing the page-local point.
func (l *Layer) NodeAt(p geometry.Point) (int, bool) {
	for _, n := range l.Nodes {
		if n.Rect.ContainsPoint(p, 0) {
			return n.Index, true
		}
	}
	return 0, false
}

// Text returns the plain text of nodes from..to inclusive, one line per row.
func (l *Layer) Text(from, to int) string {
	from, to, ok := l.clamp(from, to)
	if !ok {
		return ""
	}
	var sb strings.Builder
	for i := from; i <= to; i++ {
		if i > from {
			if sameLine(l.Nodes[i-1].Rect, l.Nodes[i].Rect) {
				sb.WriteByte(' ')
			} else {
				sb.WriteByte('\n')
			}
		}
		sb.WriteString(l.Nodes[i].Text)
	}
	return sb.String()
}

// RangeRects returns the page-local boxes of a selection covering nodes
// from..to inclusive: one rectangle per line, top to bottom, left to right.
func (l *Layer) RangeRects(from, to int) []geometry.Rect {
	from, to, ok := l.clamp(from, to)
	if !ok {
		return nil
	}
	var out []geometry.Rect
	for i := from; i <= to; i++ {
		r := l.Nodes[i].Rect
		if n := len(out); n > 0 && sameLine(out[n-1], r) {
			out[n-1] = union(out[n-1], r)
			continue
		}
		out = append(out, r)
	}
	return out
}

func (l *Layer) clamp(from, to int) (int, int, bool) {
	if from > to {
		from, to = to, from
	}
	if from < 0 {
		from = 0
	}
	if to >= len(l.Nodes) {
		to = len(l.Nodes) - 1
	}
	return from, to, from <= to
}

func sameLine(a, b geometry.Rect) bool {
	return math.Abs(a.Top-b.Top) < math.Min(a.Height, b.Height)/2
}

func union(a, b geometry.Rect) geometry.Rect {
	left := math.Min(a.Left, b.Left)
	top := math.Min(a.Top, b.Top)
	right := math.Max(a.Right(), b.Right())
	bottom := math.Max(a.Bottom(), b.Bottom())
	return geometry.Rect{Left: left, Top: top, Width: right - left, Height: bottom - top}
}

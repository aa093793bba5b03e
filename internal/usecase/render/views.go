package render

import (
	"image"

	"github.com/kailas-cloud/annotator/internal/domain"
	"github.com/kailas-cloud/annotator/internal/domain/geometry"
	"github.com/kailas-cloud/annotator/internal/domain/page"
)

// SessionSummary is a read-only view of the session.
type SessionSummary struct {
	DocumentName  string        `json:"documentName"`
	PageCount     int           `json:"pageCount"`
	Scale         float64       `json:"scale"`
	HighlightMode bool          `json:"highlightMode"`
	Color         string        `json:"color"`
	ScrollY       float64       `json:"scrollY"`
	Pages         []PageSummary `json:"pages"`
	Pending       *PendingView  `json:"pending,omitempty"`
}

// PageSummary is the render state of one page.
type PageSummary struct {
	Number int     `json:"number"`
	State  string  `json:"state"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Shapes int     `json:"shapes"`
}

// PendingView is the pending capture plus the client-space chooser position.
type PendingView struct {
	ID      string          `json:"id"`
	Page    int             `json:"page"`
	Text    string          `json:"text"`
	Color   string          `json:"color"`
	Rects   []geometry.Rect `json:"rects"`
	Chooser geometry.Rect   `json:"chooser"`
}

// PageSnapshot is the drawn state of one page.
type PageSnapshot struct {
	Number    int            `json:"number"`
	State     string         `json:"state"`
	Viewport  page.Viewport  `json:"viewport"`
	Origin    geometry.Point `json:"origin"`
	TextNodes int            `json:"textNodes"`
	Shapes    []DrawnShape   `json:"shapes"`
	Labels    []DrawnLabel   `json:"labels"`
}

type previewSource struct {
	surface *image.RGBA
	shapes  []DrawnShape
}

func (c *Coordinator) summary() SessionSummary {
	s := c.session
	out := SessionSummary{
		DocumentName:  s.name,
		PageCount:     len(s.pages),
		Scale:         s.scale,
		HighlightMode: s.highlightMode,
		Color:         s.color,
		ScrollY:       s.scrollY,
		Pages:         make([]PageSummary, 0, len(s.pages)),
		Pending:       c.pendingView(),
	}
	for _, pv := range s.pages {
		out.Pages = append(out.Pages, PageSummary{
			Number: pv.Number,
			State:  pv.State.String(),
			Width:  pv.Viewport.Width,
			Height: pv.Viewport.Height,
			Shapes: len(pv.Shapes),
		})
	}
	return out
}

func (c *Coordinator) pendingView() *PendingView {
	p := c.session.pending
	if p == nil {
		return nil
	}
	return &PendingView{
		ID:      p.ID,
		Page:    p.Page,
		Text:    p.Text,
		Color:   p.Color,
		Rects:   append([]geometry.Rect(nil), p.Rects...),
		Chooser: c.chooser(p),
	}
}

func (c *Coordinator) snapshot(n int) (*PageSnapshot, error) {
	pv, err := c.session.page(n)
	if err != nil {
		return nil, err
	}
	snap := &PageSnapshot{
		Number:   pv.Number,
		State:    pv.State.String(),
		Viewport: pv.Viewport,
		Origin:   c.origin(n),
		Shapes:   append([]DrawnShape{}, pv.Shapes...),
		Labels:   append([]DrawnLabel{}, pv.Labels...),
	}
	if pv.TextLayer != nil {
		snap.TextNodes = len(pv.TextLayer.Nodes)
	}
	return snap, nil
}

func (c *Coordinator) previewSource(n int) (*previewSource, error) {
	pv, err := c.session.page(n)
	if err != nil {
		return nil, err
	}
	if pv.Surface == nil {
		return nil, domain.ErrNotFound
	}
	surface := image.NewRGBA(pv.Surface.Rect)
	copy(surface.Pix, pv.Surface.Pix)
	return &previewSource{
		surface: surface,
		shapes:  append([]DrawnShape(nil), pv.Shapes...),
	}, nil
}

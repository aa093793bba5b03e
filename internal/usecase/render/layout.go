package render

import "github.com/kailas-cloud/annotator/internal/domain/geometry"

// Pages are stacked vertically in a scrolling container, mounted in page
// order. A page that has not been mounted yet takes no space.

// pageTop returns the container offset of page n.
func (c *Coordinator) pageTop(n int) float64 {
	var top float64
	for _, pv := range c.session.pages[:n-1] {
		if pv.Surface == nil {
			continue
		}
		top += pv.Viewport.Height + c.cfg.PageGap
	}
	return top
}

// origin returns the client-space top-left corner of page n's text layer.
func (c *Coordinator) origin(n int) geometry.Point {
	return geometry.Point{
		X: c.cfg.ContainerLeft,
		Y: c.pageTop(n) - c.session.scrollY,
	}
}

// layerAt finds the page whose text layer lies under a client point.
func (c *Coordinator) layerAt(p geometry.Point) (int, geometry.Point, bool) {
	for _, pv := range c.session.pages {
		if !pv.ready() {
			continue
		}
		local := geometry.ToLocal(p, c.origin(pv.Number))
		if pv.contains(local) {
			return pv.Number, local, true
		}
	}
	return 0, geometry.Point{}, false
}

// chooser positions the label chooser below the right end of the last
// selected line, in client space.
func (c *Coordinator) chooser(p *PendingCapture) geometry.Rect {
	last := geometry.Project(p.Rects[len(p.Rects)-1:], c.origin(p.Page))[0]
	return geometry.Rect{
		Left:   last.Right(),
		Top:    last.Bottom() + c.cfg.ChooserGap,
		Width:  c.cfg.ChooserWidth,
		Height: c.cfg.ChooserHeight,
	}
}

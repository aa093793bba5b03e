// Package render owns the viewer session: the per-page render pipeline, the
// reconciliation of stored annotations with rendered pages, and the
// capture and deletion workflows.
package render

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/annotator/internal/domain"
	domann "github.com/kailas-cloud/annotator/internal/domain/annotation"
	"github.com/kailas-cloud/annotator/internal/domain/geometry"
	"github.com/kailas-cloud/annotator/internal/domain/page"
)

// ImportResult reports a bulk load into the store.
type ImportResult struct {
	Loaded        int  `json:"loaded"`
	Dropped       int  `json:"dropped"`
	ScaleMismatch bool `json:"scaleMismatch"`
}

// Coordinator applies interaction events to the session.
// All methods run on the dispatcher goroutine.
type Coordinator struct {
	cfg     domain.EngineConfig
	engine  Engine
	builder TextLayerBuilder
	store   AnnotationStore
	hits    HitResolver
	index   ShapeIndex
	logger  *zap.Logger

	session *Session

	baseCtx      context.Context
	cancelRender context.CancelFunc
	renderDone   chan struct{}
	exec         func(ctx context.Context, fn func() error) error
}

// NewCoordinator creates a coordinator with an empty session.
func NewCoordinator(
	cfg domain.EngineConfig,
	engine Engine,
	builder TextLayerBuilder,
	store AnnotationStore,
	hits HitResolver,
	index ShapeIndex,
	logger *zap.Logger,
) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		cfg:     cfg,
		engine:  engine,
		builder: builder,
		store:   store,
		hits:    hits,
		index:   index,
		logger:  logger,
		session: newSession(cfg),
		baseCtx: context.Background(),
	}
}

// openDocument decodes a new document and starts rendering it. A decode
// failure leaves the current session untouched.
func (c *Coordinator) openDocument(ctx context.Context, name string, data []byte) (Outcome, error) {
	doc, err := c.engine.Open(ctx, data)
	if err != nil {
		return Outcome{}, fmt.Errorf("open %q: %w", name, err)
	}
	count := doc.PageCount()
	if count < 1 {
		_ = doc.Close()
		return Outcome{}, fmt.Errorf("open %q: document has no pages: %w", name, domain.ErrDecode)
	}

	c.teardown()

	s := c.session
	s.doc = doc
	s.name = name
	s.pages = make([]*PageView, count)
	for i := range s.pages {
		s.pages[i] = &PageView{Number: i + 1}
	}
	s.scrollY = 0

	c.logger.Info("Document opened",
		zap.String("name", name),
		zap.Int("pages", count),
		zap.Uint64("generation", s.generation),
	)
	c.startRender(doc, s.generation, s.scale, count)

	summary := c.summary()
	return Outcome{Session: &summary}, nil
}

// closeDocument reverts to the empty state.
func (c *Coordinator) closeDocument() Outcome {
	c.teardown()
	c.store.Reset()
	c.logger.Info("Document closed")
	summary := c.summary()
	return Outcome{Session: &summary}
}

// teardown cancels in-flight rendering and drops every trace of the current
// document. The generation bump makes late render results stale.
func (c *Coordinator) teardown() {
	if c.cancelRender != nil {
		c.cancelRender()
		c.cancelRender = nil
	}
	c.renderDone = nil

	s := c.session
	if s.doc != nil {
		if err := s.doc.Close(); err != nil {
			c.logger.Warn("Failed to close document", zap.Error(err))
		}
	}
	s.doc = nil
	s.name = ""
	s.pages = nil
	s.pending = nil
	s.generation++
	c.index.Reset()
}

// captureSelection turns a selection into a pending capture. Selections that
// do not resolve to one text layer are dropped silently.
func (c *Coordinator) captureSelection(sel geometry.Selection) (Outcome, error) {
	s := c.session
	if s.doc == nil {
		return Outcome{}, domain.ErrNoDocument
	}
	if !s.highlightMode {
		return Outcome{}, nil
	}

	// a new capture discards any unresolved one
	c.discardPending()

	anchorPage, _, okA := c.layerAt(sel.Anchor)
	focusPage, _, okF := c.layerAt(sel.Focus)
	if !okA || !okF || anchorPage != focusPage {
		c.logger.Debug("Selection rejected",
			zap.Error(domain.ErrSelectionAmbiguous),
			zap.Int("anchor_page", anchorPage),
			zap.Int("focus_page", focusPage),
		)
		return Outcome{SelectionCleared: true}, nil
	}

	rects, text, err := geometry.Capture(sel, c.origin(anchorPage))
	if err != nil {
		c.logger.Debug("Selection rejected", zap.Error(err))
		return Outcome{SelectionCleared: true}, nil
	}

	s.pending = &PendingCapture{
		ID:    c.store.NewID(),
		Page:  anchorPage,
		Text:  text,
		Rects: rects,
		Color: s.color,
	}
	if err := c.repaint(anchorPage); err != nil {
		return Outcome{}, err
	}
	view := c.pendingView()
	return Outcome{Pending: view, SelectionCleared: true}, nil
}

// dragSelection builds the selection covering the text nodes under start and
// end, then captures it. Ends that miss a node or fall on different pages
// produce an empty selection, which capture rejects.
func (c *Coordinator) dragSelection(start, end geometry.Point) (Outcome, error) {
	sel := geometry.Selection{Anchor: start, Focus: end}

	pa, la, okA := c.layerAt(start)
	pb, lb, okB := c.layerAt(end)
	if okA && okB && pa == pb {
		pv, err := c.session.page(pa)
		if err != nil {
			return Outcome{}, err
		}
		from, okF := pv.TextLayer.NodeAt(la)
		to, okT := pv.TextLayer.NodeAt(lb)
		if okF && okT {
			sel.ClientRects = geometry.Project(pv.TextLayer.RangeRects(from, to), c.origin(pa))
			sel.Text = pv.TextLayer.Text(from, to)
		}
	}
	return c.captureSelection(sel)
}

// confirmLabel commits the pending capture. An empty label cancels it.
func (c *Coordinator) confirmLabel(label, labelID, color string) (Outcome, error) {
	p := c.session.pending
	if p == nil {
		return Outcome{}, domain.ErrNoPendingCapture
	}
	if strings.TrimSpace(label) == "" {
		c.discardPending()
		return Outcome{Cancelled: true}, nil
	}
	if color == "" {
		color = p.Color
	}

	a, err := domann.New(p.ID, domann.Draft{
		PageNumber: p.Page,
		Text:       p.Text,
		Label:      label,
		LabelID:    labelID,
		Color:      color,
		Rects:      p.Rects,
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidColor) {
			return Outcome{}, err
		}
		c.discardPending()
		return Outcome{}, err
	}

	c.session.pending = nil
	if err := c.store.Add(a); err != nil {
		_ = c.repaint(p.Page)
		return Outcome{}, err
	}
	if err := c.repaint(p.Page); err != nil {
		return Outcome{}, err
	}
	return Outcome{AnnotationID: a.ID()}, nil
}

// cancelCapture discards the pending capture, if any.
func (c *Coordinator) cancelCapture() Outcome {
	if c.session.pending == nil {
		return Outcome{}
	}
	c.discardPending()
	return Outcome{Cancelled: true}
}

func (c *Coordinator) discardPending() {
	p := c.session.pending
	if p == nil {
		return
	}
	c.session.pending = nil
	if err := c.repaint(p.Page); err != nil {
		c.logger.Warn("Failed to clear pending highlight", zap.Int("page", p.Page), zap.Error(err))
	}
}

// click handles a pointer click. While a capture is pending, a click outside
// the chooser cancels it. Otherwise in highlight mode the click deletes the
// annotation under the pointer.
func (c *Coordinator) click(ev PointerClicked) (Outcome, error) {
	s := c.session
	if s.doc == nil {
		return Outcome{}, domain.ErrNoDocument
	}
	if p := s.pending; p != nil {
		if c.chooser(p).ContainsPoint(ev.ClientPoint, 0) {
			return Outcome{}, nil
		}
		c.discardPending()
		return Outcome{Cancelled: true}, nil
	}
	if !s.highlightMode {
		return Outcome{}, nil
	}

	id, ok := c.resolve(ev)
	if !ok {
		return Outcome{}, nil
	}
	a, found := c.store.Get(id)
	if !found || !c.store.RemoveByID(id) {
		return Outcome{}, nil
	}
	if err := c.repaint(a.PageNumber()); err != nil {
		return Outcome{}, err
	}
	c.logger.Debug("Annotation deleted", zap.String("id", id), zap.Int("page", a.PageNumber()))
	return Outcome{AnnotationID: id, Removed: true}, nil
}

func (c *Coordinator) resolve(ev PointerClicked) (string, bool) {
	if ev.ShapeID != "" {
		return c.hits.ResolveShape(ev.ShapeID)
	}
	n, local, ok := c.layerAt(ev.ClientPoint)
	if !ok {
		return "", false
	}
	if ev.FragmentRect != nil {
		o := c.origin(n)
		return c.hits.ResolveFragment(n, ev.FragmentRect.Translate(-o.X, -o.Y))
	}
	return c.hits.ResolvePoint(n, local)
}

func (c *Coordinator) setHighlightMode(on bool) Outcome {
	c.session.highlightMode = on
	if !on {
		c.discardPending()
	}
	summary := c.summary()
	return Outcome{Session: &summary}
}

func (c *Coordinator) selectColor(value string) (Outcome, error) {
	color, err := domann.NormalizeColor(value)
	if err != nil {
		return Outcome{}, err
	}
	c.session.color = color
	summary := c.summary()
	return Outcome{Session: &summary}, nil
}

func (c *Coordinator) scroll(y float64) Outcome {
	c.session.scrollY = math.Max(0, y)
	out := Outcome{Pending: c.pendingView()}
	return out
}

// importDrafts replaces the store and repaints every page with a text layer.
// Rectangles are drawn as stored: a file captured at another scale is loaded
// anyway and flagged.
func (c *Coordinator) importDrafts(ev ImportRequested) (Outcome, error) {
	c.session.pending = nil
	drafts := make([]domann.Draft, len(ev.Drafts))
	for i, d := range ev.Drafts {
		if strings.TrimSpace(d.Color) == "" {
			d.Color = c.cfg.DefaultColor
		}
		drafts[i] = d
	}
	res := c.store.ReplaceAll(drafts)
	c.index.Reset()

	result := &ImportResult{Loaded: res.Loaded, Dropped: res.Dropped}
	if ev.Scale > 0 && math.Abs(ev.Scale-c.session.scale) > 1e-9 {
		result.ScaleMismatch = true
		c.logger.Warn("Imported annotations were captured at a different scale",
			zap.Float64("file_scale", ev.Scale),
			zap.Float64("session_scale", c.session.scale),
		)
	}

	for _, pv := range c.session.pages {
		if !pv.ready() {
			continue
		}
		if err := c.repaint(pv.Number); err != nil {
			return Outcome{}, err
		}
	}
	c.logger.Info("Annotations imported",
		zap.String("document_name", ev.DocumentName),
		zap.Int("loaded", res.Loaded),
		zap.Int("dropped", res.Dropped),
	)
	return Outcome{Import: result}, nil
}

// repaint clears every highlight and label drawn on page n and redraws them
// from the store plus the pending capture. Repainting twice yields the same
// shapes. Pages without a text layer are skipped; they paint when mounted.
func (c *Coordinator) repaint(n int) error {
	pv, err := c.session.page(n)
	if err != nil {
		return err
	}
	if !pv.ready() {
		return nil
	}
	if err := pv.advance(page.AnnotationsApplied); err != nil {
		return err
	}

	pv.Shapes = nil
	pv.Labels = nil
	c.index.ClearPage(n)

	for _, a := range c.store.FilterByPage(n) {
		for i, r := range a.Rects() {
			id := shapeID(a.ID(), i)
			pv.Shapes = append(pv.Shapes, DrawnShape{ID: id, AnnotationID: a.ID(), Rect: r, Color: a.Color()})
			c.index.Register(id, a.ID(), n)
		}
		if a.Label() == "" {
			continue
		}
		first := a.FirstRect()
		pv.Labels = append(pv.Labels, DrawnLabel{
			AnnotationID: a.ID(),
			Text:         a.Label(),
			Color:        a.Color(),
			At:           geometry.Point{X: first.Left, Y: first.Top - c.cfg.LabelOffset},
		})
	}

	if p := c.session.pending; p != nil && p.Page == n {
		for i, r := range p.Rects {
			pv.Shapes = append(pv.Shapes, DrawnShape{ID: "pending:" + shapeID(p.ID, i), Rect: r, Color: p.Color, Temp: true})
		}
	}
	return nil
}

func shapeID(annotationID string, i int) string {
	return fmt.Sprintf("%s#%d", annotationID, i)
}

// shutdown releases the document when the dispatcher stops.
func (c *Coordinator) shutdown() {
	if c.cancelRender != nil {
		c.cancelRender()
	}
	if c.session.doc != nil {
		_ = c.session.doc.Close()
		c.session.doc = nil
	}
}

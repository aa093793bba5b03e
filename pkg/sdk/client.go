package annotator

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	domann "github.com/kailas-cloud/annotator/internal/domain/annotation"
	"github.com/kailas-cloud/annotator/internal/pdfengine"
	"github.com/kailas-cloud/annotator/internal/textlayer"
	annotationuc "github.com/kailas-cloud/annotator/internal/usecase/annotation"
	healthuc "github.com/kailas-cloud/annotator/internal/usecase/health"
	"github.com/kailas-cloud/annotator/internal/usecase/hittest"
	"github.com/kailas-cloud/annotator/internal/usecase/persistence"
	"github.com/kailas-cloud/annotator/internal/usecase/render"
)

// Internal interfaces, swapped in tests.
type engineUseCase interface {
	Dispatch(ctx context.Context, ev render.Event) (render.Outcome, error)
	WaitRendered(ctx context.Context) error
	Preview(ctx context.Context, page, width int) ([]byte, error)
}

type annotationReader interface {
	All() []domann.Annotation
	FilterByPage(page int) []domann.Annotation
}

type codecUseCase interface {
	Export(meta persistence.Meta, anns []domann.Annotation) ([]byte, error)
	Import(data []byte) (*persistence.Imported, error)
}

// Client is the annotator SDK entry point.
type Client struct {
	engine    engineUseCase
	store     annotationReader
	codec     codecUseCase
	healthSvc healthUseCase
	obs       *observer

	stop func()
}

// New creates a Client and starts its session loop. Close releases it.
func New(opts ...Option) (*Client, error) {
	cfg := defaultConfig()
	for _, o := range opts {
		o.apply(cfg)
	}
	if _, err := domann.NormalizeColor(cfg.engine.DefaultColor); err != nil {
		return nil, fmt.Errorf("annotator: default color: %w", err)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	pdf := cfg.pdf
	if pdf == nil {
		pdf = pdfengine.New(cfg.maxDocumentBytes, nil).Renderer()
	}

	logger := zap.NewNop()
	store := annotationuc.New(logger)
	index := hittest.NewIndex()
	hits := hittest.New(store, index, cfg.engine.HitTolerance)
	coord := render.NewCoordinator(cfg.engine, pdf, textlayer.NewBuilder(), store, hits, index, logger)
	dispatcher := render.NewDispatcher(coord)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = dispatcher.Run(ctx)
	}()

	return &Client{
		engine:    dispatcher,
		store:     store,
		codec:     persistence.New(logger),
		healthSvc: healthuc.New(nil, dispatcher),
		obs:       obs,
		stop: func() {
			cancel()
			<-done
		},
	}, nil
}

// Close stops the session loop and closes the open document.
func (c *Client) Close() {
	if c.stop != nil {
		c.stop()
	}
}

// Open loads a PDF, replacing the current document. Rendering continues in
// the background; use WaitRendered to block until every page is ready.
func (c *Client) Open(ctx context.Context, name string, data []byte) (s *Session, err error) {
	start := time.Now()
	defer func() { c.obs.observe("open", start, err) }()

	if _, err = c.engine.Dispatch(ctx, render.FileOpened{Name: name, Data: data}); err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	return c.Session(ctx)
}

// WaitRendered blocks until the current document finished rendering.
func (c *Client) WaitRendered(ctx context.Context) error {
	if err := c.engine.WaitRendered(ctx); err != nil {
		return fmt.Errorf("wait rendered: %w", err)
	}
	return nil
}

// CloseDocument drops the document and every annotation.
func (c *Client) CloseDocument(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("close_document", start, err) }()

	if _, err = c.engine.Dispatch(ctx, render.DocumentClosed{}); err != nil {
		return fmt.Errorf("close document: %w", err)
	}
	c.obs.annotations(0)
	return nil
}

// Session returns the current session summary.
func (c *Client) Session(ctx context.Context) (*Session, error) {
	out, err := c.engine.Dispatch(ctx, render.SessionQueried{})
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}
	return out.Session, nil
}

// SetHighlightMode enables or disables capture and deletion.
func (c *Client) SetHighlightMode(ctx context.Context, on bool) error {
	if _, err := c.engine.Dispatch(ctx, render.HighlightModeToggled{On: on}); err != nil {
		return fmt.Errorf("highlight mode: %w", err)
	}
	return nil
}

// SelectColor sets the color of new highlights.
func (c *Client) SelectColor(ctx context.Context, color string) error {
	if _, err := c.engine.Dispatch(ctx, render.ColorSelected{Color: color}); err != nil {
		return fmt.Errorf("select color: %w", err)
	}
	return nil
}

// Scroll moves the viewer and returns the repositioned pending capture, if any.
func (c *Client) Scroll(ctx context.Context, y float64) (*Pending, error) {
	out, err := c.engine.Dispatch(ctx, render.Scrolled{Y: y})
	if err != nil {
		return nil, fmt.Errorf("scroll: %w", err)
	}
	return out.Pending, nil
}

// Capture turns a selection into a pending capture. It returns nil when the
// selection was rejected or highlight mode is off.
func (c *Client) Capture(ctx context.Context, sel Selection) (p *Pending, err error) {
	start := time.Now()
	defer func() { c.obs.observe("capture", start, err) }()

	out, err := c.engine.Dispatch(ctx, render.SelectionCaptured{Selection: sel})
	if err != nil {
		return nil, fmt.Errorf("capture: %w", err)
	}
	return out.Pending, nil
}

// CaptureDrag selects the text between two client points, as a pointer drag
// would, and turns it into a pending capture. It returns nil when either end
// misses the text or the ends lie on different pages.
func (c *Client) CaptureDrag(ctx context.Context, from, to Point) (p *Pending, err error) {
	start := time.Now()
	defer func() { c.obs.observe("capture_drag", start, err) }()

	out, err := c.engine.Dispatch(ctx, render.TextDragged{Start: from, End: to})
	if err != nil {
		return nil, fmt.Errorf("capture drag: %w", err)
	}
	return out.Pending, nil
}

// Confirm stores the pending capture under label and returns its id.
// An empty label cancels the capture and returns "".
func (c *Client) Confirm(ctx context.Context, label, labelID string) (id string, err error) {
	start := time.Now()
	defer func() { c.obs.observe("confirm", start, err) }()

	out, err := c.engine.Dispatch(ctx, render.LabelConfirmed{Label: label, LabelID: labelID})
	if err != nil {
		return "", fmt.Errorf("confirm: %w", err)
	}
	c.obs.annotations(len(c.store.All()))
	return out.AnnotationID, nil
}

// Cancel discards the pending capture.
func (c *Client) Cancel(ctx context.Context) error {
	if _, err := c.engine.Dispatch(ctx, render.CaptureCancelled{}); err != nil {
		return fmt.Errorf("cancel: %w", err)
	}
	return nil
}

// Click delivers a pointer click at a client point.
func (c *Client) Click(ctx context.Context, p Point) (res Click, err error) {
	start := time.Now()
	defer func() { c.obs.observe("click", start, err) }()

	out, err := c.engine.Dispatch(ctx, render.PointerClicked{ClientPoint: p})
	if err != nil {
		return Click{}, fmt.Errorf("click: %w", err)
	}
	if out.Removed {
		res.RemovedID = out.AnnotationID
		c.obs.annotations(len(c.store.All()))
	}
	res.Cancelled = out.Cancelled
	return res, nil
}

// Page returns the shapes and labels drawn on page n.
func (c *Client) Page(ctx context.Context, n int) (*Page, error) {
	out, err := c.engine.Dispatch(ctx, render.PageQueried{Page: n})
	if err != nil {
		return nil, fmt.Errorf("page %d: %w", n, err)
	}
	return out.Page, nil
}

// Preview returns a PNG of page n with its highlights, width pixels wide.
// A zero width keeps the rendered size.
func (c *Client) Preview(ctx context.Context, n, width int) ([]byte, error) {
	img, err := c.engine.Preview(ctx, n, width)
	if err != nil {
		return nil, fmt.Errorf("preview %d: %w", n, err)
	}
	return img, nil
}

// Annotations lists stored annotations in insertion order. Page 0 lists all.
func (c *Client) Annotations(page int) []Annotation {
	var anns []domann.Annotation
	if page > 0 {
		anns = c.store.FilterByPage(page)
	} else {
		anns = c.store.All()
	}
	out := make([]Annotation, len(anns))
	for i, a := range anns {
		out[i] = annotationFromDomain(a)
	}
	return out
}

// Export serializes every annotation. It returns the suggested file name.
func (c *Client) Export(ctx context.Context) (name string, data []byte, err error) {
	start := time.Now()
	defer func() { c.obs.observe("export", start, err) }()

	s, err := c.Session(ctx)
	if err != nil {
		return "", nil, err
	}
	data, err = c.codec.Export(persistence.Meta{DocumentName: s.DocumentName, Scale: s.Scale}, c.store.All())
	if err != nil {
		return "", nil, fmt.Errorf("export: %w", err)
	}
	return persistence.FileName(s.DocumentName), data, nil
}

// Import replaces every annotation with the records of an annotations file.
func (c *Client) Import(ctx context.Context, data []byte) (res *ImportResult, err error) {
	start := time.Now()
	defer func() { c.obs.observe("import", start, err) }()

	file, err := c.codec.Import(data)
	if err != nil {
		return nil, fmt.Errorf("import: %w", err)
	}
	out, err := c.engine.Dispatch(ctx, render.ImportRequested{
		DocumentName: file.DocumentName,
		Scale:        file.Scale,
		Drafts:       file.Drafts,
	})
	if err != nil {
		return nil, fmt.Errorf("import: %w", err)
	}
	c.obs.annotations(len(c.store.All()))
	return out.Import, nil
}

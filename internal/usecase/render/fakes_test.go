package render

import (
	"context"
	"fmt"
	"image/draw"
	"sync/atomic"
	"testing"

	"github.com/kailas-cloud/annotator/internal/domain"
	"github.com/kailas-cloud/annotator/internal/domain/page"
	"github.com/kailas-cloud/annotator/internal/textlayer"
	"github.com/kailas-cloud/annotator/internal/usecase/annotation"
	"github.com/kailas-cloud/annotator/internal/usecase/hittest"
)

type fakePage struct {
	n     int
	w, h  float64
	runs  []page.TextRun
	block bool
}

func (p *fakePage) Number() int { return p.n }

func (p *fakePage) Viewport(scale float64) page.Viewport {
	return page.Viewport{Width: p.w * scale, Height: p.h * scale, Scale: scale}
}

func (p *fakePage) RenderRaster(ctx context.Context, _ float64, _ draw.Image) error {
	if p.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return nil
}

func (p *fakePage) TextRuns(context.Context) ([]page.TextRun, error) { return p.runs, nil }

type fakeDoc struct {
	pages  []*fakePage
	closed atomic.Bool
}

func (d *fakeDoc) PageCount() int { return len(d.pages) }

func (d *fakeDoc) Page(_ context.Context, n int) (Page, error) {
	if n < 1 || n > len(d.pages) {
		return nil, domain.ErrPageOutOfRange
	}
	return d.pages[n-1], nil
}

func (d *fakeDoc) Close() error {
	d.closed.Store(true)
	return nil
}

type fakeEngine struct {
	docs map[string]*fakeDoc
}

func (e *fakeEngine) Open(_ context.Context, data []byte) (Document, error) {
	d, ok := e.docs[string(data)]
	if !ok {
		return nil, fmt.Errorf("unknown bytes: %w", domain.ErrDecode)
	}
	return d, nil
}

// twoPageDoc: 400x100 pages, one line of text each, a 10pt run at x=10 with
// its baseline at y=80, so at scale 1 the text box is {10, 12, 100, 10}.
func twoPageDoc() *fakeDoc {
	return &fakeDoc{pages: []*fakePage{
		{n: 1, w: 400, h: 100, runs: []page.TextRun{{Text: "Hello world", X: 10, Y: 80, Width: 100, FontSize: 10}}},
		{n: 2, w: 400, h: 100, runs: []page.TextRun{{Text: "Second page", X: 10, Y: 80, Width: 100, FontSize: 10}}},
	}}
}

// threeLineDoc: one 400x100 page with three 10pt lines whose boxes at
// scale 1 have tops 12, 32 and 52.
func threeLineDoc() *fakeDoc {
	return &fakeDoc{pages: []*fakePage{
		{n: 1, w: 400, h: 100, runs: []page.TextRun{
			{Text: "First line", X: 10, Y: 80, Width: 100, FontSize: 10},
			{Text: "Second line", X: 10, Y: 60, Width: 100, FontSize: 10},
			{Text: "Third line", X: 10, Y: 40, Width: 100, FontSize: 10},
		}},
	}}
}

func testConfig() domain.EngineConfig {
	cfg := domain.DefaultEngineConfig()
	cfg.Scale = 1
	return cfg
}

type fixture struct {
	engine *fakeEngine
	store  *annotation.Store
	coord  *Coordinator
}

func newFixture(docs map[string]*fakeDoc) *fixture {
	engine := &fakeEngine{docs: docs}
	store := annotation.New(nil)
	idx := hittest.NewIndex()
	tester := hittest.New(store, idx, 1)
	coord := NewCoordinator(testConfig(), engine, textlayer.NewBuilder(), store, tester, idx, nil)
	return &fixture{engine: engine, store: store, coord: coord}
}

// startDispatcher runs the writer loop for the duration of the test.
func (f *fixture) startDispatcher(t *testing.T) *Dispatcher {
	t.Helper()
	d := NewDispatcher(f.coord)
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		_ = d.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-stopped
	})
	return d
}

// openSync opens a document on the coordinator without a dispatcher and waits
// for the render worker, after which the test goroutine owns the session.
func (f *fixture) openSync(t *testing.T, name, key string) {
	t.Helper()
	if _, err := f.coord.openDocument(context.Background(), name, []byte(key)); err != nil {
		t.Fatalf("openDocument: %v", err)
	}
	<-f.coord.renderDone
}

package annotator

import (
	"context"
	"fmt"
	"image/draw"

	"github.com/kailas-cloud/annotator/internal/domain"
	"github.com/kailas-cloud/annotator/internal/domain/page"
	"github.com/kailas-cloud/annotator/internal/usecase/render"
)

// --- PDF engine fakes ---

type fakePage struct {
	n    int
	runs []page.TextRun
}

func (p *fakePage) Number() int { return p.n }

func (p *fakePage) Viewport(scale float64) page.Viewport {
	return page.Viewport{Width: 400 * scale, Height: 100 * scale, Scale: scale}
}

func (p *fakePage) RenderRaster(context.Context, float64, draw.Image) error { return nil }

func (p *fakePage) TextRuns(context.Context) ([]page.TextRun, error) { return p.runs, nil }

type fakeDoc struct {
	pages []*fakePage
}

func (d *fakeDoc) PageCount() int { return len(d.pages) }

func (d *fakeDoc) Page(_ context.Context, n int) (render.Page, error) {
	if n < 1 || n > len(d.pages) {
		return nil, domain.ErrPageOutOfRange
	}
	return d.pages[n-1], nil
}

func (d *fakeDoc) Close() error { return nil }

// fakePDF decodes the bytes "doc" into two 400x100 pages, each with one
// line of text whose box at scale 1 is {10, 12, 100, 10}.
type fakePDF struct{}

func (fakePDF) Open(_ context.Context, data []byte) (render.Document, error) {
	if string(data) != "doc" {
		return nil, fmt.Errorf("not a pdf: %w", domain.ErrDecode)
	}
	return &fakeDoc{pages: []*fakePage{
		{n: 1, runs: []page.TextRun{{Text: "Hello world", X: 10, Y: 80, Width: 100, FontSize: 10}}},
		{n: 2, runs: []page.TextRun{{Text: "Second page", X: 10, Y: 80, Width: 100, FontSize: 10}}},
	}}, nil
}

// Package pdfengine adapts pdfcpu (structure, validation, page boxes) and
// ledongthuc/pdf (text extraction) into the render engine contract.
package pdfengine

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"

	lpdf "github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"go.uber.org/zap"

	"github.com/kailas-cloud/annotator/internal/domain"
	"github.com/kailas-cloud/annotator/internal/domain/page"
	"github.com/kailas-cloud/annotator/internal/textlayer"
)

// US Letter, used when a page carries no usable MediaBox.
const (
	defaultWidth  = 612.0
	defaultHeight = 792.0
)

var disableConfigOnce sync.Once

// Engine opens PDF documents.
type Engine struct {
	maxBytes int64
	logger   *zap.Logger
}

// New creates an engine. maxBytes <= 0 disables the size limit.
func New(maxBytes int64, logger *zap.Logger) *Engine {
	disableConfigOnce.Do(api.DisableConfigDir)
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{maxBytes: maxBytes, logger: logger}
}

// Open decodes and validates a PDF. Any failure is reported as domain.ErrDecode.
func (e *Engine) Open(ctx context.Context, data []byte) (*Document, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty input: %w", domain.ErrDecode)
	}
	if e.maxBytes > 0 && int64(len(data)) > e.maxBytes {
		return nil, fmt.Errorf("document exceeds %d bytes: %w", e.maxBytes, domain.ErrDecode)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	pctx, err := readContext(data, conf)
	if err != nil {
		return nil, fmt.Errorf("read structure: %v: %w", err, domain.ErrDecode)
	}
	if err := api.ValidateContext(pctx); err != nil {
		return nil, fmt.Errorf("validate: %v: %w", err, domain.ErrDecode)
	}

	reader, err := lpdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open text reader: %v: %w", err, domain.ErrDecode)
	}

	e.logger.Debug("PDF decoded",
		zap.Int("pages", pctx.PageCount),
		zap.Int("bytes", len(data)),
	)
	return &Document{ctx: pctx, reader: reader}, nil
}

// readContext guards against parser panics on hostile input.
func readContext(data []byte, conf *model.Configuration) (pctx *model.Context, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parser panic: %v", r)
		}
	}()
	return api.ReadContext(bytes.NewReader(data), conf)
}

// Document is an opened PDF. Not safe for concurrent page access; the
// render worker walks pages sequentially and the mutex enforces it.
type Document struct {
	mu     sync.Mutex
	ctx    *model.Context
	reader *lpdf.Reader
}

// PageCount returns the number of pages, 0 once closed.
func (d *Document) PageCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ctx == nil {
		return 0
	}
	return d.ctx.PageCount
}

// Page returns page n (1-based). A closed document yields ErrNoDocument.
func (d *Document) Page(_ context.Context, n int) (*Page, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.ctx == nil {
		return nil, fmt.Errorf("page %d: document closed: %w", n, domain.ErrNoDocument)
	}
	if n < 1 || n > d.ctx.PageCount {
		return nil, fmt.Errorf("page %d of %d: %w", n, d.ctx.PageCount, domain.ErrPageOutOfRange)
	}

	width, height := defaultWidth, defaultHeight
	_, _, attrs, err := d.ctx.PageDict(n, false)
	if err != nil {
		return nil, fmt.Errorf("page %d dict: %v: %w", n, err, domain.ErrDecode)
	}
	if attrs != nil && attrs.MediaBox != nil && attrs.MediaBox.Width() > 0 && attrs.MediaBox.Height() > 0 {
		width = attrs.MediaBox.Width()
		height = attrs.MediaBox.Height()
	}

	return &Page{doc: d, number: n, width: width, height: height}, nil
}

// Close releases the document.
func (d *Document) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ctx = nil
	d.reader = nil
	return nil
}

// Page is one page of an opened document.
type Page struct {
	doc    *Document
	number int
	width  float64
	height float64
}

// Number returns the 1-based page number.
func (p *Page) Number() int { return p.number }

// Viewport returns the page size in pixels at scale.
func (p *Page) Viewport(scale float64) page.Viewport {
	return page.Viewport{Width: p.width * scale, Height: p.height * scale, Scale: scale}
}

// TextRuns extracts positioned text runs in PDF user space.
func (p *Page) TextRuns(ctx context.Context) (runs []page.TextRun, err error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("text runs: %w", err)
	}

	p.doc.mu.Lock()
	defer p.doc.mu.Unlock()
	if p.doc.reader == nil {
		return nil, fmt.Errorf("document closed: %w", domain.ErrNoDocument)
	}

	defer func() {
		if r := recover(); r != nil {
			runs, err = nil, fmt.Errorf("page %d content: %v: %w", p.number, r, domain.ErrDecode)
		}
	}()

	lp := p.doc.reader.Page(p.number)
	if lp.V.IsNull() {
		return nil, nil
	}
	content := lp.Content()
	runs = make([]page.TextRun, 0, len(content.Text))
	for _, t := range content.Text {
		runs = append(runs, page.TextRun{
			Text:     t.S,
			X:        t.X,
			Y:        t.Y,
			Width:    t.W,
			FontSize: t.FontSize,
		})
	}
	return runs, nil
}

var (
	paper   = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	glyphBg = color.RGBA{R: 225, G: 225, B: 225, A: 255}
)

// RenderRaster paints a proof raster of the page onto dst: white paper with
// the text runs blocked in, sized to the viewport at scale.
func (p *Page) RenderRaster(ctx context.Context, scale float64, dst draw.Image) error {
	draw.Draw(dst, dst.Bounds(), image.NewUniform(paper), image.Point{}, draw.Src)

	runs, err := p.TextRuns(ctx)
	if err != nil {
		return err
	}
	layer, err := textlayer.NewBuilder().Build(ctx, p.number, runs, p.Viewport(scale))
	if err != nil {
		return fmt.Errorf("raster text boxes: %w", err)
	}
	for _, n := range layer.Nodes {
		r := image.Rect(
			int(n.Rect.Left), int(n.Rect.Top),
			int(n.Rect.Right()), int(n.Rect.Bottom()),
		).Intersect(dst.Bounds())
		draw.Draw(dst, r, image.NewUniform(glyphBg), image.Point{}, draw.Src)
	}
	return nil
}

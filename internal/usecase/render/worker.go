package render

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/annotator/internal/domain"
	"github.com/kailas-cloud/annotator/internal/domain/page"
	"github.com/kailas-cloud/annotator/internal/metrics"
	"github.com/kailas-cloud/annotator/internal/textlayer"
)

var errStale = errors.New("render result is stale")

type pageResult struct {
	number   int
	viewport page.Viewport
	surface  *image.RGBA
	layer    *textlayer.Layer
}

// startRender launches the background worker for a freshly opened document.
func (c *Coordinator) startRender(doc Document, gen uint64, scale float64, count int) {
	ctx, cancel := context.WithCancel(c.baseCtx)
	done := make(chan struct{})
	c.cancelRender = cancel
	c.renderDone = done

	go func() {
		defer close(done)
		c.renderAll(ctx, doc, gen, scale, count)
	}()
}

// renderAll walks pages in increasing order. Each page is decoded, rasterized
// and given a text layer off the dispatcher goroutine; the result is then
// applied on the dispatcher and awaited before the next page starts.
func (c *Coordinator) renderAll(ctx context.Context, doc Document, gen uint64, scale float64, count int) {
	started := time.Now()
	for n := 1; n <= count; n++ {
		if ctx.Err() != nil {
			return
		}
		res, err := c.preparePage(ctx, doc, n, scale)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, domain.ErrNoDocument) {
				return
			}
			c.logger.Warn("Page render failed", zap.Int("page", n), zap.Error(err))
			continue
		}

		err = c.run(ctx, func() error { return c.applyPage(gen, res) })
		switch {
		case errors.Is(err, errStale), ctx.Err() != nil:
			return
		case err != nil:
			c.logger.Warn("Page apply failed", zap.Int("page", n), zap.Error(err))
		}
	}
	c.logger.Debug("Document rendered",
		zap.Int("pages", count),
		zap.Duration("took", time.Since(started)),
	)
}

func (c *Coordinator) preparePage(ctx context.Context, doc Document, n int, scale float64) (pageResult, error) {
	p, err := doc.Page(ctx, n)
	if err != nil {
		return pageResult{}, fmt.Errorf("get page: %w", err)
	}
	vp := p.Viewport(scale)

	start := time.Now()
	surface := image.NewRGBA(image.Rect(0, 0, int(math.Ceil(vp.Width)), int(math.Ceil(vp.Height))))
	if err := p.RenderRaster(ctx, scale, surface); err != nil {
		return pageResult{}, fmt.Errorf("raster: %w", err)
	}
	metrics.PageRenderDuration.WithLabelValues("raster").Observe(time.Since(start).Seconds())

	start = time.Now()
	runs, err := p.TextRuns(ctx)
	if err != nil {
		return pageResult{}, fmt.Errorf("text runs: %w", err)
	}
	layer, err := c.builder.Build(ctx, n, runs, vp)
	if err != nil {
		return pageResult{}, fmt.Errorf("text layer: %w", err)
	}
	metrics.PageRenderDuration.WithLabelValues("text_layer").Observe(time.Since(start).Seconds())

	return pageResult{number: n, viewport: vp, surface: surface, layer: layer}, nil
}

// applyPage mounts a rendered page and paints its annotations. Results from a
// previous document generation are dropped.
func (c *Coordinator) applyPage(gen uint64, res pageResult) error {
	if gen != c.session.generation {
		metrics.RenderStaleTotal.Inc()
		c.logger.Debug("Dropping stale page render",
			zap.Int("page", res.number),
			zap.Uint64("generation", gen),
			zap.Uint64("current", c.session.generation),
		)
		return errStale
	}
	pv, err := c.session.page(res.number)
	if err != nil {
		return err
	}

	start := time.Now()
	if err := pv.advance(page.RasterDrawn); err != nil {
		return err
	}
	pv.Viewport = res.viewport
	pv.Surface = res.surface

	if err := pv.advance(page.TextLayerReady); err != nil {
		return err
	}
	pv.TextLayer = res.layer

	if err := c.repaint(res.number); err != nil {
		return err
	}
	metrics.PageRenderDuration.WithLabelValues("annotations").Observe(time.Since(start).Seconds())
	return nil
}

// run executes fn on the dispatcher goroutine when one is attached.
func (c *Coordinator) run(ctx context.Context, fn func() error) error {
	if c.exec == nil {
		return fn()
	}
	return c.exec(ctx, fn)
}

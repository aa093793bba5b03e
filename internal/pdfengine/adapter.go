package pdfengine

import (
	"context"

	"github.com/kailas-cloud/annotator/internal/usecase/render"
)

// Renderer exposes the engine through the render contract.
func (e *Engine) Renderer() render.Engine {
	return rendererEngine{e}
}

type rendererEngine struct{ e *Engine }

func (r rendererEngine) Open(ctx context.Context, data []byte) (render.Document, error) {
	d, err := r.e.Open(ctx, data)
	if err != nil {
		return nil, err
	}
	return rendererDocument{d}, nil
}

type rendererDocument struct{ *Document }

func (d rendererDocument) Page(ctx context.Context, n int) (render.Page, error) {
	p, err := d.Document.Page(ctx, n)
	if err != nil {
		return nil, err
	}
	return p, nil
}

package render

import (
	"context"
	"image/draw"

	domann "github.com/kailas-cloud/annotator/internal/domain/annotation"
	"github.com/kailas-cloud/annotator/internal/domain/geometry"
	"github.com/kailas-cloud/annotator/internal/domain/page"
	"github.com/kailas-cloud/annotator/internal/textlayer"
	"github.com/kailas-cloud/annotator/internal/usecase/annotation"
)

// Engine decodes PDF documents.
type Engine interface {
	Open(ctx context.Context, data []byte) (Document, error)
}

// Document is an opened PDF.
type Document interface {
	PageCount() int
	Page(ctx context.Context, n int) (Page, error)
	Close() error
}

// Page is one page of an opened document.
type Page interface {
	Number() int
	Viewport(scale float64) page.Viewport
	RenderRaster(ctx context.Context, scale float64, dst draw.Image) error
	TextRuns(ctx context.Context) ([]page.TextRun, error)
}

// TextLayerBuilder positions extracted text runs over a rendered page.
type TextLayerBuilder interface {
	Build(ctx context.Context, pageNum int, runs []page.TextRun, vp page.Viewport) (*textlayer.Layer, error)
}

// AnnotationStore is the annotation source of truth.
type AnnotationStore interface {
	NewID() string
	Add(a domann.Annotation) error
	Get(id string) (domann.Annotation, bool)
	RemoveByID(id string) bool
	FilterByPage(page int) []domann.Annotation
	ReplaceAll(drafts []domann.Draft) annotation.ReplaceResult
	Reset()
}

// HitResolver maps pointer targets to annotation ids.
type HitResolver interface {
	ResolveShape(shapeID string) (string, bool)
	ResolveFragment(page int, fragment geometry.Rect) (string, bool)
	ResolvePoint(page int, p geometry.Point) (string, bool)
}

// ShapeIndex records which annotation owns each drawn shape.
type ShapeIndex interface {
	Register(shapeID, annotationID string, page int)
	ClearPage(page int)
	Reset()
}

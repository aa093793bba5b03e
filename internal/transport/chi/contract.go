package chi

import (
	"context"

	domann "github.com/kailas-cloud/annotator/internal/domain/annotation"
	domtax "github.com/kailas-cloud/annotator/internal/domain/taxonomy"
	"github.com/kailas-cloud/annotator/internal/usecase/persistence"
	"github.com/kailas-cloud/annotator/internal/usecase/render"
	taxonomyuc "github.com/kailas-cloud/annotator/internal/usecase/taxonomy"
)

// Engine routes interaction events to the session writer.
type Engine interface {
	Dispatch(ctx context.Context, ev render.Event) (render.Outcome, error)
	WaitRendered(ctx context.Context) error
	Preview(ctx context.Context, page, width int) ([]byte, error)
}

// AnnotationReader lists stored annotations.
type AnnotationReader interface {
	All() []domann.Annotation
	FilterByPage(page int) []domann.Annotation
}

// Codec reads and writes annotation files.
type Codec interface {
	Export(meta persistence.Meta, anns []domann.Annotation) ([]byte, error)
	ExportReport(meta persistence.Meta, anns []domann.Annotation) ([]byte, error)
	Import(data []byte) (*persistence.Imported, error)
}

// Taxonomy manages the label and color catalog.
type Taxonomy interface {
	Catalog(ctx context.Context) (taxonomyuc.Catalog, error)
	CreateLabel(ctx context.Context, name string) (domtax.Label, error)
	CreateColor(ctx context.Context, name, value string) (domtax.Color, error)
	DeleteLabel(ctx context.Context, id string) error
	DeleteColor(ctx context.Context, id string) error
}

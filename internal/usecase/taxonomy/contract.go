package taxonomy

import (
	"context"

	domtax "github.com/kailas-cloud/annotator/internal/domain/taxonomy"
)

// Repository defines the storage contract for the label and color catalog.
type Repository interface {
	ListLabels(ctx context.Context) ([]domtax.Label, error)
	ListColors(ctx context.Context) ([]domtax.Color, error)
	CreateLabel(ctx context.Context, name string) (string, error)
	CreateColor(ctx context.Context, name, value string) (string, error)
	DeleteLabel(ctx context.Context, id string) error
	DeleteColor(ctx context.Context, id string) error
	Seed(ctx context.Context, labels []domtax.Label, colors []domtax.Color) error
	Version(ctx context.Context) (int64, error)
}

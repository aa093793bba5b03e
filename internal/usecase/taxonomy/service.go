// Package taxonomy manages the label and color catalog. Store failures are
// reported and rolled back locally; they never touch annotation state.
package taxonomy

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/annotator/internal/domain"
	domtax "github.com/kailas-cloud/annotator/internal/domain/taxonomy"
	"github.com/kailas-cloud/annotator/internal/metrics"
)

// Catalog is a snapshot of labels and colors.
type Catalog struct {
	Labels []domtax.Label
	Colors []domtax.Color
}

// Service caches the catalog and applies changes optimistically.
type Service struct {
	repo   Repository
	logger *zap.Logger

	mu      sync.Mutex
	cache   Catalog
	version int64
	loaded  bool
}

// New creates a taxonomy service.
func New(repo Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, logger: logger}
}

// Catalog returns the labels and colors, reloading them when the store
// version moved. On failure the last known catalog is returned with the error.
func (s *Service) Catalog(ctx context.Context) (Catalog, error) {
	v, err := s.repo.Version(ctx)
	if err != nil {
		return s.snapshot(), s.fail("version", err)
	}

	s.mu.Lock()
	fresh := s.loaded && v == s.version
	s.mu.Unlock()
	if fresh {
		return s.snapshot(), nil
	}

	labels, err := s.repo.ListLabels(ctx)
	if err != nil {
		return s.snapshot(), s.fail("list_labels", err)
	}
	colors, err := s.repo.ListColors(ctx)
	if err != nil {
		return s.snapshot(), s.fail("list_colors", err)
	}

	s.mu.Lock()
	s.cache = Catalog{Labels: labels, Colors: colors}
	s.version = v
	s.loaded = true
	s.mu.Unlock()
	return s.snapshot(), nil
}

// CreateLabel adds a label.
func (s *Service) CreateLabel(ctx context.Context, name string) (domtax.Label, error) {
	l, err := domtax.NewLabel(tempID(), name)
	if err != nil {
		return domtax.Label{}, err
	}

	s.mu.Lock()
	s.cache.Labels = append(s.cache.Labels, l)
	s.mu.Unlock()

	id, err := s.repo.CreateLabel(ctx, l.Name)
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.cache.Labels, func(x domtax.Label) bool { return x.ID == l.ID })
	if err != nil {
		if i >= 0 {
			s.cache.Labels = slices.Delete(s.cache.Labels, i, i+1)
		}
		return domtax.Label{}, s.fail("create_label", err)
	}
	l.ID = id
	if i >= 0 {
		s.cache.Labels[i] = l
	}
	return l, nil
}

// CreateColor adds a color.
func (s *Service) CreateColor(ctx context.Context, name, value string) (domtax.Color, error) {
	c, err := domtax.NewColor(tempID(), name, value)
	if err != nil {
		return domtax.Color{}, err
	}

	s.mu.Lock()
	s.cache.Colors = append(s.cache.Colors, c)
	s.mu.Unlock()

	id, err := s.repo.CreateColor(ctx, c.Name, c.Value)
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.cache.Colors, func(x domtax.Color) bool { return x.ID == c.ID })
	if err != nil {
		if i >= 0 {
			s.cache.Colors = slices.Delete(s.cache.Colors, i, i+1)
		}
		return domtax.Color{}, s.fail("create_color", err)
	}
	c.ID = id
	if i >= 0 {
		s.cache.Colors[i] = c
	}
	return c, nil
}

// DeleteLabel removes a label. The local entry is restored if the store fails.
func (s *Service) DeleteLabel(ctx context.Context, id string) error {
	s.mu.Lock()
	i := slices.IndexFunc(s.cache.Labels, func(x domtax.Label) bool { return x.ID == id })
	var removed domtax.Label
	if i >= 0 {
		removed = s.cache.Labels[i]
		s.cache.Labels = slices.Delete(s.cache.Labels, i, i+1)
	}
	s.mu.Unlock()

	err := s.repo.DeleteLabel(ctx, id)
	if err == nil || errors.Is(err, domain.ErrNotFound) {
		return wrapNotFound("delete label", err)
	}

	if i >= 0 {
		s.mu.Lock()
		s.cache.Labels = slices.Insert(s.cache.Labels, min(i, len(s.cache.Labels)), removed)
		s.mu.Unlock()
	}
	return s.fail("delete_label", err)
}

// DeleteColor removes a color. The local entry is restored if the store fails.
func (s *Service) DeleteColor(ctx context.Context, id string) error {
	s.mu.Lock()
	i := slices.IndexFunc(s.cache.Colors, func(x domtax.Color) bool { return x.ID == id })
	var removed domtax.Color
	if i >= 0 {
		removed = s.cache.Colors[i]
		s.cache.Colors = slices.Delete(s.cache.Colors, i, i+1)
	}
	s.mu.Unlock()

	err := s.repo.DeleteColor(ctx, id)
	if err == nil || errors.Is(err, domain.ErrNotFound) {
		return wrapNotFound("delete color", err)
	}

	if i >= 0 {
		s.mu.Lock()
		s.cache.Colors = slices.Insert(s.cache.Colors, min(i, len(s.cache.Colors)), removed)
		s.mu.Unlock()
	}
	return s.fail("delete_color", err)
}

// SeedIfEmpty writes the default catalog when the store holds no entries.
func (s *Service) SeedIfEmpty(ctx context.Context, labels []string, colors []domtax.Color) error {
	cat, err := s.Catalog(ctx)
	if err != nil {
		return err
	}
	if len(cat.Labels) > 0 || len(cat.Colors) > 0 {
		return nil
	}

	seedLabels := make([]domtax.Label, 0, len(labels))
	for _, name := range labels {
		l, err := domtax.NewLabel("", name)
		if err != nil {
			return fmt.Errorf("seed label: %w", err)
		}
		seedLabels = append(seedLabels, l)
	}
	seedColors := make([]domtax.Color, 0, len(colors))
	for _, c := range colors {
		v, err := domtax.NewColor("", c.Name, c.Value)
		if err != nil {
			return fmt.Errorf("seed color: %w", err)
		}
		seedColors = append(seedColors, v)
	}

	if err := s.repo.Seed(ctx, seedLabels, seedColors); err != nil {
		return s.fail("seed", err)
	}
	s.logger.Info("Taxonomy seeded",
		zap.Int("labels", len(seedLabels)),
		zap.Int("colors", len(seedColors)),
	)
	return nil
}

func (s *Service) snapshot() Catalog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Catalog{
		Labels: slices.Clone(s.cache.Labels),
		Colors: slices.Clone(s.cache.Colors),
	}
}

// fail records a store failure. Validation errors pass through unchanged.
func (s *Service) fail(op string, err error) error {
	if errors.Is(err, domain.ErrInvalidTaxonomy) || errors.Is(err, domain.ErrInvalidColor) {
		return err
	}
	metrics.TaxonomyErrorsTotal.WithLabelValues(op).Inc()
	s.logger.Error("Taxonomy store failure", zap.String("op", op), zap.Error(err))
	return fmt.Errorf("%s: %w: %w", op, domain.ErrRemoteStore, err)
}

func wrapNotFound(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}

func tempID() string {
	return "local-" + uuid.NewString()
}

// Package taxonomy stores the label and color catalog.
package taxonomy

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/kailas-cloud/annotator/internal/db"
	"github.com/kailas-cloud/annotator/internal/domain"
	domtax "github.com/kailas-cloud/annotator/internal/domain/taxonomy"
)

// store is the consumer interface for the catalog (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Del(ctx context.Context, key string) (bool, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
	GetInt(ctx context.Context, key string) (int64, error)
	IncrBy(ctx context.Context, key string, val int64) (int64, error)
}

// Hash field names.
const (
	fieldID        = "id"
	fieldName      = "name"
	fieldValue     = "color_value"
	fieldCreatedAt = "created_at"
)

// Key patterns, relative to the store prefix:
// taxonomy:label:{id}, taxonomy:color:{id}, taxonomy:version.
const (
	labelKind  = "label"
	colorKind  = "color"
	versionKey = "taxonomy:version"
)

// Repo implements usecase/taxonomy.Repository on a Redis-compatible hash store.
type Repo struct {
	store store
	newID func() string
	now   func() time.Time
}

// New creates a hash-backed taxonomy repository.
func New(s store) *Repo {
	return &Repo{store: s, newID: uuid.NewString, now: time.Now}
}

// ListLabels returns every label in creation order.
func (r *Repo) ListLabels(ctx context.Context) ([]domtax.Label, error) {
	rows, err := r.list(ctx, labelKind)
	if err != nil {
		return nil, err
	}
	labels := make([]domtax.Label, 0, len(rows))
	for _, m := range rows {
		labels = append(labels, domtax.Label{ID: m[fieldID], Name: m[fieldName]})
	}
	return labels, nil
}

// ListColors returns every color in creation order.
func (r *Repo) ListColors(ctx context.Context) ([]domtax.Color, error) {
	rows, err := r.list(ctx, colorKind)
	if err != nil {
		return nil, err
	}
	colors := make([]domtax.Color, 0, len(rows))
	for _, m := range rows {
		colors = append(colors, domtax.Color{ID: m[fieldID], Name: m[fieldName], Value: m[fieldValue]})
	}
	return colors, nil
}

// CreateLabel stores a label and returns its id.
func (r *Repo) CreateLabel(ctx context.Context, name string) (string, error) {
	l, err := domtax.NewLabel(r.newID(), name)
	if err != nil {
		return "", err
	}
	if err := r.store.HSet(ctx, key(labelKind, l.ID), r.fields(l.ID, l.Name, "")); err != nil {
		return "", fmt.Errorf("hset label: %w", err)
	}
	return l.ID, r.bump(ctx)
}

// CreateColor stores a color and returns its id.
func (r *Repo) CreateColor(ctx context.Context, name, value string) (string, error) {
	c, err := domtax.NewColor(r.newID(), name, value)
	if err != nil {
		return "", err
	}
	if err := r.store.HSet(ctx, key(colorKind, c.ID), r.fields(c.ID, c.Name, c.Value)); err != nil {
		return "", fmt.Errorf("hset color: %w", err)
	}
	return c.ID, r.bump(ctx)
}

// DeleteLabel removes a label.
func (r *Repo) DeleteLabel(ctx context.Context, id string) error {
	return r.delete(ctx, labelKind, id)
}

// DeleteColor removes a color.
func (r *Repo) DeleteColor(ctx context.Context, id string) error {
	return r.delete(ctx, colorKind, id)
}

// Seed writes the given entries in one round-trip.
func (r *Repo) Seed(ctx context.Context, labels []domtax.Label, colors []domtax.Color) error {
	items := make([]db.HashSetItem, 0, len(labels)+len(colors))
	for _, l := range labels {
		id := r.newID()
		items = append(items, db.HashSetItem{Key: key(labelKind, id), Fields: r.fields(id, l.Name, "")})
	}
	for _, c := range colors {
		id := r.newID()
		items = append(items, db.HashSetItem{Key: key(colorKind, id), Fields: r.fields(id, c.Name, c.Value)})
	}
	if len(items) == 0 {
		return nil
	}
	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("seed taxonomy: %w", err)
	}
	return r.bump(ctx)
}

// Version returns a counter that changes on every catalog mutation.
func (r *Repo) Version(ctx context.Context) (int64, error) {
	v, err := r.store.GetInt(ctx, versionKey)
	if err != nil {
		return 0, fmt.Errorf("get taxonomy version: %w", err)
	}
	return v, nil
}

func (r *Repo) list(ctx context.Context, kind string) ([]map[string]string, error) {
	keys, err := r.store.Scan(ctx, key(kind, "*"))
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", kind, err)
	}
	if len(keys) == 0 {
		return nil, nil
	}
	results, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("hgetall multi %s: %w", kind, err)
	}

	rows := make([]map[string]string, 0, len(results))
	for _, m := range results {
		if len(m) == 0 || m[fieldID] == "" {
			continue
		}
		rows = append(rows, m)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		ci, cj := createdAt(rows[i]), createdAt(rows[j])
		if ci != cj {
			return ci < cj
		}
		return rows[i][fieldID] < rows[j][fieldID]
	})
	return rows, nil
}

func (r *Repo) delete(ctx context.Context, kind, id string) error {
	existed, err := r.store.Del(ctx, key(kind, id))
	if err != nil {
		return fmt.Errorf("del %s %s: %w", kind, id, err)
	}
	if !existed {
		return domain.ErrNotFound
	}
	return r.bump(ctx)
}

func (r *Repo) bump(ctx context.Context) error {
	if _, err := r.store.IncrBy(ctx, versionKey, 1); err != nil {
		return fmt.Errorf("bump taxonomy version: %w", err)
	}
	return nil
}

func (r *Repo) fields(id, name, value string) map[string]string {
	m := map[string]string{
		fieldID:        id,
		fieldName:      name,
		fieldCreatedAt: strconv.FormatInt(r.now().UnixMilli(), 10),
	}
	if value != "" {
		m[fieldValue] = value
	}
	return m
}

func key(kind, id string) string {
	return "taxonomy:" + kind + ":" + id
}

func createdAt(m map[string]string) int64 {
	v, _ := strconv.ParseInt(m[fieldCreatedAt], 10, 64)
	return v
}

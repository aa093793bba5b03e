package taxonomy

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kailas-cloud/annotator/internal/domain"
	domtax "github.com/kailas-cloud/annotator/internal/domain/taxonomy"
	"github.com/kailas-cloud/annotator/internal/metrics"
)

type mockRepo struct {
	labels     []domtax.Label
	colors     []domtax.Color
	version    int64
	listCalls  int
	versionErr error
	listErr    error
	createErr  error
	deleteErr  error
	seedErr    error
	seeded     int
}

func (m *mockRepo) ListLabels(context.Context) ([]domtax.Label, error) {
	m.listCalls++
	if m.listErr != nil {
		return nil, m.listErr
	}
	return append([]domtax.Label(nil), m.labels...), nil
}

func (m *mockRepo) ListColors(context.Context) ([]domtax.Color, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return append([]domtax.Color(nil), m.colors...), nil
}

func (m *mockRepo) CreateLabel(_ context.Context, name string) (string, error) {
	if m.createErr != nil {
		return "", m.createErr
	}
	m.labels = append(m.labels, domtax.Label{ID: "L" + name, Name: name})
	m.version++
	return "L" + name, nil
}

func (m *mockRepo) CreateColor(_ context.Context, name, value string) (string, error) {
	if m.createErr != nil {
		return "", m.createErr
	}
	m.colors = append(m.colors, domtax.Color{ID: "C" + name, Name: name, Value: value})
	m.version++
	return "C" + name, nil
}

func (m *mockRepo) DeleteLabel(_ context.Context, id string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	for i, l := range m.labels {
		if l.ID == id {
			m.labels = append(m.labels[:i], m.labels[i+1:]...)
			m.version++
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *mockRepo) DeleteColor(_ context.Context, id string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	for i, c := range m.colors {
		if c.ID == id {
			m.colors = append(m.colors[:i], m.colors[i+1:]...)
			m.version++
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *mockRepo) Seed(_ context.Context, labels []domtax.Label, colors []domtax.Color) error {
	if m.seedErr != nil {
		return m.seedErr
	}
	m.seeded = len(labels) + len(colors)
	for _, l := range labels {
		m.labels = append(m.labels, domtax.Label{ID: "L" + l.Name, Name: l.Name})
	}
	for _, c := range colors {
		m.colors = append(m.colors, domtax.Color{ID: "C" + c.Name, Name: c.Name, Value: c.Value})
	}
	m.version++
	return nil
}

func (m *mockRepo) Version(context.Context) (int64, error) {
	return m.version, m.versionErr
}

func TestCatalog_CachedUntilVersionMoves(t *testing.T) {
	repo := &mockRepo{labels: []domtax.Label{{ID: "a", Name: "Topic"}}, version: 1}
	svc := New(repo, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		cat, err := svc.Catalog(ctx)
		if err != nil || len(cat.Labels) != 1 {
			t.Fatalf("Catalog = %+v, %v", cat, err)
		}
	}
	if repo.listCalls != 1 {
		t.Errorf("list calls = %d, want 1", repo.listCalls)
	}

	if _, err := svc.CreateLabel(ctx, "Claim"); err != nil {
		t.Fatal(err)
	}
	cat, _ := svc.Catalog(ctx)
	if len(cat.Labels) != 2 || repo.listCalls != 2 {
		t.Errorf("labels = %+v, list calls = %d", cat.Labels, repo.listCalls)
	}
}

func TestCatalog_FailureKeepsLastKnown(t *testing.T) {
	repo := &mockRepo{labels: []domtax.Label{{ID: "a", Name: "Topic"}}, version: 1}
	svc := New(repo, nil)
	ctx := context.Background()
	if _, err := svc.Catalog(ctx); err != nil {
		t.Fatal(err)
	}

	repo.versionErr = errors.New("connection refused")
	cat, err := svc.Catalog(ctx)
	if !errors.Is(err, domain.ErrRemoteStore) {
		t.Fatalf("err = %v, want ErrRemoteStore", err)
	}
	if len(cat.Labels) != 1 {
		t.Errorf("last known catalog lost: %+v", cat)
	}
}

func TestCreateLabel_RollsBackOnFailure(t *testing.T) {
	repo := &mockRepo{version: 1}
	svc := New(repo, nil)
	ctx := context.Background()
	_, _ = svc.Catalog(ctx)

	before := testutil.ToFloat64(metrics.TaxonomyErrorsTotal.WithLabelValues("create_label"))
	repo.createErr = errors.New("timeout")
	if _, err := svc.CreateLabel(ctx, "Topic"); !errors.Is(err, domain.ErrRemoteStore) {
		t.Fatalf("err = %v, want ErrRemoteStore", err)
	}
	if got := testutil.ToFloat64(metrics.TaxonomyErrorsTotal.WithLabelValues("create_label")) - before; got != 1 {
		t.Errorf("error counter delta = %v", got)
	}
	if cat := svc.snapshot(); len(cat.Labels) != 0 {
		t.Errorf("optimistic label not rolled back: %+v", cat.Labels)
	}
}

func TestCreateColor_ValidationIsNotRemote(t *testing.T) {
	svc := New(&mockRepo{}, nil)
	_, err := svc.CreateColor(context.Background(), "Bad", "not-a-color")
	if !errors.Is(err, domain.ErrInvalidColor) || errors.Is(err, domain.ErrRemoteStore) {
		t.Errorf("err = %v, want ErrInvalidColor only", err)
	}
}

func TestCreateColor_AssignsStoreID(t *testing.T) {
	repo := &mockRepo{}
	svc := New(repo, nil)
	c, err := svc.CreateColor(context.Background(), "Red", "#F00")
	if err != nil {
		t.Fatal(err)
	}
	if c.ID != "CRed" || c.Value != "#ff0000" {
		t.Errorf("color = %+v", c)
	}
	if cat := svc.snapshot(); len(cat.Colors) != 1 || cat.Colors[0].ID != "CRed" {
		t.Errorf("cache = %+v", cat.Colors)
	}
}

func TestDeleteLabel_RestoresOnFailure(t *testing.T) {
	repo := &mockRepo{labels: []domtax.Label{{ID: "a", Name: "A"}, {ID: "b", Name: "B"}}, version: 1}
	svc := New(repo, nil)
	ctx := context.Background()
	_, _ = svc.Catalog(ctx)

	repo.deleteErr = errors.New("timeout")
	if err := svc.DeleteLabel(ctx, "a"); !errors.Is(err, domain.ErrRemoteStore) {
		t.Fatalf("err = %v, want ErrRemoteStore", err)
	}
	cat := svc.snapshot()
	if len(cat.Labels) != 2 || cat.Labels[0].ID != "a" {
		t.Errorf("label not restored in place: %+v", cat.Labels)
	}

	repo.deleteErr = nil
	if err := svc.DeleteLabel(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	if err := svc.DeleteLabel(ctx, "a"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestDeleteColor_RestoresOnFailure(t *testing.T) {
	repo := &mockRepo{colors: []domtax.Color{{ID: "r", Name: "Red", Value: "#ff0000"}}, version: 1}
	svc := New(repo, nil)
	ctx := context.Background()
	_, _ = svc.Catalog(ctx)

	repo.deleteErr = errors.New("timeout")
	if err := svc.DeleteColor(ctx, "r"); !errors.Is(err, domain.ErrRemoteStore) {
		t.Fatalf("err = %v", err)
	}
	if cat := svc.snapshot(); len(cat.Colors) != 1 {
		t.Errorf("color not restored: %+v", cat.Colors)
	}
}

func TestSeedIfEmpty(t *testing.T) {
	repo := &mockRepo{}
	svc := New(repo, nil)
	ctx := context.Background()

	colors := []domtax.Color{{Name: "Yellow", Value: "#ff0"}}
	if err := svc.SeedIfEmpty(ctx, []string{"Topic"}, colors); err != nil {
		t.Fatal(err)
	}
	if repo.seeded != 2 {
		t.Fatalf("seeded = %d, want 2", repo.seeded)
	}
	if repo.colors[0].Value != "#ffff00" {
		t.Errorf("seed color not normalized: %q", repo.colors[0].Value)
	}

	repo.seeded = 0
	if err := svc.SeedIfEmpty(ctx, []string{"Other"}, nil); err != nil {
		t.Fatal(err)
	}
	if repo.seeded != 0 {
		t.Error("non-empty catalog must not be seeded again")
	}
}

// Package annotation implements the in-memory annotation store: the single
// source of truth for highlight annotations of the current session.
package annotation

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/kailas-cloud/annotator/internal/domain"
	domann "github.com/kailas-cloud/annotator/internal/domain/annotation"
	"github.com/kailas-cloud/annotator/internal/domain/geometry"
	"github.com/kailas-cloud/annotator/internal/metrics"
)

// ReplaceResult reports the outcome of a bulk load.
type ReplaceResult struct {
	Loaded  int
	Dropped int
}

// Store is an ordered collection of annotations keyed by id.
// Insertion order is creation order. Every mutation is atomic per annotation.
type Store struct {
	mu     sync.RWMutex
	items  []domann.Annotation
	byID   map[string]int
	newID  IDGenerator
	logger *zap.Logger
}

// New creates an empty store.
func New(logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		byID:   make(map[string]int),
		newID:  domann.NewID,
		logger: logger,
	}
}

// WithIDGenerator replaces the id source (tests).
func (s *Store) WithIDGenerator(gen IDGenerator) *Store {
	if gen != nil {
		s.newID = gen
	}
	return s
}

// NewID returns a fresh identifier from the configured generator.
func (s *Store) NewID() string {
	return s.newID()
}

// Add appends an annotation. Annotations without rects and duplicate ids are rejected.
func (s *Store) Add(a domann.Annotation) error {
	if len(a.Rects()) == 0 {
		metrics.AnnotationOpsTotal.WithLabelValues("add", "rejected").Inc()
		return fmt.Errorf("annotation %q has no rects: %w", a.ID(), domain.ErrInvalidAnnotation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[a.ID()]; ok {
		metrics.AnnotationOpsTotal.WithLabelValues("add", "duplicate").Inc()
		s.logger.Error("Annotation id collision", zap.String("id", a.ID()))
		return fmt.Errorf("annotation %q: %w", a.ID(), domain.ErrDuplicateID)
	}

	s.byID[a.ID()] = len(s.items)
	s.items = append(s.items, a)
	s.updateGauge()
	metrics.AnnotationOpsTotal.WithLabelValues("add", "ok").Inc()
	return nil
}

// Get returns an annotation by id.
func (s *Store) Get(id string) (domann.Annotation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.byID[id]
	if !ok {
		return domann.Annotation{}, false
	}
	return s.items[i], true
}

// RemoveByID removes the annotation with the given id. Returns false if absent.
func (s *Store) RemoveByID(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.byID[id]
	if !ok {
		metrics.AnnotationOpsTotal.WithLabelValues("remove", "miss").Inc()
		return false
	}
	s.removeAt(i)
	metrics.AnnotationOpsTotal.WithLabelValues("remove", "ok").Inc()
	return true
}

// RemoveByHit removes the first annotation on page whose rect, grown by tol,
// contains the page-local point.
func (s *Store) RemoveByHit(page int, p geometry.Point, tol float64) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		a := &s.items[i]
		if a.PageNumber() != page {
			continue
		}
		for _, r := range a.Rects() {
			if r.ContainsPoint(p, tol) {
				id := a.ID()
				s.removeAt(i)
				metrics.AnnotationOpsTotal.WithLabelValues("remove", "ok").Inc()
				return id, true
			}
		}
	}
	metrics.AnnotationOpsTotal.WithLabelValues("remove", "miss").Inc()
	return "", false
}

// FilterByPage returns the annotations of one page in store order.
func (s *Store) FilterByPage(page int) []domann.Annotation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domann.Annotation
	for _, a := range s.items {
		if a.PageNumber() == page {
			out = append(out, a)
		}
	}
	return out
}

// All returns a snapshot of every annotation in store order.
func (s *Store) All() []domann.Annotation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domann.Annotation, len(s.items))
	copy(out, s.items)
	return out
}

// Len returns the number of stored annotations.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// ReplaceAll discards the current content and installs the drafts, each under
// a fresh id. Invalid drafts are dropped and counted, never fatal.
func (s *Store) ReplaceAll(drafts []domann.Draft) ReplaceResult {
	items := make([]domann.Annotation, 0, len(drafts))
	byID := make(map[string]int, len(drafts))
	var res ReplaceResult

	for i := range drafts {
		a, err := domann.Restore(s.newID(), drafts[i])
		if err != nil {
			res.Dropped++
			s.logger.Debug("Dropping invalid annotation record", zap.Int("index", i), zap.Error(err))
			continue
		}
		if _, dup := byID[a.ID()]; dup {
			res.Dropped++
			s.logger.Error("Annotation id collision during load", zap.String("id", a.ID()))
			continue
		}
		byID[a.ID()] = len(items)
		items = append(items, a)
	}
	res.Loaded = len(items)

	s.mu.Lock()
	s.items = items
	s.byID = byID
	s.updateGauge()
	s.mu.Unlock()

	metrics.AnnotationOpsTotal.WithLabelValues("replace", "ok").Inc()
	metrics.ImportRecordsTotal.WithLabelValues("loaded").Add(float64(res.Loaded))
	metrics.ImportRecordsTotal.WithLabelValues("dropped").Add(float64(res.Dropped))
	return res
}

// Reset empties the store.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
	s.byID = make(map[string]int)
	s.updateGauge()
}

// removeAt deletes index i and reindexes the tail. Caller holds the write lock.
func (s *Store) removeAt(i int) {
	delete(s.byID, s.items[i].ID())
	s.items = append(s.items[:i], s.items[i+1:]...)
	for j := i; j < len(s.items); j++ {
		s.byID[s.items[j].ID()] = j
	}
	s.updateGauge()
}

func (s *Store) updateGauge() {
	metrics.AnnotationsStored.Set(float64(len(s.items)))
}

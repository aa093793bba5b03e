package hittest

import "sync"

type shapeOwner struct {
	annotationID string
	page         int
}

// Index is the side table mapping drawn highlight shapes to their owning annotation.
type Index struct {
	mu     sync.RWMutex
	shapes map[string]shapeOwner
}

// NewIndex creates an empty shape index.
func NewIndex() *Index {
	return &Index{shapes: make(map[string]shapeOwner)}
}

// Register tags a drawn shape with its annotation.
func (x *Index) Register(shapeID, annotationID string, page int) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.shapes[shapeID] = shapeOwner{annotationID: annotationID, page: page}
}

// Lookup returns the annotation owning shapeID.
func (x *Index) Lookup(shapeID string) (string, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	o, ok := x.shapes[shapeID]
	return o.annotationID, ok
}

// ClearPage drops every shape drawn on page.
func (x *Index) ClearPage(page int) {
	x.mu.Lock()
	defer x.mu.Unlock()
	for id, o := range x.shapes {
		if o.page == page {
			delete(x.shapes, id)
		}
	}
}

// Reset drops every shape.
func (x *Index) Reset() {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.shapes = make(map[string]shapeOwner)
}

// Len returns the number of registered shapes.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.shapes)
}

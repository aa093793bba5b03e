// Package taxonomy holds the label and color catalog entries consumed by the annotator.
package taxonomy

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/annotator/internal/domain"
	"github.com/kailas-cloud/annotator/internal/domain/annotation"
)

// MaxNameLength bounds label and color names.
const MaxNameLength = 128

// Label is a named annotation category.
type Label struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Color is a named highlight color.
type Color struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Value string `json:"colorValue"`
}

// NewLabel validates a label definition.
func NewLabel(id, name string) (Label, error) {
	name, err := validName(name)
	if err != nil {
		return Label{}, err
	}
	return Label{ID: id, Name: name}, nil
}

// NewColor validates a color definition and normalizes its value.
func NewColor(id, name, value string) (Color, error) {
	name, err := validName(name)
	if err != nil {
		return Color{}, err
	}
	v, err := annotation.NormalizeColor(value)
	if err != nil {
		return Color{}, fmt.Errorf("color %q: %w", name, err)
	}
	return Color{ID: id, Name: name, Value: v}, nil
}

func validName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("name is required: %w", domain.ErrInvalidTaxonomy)
	}
	if len(name) > MaxNameLength {
		return "", fmt.Errorf("name too long (max %d): %w", MaxNameLength, domain.ErrInvalidTaxonomy)
	}
	return name, nil
}

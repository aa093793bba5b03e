// Package persistence converts the annotation store to and from the portable
// annotations file and renders a spreadsheet report of it.
package persistence

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/annotator/internal/domain"
	domann "github.com/kailas-cloud/annotator/internal/domain/annotation"
	"github.com/kailas-cloud/annotator/internal/domain/geometry"
)

// Record is one annotation as written to the annotations file. Ids are not
// exported: they are regenerated on import.
type Record struct {
	Text       string          `json:"text"`
	Label      string          `json:"label"`
	LabelID    string          `json:"labelId,omitempty"`
	Color      string          `json:"color"`
	PageNumber int             `json:"pageNumber"`
	Rects      []geometry.Rect `json:"rects"`
}

// File is the portable annotations document.
type File struct {
	DocumentName string   `json:"documentName"`
	Scale        float64  `json:"scale"`
	Annotations  []Record `json:"annotations"`
}

// Meta describes the session an export belongs to.
type Meta struct {
	DocumentName string
	Scale        float64
}

// Imported is a structurally valid annotations file ready to load.
type Imported struct {
	DocumentName string
	Scale        float64
	Drafts       []domann.Draft
}

// Gateway serializes and deserializes annotation files.
type Gateway struct {
	logger *zap.Logger
}

// New creates a Gateway.
func New(logger *zap.Logger) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{logger: logger}
}

// FileName returns the download name of an export.
func FileName(documentName string) string {
	name := strings.TrimSpace(documentName)
	if name == "" {
		name = "pdf"
	}
	return name + "_annotations.json"
}

// Export writes the annotations as an indented JSON document.
func (g *Gateway) Export(meta Meta, anns []domann.Annotation) ([]byte, error) {
	if len(anns) == 0 {
		return nil, domain.ErrNothingToExport
	}

	f := File{
		DocumentName: meta.DocumentName,
		Scale:        meta.Scale,
		Annotations:  make([]Record, 0, len(anns)),
	}
	for i := range anns {
		a := &anns[i]
		f.Annotations = append(f.Annotations, Record{
			Text:       a.Text(),
			Label:      a.Label(),
			LabelID:    a.LabelID(),
			Color:      a.Color(),
			PageNumber: a.PageNumber(),
			Rects:      a.Rects(),
		})
	}

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal annotations: %w", err)
	}
	g.logger.Debug("Annotations exported",
		zap.String("document_name", meta.DocumentName),
		zap.Int("count", len(anns)),
	)
	return data, nil
}

// Import parses an annotations file. A file without an annotations array, or
// with records of the wrong shape, is rejected as a whole. Records that are
// well formed but semantically invalid are left for the store to drop.
func (g *Gateway) Import(data []byte) (*Imported, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, domain.NewFormatError("", "not a JSON object")
	}

	raw, ok := top["annotations"]
	if !ok || isNull(raw) {
		return nil, domain.NewFormatError("annotations", "missing")
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, domain.NewFormatError("annotations", "not an array")
	}

	out := &Imported{Drafts: make([]domann.Draft, 0, len(items))}
	if err := decodeOptional(top, "documentName", &out.DocumentName); err != nil {
		return nil, err
	}
	if out.DocumentName == "" {
		if err := decodeOptional(top, "pdfName", &out.DocumentName); err != nil {
			return nil, err
		}
	}
	if err := decodeOptional(top, "scale", &out.Scale); err != nil {
		return nil, err
	}

	for i, item := range items {
		var r Record
		if err := json.Unmarshal(item, &r); err != nil {
			return nil, domain.NewFormatError(fmt.Sprintf("annotations[%d]", i), typeReason(err))
		}
		out.Drafts = append(out.Drafts, domann.Draft{
			PageNumber: r.PageNumber,
			Text:       r.Text,
			Label:      r.Label,
			LabelID:    r.LabelID,
			Color:      r.Color,
			Rects:      r.Rects,
		})
	}

	g.logger.Debug("Annotations file parsed",
		zap.String("document_name", out.DocumentName),
		zap.Int("records", len(out.Drafts)),
	)
	return out, nil
}

func decodeOptional(top map[string]json.RawMessage, key string, dst any) error {
	raw, ok := top[key]
	if !ok || isNull(raw) {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return domain.NewFormatError(key, typeReason(err))
	}
	return nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func typeReason(err error) string {
	var te *json.UnmarshalTypeError
	if errors.As(err, &te) {
		if te.Field != "" {
			return fmt.Sprintf("field %q must be %s, got %s", te.Field, te.Type, te.Value)
		}
		return fmt.Sprintf("must be %s, got %s", te.Type, te.Value)
	}
	return err.Error()
}

package chi

import (
	"fmt"
	"mime"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	domann "github.com/kailas-cloud/annotator/internal/domain/annotation"
	"github.com/kailas-cloud/annotator/internal/domain/geometry"
	"github.com/kailas-cloud/annotator/internal/logger"
	"github.com/kailas-cloud/annotator/internal/usecase/persistence"
	"github.com/kailas-cloud/annotator/internal/usecase/render"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type annotationResponse struct {
	ID         string          `json:"id"`
	Text       string          `json:"text"`
	Label      string          `json:"label"`
	LabelID    string          `json:"labelId,omitempty"`
	Color      string          `json:"color"`
	PageNumber int             `json:"pageNumber"`
	Rects      []geometry.Rect `json:"rects"`
}

type annotationListResponse struct {
	Items []annotationResponse `json:"items"`
	Count int                  `json:"count"`
}

func annotationToResponse(a domann.Annotation) annotationResponse {
	return annotationResponse{
		ID:         a.ID(),
		Text:       a.Text(),
		Label:      a.Label(),
		LabelID:    a.LabelID(),
		Color:      a.Color(),
		PageNumber: a.PageNumber(),
		Rects:      a.Rects(),
	}
}

// ListAnnotations handles GET /annotations with an optional ?page= filter.
func (s *Server) ListAnnotations(w http.ResponseWriter, r *http.Request) {
	var anns []domann.Annotation
	if v := r.URL.Query().Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, CodeBadRequest, "page must be a positive integer")
			return
		}
		anns = s.annotations.FilterByPage(n)
	} else {
		anns = s.annotations.All()
	}

	items := make([]annotationResponse, len(anns))
	for i, a := range anns {
		items[i] = annotationToResponse(a)
	}
	writeJSON(w, http.StatusOK, annotationListResponse{Items: items, Count: len(items)})
}

// Export handles GET /export.
func (s *Server) Export(w http.ResponseWriter, r *http.Request) {
	meta, ok := s.exportMeta(w, r)
	if !ok {
		return
	}
	data, err := s.codec.Export(meta, s.annotations.All())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeAttachment(w, "application/json", persistence.FileName(meta.DocumentName), data)
}

// ExportReport handles GET /export.xlsx.
func (s *Server) ExportReport(w http.ResponseWriter, r *http.Request) {
	meta, ok := s.exportMeta(w, r)
	if !ok {
		return
	}
	data, err := s.codec.ExportReport(meta, s.annotations.All())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeAttachment(w, xlsxContentType, persistence.ReportFileName(meta.DocumentName), data)
}

// Import handles POST /import. The body is an annotations file; it replaces
// every stored annotation.
func (s *Server) Import(w http.ResponseWriter, r *http.Request) {
	data, ok := readBody(w, r, s.limits.ImportBytes)
	if !ok {
		return
	}
	file, err := s.codec.Import(data)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	ctx := logger.WithFields(r.Context(), zap.String("document_name", file.DocumentName))
	out, err := s.engine.Dispatch(ctx, render.ImportRequested{
		DocumentName: file.DocumentName,
		Scale:        file.Scale,
		Drafts:       file.Drafts,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if out.Import != nil && out.Import.Dropped > 0 {
		logger.FromContext(ctx).Warn("Import dropped records",
			zap.Int("loaded", out.Import.Loaded),
			zap.Int("dropped", out.Import.Dropped),
		)
	}
	writeJSON(w, http.StatusOK, out.Import)
}

func (s *Server) exportMeta(w http.ResponseWriter, r *http.Request) (persistence.Meta, bool) {
	out, err := s.engine.Dispatch(r.Context(), render.SessionQueried{})
	if err != nil {
		s.handleDomainError(w, err)
		return persistence.Meta{}, false
	}
	return persistence.Meta{DocumentName: out.Session.DocumentName, Scale: out.Session.Scale}, true
}

func writeAttachment(w http.ResponseWriter, contentType, filename string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	w.Header().Set("Content-Length", fmt.Sprint(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

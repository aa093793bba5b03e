package chi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/annotator/internal/domain/geometry"
	"github.com/kailas-cloud/annotator/internal/logger"
	"github.com/kailas-cloud/annotator/internal/usecase/render"
)

type highlightModeRequest struct {
	On bool `json:"on"`
}

type colorRequest struct {
	Color string `json:"color"`
}

type scrollRequest struct {
	Y float64 `json:"y"`
}

type confirmRequest struct {
	Label   string `json:"label"`
	LabelID string `json:"labelId"`
	Color   string `json:"color"`
}

type dragRequest struct {
	Start geometry.Point `json:"start"`
	End   geometry.Point `json:"end"`
}

type clickRequest struct {
	X            float64        `json:"x"`
	Y            float64        `json:"y"`
	ShapeID      string         `json:"shapeId"`
	FragmentRect *geometry.Rect `json:"fragmentRect"`
}

// actionResponse reports what an interaction changed.
type actionResponse struct {
	AnnotationID     string              `json:"annotationId,omitempty"`
	Removed          bool                `json:"removed"`
	Cancelled        bool                `json:"cancelled"`
	SelectionCleared bool                `json:"selectionCleared"`
	Pending          *render.PendingView `json:"pending,omitempty"`
}

func actionFromOutcome(out render.Outcome) actionResponse {
	return actionResponse{
		AnnotationID:     out.AnnotationID,
		Removed:          out.Removed,
		Cancelled:        out.Cancelled,
		SelectionCleared: out.SelectionCleared,
		Pending:          out.Pending,
	}
}

// GetSession handles GET /document.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	s.writeSession(w, r, http.StatusOK)
}

// OpenDocument handles POST /document. The body is the raw PDF.
// With ?wait=true the reply is sent after every page finished rendering.
func (s *Server) OpenDocument(w http.ResponseWriter, r *http.Request) {
	data, ok := readBody(w, r, s.limits.DocumentBytes)
	if !ok {
		return
	}
	name := r.URL.Query().Get("name")
	ctx := logger.WithFields(r.Context(), zap.String("document_name", name))

	if _, err := s.engine.Dispatch(ctx, render.FileOpened{Name: name, Data: data}); err != nil {
		logger.FromContext(ctx).Warn("Document rejected", zap.Int("bytes", len(data)), zap.Error(err))
		s.handleDomainError(w, err)
		return
	}
	if wait, _ := strconv.ParseBool(r.URL.Query().Get("wait")); wait {
		if err := s.engine.WaitRendered(ctx); err != nil {
			s.handleDomainError(w, err)
			return
		}
	}
	s.writeSession(w, r, http.StatusCreated)
}

// CloseDocument handles DELETE /document.
func (s *Server) CloseDocument(w http.ResponseWriter, r *http.Request) {
	out, err := s.engine.Dispatch(r.Context(), render.DocumentClosed{})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out.Session)
}

// SetHighlightMode handles POST /highlight-mode.
func (s *Server) SetHighlightMode(w http.ResponseWriter, r *http.Request) {
	var req highlightModeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	out, err := s.engine.Dispatch(r.Context(), render.HighlightModeToggled{On: req.On})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out.Session)
}

// SelectColor handles PUT /color.
func (s *Server) SelectColor(w http.ResponseWriter, r *http.Request) {
	var req colorRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	out, err := s.engine.Dispatch(r.Context(), render.ColorSelected{Color: req.Color})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out.Session)
}

// Scroll handles POST /scroll. The reply carries the repositioned chooser.
func (s *Server) Scroll(w http.ResponseWriter, r *http.Request) {
	var req scrollRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	out, err := s.engine.Dispatch(r.Context(), render.Scrolled{Y: req.Y})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, actionFromOutcome(out))
}

// CaptureSelection handles POST /selection.
func (s *Server) CaptureSelection(w http.ResponseWriter, r *http.Request) {
	var sel geometry.Selection
	if !decodeJSON(w, r, &sel) {
		return
	}
	s.dispatchAction(w, r, render.SelectionCaptured{Selection: sel})
}

// DragSelection handles POST /selection/drag.
func (s *Server) DragSelection(w http.ResponseWriter, r *http.Request) {
	var req dragRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	s.dispatchAction(w, r, render.TextDragged{Start: req.Start, End: req.End})
}

// ConfirmLabel handles POST /pending/confirm.
func (s *Server) ConfirmLabel(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	s.dispatchAction(w, r, render.LabelConfirmed{Label: req.Label, LabelID: req.LabelID, Color: req.Color})
}

// CancelCapture handles POST /pending/cancel.
func (s *Server) CancelCapture(w http.ResponseWriter, r *http.Request) {
	s.dispatchAction(w, r, render.CaptureCancelled{})
}

// Click handles POST /click.
func (s *Server) Click(w http.ResponseWriter, r *http.Request) {
	var req clickRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	s.dispatchAction(w, r, render.PointerClicked{
		ClientPoint:  geometry.Point{X: req.X, Y: req.Y},
		ShapeID:      req.ShapeID,
		FragmentRect: req.FragmentRect,
	})
}

// GetPage handles GET /pages/{page}.
func (s *Server) GetPage(w http.ResponseWriter, r *http.Request) {
	n, ok := pageParam(w, r)
	if !ok {
		return
	}
	out, err := s.engine.Dispatch(r.Context(), render.PageQueried{Page: n})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out.Page)
}

// GetPreview handles GET /pages/{page}/preview.png.
func (s *Server) GetPreview(w http.ResponseWriter, r *http.Request) {
	n, ok := pageParam(w, r)
	if !ok {
		return
	}
	width := 0
	if v := r.URL.Query().Get("width"); v != "" {
		var err error
		width, err = strconv.Atoi(v)
		if err != nil || width < 1 || width > render.MaxPreviewWidth {
			writeError(w, http.StatusBadRequest, CodeBadRequest,
				"width must be between 1 and "+strconv.Itoa(render.MaxPreviewWidth))
			return
		}
	}

	img, err := s.engine.Preview(r.Context(), n, width)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(img)
}

func (s *Server) dispatchAction(w http.ResponseWriter, r *http.Request, ev render.Event) {
	out, err := s.engine.Dispatch(r.Context(), ev)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, actionFromOutcome(out))
}

func (s *Server) writeSession(w http.ResponseWriter, r *http.Request, status int) {
	out, err := s.engine.Dispatch(r.Context(), render.SessionQueried{})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, status, out.Session)
}

func pageParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	n, err := strconv.Atoi(chi.URLParam(r, "page"))
	if err != nil || n < 1 {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "page must be a positive integer")
		return 0, false
	}
	return n, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

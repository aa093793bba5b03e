package chi

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	healthuc "github.com/kailas-cloud/annotator/internal/usecase/health"
)

// Limits bounds request bodies.
type Limits struct {
	DocumentBytes int64
	ImportBytes   int64
}

// Server is the HTTP surface of the annotation engine.
type Server struct {
	engine        Engine
	annotations   AnnotationReader
	codec         Codec
	taxonomy      Taxonomy
	health        *healthuc.Service
	limits        Limits
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. taxonomy can be nil.
func NewServer(
	engine Engine,
	annotations AnnotationReader,
	codec Codec,
	taxonomy Taxonomy,
	health *healthuc.Service,
	limits Limits,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		engine:        engine,
		annotations:   annotations,
		codec:         codec,
		taxonomy:      taxonomy,
		health:        health,
		limits:        limits,
		logger:        logger,
		errorHandlers: defaultErrorHandlers(),
	}
}

// Register mounts every route on r.
func (s *Server) Register(r chi.Router) {
	r.Get("/document", s.GetSession)
	r.Post("/document", s.OpenDocument)
	r.Delete("/document", s.CloseDocument)
	r.Post("/highlight-mode", s.SetHighlightMode)
	r.Put("/color", s.SelectColor)
	r.Post("/scroll", s.Scroll)
	r.Post("/selection", s.CaptureSelection)
	r.Post("/selection/drag", s.DragSelection)
	r.Post("/pending/confirm", s.ConfirmLabel)
	r.Post("/pending/cancel", s.CancelCapture)
	r.Post("/click", s.Click)
	r.Get("/pages/{page}", s.GetPage)
	r.Get("/pages/{page}/preview.png", s.GetPreview)

	r.Get("/annotations", s.ListAnnotations)
	r.Get("/export", s.Export)
	r.Get("/export.xlsx", s.ExportReport)
	r.Post("/import", s.Import)

	if s.taxonomy != nil {
		r.Get("/labels", s.ListLabels)
		r.Post("/labels", s.CreateLabel)
		r.Delete("/labels/{id}", s.DeleteLabel)
		r.Get("/colors", s.ListColors)
		r.Post("/colors", s.CreateColor)
		r.Delete("/colors/{id}", s.DeleteColor)
	}

	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status: string(report.Status),
		Checks: report.Checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

type healthResponse struct {
	Status string                          `json:"status"`
	Checks map[string]healthuc.CheckResult `json:"checks"`
}

// readBody reads at most limit bytes. It reports false after writing the
// error reply.
func readBody(w http.ResponseWriter, r *http.Request, limit int64) ([]byte, bool) {
	if limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit)
	}
	data, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, CodeTooLarge, "request body too large")
			return nil, false
		}
		writeError(w, http.StatusBadRequest, CodeBadRequest, "failed to read request body")
		return nil, false
	}
	return data, true
}

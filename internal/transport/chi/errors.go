package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/kailas-cloud/annotator/internal/domain"
)

// ErrorCode is the machine-readable error kind in an ErrorResponse.
type ErrorCode string

// Error codes returned by the API.
const (
	CodeBadRequest        ErrorCode = "bad_request"
	CodeUnauthorized      ErrorCode = "unauthorized"
	CodeTooLarge          ErrorCode = "payload_too_large"
	CodeDecodeFailed      ErrorCode = "document_decode_failed"
	CodeNoDocument        ErrorCode = "no_document"
	CodePageOutOfRange    ErrorCode = "page_out_of_range"
	CodeNotFound          ErrorCode = "not_found"
	CodeInvalidFormat     ErrorCode = "invalid_annotations_file"
	CodeValidationFailed  ErrorCode = "validation_failed"
	CodeNoPendingCapture  ErrorCode = "no_pending_capture"
	CodeDuplicateID       ErrorCode = "duplicate_id"
	CodeNothingToExport   ErrorCode = "nothing_to_export"
	CodeRemoteStoreFailed ErrorCode = "taxonomy_store_error"
	CodeUnavailable       ErrorCode = "unavailable"
	CodeInternalError     ErrorCode = "internal_error"
)

// ErrorResponse is the JSON body of every error reply.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

func defaultErrorHandlers() []errorHandler {
	return []errorHandler{
		formatErrorHandler,
		sentinelHandler(domain.ErrDecode, http.StatusUnprocessableEntity, CodeDecodeFailed),
		sentinelHandler(domain.ErrNoDocument, http.StatusConflict, CodeNoDocument),
		sentinelHandler(domain.ErrPageOutOfRange, http.StatusNotFound, CodePageOutOfRange),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, CodeNotFound),
		sentinelHandler(domain.ErrNoPendingCapture, http.StatusConflict, CodeNoPendingCapture),
		sentinelHandler(domain.ErrDuplicateID, http.StatusConflict, CodeDuplicateID),
		sentinelHandler(domain.ErrNothingToExport, http.StatusNotFound, CodeNothingToExport),
		sentinelHandler(domain.ErrInvalidColor, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrInvalidTaxonomy, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrInvalidAnnotation, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrRemoteStore, http.StatusBadGateway, CodeRemoteStoreFailed),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrDecode,
		domain.ErrNoDocument,
		domain.ErrPageOutOfRange,
		domain.ErrNotFound,
		domain.ErrNoPendingCapture,
		domain.ErrDuplicateID,
		domain.ErrNothingToExport,
		domain.ErrInvalidColor,
		domain.ErrInvalidTaxonomy,
		domain.ErrInvalidAnnotation,
		domain.ErrRemoteStore,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// formatErrorHandler echoes the location of the problem in the uploaded file.
func formatErrorHandler(w http.ResponseWriter, err error, _ string) bool {
	var fe *domain.FormatError
	if !errors.As(err, &fe) {
		return false
	}
	writeError(w, http.StatusBadRequest, CodeInvalidFormat, fe.Error())
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}

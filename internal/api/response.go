package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/UkralStul/trip-comments-service/internal/domain"
	"github.com/UkralStul/trip-comments-service/internal/service"
	"github.com/goccy/go-json"
)

const (
	CodeValidation       = "validation_failed"
	CodeNotFound         = "not_found"
	CodeSubmitInProgress = "submit_in_progress"
	CodeUnauthorized     = "unauthorized"
	CodeForbidden        = "forbidden"
	CodeInternal         = "internal"
)

var errUnauthorized = errors.New("authentication required")

// ErrorResponse - тело ответа с ошибкой.
type ErrorResponse struct {
	Error  string `json:"error"`
	Code   string `json:"code"`
	Field  string `json:"field,omitempty"`
	Reason string `json:"reason,omitempty"`
	Kind   string `json:"kind,omitempty"`
	ID     string `json:"id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		slog.Error("failed to encode response", "err", err)
		http.Error(w, `{"error":"internal error","code":"internal"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// writeError переводит ошибку в HTTP-статус. Неизвестные ошибки логируются.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		ve *domain.ValidationError
		nf *domain.NotFoundError
	)
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: ve.Error(), Code: CodeValidation, Field: ve.Field, Reason: ve.Reason})
	case errors.As(err, &nf):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: nf.Error(), Code: CodeNotFound, Kind: nf.Kind, ID: nf.ID})
	case errors.Is(err, domain.ErrSubmitInProgress):
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: err.Error(), Code: CodeSubmitInProgress})
	case errors.Is(err, errUnauthorized):
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: err.Error(), Code: CodeUnauthorized})
	case errors.Is(err, service.ErrForbidden):
		writeJSON(w, http.StatusForbidden, ErrorResponse{Error: err.Error(), Code: CodeForbidden})
	default:
		slog.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal error", Code: CodeInternal})
	}
}

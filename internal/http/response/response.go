package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/debatehq/debate-service/internal/repository"
	"github.com/debatehq/debate-service/internal/service"
)

type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *apiError   `json:"error,omitempty"`
	Meta    meta        `json:"meta"`
}

type apiError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

type meta struct {
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
}

func JSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Success: true, Data: data, Meta: buildMeta(r)})
}

func Error(w http.ResponseWriter, r *http.Request, status int, code, message string, details interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Success: false, Error: &apiError{Code: code, Message: message, Details: details}, Meta: buildMeta(r)})
}

// FromError maps service and repository sentinels onto the wire taxonomy.
// Unknown errors collapse to a 500 without leaking internals.
func FromError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, repository.ErrQuestionNotFound):
		Error(w, r, http.StatusNotFound, "question_not_found", "question does not exist", nil)
	case errors.Is(err, repository.ErrAnswerNotFound):
		Error(w, r, http.StatusNotFound, "answer_not_found", "answer does not exist", nil)
	case errors.Is(err, repository.ErrSuggestionNotFound):
		Error(w, r, http.StatusNotFound, "suggestion_not_found", "suggestion does not exist", nil)
	case errors.Is(err, service.ErrRateLimited):
		Error(w, r, http.StatusTooManyRequests, "vote_rate_limited", "another vote from your network was cast on this question recently; try again later", nil)
	case errors.Is(err, service.ErrTitleRequired),
		errors.Is(err, service.ErrTitleTooLong),
		errors.Is(err, service.ErrBodyRequired),
		errors.Is(err, service.ErrNameTooLong):
		Error(w, r, http.StatusBadRequest, "validation_failed", err.Error(), nil)
	case errors.Is(err, service.ErrInvalidCredentials):
		Error(w, r, http.StatusUnauthorized, "invalid_credentials", "invalid username or password", nil)
	default:
		Error(w, r, http.StatusInternalServerError, "internal_error", "internal server error", nil)
	}
}

func buildMeta(r *http.Request) meta {
	id := chimiddleware.GetReqID(r.Context())
	if id == "" {
		id = r.Header.Get("X-Request-Id")
	}
	if id == "" {
		id = "req-unknown"
	}
	return meta{RequestID: id, Timestamp: time.Now().UTC()}
}

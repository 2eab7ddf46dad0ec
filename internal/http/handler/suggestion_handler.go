package handler

import (
	"encoding/json"
	"net/http"

	"github.com/debatehq/debate-service/internal/http/response"
	"github.com/debatehq/debate-service/internal/service"
)

type SuggestionHandler struct {
	content *service.ContentService
}

func NewSuggestionHandler(content *service.ContentService) *SuggestionHandler {
	return &SuggestionHandler{content: content}
}

type createSuggestionRequest struct {
	Body    string `json:"body"`
	Contact string `json:"contact"`
}

func (h *SuggestionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createSuggestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, http.StatusBadRequest, "invalid_body", "request body must be valid JSON", nil)
		return
	}
	s, err := h.content.CreateSuggestion(r.Context(), req.Body, req.Contact)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusCreated, s)
}

package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/debatehq/debate-service/internal/http/middleware"
	"github.com/debatehq/debate-service/internal/http/response"
	"github.com/debatehq/debate-service/internal/service"
)

type QuestionHandler struct {
	content *service.ContentService
}

func NewQuestionHandler(content *service.ContentService) *QuestionHandler {
	return &QuestionHandler{content: content}
}

type createQuestionRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type createAnswerRequest struct {
	Body string `json:"body"`
	Name string `json:"name"`
}

func (h *QuestionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createQuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, http.StatusBadRequest, "invalid_body", "request body must be valid JSON", nil)
		return
	}
	q, err := h.content.CreateQuestion(r.Context(), req.Title, req.Body)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusCreated, q)
}

func (h *QuestionHandler) List(w http.ResponseWriter, r *http.Request) {
	questions, err := h.content.ListQuestions(r.Context())
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"questions": questions})
}

func (h *QuestionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	detail, err := h.content.GetQuestion(r.Context(), id, middleware.IdentityFromContext(r.Context()))
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, detail)
}

func (h *QuestionHandler) CreateAnswer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req createAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, http.StatusBadRequest, "invalid_body", "request body must be valid JSON", nil)
		return
	}
	a, err := h.content.CreateAnswer(r.Context(), id, req.Body, req.Name)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusCreated, a)
}

// pathID parses a positive numeric chi path parameter, answering 400 itself
// when the segment is not one.
func pathID(w http.ResponseWriter, r *http.Request, name string) (uint, bool) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		response.Error(w, r, http.StatusBadRequest, "invalid_id", "path id must be a positive integer", nil)
		return 0, false
	}
	return uint(id), true
}

package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/debatehq/debate-service/internal/http/response"
	"github.com/debatehq/debate-service/internal/observability"
	"github.com/debatehq/debate-service/internal/repository"
	"github.com/debatehq/debate-service/internal/security"
	"github.com/debatehq/debate-service/internal/service"
)

type AdminHandler struct {
	admin         *service.AdminService
	tokenTTL      time.Duration
	secureCookies bool
}

func NewAdminHandler(admin *service.AdminService, tokenTTL time.Duration, secureCookies bool) *AdminHandler {
	return &AdminHandler{admin: admin, tokenTTL: tokenTTL, secureCookies: secureCookies}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, http.StatusBadRequest, "invalid_body", "request body must be valid JSON", nil)
		return
	}
	token, err := h.admin.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		observability.Audit(r, "admin.login_failed", "username", req.Username)
		response.FromError(w, r, err)
		return
	}
	security.SetAdminTokenCookie(w, token, h.tokenTTL, h.secureCookies)
	observability.Audit(r, "admin.login", "username", req.Username)
	response.JSON(w, r, http.StatusOK, map[string]any{
		"token":      token,
		"expires_in": int(h.tokenTTL.Seconds()),
	})
}

func (h *AdminHandler) Logout(w http.ResponseWriter, r *http.Request) {
	security.ClearAdminTokenCookie(w, h.secureCookies)
	response.JSON(w, r, http.StatusOK, map[string]string{"status": "logged_out"})
}

func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.admin.Stats(r.Context())
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, stats)
}

func (h *AdminHandler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	page, err := h.admin.ListQuestions(r.Context(), pageRequest(r))
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, page)
}

func (h *AdminHandler) ListAnswers(w http.ResponseWriter, r *http.Request) {
	page, err := h.admin.ListAnswers(r.Context(), pageRequest(r))
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, page)
}

func (h *AdminHandler) ListSuggestions(w http.ResponseWriter, r *http.Request) {
	page, err := h.admin.ListSuggestions(r.Context(), pageRequest(r))
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, page)
}

func (h *AdminHandler) DeleteQuestion(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.admin.DeleteQuestion(r.Context(), id); err != nil {
		response.FromError(w, r, err)
		return
	}
	observability.Audit(r, "admin.question_deleted", "question_id", id)
	response.JSON(w, r, http.StatusOK, map[string]any{"deleted": id})
}

func (h *AdminHandler) DeleteAnswer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.admin.DeleteAnswer(r.Context(), id); err != nil {
		response.FromError(w, r, err)
		return
	}
	observability.Audit(r, "admin.answer_deleted", "answer_id", id)
	response.JSON(w, r, http.StatusOK, map[string]any{"deleted": id})
}

func (h *AdminHandler) DeleteSuggestion(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.admin.DeleteSuggestion(r.Context(), id); err != nil {
		response.FromError(w, r, err)
		return
	}
	observability.Audit(r, "admin.suggestion_deleted", "suggestion_id", id)
	response.JSON(w, r, http.StatusOK, map[string]any{"deleted": id})
}

func pageRequest(r *http.Request) repository.PageRequest {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	size, _ := strconv.Atoi(q.Get("page_size"))
	return repository.PageRequest{Page: page, PageSize: size}
}

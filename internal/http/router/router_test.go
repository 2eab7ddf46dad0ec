package router

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/debatehq/debate-service/internal/domain"
	"github.com/debatehq/debate-service/internal/health"
	"github.com/debatehq/debate-service/internal/http/handler"
	"github.com/debatehq/debate-service/internal/repository"
	"github.com/debatehq/debate-service/internal/security"
	"github.com/debatehq/debate-service/internal/service"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&domain.Question{},
		&domain.Answer{},
		&domain.Suggestion{},
		&domain.QuestionVote{},
		&domain.AnswerVote{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	questions := repository.NewQuestionRepository(db)
	answers := repository.NewAnswerRepository(db)
	suggestions := repository.NewSuggestionRepository(db)
	votes := repository.NewVoteRepository(db)

	voteSvc := service.NewVoteService(questions, answers, votes, "router-test-secret", 24*time.Hour)
	contentSvc := service.NewContentService(questions, answers, suggestions, voteSvc, 50)

	passwordHash, err := security.HashPassword("hunter2")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	tokens := security.NewAdminTokenManager("debate-service", "debate-admin", "router-test-admin-secret")
	adminSvc := service.NewAdminService(questions, answers, suggestions, votes,
		"admin", passwordHash, tokens, time.Hour)

	return NewRouter(Dependencies{
		QuestionHandler:   handler.NewQuestionHandler(contentSvc),
		VoteHandler:       handler.NewVoteHandler(voteSvc),
		SuggestionHandler: handler.NewSuggestionHandler(contentSvc),
		AdminHandler:      handler.NewAdminHandler(adminSvc, time.Hour, false),
		AdminTokens:       tokens,
		CORSOrigins:       []string{"http://localhost"},
		APIRateLimitRPM:   1000,
		Readiness:         health.NewProbeRunner(time.Second, health.DatabaseCheck(db)),
	})
}

func perform(r http.Handler, method, target string, headers map[string]string, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.RemoteAddr = "10.10.10.10:1234"
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

type testEnvelope struct {
	Success bool           `json:"success"`
	Data    map[string]any `json:"data"`
	Error   *struct {
		Code string `json:"code"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) testEnvelope {
	t.Helper()
	var env testEnvelope
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v body=%s", err, rr.Body.String())
	}
	return env
}

func TestHealthEndpoints(t *testing.T) {
	r := newTestRouter(t)

	rr := perform(r, http.MethodGet, "/health/live", nil, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("live: %d", rr.Code)
	}
	rr = perform(r, http.MethodGet, "/health/ready", nil, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("ready: %d %s", rr.Code, rr.Body.String())
	}
}

func TestQuestionLifecycle(t *testing.T) {
	r := newTestRouter(t)

	rr := perform(r, http.MethodPost, "/api/v1/questions", nil, `{"title":"first question","body":"details"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create question: %d %s", rr.Code, rr.Body.String())
	}
	env := decodeEnvelope(t, rr)
	if !env.Success {
		t.Fatalf("create question envelope: %+v", env)
	}
	questionID, ok := env.Data["id"].(float64)
	if !ok || questionID == 0 {
		t.Fatalf("question id missing: %+v", env.Data)
	}

	rr = perform(r, http.MethodPost,
		fmt.Sprintf("/api/v1/questions/%.0f/answers", questionID), nil, `{"body":"an answer","name":"sam"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create answer: %d %s", rr.Code, rr.Body.String())
	}

	rr = perform(r, http.MethodGet, "/api/v1/questions", nil, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("list: %d", rr.Code)
	}
	rr = perform(r, http.MethodGet, fmt.Sprintf("/api/v1/questions/%.0f", questionID), nil, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("detail: %d %s", rr.Code, rr.Body.String())
	}

	rr = perform(r, http.MethodPost, "/api/v1/questions", nil, `{"title":""}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("blank title: %d", rr.Code)
	}
	rr = perform(r, http.MethodGet, "/api/v1/questions/99999", nil, "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("missing question: %d", rr.Code)
	}
	rr = perform(r, http.MethodGet, "/api/v1/questions/not-a-number", nil, "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("bad id: %d", rr.Code)
	}
}

func TestPublicRoutesSetIdentityCookie(t *testing.T) {
	r := newTestRouter(t)

	rr := perform(r, http.MethodPost, "/api/v1/questions", nil, `{"title":"cookie test"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create: %d", rr.Code)
	}
	var got *http.Cookie
	for _, c := range rr.Result().Cookies() {
		if c.Name == security.IdentityCookieName {
			got = c
		}
	}
	if got == nil || got.Value == "" {
		t.Fatal("public routes must set the identity cookie")
	}
}

func TestSuggestionEndpoint(t *testing.T) {
	r := newTestRouter(t)

	rr := perform(r, http.MethodPost, "/api/v1/suggestions", nil, `{"body":"please add search","contact":"me@example.com"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create suggestion: %d %s", rr.Code, rr.Body.String())
	}
	rr = perform(r, http.MethodPost, "/api/v1/suggestions", nil, `{"body":""}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("blank suggestion: %d", rr.Code)
	}
}

func TestAdminAuthFlow(t *testing.T) {
	r := newTestRouter(t)

	rr := perform(r, http.MethodGet, "/api/v1/admin/stats", nil, "")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated stats: %d", rr.Code)
	}

	rr = perform(r, http.MethodPost, "/api/v1/admin/login", nil, `{"username":"admin","password":"wrong"}`)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("bad login: %d", rr.Code)
	}

	rr = perform(r, http.MethodPost, "/api/v1/admin/login", nil, `{"username":"admin","password":"hunter2"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("login: %d %s", rr.Code, rr.Body.String())
	}
	env := decodeEnvelope(t, rr)
	token, _ := env.Data["token"].(string)
	if token == "" {
		t.Fatalf("login should return a token: %+v", env.Data)
	}

	rr = perform(r, http.MethodGet, "/api/v1/admin/stats",
		map[string]string{"Authorization": "Bearer " + token}, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("authed stats: %d %s", rr.Code, rr.Body.String())
	}

	rr = perform(r, http.MethodGet, "/api/v1/admin/stats",
		map[string]string{"Authorization": "Bearer nonsense"}, "")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("garbage token: %d", rr.Code)
	}
}

func TestRequestBodyTooLarge(t *testing.T) {
	r := newTestRouter(t)
	body := fmt.Sprintf(`{"title":"big","body":%q}`, strings.Repeat("x", 2<<20))
	rr := perform(r, http.MethodPost, "/api/v1/questions", nil, body)
	if rr.Code == http.StatusCreated {
		t.Fatal("oversized body should be rejected")
	}
}

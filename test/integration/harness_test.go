package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/debatehq/debate-service/internal/domain"
	"github.com/debatehq/debate-service/internal/http/handler"
	"github.com/debatehq/debate-service/internal/http/router"
	"github.com/debatehq/debate-service/internal/repository"
	"github.com/debatehq/debate-service/internal/security"
	"github.com/debatehq/debate-service/internal/service"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

const (
	adminUsername = "admin"
	adminPassword = "integration-password"
)

// newTestServer boots the full router on an in-memory database and returns
// its base URL. Each call to newClient is one anonymous browser.
func newTestServer(t *testing.T) (string, func()) {
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

	voteSvc := service.NewVoteService(questions, answers, votes, "integration-secret", 24*time.Hour)
	contentSvc := service.NewContentService(questions, answers, suggestions, voteSvc, 50)

	passwordHash, err := security.HashPassword(adminPassword)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	tokens := security.NewAdminTokenManager("debate-service", "debate-admin", "integration-admin-secret")
	adminSvc := service.NewAdminService(questions, answers, suggestions, votes,
		adminUsername, passwordHash, tokens, time.Hour)

	h := router.NewRouter(router.Dependencies{
		QuestionHandler:   handler.NewQuestionHandler(contentSvc),
		VoteHandler:       handler.NewVoteHandler(voteSvc),
		SuggestionHandler: handler.NewSuggestionHandler(contentSvc),
		AdminHandler:      handler.NewAdminHandler(adminSvc, time.Hour, false),
		AdminTokens:       tokens,
		APIRateLimitRPM:   10000,
	})

	srv := httptest.NewServer(h)
	return srv.URL, srv.Close
}

// newClient returns an HTTP client with its own cookie jar, so the identity
// cookie minted on the first request sticks for the rest of the session.
func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return &http.Client{Jar: jar, Timeout: 10 * time.Second}
}

func doJSON(t *testing.T, client *http.Client, method, url string, headers map[string]string, body any) (*http.Response, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope from %s %s: %v", method, url, err)
	}
	return resp, env
}

func dataMap(t *testing.T, env envelope) map[string]any {
	t.Helper()
	var data map[string]any
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	return data
}

func idFrom(t *testing.T, env envelope) uint {
	t.Helper()
	data := dataMap(t, env)
	id, ok := data["id"].(float64)
	if !ok || id == 0 {
		t.Fatalf("missing id in data: %+v", data)
	}
	return uint(id)
}

package router

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/debatehq/debate-service/internal/health"
	"github.com/debatehq/debate-service/internal/http/handler"
	"github.com/debatehq/debate-service/internal/http/middleware"
	"github.com/debatehq/debate-service/internal/http/response"
	"github.com/debatehq/debate-service/internal/security"
)

type Dependencies struct {
	QuestionHandler   *handler.QuestionHandler
	VoteHandler       *handler.VoteHandler
	SuggestionHandler *handler.SuggestionHandler
	AdminHandler      *handler.AdminHandler
	AdminTokens       *security.AdminTokenManager
	AdminAllowlist    []string
	Logger            *slog.Logger
	CORSOrigins       []string
	APIRateLimitRPM   int
	GlobalRateLimiter func(http.Handler) http.Handler
	SecureCookies     bool
	Readiness         *health.ProbeRunner
	EnableOTelHTTP    bool
}

func NewRouter(dep Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	if dep.Logger != nil {
		r.Use(middleware.RequestLogger(dep.Logger))
	}
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(dep.CORSOrigins))
	r.Use(middleware.BodyLimit(1 << 20))
	if dep.GlobalRateLimiter != nil {
		r.Use(dep.GlobalRateLimiter)
	} else {
		r.Use(middleware.NewRateLimiter(dep.APIRateLimitRPM, time.Minute).Middleware())
	}

	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		if dep.Readiness == nil {
			response.JSON(w, r, http.StatusOK, map[string]any{"status": "ready", "checks": []any{}})
			return
		}
		ready, results := dep.Readiness.Ready(r.Context())
		if ready {
			response.JSON(w, r, http.StatusOK, map[string]any{"status": "ready", "checks": results})
			return
		}
		response.Error(w, r, http.StatusServiceUnavailable, "dependency_unready", "dependencies are not ready", map[string]any{"checks": results})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.IdentityMiddleware(dep.SecureCookies))
			r.Get("/questions", dep.QuestionHandler.List)
			r.Post("/questions", dep.QuestionHandler.Create)
			r.Get("/questions/{id}", dep.QuestionHandler.Get)
			r.Post("/questions/{id}/answers", dep.QuestionHandler.CreateAnswer)
			r.Get("/questions/{id}/votes", dep.VoteHandler.Counts)
			r.Post("/questions/{id}/vote", dep.VoteHandler.CastQuestionVote)
			r.Post("/questions/{id}/answers/{answerID}/vote", dep.VoteHandler.CastAnswerVote)
			r.Post("/suggestions", dep.SuggestionHandler.Create)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Post("/login", dep.AdminHandler.Login)
			r.Group(func(r chi.Router) {
				r.Use(middleware.AdminAuthMiddleware(dep.AdminTokens, dep.AdminAllowlist))
				r.Post("/logout", dep.AdminHandler.Logout)
				r.Get("/stats", dep.AdminHandler.Stats)
				r.Get("/questions", dep.AdminHandler.ListQuestions)
				r.Get("/answers", dep.AdminHandler.ListAnswers)
				r.Get("/suggestions", dep.AdminHandler.ListSuggestions)
				r.Delete("/questions/{id}", dep.AdminHandler.DeleteQuestion)
				r.Delete("/answers/{id}", dep.AdminHandler.DeleteAnswer)
				r.Delete("/suggestions/{id}", dep.AdminHandler.DeleteSuggestion)
			})
		})
	})

	var h http.Handler = r
	if dep.EnableOTelHTTP {
		h = otelhttp.NewHandler(r, "http.server")
	}
	return h
}

package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/debatehq/debate-service/internal/config"
	"github.com/debatehq/debate-service/internal/domain"
	"github.com/debatehq/debate-service/internal/health"
	"github.com/debatehq/debate-service/internal/http/handler"
	"github.com/debatehq/debate-service/internal/http/middleware"
	"github.com/debatehq/debate-service/internal/http/router"
	"github.com/debatehq/debate-service/internal/observability"
	"github.com/debatehq/debate-service/internal/repository"
	"github.com/debatehq/debate-service/internal/security"
	"github.com/debatehq/debate-service/internal/service"
)

type App struct {
	Config        *config.Config
	Logger        *slog.Logger
	DB            *gorm.DB
	Redis         *redis.Client
	Server        *http.Server
	Observability *observability.Runtime
}

// Build wires the full service: database, optional redis, vote ledger and
// content services, the admin surface, and the HTTP server around them.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger, runtime *observability.Runtime) (*App, error) {
	db, err := OpenDatabase(cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	questions := repository.NewQuestionRepository(db)
	answers := repository.NewAnswerRepository(db)
	suggestions := repository.NewSuggestionRepository(db)
	votes := repository.NewVoteRepository(db)

	voteSvc := service.NewVoteService(questions, answers, votes, cfg.IdentitySecret, cfg.VoteSubnetWindow)
	contentSvc := service.NewContentService(questions, answers, suggestions, voteSvc, cfg.QuestionListLimit)

	adminTokens := security.NewAdminTokenManager("debate-service", "debate-admin", cfg.AdminTokenSecret)
	adminSvc := service.NewAdminService(questions, answers, suggestions, votes,
		cfg.AdminUsername, cfg.AdminPasswordHash, adminTokens, cfg.AdminTokenTTL)

	checks := []health.Check{health.DatabaseCheck(db)}
	var redisClient *redis.Client
	var globalLimiter func(http.Handler) http.Handler
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unreachable at startup", "addr", cfg.RedisAddr, "error", err.Error())
		}
		checks = append(checks, health.RedisCheck(redisClient))
		mode := middleware.FailClosed
		if cfg.RateLimitFailOpen {
			mode = middleware.FailOpen
		}
		limiter := middleware.NewRedisSlidingWindowLimiter(redisClient, "debate:ratelimit")
		globalLimiter = middleware.NewRateLimiterWith(limiter, cfg.APIRateLimitRPM, time.Minute, mode, "api").Middleware()
	}

	h := router.NewRouter(router.Dependencies{
		QuestionHandler:   handler.NewQuestionHandler(contentSvc),
		VoteHandler:       handler.NewVoteHandler(voteSvc),
		SuggestionHandler: handler.NewSuggestionHandler(contentSvc),
		AdminHandler:      handler.NewAdminHandler(adminSvc, cfg.AdminTokenTTL, cfg.SecureCookies),
		AdminTokens:       adminTokens,
		AdminAllowlist:    cfg.AdminAllowlist,
		Logger:            logger,
		CORSOrigins:       cfg.CORSOrigins,
		APIRateLimitRPM:   cfg.APIRateLimitRPM,
		GlobalRateLimiter: globalLimiter,
		SecureCookies:     cfg.SecureCookies,
		Readiness:         health.NewProbeRunner(2*time.Second, checks...),
		EnableOTelHTTP:    cfg.EnableOTelHTTP,
	})

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	return &App{
		Config:        cfg,
		Logger:        logger,
		DB:            db,
		Redis:         redisClient,
		Server:        server,
		Observability: runtime,
	}, nil
}

// Run serves until ctx is cancelled, then drains within the configured
// shutdown timeout.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Logger.Info("http server listening", "addr", a.Server.Addr, "environment", a.Config.Environment)
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		a.Logger.Info("shutting down", "timeout", a.Config.ShutdownTimeout.String())
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.ShutdownTimeout)
		defer cancel()
		return a.Server.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	a.Close()
	return err
}

func (a *App) Close() {
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Logger.Warn("redis close failed", "error", err.Error())
		}
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			a.Logger.Warn("database close failed", "error", err.Error())
		}
	}
}

func OpenDatabase(cfg *config.Config) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
		TranslateError: true,
	}
	switch cfg.DBDriver {
	case "postgres":
		return gorm.Open(postgres.Open(cfg.DBDSN), gormCfg)
	case "sqlite":
		return gorm.Open(sqlite.Open(cfg.DBDSN), gormCfg)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DBDriver)
	}
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.Question{},
		&domain.Answer{},
		&domain.Suggestion{},
		&domain.QuestionVote{},
		&domain.AnswerVote{},
	)
}

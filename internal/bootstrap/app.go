// Package bootstrap wires configuration into the services shared by the API
// and worker binaries.
package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"resume-analyzer/internal/analyses"
	"resume-analyzer/internal/cache"
	"resume-analyzer/internal/fingerprint"
	"resume-analyzer/internal/llm"
	"resume-analyzer/internal/llm/gemini"
	"resume-analyzer/internal/llm/openai"
	"resume-analyzer/internal/queue"
	"resume-analyzer/internal/resumes"
	"resume-analyzer/internal/services/health"
	"resume-analyzer/internal/shared/auth"
	"resume-analyzer/internal/shared/config"
	"resume-analyzer/internal/shared/server"
	"resume-analyzer/internal/shared/server/middleware"
	"resume-analyzer/internal/shared/storage/db"
	"resume-analyzer/internal/shared/storage/object"
	localstore "resume-analyzer/internal/shared/storage/object/local"
	s3store "resume-analyzer/internal/shared/storage/object/s3"
	"resume-analyzer/internal/shared/telemetry"
	"resume-analyzer/internal/users"
)

const (
	llmRetryDelay = 300 * time.Millisecond
	cachePingWait = 3 * time.Second
)

// App holds shared dependencies.
type App struct {
	Config   config.Config
	Router   *gin.Engine
	DB       *sql.DB
	Store    object.ObjectStore
	Queue    queue.Client
	Consumer queue.Consumer
	Cache    *cache.Gateway
	Analyzer *llm.Analyzer

	Revocations *auth.Revoker

	UsersRepo    users.Repo
	ResumesRepo  resumes.Repo
	AnalysesRepo analyses.Repo

	UsersService    *users.Service
	ResumesService  *resumes.Service
	AnalysesService *analyses.Service
	HealthService   *health.Service

	closers []func() error
}

// Build prepares shared dependencies and the HTTP router.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	app := &App{Config: cfg}

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.DB = sqlDB
	if sqlDB != nil {
		app.closers = append(app.closers, sqlDB.Close)
	}

	if app.Store, err = buildStore(ctx, cfg); err != nil {
		app.Close()
		return nil, err
	}

	backend, closeBackend := buildCacheBackend(ctx, cfg)
	if closeBackend != nil {
		app.closers = append(app.closers, closeBackend)
	}
	app.Cache = cache.NewGateway(backend, cfg.CacheTTL)

	client, model := buildLLM(ctx, cfg)
	app.Analyzer = llm.NewAnalyzer(client, model, llmRetryDelay)

	if err := buildQueue(ctx, cfg, app); err != nil {
		app.Close()
		return nil, err
	}

	if err := buildServices(app, backend); err != nil {
		app.Close()
		return nil, err
	}
	return app, nil
}

// Close releases connections in reverse order of creation.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.database_memory", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
	if err != nil {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.database_memory", map[string]any{"reason": "connect failed", "error": err})
			return nil, nil
		}
		return nil, err
	}

	// Outside dev the schema is managed by cmd/migrate.
	if isDevLike(cfg.Env) {
		if err := db.RunMigrations(ctx, sqlDB); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case s3store.Provider:
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

// buildCacheBackend prefers Redis and falls back to the in-process store.
// An unreachable Redis is kept: the gateway treats its errors as misses and
// recovers once Redis answers again.
func buildCacheBackend(ctx context.Context, cfg config.Config) (cache.Backend, func() error) {
	if cfg.RedisURL == "" {
		telemetry.Info("bootstrap.cache_backend", map[string]any{"backend": "memory"})
		return cache.NewMemoryStore(0, 0), nil
	}

	store, err := cache.NewRedisStore(cfg.RedisURL)
	if err != nil {
		telemetry.Error("bootstrap.cache_backend_invalid", map[string]any{"error": err})
		return cache.NewMemoryStore(0, 0), nil
	}
	pingCtx, cancel := context.WithTimeout(ctx, cachePingWait)
	defer cancel()
	if err := store.Ping(pingCtx); err != nil {
		telemetry.Warn("bootstrap.cache_unreachable", map[string]any{"backend": "redis", "error": err})
	} else {
		telemetry.Info("bootstrap.cache_backend", map[string]any{"backend": "redis"})
	}
	return store, store.Close
}

// revocationStore keeps revoked token IDs out of the in-process cache, which
// evicts under load. Redis holds both.
func revocationStore(backend cache.Backend) auth.KV {
	if _, ok := backend.(*cache.MemoryStore); ok {
		return auth.NewMemoryKV(nil)
	}
	return backend
}

func buildLLM(ctx context.Context, cfg config.Config) (llm.Client, string) {
	switch cfg.LLMProvider {
	case "openai":
		c, err := openai.NewClient(cfg.OpenAIAPIKey, cfg.LLMModel)
		if err != nil {
			telemetry.Warn("bootstrap.llm_placeholder", map[string]any{"provider": "openai", "error": err})
			return llm.PlaceholderClient{}, modelOr(cfg.LLMModel, openai.DefaultModel)
		}
		return c, c.Model()
	default:
		c, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.LLMModel)
		if err != nil {
			telemetry.Warn("bootstrap.llm_placeholder", map[string]any{"provider": "gemini", "error": err})
			return llm.PlaceholderClient{}, modelOr(cfg.LLMModel, gemini.DefaultModel)
		}
		return c, c.Model()
	}
}

func buildQueue(ctx context.Context, cfg config.Config, app *App) error {
	switch cfg.QueueBackend {
	case "sqs":
		c, err := queue.NewSQSClient(ctx, queue.SQSConfig{
			Region:      cfg.AWSRegion,
			QueueURL:    cfg.SQSQueueURL,
			Concurrency: cfg.WorkerConcurrency,
		})
		if err != nil {
			return err
		}
		app.Queue, app.Consumer = c, c
	case "amqp":
		c, err := queue.NewAMQPClient(queue.AMQPConfig{
			URL:         cfg.AMQPURL,
			Queue:       cfg.AMQPQueue,
			Concurrency: cfg.WorkerConcurrency,
		})
		if err != nil {
			return err
		}
		app.Queue, app.Consumer = c, c
		app.closers = append(app.closers, c.Close)
	}
	return nil
}

func buildServices(app *App, backend cache.Backend) error {
	if app.DB != nil {
		app.UsersRepo = &users.PGRepo{DB: app.DB}
		app.ResumesRepo = &resumes.PGRepo{DB: app.DB}
		app.AnalysesRepo = &analyses.PGRepo{DB: app.DB}
	} else {
		app.UsersRepo = users.NewMemoryRepo()
		app.ResumesRepo = resumes.NewMemoryRepo()
		app.AnalysesRepo = analyses.NewMemoryRepo()
	}

	secret, err := auth.ResolveSecret(app.Config.JWTSecret, app.Config.Env)
	if err != nil {
		return err
	}
	tokens, err := auth.NewManager(secret, app.Config.JWTTTL)
	if err != nil {
		return err
	}
	revoker := auth.NewRevoker(revocationStore(backend))
	app.Revocations = revoker

	app.UsersService = users.NewService(app.UsersRepo, auth.NewHasher(), tokens, revoker)
	app.ResumesService = resumes.NewService(app.Store, app.ResumesRepo, app.Cache)
	if mem, ok := app.AnalysesRepo.(*analyses.MemoryRepo); ok {
		app.ResumesService.Dependents = mem
	}

	analysisSvc := analyses.NewService(app.AnalysesRepo, app.ResumesService, app.Cache, app.Analyzer)
	analysisSvc.Fingerprints = fingerprint.Generator{NormalizeResume: app.Config.CacheNormalizeResume}
	analysisSvc.Queue = app.Queue
	analysisSvc.CacheTTL = app.Config.CacheTTL
	if v := strings.TrimSpace(app.Config.AnalysisVersion); v != "" {
		analysisSvc.Version = v
	}
	app.AnalysesService = analysisSvc

	var dbPinger health.DBPinger
	if app.DB != nil {
		dbPinger = app.DB
	}
	app.HealthService = health.NewService(dbPinger, app.Cache, app.Analyzer)

	app.Router = server.NewRouter(server.RouterDeps{
		CORSAllowOrigins: app.Config.CORSAllowOrigin,
		Tokens:           tokens,
		Revocations:      revoker,
		AnalyzeLimiter:   middleware.NewRateLimiter(nil),
		HealthHandler:    health.NewHandler(app.HealthService),
		UserHandler:      users.NewHandler(app.UsersService),
		ResumeHandler:    resumes.NewHandler(app.ResumesService),
		AnalysisHandler:  analyses.NewHandler(analysisSvc),
		CacheHandler:     cache.NewHandler(app.Cache),
	})
	return nil
}

func modelOr(model, def string) string {
	if m := strings.TrimSpace(model); m != "" {
		return m
	}
	return def
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}

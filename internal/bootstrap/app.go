package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"resume-optimizer/internal/analyses"
	"resume-optimizer/internal/generations"
	"resume-optimizer/internal/llm"
	"resume-optimizer/internal/llm/gemini"
	openai "resume-optimizer/internal/llm/openai"
	"resume-optimizer/internal/optimizer"
	"resume-optimizer/internal/pipeline"
	"resume-optimizer/internal/sections"
	"resume-optimizer/internal/services/health"
	"resume-optimizer/internal/session"
	"resume-optimizer/internal/shared/auth"
	"resume-optimizer/internal/shared/config"
	"resume-optimizer/internal/shared/server"
	"resume-optimizer/internal/shared/storage/db"
	"resume-optimizer/internal/shared/storage/object"
	localstore "resume-optimizer/internal/shared/storage/object/local"
	miniostore "resume-optimizer/internal/shared/storage/object/minio"
	s3store "resume-optimizer/internal/shared/storage/object/s3"
	"resume-optimizer/internal/shared/telemetry"
	"resume-optimizer/resume/latex"
	"resume-optimizer/resume/render"
)

// App holds shared dependencies and the wired router.
type App struct {
	Config             config.Config
	Router             *gin.Engine
	DB                 *sql.DB
	Store              object.ObjectStore
	LLM                llm.Client
	Pipeline           *pipeline.Pipeline
	AnalysisSessions   session.Store[analyses.Session]
	GenerationSessions session.Store[generations.Session]
	GenerationsRepo    generations.Repo
	AnalysesService    *analyses.Service
	GenerationsService *generations.Service
	AnalysesHandler    *analyses.Handler
	GenerationsHandler *generations.Handler
	Verifier           *auth.Verifier
	Redis              *redis.Client
	// Sweepers purge expired sessions; the caller runs them.
	Sweepers []session.Sweeper
}

// Build prepares every dependency and the router.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	p, client, err := NewPipeline(ctx, cfg)
	if err != nil {
		return nil, err
	}

	verifier, err := auth.NewVerifier(cfg.JWTSecret, cfg.JWTAudience)
	if err != nil {
		return nil, fmt.Errorf("jwt verifier: %w", err)
	}

	app := &App{
		Config:   cfg,
		DB:       sqlDB,
		Store:    store,
		LLM:      client,
		Pipeline: p,
		Verifier: verifier,
	}

	if err := buildSessions(ctx, app); err != nil {
		return nil, err
	}
	if err := buildServices(app); err != nil {
		return nil, err
	}

	deps := server.RouterDeps{
		Config:      cfg,
		Verifier:    verifier,
		Health:      buildHealth(app),
		Analyses:    app.AnalysesHandler,
		Generations: app.GenerationsHandler,
	}
	if files, ok := store.(*localstore.Store); ok {
		deps.Files = files
	}
	app.Router = server.NewRouter(deps)

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if cfg.IsDevLike() {
			telemetry.Warn("bootstrap.db_missing", map[string]any{"fallback": "memory"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
	if err == nil {
		err = db.RunMigrations(ctx, sqlDB)
	}
	if err != nil {
		if cfg.IsDevLike() {
			telemetry.Warn("bootstrap.db_unavailable", map[string]any{"fallback": "memory", "error": err})
			return nil, nil
		}
		return nil, err
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, errors.New("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	case "minio":
		return miniostore.New(ctx, miniostore.Options{
			Endpoint:  cfg.MinIOEndpoint,
			AccessKey: cfg.MinIOAccessKey,
			SecretKey: cfg.MinIOSecretKey,
			Bucket:    cfg.MinIOBucket,
			UseSSL:    cfg.MinIOUseSSL,
			Region:    cfg.AWSRegion,
			// Artifacts outlive their session by at most a day.
			ExpireDays: 1,
		})
	default:
		return localstore.New(cfg.LocalStoreDir, cfg.PublicBaseURL, cfg.URLSigningKey), nil
	}
}

func buildLLM(ctx context.Context, cfg config.Config) (llm.Client, error) {
	var base llm.Client
	switch cfg.LLMProvider {
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			telemetry.Warn("bootstrap.llm_key_missing", map[string]any{"provider": "gemini"})
			return llm.PlaceholderClient{}, nil
		}
		c, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.LLMModel)
		if err != nil {
			return nil, err
		}
		base = c
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			telemetry.Warn("bootstrap.llm_key_missing", map[string]any{"provider": "openai"})
			return llm.PlaceholderClient{}, nil
		}
		c, err := openai.NewClient(cfg.OpenAIAPIKey, cfg.LLMModel)
		if err != nil {
			return nil, err
		}
		base = c
	default:
		return llm.PlaceholderClient{}, nil
	}
	return llm.WithRetry(base), nil
}

// NewPipeline wires the stages from cfg and returns the model client they share.
func NewPipeline(ctx context.Context, cfg config.Config) (*pipeline.Pipeline, llm.Client, error) {
	client, err := buildLLM(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	var classifier sections.Classifier = sections.Heuristic{}
	if cfg.Normalizer == "delegated" {
		classifier = sections.NewDelegated(client)
	}
	debugDir := ""
	if cfg.IsDevLike() && cfg.ScratchDir != "" {
		debugDir = filepath.Join(cfg.ScratchDir, "debug")
	}
	compiler := render.NewCompiler(cfg.PDFLatexBin, debugDir)
	compiler.WorkDir = cfg.ScratchDir
	html := render.NewHTMLRenderer(render.NewChromePrinter(cfg.ChromePath))
	return pipeline.New(classifier, optimizer.New(client), latex.NewSynthesizer(client), compiler, html), client, nil
}

func buildSessions(ctx context.Context, app *App) error {
	ttl := app.Config.SessionTTL
	if ttl <= 0 {
		ttl = session.DefaultTTL
	}
	if app.Config.SessionBackend != "redis" {
		app.AnalysisSessions = session.NewMemoryStore[analyses.Session](ttl)
		return nil
	}
	rdb, err := session.NewRedisClient(ctx, app.Config.RedisURL)
	if err != nil {
		return fmt.Errorf("redis sessions: %w", err)
	}
	app.Redis = rdb
	app.AnalysisSessions = session.NewRedisStore[analyses.Session](rdb, "analysis", ttl)
	app.GenerationSessions = session.NewRedisStore[generations.Session](rdb, "generation", ttl)
	return nil
}

func buildServices(app *App) error {
	ttl := app.Config.SessionTTL
	if ttl <= 0 {
		ttl = session.DefaultTTL
	}

	if app.DB != nil {
		app.GenerationsRepo = &generations.PGRepo{DB: app.DB}
	} else {
		app.GenerationsRepo = generations.NewMemoryRepo()
	}

	app.AnalysesService = analyses.NewService(app.Pipeline, app.AnalysisSessions, ttl)

	// The generation service and its session store reference each other: the
	// store calls back into the service when an entry expires.
	genSvc := generations.NewService(app.Pipeline, app.AnalysesService, nil, app.GenerationsRepo, app.Store)
	genSvc.URLTTL = app.Config.SignedURLTTL
	if app.Config.Renderer == "html" {
		genSvc.DefaultFormat = pipeline.FormatHTML
	}
	switch store := app.GenerationSessions.(type) {
	case nil:
		app.GenerationSessions = session.NewMemoryStore[generations.Session](ttl).OnExpire(genSvc.Expire)
	case *session.RedisStore[generations.Session]:
		store.OnExpire(genSvc.Expire)
	}
	genSvc.Sessions = app.GenerationSessions
	app.GenerationsService = genSvc

	app.AnalysesHandler = analyses.NewHandler(app.AnalysesService)
	app.GenerationsHandler = generations.NewHandler(genSvc, !app.Config.IsProduction())

	for _, s := range []any{app.AnalysisSessions, app.GenerationSessions} {
		if sw, ok := s.(session.Sweeper); ok {
			app.Sweepers = append(app.Sweepers, sw)
		}
	}
	if app.AnalysesHandler == nil || app.GenerationsHandler == nil {
		return errors.New("failed to initialize handlers")
	}
	return nil
}

func buildHealth(app *App) *health.Service {
	svc := health.NewService()
	if app.DB != nil {
		svc.Register("database", app.DB.PingContext)
	}
	if app.Redis != nil {
		svc.Register("sessions", func(ctx context.Context) error { return app.Redis.Ping(ctx).Err() })
	}
	if c, ok := app.Pipeline.Compiler.(*render.Compiler); ok && app.Config.Renderer == "latex" {
		svc.Register("compiler", c.Available)
	}
	return svc
}

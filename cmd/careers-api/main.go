package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/careers-admin-api/internal/repository"
	"github.com/noah-isme/careers-admin-api/internal/review"
	"github.com/noah-isme/careers-admin-api/internal/service"
	"github.com/noah-isme/careers-admin-api/internal/wizard"
	"github.com/noah-isme/careers-admin-api/pkg/cache"
	"github.com/noah-isme/careers-admin-api/pkg/config"
	"github.com/noah-isme/careers-admin-api/pkg/database"
	"github.com/noah-isme/careers-admin-api/pkg/jobs"
	"github.com/noah-isme/careers-admin-api/pkg/logger"
	"github.com/noah-isme/careers-admin-api/pkg/storage"
)

// @title Careers Admin API
// @version 1.0.0
// @description Public job board and application form, plus the back-office review board.
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	if err := database.EnsureSchema(ctx, db); err != nil {
		logr.Fatal("failed to apply schema", zap.Error(err))
	}

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, drafts stay in memory and the job cache is off", zap.Error(err))
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	app, err := buildApp(cfg, db, redisClient, logr)
	if err != nil {
		logr.Fatal("failed to build application", zap.Error(err))
	}

	if cfg.Admin.Email != "" && cfg.Admin.Password != "" {
		created, err := app.auth.EnsureAdmin(ctx, cfg.Admin.Email, cfg.Admin.Password, cfg.Admin.FullName)
		if err != nil {
			logr.Fatal("failed to bootstrap admin", zap.Error(err))
		}
		if created {
			logr.Info("bootstrap admin created", zap.String("email", cfg.Admin.Email))
		}
	}

	app.draftQueue.Start(ctx)
	go sweepSessions(ctx, app.wizard, cfg.Wizard.SessionIdleTTL, logr)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           newRouter(cfg, app, db, redisClient, logr),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("http shutdown incomplete", zap.Error(err))
	}
	app.wizard.Stop()
	app.draftQueue.Stop()
	app.wizard.FlushAll(shutdownCtx)
}

type application struct {
	metrics    *service.MetricsService
	auth       *service.AuthService
	jobs       *service.JobService
	review     *service.ReviewService
	wizard     *service.WizardService
	resumes    *service.ResumeService
	auditRepo  *repository.AuditRepository
	draftQueue *jobs.Queue
}

func buildApp(cfg *config.Config, db *sqlx.DB, redisClient *redis.Client, logr *zap.Logger) (*application, error) {
	validate := validator.New()
	metrics := service.NewMetricsService()

	appRepo := repository.NewApplicationRepository(db)
	jobRepo := repository.NewJobRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	userRepo := repository.NewUserRepository(db)

	var cacheRepo service.CacheRepository
	var draftStore wizard.DraftStore = wizard.NewMemoryDraftStore()
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient, "careers:", logr)
		draftStore = repository.NewDraftRepository(redisClient, cfg.Wizard.DraftTTL)
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Jobs.CacheTTL, logr, cfg.Jobs.CacheEnabled)

	var files *storage.LocalStorage
	if cfg.Resumes.StorageMode == config.ResumeStorageFilesystem {
		local, err := storage.NewLocalStorage(cfg.Resumes.StorageDir)
		if err != nil {
			return nil, fmt.Errorf("resume storage: %w", err)
		}
		files = local
	}
	signer := storage.NewSignedURLSigner(cfg.Resumes.SignedURLSecret, cfg.Resumes.SignedURLTTL)

	app := &application{metrics: metrics, auditRepo: auditRepo}
	app.auth = service.NewAuthService(userRepo, auditRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	app.jobs = service.NewJobService(jobRepo, cacheSvc, auditRepo, validate, logr, cfg.Jobs.CacheTTL)

	reviewCfg := service.ReviewConfig{
		Capabilities: review.Capabilities{Rating: cfg.Review.EnableRating, BulkActions: cfg.Review.EnableBulkActions},
		Paging:       review.PagingBounds{DefaultPageSize: cfg.Review.DefaultPageSize, MaxPageSize: cfg.Review.MaxPageSize},
	}
	wizardCfg := service.WizardConfig{
		Debounce: cfg.Wizard.DraftDebounce,
		Policy:   wizard.AttachmentPolicy{MaxBytes: cfg.Wizard.MaxResumeSizeBytes, Allowed: cfg.Wizard.AllowedMIMEs},
		IdleTTL:  cfg.Wizard.SessionIdleTTL,
	}

	// The queue handler closes over app.wizard, which is assigned right after.
	app.draftQueue = jobs.NewQueue("wizard-drafts", func(ctx context.Context, job jobs.Job) error {
		return app.wizard.HandleDraftSave(ctx, job)
	}, jobs.QueueConfig{
		Workers:    cfg.Queue.Workers,
		MaxRetries: cfg.Queue.MaxRetries,
		RetryDelay: cfg.Queue.RetryDelay,
		Logger:     logr,
	})

	if files != nil {
		app.review = service.NewReviewService(appRepo, auditRepo, files, metrics, logr, reviewCfg)
		app.wizard = service.NewWizardService(draftStore, appRepo, jobRepo, files, app.draftQueue, auditRepo, metrics, validate, logr, wizardCfg)
		app.resumes = service.NewResumeService(appRepo, files, signer, cfg.APIPrefix+"/resumes/download", logr)
	} else {
		app.review = service.NewReviewService(appRepo, auditRepo, nil, metrics, logr, reviewCfg)
		app.wizard = service.NewWizardService(draftStore, appRepo, jobRepo, nil, app.draftQueue, auditRepo, metrics, validate, logr, wizardCfg)
		app.resumes = service.NewResumeService(appRepo, nil, signer, cfg.APIPrefix+"/resumes/download", logr)
	}
	return app, nil
}

func sweepSessions(ctx context.Context, svc *service.WizardService, idle time.Duration, logr *zap.Logger) {
	interval := idle / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := svc.Sweep(idle); n > 0 {
				logr.Info("wizard sessions evicted", zap.Int("count", n), zap.Int("active", svc.Active()))
			}
		}
	}
}

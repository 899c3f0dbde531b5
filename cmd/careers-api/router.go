package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/careers-admin-api/api/swagger"
	"github.com/noah-isme/careers-admin-api/internal/handler"
	"github.com/noah-isme/careers-admin-api/internal/middleware"
	"github.com/noah-isme/careers-admin-api/internal/models"
	"github.com/noah-isme/careers-admin-api/pkg/cache"
	"github.com/noah-isme/careers-admin-api/pkg/config"
	"github.com/noah-isme/careers-admin-api/pkg/database"
	"github.com/noah-isme/careers-admin-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/careers-admin-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/careers-admin-api/pkg/middleware/requestid"
)

func newRouter(cfg *config.Config, app *application, db *sqlx.DB, redisClient *redis.Client, logr *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(app.metrics))
	r.Use(middleware.WithResponseMeta())

	metricsHandler := handler.NewMetricsHandler(app.metrics, app.wizard)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", readiness(db, redisClient))
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	authHandler := handler.NewAuthHandler(app.auth, app.review.Capabilities())
	jobHandler := handler.NewJobHandler(app.jobs)
	reviewHandler := handler.NewReviewHandler(app.review)
	wizardHandler := handler.NewWizardHandler(app.wizard, cfg.Wizard.MaxResumeSizeBytes)
	resumeHandler := handler.NewResumeHandler(app.resumes, logr)

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)
	api.GET("/jobs", jobHandler.ListPublic)
	api.GET("/jobs/:id", jobHandler.GetPublic)
	api.GET("/resumes/download", resumeHandler.Download)

	form := api.Group("/wizard/:jobId")
	form.POST("", wizardHandler.Start)
	form.GET("", wizardHandler.State)
	form.DELETE("", wizardHandler.StartOver)
	form.PATCH("/fields", wizardHandler.SetFields)
	form.POST("/next", wizardHandler.Next)
	form.POST("/prev", wizardHandler.Prev)
	form.PUT("/resume", wizardHandler.AttachResume)
	form.POST("/submit", wizardHandler.Submit)

	secured := api.Group("", middleware.JWT(app.auth))
	secured.GET("/auth/me", authHandler.Me)

	admin := secured.Group("/admin", middleware.RequireRoles(models.RoleAdmin, models.RoleReviewer))
	admin.GET("/metrics", metricsHandler.Summary)

	apps := admin.Group("/applications")
	apps.GET("", reviewHandler.View)
	apps.GET("/board", reviewHandler.Current)
	apps.GET("/export", middleware.Audit(app.auditRepo, logr, models.AuditActionApplicationExport, "application"), reviewHandler.Export)
	apps.POST("/selection", reviewHandler.ToggleAll)
	apps.DELETE("/selection", reviewHandler.ClearSelection)
	apps.POST("/selection/:id", reviewHandler.ToggleSelection)
	apps.POST("/bulk/status", reviewHandler.BulkStatus)
	apps.POST("/bulk/delete", reviewHandler.BulkDelete)
	apps.GET("/:id", reviewHandler.Get)
	apps.DELETE("/:id", reviewHandler.Delete)
	apps.PATCH("/:id/status", reviewHandler.UpdateStatus)
	apps.PATCH("/:id/rating", reviewHandler.UpdateRating)
	apps.PATCH("/:id/notes", reviewHandler.UpdateNotes)
	apps.GET("/:id/history", reviewHandler.History)
	apps.GET("/:id/resume-url", middleware.Audit(app.auditRepo, logr, models.AuditActionResumeLink, "application"), resumeHandler.Link)

	postings := admin.Group("/jobs", middleware.RequireRoles(models.RoleAdmin))
	postings.GET("", jobHandler.ListAll)
	postings.POST("", jobHandler.Create)
	postings.PUT("/:id", jobHandler.Update)
	postings.DELETE("/:id", jobHandler.Delete)

	return r
}

func readiness(db *sqlx.DB, redisClient *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		checks := gin.H{"database": "ok", "redis": "disabled"}
		status := http.StatusOK
		if err := database.Check(ctx, db); err != nil {
			checks["database"] = err.Error()
			status = http.StatusServiceUnavailable
		}
		if redisClient != nil {
			checks["redis"] = "ok"
			if err := cache.Check(ctx, redisClient); err != nil {
				checks["redis"] = err.Error()
				status = http.StatusServiceUnavailable
			}
		}
		c.JSON(status, gin.H{"status": http.StatusText(status), "checks": checks})
	}
}

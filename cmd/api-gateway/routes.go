package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/noah-isme/officer-registry-api/internal/handler"
	"github.com/noah-isme/officer-registry-api/internal/middleware"
	"github.com/noah-isme/officer-registry-api/pkg/config"
)

type routeHandlers struct {
	auth           *handler.AuthHandler
	officers       *handler.OfficerHandler
	transfers      *handler.TransferHandler
	classification *handler.ClassificationHandler
	headcount      *handler.HeadcountHandler
	audit          *handler.AuditHandler
	exports        *handler.ExportHandler
	metrics        *handler.MetricsHandler
}

func registerRoutes(r *gin.Engine, cfg *config.Config, tokens middleware.TokenValidator, h routeHandlers) {
	r.GET("/health", h.metrics.Health)
	r.GET("/ready", h.metrics.Ready)
	r.GET("/metrics", h.metrics.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", h.auth.Login)

	secured := api.Group("")
	secured.Use(middleware.JWT(tokens))
	write := middleware.RequireRoles(middleware.WriteRoles...)

	secured.GET("/auth/me", h.auth.Me)
	secured.GET("/metrics/snapshot", h.metrics.Snapshot)

	officers := secured.Group("/officers")
	officers.GET("", h.officers.List)
	officers.GET("/lookup", h.officers.Lookup)
	officers.GET("/ref/:refNo", h.officers.GetByRefNo)
	officers.GET("/:id", h.officers.Get)
	officers.POST("", write, h.officers.Intake)
	officers.POST("/merge", write, h.officers.Merge)
	officers.PATCH("/:id/birthdate", write, h.officers.UpdateBirthdate)
	officers.POST("/:id/assignments", write, h.officers.AddAssignment)
	officers.DELETE("/:id/assignments/:assignmentId", write, h.officers.EndAssignment)
	officers.PUT("/:id/classification", write, h.classification.SetManual)
	officers.DELETE("/:id/classification", write, h.classification.ClearManual)
	officers.POST("/:id/classification/recompute", write, h.classification.Recompute)

	transfers := secured.Group("/transfers")
	transfers.GET("", h.transfers.ListTransfers)
	transfers.POST("/in", write, h.transfers.TransferIn)
	transfers.POST("/out", write, h.transfers.TransferOut)

	removals := secured.Group("/removals")
	removals.GET("", h.transfers.ListRemovals)
	removals.POST("", write, h.transfers.Remove)

	secured.POST("/views/:view/clear", write, h.transfers.ClearView)

	classifications := secured.Group("/classifications")
	classifications.GET("/delta", h.classification.Delta)
	classifications.GET("/changes", h.classification.Changes)
	classifications.GET("/upcoming-adults", h.classification.UpcomingAdults)
	classifications.POST("/recompute", write, h.classification.RecomputeCongregation)
	classifications.POST("/baselines/reset", write, h.classification.ResetBaseline)

	headcount := secured.Group("/headcount")
	headcount.GET("", h.headcount.Get)
	headcount.GET("/verify", h.headcount.Verify)

	secured.GET("/audit", h.audit.List)

	if h.exports != nil {
		exports := secured.Group("/exports")
		exports.GET("/headcount", h.exports.Headcount)
		exports.GET("/transfers", h.exports.Transfers)
	}
}

package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	_ "github.com/noah-isme/officer-registry-api/api/swagger"
	"github.com/noah-isme/officer-registry-api/internal/handler"
	"github.com/noah-isme/officer-registry-api/internal/middleware"
	"github.com/noah-isme/officer-registry-api/internal/repository"
	"github.com/noah-isme/officer-registry-api/internal/service"
	"github.com/noah-isme/officer-registry-api/pkg/cache"
	"github.com/noah-isme/officer-registry-api/pkg/cipher"
	"github.com/noah-isme/officer-registry-api/pkg/config"
	"github.com/noah-isme/officer-registry-api/pkg/database"
	"github.com/noah-isme/officer-registry-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/officer-registry-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/officer-registry-api/pkg/middleware/requestid"
)

// @title Officer Registry API
// @version 1.0.0
// @description Officer lifecycle, transfer ledger, headcount and classification service
// @BasePath /api/v1
// @schemes http
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

	db, err := database.Open(cfg.Database)
	if err != nil {
		logr.Fatal("failed to open database", zap.String("driver", cfg.Database.Driver), zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	bootCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(bootCtx, db); err != nil {
			logr.Fatal("failed to apply migrations", zap.Error(err))
		}
		logr.Info("migrations applied", zap.String("driver", db.DriverName()))
	}

	fieldCipher, err := cipher.New(cfg.Cipher.MasterKey)
	if err != nil {
		logr.Fatal("failed to init field cipher", zap.Error(err))
	}

	metrics := service.NewMetricsService()
	validate := validator.New()

	var cacheSvc *service.CacheService
	if cfg.Cache.Enabled {
		client, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, headcount cache disabled", zap.Error(err))
		} else {
			defer client.Close() //nolint:errcheck
			cacheSvc = service.NewCacheService(repository.NewCacheRepository(client, logr), metrics, cfg.Cache.HeadcountTTL, logr, true)
		}
	}

	authz := buildAuthorizer(cfg.Authz, logr)
	classifier := service.NewAgeClassifier(cfg.Classification.YouthMinAge, cfg.Classification.AdultMinAge)

	officerRepo := repository.NewOfficerRepository(db)
	lifecycleRepo := repository.NewLifecycleRepository(db)
	transferRepo := repository.NewTransferRepository(db)
	removalRepo := repository.NewRemovalRepository(db)
	headcountRepo := repository.NewHeadcountRepository(db)
	classificationRepo := repository.NewClassificationRepository(db)
	markerRepo := repository.NewViewMarkerRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	userRepo := repository.NewUserRepository(db)

	authSvc := service.NewAuthService(userRepo, auditRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	headcountSvc := service.NewHeadcountService(headcountRepo, authz, cacheSvc, metrics, cfg.Cache.HeadcountTTL, logr)
	officerSvc := service.NewOfficerService(officerRepo, transferRepo, fieldCipher, authz, classifier, metrics, validate, logr)
	lifecycleSvc := service.NewLifecycleService(lifecycleRepo, officerRepo, fieldCipher, authz, validate, logr,
		service.WithLifecycleClassifier(classifier),
		service.WithLifecycleHeadcount(headcountRepo, headcountSvc),
		service.WithLifecycleMetrics(metrics),
	)
	classificationSvc := service.NewClassificationService(classificationRepo, officerRepo, markerRepo, fieldCipher, authz, classifier,
		service.ClassificationWindows{Week: cfg.Classification.WeekWindow, Month: cfg.Classification.MonthWindow},
		metrics, validate, logr)
	ledgerSvc := service.NewLedgerService(transferRepo, removalRepo, markerRepo, fieldCipher, authz, metrics, validate, logr)
	auditSvc := service.NewAuditService(auditRepo, validate)

	if err := authSvc.EnsureBootstrapAdmin(bootCtx, service.BootstrapAdmin{
		Email:    cfg.Bootstrap.AdminEmail,
		Password: cfg.Bootstrap.AdminPassword,
		FullName: cfg.Bootstrap.AdminName,
	}); err != nil {
		logr.Fatal("failed to seed bootstrap admin", zap.Error(err))
	}
	if err := headcountSvc.Flush(bootCtx); err != nil {
		logr.Warn("failed to flush headcount cache", zap.Error(err))
	}

	handlers := routeHandlers{
		auth:           handler.NewAuthHandler(authSvc),
		officers:       handler.NewOfficerHandler(officerSvc, lifecycleSvc),
		transfers:      handler.NewTransferHandler(lifecycleSvc, ledgerSvc),
		classification: handler.NewClassificationHandler(classificationSvc),
		headcount:      handler.NewHeadcountHandler(headcountSvc),
		audit:          handler.NewAuditHandler(auditSvc),
		metrics:        handler.NewMetricsHandler(metrics, db),
	}
	if cfg.Exports.Enabled {
		handlers.exports = handler.NewExportHandler(service.NewExportService(headcountSvc, ledgerSvc, validate, logr))
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))
	r.Use(middleware.AuditContext())

	registerRoutes(r, cfg, authSvc, handlers)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env, "db_driver", db.DriverName(), "authz_mode", cfg.Authz.Mode)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

func buildAuthorizer(cfg config.AuthzConfig, logr *zap.Logger) service.ScopeAuthorizer {
	if cfg.Mode == config.AuthzModeRemote {
		if cfg.URL == "" {
			logr.Fatal("AUTHZ_URL is required when AUTHZ_MODE=remote")
		}
		return service.NewRemoteScopeAuthorizer(cfg.URL, cfg.Timeout, logr)
	}
	return service.NewClaimsScopeAuthorizer()
}

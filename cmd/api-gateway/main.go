package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/edutrack-api/api/swagger"
	"github.com/noah-isme/edutrack-api/internal/handler"
	"github.com/noah-isme/edutrack-api/internal/middleware"
	"github.com/noah-isme/edutrack-api/internal/repository"
	"github.com/noah-isme/edutrack-api/internal/service"
	"github.com/noah-isme/edutrack-api/pkg/cache"
	"github.com/noah-isme/edutrack-api/pkg/config"
	"github.com/noah-isme/edutrack-api/pkg/database"
	"github.com/noah-isme/edutrack-api/pkg/logger"
	"github.com/noah-isme/edutrack-api/pkg/notify"
	"github.com/noah-isme/edutrack-api/pkg/storage"
)

// @title EduTrack API
// @version 1.0.0
// @description School administration API: students, teachers, classes, courses, grades and settings.
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger) error {
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, db.DB, logr); err != nil {
			return err
		}
	}

	metrics := service.NewMetricsService()

	redisClient, err := cache.NewRedis(ctx, cfg.Redis, cfg.Cache)
	if err != nil {
		logr.Warn("redis unavailable, caching disabled", zap.Error(err))
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}
	var cacheRepo service.CacheRepository
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient)
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.TTL, logr, redisClient != nil)

	issuer := service.NewTokenIssuer(service.TokenConfig{
		Secret:       cfg.JWT.Secret,
		Issuer:       cfg.JWT.Issuer,
		Expiration:   cfg.JWT.Expiration,
		RefreshAfter: cfg.JWT.RefreshAfter,
	})
	if issuer.Sealed() {
		logr.Error("JWT_SECRET is not set: sign-in is disabled and every session token is rejected")
	}

	hasher, err := service.NewBcryptHasher(service.DefaultPasswordCost)
	if err != nil {
		return err
	}

	pictures, err := storage.NewLocalStorage(cfg.Pictures.StorageDir, cfg.Pictures.MaxFileSize)
	if err != nil {
		return fmt.Errorf("init picture storage: %w", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Pictures.SignedURLSecret, cfg.Pictures.SignedURLTTL)

	validate := service.NewValidator()
	userRepo := repository.NewUserRepository(db)
	authSvc := service.NewAuthService(userRepo, hasher, issuer, validate, logr, metrics)
	userSvc := service.NewUserService(service.UserServiceParams{
		Repo:      userRepo,
		Passwords: hasher,
		Pictures:  pictures,
		Signer:    signer,
		Validator: validate,
		Logger:    logr,
	})
	if _, err := userSvc.SeedAdmin(ctx, cfg.Seed.AdminPassword); err != nil {
		logr.Warn("admin seed skipped", zap.Error(err))
	}

	studentSvc := service.NewStudentService(repository.NewStudentRepository(db), cacheSvc, validate, logr)
	teacherSvc := service.NewTeacherService(repository.NewTeacherRepository(db), cacheSvc, validate, logr)
	classSvc := service.NewClassService(repository.NewClassRepository(db), cacheSvc, validate, logr)
	subjectSvc := service.NewSubjectService(repository.NewSubjectRepository(db), validate, logr)
	courseSvc := service.NewCourseService(repository.NewCourseRepository(db), cacheSvc, validate, logr)
	gradeSvc := service.NewGradeService(repository.NewGradeRepository(db), cacheSvc, validate, logr)
	settingsSvc := service.NewSettingsService(repository.NewSettingRepository(db), validate, logr)
	dashboardSvc := service.NewDashboardService(repository.NewDashboardRepository(db), cacheSvc, metrics, cfg.Cache.TTL, logr)

	templates, err := handler.LoadTemplates()
	if err != nil {
		return fmt.Errorf("parse templates: %w", err)
	}

	broker := notify.NewBroker(logr)
	cookie := middleware.SessionCookie{Name: cfg.Session.CookieName, Secure: cfg.Session.Secure}

	checks := map[string]handler.Pinger{"database": db}
	if redisClient != nil {
		checks["redis"] = redisPinger(redisClient)
	}

	router := handler.NewRouter(handler.Handlers{
		Auth:      handler.NewAuthHandler(authSvc, userSvc, cookie),
		Pages:     handler.NewPageHandler(authSvc, dashboardSvc, cookie, templates, logr),
		Students:  handler.NewStudentHandler(studentSvc, broker),
		Teachers:  handler.NewTeacherHandler(teacherSvc, broker),
		Catalog:   handler.NewCatalogHandler(classSvc, subjectSvc, broker),
		Courses:   handler.NewCourseHandler(courseSvc, broker),
		Grades:    handler.NewGradeHandler(gradeSvc, broker),
		Dashboard: handler.NewDashboardHandler(dashboardSvc),
		Settings:  handler.NewSettingsHandler(settingsSvc, broker),
		Users:     handler.NewUserHandler(userSvc, broker),
		Events:    handler.NewEventHandler(broker, 0),
		Metrics:   handler.NewMetricsHandler(metrics, checks),
	}, handler.RouterConfig{
		APIPrefix:      cfg.APIPrefix,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		EnableDocs:     cfg.Env != config.EnvProduction,
		Sessions:       authSvc,
		Guard: middleware.GuardConfig{
			CookieName:   cfg.Session.CookieName,
			SecureCookie: cfg.Session.Secure,
		},
		Audit:   userRepo,
		Metrics: metrics,
		Logger:  logr,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func redisPinger(client *redis.Client) handler.PingFunc {
	return func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}
}

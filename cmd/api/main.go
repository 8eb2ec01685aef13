package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/hris-correction-go/internal/config"
	"github.com/cmlabs-hris/hris-correction-go/internal/domain/correction"
	appHTTP "github.com/cmlabs-hris/hris-correction-go/internal/handler/http"
	"github.com/cmlabs-hris/hris-correction-go/internal/pkg/cron"
	"github.com/cmlabs-hris/hris-correction-go/internal/pkg/database"
	"github.com/cmlabs-hris/hris-correction-go/internal/pkg/hrisapi"
	"github.com/cmlabs-hris/hris-correction-go/internal/pkg/jwt"
	pkgRedis "github.com/cmlabs-hris/hris-correction-go/internal/pkg/redis"
	"github.com/cmlabs-hris/hris-correction-go/internal/pkg/sse"
	"github.com/cmlabs-hris/hris-correction-go/internal/repository/memory"
	"github.com/cmlabs-hris/hris-correction-go/internal/repository/postgresql"
	redisRepo "github.com/cmlabs-hris/hris-correction-go/internal/repository/redis"
	correctionService "github.com/cmlabs-hris/hris-correction-go/internal/service/correction"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Error loading config: ", err)
	}

	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.App.LogLevel)); err != nil {
		log.Fatal("Invalid LOG_LEVEL: ", err)
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	loc, err := cfg.Location()
	if err != nil {
		log.Fatal("Invalid APP_TIMEZONE: ", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL())
	if err != nil {
		log.Fatal("Error connecting to database: ", err)
	}
	defer db.Close()

	if cfg.Database.Migrate {
		if err := database.RunMigrations(db); err != nil {
			log.Fatal("Failed to run migrations: ", err)
		}
	}

	var drafts correction.DraftRepository
	switch cfg.Draft.Store {
	case config.DraftStoreRedis:
		rdb, err := pkgRedis.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Fatal("Failed to connect to redis: ", err)
		}
		defer rdb.Close()
		drafts = redisRepo.NewDraftRepository(rdb, cfg.Draft.TTL)
	default:
		drafts = memory.NewDraftRepository(cfg.Draft.TTL)
	}
	submissionRepo := postgresql.NewSubmissionRepository(db)

	var tokens hrisapi.TokenProvider
	switch cfg.HRISAPI.AuthMode {
	case config.AuthModeClientCredentials:
		tokens = hrisapi.ClientCredentials(cfg.HRISAPI.ClientID, cfg.HRISAPI.ClientSecret, cfg.HRISAPI.TokenURL, cfg.HRISAPI.Scopes)
	default:
		tokens = hrisapi.ForwardedToken()
	}
	attendanceClient := hrisapi.NewClient(cfg.HRISAPI.BaseURL, cfg.HRISAPI.Timeout, tokens)

	hub := sse.NewHub()
	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	correctionSvc := correctionService.NewCorrectionService(drafts, submissionRepo, attendanceClient, hub, loc, cfg.HRISAPI.Timeout)

	correctionHandler := appHTTP.NewCorrectionHandler(correctionSvc)
	streamHandler := appHTTP.NewStreamHandler(hub, JWTService)

	router := appHTTP.NewRouter(
		appHTTP.RouterOptions{
			Env:         cfg.App.Env,
			LogLevel:    logLevel,
			FrontendURL: cfg.App.FrontendURL,
		},
		JWTService,
		correctionHandler,
		streamHandler,
	)

	scheduler := cron.NewScheduler(loc)
	if err := cron.NewDraftJobs(drafts, cfg.Draft.SweepSchedule).RegisterJobs(scheduler); err != nil {
		log.Fatal("Failed to register cron jobs: ", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	// Shutdown waits for active requests, open event streams included.
	server.RegisterOnShutdown(hub.Close)

	go func() {
		slog.Info("Server running", "addr", server.Addr, "draft_store", cfg.Draft.Store, "hris_auth_mode", cfg.HRISAPI.AuthMode)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Graceful shutdown failed", "error", err)
	}
}

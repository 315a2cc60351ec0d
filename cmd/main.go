package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dosada05/chanbara-tournament/config"
	"github.com/Dosada05/chanbara-tournament/db"
	"github.com/Dosada05/chanbara-tournament/events"
	"github.com/Dosada05/chanbara-tournament/handlers"
	"github.com/Dosada05/chanbara-tournament/repositories"
	"github.com/Dosada05/chanbara-tournament/routes"
	"github.com/Dosada05/chanbara-tournament/services"
	"github.com/Dosada05/chanbara-tournament/storage"
	"github.com/go-chi/chi/v5"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded",
		slog.Int("port", cfg.ServerPort),
		slog.String("db_driver", cfg.DBDriver),
		slog.String("timezone", cfg.Location.String()))

	dbConn, err := db.Connect(cfg.DBDriver, cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	if err := db.Migrate(dbConn); err != nil {
		logger.Error("failed to apply migrations", slog.Any("error", err))
		os.Exit(1)
	}

	seedCtx, cancelSeed := context.WithTimeout(context.Background(), 10*time.Second)
	err = db.Seed(seedCtx, dbConn, db.SeedOptions{
		AdminUsername:  cfg.AdminUsername,
		AdminPassword:  cfg.AdminPassword,
		TournamentName: cfg.TournamentName,
	}, logger)
	cancelSeed()
	if err != nil {
		logger.Error("failed to seed database", slog.Any("error", err))
		os.Exit(1)
	}

	var uploader storage.FileUploader
	if cfg.StorageEnabled() {
		uploader, err = storage.NewCloudflareR2Uploader(context.Background(), storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Cloudflare R2 uploader initialized")
	} else {
		logger.Warn("R2 storage not configured, avatar uploads disabled")
	}

	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	hub := events.NewHub(logger)
	go hub.Run(hubCtx)

	tokens, err := services.NewTokenService(cfg.JWTSecretKey, cfg.TokenTTL)
	if err != nil {
		logger.Error("failed to initialize token service", slog.Any("error", err))
		os.Exit(1)
	}
	clock := services.NewClock(cfg.Location)

	athleteRepo := repositories.NewAthleteRepository(dbConn)
	adminRepo := repositories.NewAdminRepository(dbConn)
	specialtyRepo := repositories.NewSpecialtyRepository(dbConn)
	challengeRepo := repositories.NewChallengeRepository(dbConn)
	configRepo := repositories.NewTournamentConfigRepository(dbConn)
	reportRepo := repositories.NewReportRepository(dbConn)

	configService := services.NewConfigService(dbConn, configRepo, hub, cfg.TournamentName, logger)
	authService := services.NewAuthService(dbConn, athleteRepo, adminRepo, configService, tokens, logger)
	athleteService := services.NewAthleteService(dbConn, athleteRepo, challengeRepo, uploader, clock, logger)
	challengeService := services.NewChallengeService(dbConn, challengeRepo, athleteRepo, specialtyRepo, configService, hub, clock, logger)
	reportService := services.NewReportService(reportRepo, athleteRepo, challengeRepo, configService, clock)
	specialtyService := services.NewSpecialtyService(specialtyRepo)

	router := chi.NewRouter()
	routes.SetupRoutes(router, routes.Handlers{
		Auth:      handlers.NewAuthHandler(authService),
		Athlete:   handlers.NewAthleteHandler(athleteService),
		Challenge: handlers.NewChallengeHandler(challengeService),
		Specialty: handlers.NewSpecialtyHandler(specialtyService),
		Admin:     handlers.NewAdminHandler(configService, authService, athleteService, reportService),
		WebSocket: handlers.NewWebSocketHandler(hub, cfg.CORSAllowedOrigins),
		Health:    handlers.NewHealthHandler(dbConn),
	}, routes.Options{
		Tokens:         tokens,
		Logger:         logger,
		AllowedOrigins: cfg.CORSAllowedOrigins,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancelShutdown()

		stopHub()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
}

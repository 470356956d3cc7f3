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

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/pitchside/efootball-arena/cache"
	"github.com/pitchside/efootball-arena/config"
	"github.com/pitchside/efootball-arena/db"
	"github.com/pitchside/efootball-arena/handlers"
	"github.com/pitchside/efootball-arena/live"
	"github.com/pitchside/efootball-arena/repositories"
	api "github.com/pitchside/efootball-arena/routes"
	"github.com/pitchside/efootball-arena/services"
	"github.com/pitchside/efootball-arena/storage"
)

const schedulerInterval = 30 * time.Second

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
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

	var uploader storage.FileUploader
	if cfg.R2AccountID != "" {
		uploader, err = storage.NewR2Uploader(storage.R2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("R2 uploader initialized", slog.String("bucket", cfg.R2BucketName))
	} else {
		logger.Warn("R2 not configured, file uploads disabled")
	}

	var leaderboardCache *cache.LeaderboardCache
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.Error("failed to connect to redis", slog.Any("error", err))
			os.Exit(1)
		}
		leaderboardCache = cache.NewLeaderboardCache(redisClient, cfg.CacheTTL)
		logger.Info("redis leaderboard cache initialized", slog.String("addr", cfg.RedisAddr))
	} else {
		logger.Warn("redis not configured, leaderboard cache disabled")
	}

	wsHub := live.NewHub()
	go wsHub.Run()
	logger.Info("websocket hub started")

	playerRepo := repositories.NewPostgresPlayerRepository(dbConn)
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	participantRepo := repositories.NewPostgresParticipantRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	disputeRepo := repositories.NewPostgresDisputeRepository(dbConn)
	leaderboardRepo := repositories.NewPostgresLeaderboardRepository(dbConn)
	paymentRepo := repositories.NewPostgresPaymentRepository(dbConn)
	txManager := repositories.NewTxManager(dbConn)
	logger.Info("repositories initialized")

	authService := services.NewAuthService(playerRepo, []byte(cfg.JWTSecretKey))
	playerService := services.NewPlayerService(playerRepo, uploader)
	tournamentService := services.NewTournamentService(tournamentRepo, participantRepo, matchRepo, wsHub)
	fixtureService := services.NewFixtureService(txManager, tournamentRepo, participantRepo, matchRepo, wsHub, nil)
	participantService := services.NewParticipantService(txManager, tournamentRepo, participantRepo, playerRepo, fixtureService, wsHub)
	standingsService := services.NewStandingsService(txManager, tournamentRepo, participantRepo, matchRepo, wsHub)
	leaderboardService := services.NewLeaderboardService(txManager, leaderboardRepo, playerRepo, leaderboardCache)
	progressionService := services.NewProgressionService(txManager, tournamentRepo, participantRepo, matchRepo, wsHub, nil)
	matchService := services.NewMatchService(
		matchRepo,
		disputeRepo,
		standingsService,
		leaderboardService,
		progressionService,
		uploader,
		wsHub,
	)
	paymentService := services.NewPaymentService(paymentRepo, tournamentRepo, participantService)
	logger.Info("services initialized")

	go func() {
		ticker := time.NewTicker(schedulerInterval)
		defer ticker.Stop()
		logger.Info("tournament status scheduler started", slog.Duration("interval", schedulerInterval))

		if err := tournamentService.AutoUpdateStatusesByDates(context.Background()); err != nil {
			logger.Error("scheduler: initial run failed", slog.Any("error", err))
		}
		for range ticker.C {
			if err := tournamentService.AutoUpdateStatusesByDates(context.Background()); err != nil {
				logger.Error("scheduler: periodic run failed", slog.Any("error", err))
			}
		}
	}()

	authHandler := handlers.NewAuthHandler(authService)
	playerHandler := handlers.NewPlayerHandler(playerService)
	tournamentHandler := handlers.NewTournamentHandler(tournamentService, participantService, fixtureService, standingsService)
	matchHandler := handlers.NewMatchHandler(matchService)
	leaderboardHandler := handlers.NewLeaderboardHandler(leaderboardService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)
	webSocketHandler := handlers.NewWebSocketHandler(wsHub)
	logger.Info("HTTP handlers initialized")

	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		authService,
		authHandler,
		playerHandler,
		tournamentHandler,
		matchHandler,
		leaderboardHandler,
		paymentHandler,
		webSocketHandler,
	)
	logger.Info("routes configured")

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
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

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

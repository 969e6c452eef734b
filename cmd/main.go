package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gladiator-fit/backend/config"
	"github.com/gladiator-fit/backend/db"
	"github.com/gladiator-fit/backend/handlers"
	"github.com/gladiator-fit/backend/repositories"
	"github.com/gladiator-fit/backend/routes"
	"github.com/gladiator-fit/backend/services"
	"github.com/gladiator-fit/backend/storage"
	"github.com/gladiator-fit/backend/ws"
	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
)

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

	if err := db.RunMigrations(context.Background(), dbConn); err != nil {
		logger.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("database schema up to date")

	cloudflareUploader, err := storage.NewCloudflareR2Uploader(storage.CloudflareR2UploaderConfig{
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

	wsHub := ws.NewHub(logger)
	go wsHub.Run()
	logger.Info("WebSocket hub started")

	userRepo := repositories.NewPostgresUserRepository(dbConn)
	challengeRepo := repositories.NewPostgresChallengeRepository(dbConn)
	battleRepo := repositories.NewPostgresBattleRepository(dbConn)
	groupRepo := repositories.NewPostgresVotingGroupRepository(dbConn)
	voteRepo := repositories.NewPostgresVoteRepository(dbConn)
	logger.Info("repositories initialized")

	txRunner := services.NewSQLTxRunner(dbConn, logger)

	authService := services.NewAuthService(userRepo)
	userService := services.NewUserService(userRepo, battleRepo, voteRepo)
	challengeService := services.NewChallengeService(challengeRepo, userRepo, rand.New(rand.NewSource(time.Now().UnixNano())))
	matchmakingService := services.NewMatchmakingService(txRunner, userRepo, challengeRepo, battleRepo, groupRepo, rand.New(rand.NewSource(time.Now().UnixNano()+1)), logger)
	battleService := services.NewBattleService(txRunner, battleRepo, challengeRepo, userRepo, logger)
	voteService := services.NewVoteService(txRunner, voteRepo, battleRepo, groupRepo, userRepo, matchmakingService, wsHub, logger)
	logger.Info("services initialized")

	authHandler := handlers.NewAuthHandler(authService, cfg.JWTSecretKey)
	userHandler := handlers.NewUserHandler(userService)
	battleHandler := handlers.NewBattleHandler(matchmakingService, battleService)
	voteHandler := handlers.NewVoteHandler(voteService)
	challengeHandler := handlers.NewChallengeHandler(challengeService)
	uploadHandler := handlers.NewUploadHandler(battleService, cloudflareUploader, logger)
	webSocketHandler := handlers.NewWebSocketHandler(wsHub, battleService, voteService, logger)
	logger.Info("HTTP handlers initialized")

	router := chi.NewRouter()
	routes.SetupRoutes(
		router,
		cfg.JWTSecretKey,
		authHandler,
		userHandler,
		battleHandler,
		voteHandler,
		challengeHandler,
		uploadHandler,
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
		logger.Info("server shut down gracefully")
	}
}

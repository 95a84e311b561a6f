package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"log/slog"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/taskpad/api/internal/adapters/handler/http"
	"github.com/taskpad/api/internal/adapters/repository/postgres"
	"github.com/taskpad/api/internal/config"
	"github.com/taskpad/api/internal/core/auth"
	"github.com/taskpad/api/internal/core/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	secret := []byte(cfg.JWTSecret)
	if len(secret) == 0 {
		// No configured secret: sign with per-process random material.
		// Every restart invalidates all outstanding tokens.
		secret, err = auth.GenerateSecret(32)
		if err != nil {
			log.Fatal(err)
		}
		logger.Warn("JWT_SECRET not set, generated a per-process signing secret")
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL())
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatal(err)
	}

	tokens := auth.NewTokenIssuer(secret, cfg.TokenTTL)

	userRepo := postgres.NewUserRepository(db)
	taskRepo := postgres.NewTaskRepository(db)

	authSvc := services.NewAuthService(userRepo, tokens)
	taskSvc := services.NewTaskService(taskRepo)
	userSvc := services.NewUserService(userRepo, taskRepo)

	authHandler := http.NewAuthHandler(authSvc, logger)
	taskHandler := http.NewTaskHandler(taskSvc, logger)
	userHandler := http.NewUserHandler(userSvc, logger)

	handler := http.NewHandler(authHandler, taskHandler, userHandler, tokens, logger)
	server := &stdhttp.Server{Addr: cfg.Addr, Handler: handler}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("server listening", slog.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	logger.Info("gracefully shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal(err)
	}
}

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/daybook/daybook-go/internal/config"
	"github.com/daybook/daybook-go/internal/crypto"
	"github.com/daybook/daybook-go/internal/handler"
	"github.com/daybook/daybook-go/internal/middleware"
	"github.com/daybook/daybook-go/internal/repository"
	"github.com/daybook/daybook-go/internal/service"
	"github.com/daybook/daybook-go/internal/session"
	"github.com/daybook/daybook-go/internal/streak"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(newLogger(cfg))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := repository.NewDB(ctx, cfg.DatabaseDSN)
	if err != nil {
		slog.Error("connecting to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if cfg.RunMigrations {
		if err := repository.Migrate(ctx, db); err != nil {
			slog.Error("running migrations", "error", err)
			os.Exit(1)
		}
	}

	userRepo := repository.NewUserRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	budgetRepo := repository.NewBudgetRepository(db)

	streaks := streak.NewEngine(userRepo, cfg.StreakLocation)
	hasher := crypto.NewHasher(cfg.BcryptCost)
	tokens := crypto.NewTokenIssuer(cfg.JWTSecret, cfg.SessionTTL)
	sessions := session.NewStore(cfg.IsProduction())

	authService := service.NewAuthService(userRepo, hasher, tokens, streaks)
	taskService := service.NewTaskService(taskRepo, streaks, cfg.StreakLocation)
	budgetService := service.NewBudgetService(budgetRepo)

	authHandler := handler.NewAuthHandler(authService, sessions)
	taskHandler := handler.NewTaskHandler(taskService, sessions)
	budgetHandler := handler.NewBudgetHandler(budgetService)
	homeHandler := handler.NewHomeHandler(authService, taskService, sessions)

	r := chi.NewRouter()
	r.Use(middleware.Logger)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Gateway(tokens, sessions))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(ctx, cfg.AuthRateLimitRPS, cfg.AuthRateLimitBurst))
			r.Post("/signup", authHandler.HandleSignup)
			r.Post("/login", authHandler.HandleLogin)
		})
		r.Post("/logout", authHandler.HandleLogout)

		r.Get("/", homeHandler.HandleHome)
		r.Get("/api/me", authHandler.HandleMe)
		r.Get("/api/streak", authHandler.HandleStreak)

		r.Route("/api/tasks", func(r chi.Router) {
			r.Get("/", taskHandler.HandleList)
			r.Post("/", taskHandler.HandleCreate)
			r.Get("/stats", taskHandler.HandleStats)
			r.Put("/{id}", taskHandler.HandleUpdate)
			r.Delete("/{id}", taskHandler.HandleDelete)
		})

		r.Route("/api/budgets", func(r chi.Router) {
			r.Get("/", budgetHandler.HandleList)
			r.Post("/", budgetHandler.HandleCreate)
			r.Put("/items/{id}/spending", budgetHandler.HandleUpdateSpending)
			r.Delete("/{id}", budgetHandler.HandleDelete)
		})
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", cfg.Port, "env", cfg.Env, "streak_tz", cfg.StreakLocation.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}

func newLogger(cfg config.Config) *slog.Logger {
	if cfg.IsProduction() {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

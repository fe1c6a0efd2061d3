// Command pwmigrate reports on and migrates legacy plaintext passwords.
//
// Usage:
//
//	pwmigrate          hash every stored plaintext password
//	pwmigrate -check   only report how many passwords are hashed
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/daybook/daybook-go/internal/config"
	"github.com/daybook/daybook-go/internal/crypto"
	"github.com/daybook/daybook-go/internal/repository"
)

func main() {
	fs := flag.NewFlagSet("pwmigrate", flag.ContinueOnError)
	checkOnly := fs.Bool("check", false, "report hashed and plaintext counts without changing anything")
	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}

	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := repository.NewDB(ctx, cfg.DatabaseDSN)
	if err != nil {
		slog.Error("connecting to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	users := repository.NewUserRepository(db)

	if *checkOnly {
		err = checkPasswords(ctx, users, os.Stdout)
	} else {
		var stats migrateStats
		stats, err = migratePasswords(ctx, users, crypto.NewHasher(cfg.BcryptCost), os.Stdout)
		slog.Info("password migration finished", "migrated", stats.Migrated, "skipped", stats.Skipped, "total", stats.Total)
	}
	if err != nil {
		slog.Error("password migration failed", "error", err)
		os.Exit(1)
	}
}

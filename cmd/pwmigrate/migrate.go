package main

import (
	"context"
	"fmt"
	"io"

	"github.com/daybook/daybook-go/internal/crypto"
	"github.com/daybook/daybook-go/internal/model"
)

type credentialStore interface {
	ListCredentials(ctx context.Context) ([]model.User, error)
	UpdatePasswordHash(ctx context.Context, id, hash string) error
}

type passwordHasher interface {
	Hash(password string) (string, error)
}

type migrateStats struct {
	Migrated int
	Skipped  int
	Total    int
}

// checkPasswords writes one line per user and a summary of hashed versus
// plaintext passwords.
func checkPasswords(ctx context.Context, store credentialStore, out io.Writer) error {
	users, err := store.ListCredentials(ctx)
	if err != nil {
		return fmt.Errorf("listing users: %w", err)
	}

	fmt.Fprintf(out, "found %d users\n", len(users))

	var hashed, plain int
	for _, u := range users {
		status := "HASHED"
		if crypto.IsHashed(u.PasswordHash) {
			hashed++
		} else {
			status = "PLAINTEXT"
			plain++
		}
		fmt.Fprintf(out, "%-9s | %s | created %s\n", status, u.Email, u.CreatedAt.UTC().Format("2006-01-02"))
	}

	fmt.Fprintf(out, "hashed: %d\nplaintext: %d\n", hashed, plain)
	if plain > 0 {
		fmt.Fprintln(out, "some passwords are still stored in plaintext; run pwmigrate without -check")
	}
	return nil
}

// migratePasswords hashes every plaintext password. It stops at the first
// failure; users already migrated stay migrated.
func migratePasswords(ctx context.Context, store credentialStore, hasher passwordHasher, out io.Writer) (migrateStats, error) {
	users, err := store.ListCredentials(ctx)
	if err != nil {
		return migrateStats{}, fmt.Errorf("listing users: %w", err)
	}

	stats := migrateStats{Total: len(users)}
	for _, u := range users {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if crypto.IsHashed(u.PasswordHash) {
			stats.Skipped++
			continue
		}

		hash, err := hasher.Hash(u.PasswordHash)
		if err != nil {
			return stats, fmt.Errorf("hashing password of %s: %w", u.Email, err)
		}
		if err := store.UpdatePasswordHash(ctx, u.ID, hash); err != nil {
			return stats, fmt.Errorf("storing password of %s: %w", u.Email, err)
		}
		fmt.Fprintf(out, "migrated %s\n", u.Email)
		stats.Migrated++
	}

	fmt.Fprintf(out, "migrated: %d\nskipped: %d\ntotal: %d\n", stats.Migrated, stats.Skipped, stats.Total)
	return stats, nil
}

// Command bootstrap-admin creates the admin account, or resets its
// password when the email already exists.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/goccy/go-json"
	"github.com/joho/godotenv"

	"github.com/folio/folio/internal/repository"
	"github.com/folio/folio/internal/service"
)

type output struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   string `json:"role"`
}

func main() {
	_ = godotenv.Load()

	var (
		mongoURI = flag.String("mongo-uri", os.Getenv("MONGO_URI"), "MongoDB connection string")
		database = flag.String("database", envOr("MONGO_DATABASE", "portfolio"), "MongoDB database name")
		email    = flag.String("email", os.Getenv("ADMIN_EMAIL"), "Admin email")
		name     = flag.String("name", envOr("ADMIN_NAME", "Admin"), "Admin display name")
		password = flag.String("password", os.Getenv("ADMIN_PASSWORD"), "Admin password (prefer ADMIN_PASSWORD)")
		format   = flag.String("format", "plain", "Output format: plain or json")
	)
	flag.Parse()

	if err := run(*mongoURI, *database, *email, *name, *password, *format, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func run(mongoURI, database, email, name, password, format string, out io.Writer) error {
	if mongoURI == "" {
		return fmt.Errorf("MONGO_URI is required")
	}
	if email == "" || password == "" {
		return fmt.Errorf("email and password are required")
	}
	if format != "plain" && format != "json" {
		return fmt.Errorf("unknown format %q", format)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	repo, err := repository.New(ctx, mongoURI, database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer func() { _ = repo.Close(context.Background()) }()

	if err := repo.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	// Tokens are never issued here.
	svc := service.NewAuthService(repo, nil, logger)

	user, err := svc.EnsureAdmin(ctx, email, name, password)
	if err != nil {
		return fmt.Errorf("ensure admin: %w", err)
	}

	result := output{
		UserID: user.ID.Hex(),
		Email:  user.Email,
		Name:   user.Name,
		Role:   string(user.Role),
	}
	return writeOutput(out, format, result)
}

func writeOutput(out io.Writer, format string, result output) error {
	if format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Fprintf(out, "user_id=%s\n", result.UserID)
	fmt.Fprintf(out, "email=%s\n", result.Email)
	fmt.Fprintf(out, "name=%s\n", result.Name)
	fmt.Fprintf(out, "role=%s\n", result.Role)
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

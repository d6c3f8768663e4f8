package main

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/kiwiq/alpha-cli/internal/stub"
	"github.com/kiwiq/alpha-cli/pkg/config"
)

func main() {
	// ── Load .env file ───────────────────────────────────────────────────
	_ = godotenv.Load() // silently ignore if .env doesn't exist

	// ── Configuration ────────────────────────────────────────────────────
	cfg := config.Load()

	fixtures, err := stub.LoadFixtures(cfg.StubFixtures)
	if err != nil {
		slog.Warn("falling back to built-in fixtures", "error", err)
	}

	slog.Info("🚀 Starting Alpha API stub",
		"port", cfg.StubPort,
		"users", len(fixtures.Users),
		"fixtures", cfg.StubFixtures,
	)

	server := stub.NewServer(fixtures)
	app := server.App(cfg.AppName+" Stub", cfg.FrontendURL)

	slog.Info("🌐 Fiber listening", "port", cfg.StubPort)
	if err := app.Listen(":" + cfg.StubPort); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

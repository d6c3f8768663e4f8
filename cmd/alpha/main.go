package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/kiwiq/alpha-cli/internal/adapter/api"
	"github.com/kiwiq/alpha-cli/internal/adapter/tokenstore"
	"github.com/kiwiq/alpha-cli/internal/service"
	"github.com/kiwiq/alpha-cli/internal/tui"
	"github.com/kiwiq/alpha-cli/pkg/config"
	"golang.org/x/time/rate"
)

func main() {
	// ── Load .env file ───────────────────────────────────────────────────
	_ = godotenv.Load() // silently ignore if .env doesn't exist

	// ── Configuration ────────────────────────────────────────────────────
	cfg := config.Load()

	// The TUI owns the terminal; keep slog out of its way.
	logFile, err := os.OpenFile(cfg.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err == nil {
		defer logFile.Close()
		slog.SetDefault(slog.New(slog.NewTextHandler(logFile, nil)))
	}

	tokenPath := cfg.TokenPath
	if tokenPath == "" {
		tokenPath, err = tokenstore.DefaultPath()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error resolving token path: %v\n", err)
			os.Exit(1)
		}
	}
	tokens := tokenstore.NewFileStore(tokenPath)

	program := (*tea.Program)(nil)
	client := api.New(cfg.APIURL, tokens,
		api.WithHTTPClient(&http.Client{Timeout: cfg.RequestTimeout}),
		api.WithSessionExpiredHook(func() {
			if program != nil {
				program.Send(tui.SessionExpired())
			}
		}),
	)

	sessionService := service.NewSessionService(api.NewAuthService(client), tokens)
	contentService := service.NewContentService(api.NewContentService(client))
	aiService := service.NewAIService(api.NewAIService(client),
		rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.AIRequestsPerMinute)), cfg.AIBurst))

	app := tui.NewApp(sessionService, contentService, aiService)
	program = tea.NewProgram(app, tea.WithAltScreen())

	if _, err := program.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/use-agent/scrapeproxy/api"
	"github.com/use-agent/scrapeproxy/config"
	"github.com/use-agent/scrapeproxy/extract"
	"github.com/use-agent/scrapeproxy/llm"
	"github.com/use-agent/scrapeproxy/upstream"
)

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	initLogger(cfg.Log)
	slog.Info("scrapeproxy starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"upstream", cfg.Upstream.URL,
		"model", cfg.LLM.Model,
	)
	if cfg.Auth.APIKey == "" {
		slog.Warn("API_KEY is empty; callers must send an empty " + cfg.Auth.Header + " header")
	}
	if cfg.LLM.APIKey == "" {
		slog.Warn("OPENAI_API_KEY is empty; structured extraction will fail")
	}

	// ── 3. Upstream clients ─────────────────────────────────────────
	scrapeClient := upstream.NewClient(cfg.Upstream.URL, cfg.Upstream.Timeout)
	extractor := extract.New(llm.NewClient(cfg.LLM))

	// ── 4. Setup router ─────────────────────────────────────────────
	router := api.NewRouter(cfg, scrapeClient, extractor)

	// ── 5. Start HTTP server ────────────────────────────────────────
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// ── 6. Graceful shutdown ────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	slog.Info("scrapeproxy stopped")
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}

package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eventops/crewbadge/internal/api"
	"github.com/eventops/crewbadge/internal/assets"
	"github.com/eventops/crewbadge/internal/config"
	"github.com/eventops/crewbadge/internal/credential"
	"github.com/eventops/crewbadge/internal/render"
	"github.com/eventops/crewbadge/internal/store"
)

func main() {
	addr := flag.String("addr", ":8080", "HTTP listen address")
	cfgPath := flag.String("config", "configs/engine.yaml", "Path to engine YAML config")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// ── Load config ──────────────────────────────────────────────────────────
	loader, err := config.NewLoader(*cfgPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	cfg := loader.Config()
	if err := config.Validate(cfg); err != nil {
		slog.Error("config validation failed", "err", err)
		os.Exit(1)
	}

	// ── Credential engine ─────────────────────────────────────────────────────
	// The secret key is resolved exactly once; a missing key is a startup
	// failure, never a per-request one.
	secret, err := cfg.Credential.Secret()
	if err != nil {
		slog.Error("secret key unavailable", "err", err)
		os.Exit(1)
	}
	grace := time.Duration(cfg.Credential.GraceHours) * time.Hour
	signer, err := credential.NewSigner(secret, grace)
	if err != nil {
		slog.Error("signer init failed", "err", err)
		os.Exit(1)
	}

	dir := store.NewMemory()
	validator, err := credential.NewValidator(secret, dir)
	if err != nil {
		slog.Error("validator init failed", "err", err)
		os.Exit(1)
	}

	// ── Renderer ──────────────────────────────────────────────────────────────
	imageLoader := assets.New(cfg.Render.AssetRoot, time.Duration(cfg.Render.FetchTimeoutMs)*time.Millisecond)
	renderer := render.New(imageLoader, render.StyleFromConfig(cfg.Render))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	batch := render.NewBatchRenderer(ctx, renderer, signer, cfg.Archive.Workers, cfg.Archive.QueueDepth)

	// ── Hot-reload watcher (appearance only; the key stays fixed) ─────────────
	loader.OnChange(func(newCfg *config.EngineConfig) {
		if err := config.Validate(newCfg); err != nil {
			slog.Warn("hot-reload skipped: config invalid", "err", err)
			return
		}
		renderer.SwapStyle(render.StyleFromConfig(newCfg.Render))
		slog.Info("render style hot-reloaded")
	})
	stopWatch, err := loader.Watch()
	if err != nil {
		slog.Warn("config watcher unavailable (hot-reload disabled)", "err", err)
	} else {
		defer stopWatch()
	}

	// ── HTTP server ───────────────────────────────────────────────────────────
	handler := api.New(dir, signer, validator, renderer, batch)
	srv := &http.Server{
		Addr:         *addr,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 120 * time.Second, // archives take a while
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", *addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down…")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutCancel()
	_ = srv.Shutdown(shutCtx)
	cancel() // stop render workers
	batch.Shutdown()
	slog.Info("goodbye")
}

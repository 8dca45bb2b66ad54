// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/zettel/internal/api"
	"github.com/starford/zettel/internal/mcpserver"
	"github.com/starford/zettel/internal/sse"
	"github.com/starford/zettel/internal/tui"
	"github.com/starford/zettel/internal/workspace"
)

// Run starts the terminal editor with the given options. The UI owns the
// terminal, so logs go to the configured log file unless overridden.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	out := app.logOutput
	if out == nil {
		f, err := os.OpenFile(cfg.App.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		out = f
	}
	logger := newLogger(out, cfg.App.LogLevel)

	rt, err := openRuntime(cfg, logger)
	if err != nil {
		return err
	}
	defer rt.close()

	ws := workspace.New(rt.notes,
		workspace.WithRenderPolicy(cfg.Editor.RenderPolicy()),
		workspace.WithLogger(logger),
	)
	model := tui.New(ws, tui.WithLogger(logger))

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gCtx := errgroup.WithContext(runCtx)

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(gCtx))

	// External edits reach the UI as messages; the model applies them.
	g.Go(func() error {
		return watchArchive(gCtx, rt.notes, rt.db, rt.switched, logger, func(kind, title string) {
			p.Send(tui.NoteChangedMsg{Kind: kind, Title: title})
		})
	})

	g.Go(func() error {
		defer cancel()
		logger.Info("UI starting", slog.String("archive", rt.notes.Archive()))
		if _, err := p.Run(); err != nil {
			if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("ui: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("UI stopped")
	return nil
}

// Serve starts the HTTP API with server-sent change events.
func Serve(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	out := app.logOutput
	if out == nil {
		out = os.Stdout
	}
	logger := newLogger(out, cfg.App.LogLevel)

	rt, err := openRuntime(cfg, logger)
	if err != nil {
		return err
	}
	defer rt.close()

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: newHTTPHandler(cfg, rt, broker),
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Start file watcher with SSE callback.
	g.Go(func() error {
		return watchArchive(gCtx, rt.notes, rt.db, rt.switched, logger, func(kind, title string) {
			rt.notes.Refresh(kind, title)
			broker.PublishNoteEvent(kind, title)
		})
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group so the watcher stops with the server.
var errShutdown = errors.New("shutdown")

func newHTTPHandler(cfg *Config, rt *runtime, events http.Handler) http.Handler {
	apiRouter := api.NewRouter(rt.notes, cfg.Auth.AuthEnabled(), cfg.Auth.Token, events)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	// Image files, referenced from rendered notes.
	r.Get("/images/{filename}", api.NewImageHandler(rt.notes).ServeFile)

	return r
}

// ServeMCP starts the MCP server on stdin/stdout. Logs go to stderr because
// stdout carries the protocol.
func ServeMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	out := app.logOutput
	if out == nil {
		out = os.Stderr
	}
	logger := newLogger(out, cfg.App.LogLevel)

	rt, err := openRuntime(cfg, logger)
	if err != nil {
		return err
	}
	defer rt.close()

	srv := mcpserver.New(rt.notes, logger)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gCtx := errgroup.WithContext(runCtx)

	g.Go(func() error {
		return watchArchive(gCtx, rt.notes, rt.db, rt.switched, logger, func(kind, title string) {
			rt.notes.Refresh(kind, title)
		})
	})

	g.Go(func() error {
		defer cancel()
		logger.Info("MCP server starting", slog.String("archive", rt.notes.Archive()))
		if err := srv.ServeStdio(); err != nil {
			return fmt.Errorf("mcp: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}
	return nil
}

package internal

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/starford/zettel/internal/index"
	"github.com/starford/zettel/internal/noteservice"
	"github.com/starford/zettel/internal/storage"
)

// runtime holds the services shared by every surface.
type runtime struct {
	db       *index.DB
	notes    *noteservice.Service
	switched chan struct{}
}

func newApplication(opts []Option) (*application, error) {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

// newLogger initializes the structured JSON logger and makes it the default.
func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	return logger
}

// openRuntime opens the index, loads the archive and brings the index in
// line with it.
func openRuntime(cfg *Config, logger *slog.Logger) (*runtime, error) {
	logger.Info("Configuration loaded",
		slog.String("archive_path", cfg.Archive.Path),
		slog.String("index_path", cfg.Index.Path),
		slog.String("render_on_save", cfg.Editor.RenderOnSave),
		slog.String("log_level", cfg.App.LogLevel.String()))

	db, err := index.Open(cfg.Index.Path)
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}

	switched := make(chan struct{}, 1)
	notes, err := noteservice.New(cfg.Archive.Path, db,
		noteservice.WithLogger(logger),
		noteservice.WithMaxImageSide(cfg.Render.MaxImageSide),
		noteservice.WithSwitchHook(func(storage.Provider) {
			select {
			case switched <- struct{}{}:
			default:
			}
		}),
	)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init archive: %w", err)
	}
	if err := notes.LoadAll(); err != nil {
		db.Close()
		return nil, fmt.Errorf("load archive: %w", err)
	}
	logger.Info("Archive loaded",
		slog.String("archive", notes.Archive()),
		slog.Int("notes", len(notes.Titles())))

	return &runtime{db: db, notes: notes, switched: switched}, nil
}

func (rt *runtime) close() {
	_ = rt.db.Close()
}

// watchArchive runs the index watcher over the current archive until ctx is
// cancelled, restarting it on the new archive after every switch. A watcher
// that fails to start is logged and retried on the next switch.
func watchArchive(ctx context.Context, notes *noteservice.Service, db index.NoteIndex, switched <-chan struct{}, logger *slog.Logger, cb index.EventCallback) error {
	for {
		wctx, cancel := context.WithCancel(ctx)
		done := make(chan error, 1)
		store := notes.Store()
		go func() {
			done <- index.Watch(wctx, db, store, logger, cb)
		}()

		select {
		case <-ctx.Done():
			cancel()
			<-done
			return nil
		case <-switched:
			cancel()
			if err := <-done; err != nil {
				logger.Warn("watcher: stopped with error", slog.String("error", err.Error()))
			}
			logger.Info("watcher: archive switched", slog.String("root", notes.Archive()))
		case err := <-done:
			cancel()
			if err != nil {
				logger.Warn("watcher: failed", slog.String("root", store.Root()), slog.String("error", err.Error()))
			}
			select {
			case <-ctx.Done():
				return nil
			case <-switched:
			}
		}
	}
}

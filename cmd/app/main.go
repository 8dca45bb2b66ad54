package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/zettel/internal"
	pkgconfig "github.com/starford/zettel/pkg/config"
)

// loadConfig reads the optional config file and applies flag overrides.
func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if dir := cmd.String("archive"); dir != "" {
		cfg.Archive.Path = dir
	}
	if p := cmd.String("index"); p != "" {
		cfg.Index.Path = p
	}
	return cfg, nil
}

// action adapts an internal entrypoint to a cli action.
func action(start func(context.Context, ...internal.Option) error) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if err := start(ctx, internal.WithConfig(cfg)); err != nil {
			return fmt.Errorf("app run error: %w", err)
		}
		return nil
	}
}

func main() {
	cmd := &cli.Command{
		Name:   "zettel",
		Usage:  "Terminal note editor with inline markup and embedded images",
		Action: action(internal.Run),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file (optional)",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:    "archive",
				Aliases: []string{"a"},
				Usage:   "Archive directory; overrides archive.path",
				Sources: cli.EnvVars("ZETTEL_ARCHIVE"),
			},
			&cli.StringFlag{
				Name:    "index",
				Usage:   "SQLite index path or :memory:; overrides index.path",
				Sources: cli.EnvVars("ZETTEL_INDEX"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Serve the archive over an HTTP API with change events",
				Action: action(internal.Serve),
			},
			{
				Name:   "mcp",
				Usage:  "Serve the archive to LLM clients over MCP on stdio",
				Action: action(internal.ServeMCP),
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/docsite/internal"
	pkgconfig "github.com/starford/docsite/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if _, err := pkgconfig.LoadOptional(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func build(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	docs, err := internal.BuildManifest(ctx, internal.WithConfig(cfg))
	if err != nil {
		return fmt.Errorf("build manifest: %w", err)
	}
	fmt.Fprintf(os.Stdout, "Generated manifest with %d documents: %s\n", len(docs), cfg.Content.ManifestPath())
	return nil
}

func newDoc(ctx context.Context, cmd *cli.Command) error {
	title := cmd.Args().First()
	if title == "" {
		return fmt.Errorf("please provide a title for the new document\n\nUsage:\n  docsite new \"Document Title\" --category \"Category Name\"")
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	res, err := internal.NewDoc(ctx, title, cmd.String("category"), internal.WithConfig(cfg))
	if err != nil {
		return fmt.Errorf("new document: %w", err)
	}

	w := os.Stdout
	fmt.Fprintln(w, "Created new document:")
	fmt.Fprintf(w, "   File: %s.md\n", res.Slug)
	fmt.Fprintf(w, "   Title: %s\n", res.Title)
	fmt.Fprintf(w, "   Category: %s\n", res.Category)
	fmt.Fprintf(w, "   Path: %s\n", res.Path)
	return nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Serve(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.ServeMCP(ctx, internal.WithConfig(cfg))
}

func main() {
	cmd := &cli.Command{
		Name:   "docsite",
		Usage:  "Static documentation browser: manifest builder, renderer and hosting server",
		Action: serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "build",
				Usage:  "Scan the content directory and write the manifest",
				Action: build,
			},
			{
				Name:      "new",
				Usage:     "Create a document from the standard template",
				ArgsUsage: "<title>",
				Action:    newDoc,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "category",
						Usage: "Category of the new document",
						Value: "General",
					},
				},
			},
			{
				Name:   "serve",
				Usage:  "Serve documents over HTTP and reload on content changes",
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Expose documents as MCP tools on stdio",
				Action: serveMCP,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

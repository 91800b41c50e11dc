package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/fatih/color"
	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/folio/internal"
	"github.com/starford/folio/internal/content"
	"github.com/starford/folio/internal/index"
	"github.com/starford/folio/internal/slug"
	pkgconfig "github.com/starford/folio/pkg/config"
)

var version = "dev"

func options(cmd *cli.Command, extra ...internal.Option) ([]internal.Option, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.Load(configPath, cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config")
	}

	opts := []internal.Option{
		internal.WithConfig(cfg),
		internal.WithVersion(version),
	}
	return append(opts, extra...), nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	opts, err := options(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, opts...); err != nil {
		return errors.Wrap(err, "app run error")
	}
	return nil
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	opts, err := options(cmd)
	if err != nil {
		return err
	}
	return internal.RunMCP(ctx, opts...)
}

func reindex(ctx context.Context, cmd *cli.Command) error {
	opts, err := options(cmd, internal.WithLogOutput(os.Stderr))
	if err != nil {
		return err
	}
	stats, err := internal.Reindex(ctx, opts...)
	if err != nil {
		return errors.Wrap(err, "reindex")
	}
	fmt.Printf("indexed %d, unchanged %d, removed %d, failed %d\n",
		stats.Indexed, stats.Unchanged, stats.Removed, stats.Failed)
	return nil
}

func list(ctx context.Context, cmd *cli.Command) error {
	opts, err := options(cmd, internal.WithLogOutput(os.Stderr))
	if err != nil {
		return err
	}
	comp, err := internal.Open(opts)
	if err != nil {
		return err
	}
	defer comp.Close()

	if _, err := comp.Service.Reindex(ctx); err != nil {
		return errors.Wrap(err, "reindex")
	}

	filter := index.ListFilter{
		Tag:           cmd.String("tag"),
		Sort:          cmd.String("sort"),
		Limit:         500,
		IncludeDrafts: cmd.Bool("drafts"),
	}
	if name := cmd.String("category"); name != "" {
		c, err := content.ParseCategory(name)
		if err != nil {
			return err
		}
		filter.Category = c
	}

	rows, total, err := comp.Service.Browse(ctx, filter)
	if err != nil {
		return err
	}

	catColor := color.New(color.FgCyan, color.Bold)
	pathColor := color.New(color.FgHiBlack)
	draftColor := color.New(color.FgYellow)
	for _, row := range rows {
		line := catColor.Sprintf("%-9s", row.Category) + " " + pathColor.Sprint(row.Path) + "  " + row.Title
		if row.Draft {
			line += " " + draftColor.Sprint("[draft]")
		}
		if len(row.Tags) > 0 {
			line += " " + color.GreenString("#"+strings.Join(row.Tags, " #"))
		}
		fmt.Println(line)
	}
	if total > len(rows) {
		fmt.Printf("... %d more\n", total-len(rows))
	}
	return nil
}

func slugify(_ context.Context, cmd *cli.Command) error {
	title := strings.Join(cmd.Args().Slice(), " ")
	if strings.TrimSpace(title) == "" {
		return errors.New("slugify: a title is required")
	}
	fmt.Println(slug.Slugify(title))
	return nil
}

func main() {
	cmd := &cli.Command{
		Name:    "folio",
		Usage:   "Content-authoring backend for a portfolio site: front-matter documents, search index and authoring API",
		Version: version,
		Action:  serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file (.yaml or .toml)",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API, file watcher and event stream",
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Serve the MCP tools over stdio",
				Action: serveMCP,
			},
			{
				Name:   "reindex",
				Usage:  "Rebuild the search index from the content roots",
				Action: reindex,
			},
			{
				Name:   "list",
				Usage:  "List indexed documents",
				Action: list,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "category", Usage: "Only list this category"},
					&cli.StringFlag{Name: "tag", Usage: "Only list documents with this tag"},
					&cli.StringFlag{Name: "sort", Usage: "date, title or path", Value: index.SortDate},
					&cli.BoolFlag{Name: "drafts", Usage: "Include drafts"},
				},
			},
			{
				Name:      "slugify",
				Usage:     "Print the slug for a title",
				ArgsUsage: "<title words...>",
				Action:    slugify,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/scout/internal/app"
	"github.com/kailas-cloud/scout/internal/config"
	"github.com/kailas-cloud/scout/internal/domain"
	"github.com/kailas-cloud/scout/internal/domain/search/request"
	logpkg "github.com/kailas-cloud/scout/internal/logger"
	"github.com/kailas-cloud/scout/internal/repository/catalog"
	"github.com/kailas-cloud/scout/internal/version"
)

const loggerKey = "logger"

func newApp() *cli.App {
	return &cli.App{
		Name:    "scout",
		Usage:   "Search the travel experience catalog from the command line",
		Version: version.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "warn",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "search",
				Usage:     "Run one search through the full pipeline",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "config",
						Aliases:  []string{"c"},
						Usage:    "Path to the YAML config file",
						Required: true,
					},
					&cli.Float64Flag{
						Name:  "max-price",
						Usage: "Price ceiling in USD",
					},
					&cli.StringSliceFlag{
						Name:  "tag",
						Usage: "Preferred tag (repeatable)",
					},
				},
			},
			{
				Name:   "catalog",
				Usage:  "List catalog experiences",
				Action: catalogCommand,
				Flags:  []cli.Flag{catalogFlag()},
			},
			{
				Name:   "tags",
				Usage:  "List catalog tags in first-seen order",
				Action: tagsCommand,
				Flags:  []cli.Flag{catalogFlag()},
			},
			{
				Name:  "config",
				Usage: "Configuration helpers",
				Subcommands: []*cli.Command{
					{
						Name:      "check",
						Usage:     "Validate a config file",
						ArgsUsage: "<path>",
						Action:    configCheckCommand,
					},
				},
			},
		},
	}
}

func catalogFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "catalog",
		Usage: "Path to a catalog YAML file (default: built-in catalog)",
	}
}

func setupLogger(c *cli.Context) error {
	logger, err := logpkg.NewLogger("local", c.String("log-level"))
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	if c.App.Metadata == nil {
		c.App.Metadata = map[string]any{}
	}
	c.App.Metadata[loggerKey] = logger
	return nil
}

func loggerFrom(c *cli.Context) *zap.Logger {
	if l, ok := c.App.Metadata[loggerKey].(*zap.Logger); ok {
		return l
	}
	return zap.NewNop()
}

type searchInput struct {
	Query        string   `json:"query"`
	MaxPrice     *float64 `json:"maxPrice,omitempty"`
	SelectedTags []string `json:"selectedTags,omitempty"`
}

type resultOutput struct {
	ID       int     `json:"id"`
	Title    string  `json:"title"`
	Location string  `json:"location"`
	Price    float64 `json:"price"`
	Reason   string  `json:"reason"`
	Score    float64 `json:"score"`
}

type searchOutput struct {
	Results []resultOutput `json:"results"`
	Message string         `json:"message,omitempty"`
	Outcome string         `json:"outcome"`
}

func searchCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("expected exactly one query argument")
	}
	logger := loggerFrom(c)

	cfg, err := config.LoadFile(c.String("config"))
	if err != nil {
		return err
	}

	ctx := logpkg.ContextWithLogger(c.Context, logger)
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	in := searchInput{Query: c.Args().First(), SelectedTags: c.StringSlice("tag")}
	if c.IsSet("max-price") {
		p := c.Float64("max-price")
		in.MaxPrice = &p
	}
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	ctx, usage := domain.NewContextWithUsage(ctx)
	resp, err := a.Search.Search(ctx, "cli", body)
	if err != nil {
		var ve *request.ValidationError
		if errors.As(err, &ve) {
			return cli.Exit(ve.Message, 2)
		}
		return err
	}
	logger.Debug("Search finished", zap.Int("tokens", usage.TotalTokens()), zap.Bool("cached", usage.Cached()))

	out := searchOutput{Results: make([]resultOutput, len(resp.Results)), Message: resp.Message, Outcome: string(resp.Outcome)}
	for i, r := range resp.Results {
		e := r.Experience()
		out.Results[i] = resultOutput{
			ID:       e.ID(),
			Title:    e.Title(),
			Location: e.Location(),
			Price:    e.Price(),
			Reason:   r.Reason(),
			Score:    r.Score(),
		}
	}
	return writeJSON(c.App.Writer, out)
}

func catalogCommand(c *cli.Context) error {
	cat, err := openCatalog(c.String("catalog"))
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tLOCATION\tPRICE\tTAGS")
	for _, e := range cat.All() {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.2f\t%v\n", e.ID(), e.Title(), e.Location(), e.Price(), e.Tags())
	}
	return tw.Flush()
}

func tagsCommand(c *cli.Context) error {
	cat, err := openCatalog(c.String("catalog"))
	if err != nil {
		return err
	}
	for _, t := range cat.Tags() {
		fmt.Fprintln(c.App.Writer, t)
	}
	return nil
}

func configCheckCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("expected a config file path")
	}
	cfg, err := config.LoadFile(c.Args().First())
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	fmt.Fprintf(c.App.Writer, "ok: generation=%s/%s ratelimit=%s(%d per %ds) database=%t\n",
		cfg.Generation.Driver, cfg.Generation.Model,
		cfg.RateLimit.Driver, cfg.RateLimit.MaxRequests, cfg.RateLimit.WindowSec,
		cfg.UsesDatabase(),
	)
	return nil
}

func openCatalog(path string) (*catalog.Catalog, error) {
	cat, err := catalog.Load(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	return cat, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

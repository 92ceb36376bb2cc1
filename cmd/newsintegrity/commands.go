package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"NewsIntegrity/internal/app"
	"NewsIntegrity/internal/config"
	"NewsIntegrity/internal/infrastructure/parser"
	"NewsIntegrity/internal/logging"
	"NewsIntegrity/internal/taxonomy"
	"NewsIntegrity/internal/usecase"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "newsintegrity",
		Short: "Score news articles against the journalism rubric",
		Long: `Score harvested news articles, redraft low scorers and roll scores up
into per-outlet batting averages.

Configuration is read from $NEWS_INTEGRITY_CONFIG, .env and the environment.`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newRunCmd(),
		newScorePendingCmd(),
		newScoreCmd(),
		newRollupCmd(),
		newSkewCmd(),
		newCategoriesCmd(),
		newAnalyzeCmd(),
	)
	return root
}

// withApp loads configuration, builds the application and closes it after fn.
func withApp(cmd *cobra.Command, fn func(*app.Application) error) error {
	cfg := config.Load()
	logger := logging.NewWithWriter(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)

	application, err := app.New(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer application.Close()

	return fn(application)
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Score pending articles and roll up outlets on the configured interval",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(a *app.Application) error {
				return a.Run(cmd.Context())
			})
		},
	}
}

func newScorePendingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "score-pending",
		Short: "Score one batch of unscored articles and roll up the affected outlets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(a *app.Application) error {
				report, err := a.Pipeline().ScorePending(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), report)
			})
		},
	}
}

func newScoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "score <article-id>",
		Short: "Score a single stored article",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid article id %q: %w", args[0], err)
			}
			return withApp(cmd, func(a *app.Application) error {
				outcome, err := a.Pipeline().ScoreArticle(cmd.Context(), id)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), outcome)
			})
		},
	}
}

func newRollupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rollup [outlet-id]",
		Short: "Recompute one outlet's batting average, or every outlet's",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var id uuid.UUID
			if len(args) == 1 {
				parsed, err := uuid.Parse(args[0])
				if err != nil {
					return fmt.Errorf("invalid outlet id %q: %w", args[0], err)
				}
				id = parsed
			}

			return withApp(cmd, func(a *app.Application) error {
				if id == uuid.Nil {
					aggregates, err := a.Pipeline().RollupAll(cmd.Context())
					if printErr := printJSON(cmd.OutOrStdout(), aggregates); printErr != nil {
						return errors.Join(err, printErr)
					}
					return err
				}

				agg, err := a.Pipeline().Rollup(cmd.Context(), id)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), agg)
			})
		},
	}
}

func newSkewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "skew <outlet-id>",
		Short: "Show how unevenly an outlet scores across topic categories",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid outlet id %q: %w", args[0], err)
			}
			return withApp(cmd, func(a *app.Application) error {
				res, err := a.Pipeline().Skew(cmd.Context(), id)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res)
			})
		},
	}
}

func newCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List the topic categories used for skew analysis",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printJSON(cmd.OutOrStdout(), taxonomy.Categories())
		},
	}
}

func newAnalyzeCmd() *cobra.Command {
	var (
		in       usecase.AnalyzeInput
		htmlPath string
		pageURL  string
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Score and redraft an article without storing it",
		Long: `Score and redraft an article without storing it.

The article comes from --headline/--body, a saved page (--html) or a live
page (--url).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			switch {
			case htmlPath != "":
				f, err := os.Open(htmlPath)
				if err != nil {
					return fmt.Errorf("open html: %w", err)
				}
				defer f.Close()

				page, err := parser.ExtractArticle(f, parser.Selectors{})
				if err != nil {
					return fmt.Errorf("extract %s: %w", htmlPath, err)
				}
				in.Headline, in.Body = page.Headline, page.Body
			case pageURL != "":
				page, err := parser.NewArticleParser(nil, parser.Selectors{}).Fetch(cmd.Context(), pageURL)
				if err != nil {
					return fmt.Errorf("fetch %s: %w", pageURL, err)
				}
				in.Headline, in.Body = page.Headline, page.Body
			}

			if in.Headline == "" || in.Body == "" {
				return errors.New("an article needs a headline and a body")
			}

			return withApp(cmd, func(a *app.Application) error {
				return printJSON(cmd.OutOrStdout(), a.Pipeline().Analyze(cmd.Context(), in))
			})
		},
	}

	cmd.Flags().StringVar(&in.Headline, "headline", "", "article headline")
	cmd.Flags().StringVar(&in.Body, "body", "", "article body")
	cmd.Flags().StringVar(&in.OutletName, "outlet", "", "outlet name passed to the classifier")
	cmd.Flags().StringVar(&htmlPath, "html", "", "path to a saved article page")
	cmd.Flags().StringVar(&pageURL, "url", "", "article page to fetch")
	cmd.MarkFlagsMutuallyExclusive("html", "url")
	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

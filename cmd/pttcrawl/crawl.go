package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/nao1215/pttcrawl/internal/config"
	"github.com/nao1215/pttcrawl/internal/crawler"
	"github.com/nao1215/pttcrawl/internal/database"
	"github.com/nao1215/pttcrawl/internal/fetcher"
	"github.com/nao1215/pttcrawl/internal/report"
)

// errCrawlAborted is returned after the partial results of an interrupted
// run have been saved.
var errCrawlAborted = errors.New("crawl aborted before completion; partial results were saved")

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Crawl a board and save its articles as records",
		Long: `Crawl walks the listing pages of one board from a start page toward older
pages, reads every available article and saves the merged records.

For each article the record holds the metadata, body text, signature, source
IP and the comment stream with boo/like/neutral counts and a score.
Pages or articles that fail are logged to <error-dir>/<board>/page_errors.log
together with a snapshot of the failing markup, and the crawl moves on.

Output files:
  <output>/ptt_<board>_<YYYYMMDD_HHMMSS>.<ext>
  <output>/ptt_<board>_latest.<ext>

Examples:
  # Crawl the 5 latest pages of the Drink board
  pttcrawl crawl --board Drink

  # Crawl 3 pages starting from page 3900
  pttcrawl crawl -b Drink -s 3900 -p 3

  # Crawl from the latest page down to the oldest
  pttcrawl crawl -b Drink --all

  # Write CSV and Markdown into ./out
  pttcrawl crawl -b Drink -o out -f csv,markdown

  # Route requests through a SOCKS5 proxy
  pttcrawl crawl -b Drink --proxy 127.0.0.1:1080

Configuration file (.pttcrawl) example:
  defaults:
    pages: 5
    articleDelay: 1s
  boards:
    Gossiping:
      pages: 2
      formats: [csv, json]`,
		Args: cobra.NoArgs,
		RunE: runCrawlCmd,
	}

	// Crawl range flags
	cmd.Flags().StringP("board", "b", config.DefaultBoard,
		"Board to crawl")
	cmd.Flags().IntP("start", "s", 0,
		"First listing page index (0 = latest page)")
	cmd.Flags().IntP("pages", "p", config.DefaultPages,
		"Number of listing pages to crawl")
	cmd.Flags().BoolP("all", "a", false,
		"Crawl from the start page down to the oldest page")

	// Connection flags
	cmd.Flags().String("site-root", config.DefaultSiteRoot,
		"Scheme and host of the board site")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each request")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent header sent with every request")
	cmd.Flags().StringP("proxy", "x", "",
		"Route requests through a SOCKS5 proxy (host:port)")

	// Pacing flags
	cmd.Flags().Duration("article-delay", config.DefaultArticleDelay,
		"Pause after every article")
	cmd.Flags().Duration("page-delay-min", config.DefaultPageDelayMin,
		"Minimum random pause between listing pages")
	cmd.Flags().Duration("page-delay-max", config.DefaultPageDelayMax,
		"Maximum random pause between listing pages")

	// Output flags
	cmd.Flags().StringP("output", "o", config.DefaultOutputDir,
		"Directory receiving the record files")
	cmd.Flags().StringSliceP("format", "f", []string{string(report.FormatCSV)},
		"Output formats: csv, json, markdown")
	cmd.Flags().String("error-dir", config.DefaultErrorDir,
		"Directory receiving the error log and page snapshots")

	// Archive flags
	cmd.Flags().String("db-dir", "",
		"Directory of the SQLite archive (default: XDG data directory)")
	cmd.Flags().Bool("no-db", false,
		"Do not archive the run in the SQLite database")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .pttcrawl in current dir, XDG config dir, or home)")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd, cmd.ErrOrStderr())
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Warn("received shutdown signal, saving partial results...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return runCrawl(ctx, cfg, logger, cmd.OutOrStdout())
}

// buildConfig layers the config file and the changed flags over the
// defaults.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Verbose = getBoolFlag(cmd, "verbose")

	var err error
	cfg.Board, err = cmd.Flags().GetString("board")
	if err != nil {
		return nil, err
	}
	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// If user explicitly specified a config file path, error if not found.
	// If no path specified, silently use defaults if no file found.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	if configPath != "" {
		cf, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		cfg.Apply(cf.GetBoardConfig(cfg.Board))
	} else if cfg.ConfigFilePath != "" {
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	}

	if err := applyFlags(cmd, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyFlags copies the flags the user set onto cfg. Flags left at their
// defaults do not override the config file.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	var err error

	if flags.Changed("start") {
		if cfg.Start, err = flags.GetInt("start"); err != nil {
			return err
		}
	}
	if flags.Changed("pages") {
		if cfg.Pages, err = flags.GetInt("pages"); err != nil {
			return err
		}
	}
	if flags.Changed("all") {
		if cfg.All, err = flags.GetBool("all"); err != nil {
			return err
		}
	}
	if flags.Changed("site-root") {
		if cfg.SiteRoot, err = flags.GetString("site-root"); err != nil {
			return err
		}
	}
	if flags.Changed("timeout") {
		if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
			return err
		}
	}
	if flags.Changed("user-agent") {
		if cfg.UserAgent, err = flags.GetString("user-agent"); err != nil {
			return err
		}
	}
	if flags.Changed("proxy") {
		if cfg.ProxyAddress, err = flags.GetString("proxy"); err != nil {
			return err
		}
	}
	if flags.Changed("article-delay") {
		if cfg.ArticleDelay, err = flags.GetDuration("article-delay"); err != nil {
			return err
		}
	}
	if flags.Changed("page-delay-min") {
		if cfg.PageDelayMin, err = flags.GetDuration("page-delay-min"); err != nil {
			return err
		}
	}
	if flags.Changed("page-delay-max") {
		if cfg.PageDelayMax, err = flags.GetDuration("page-delay-max"); err != nil {
			return err
		}
	}
	if flags.Changed("output") {
		if cfg.OutputDir, err = flags.GetString("output"); err != nil {
			return err
		}
	}
	if flags.Changed("format") {
		if cfg.Formats, err = flags.GetStringSlice("format"); err != nil {
			return err
		}
	}
	if flags.Changed("error-dir") {
		if cfg.ErrorDir, err = flags.GetString("error-dir"); err != nil {
			return err
		}
	}
	if flags.Changed("db-dir") {
		if cfg.DBDir, err = flags.GetString("db-dir"); err != nil {
			return err
		}
	}
	if flags.Changed("no-db") {
		noDB, err := flags.GetBool("no-db")
		if err != nil {
			return err
		}
		cfg.SaveToDB = !noDB
	}
	return nil
}

// newFetcher builds the content fetcher described by cfg.
func newFetcher(cfg *config.Config, logger *slog.Logger) (*fetcher.Fetcher, error) {
	opts := []fetcher.Option{
		fetcher.WithSiteRoot(cfg.SiteRoot),
		fetcher.WithTimeout(cfg.Timeout),
		fetcher.WithUserAgent(cfg.UserAgent),
		fetcher.WithLogger(logger),
	}
	if cfg.ProxyAddress != "" {
		opts = append(opts, fetcher.WithSOCKS5Proxy(cfg.ProxyAddress))
	}
	return fetcher.New(opts...)
}

// runCrawl executes one crawl run and saves its results.
func runCrawl(ctx context.Context, cfg *config.Config, logger *slog.Logger, out io.Writer) error {
	formats, err := cfg.OutputFormats()
	if err != nil {
		return err
	}

	f, err := newFetcher(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create fetcher: %w", err)
	}

	runID := uuid.NewString()

	errorLog, err := report.NewErrorLog(cfg.ErrorDir, cfg.Board)
	if err != nil {
		return fmt.Errorf("failed to prepare error log: %w", err)
	}
	recorders := []crawler.ErrorRecorder{errorLog}

	// Failures and results are persisted even after cancellation.
	persistCtx := context.WithoutCancel(ctx)

	var store *database.Store
	if cfg.SaveToDB {
		store, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer store.Close()
		logger.Info("database opened", "path", store.Path())
		recorders = append(recorders, store.ErrorRecorder(persistCtx, runID, cfg.Board))
	}

	c := crawler.New(f,
		crawler.WithPacer(crawler.NewFixedPacer(cfg.ArticleDelay, cfg.PageDelayMin, cfg.PageDelayMax)),
		crawler.WithErrorRecorder(crawler.NewMultiRecorder(recorders...)),
		crawler.WithLogger(logger),
	)

	fmt.Fprintf(out, "Crawling board %s...\n", cfg.Board)

	result, err := c.Run(ctx, crawler.Request{
		Board: cfg.Board,
		Start: cfg.Start,
		Pages: cfg.Pages,
		All:   cfg.All,
		RunID: runID,
	})
	if err != nil {
		return fmt.Errorf("crawl failed: %w", err)
	}

	stats := newRunStats(result)
	files, err := report.SaveRecords(cfg.OutputDir, cfg.Board, result.StartedAt, result.Records, formats,
		report.WithRunStats(stats))
	if err != nil {
		return fmt.Errorf("failed to save records: %w", err)
	}

	if err := archiveRun(persistCtx, store, result); err != nil {
		logger.Error("failed to archive run", "run_id", result.RunID, "error", err)
	}

	if _, err := report.NewSimpleWriter(out).WriteStats(stats, files); err != nil {
		return err
	}
	if len(result.Errors) > 0 {
		fmt.Fprintf(out, "\nFailures were logged to %s\n", errorLog.Dir())
	}

	if result.State == crawler.StateAborted {
		return errCrawlAborted
	}
	return nil
}

// newRunStats converts a crawl result to report statistics.
func newRunStats(result *crawler.Result) report.RunStats {
	return report.RunStats{
		RunID:         result.RunID,
		Board:         result.Board,
		State:         result.State.String(),
		StartIndex:    result.StartIndex,
		Pages:         result.PagesCrawled,
		PageErrors:    result.PageErrors,
		ArticleErrors: result.ArticleErrors,
		Records:       len(result.Records),
		Removed:       result.Removed,
		Dropped:       result.Dropped,
		Duplicates:    result.Duplicates,
		StartedAt:     result.StartedAt,
		Elapsed:       result.Elapsed,
	}
}

// archiveRun saves the run summary and its records to the database.
// If store is nil, this function is a no-op.
func archiveRun(ctx context.Context, store *database.Store, result *crawler.Result) error {
	if store == nil {
		return nil
	}

	run := &database.Run{
		ID:            result.RunID,
		Board:         result.Board,
		StartIndex:    result.StartIndex,
		Pages:         result.PagesCrawled,
		PageErrors:    result.PageErrors,
		ArticleErrors: result.ArticleErrors,
		Records:       len(result.Records),
		Duplicates:    result.Duplicates,
		State:         result.State.String(),
		StartedAt:     result.StartedAt,
		Elapsed:       result.Elapsed,
	}
	if err := store.SaveRun(ctx, run); err != nil {
		return err
	}
	return store.UpsertArticles(ctx, result.RunID, result.Records)
}

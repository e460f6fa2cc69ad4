package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/pttcrawl/internal/config"
	"github.com/nao1215/pttcrawl/internal/database"
)

// historyTimeLayout renders run start times.
const historyTimeLayout = "2006-01-02 15:04:05"

// NewHistoryCmd creates the history command.
// This command reads the runs, failures and articles archived in the database.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show archived crawl runs",
		Long: `History displays the crawl runs archived in the local database.

Every crawl stores a run summary, the latest version of each article and
every page or article failure. This command lists them:
- The runs of a board, newest first
- The summary and failures of a single run
- The archived articles of a board

Examples:
  # List the runs of the Drink board
  pttcrawl history --board Drink

  # Show a run and its failures
  pttcrawl history --run 1b4e28ba-2fa1-11d2-883f-0016d3cca427

  # List archived articles of a board
  pttcrawl history --board Drink --articles`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().StringP("board", "b", config.DefaultBoard,
		"Board whose runs are listed")
	cmd.Flags().StringP("run", "r", "",
		"Show the summary and failures of this run ID")
	cmd.Flags().Bool("articles", false,
		"List the archived articles of the board instead of its runs")
	cmd.Flags().String("db-dir", "",
		"Directory of the SQLite archive (default: XDG data directory)")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	board, err := cmd.Flags().GetString("board")
	if err != nil {
		return err
	}
	runID, err := cmd.Flags().GetString("run")
	if err != nil {
		return err
	}
	articles, err := cmd.Flags().GetBool("articles")
	if err != nil {
		return err
	}
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}
	if dbDir == "" {
		dbDir = config.XDGDataDir()
	}

	opts := database.DefaultOptions()
	opts.CreateIfNotExists = false
	store, err := database.Open(dbDir, opts)
	if err != nil {
		return fmt.Errorf("failed to open database (run 'pttcrawl crawl' first): %w", err)
	}
	defer store.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	switch {
	case runID != "":
		return showRun(ctx, out, store, runID)
	case articles:
		return listArchivedArticles(ctx, out, store, board)
	default:
		return listRuns(ctx, out, store, board)
	}
}

// listRuns prints the runs of a board, newest first.
func listRuns(ctx context.Context, out io.Writer, store *database.Store, board string) error {
	runs, err := store.ListRuns(ctx, board)
	if err != nil {
		return fmt.Errorf("failed to get run history: %w", err)
	}

	if len(runs) == 0 {
		fmt.Fprintf(out, "No runs found for board %s\n", board)
		fmt.Fprintln(out, "\nUse 'pttcrawl crawl --board "+board+"' to crawl this board.")
		return nil
	}

	fmt.Fprintf(out, "Run history for %s (%d runs):\n\n", board, len(runs))
	fmt.Fprintf(out, "  %-36s  %-19s  %-8s  %5s  %7s  %6s\n", "Run ID", "Started", "State", "Pages", "Records", "Errors")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 92))

	for _, run := range runs {
		fmt.Fprintf(out, "  %-36s  %-19s  %-8s  %5d  %7d  %6d\n",
			run.ID,
			run.StartedAt.Local().Format(historyTimeLayout),
			run.State,
			run.Pages,
			run.Records,
			run.PageErrors+run.ArticleErrors,
		)
	}

	fmt.Fprintln(out, "\nUse 'pttcrawl history --run <id>' to see the failures of a run.")
	return nil
}

// showRun prints one run and its failures.
func showRun(ctx context.Context, out io.Writer, store *database.Store, runID string) error {
	run, err := store.GetRun(ctx, runID)
	if err != nil {
		return err
	}
	if run == nil {
		return fmt.Errorf("run not found: %s", runID)
	}

	fmt.Fprintf(out, "Run %s\n\n", run.ID)
	fmt.Fprintf(out, "  Board:          %s\n", run.Board)
	fmt.Fprintf(out, "  State:          %s\n", run.State)
	fmt.Fprintf(out, "  Started:        %s\n", run.StartedAt.Local().Format(historyTimeLayout))
	fmt.Fprintf(out, "  Elapsed:        %s\n", run.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(out, "  Start page:     %d\n", run.StartIndex)
	fmt.Fprintf(out, "  Pages crawled:  %d\n", run.Pages)
	fmt.Fprintf(out, "  Records:        %d\n", run.Records)
	fmt.Fprintf(out, "  Duplicates:     %d\n", run.Duplicates)
	fmt.Fprintf(out, "  Page errors:    %d\n", run.PageErrors)
	fmt.Fprintf(out, "  Article errors: %d\n", run.ArticleErrors)

	failures, err := store.ListCrawlErrors(ctx, runID)
	if err != nil {
		return err
	}
	if len(failures) == 0 {
		fmt.Fprintln(out, "\nNo failures recorded.")
		return nil
	}

	fmt.Fprintf(out, "\nFailures (%d):\n\n", len(failures))
	for _, e := range failures {
		line := fmt.Sprintf("  %s  %-7s  %s", e.Timestamp.Local().Format(historyTimeLayout), e.Scope, e.Ref)
		if e.Title != "" {
			line += "  " + e.Title
		}
		fmt.Fprintln(out, line)
		fmt.Fprintf(out, "      %s\n", e.Reason)
	}
	return nil
}

// listArchivedArticles prints the archived articles of a board.
func listArchivedArticles(ctx context.Context, out io.Writer, store *database.Store, board string) error {
	records, err := store.ListArticles(ctx, board)
	if err != nil {
		return err
	}

	if len(records) == 0 {
		fmt.Fprintf(out, "No archived articles for board %s\n", board)
		return nil
	}

	fmt.Fprintf(out, "Archived articles for %s (%d):\n\n", board, len(records))
	fmt.Fprintf(out, "  %-24s  %6s  %8s  %s\n", "Content ID", "Score", "Comments", "Title")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 70))
	for _, r := range records {
		fmt.Fprintf(out, "  %-24s  %6d  %8d  %s\n", r.ContentID, r.Score, r.TotalComments, r.Title)
	}
	return nil
}

package crawler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/nao1215/pttcrawl/internal/model"
)

// Request describes one crawl.
type Request struct {
	// Board is the board name, e.g. "Drink".
	Board string

	// Start is the first listing index to crawl. Zero means the latest page.
	Start int

	// Pages is the number of pages to crawl, walking toward older pages.
	// It is ignored when All is set.
	Pages int

	// All crawls from Start down to the oldest page.
	All bool

	// RunID identifies the run. A random UUID is used when empty.
	RunID string
}

// Validate checks the request.
func (r Request) Validate() error {
	if r.Board == "" {
		return ErrBoardRequired
	}
	if r.Start < 0 {
		return ErrInvalidStart
	}
	if !r.All && r.Pages < 1 {
		return ErrInvalidPageCount
	}
	return nil
}

// Result is the outcome of a run. It is returned even for aborted runs.
type Result struct {
	// RunID identifies the run in logs, error files and the archive.
	RunID string

	// Board is the crawled board.
	Board string

	// StartIndex is the resolved first page index.
	StartIndex int

	// Records are the merged, deduplicated rows in first-seen order.
	Records []model.Record

	// Errors lists every page- and article-level failure.
	Errors []model.CrawlError

	// PagesCrawled counts the listing pages attempted.
	PagesCrawled int

	// PageErrors counts listing pages that could not be fetched or parsed.
	PageErrors int

	// ArticleErrors counts articles that could not be read.
	ArticleErrors int

	// Removed counts skipped removed entries.
	Removed int

	// Dropped counts articles discarded for having no title.
	Dropped int

	// Duplicates counts records removed by deduplication.
	Duplicates int

	// State is the terminal state of the run.
	State State

	// StartedAt is when the run began.
	StartedAt time.Time

	// Elapsed is the wall-clock duration of the run.
	Elapsed time.Duration
}

// Crawler runs sequential board crawls.
type Crawler struct {
	fetcher  PageFetcher
	source   model.ArticleSource
	pacer    Pacer
	recorder ErrorRecorder
	logger   *slog.Logger
}

// Option configures a Crawler.
type Option func(*Crawler)

// WithPacer sets the pacing strategy.
func WithPacer(p Pacer) Option {
	return func(c *Crawler) {
		c.pacer = p
	}
}

// WithErrorRecorder sets the collaborator that receives failures.
func WithErrorRecorder(r ErrorRecorder) Option {
	return func(c *Crawler) {
		c.recorder = r
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Crawler) {
		c.logger = logger
	}
}

// WithArticleSource replaces the source used to read articles.
// By default articles are fetched with the crawler's fetcher.
func WithArticleSource(src model.ArticleSource) Option {
	return func(c *Crawler) {
		c.source = src
	}
}

// New creates a Crawler that fetches pages with f.
func New(f PageFetcher, opts ...Option) *Crawler {
	c := &Crawler{
		fetcher: f,
		pacer:   DefaultPacer(),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.source == nil {
		c.source = articleSource{fetcher: f}
	}
	return c
}

// run holds the mutable state of a single Run call.
type run struct {
	req    Request
	result *Result
	pages  [][]model.Record
}

// Run crawls the requested pages.
//
// Page and article failures are recorded, never returned. The error return
// is reserved for invalid requests. A cancelled context ends the run in
// StateAborted with the records gathered so far.
func (c *Crawler) Run(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	runID := req.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	r := &run{
		req: req,
		result: &Result{
			RunID:     runID,
			Board:     req.Board,
			StartedAt: time.Now(),
		},
	}
	logger := c.logger.With("run_id", r.result.RunID, "board", req.Board)

	c.transition(logger, r, StateResolvingStart)
	start := c.resolveStart(ctx, logger, req)
	r.result.StartIndex = start
	logger.Info("crawl started", "start", start, "pages", req.Pages, "all", req.All)

	aborted := c.walk(ctx, logger, r, start)

	c.transition(logger, r, StateMerging)
	var merged []model.Record
	for _, page := range r.pages {
		merged = append(merged, page...)
	}
	r.result.Records, r.result.Duplicates = model.Dedupe(merged)
	r.result.Elapsed = time.Since(r.result.StartedAt)

	if aborted {
		c.transition(logger, r, StateAborted)
	} else {
		c.transition(logger, r, StateFinished)
	}

	logger.Info("crawl finished",
		"state", r.result.State.String(),
		"pages", r.result.PagesCrawled,
		"records", len(r.result.Records),
		"page_errors", r.result.PageErrors,
		"article_errors", r.result.ArticleErrors,
		"duplicates", r.result.Duplicates,
		"elapsed", r.result.Elapsed,
	)
	return r.result, nil
}

// walk visits listing pages from start toward older pages. It reports
// whether the walk was cut short by cancellation.
func (c *Crawler) walk(ctx context.Context, logger *slog.Logger, r *run, start int) bool {
	index := start
	for crawled := 0; r.req.All || crawled < r.req.Pages; crawled++ {
		if index <= 0 {
			logger.Debug("reached the oldest page")
			return false
		}
		if ctx.Err() != nil {
			return true
		}

		c.transition(logger, r, StateFetchingPage)
		records, cancelled := c.crawlPage(ctx, logger, r, index)
		r.result.PagesCrawled++
		if records != nil {
			c.transition(logger, r, StateAccumulating)
			r.pages = append(r.pages, records)
		}
		if cancelled {
			return true
		}

		c.transition(logger, r, StateNextPage)
		index--

		last := !r.req.All && crawled+1 >= r.req.Pages
		if last || index <= 0 {
			continue
		}
		if err := c.pacer.AfterPage(ctx); err != nil {
			return true
		}
	}
	return false
}

// crawlPage processes one listing page. It returns the page's records,
// nil if the listing itself failed, and whether cancellation interrupted it.
func (c *Crawler) crawlPage(ctx context.Context, logger *slog.Logger, r *run, index int) ([]model.Record, bool) {
	address := model.ListingAddress(r.req.Board, index)
	page, err := readListing(ctx, c.fetcher, address)
	if err != nil {
		if ctx.Err() != nil {
			return nil, true
		}
		r.result.PageErrors++
		c.record(logger, r, model.CrawlError{
			Scope: model.ScopePage,
			Ref:   strconv.Itoa(index),
			Err:   err,
		})
		return nil, false
	}

	c.transition(logger, r, StateExtractingArticles)
	logger.Debug("listing parsed",
		"index", index,
		"entries", len(page.Summaries),
		"removed", page.RemovedCount(),
	)

	records := make([]model.Record, 0, len(page.Summaries))
	for _, summary := range page.Summaries {
		if ctx.Err() != nil {
			return records, true
		}
		if summary.IsRemoved() {
			r.result.Removed++
			logger.Debug("skipping removed article", "note", summary.RemovalNote())
			continue
		}

		record, ok := c.readArticle(ctx, logger, r, summary)
		if ctx.Err() != nil {
			return records, true
		}
		if ok {
			records = append(records, record)
		}

		if err := c.pacer.AfterArticle(ctx); err != nil {
			return records, true
		}
	}

	logger.Info("page crawled", "index", index, "records", len(records))
	return records, false
}

// readArticle reads one available summary into a record.
// ok is false when the article failed or has no title.
func (c *Crawler) readArticle(ctx context.Context, logger *slog.Logger, r *run, summary model.Summary) (model.Record, bool) {
	address, _ := summary.Address()

	article, err := summary.Read(ctx, c.source)
	if err != nil {
		if errors.Is(err, model.ErrArticleRemoved) || ctx.Err() != nil {
			return model.Record{}, false
		}
		r.result.ArticleErrors++
		c.record(logger, r, model.CrawlError{
			Scope: model.ScopeArticle,
			Ref:   address,
			Title: summary.Title,
			Err:   err,
		})
		return model.Record{}, false
	}

	if len(article.Warnings) > 0 {
		logger.Debug("article parsed with warnings", "address", address, "warnings", article.Warnings)
	}

	record := article.Record()
	if record.Title == "" {
		record.Title = summary.Title
	}
	if record.Author == "" {
		record.Author = summary.Author
	}
	if record.Board == "" {
		record.Board = r.req.Board
	}
	if record.Title == "" {
		r.result.Dropped++
		logger.Debug("dropping article without title", "address", address)
		return model.Record{}, false
	}
	return record, true
}

// record stores a failure in the result and hands it to the recorder.
func (c *Crawler) record(logger *slog.Logger, r *run, e model.CrawlError) {
	if e.Err != nil {
		e.Reason = e.Err.Error()
	}
	e.Timestamp = time.Now()
	var me *markupError
	var fe *model.FetchError
	switch {
	case errors.As(e.Err, &me):
		e.Raw = me.raw
	case errors.As(e.Err, &fe) && len(fe.Body) > 0:
		e.Raw = fe.Body
	}

	r.result.Errors = append(r.result.Errors, e)
	logger.Warn("crawl item failed",
		"scope", string(e.Scope),
		"ref", e.Ref,
		"title", e.Title,
		"reason", e.Reason,
	)

	if c.recorder == nil {
		return
	}
	if err := c.recorder.Record(e); err != nil {
		logger.Warn("failed to record crawl error", "error", err)
	}
}

// resolveStart returns the explicit start index, or the index of the
// latest page. It falls back to 1 when the latest page cannot be read.
func (c *Crawler) resolveStart(ctx context.Context, logger *slog.Logger, req Request) int {
	if req.Start > 0 {
		return req.Start
	}

	page, err := readListing(ctx, c.fetcher, model.ListingAddress(req.Board, 0))
	if err != nil {
		logger.Warn("could not resolve the latest page, starting from page 1", "error", err)
		return 1
	}
	logger.Debug("resolved latest page", "index", page.Index)
	return page.Index
}

func (c *Crawler) transition(logger *slog.Logger, r *run, next State) {
	logger.Debug("state transition", "from", r.result.State.String(), "to", next.String())
	r.result.State = next
}

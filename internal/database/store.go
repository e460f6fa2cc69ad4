package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/pttcrawl/internal/model"
)

// FileName is the database file created inside the database directory.
const FileName = "pttcrawl.db"

// Store is the SQLite archive of crawl runs, articles and failures.
type Store struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures Store behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a Store in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*Store, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file, mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := s.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return s, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (s *Store) createTables() error {
	schema := `
	-- One row per crawl run
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		board TEXT NOT NULL,
		start_index INTEGER NOT NULL,
		pages INTEGER NOT NULL,
		page_errors INTEGER NOT NULL,
		article_errors INTEGER NOT NULL,
		records INTEGER NOT NULL,
		duplicates INTEGER NOT NULL,
		state TEXT NOT NULL,
		started_at TEXT NOT NULL,
		elapsed_ms INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_board ON runs(board);

	-- Latest known version of every article, keyed by board and content id
	CREATE TABLE IF NOT EXISTS articles (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		board TEXT NOT NULL,
		content_id TEXT NOT NULL,
		author TEXT,
		category TEXT,
		title TEXT NOT NULL,
		body TEXT,
		date TEXT,
		source_ip TEXT,
		total_comments INTEGER DEFAULT 0,
		boo_count INTEGER DEFAULT 0,
		like_count INTEGER DEFAULT 0,
		neutral_count INTEGER DEFAULT 0,
		score INTEGER DEFAULT 0,
		comments TEXT,
		run_id TEXT,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(board, content_id)
	);

	CREATE INDEX IF NOT EXISTS idx_articles_board ON articles(board);

	-- Page and article failures per run
	CREATE TABLE IF NOT EXISTS crawl_errors (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		board TEXT NOT NULL,
		scope TEXT NOT NULL,
		ref TEXT NOT NULL,
		title TEXT,
		reason TEXT,
		timestamp TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_errors_run ON crawl_errors(run_id);
	`

	_, err := s.db.ExecContext(context.Background(), schema)
	return err
}

// Run is the stored summary of one crawl run.
type Run struct {
	ID            string
	Board         string
	StartIndex    int
	Pages         int
	PageErrors    int
	ArticleErrors int
	Records       int
	Duplicates    int
	State         string
	StartedAt     time.Time
	Elapsed       time.Duration
}

// SaveRun inserts or replaces a run summary.
func (s *Store) SaveRun(ctx context.Context, run *Run) error {
	query := `
	INSERT INTO runs (id, board, start_index, pages, page_errors, article_errors, records, duplicates, state, started_at, elapsed_ms)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		pages = excluded.pages,
		page_errors = excluded.page_errors,
		article_errors = excluded.article_errors,
		records = excluded.records,
		duplicates = excluded.duplicates,
		state = excluded.state,
		elapsed_ms = excluded.elapsed_ms
	`

	_, err := s.db.ExecContext(ctx, query,
		run.ID,
		run.Board,
		run.StartIndex,
		run.Pages,
		run.PageErrors,
		run.ArticleErrors,
		run.Records,
		run.Duplicates,
		run.State,
		run.StartedAt.UTC().Format(time.RFC3339Nano),
		run.Elapsed.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

// GetRun retrieves a run by id. It returns nil when the run is unknown.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	query := `
	SELECT id, board, start_index, pages, page_errors, article_errors, records, duplicates, state, started_at, elapsed_ms
	FROM runs
	WHERE id = ?
	`

	run, err := scanRun(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListRuns returns the runs of a board, newest first.
func (s *Store) ListRuns(ctx context.Context, board string) ([]Run, error) {
	query := `
	SELECT id, board, start_index, pages, page_errors, article_errors, records, duplicates, state, started_at, elapsed_ms
	FROM runs
	WHERE board = ?
	ORDER BY started_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query, board)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var run Run
	var startedAt string
	var elapsedMS int64

	err := row.Scan(
		&run.ID,
		&run.Board,
		&run.StartIndex,
		&run.Pages,
		&run.PageErrors,
		&run.ArticleErrors,
		&run.Records,
		&run.Duplicates,
		&run.State,
		&startedAt,
		&elapsedMS,
	)
	if err != nil {
		return nil, err
	}
	run.StartedAt = parseTimestamp(startedAt)
	run.Elapsed = time.Duration(elapsedMS) * time.Millisecond
	return &run, nil
}

// UpsertArticles stores records in one transaction. An article already
// archived for the same board and content id is replaced by the newer crawl.
func (s *Store) UpsertArticles(ctx context.Context, runID string, records []model.Record) error {
	query := `
	INSERT INTO articles (board, content_id, author, category, title, body, date, source_ip,
		total_comments, boo_count, like_count, neutral_count, score, comments, run_id)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(board, content_id) DO UPDATE SET
		author = excluded.author,
		category = excluded.category,
		title = excluded.title,
		body = excluded.body,
		date = excluded.date,
		source_ip = excluded.source_ip,
		total_comments = excluded.total_comments,
		boo_count = excluded.boo_count,
		like_count = excluded.like_count,
		neutral_count = excluded.neutral_count,
		score = excluded.score,
		comments = excluded.comments,
		run_id = excluded.run_id,
		updated_at = CURRENT_TIMESTAMP
	`

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare article upsert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		comments, err := json.Marshal(r.Comments)
		if err != nil {
			return fmt.Errorf("failed to serialize comments of %s: %w", r.ContentID, err)
		}
		_, err = stmt.ExecContext(ctx,
			r.Board,
			r.ContentID,
			r.Author,
			r.Category,
			r.Title,
			r.Body,
			r.Date,
			r.SourceIP,
			r.TotalComments,
			r.Boo,
			r.Like,
			r.Neutral,
			r.Score,
			string(comments),
			runID,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert article %s: %w", r.ContentID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit articles: %w", err)
	}
	return nil
}

// GetArticle retrieves an archived article. It returns nil when the article
// is unknown.
func (s *Store) GetArticle(ctx context.Context, board, contentID string) (*model.Record, error) {
	query := `
	SELECT content_id, author, board, category, title, body, date, source_ip,
		total_comments, boo_count, like_count, neutral_count, score, comments
	FROM articles
	WHERE board = ? AND content_id = ?
	`

	record, err := scanArticle(s.db.QueryRowContext(ctx, query, board, contentID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get article: %w", err)
	}
	return record, nil
}

// ListArticles returns every archived article of a board ordered by content id.
func (s *Store) ListArticles(ctx context.Context, board string) ([]model.Record, error) {
	query := `
	SELECT content_id, author, board, category, title, body, date, source_ip,
		total_comments, boo_count, like_count, neutral_count, score, comments
	FROM articles
	WHERE board = ?
	ORDER BY content_id
	`

	rows, err := s.db.QueryContext(ctx, query, board)
	if err != nil {
		return nil, fmt.Errorf("failed to list articles: %w", err)
	}
	defer rows.Close()

	var records []model.Record
	for rows.Next() {
		record, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan article: %w", err)
		}
		records = append(records, *record)
	}
	return records, rows.Err()
}

func scanArticle(row rowScanner) (*model.Record, error) {
	var r model.Record
	var author, category, body, date, sourceIP, comments sql.NullString

	err := row.Scan(
		&r.ContentID,
		&author,
		&r.Board,
		&category,
		&r.Title,
		&body,
		&date,
		&sourceIP,
		&r.TotalComments,
		&r.Boo,
		&r.Like,
		&r.Neutral,
		&r.Score,
		&comments,
	)
	if err != nil {
		return nil, err
	}
	r.Author = author.String
	r.Category = category.String
	r.Body = body.String
	r.Date = date.String
	r.SourceIP = sourceIP.String

	if comments.Valid && comments.String != "" && comments.String != "null" {
		if err := json.Unmarshal([]byte(comments.String), &r.Comments); err != nil {
			return nil, fmt.Errorf("failed to parse comments: %w", err)
		}
	}
	return &r, nil
}

// InsertCrawlError stores one failure of a run.
func (s *Store) InsertCrawlError(ctx context.Context, runID, board string, e model.CrawlError) error {
	query := `
	INSERT INTO crawl_errors (run_id, board, scope, ref, title, reason, timestamp)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	ts := e.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	_, err := s.db.ExecContext(ctx, query,
		runID,
		board,
		string(e.Scope),
		e.Ref,
		e.Title,
		e.Reason,
		ts.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to insert crawl error: %w", err)
	}
	return nil
}

// ListCrawlErrors returns the failures of a run in insertion order.
func (s *Store) ListCrawlErrors(ctx context.Context, runID string) ([]model.CrawlError, error) {
	query := `
	SELECT scope, ref, title, reason, timestamp
	FROM crawl_errors
	WHERE run_id = ?
	ORDER BY id
	`

	rows, err := s.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list crawl errors: %w", err)
	}
	defer rows.Close()

	var results []model.CrawlError
	for rows.Next() {
		var e model.CrawlError
		var scope, timestamp string
		var title, reason sql.NullString

		if err := rows.Scan(&scope, &e.Ref, &title, &reason, &timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan crawl error: %w", err)
		}
		e.Scope = model.CrawlScope(scope)
		e.Title = title.String
		e.Reason = reason.String
		e.Timestamp = parseTimestamp(timestamp)
		results = append(results, e)
	}
	return results, rows.Err()
}

// ErrorRecorder stores the failures of one run. It satisfies
// crawler.ErrorRecorder.
type ErrorRecorder struct {
	ctx   context.Context //nolint:containedctx // the crawler's recorder interface carries no context
	store *Store
	runID string
	board string
}

// ErrorRecorder returns a recorder that writes failures of runID to the store.
func (s *Store) ErrorRecorder(ctx context.Context, runID, board string) *ErrorRecorder {
	return &ErrorRecorder{ctx: ctx, store: s, runID: runID, board: board}
}

// Record stores e.
func (r *ErrorRecorder) Record(e model.CrawlError) error {
	return r.store.InsertCrawlError(r.ctx, r.runID, r.board, e)
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339Nano,          // values written by this package
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

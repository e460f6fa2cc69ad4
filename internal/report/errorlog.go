package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/nao1215/pttcrawl/internal/model"
)

// ErrorLogName is the file that collects one line per failure.
const ErrorLogName = "page_errors.log"

// ErrorLog writes crawl failures below <root>/<board>: one line per failure
// in page_errors.log, plus an HTML snapshot when the failing markup is known.
// It satisfies crawler.ErrorRecorder.
type ErrorLog struct {
	dir string
	mu  sync.Mutex
}

// NewErrorLog creates the board's error directory and returns an ErrorLog
// writing into it.
func NewErrorLog(root, board string) (*ErrorLog, error) {
	if board == "" {
		return nil, ErrBoardRequired
	}
	dir := filepath.Join(root, board)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create error directory: %w", err)
	}
	return &ErrorLog{dir: dir}, nil
}

// Dir returns the directory the log writes into.
func (l *ErrorLog) Dir() string {
	return l.dir
}

// Record appends e to page_errors.log and snapshots e.Raw when present.
func (l *ErrorLog) Record(e model.CrawlError) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	ts := e.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	if len(e.Raw) > 0 {
		if err := os.WriteFile(filepath.Join(l.dir, SnapshotName(e, ts)), e.Raw, 0o600); err != nil {
			return fmt.Errorf("failed to write error snapshot: %w", err)
		}
	}

	f, err := os.OpenFile(filepath.Join(l.dir, ErrorLogName), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open error log: %w", err)
	}
	defer f.Close()

	if _, err := fmt.Fprintln(f, FormatLogLine(e, ts)); err != nil {
		return fmt.Errorf("failed to write error log: %w", err)
	}
	return nil
}

// FormatLogLine renders e as "<RFC3339> - <scope> <ref>: <reason>".
// Line breaks in the reason are flattened so each failure stays on one line.
func FormatLogLine(e model.CrawlError, ts time.Time) string {
	reason := strings.Join(strings.Fields(e.Reason), " ")
	return fmt.Sprintf("%s - %s %s: %s", ts.Format(time.RFC3339), e.Scope, e.Ref, reason)
}

// SnapshotName returns <scope>_error_<ref>_<timestamp>.html. Article
// references are reduced to their content ID.
func SnapshotName(e model.CrawlError, ts time.Time) string {
	ref := e.Ref
	if e.Scope == model.ScopeArticle {
		if addr, err := model.ParseAddress(ref); err == nil && addr.ContentID() != "" {
			ref = addr.ContentID()
		}
	}
	return fmt.Sprintf("%s_error_%s_%s.html", e.Scope, sanitizeFileComponent(ref), ts.Format(TimestampLayout))
}

// sanitizeFileComponent replaces characters that are unsafe in file names.
func sanitizeFileComponent(s string) string {
	if s == "" {
		return "unknown"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, s)
}

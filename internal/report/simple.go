package report

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// RunStats summarizes one crawl run.
type RunStats struct {
	RunID         string        `json:"run_id"`
	Board         string        `json:"board"`
	State         string        `json:"state"`
	StartIndex    int           `json:"start_index"`
	Pages         int           `json:"pages"`
	PageErrors    int           `json:"page_errors"`
	ArticleErrors int           `json:"article_errors"`
	Records       int           `json:"records"`
	Removed       int           `json:"removed"`
	Dropped       int           `json:"dropped"`
	Duplicates    int           `json:"duplicates"`
	StartedAt     time.Time     `json:"started_at"`
	Elapsed       time.Duration `json:"elapsed_ns"`
}

// SuccessfulPages returns the pages that were fetched and parsed.
func (s RunStats) SuccessfulPages() int {
	if n := s.Pages - s.PageErrors; n > 0 {
		return n
	}
	return 0
}

// SimpleWriter prints run statistics for terminal display.
type SimpleWriter struct {
	baseWriter
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer) *SimpleWriter {
	return &SimpleWriter{baseWriter: newBaseWriter(output)}
}

// WriteStats writes the run statistics and the list of saved files.
func (w *SimpleWriter) WriteStats(stats RunStats, files []string) (int, error) {
	var sb strings.Builder

	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 50))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("PTT crawl summary: %s\n", stats.Board))
	sb.WriteString(strings.Repeat("=", 50))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Run ID:          %s\n", stats.RunID))
	sb.WriteString(fmt.Sprintf("Status:          %s\n", stats.State))
	sb.WriteString(fmt.Sprintf("Start page:      %d\n", stats.StartIndex))
	sb.WriteString(fmt.Sprintf("Pages crawled:   %d\n", stats.Pages))
	sb.WriteString(fmt.Sprintf("Pages succeeded: %d\n", stats.SuccessfulPages()))
	sb.WriteString(fmt.Sprintf("Page errors:     %d\n", stats.PageErrors))
	sb.WriteString(fmt.Sprintf("Article errors:  %d\n", stats.ArticleErrors))
	sb.WriteString(fmt.Sprintf("Removed skipped: %d\n", stats.Removed))
	sb.WriteString(fmt.Sprintf("Untitled drops:  %d\n", stats.Dropped))
	sb.WriteString(fmt.Sprintf("Duplicates:      %d\n", stats.Duplicates))
	sb.WriteString(fmt.Sprintf("Records:         %d\n", stats.Records))
	sb.WriteString(fmt.Sprintf("Elapsed:         %s\n", stats.Elapsed.Round(time.Millisecond)))

	if len(files) > 0 {
		sb.WriteString("\nSaved files:\n")
		for _, f := range files {
			sb.WriteString("  - ")
			sb.WriteString(f)
			sb.WriteString("\n")
		}
	}

	return w.output.Write([]byte(sb.String()))
}

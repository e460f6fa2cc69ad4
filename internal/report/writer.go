package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/pttcrawl/internal/model"
)

// RecordWriter persists the records of a crawl.
type RecordWriter interface {
	// WriteRecords writes all records to the configured destination.
	WriteRecords(records []model.Record) error
}

// Format is an output file format.
type Format string

const (
	// FormatCSV is comma-separated values with a UTF-8 BOM.
	FormatCSV Format = "csv"
	// FormatJSON is a JSON array of records.
	FormatJSON Format = "json"
	// FormatMarkdown is a human-readable Markdown report.
	FormatMarkdown Format = "markdown"
)

// Formats lists every supported format.
func Formats() []Format {
	return []Format{FormatCSV, FormatJSON, FormatMarkdown}
}

// ParseFormat converts a format name to a Format. "md" is accepted for
// Markdown.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// Extension returns the file extension for the format, without the dot.
func (f Format) Extension() string {
	if f == FormatMarkdown {
		return "md"
	}
	return string(f)
}

// NewRecordWriter returns a RecordWriter for format that writes to output.
func NewRecordWriter(format Format, output io.Writer, opts ...WriterOption) (RecordWriter, error) {
	switch format {
	case FormatCSV:
		return NewCSVWriter(output), nil
	case FormatJSON:
		return NewJSONWriter(output, WithPrettyPrint()), nil
	case FormatMarkdown:
		return NewMarkdownWriter(output, opts...), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// WriterOption configures writers that can render run statistics.
type WriterOption func(*writerOptions)

type writerOptions struct {
	stats *RunStats
}

// WithRunStats attaches run statistics to the report.
func WithRunStats(stats RunStats) WriterOption {
	return func(o *writerOptions) {
		o.stats = &stats
	}
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

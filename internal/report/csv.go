package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"

	"github.com/nao1215/pttcrawl/internal/model"
)

// utf8BOM lets spreadsheet tools detect the encoding of the Chinese text.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVWriter writes records as CSV in model.Columns order.
// The comments column holds the comment stream as a JSON array.
type CSVWriter struct {
	baseWriter
}

// NewCSVWriter creates a CSVWriter that outputs to the given writer.
func NewCSVWriter(output io.Writer) *CSVWriter {
	return &CSVWriter{baseWriter: newBaseWriter(output)}
}

// WriteRecords writes the BOM, the header row and one row per record.
func (w *CSVWriter) WriteRecords(records []model.Record) error {
	if _, err := w.output.Write(utf8BOM); err != nil {
		return fmt.Errorf("failed to write BOM: %w", err)
	}

	cw := csv.NewWriter(w.output)
	if err := cw.Write(model.Columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, r := range records {
		comments := r.Comments
		if comments == nil {
			comments = []model.CommentEvent{}
		}
		encoded, err := json.Marshal(comments)
		if err != nil {
			return fmt.Errorf("failed to encode comments of %s: %w", r.ContentID, err)
		}
		if err := cw.Write(append(r.Values(), string(encoded))); err != nil {
			return fmt.Errorf("failed to write record %s: %w", r.ContentID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

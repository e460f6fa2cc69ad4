package report

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/nao1215/pttcrawl/internal/model"
)

// TimestampLayout is the timestamp embedded in output and snapshot file names.
const TimestampLayout = "20060102_150405"

// LatestSuffix replaces the timestamp in the file that always holds the most
// recent run.
const LatestSuffix = "latest"

// OutputFileName returns ptt_<board>_<suffix>.<ext>.
func OutputFileName(board, suffix string, format Format) string {
	return fmt.Sprintf("ptt_%s_%s.%s", board, suffix, format.Extension())
}

// SaveRecords renders records once per format and writes each rendering to
// a timestamped file and to the board's latest file inside dir. It returns
// the written paths in order.
func SaveRecords(dir, board string, ts time.Time, records []model.Record, formats []Format, opts ...WriterOption) ([]string, error) {
	if board == "" {
		return nil, ErrBoardRequired
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	stamp := ts.Format(TimestampLayout)
	paths := make([]string, 0, len(formats)*2)
	for _, format := range formats {
		var buf bytes.Buffer
		w, err := NewRecordWriter(format, &buf, opts...)
		if err != nil {
			return paths, err
		}
		if err := w.WriteRecords(records); err != nil {
			return paths, fmt.Errorf("failed to render %s: %w", format, err)
		}

		for _, suffix := range []string{stamp, LatestSuffix} {
			path := filepath.Join(dir, OutputFileName(board, suffix, format))
			if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
				return paths, fmt.Errorf("failed to write %s: %w", path, err)
			}
			paths = append(paths, path)
		}
	}
	return paths, nil
}

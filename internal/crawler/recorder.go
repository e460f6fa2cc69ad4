package crawler

import (
	"errors"

	"github.com/nao1215/pttcrawl/internal/model"
)

// ErrorRecorder receives every page- and article-level failure of a run.
// A recorder error is logged by the crawler and never stops the run.
type ErrorRecorder interface {
	Record(e model.CrawlError) error
}

// ErrorRecorderFunc adapts a function to the ErrorRecorder interface.
type ErrorRecorderFunc func(e model.CrawlError) error

// Record calls f(e).
func (f ErrorRecorderFunc) Record(e model.CrawlError) error {
	return f(e)
}

// MultiRecorder forwards each failure to several recorders.
type MultiRecorder struct {
	recorders []ErrorRecorder
}

// NewMultiRecorder creates a MultiRecorder. Nil recorders are ignored.
func NewMultiRecorder(recorders ...ErrorRecorder) *MultiRecorder {
	m := &MultiRecorder{}
	for _, r := range recorders {
		if r != nil {
			m.recorders = append(m.recorders, r)
		}
	}
	return m
}

// Record forwards e to every recorder and joins their errors.
func (m *MultiRecorder) Record(e model.CrawlError) error {
	var errs []error
	for _, r := range m.recorders {
		if err := r.Record(e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

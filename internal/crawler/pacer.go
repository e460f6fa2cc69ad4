package crawler

import (
	"context"
	"math/rand/v2"
	"time"
)

// Default pacing delays.
const (
	DefaultArticleDelay = 1 * time.Second
	DefaultPageDelayMin = 500 * time.Millisecond
	DefaultPageDelayMax = 1500 * time.Millisecond
)

// Pacer decides how long the crawler waits between requests.
// Both methods return early with the context error when ctx is cancelled.
type Pacer interface {
	// AfterArticle is called after every article fetch.
	AfterArticle(ctx context.Context) error

	// AfterPage is called after every page except the last one.
	AfterPage(ctx context.Context) error
}

// FixedPacer waits a fixed delay after each article and a uniformly random
// delay in [PageMin, PageMax] after each page.
type FixedPacer struct {
	Article time.Duration
	PageMin time.Duration
	PageMax time.Duration
}

// NewFixedPacer creates a FixedPacer. If pageMax is below pageMin the page
// delay is fixed at pageMin.
func NewFixedPacer(article, pageMin, pageMax time.Duration) *FixedPacer {
	if pageMax < pageMin {
		pageMax = pageMin
	}
	return &FixedPacer{Article: article, PageMin: pageMin, PageMax: pageMax}
}

// DefaultPacer returns the pacer used when none is configured.
func DefaultPacer() *FixedPacer {
	return NewFixedPacer(DefaultArticleDelay, DefaultPageDelayMin, DefaultPageDelayMax)
}

// AfterArticle waits the fixed article delay.
func (p *FixedPacer) AfterArticle(ctx context.Context) error {
	return sleep(ctx, p.Article)
}

// AfterPage waits a random delay within the page bounds.
func (p *FixedPacer) AfterPage(ctx context.Context) error {
	return sleep(ctx, p.pageDelay())
}

func (p *FixedPacer) pageDelay() time.Duration {
	span := p.PageMax - p.PageMin
	if span <= 0 {
		return p.PageMin
	}
	return p.PageMin + rand.N(span+1) //nolint:gosec // pacing does not need a secure source
}

// NoPacer never waits. It only reports cancellation.
type NoPacer struct{}

// AfterArticle returns ctx.Err().
func (NoPacer) AfterArticle(ctx context.Context) error {
	return ctx.Err()
}

// AfterPage returns ctx.Err().
func (NoPacer) AfterPage(ctx context.Context) error {
	return ctx.Err()
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

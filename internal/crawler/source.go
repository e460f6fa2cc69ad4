package crawler

import (
	"context"
	"fmt"

	"github.com/nao1215/pttcrawl/internal/model"
	"github.com/nao1215/pttcrawl/internal/parser"
)

// PageFetcher retrieves raw markup for an address.
// *fetcher.Fetcher satisfies it.
type PageFetcher interface {
	Fetch(ctx context.Context, address string) ([]byte, error)
}

// markupError is a parse failure that carries the markup it failed on,
// so recorders can snapshot it.
type markupError struct {
	err error
	raw []byte
}

func (e *markupError) Error() string { return e.err.Error() }

func (e *markupError) Unwrap() error { return e.err }

// articleSource reads articles by fetching and parsing them.
type articleSource struct {
	fetcher PageFetcher
}

var _ model.ArticleSource = articleSource{}

// ReadArticle fetches the article at address and parses it.
func (s articleSource) ReadArticle(ctx context.Context, address string) (*model.Article, error) {
	raw, err := s.fetcher.Fetch(ctx, address)
	if err != nil {
		return nil, err
	}
	article, err := parser.ParseArticle(raw, address)
	if err != nil {
		return nil, &markupError{err: fmt.Errorf("failed to parse article: %w", err), raw: raw}
	}
	return article, nil
}

// readListing fetches and parses one listing page.
func readListing(ctx context.Context, f PageFetcher, address string) (*model.ListingPage, error) {
	raw, err := f.Fetch(ctx, address)
	if err != nil {
		return nil, err
	}
	page, err := parser.ParseListing(raw, address)
	if err != nil {
		return nil, &markupError{err: fmt.Errorf("failed to parse listing: %w", err), raw: raw}
	}
	return page, nil
}

// Package crawler drives a sequential crawl of one board.
//
// # Architecture
//
// The Crawler walks listing pages from a start index toward the oldest page.
// For every page it fetches and parses the listing, reads each available
// article through its summary, and accumulates the flattened records. When
// the walk ends the per-page record sets are merged in first-seen order and
// deduplicated by (title, author).
//
// Failures never abort the crawl. A listing that cannot be fetched or parsed
// becomes one page-scoped CrawlError; an article that cannot be read becomes
// one article-scoped CrawlError. Both are handed to the optional
// ErrorRecorder and kept in the Result. Removed articles are skipped.
//
// # Pacing
//
// Delays between articles and between pages are delegated to a Pacer. The
// default FixedPacer waits one second after each article and a random 0.5 to
// 1.5 seconds after each page. Tests use NoPacer.
//
// # Cancellation
//
// The context is checked between pages, between articles and during every
// pacing delay. A cancelled run ends in StateAborted and still returns the
// records gathered so far.
//
// # Usage
//
//	f, _ := fetcher.New()
//	c := crawler.New(f, crawler.WithLogger(logger))
//	result, err := c.Run(ctx, crawler.Request{Board: "Drink", Pages: 5})
package crawler

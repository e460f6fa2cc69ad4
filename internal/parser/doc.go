// Package parser extracts structured data from board markup.
//
// It has three entry points:
//   - ParseListing turns one index page into a model.ListingPage: its
//     summaries ordered oldest to newest, its navigation links and its index.
//   - parseSummary (used by ParseListing) turns one listing entry into a
//     model.Summary, which is either available or removed.
//   - ParseArticle turns one article page into a model.Article.
//
// Article parsing runs as an ordered list of steps over the #main-content
// container. Each step removes noise from the container or fills part of the
// article, and reports soft warnings instead of failing. Only a page with no
// container at all is rejected.
//
// The package does no I/O. Callers pass raw markup and the address it was
// fetched from.
package parser

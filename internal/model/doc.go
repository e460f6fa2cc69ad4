// Package model defines the core data structures used throughout pttcrawl.
//
// This package contains the following main types:
//   - Address: A parsed (root, board, content id) page address
//   - Summary: One listing entry, either available or removed
//   - ListingPage: One page of a board index with its navigation links
//   - Article: A fully parsed post with body, signature and comments
//   - CommentSet: The ordered comment events of an article and their counts
//   - Record: The flattened output row written by report writers
//
// Models live in their own package so that the parser, crawler, report and
// database packages can share them without import cycles.
//
// The error taxonomy for extraction and retrieval is also defined here, since
// every layer of the crawl needs to produce or inspect those errors.
package model

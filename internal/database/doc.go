// Package database provides the SQLite archive for pttcrawl.
//
// The Store keeps three tables:
//   - runs: one summary row per crawl run
//   - articles: the latest crawled version of each article, keyed by board
//     and content id so repeated crawls update rather than duplicate
//   - crawl_errors: every page and article failure of a run
//
// The database is a single CGO-free SQLite file (modernc.org/sqlite) in WAL
// mode with one open connection.
package database

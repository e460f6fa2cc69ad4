package model

import (
	"strconv"
	"time"
)

// Columns is the fixed output column order.
var Columns = []string{
	"content_id",
	"author",
	"board",
	"category",
	"title",
	"body",
	"date",
	"source_ip",
	"total_comments",
	"boo",
	"like",
	"neutral",
	"score",
	"comments",
}

// Record is one flattened output row.
type Record struct {
	ContentID     string         `json:"content_id"`
	Author        string         `json:"author"`
	Board         string         `json:"board"`
	Category      string         `json:"category"`
	Title         string         `json:"title"`
	Body          string         `json:"body"`
	Date          string         `json:"date"`
	SourceIP      string         `json:"source_ip"`
	TotalComments int            `json:"total_comments"`
	Boo           int            `json:"boo"`
	Like          int            `json:"like"`
	Neutral       int            `json:"neutral"`
	Score         int            `json:"score"`
	Comments      []CommentEvent `json:"comments"`
}

// Values returns the scalar columns in Columns order.
// The comments column is left to the caller, which picks its own encoding.
func (r Record) Values() []string {
	return []string{
		r.ContentID,
		r.Author,
		r.Board,
		r.Category,
		r.Title,
		r.Body,
		r.Date,
		r.SourceIP,
		strconv.Itoa(r.TotalComments),
		strconv.Itoa(r.Boo),
		strconv.Itoa(r.Like),
		strconv.Itoa(r.Neutral),
		strconv.Itoa(r.Score),
	}
}

type dedupeKey struct {
	title  string
	author string
}

// Dedupe removes records sharing a (title, author) pair, keeping the first
// occurrence. It returns the kept records and the number removed.
func Dedupe(records []Record) ([]Record, int) {
	seen := make(map[dedupeKey]struct{}, len(records))
	out := make([]Record, 0, len(records))
	for _, r := range records {
		key := dedupeKey{title: r.Title, author: r.Author}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
	}
	return out, len(records) - len(out)
}

// CrawlScope tells whether a failure affected a whole page or one article.
type CrawlScope string

const (
	// ScopePage marks a listing fetch or parse failure.
	ScopePage CrawlScope = "page"
	// ScopeArticle marks an article fetch or parse failure.
	ScopeArticle CrawlScope = "article"
)

// CrawlError is one recorded page- or article-level failure.
type CrawlError struct {
	Scope CrawlScope `json:"scope"`

	// Ref is the page index for page failures and the article address
	// for article failures.
	Ref string `json:"ref"`

	// Title is the article title, empty for page failures.
	Title string `json:"title,omitempty"`

	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`

	// Err is the underlying error. Reason is its message.
	Err error `json:"-"`

	// Raw is the failing markup when it was retrieved.
	Raw []byte `json:"-"`
}

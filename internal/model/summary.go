package model

import (
	"context"
	"strconv"
	"strings"
)

// RemovedTitle replaces the title of every removed listing entry.
const RemovedTitle = "本文章已被刪除"

// ArticleSource retrieves and parses a full article given its address.
// The crawler supplies an implementation backed by the fetcher and the
// article parser; tests supply fakes.
type ArticleSource interface {
	ReadArticle(ctx context.Context, address string) (*Article, error)
}

// ArticleSourceFunc adapts a function to the ArticleSource interface.
type ArticleSourceFunc func(ctx context.Context, address string) (*Article, error)

// ReadArticle calls f(ctx, address).
func (f ArticleSourceFunc) ReadArticle(ctx context.Context, address string) (*Article, error) {
	return f(ctx, address)
}

// Summary is the typed view of one listing entry.
//
// A Summary is either available, carrying a navigable address and a score,
// or removed, carrying only the note shown in place of the link. The two
// states are kept in separate payloads so an address can never be read from
// a removed entry. Summaries are built once from a listing page and never
// mutated.
type Summary struct {
	Title     string
	Category  string
	IsReply   bool
	IsForward bool
	Date      string
	Author    string
	Mark      string

	available *availableEntry
	removed   *removedEntry
}

type availableEntry struct {
	address string
	score   string
}

type removedEntry struct {
	note string
}

// NewAvailableSummary builds a summary for an entry that links to an article.
// Category and the reply and forward flags are derived from title.
func NewAvailableSummary(title, address, score, date, author, mark string) Summary {
	s := newSummary(title, date, author, mark)
	s.available = &availableEntry{
		address: strings.TrimSpace(address),
		score:   strings.TrimSpace(score),
	}
	return s
}

// NewRemovedSummary builds a summary for an entry whose article was deleted.
// The title is replaced by RemovedTitle and note keeps the original text.
// The note often names the deleting user in brackets, so category and the
// reply and forward flags are derived from RemovedTitle instead.
func NewRemovedSummary(note, date, author, mark string) Summary {
	s := newSummary(RemovedTitle, date, author, mark)
	s.removed = &removedEntry{note: strings.TrimSpace(note)}
	return s
}

func newSummary(title, date, author, mark string) Summary {
	title = strings.TrimSpace(title)
	category, isReply, isForward := ParseTitle(title)
	return Summary{
		Title:     title,
		Category:  category,
		IsReply:   isReply,
		IsForward: isForward,
		Date:      strings.TrimSpace(date),
		Author:    strings.TrimSpace(author),
		Mark:      strings.TrimSpace(mark),
	}
}

// IsRemoved reports whether the entry refers to a deleted article.
func (s Summary) IsRemoved() bool {
	return s.removed != nil
}

// Address returns the article address. ok is false for removed entries.
func (s Summary) Address() (address string, ok bool) {
	if s.available == nil {
		return "", false
	}
	return s.available.address, true
}

// Score returns the raw score text shown in the listing ("爆", "X1", "12").
// Removed entries return "".
func (s Summary) Score() string {
	if s.available == nil {
		return ""
	}
	return s.available.score
}

// NumericScore interprets Score as a number.
// "爆" counts as 100, "X<n>" as -10*n, "XX" as -100 and an empty score as 0.
func (s Summary) NumericScore() int {
	score := s.Score()
	switch {
	case score == "":
		return 0
	case score == "爆":
		return 100
	case score == "XX":
		return -100
	case strings.HasPrefix(score, "X"):
		n, err := strconv.Atoi(strings.TrimPrefix(score, "X"))
		if err != nil {
			return 0
		}
		return -10 * n
	}
	n, err := strconv.Atoi(score)
	if err != nil {
		return 0
	}
	return n
}

// RemovalNote returns the text shown in place of a removed article.
func (s Summary) RemovalNote() string {
	if s.removed == nil {
		return ""
	}
	return s.removed.note
}

// Read fetches and parses the full article.
// Removed entries fail with *RemovedError without calling src.
func (s Summary) Read(ctx context.Context, src ArticleSource) (*Article, error) {
	if s.removed != nil {
		return nil, &RemovedError{Note: s.removed.note}
	}
	if s.available == nil || s.available.address == "" {
		return nil, ErrAddressMissing
	}
	return src.ReadArticle(ctx, s.available.address)
}

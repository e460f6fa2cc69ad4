package parser

import (
	"bytes"
	"fmt"
	"slices"

	"github.com/PuerkitoBio/goquery"

	"github.com/nao1215/pttcrawl/internal/model"
)

const (
	// selectorNavigation matches the action-bar links of a listing page.
	selectorNavigation = "div.action-bar a"

	// navigationLinks is the number of positional action-bar links:
	// board, man, oldest, previous, next and newest.
	navigationLinks = 6
)

// ParseListing parses one page of a board index.
//
// Entries are returned oldest to newest, the reverse of their document
// order. The page index is taken from address when it encodes one; the
// unindexed latest page resolves to the previous page's index plus one, or
// to 1 when the previous link is disabled.
func ParseListing(raw []byte, address string) (*model.ListingPage, error) {
	addr, err := model.ParseAddress(address)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse listing %s: %w", address, err)
	}

	nav, err := parseNavigation(doc)
	if err != nil {
		return nil, err
	}

	entries := doc.Find(selectorEntry)
	summaries := make([]model.Summary, 0, entries.Length())
	var entryErr error
	entries.EachWithBreak(func(i int, entry *goquery.Selection) bool {
		summary, err := parseSummary(entry)
		if err != nil {
			entryErr = fmt.Errorf("entry %d of %s: %w", i, address, err)
			return false
		}
		summaries = append(summaries, summary)
		return true
	})
	if entryErr != nil {
		return nil, entryErr
	}
	slices.Reverse(summaries)

	return &model.ListingPage{
		Address:   address,
		Board:     addr.Board(),
		Index:     pageIndex(addr, nav),
		Summaries: summaries,
		Nav:       nav,
	}, nil
}

// parseNavigation reads the six positional action-bar links.
// Disabled links have no href and yield an empty address.
func parseNavigation(doc *goquery.Document) (model.Navigation, error) {
	links := doc.Find(selectorNavigation)
	if links.Length() < navigationLinks {
		return model.Navigation{}, fmt.Errorf("%w: found %d of %d", model.ErrNavigationMissing, links.Length(), navigationLinks)
	}

	href := func(i int) string {
		return links.Eq(i).AttrOr("href", "")
	}
	return model.Navigation{
		Board:    href(0),
		Man:      href(1),
		Oldest:   href(2),
		Previous: href(3),
		Next:     href(4),
		Newest:   href(5),
	}, nil
}

// pageIndex resolves the numeric index of a listing page.
func pageIndex(addr model.Address, nav model.Navigation) int {
	if index, ok := addr.Index(); ok {
		return index
	}
	if nav.Previous == "" {
		return 1
	}
	prev, err := model.ParseAddress(nav.Previous)
	if err != nil {
		return 1
	}
	if index, ok := prev.Index(); ok {
		return index + 1
	}
	return 1
}

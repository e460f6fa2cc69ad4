package model

// Navigation holds the six action-bar links of a listing page in their
// fixed positional order. A disabled link has an empty address.
type Navigation struct {
	Board    string
	Man      string
	Oldest   string
	Previous string
	Next     string
	Newest   string
}

// ListingPage is one parsed page of a board index.
type ListingPage struct {
	// Address is the address the page was fetched from.
	Address string

	// Board is the board name taken from the address.
	Board string

	// Index is the numeric page index. Indices strictly decrease moving
	// from the newest page to the oldest.
	Index int

	// Summaries are ordered oldest to newest within the page.
	Summaries []Summary

	// Nav holds the navigation addresses.
	Nav Navigation
}

// Available returns the summaries that link to an article.
func (p *ListingPage) Available() []Summary {
	out := make([]Summary, 0, len(p.Summaries))
	for _, s := range p.Summaries {
		if !s.IsRemoved() {
			out = append(out, s)
		}
	}
	return out
}

// RemovedCount returns the number of removed entries on the page.
func (p *ListingPage) RemovedCount() int {
	return len(p.Summaries) - len(p.Available())
}

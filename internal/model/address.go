package model

import (
	"strconv"
	"strings"
)

const (
	// DefaultSiteRoot is the board site every relative address resolves against.
	DefaultSiteRoot = "https://www.ptt.cc"

	// bbsPrefix is the path prefix shared by all board pages.
	bbsPrefix = "/bbs"

	// listingPrefix starts the content id of every listing page.
	listingPrefix = "index"

	// pageExtension is appended to content ids when building addresses.
	pageExtension = ".html"
)

// Address is an immutable value object naming one page of a board.
// It is a (root, board, content id) triple, e.g. for
// "/bbs/Gossiping/M.1512057611.A.16B.html" the root is "/bbs", the board is
// "Gossiping" and the content id is "M.1512057611.A.16B".
type Address struct {
	raw       string
	root      string
	board     string
	contentID string
}

// ParseAddress splits an absolute URL or board-relative path into its parts.
// It fails with ErrMalformedAddress only if the input is empty or has no "/".
func ParseAddress(address string) (Address, error) {
	trimmed := strings.TrimSpace(address)
	if trimmed == "" || !strings.Contains(trimmed, "/") {
		return Address{}, ErrMalformedAddress
	}

	prefix, basename := splitLast(trimmed)
	root, board := splitLast(prefix)

	return Address{
		raw:       trimmed,
		root:      root,
		board:     board,
		contentID: stripExtension(basename),
	}, nil
}

// MustParseAddress is like ParseAddress but panics on error.
// Use only for known-valid addresses in tests or initialization.
func MustParseAddress(address string) Address {
	a, err := ParseAddress(address)
	if err != nil {
		panic(err)
	}
	return a
}

// ListingAddress builds the address of a board listing page.
// An index of zero or less yields the board's latest page.
func ListingAddress(board string, index int) string {
	id := listingPrefix
	if index > 0 {
		id += strconv.Itoa(index)
	}
	return ArticleAddress(board, id)
}

// ArticleAddress builds the board-relative address of a content id.
func ArticleAddress(board, contentID string) string {
	return strings.Join([]string{bbsPrefix, board, contentID + pageExtension}, "/")
}

// splitLast partitions s around its last "/".
func splitLast(s string) (string, string) {
	i := strings.LastIndex(s, "/")
	if i < 0 {
		return "", s
	}
	return s[:i], s[i+1:]
}

// stripExtension removes the final ".ext" from a path segment.
// A segment without a dot is returned unchanged.
func stripExtension(basename string) string {
	if i := strings.LastIndex(basename, "."); i > 0 {
		return basename[:i]
	}
	return basename
}

// String returns the address as it was parsed.
func (a Address) String() string {
	return a.raw
}

// Root returns everything before the board segment.
func (a Address) Root() string {
	return a.root
}

// Board returns the board name.
func (a Address) Board() string {
	return a.board
}

// ContentID returns the last path segment without its extension.
func (a Address) ContentID() string {
	return a.contentID
}

// IsZero reports whether a is the zero Address.
func (a Address) IsZero() bool {
	return a.raw == ""
}

// IsListing reports whether the address points at a listing page.
func (a Address) IsListing() bool {
	return strings.HasPrefix(a.contentID, listingPrefix)
}

// Index returns the listing index encoded as "index<N>".
// ok is false for the unindexed latest page and for article addresses.
func (a Address) Index() (index int, ok bool) {
	if !a.IsListing() {
		return 0, false
	}
	digits := strings.TrimPrefix(a.contentID, listingPrefix)
	if !isDigits(digits) {
		return 0, false
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return n, true
}

// isDigits reports whether s is a non-empty run of ASCII digits.
func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

package model

import (
	"errors"
	"fmt"
	"net/http"
)

// Extraction and retrieval errors.
// Every error below is recoverable at the crawler boundary: the crawler turns
// them into CrawlError entries and moves on to the next article or page.
var (
	// ErrAddressMissing is returned when a fetch is requested with an empty address.
	ErrAddressMissing = errors.New("no address given for page")

	// ErrMalformedAddress is returned when an address is empty or has no path separator.
	ErrMalformedAddress = errors.New("malformed board address")

	// ErrFetchFailed is returned for transport errors and non-2xx responses.
	// Use errors.As with *FetchError to read the status code.
	ErrFetchFailed = errors.New("page fetch failed")

	// ErrNavigationMissing is returned when a listing page has fewer than six
	// navigation links in its action bar.
	ErrNavigationMissing = errors.New("listing navigation links missing")

	// ErrInvalidTag is returned when a listing entry or article container lacks
	// a required element. Use errors.As with *InvalidTagError for details.
	ErrInvalidTag = errors.New("invalid listing or article markup")

	// ErrArticleRemoved signals that a summary refers to a deleted article.
	// It is a control signal meaning "skip, do not fetch", not a failure.
	ErrArticleRemoved = errors.New("article is removed")

	// ErrEmptyCommentType is returned by CommentSet.Add for events without a type.
	ErrEmptyCommentType = errors.New("comment event has no type")
)

// FetchError describes a failed retrieval.
type FetchError struct {
	// URL is the absolute URL that was requested.
	URL string

	// Status is the HTTP status code, or 0 for transport errors.
	Status int

	// Err is the underlying transport error, if any.
	Err error

	// Body is the response body of a non-2xx reply, kept for snapshots.
	Body []byte
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("fetch %s: HTTP %d %s", e.URL, e.Status, http.StatusText(e.Status))
}

// Unwrap returns the underlying transport error.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrFetchFailed.
func (e *FetchError) Is(target error) bool {
	return target == ErrFetchFailed
}

// InvalidTagError names the element that was expected but not found.
type InvalidTagError struct {
	// Element is the CSS selector of the missing element.
	Element string
}

// Error implements the error interface.
func (e *InvalidTagError) Error() string {
	return fmt.Sprintf("%v: missing %s", ErrInvalidTag, e.Element)
}

// Is reports whether target is ErrInvalidTag.
func (e *InvalidTagError) Is(target error) bool {
	return target == ErrInvalidTag
}

// RemovedError carries the removal note shown in place of a deleted article.
type RemovedError struct {
	Note string
}

// Error implements the error interface.
func (e *RemovedError) Error() string {
	if e.Note == "" {
		return ErrArticleRemoved.Error()
	}
	return fmt.Sprintf("%v: %s", ErrArticleRemoved, e.Note)
}

// Is reports whether target is ErrArticleRemoved.
func (e *RemovedError) Is(target error) bool {
	return target == ErrArticleRemoved
}

package crawler

import "errors"

// Request validation errors.
var (
	// ErrBoardRequired is returned when a request names no board.
	ErrBoardRequired = errors.New("board name is required")

	// ErrInvalidPageCount is returned when a request asks for fewer than one
	// page without selecting the crawl-all mode.
	ErrInvalidPageCount = errors.New("page count must be at least 1")

	// ErrInvalidStart is returned for a negative start index.
	ErrInvalidStart = errors.New("start index must not be negative")
)

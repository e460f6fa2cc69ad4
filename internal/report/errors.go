package report

import "errors"

var (
	// ErrUnknownFormat is returned for an unsupported output format.
	ErrUnknownFormat = errors.New("unknown output format")

	// ErrBoardRequired is returned when a file name needs a board and none was given.
	ErrBoardRequired = errors.New("board name is required")
)

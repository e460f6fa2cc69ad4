package config

import "errors"

// Configuration validation errors returned by Config.Validate().
var (
	// ErrNoBoard is returned when no board name is configured.
	ErrNoBoard = errors.New("no board specified: use --board")

	// ErrInvalidBoard is returned when the board name contains characters
	// other than ASCII letters, digits, '_' and '-'.
	ErrInvalidBoard = errors.New("invalid board name")

	// ErrInvalidStart is returned when the start index is negative.
	ErrInvalidStart = errors.New("invalid start page: must be zero (latest) or positive")

	// ErrInvalidPages is returned when the page count is not positive and
	// --all is not set.
	ErrInvalidPages = errors.New("invalid page count: must be positive")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidDelay is returned when a pacing delay is negative.
	ErrInvalidDelay = errors.New("invalid delay: must be non-negative")

	// ErrInvalidDelayRange is returned when the maximum page delay is below
	// the minimum.
	ErrInvalidDelayRange = errors.New("invalid page delay range: max is below min")

	// ErrNoFormat is returned when no output format is configured.
	ErrNoFormat = errors.New("no output format specified")
)

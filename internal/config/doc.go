// Package config holds the options of a crawl run: defaults, validation,
// the optional .pttcrawl YAML file with per-board overrides, and the XDG
// directories used for the archive.
package config

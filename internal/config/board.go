package config

import "time"

// BoardConfig holds crawl settings for one board. Zero values mean "not
// set"; delays are pointers because zero is a meaningful delay.
type BoardConfig struct {
	// Pages overrides the number of pages crawled.
	Pages int `yaml:"pages,omitempty"`

	// Timeout overrides the per-request timeout.
	Timeout time.Duration `yaml:"timeout,omitempty"`

	// UserAgent overrides the User-Agent header.
	UserAgent string `yaml:"userAgent,omitempty"`

	// Proxy routes requests through a SOCKS5 proxy ("host:port").
	Proxy string `yaml:"proxy,omitempty"`

	// ArticleDelay overrides the pause after each article.
	ArticleDelay *time.Duration `yaml:"articleDelay,omitempty"`

	// PageDelayMin and PageDelayMax override the random page pause bounds.
	PageDelayMin *time.Duration `yaml:"pageDelayMin,omitempty"`
	PageDelayMax *time.Duration `yaml:"pageDelayMax,omitempty"`

	// OutputDir overrides the record output directory.
	OutputDir string `yaml:"outputDir,omitempty"`

	// Formats overrides the output formats.
	Formats []string `yaml:"formats,omitempty"`

	// ErrorDir overrides the error log directory.
	ErrorDir string `yaml:"errorDir,omitempty"`
}

// File represents the structure of the .pttcrawl configuration file.
type File struct {
	// Boards maps board names to their board-specific configurations.
	Boards map[string]BoardConfig `yaml:"boards,omitempty"`

	// Defaults applies to all boards unless overridden per board.
	Defaults BoardConfig `yaml:"defaults,omitempty"`
}

// GetBoardConfig returns the configuration for a board, merging the
// board-specific settings over the defaults.
func (cf *File) GetBoardConfig(board string) BoardConfig {
	result := cf.Defaults
	result.Formats = append([]string(nil), cf.Defaults.Formats...)

	bc, ok := cf.Boards[board]
	if !ok {
		return result
	}

	if bc.Pages != 0 {
		result.Pages = bc.Pages
	}
	if bc.Timeout != 0 {
		result.Timeout = bc.Timeout
	}
	if bc.UserAgent != "" {
		result.UserAgent = bc.UserAgent
	}
	if bc.Proxy != "" {
		result.Proxy = bc.Proxy
	}
	if bc.ArticleDelay != nil {
		result.ArticleDelay = bc.ArticleDelay
	}
	if bc.PageDelayMin != nil {
		result.PageDelayMin = bc.PageDelayMin
	}
	if bc.PageDelayMax != nil {
		result.PageDelayMax = bc.PageDelayMax
	}
	if bc.OutputDir != "" {
		result.OutputDir = bc.OutputDir
	}
	if len(bc.Formats) > 0 {
		result.Formats = bc.Formats
	}
	if bc.ErrorDir != "" {
		result.ErrorDir = bc.ErrorDir
	}
	return result
}

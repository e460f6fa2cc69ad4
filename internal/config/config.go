package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"

	"github.com/nao1215/pttcrawl/internal/crawler"
	"github.com/nao1215/pttcrawl/internal/fetcher"
	"github.com/nao1215/pttcrawl/internal/model"
	"github.com/nao1215/pttcrawl/internal/report"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "pttcrawl"

	// DefaultBoard is crawled when no board is given.
	DefaultBoard = "Drink"

	// DefaultPages is the number of listing pages crawled per run.
	DefaultPages = 5

	// DefaultSiteRoot is the board site.
	DefaultSiteRoot = model.DefaultSiteRoot

	// DefaultTimeout bounds every page request.
	DefaultTimeout = fetcher.DefaultTimeout

	// DefaultUserAgent is sent with every request.
	DefaultUserAgent = fetcher.DefaultUserAgent

	// DefaultArticleDelay is the pause after every article fetch.
	DefaultArticleDelay = crawler.DefaultArticleDelay

	// DefaultPageDelayMin and DefaultPageDelayMax bound the random pause
	// between listing pages.
	DefaultPageDelayMin = crawler.DefaultPageDelayMin
	DefaultPageDelayMax = crawler.DefaultPageDelayMax

	// DefaultOutputDir receives the record files.
	DefaultOutputDir = "data"

	// DefaultErrorDir receives page_errors.log and snapshots, one
	// subdirectory per board.
	DefaultErrorDir = "errors"
)

// Config holds all options of a crawl run. It is populated from defaults,
// the optional config file and CLI flags, in that order.
type Config struct {
	// Board is the board to crawl, e.g. "Drink".
	Board string

	// Start is the first listing index. Zero means the latest page.
	Start int

	// Pages is the number of listing pages to crawl. Ignored when All is set.
	Pages int

	// All crawls from Start down to the oldest page.
	All bool

	// SiteRoot is the scheme and host of the board site.
	SiteRoot string

	// Timeout is the per-request timeout.
	Timeout time.Duration

	// UserAgent is the User-Agent header sent with every request.
	UserAgent string

	// ProxyAddress routes requests through a SOCKS5 proxy ("host:port").
	// Empty means direct connections.
	ProxyAddress string

	// ArticleDelay is the pause after every article fetch.
	ArticleDelay time.Duration

	// PageDelayMin and PageDelayMax bound the random pause between pages.
	PageDelayMin time.Duration
	PageDelayMax time.Duration

	// OutputDir receives the record files.
	OutputDir string

	// Formats lists the output formats by name (csv, json, markdown).
	Formats []string

	// ErrorDir receives the error log and snapshots.
	ErrorDir string

	// DBDir is the directory of the SQLite archive.
	// Defaults to the XDG data directory (~/.local/share/pttcrawl on Linux).
	DBDir string

	// SaveToDB archives runs, articles and failures in the database.
	SaveToDB bool

	// Verbose enables debug logging.
	Verbose bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, FindConfigFile searches the default locations.
	ConfigFilePath string
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Board:        DefaultBoard,
		Pages:        DefaultPages,
		SiteRoot:     DefaultSiteRoot,
		Timeout:      DefaultTimeout,
		UserAgent:    DefaultUserAgent,
		ArticleDelay: DefaultArticleDelay,
		PageDelayMin: DefaultPageDelayMin,
		PageDelayMax: DefaultPageDelayMax,
		OutputDir:    DefaultOutputDir,
		Formats:      []string{string(report.FormatCSV)},
		ErrorDir:     DefaultErrorDir,
		DBDir:        XDGDataDir(),
		SaveToDB:     true,
	}
}

// XDGDataDir returns the XDG data directory for pttcrawl.
// On Linux: ~/.local/share/pttcrawl
// On macOS: ~/Library/Application Support/pttcrawl
// On Windows: %LOCALAPPDATA%\pttcrawl
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for pttcrawl.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Apply overrides the config with the non-zero values of bc.
func (c *Config) Apply(bc BoardConfig) {
	if bc.Pages != 0 {
		c.Pages = bc.Pages
	}
	if bc.Timeout != 0 {
		c.Timeout = bc.Timeout
	}
	if bc.UserAgent != "" {
		c.UserAgent = bc.UserAgent
	}
	if bc.Proxy != "" {
		c.ProxyAddress = bc.Proxy
	}
	if bc.ArticleDelay != nil {
		c.ArticleDelay = *bc.ArticleDelay
	}
	if bc.PageDelayMin != nil {
		c.PageDelayMin = *bc.PageDelayMin
	}
	if bc.PageDelayMax != nil {
		c.PageDelayMax = *bc.PageDelayMax
	}
	if bc.OutputDir != "" {
		c.OutputDir = bc.OutputDir
	}
	if len(bc.Formats) > 0 {
		c.Formats = bc.Formats
	}
	if bc.ErrorDir != "" {
		c.ErrorDir = bc.ErrorDir
	}
}

// OutputFormats converts Formats to report formats.
func (c *Config) OutputFormats() ([]report.Format, error) {
	formats := make([]report.Format, 0, len(c.Formats))
	seen := make(map[report.Format]struct{}, len(c.Formats))
	for _, name := range c.Formats {
		f, err := report.ParseFormat(name)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		formats = append(formats, f)
	}
	return formats, nil
}

// Validate checks if the configuration is valid.
// It returns the first problem found.
func (c *Config) Validate() error {
	if c.Board == "" {
		return ErrNoBoard
	}
	if !isValidBoardName(c.Board) {
		return ErrInvalidBoard
	}
	if c.Start < 0 {
		return ErrInvalidStart
	}
	if !c.All && c.Pages <= 0 {
		return ErrInvalidPages
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.ArticleDelay < 0 || c.PageDelayMin < 0 || c.PageDelayMax < 0 {
		return ErrInvalidDelay
	}
	if c.PageDelayMax < c.PageDelayMin {
		return ErrInvalidDelayRange
	}
	if len(c.Formats) == 0 {
		return ErrNoFormat
	}
	if _, err := c.OutputFormats(); err != nil {
		return err
	}
	return nil
}

// isValidBoardName reports whether name only uses the characters board
// names are made of. Board names end up in file paths.
func isValidBoardName(name string) bool {
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '_', r == '-':
		default:
			return false
		}
	}
	return name != ""
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the configuration file searched in the current and
// home directories.
const DefaultConfigFile = ".pttcrawl"

// XDGConfigFile is the configuration file searched in XDGConfigDir.
const XDGConfigFile = "config.yaml"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// LoadConfigFile reads the board configurations from a YAML file.
//
// A missing file fails with ErrConfigNotFound so that callers can decide
// whether that matters. Board names used as keys under "boards" must be
// valid board names, since they end up in file paths.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrConfigNotFound
	}
	if err != nil {
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if cf.Boards == nil {
		cf.Boards = make(map[string]BoardConfig)
	}
	for board := range cf.Boards {
		if !isValidBoardName(board) {
			return nil, fmt.Errorf("%s: %w: %q", path, ErrInvalidBoard, board)
		}
	}
	return &cf, nil
}

// FindConfigFile returns the configuration file to load, or "" when there
// is none. An explicit configPath is used only if it exists. Otherwise the
// first existing file of these wins:
//
//  1. ./.pttcrawl
//  2. $XDG_CONFIG_HOME/pttcrawl/config.yaml
//  3. ~/.pttcrawl
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if fileExists(configPath) {
			return configPath
		}
		return ""
	}

	for _, candidate := range searchPaths() {
		if fileExists(candidate) {
			return candidate
		}
	}
	return ""
}

// searchPaths lists the implicit configuration file locations in order.
func searchPaths() []string {
	var paths []string
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, DefaultConfigFile))
	}
	paths = append(paths, filepath.Join(XDGConfigDir(), XDGConfigFile))
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, DefaultConfigFile))
	}
	return paths
}

// fileExists reports whether path names an existing regular file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// File is the YAML configuration file shape. Everything in it can also
// be set via flags; flags win when both are present.
type File struct {
	// Seeds are the starting instance domains.
	Seeds []string `yaml:"seeds"`

	// Excluded domains are never crawled.
	Excluded []string `yaml:"excluded"`

	// GeoIPDB is the path to a local MaxMind database.
	GeoIPDB string `yaml:"geoip_db"`

	// PublishedVersionURL overrides the published version document.
	PublishedVersionURL string `yaml:"published_version_url"`
}

// LoadConfigFile loads crawl configuration from a YAML file.
// If the file does not exist, it returns ErrConfigNotFound; callers
// decide whether that matters based on whether the path was explicit.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}
	return &cf, nil
}

// FindConfigFile searches for the configuration file in order:
//  1. The explicit path, if given
//  2. .fedistats.yaml in the current directory
//  3. .fedistats.yaml in the XDG config directory
//
// Returns the path if found, or empty string.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	cwd, err := os.Getwd()
	if err == nil {
		cwdConfig := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(cwdConfig); err == nil {
			return cwdConfig
		}
	}

	xdgConfig := filepath.Join(XDGConfigDir(), DefaultConfigFile)
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig
	}

	return ""
}

// Merge applies file values underneath the config: only fields the
// flags left at their defaults (or empty) are taken from the file.
func (c *Config) Merge(f *File, seedsFromFlags bool) {
	if f == nil {
		return
	}
	if !seedsFromFlags && len(f.Seeds) > 0 {
		c.Seeds = f.Seeds
	}
	if len(f.Excluded) > 0 {
		c.Excluded = append(c.Excluded, f.Excluded...)
	}
	if c.GeoIPDB == "" {
		c.GeoIPDB = f.GeoIPDB
	}
	if c.PublishedVersionURL == "" {
		c.PublishedVersionURL = f.PublishedVersionURL
	}
}

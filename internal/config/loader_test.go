package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeConfigFile(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, DefaultConfigFile)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("full file", func(t *testing.T) {
		t.Parallel()

		path := writeConfigFile(t, t.TempDir(), `
seeds:
  - lemmy.ml
  - lemmy.world
excluded:
  - spam.example
geoip_db: /var/lib/geoip/country.mmdb
published_version_url: https://release.example/VERSION
`)

		cf, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := &File{
			Seeds:               []string{"lemmy.ml", "lemmy.world"},
			Excluded:            []string{"spam.example"},
			GeoIPDB:             "/var/lib/geoip/country.mmdb",
			PublishedVersionURL: "https://release.example/VERSION",
		}
		if diff := cmp.Diff(want, cf); diff != "" {
			t.Errorf("config file mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		_, err := LoadConfigFile(filepath.Join(t.TempDir(), "nope.yaml"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("malformed YAML", func(t *testing.T) {
		t.Parallel()

		path := writeConfigFile(t, t.TempDir(), "seeds: [unterminated")
		if _, err := LoadConfigFile(path); err == nil {
			t.Error("expected error for malformed YAML")
		}
	})
}

func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("explicit existing path wins", func(t *testing.T) {
		t.Parallel()

		path := writeConfigFile(t, t.TempDir(), "seeds: [lemmy.ml]")
		if got := FindConfigFile(path); got != path {
			t.Errorf("expected %q, got %q", path, got)
		}
	})

	t.Run("explicit missing path yields nothing", func(t *testing.T) {
		t.Parallel()

		missing := filepath.Join(t.TempDir(), "absent.yaml")
		if got := FindConfigFile(missing); got != "" {
			t.Errorf("expected empty result, got %q", got)
		}
	})
}

func TestMerge(t *testing.T) {
	t.Parallel()

	t.Run("file seeds used when flags left default", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.Merge(&File{Seeds: []string{"other.example"}}, false)

		if diff := cmp.Diff([]string{"other.example"}, cfg.Seeds); diff != "" {
			t.Errorf("seeds mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("flag seeds win over file seeds", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.Seeds = []string{"from-flag.example"}
		cfg.Merge(&File{Seeds: []string{"from-file.example"}}, true)

		if diff := cmp.Diff([]string{"from-flag.example"}, cfg.Seeds); diff != "" {
			t.Errorf("seeds mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("exclusions accumulate", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.Excluded = []string{"a.example"}
		cfg.Merge(&File{Excluded: []string{"b.example"}}, false)

		if diff := cmp.Diff([]string{"a.example", "b.example"}, cfg.Excluded); diff != "" {
			t.Errorf("exclusions mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("file fills empty fields only", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.GeoIPDB = "/from/flag.mmdb"
		cfg.Merge(&File{
			GeoIPDB:             "/from/file.mmdb",
			PublishedVersionURL: "https://release.example/VERSION",
		}, false)

		if cfg.GeoIPDB != "/from/flag.mmdb" {
			t.Errorf("flag GeoIPDB overwritten: %q", cfg.GeoIPDB)
		}
		if cfg.PublishedVersionURL != "https://release.example/VERSION" {
			t.Errorf("file PublishedVersionURL not applied: %q", cfg.PublishedVersionURL)
		}
	})

	t.Run("nil file is a no-op", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.Merge(nil, false)
		if len(cfg.Seeds) != 1 || cfg.Seeds[0] != DefaultSeed {
			t.Errorf("nil merge mutated the config: %v", cfg.Seeds)
		}
	})
}

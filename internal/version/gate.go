// Package version implements the minimum-version gate for crawled instances.
//
// The gate is derived from the published current release version: the
// minimum acceptable version is one minor release behind it. Immediately
// after a new release most of the network still runs the previous minor
// version, and requiring the very latest would reject the majority of
// otherwise healthy instances.
package version

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/coreos/go-semver/semver"
)

// DefaultPublishedURL is the plaintext document holding the current
// release version of the reference server software. It is fetched once
// per run; failure to obtain it is fatal to starting the crawl.
const DefaultPublishedURL = "https://raw.githubusercontent.com/LemmyNet/lemmy-ansible/main/VERSION"

// maxPublishedSize bounds the published-version response body. The
// document is a single version string; anything larger is garbage.
const maxPublishedSize = 1024

// Gate errors.
var (
	// ErrEmptyPublishedVersion is returned when the published version
	// document is empty or whitespace.
	ErrEmptyPublishedVersion = errors.New("published version document is empty")
)

// Gate holds the minimum acceptable instance version for one crawl run.
// The zero value accepts nothing; construct it with NewGate.
type Gate struct {
	min semver.Version
}

// NewGate derives a Gate from the published current version string.
// Given "0.16.3" the minimum becomes "0.15.3". A published version with
// minor component zero is used as-is, since there is no previous minor
// line to fall back to.
func NewGate(published string) (Gate, error) {
	v, err := semver.NewVersion(normalizeVersion(published))
	if err != nil {
		return Gate{}, fmt.Errorf("parse published version %q: %w", published, err)
	}
	if v.Minor > 0 {
		v.Minor--
	}
	return Gate{min: *v}, nil
}

// Minimum returns the minimum acceptable version as a string.
func (g Gate) Minimum() string {
	return g.min.String()
}

// Accepts reports whether an instance reporting the given version passes
// the gate. A version string that does not parse is rejected (fail
// closed): a server that cannot report a sane version is not worth a
// fetch slot, and a parse failure must never abort the whole crawl.
func (g Gate) Accepts(reported string) bool {
	v, err := semver.NewVersion(normalizeVersion(reported))
	if err != nil {
		return false
	}
	return !v.LessThan(g.min)
}

// normalizeVersion strips decorations commonly found in reported version
// strings: surrounding whitespace, a leading "v", and any build suffix
// after a "+" that go-semver would otherwise choke on is left intact
// (semver allows it).
func normalizeVersion(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "v")
	return s
}

// FetchPublished retrieves the published current-version string.
// The caller converts it into a Gate; a transport or parse failure here
// propagates to the caller immediately, before any crawling starts.
func FetchPublished(ctx context.Context, client *http.Client, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch published version: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch published version: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPublishedSize))
	if err != nil {
		return "", fmt.Errorf("read published version: %w", err)
	}

	version := strings.TrimSpace(string(body))
	if version == "" {
		return "", ErrEmptyPublishedVersion
	}
	return version, nil
}

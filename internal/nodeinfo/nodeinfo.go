package nodeinfo

import (
	"encoding/json"
	"errors"
	"strings"
)

// Schema errors.
var (
	// ErrUnknownSchema is returned when a payload matches no known
	// schema generation. For the crawl engine this is a fetch failure
	// for that instance, not a fatal error.
	ErrUnknownSchema = errors.New("response matches no known schema")
	// ErrNoNodeInfoLink is returned when a well-known discovery document
	// carries no usable nodeinfo link.
	ErrNoNodeInfoLink = errors.New("well-known document has no nodeinfo link")
)

// NodeInfo is the instance's nodeinfo self-description document.
// The shape has been stable across software generations, so no variant
// dispatch is needed here.
type NodeInfo struct {
	Version           string   `json:"version"`
	Software          Software `json:"software"`
	Protocols         []string `json:"protocols"`
	Usage             Usage    `json:"usage"`
	OpenRegistrations bool     `json:"openRegistrations"`
}

// Software identifies the server implementation and its version.
type Software struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Usage carries the aggregate activity counts from nodeinfo.
type Usage struct {
	Users    UsageUsers `json:"users"`
	Posts    int64      `json:"localPosts"`
	Comments int64      `json:"localComments"`
}

// UsageUsers carries the per-window user counts from nodeinfo.
type UsageUsers struct {
	Total          int64 `json:"total"`
	ActiveHalfyear int64 `json:"activeHalfyear"`
	ActiveMonth    int64 `json:"activeMonth"`
}

// ParseNodeInfo decodes a nodeinfo document.
// A payload without a software name is structurally not nodeinfo, even
// if it happens to be valid JSON.
func ParseNodeInfo(data []byte) (*NodeInfo, error) {
	var ni NodeInfo
	if err := json.Unmarshal(data, &ni); err != nil {
		return nil, ErrUnknownSchema
	}
	if ni.Software.Name == "" {
		return nil, ErrUnknownSchema
	}
	return &ni, nil
}

// WellKnown is the nodeinfo discovery document served at
// /.well-known/nodeinfo. It points to the real metadata URL and is used
// only when the direct endpoint does not resolve to a known schema.
type WellKnown struct {
	Links []WellKnownLink `json:"links"`
}

// WellKnownLink is one entry in the discovery document.
type WellKnownLink struct {
	Rel  string `json:"rel"`
	Href string `json:"href"`
}

// ParseWellKnown decodes a nodeinfo discovery document.
func ParseWellKnown(data []byte) (*WellKnown, error) {
	var wk WellKnown
	if err := json.Unmarshal(data, &wk); err != nil {
		return nil, ErrUnknownSchema
	}
	if len(wk.Links) == 0 {
		return nil, ErrNoNodeInfoLink
	}
	return &wk, nil
}

// NodeInfoURL returns the href of the newest nodeinfo schema link in the
// discovery document. Links whose rel does not reference a nodeinfo
// schema are ignored.
func (w *WellKnown) NodeInfoURL() (string, error) {
	best := ""
	bestRel := ""
	for _, link := range w.Links {
		if !strings.Contains(link.Rel, "nodeinfo.diaspora.software/ns/schema/") {
			continue
		}
		// Rel strings end in the schema version ("…/schema/2.1");
		// lexical comparison picks the newest within the 2.x line.
		if link.Href != "" && link.Rel > bestRel {
			best = link.Href
			bestRel = link.Rel
		}
	}
	if best == "" {
		return "", ErrNoNodeInfoLink
	}
	return best, nil
}

package nodeinfo

import (
	"encoding/json"
	"net/url"
	"strings"
)

// ActivityWindow selects one of the per-window active-user counts.
type ActivityWindow int

// Supported activity windows.
const (
	WindowDay ActivityWindow = iota
	WindowWeek
	WindowMonth
	WindowHalfYear
)

// SiteInfo is the schema-agnostic view of an instance's site response.
// Exactly one of the generation fields is non-nil; accessors dispatch to
// whichever generation was matched so callers never branch on it.
//
// Design decision: We model the variants as a struct holding one pointer
// per generation rather than an interface because the accessor set is
// small and fixed, and the concrete generations are private decoding
// details that should not leak out of this package.
type SiteInfo struct {
	v19 *siteV19
	v18 *siteV18
}

// siteV19 is the newer site-response generation. Federation peers are
// served by a separate endpoint in this generation.
type siteV19 struct {
	Version  string `json:"version"`
	SiteView struct {
		Site struct {
			Name    string `json:"name"`
			ActorID string `json:"actor_id"`
			Icon    string `json:"icon"`
		} `json:"site"`
		Counts siteCounts `json:"counts"`
	} `json:"site_view"`
}

// siteV18 is the older site-response generation. It carries an inline,
// flat federation list and an "online" counter absent from newer
// generations.
type siteV18 struct {
	Version  string `json:"version"`
	Online   *int64 `json:"online"`
	SiteView struct {
		Site struct {
			Name string `json:"name"`
			Icon string `json:"icon"`
		} `json:"site"`
		Counts siteCounts `json:"counts"`
	} `json:"site_view"`
	FederatedInstances *flatFederation `json:"federated_instances"`
}

// siteCounts is shared by both generations.
type siteCounts struct {
	Users               int64 `json:"users"`
	Posts               int64 `json:"posts"`
	Comments            int64 `json:"comments"`
	Communities         int64 `json:"communities"`
	UsersActiveDay      int64 `json:"users_active_day"`
	UsersActiveWeek     int64 `json:"users_active_week"`
	UsersActiveMonth    int64 `json:"users_active_month"`
	UsersActiveHalfYear int64 `json:"users_active_half_year"`
}

// flatFederation is the inline peer listing of the older generation.
type flatFederation struct {
	Linked  []string `json:"linked"`
	Allowed []string `json:"allowed"`
	Blocked []string `json:"blocked"`
}

// ParseSiteInfo decodes a site response, trying each known generation in
// newest-first order. The first generation that decodes without
// structural error is adopted. Go's JSON decoder is lenient about extra
// fields, so each generation asserts the presence of its identifying
// fields after decoding.
func ParseSiteInfo(data []byte) (*SiteInfo, error) {
	var s19 siteV19
	if err := json.Unmarshal(data, &s19); err == nil && s19.SiteView.Site.ActorID != "" {
		return &SiteInfo{v19: &s19}, nil
	}

	var s18 siteV18
	if err := json.Unmarshal(data, &s18); err == nil &&
		s18.SiteView.Site.Name != "" && s18.Online != nil {
		return &SiteInfo{v18: &s18}, nil
	}

	return nil, ErrUnknownSchema
}

// Version returns the API version reported in the site response.
func (s *SiteInfo) Version() string {
	if s.v19 != nil {
		return s.v19.Version
	}
	return s.v18.Version
}

// Name returns the instance's display name.
func (s *SiteInfo) Name() string {
	if s.v19 != nil {
		return s.v19.SiteView.Site.Name
	}
	return s.v18.SiteView.Site.Name
}

// Icon returns the instance icon URL, or empty.
func (s *SiteInfo) Icon() string {
	if s.v19 != nil {
		return s.v19.SiteView.Site.Icon
	}
	return s.v18.SiteView.Site.Icon
}

// TotalUsers returns the instance's total registered user count.
func (s *SiteInfo) TotalUsers() int64 {
	return s.counts().Users
}

// ActiveUsers returns the active-user count for the given window.
func (s *SiteInfo) ActiveUsers(w ActivityWindow) int64 {
	c := s.counts()
	switch w {
	case WindowDay:
		return c.UsersActiveDay
	case WindowWeek:
		return c.UsersActiveWeek
	case WindowMonth:
		return c.UsersActiveMonth
	case WindowHalfYear:
		return c.UsersActiveHalfYear
	}
	return 0
}

// Posts returns the instance-local post count.
func (s *SiteInfo) Posts() int64 {
	return s.counts().Posts
}

// Comments returns the instance-local comment count.
func (s *SiteInfo) Comments() int64 {
	return s.counts().Comments
}

func (s *SiteInfo) counts() siteCounts {
	if s.v19 != nil {
		return s.v19.SiteView.Counts
	}
	return s.v18.SiteView.Counts
}

// ActorDomain returns the hostname of the instance's self-reported
// canonical actor identity, lowercased. Older generations do not expose
// an actor URL; for them the identity check degrades to the empty
// string and the caller treats the instance as self-consistent.
func (s *SiteInfo) ActorDomain() string {
	if s.v19 == nil {
		return ""
	}
	u, err := url.Parse(s.v19.SiteView.Site.ActorID)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// FederatedPeers returns the peer lists embedded in the site response,
// or nil when this generation serves peers from a separate endpoint.
// The older flat list is reported as linked.
func (s *SiteInfo) FederatedPeers() *FederationLists {
	if s.v18 == nil || s.v18.FederatedInstances == nil {
		return nil
	}
	return &FederationLists{
		Linked:  s.v18.FederatedInstances.Linked,
		Allowed: s.v18.FederatedInstances.Allowed,
		Blocked: s.v18.FederatedInstances.Blocked,
	}
}

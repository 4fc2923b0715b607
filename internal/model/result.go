package model

// CrawlResult is the output record for one successfully fetched,
// version-accepted instance. It is created by a worker after validation,
// sent exactly once into the result channel, and immutable afterward.
type CrawlResult struct {
	// Domain is the normalized hostname the instance was fetched from.
	Domain string `json:"domain"`

	// Name is the instance's self-reported display name.
	Name string `json:"name"`

	// Version is the software version reported via nodeinfo.
	Version string `json:"version"`

	// Icon is the instance icon URL, if any.
	Icon string `json:"icon,omitempty"`

	// OpenRegistrations reports whether the instance accepts signups.
	OpenRegistrations bool `json:"open_registrations"`

	// Aggregate user counts from the self-description endpoints.
	TotalUsers          int64 `json:"total_users"`
	UsersActiveDay      int64 `json:"users_active_day"`
	UsersActiveWeek     int64 `json:"users_active_week"`
	UsersActiveMonth    int64 `json:"users_active_month"`
	UsersActiveHalfYear int64 `json:"users_active_half_year"`
	Posts               int64 `json:"posts"`
	Comments            int64 `json:"comments"`

	// Federation peer lists as reported by the instance. Older API
	// generations only expose a flat list, which is recorded as linked.
	LinkedInstances  []string `json:"linked_instances,omitempty"`
	AllowedInstances []string `json:"allowed_instances,omitempty"`
	BlockedInstances []string `json:"blocked_instances,omitempty"`

	// Country is the ISO country code from the optional GeoIP enrichment.
	// Empty when the enrichment was unavailable or failed.
	Country string `json:"country,omitempty"`

	// Communities holds the optional paginated local-community listing.
	// Nil when the enrichment was disabled or failed.
	Communities []Community `json:"communities,omitempty"`
}

// Community is one local community on an instance, collected by the
// optional paginated-listing enrichment.
type Community struct {
	Name        string `json:"name"`
	Title       string `json:"title"`
	ActorID     string `json:"actor_id"`
	Subscribers int64  `json:"subscribers"`
	Posts       int64  `json:"posts"`
	Comments    int64  `json:"comments"`
}

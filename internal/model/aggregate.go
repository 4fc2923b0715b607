package model

import (
	"sort"
	"time"
)

// TotalStats is the flat rollup of one crawl run: network-wide sums over
// every collected CrawlResult plus the run's time window.
type TotalStats struct {
	CrawledInstances    int       `json:"crawled_instances"`
	TotalUsers          int64     `json:"total_users"`
	UsersActiveDay      int64     `json:"users_active_day"`
	UsersActiveWeek     int64     `json:"users_active_week"`
	UsersActiveMonth    int64     `json:"users_active_month"`
	UsersActiveHalfYear int64     `json:"users_active_halfyear"`
	Posts               int64     `json:"posts"`
	Comments            int64     `json:"comments"`
	StartTime           time.Time `json:"start_time"`
	EndTime             time.Time `json:"end_time"`

	InstanceDetails []CrawlResult `json:"instance_details"`
}

// Aggregate folds crawl results into a TotalStats rollup.
// The end time is taken as time.Now at the moment of aggregation.
func Aggregate(results []CrawlResult, startTime time.Time) TotalStats {
	stats := TotalStats{
		CrawledInstances: len(results),
		StartTime:        startTime,
		EndTime:          time.Now(),
		InstanceDetails:  results,
	}
	for i := range results {
		r := &results[i]
		stats.TotalUsers += r.TotalUsers
		stats.UsersActiveDay += r.UsersActiveDay
		stats.UsersActiveWeek += r.UsersActiveWeek
		stats.UsersActiveMonth += r.UsersActiveMonth
		stats.UsersActiveHalfYear += r.UsersActiveHalfYear
		stats.Posts += r.Posts
		stats.Comments += r.Comments
	}
	return stats
}

// SortByActiveMonth orders results by monthly active users, descending,
// with the domain as a deterministic tie-break. The crawl engine itself
// makes no ordering guarantees; sorting happens after collection.
func SortByActiveMonth(results []CrawlResult) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].UsersActiveMonth != results[j].UsersActiveMonth {
			return results[i].UsersActiveMonth > results[j].UsersActiveMonth
		}
		return results[i].Domain < results[j].Domain
	})
}

// MinimalInstance is a reduced per-instance projection used to keep
// published output files small.
type MinimalInstance struct {
	Domain              string `json:"domain"`
	Users               int64  `json:"users"`
	Posts               int64  `json:"posts"`
	Comments            int64  `json:"comments"`
	UsersActiveDay      int64  `json:"users_active_day"`
	UsersActiveWeek     int64  `json:"users_active_week"`
	UsersActiveMonth    int64  `json:"users_active_month"`
	UsersActiveHalfYear int64  `json:"users_active_half_year"`
}

// MinimalStats mirrors TotalStats with the reduced instance projection.
type MinimalStats struct {
	CrawledInstances    int       `json:"crawled_instances"`
	TotalUsers          int64     `json:"total_users"`
	UsersActiveDay      int64     `json:"users_active_day"`
	UsersActiveWeek     int64     `json:"users_active_week"`
	UsersActiveMonth    int64     `json:"users_active_month"`
	UsersActiveHalfYear int64     `json:"users_active_halfyear"`
	Posts               int64     `json:"posts"`
	Comments            int64     `json:"comments"`
	StartTime           time.Time `json:"start_time"`
	EndTime             time.Time `json:"end_time"`

	InstanceDetails []MinimalInstance `json:"instance_details"`
}

// Minimal converts a full rollup into its reduced form.
func Minimal(stats TotalStats) MinimalStats {
	details := make([]MinimalInstance, 0, len(stats.InstanceDetails))
	for _, r := range stats.InstanceDetails {
		details = append(details, MinimalInstance{
			Domain:              r.Domain,
			Users:               r.TotalUsers,
			Posts:               r.Posts,
			Comments:            r.Comments,
			UsersActiveDay:      r.UsersActiveDay,
			UsersActiveWeek:     r.UsersActiveWeek,
			UsersActiveMonth:    r.UsersActiveMonth,
			UsersActiveHalfYear: r.UsersActiveHalfYear,
		})
	}
	return MinimalStats{
		CrawledInstances:    stats.CrawledInstances,
		TotalUsers:          stats.TotalUsers,
		UsersActiveDay:      stats.UsersActiveDay,
		UsersActiveWeek:     stats.UsersActiveWeek,
		UsersActiveMonth:    stats.UsersActiveMonth,
		UsersActiveHalfYear: stats.UsersActiveHalfYear,
		Posts:               stats.Posts,
		Comments:            stats.Comments,
		StartTime:           stats.StartTime,
		EndTime:             stats.EndTime,
		InstanceDetails:     details,
	}
}

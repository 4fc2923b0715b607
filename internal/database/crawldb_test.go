package database

import (
	"context"
	"testing"
	"time"

	"github.com/fedistats/fedistats/internal/model"
)

func testStats(start time.Time, domains ...string) *model.TotalStats {
	stats := &model.TotalStats{
		CrawledInstances: len(domains),
		StartTime:        start,
		EndTime:          start.Add(time.Minute),
	}
	for i, d := range domains {
		users := int64((i + 1) * 100)
		stats.TotalUsers += users
		stats.UsersActiveMonth += users / 10
		stats.InstanceDetails = append(stats.InstanceDetails, model.CrawlResult{
			Domain:           d,
			Version:          "0.19.3",
			TotalUsers:       users,
			UsersActiveMonth: users / 10,
			Country:          "DE",
		})
	}
	return stats
}

func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database when allowed", func(t *testing.T) {
		t.Parallel()

		db, err := Open(t.TempDir(), DefaultOptions())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer db.Close()
	})

	t.Run("refuses to create when not allowed", func(t *testing.T) {
		t.Parallel()

		_, err := Open(t.TempDir(), Options{CreateIfNotExists: false})
		if err == nil {
			t.Error("expected error opening a missing database read-write")
		}
	})
}

func TestSaveAndLoadRun(t *testing.T) {
	t.Parallel()

	db, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	start := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

	runID, err := db.SaveRun(ctx, testStats(start, "a.example", "b.example"))
	if err != nil {
		t.Fatalf("failed to save run: %v", err)
	}

	run, instances, err := db.LoadRun(ctx, runID)
	if err != nil {
		t.Fatalf("failed to load run: %v", err)
	}
	if run.CrawledInstances != 2 {
		t.Errorf("expected 2 crawled instances, got %d", run.CrawledInstances)
	}
	if run.TotalUsers != 300 {
		t.Errorf("expected 300 total users, got %d", run.TotalUsers)
	}
	if !run.StartedAt.Equal(start) {
		t.Errorf("expected start %v, got %v", start, run.StartedAt)
	}

	if len(instances) != 2 {
		t.Fatalf("expected 2 instance rows, got %d", len(instances))
	}
	// Instance rows come back ordered by domain.
	if instances[0].Domain != "a.example" || instances[1].Domain != "b.example" {
		t.Errorf("unexpected instance order: %v, %v", instances[0].Domain, instances[1].Domain)
	}
	if instances[0].TotalUsers != 100 || instances[0].Country != "DE" {
		t.Errorf("unexpected instance row %+v", instances[0])
	}
}

func TestLoadRunNotFound(t *testing.T) {
	t.Parallel()

	db, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer db.Close()

	if _, _, err := db.LoadRun(context.Background(), 12345); err == nil {
		t.Error("expected error loading a missing run")
	}
}

func TestRecentRuns(t *testing.T) {
	t.Parallel()

	db, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		start := base.AddDate(0, 0, i)
		if _, err := db.SaveRun(ctx, testStats(start, "a.example")); err != nil {
			t.Fatalf("failed to save run %d: %v", i, err)
		}
	}

	runs, err := db.RecentRuns(ctx, 2)
	if err != nil {
		t.Fatalf("failed to list runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	// Newest first.
	if !runs[0].StartedAt.After(runs[1].StartedAt) {
		t.Errorf("runs not ordered newest first: %v then %v",
			runs[0].StartedAt, runs[1].StartedAt)
	}
}

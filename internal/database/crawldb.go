package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/fedistats/fedistats/internal/model"
)

// CrawlDB provides SQLite-based storage for crawl runs.
// Each run stores its rollup totals plus one row per crawled instance,
// which is what the compare command diffs across runs.
type CrawlDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures CrawlDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a CrawlDB at the specified directory.
func Open(dbDir string, opts Options) (*CrawlDB, error) {
	dbPath := filepath.Join(dbDir, "fedistats.db")

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite uses mode=rw to forbid creating new files and
	// mode=rwc to allow it.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cdb := &CrawlDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := cdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return cdb, nil
}

// Close closes the database connection.
func (cdb *CrawlDB) Close() error {
	return cdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (cdb *CrawlDB) createTables() error {
	schema := `
	-- Runs store the rollup of one complete crawl
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		started_at DATETIME NOT NULL,
		finished_at DATETIME NOT NULL,
		crawled_instances INTEGER NOT NULL,
		total_users INTEGER NOT NULL,
		users_active_month INTEGER NOT NULL,
		posts INTEGER NOT NULL,
		comments INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

	-- Instances store the per-instance records of each run
	CREATE TABLE IF NOT EXISTS instances (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id),
		domain TEXT NOT NULL,
		version TEXT,
		total_users INTEGER NOT NULL,
		users_active_month INTEGER NOT NULL,
		country TEXT,
		UNIQUE(run_id, domain)
	);

	CREATE INDEX IF NOT EXISTS idx_instances_run ON instances(run_id);
	CREATE INDEX IF NOT EXISTS idx_instances_domain ON instances(domain);
	`

	_, err := cdb.db.ExecContext(context.Background(), schema)
	return err
}

// RunSummary is the stored rollup of one crawl run.
type RunSummary struct {
	ID               int64
	StartedAt        time.Time
	FinishedAt       time.Time
	CrawledInstances int
	TotalUsers       int64
	UsersActiveMonth int64
	Posts            int64
	Comments         int64
}

// InstanceRecord is one stored per-instance row.
type InstanceRecord struct {
	Domain           string
	Version          string
	TotalUsers       int64
	UsersActiveMonth int64
	Country          string
}

// SaveRun stores a finished crawl run and its instances in one
// transaction, returning the new run ID.
func (cdb *CrawlDB) SaveRun(ctx context.Context, stats *model.TotalStats) (int64, error) {
	tx, err := cdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
	INSERT INTO runs (started_at, finished_at, crawled_instances, total_users, users_active_month, posts, comments)
	VALUES (?, ?, ?, ?, ?, ?, ?)`,
		stats.StartTime.UTC(), stats.EndTime.UTC(), stats.CrawledInstances,
		stats.TotalUsers, stats.UsersActiveMonth, stats.Posts, stats.Comments,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run ID: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO instances (run_id, domain, version, total_users, users_active_month, country)
	VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare instance insert: %w", err)
	}
	defer stmt.Close()

	for i := range stats.InstanceDetails {
		r := &stats.InstanceDetails[i]
		if _, err := stmt.ExecContext(ctx, runID, r.Domain, r.Version,
			r.TotalUsers, r.UsersActiveMonth, r.Country); err != nil {
			return 0, fmt.Errorf("failed to insert instance %s: %w", r.Domain, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}
	return runID, nil
}

// RecentRuns returns up to limit run summaries, newest first.
func (cdb *CrawlDB) RecentRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	rows, err := cdb.db.QueryContext(ctx, `
	SELECT id, started_at, finished_at, crawled_instances, total_users, users_active_month, posts, comments
	FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var r RunSummary
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &r.CrawledInstances,
			&r.TotalUsers, &r.UsersActiveMonth, &r.Posts, &r.Comments); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// LoadRun returns one run's summary and its instance rows.
func (cdb *CrawlDB) LoadRun(ctx context.Context, runID int64) (*RunSummary, []InstanceRecord, error) {
	var r RunSummary
	err := cdb.db.QueryRowContext(ctx, `
	SELECT id, started_at, finished_at, crawled_instances, total_users, users_active_month, posts, comments
	FROM runs WHERE id = ?`, runID).Scan(&r.ID, &r.StartedAt, &r.FinishedAt,
		&r.CrawledInstances, &r.TotalUsers, &r.UsersActiveMonth, &r.Posts, &r.Comments)
	if err == sql.ErrNoRows {
		return nil, nil, fmt.Errorf("run %d not found", runID)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load run %d: %w", runID, err)
	}

	rows, err := cdb.db.QueryContext(ctx, `
	SELECT domain, version, total_users, users_active_month, country
	FROM instances WHERE run_id = ? ORDER BY domain`, runID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query instances: %w", err)
	}
	defer rows.Close()

	var instances []InstanceRecord
	for rows.Next() {
		var rec InstanceRecord
		var version, country sql.NullString
		if err := rows.Scan(&rec.Domain, &version, &rec.TotalUsers,
			&rec.UsersActiveMonth, &country); err != nil {
			return nil, nil, fmt.Errorf("failed to scan instance: %w", err)
		}
		rec.Version = version.String
		rec.Country = country.String
		instances = append(instances, rec)
	}
	return &r, instances, rows.Err()
}

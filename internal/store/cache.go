// Package store provides a SQLite-backed cache of per-file daily usage, so
// unchanged transcripts are not re-parsed on every status line refresh.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/theirongolddev/burnline/internal/model"

	_ "modernc.org/sqlite" // register sqlite driver
)

// Cache provides SQLite-backed daily usage caching.
type Cache struct {
	db *sql.DB
}

// Open opens or creates the cache database at the given path.
func Open(dbPath string) (*Cache, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}

	// Several status line processes may refresh at once.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=foreign_keys(on)&_pragma=busy_timeout(2000)")
	if err != nil {
		return nil, fmt.Errorf("opening cache db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Cache{db: db}, nil
}

// Close closes the cache database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// FileInfo holds the tracked mtime and size for a file.
type FileInfo struct {
	MtimeNs   int64
	SizeBytes int64
}

// GetTrackedFiles returns a map of file_path -> FileInfo for all tracked files.
func (c *Cache) GetTrackedFiles() (map[string]FileInfo, error) {
	rows, err := c.db.Query("SELECT file_path, mtime_ns, size_bytes FROM file_tracker")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	result := make(map[string]FileInfo)
	for rows.Next() {
		var path string
		var fi FileInfo
		if err := rows.Scan(&path, &fi.MtimeNs, &fi.SizeBytes); err != nil {
			return nil, err
		}
		result[path] = fi
	}
	return result, rows.Err()
}

// SaveFileDays replaces the daily rows and tracking info for one file.
func (c *Cache) SaveFileDays(filePath string, mtimeNs, sizeBytes int64, days []model.DailyUsage) error {
	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC().Format(time.RFC3339)
	_, err = tx.Exec(`INSERT INTO file_tracker (file_path, mtime_ns, size_bytes, parsed_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(file_path) DO UPDATE SET
			mtime_ns = excluded.mtime_ns,
			size_bytes = excluded.size_bytes,
			parsed_at = excluded.parsed_at`,
		filePath, mtimeNs, sizeBytes, now)
	if err != nil {
		return fmt.Errorf("tracking %s: %w", filePath, err)
	}

	if _, err := tx.Exec("DELETE FROM daily_usage WHERE file_path = ?", filePath); err != nil {
		return err
	}

	for _, d := range days {
		_, err = tx.Exec(`INSERT INTO daily_usage
			(file_path, day, records, cost, input_tokens, output_tokens, cache_creation, cache_read)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			filePath, d.Day, d.Records, d.Cost,
			d.Breakdown.Input, d.Breakdown.Output, d.Breakdown.CacheCreation, d.Breakdown.CacheRead,
		)
		if err != nil {
			return fmt.Errorf("saving %s for %s: %w", d.Day, filePath, err)
		}
	}

	return tx.Commit()
}

// LoadDay returns the cached usage rows for day, keyed by file path.
func (c *Cache) LoadDay(day string) (map[string]model.DailyUsage, error) {
	rows, err := c.db.Query(`SELECT
		file_path, records, cost, input_tokens, output_tokens, cache_creation, cache_read
		FROM daily_usage WHERE day = ?`, day)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	result := make(map[string]model.DailyUsage)
	for rows.Next() {
		var path string
		d := model.DailyUsage{Day: day}
		err := rows.Scan(&path, &d.Records, &d.Cost,
			&d.Breakdown.Input, &d.Breakdown.Output, &d.Breakdown.CacheCreation, &d.Breakdown.CacheRead)
		if err != nil {
			return nil, err
		}
		result[path] = d
	}
	return result, rows.Err()
}

// DeleteFile removes a file's tracking entry and, by cascade, its rows.
func (c *Cache) DeleteFile(filePath string) error {
	_, err := c.db.Exec("DELETE FROM file_tracker WHERE file_path = ?", filePath)
	return err
}

// FileCount returns the number of tracked files.
func (c *Cache) FileCount() (int, error) {
	var count int
	err := c.db.QueryRow("SELECT COUNT(*) FROM file_tracker").Scan(&count)
	return count, err
}

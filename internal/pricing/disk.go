package pricing

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

var (
	// ErrNoDiskCache indicates the cache file does not exist.
	ErrNoDiskCache = errors.New("pricing: no disk cache")
	// ErrCorruptDiskCache indicates the cache file exists but is unusable.
	ErrCorruptDiskCache = errors.New("pricing: corrupt disk cache")
)

// Snapshot is a pricing table with the time it was fetched.
type Snapshot struct {
	Table     Table
	FetchedAt time.Time
}

// DiskCache persists the last fetched table across invocations as
// {"data": <table>, "timestamp": <epoch ms>}.
//
// Concurrent invocations may race on the file. Writes go through a rename so
// a reader sees either the old or the new document, and a torn read simply
// fails validation and counts as a miss.
type DiskCache struct {
	path string
}

// NewDiskCache returns a disk cache stored at path.
func NewDiskCache(path string) *DiskCache {
	return &DiskCache{path: path}
}

// Path returns the cache file location.
func (d *DiskCache) Path() string {
	return d.path
}

// Load reads and validates the cache file.
func (d *DiskCache) Load() (Snapshot, error) {
	body, err := os.ReadFile(d.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Snapshot{}, ErrNoDiskCache
		}
		return Snapshot{}, fmt.Errorf("pricing: reading disk cache: %w", err)
	}

	if !gjson.ValidBytes(body) {
		return Snapshot{}, ErrCorruptDiskCache
	}
	root := gjson.ParseBytes(body)
	data := root.Get("data")
	ts := root.Get("timestamp")
	if !data.IsObject() || ts.Type != gjson.Number || ts.Int() <= 0 {
		return Snapshot{}, ErrCorruptDiskCache
	}

	table, _, err := ParseDocument([]byte(data.Raw))
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: %w", ErrCorruptDiskCache, err)
	}

	return Snapshot{Table: table, FetchedAt: time.UnixMilli(ts.Int())}, nil
}

// Save writes table with fetchedAt as its timestamp.
func (d *DiskCache) Save(table Table, fetchedAt time.Time) error {
	data, err := json.Marshal(table)
	if err != nil {
		return fmt.Errorf("pricing: encoding table: %w", err)
	}
	doc, err := sjson.SetRawBytes([]byte(`{}`), "data", data)
	if err != nil {
		return fmt.Errorf("pricing: building cache document: %w", err)
	}
	doc, err = sjson.SetBytes(doc, "timestamp", fetchedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("pricing: building cache document: %w", err)
	}

	dir := filepath.Dir(d.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("pricing: creating cache dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".pricing-*.tmp")
	if err != nil {
		return fmt.Errorf("pricing: creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if _, err := tmp.Write(doc); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("pricing: writing disk cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("pricing: writing disk cache: %w", err)
	}
	if err := os.Rename(tmpPath, d.path); err != nil {
		return fmt.Errorf("pricing: replacing disk cache: %w", err)
	}
	return nil
}

package source

import "time"

// DiscoveredFile represents a JSONL file found during directory scanning.
type DiscoveredFile struct {
	Path       string
	IsSubagent bool // <project>/<session>/subagents/*.jsonl
	ModTime    time.Time
	Size       int64
}

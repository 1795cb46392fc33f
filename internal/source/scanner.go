package source

import (
	"os"
	"path/filepath"
	"strings"
)

// ScanDir walks the Claude projects directory and discovers all JSONL
// transcripts, flagging sub-agent files.
func ScanDir(claudeDir string) ([]DiscoveredFile, error) {
	projectsDir := filepath.Join(claudeDir, "projects")

	info, err := os.Stat(projectsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, nil
	}

	var files []DiscoveredFile

	err = filepath.WalkDir(projectsDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // skip unreadable entries
		}
		if d.IsDir() || filepath.Ext(path) != ".jsonl" {
			return nil
		}

		rel, _ := filepath.Rel(projectsDir, path)
		parts := strings.Split(rel, string(filepath.Separator))
		if len(parts) < 2 {
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			return nil //nolint:nilerr // file vanished mid-walk
		}

		files = append(files, DiscoveredFile{
			Path:       path,
			IsSubagent: len(parts) >= 4 && parts[2] == "subagents",
			ModTime:    fi.ModTime(),
			Size:       fi.Size(),
		})
		return nil
	})

	return files, err
}

// FindTranscript locates <claudeDir>/projects/*/<sessionID>.jsonl. Project
// directories are searched in name order and the first match wins.
func FindTranscript(claudeDir, sessionID string) (string, bool) {
	if sessionID == "" || sessionID == "." || sessionID == ".." || strings.ContainsAny(sessionID, `/\`) {
		return "", false
	}

	projectsDir := filepath.Join(claudeDir, "projects")
	entries, err := os.ReadDir(projectsDir)
	if err != nil {
		return "", false
	}

	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		candidate := filepath.Join(projectsDir, e.Name(), sessionID+".jsonl")
		if isRegularFile(candidate) {
			return candidate, true
		}
	}
	return "", false
}

// ResolveTranscript prefers an explicit transcript path and falls back to
// locating the session's file under claudeDir.
func ResolveTranscript(claudeDir, transcriptPath, sessionID string) (string, bool) {
	if transcriptPath != "" && isRegularFile(transcriptPath) {
		return transcriptPath, true
	}
	return FindTranscript(claudeDir, sessionID)
}

func isRegularFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

package source

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("{}\n"), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestScanDir(t *testing.T) {
	claude := t.TempDir()
	projects := filepath.Join(claude, "projects")
	touch(t, filepath.Join(projects, "-home-a", "s1.jsonl"))
	touch(t, filepath.Join(projects, "-home-a", "s1", "subagents", "agent-7.jsonl"))
	touch(t, filepath.Join(projects, "-home-b", "notes.txt"))
	touch(t, filepath.Join(projects, "stray.jsonl"))

	files, err := ScanDir(claude)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 {
		t.Fatalf("found %d files, want 2", len(files))
	}

	idx := slices.IndexFunc(files, func(f DiscoveredFile) bool { return f.IsSubagent })
	if idx < 0 {
		t.Fatal("subagent file not flagged")
	}
	if want := filepath.Join(projects, "-home-a", "s1", "subagents", "agent-7.jsonl"); files[idx].Path != want {
		t.Errorf("subagent path = %q, want %q", files[idx].Path, want)
	}
	session := files[1-idx]
	if session.Path != filepath.Join(projects, "-home-a", "s1.jsonl") || session.Size != 3 || session.ModTime.IsZero() {
		t.Errorf("session = %+v", session)
	}
}

func TestScanDir_Missing(t *testing.T) {
	files, err := ScanDir(t.TempDir())
	if err != nil || files != nil {
		t.Errorf("ScanDir(empty) = %v, %v", files, err)
	}
}

func TestFindTranscript(t *testing.T) {
	claude := t.TempDir()
	want := filepath.Join(claude, "projects", "-a", "abc.jsonl")
	touch(t, want)
	touch(t, filepath.Join(claude, "projects", "-b", "abc.jsonl"))

	got, ok := FindTranscript(claude, "abc")
	if !ok || got != want {
		t.Errorf("FindTranscript = %q, %v; want %q", got, ok, want)
	}

	for _, id := range []string{"", ".", "..", "../abc", `a\b`, "missing"} {
		if _, ok := FindTranscript(claude, id); ok {
			t.Errorf("FindTranscript(%q) matched", id)
		}
	}
}

func TestResolveTranscript(t *testing.T) {
	claude := t.TempDir()
	found := filepath.Join(claude, "projects", "-a", "abc.jsonl")
	touch(t, found)
	explicit := filepath.Join(t.TempDir(), "elsewhere.jsonl")
	touch(t, explicit)

	if got, _ := ResolveTranscript(claude, explicit, "abc"); got != explicit {
		t.Errorf("explicit path not preferred: %q", got)
	}
	if got, _ := ResolveTranscript(claude, "/does/not/exist.jsonl", "abc"); got != found {
		t.Errorf("fallback = %q, want %q", got, found)
	}
	if _, ok := ResolveTranscript(claude, claude, ""); ok {
		t.Error("a directory is not a transcript")
	}
}

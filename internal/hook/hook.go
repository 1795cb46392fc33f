// Package hook decodes the JSON document Claude Code pipes to a status line
// command on stdin.
package hook

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

const maxInput = 1 << 20

// ErrEmptyInput is returned when stdin carried no document.
var ErrEmptyInput = errors.New("hook: empty input")

// Model identifies the model the session is currently using.
type Model struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// Workspace holds the session's directories.
type Workspace struct {
	CurrentDir string `json:"current_dir"`
	ProjectDir string `json:"project_dir"`
}

// Data is the status line hook payload.
type Data struct {
	HookEventName  string    `json:"hook_event_name"`
	SessionID      string    `json:"session_id"`
	TranscriptPath string    `json:"transcript_path"`
	Cwd            string    `json:"cwd"`
	Model          Model     `json:"model"`
	Workspace      Workspace `json:"workspace"`
}

// ModelName returns the display name, falling back to the model id.
func (d Data) ModelName() string {
	if d.Model.DisplayName != "" {
		return d.Model.DisplayName
	}
	return d.Model.ID
}

// Parse reads one hook document from r. Unknown fields are ignored.
func Parse(r io.Reader) (Data, error) {
	body, err := io.ReadAll(io.LimitReader(r, maxInput))
	if err != nil {
		return Data{}, fmt.Errorf("hook: reading input: %w", err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return Data{}, ErrEmptyInput
	}

	var d Data
	if err := json.Unmarshal(body, &d); err != nil {
		return Data{}, fmt.Errorf("hook: parsing input: %w", err)
	}
	return d, nil
}

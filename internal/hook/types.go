// Package hook runs user executables when tracking events happen, such as a
// finished session. Hooks live in their own directory with a hook.json
// manifest and talk JSON over stdin and stdout.
package hook

import (
	"encoding/json"

	"github.com/ayusman/formcheck/internal/store"
)

// Events a hook can subscribe to.
const (
	EventSessionFinished = "session.finished"
)

// Manifest describes a hook and the events it handles.
type Manifest struct {
	Name        string          `json:"name"`
	Version     string          `json:"version"`
	Description string          `json:"description"`
	Executable  string          `json:"executable"`
	Events      []string        `json:"events"`
	Config      json.RawMessage `json:"config,omitempty"`
}

// Handles reports whether the manifest subscribes to event.
func (m Manifest) Handles(event string) bool {
	for _, e := range m.Events {
		if e == event {
			return true
		}
	}
	return false
}

// Request is written to the hook's stdin.
type Request struct {
	Event   string          `json:"event"`
	Session *store.Session  `json:"session,omitempty"`
	Config  json.RawMessage `json:"config,omitempty"`
}

// Response is read from the hook's stdout.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Hook is a discovered hook with its manifest and location.
type Hook struct {
	Manifest   Manifest
	Path       string
	Executable string
}

// Command session-log is a formcheck hook that appends one line per finished
// session to a log file.
//
// Build it next to its hook.json and copy the directory into the hooks dir:
//
//	go build -o session-log .
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ayusman/formcheck/internal/hook"
)

type config struct {
	Path string `json:"path"`
}

func main() {
	var req hook.Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResponse(fmt.Errorf("decode request: %w", err))
		return
	}

	if req.Event != hook.EventSessionFinished || req.Session == nil {
		writeResponse(fmt.Errorf("unsupported event: %s", req.Event))
		return
	}

	cfg := config{Path: "sessions.log"}
	if len(req.Config) > 0 {
		if err := json.Unmarshal(req.Config, &cfg); err != nil {
			writeResponse(fmt.Errorf("decode config: %w", err))
			return
		}
	}

	writeResponse(appendLine(cfg.Path, formatLine(req)))
}

func formatLine(req hook.Request) string {
	s := req.Session
	name := s.Exercise
	if s.Manual {
		name = "manual"
	}
	return fmt.Sprintf("%s\t%s\t%s\t%d/%d correct (%.0f%%)\t%.1f%%\n",
		s.StartedAt.Format(time.RFC3339), name, s.Duration().Round(time.Second),
		s.CorrectFrames, s.EvaluatedFrames, 100*s.CorrectRatio(), s.MeanProgress)
}

func appendLine(path, line string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(line); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeResponse(err error) {
	resp := hook.Response{Success: err == nil}
	if err != nil {
		resp.Error = err.Error()
	}
	_ = json.NewEncoder(os.Stdout).Encode(resp)
}

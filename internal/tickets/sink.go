package tickets

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Sink is a destination for filed tickets.
type Sink interface {
	Name() string
	Write(ctx context.Context, t Ticket) error
}

// FileLog appends tickets to a JSON Lines file.
type FileLog struct {
	path string
	mu   sync.Mutex
}

// NewFileLog creates a FileLog at path. The parent directory is created on
// first write.
func NewFileLog(path string) *FileLog {
	return &FileLog{path: path}
}

func (f *FileLog) Name() string { return "file" }

// Path returns the log file location.
func (f *FileLog) Path() string { return f.path }

// Write appends t as a single line. The whole record, newline included, is
// written with one call while holding the lock so concurrent tickets never
// interleave.
func (f *FileLog) Write(_ context.Context, t Ticket) error {
	line, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encode ticket: %w", err)
	}
	line = append(line, '\n')

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}

	file, err := os.OpenFile(f.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open ticket log: %w", err)
	}

	if _, err := file.Write(line); err != nil {
		file.Close()
		return fmt.Errorf("append ticket: %w", err)
	}
	return file.Close()
}

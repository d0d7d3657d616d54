package session

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/menta2k/photo-editor/internal/logging"
	"github.com/menta2k/photo-editor/internal/utils"
)

// Sink receives exported images, e.g. a download or a file save
type Sink interface {
	Save(ctx context.Context, name string, data []byte) error
}

// SinkFunc adapts a function to Sink
type SinkFunc func(ctx context.Context, name string, data []byte) error

// Save calls f
func (f SinkFunc) Save(ctx context.Context, name string, data []byte) error {
	return f(ctx, name, data)
}

// DirSink writes exports into a directory
type DirSink struct {
	Dir string
}

// Save writes data to Dir/name. The name is sanitized so it cannot leave Dir.
func (d DirSink) Save(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	clean := utils.SanitizeFilename(name)
	if clean == "" {
		return fmt.Errorf("invalid file name %q", name)
	}

	path := filepath.Join(d.Dir, clean)
	if err := utils.WriteFile(path, data); err != nil {
		return err
	}
	logging.Printf("Saved %s (%s)", path, utils.FormatFileSize(int64(len(data))))
	return nil
}

// MemorySink keeps exports in memory
type MemorySink struct {
	mu    sync.Mutex
	files map[string][]byte
	order []string
}

// Save stores a copy of data under name
func (m *MemorySink) Save(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.files == nil {
		m.files = make(map[string][]byte)
	}
	m.files[name] = append([]byte(nil), data...)
	m.order = append(m.order, name)
	return nil
}

// Get returns the data saved under name
func (m *MemorySink) Get(name string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[name]
	return data, ok
}

// Saves returns the names passed to Save, in call order
func (m *MemorySink) Saves() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.order...)
}

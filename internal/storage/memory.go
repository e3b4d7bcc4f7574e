package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"sync"
)

// Memory keeps files in process memory. It backs tests and local runs
// without an S3 endpoint.
type Memory struct {
	baseURL string

	mu    sync.RWMutex
	files map[string][]byte
}

func NewMemory(baseURL string) *Memory {
	return &Memory{baseURL: baseURL, files: make(map[string][]byte)}
}

func (m *Memory) Save(_ context.Context, path string, file io.Reader, _ string) error {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, file); err != nil {
		return fmt.Errorf("failed to read upload: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path] = buf.Bytes()
	return nil
}

func (m *Memory) Delete(_ context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, path)
	return nil
}

func (m *Memory) PresignedURL(_ context.Context, path string, filename string) (string, error) {
	m.mu.RLock()
	_, ok := m.files[path]
	m.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("file %q not found", path)
	}

	u := m.baseURL + "/" + path
	if filename != "" {
		u += "?filename=" + url.QueryEscape(filename)
	}
	return u, nil
}

// Has reports whether a file is stored at path.
func (m *Memory) Has(path string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.files[path]
	return ok
}

// Len is the number of stored files.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.files)
}

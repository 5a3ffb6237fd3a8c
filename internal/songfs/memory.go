package songfs

import (
	"path"
	"sort"
	"sync"
)

// Memory is a map-backed Provider. Paths are cleaned before use, so "a/./b.txt"
// and "a/b.txt" name the same file.
type Memory struct {
	mu    sync.RWMutex
	files map[string]string
}

func NewMemory(files map[string]string) *Memory {
	m := &Memory{files: make(map[string]string, len(files))}
	for p, text := range files {
		m.files[path.Clean(p)] = text
	}
	return m
}

func (m *Memory) ReadText(p string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	text, ok := m.files[path.Clean(p)]
	if !ok {
		return "", NotFound(p)
	}
	return text, nil
}

func (m *Memory) WriteText(p, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path.Clean(p)] = text
	return nil
}

// Paths lists the stored files in sorted order.
func (m *Memory) Paths() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.files))
	for p := range m.files {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

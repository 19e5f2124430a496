package objstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	pkgerr "github.com/yungbote/lessonforge-backend/internal/pkg/errors"
)

type memObject struct {
	data        []byte
	contentType string
	// generations kept so DeletePrefix can be exercised against version
	// history the way the GCS store behaves with versioning enabled.
	generations [][]byte
}

// MemoryStore is an in-process ObjectStore used for tests and local runs.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]*memObject
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string]*memObject)}
}

func (m *MemoryStore) GetObject(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[key]
	if !ok {
		return nil, fmt.Errorf("object %q: %w", key, pkgerr.ErrNotFound)
	}
	out := make([]byte, len(obj.data))
	copy(out, obj.data)
	return out, nil
}

func (m *MemoryStore) PutObject(_ context.Context, key string, data []byte, contentType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := make([]byte, len(data))
	copy(stored, data)
	if prev, ok := m.objects[key]; ok {
		prev.generations = append(prev.generations, prev.data)
		prev.data = stored
		prev.contentType = contentType
		return nil
	}
	m.objects[key] = &memObject{data: stored, contentType: contentType}
	return nil
}

func (m *MemoryStore) DeleteObject(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *MemoryStore) StatObject(_ context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[key]
	return ok, nil
}

func (m *MemoryStore) CopyObject(_ context.Context, srcKey, dstKey, contentType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	src, ok := m.objects[srcKey]
	if !ok {
		return fmt.Errorf("copy source %q: %w", srcKey, pkgerr.ErrNotFound)
	}
	data := make([]byte, len(src.data))
	copy(data, src.data)
	ct := contentType
	if ct == "" {
		ct = src.contentType
	}
	m.objects[dstKey] = &memObject{data: data, contentType: ct}
	return nil
}

func (m *MemoryStore) ListKeys(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []string{}
	for key := range m.objects {
		if strings.HasPrefix(key, prefix) {
			out = append(out, key)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *MemoryStore) ListCommonPrefixes(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen := map[string]bool{}
	for key := range m.objects {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		rest := strings.TrimPrefix(key, prefix)
		if i := strings.Index(rest, "/"); i > 0 {
			seen[rest[:i]] = true
		}
	}
	out := make([]string, 0, len(seen))
	for child := range seen {
		out = append(out, child)
	}
	sort.Strings(out)
	return out, nil
}

func (m *MemoryStore) DeletePrefix(_ context.Context, prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.objects {
		if strings.HasPrefix(key, prefix) {
			delete(m.objects, key)
		}
	}
	return nil
}

// ContentType reports the stored content type for a key; test helper.
func (m *MemoryStore) ContentType(key string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if obj, ok := m.objects[key]; ok {
		return obj.contentType
	}
	return ""
}

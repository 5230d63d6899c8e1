package storage

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"
)

// Ensure MemoryStorage implements ObjectStorage
var _ ObjectStorage = (*MemoryStorage)(nil)

// MemoryStorage is an in-process ObjectStorage for development and tests
type MemoryStorage struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
}

type memoryObject struct {
	data         []byte
	contentType  string
	lastModified time.Time
}

// NewMemoryStorage creates an empty MemoryStorage
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{objects: make(map[string]memoryObject)}
}

func fullKey(bucket, key string) string {
	return bucket + "\x00" + key
}

// Put stores the object under key
func (m *MemoryStorage) Put(_ context.Context, bucket, key string, body io.Reader, contentType string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[fullKey(bucket, key)] = memoryObject{
		data:         data,
		contentType:  contentType,
		lastModified: time.Now(),
	}
	return nil
}

// PutAt stores an object with an explicit modification time, for tests that
// depend on file ordering.
func (m *MemoryStorage) PutAt(bucket, key string, data []byte, lastModified time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[fullKey(bucket, key)] = memoryObject{data: data, lastModified: lastModified}
}

// Get opens the object for reading
func (m *MemoryStorage) Get(_ context.Context, bucket, key string) (io.ReadCloser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	obj, ok := m.objects[fullKey(bucket, key)]
	if !ok {
		return nil, ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

// List returns all objects under prefix, sorted by key
func (m *MemoryStorage) List(_ context.Context, bucket, prefix string) ([]ObjectInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	bucketPrefix := fullKey(bucket, prefix)
	var objects []ObjectInfo
	for stored, obj := range m.objects {
		if strings.HasPrefix(stored, bucketPrefix) {
			_, key, _ := strings.Cut(stored, "\x00")
			objects = append(objects, ObjectInfo{
				Key:          key,
				Size:         int64(len(obj.data)),
				LastModified: obj.lastModified,
			})
		}
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })
	return objects, nil
}

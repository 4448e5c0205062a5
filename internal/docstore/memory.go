package docstore

import (
	"context"
	"strconv"
	"sync"
)

// MemoryStore keeps the document in process. Versions are a revision counter.
type MemoryStore struct {
	mu       sync.Mutex
	content  []byte
	revision int
}

// NewMemoryStore returns a store holding content. Nil content starts without a document.
func NewMemoryStore(content []byte) *MemoryStore {
	s := &MemoryStore{}
	if content != nil {
		s.content = append([]byte(nil), content...)
		s.revision = 1
	}
	return s
}

func (s *MemoryStore) version() Version {
	if s.revision == 0 {
		return ""
	}
	return Version(strconv.Itoa(s.revision))
}

// Get implements Store.
func (s *MemoryStore) Get(ctx context.Context) ([]byte, Version, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.content...), s.version(), nil
}

// Put implements Store.
func (s *MemoryStore) Put(ctx context.Context, content []byte, expected Version) (Version, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if expected != s.version() {
		return "", ErrConflict
	}
	s.content = append([]byte(nil), content...)
	s.revision++
	return s.version(), nil
}

package cache

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	exec "github.com/gqlpipe/gqlpipe/internal/exec"
)

// Entry is one stored operation result. Data keeps the selection-applied
// object tree including fulfilled-fragment provenance, so partial
// rewrites through the cache-write collection strategy stay possible.
type Entry struct {
	Data     *exec.DataObject
	StoredAt time.Time
}

// Store is the storage boundary the cache interceptors talk to. The
// normalized-cache engine behind it is a collaborator; this package
// ships an in-memory LRU implementation.
type Store interface {
	Get(key string) (*Entry, bool)
	Put(key string, entry *Entry)
	Delete(key string)
}

// LRUStore is a bounded in-memory Store.
type LRUStore struct {
	entries *lru.Cache[string, *Entry]
}

var _ Store = (*LRUStore)(nil)

func NewLRUStore(size int) (*LRUStore, error) {
	entries, err := lru.New[string, *Entry](size)
	if err != nil {
		return nil, err
	}
	return &LRUStore{entries: entries}, nil
}

func (s *LRUStore) Get(key string) (*Entry, bool) {
	return s.entries.Get(key)
}

func (s *LRUStore) Put(key string, entry *Entry) {
	s.entries.Add(key, entry)
}

func (s *LRUStore) Delete(key string) {
	s.entries.Remove(key)
}

// Len returns the number of stored entries.
func (s *LRUStore) Len() int { return s.entries.Len() }

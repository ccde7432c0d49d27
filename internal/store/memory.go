package store

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/chalkdoc/chalkdoc"
)

// MemoryStore is an in-process TopicStore. Topics are stored as JSON so a
// caller mutating a returned topic cannot change the stored one.
type MemoryStore struct {
	mu     sync.RWMutex
	seq    int64
	topics map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{topics: make(map[string][]byte)}
}

func (m *MemoryStore) Save(_ context.Context, t *chalkdoc.Topic) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	t.ID = "t" + strconv.FormatInt(m.seq, 10)
	b, err := json.Marshal(t)
	if err != nil {
		return "", err
	}
	m.topics[t.ID] = b
	return t.ID, nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (*chalkdoc.Topic, error) {
	m.mu.RLock()
	b, ok := m.topics[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	var t chalkdoc.Topic
	if err := json.Unmarshal(b, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (m *MemoryStore) Close(context.Context) error { return nil }

type cacheEntry struct {
	value   []byte
	expires time.Time
}

// MemoryCache is an in-process Cache. A zero ttl never expires.
type MemoryCache struct {
	mu   sync.Mutex
	data map[string]cacheEntry
	now  func() time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{data: make(map[string]cacheEntry), now: time.Now}
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.data[key]
	if !ok {
		return nil, false
	}
	if !e.expires.IsZero() && !c.now().Before(e.expires) {
		delete(c.data, key)
		return nil, false
	}
	return e.value, true
}

func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := cacheEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expires = c.now().Add(ttl)
	}
	c.data[key] = e
	return nil
}

// Package store persists topics and caches generation results.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/chalkdoc/chalkdoc"
)

// ErrNotFound is returned by Get when no topic has the requested id.
var ErrNotFound = errors.New("topic not found")

// TopicStore saves topics and fetches them back by id.
type TopicStore interface {
	// Save assigns an id, records it on t and returns it.
	Save(ctx context.Context, t *chalkdoc.Topic) (string, error)
	Get(ctx context.Context, id string) (*chalkdoc.Topic, error)
	Close(ctx context.Context) error
}

// Cache holds serialized generation results keyed by template.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

package index

import (
	"bytes"
	"context"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"

	"github.com/uber/crumb/pkg/errors"
)

// RedisStore shares record blobs through a redis instance, for CI fleets
// where sibling builds should see each other's records without exchanging
// artifacts. Keys are namespaced exactly like archive entries, so the same
// scan-by-namespace discovery applies.
type RedisStore struct {
	client *redis.Client
	prefix string
	logger *log.Logger
}

// NewRedisStore connects to the redis instance at addr. The optional prefix
// isolates independent build graphs sharing one instance. A nil logger falls
// back to log.Default().
func NewRedisStore(addr, prefix string, logger *log.Logger) *RedisStore {
	if logger == nil {
		logger = log.Default()
	}
	return &RedisStore{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		prefix: prefix,
		logger: logger,
	}
}

// Put stores the blob under a namespaced key. The returned handle buffers
// additional bytes and rewrites the key when closed.
func (s *RedisStore) Put(ctx context.Context, tag WriteTag, blob []byte) (*WriteHandle, error) {
	id := newWriteID()
	name := tag.EntryName(id)
	key := s.prefix + name

	if err := s.client.Set(ctx, key, blob, 0).Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreFailed, err, "storing record %s", key)
	}
	s.logger.Debug("stored remote record", "key", key, "origin", tag.Origin)

	w := &redisEntry{store: s, key: key}
	w.buf.Write(blob)
	return &WriteHandle{ID: id, Name: name, w: w}, nil
}

// Load returns every blob below the namespace prefix.
func (s *RedisStore) Load(ctx context.Context) ([]Blob, error) {
	var blobs []Blob
	iter := s.client.Scan(ctx, 0, s.prefix+Namespace+"*", 0).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		data, err := s.client.Get(ctx, key).Bytes()
		if err != nil {
			s.logger.Warn("skipping unreadable remote record", "key", key, "err", err)
			continue
		}
		blobs = append(blobs, Blob{Source: "redis:" + s.prefix, Name: key, Data: data})
	}
	if err := iter.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreFailed, err, "scanning remote index")
	}
	return blobs, nil
}

// Close releases the client connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// redisEntry accumulates streamed bytes and rewrites the key on Close.
type redisEntry struct {
	store *RedisStore
	key   string

	mu    sync.Mutex
	buf   bytes.Buffer
	dirty bool
}

func (e *redisEntry) Write(p []byte) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.dirty = true
	return e.buf.Write(p)
}

func (e *redisEntry) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.dirty {
		return nil
	}
	e.dirty = false
	if err := e.store.client.Set(context.Background(), e.key, e.buf.Bytes(), 0).Err(); err != nil {
		return errors.Wrap(errors.ErrCodeStoreFailed, err, "finalizing record %s", e.key)
	}
	return nil
}

// Ensure RedisStore implements Store.
var _ Store = (*RedisStore)(nil)

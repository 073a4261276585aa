package index

import (
	"bytes"
	"context"
	"sync"
)

// MemoryStore keeps record blobs in process memory. It backs tests and the
// same-pass record buffer; nothing persists beyond the store's lifetime.
type MemoryStore struct {
	mu      sync.Mutex
	entries []*memEntry
}

type memEntry struct {
	name string

	mu  sync.Mutex
	buf bytes.Buffer
}

func (e *memEntry) Write(p []byte) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.buf.Write(p)
}

func (e *memEntry) Close() error { return nil }

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Put stores the blob and returns a handle appending to the same entry.
func (s *MemoryStore) Put(ctx context.Context, tag WriteTag, blob []byte) (*WriteHandle, error) {
	id := newWriteID()
	entry := &memEntry{name: tag.EntryName(id)}
	entry.buf.Write(blob)

	s.mu.Lock()
	s.entries = append(s.entries, entry)
	s.mu.Unlock()

	return &WriteHandle{ID: id, Name: entry.name, w: entry}, nil
}

// Load returns copies of all stored blobs.
func (s *MemoryStore) Load(ctx context.Context) ([]Blob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	blobs := make([]Blob, 0, len(s.entries))
	for _, e := range s.entries {
		e.mu.Lock()
		data := append([]byte(nil), e.buf.Bytes()...)
		e.mu.Unlock()
		blobs = append(blobs, Blob{Source: "memory", Name: e.name, Data: data})
	}
	return blobs, nil
}

// Len returns the number of stored entries.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Close does nothing.
func (s *MemoryStore) Close() error { return nil }

// NullStore discards every write and never returns blobs. Useful when a pass
// should run without persistence.
type NullStore struct{}

// NewNullStore creates a null store.
func NewNullStore() *NullStore { return &NullStore{} }

// Put discards the blob.
func (s *NullStore) Put(ctx context.Context, tag WriteTag, blob []byte) (*WriteHandle, error) {
	id := newWriteID()
	return &WriteHandle{ID: id, Name: tag.EntryName(id), w: nopWriteCloser{}}, nil
}

// Load returns no blobs.
func (s *NullStore) Load(ctx context.Context) ([]Blob, error) { return nil, nil }

// Close does nothing.
func (s *NullStore) Close() error { return nil }

type nopWriteCloser struct{}

func (nopWriteCloser) Write(p []byte) (int, error) { return len(p), nil }
func (nopWriteCloser) Close() error                { return nil }

// Ensure the stores implement Store.
var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*NullStore)(nil)
)

// Package index persists encoded metadata records inside the module's
// compiled output and retrieves every record visible on the downstream build
// graph.
//
// Records ride inside the regular build artifact under one fixed, reserved
// namespace, so ordinary packaging of the module is sufficient for
// propagation: downstream builds discover records purely by scanning that
// namespace, with no separate index file or manifest. The backend is
// pluggable: archive (zip artifact), directory (unpacked build output),
// memory (tests and same-pass buffering), redis (shared remote index) and a
// multi-reader that unions any number of search locations.
package index

import (
	"context"
	"io"
	"strings"

	"github.com/google/uuid"
)

// Reserved artifact namespace. Entries below this prefix are engine-private;
// packaging strips them from final end-user binaries via the configured
// exclusion pattern.
const (
	Namespace = "crumb-index/"

	// BlobExt is the file extension of persisted record blobs.
	BlobExt = ".crumb"
)

// Blob is one raw encoded record as found in an artifact. Source and Name
// identify where it came from so decode failures can cite the artifact.
type Blob struct {
	Source string // artifact location the blob was read from
	Name   string // entry name below the namespace
	Data   []byte
}

// WriteTag describes one store write for build-system dependency tracking:
// the producing element, every element that contributed to the record, and
// the incremental classification implied by the contributing extensions.
type WriteTag struct {
	Origin      string
	Elements    []string
	Incremental string
}

// EntryName returns the namespaced artifact entry name for this write.
func (t WriteTag) EntryName(id string) string {
	origin := sanitize(t.Origin)
	if origin == "" {
		origin = "record"
	}
	return Namespace + origin + "-" + id + BlobExt
}

// sanitize maps a qualified element name onto a safe entry name.
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, s)
}

// WriteHandle is the open write for one record. The initial blob is already
// persisted when the handle is returned; streaming producers may write
// additional bytes before Close.
type WriteHandle struct {
	// ID uniquely identifies this write.
	ID string

	// Name is the artifact entry the record is stored under.
	Name string

	w io.WriteCloser
}

// newWriteID returns a fresh unique write identifier.
func newWriteID() string { return uuid.NewString() }

// Write appends additional bytes to the record entry.
func (h *WriteHandle) Write(p []byte) (int, error) { return h.w.Write(p) }

// Close finalizes the entry.
func (h *WriteHandle) Close() error { return h.w.Close() }

// Loader retrieves all record blobs visible at one or more locations.
type Loader interface {
	// Load scans the location and returns the raw encoded blobs found under
	// the reserved namespace. Zero matches yield an empty slice, not an
	// error.
	Load(ctx context.Context) ([]Blob, error)
}

// Store persists record blobs as part of a build's output artifact.
type Store interface {
	Loader

	// Put persists the blob under the reserved namespace and returns a
	// handle that accepts additional bytes until closed.
	Put(ctx context.Context, tag WriteTag, blob []byte) (*WriteHandle, error)

	// Close flushes pending writes and releases backend resources.
	Close() error
}

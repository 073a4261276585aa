package index

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/uber/crumb/pkg/errors"
)

// ArchiveStore embeds record blobs as entries of a zip build artifact, the
// moral equivalent of resources riding inside a packaged module. Writes are
// buffered and flushed into the archive on Close so streaming handles can
// keep appending until then; existing non-record entries are preserved.
type ArchiveStore struct {
	path   string
	logger *log.Logger

	mu      sync.Mutex
	pending []*archiveEntry
}

type archiveEntry struct {
	name string

	mu  sync.Mutex
	buf bytes.Buffer
}

func (e *archiveEntry) Write(p []byte) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.buf.Write(p)
}

func (e *archiveEntry) Close() error { return nil }

// NewArchiveStore creates a store reading and writing the artifact at path.
// The artifact need not exist yet; it is created on Close when records were
// written. A nil logger falls back to log.Default().
func NewArchiveStore(path string, logger *log.Logger) *ArchiveStore {
	if logger == nil {
		logger = log.Default()
	}
	return &ArchiveStore{path: path, logger: logger}
}

// Put buffers the blob for inclusion in the artifact.
func (s *ArchiveStore) Put(ctx context.Context, tag WriteTag, blob []byte) (*WriteHandle, error) {
	id := newWriteID()
	entry := &archiveEntry{name: tag.EntryName(id)}
	if _, err := entry.Write(blob); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreFailed, err, "buffering record for %s", tag.Origin)
	}

	s.mu.Lock()
	s.pending = append(s.pending, entry)
	s.mu.Unlock()

	s.logger.Debug("buffered record entry",
		"entry", entry.name,
		"origin", tag.Origin,
		"elements", len(tag.Elements),
		"incremental", tag.Incremental)
	return &WriteHandle{ID: id, Name: entry.name, w: entry}, nil
}

// Load returns the record blobs stored in the artifact. A missing artifact
// yields no blobs; an unreadable archive is skipped with a warning; a corrupt
// entry is skipped with a warning while the rest of the archive is still
// read.
func (s *ArchiveStore) Load(ctx context.Context) ([]Blob, error) {
	r, err := zip.OpenReader(s.path)
	if os.IsNotExist(err) {
		s.logger.Debug("artifact does not exist", "path", s.path)
		return nil, nil
	}
	if err != nil {
		s.logger.Warn("skipping unreadable artifact", "path", s.path, "err", err)
		return nil, nil
	}
	defer r.Close()

	var blobs []Blob
	for _, f := range r.File {
		if !isRecordEntry(f.Name) {
			continue
		}
		data, err := readZipFile(f)
		if err != nil {
			s.logger.Warn("skipping corrupt artifact entry",
				"path", s.path, "entry", f.Name, "err", err)
			continue
		}
		blobs = append(blobs, Blob{Source: s.path, Name: f.Name, Data: data})
	}
	return blobs, nil
}

// Close flushes the buffered records into the artifact, preserving whatever
// entries the artifact already carries.
func (s *ArchiveStore) Close() error {
	s.mu.Lock()
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()

	if len(pending) == 0 {
		return nil
	}

	// Stage next to the artifact so the final rename never crosses
	// filesystems.
	tmp, err := os.CreateTemp(filepath.Dir(s.path), "crumb-artifact-*.zip")
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreFailed, err, "creating artifact staging file")
	}
	defer os.Remove(tmp.Name())

	zw := zip.NewWriter(tmp)
	if err := s.copyExisting(zw); err != nil {
		tmp.Close()
		return err
	}
	for _, entry := range pending {
		w, err := zw.Create(entry.name)
		if err == nil {
			_, err = w.Write(entry.buf.Bytes())
		}
		if err != nil {
			tmp.Close()
			return errors.Wrap(errors.ErrCodeStoreFailed, err, "writing artifact entry %s", entry.name)
		}
	}
	if err := zw.Close(); err != nil {
		tmp.Close()
		return errors.Wrap(errors.ErrCodeStoreFailed, err, "finalizing artifact %s", s.path)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeStoreFailed, err, "finalizing artifact %s", s.path)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return errors.Wrap(errors.ErrCodeStoreFailed, err, "replacing artifact %s", s.path)
	}

	s.logger.Debug("flushed record entries", "path", s.path, "entries", len(pending))
	return nil
}

// copyExisting streams all current artifact entries into the new archive.
func (s *ArchiveStore) copyExisting(zw *zip.Writer) error {
	r, err := zip.OpenReader(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreFailed, err, "reopening artifact %s", s.path)
	}
	defer r.Close()

	for _, f := range r.File {
		if err := zw.Copy(f); err != nil {
			return errors.Wrap(errors.ErrCodeStoreFailed, err, "carrying over entry %s", f.Name)
		}
	}
	return nil
}

func isRecordEntry(name string) bool {
	return len(name) > len(Namespace)+len(BlobExt) &&
		name[:len(Namespace)] == Namespace &&
		name[len(name)-len(BlobExt):] == BlobExt
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// Ensure ArchiveStore implements Store.
var _ Store = (*ArchiveStore)(nil)

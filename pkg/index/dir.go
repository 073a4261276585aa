package index

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/uber/crumb/pkg/errors"
)

// DirStore keeps record blobs in the reserved namespace directory of an
// unpacked build-output tree. It is the backend of choice before the output
// is packaged into an archive, and for reading exploded artifacts on the
// search path.
type DirStore struct {
	root   string
	logger *log.Logger
}

// NewDirStore creates a store rooted at the build-output directory root.
// A nil logger falls back to log.Default().
func NewDirStore(root string, logger *log.Logger) *DirStore {
	if logger == nil {
		logger = log.Default()
	}
	return &DirStore{root: root, logger: logger}
}

// Put writes the blob as a namespace file and returns a handle backed by the
// open file, so additional bytes stream straight to disk.
func (s *DirStore) Put(ctx context.Context, tag WriteTag, blob []byte) (*WriteHandle, error) {
	id := newWriteID()
	name := tag.EntryName(id)
	path := filepath.Join(s.root, filepath.FromSlash(name))

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreFailed, err, "creating namespace directory")
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreFailed, err, "creating record file %s", path)
	}
	if _, err := f.Write(blob); err != nil {
		f.Close()
		return nil, errors.Wrap(errors.ErrCodeStoreFailed, err, "writing record file %s", path)
	}

	s.logger.Debug("stored record file",
		"path", path,
		"origin", tag.Origin,
		"incremental", tag.Incremental)
	return &WriteHandle{ID: id, Name: name, w: f}, nil
}

// Load returns all record blobs below the namespace directory. A missing
// namespace directory yields no blobs; unreadable files are skipped with a
// warning.
func (s *DirStore) Load(ctx context.Context) ([]Blob, error) {
	nsDir := filepath.Join(s.root, filepath.FromSlash(Namespace))
	entries, err := os.ReadDir(nsDir)
	if os.IsNotExist(err) {
		s.logger.Debug("no record namespace in output directory", "dir", nsDir)
		return nil, nil
	}
	if err != nil {
		s.logger.Warn("skipping unreadable namespace directory", "dir", nsDir, "err", err)
		return nil, nil
	}

	var blobs []Blob
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), BlobExt) {
			continue
		}
		path := filepath.Join(nsDir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			s.logger.Warn("skipping unreadable record file", "path", path, "err", err)
			continue
		}
		blobs = append(blobs, Blob{Source: s.root, Name: Namespace + entry.Name(), Data: data})
	}
	return blobs, nil
}

// Close does nothing: Put writes through to disk.
func (s *DirStore) Close() error { return nil }

// Ensure DirStore implements Store.
var _ Store = (*DirStore)(nil)

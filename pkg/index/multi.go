package index

import (
	"context"
	"os"

	"github.com/charmbracelet/log"
)

// Multi unions record blobs across every reachable artifact location: prior
// build outputs plus any extra configured search locations. A location that
// fails to load is skipped with a warning so one bad classpath entry cannot
// hide the rest of the build graph.
type Multi struct {
	sources []Loader
	logger  *log.Logger
}

// NewMulti creates a union reader over the given sources.
// A nil logger falls back to log.Default().
func NewMulti(logger *log.Logger, sources ...Loader) *Multi {
	if logger == nil {
		logger = log.Default()
	}
	return &Multi{sources: sources, logger: logger}
}

// Load returns the blobs of every source in order. Zero sources or zero
// matches yield an empty result, not an error.
func (m *Multi) Load(ctx context.Context) ([]Blob, error) {
	var blobs []Blob
	for _, src := range m.sources {
		if src == nil {
			continue
		}
		found, err := src.Load(ctx)
		if err != nil {
			m.logger.Warn("skipping record source", "err", err)
			continue
		}
		blobs = append(blobs, found...)
	}
	return blobs, nil
}

// OpenSearchPath builds a Multi over the given filesystem locations. A
// directory is read as an unpacked build output, anything else as a zip
// artifact; locations that do not exist are skipped with a debug log.
func OpenSearchPath(logger *log.Logger, locations ...string) *Multi {
	if logger == nil {
		logger = log.Default()
	}
	var sources []Loader
	for _, loc := range locations {
		info, err := os.Stat(loc)
		if err != nil {
			logger.Debug("skipping missing search location", "path", loc)
			continue
		}
		if info.IsDir() {
			sources = append(sources, NewDirStore(loc, logger))
		} else {
			sources = append(sources, NewArchiveStore(loc, logger))
		}
	}
	return NewMulti(logger, sources...)
}

// Ensure Multi implements Loader.
var _ Loader = (*Multi)(nil)

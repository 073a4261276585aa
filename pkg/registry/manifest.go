package registry

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	"github.com/uber/crumb/pkg/errors"
	"github.com/uber/crumb/pkg/extension"
)

// Factory constructs a fresh extension instance for one build pass.
type Factory func() (extension.Extension, error)

var (
	factoryMu    sync.RWMutex
	factoryTable = make(map[string]Factory)
)

// Register adds a named extension factory to the process-wide table,
// typically from a plugin package's init function. Registering the same name
// twice is an error so a bad plugin set is caught at startup.
func Register(name string, f Factory) error {
	if name == "" || f == nil {
		return errors.New(errors.ErrCodeInvalidConfig, "extension factory needs a name and a constructor")
	}
	factoryMu.Lock()
	defer factoryMu.Unlock()
	if _, exists := factoryTable[name]; exists {
		return errors.New(errors.ErrCodeDuplicateKey, "extension %q registered twice", name)
	}
	factoryTable[name] = f
	return nil
}

// Registered returns the sorted names of all registered factories.
func Registered() []string {
	factoryMu.RLock()
	defer factoryMu.RUnlock()
	names := make([]string, 0, len(factoryTable))
	for name := range factoryTable {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// lookup returns the factory registered under name.
func lookup(name string) (Factory, bool) {
	factoryMu.RLock()
	defer factoryMu.RUnlock()
	f, ok := factoryTable[name]
	return f, ok
}

// resetFactories clears the table. Tests only.
func resetFactories() {
	factoryMu.Lock()
	defer factoryMu.Unlock()
	factoryTable = make(map[string]Factory)
}

// manifest mirrors one discovery manifest file:
//
//	[[extension]]
//	name = "MoshiTypes"
type manifest struct {
	Extensions []manifestExtension `toml:"extension"`
}

type manifestExtension struct {
	Name string `toml:"name"`
}

// ManifestRegistry discovers extensions from TOML manifests in a directory,
// instantiating each named extension through the factory table. Any failure
// (unreadable file, malformed TOML, unknown name, factory error) degrades the
// whole discovery to an empty set with a warning; the pass itself goes on.
type ManifestRegistry struct {
	Dir    string
	Logger *log.Logger
}

// NewManifestRegistry creates a registry scanning dir for *.toml manifests.
// A nil logger falls back to log.Default().
func NewManifestRegistry(dir string, logger *log.Logger) *ManifestRegistry {
	if logger == nil {
		logger = log.Default()
	}
	return &ManifestRegistry{Dir: dir, Logger: logger}
}

// Discover scans the manifest directory and instantiates the named
// extensions. A missing directory means no plugins are installed and yields
// an empty set silently. Any other failure returns an empty set together
// with a DISCOVERY_FAILED error for the caller to surface as a warning.
func (r *ManifestRegistry) Discover(ctx context.Context) (Set, error) {
	entries, err := os.ReadDir(r.Dir)
	if os.IsNotExist(err) {
		r.Logger.Debug("no extension manifest directory", "dir", r.Dir)
		return Set{}, nil
	}
	if err != nil {
		return Set{}, errors.Wrap(errors.ErrCodeDiscoveryFailed, err, "reading manifest directory %s", r.Dir)
	}

	var set Set
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".toml") {
			continue
		}
		path := filepath.Join(r.Dir, entry.Name())
		if err := r.load(path, &set); err != nil {
			// One corrupt manifest poisons discovery as a whole: partial
			// plugin sets would make pass output depend on scan order.
			return Set{}, errors.Wrap(errors.ErrCodeDiscoveryFailed, err, "loading manifest %s", path)
		}
	}
	r.Logger.Debug("discovered extensions",
		"producers", len(set.Producers),
		"consumers", len(set.Consumers))
	return set, nil
}

func (r *ManifestRegistry) load(path string, set *Set) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var m manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return err
	}
	for _, me := range m.Extensions {
		f, ok := lookup(me.Name)
		if !ok {
			return errors.New(errors.ErrCodeNotFound,
				"manifest names extension %q but no factory is registered (registered: %s)",
				me.Name, strings.Join(Registered(), ", "))
		}
		ext, err := f()
		if err != nil {
			return err
		}
		known := false
		if p, ok := ext.(extension.Producer); ok {
			set.Producers = append(set.Producers, p)
			known = true
		}
		if c, ok := ext.(extension.Consumer); ok {
			set.Consumers = append(set.Consumers, c)
			known = true
		}
		if !known {
			return errors.New(errors.ErrCodeInvalidConfig,
				"extension %q is neither a producer nor a consumer", me.Name)
		}
	}
	return nil
}

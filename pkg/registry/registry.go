// Package registry enumerates the producer and consumer extensions available
// to one build pass.
//
// Two discovery modes are supported: explicit injection via Static (exact,
// deterministic, used by tests and embedding hosts) and manifest-driven
// discovery via ManifestRegistry, which instantiates extensions registered in
// the process-wide factory table. Discovery failure degrades to an empty
// extension set with a warning; it never aborts the pass, since a pass with
// zero extensions simply produces and consumes nothing.
package registry

import (
	"context"
	"sort"

	"github.com/uber/crumb/pkg/extension"
)

// Set holds the extensions active for one build pass. One value may appear in
// both slices when an extension produces and consumes.
type Set struct {
	Producers []extension.Producer
	Consumers []extension.Consumer
}

// Empty reports whether the set holds no extensions at all.
func (s Set) Empty() bool {
	return len(s.Producers) == 0 && len(s.Consumers) == 0
}

// Keys returns the sorted keys of every extension in the set, deduplicated.
func (s Set) Keys() []string {
	seen := make(map[string]bool)
	var keys []string
	for _, p := range s.Producers {
		if !seen[p.Key()] {
			seen[p.Key()] = true
			keys = append(keys, p.Key())
		}
	}
	for _, c := range s.Consumers {
		if !seen[c.Key()] {
			seen[c.Key()] = true
			keys = append(keys, c.Key())
		}
	}
	sort.Strings(keys)
	return keys
}

// ProducerAnnotations returns the sorted union of annotation types claimed by
// the set's producers. The host uses it to restrict which elements it
// surfaces to the pass.
func (s Set) ProducerAnnotations() []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range s.Producers {
		for _, a := range p.SupportedProducerAnnotations() {
			if !seen[a] {
				seen[a] = true
				out = append(out, a)
			}
		}
	}
	sort.Strings(out)
	return out
}

// ConsumerAnnotations is the consumer analogue of ProducerAnnotations.
func (s Set) ConsumerAnnotations() []string {
	seen := make(map[string]bool)
	var out []string
	for _, c := range s.Consumers {
		for _, a := range c.SupportedConsumerAnnotations() {
			if !seen[a] {
				seen[a] = true
				out = append(out, a)
			}
		}
	}
	sort.Strings(out)
	return out
}

// Registry enumerates available extensions for a build pass.
type Registry interface {
	// Discover returns the extension set for this pass. Implementations
	// degrade to an empty set rather than failing the pass; a returned
	// error signals a degradation the caller should surface as a warning.
	Discover(ctx context.Context) (Set, error)
}

// StaticRegistry returns an explicitly injected extension set.
type StaticRegistry struct {
	set Set
}

// Static creates a registry returning exactly the given extensions.
func Static(producers []extension.Producer, consumers []extension.Consumer) *StaticRegistry {
	return &StaticRegistry{set: Set{Producers: producers, Consumers: consumers}}
}

// Discover returns the injected set.
func (r *StaticRegistry) Discover(ctx context.Context) (Set, error) {
	return r.set, nil
}

// Ensure the registries implement Registry.
var (
	_ Registry = (*StaticRegistry)(nil)
	_ Registry = (*ManifestRegistry)(nil)
)

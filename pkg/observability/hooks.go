// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard
// dependencies on specific observability backends. Hosts can register hooks
// at startup to receive events about pass execution and index-store traffic.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// This approach:
//   - Avoids import cycles (hooks are registered by main, not by libraries)
//   - Keeps the core library dependency-free from observability frameworks
//   - Allows different backends (OpenTelemetry, Prometheus, DataDog, etc.)
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetPassHooks(&myPassHooks{})
//	    observability.SetIndexHooks(&myIndexHooks{})
//	    // ... run the build step
//	}
//
// The engine calls hooks to emit events:
//
//	observability.Pass().OnProduceStart(ctx, element)
//	// ... produce ...
//	observability.Pass().OnProduceComplete(ctx, element, extras, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Pass Hooks
// =============================================================================

// PassHooks receives events from the producer and consumer orchestrators.
type PassHooks interface {
	// Produce events, one pair per producing element.
	OnProduceStart(ctx context.Context, element string)
	OnProduceComplete(ctx context.Context, element string, extras int, err error)

	// Consume events, one pair per (element, extension) dispatch.
	OnConsumeStart(ctx context.Context, element, extensionKey string)
	OnConsumeComplete(ctx context.Context, element, extensionKey string, metadata int, err error)

	// OnPassComplete records one whole pass: records produced, consumer
	// dispatches, and total duration.
	OnPassComplete(ctx context.Context, produced, dispatches int, duration time.Duration)
}

// =============================================================================
// Index Hooks
// =============================================================================

// IndexHooks receives events from index-store operations.
type IndexHooks interface {
	// OnPut records one persisted record blob.
	OnPut(ctx context.Context, origin string, size int)

	// OnLoad records one completed load, with the number of blobs found.
	OnLoad(ctx context.Context, blobs int)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopPassHooks is a no-op implementation of PassHooks.
type NoopPassHooks struct{}

func (NoopPassHooks) OnProduceStart(context.Context, string)                        {}
func (NoopPassHooks) OnProduceComplete(context.Context, string, int, error)         {}
func (NoopPassHooks) OnConsumeStart(context.Context, string, string)                {}
func (NoopPassHooks) OnConsumeComplete(context.Context, string, string, int, error) {}
func (NoopPassHooks) OnPassComplete(context.Context, int, int, time.Duration)       {}

// NoopIndexHooks is a no-op implementation of IndexHooks.
type NoopIndexHooks struct{}

func (NoopIndexHooks) OnPut(context.Context, string, int) {}
func (NoopIndexHooks) OnLoad(context.Context, int)        {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	passHooks  PassHooks  = NoopPassHooks{}
	indexHooks IndexHooks = NoopIndexHooks{}
	hooksMu    sync.RWMutex
)

// SetPassHooks registers custom pass hooks.
// This should be called once at application startup before any pass runs.
func SetPassHooks(h PassHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		passHooks = h
	}
}

// SetIndexHooks registers custom index hooks.
// This should be called once at application startup before any pass runs.
func SetIndexHooks(h IndexHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		indexHooks = h
	}
}

// Pass returns the registered pass hooks.
func Pass() PassHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return passHooks
}

// Index returns the registered index hooks.
func Index() IndexHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return indexHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	passHooks = NoopPassHooks{}
	indexHooks = NoopIndexHooks{}
}

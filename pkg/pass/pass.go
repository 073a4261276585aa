// Package pass drives one build pass: extension discovery, metadata
// production, record persistence and consumer dispatch.
//
// A pass is single-threaded and synchronous; the host compiler invokes the
// Runner once per compilation and never concurrently. Producers run first,
// building one Record per producing element and handing it to the index
// store. Consumers run second over everything the store can see plus the
// records produced moments earlier in the same pass, so a producer and a
// consumer compiled together exchange metadata without a round trip through
// storage.
//
// Element-level problems (a marked element without a matching extension, a
// blob that fails to decode, an extension returning an error) become
// diagnostics on the configured reporter; Execute itself fails only on
// invalid options or when the store cannot be flushed.
package pass

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/uber/crumb/pkg/diag"
	"github.com/uber/crumb/pkg/errors"
	"github.com/uber/crumb/pkg/extension"
	"github.com/uber/crumb/pkg/index"
	"github.com/uber/crumb/pkg/model"
	"github.com/uber/crumb/pkg/observability"
	"github.com/uber/crumb/pkg/registry"
)

// Runner executes build passes. It is stateless across passes except for the
// injected collaborators; each pass starts from a fresh Discover call.
type Runner struct {
	Registry registry.Registry
	Store    index.Store
	Sources  index.Loader
	Reporter diag.Reporter
	Logger   *log.Logger
}

// NewRunner creates a runner. Nil collaborators fall back to inert defaults:
// an empty static registry, a null store, no extra sources, a discarding
// reporter and the default logger.
func NewRunner(reg registry.Registry, store index.Store, sources index.Loader, reporter diag.Reporter, logger *log.Logger) *Runner {
	if reg == nil {
		reg = registry.Static(nil, nil)
	}
	if store == nil {
		store = index.NewNullStore()
	}
	if reporter == nil {
		reporter = diag.Nop{}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Registry: reg,
		Store:    store,
		Sources:  sources,
		Reporter: reporter,
		Logger:   logger,
	}
}

// Options configures one pass.
type Options struct {
	// Elements is the set of declared elements the host surfaced for this
	// pass.
	Elements []model.DeclaredElement
}

// Validate checks the options. A pass without elements is legal (it simply
// does nothing), but a nil element inside the slice is a host bug worth
// failing fast on.
func (o *Options) Validate() error {
	for i, el := range o.Elements {
		if el == nil {
			return errors.New(errors.ErrCodeInvalidElements, "element %d is nil", i)
		}
	}
	return nil
}

// Result summarizes one executed pass.
type Result struct {
	// PassID uniquely identifies this pass for build-system tracking.
	PassID string

	// Produced holds the records built this pass, in element order.
	Produced []model.Record

	// RecordsSeen is the total number of records visible to consumers:
	// loaded from the build graph plus produced in this pass.
	RecordsSeen int

	// Dispatches counts consumer invocations performed.
	Dispatches int

	// Incremental is the pass-wide incremental classification: the loosest
	// among all active extensions.
	Incremental extension.IncrementalType
}

// Execute runs one complete pass: discover -> produce -> consume.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	start := time.Now()

	set, err := r.Registry.Discover(ctx)
	if err != nil {
		// Discovery failure degrades to an empty extension set: a pass
		// with zero extensions produces and consumes nothing.
		diag.Warnf(r.Reporter, errors.ErrCodeDiscoveryFailed, "",
			"extension discovery failed, continuing with no extensions: %v", errors.UserMessage(err))
		set = registry.Set{}
	}

	result := &Result{
		PassID:      uuid.NewString(),
		Incremental: classify(set),
	}

	produceStart := time.Now()
	result.Produced = r.produce(ctx, opts.Elements, set)
	r.Logger.Info("produced records",
		"records", len(result.Produced),
		"duration", time.Since(produceStart).Round(time.Millisecond))

	consumeStart := time.Now()
	result.RecordsSeen, result.Dispatches = r.consume(ctx, opts.Elements, set, result.Produced)
	r.Logger.Info("dispatched consumers",
		"records", result.RecordsSeen,
		"dispatches", result.Dispatches,
		"duration", time.Since(consumeStart).Round(time.Millisecond))

	observability.Pass().OnPassComplete(ctx, len(result.Produced), result.Dispatches, time.Since(start))
	return result, nil
}

// classify folds the incremental declarations of every active extension into
// the pass-wide classification surfaced to the host build system.
func classify(set registry.Set) extension.IncrementalType {
	types := make([]extension.IncrementalType, 0, len(set.Producers)+len(set.Consumers))
	for _, p := range set.Producers {
		types = append(types, p.ProducerIncrementalType())
	}
	for _, c := range set.Consumers {
		types = append(types, c.ConsumerIncrementalType())
	}
	return extension.Loosest(types...)
}

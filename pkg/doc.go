// Package pkg provides the core libraries for crumb build-metadata exchange.
//
// # Overview
//
// Crumb lets annotation-driven extensions leave small key-value records in
// compiled artifacts and pick them up again in downstream compilations. A
// producer extension publishes metadata for the annotated elements of one
// compilation; the records ride inside the artifact under a reserved
// namespace; a consumer extension in a later compilation reads everything
// visible on its search path. Producer and consumer never reference each
// other.
//
// # Architecture
//
// The typical data flow through one build pass:
//
//	Host element export (annotated classes, interfaces, ...)
//	         ↓
//	    [model] package (elements, annotations, records)
//	         ↓
//	    [pass] package (produce → persist → consume)
//	         ↓
//	    [wire] + [index] packages (encoding, artifact storage)
//
// # Main Packages
//
// [model] - Declared elements, annotations and metadata records exchanged
// between the engine and its host compiler.
//
// [extension] - The producer/consumer extension contracts, with incremental
// classification and optional applicability matchers.
//
// [registry] - Extension discovery: explicit injection for embedding hosts
// and TOML manifest discovery for installed plugins.
//
// [resolve] - Applicability resolution: which extensions run for which
// elements, de-duplicated by extension key.
//
// [pass] - The pass runner orchestrating discovery, production, persistence
// and consumer dispatch for one compilation.
//
// [wire] - The compact tagged binary encoding of records, gzip-framed for
// storage.
//
// [index] - Record storage backends: zip artifacts, directories, memory, a
// shared Redis index, and multi-location search-path reads.
//
// [diag] - Element-level diagnostics reported to the host compiler.
//
// [errors] - Coded errors shared by every package.
//
// [observability] - Process-wide hooks for pass and store instrumentation.
//
// [config] - The optional crumb.toml build-step configuration.
//
// # Quick Start
//
// Run one pass with explicitly injected extensions:
//
//	runner := pass.NewRunner(
//	    registry.Static(producers, consumers),
//	    index.NewArchiveStore("build/libs/app.jar", logger),
//	    index.OpenSearchPath(logger, "deps/lib1.jar", "deps/lib2.jar"),
//	    reporter,
//	    logger,
//	)
//	result, err := runner.Execute(ctx, pass.Options{Elements: elements})
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...                # All tests
//	go test ./pkg/pass/...           # Specific package
//
// [model]: https://pkg.go.dev/github.com/uber/crumb/pkg/model
// [extension]: https://pkg.go.dev/github.com/uber/crumb/pkg/extension
// [registry]: https://pkg.go.dev/github.com/uber/crumb/pkg/registry
// [resolve]: https://pkg.go.dev/github.com/uber/crumb/pkg/resolve
// [pass]: https://pkg.go.dev/github.com/uber/crumb/pkg/pass
// [wire]: https://pkg.go.dev/github.com/uber/crumb/pkg/wire
// [index]: https://pkg.go.dev/github.com/uber/crumb/pkg/index
// [diag]: https://pkg.go.dev/github.com/uber/crumb/pkg/diag
// [errors]: https://pkg.go.dev/github.com/uber/crumb/pkg/errors
// [observability]: https://pkg.go.dev/github.com/uber/crumb/pkg/observability
// [config]: https://pkg.go.dev/github.com/uber/crumb/pkg/config
package pkg

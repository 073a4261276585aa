package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/uber/crumb/pkg/config"
	"github.com/uber/crumb/pkg/diag"
	"github.com/uber/crumb/pkg/index"
	"github.com/uber/crumb/pkg/pass"
	"github.com/uber/crumb/pkg/registry"
)

// processOpts holds the command-line flags for the process command.
type processOpts struct {
	elements   string   // path to the host compiler's element export
	configPath string   // path to crumb.toml
	out        string   // artifact to write records into (discarded if empty)
	search     []string // extra artifacts or directories to read records from
	manifests  string   // extension manifest directory, overrides config
}

// processCommand creates the process command, which runs one complete build
// pass: discover extensions, produce records for the exported elements,
// persist them and dispatch consumers.
func (c *CLI) processCommand() *cobra.Command {
	var opts processOpts

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Run one metadata pass over a host element export",
		Long: `Run one metadata pass: discover extensions, let producers publish records
for the exported elements, persist the records into the output artifact and
dispatch consumers over everything visible.

The element export is the TOML description the host compiler writes for one
compilation. Exit status is nonzero when the pass reports errors.

Examples:
  crumb process --elements elements.toml --out build/libs/app.zip
  crumb process --elements elements.toml --search deps/lib1.zip --search deps/`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runProcess(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.elements, "elements", "", "host element export (TOML)")
	cmd.Flags().StringVar(&opts.configPath, "config", "crumb.toml", "configuration file")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "artifact to write records into (discard if empty)")
	cmd.Flags().StringArrayVar(&opts.search, "search", nil, "extra artifact or directory to read records from (repeatable)")
	cmd.Flags().StringVar(&opts.manifests, "manifests", "", "extension manifest directory (overrides config)")
	_ = cmd.MarkFlagRequired("elements")

	return cmd
}

func (c *CLI) runProcess(cmd *cobra.Command, opts processOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	if cfg.Verbose {
		c.SetLogLevel(LogDebug)
	}

	elements, err := loadElements(opts.elements)
	if err != nil {
		return err
	}
	logger.Debug("loaded element export", "path", opts.elements, "elements", len(elements))

	manifestDir := opts.manifests
	if manifestDir == "" {
		manifestDir = cfg.Discovery.ManifestDir
	}

	store, sources := c.openIndex(cfg, opts)
	bag := diag.NewBag()
	runner := pass.NewRunner(
		registry.NewManifestRegistry(manifestDir, logger),
		store,
		sources,
		diag.Multi{bag, diag.NewLogReporter(logger)},
		logger,
	)

	prog := newProgress(logger)
	result, err := runner.Execute(ctx, pass.Options{Elements: elements})
	if err != nil {
		_ = store.Close()
		return err
	}
	if err := store.Close(); err != nil {
		return fmt.Errorf("flushing records: %w", err)
	}
	prog.done(fmt.Sprintf("Pass %s complete", result.PassID))

	printSuccess("Produced %d records, dispatched %d consumers", len(result.Produced), result.Dispatches)
	printDetail("Records visible: %d", result.RecordsSeen)
	printDetail("Incremental classification: %s", result.Incremental)
	if opts.out != "" && len(result.Produced) > 0 {
		printDetail("Artifact: %s", opts.out)
	}

	if bag.HasErrors() {
		for _, d := range bag.Errors() {
			printError("%s", d.Message)
		}
		return fmt.Errorf("pass finished with %d errors", len(bag.Errors()))
	}
	return nil
}

// openIndex assembles the record store and the read-side sources from config
// and flags. The store receives this pass's records; the sources feed
// consumers everything produced by earlier compilations.
func (c *CLI) openIndex(cfg config.Config, opts processOpts) (index.Store, index.Loader) {
	var store index.Store
	switch {
	case opts.out != "":
		store = index.NewArchiveStore(opts.out, c.Logger)
	case cfg.Index.RedisAddr != "":
		store = index.NewRedisStore(cfg.Index.RedisAddr, cfg.Index.RedisPrefix, c.Logger)
	default:
		store = index.NewNullStore()
	}

	locations := append([]string(nil), opts.search...)
	locations = append(locations, cfg.Index.SearchPaths...)

	sources := []index.Loader{index.OpenSearchPath(c.Logger, locations...)}
	if cfg.Index.RedisAddr != "" && opts.out != "" {
		// Artifact output still reads the shared remote index.
		sources = append(sources, index.NewRedisStore(cfg.Index.RedisAddr, cfg.Index.RedisPrefix, c.Logger))
	}
	return store, index.NewMulti(c.Logger, sources...)
}

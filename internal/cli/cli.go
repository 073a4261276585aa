// Package cli implements the crumb command-line interface.
//
// This package provides commands for running a metadata pass over a host
// compiler's element export, inspecting records stored in build artifacts,
// and listing the extensions available through manifest discovery. The CLI
// is built using cobra and supports verbose logging via the
// charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - process: Run one build pass (produce, persist, consume)
//   - inspect: Decode and print the records found in artifacts
//   - extensions: List discovered extensions and their classifications
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context to allow structured progress tracking.
//
// # Example
//
//	import "github.com/uber/crumb/internal/cli"
//
//	func main() {
//	    c := cli.New(os.Stderr, cli.LogInfo)
//	    if err := c.RootCommand().Execute(); err != nil {
//	        os.Exit(1)
//	    }
//	}
package cli

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/uber/crumb/pkg/buildinfo"
)

// appName is the application name used for config lookup and display.
const appName = "crumb"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: log.NewWithOptions(w, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05.00",
			Level:           level,
		}),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Crumb exchanges build metadata across compilation boundaries",
		Long:         `Crumb lets annotation-driven extensions leave key-value metadata in compiled artifacts and pick it up again in downstream compilations, without the producer and consumer ever referencing each other.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.processCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.extensionsCommand())

	return root
}

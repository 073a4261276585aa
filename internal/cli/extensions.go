package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/uber/crumb/pkg/config"
	"github.com/uber/crumb/pkg/registry"
)

// extensionsCommand creates the extensions command, which lists everything
// manifest discovery can see.
func (c *CLI) extensionsCommand() *cobra.Command {
	var manifests string
	var configPath string

	cmd := &cobra.Command{
		Use:   "extensions",
		Short: "List discovered extensions and their classifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := manifests
			if dir == "" {
				cfg, err := config.Load(configPath)
				if err != nil {
					return err
				}
				dir = cfg.Discovery.ManifestDir
			}

			logger := loggerFromContext(cmd.Context())
			set, err := registry.NewManifestRegistry(dir, logger).Discover(cmd.Context())
			if err != nil {
				return err
			}
			if set.Empty() {
				printInfo("No extensions discovered")
				return nil
			}

			fmt.Println(renderExtensions(set))
			printDetail("%d extensions", len(set.Keys()))
			return nil
		},
	}

	cmd.Flags().StringVar(&manifests, "manifests", "", "extension manifest directory (overrides config)")
	cmd.Flags().StringVar(&configPath, "config", "crumb.toml", "configuration file")

	return cmd
}

// renderExtensions lays the extension set out as a styled table, one row per
// extension role.
func renderExtensions(set registry.Set) string {
	var rows [][]string
	for _, p := range set.Producers {
		rows = append(rows, []string{
			p.Key(), "producer",
			annotationsOrAll(p.SupportedProducerAnnotations()),
			p.ProducerIncrementalType().String(),
		})
	}
	for _, c := range set.Consumers {
		rows = append(rows, []string{
			c.Key(), "consumer",
			annotationsOrAll(c.SupportedConsumerAnnotations()),
			c.ConsumerIncrementalType().String(),
		})
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(StyleDim).
		Headers("Extension", "Role", "Annotations", "Incremental").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleHeader
			}
			if col == 0 {
				return styleKey
			}
			return StyleValue
		}).
		String()
}

func annotationsOrAll(types []string) string {
	if len(types) == 0 {
		return "—"
	}
	return strings.Join(types, ", ")
}

package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/uber/crumb/pkg/index"
	"github.com/uber/crumb/pkg/model"
	"github.com/uber/crumb/pkg/wire"
)

// inspectCommand creates the inspect command, which decodes and prints every
// record found in the given artifacts or directories.
func (c *CLI) inspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <artifact-or-dir>...",
		Short: "Decode and print the records stored in build artifacts",
		Long: `Decode every record stored under the reserved metadata namespace of the
given artifacts or directories and print them as a table.

Examples:
  crumb inspect build/libs/app.jar
  crumb inspect deps/ build/libs/app.jar`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runInspect(cmd, args)
		},
	}
}

func (c *CLI) runInspect(cmd *cobra.Command, locations []string) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	blobs, err := index.OpenSearchPath(logger, locations...).Load(ctx)
	if err != nil {
		return err
	}

	var records []model.Record
	broken := 0
	for _, b := range blobs {
		rec, err := wire.DecodeCompressed(b.Data)
		if err != nil {
			printWarning("cannot decode %s from %s: %v", b.Name, b.Source, err)
			broken++
			continue
		}
		records = append(records, rec)
	}

	if len(records) == 0 {
		printInfo("No records found")
		return nil
	}

	sort.Slice(records, func(i, j int) bool { return records[i].Name < records[j].Name })
	fmt.Println(renderRecords(records))
	printDetail("%d records from %d locations", len(records), len(locations))
	if broken > 0 {
		return fmt.Errorf("%d entries could not be decoded", broken)
	}
	return nil
}

// renderRecords lays the records out as a styled table, one row per
// (record, extension key) pair.
func renderRecords(records []model.Record) string {
	var rows [][]string
	for _, rec := range records {
		for _, extra := range rec.Extras {
			rows = append(rows, []string{rec.Name, extra.Key, formatMetadata(extra.Metadata)})
		}
		if len(rec.Extras) == 0 {
			rows = append(rows, []string{rec.Name, "—", "—"})
		}
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(StyleDim).
		Headers("Record", "Extension", "Metadata").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleHeader
			}
			if col == 1 {
				return styleKey
			}
			return StyleValue
		}).
		String()
}

// formatMetadata renders a metadata map as sorted key=value pairs.
func formatMetadata(m model.Metadata) string {
	if len(m) == 0 {
		return "—"
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = fmt.Sprintf("%s=%s", k, m[k])
	}
	return strings.Join(pairs, " ")
}

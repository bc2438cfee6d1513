package commands

import (
	"encoding/json"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/provgate/internal/cli/output"
	"github.com/leapstack-labs/provgate/pkg/core"
	"github.com/leapstack-labs/provgate/pkg/lineage"
)

// NewLineageCommand creates the lineage command group.
func NewLineageCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lineage",
		Short: "Inspect and verify dataset lineage records",
	}

	cmd.AddCommand(newLineageShowCommand())
	cmd.AddCommand(newLineageVerifyCommand())

	return cmd
}

func newLineageShowCommand() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "show <dataset-id>",
		Short: "Show the recorded lineage for a dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx := NewCommandContext(cmd)

			store, cleanup, err := OpenStore(cmdCtx.Cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			rec, err := store.GetLineage(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("get lineage for %s: %w", args[0], err)
			}

			if cmdCtx.Renderer.EffectiveMode() == output.ModeJSON {
				enc := json.NewEncoder(cmdCtx.Renderer.Writer())
				enc.SetIndent("", "  ")
				return enc.Encode(rec)
			}
			renderLineage(cmdCtx.Renderer, rec)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "", "Output format: text, json")
	return cmd
}

func newLineageVerifyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify <dataset-id>",
		Short: "Verify the hash continuity of a lineage chain",
		Long: `Re-check the stored lineage chain: every step's input hash must equal
the previous step's output hash, timestamps must not regress, and the
record's content hash must match the final step output.

Exits non-zero when the chain is broken.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx := NewCommandContext(cmd)
			styles := cmdCtx.Renderer.Styles()

			store, cleanup, err := OpenStore(cmdCtx.Cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			rec, err := store.GetLineage(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("get lineage for %s: %w", args[0], err)
			}

			if err := lineage.VerifyChain(rec); err != nil {
				cmdCtx.Renderer.Println(styles.Error.Render("✗ lineage chain broken"))
				return fmt.Errorf("verify %s: %w", args[0], err)
			}

			cmdCtx.Renderer.Println(styles.Success.Render(
				fmt.Sprintf("✓ lineage chain intact (%d steps)", len(rec.Pipeline))))
			return nil
		},
	}
	return cmd
}

// renderLineage prints a lineage record as a step table.
func renderLineage(r *output.Renderer, rec *core.LineageRecord) {
	styles := r.Styles()

	r.Println("")
	r.Println(styles.Header1.Render("Lineage: " + rec.DatasetID))
	r.Printf("  %s: %v\n", styles.Bold.Render("Sources"), rec.SourceSystems)
	r.Printf("  %s: %s\n", styles.Bold.Render("Extracted"), rec.ExtractionTimestamp.Format("2006-01-02 15:04:05 MST"))
	r.Printf("  %s: %s\n", styles.Bold.Render("Content hash"), rec.ContentHash)
	r.Println("")

	t := table.NewWriter()
	t.SetOutputMirror(r.Writer())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Step", "Rows", "Cols", "Output Hash"})
	for i, step := range rec.Pipeline {
		t.AppendRow(table.Row{i + 1, step.Name, step.RowCount, step.ColumnCount, shortHash(step.OutputHash)})
	}
	t.Render()
	r.Println("")
}

// shortHash abbreviates a hex digest for table display.
func shortHash(h string) string {
	if len(h) <= 12 {
		return h
	}
	return h[:12] + "…"
}

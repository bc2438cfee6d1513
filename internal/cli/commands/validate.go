package commands

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/provgate/internal/cli/output"
	"github.com/leapstack-labs/provgate/internal/registry"
	"github.com/leapstack-labs/provgate/pkg/core"
)

// ValidateOptions holds options for the validate command.
type ValidateOptions struct {
	Tier   string
	Format string
}

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	opts := &ValidateOptions{}
	cmd := &cobra.Command{
		Use:   "validate <model-id>",
		Short: "Run the compliance gate against a model",
		Long: `Run every compliance rule applicable at the model's risk tier and
print the resulting report. The attempt is recorded in the audit log.

The command exits non-zero when deployment is blocked.`,
		Example: `  # Validate a high-risk model
  provgate validate credit-scorer-v3 --tier high

  # Machine-readable report
  provgate validate credit-scorer-v3 --tier high --format json`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Tier, "tier", "t", "", "Risk tier: unacceptable, high, limited, minimal (default: the model's registered tier)")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: text, json")

	return cmd
}

func runValidate(cmd *cobra.Command, modelID string, opts *ValidateOptions) error {
	cmdCtx := NewCommandContext(cmd)

	store, cleanup, err := OpenStore(cmdCtx.Cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	g, err := NewGate(cmdCtx.Cfg, store, cmdCtx.Logger)
	if err != nil {
		return err
	}

	var tier core.RiskTier
	if opts.Tier != "" {
		var ok bool
		tier, ok = core.ParseRiskTier(opts.Tier)
		if !ok {
			return fmt.Errorf("unknown risk tier %q", opts.Tier)
		}
	} else {
		// Without an explicit tier, validate at the model's registered
		// risk level. Unregistered models validate at high so every
		// applicable check still runs.
		md, err := registry.NewStoreRegistry(store).GetComplianceReport(cmd.Context(), modelID)
		switch {
		case errors.Is(err, core.ErrNotFound):
			tier = core.RiskHigh
		case err != nil:
			return fmt.Errorf("resolve risk tier for %s: %w", modelID, err)
		default:
			tier = md.RiskLevel
		}
	}

	report := g.ValidateDeployment(cmd.Context(), modelID, tier)

	if cmdCtx.Renderer.EffectiveMode() == output.ModeJSON {
		enc := json.NewEncoder(cmdCtx.Renderer.Writer())
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	} else {
		renderReport(cmdCtx.Renderer, report)
	}

	if !report.CanDeploy {
		return fmt.Errorf("deployment blocked: %d of %d checks failed", len(report.Failures), report.ChecksRun)
	}
	return nil
}

// renderReport prints a compliance report as a styled table plus verdict.
func renderReport(r *output.Renderer, report *core.ComplianceReport) {
	styles := r.Styles()

	r.Println("")
	r.Println(styles.Header1.Render(fmt.Sprintf("Compliance Report: %s (%s risk)", report.ModelID, report.RiskTier)))
	r.Println("")

	if report.ChecksRun == 0 {
		r.Println(styles.Muted.Render("  No checks apply at this risk tier."))
	} else {
		t := table.NewWriter()
		t.SetOutputMirror(r.Writer())
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"Rule", "Status", "Message"})

		appendResults := func(results []core.CheckResult, status string) {
			for _, res := range results {
				t.AppendRow(table.Row{res.RuleID, status, res.Message})
			}
		}
		appendResults(report.Passed, "PASS")
		appendResults(report.Warnings, "WARN")
		appendResults(report.Failures, "FAIL")
		t.Render()
	}

	r.Println("")
	if report.CanDeploy {
		r.Println(styles.Success.Render("✓ Deployment approved"))
	} else {
		r.Println(styles.Error.Render(fmt.Sprintf("✗ Deployment blocked (%d failures)", len(report.Failures))))
	}
	r.Printf("  %d checks run, %d passed, %d warnings\n\n",
		report.ChecksRun, len(report.Passed), len(report.Warnings))
}

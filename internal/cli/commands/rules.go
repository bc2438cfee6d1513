package commands

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/provgate/internal/cli/output"
	"github.com/leapstack-labs/provgate/pkg/core"
	"github.com/leapstack-labs/provgate/pkg/gate"
)

// RulesOptions holds options for the rules command.
type RulesOptions struct {
	Tier   string // Filter by risk tier
	Format string // Output format
}

// NewRulesCommand creates the rules command.
func NewRulesCommand() *cobra.Command {
	opts := &RulesOptions{}
	cmd := &cobra.Command{
		Use:   "rules [rule-id]",
		Short: "List the compliance rule catalog",
		Long: `List the registered compliance rules in catalog order, with the risk
tiers they apply to and whether failure blocks deployment.`,
		Example: `  # List all rules
  provgate rules

  # Rules that apply to limited-risk models
  provgate rules --tier limited

  # Show one rule
  provgate rules bias_assessment_passed

  # Output as JSON
  provgate rules --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return showRule(cmd, args[0], opts)
			}
			return listRules(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Tier, "tier", "t", "", "Filter by risk tier")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: text, json")

	return cmd
}

func catalogRules(opts *RulesOptions) ([]gate.RuleDef, error) {
	if opts.Tier == "" {
		return gate.Rules(), nil
	}
	tier, ok := core.ParseRiskTier(opts.Tier)
	if !ok {
		return nil, fmt.Errorf("unknown risk tier %q", opts.Tier)
	}
	return gate.RulesForTier(tier), nil
}

func listRules(cmd *cobra.Command, opts *RulesOptions) error {
	cmdCtx := NewCommandContext(cmd)
	r := cmdCtx.Renderer

	rules, err := catalogRules(opts)
	if err != nil {
		return err
	}

	if r.EffectiveMode() == output.ModeJSON {
		infos := make([]gate.RuleInfo, 0, len(rules))
		for _, rule := range rules {
			infos = append(infos, rule.Info())
		}
		enc := json.NewEncoder(r.Writer())
		enc.SetIndent("", "  ")
		return enc.Encode(infos)
	}

	styles := r.Styles()
	r.Println("")
	r.Println(styles.Header1.Render(fmt.Sprintf("Compliance Rules (%d)", len(rules))))
	r.Println("")

	t := table.NewWriter()
	t.SetOutputMirror(r.Writer())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Rule", "Tiers", "Blocking", "Description"})
	for _, rule := range rules {
		info := rule.Info()
		t.AppendRow(table.Row{info.ID, strings.Join(info.Tiers, ", "), info.Blocking, info.Description})
	}
	t.Render()

	r.Println("")
	r.Println(styles.Muted.Render("Use 'provgate rules <rule-id>' for a single rule"))
	r.Println("")
	return nil
}

func showRule(cmd *cobra.Command, ruleID string, opts *RulesOptions) error {
	cmdCtx := NewCommandContext(cmd)
	r := cmdCtx.Renderer

	rule, ok := gate.RuleByID(ruleID)
	if !ok {
		return fmt.Errorf("rule %q not found", ruleID)
	}
	info := rule.Info()

	if r.EffectiveMode() == output.ModeJSON {
		enc := json.NewEncoder(r.Writer())
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}

	styles := r.Styles()
	r.Println("")
	r.Println(styles.Header1.Render(info.ID))
	r.Println("")
	r.Printf("  %s: %s\n", styles.Bold.Render("Description"), info.Description)
	r.Printf("  %s: %s\n", styles.Bold.Render("Tiers"), strings.Join(info.Tiers, ", "))
	r.Printf("  %s: %v\n", styles.Bold.Render("Blocking"), info.Blocking)
	r.Println("")
	return nil
}

package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/provgate/internal/cli/output"
	"github.com/leapstack-labs/provgate/internal/registry"
	"github.com/leapstack-labs/provgate/pkg/core"
)

// NewModelCommand creates the model command group.
func NewModelCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "model",
		Short: "Manage registered model metadata",
	}

	cmd.AddCommand(newModelRegisterCommand())
	cmd.AddCommand(newModelAuditCommand())

	return cmd
}

// modelManifest is the YAML document accepted by `model register`.
type modelManifest struct {
	ModelID               string `yaml:"model_id"`
	RiskLevel             string `yaml:"risk_level"`
	DataLineageID         string `yaml:"data_lineage_id"`
	ModelCardID           string `yaml:"model_card_id"`
	HumanOversightEnabled bool   `yaml:"human_oversight_enabled"`
	SecurityAssessmentID  string `yaml:"security_assessment_id"`

	BiasAssessment map[string]struct {
		DemographicParityDifference float64 `yaml:"demographic_parity_difference"`
		DisparateImpact             float64 `yaml:"disparate_impact"`
	} `yaml:"bias_assessment"`

	OversightMeasures []string `yaml:"oversight_measures"`

	AccuracyMetrics struct {
		Accuracy float64 `yaml:"accuracy"`
		F1Score  float64 `yaml:"f1_score"`
	} `yaml:"accuracy_metrics"`
}

func (m *modelManifest) toMetadata() (*core.ModelMetadata, error) {
	if m.ModelID == "" {
		return nil, fmt.Errorf("model_id is required")
	}
	tier, ok := core.ParseRiskTier(m.RiskLevel)
	if !ok {
		return nil, fmt.Errorf("unknown risk_level %q", m.RiskLevel)
	}

	md := &core.ModelMetadata{
		ModelID:               m.ModelID,
		DataLineageID:         m.DataLineageID,
		ModelCardID:           m.ModelCardID,
		HumanOversightEnabled: m.HumanOversightEnabled,
		SecurityAssessmentID:  m.SecurityAssessmentID,
		RiskLevel:             tier,
	}
	md.Full.OversightMeasures = m.OversightMeasures
	md.Full.AccuracyMetrics = core.AccuracyMetrics{
		Accuracy: m.AccuracyMetrics.Accuracy,
		F1Score:  m.AccuracyMetrics.F1Score,
	}
	if len(m.BiasAssessment) > 0 {
		md.Full.BiasAssessment = make(map[string]core.BiasMetrics, len(m.BiasAssessment))
		for attr, b := range m.BiasAssessment {
			md.Full.BiasAssessment[attr] = core.BiasMetrics{
				DemographicParity: b.DemographicParityDifference,
				DisparateImpact:   b.DisparateImpact,
			}
		}
	}
	return md, nil
}

func newModelRegisterCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register <manifest.yaml>",
		Short: "Register model metadata from a YAML manifest",
		Long: `Register (or replace) a model's compliance metadata in the governance
store. The manifest carries the identifiers and precomputed metrics the
rule catalog evaluates: lineage and model card references, oversight
configuration, bias and accuracy metrics.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx := NewCommandContext(cmd)

			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read manifest: %w", err)
			}

			var manifest modelManifest
			if err := yaml.Unmarshal(raw, &manifest); err != nil {
				return fmt.Errorf("parse manifest %s: %w", args[0], err)
			}
			md, err := manifest.toMetadata()
			if err != nil {
				return fmt.Errorf("invalid manifest %s: %w", args[0], err)
			}

			store, cleanup, err := OpenStore(cmdCtx.Cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			reg := registry.NewStoreRegistry(store)
			if err := reg.Register(cmd.Context(), md); err != nil {
				return fmt.Errorf("register model %s: %w", md.ModelID, err)
			}

			styles := cmdCtx.Renderer.Styles()
			cmdCtx.Renderer.Println(styles.Success.Render(
				fmt.Sprintf("✓ registered %s (%s risk)", md.ModelID, md.RiskLevel)))
			return nil
		},
	}
	return cmd
}

func newModelAuditCommand() *cobra.Command {
	var limit int
	var format string
	cmd := &cobra.Command{
		Use:   "audit <model-id>",
		Short: "List validation attempts recorded for a model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx := NewCommandContext(cmd)

			store, cleanup, err := OpenStore(cmdCtx.Cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			entries, err := store.ListAuditEntries(cmd.Context(), args[0], limit)
			if err != nil {
				return fmt.Errorf("list audit entries: %w", err)
			}

			if cmdCtx.Renderer.EffectiveMode() == output.ModeJSON {
				enc := json.NewEncoder(cmdCtx.Renderer.Writer())
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmdCtx.Renderer.Writer())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"When", "Event", "Deploy", "Checks", "Failures"})
			for _, e := range entries {
				t.AppendRow(table.Row{
					e.Timestamp.Format("2006-01-02 15:04:05"),
					e.EventType,
					strconv.FormatBool(e.CanDeploy),
					e.ChecksRun,
					e.FailureCount,
				})
			}
			t.Render()
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum entries to show (0 for all)")
	cmd.Flags().StringVarP(&format, "format", "f", "", "Output format: text, json")
	return cmd
}

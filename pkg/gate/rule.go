// Package gate implements the pre-deployment compliance gate: a data-driven
// catalog of compliance rules evaluated against a model's metadata to
// produce a pass/fail deployment decision.
//
// Rules are stateless definitions registered from pkg/gate/rules via init(),
// keeping the evaluator control flow independent of the catalog contents.
package gate

import (
	"context"
	"time"

	"github.com/leapstack-labs/provgate/pkg/core"
)

// Outcome is the result of a single rule evaluation.
type Outcome struct {
	Passed  bool
	Message string
}

// Pass returns a passing outcome with the given message.
func Pass(message string) Outcome { return Outcome{Passed: true, Message: message} }

// Fail returns a failing outcome with the given message.
func Fail(message string) Outcome { return Outcome{Passed: false, Message: message} }

// EvalContext carries the collaborators and configuration a rule evaluates
// against. Rules have no side effects on each other.
type EvalContext struct {
	ModelID string
	Tier    core.RiskTier

	Store    core.Store
	Registry core.ModelRegistry
	Config   Config

	// Now is the evaluation timestamp, fixed once per ValidateDeployment
	// so age checks inside one report agree with each other.
	Now time.Time
}

// Metadata fetches the model's registry document, translating a missing
// model into a descriptive error. Most rules start here.
func (ec *EvalContext) Metadata(ctx context.Context) (*core.ModelMetadata, error) {
	md, err := ec.Registry.GetComplianceReport(ctx, ec.ModelID)
	if err != nil {
		return nil, err
	}
	return md, nil
}

// CheckFunc evaluates one rule. A returned error means the rule could not
// be evaluated (collaborator I/O failure); the gate converts it into a
// blocking failure rather than propagating it.
type CheckFunc func(ctx context.Context, ec *EvalContext) (Outcome, error)

// RuleDef is a data-driven compliance rule definition. The catalog can be
// extended, tested, or reordered without touching evaluator control flow.
type RuleDef struct {
	ID          string          // Unique identifier, e.g. "bias_assessment_passed"
	Description string          // Human-readable description
	Tiers       []core.RiskTier // Risk tiers this rule applies to
	Blocking    bool            // Whether failure prevents deployment
	Check       CheckFunc       // The evaluation function
}

// AppliesTo reports whether the rule applies at the given tier.
func (r RuleDef) AppliesTo(tier core.RiskTier) bool {
	for _, t := range r.Tiers {
		if t == tier {
			return true
		}
	}
	return false
}

// Info returns the rule's metadata for documentation and tooling.
func (r RuleDef) Info() RuleInfo {
	tiers := make([]string, 0, len(r.Tiers))
	for _, t := range r.Tiers {
		tiers = append(tiers, t.String())
	}
	return RuleInfo{
		ID:          r.ID,
		Description: r.Description,
		Tiers:       tiers,
		Blocking:    r.Blocking,
	}
}

// RuleInfo is a DTO describing one catalog entry.
type RuleInfo struct {
	ID          string   `json:"id"`
	Description string   `json:"description"`
	Tiers       []string `json:"tiers"`
	Blocking    bool     `json:"blocking"`
}

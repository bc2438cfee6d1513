package rules

import (
	"context"
	"errors"
	"fmt"

	"github.com/leapstack-labs/provgate/pkg/core"
	"github.com/leapstack-labs/provgate/pkg/gate"
)

// RiskAssessmentComplete requires a completed, recent risk assessment.
// High-risk models have a tighter recency limit than limited-risk ones.
var RiskAssessmentComplete = gate.RuleDef{
	ID:          "risk_assessment_complete",
	Description: "Valid risk assessment must exist and be recent",
	Tiers:       []core.RiskTier{core.RiskHigh, core.RiskLimited},
	Blocking:    true,
	Check:       checkRiskAssessment,
}

func checkRiskAssessment(ctx context.Context, ec *gate.EvalContext) (gate.Outcome, error) {
	assessment, err := ec.Store.GetRiskAssessment(ctx, ec.ModelID)
	if errors.Is(err, core.ErrNotFound) {
		return gate.Fail("no risk assessment found"), nil
	}
	if err != nil {
		return gate.Outcome{}, fmt.Errorf("query risk assessment: %w", err)
	}

	maxAgeDays := ec.Config.MaxRiskAssessmentAgeDays
	if ec.Tier != core.RiskHigh {
		maxAgeDays = ec.Config.MaxRiskAssessmentAgeLimitedDays
	}

	ageDays := int(ec.Now.Sub(assessment.CompletedAt).Hours() / 24)
	if ageDays > maxAgeDays {
		return gate.Fail(fmt.Sprintf("assessment %d days old (max: %d)", ageDays, maxAgeDays)), nil
	}
	if !assessment.Complete {
		return gate.Fail("assessment marked as incomplete"), nil
	}

	return gate.Pass(fmt.Sprintf("valid assessment (age: %d days)", ageDays)), nil
}

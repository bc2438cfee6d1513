package rules

import (
	"context"
	"errors"
	"fmt"

	"github.com/leapstack-labs/provgate/pkg/core"
	"github.com/leapstack-labs/provgate/pkg/gate"
)

// SecurityScanPassed requires a recent security assessment. Non-blocking:
// a missing or stale scan surfaces as a warning, not a deployment refusal.
var SecurityScanPassed = gate.RuleDef{
	ID:          "security_scan_passed",
	Description: "Security vulnerability scan completed",
	Tiers:       []core.RiskTier{core.RiskHigh},
	Blocking:    false,
	Check:       checkSecurity,
}

func checkSecurity(ctx context.Context, ec *gate.EvalContext) (gate.Outcome, error) {
	md, err := ec.Metadata(ctx)
	if errors.Is(err, core.ErrNotFound) {
		return gate.Fail(fmt.Sprintf("model %s not found in registry", ec.ModelID)), nil
	}
	if err != nil {
		return gate.Outcome{}, fmt.Errorf("retrieve model metadata: %w", err)
	}

	if md.SecurityAssessmentID == "" {
		return gate.Fail("no security assessment performed"), nil
	}

	assessment, err := ec.Store.GetSecurityAssessment(ctx, md.SecurityAssessmentID)
	if errors.Is(err, core.ErrNotFound) {
		return gate.Fail(fmt.Sprintf("security assessment %s not found", md.SecurityAssessmentID)), nil
	}
	if err != nil {
		return gate.Outcome{}, fmt.Errorf("query security assessment: %w", err)
	}

	ageDays := int(ec.Now.Sub(assessment.CompletedAt).Hours() / 24)
	if ageDays > ec.Config.MaxSecurityAssessmentAgeDays {
		return gate.Fail(fmt.Sprintf("security assessment %d days old (max: %d)", ageDays, ec.Config.MaxSecurityAssessmentAgeDays)), nil
	}

	return gate.Pass(fmt.Sprintf("security assessment completed %d days ago", ageDays)), nil
}

package rules

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/leapstack-labs/provgate/pkg/core"
	"github.com/leapstack-labs/provgate/pkg/gate"
)

// BiasAssessmentPassed checks precomputed fairness metrics against the
// configured threshold for every protected attribute. The gate consumes
// these metrics; it does not compute them.
var BiasAssessmentPassed = gate.RuleDef{
	ID:          "bias_assessment_passed",
	Description: "Bias metrics within acceptable thresholds",
	Tiers:       []core.RiskTier{core.RiskHigh},
	Blocking:    true,
	Check:       checkBiasThresholds,
}

func checkBiasThresholds(ctx context.Context, ec *gate.EvalContext) (gate.Outcome, error) {
	md, err := ec.Metadata(ctx)
	if errors.Is(err, core.ErrNotFound) {
		return gate.Fail(fmt.Sprintf("model %s not found in registry", ec.ModelID)), nil
	}
	if err != nil {
		return gate.Outcome{}, fmt.Errorf("retrieve model metadata: %w", err)
	}

	bias := md.Full.BiasAssessment
	if len(bias) == 0 {
		return gate.Fail("no bias assessment results found"), nil
	}

	// Sorted so failure messages are stable across runs.
	attrs := make([]string, 0, len(bias))
	for attr := range bias {
		attrs = append(attrs, attr)
	}
	sort.Strings(attrs)

	var failed []string
	for _, attr := range attrs {
		parity := bias[attr].ParityMetric()
		if parity > ec.Config.BiasThreshold {
			failed = append(failed, fmt.Sprintf("%s: %.2f (threshold: %.2f)", attr, parity, ec.Config.BiasThreshold))
		}
	}

	if len(failed) > 0 {
		return gate.Fail("bias thresholds exceeded for: " + strings.Join(failed, ", ")), nil
	}
	return gate.Pass(fmt.Sprintf("bias check passed for %d attributes", len(bias))), nil
}

package rules

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/leapstack-labs/provgate/pkg/core"
	"github.com/leapstack-labs/provgate/pkg/gate"
)

// PerformanceMeetsThreshold checks accuracy and F1 against tier-specific
// configurable minimums.
var PerformanceMeetsThreshold = gate.RuleDef{
	ID:          "performance_meets_threshold",
	Description: "Model accuracy meets minimum standards",
	Tiers:       []core.RiskTier{core.RiskHigh, core.RiskLimited},
	Blocking:    true,
	Check:       checkPerformance,
}

func checkPerformance(ctx context.Context, ec *gate.EvalContext) (gate.Outcome, error) {
	md, err := ec.Metadata(ctx)
	if errors.Is(err, core.ErrNotFound) {
		return gate.Fail(fmt.Sprintf("model %s not found in registry", ec.ModelID)), nil
	}
	if err != nil {
		return gate.Outcome{}, fmt.Errorf("retrieve model metadata: %w", err)
	}

	metrics := md.Full.AccuracyMetrics
	if metrics.Accuracy == 0 && metrics.F1Score == 0 {
		return gate.Fail("no performance metrics"), nil
	}

	minAccuracy := ec.Config.MinAccuracyLimitedRisk
	minF1 := ec.Config.MinF1LimitedRisk
	if ec.Tier == core.RiskHigh {
		minAccuracy = ec.Config.MinAccuracyHighRisk
		minF1 = ec.Config.MinF1HighRisk
	}

	var issues []string
	if metrics.Accuracy < minAccuracy {
		issues = append(issues, fmt.Sprintf("accuracy %.2f below %.2f", metrics.Accuracy, minAccuracy))
	}
	if metrics.F1Score < minF1 {
		issues = append(issues, fmt.Sprintf("F1 score %.2f below %.2f", metrics.F1Score, minF1))
	}

	if len(issues) > 0 {
		return gate.Fail(strings.Join(issues, "; ")), nil
	}
	return gate.Pass(fmt.Sprintf("performance passed (accuracy: %.2f, F1: %.2f)", metrics.Accuracy, metrics.F1Score)), nil
}

package rules

import (
	"context"
	"errors"
	"fmt"

	"github.com/leapstack-labs/provgate/pkg/core"
	"github.com/leapstack-labs/provgate/pkg/gate"
)

// HumanOversightConfigured requires the oversight flag plus at least one
// documented oversight measure.
var HumanOversightConfigured = gate.RuleDef{
	ID:          "human_oversight_configured",
	Description: "Human oversight measures configured",
	Tiers:       []core.RiskTier{core.RiskHigh},
	Blocking:    true,
	Check:       checkOversight,
}

func checkOversight(ctx context.Context, ec *gate.EvalContext) (gate.Outcome, error) {
	md, err := ec.Metadata(ctx)
	if errors.Is(err, core.ErrNotFound) {
		return gate.Fail(fmt.Sprintf("model %s not found in registry", ec.ModelID)), nil
	}
	if err != nil {
		return gate.Outcome{}, fmt.Errorf("retrieve model metadata: %w", err)
	}

	if !md.HumanOversightEnabled {
		return gate.Fail("human oversight not enabled"), nil
	}
	measures := md.Full.OversightMeasures
	if len(measures) == 0 {
		return gate.Fail("no oversight measures documented"), nil
	}
	return gate.Pass(fmt.Sprintf("oversight configured with %d measures", len(measures))), nil
}

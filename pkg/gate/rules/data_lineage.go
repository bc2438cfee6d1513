package rules

import (
	"context"
	"errors"
	"fmt"

	"github.com/leapstack-labs/provgate/pkg/core"
	"github.com/leapstack-labs/provgate/pkg/gate"
)

// DataLineageVerified requires that the model's linked lineage record
// exists, has at least one recorded step, and that every step carries the
// fields the integrity check depends on.
var DataLineageVerified = gate.RuleDef{
	ID:          "data_lineage_verified",
	Description: "Complete data lineage from source to model",
	Tiers:       []core.RiskTier{core.RiskHigh},
	Blocking:    true,
	Check:       checkDataLineage,
}

func checkDataLineage(ctx context.Context, ec *gate.EvalContext) (gate.Outcome, error) {
	md, err := ec.Metadata(ctx)
	if errors.Is(err, core.ErrNotFound) {
		return gate.Fail(fmt.Sprintf("model %s not found in registry", ec.ModelID)), nil
	}
	if err != nil {
		return gate.Outcome{}, fmt.Errorf("retrieve model metadata: %w", err)
	}

	if md.DataLineageID == "" {
		return gate.Fail("no data lineage id"), nil
	}

	rec, err := ec.Store.GetLineage(ctx, md.DataLineageID)
	if errors.Is(err, core.ErrNotFound) {
		return gate.Fail(fmt.Sprintf("lineage %s not found", md.DataLineageID)), nil
	}
	if err != nil {
		return gate.Outcome{}, fmt.Errorf("query lineage: %w", err)
	}

	if len(rec.Pipeline) == 0 {
		return gate.Fail("no transformation steps recorded"), nil
	}

	for i, step := range rec.Pipeline {
		var missing []string
		if step.Name == "" {
			missing = append(missing, "name")
		}
		if step.Timestamp.IsZero() {
			missing = append(missing, "timestamp")
		}
		// The extraction step's input hash is legitimately empty.
		if i > 0 && step.InputHash == "" {
			missing = append(missing, "input_hash")
		}
		if step.OutputHash == "" {
			missing = append(missing, "output_hash")
		}
		if len(missing) > 0 {
			return gate.Fail(fmt.Sprintf("step %d missing fields: %v", i, missing)), nil
		}
	}

	return gate.Pass(fmt.Sprintf("complete lineage with %d steps", len(rec.Pipeline))), nil
}

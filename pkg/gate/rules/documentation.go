package rules

import (
	"context"
	"errors"
	"fmt"

	"github.com/leapstack-labs/provgate/pkg/core"
	"github.com/leapstack-labs/provgate/pkg/gate"
)

// TechnicalDocumentationComplete requires a model card to be on file.
var TechnicalDocumentationComplete = gate.RuleDef{
	ID:          "technical_documentation_complete",
	Description: "Model card and technical docs complete",
	Tiers:       []core.RiskTier{core.RiskHigh, core.RiskLimited},
	Blocking:    true,
	Check:       checkDocumentation,
}

func checkDocumentation(ctx context.Context, ec *gate.EvalContext) (gate.Outcome, error) {
	md, err := ec.Metadata(ctx)
	if errors.Is(err, core.ErrNotFound) {
		return gate.Fail(fmt.Sprintf("model %s not found in registry", ec.ModelID)), nil
	}
	if err != nil {
		return gate.Outcome{}, fmt.Errorf("retrieve model metadata: %w", err)
	}

	if md.ModelCardID == "" {
		return gate.Fail("no model card"), nil
	}
	return gate.Pass("documentation complete"), nil
}

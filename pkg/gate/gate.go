package gate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/leapstack-labs/provgate/pkg/core"
)

// Gate runs the applicable subset of the rule catalog against a model and
// produces a deployment decision. Its external contract is "always returns
// a report": per-rule evaluation errors become blocking failures, never
// propagated errors.
type Gate struct {
	store    core.Store
	registry core.ModelRegistry
	cfg      Config
	rules    []RuleDef
	logger   *slog.Logger
	now      func() time.Time
}

// New constructs a gate. Missing collaborators and invalid thresholds fail
// here, not at evaluation time.
func New(store core.Store, registry core.ModelRegistry, cfg Config, logger *slog.Logger) (*Gate, error) {
	if store == nil {
		return nil, errors.New("gate: store is required")
	}
	if registry == nil {
		return nil, errors.New("gate: model registry is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Gate{
		store:    store,
		registry: registry,
		cfg:      cfg,
		rules:    Rules(),
		logger:   logger,
		now:      time.Now,
	}, nil
}

// WithClock overrides the gate's time source. Used in tests.
func (g *Gate) WithClock(now func() time.Time) *Gate {
	g.now = now
	return g
}

// ValidateDeployment runs every catalog rule applicable at the given tier,
// in catalog order, and returns the full compliance picture. The report is
// persisted to the audit log regardless of outcome; an audit write failure
// is logged but does not suppress the report.
func (g *Gate) ValidateDeployment(ctx context.Context, modelID string, tier core.RiskTier) *core.ComplianceReport {
	now := g.now().UTC()

	report := &core.ComplianceReport{
		ModelID:   modelID,
		RiskTier:  tier,
		Passed:    []core.CheckResult{},
		Warnings:  []core.CheckResult{},
		Failures:  []core.CheckResult{},
		Timestamp: now,
	}

	ec := &EvalContext{
		ModelID:  modelID,
		Tier:     tier,
		Store:    g.store,
		Registry: g.registry,
		Config:   g.cfg,
		Now:      now,
	}

	for _, rule := range g.rules {
		if !rule.AppliesTo(tier) {
			continue
		}
		report.ChecksRun++

		result := core.CheckResult{
			RuleID:      rule.ID,
			Description: rule.Description,
			Blocking:    rule.Blocking,
		}

		outcome, err := g.evaluate(ctx, rule, ec)
		if err != nil {
			// A rule that cannot be evaluated blocks deployment whatever
			// its declared blocking flag.
			result.Passed = false
			result.Message = fmt.Sprintf("check failed: %v", err)
			result.Blocking = true
			report.Failures = append(report.Failures, result)
			g.logger.Warn("rule evaluation error",
				slog.String("rule", rule.ID),
				slog.String("model", modelID),
				slog.Any("error", err))
			continue
		}

		result.Passed = outcome.Passed
		result.Message = outcome.Message

		switch {
		case outcome.Passed:
			report.Passed = append(report.Passed, result)
		case rule.Blocking:
			report.Failures = append(report.Failures, result)
		default:
			report.Warnings = append(report.Warnings, result)
		}
	}

	report.CanDeploy = len(report.Failures) == 0

	g.audit(ctx, report)

	g.logger.Info("deployment validated",
		slog.String("model", modelID),
		slog.String("tier", tier.String()),
		slog.Bool("can_deploy", report.CanDeploy),
		slog.Int("checks_run", report.ChecksRun),
		slog.Int("failures", len(report.Failures)))

	return report
}

// evaluate runs one rule, containing panics as evaluation errors so a
// misbehaving rule cannot take down the gate.
func (g *Gate) evaluate(ctx context.Context, rule RuleDef, ec *EvalContext) (outcome Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("rule %s panicked: %v", rule.ID, r)
		}
	}()
	return rule.Check(ctx, ec)
}

// audit persists the validation attempt to the audit log.
func (g *Gate) audit(ctx context.Context, report *core.ComplianceReport) {
	serialized, err := json.Marshal(report)
	if err != nil {
		g.logger.Error("serialize compliance report", slog.Any("error", err))
		return
	}

	entry := &core.AuditEntry{
		ID:           uuid.NewString(),
		EventType:    core.EventComplianceValidation,
		ModelID:      report.ModelID,
		CanDeploy:    report.CanDeploy,
		ChecksRun:    report.ChecksRun,
		FailureCount: len(report.Failures),
		FullReport:   string(serialized),
		Timestamp:    report.Timestamp,
	}

	if err := g.store.InsertAuditEntry(ctx, entry); err != nil {
		g.logger.Error("persist audit entry",
			slog.String("model", report.ModelID),
			slog.Any("error", err))
	}
}

// ErrDeploymentBlocked is returned by Deploy when the gate refuses a model.
var ErrDeploymentBlocked = errors.New("deployment blocked by compliance gate")

// Deploy validates and, when compliant, hands off to the provided deploy
// function. On refusal it returns ErrDeploymentBlocked wrapped with the
// failing rule ids, alongside the report for inspection.
func (g *Gate) Deploy(ctx context.Context, modelID string, tier core.RiskTier, deploy func(ctx context.Context) error) (*core.ComplianceReport, error) {
	report := g.ValidateDeployment(ctx, modelID, tier)
	if !report.CanDeploy {
		return report, fmt.Errorf("%w: model %s failed %d checks: %v",
			ErrDeploymentBlocked, modelID, len(report.Failures), report.FailedRuleIDs())
	}
	if deploy != nil {
		if err := deploy(ctx); err != nil {
			return report, fmt.Errorf("deploy %s: %w", modelID, err)
		}
	}
	return report, nil
}

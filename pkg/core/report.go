package core

import "time"

// =============================================================================
// Compliance Reporting
// =============================================================================

// CheckResult is the recorded outcome of one compliance rule evaluation.
type CheckResult struct {
	RuleID      string `json:"rule_id"`
	Description string `json:"description"`
	Passed      bool   `json:"passed"`
	Message     string `json:"message"`
	Blocking    bool   `json:"blocking"`
}

// ComplianceReport is the write-once audit artifact produced by a deployment
// validation. It reflects the status of every applicable rule, not just the
// first failure.
type ComplianceReport struct {
	ModelID   string        `json:"model_id"`
	RiskTier  RiskTier      `json:"risk_tier"`
	CanDeploy bool          `json:"can_deploy"`
	ChecksRun int           `json:"checks_run"`
	Passed    []CheckResult `json:"passed"`
	Warnings  []CheckResult `json:"warnings"`
	Failures  []CheckResult `json:"failures"`
	Timestamp time.Time     `json:"timestamp"`
}

// FailedRuleIDs returns the rule ids of all blocking failures, in catalog
// order. Used by deployment wrappers to surface why a model was refused.
func (r *ComplianceReport) FailedRuleIDs() []string {
	ids := make([]string, 0, len(r.Failures))
	for _, f := range r.Failures {
		ids = append(ids, f.RuleID)
	}
	return ids
}

// AuditEntry summarizes one validation attempt for the audit log.
// It is persisted unconditionally, whatever the outcome.
type AuditEntry struct {
	ID           string    `json:"id"`
	EventType    string    `json:"event_type"`
	ModelID      string    `json:"model_id"`
	CanDeploy    bool      `json:"can_deploy"`
	ChecksRun    int       `json:"checks_run"`
	FailureCount int       `json:"failure_count"`
	FullReport   string    `json:"full_report"` // Serialized ComplianceReport
	Timestamp    time.Time `json:"timestamp"`
}

// EventComplianceValidation is the audit event type recorded by the gate.
const EventComplianceValidation = "compliance_gate_validation"

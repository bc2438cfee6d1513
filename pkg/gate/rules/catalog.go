package rules

import "github.com/leapstack-labs/provgate/pkg/gate"

// The catalog is registered in one place so its order is explicit.
// Order determines report ordering and nothing else; rules are independent.
func init() {
	gate.Register(RiskAssessmentComplete)
	gate.Register(DataLineageVerified)
	gate.Register(BiasAssessmentPassed)
	gate.Register(TechnicalDocumentationComplete)
	gate.Register(HumanOversightConfigured)
	gate.Register(PerformanceMeetsThreshold)
	gate.Register(SecurityScanPassed)
}

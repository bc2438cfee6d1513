package core

import "strings"

// =============================================================================
// Risk Tier
// =============================================================================

// RiskTier is the regulatory risk classification of a model. It determines
// which compliance rules apply at deployment time. Tiers form a closed set,
// not an ordinal scale; never compare them numerically.
type RiskTier string

// Risk tier classifications.
const (
	// RiskUnacceptable models must be rejected before they ever reach
	// deployment gating; the gate runs no checks for them.
	RiskUnacceptable RiskTier = "unacceptable"
	// RiskHigh models are subject to the full rule catalog.
	RiskHigh RiskTier = "high"
	// RiskLimited models are subject to a reduced rule set.
	RiskLimited RiskTier = "limited"
	// RiskMinimal models pass trivially with zero checks.
	RiskMinimal RiskTier = "minimal"
)

// String returns the string representation of the tier.
func (r RiskTier) String() string { return string(r) }

// Valid reports whether r is one of the known tiers.
func (r RiskTier) Valid() bool {
	switch r {
	case RiskUnacceptable, RiskHigh, RiskLimited, RiskMinimal:
		return true
	default:
		return false
	}
}

// ParseRiskTier converts a string to a RiskTier value.
// Returns the tier and true if valid, or RiskMinimal and false if invalid.
func ParseRiskTier(s string) (RiskTier, bool) {
	tier := RiskTier(strings.ToLower(strings.TrimSpace(s)))
	if tier.Valid() {
		return tier, true
	}
	return RiskMinimal, false
}

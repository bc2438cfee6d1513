package gate

import "fmt"

// Config consolidates every gate threshold in one validated value object,
// constructed once at gate construction. Zero values are not meaningful;
// start from DefaultConfig and override.
type Config struct {
	// BiasThreshold is the maximum acceptable parity metric per protected
	// attribute (demographic parity difference or disparate impact).
	BiasThreshold float64 `koanf:"bias_threshold" json:"bias_threshold"`

	// Minimum performance per risk tier.
	MinAccuracyHighRisk    float64 `koanf:"min_accuracy_high_risk" json:"min_accuracy_high_risk"`
	MinAccuracyLimitedRisk float64 `koanf:"min_accuracy_limited_risk" json:"min_accuracy_limited_risk"`
	MinF1HighRisk          float64 `koanf:"min_f1_high_risk" json:"min_f1_high_risk"`
	MinF1LimitedRisk       float64 `koanf:"min_f1_limited_risk" json:"min_f1_limited_risk"`

	// Assessment recency limits, in days.
	MaxRiskAssessmentAgeDays        int `koanf:"max_risk_assessment_age_days" json:"max_risk_assessment_age_days"`
	MaxRiskAssessmentAgeLimitedDays int `koanf:"max_risk_assessment_age_limited_days" json:"max_risk_assessment_age_limited_days"`
	MaxSecurityAssessmentAgeDays    int `koanf:"max_security_assessment_age_days" json:"max_security_assessment_age_days"`
}

// DefaultConfig returns the default thresholds.
func DefaultConfig() Config {
	return Config{
		BiasThreshold:                   0.10,
		MinAccuracyHighRisk:             0.85,
		MinAccuracyLimitedRisk:          0.75,
		MinF1HighRisk:                   0.80,
		MinF1LimitedRisk:                0.70,
		MaxRiskAssessmentAgeDays:        180,
		MaxRiskAssessmentAgeLimitedDays: 365,
		MaxSecurityAssessmentAgeDays:    90,
	}
}

// Validate checks that every threshold is usable. The gate fails fast at
// construction rather than surfacing a bad threshold mid-evaluation.
func (c Config) Validate() error {
	ratios := map[string]float64{
		"bias_threshold":            c.BiasThreshold,
		"min_accuracy_high_risk":    c.MinAccuracyHighRisk,
		"min_accuracy_limited_risk": c.MinAccuracyLimitedRisk,
		"min_f1_high_risk":          c.MinF1HighRisk,
		"min_f1_limited_risk":       c.MinF1LimitedRisk,
	}
	for name, v := range ratios {
		if v < 0 || v > 1 {
			return fmt.Errorf("gate config: %s must be in [0, 1], got %v", name, v)
		}
	}

	ages := map[string]int{
		"max_risk_assessment_age_days":         c.MaxRiskAssessmentAgeDays,
		"max_risk_assessment_age_limited_days": c.MaxRiskAssessmentAgeLimitedDays,
		"max_security_assessment_age_days":     c.MaxSecurityAssessmentAgeDays,
	}
	for name, v := range ages {
		if v <= 0 {
			return fmt.Errorf("gate config: %s must be positive, got %d", name, v)
		}
	}

	return nil
}

package core

import "time"

// =============================================================================
// Assessments & Model Metadata
// =============================================================================

// RiskAssessment is a persisted risk assessment row for a model.
type RiskAssessment struct {
	ModelID     string    `json:"model_id"`
	Complete    bool      `json:"assessment_complete"`
	CompletedAt time.Time `json:"completed_at"`
	Assessor    string    `json:"assessor,omitempty"`
}

// SecurityAssessment is a persisted security scan result.
type SecurityAssessment struct {
	AssessmentID string    `json:"assessment_id"`
	ModelID      string    `json:"model_id,omitempty"`
	CompletedAt  time.Time `json:"completed_at"`
	Scanner      string    `json:"scanner,omitempty"`
}

// BiasMetrics holds precomputed fairness metrics for one protected
// attribute. The gate consumes these; it never computes them.
type BiasMetrics struct {
	// DemographicParity is the demographic parity difference (Fairlearn
	// convention). When zero, DisparateImpact is consulted instead.
	DemographicParity float64 `json:"demographic_parity_difference,omitempty"`
	DisparateImpact   float64 `json:"disparate_impact,omitempty"`
}

// ParityMetric returns the metric used against the bias threshold:
// demographic parity difference when present, disparate impact otherwise.
// An attribute with neither metric recorded yields 1.0, so an unmeasured
// attribute can never pass a threshold check.
func (b BiasMetrics) ParityMetric() float64 {
	if b.DemographicParity != 0 {
		return b.DemographicParity
	}
	if b.DisparateImpact != 0 {
		return b.DisparateImpact
	}
	return 1.0
}

// AccuracyMetrics holds the performance numbers checked at deployment.
type AccuracyMetrics struct {
	Accuracy float64 `json:"accuracy"`
	F1Score  float64 `json:"f1_score"`
}

// FullMetadata is the nested metadata block a model registry returns.
type FullMetadata struct {
	BiasAssessment    map[string]BiasMetrics `json:"bias_assessment,omitempty"`
	OversightMeasures []string               `json:"oversight_measures,omitempty"`
	AccuracyMetrics   AccuracyMetrics        `json:"accuracy_metrics"`
}

// ModelMetadata is the compliance-relevant metadata document the model
// registry holds for one model.
type ModelMetadata struct {
	ModelID               string       `json:"model_id"`
	DataLineageID         string       `json:"data_lineage_id,omitempty"`
	ModelCardID           string       `json:"model_card_id,omitempty"`
	HumanOversightEnabled bool         `json:"human_oversight_enabled"`
	SecurityAssessmentID  string       `json:"security_assessment_id,omitempty"`
	RiskLevel             RiskTier     `json:"risk_level"`
	Full                  FullMetadata `json:"full_metadata"`
}

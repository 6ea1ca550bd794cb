package domain

import (
	"fmt"
	"math"
)

// RiskLabel is the binary readmission risk decision.
type RiskLabel string

const (
	HIGH_RISK RiskLabel = "HIGH_RISK"
	LOW_RISK  RiskLabel = "LOW_RISK"
)

// IsValid reports whether the label is one of the two known decisions.
func (l RiskLabel) IsValid() bool {
	switch l {
	case HIGH_RISK, LOW_RISK:
		return true
	default:
		return false
	}
}

// DisplayName returns the label as shown to clinicians.
func (l RiskLabel) DisplayName() string {
	switch l {
	case HIGH_RISK:
		return "HIGH RISK"
	case LOW_RISK:
		return "LOW RISK"
	default:
		return string(l)
	}
}

// DefaultRiskThreshold is the probability above which a patient is flagged HIGH_RISK.
const DefaultRiskThreshold = 0.4

// Recommendations attached to each decision.
const (
	HighRiskRecommendation = "Keep patient for observation or schedule early follow-up."
	LowRiskRecommendation  = "Safe for standard discharge."
)

// DecisionPolicy turns a readmission probability into a label and recommendation.
type DecisionPolicy struct {
	Threshold              float64 `json:"threshold" mapstructure:"threshold"`
	HighRiskRecommendation string  `json:"high_risk_recommendation" mapstructure:"high_risk_recommendation"`
	LowRiskRecommendation  string  `json:"low_risk_recommendation" mapstructure:"low_risk_recommendation"`
}

// DefaultDecisionPolicy returns the clinical policy the model was validated with.
func DefaultDecisionPolicy() DecisionPolicy {
	return DecisionPolicy{
		Threshold:              DefaultRiskThreshold,
		HighRiskRecommendation: HighRiskRecommendation,
		LowRiskRecommendation:  LowRiskRecommendation,
	}
}

// Validate checks that the threshold is a usable probability cut-off.
func (p DecisionPolicy) Validate() error {
	if math.IsNaN(p.Threshold) || p.Threshold <= 0 || p.Threshold >= 1 {
		return fmt.Errorf("risk threshold must be in (0, 1), got %v", p.Threshold)
	}
	if p.HighRiskRecommendation == "" || p.LowRiskRecommendation == "" {
		return fmt.Errorf("both risk recommendations are required")
	}
	return nil
}

// Decide classifies a probability. The comparison is strict: a probability equal to
// the threshold is LOW_RISK.
func (p DecisionPolicy) Decide(probability float64) RiskAssessment {
	if probability > p.Threshold {
		return RiskAssessment{
			Probability:    probability,
			Label:          HIGH_RISK,
			Recommendation: p.HighRiskRecommendation,
			Threshold:      p.Threshold,
		}
	}
	return RiskAssessment{
		Probability:    probability,
		Label:          LOW_RISK,
		Recommendation: p.LowRiskRecommendation,
		Threshold:      p.Threshold,
	}
}

// RiskAssessment is the outcome of one assessment. It is never persisted.
type RiskAssessment struct {
	Probability    float64   `json:"probability"`
	Label          RiskLabel `json:"label"`
	Recommendation string    `json:"recommendation"`
	Threshold      float64   `json:"threshold"`
}

// ProbabilityPercent formats the probability as a percentage with one decimal place.
func (a RiskAssessment) ProbabilityPercent() string {
	return fmt.Sprintf("%.1f%%", a.Probability*100)
}

// Summary renders the headline shown after an assessment, e.g.
// "HIGH RISK: Readmission Probability is 42.0%".
func (a RiskAssessment) Summary() string {
	return fmt.Sprintf("%s: Readmission Probability is %s", a.Label.DisplayName(), a.ProbabilityPercent())
}

// Display is the presentation view of an assessment.
type Display struct {
	Label          string `json:"label"`
	Probability    string `json:"probability"`
	Recommendation string `json:"recommendation"`
	Summary        string `json:"summary"`
}

// Display returns the presentation view of the assessment.
func (a RiskAssessment) Display() Display {
	return Display{
		Label:          a.Label.DisplayName(),
		Probability:    a.ProbabilityPercent(),
		Recommendation: a.Recommendation,
		Summary:        a.Summary(),
	}
}

// Package service implements the readmission risk inference pipeline: encoding the
// patient record exactly as the training run did, aligning it to the training columns,
// scaling, predicting, and applying the decision policy.
package service

import (
	"fmt"
	"math"

	"github.com/readmission-risk-server/internal/domain"
	"github.com/readmission-risk-server/internal/model"
)

// Pipeline stage names reported in InternalTransformError.
const (
	StageReindex  = "reindex"
	StageScale    = "scale"
	StagePredict  = "predict"
	StageValidate = "probability"
)

// Pipeline is a stateless assessor over one immutable model bundle. It performs no I/O
// and does not log; callers decide how to report errors.
type Pipeline struct {
	bundle *model.Bundle
	policy domain.DecisionPolicy
}

var _ domain.Assessor = (*Pipeline)(nil)

// NewPipeline creates a pipeline for bundle and policy.
func NewPipeline(bundle *model.Bundle, policy domain.DecisionPolicy) (*Pipeline, error) {
	if bundle == nil {
		return nil, fmt.Errorf("pipeline requires a model bundle")
	}
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("invalid decision policy: %w", err)
	}
	return &Pipeline{bundle: bundle, policy: policy}, nil
}

// Bundle returns the model bundle the pipeline runs against.
func (p *Pipeline) Bundle() *model.Bundle {
	return p.bundle
}

// Policy returns the decision policy.
func (p *Pipeline) Policy() domain.DecisionPolicy {
	return p.policy
}

// Assess runs the full pipeline for input.
func (p *Pipeline) Assess(input domain.PatientInput) (*domain.RiskAssessment, error) {
	features, err := p.Features(input)
	if err != nil {
		return nil, err
	}

	scaled, err := p.bundle.Scaler().Transform(features.Values)
	if err != nil {
		return nil, domain.NewInternalTransformError(StageScale, err)
	}
	for i, v := range scaled {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, domain.NewInternalTransformError(StageScale,
				fmt.Errorf("scaled %s is not finite", features.Columns[i]))
		}
	}

	prob, err := p.bundle.Classifier().PredictProba(scaled)
	if err != nil {
		return nil, domain.NewInternalTransformError(StagePredict, err)
	}
	if math.IsNaN(prob) || prob < 0 || prob > 1 {
		return nil, domain.NewInternalTransformError(StageValidate,
			fmt.Errorf("classifier returned %v, outside [0,1]", prob))
	}

	assessment := p.policy.Decide(prob)
	return &assessment, nil
}

// Features runs input validation, encoding and column alignment, and returns the
// unscaled feature vector the scaler would receive.
func (p *Pipeline) Features(input domain.PatientInput) (*domain.FeatureVector, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	record, err := p.encode(input)
	if err != nil {
		return nil, err
	}
	return p.reindex(record)
}

// encode builds the single-row record and applies the label and one-hot encoders.
// Encoded categorical fields are replaced by their codes or indicator columns; any
// field no encoder covers keeps its raw value.
func (p *Pipeline) encode(input domain.PatientInput) (map[string]any, error) {
	record := map[string]any{
		domain.FieldAge:              float64(input.Age),
		domain.FieldGender:           input.Gender,
		domain.FieldPrimaryDiagnosis: input.PrimaryDiagnosis,
		domain.FieldTreatment:        input.Treatment,
		domain.FieldHemoglobinLevel:  input.HemoglobinLevel,
		domain.FieldLengthOfStay:     float64(input.LengthOfStay),
	}

	le := p.bundle.LabelEncoder()
	if raw, ok := record[le.Field()].(string); ok {
		code, err := le.Transform(raw)
		if err != nil {
			return nil, err
		}
		record[le.Field()] = float64(code)
	}

	for _, enc := range p.bundle.OneHotEncoders() {
		raw, ok := record[enc.Field()].(string)
		if !ok {
			continue
		}
		indicators, err := enc.Expand(raw)
		if err != nil {
			return nil, err
		}
		delete(record, enc.Field())
		for col, v := range indicators {
			record[col] = v
		}
	}
	return record, nil
}

// reindex aligns record to the training columns: missing columns are zero, extra
// columns are dropped, and every kept value must be numeric.
func (p *Pipeline) reindex(record map[string]any) (*domain.FeatureVector, error) {
	columns := p.bundle.Columns()
	values := make([]float64, len(columns))
	for i, col := range columns {
		raw, ok := record[col]
		if !ok {
			continue
		}
		v, ok := raw.(float64)
		if !ok {
			return nil, domain.NewInternalTransformError(StageReindex,
				fmt.Errorf("column %s holds non-numeric value %v", col, raw))
		}
		values[i] = v
	}
	return &domain.FeatureVector{Columns: columns, Values: values}, nil
}

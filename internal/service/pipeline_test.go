package service

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readmission-risk-server/internal/domain"
	"github.com/readmission-risk-server/internal/model"
	"github.com/readmission-risk-server/internal/model/modeltest"
)

func newTestPipeline(t *testing.T, bundle *model.Bundle) *Pipeline {
	t.Helper()
	p, err := NewPipeline(bundle, domain.DefaultDecisionPolicy())
	require.NoError(t, err)
	return p
}

func TestPipeline_DefaultFormScenario(t *testing.T) {
	p := newTestPipeline(t, modeltest.Bundle())

	input := domain.PatientInput{
		Age:              45,
		Gender:           "Male",
		PrimaryDiagnosis: "Sepsis",
		Treatment:        "Broad-Spectrum Antibiotics",
		HemoglobinLevel:  12.0,
		LengthOfStay:     3,
	}
	assert.Equal(t, domain.DefaultPatientInput(), input)

	a, err := p.Assess(input)
	require.NoError(t, err)

	assert.InDelta(t, 0.34298953732650117, a.Probability, 1e-12)
	assert.Equal(t, domain.LOW_RISK, a.Label)
	assert.Equal(t, domain.LowRiskRecommendation, a.Recommendation)
	assert.Equal(t, 0.4, a.Threshold)
	assert.Equal(t, "34.3%", a.ProbabilityPercent())
	assert.Equal(t, "LOW RISK: Readmission Probability is 34.3%", a.Summary())
}

func TestPipeline_HighRiskScenario(t *testing.T) {
	p := newTestPipeline(t, modeltest.Bundle())

	a, err := p.Assess(domain.PatientInput{
		Age:              85,
		Gender:           "Male",
		PrimaryDiagnosis: "Sepsis",
		Treatment:        "Broad-Spectrum Antibiotics",
		HemoglobinLevel:  8.0,
		LengthOfStay:     14,
	})
	require.NoError(t, err)

	assert.InDelta(t, 0.973403006423134, a.Probability, 1e-12)
	assert.Equal(t, domain.HIGH_RISK, a.Label)
	assert.Equal(t, domain.HighRiskRecommendation, a.Recommendation)
	assert.Equal(t, "HIGH RISK: Readmission Probability is 97.3%", a.Summary())
}

func TestPipeline_EveryCategoricalBranch(t *testing.T) {
	b := modeltest.Bundle()
	p := newTestPipeline(t, b)

	for _, gender := range domain.GenderOptions {
		for _, diagnosis := range domain.DiagnosisOptions {
			for _, treatment := range domain.TreatmentOptions {
				input := domain.PatientInput{
					Age:              70,
					Gender:           gender,
					PrimaryDiagnosis: diagnosis,
					Treatment:        treatment,
					HemoglobinLevel:  9.5,
					LengthOfStay:     7,
				}
				name := gender + "/" + diagnosis + "/" + treatment

				fv, err := p.Features(input)
				require.NoError(t, err, name)
				assert.Equal(t, len(b.Columns()), fv.Len(), name)
				assert.Equal(t, b.Columns(), fv.Columns, name)

				a, err := p.Assess(input)
				require.NoError(t, err, name)
				assert.GreaterOrEqual(t, a.Probability, 0.0, name)
				assert.LessOrEqual(t, a.Probability, 1.0, name)
				assert.True(t, a.Label.IsValid(), name)
			}
		}
	}
}

func TestPipeline_Deterministic(t *testing.T) {
	p := newTestPipeline(t, modeltest.Bundle())
	input := domain.DefaultPatientInput()

	first, err := p.Assess(input)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := p.Assess(input)
		require.NoError(t, err)
		assert.Equal(t, *first, *again)
		assert.Equal(t, math.Float64bits(first.Probability), math.Float64bits(again.Probability))
	}
}

func TestPipeline_ThresholdBoundary(t *testing.T) {
	tests := []struct {
		name string
		p    float64
		want domain.RiskLabel
	}{
		{"exactly threshold", 0.4, domain.LOW_RISK},
		{"just above threshold", math.Nextafter(0.4, 1), domain.HIGH_RISK},
		{"zero", 0, domain.LOW_RISK},
		{"one", 1, domain.HIGH_RISK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestPipeline(t, modeltest.BundleWith(modeltest.NewStubClassifier(tt.p)))

			a, err := p.Assess(domain.DefaultPatientInput())
			require.NoError(t, err)
			assert.Equal(t, tt.want, a.Label)
			assert.Equal(t, tt.p, a.Probability)
		})
	}
}

func TestPipeline_UnknownGender(t *testing.T) {
	stub := modeltest.NewStubClassifier(0.9)
	p := newTestPipeline(t, modeltest.BundleWith(stub))

	input := domain.DefaultPatientInput()
	input.Gender = "Unknown"

	a, err := p.Assess(input)
	require.Error(t, err)
	assert.Nil(t, a)
	assert.Zero(t, stub.Calls, "classifier must not run for invalid input")

	assert.True(t, domain.IsValidationError(err))
	var uce *domain.UnknownCategoryError
	require.True(t, errors.As(err, &uce))
	assert.Equal(t, "Error: Please enter a valid gender.", uce.UserMessage())
}

func TestPipeline_UnknownOneHotCategory(t *testing.T) {
	p := newTestPipeline(t, modeltest.Bundle())

	tests := []struct {
		name  string
		edit  func(*domain.PatientInput)
		field string
	}{
		{"diagnosis", func(in *domain.PatientInput) { in.PrimaryDiagnosis = "Cholera" }, domain.FieldPrimaryDiagnosis},
		{"treatment", func(in *domain.PatientInput) { in.Treatment = "Quinine" }, domain.FieldTreatment},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := domain.DefaultPatientInput()
			tt.edit(&input)

			_, err := p.Assess(input)
			require.Error(t, err)
			assert.Equal(t, domain.ErrUnknownCategory, domain.ErrorCode(err))
			assert.Equal(t, tt.field, domain.ErrorField(err))
		})
	}
}

func TestPipeline_InputOutOfRange(t *testing.T) {
	p := newTestPipeline(t, modeltest.Bundle())

	tests := []struct {
		name string
		edit func(*domain.PatientInput)
	}{
		{"age too low", func(in *domain.PatientInput) { in.Age = 0 }},
		{"age too high", func(in *domain.PatientInput) { in.Age = 111 }},
		{"hemoglobin NaN", func(in *domain.PatientInput) { in.HemoglobinLevel = math.NaN() }},
		{"stay too long", func(in *domain.PatientInput) { in.LengthOfStay = 61 }},
		{"empty treatment", func(in *domain.PatientInput) { in.Treatment = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := domain.DefaultPatientInput()
			tt.edit(&input)

			_, err := p.Assess(input)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestPipeline_FeaturesAlignment(t *testing.T) {
	p := newTestPipeline(t, modeltest.Bundle())

	input := domain.PatientInput{
		Age:              61,
		Gender:           "Female",
		PrimaryDiagnosis: "Severe Malaria",
		Treatment:        "IV Artesunate",
		HemoglobinLevel:  7.4,
		LengthOfStay:     9,
	}
	fv, err := p.Features(input)
	require.NoError(t, err)

	assert.Equal(t, []float64{61, 0, 7.4, 9, 0, 1, 0, 0, 1, 0}, fv.Values)
}

func TestPipeline_BaselineSelections(t *testing.T) {
	p := newTestPipeline(t, modeltest.Bundle())

	input := domain.DefaultPatientInput()
	input.PrimaryDiagnosis = "Other"
	input.Treatment = "Broad-Spectrum Antibiotics"

	fv, err := p.Features(input)
	require.NoError(t, err)
	for _, col := range fv.Columns[4:] {
		v, ok := fv.Value(col)
		require.True(t, ok)
		assert.Zero(t, v, col)
	}

	_, err = p.Assess(input)
	assert.NoError(t, err)
}

func TestPipeline_DropsIndicatorsMissingFromColumns(t *testing.T) {
	c := modeltest.Components()
	c.Columns = c.Columns[:9]
	scaler, err := model.NewStandardScaler(modeltest.Mean[:9], modeltest.Scale[:9])
	require.NoError(t, err)
	lr, err := model.NewLogisticRegression(modeltest.Coefficients[:9], modeltest.Intercept)
	require.NoError(t, err)
	c.Scaler, c.Classifier = scaler, lr

	b, err := model.NewBundle(c)
	require.NoError(t, err)
	require.Len(t, b.Warnings(), 1)

	p := newTestPipeline(t, b)
	input := domain.DefaultPatientInput()
	input.Treatment = "Other"

	fv, err := p.Features(input)
	require.NoError(t, err)
	assert.Equal(t, 9, fv.Len())
	assert.Equal(t, []float64{45, 1, 12, 3, 1, 0, 0, 0, 0}, fv.Values)
}

func TestPipeline_NonNumericColumn(t *testing.T) {
	c := modeltest.Components()
	c.OneHot = c.OneHot[:1]
	c.Columns[7] = domain.FieldTreatment

	b, err := model.NewBundle(c)
	require.NoError(t, err)
	p := newTestPipeline(t, b)

	_, err = p.Assess(domain.DefaultPatientInput())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInternalTransform)
	assert.False(t, domain.IsValidationError(err))

	var ite *domain.InternalTransformError
	require.True(t, errors.As(err, &ite))
	assert.Equal(t, StageReindex, ite.Stage)
}

func TestPipeline_ClassifierFailures(t *testing.T) {
	tests := []struct {
		name  string
		stub  *modeltest.StubClassifier
		stage string
	}{
		{"NaN probability", modeltest.NewStubClassifier(math.NaN()), StageValidate},
		{"probability above one", modeltest.NewStubClassifier(1.2), StageValidate},
		{"negative probability", modeltest.NewStubClassifier(-0.1), StageValidate},
		{"classifier error", &modeltest.StubClassifier{Err: model.ErrWidthMismatch, Columns: len(modeltest.Columns)}, StagePredict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestPipeline(t, modeltest.BundleWith(tt.stub))

			a, err := p.Assess(domain.DefaultPatientInput())
			require.Error(t, err)
			assert.Nil(t, a)

			var ite *domain.InternalTransformError
			require.True(t, errors.As(err, &ite))
			assert.Equal(t, tt.stage, ite.Stage)
			assert.Equal(t, domain.ErrInternalTransCode, domain.ErrorCode(err))
		})
	}
}

func TestPipeline_ScalesBeforePredicting(t *testing.T) {
	stub := modeltest.NewStubClassifier(0.1)
	p := newTestPipeline(t, modeltest.BundleWith(stub))

	_, err := p.Assess(domain.DefaultPatientInput())
	require.NoError(t, err)

	assert.InDeltaSlice(t, []float64{-0.25, 1, 0, -0.5, 1.5, -0.5, -0.5, -0.5, -0.5, -0.5}, stub.LastRow, 1e-12)
}

func TestPipeline_CustomThreshold(t *testing.T) {
	policy := domain.DefaultDecisionPolicy()
	policy.Threshold = 0.3

	p, err := NewPipeline(modeltest.Bundle(), policy)
	require.NoError(t, err)

	a, err := p.Assess(domain.DefaultPatientInput())
	require.NoError(t, err)
	assert.Equal(t, domain.HIGH_RISK, a.Label)
	assert.Equal(t, 0.3, a.Threshold)
}

func TestNewPipeline_Invalid(t *testing.T) {
	_, err := NewPipeline(nil, domain.DefaultDecisionPolicy())
	assert.Error(t, err)

	policy := domain.DefaultDecisionPolicy()
	policy.Threshold = 1.5
	_, err = NewPipeline(modeltest.Bundle(), policy)
	assert.Error(t, err)
}

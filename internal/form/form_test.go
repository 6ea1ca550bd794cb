package form

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readmission-risk-server/internal/domain"
)

func TestValuesRoundTrip(t *testing.T) {
	in := domain.DefaultPatientInput()
	v := ValuesFrom(in)

	assert.Equal(t, "45", v.Age)
	assert.Equal(t, "12.0", v.HemoglobinLevel)
	assert.Equal(t, "3", v.LengthOfStay)

	got, err := v.PatientInput()
	require.NoError(t, err)
	assert.Equal(t, in, got)
}

func TestValues_PatientInput(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Values)
		wantField string
	}{
		{"trimmed numbers", func(v *Values) { v.Age = " 85 "; v.HemoglobinLevel = "8"; v.LengthOfStay = "14 " }, ""},
		{"age not a number", func(v *Values) { v.Age = "forty" }, domain.FieldAge},
		{"age fractional", func(v *Values) { v.Age = "45.5" }, domain.FieldAge},
		{"age too low", func(v *Values) { v.Age = "0" }, domain.FieldAge},
		{"age too high", func(v *Values) { v.Age = "111" }, domain.FieldAge},
		{"hemoglobin too low", func(v *Values) { v.HemoglobinLevel = "0.9" }, domain.FieldHemoglobinLevel},
		{"hemoglobin not a number", func(v *Values) { v.HemoglobinLevel = "" }, domain.FieldHemoglobinLevel},
		{"hemoglobin NaN", func(v *Values) { v.HemoglobinLevel = "NaN" }, domain.FieldHemoglobinLevel},
		{"hemoglobin infinite", func(v *Values) { v.HemoglobinLevel = "+Inf" }, domain.FieldHemoglobinLevel},
		{"stay too long", func(v *Values) { v.LengthOfStay = "61" }, domain.FieldLengthOfStay},
		{"stay bounds", func(v *Values) { v.LengthOfStay = "60"; v.Age = "1"; v.HemoglobinLevel = "20.0" }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := ValuesFrom(domain.DefaultPatientInput())
			tt.mutate(&v)

			_, err := v.PatientInput()
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, domain.IsValidationError(err))
			assert.Equal(t, tt.wantField, domain.ErrorField(err))
		})
	}
}

func TestParseHemoglobin_RejectsNaN(t *testing.T) {
	_, err := parseHemoglobin("nan")
	require.Error(t, err)
	assert.Equal(t, domain.FieldHemoglobinLevel, domain.ErrorField(err))
}

func TestNew(t *testing.T) {
	v := ValuesFrom(domain.DefaultPatientInput())
	f := New(strings.NewReader(""), &bytes.Buffer{}, &v)
	assert.NotNil(t, f)
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	a := domain.DefaultDecisionPolicy().Decide(0.42)

	Render(&buf, a)

	assert.Equal(t, "HIGH RISK: Readmission Probability is 42.0%\n"+domain.HighRiskRecommendation+"\n", buf.String())
}

func TestRenderError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"unknown gender", domain.NewUnknownCategoryError(domain.FieldGender, "Other", []string{"Female", "Male"}),
			"Error: Please enter a valid gender.\n"},
		{"unknown diagnosis", domain.NewUnknownCategoryError(domain.FieldPrimaryDiagnosis, "Cholera", nil),
			"Error: Please enter a valid primary diagnosis.\n"},
		{"internal", domain.NewInternalTransformError("scale", errors.New("width mismatch")),
			"Error: the assessment could not be computed.\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			RenderError(&buf, tt.err)
			assert.Equal(t, tt.want, buf.String())
		})
	}

	var buf bytes.Buffer
	RenderError(&buf, domain.NewValidationError(domain.FieldAge, "must be between 1 and 110", 0))
	assert.True(t, strings.HasPrefix(buf.String(), "Error: "))
	assert.Contains(t, buf.String(), "Age")
}

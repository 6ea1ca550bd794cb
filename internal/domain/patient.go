// Package domain contains the core entities for 30-day hospital readmission risk
// assessment: the patient attributes collected at discharge, the risk decision derived
// from a classifier probability, and the error taxonomy shared by every surface.
package domain

import (
	"fmt"
	"math"
	"strings"
)

// Record field names. These must match the names the encoder and scaler were fitted
// against, including casing and underscores.
const (
	FieldAge              = "Age"
	FieldGender           = "Gender"
	FieldPrimaryDiagnosis = "Primary_Diagnosis"
	FieldTreatment        = "Treatment"
	FieldHemoglobinLevel  = "Hemoglobin_Level"
	FieldLengthOfStay     = "Length_of_Stay"
)

// RecordFields lists the raw record fields in construction order.
var RecordFields = []string{
	FieldAge,
	FieldGender,
	FieldPrimaryDiagnosis,
	FieldTreatment,
	FieldHemoglobinLevel,
	FieldLengthOfStay,
}

// Input domains offered by the intake form.
const (
	MinAge             = 1
	MaxAge             = 110
	MinHemoglobinLevel = 1.0
	MaxHemoglobinLevel = 20.0
	MinLengthOfStay    = 1
	MaxLengthOfStay    = 60
)

// Categorical options offered by the intake form. The fitted vocabularies in the model
// bundle are authoritative; these only drive form widgets and tool descriptions.
var (
	GenderOptions    = []string{"Male", "Female"}
	DiagnosisOptions = []string{"Sepsis", "Severe Malaria", "Typhoid Fever", "Other"}
	TreatmentOptions = []string{"Broad-Spectrum Antibiotics", "IV Artesunate", "Ceftriaxone", "Other"}
)

// PatientInput is one set of patient attributes submitted for assessment.
type PatientInput struct {
	Age              int     `json:"age" mapstructure:"age"`
	Gender           string  `json:"gender" mapstructure:"gender"`
	PrimaryDiagnosis string  `json:"primary_diagnosis" mapstructure:"primary_diagnosis"`
	Treatment        string  `json:"treatment" mapstructure:"treatment"`
	HemoglobinLevel  float64 `json:"hemoglobin_level" mapstructure:"hemoglobin_level"`
	LengthOfStay     int     `json:"length_of_stay" mapstructure:"length_of_stay"`
}

// DefaultPatientInput returns the values the intake form starts with.
func DefaultPatientInput() PatientInput {
	return PatientInput{
		Age:              45,
		Gender:           GenderOptions[0],
		PrimaryDiagnosis: DiagnosisOptions[0],
		Treatment:        TreatmentOptions[0],
		HemoglobinLevel:  12.0,
		LengthOfStay:     3,
	}
}

// Validate checks numeric ranges and that every categorical field is present.
// Membership of categorical values is checked against the fitted bundle vocabularies
// during assessment, not here.
func (p PatientInput) Validate() error {
	if p.Age < MinAge || p.Age > MaxAge {
		return NewValidationError(FieldAge, fmt.Sprintf("must be between %d and %d", MinAge, MaxAge), p.Age)
	}
	if math.IsNaN(p.HemoglobinLevel) || p.HemoglobinLevel < MinHemoglobinLevel || p.HemoglobinLevel > MaxHemoglobinLevel {
		return NewValidationError(FieldHemoglobinLevel, fmt.Sprintf("must be between %.1f and %.1f g/dL", MinHemoglobinLevel, MaxHemoglobinLevel), p.HemoglobinLevel)
	}
	if p.LengthOfStay < MinLengthOfStay || p.LengthOfStay > MaxLengthOfStay {
		return NewValidationError(FieldLengthOfStay, fmt.Sprintf("must be between %d and %d days", MinLengthOfStay, MaxLengthOfStay), p.LengthOfStay)
	}

	categorical := []struct {
		field string
		value string
	}{
		{FieldGender, p.Gender},
		{FieldPrimaryDiagnosis, p.PrimaryDiagnosis},
		{FieldTreatment, p.Treatment},
	}
	for _, c := range categorical {
		if strings.TrimSpace(c.value) == "" {
			return NewValidationError(c.field, "is required", c.value)
		}
	}
	return nil
}

// FeatureVector is the numeric record handed to the scaler, aligned to the bundle's
// column order.
type FeatureVector struct {
	Columns []string  `json:"columns"`
	Values  []float64 `json:"values"`
}

// Len returns the number of features.
func (v FeatureVector) Len() int {
	return len(v.Values)
}

// Value returns the value for a named column.
func (v FeatureVector) Value(column string) (float64, bool) {
	for i, c := range v.Columns {
		if c == column {
			return v.Values[i], true
		}
	}
	return 0, false
}

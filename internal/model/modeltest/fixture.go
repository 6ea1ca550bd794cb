// Package modeltest provides a small fitted bundle and a controllable classifier for
// tests in packages that depend on a model.
package modeltest

import (
	"fmt"

	"github.com/readmission-risk-server/internal/domain"
	"github.com/readmission-risk-server/internal/model"
)

// Columns are the fixture training columns.
var Columns = []string{
	domain.FieldAge,
	domain.FieldGender,
	domain.FieldHemoglobinLevel,
	domain.FieldLengthOfStay,
	"Primary_Diagnosis_Sepsis",
	"Primary_Diagnosis_Severe Malaria",
	"Primary_Diagnosis_Typhoid Fever",
	"Treatment_Ceftriaxone",
	"Treatment_IV Artesunate",
	"Treatment_Other",
}

// Fitted parameters of the fixture bundle.
var (
	Mean         = []float64{50, 0.5, 12, 5, 0.25, 0.25, 0.25, 0.25, 0.25, 0.25}
	Scale        = []float64{20, 0.5, 2, 4, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5}
	Coefficients = []float64{0.8, 0.1, -0.5, 0.6, 0.3, 0.2, 0.1, -0.1, 0.2, 0.0}
	Intercept    = -0.5
)

// Components returns the fixture artifacts with a logistic regression classifier.
func Components() model.Components {
	lr, err := model.NewLogisticRegression(Coefficients, Intercept)
	must(err)
	return ComponentsWith(lr)
}

// ComponentsWith returns the fixture artifacts around classifier.
func ComponentsWith(classifier model.Classifier) model.Components {
	gender, err := model.NewLabelEncoder(domain.FieldGender, []string{"Male", "Female"})
	must(err)
	diagnosis, err := model.NewOneHotEncoder(domain.FieldPrimaryDiagnosis,
		[]string{"Other", "Sepsis", "Severe Malaria", "Typhoid Fever"}, "Other")
	must(err)
	treatment, err := model.NewOneHotEncoder(domain.FieldTreatment,
		[]string{"Broad-Spectrum Antibiotics", "Ceftriaxone", "IV Artesunate", "Other"}, "Broad-Spectrum Antibiotics")
	must(err)
	scaler, err := model.NewStandardScaler(Mean, Scale)
	must(err)

	return model.Components{
		Metadata:     model.Metadata{Name: "readmission-risk-fixture", Version: "test"},
		Columns:      append([]string(nil), Columns...),
		LabelEncoder: gender,
		OneHot:       []*model.OneHotEncoder{diagnosis, treatment},
		Scaler:       scaler,
		Classifier:   classifier,
	}
}

// Bundle returns the fixture bundle.
func Bundle() *model.Bundle {
	b, err := model.NewBundle(Components())
	must(err)
	return b
}

// BundleWith returns the fixture bundle around classifier.
func BundleWith(classifier model.Classifier) *model.Bundle {
	b, err := model.NewBundle(ComponentsWith(classifier))
	must(err)
	return b
}

// StubClassifier returns a fixed probability, or Err, and records the last row it saw.
type StubClassifier struct {
	P       float64
	Err     error
	Columns int
	LastRow []float64
	Calls   int
}

// NewStubClassifier returns a stub that always predicts p for fixture-width rows.
func NewStubClassifier(p float64) *StubClassifier {
	return &StubClassifier{P: p, Columns: len(Columns)}
}

// PredictProba implements model.Classifier.
func (s *StubClassifier) PredictProba(row []float64) (float64, error) {
	s.Calls++
	s.LastRow = append([]float64(nil), row...)
	if s.Err != nil {
		return 0, s.Err
	}
	return s.P, nil
}

// Width implements model.Classifier.
func (s *StubClassifier) Width() int {
	return s.Columns
}

// Kind implements model.Classifier.
func (s *StubClassifier) Kind() string {
	return "stub"
}

func must(err error) {
	if err != nil {
		panic(fmt.Sprintf("modeltest fixture: %v", err))
	}
}

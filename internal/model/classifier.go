package model

import (
	"fmt"
	"math"
)

// Classifier kinds understood by the loader.
const (
	KindLogisticRegression = "logistic_regression"
	KindRandomForest       = "random_forest"
	KindGradientBoosting   = "gradient_boosting"
)

// Classifier predicts the probability of the positive class ("readmitted") for one
// scaled feature row.
type Classifier interface {
	// PredictProba returns the positive-class probability for row.
	PredictProba(row []float64) (float64, error)
	// Width is the number of features the classifier was trained on.
	Width() int
	// Kind names the model family.
	Kind() string
}

// LogisticRegression is a fitted binary logistic regression.
type LogisticRegression struct {
	coefficients []float64
	intercept    float64
}

// NewLogisticRegression creates a logistic regression from its fitted weights.
func NewLogisticRegression(coefficients []float64, intercept float64) (*LogisticRegression, error) {
	if len(coefficients) == 0 {
		return nil, fmt.Errorf("logistic regression has no coefficients")
	}
	for i, c := range coefficients {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return nil, fmt.Errorf("coefficient %d is not finite", i)
		}
	}
	if math.IsNaN(intercept) || math.IsInf(intercept, 0) {
		return nil, fmt.Errorf("intercept is not finite")
	}
	return &LogisticRegression{
		coefficients: append([]float64(nil), coefficients...),
		intercept:    intercept,
	}, nil
}

// Width implements Classifier.
func (m *LogisticRegression) Width() int {
	return len(m.coefficients)
}

// Kind implements Classifier.
func (m *LogisticRegression) Kind() string {
	return KindLogisticRegression
}

// PredictProba implements Classifier.
func (m *LogisticRegression) PredictProba(row []float64) (float64, error) {
	if len(row) != len(m.coefficients) {
		return 0, fmt.Errorf("classifier expects %d features, got %d: %w", len(m.coefficients), len(row), ErrWidthMismatch)
	}
	z := m.intercept
	for i, x := range row {
		z += m.coefficients[i] * x
	}
	return sigmoid(z), nil
}

// sigmoid is the logistic function, arranged so that large |z| does not overflow.
func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

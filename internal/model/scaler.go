package model

import (
	"errors"
	"fmt"
	"math"
)

// ErrWidthMismatch is returned when a feature row does not have the width an artifact
// was fitted with.
var ErrWidthMismatch = errors.New("feature width mismatch")

// StandardScaler applies the fitted per-column standardization (x - mean) / scale.
type StandardScaler struct {
	mean  []float64
	scale []float64
}

// NewStandardScaler creates a scaler from fitted means and scales. A scale of zero is
// invalid; constant columns are fitted with a scale of 1.
func NewStandardScaler(mean, scale []float64) (*StandardScaler, error) {
	if len(mean) == 0 {
		return nil, fmt.Errorf("scaler has no columns")
	}
	if len(mean) != len(scale) {
		return nil, fmt.Errorf("scaler mean has %d entries but scale has %d: %w", len(mean), len(scale), ErrWidthMismatch)
	}
	for i := range mean {
		if math.IsNaN(mean[i]) || math.IsInf(mean[i], 0) {
			return nil, fmt.Errorf("scaler mean[%d] is not finite", i)
		}
		if math.IsNaN(scale[i]) || math.IsInf(scale[i], 0) || scale[i] == 0 {
			return nil, fmt.Errorf("scaler scale[%d] must be finite and non-zero, got %v", i, scale[i])
		}
	}

	return &StandardScaler{
		mean:  append([]float64(nil), mean...),
		scale: append([]float64(nil), scale...),
	}, nil
}

// Width returns the number of columns the scaler was fitted on.
func (s *StandardScaler) Width() int {
	return len(s.mean)
}

// Transform returns a standardized copy of row.
func (s *StandardScaler) Transform(row []float64) ([]float64, error) {
	if len(row) != len(s.mean) {
		return nil, fmt.Errorf("scaler expects %d features, got %d: %w", len(s.mean), len(row), ErrWidthMismatch)
	}
	out := make([]float64, len(row))
	for i, x := range row {
		out[i] = (x - s.mean[i]) / s.scale[i]
	}
	return out, nil
}

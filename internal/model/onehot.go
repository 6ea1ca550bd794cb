package model

import (
	"fmt"

	"github.com/readmission-risk-server/internal/domain"
)

// OneHotEncoder expands one categorical field into indicator columns named
// "{field}_{category}", one per fitted category except the baseline. The baseline is
// represented by every indicator being zero.
type OneHotEncoder struct {
	field      string
	categories []string
	baseline   string
}

// NewOneHotEncoder creates an encoder from the fitted categories, in fit order, and
// the baseline category that was dropped at training time.
func NewOneHotEncoder(field string, categories []string, baseline string) (*OneHotEncoder, error) {
	if field == "" {
		return nil, fmt.Errorf("one-hot field is required")
	}
	if len(categories) == 0 {
		return nil, fmt.Errorf("one-hot encoder for %s has no categories", field)
	}

	seen := make(map[string]bool, len(categories))
	for _, c := range categories {
		if c == "" {
			return nil, fmt.Errorf("one-hot encoder for %s has an empty category", field)
		}
		if seen[c] {
			return nil, fmt.Errorf("one-hot encoder for %s has duplicate category %q", field, c)
		}
		seen[c] = true
	}
	if !seen[baseline] {
		return nil, fmt.Errorf("baseline %q is not a category of %s", baseline, field)
	}

	return &OneHotEncoder{
		field:      field,
		categories: append([]string(nil), categories...),
		baseline:   baseline,
	}, nil
}

// Field returns the record field this encoder expands.
func (o *OneHotEncoder) Field() string {
	return o.field
}

// Categories returns a copy of the fitted categories in fit order.
func (o *OneHotEncoder) Categories() []string {
	return append([]string(nil), o.categories...)
}

// Baseline returns the dropped category.
func (o *OneHotEncoder) Baseline() string {
	return o.baseline
}

// ColumnName returns the indicator column name for category.
func (o *OneHotEncoder) ColumnName(category string) string {
	return o.field + "_" + category
}

// IndicatorColumns returns the indicator column names in fit order, baseline excluded.
func (o *OneHotEncoder) IndicatorColumns() []string {
	cols := make([]string, 0, len(o.categories)-1)
	for _, c := range o.categories {
		if c != o.baseline {
			cols = append(cols, o.ColumnName(c))
		}
	}
	return cols
}

// Expand returns the indicator values for value. Values outside the fitted categories
// are rejected rather than collapsed onto the baseline.
func (o *OneHotEncoder) Expand(value string) (map[string]float64, error) {
	known := false
	for _, c := range o.categories {
		if c == value {
			known = true
			break
		}
	}
	if !known {
		return nil, domain.NewUnknownCategoryError(o.field, value, o.categories)
	}

	indicators := make(map[string]float64, len(o.categories)-1)
	for _, c := range o.categories {
		if c == o.baseline {
			continue
		}
		if c == value {
			indicators[o.ColumnName(c)] = 1
		} else {
			indicators[o.ColumnName(c)] = 0
		}
	}
	return indicators, nil
}

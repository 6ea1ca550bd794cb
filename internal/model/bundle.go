package model

import (
	"errors"
	"fmt"

	"github.com/readmission-risk-server/internal/domain"
)

// ErrUnknownColumn is returned when a feature column is not one the encoders or the
// raw record can produce. Such a column would be zero in every assessment.
var ErrUnknownColumn = errors.New("feature column cannot be produced from a patient record")

// Metadata describes where a bundle came from.
type Metadata struct {
	Name        string `json:"name,omitempty"`
	Version     string `json:"version,omitempty"`
	TrainedAt   string `json:"trained_at,omitempty"`
	Description string `json:"description,omitempty"`
}

// Components are the artifacts a Bundle is assembled from.
type Components struct {
	Metadata     Metadata
	Columns      []string
	LabelEncoder *LabelEncoder
	OneHot       []*OneHotEncoder
	Scaler       *StandardScaler
	Classifier   Classifier
}

// Bundle is the immutable set of fitted artifacts one assessment needs: the label
// encoder, the one-hot vocabularies, the ordered training columns, the scaler, and the
// classifier. Artifacts from different training runs are never mixed; NewBundle checks
// that their shapes agree.
type Bundle struct {
	metadata     Metadata
	columns      []string
	columnIndex  map[string]int
	labelEncoder *LabelEncoder
	oneHot       []*OneHotEncoder
	scaler       *StandardScaler
	classifier   Classifier
	warnings     []string
}

// NewBundle validates the components against each other and assembles a Bundle.
//
// Shape disagreements are errors. A one-hot indicator that does not appear in the
// column list is only a warning, because the reindex step drops it the same way the
// training pipeline did.
func NewBundle(c Components) (*Bundle, error) {
	if len(c.Columns) == 0 {
		return nil, fmt.Errorf("bundle has no feature columns")
	}
	if c.LabelEncoder == nil {
		return nil, fmt.Errorf("bundle has no label encoder")
	}
	if c.Scaler == nil {
		return nil, fmt.Errorf("bundle has no scaler")
	}
	if c.Classifier == nil {
		return nil, fmt.Errorf("bundle has no classifier")
	}

	index := make(map[string]int, len(c.Columns))
	for i, col := range c.Columns {
		if col == "" {
			return nil, fmt.Errorf("feature column %d is empty", i)
		}
		if _, dup := index[col]; dup {
			return nil, fmt.Errorf("duplicate feature column %q", col)
		}
		index[col] = i
	}

	if _, ok := index[c.LabelEncoder.Field()]; !ok {
		return nil, fmt.Errorf("label encoded field %q is not a feature column", c.LabelEncoder.Field())
	}
	if c.Scaler.Width() != len(c.Columns) {
		return nil, fmt.Errorf("scaler width %d does not match %d feature columns: %w", c.Scaler.Width(), len(c.Columns), ErrWidthMismatch)
	}
	if c.Classifier.Width() != len(c.Columns) {
		return nil, fmt.Errorf("classifier width %d does not match %d feature columns: %w", c.Classifier.Width(), len(c.Columns), ErrWidthMismatch)
	}

	var warnings []string
	fields := map[string]bool{c.LabelEncoder.Field(): true}
	producible := map[string]bool{c.LabelEncoder.Field(): true}
	for _, enc := range c.OneHot {
		if enc == nil {
			return nil, fmt.Errorf("bundle has a nil one-hot encoder")
		}
		if fields[enc.Field()] {
			return nil, fmt.Errorf("field %q is encoded more than once", enc.Field())
		}
		fields[enc.Field()] = true
		for _, col := range enc.IndicatorColumns() {
			producible[col] = true
			if _, ok := index[col]; !ok {
				warnings = append(warnings, fmt.Sprintf("indicator column %q is not a feature column and will be dropped", col))
			}
		}
	}

	// Raw record fields reach the reindex step unless a one-hot encoder replaced them.
	for _, field := range domain.RecordFields {
		if !fields[field] {
			producible[field] = true
		}
	}
	for _, col := range c.Columns {
		if !producible[col] {
			return nil, fmt.Errorf("feature column %q: %w", col, ErrUnknownColumn)
		}
	}

	return &Bundle{
		metadata:     c.Metadata,
		columns:      append([]string(nil), c.Columns...),
		columnIndex:  index,
		labelEncoder: c.LabelEncoder,
		oneHot:       append([]*OneHotEncoder(nil), c.OneHot...),
		scaler:       c.Scaler,
		classifier:   c.Classifier,
		warnings:     warnings,
	}, nil
}

// Metadata returns the bundle provenance.
func (b *Bundle) Metadata() Metadata {
	return b.metadata
}

// Columns returns a copy of the ordered training columns.
func (b *Bundle) Columns() []string {
	return append([]string(nil), b.columns...)
}

// ColumnIndex returns the position of col in the training columns.
func (b *Bundle) ColumnIndex(col string) (int, bool) {
	i, ok := b.columnIndex[col]
	return i, ok
}

// LabelEncoder returns the fitted label encoder.
func (b *Bundle) LabelEncoder() *LabelEncoder {
	return b.labelEncoder
}

// OneHotEncoders returns the one-hot encoders in application order.
func (b *Bundle) OneHotEncoders() []*OneHotEncoder {
	return append([]*OneHotEncoder(nil), b.oneHot...)
}

// Scaler returns the fitted scaler.
func (b *Bundle) Scaler() *StandardScaler {
	return b.scaler
}

// Classifier returns the fitted classifier.
func (b *Bundle) Classifier() Classifier {
	return b.classifier
}

// Warnings returns the non-fatal inconsistencies found when the bundle was assembled.
func (b *Bundle) Warnings() []string {
	return append([]string(nil), b.warnings...)
}

// Vocabulary returns the fitted values accepted for a categorical field, or nil when
// the field is not categorical.
func (b *Bundle) Vocabulary(field string) []string {
	if b.labelEncoder.Field() == field {
		return b.labelEncoder.Classes()
	}
	for _, enc := range b.oneHot {
		if enc.Field() == field {
			return enc.Categories()
		}
	}
	return nil
}

// CategoricalDescription describes one one-hot encoded field.
type CategoricalDescription struct {
	Field      string   `json:"field"`
	Categories []string `json:"categories"`
	Baseline   string   `json:"baseline"`
}

// Description is a serializable summary of a bundle for the model endpoint, the MCP
// describe tool, and the inspect command.
type Description struct {
	Metadata       Metadata                 `json:"metadata"`
	ClassifierKind string                   `json:"classifier_kind"`
	Columns        []string                 `json:"columns"`
	EncodedField   string                   `json:"label_encoded_field"`
	EncoderClasses []string                 `json:"label_encoder_classes"`
	Categorical    []CategoricalDescription `json:"categorical"`
	Warnings       []string                 `json:"warnings,omitempty"`
}

// Describe summarizes the bundle.
func (b *Bundle) Describe() Description {
	d := Description{
		Metadata:       b.metadata,
		ClassifierKind: b.classifier.Kind(),
		Columns:        b.Columns(),
		EncodedField:   b.labelEncoder.Field(),
		EncoderClasses: b.labelEncoder.Classes(),
		Warnings:       b.Warnings(),
	}
	for _, enc := range b.oneHot {
		d.Categorical = append(d.Categorical, CategoricalDescription{
			Field:      enc.Field(),
			Categories: enc.Categories(),
			Baseline:   enc.Baseline(),
		})
	}
	return d
}

// NumericFields are the record fields passed through to the feature vector unchanged.
var NumericFields = []string{
	domain.FieldAge,
	domain.FieldHemoglobinLevel,
	domain.FieldLengthOfStay,
}

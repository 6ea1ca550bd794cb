package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readmission-risk-server/internal/domain"
	"github.com/readmission-risk-server/internal/model"
	"github.com/readmission-risk-server/internal/model/modeltest"
)

func TestNewBundle_Fixture(t *testing.T) {
	b, err := model.NewBundle(modeltest.Components())
	require.NoError(t, err)

	assert.Equal(t, modeltest.Columns, b.Columns())
	assert.Empty(t, b.Warnings())
	assert.Equal(t, model.KindLogisticRegression, b.Classifier().Kind())

	i, ok := b.ColumnIndex("Treatment_Other")
	assert.True(t, ok)
	assert.Equal(t, 9, i)

	assert.Equal(t, []string{"Female", "Male"}, b.Vocabulary(domain.FieldGender))
	assert.Equal(t, []string{"Other", "Sepsis", "Severe Malaria", "Typhoid Fever"}, b.Vocabulary(domain.FieldPrimaryDiagnosis))
	assert.Nil(t, b.Vocabulary(domain.FieldAge))
}

func TestNewBundle_Inconsistent(t *testing.T) {
	narrowScaler, err := model.NewStandardScaler([]float64{0, 0}, []float64{1, 1})
	require.NoError(t, err)
	narrowModel, err := model.NewLogisticRegression([]float64{1, 1}, 0)
	require.NoError(t, err)
	otherEncoder, err := model.NewLabelEncoder("Sex", []string{"F", "M"})
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(c *model.Components)
		width  bool
	}{
		{"no columns", func(c *model.Components) { c.Columns = nil }, false},
		{"duplicate column", func(c *model.Components) { c.Columns[1] = c.Columns[0] }, false},
		{"no label encoder", func(c *model.Components) { c.LabelEncoder = nil }, false},
		{"no scaler", func(c *model.Components) { c.Scaler = nil }, false},
		{"no classifier", func(c *model.Components) { c.Classifier = nil }, false},
		{"encoded field missing", func(c *model.Components) { c.LabelEncoder = otherEncoder }, false},
		{"scaler width", func(c *model.Components) { c.Scaler = narrowScaler }, true},
		{"classifier width", func(c *model.Components) { c.Classifier = narrowModel }, true},
		{"field encoded twice", func(c *model.Components) { c.OneHot = append(c.OneHot, c.OneHot[0]) }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := modeltest.Components()
			tt.mutate(&c)

			_, err := model.NewBundle(c)
			require.Error(t, err)
			if tt.width {
				assert.ErrorIs(t, err, model.ErrWidthMismatch)
			}
		})
	}
}

func TestNewBundle_MissingIndicatorIsWarning(t *testing.T) {
	c := modeltest.Components()
	extra, err := model.NewOneHotEncoder(domain.FieldTreatment,
		[]string{"Broad-Spectrum Antibiotics", "Ceftriaxone", "IV Artesunate", "Other", "Quinine"}, "Broad-Spectrum Antibiotics")
	require.NoError(t, err)
	c.OneHot[1] = extra

	b, err := model.NewBundle(c)
	require.NoError(t, err)
	require.Len(t, b.Warnings(), 1)
	assert.Contains(t, b.Warnings()[0], "Treatment_Quinine")
}

func TestNewBundle_UnproducibleColumn(t *testing.T) {
	tests := []struct {
		name   string
		index  int
		column string
	}{
		{"misspelled numeric field", 2, "Hemoglobin Level"},
		{"category not in vocabulary", 5, "Primary_Diagnosis_Malaria"},
		{"one-hot source field", 4, domain.FieldPrimaryDiagnosis},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := modeltest.Components()
			c.Columns[tt.index] = tt.column

			_, err := model.NewBundle(c)
			require.Error(t, err)
			assert.ErrorIs(t, err, model.ErrUnknownColumn)
			assert.Contains(t, err.Error(), tt.column)
		})
	}
}

func TestNewBundle_UnencodedFieldIsProducible(t *testing.T) {
	c := modeltest.Components()
	c.OneHot = c.OneHot[:1]
	c.Columns[7] = domain.FieldTreatment

	_, err := model.NewBundle(c)
	assert.NoError(t, err)
}

func TestBundle_Describe(t *testing.T) {
	d := modeltest.Bundle().Describe()

	assert.Equal(t, "readmission-risk-fixture", d.Metadata.Name)
	assert.Equal(t, model.KindLogisticRegression, d.ClassifierKind)
	assert.Equal(t, domain.FieldGender, d.EncodedField)
	assert.Equal(t, []string{"Female", "Male"}, d.EncoderClasses)
	require.Len(t, d.Categorical, 2)
	assert.Equal(t, domain.FieldPrimaryDiagnosis, d.Categorical[0].Field)
	assert.Equal(t, "Other", d.Categorical[0].Baseline)
	assert.Equal(t, "Broad-Spectrum Antibiotics", d.Categorical[1].Baseline)
}

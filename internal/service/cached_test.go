package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/readmission-risk-server/internal/domain"
	"github.com/readmission-risk-server/internal/model/modeltest"
)

type mockAssessor struct {
	mock.Mock
}

func (m *mockAssessor) Assess(input domain.PatientInput) (*domain.RiskAssessment, error) {
	args := m.Called(input)
	a, _ := args.Get(0).(*domain.RiskAssessment)
	return a, args.Error(1)
}

func (m *mockAssessor) Features(input domain.PatientInput) (*domain.FeatureVector, error) {
	args := m.Called(input)
	fv, _ := args.Get(0).(*domain.FeatureVector)
	return fv, args.Error(1)
}

func TestCachedAssessor_MemoizesSuccess(t *testing.T) {
	next := new(mockAssessor)
	input := domain.DefaultPatientInput()
	want := domain.DefaultDecisionPolicy().Decide(0.42)
	next.On("Assess", input).Return(&want, nil).Once()

	c, err := NewCachedAssessor(next, 16)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		got, err := c.Assess(input)
		require.NoError(t, err)
		assert.Equal(t, want, *got)
	}

	next.AssertNumberOfCalls(t, "Assess", 1)
	assert.Equal(t, uint64(2), c.Hits())
	assert.Equal(t, uint64(1), c.Misses())
	assert.Equal(t, 1, c.Len())
}

func TestCachedAssessor_DoesNotCacheErrors(t *testing.T) {
	next := new(mockAssessor)
	input := domain.DefaultPatientInput()
	input.Gender = "Unknown"
	next.On("Assess", input).Return(nil, domain.NewUnknownCategoryError(domain.FieldGender, "Unknown", []string{"Female", "Male"}))

	c, err := NewCachedAssessor(next, 16)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		a, err := c.Assess(input)
		assert.Nil(t, a)
		assert.ErrorIs(t, err, domain.ErrValidation)
	}

	next.AssertNumberOfCalls(t, "Assess", 2)
	assert.Zero(t, c.Len())
}

func TestCachedAssessor_MatchesPipeline(t *testing.T) {
	p := newTestPipeline(t, modeltest.Bundle())
	c, err := NewCachedAssessor(p, 4)
	require.NoError(t, err)

	input := domain.DefaultPatientInput()
	direct, err := p.Assess(input)
	require.NoError(t, err)

	first, err := c.Assess(input)
	require.NoError(t, err)
	cached, err := c.Assess(input)
	require.NoError(t, err)

	assert.Equal(t, *direct, *first)
	assert.Equal(t, *direct, *cached)
}

func TestCachedAssessor_EvictsLeastRecentlyUsed(t *testing.T) {
	p := newTestPipeline(t, modeltest.Bundle())
	c, err := NewCachedAssessor(p, 2)
	require.NoError(t, err)

	for age := 40; age < 45; age++ {
		input := domain.DefaultPatientInput()
		input.Age = age
		_, err := c.Assess(input)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, c.Len())

	c.Purge()
	assert.Zero(t, c.Len())
}

func TestCachedAssessor_FeaturesPassThrough(t *testing.T) {
	next := new(mockAssessor)
	input := domain.DefaultPatientInput()
	fv := &domain.FeatureVector{Columns: []string{"Age"}, Values: []float64{45}}
	next.On("Features", input).Return(fv, nil).Twice()

	c, err := NewCachedAssessor(next, 4)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		got, err := c.Features(input)
		require.NoError(t, err)
		assert.Same(t, fv, got)
	}
	next.AssertExpectations(t)
}

func TestNewCachedAssessor_Invalid(t *testing.T) {
	_, err := NewCachedAssessor(nil, 4)
	assert.Error(t, err)

	_, err = NewCachedAssessor(new(mockAssessor), 0)
	assert.Error(t, err)
}

package service

import (
	"fmt"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/readmission-risk-server/internal/domain"
)

// CachedAssessor memoizes successful assessments of an underlying pure Assessor.
// Failed assessments are never cached.
type CachedAssessor struct {
	next   domain.Assessor
	cache  *lru.Cache[domain.PatientInput, domain.RiskAssessment]
	hits   atomic.Uint64
	misses atomic.Uint64
}

var _ domain.Assessor = (*CachedAssessor)(nil)

// NewCachedAssessor wraps next with an LRU of at most size entries.
func NewCachedAssessor(next domain.Assessor, size int) (*CachedAssessor, error) {
	if next == nil {
		return nil, fmt.Errorf("cached assessor requires an assessor")
	}
	cache, err := lru.New[domain.PatientInput, domain.RiskAssessment](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create assessment cache: %w", err)
	}
	return &CachedAssessor{next: next, cache: cache}, nil
}

// Assess returns the cached assessment for input, computing it on a miss.
func (c *CachedAssessor) Assess(input domain.PatientInput) (*domain.RiskAssessment, error) {
	if a, ok := c.cache.Get(input); ok {
		c.hits.Add(1)
		return &a, nil
	}
	c.misses.Add(1)

	a, err := c.next.Assess(input)
	if err != nil {
		return nil, err
	}
	c.cache.Add(input, *a)
	return a, nil
}

// Features is not cached.
func (c *CachedAssessor) Features(input domain.PatientInput) (*domain.FeatureVector, error) {
	return c.next.Features(input)
}

// Len returns the number of cached assessments.
func (c *CachedAssessor) Len() int {
	return c.cache.Len()
}

// Hits returns the number of assessments served from the cache.
func (c *CachedAssessor) Hits() uint64 {
	return c.hits.Load()
}

// Misses returns the number of assessments that reached the underlying assessor.
func (c *CachedAssessor) Misses() uint64 {
	return c.misses.Load()
}

// Purge drops every cached assessment.
func (c *CachedAssessor) Purge() {
	c.cache.Purge()
}

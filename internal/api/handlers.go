package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/readmission-risk-server/internal/domain"
	"github.com/readmission-risk-server/internal/middleware"
	"github.com/readmission-risk-server/internal/model"
)

// AssessResponse is the body of a successful assessment.
type AssessResponse struct {
	Assessment domain.RiskAssessment `json:"assessment"`
	Display    domain.Display        `json:"display"`
}

// ModelResponse describes the loaded bundle and decision policy.
type ModelResponse struct {
	Model  model.Description     `json:"model"`
	Policy domain.DecisionPolicy `json:"policy"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":        "healthy",
		"timestamp":     time.Now().UTC(),
		"version":       s.version,
		"model_version": s.bundle.Metadata().Version,
	})
}

func (s *Server) handleModel(c *gin.Context) {
	c.JSON(http.StatusOK, ModelResponse{
		Model:  s.bundle.Describe(),
		Policy: s.configManager.GetDecisionPolicy(),
	})
}

func (s *Server) handleAssess(c *gin.Context) {
	input, ok := s.bindPatient(c)
	if !ok {
		return
	}

	start := time.Now()
	assessment, err := s.assessor.Assess(input)
	if s.metrics != nil {
		s.metrics.ObserveAssessment("http", assessment, err, time.Since(start))
	}
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, AssessResponse{
		Assessment: *assessment,
		Display:    assessment.Display(),
	})
}

func (s *Server) handleFeatures(c *gin.Context) {
	input, ok := s.bindPatient(c)
	if !ok {
		return
	}

	features, err := s.assessor.Features(input)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, features)
}

// bindPatient decodes the request body strictly: unknown fields and anything after
// the patient object are rejected, so a misspelled attribute cannot silently fall back
// to its zero value.
func (s *Server) bindPatient(c *gin.Context) (domain.PatientInput, bool) {
	var input domain.PatientInput

	dec := json.NewDecoder(c.Request.Body)
	dec.DisallowUnknownFields()
	err := dec.Decode(&input)
	if err == nil {
		var tooLarge *http.MaxBytesError
		switch extra := dec.Decode(&struct{}{}); {
		case extra == io.EOF:
		case errors.As(extra, &tooLarge):
			err = extra
		default:
			err = errors.New("request body must contain a single JSON object")
		}
	}
	if err != nil {
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		c.AbortWithStatusJSON(status, domain.NewAPIError(
			domain.ErrInvalidInput,
			"Request body is not a valid patient record",
			err.Error(),
			middleware.GetCorrelationID(c),
		))
		return input, false
	}
	return input, true
}

// writeError maps pipeline errors onto HTTP responses. Internal failures are logged
// with their cause but reported to the client without it.
func (s *Server) writeError(c *gin.Context, err error) {
	requestID := middleware.GetCorrelationID(c)
	code := domain.ErrorCode(err)

	switch {
	case domain.IsValidationError(err):
		apiErr := domain.NewAPIError(code, validationMessage(err), err.Error(), requestID)
		apiErr.Field = domain.ErrorField(err)
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, apiErr)
	default:
		s.logger.WithFields(logrus.Fields{
			"correlation_id": requestID,
			"code":           code,
		}).WithError(err).Error("assessment failed")
		c.AbortWithStatusJSON(http.StatusInternalServerError, domain.NewAPIError(
			code,
			"The assessment could not be computed",
			"",
			requestID,
		))
	}
}

func validationMessage(err error) string {
	var unknown *domain.UnknownCategoryError
	if errors.As(err, &unknown) {
		return unknown.UserMessage()
	}
	var invalid *domain.ValidationError
	if errors.As(err, &invalid) {
		return invalid.Error()
	}
	return "Invalid patient record"
}

package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/readmission-risk-server/internal/domain"
	"github.com/readmission-risk-server/internal/model"
)

// Tool names.
const (
	AssessToolName   = "assess_readmission_risk"
	DescribeToolName = "describe_readmission_model"
)

// AssessArgs are the arguments of the assessment tool.
type AssessArgs struct {
	Age              int     `json:"age" jsonschema:"patient age in years (1-110)"`
	Gender           string  `json:"gender" jsonschema:"Male or Female"`
	PrimaryDiagnosis string  `json:"primary_diagnosis" jsonschema:"one of: Sepsis; Severe Malaria; Typhoid Fever; Other"`
	Treatment        string  `json:"treatment" jsonschema:"one of: Broad-Spectrum Antibiotics; IV Artesunate; Ceftriaxone; Other"`
	HemoglobinLevel  float64 `json:"hemoglobin_level" jsonschema:"hemoglobin level in g/dL (1.0-20.0)"`
	LengthOfStay     int     `json:"length_of_stay" jsonschema:"length of the hospital stay in days (1-60)"`
}

// PatientInput converts the tool arguments.
func (a AssessArgs) PatientInput() domain.PatientInput {
	return domain.PatientInput{
		Age:              a.Age,
		Gender:           a.Gender,
		PrimaryDiagnosis: a.PrimaryDiagnosis,
		Treatment:        a.Treatment,
		HemoglobinLevel:  a.HemoglobinLevel,
		LengthOfStay:     a.LengthOfStay,
	}
}

// AssessOutput is the structured result of the assessment tool.
type AssessOutput struct {
	Label              domain.RiskLabel `json:"label"`
	Probability        float64          `json:"probability"`
	ProbabilityPercent string           `json:"probability_percent"`
	Recommendation     string           `json:"recommendation"`
	Threshold          float64          `json:"threshold"`
}

// DescribeArgs takes no arguments.
type DescribeArgs struct{}

// DescribeOutput is the structured result of the describe tool.
type DescribeOutput struct {
	Model  model.Description     `json:"model"`
	Policy domain.DecisionPolicy `json:"policy"`
}

// handleAssess runs one assessment. Invalid patient attributes come back as a tool
// error result the model can read and correct, not as a protocol error.
func (s *LiteServer) handleAssess(ctx context.Context, req *mcp.CallToolRequest, args AssessArgs) (*mcp.CallToolResult, AssessOutput, error) {
	start := time.Now()
	assessment, err := s.assessor.Assess(args.PatientInput())
	if err != nil {
		entry := s.logger.WithFields(logrus.Fields{
			"tool": AssessToolName,
			"code": domain.ErrorCode(err),
		}).WithError(err)
		if domain.IsValidationError(err) {
			entry.Warn("Assessment rejected")
		} else {
			entry.Error("Assessment failed")
		}
		return toolError(err), AssessOutput{}, nil
	}

	s.logger.WithFields(logrus.Fields{
		"tool":     AssessToolName,
		"label":    assessment.Label,
		"duration": time.Since(start).String(),
	}).Info("Tool invoked")

	text := assessment.Summary() + "\n" + assessment.Recommendation
	return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: text}},
		}, AssessOutput{
			Label:              assessment.Label,
			Probability:        assessment.Probability,
			ProbabilityPercent: assessment.ProbabilityPercent(),
			Recommendation:     assessment.Recommendation,
			Threshold:          assessment.Threshold,
		}, nil
}

func (s *LiteServer) handleDescribe(ctx context.Context, req *mcp.CallToolRequest, _ DescribeArgs) (*mcp.CallToolResult, DescribeOutput, error) {
	out := DescribeOutput{
		Model:  s.bundle.Describe(),
		Policy: s.policy,
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Classifier: %s\n", out.Model.ClassifierKind)
	fmt.Fprintf(&b, "Threshold: HIGH_RISK when probability > %g\n", out.Policy.Threshold)
	fmt.Fprintf(&b, "%s: %s\n", out.Model.EncodedField, strings.Join(out.Model.EncoderClasses, ", "))
	for _, c := range out.Model.Categorical {
		fmt.Fprintf(&b, "%s: %s (baseline %s)\n", c.Field, strings.Join(c.Categories, ", "), c.Baseline)
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: strings.TrimRight(b.String(), "\n")}},
	}, out, nil
}

// toolError renders err as a tool error result. Internal failures are not described
// beyond their code.
func toolError(err error) *mcp.CallToolResult {
	var text string
	var unknown *domain.UnknownCategoryError
	switch {
	case errors.As(err, &unknown):
		text = fmt.Sprintf("%s: %s (accepted: %s)", domain.ErrUnknownCategory, unknown.UserMessage(), strings.Join(unknown.Known, ", "))
	case domain.IsValidationError(err):
		text = fmt.Sprintf("%s: %v", domain.ErrorCode(err), err)
	default:
		text = fmt.Sprintf("%s: the assessment could not be computed", domain.ErrorCode(err))
	}
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

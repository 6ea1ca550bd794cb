package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/readmission-risk-server/internal/domain"
	"github.com/readmission-risk-server/internal/form"
	"github.com/readmission-risk-server/internal/service"
)

// assessResult is the --json output of assess and form.
type assessResult struct {
	Input      domain.PatientInput    `json:"input"`
	Assessment *domain.RiskAssessment `json:"assessment"`
	Display    domain.Display         `json:"display"`
}

func newAssessCommand(opts *globalOptions) *cobra.Command {
	var (
		input   domain.PatientInput
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "assess",
		Short: "Assess one patient from flags",
		Example: `  readmission assess --age 85 --gender Female --diagnosis "Severe Malaria" \
    --treatment "IV Artesunate" --hemoglobin 8 --length-of-stay 14`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pipeline, err := opts.pipeline(cmd)
			if err != nil {
				return err
			}
			return assessAndPrint(cmd, opts, pipeline, input, jsonOut)
		},
	}

	addPatientFlags(cmd, &input)
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the assessment as JSON")

	return cmd
}

// assessAndPrint runs one assessment and writes it to the command output. Rejected
// input is reported on stderr and nothing else is printed.
func assessAndPrint(cmd *cobra.Command, opts *globalOptions, pipeline *service.Pipeline, input domain.PatientInput, jsonOut bool) error {
	assessment, err := pipeline.Assess(input)
	if err != nil {
		opts.logger(cmd).WithError(err).WithField("code", domain.ErrorCode(err)).Debug("Assessment rejected")
		form.RenderError(cmd.ErrOrStderr(), err)
		return &RejectedError{Err: err}
	}

	if jsonOut {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(assessResult{Input: input, Assessment: assessment, Display: assessment.Display()})
	}
	form.Render(cmd.OutOrStdout(), *assessment)
	return nil
}

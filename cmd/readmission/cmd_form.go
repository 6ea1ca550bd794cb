package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/readmission-risk-server/internal/domain"
	"github.com/readmission-risk-server/internal/form"
)

func newFormCommand(opts *globalOptions) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "form",
		Short: "Enter patient details interactively and assess them",
		Long: `Form asks for the patient's details and then prints the readmission risk.

When standard input is not a terminal the form reads one answer per line.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Fail on a missing bundle before asking anything.
			pipeline, err := opts.pipeline(cmd)
			if err != nil {
				return err
			}

			input, err := form.Run(cmd.InOrStdin(), cmd.OutOrStdout(), domain.DefaultPatientInput())
			if errors.Is(err, form.ErrAborted) {
				return nil
			}
			if err != nil {
				if domain.IsValidationError(err) {
					form.RenderError(cmd.ErrOrStderr(), err)
					return &RejectedError{Err: err}
				}
				return err
			}
			return assessAndPrint(cmd, opts, pipeline, input, jsonOut)
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the assessment as JSON")

	return cmd
}

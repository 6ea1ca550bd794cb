package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/readmission-risk-server/internal/domain"
	"github.com/readmission-risk-server/internal/form"
	"github.com/readmission-risk-server/internal/model"
)

func newInspectCommand(opts *globalOptions) *cobra.Command {
	var (
		input    domain.PatientInput
		features bool
		jsonOut  bool
	)

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Describe the model bundle",
		Long: `Inspect prints the bundle's feature columns, accepted categorical values and
decision threshold. With --features it also prints the aligned, unscaled feature
vector built from the patient flags.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pipeline, err := opts.pipeline(cmd)
			if err != nil {
				return err
			}
			desc := pipeline.Bundle().Describe()
			out := cmd.OutOrStdout()

			var vector *domain.FeatureVector
			if features {
				vector, err = pipeline.Features(input)
				if err != nil {
					form.RenderError(cmd.ErrOrStderr(), err)
					return &RejectedError{Err: err}
				}
			}

			if jsonOut {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(struct {
					Model    model.Description     `json:"model"`
					Policy   domain.DecisionPolicy `json:"policy"`
					Features *domain.FeatureVector `json:"features,omitempty"`
				}{desc, pipeline.Policy(), vector})
			}

			fmt.Fprintf(out, "Model:      %s %s\n", desc.Metadata.Name, desc.Metadata.Version)
			fmt.Fprintf(out, "Classifier: %s\n", desc.ClassifierKind)
			fmt.Fprintf(out, "Threshold:  HIGH_RISK when probability > %g\n", pipeline.Policy().Threshold)
			fmt.Fprintf(out, "Columns:    %s\n", strings.Join(desc.Columns, ", "))
			fmt.Fprintf(out, "%s: %s\n", desc.EncodedField, strings.Join(desc.EncoderClasses, ", "))
			for _, c := range desc.Categorical {
				fmt.Fprintf(out, "%s: %s (baseline %s)\n", c.Field, strings.Join(c.Categories, ", "), c.Baseline)
			}
			for _, w := range desc.Warnings {
				fmt.Fprintf(out, "warning: %s\n", w)
			}
			if vector != nil {
				fmt.Fprintln(out)
				for i, col := range vector.Columns {
					fmt.Fprintf(out, "%-36s %g\n", col, vector.Values[i])
				}
			}
			return nil
		},
	}

	addPatientFlags(cmd, &input)
	cmd.Flags().BoolVar(&features, "features", false, "Print the aligned feature vector for the patient flags")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print as JSON")

	return cmd
}

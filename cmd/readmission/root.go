package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/readmission-risk-server/internal/config"
	"github.com/readmission-risk-server/internal/domain"
	"github.com/readmission-risk-server/internal/model"
	"github.com/readmission-risk-server/internal/service"
)

var version = "dev"

// bundleLoader reads a model bundle from disk.
var bundleLoader = model.Load

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	bundlePath string
	threshold  float64
	debug      bool
}

func newRootCommand() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "readmission",
		Short: "Estimate 30-day hospital readmission risk",
		Long: `Readmission estimates the probability that a patient is readmitted within
30 days of discharge, using a model bundle produced by the training pipeline.

The bundle path and decision threshold default to READMISSION_BUNDLE_PATH and
READMISSION_THRESHOLD (a .env file in the working directory is read too).`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	lite := config.LoadLiteConfig()
	cmd.PersistentFlags().StringVar(&opts.bundlePath, "bundle", lite.BundlePath, "Path to the model bundle")
	cmd.PersistentFlags().Float64Var(&opts.threshold, "threshold", lite.Threshold, "Decision threshold; probabilities above it are HIGH_RISK")
	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")

	cmd.AddCommand(newFormCommand(opts))
	cmd.AddCommand(newAssessCommand(opts))
	cmd.AddCommand(newInspectCommand(opts))

	return cmd
}

func (o *globalOptions) logger(cmd *cobra.Command) *logrus.Logger {
	level := "warn"
	if o.debug {
		level = "debug"
	}
	logger := config.NewLogger(domain.LoggingConfig{Level: level, Format: "text", Output: "stderr"})
	logger.SetOutput(cmd.ErrOrStderr())
	return logger
}

// loadBundle reads the configured bundle. Bundle warnings go to the log.
func (o *globalOptions) loadBundle(cmd *cobra.Command) (*model.Bundle, error) {
	logger := o.logger(cmd)
	bundle, err := bundleLoader(o.bundlePath)
	if err != nil {
		return nil, err
	}
	for _, w := range bundle.Warnings() {
		logger.WithField("bundle", o.bundlePath).Warn(w)
	}
	logger.WithFields(logrus.Fields{
		"bundle":     o.bundlePath,
		"classifier": bundle.Classifier().Kind(),
		"version":    bundle.Metadata().Version,
	}).Debug("Loaded model bundle")
	return bundle, nil
}

func (o *globalOptions) policy() (domain.DecisionPolicy, error) {
	p := domain.DefaultDecisionPolicy()
	p.Threshold = o.threshold
	if err := p.Validate(); err != nil {
		return p, fmt.Errorf("invalid --threshold: %w", err)
	}
	return p, nil
}

// pipeline loads the bundle and wires the inference pipeline.
func (o *globalOptions) pipeline(cmd *cobra.Command) (*service.Pipeline, error) {
	policy, err := o.policy()
	if err != nil {
		return nil, err
	}
	bundle, err := o.loadBundle(cmd)
	if err != nil {
		return nil, err
	}
	return service.NewPipeline(bundle, policy)
}

// addPatientFlags binds the patient attribute flags to p, starting from the form
// defaults.
func addPatientFlags(cmd *cobra.Command, p *domain.PatientInput) {
	d := domain.DefaultPatientInput()
	cmd.Flags().IntVar(&p.Age, "age", d.Age, "Age in years")
	cmd.Flags().StringVar(&p.Gender, "gender", d.Gender, "Gender (Male or Female)")
	cmd.Flags().StringVar(&p.PrimaryDiagnosis, "diagnosis", d.PrimaryDiagnosis, "Primary diagnosis")
	cmd.Flags().StringVar(&p.Treatment, "treatment", d.Treatment, "Treatment given")
	cmd.Flags().Float64Var(&p.HemoglobinLevel, "hemoglobin", d.HemoglobinLevel, "Hemoglobin level in g/dL")
	cmd.Flags().IntVar(&p.LengthOfStay, "length-of-stay", d.LengthOfStay, "Length of stay in days")
}

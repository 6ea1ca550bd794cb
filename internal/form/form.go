// Package form collects patient attributes from an operator in the terminal and
// renders the resulting risk assessment.
package form

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/readmission-risk-server/internal/domain"
)

// ErrAborted is returned when the operator leaves the form without submitting.
var ErrAborted = errors.New("form aborted")

// Values holds the form state. Numeric fields are kept as text while the operator
// edits them.
type Values struct {
	Age              string
	Gender           string
	PrimaryDiagnosis string
	Treatment        string
	HemoglobinLevel  string
	LengthOfStay     string
}

// ValuesFrom renders a patient input as form state.
func ValuesFrom(p domain.PatientInput) Values {
	return Values{
		Age:              strconv.Itoa(p.Age),
		Gender:           p.Gender,
		PrimaryDiagnosis: p.PrimaryDiagnosis,
		Treatment:        p.Treatment,
		HemoglobinLevel:  strconv.FormatFloat(p.HemoglobinLevel, 'f', 1, 64),
		LengthOfStay:     strconv.Itoa(p.LengthOfStay),
	}
}

// PatientInput parses the form state. Categorical values are passed through as
// selected; membership is checked by the pipeline against the fitted vocabularies.
func (v Values) PatientInput() (domain.PatientInput, error) {
	age, err := parseAge(v.Age)
	if err != nil {
		return domain.PatientInput{}, err
	}
	hb, err := parseHemoglobin(v.HemoglobinLevel)
	if err != nil {
		return domain.PatientInput{}, err
	}
	los, err := parseLengthOfStay(v.LengthOfStay)
	if err != nil {
		return domain.PatientInput{}, err
	}
	return domain.PatientInput{
		Age:              age,
		Gender:           v.Gender,
		PrimaryDiagnosis: v.PrimaryDiagnosis,
		Treatment:        v.Treatment,
		HemoglobinLevel:  hb,
		LengthOfStay:     los,
	}, nil
}

func parseInt(field, s string, lo, hi int, unit string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, domain.NewValidationError(field, "must be a whole number", s)
	}
	if n < lo || n > hi {
		return 0, domain.NewValidationError(field, fmt.Sprintf("must be between %d and %d%s", lo, hi, unit), n)
	}
	return n, nil
}

func parseAge(s string) (int, error) {
	return parseInt(domain.FieldAge, s, domain.MinAge, domain.MaxAge, "")
}

func parseLengthOfStay(s string) (int, error) {
	return parseInt(domain.FieldLengthOfStay, s, domain.MinLengthOfStay, domain.MaxLengthOfStay, " days")
}

func parseHemoglobin(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, domain.NewValidationError(domain.FieldHemoglobinLevel, "must be a number", s)
	}
	if math.IsNaN(f) || f < domain.MinHemoglobinLevel || f > domain.MaxHemoglobinLevel {
		return 0, domain.NewValidationError(domain.FieldHemoglobinLevel,
			fmt.Sprintf("must be between %.1f and %.1f g/dL", domain.MinHemoglobinLevel, domain.MaxHemoglobinLevel), f)
	}
	return f, nil
}

// New builds the intake form bound to v. Input that is not a terminal switches the
// form to accessible mode, which reads plain lines.
func New(in io.Reader, out io.Writer, v *Values) *huh.Form {
	f := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Age").
				Description(fmt.Sprintf("Years, %d-%d", domain.MinAge, domain.MaxAge)).
				Value(&v.Age).
				Validate(func(s string) error {
					_, err := parseAge(s)
					return err
				}),
			huh.NewSelect[string]().
				Title("Gender").
				Options(huh.NewOptions(domain.GenderOptions...)...).
				Value(&v.Gender),
			huh.NewSelect[string]().
				Title("Primary Diagnosis").
				Options(huh.NewOptions(domain.DiagnosisOptions...)...).
				Value(&v.PrimaryDiagnosis),
			huh.NewSelect[string]().
				Title("Treatment Given").
				Options(huh.NewOptions(domain.TreatmentOptions...)...).
				Value(&v.Treatment),
			huh.NewInput().
				Title("Hemoglobin Level (g/dL)").
				Description(fmt.Sprintf("%.1f-%.1f", domain.MinHemoglobinLevel, domain.MaxHemoglobinLevel)).
				Value(&v.HemoglobinLevel).
				Validate(func(s string) error {
					_, err := parseHemoglobin(s)
					return err
				}),
			huh.NewInput().
				Title("Length of Stay (days)").
				Description(fmt.Sprintf("%d-%d", domain.MinLengthOfStay, domain.MaxLengthOfStay)).
				Value(&v.LengthOfStay).
				Validate(func(s string) error {
					_, err := parseLengthOfStay(s)
					return err
				}),
		).Title("Patient Details"),
	).
		WithInput(in).
		WithOutput(out)

	if file, ok := in.(*os.File); !ok || !term.IsTerminal(int(file.Fd())) {
		f = f.WithAccessible(true)
	}
	return f
}

// Run shows the form starting from initial and returns the submitted patient input.
func Run(in io.Reader, out io.Writer, initial domain.PatientInput) (domain.PatientInput, error) {
	v := ValuesFrom(initial)
	if err := New(in, out, &v).Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return domain.PatientInput{}, ErrAborted
		}
		return domain.PatientInput{}, fmt.Errorf("form failed: %w", err)
	}
	return v.PatientInput()
}

// Render prints the assessment headline and the recommendation.
func Render(w io.Writer, a domain.RiskAssessment) {
	fmt.Fprintln(w, a.Summary())
	fmt.Fprintln(w, a.Recommendation)
}

// RenderError prints err the way the operator should see it. Unknown categories get
// the short prompt; internal failures are not described.
func RenderError(w io.Writer, err error) {
	var unknown *domain.UnknownCategoryError
	switch {
	case errors.As(err, &unknown):
		fmt.Fprintln(w, unknown.UserMessage())
	case domain.IsValidationError(err):
		fmt.Fprintf(w, "Error: %v\n", err)
	default:
		fmt.Fprintln(w, "Error: the assessment could not be computed.")
	}
}

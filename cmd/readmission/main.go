// Command readmission assesses 30-day readmission risk from the terminal.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/readmission-risk-server/internal/domain"
)

// Exit codes for different failure modes
const (
	ExitSuccess  = 0 // Assessment produced
	ExitRejected = 1 // Input rejected or the assessment could not be computed
	ExitError    = 2 // Missing bundle, configuration or usage error
)

// RejectedError reports an assessment that was attempted and refused. The operator
// has already been shown why.
type RejectedError struct {
	Err error
}

func (e *RejectedError) Error() string {
	return e.Err.Error()
}

func (e *RejectedError) Unwrap() error {
	return e.Err
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cmd := newRootCommand()
	cmd.SetArgs(args)
	err := cmd.Execute()
	return exitCode(err)
}

func exitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var rejected *RejectedError
	if errors.As(err, &rejected) {
		return ExitRejected
	}

	if errors.Is(err, domain.ErrBundleNotFound) {
		fmt.Fprintln(os.Stderr, domain.ErrBundleNotFound.Error())
	} else {
		fmt.Fprintln(os.Stderr, err)
	}
	return ExitError
}

package user

import "fmt"

type Counts struct {
	Users int64 `json:"users"`
}

// RunReport accumulates the outcome of one import run. It is created at run
// start and handed to every component explicitly.
type RunReport struct {
	Counts   Counts   `json:"counts"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func NewRunReport() *RunReport {
	return &RunReport{
		Errors:   []string{},
		Warnings: []string{},
	}
}

func (r *RunReport) AddError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *RunReport) AddWarning(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

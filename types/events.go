package types

import "time"

// Location identifies a position in a test source file
type Location struct {
	File   string `json:"file"`
	Line   int    `json:"line,omitempty"`
	Column int    `json:"column,omitempty"`
}

// StepError is the failure payload attached to an execution step.
// Presence means the step failed.
type StepError struct {
	Message string `json:"message,omitempty"`
	Stack   string `json:"stack,omitempty"`
}

// ExecutionStep is one node in the tree of actions reported for a test.
// Steps nest to unbounded depth; Steps holds the children in report order.
type ExecutionStep struct {
	Category string          `json:"category,omitempty"` // free-form tag, "expect" marks an assertion
	Title    string          `json:"title"`
	Duration int64           `json:"duration,omitempty"` // milliseconds
	Error    *StepError      `json:"error,omitempty"`
	Location *Location       `json:"location,omitempty"`
	Steps    []ExecutionStep `json:"steps,omitempty"`
}

// Failed reports whether the step carries an error
func (s *ExecutionStep) Failed() bool {
	return s.Error != nil
}

// TestCase describes one test as declared in the source tree
type TestCase struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	GroupTitle string `json:"groupTitle,omitempty"` // immediate describe-block title, may be empty
	File       string `json:"file"`
	Line       int    `json:"line,omitempty"`
	Project    string `json:"project,omitempty"` // browser or environment label
}

// TestOutcome is the result payload delivered when a test completes
type TestOutcome struct {
	Status    string          `json:"status"`
	Duration  int64           `json:"duration"` // milliseconds
	Retry     int             `json:"retry"`    // zero-based attempt index
	Retries   int             `json:"retries"`  // configured retry limit
	StartedAt time.Time       `json:"startedAt"`
	Error     *StepError      `json:"error,omitempty"`
	Steps     []ExecutionStep `json:"steps,omitempty"`
}

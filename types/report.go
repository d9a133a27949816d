package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// AssertionOutcome is one verified expectation extracted from a test's step
// tree. Created transiently during extraction and never mutated afterwards.
type AssertionOutcome struct {
	Name     string `json:"name"`
	Passed   bool   `json:"passed"`
	Duration int64  `json:"duration"` // milliseconds
}

// TestRecord is the normalized record kept for one completed test.
// Immutable once appended to a group.
type TestRecord struct {
	Name       string             `json:"name"`
	Status     TestStatus         `json:"status"`
	Duration   int64              `json:"duration"` // milliseconds
	Assertions []AssertionOutcome `json:"assertions,omitempty"`
	Retries    string             `json:"retries,omitempty"` // "index/limit", set only when a retry occurred
	Browser    string             `json:"browser,omitempty"`
	File       string             `json:"file,omitempty"` // relative to the working directory
	Line       int                `json:"line,omitempty"`
	StartedAt  time.Time          `json:"startedAt"`

	// Carried for sinks and notifications, not serialized: the suite is
	// implied by the group key in the report, and failure text belongs to
	// detail artifacts only.
	Suite string `json:"-"`
	Error string `json:"-"`
}

// FailedAssertions returns the names of the record's failed assertions in
// extraction order
func (r *TestRecord) FailedAssertions() []string {
	var names []string
	for _, a := range r.Assertions {
		if !a.Passed {
			names = append(names, a.Name)
		}
	}
	return names
}

// SuiteGroups is an insertion-ordered mapping of suite name to the test
// records completed under it. Both the key order and the record order within
// a group are preserved end to end into the rendered report.
type SuiteGroups struct {
	names   []string
	records map[string][]*TestRecord
}

// NewSuiteGroups creates an empty group mapping
func NewSuiteGroups() *SuiteGroups {
	return &SuiteGroups{
		records: make(map[string][]*TestRecord),
	}
}

// Append adds a record to the named group, creating the group on first use.
// Records are never removed or reordered after this call.
func (g *SuiteGroups) Append(name string, record *TestRecord) {
	if _, exists := g.records[name]; !exists {
		g.names = append(g.names, name)
	}
	g.records[name] = append(g.records[name], record)
}

// Names returns the group names in insertion order
func (g *SuiteGroups) Names() []string {
	names := make([]string, len(g.names))
	copy(names, g.names)
	return names
}

// Records returns the records of the named group in completion order,
// or nil if the group does not exist
func (g *SuiteGroups) Records(name string) []*TestRecord {
	return g.records[name]
}

// Len returns the number of groups
func (g *SuiteGroups) Len() int {
	return len(g.names)
}

// TotalRecords returns the number of records across all groups
func (g *SuiteGroups) TotalRecords() int {
	total := 0
	for _, records := range g.records {
		total += len(records)
	}
	return total
}

// MarshalJSON serializes the groups as a JSON object whose keys appear in
// insertion order. encoding/json's native maps sort keys, which would break
// the ordering contract, so the object is assembled by hand.
func (g *SuiteGroups) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range g.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal group name %q: %w", name, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(g.records[name])
		if err != nil {
			return nil, fmt.Errorf("failed to marshal group %q: %w", name, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// RunSummary holds the aggregate counters derived once at run end
type RunSummary struct {
	TotalTests      int       `json:"totalTests"`
	Passed          int       `json:"passed"`
	Failed          int       `json:"failed"`
	Skipped         int       `json:"skipped"`
	TimedOut        int       `json:"timedOut"`
	TotalAssertions int       `json:"totalAssertions"`
	TotalRetries    int       `json:"totalRetries"` // tests that retried, not the sum of attempts
	Duration        string    `json:"duration"`     // wall time, "%.2fs"
	Timestamp       time.Time `json:"timestamp"`
	SuccessRate     string    `json:"successRate"` // "0%" when no tests ran
}

// OverallStatus collapses the summary counters into a single run-level
// status. Any failure-class outcome dominates, then success, then skips;
// an empty run is unknown.
func (s RunSummary) OverallStatus() TestStatus {
	switch {
	case s.Failed > 0 || s.TimedOut > 0:
		return TestStatusFailed
	case s.Passed > 0:
		return TestStatusPassed
	case s.Skipped > 0:
		return TestStatusSkipped
	default:
		return TestStatusUnknown
	}
}

// ReportMetadata carries static descriptive fields for a generated report
type ReportMetadata struct {
	Name        string    `json:"name"`
	Version     string    `json:"version"`
	GeneratedAt time.Time `json:"generatedAt"`
	RunID       string    `json:"runId"`
	Hostname    string    `json:"hostname,omitempty"`
}

// FinalReport is the terminal output artifact of a run. Field order matches
// the serialized key order: summary, testSuites, metadata.
type FinalReport struct {
	Summary    RunSummary     `json:"summary"`
	TestSuites *SuiteGroups   `json:"testSuites"`
	Metadata   ReportMetadata `json:"metadata"`
}

// FormatDuration renders a millisecond duration as seconds with two decimals
func FormatDuration(ms int64) string {
	return fmt.Sprintf("%.2fs", float64(ms)/1000)
}

package types

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuiteGroups_InsertionOrder(t *testing.T) {
	groups := NewSuiteGroups()
	groups.Append("Zebra Suite", &TestRecord{Name: "z1", Status: TestStatusPassed})
	groups.Append("Alpha Suite", &TestRecord{Name: "a1", Status: TestStatusPassed})
	groups.Append("Zebra Suite", &TestRecord{Name: "z2", Status: TestStatusFailed})
	groups.Append("Middle Suite", &TestRecord{Name: "m1", Status: TestStatusSkipped})

	// First-seen order, not lexical order
	assert.Equal(t, []string{"Zebra Suite", "Alpha Suite", "Middle Suite"}, groups.Names())
	assert.Equal(t, 3, groups.Len())
	assert.Equal(t, 4, groups.TotalRecords())

	// Records stay in completion order within their group
	zebra := groups.Records("Zebra Suite")
	require.Len(t, zebra, 2)
	assert.Equal(t, "z1", zebra[0].Name)
	assert.Equal(t, "z2", zebra[1].Name)

	assert.Nil(t, groups.Records("No Such Suite"))
}

func TestSuiteGroups_MarshalPreservesOrder(t *testing.T) {
	groups := NewSuiteGroups()
	groups.Append("Zebra Suite", &TestRecord{Name: "z1", Status: TestStatusPassed})
	groups.Append("Alpha Suite", &TestRecord{Name: "a1", Status: TestStatusPassed})

	data, err := json.Marshal(groups)
	require.NoError(t, err)

	out := string(data)
	zebraIdx := strings.Index(out, `"Zebra Suite"`)
	alphaIdx := strings.Index(out, `"Alpha Suite"`)
	require.NotEqual(t, -1, zebraIdx)
	require.NotEqual(t, -1, alphaIdx)
	assert.Less(t, zebraIdx, alphaIdx, "first-seen group must serialize first")

	// The serialized object must still parse as a plain JSON map
	var parsed map[string][]TestRecord
	require.NoError(t, json.Unmarshal(data, &parsed))
	assert.Len(t, parsed, 2)
	assert.Equal(t, "z1", parsed["Zebra Suite"][0].Name)
}

func TestSuiteGroups_MarshalEmpty(t *testing.T) {
	data, err := json.Marshal(NewSuiteGroups())
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))
}

func TestFinalReport_KeyOrder(t *testing.T) {
	report := &FinalReport{
		Summary:    RunSummary{TotalTests: 1, Passed: 1, SuccessRate: "100.0%"},
		TestSuites: NewSuiteGroups(),
		Metadata:   ReportMetadata{Name: "pw-reporter", Version: "0.1.0"},
	}
	report.TestSuites.Append("Suite", &TestRecord{Name: "t1", Status: TestStatusPassed})

	data, err := json.MarshalIndent(report, "", "  ")
	require.NoError(t, err)

	out := string(data)
	summaryIdx := strings.Index(out, `"summary"`)
	suitesIdx := strings.Index(out, `"testSuites"`)
	metadataIdx := strings.Index(out, `"metadata"`)
	assert.True(t, summaryIdx < suitesIdx && suitesIdx < metadataIdx,
		"expected key order summary, testSuites, metadata; got:\n%s", out)
}

func TestTestRecord_Serialization(t *testing.T) {
	rec := &TestRecord{
		Name:      "logs in",
		Status:    TestStatusFailed,
		Duration:  1250,
		StartedAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		Error:     "boom",
	}

	data, err := json.Marshal(rec)
	require.NoError(t, err)

	out := string(data)
	assert.NotContains(t, out, "retries", "empty retry info must be omitted")
	assert.NotContains(t, out, "assertions", "empty assertion list must be omitted")
	assert.NotContains(t, out, "boom", "failure text is for detail sinks, not the report")

	rec.Retries = "1/2"
	data, err = json.Marshal(rec)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"retries":"1/2"`)
}

func TestTestRecord_FailedAssertions(t *testing.T) {
	rec := &TestRecord{
		Assertions: []AssertionOutcome{
			{Name: "toBeVisible", Passed: true},
			{Name: "toHaveText welcome", Passed: false},
			{Name: "toHaveURL /home", Passed: false},
		},
	}
	assert.Equal(t, []string{"toHaveText welcome", "toHaveURL /home"}, rec.FailedAssertions())

	empty := &TestRecord{}
	assert.Empty(t, empty.FailedAssertions())
}

func TestRunSummary_OverallStatus(t *testing.T) {
	tests := []struct {
		name     string
		summary  RunSummary
		expected TestStatus
	}{
		{"all passed", RunSummary{Passed: 5}, TestStatusPassed},
		{"failure dominates", RunSummary{Passed: 4, Failed: 1}, TestStatusFailed},
		{"timeout counts as failure", RunSummary{Passed: 4, TimedOut: 1}, TestStatusFailed},
		{"skips only", RunSummary{Skipped: 2}, TestStatusSkipped},
		{"passes dominate skips", RunSummary{Passed: 1, Skipped: 2}, TestStatusPassed},
		{"empty run", RunSummary{}, TestStatusUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.summary.OverallStatus())
		})
	}
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "0.00s", FormatDuration(0))
	assert.Equal(t, "1.25s", FormatDuration(1250))
	assert.Equal(t, "0.50s", FormatDuration(500))
	assert.Equal(t, "90.00s", FormatDuration(90000))
}

package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected TestStatus
	}{
		{
			name:     "passed",
			raw:      "passed",
			expected: TestStatusPassed,
		},
		{
			name:     "failed",
			raw:      "failed",
			expected: TestStatusFailed,
		},
		{
			name:     "skipped",
			raw:      "skipped",
			expected: TestStatusSkipped,
		},
		{
			name:     "timed out",
			raw:      "timedOut",
			expected: TestStatusTimedOut,
		},
		{
			name:     "interrupted",
			raw:      "interrupted",
			expected: TestStatusInterrupted,
		},
		{
			name:     "unrecognized value",
			raw:      "exploded",
			expected: TestStatusUnknown,
		},
		{
			name:     "empty value",
			raw:      "",
			expected: TestStatusUnknown,
		},
		{
			name:     "wrong case is not recognized",
			raw:      "Passed",
			expected: TestStatusUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseStatus(tt.raw))
		})
	}
}

func TestStatusIcon(t *testing.T) {
	tests := []struct {
		name     string
		status   TestStatus
		expected string
	}{
		{name: "passed", status: TestStatusPassed, expected: "✅"},
		{name: "failed", status: TestStatusFailed, expected: "❌"},
		{name: "skipped", status: TestStatusSkipped, expected: "⏭️"},
		{name: "timed out", status: TestStatusTimedOut, expected: "⏰"},
		{name: "interrupted", status: TestStatusInterrupted, expected: "🚫"},
		{name: "unknown", status: TestStatusUnknown, expected: "❓"},
		{name: "unrecognized value", status: TestStatus("exploded"), expected: "❓"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.status.Icon())
		})
	}
}

func TestStatusLabel(t *testing.T) {
	assert.Equal(t, "PASSED", TestStatusPassed.Label())
	assert.Equal(t, "FAILED", TestStatusFailed.Label())
	assert.Equal(t, "SKIPPED", TestStatusSkipped.Label())
	assert.Equal(t, "TIMED OUT", TestStatusTimedOut.Label())
	assert.Equal(t, "INTERRUPTED", TestStatusInterrupted.Label())
	assert.Equal(t, "UNKNOWN", TestStatus("whatever").Label())
}

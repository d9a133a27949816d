package types

// TestStatus represents the possible outcomes of a completed test
type TestStatus string

const (
	TestStatusPassed      TestStatus = "passed"
	TestStatusFailed      TestStatus = "failed"
	TestStatusSkipped     TestStatus = "skipped"
	TestStatusTimedOut    TestStatus = "timedOut"
	TestStatusInterrupted TestStatus = "interrupted"
	TestStatusUnknown     TestStatus = "unknown"
)

// ParseStatus maps a raw status value onto the known enumeration.
// Unrecognized values become TestStatusUnknown rather than an error.
func ParseStatus(raw string) TestStatus {
	switch s := TestStatus(raw); s {
	case TestStatusPassed, TestStatusFailed, TestStatusSkipped, TestStatusTimedOut, TestStatusInterrupted:
		return s
	default:
		return TestStatusUnknown
	}
}

// Icon returns the display icon for a status. Unrecognized values map to a
// distinct unknown icon instead of failing.
func (s TestStatus) Icon() string {
	switch s {
	case TestStatusPassed:
		return "✅"
	case TestStatusFailed:
		return "❌"
	case TestStatusSkipped:
		return "⏭️"
	case TestStatusTimedOut:
		return "⏰"
	case TestStatusInterrupted:
		return "🚫"
	default:
		return "❓"
	}
}

// Label returns an uppercase result label for console and HTML output
func (s TestStatus) Label() string {
	switch s {
	case TestStatusPassed:
		return "PASSED"
	case TestStatusFailed:
		return "FAILED"
	case TestStatusSkipped:
		return "SKIPPED"
	case TestStatusTimedOut:
		return "TIMED OUT"
	case TestStatusInterrupted:
		return "INTERRUPTED"
	default:
		return "UNKNOWN"
	}
}

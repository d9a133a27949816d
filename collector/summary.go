package collector

import (
	"fmt"
	"time"

	"github.com/ethereum-optimism/infra/pw-reporter/types"
)

// Summarize derives the aggregate counters from the sealed group mapping.
// It runs once per run, after the run-end event, since the duration and the
// counts depend on the finalized state. Iteration is group-then-record order
// for determinism, though the result does not depend on it.
func Summarize(groups *types.SuiteGroups, runStart, runEnd time.Time) types.RunSummary {
	summary := types.RunSummary{
		Timestamp: time.Now(),
	}

	for _, name := range groups.Names() {
		for _, record := range groups.Records(name) {
			summary.TotalTests++
			switch record.Status {
			case types.TestStatusPassed:
				summary.Passed++
			case types.TestStatusFailed:
				summary.Failed++
			case types.TestStatusSkipped:
				summary.Skipped++
			case types.TestStatusTimedOut:
				summary.TimedOut++
			}
			// interrupted and unrecognized statuses count toward the total only
			summary.TotalAssertions += len(record.Assertions)
			if record.Retries != "" {
				summary.TotalRetries++
			}
		}
	}

	summary.Duration = formatRunDuration(runStart, runEnd)
	summary.SuccessRate = successRate(summary.Passed, summary.TotalTests)
	return summary
}

// successRate formats passed/total as a percentage with one decimal digit.
// A run with no tests reports "0%" instead of dividing by zero.
func successRate(passed, total int) string {
	if total == 0 {
		return "0%"
	}
	return fmt.Sprintf("%.1f%%", float64(passed)/float64(total)*100)
}

func formatRunDuration(start, end time.Time) string {
	d := end.Sub(start)
	if d < 0 {
		d = 0
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}

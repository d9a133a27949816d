package reporting

import (
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/ethereum-optimism/infra/pw-reporter/types"
	"github.com/ethereum-optimism/infra/pw-reporter/ui"
)

// ConsoleSink renders the finalized report to the terminal: one tree block
// per suite followed by an overview table colored by the run outcome.
type ConsoleSink struct {
	out        io.Writer
	reportPath string
}

// NewConsoleSink creates a console renderer. out may be nil, in which case
// os.Stdout is used. reportPath is echoed under the overview so the JSON
// artifact is easy to find.
func NewConsoleSink(out io.Writer, reportPath string) *ConsoleSink {
	if out == nil {
		out = os.Stdout
	}
	return &ConsoleSink{out: out, reportPath: reportPath}
}

// Consume is a no-op; per-test progress lines come from the collector's
// logger while the run is live
func (s *ConsoleSink) Consume(record *types.TestRecord, runID string) error {
	return nil
}

// Complete renders the suite trees and the overview table. Rendering is a
// pure function of the report: completing with the same report again
// produces the same bytes.
func (s *ConsoleSink) Complete(report *types.FinalReport, runID string) error {
	if report == nil {
		return fmt.Errorf("report cannot be nil")
	}
	s.printSuites(report.TestSuites)
	s.printOverview(report)
	return nil
}

func (s *ConsoleSink) printSuites(groups *types.SuiteGroups) {
	for _, name := range groups.Names() {
		records := groups.Records(name)
		fmt.Fprintf(s.out, "\n%s %s (%d tests)\n", suiteIcon(records), name, len(records))
		for i, record := range records {
			last := i == len(records)-1
			fmt.Fprintf(s.out, "%s%s\n", ui.BuildTreePrefix(1, last, nil), formatRecordLine(record))
			for j, assertion := range record.Assertions {
				assertionLast := j == len(record.Assertions)-1
				fmt.Fprintf(s.out, "%s%s %s (%s)\n",
					ui.BuildTreePrefix(2, assertionLast, []bool{last}),
					assertionChar(assertion),
					assertion.Name,
					types.FormatDuration(assertion.Duration))
			}
		}
	}
}

func (s *ConsoleSink) printOverview(report *types.FinalReport) {
	summary := report.Summary

	t := table.NewWriter()
	t.SetOutputMirror(s.out)
	t.AppendHeader(table.Row{"TOTAL", "PASSED", "FAILED", "SKIPPED", "TIMED OUT", "ASSERTIONS", "RETRIES", "SUCCESS", "DURATION"})
	t.AppendRow(table.Row{
		summary.TotalTests,
		summary.Passed,
		summary.Failed,
		summary.Skipped,
		summary.TimedOut,
		summary.TotalAssertions,
		summary.TotalRetries,
		summary.SuccessRate,
		summary.Duration,
	})

	switch {
	case summary.Failed > 0 || summary.TimedOut > 0:
		t.SetStyle(table.StyleColoredBlackOnRedWhite)
	case summary.Skipped > 0:
		t.SetStyle(table.StyleColoredBlackOnYellowWhite)
	default:
		t.SetStyle(table.StyleColoredBlackOnGreenWhite)
	}

	fmt.Fprintln(s.out)
	t.Render()
	if s.reportPath != "" {
		fmt.Fprintf(s.out, "Report: %s\n", s.reportPath)
	}
}

// formatRecordLine renders one test's console line
func formatRecordLine(record *types.TestRecord) string {
	line := fmt.Sprintf("%s %s (%s)", record.Status.Icon(), record.Name, types.FormatDuration(record.Duration))
	if record.Retries != "" {
		line += fmt.Sprintf(" (retry %s)", record.Retries)
	}
	return line
}

// suiteIcon derives a suite-level icon: any failure or timeout wins, then
// any skip, then the all-clear
func suiteIcon(records []*types.TestRecord) string {
	anySkip := false
	for _, record := range records {
		switch record.Status {
		case types.TestStatusFailed, types.TestStatusTimedOut:
			return "❌"
		case types.TestStatusSkipped:
			anySkip = true
		}
	}
	if anySkip {
		return "⚠️"
	}
	return "✅"
}

func assertionChar(assertion types.AssertionOutcome) string {
	if assertion.Passed {
		return "✓"
	}
	return "✗"
}

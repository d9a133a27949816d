package notify

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum-optimism/infra/pw-reporter/types"
)

// Attachment colors understood by the webhook renderer
const (
	colorDanger  = "danger"
	colorGood    = "good"
	colorWarning = "warning"
)

// Message is the classic webhook payload
type Message struct {
	Channel     string       `json:"channel,omitempty"`
	Username    string       `json:"username,omitempty"`
	Text        string       `json:"text"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Attachment is one colored block of the message
type Attachment struct {
	Color  string  `json:"color,omitempty"`
	Title  string  `json:"title,omitempty"`
	Text   string  `json:"text,omitempty"`
	Fields []Field `json:"fields,omitempty"`
}

// Field is a short labeled value inside an attachment
type Field struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

// BuildMessage renders a finalized report into the webhook payload. The
// failed-tests and passed-tests attachments both appear only when the run
// has failures; a fully green run sends the summary and suites blocks
// alone. That gating is long-standing behavior consumers key off, so it is
// pinned by tests rather than reworked.
func BuildMessage(report *types.FinalReport, channel string, username string) *Message {
	summary := report.Summary

	msg := &Message{
		Channel:  channel,
		Username: username,
		Text:     headline(summary),
	}
	msg.Attachments = append(msg.Attachments, summaryAttachment(summary))
	if summary.Failed > 0 {
		msg.Attachments = append(msg.Attachments, failedTestsAttachment(report.TestSuites))
		msg.Attachments = append(msg.Attachments, passedTestsAttachment(report.TestSuites))
	}
	msg.Attachments = append(msg.Attachments, suitesAttachment(report.TestSuites))
	return msg
}

func headline(summary types.RunSummary) string {
	return fmt.Sprintf("Test run finished: %d/%d passed (%s) in %s",
		summary.Passed, summary.TotalTests, summary.SuccessRate, summary.Duration)
}

func headerColor(summary types.RunSummary) string {
	switch {
	case summary.Failed > 0:
		return colorDanger
	case summary.Passed == summary.TotalTests:
		return colorGood
	default:
		return colorWarning
	}
}

func summaryAttachment(summary types.RunSummary) Attachment {
	return Attachment{
		Color: headerColor(summary),
		Title: "Test Run Summary",
		Fields: []Field{
			{
				Title: "Tests",
				Value: fmt.Sprintf("%d passed, %d failed, %d skipped, %d timed out (of %d)",
					summary.Passed, summary.Failed, summary.Skipped, summary.TimedOut, summary.TotalTests),
			},
			{Title: "Success Rate", Value: summary.SuccessRate, Short: true},
			{Title: "Duration", Value: summary.Duration, Short: true},
			{Title: "Assertions", Value: strconv.Itoa(summary.TotalAssertions), Short: true},
			{Title: "Retried Tests", Value: strconv.Itoa(summary.TotalRetries), Short: true},
		},
	}
}

func failedTestsAttachment(groups *types.SuiteGroups) Attachment {
	var lines []string
	for _, name := range groups.Names() {
		for _, record := range groups.Records(name) {
			if record.Status != types.TestStatusFailed {
				continue
			}
			line := fmt.Sprintf("%s %s › %s (%s)",
				record.Status.Icon(), name, record.Name, types.FormatDuration(record.Duration))
			if failed := record.FailedAssertions(); len(failed) > 0 {
				line += "\n        " + strings.Join(failed, ", ")
			}
			lines = append(lines, line)
		}
	}
	return Attachment{
		Color: colorDanger,
		Title: "Failed Tests",
		Text:  strings.Join(lines, "\n"),
	}
}

func passedTestsAttachment(groups *types.SuiteGroups) Attachment {
	var lines []string
	for _, name := range groups.Names() {
		for _, record := range groups.Records(name) {
			if record.Status != types.TestStatusPassed {
				continue
			}
			lines = append(lines, fmt.Sprintf("%s %s › %s (%s)",
				record.Status.Icon(), name, record.Name, types.FormatDuration(record.Duration)))
		}
	}
	return Attachment{
		Color: colorGood,
		Title: "Passed Tests",
		Text:  strings.Join(lines, "\n"),
	}
}

func suitesAttachment(groups *types.SuiteGroups) Attachment {
	var lines []string
	for _, name := range groups.Names() {
		var passed, failed, skipped int
		for _, record := range groups.Records(name) {
			switch record.Status {
			case types.TestStatusPassed:
				passed++
			case types.TestStatusFailed, types.TestStatusTimedOut:
				failed++
			case types.TestStatusSkipped:
				skipped++
			}
		}
		icon := "✅"
		if failed > 0 {
			icon = "❌"
		} else if skipped > 0 {
			icon = "⚠️"
		}
		lines = append(lines, fmt.Sprintf("%s %s: %d passed, %d failed, %d skipped",
			icon, name, passed, failed, skipped))
	}
	return Attachment{
		Title: "Suites",
		Text:  strings.Join(lines, "\n"),
	}
}

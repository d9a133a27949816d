package templates

import (
	"html/template"
	"strings"

	"github.com/ethereum-optimism/infra/pw-reporter/types"
)

// GetTemplateFunc returns the centralized template functions used across the application
func GetTemplateFunc() template.FuncMap {
	return template.FuncMap{
		"formatMillis": func(ms int64) string {
			return types.FormatDuration(ms)
		},
		"getStatusClass": func(status types.TestStatus) string {
			return strings.ToLower(string(status))
		},
		"getStatusText": func(status types.TestStatus) string {
			return status.Label()
		},
		"getStatusIcon": func(status types.TestStatus) string {
			return status.Icon()
		},
		"getOverallStatus": func(summary types.RunSummary) types.TestStatus {
			return summary.OverallStatus()
		},
	}
}

package reporting

import (
	"embed"
	"fmt"
)

//go:embed templates/*.html.tmpl
var templateFS embed.FS

// HTMLReportTemplate is the embedded template used for the HTML artifact
const HTMLReportTemplate = "report.html.tmpl"

// GetTemplateContent returns the raw content of an embedded template
func GetTemplateContent(name string) (string, error) {
	data, err := templateFS.ReadFile("templates/" + name)
	if err != nil {
		return "", fmt.Errorf("failed to read template %s: %w", name, err)
	}
	return string(data), nil
}

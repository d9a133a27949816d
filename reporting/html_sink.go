package reporting

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"

	"github.com/ethereum-optimism/infra/pw-reporter/templates"
	"github.com/ethereum-optimism/infra/pw-reporter/types"
)

// HTMLSink renders the finalized report into a self-contained HTML file
// next to the JSON artifact
type HTMLSink struct {
	template *template.Template
	path     string
}

// NewHTMLSink creates an HTML sink writing to path. templateContent may be
// empty, in which case the embedded report template is used.
func NewHTMLSink(path string, templateContent string) (*HTMLSink, error) {
	if templateContent == "" {
		content, err := GetTemplateContent(HTMLReportTemplate)
		if err != nil {
			return nil, err
		}
		templateContent = content
	}
	tmpl, err := template.New("report").Funcs(templates.GetTemplateFunc()).Parse(templateContent)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML template: %w", err)
	}
	return &HTMLSink{template: tmpl, path: path}, nil
}

// Consume is a no-op; the HTML artifact renders from the finalized report
func (s *HTMLSink) Consume(record *types.TestRecord, runID string) error {
	return nil
}

// Complete renders the report and writes the HTML file
func (s *HTMLSink) Complete(report *types.FinalReport, runID string) error {
	if report == nil {
		return fmt.Errorf("report cannot be nil")
	}

	var buf bytes.Buffer
	if err := s.template.Execute(&buf, report); err != nil {
		return fmt.Errorf("failed to render HTML report: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create report directory %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(s.path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write HTML report to %s: %w", s.path, err)
	}
	return nil
}

// Path returns the HTML file location
func (s *HTMLSink) Path() string {
	return s.path
}

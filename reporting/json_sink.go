package reporting

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/log"

	"github.com/ethereum-optimism/infra/pw-reporter/types"
)

// JSONSink writes the finalized report to a single JSON file. This is the
// run's primary artifact: a failed write is fatal to finalization and must
// propagate to the caller.
type JSONSink struct {
	log  log.Logger
	path string
}

// NewJSONSink creates a sink writing the pretty-printed report to path
func NewJSONSink(logger log.Logger, path string) *JSONSink {
	return &JSONSink{
		log:  logger,
		path: path,
	}
}

// Consume is a no-op; the JSON artifact is written once, at completion
func (s *JSONSink) Consume(record *types.TestRecord, runID string) error {
	return nil
}

// Complete serializes the report and writes it to the configured path,
// creating parent directories and overwriting any previous report.
func (s *JSONSink) Complete(report *types.FinalReport, runID string) error {
	if report == nil {
		return fmt.Errorf("report cannot be nil")
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create report directory %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report to %s: %w", s.path, err)
	}

	s.log.Info("Report written", "path", s.path, "bytes", len(data), "runID", runID)
	return nil
}

// Path returns the report file location
func (s *JSONSink) Path() string {
	return s.path
}

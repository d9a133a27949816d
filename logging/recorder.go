package logging

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// EventRecorder persists the raw ingested event stream under the output
// directory, so a run can be replayed through the reporter later without
// the original host.
type EventRecorder struct {
	af   *AsyncFile
	path string
}

// NewEventRecorder creates the output directory if needed and opens the raw
// events file for appending
func NewEventRecorder(outputDir string) (*EventRecorder, error) {
	if outputDir == "" {
		return nil, fmt.Errorf("output directory cannot be empty")
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", outputDir, err)
	}

	path := filepath.Join(outputDir, RawEventsFilename)
	// The recording must hold exactly one run's stream, so a file left by a
	// previous run is replaced rather than extended.
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to remove stale recording %s: %w", path, err)
	}
	af, err := NewAsyncFile(path)
	if err != nil {
		return nil, err
	}
	return &EventRecorder{af: af, path: path}, nil
}

// Writer exposes the recorder as an io.Writer so the ingest path can tee
// the stream through it
func (r *EventRecorder) Writer() io.Writer {
	return asyncWriter{af: r.af}
}

// Path returns the location of the raw events file
func (r *EventRecorder) Path() string {
	return r.path
}

// Close drains pending writes and closes the file
func (r *EventRecorder) Close() error {
	return r.af.Close()
}

// asyncWriter adapts AsyncFile's queueing Write to io.Writer
type asyncWriter struct {
	af *AsyncFile
}

func (w asyncWriter) Write(p []byte) (int, error) {
	if err := w.af.Write(p); err != nil {
		return 0, err
	}
	return len(p), nil
}

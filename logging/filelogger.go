package logging

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/ethereum-optimism/infra/pw-reporter/types"
	"github.com/ethereum-optimism/infra/pw-reporter/ui"
)

const (
	// FailedDirName is the subdirectory of the output directory that holds
	// per-test failure detail files
	FailedDirName = "failed"

	// RawEventsFilename is the file under the output directory holding the
	// raw event stream exactly as it was ingested
	RawEventsFilename = "raw-events.jsonl"

	failedDetailBoxWidth = 80
)

// ReportSink is the interface for consumers of normalized test records.
// Consume is called once per completed test, in completion order, and
// Complete exactly once after the run has been sealed into a report.
type ReportSink interface {
	// Consume processes a single completed test record
	Consume(record *types.TestRecord, runID string) error

	// Complete is called once when the report for the run is finalized
	Complete(report *types.FinalReport, runID string) error
}

// FileLogger fans completed test records and the finalized report out to a
// set of sinks, and owns the asynchronous file writers the sinks share.
type FileLogger struct {
	outputDir string
	failedDir string
	runID     string

	mu           sync.Mutex
	sinks        []ReportSink
	asyncWriters map[string]*AsyncFile
}

// NewFileLogger creates the output directory layout and a logger with the
// failed-test detail sink registered, followed by any extra sinks in order.
func NewFileLogger(outputDir string, runID string, extra ...ReportSink) (*FileLogger, error) {
	if outputDir == "" {
		return nil, fmt.Errorf("output directory cannot be empty")
	}
	if runID == "" {
		return nil, fmt.Errorf("runID cannot be empty")
	}

	failedDir := filepath.Join(outputDir, FailedDirName)
	for _, dir := range []string{outputDir, failedDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	logger := &FileLogger{
		outputDir:    outputDir,
		failedDir:    failedDir,
		runID:        runID,
		asyncWriters: make(map[string]*AsyncFile),
	}
	logger.sinks = append(logger.sinks, NewFailedTestFileSink(logger))
	logger.sinks = append(logger.sinks, extra...)
	return logger, nil
}

// LogTestRecord passes one completed record through every registered sink
func (l *FileLogger) LogTestRecord(record *types.TestRecord) error {
	if record == nil {
		return fmt.Errorf("record cannot be nil")
	}
	for _, sink := range l.sinks {
		if err := sink.Consume(record, l.runID); err != nil {
			return fmt.Errorf("error in sink %T: %w", sink, err)
		}
	}
	return nil
}

// Complete finalizes every sink with the sealed report, then flushes and
// closes all file writers. The logger must not be used afterwards.
func (l *FileLogger) Complete(report *types.FinalReport) error {
	if report == nil {
		return fmt.Errorf("report cannot be nil")
	}
	var failed []string
	for _, sink := range l.sinks {
		if err := sink.Complete(report, l.runID); err != nil {
			failed = append(failed, fmt.Sprintf("%T: %v", sink, err))
		}
	}
	l.closeAllWriters()
	if len(failed) > 0 {
		return fmt.Errorf("error completing sinks: %s", strings.Join(failed, "; "))
	}
	return nil
}

// OutputDir returns the root output directory
func (l *FileLogger) OutputDir() string {
	return l.outputDir
}

// FailedDir returns the directory holding failure detail files
func (l *FileLogger) FailedDir() string {
	return l.failedDir
}

// RunID returns the run this logger is recording
func (l *FileLogger) RunID() string {
	return l.runID
}

// getAsyncWriter returns the shared async writer for a path, creating it on
// first use. Writers are closed collectively by Complete.
func (l *FileLogger) getAsyncWriter(path string) (*AsyncFile, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if writer, ok := l.asyncWriters[path]; ok {
		return writer, nil
	}
	writer, err := NewAsyncFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create async writer for %s: %w", path, err)
	}
	l.asyncWriters[path] = writer
	return writer, nil
}

func (l *FileLogger) closeAllWriters() {
	l.mu.Lock()
	writers := make([]*AsyncFile, 0, len(l.asyncWriters))
	for _, writer := range l.asyncWriters {
		writers = append(writers, writer)
	}
	l.asyncWriters = make(map[string]*AsyncFile)
	l.mu.Unlock()

	for _, writer := range writers {
		writer.Close()
	}
}

// FailedTestFileSink writes one detail file per failed or timed-out test
// into the failed/ directory. Repeated records for the same test (retries
// replayed by the host) do not produce duplicate files.
type FailedTestFileSink struct {
	logger *FileLogger

	mu      sync.Mutex
	written map[string]bool
}

// NewFailedTestFileSink creates a sink writing failure details under the
// logger's failed directory
func NewFailedTestFileSink(logger *FileLogger) *FailedTestFileSink {
	return &FailedTestFileSink{
		logger:  logger,
		written: make(map[string]bool),
	}
}

// Consume writes the failure detail file for failed and timed-out records
// and ignores everything else
func (s *FailedTestFileSink) Consume(record *types.TestRecord, runID string) error {
	if record.Status != types.TestStatusFailed && record.Status != types.TestStatusTimedOut {
		return nil
	}

	path := filepath.Join(s.logger.FailedDir(), failedDetailFilename(record))

	s.mu.Lock()
	if s.written[path] {
		s.mu.Unlock()
		return nil
	}
	s.written[path] = true
	s.mu.Unlock()

	// A file left behind by a previous run would otherwise be appended to.
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove stale detail file %s: %w", path, err)
	}

	writer, err := s.logger.getAsyncWriter(path)
	if err != nil {
		return err
	}
	return writer.Write([]byte(formatFailedDetail(record, runID)))
}

// Complete is a no-op; detail files are written as records arrive
func (s *FailedTestFileSink) Complete(report *types.FinalReport, runID string) error {
	return nil
}

// failedDetailFilename derives the detail file name from the record's suite
// and test name
func failedDetailFilename(record *types.TestRecord) string {
	name := record.Name
	if record.Suite != "" {
		name = record.Suite + "_" + record.Name
	}
	return safeFilename(name) + ".log"
}

// formatFailedDetail renders the content of one failure detail file: a
// boxed header with the record's vitals, the scrubbed error text, and the
// failed assertion titles.
func formatFailedDetail(record *types.TestRecord, runID string) string {
	width := failedDetailBoxWidth
	title := "FAILED TEST: " + record.Name
	if n := utf8.RuneCountInString(title) + 4; n > width {
		width = n
	}

	var b strings.Builder
	b.WriteString(ui.BuildBoxHeader(title, width))
	b.WriteString(ui.BuildBoxLine(fmt.Sprintf("Status:   %s", record.Status.Label()), width))
	if record.Suite != "" {
		b.WriteString(ui.BuildBoxLine(fmt.Sprintf("Suite:    %s", record.Suite), width))
	}
	b.WriteString(ui.BuildBoxLine(fmt.Sprintf("Duration: %s", types.FormatDuration(record.Duration)), width))
	if record.Retries != "" {
		b.WriteString(ui.BuildBoxLine(fmt.Sprintf("Retries:  %s", record.Retries), width))
	}
	if record.Browser != "" {
		b.WriteString(ui.BuildBoxLine(fmt.Sprintf("Browser:  %s", record.Browser), width))
	}
	if record.File != "" {
		source := record.File
		if record.Line > 0 {
			source = fmt.Sprintf("%s:%d", record.File, record.Line)
		}
		b.WriteString(ui.BuildBoxLine(fmt.Sprintf("Source:   %s", source), width))
	}
	b.WriteString(ui.BuildBoxLine(fmt.Sprintf("Run:      %s", runID), width))
	b.WriteString(ui.BuildBoxFooter(width))
	b.WriteString("\n")

	b.WriteString("ERROR:\n")
	b.WriteString("~~~~~~\n")
	if record.Error != "" {
		b.WriteString(record.Error)
		b.WriteString("\n")
	} else {
		b.WriteString("No error output captured.\n")
	}

	if failed := record.FailedAssertions(); len(failed) > 0 {
		b.WriteString("\n")
		b.WriteString("FAILED ASSERTIONS:\n")
		b.WriteString("~~~~~~~~~~~~~~~~~~\n")
		for _, name := range failed {
			b.WriteString("✗ ")
			b.WriteString(name)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// safeFilename converts a test name to a safe filename
func safeFilename(name string) string {
	safe := name
	for _, c := range []string{"/", "\\", ":", "*", "?", "\"", "<", ">", "|", " "} {
		safe = strings.ReplaceAll(safe, c, "_")
	}
	safe = strings.ReplaceAll(safe, "...", "")
	return safe
}

// AsyncFile writes to a file asynchronously through a buffered queue. Write
// never blocks on disk I/O; Close drains the queue before closing the file.
type AsyncFile struct {
	file    *os.File
	queue   chan []byte
	wg      sync.WaitGroup
	mu      sync.Mutex
	stopped bool
}

// NewAsyncFile opens path for appending and starts the writer goroutine
func NewAsyncFile(path string) (*AsyncFile, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", path, err)
	}

	af := &AsyncFile{
		file:  file,
		queue: make(chan []byte, 100),
	}
	af.wg.Add(1)
	go af.processQueue()
	return af, nil
}

// Write queues data for writing. The slice is copied, so the caller may
// reuse it immediately.
func (af *AsyncFile) Write(data []byte) error {
	af.mu.Lock()
	defer af.mu.Unlock()
	if af.stopped {
		return fmt.Errorf("file writer is closed")
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	af.queue <- buf
	return nil
}

// Close drains pending writes and closes the underlying file
func (af *AsyncFile) Close() error {
	af.mu.Lock()
	if af.stopped {
		af.mu.Unlock()
		return nil
	}
	af.stopped = true
	close(af.queue)
	af.mu.Unlock()

	af.wg.Wait()
	return af.file.Close()
}

func (af *AsyncFile) processQueue() {
	defer af.wg.Done()
	for data := range af.queue {
		if _, err := af.file.Write(data); err != nil {
			fmt.Fprintf(os.Stderr, "error writing to %s: %v\n", af.file.Name(), err)
		}
	}
}

package reporter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/google/uuid"
	"github.com/urfave/cli/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/ethereum-optimism/infra/pw-reporter/collector"
	"github.com/ethereum-optimism/infra/pw-reporter/events"
	"github.com/ethereum-optimism/infra/pw-reporter/exitcodes"
	"github.com/ethereum-optimism/infra/pw-reporter/logging"
	"github.com/ethereum-optimism/infra/pw-reporter/metrics"
	"github.com/ethereum-optimism/infra/pw-reporter/notify"
	"github.com/ethereum-optimism/infra/pw-reporter/reporting"
	"github.com/ethereum-optimism/infra/pw-reporter/types"
	"github.com/ethereum-optimism/optimism/op-service/cliapp"
)

// reporter implements the cliapp.Lifecycle interface.
var _ cliapp.Lifecycle = &reporter{}

// reporter ingests Playwright event streams and turns each one into a set
// of report artifacts.
type reporter struct {
	ctx      context.Context
	config   *Config
	version  string
	tracer   trace.Tracer
	sinks    []logging.ReportSink
	notifier *notify.Notifier
	result   *types.FinalReport

	running atomic.Bool
	done    chan struct{}
	wg      sync.WaitGroup

	shutdownCallback func(error) // Callback to signal application shutdown
}

func New(ctx context.Context, config *Config, version string, shutdownCallback func(error)) (*reporter, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}

	config.Log.Debug("Creating reporter with config",
		"events", config.EventsPath,
		"reportPath", config.ReportPath,
		"runInterval", config.RunInterval,
		"runOnce", config.RunOnce,
		"slackEnabled", config.SlackEnabled)

	// The sink chain is fixed for the lifetime of the service; only the
	// FileLogger fanning records into it is rebuilt per run.
	sinks := []logging.ReportSink{
		reporting.NewJSONSink(config.Log, config.ReportPath),
		reporting.NewConsoleSink(os.Stdout, config.ReportPath),
	}
	if config.HTMLReport {
		htmlSink, err := reporting.NewHTMLSink(config.HTMLReportPath(), "")
		if err != nil {
			return nil, fmt.Errorf("failed to create HTML sink: %w", err)
		}
		sinks = append(sinks, htmlSink)
	}

	var notifier *notify.Notifier
	if config.SlackEnabled {
		notifier = notify.NewNotifier(config.Log, config.SlackWebhookURL, config.SlackChannel, config.SlackUsername, nil)
	}
	config.Log.Info("reporter.New: created report sinks", "sinks", len(sinks), "notifications", notifier != nil)

	return &reporter{
		ctx:              ctx,
		config:           config,
		version:          version,
		tracer:           otel.Tracer("pw-reporter"),
		sinks:            sinks,
		notifier:         notifier,
		done:             make(chan struct{}),
		shutdownCallback: shutdownCallback,
	}, nil
}

// Start ingests the event source and writes the report artifacts, once or
// periodically at the configured interval.
// Start implements the cliapp.Lifecycle interface.
func (r *reporter) Start(ctx context.Context) error {
	// Set up panic recovery to ensure we exit with code 2 for runtime errors
	defer func() {
		if rec := recover(); rec != nil {
			r.config.Log.Error("Runtime error occurred", "error", rec)
			os.Exit(exitcodes.RuntimeErr)
		}
	}()

	r.ctx = ctx
	r.done = make(chan struct{})
	r.running.Store(true)

	if r.config.RunOnce {
		r.config.Log.Info("Starting pw-reporter in run-once mode")
	} else {
		r.config.Log.Info("Starting pw-reporter in continuous mode", "interval", r.config.RunInterval)
	}

	// Generate a report immediately on startup
	err := r.runReport()
	if err != nil {
		r.config.Log.Error("Runtime error generating report", "error", err)
		return cli.Exit(err.Error(), 2)
	}

	// If in run-once mode, trigger shutdown and return
	if r.config.RunOnce {
		r.config.Log.Info("Report complete, exiting (run-once mode)")

		// Fail the invoking pipeline only when asked to
		if r.config.FailOnFailure && r.result != nil && r.result.Summary.OverallStatus() == types.TestStatusFailed {
			summary := r.result.Summary
			r.config.Log.Warn("Run contained failures, returning exit code 1",
				"failed", summary.Failed, "timedOut", summary.TimedOut)
			return NewTestFailureError(fmt.Sprintf("%d of %d tests failed", summary.Failed+summary.TimedOut, summary.TotalTests))
		}

		go func() {
			r.shutdownCallback(nil)
		}()
		return nil // Success (exit code 0)
	}

	// Start a goroutine for periodic report regeneration
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.config.Log.Debug("Starting periodic report goroutine", "interval", r.config.RunInterval)

		for {
			select {
			case <-time.After(r.config.RunInterval):
				// Check if we should still be running
				if !r.running.Load() {
					r.config.Log.Debug("Service stopped, exiting periodic report goroutine")
					return
				}

				r.config.Log.Info("Regenerating report")
				if err := r.runReport(); err != nil {
					r.config.Log.Error("Error regenerating report", "error", err)
					metrics.RecordErrorDetails("report run", err)
				}

			case <-r.done:
				r.config.Log.Debug("Done signal received, stopping periodic report goroutine")
				return

			case <-ctx.Done():
				r.config.Log.Debug("Context canceled, stopping periodic report goroutine")
				r.running.Store(false)
				return
			}
		}
	}()
	r.config.Log.Debug("pw-reporter started successfully")
	return nil
}

// runReport ingests the configured event source once and writes every
// configured artifact for it
func (r *reporter) runReport() error {
	runID := uuid.New().String()
	ctx, span := r.tracer.Start(r.ctx, fmt.Sprintf("report run %s", runID))
	defer span.End()

	r.config.Log.Info("Generating report...", "run_id", runID, "events", r.config.EventsPath)

	if r.config.CleanOutput {
		if err := os.Remove(r.config.ReportPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return NewRuntimeError(fmt.Errorf("failed to remove previous report: %w", err))
		}
	}

	fileLogger, err := logging.NewFileLogger(r.config.OutputDir, runID, r.sinks...)
	if err != nil {
		return NewRuntimeError(fmt.Errorf("failed to create file logger: %w", err))
	}

	source, err := r.openEvents()
	if err != nil {
		return NewRuntimeError(err)
	}
	defer source.Close()

	var stream io.Reader = source
	if r.config.RecordEvents {
		recorder, err := logging.NewEventRecorder(r.config.OutputDir)
		if err != nil {
			return NewRuntimeError(fmt.Errorf("failed to create event recorder: %w", err))
		}
		defer recorder.Close()
		stream = io.TeeReader(source, recorder.Writer())
		r.config.Log.Info("Recording raw event stream", "path", recorder.Path())
	}

	coll := collector.NewCollector(r.config.Log, r.config.WorkDir, runID, r.config.IncludeAssertions)
	ingest := &runIngest{collector: coll, logger: fileLogger, log: r.config.Log}
	if err := events.Parse(stream, ingest); err != nil {
		return NewRuntimeError(fmt.Errorf("failed to read event stream: %w", err))
	}

	report := coll.Finalize(r.version)
	r.result = report

	if err := fileLogger.Complete(report); err != nil {
		return NewRuntimeError(fmt.Errorf("failed to write report artifacts: %w", err))
	}

	status := report.Summary.OverallStatus()
	metrics.RecordRunSummary(runID, string(status), report.Summary, coll.RunDuration())

	if r.notifier != nil {
		r.notifier.Notify(ctx, report)
	}

	r.config.Log.Info("Report run completed",
		"run_id", runID,
		"status", status,
		"tests", report.Summary.TotalTests,
		"failed", report.Summary.Failed)
	return nil
}

// openEvents opens the configured event source. Stdin is wrapped so that
// closing the returned source never closes the process's actual stdin.
func (r *reporter) openEvents() (io.ReadCloser, error) {
	if r.config.EventsPath == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(r.config.EventsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open event stream %s: %w", r.config.EventsPath, err)
	}
	return f, nil
}

// Stop stops the pw-reporter service.
// Stop implements the cliapp.Lifecycle interface.
func (r *reporter) Stop(ctx context.Context) error {
	r.config.Log.Info("Stopping pw-reporter")

	// Check if we're already stopped
	if !r.running.Load() {
		r.config.Log.Debug("Service already stopped, nothing to do")
		return nil
	}

	// Update running state first to prevent new report runs
	r.running.Store(false)

	// Signal goroutines to exit
	r.config.Log.Debug("Sending done signal to goroutines")
	close(r.done)

	r.config.Log.Info("pw-reporter stopped successfully")
	return nil
}

// Stopped returns true if the pw-reporter service is stopped.
// Stopped implements the cliapp.Lifecycle interface.
func (r *reporter) Stopped() bool {
	return !r.running.Load()
}

// WaitForShutdown blocks until all goroutines have terminated.
// This is useful in tests to ensure complete cleanup before moving to the next test.
func (r *reporter) WaitForShutdown(ctx context.Context) error {
	r.config.Log.Debug("Waiting for all goroutines to terminate")

	// Create a channel that will be closed when the WaitGroup is done
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	// Wait for either WaitGroup completion or context expiration
	select {
	case <-done:
		r.config.Log.Debug("All goroutines terminated successfully")
		return nil
	case <-ctx.Done():
		r.config.Log.Warn("Timed out waiting for goroutines to terminate", "error", ctx.Err())
		return ctx.Err()
	}
}

// runIngest couples the collector with the file logger so completed tests
// reach the live sinks as they stream in, not only at finalization.
type runIngest struct {
	collector *collector.Collector
	logger    *logging.FileLogger
	log       log.Logger
}

var _ events.Handler = (*runIngest)(nil)

func (in *runIngest) OnRunBegin(at time.Time, total int) {
	in.collector.OnRunBegin(at, total)
}

func (in *runIngest) OnTestStart(at time.Time, test *types.TestCase) {
	in.collector.OnTestStart(at, test)
}

func (in *runIngest) OnTestEnd(test *types.TestCase, result *types.TestOutcome) {
	record := in.collector.OnTestEnd(test, result)
	if record == nil {
		return
	}
	if err := in.logger.LogTestRecord(record); err != nil {
		in.log.Error("Failed to log test record", "test", record.Name, "error", err)
	}
}

func (in *runIngest) OnRunEnd(at time.Time) {
	in.collector.OnRunEnd(at)
}

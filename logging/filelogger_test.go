package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethereum-optimism/infra/pw-reporter/types"
)

func emptyReport() *types.FinalReport {
	return &types.FinalReport{TestSuites: types.NewSuiteGroups()}
}

func TestNewFileLogger_CreatesDirectoryLayout(t *testing.T) {
	outputDir := filepath.Join(t.TempDir(), "test-results")

	logger, err := NewFileLogger(outputDir, "run-1")
	require.NoError(t, err)

	assert.DirExists(t, outputDir)
	assert.DirExists(t, filepath.Join(outputDir, FailedDirName))
	assert.Equal(t, outputDir, logger.OutputDir())
	assert.Equal(t, "run-1", logger.RunID())

	require.NoError(t, logger.Complete(emptyReport()))
}

func TestNewFileLogger_RejectsEmptyArguments(t *testing.T) {
	_, err := NewFileLogger("", "run-1")
	require.Error(t, err)

	_, err = NewFileLogger(t.TempDir(), "")
	require.Error(t, err)
}

func TestFailedTestFileSink_WritesDetailFile(t *testing.T) {
	outputDir := t.TempDir()
	logger, err := NewFileLogger(outputDir, "run-1")
	require.NoError(t, err)

	record := &types.TestRecord{
		Name:     "user can log in",
		Suite:    "Login Tests",
		Status:   types.TestStatusFailed,
		Duration: 1250,
		Retries:  "1/2",
		Browser:  "chromium",
		File:     "tests/login.spec.ts",
		Line:     42,
		Error:    "expected element to be visible",
		Assertions: []types.AssertionOutcome{
			{Name: "toBeVisible", Passed: false, Duration: 100},
			{Name: "toHaveTitle(Home)", Passed: true, Duration: 50},
		},
	}
	require.NoError(t, logger.LogTestRecord(record))
	require.NoError(t, logger.Complete(emptyReport()))

	path := filepath.Join(outputDir, FailedDirName, "Login_Tests_user_can_log_in.log")
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	content := string(data)
	assert.Contains(t, content, "FAILED TEST: user can log in")
	assert.Contains(t, content, "Status:   FAILED")
	assert.Contains(t, content, "Suite:    Login Tests")
	assert.Contains(t, content, "Duration: 1.25s")
	assert.Contains(t, content, "Retries:  1/2")
	assert.Contains(t, content, "Source:   tests/login.spec.ts:42")
	assert.Contains(t, content, "expected element to be visible")
	assert.Contains(t, content, "✗ toBeVisible")
	assert.NotContains(t, content, "toHaveTitle(Home)", "passing assertions stay out of the failure detail")
}

func TestFailedTestFileSink_CoversTimeouts(t *testing.T) {
	outputDir := t.TempDir()
	logger, err := NewFileLogger(outputDir, "run-1")
	require.NoError(t, err)

	require.NoError(t, logger.LogTestRecord(&types.TestRecord{
		Name:   "slow navigation",
		Suite:  "Perf",
		Status: types.TestStatusTimedOut,
	}))
	require.NoError(t, logger.Complete(emptyReport()))

	data, err := os.ReadFile(filepath.Join(outputDir, FailedDirName, "Perf_slow_navigation.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Status:   TIMED OUT")
	assert.Contains(t, string(data), "No error output captured.")
}

func TestFailedTestFileSink_IgnoresNonFailures(t *testing.T) {
	outputDir := t.TempDir()
	logger, err := NewFileLogger(outputDir, "run-1")
	require.NoError(t, err)

	for _, status := range []types.TestStatus{
		types.TestStatusPassed,
		types.TestStatusSkipped,
		types.TestStatusInterrupted,
		types.TestStatusUnknown,
	} {
		require.NoError(t, logger.LogTestRecord(&types.TestRecord{
			Name:   "t",
			Suite:  "S",
			Status: status,
		}))
	}
	require.NoError(t, logger.Complete(emptyReport()))

	entries, err := os.ReadDir(filepath.Join(outputDir, FailedDirName))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestFailedTestFileSink_DeduplicatesReplays(t *testing.T) {
	outputDir := t.TempDir()
	logger, err := NewFileLogger(outputDir, "run-1")
	require.NoError(t, err)

	record := &types.TestRecord{Name: "flaky", Suite: "S", Status: types.TestStatusFailed, Error: "boom"}
	require.NoError(t, logger.LogTestRecord(record))
	require.NoError(t, logger.LogTestRecord(record))
	require.NoError(t, logger.Complete(emptyReport()))

	data, err := os.ReadFile(filepath.Join(outputDir, FailedDirName, "S_flaky.log"))
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), "FAILED TEST:"))
}

func TestFailedTestFileSink_ReplacesStaleDetailFiles(t *testing.T) {
	outputDir := t.TempDir()
	record := &types.TestRecord{Name: "flaky", Suite: "S", Status: types.TestStatusFailed, Error: "boom"}

	// Two consecutive runs into the same output directory, as interval mode
	// produces. The second run's file must replace the first, not extend it.
	for _, runID := range []string{"run-1", "run-2"} {
		logger, err := NewFileLogger(outputDir, runID)
		require.NoError(t, err)
		require.NoError(t, logger.LogTestRecord(record))
		require.NoError(t, logger.Complete(emptyReport()))
	}

	data, err := os.ReadFile(filepath.Join(outputDir, FailedDirName, "S_flaky.log"))
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), "FAILED TEST:"))
	assert.Contains(t, string(data), "run-2")
}

type captureSink struct {
	records   []*types.TestRecord
	completed int
	report    *types.FinalReport
}

func (s *captureSink) Consume(record *types.TestRecord, runID string) error {
	s.records = append(s.records, record)
	return nil
}

func (s *captureSink) Complete(report *types.FinalReport, runID string) error {
	s.completed++
	s.report = report
	return nil
}

func TestFileLogger_FansOutToExtraSinks(t *testing.T) {
	sink := &captureSink{}
	logger, err := NewFileLogger(t.TempDir(), "run-1", sink)
	require.NoError(t, err)

	record := &types.TestRecord{Name: "a", Suite: "S", Status: types.TestStatusPassed}
	require.NoError(t, logger.LogTestRecord(record))

	report := emptyReport()
	require.NoError(t, logger.Complete(report))

	require.Len(t, sink.records, 1)
	assert.Same(t, record, sink.records[0])
	assert.Equal(t, 1, sink.completed)
	assert.Same(t, report, sink.report)
}

func TestSafeFilename(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "spaces become underscores", input: "user can log in", expected: "user_can_log_in"},
		{name: "path separators replaced", input: "auth/login\\form", expected: "auth_login_form"},
		{name: "shell metacharacters replaced", input: `a:b*c?d"e<f>g|h`, expected: "a_b_c_d_e_f_g_h"},
		{name: "ellipsis removed", input: "waiting... done", expected: "waiting_done"},
		{name: "plain name untouched", input: "simple", expected: "simple"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, safeFilename(tt.input))
		})
	}
}

func TestAsyncFile_WriteCloseReadBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	af, err := NewAsyncFile(path)
	require.NoError(t, err)

	require.NoError(t, af.Write([]byte("first\n")))
	require.NoError(t, af.Write([]byte("second\n")))
	require.NoError(t, af.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "first\nsecond\n", string(data))

	require.Error(t, af.Write([]byte("late")), "writes after close must fail")
	require.NoError(t, af.Close(), "closing twice is harmless")
}

func TestAsyncFile_CopiesDataBeforeQueueing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	af, err := NewAsyncFile(path)
	require.NoError(t, err)

	buf := []byte("original")
	require.NoError(t, af.Write(buf))
	copy(buf, []byte("mutated!"))
	require.NoError(t, af.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "original", string(data))
}

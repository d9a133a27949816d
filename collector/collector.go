package collector

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/acarl005/stripansi"
	"github.com/ethereum/go-ethereum/log"

	"github.com/ethereum-optimism/infra/pw-reporter/metrics"
	"github.com/ethereum-optimism/infra/pw-reporter/types"
)

// ReporterName is the descriptive name stamped into report metadata
const ReporterName = "pw-reporter"

// testFileSuffixes are the recognized test-file suffixes stripped when a
// suite name has to be derived from a file name
var testFileSuffixes = []string{".spec.ts", ".spec.js", ".test.ts", ".test.js"}

// Collector accumulates completed tests into insertion-ordered suite groups
// for the lifetime of one run. Completion events normally arrive serially,
// but the group append is guarded so a parallelizing host cannot corrupt
// insertion order or lose records.
type Collector struct {
	log             log.Logger
	workDir         string
	runID           string
	trackAssertions bool

	mu       sync.Mutex
	groups   *types.SuiteGroups
	starts   map[string]time.Time
	runStart time.Time
	runEnd   time.Time
}

// NewCollector creates an empty collector for a single run. workDir is used
// to relativize source file paths in the records; pass "" to keep paths as
// delivered. When trackAssertions is false no assertion outcomes are
// extracted, so records, summary counts and downstream artifacts carry
// none.
func NewCollector(logger log.Logger, workDir string, runID string, trackAssertions bool) *Collector {
	return &Collector{
		log:             logger,
		workDir:         workDir,
		runID:           runID,
		trackAssertions: trackAssertions,
		groups:          types.NewSuiteGroups(),
		starts:          make(map[string]time.Time),
	}
}

// OnRunBegin records the start of the run. total is the announced test
// count, used for logging only.
func (c *Collector) OnRunBegin(at time.Time, total int) {
	if at.IsZero() {
		at = time.Now()
	}
	c.mu.Lock()
	c.runStart = at
	c.mu.Unlock()
	c.log.Info("Test run started", "totalTests", total, "runID", c.runID)
}

// OnTestStart records the wall-clock time a test began. Purely
// informational; it serves as the fallback start timestamp when the
// completion event carries none.
func (c *Collector) OnTestStart(at time.Time, test *types.TestCase) {
	if test == nil {
		return
	}
	if at.IsZero() {
		at = time.Now()
	}
	c.mu.Lock()
	c.starts[test.ID] = at
	c.mu.Unlock()
}

// OnTestEnd normalizes one completed test into a TestRecord and appends it
// to its suite group, creating the group on first use. The returned record
// is what was appended; it must not be mutated afterwards.
func (c *Collector) OnTestEnd(test *types.TestCase, result *types.TestOutcome) *types.TestRecord {
	if test == nil || result == nil {
		return nil
	}

	var assertions []types.AssertionOutcome
	if c.trackAssertions {
		assertions = ExtractAssertions(result.Steps)
	}

	group := groupNameFor(test)
	record := &types.TestRecord{
		Name:       test.Title,
		Status:     types.ParseStatus(result.Status),
		Duration:   result.Duration,
		Assertions: assertions,
		Retries:    retryInfo(result),
		Browser:    test.Project,
		File:       c.relPath(test.File),
		Line:       test.Line,
		Suite:      group,
		Error:      errorText(result),
	}

	c.mu.Lock()
	started, seen := c.starts[test.ID]
	delete(c.starts, test.ID)
	if !seen {
		started = result.StartedAt
		if started.IsZero() {
			started = time.Now()
		}
	}
	record.StartedAt = started
	c.groups.Append(group, record)
	c.mu.Unlock()

	c.logResult(record)
	metrics.RecordTestResult(c.runID, group, record.Status)
	return record
}

// OnRunEnd records the end of the run. The run-level aggregate status the
// host supplies is not consumed beyond triggering finalization.
func (c *Collector) OnRunEnd(at time.Time) {
	if at.IsZero() {
		at = time.Now()
	}
	c.mu.Lock()
	c.runEnd = at
	total := c.groups.TotalRecords()
	c.mu.Unlock()
	c.log.Info("Test run finished", "recordedTests", total, "runID", c.runID)
}

// Finalize seals the run and derives the terminal report. It must run after
// the run-end event, since the summary depends on the finalized state. The
// generation timestamps are captured here, once: rendering the returned
// report any number of times yields identical output.
func (c *Collector) Finalize(version string) *types.FinalReport {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	start, end := c.runStart, c.runEnd
	if start.IsZero() {
		start = now
	}
	if end.IsZero() {
		end = now
	}

	hostname, _ := os.Hostname()
	return &types.FinalReport{
		Summary:    Summarize(c.groups, start, end),
		TestSuites: c.groups,
		Metadata: types.ReportMetadata{
			Name:        ReporterName,
			Version:     version,
			GeneratedAt: now,
			RunID:       c.runID,
			Hostname:    hostname,
		},
	}
}

// RunDuration returns the wall time between the recorded run boundaries,
// or zero if the run never started or finished.
func (c *Collector) RunDuration() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.runStart.IsZero() || c.runEnd.IsZero() {
		return 0
	}
	d := c.runEnd.Sub(c.runStart)
	if d < 0 {
		return 0
	}
	return d
}

func (c *Collector) logResult(record *types.TestRecord) {
	fields := []interface{}{
		"suite", record.Suite,
		"status", record.Status,
		"duration", types.FormatDuration(record.Duration),
		"assertions", len(record.Assertions),
	}
	if record.Retries != "" {
		fields = append(fields, "retries", record.Retries)
	}
	c.log.Info(fmt.Sprintf("%s %s", record.Status.Icon(), record.Name), fields...)
}

// relPath makes an absolute source path relative to the working directory.
// Paths that are already relative or cannot be relativized pass through.
func (c *Collector) relPath(file string) string {
	if file == "" || c.workDir == "" || !filepath.IsAbs(file) {
		return file
	}
	rel, err := filepath.Rel(c.workDir, file)
	if err != nil {
		return file
	}
	return rel
}

// retryInfo formats the "index/limit" retry annotation. An annotation is
// only attached when at least one retry occurred.
func retryInfo(result *types.TestOutcome) string {
	if result.Retry <= 0 {
		return ""
	}
	return fmt.Sprintf("%d/%d", result.Retry, result.Retries)
}

// errorText extracts a scrubbed failure message from the outcome
func errorText(result *types.TestOutcome) string {
	if result.Error == nil {
		return ""
	}
	return strings.TrimSpace(stripansi.Strip(result.Error.Message))
}

// groupNameFor returns the suite name for a test: the declared grouping
// title when present, else a name derived from the source file.
func groupNameFor(test *types.TestCase) string {
	if test.GroupTitle != "" {
		return test.GroupTitle
	}
	return groupNameFromFile(test.File)
}

// groupNameFromFile derives a readable suite name from a test file name:
// one recognized test-file suffix is stripped (falling back to the plain
// extension), and dashes become spaces.
func groupNameFromFile(file string) string {
	base := filepath.Base(file)
	name := base
	for _, suffix := range testFileSuffixes {
		if strings.HasSuffix(base, suffix) {
			name = strings.TrimSuffix(base, suffix)
			break
		}
	}
	if name == base {
		name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return strings.ReplaceAll(name, "-", " ")
}

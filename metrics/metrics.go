package metrics

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ethereum-optimism/infra/pw-reporter/types"
)

const (
	MetricsNamespace = "pw_reporter"

	// Notification attempt results
	NotificationSent   = "sent"
	NotificationFailed = "failed"
)

var (
	Debug bool = true
	validStatuses = []types.TestStatus{
		types.TestStatusPassed,
		types.TestStatusFailed,
		types.TestStatusSkipped,
		types.TestStatusTimedOut,
		types.TestStatusInterrupted,
		types.TestStatusUnknown,
	}
	nonAlphanumericRegex = regexp.MustCompile(`[^a-zA-Z ]+`)

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "errors_total",
		Help:      "Count of errors",
	}, []string{
		"error",
	})

	testResultsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "test_results_total",
		Help:      "Count of completed tests by suite and status",
	}, []string{
		"run_id",
		"suite",
		"status",
	})

	runResults = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "run_results",
		Help:      "Result of reported test runs",
	}, []string{
		"run_id",
		"result",
	})

	runTestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "run_tests_total",
		Help:      "Total number of tests in a reported run",
	}, []string{
		"run_id",
	})

	runTestsPassed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "run_tests_passed",
		Help:      "Number of passed tests in a reported run",
	}, []string{
		"run_id",
	})

	runTestsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "run_tests_failed",
		Help:      "Number of failed tests in a reported run",
	}, []string{
		"run_id",
	})

	runAssertionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "run_assertions_total",
		Help:      "Number of assertions extracted in a reported run",
	}, []string{
		"run_id",
	})

	runDuration = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "run_duration",
		Help:      "Wall-clock duration of report generation",
	}, []string{
		"run_id",
	})

	notificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "notifications_total",
		Help:      "Count of webhook notification attempts",
	}, []string{
		"result",
	})
)

// errToLabel tries to make the error string a more valid Prometheus label
func errToLabel(err error) string {
	if err == nil {
		return "nil"
	}
	errClean := nonAlphanumericRegex.ReplaceAllString(err.Error(), "")
	errClean = strings.ReplaceAll(errClean, " ", "_")
	errClean = strings.ReplaceAll(errClean, "__", "_")
	return errClean
}

func RecordError(error string) {
	if Debug {
		log.Debug("metric inc",
			"m", "errors_total",
			"error", error,
		)
	}
	errorsTotal.WithLabelValues(error).Inc()
}

// RecordErrorDetails concats the error message to the label
// and also tries to clean the label to be a valid Prometheus label
func RecordErrorDetails(label string, err error) {
	if err == nil {
		return
	}
	label = fmt.Sprintf("%s.%s", label, errToLabel(err))
	RecordError(label)
}

func RecordTestResult(runID string, suite string, status types.TestStatus) {
	if !isValidStatus(status) {
		log.Error("RecordTestResult - invalid status", "status", status)
		return
	}
	if Debug {
		log.Debug("metric inc",
			"m", "test_results_total",
			"run_id", runID,
			"suite", suite,
			"status", status)
	}
	testResultsTotal.WithLabelValues(runID, suite, string(status)).Inc()
}

func RecordRunSummary(
	runID string,
	result string,
	summary types.RunSummary,
	duration time.Duration,
) {
	runResults.WithLabelValues(runID, result).Set(1)
	runTestsTotal.WithLabelValues(runID).Add(float64(summary.TotalTests))
	runTestsPassed.WithLabelValues(runID).Add(float64(summary.Passed))
	runTestsFailed.WithLabelValues(runID).Add(float64(summary.Failed))
	runAssertionsTotal.WithLabelValues(runID).Add(float64(summary.TotalAssertions))
	runDuration.WithLabelValues(runID).Set(duration.Seconds())
}

func RecordNotification(result string) {
	if Debug {
		log.Debug("metric inc",
			"m", "notifications_total",
			"result", result,
		)
	}
	notificationsTotal.WithLabelValues(result).Inc()
}

func isValidStatus(status types.TestStatus) bool {
	return slices.Contains(validStatuses, status)
}

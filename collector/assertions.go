package collector

import (
	"strings"

	"github.com/acarl005/stripansi"

	"github.com/ethereum-optimism/infra/pw-reporter/types"
)

const (
	// assertionCategory is the category tag set by sources that mark
	// assertion steps explicitly.
	assertionCategory = "expect"

	// assertionMarker appears in step titles when a source embeds the
	// assertion call text instead of tagging the category.
	assertionMarker = "expect("
)

var quoteStripper = strings.NewReplacer("'", "", `"`, "", "`", "")

// ExtractAssertions flattens a test's step tree into a linear sequence of
// assertion outcomes using a depth-first pre-order walk. Children are visited
// regardless of whether their parent classified as an assertion, so
// assertions nested inside grouping steps are not lost. Output order is
// traversal order and nothing is deduplicated. An empty step list yields an
// empty result, never an error.
func ExtractAssertions(steps []types.ExecutionStep) []types.AssertionOutcome {
	outcomes := make([]types.AssertionOutcome, 0)
	for i := range steps {
		collectAssertions(&steps[i], &outcomes)
	}
	return outcomes
}

func collectAssertions(step *types.ExecutionStep, out *[]types.AssertionOutcome) {
	if isAssertionStep(step) {
		*out = append(*out, types.AssertionOutcome{
			Name:     CleanTitle(step.Title),
			Passed:   !step.Failed(),
			Duration: step.Duration,
		})
	}
	for i := range step.Steps {
		collectAssertions(&step.Steps[i], out)
	}
}

// isAssertionStep applies the dual classification: the category tag is
// authoritative, but not every source sets it, so the title is checked for
// the assertion call text as well.
func isAssertionStep(step *types.ExecutionStep) bool {
	return step.Category == assertionCategory || strings.Contains(step.Title, assertionMarker)
}

// CleanTitle normalizes an assertion title for display: ANSI escapes are
// stripped, one leading "expect." boilerplate prefix is dropped, quote
// characters are removed, and whitespace runs collapse to single spaces.
func CleanTitle(title string) string {
	s := stripansi.Strip(title)
	s = strings.TrimPrefix(s, "expect.")
	s = quoteStripper.Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

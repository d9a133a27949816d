package collector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethereum-optimism/infra/pw-reporter/types"
)

func TestExtractAssertions_Classification(t *testing.T) {
	tests := []struct {
		name     string
		step     types.ExecutionStep
		expected bool
	}{
		{
			name:     "category tag",
			step:     types.ExecutionStep{Category: "expect", Title: "toBeVisible"},
			expected: true,
		},
		{
			name:     "title marker without category",
			step:     types.ExecutionStep{Category: "pw:api", Title: "expect(locator).toBeVisible()"},
			expected: true,
		},
		{
			name:     "plain action step",
			step:     types.ExecutionStep{Category: "pw:api", Title: "page.goto(/login)"},
			expected: false,
		},
		{
			name:     "no category and no marker",
			step:     types.ExecutionStep{Title: "click submit"},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcomes := ExtractAssertions([]types.ExecutionStep{tt.step})
			if tt.expected {
				assert.Len(t, outcomes, 1)
			} else {
				assert.Empty(t, outcomes)
			}
		})
	}
}

func TestExtractAssertions_PassFailAndDuration(t *testing.T) {
	steps := []types.ExecutionStep{
		{Category: "expect", Title: "toBeVisible", Duration: 120},
		{Category: "expect", Title: "toHaveText", Error: &types.StepError{Message: "mismatch"}},
	}

	outcomes := ExtractAssertions(steps)
	require.Len(t, outcomes, 2)

	assert.True(t, outcomes[0].Passed)
	assert.Equal(t, int64(120), outcomes[0].Duration)

	assert.False(t, outcomes[1].Passed, "a step carrying an error failed")
	assert.Equal(t, int64(0), outcomes[1].Duration, "absent duration defaults to zero")
}

func TestExtractAssertions_NestedTraversalOrder(t *testing.T) {
	// One assertion buried three levels deep under grouping steps, followed
	// by a top-level assertion. Pre-order traversal must surface the nested
	// one first.
	steps := []types.ExecutionStep{
		{
			Category: "test.step",
			Title:    "log in",
			Steps: []types.ExecutionStep{
				{
					Category: "test.step",
					Title:    "fill form",
					Steps: []types.ExecutionStep{
						{
							Category: "pw:api",
							Title:    "click submit",
							Steps: []types.ExecutionStep{
								{Category: "expect", Title: "nested assertion"},
							},
						},
					},
				},
			},
		},
		{Category: "expect", Title: "top level assertion"},
	}

	outcomes := ExtractAssertions(steps)
	require.Len(t, outcomes, 2)
	assert.Equal(t, "nested assertion", outcomes[0].Name)
	assert.Equal(t, "top level assertion", outcomes[1].Name)
}

func TestExtractAssertions_AssertionChildrenAreTraversed(t *testing.T) {
	steps := []types.ExecutionStep{
		{
			Category: "expect",
			Title:    "parent assertion",
			Steps: []types.ExecutionStep{
				{Category: "expect", Title: "child assertion"},
			},
		},
	}

	outcomes := ExtractAssertions(steps)
	require.Len(t, outcomes, 2)
	assert.Equal(t, "parent assertion", outcomes[0].Name)
	assert.Equal(t, "child assertion", outcomes[1].Name)
}

func TestExtractAssertions_NoDeduplication(t *testing.T) {
	step := types.ExecutionStep{Category: "expect", Title: "toBe(1)"}
	outcomes := ExtractAssertions([]types.ExecutionStep{step, step})
	assert.Len(t, outcomes, 2, "a step appearing twice in input appears twice in output")
}

func TestExtractAssertions_EmptyInput(t *testing.T) {
	assert.Empty(t, ExtractAssertions(nil))
	assert.Empty(t, ExtractAssertions([]types.ExecutionStep{}))
}

func TestCleanTitle(t *testing.T) {
	tests := []struct {
		name     string
		title    string
		expected string
	}{
		{
			name:     "boilerplate prefix dropped",
			title:    "expect.toHaveText",
			expected: "toHaveText",
		},
		{
			name:     "quotes removed",
			title:    `expect(locator).toHaveText('Welcome back')`,
			expected: "expect(locator).toHaveText(Welcome back)",
		},
		{
			name:     "backticks and double quotes removed",
			title:    "expect(page).toHaveTitle(`Home \"beta\"`)",
			expected: "expect(page).toHaveTitle(Home beta)",
		},
		{
			name:     "ansi escapes stripped",
			title:    "\x1b[32mexpect(ok).toBe(true)\x1b[0m",
			expected: "expect(ok).toBe(true)",
		},
		{
			name:     "whitespace runs collapse",
			title:    "toHaveText   with\t\tspaces  ",
			expected: "toHaveText with spaces",
		},
		{
			name:     "empty title",
			title:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanTitle(tt.title))
		})
	}
}

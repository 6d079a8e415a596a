package stackprovider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGTLog_MarksBestEffort(t *testing.T) {
	output := "◯ main\n│ ◯ feature-base (PR #101)\n│ │ ◯ feature-mid (PR #102)\n│ │ │ ◯ feature-top (PR #103)\n"

	stacks := parseGTLog(output)
	require.Len(t, stacks, 1)
	assert.True(t, stacks[0].BestEffort)
	assert.Equal(t, "feature-top", stacks[0].ID)
	assert.Contains(t, stacks[0].Branches, "feature-mid")
}

func TestParseGTLog_EmptyOutputReturnsNil(t *testing.T) {
	assert.Nil(t, parseGTLog(""))
}

func TestParseGTLog_IgnoresUnmatchedLines(t *testing.T) {
	output := "some unrelated banner\n◯ main\n"
	stacks := parseGTLog(output)
	require.Len(t, stacks, 1)
	assert.Equal(t, []string{"main"}, stacks[0].Branches)
}

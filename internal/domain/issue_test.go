package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIssueStatus(t *testing.T) {
	tests := []struct {
		raw  string
		want IssueStatus
	}{
		{"reported", StatusReported},
		{"in progress", StatusInProgress},
		{"resolved", StatusResolved},
		{"rejected", StatusRejected},
		{"closed", StatusRejected},
		{" Resolved ", StatusResolved},
		{"CLOSED", StatusRejected},
	}
	for _, tc := range tests {
		got, err := ParseIssueStatus(tc.raw)
		require.NoError(t, err, "ParseIssueStatus(%q)", tc.raw)
		assert.Equal(t, tc.want, got)
	}

	for _, raw := range []string{"", "open", "done", "in-progress"} {
		_, err := ParseIssueStatus(raw)
		assert.Error(t, err, "ParseIssueStatus(%q)", raw)
	}
}

func TestStatusTerminal(t *testing.T) {
	assert.False(t, StatusReported.Terminal())
	assert.False(t, StatusInProgress.Terminal())
	assert.True(t, StatusResolved.Terminal())
	assert.True(t, StatusRejected.Terminal())
}

func TestParsePriority(t *testing.T) {
	got, err := ParsePriority("")
	require.NoError(t, err)
	assert.Equal(t, PriorityMedium, got)

	got, err = ParsePriority(" High ")
	require.NoError(t, err)
	assert.Equal(t, PriorityHigh, got)

	_, err = ParsePriority("urgent")
	assert.Error(t, err)
}

func TestParseVoteDirection(t *testing.T) {
	got, err := ParseVoteDirection("up")
	require.NoError(t, err)
	assert.Equal(t, VoteUp, got)

	_, err = ParseVoteDirection("sideways")
	assert.Error(t, err)
}

func TestApplyVote(t *testing.T) {
	up, down := ApplyVote(nil, nil, "u1", VoteUp)
	assert.Equal(t, []string{"u1"}, up)
	assert.Empty(t, down)

	// Switching direction moves the user across sets.
	up, down = ApplyVote(up, down, "u1", VoteDown)
	assert.Empty(t, up)
	assert.Equal(t, []string{"u1"}, down)

	// A repeat vote removes the user entirely.
	up, down = ApplyVote(up, down, "u1", VoteDown)
	assert.Empty(t, up)
	assert.Empty(t, down)

	// Other voters are untouched.
	up, down = ApplyVote([]string{"u1", "u2"}, []string{"u3"}, "u2", VoteDown)
	assert.Equal(t, []string{"u1"}, up)
	assert.Equal(t, []string{"u3", "u2"}, down)
}

func TestApplyVoteAtMostOneSet(t *testing.T) {
	up := []string{"a", "b"}
	down := []string{"c"}
	for _, voter := range []string{"a", "b", "c", "d"} {
		for _, dir := range []VoteDirection{VoteUp, VoteDown} {
			u, d := ApplyVote(up, down, voter, dir)
			both := 0
			for _, id := range u {
				if id == voter {
					both++
				}
			}
			for _, id := range d {
				if id == voter {
					both++
				}
			}
			assert.LessOrEqual(t, both, 1, "voter %s dir %s", voter, dir)
		}
	}
}

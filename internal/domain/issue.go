package domain

import (
	"fmt"
	"strings"
	"time"
)

// IssueStatus enumerates lifecycle states for civic issues.
type IssueStatus string

const (
	StatusReported   IssueStatus = "reported"
	StatusInProgress IssueStatus = "in progress"
	StatusResolved   IssueStatus = "resolved"
	StatusRejected   IssueStatus = "rejected"
)

// ParseIssueStatus validates a raw status string. "closed" is accepted as an
// alias of rejected; the admin UI historically used both words for the same
// terminal state.
func ParseIssueStatus(raw string) (IssueStatus, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(StatusReported):
		return StatusReported, nil
	case string(StatusInProgress):
		return StatusInProgress, nil
	case string(StatusResolved):
		return StatusResolved, nil
	case string(StatusRejected), "closed":
		return StatusRejected, nil
	default:
		return "", fmt.Errorf("invalid issue status %q", raw)
	}
}

// Terminal reports whether the status ends the issue lifecycle. ResolvedAt
// must be non-null exactly when the status is terminal.
func (s IssueStatus) Terminal() bool {
	return s == StatusResolved || s == StatusRejected
}

// IssuePriority enumerates urgency levels.
type IssuePriority string

const (
	PriorityLow    IssuePriority = "low"
	PriorityMedium IssuePriority = "medium"
	PriorityHigh   IssuePriority = "high"
)

// ParsePriority validates a raw priority, defaulting empty input to medium.
func ParsePriority(raw string) (IssuePriority, error) {
	switch IssuePriority(strings.ToLower(strings.TrimSpace(raw))) {
	case "":
		return PriorityMedium, nil
	case PriorityLow:
		return PriorityLow, nil
	case PriorityMedium:
		return PriorityMedium, nil
	case PriorityHigh:
		return PriorityHigh, nil
	default:
		return "", fmt.Errorf("invalid priority %q", raw)
	}
}

// VoteDirection identifies the target vote set of a toggle.
type VoteDirection string

const (
	VoteUp   VoteDirection = "up"
	VoteDown VoteDirection = "down"
)

// ParseVoteDirection validates a raw vote type.
func ParseVoteDirection(raw string) (VoteDirection, error) {
	switch VoteDirection(raw) {
	case VoteUp:
		return VoteUp, nil
	case VoteDown:
		return VoteDown, nil
	default:
		return "", fmt.Errorf("invalid vote type %q", raw)
	}
}

// CommentSummary is the denormalized latest-comment snapshot carried on an
// issue. UserName is a read-time join, not stored.
type CommentSummary struct {
	Text      string
	UserID    string
	UserName  string
	CreatedAt time.Time
}

// Issue is the aggregate for a reported civic issue. CommentsCount and
// LatestComment duplicate information derivable from the comment collection
// and are re-derived from it after every comment mutation. A user ID appears
// in at most one of Upvotes/Downvotes.
type Issue struct {
	ID            string
	Title         string
	IssueType     string
	Priority      IssuePriority
	Address       string
	PostalCode    string
	Landmark      string
	Description   string
	ImageURLs     []string
	ReportedBy    string
	Latitude      *float64
	Longitude     *float64
	Status        IssueStatus
	ResolvedAt    *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
	CommentsCount int
	LatestComment *CommentSummary
	Upvotes       []string
	Downvotes     []string

	// Read-time enrichment of the reporter, not persisted on the issue row.
	ReporterName     string
	ReporterUsername string
	ReporterPostal   string
}

// ApplyVote computes the vote sets after a toggle by userID in the given
// direction: a repeat vote in the same direction removes the user, otherwise
// the user moves to the target set and leaves the opposite one. The SQL
// toggle statement mirrors this transition exactly.
func ApplyVote(upvotes, downvotes []string, userID string, dir VoteDirection) (up, down []string) {
	inTarget := false
	target := upvotes
	if dir == VoteDown {
		target = downvotes
	}
	for _, id := range target {
		if id == userID {
			inTarget = true
			break
		}
	}

	up = removeID(upvotes, userID)
	down = removeID(downvotes, userID)
	if !inTarget {
		if dir == VoteUp {
			up = append(up, userID)
		} else {
			down = append(down, userID)
		}
	}
	return up, down
}

func removeID(ids []string, userID string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != userID {
			out = append(out, id)
		}
	}
	return out
}

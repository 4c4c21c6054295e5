package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType identifies a domain event.
type EventType string

const (
	EventIssueReported      EventType = "issue.reported"
	EventIssueStatusChanged EventType = "issue.status_changed"
	EventIssueDeleted       EventType = "issue.deleted"
	EventCommentAdded       EventType = "comment.added"
)

// Event is the envelope published to the dispatcher.
type Event struct {
	ID        string
	Type      EventType
	IssueID   string
	ActorID   string
	Timestamp time.Time
	Payload   any
}

// NewEvent stamps an envelope with identity and time.
func NewEvent(eventType EventType, issueID, actorID string, payload any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		IssueID:   issueID,
		ActorID:   actorID,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// IssueReportedPayload accompanies EventIssueReported.
type IssueReportedPayload struct {
	Title      string
	PostalCode string
}

// IssueStatusChangedPayload accompanies EventIssueStatusChanged. The
// reporter's email rides along so notification handlers avoid a lookup.
type IssueStatusChangedPayload struct {
	Title         string
	OldStatus     string
	NewStatus     string
	ReporterEmail string
	ReporterName  string
}

// CommentAddedPayload accompanies EventCommentAdded.
type CommentAddedPayload struct {
	CommentID string
	Text      string
}

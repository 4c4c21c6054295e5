package domain

import "time"

// MaxCommentLength caps comment text after trimming.
const MaxCommentLength = 2000

// Comment is a threaded comment on an issue. ParentCommentID is nil for
// top-level comments; threading depth is not limited. Likes is a single
// toggle set with no opposing concept.
type Comment struct {
	ID              string
	IssueID         string
	UserID          string
	Text            string
	ParentCommentID *string
	Likes           []string
	CreatedAt       time.Time

	// Read-time enrichment of the author, not persisted.
	AuthorName  string
	AuthorEmail string
}

// Package authz holds the visibility and authorization predicates for
// issues, comments and users. Every predicate takes the actor explicitly so
// decisions are deterministic and unit-testable in isolation; nothing here
// reads request-scoped state.
package authz

import (
	"github.com/spec-kit/civic-issue-service/internal/domain"
	"github.com/spec-kit/civic-issue-service/internal/postal"
)

// IssueScope describes which issues land in an actor's "my area" bucket.
// All means every issue is "own" (global admins). An empty PostalCode with
// All unset means the actor has no jurisdiction of their own and every issue
// is "other".
type IssueScope struct {
	All        bool
	PostalCode string
}

// IssueScopeFor returns the own/others split rule for an actor. The split is
// universal: plain users get the same visibility partition as local admins,
// only mutation rights differ by role.
func IssueScopeFor(actor *domain.User) IssueScope {
	if actor == nil {
		return IssueScope{}
	}
	switch actor.Role {
	case domain.RoleGlobalAdmin:
		return IssueScope{All: true}
	case domain.RoleAdmin, domain.RoleUser:
		return IssueScope{PostalCode: postal.Normalize(actor.PostalCode)}
	default:
		return IssueScope{}
	}
}

// Matches reports whether an issue belongs to the scope's "own" bucket.
func (s IssueScope) Matches(issue *domain.Issue) bool {
	if s.All {
		return true
	}
	if s.PostalCode == "" {
		return false
	}
	return postal.Normalize(issue.PostalCode) == s.PostalCode
}

// CanMutateIssue gates status changes and deletion: admins within their
// normalized postal jurisdiction, global admins anywhere, nobody else.
func CanMutateIssue(actor *domain.User, issue *domain.Issue) bool {
	if actor == nil || issue == nil {
		return false
	}
	switch actor.Role {
	case domain.RoleGlobalAdmin:
		return true
	case domain.RoleAdmin:
		return postal.Equal(issue.PostalCode, actor.PostalCode)
	case domain.RoleUser:
		return false
	default:
		return false
	}
}

// CanDeleteComment allows the comment's author and any admin. Comment
// moderation is intentionally not postal-scoped, unlike issue mutation; do
// not tighten this to jurisdiction.
func CanDeleteComment(actor *domain.User, comment *domain.Comment) bool {
	if actor == nil || comment == nil {
		return false
	}
	if actor.ID == comment.UserID {
		return true
	}
	switch actor.Role {
	case domain.RoleAdmin, domain.RoleGlobalAdmin:
		return true
	case domain.RoleUser:
		return false
	default:
		return false
	}
}

// UserListScope describes which users an admin may list.
type UserListScope struct {
	All bool
	// When All is false, only accounts with RoleUser in this normalized
	// postal code are visible.
	PostalCode string
}

// UserListScopeFor returns the listing scope, or false when the actor may
// not list users at all.
func UserListScopeFor(actor *domain.User) (UserListScope, bool) {
	if actor == nil {
		return UserListScope{}, false
	}
	switch actor.Role {
	case domain.RoleGlobalAdmin:
		return UserListScope{All: true}, true
	case domain.RoleAdmin:
		return UserListScope{PostalCode: postal.Normalize(actor.PostalCode)}, true
	case domain.RoleUser:
		return UserListScope{}, false
	default:
		return UserListScope{}, false
	}
}

// CanChangeRole permits role toggles for global admins only.
func CanChangeRole(actor *domain.User) bool {
	return actor != nil && actor.Role == domain.RoleGlobalAdmin
}

// CanBlockUser permits block toggles for any admin. Blocking is not
// postal-scoped: a local admin may block an account outside their area.
func CanBlockUser(actor *domain.User) bool {
	if actor == nil {
		return false
	}
	switch actor.Role {
	case domain.RoleAdmin, domain.RoleGlobalAdmin:
		return true
	case domain.RoleUser:
		return false
	default:
		return false
	}
}

// CanDeleteUser mirrors CanBlockUser: any admin may remove an account.
func CanDeleteUser(actor *domain.User) bool {
	return CanBlockUser(actor)
}

// CanViewReports gates the aggregation endpoints.
func CanViewReports(actor *domain.User) bool {
	if actor == nil {
		return false
	}
	return actor.Role.IsAdmin()
}

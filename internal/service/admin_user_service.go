package service

import (
	"context"

	"github.com/spec-kit/civic-issue-service/internal/authz"
	"github.com/spec-kit/civic-issue-service/internal/domain"
	"github.com/spec-kit/civic-issue-service/internal/repository"
	"github.com/spec-kit/civic-issue-service/pkg/util/errorutil"
)

// AdminUserService covers the admin user-directory operations: listing,
// block/unblock, role toggling and account removal.
type AdminUserService struct {
	users repository.UserRepository
}

// NewAdminUserService constructs the service.
func NewAdminUserService(users repository.UserRepository) *AdminUserService {
	return &AdminUserService{users: users}
}

// ListUsers returns the accounts the actor may see: every account for global
// admins, only plain users inside the admin's postal code otherwise.
func (s *AdminUserService) ListUsers(ctx context.Context, actor *domain.User) ([]domain.User, error) {
	scope, ok := authz.UserListScopeFor(actor)
	if !ok {
		return nil, errorutil.NewForbidden("not allowed to list users")
	}

	filter := repository.UserFilter{}
	if !scope.All {
		role := domain.RoleUser
		filter.Role = &role
		filter.PostalCode = &scope.PostalCode
	}
	users, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, errorutil.MapError(err)
	}
	if users == nil {
		users = []domain.User{}
	}
	return users, nil
}

// ToggleBlock flips an account between active and blocked. Not postal-scoped:
// any admin may block any account.
func (s *AdminUserService) ToggleBlock(ctx context.Context, actor *domain.User, userID string) (*domain.User, error) {
	if !authz.CanBlockUser(actor) {
		return nil, errorutil.NewForbidden("not allowed to block users")
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, errorutil.MapError(err)
	}
	if user.Status == domain.UserStatusBlocked {
		user.Status = domain.UserStatusActive
	} else {
		user.Status = domain.UserStatusBlocked
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, errorutil.MapError(err)
	}
	return user, nil
}

// ToggleRole flips an account between user and admin. Only global admins may
// change roles, and a global admin account itself cannot be toggled.
func (s *AdminUserService) ToggleRole(ctx context.Context, actor *domain.User, userID string) (*domain.User, error) {
	if !authz.CanChangeRole(actor) {
		return nil, errorutil.NewForbidden("not allowed to change roles")
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, errorutil.MapError(err)
	}
	switch user.Role {
	case domain.RoleUser:
		user.Role = domain.RoleAdmin
	case domain.RoleAdmin:
		user.Role = domain.RoleUser
	default:
		return nil, errorutil.NewValidationError("cannot change the role of a global admin", nil)
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, errorutil.MapError(err)
	}
	return user, nil
}

// DeleteUser removes an account. The account's issues and comments remain;
// reads of them degrade to empty author fields.
func (s *AdminUserService) DeleteUser(ctx context.Context, actor *domain.User, userID string) error {
	if !authz.CanDeleteUser(actor) {
		return errorutil.NewForbidden("not allowed to delete users")
	}
	if actor != nil && actor.ID == userID {
		return errorutil.NewValidationError("cannot delete your own account", nil)
	}
	if err := s.users.Delete(ctx, userID); err != nil {
		return errorutil.MapError(err)
	}
	return nil
}

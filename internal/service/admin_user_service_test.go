package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/civic-issue-service/internal/domain"
	"github.com/spec-kit/civic-issue-service/pkg/util/errorutil"
)

func newAdminUserService(store *memStore) *AdminUserService {
	return NewAdminUserService(&fakeUserRepo{store: store})
}

func TestListUsersScoping(t *testing.T) {
	store := newMemStore()
	svc := newAdminUserService(store)

	local := seedUser(store, "local", "500081", domain.RoleUser)
	seedUser(store, "remote", "560001", domain.RoleUser)
	seedUser(store, "peer", "500081", domain.RoleAdmin)

	ctx := context.Background()

	_, err := svc.ListUsers(ctx, local)
	require.Error(t, err)
	assert.Equal(t, "FORBIDDEN", errorutil.ToDomainError(err).Code)

	// A local admin sees only plain users inside their postal code, never
	// fellow admins.
	admin := seedUser(store, "admin", "500 081", domain.RoleAdmin)
	users, err := svc.ListUsers(ctx, admin)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, local.ID, users[0].ID)

	global := seedUser(store, "root", "", domain.RoleGlobalAdmin)
	users, err = svc.ListUsers(ctx, global)
	require.NoError(t, err)
	assert.Len(t, users, 5)
}

func TestToggleBlockFlipsStatus(t *testing.T) {
	store := newMemStore()
	svc := newAdminUserService(store)

	target := seedUser(store, "target", "560001", domain.RoleUser)
	// Blocking is not postal-scoped.
	admin := seedUser(store, "admin", "500081", domain.RoleAdmin)

	ctx := context.Background()

	blocked, err := svc.ToggleBlock(ctx, admin, target.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.UserStatusBlocked, blocked.Status)

	unblocked, err := svc.ToggleBlock(ctx, admin, target.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.UserStatusActive, unblocked.Status)

	plain := seedUser(store, "plain", "500081", domain.RoleUser)
	_, err = svc.ToggleBlock(ctx, plain, target.ID)
	require.Error(t, err)
	assert.Equal(t, "FORBIDDEN", errorutil.ToDomainError(err).Code)
}

func TestToggleRoleGlobalAdminOnly(t *testing.T) {
	store := newMemStore()
	svc := newAdminUserService(store)

	target := seedUser(store, "target", "500081", domain.RoleUser)
	admin := seedUser(store, "admin", "500081", domain.RoleAdmin)
	global := seedUser(store, "root", "", domain.RoleGlobalAdmin)

	ctx := context.Background()

	_, err := svc.ToggleRole(ctx, admin, target.ID)
	require.Error(t, err)
	assert.Equal(t, "FORBIDDEN", errorutil.ToDomainError(err).Code)

	promoted, err := svc.ToggleRole(ctx, global, target.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, promoted.Role)

	demoted, err := svc.ToggleRole(ctx, global, target.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, demoted.Role)

	otherGlobal := seedUser(store, "root2", "", domain.RoleGlobalAdmin)
	_, err = svc.ToggleRole(ctx, global, otherGlobal.ID)
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_FAILED", errorutil.ToDomainError(err).Code)
}

func TestDeleteUser(t *testing.T) {
	store := newMemStore()
	svc := newAdminUserService(store)

	target := seedUser(store, "target", "560001", domain.RoleUser)
	admin := seedUser(store, "admin", "500081", domain.RoleAdmin)

	ctx := context.Background()

	err := svc.DeleteUser(ctx, admin, admin.ID)
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_FAILED", errorutil.ToDomainError(err).Code)

	require.NoError(t, svc.DeleteUser(ctx, admin, target.ID))

	err = svc.DeleteUser(ctx, admin, target.ID)
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", errorutil.ToDomainError(err).Code)
}

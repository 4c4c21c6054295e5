package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/civic-issue-service/internal/config"
	"github.com/spec-kit/civic-issue-service/internal/domain"
	"github.com/spec-kit/civic-issue-service/internal/repository"
	"github.com/spec-kit/civic-issue-service/pkg/util/errorutil"
)

type recordingMailer struct {
	mu    sync.Mutex
	codes map[string]string
}

func (m *recordingMailer) SendOTP(_ context.Context, to, _, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.codes == nil {
		m.codes = map[string]string{}
	}
	m.codes[to] = code
	return nil
}

func (m *recordingMailer) SendStatusNotice(context.Context, string, string, string) error {
	return nil
}

func (m *recordingMailer) lastCode(to string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.codes[to]
}

func newAuthService(t *testing.T, store *memStore) (*AuthService, *recordingMailer) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	mail := &recordingMailer{}
	svc := NewAuthService(config.AuthConfig{
		JWTSecret:             "test-secret",
		AccessTokenTTLMinutes: 60,
		BcryptCost:            4,
		AdminEmailDomain:      "admin.com",
		OTPTTLMinutes:         10,
	}, AuthDependencies{
		UserRepo: &fakeUserRepo{store: store},
		OTPStore: repository.NewOTPStore(client, 10*time.Minute),
		Mailer:   mail,
		Logger:   zap.NewNop(),
	})
	return svc, mail
}

func TestRegisterAssignsRoleAndPostal(t *testing.T) {
	store := newMemStore()
	svc, _ := newAuthService(t, store)
	ctx := context.Background()

	session, err := svc.Register(ctx, RegisterInput{
		Name: "Asha", Username: "asha", Email: "Asha@Example.com",
		Location: "MG Road, Hyderabad 500 034", Password: "secret1",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, session.User.Role)
	assert.Equal(t, "asha@example.com", session.User.Email)
	assert.Equal(t, "500034", session.User.PostalCode)
	assert.NotEmpty(t, session.Token)

	admin, err := svc.Register(ctx, RegisterInput{
		Name: "Ward Admin", Username: "ward", Email: "ward@admin.com",
		PostalCode: "500-081", Password: "secret1",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, admin.User.Role)
	assert.Equal(t, "500081", admin.User.PostalCode)
}

func TestRegisterConflicts(t *testing.T) {
	store := newMemStore()
	svc, _ := newAuthService(t, store)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{
		Name: "Asha", Username: "asha", Email: "asha@example.com", Password: "secret1",
	})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterInput{
		Name: "Imposter", Username: "other", Email: "asha@example.com", Password: "secret1",
	})
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", errorutil.ToDomainError(err).Code)

	_, err = svc.Register(ctx, RegisterInput{
		Name: "Imposter", Username: "asha", Email: "new@example.com", Password: "secret1",
	})
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", errorutil.ToDomainError(err).Code)
}

func TestLoginRejectsBadCredentialsAndBlocked(t *testing.T) {
	store := newMemStore()
	svc, _ := newAuthService(t, store)
	ctx := context.Background()

	session, err := svc.Register(ctx, RegisterInput{
		Name: "Asha", Username: "asha", Email: "asha@example.com", Password: "secret1",
	})
	require.NoError(t, err)

	_, err = svc.Login(ctx, "asha@example.com", "wrong")
	require.Error(t, err)
	assert.Equal(t, "UNAUTHORIZED", errorutil.ToDomainError(err).Code)

	_, err = svc.Login(ctx, "nobody@example.com", "secret1")
	require.Error(t, err)
	assert.Equal(t, "UNAUTHORIZED", errorutil.ToDomainError(err).Code)

	_, err = svc.Login(ctx, "asha@example.com", "secret1")
	require.NoError(t, err)

	// Block, then valid credentials must be refused.
	store.mu.Lock()
	user := store.users[session.User.ID]
	user.Status = domain.UserStatusBlocked
	store.users[user.ID] = user
	store.mu.Unlock()

	_, err = svc.Login(ctx, "asha@example.com", "secret1")
	require.Error(t, err)
	assert.Equal(t, "FORBIDDEN", errorutil.ToDomainError(err).Code)
}

func TestOTPVerifyConsumesCode(t *testing.T) {
	store := newMemStore()
	svc, mail := newAuthService(t, store)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{
		Name: "Asha", Username: "asha", Email: "asha@example.com", Password: "secret1",
	})
	require.NoError(t, err)

	require.NoError(t, svc.SendOTP(ctx, "asha@example.com"))
	code := mail.lastCode("asha@example.com")
	require.Len(t, code, 6)

	valid, err := svc.CheckOTP(ctx, "asha@example.com", code)
	require.NoError(t, err)
	assert.True(t, valid)

	// Check does not consume; verify does.
	session, err := svc.VerifyOTP(ctx, "asha@example.com", code)
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)

	_, err = svc.VerifyOTP(ctx, "asha@example.com", code)
	require.Error(t, err)
	assert.Equal(t, "UNAUTHORIZED", errorutil.ToDomainError(err).Code)
}

func TestSendOTPUnknownAccount(t *testing.T) {
	store := newMemStore()
	svc, _ := newAuthService(t, store)

	err := svc.SendOTP(context.Background(), "ghost@example.com")
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", errorutil.ToDomainError(err).Code)
}

func TestResetPasswordWithOTP(t *testing.T) {
	store := newMemStore()
	svc, mail := newAuthService(t, store)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{
		Name: "Asha", Username: "asha", Email: "asha@example.com", Password: "oldpass",
	})
	require.NoError(t, err)

	require.NoError(t, svc.SendOTP(ctx, "asha@example.com"))
	code := mail.lastCode("asha@example.com")

	require.NoError(t, svc.ResetPasswordWithOTP(ctx, "asha@example.com", code, "newpass"))

	_, err = svc.Login(ctx, "asha@example.com", "oldpass")
	require.Error(t, err)

	_, err = svc.Login(ctx, "asha@example.com", "newpass")
	require.NoError(t, err)

	// The code is single-use.
	err = svc.ResetPasswordWithOTP(ctx, "asha@example.com", code, "another")
	require.Error(t, err)
	assert.Equal(t, "UNAUTHORIZED", errorutil.ToDomainError(err).Code)
}

func TestUpdateProfileReextractsPostal(t *testing.T) {
	store := newMemStore()
	svc, _ := newAuthService(t, store)
	ctx := context.Background()

	session, err := svc.Register(ctx, RegisterInput{
		Name: "Asha", Username: "asha", Email: "asha@example.com",
		Location: "Hyderabad 500034", Password: "secret1",
	})
	require.NoError(t, err)
	require.Equal(t, "500034", session.User.PostalCode)

	newLocation := "Indiranagar, Bangalore 560038"
	updated, err := svc.UpdateProfile(ctx, session.User, ProfileUpdateInput{Location: &newLocation})
	require.NoError(t, err)
	assert.Equal(t, "560038", updated.PostalCode)

	explicit := "110 011"
	updated, err = svc.UpdateProfile(ctx, session.User, ProfileUpdateInput{PostalCode: &explicit})
	require.NoError(t, err)
	assert.Equal(t, "110011", updated.PostalCode)
}

func TestChangePasswordRequiresCurrent(t *testing.T) {
	store := newMemStore()
	svc, _ := newAuthService(t, store)
	ctx := context.Background()

	session, err := svc.Register(ctx, RegisterInput{
		Name: "Asha", Username: "asha", Email: "asha@example.com", Password: "secret1",
	})
	require.NoError(t, err)

	err = svc.ChangePassword(ctx, session.User, "wrong", "next1")
	require.Error(t, err)
	assert.Equal(t, "UNAUTHORIZED", errorutil.ToDomainError(err).Code)

	require.NoError(t, svc.ChangePassword(ctx, session.User, "secret1", "next1"))
	_, err = svc.Login(ctx, "asha@example.com", "next1")
	require.NoError(t, err)
}

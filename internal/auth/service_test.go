package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Umair-28/logistics-management/internal/shared"
)

type memoryRepo struct {
	users    map[string]*User
	sessions map[string]int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{users: make(map[string]*User), sessions: make(map[string]int64)}
}

func (r *memoryRepo) FindByEmail(ctx context.Context, email string) (*User, error) {
	u, ok := r.users[email]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return u, nil
}

func (r *memoryRepo) CreateSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	r.sessions[id] = userID
	return nil
}

func (r *memoryRepo) DeleteSession(ctx context.Context, id string) error {
	delete(r.sessions, id)
	return nil
}

func seedUser(t *testing.T, repo *memoryRepo, email, password string, active bool) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	repo.users[email] = &User{
		ID:           1,
		Email:        email,
		Name:         "Dispatcher",
		PasswordHash: string(hash),
		IsActive:     active,
	}
}

func TestAuthenticateSuccess(t *testing.T) {
	repo := newMemoryRepo()
	seedUser(t, repo, "ops@example.com", "s3cret-pass", true)
	svc := NewService(repo)

	user, err := svc.Authenticate(context.Background(), "ops@example.com", "s3cret-pass")
	require.NoError(t, err)
	require.Equal(t, "ops@example.com", user.Email)
}

func TestAuthenticateWrongPassword(t *testing.T) {
	repo := newMemoryRepo()
	seedUser(t, repo, "ops@example.com", "s3cret-pass", true)
	svc := NewService(repo)

	_, err := svc.Authenticate(context.Background(), "ops@example.com", "wrong")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestAuthenticateUnknownEmail(t *testing.T) {
	svc := NewService(newMemoryRepo())

	_, err := svc.Authenticate(context.Background(), "nobody@example.com", "whatever")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestAuthenticateInactiveUser(t *testing.T) {
	repo := newMemoryRepo()
	seedUser(t, repo, "ops@example.com", "s3cret-pass", false)
	svc := NewService(repo)

	_, err := svc.Authenticate(context.Background(), "ops@example.com", "s3cret-pass")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestSessionLifecycle(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	require.NoError(t, svc.RegisterSession(ctx, "sess-1", 1, time.Now().Add(time.Hour), "127.0.0.1", "go-test"))
	require.Equal(t, int64(1), repo.sessions["sess-1"])

	require.NoError(t, svc.RemoveSession(ctx, "sess-1"))
	require.NotContains(t, repo.sessions, "sess-1")
}

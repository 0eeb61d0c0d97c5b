package shared

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnsureTokenIsStable(t *testing.T) {
	m := NewCSRFManager("csrf-secret")
	sess := &Session{ID: "sess-1"}
	ctx := context.Background()

	first, err := m.EnsureToken(ctx, sess)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	second, err := m.EnsureToken(ctx, sess)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestVerifyToken(t *testing.T) {
	m := NewCSRFManager("csrf-secret")
	sess := &Session{ID: "sess-1"}
	ctx := context.Background()

	token, err := m.EnsureToken(ctx, sess)
	require.NoError(t, err)

	require.NoError(t, m.VerifyToken(ctx, sess, token))
	require.ErrorIs(t, m.VerifyToken(ctx, sess, "tampered"), ErrCSRFTokenMismatch)
	require.ErrorIs(t, m.VerifyToken(ctx, sess, ""), ErrCSRFTokenMissing)
	require.ErrorIs(t, m.VerifyToken(ctx, nil, token), ErrCSRFTokenMissing)

	fresh := &Session{ID: "sess-2"}
	require.ErrorIs(t, m.VerifyToken(ctx, fresh, token), ErrCSRFTokenMissing)
}

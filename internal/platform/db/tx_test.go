package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

func TestIsLockConflictDetectsContentionCodes(t *testing.T) {
	for _, code := range []string{
		codeLockNotAvailable,
		codeSerializationFailure,
		codeDeadlockDetected,
	} {
		err := fmt.Errorf("get row: %w", &pgconn.PgError{Code: code})
		require.True(t, IsLockConflict(err), "code %s", code)
	}
}

func TestIsLockConflictIgnoresOtherErrors(t *testing.T) {
	require.False(t, IsLockConflict(nil))
	require.False(t, IsLockConflict(errors.New("no rows in result set")))
	// Unrelated postgres errors must not read as contention.
	require.False(t, IsLockConflict(&pgconn.PgError{Code: "23505"}))
}

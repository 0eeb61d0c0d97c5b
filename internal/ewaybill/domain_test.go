package ewaybill

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestComputeIsExpired(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	past := now.Add(-time.Minute)
	require.True(t, ComputeIsExpired(&past, now))

	future := now.Add(time.Minute)
	require.False(t, ComputeIsExpired(&future, now))

	require.False(t, ComputeIsExpired(&now, now))
	require.False(t, ComputeIsExpired(nil, now))
}

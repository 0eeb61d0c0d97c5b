package tripsheet

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestComputeDurationHours(t *testing.T) {
	start := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

	end := start.Add(90 * time.Minute)
	require.InDelta(t, 1.5, ComputeDurationHours(&start, &end), 0.0001)

	end = start.Add(10*time.Minute + 5*time.Second)
	require.InDelta(t, 0.17, ComputeDurationHours(&start, &end), 0.0001)

	require.Zero(t, ComputeDurationHours(nil, &end))
	require.Zero(t, ComputeDurationHours(&start, nil))
	require.Zero(t, ComputeDurationHours(nil, nil))
}

func TestStatusPredicates(t *testing.T) {
	require.True(t, StatusDraft.CanStart())
	require.False(t, StatusInProgress.CanStart())
	require.True(t, StatusInProgress.CanComplete())
	require.False(t, StatusDraft.CanComplete())
	require.True(t, StatusDraft.CanCancel())
	require.True(t, StatusInProgress.CanCancel())
	require.False(t, StatusCompleted.CanCancel())
	require.False(t, StatusCancelled.CanEdit())
}

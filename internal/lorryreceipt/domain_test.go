package lorryreceipt

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStatusColor(t *testing.T) {
	require.Equal(t, "gray", StatusDraft.Color())
	require.Equal(t, "blue", StatusDispatched.Color())
	require.Equal(t, "orange", StatusInTransit.Color())
	require.Equal(t, "green", StatusDelivered.Color())
	require.Equal(t, "red", StatusCancelled.Color())
	require.Equal(t, "gray", Status("bogus").Color())
}

func TestEditOnlyInDraft(t *testing.T) {
	require.True(t, StatusDraft.CanEdit())
	require.False(t, StatusDispatched.CanEdit())
	require.False(t, StatusInTransit.CanEdit())
	require.False(t, StatusDelivered.CanEdit())
	require.False(t, StatusCancelled.CanEdit())
}

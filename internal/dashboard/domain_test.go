package dashboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPercentageChange(t *testing.T) {
	require.InDelta(t, 100.0, PercentageChange(10, 0), 0.0001)
	require.InDelta(t, 0.0, PercentageChange(0, 0), 0.0001)
	require.InDelta(t, 50.0, PercentageChange(150, 100), 0.0001)
	require.InDelta(t, -50.0, PercentageChange(50, 100), 0.0001)
	require.InDelta(t, 33.3, PercentageChange(120, 90), 0.0001)
}

func TestFleetDistribution(t *testing.T) {
	fs := FleetDistribution(6, 2, 10)
	require.Equal(t, 60, fs.Active)
	require.Equal(t, 20, fs.Maintenance)
	require.Equal(t, 20, fs.Idle)
	require.Equal(t, 60, fs.Utilization)

	// buckets always sum to 100 even with rounding
	fs = FleetDistribution(1, 1, 3)
	require.Equal(t, 100, fs.Active+fs.Maintenance+fs.Idle)

	require.Equal(t, FleetStatus{}, FleetDistribution(0, 0, 0))
}

func TestRelativeTime(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	require.Equal(t, "Unknown", RelativeTime(time.Time{}, now))
	require.Equal(t, "Just now", RelativeTime(now.Add(-30*time.Second), now))
	require.Equal(t, "5 minutes ago", RelativeTime(now.Add(-5*time.Minute), now))
	require.Equal(t, "3 hours ago", RelativeTime(now.Add(-3*time.Hour), now))
	require.Equal(t, "2 days ago", RelativeTime(now.Add(-49*time.Hour), now))
	require.Equal(t, "2 weeks ago", RelativeTime(now.AddDate(0, 0, -15), now))
}

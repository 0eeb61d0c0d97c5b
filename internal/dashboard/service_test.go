package dashboard

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type mockRepo struct {
	active       int
	prevShipments int
	revenue      float64
	prevRevenue  float64
	delayed      int
	unpaid       int
	customers    int
	newCustomers int
	fleet        FleetCounts
	lowStock     int
	shipments    []RecentShipment
	invoices     []RecentInvoice
	vehicles     []RecentVehicle

	activeCalls atomic.Int64
}

func (m *mockRepo) ActiveShipmentCount(ctx context.Context) (int, error) {
	m.activeCalls.Add(1)
	return m.active, nil
}

func (m *mockRepo) ShipmentCountCreatedBetween(ctx context.Context, from, to time.Time) (int, error) {
	return m.prevShipments, nil
}

func (m *mockRepo) ShipmentCountScheduledOn(ctx context.Context, day time.Time) (int, error) {
	return 3, nil
}

func (m *mockRepo) DelayedShipmentCount(ctx context.Context, now time.Time) (int, error) {
	return m.delayed, nil
}

func (m *mockRepo) RevenueBetween(ctx context.Context, from, to time.Time) (float64, error) {
	if from.Before(time.Date(time.Now().Year(), time.Now().Month(), 1, 0, 0, 0, 0, time.Local)) {
		return m.prevRevenue, nil
	}
	return m.revenue, nil
}

func (m *mockRepo) UnpaidInvoiceCount(ctx context.Context) (int, error) {
	return m.unpaid, nil
}

func (m *mockRepo) ActiveCustomerCount(ctx context.Context) (int, error) {
	return m.customers, nil
}

func (m *mockRepo) NewCustomerCountSince(ctx context.Context, since time.Time) (int, error) {
	return m.newCustomers, nil
}

func (m *mockRepo) FleetStatusCounts(ctx context.Context) (FleetCounts, error) {
	return m.fleet, nil
}

func (m *mockRepo) LowStockProductCount(ctx context.Context) (int, error) {
	return m.lowStock, nil
}

func (m *mockRepo) RecentShipments(ctx context.Context, limit int) ([]RecentShipment, error) {
	return m.shipments, nil
}

func (m *mockRepo) RecentPaidInvoices(ctx context.Context, limit int) ([]RecentInvoice, error) {
	return m.invoices, nil
}

func (m *mockRepo) RecentVehicles(ctx context.Context, limit int) ([]RecentVehicle, error) {
	return m.vehicles, nil
}

func seededRepo() *mockRepo {
	now := time.Now()
	return &mockRepo{
		active:        12,
		prevShipments: 8,
		revenue:       2500000,
		prevRevenue:   2000000,
		delayed:       2,
		unpaid:        5,
		customers:     40,
		newCustomers:  3,
		fleet:         FleetCounts{Total: 10, Active: 6, Maintenance: 2},
		lowStock:      0,
		shipments: []RecentShipment{
			{ID: 1, Reference: "RD-00009", CreatedAt: now.Add(-10 * time.Minute)},
			{ID: 2, Reference: "RD-00008", CreatedAt: now.Add(-2 * time.Hour)},
		},
		invoices: []RecentInvoice{
			{ID: 7, Reference: "INV-0042", UpdatedAt: now.Add(-30 * time.Minute)},
		},
		vehicles: []RecentVehicle{
			{ID: 3, Name: "MH-12-AB-1234", Status: "maintenance", UpdatedAt: now.Add(-3 * time.Hour)},
		},
	}
}

func TestSnapshotAssemblesAllSections(t *testing.T) {
	repo := seededRepo()
	svc := NewService(repo, nil)

	snap, err := svc.Snapshot(context.Background())
	require.NoError(t, err)

	require.Equal(t, 12, snap.ActiveShipments)
	require.InDelta(t, 50.0, snap.ShipmentsChange, 0.0001)
	require.Equal(t, 10, snap.FleetVehicles)
	require.Equal(t, 60, snap.FleetUtilization)
	require.InDelta(t, 2.5, snap.MonthlyRevenueM, 0.0001)
	require.InDelta(t, 25.0, snap.RevenueChange, 0.0001)
	require.Equal(t, 40, snap.ActiveCustomers)
	require.Equal(t, 3, snap.NewCustomersThisWeek)

	require.Len(t, snap.ShipmentTrends, 7)
	require.True(t, snap.ShipmentTrends[0].Date < snap.ShipmentTrends[6].Date)

	require.Len(t, snap.RecentActivities, 4)
	require.Equal(t, "New shipment created: RD-00009", snap.RecentActivities[0].Title)
	require.Equal(t, "Invoice INV-0042 paid", snap.RecentActivities[2].Title)
	require.Equal(t, "Maintenance scheduled for MH-12-AB-1234", snap.RecentActivities[3].Title)
	require.Equal(t, "10 minutes ago", snap.RecentActivities[0].Time)

	require.Len(t, snap.Alerts, 3)
	require.Equal(t, "2 vehicles due for maintenance", snap.Alerts[0].Title)
	require.Equal(t, "warning", snap.Alerts[0].Type)
	require.Equal(t, "Action required", snap.Alerts[0].Time)
	require.Equal(t, "2 delayed shipments", snap.Alerts[1].Title)
	require.Equal(t, "danger", snap.Alerts[1].Type)
	require.Equal(t, "5 pending invoices", snap.Alerts[2].Title)
	require.Equal(t, "info", snap.Alerts[2].Type)
}

func TestAlertsOmittedWhenCountsZero(t *testing.T) {
	repo := seededRepo()
	repo.delayed = 0
	repo.unpaid = 0
	repo.fleet = FleetCounts{Total: 10, Active: 10}
	svc := NewService(repo, nil)

	snap, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	require.Empty(t, snap.Alerts)
}

func TestSnapshotServedFromCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := seededRepo()
	svc := NewService(repo, NewCache(client, time.Minute))
	ctx := context.Background()

	first, err := svc.Snapshot(ctx)
	require.NoError(t, err)
	second, err := svc.Snapshot(ctx)
	require.NoError(t, err)

	require.Equal(t, first.ActiveShipments, second.ActiveShipments)
	require.Equal(t, int64(1), repo.activeCalls.Load())
}

func TestRefreshBypassesWarmCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := seededRepo()
	svc := NewService(repo, NewCache(client, time.Minute))
	ctx := context.Background()

	_, err := svc.Snapshot(ctx)
	require.NoError(t, err)

	repo.active = 20
	refreshed, err := svc.Refresh(ctx)
	require.NoError(t, err)
	require.Equal(t, 20, refreshed.ActiveShipments)
	require.Equal(t, int64(2), repo.activeCalls.Load())
}

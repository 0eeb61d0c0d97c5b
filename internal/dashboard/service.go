package dashboard

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const trendDays = 7

// Service assembles dashboard snapshots. It performs no writes; every
// component number is drawn from its own query, without a cross-query
// snapshot guarantee.
type Service struct {
	repo    Repository
	cache   *Cache
	printer *message.Printer
	now     func() time.Time
}

// NewService wires a Repository with a Cache helper.
func NewService(repo Repository, cache *Cache) *Service {
	return &Service{
		repo:    repo,
		cache:   cache,
		printer: message.NewPrinter(language.English),
		now:     time.Now,
	}
}

// Snapshot returns the dashboard payload, served from cache when warm.
func (s *Service) Snapshot(ctx context.Context) (Snapshot, error) {
	loader := func(ctx context.Context) (interface{}, error) {
		return s.build(ctx)
	}

	if s.cache == nil {
		value, err := loader(ctx)
		if err != nil {
			return Snapshot{}, err
		}
		return value.(Snapshot), nil
	}

	key, err := s.cache.BuildKey(ctx, "dashboard:snapshot")
	if err != nil {
		return Snapshot{}, err
	}
	var snap Snapshot
	if err := s.cache.FetchJSON(ctx, key, &snap, loader); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// Refresh rebuilds the snapshot bypassing the cache and stores the result.
func (s *Service) Refresh(ctx context.Context) (Snapshot, error) {
	if err := s.cache.Bump(ctx); err != nil {
		return Snapshot{}, err
	}
	return s.Snapshot(ctx)
}

func (s *Service) build(ctx context.Context) (Snapshot, error) {
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	prevMonthStart := monthStart.AddDate(0, -1, 0)
	weekAgo := today.AddDate(0, 0, -7)

	var (
		activeShipments    int
		prevMonthShipments int
		revenue            float64
		prevRevenue        float64
		customers          int
		newCustomers       int
		fleet              FleetCounts
		trends             []TrendPoint
		activities         []Activity
		alerts             []Alert
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		activeShipments, err = s.repo.ActiveShipmentCount(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		prevMonthShipments, err = s.repo.ShipmentCountCreatedBetween(gctx, prevMonthStart, monthStart)
		return err
	})
	g.Go(func() error {
		var err error
		revenue, err = s.repo.RevenueBetween(gctx, monthStart, monthStart.AddDate(0, 1, 0))
		return err
	})
	g.Go(func() error {
		var err error
		prevRevenue, err = s.repo.RevenueBetween(gctx, prevMonthStart, monthStart)
		return err
	})
	g.Go(func() error {
		var err error
		customers, err = s.repo.ActiveCustomerCount(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		newCustomers, err = s.repo.NewCustomerCountSince(gctx, weekAgo)
		return err
	})
	g.Go(func() error {
		var err error
		fleet, err = s.repo.FleetStatusCounts(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		trends, err = s.shipmentTrends(gctx, today)
		return err
	})
	g.Go(func() error {
		var err error
		activities, err = s.recentActivities(gctx, now)
		return err
	})
	g.Go(func() error {
		var err error
		alerts, err = s.collectAlerts(gctx, now)
		return err
	})

	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}

	fleetStatus := FleetDistribution(fleet.Active, fleet.Maintenance, fleet.Total)

	return Snapshot{
		ActiveShipments:      activeShipments,
		ShipmentsChange:      PercentageChange(float64(activeShipments), float64(prevMonthShipments)),
		FleetVehicles:        fleet.Total,
		FleetUtilization:     fleetStatus.Utilization,
		MonthlyRevenueM:      revenue / 1000000,
		RevenueChange:        PercentageChange(revenue, prevRevenue),
		ActiveCustomers:      customers,
		NewCustomersThisWeek: newCustomers,
		ShipmentTrends:       trends,
		FleetStatus:          fleetStatus,
		RecentActivities:     activities,
		Alerts:               alerts,
		GeneratedAt:          now,
	}, nil
}

// shipmentTrends builds the trailing daily series, oldest day first.
func (s *Service) shipmentTrends(ctx context.Context, today time.Time) ([]TrendPoint, error) {
	trends := make([]TrendPoint, 0, trendDays)
	for i := trendDays - 1; i >= 0; i-- {
		day := today.AddDate(0, 0, -i)
		count, err := s.repo.ShipmentCountScheduledOn(ctx, day)
		if err != nil {
			return nil, err
		}
		trends = append(trends, TrendPoint{Date: day.Format("2006-01-02"), Count: count})
	}
	return trends, nil
}

// recentActivities merges the newest shipments, paid invoices and vehicle
// maintenance events into a feed of at most four entries.
func (s *Service) recentActivities(ctx context.Context, now time.Time) ([]Activity, error) {
	activities := make([]Activity, 0, 5)

	shipments, err := s.repo.RecentShipments(ctx, 2)
	if err != nil {
		return nil, err
	}
	for _, sh := range shipments {
		activities = append(activities, Activity{
			ID:    fmt.Sprintf("shipment_%d", sh.ID),
			Icon:  "package",
			Title: fmt.Sprintf("New shipment created: %s", sh.Reference),
			Time:  RelativeTime(sh.CreatedAt, now),
		})
	}

	invoices, err := s.repo.RecentPaidInvoices(ctx, 2)
	if err != nil {
		return nil, err
	}
	for _, inv := range invoices {
		activities = append(activities, Activity{
			ID:    fmt.Sprintf("invoice_%d", inv.ID),
			Icon:  "cash",
			Title: fmt.Sprintf("Invoice %s paid", inv.Reference),
			Time:  RelativeTime(inv.UpdatedAt, now),
		})
	}

	vehicles, err := s.repo.RecentVehicles(ctx, 1)
	if err != nil {
		return nil, err
	}
	for _, v := range vehicles {
		if v.Status == "maintenance" {
			activities = append(activities, Activity{
				ID:    fmt.Sprintf("vehicle_%d", v.ID),
				Icon:  "wrench",
				Title: fmt.Sprintf("Maintenance scheduled for %s", v.Name),
				Time:  RelativeTime(v.UpdatedAt, now),
			})
		}
	}

	if len(activities) > 4 {
		activities = activities[:4]
	}
	return activities, nil
}

// collectAlerts assembles the alert list. An alert appears only when its
// triggering count is nonzero.
func (s *Service) collectAlerts(ctx context.Context, now time.Time) ([]Alert, error) {
	var alerts []Alert

	maintenanceCount, err := s.repo.FleetStatusCounts(ctx)
	if err != nil {
		return nil, err
	}
	if maintenanceCount.Maintenance > 0 {
		alerts = append(alerts, Alert{
			ID:    "maintenance_alert",
			Type:  "warning",
			Icon:  "wrench",
			Title: s.printer.Sprintf("%d vehicles due for maintenance", maintenanceCount.Maintenance),
			Time:  "Action required",
		})
	}

	delayed, err := s.repo.DelayedShipmentCount(ctx, now)
	if err != nil {
		return nil, err
	}
	if delayed > 0 {
		alerts = append(alerts, Alert{
			ID:    "delayed_shipments",
			Type:  "danger",
			Icon:  "siren",
			Title: s.printer.Sprintf("%d delayed shipments", delayed),
			Time:  "Urgent attention needed",
		})
	}

	unpaid, err := s.repo.UnpaidInvoiceCount(ctx)
	if err != nil {
		return nil, err
	}
	if unpaid > 0 {
		alerts = append(alerts, Alert{
			ID:    "pending_invoices",
			Type:  "info",
			Icon:  "clipboard",
			Title: s.printer.Sprintf("%d pending invoices", unpaid),
			Time:  "Review required",
		})
	}

	lowStock, err := s.repo.LowStockProductCount(ctx)
	if err != nil {
		return nil, err
	}
	if lowStock > 0 {
		alerts = append(alerts, Alert{
			ID:    "low_stock",
			Type:  "warning",
			Icon:  "chart-down",
			Title: s.printer.Sprintf("%d products low in stock", lowStock),
			Time:  "Reorder recommended",
		})
	}

	return alerts, nil
}

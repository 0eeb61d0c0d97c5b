package dashboard

import (
	"fmt"
	"math"
	"time"
)

// Snapshot is the full dashboard payload, assembled in one call.
type Snapshot struct {
	ActiveShipments      int             `json:"active_shipments"`
	ShipmentsChange      float64         `json:"shipments_change"`
	FleetVehicles        int             `json:"fleet_vehicles"`
	FleetUtilization     int             `json:"fleet_utilization"`
	MonthlyRevenueM      float64         `json:"monthly_revenue_millions"`
	RevenueChange        float64         `json:"revenue_change"`
	ActiveCustomers      int             `json:"active_customers"`
	NewCustomersThisWeek int             `json:"new_customers_this_week"`
	ShipmentTrends       []TrendPoint    `json:"shipment_trends"`
	FleetStatus          FleetStatus     `json:"fleet_status"`
	RecentActivities     []Activity      `json:"recent_activities"`
	Alerts               []Alert         `json:"alerts"`
	GeneratedAt          time.Time       `json:"generated_at"`
}

// TrendPoint is one day's shipment count in the trailing series.
type TrendPoint struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// FleetStatus is the fleet distribution in whole percentages.
type FleetStatus struct {
	Active      int `json:"active"`
	Maintenance int `json:"maintenance"`
	Idle        int `json:"idle"`
	Utilization int `json:"utilization"`
}

// Activity is one entry in the recent-activity feed.
type Activity struct {
	ID    string `json:"id"`
	Icon  string `json:"icon"`
	Title string `json:"title"`
	Time  string `json:"time"`
}

// Alert is one entry in the prioritised alert list.
type Alert struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Icon  string `json:"icon"`
	Title string `json:"title"`
	Time  string `json:"time"`
}

// PercentageChange compares current against previous. A previous of zero
// yields 100 for any growth and 0 otherwise, so "new activity from nothing"
// reads differently from "no activity".
func PercentageChange(current, previous float64) float64 {
	if previous == 0 {
		if current > 0 {
			return 100
		}
		return 0
	}
	return math.Round(((current-previous)/previous)*100*10) / 10
}

// FleetDistribution computes whole-percentage buckets over the fleet. Idle
// takes the remainder so the three buckets always sum to exactly 100 when
// the fleet is non-empty.
func FleetDistribution(active, maintenance, total int) FleetStatus {
	if total == 0 {
		return FleetStatus{}
	}
	activePct := int(math.Round(float64(active) / float64(total) * 100))
	maintenancePct := int(math.Round(float64(maintenance) / float64(total) * 100))
	return FleetStatus{
		Active:      activePct,
		Maintenance: maintenancePct,
		Idle:        100 - activePct - maintenancePct,
		Utilization: activePct,
	}
}

// RelativeTime buckets the elapsed time since t into a human string. The
// coarsest bucket is weeks; month and year granularity is out of scope.
func RelativeTime(t time.Time, now time.Time) string {
	if t.IsZero() {
		return "Unknown"
	}
	minutes := now.Sub(t).Minutes()
	if minutes < 1 {
		return "Just now"
	}
	if minutes < 60 {
		return fmt.Sprintf("%d minutes ago", int(minutes))
	}
	hours := minutes / 60
	if hours < 24 {
		return fmt.Sprintf("%d hours ago", int(hours))
	}
	days := hours / 24
	if days < 7 {
		return fmt.Sprintf("%d days ago", int(days))
	}
	return fmt.Sprintf("%d weeks ago", int(days/7))
}

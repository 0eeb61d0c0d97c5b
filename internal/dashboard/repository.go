package dashboard

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RecentShipment is a shipment row surfaced in the activity feed.
type RecentShipment struct {
	ID        int64
	Reference string
	CreatedAt time.Time
}

// RecentInvoice is a paid invoice row surfaced in the activity feed.
type RecentInvoice struct {
	ID        int64
	Reference string
	UpdatedAt time.Time
}

// RecentVehicle is a fleet vehicle row surfaced in the activity feed.
type RecentVehicle struct {
	ID        int64
	Name      string
	Status    string
	UpdatedAt time.Time
}

// FleetCounts holds the raw per-status vehicle tallies.
type FleetCounts struct {
	Total       int
	Active      int
	Maintenance int
}

// Repository is the read-only query surface the aggregation engine draws
// from. Every method tolerates empty tables and returns zero values.
type Repository interface {
	ActiveShipmentCount(ctx context.Context) (int, error)
	ShipmentCountCreatedBetween(ctx context.Context, from, to time.Time) (int, error)
	ShipmentCountScheduledOn(ctx context.Context, day time.Time) (int, error)
	DelayedShipmentCount(ctx context.Context, now time.Time) (int, error)
	RevenueBetween(ctx context.Context, from, to time.Time) (float64, error)
	UnpaidInvoiceCount(ctx context.Context) (int, error)
	ActiveCustomerCount(ctx context.Context) (int, error)
	NewCustomerCountSince(ctx context.Context, since time.Time) (int, error)
	FleetStatusCounts(ctx context.Context) (FleetCounts, error)
	LowStockProductCount(ctx context.Context) (int, error)
	RecentShipments(ctx context.Context, limit int) ([]RecentShipment, error)
	RecentPaidInvoices(ctx context.Context, limit int) ([]RecentInvoice, error)
	RecentVehicles(ctx context.Context, limit int) ([]RecentVehicle, error)
}

// PGRepository implements Repository over PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// ActiveShipmentCount counts shipments still moving through the pipeline.
func (r *PGRepository) ActiveShipmentCount(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM shipments WHERE status IN ('assigned', 'confirmed', 'waiting')`,
	).Scan(&count)
	return count, err
}

// ShipmentCountCreatedBetween counts active-pipeline shipments created in
// the half-open window [from, to).
func (r *PGRepository) ShipmentCountCreatedBetween(ctx context.Context, from, to time.Time) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM shipments
		WHERE status IN ('assigned', 'confirmed', 'waiting')
		  AND created_at >= $1 AND created_at < $2`, from, to,
	).Scan(&count)
	return count, err
}

// ShipmentCountScheduledOn counts shipments scheduled within one calendar day.
func (r *PGRepository) ShipmentCountScheduledOn(ctx context.Context, day time.Time) (int, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.Add(24 * time.Hour)
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM shipments
		WHERE scheduled_date >= $1 AND scheduled_date < $2`, start, end,
	).Scan(&count)
	return count, err
}

// DelayedShipmentCount counts shipments past their scheduled date.
func (r *PGRepository) DelayedShipmentCount(ctx context.Context, now time.Time) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM shipments
		WHERE status IN ('assigned', 'confirmed') AND scheduled_date < $1`, now,
	).Scan(&count)
	return count, err
}

// RevenueBetween sums posted outbound invoices dated in [from, to).
func (r *PGRepository) RevenueBetween(ctx context.Context, from, to time.Time) (float64, error) {
	var total float64
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount_total), 0) FROM invoices
		WHERE invoice_type = 'out_invoice' AND state = 'posted'
		  AND invoice_date >= $1 AND invoice_date < $2`, from, to,
	).Scan(&total)
	return total, err
}

// UnpaidInvoiceCount counts posted outbound invoices not yet paid.
func (r *PGRepository) UnpaidInvoiceCount(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM invoices
		WHERE invoice_type = 'out_invoice' AND state = 'posted' AND payment_state <> 'paid'`,
	).Scan(&count)
	return count, err
}

// ActiveCustomerCount counts partners ranked as customers.
func (r *PGRepository) ActiveCustomerCount(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM partners WHERE customer_rank > 0`,
	).Scan(&count)
	return count, err
}

// NewCustomerCountSince counts customers created on or after since.
func (r *PGRepository) NewCustomerCountSince(ctx context.Context, since time.Time) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM partners WHERE customer_rank > 0 AND created_at >= $1`, since,
	).Scan(&count)
	return count, err
}

// FleetStatusCounts tallies the fleet by operational status.
func (r *PGRepository) FleetStatusCounts(ctx context.Context) (FleetCounts, error) {
	var c FleetCounts
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'active'),
		       COUNT(*) FILTER (WHERE status = 'maintenance')
		FROM fleet_vehicles`,
	).Scan(&c.Total, &c.Active, &c.Maintenance)
	return c, err
}

// LowStockProductCount counts stocked products running low.
func (r *PGRepository) LowStockProductCount(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM products
		WHERE product_type = 'product' AND qty_available > 0 AND qty_available < 10`,
	).Scan(&count)
	return count, err
}

// RecentShipments returns the newest shipments for the activity feed.
func (r *PGRepository) RecentShipments(ctx context.Context, limit int) ([]RecentShipment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, reference, created_at FROM shipments
		ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RecentShipment
	for rows.Next() {
		var s RecentShipment
		if err := rows.Scan(&s.ID, &s.Reference, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// RecentPaidInvoices returns the most recently paid outbound invoices.
func (r *PGRepository) RecentPaidInvoices(ctx context.Context, limit int) ([]RecentInvoice, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, reference, updated_at FROM invoices
		WHERE invoice_type = 'out_invoice' AND payment_state = 'paid'
		ORDER BY updated_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RecentInvoice
	for rows.Next() {
		var inv RecentInvoice
		if err := rows.Scan(&inv.ID, &inv.Reference, &inv.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

// RecentVehicles returns the most recently touched fleet vehicles.
func (r *PGRepository) RecentVehicles(ctx context.Context, limit int) ([]RecentVehicle, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, status, updated_at FROM fleet_vehicles
		ORDER BY updated_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RecentVehicle
	for rows.Next() {
		var v RecentVehicle
		if err := rows.Scan(&v.ID, &v.Name, &v.Status, &v.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

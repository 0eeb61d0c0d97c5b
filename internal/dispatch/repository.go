package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Umair-28/logistics-management/internal/platform/db"
	"github.com/Umair-28/logistics-management/internal/shared"
)

const dispatchColumns = `id, reference, dispatch_date, vehicle_id, driver_id, route_name,
	       source_location, destination_location, distance_km, estimated_hours,
	       status, trip_sheet_id, total_fuel, mileage_kmpl, remarks, total_lr,
	       started_at, completed_at, cancelled_at, created_by, created_at, updated_at`

// Repository provides PostgreSQL backed persistence for route dispatches.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes operations bound to one transaction.
type TxRepository interface {
	NextReference(ctx context.Context) (string, error)
	CreateDispatch(ctx context.Context, d RouteDispatch) (int64, error)
	GetForUpdate(ctx context.Context, id int64) (*RouteDispatch, error)
	UpdateDispatch(ctx context.Context, id int64, updates map[string]interface{}) error
	UpdateStatus(ctx context.Context, id int64, status Status, updates map[string]interface{}) error
	DeleteLorryReceipts(ctx context.Context, dispatchID int64) (int64, error)
	DeleteEwayBills(ctx context.Context, dispatchID int64) (int64, error)
	DetachPODs(ctx context.Context, dispatchID int64) (int64, error)
	DeleteDispatch(ctx context.Context, id int64) error
	CheckVehicleExists(ctx context.Context, vehicleID int64) (bool, error)
	CheckDriverExists(ctx context.Context, driverID int64) (bool, error)
	CheckTripSheetExists(ctx context.Context, tripSheetID int64) (bool, error)
}

type txRepo struct {
	tx  pgx.Tx
	seq *shared.ReferenceGenerator
}

// WithTx wraps callback in a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx, seq: shared.NewReferenceGenerator()})
	})
}

// Get retrieves a dispatch by ID.
func (r *Repository) Get(ctx context.Context, id int64) (*RouteDispatch, error) {
	query := fmt.Sprintf(`SELECT %s FROM route_dispatches WHERE id = $1`, dispatchColumns)
	return scanDispatch(r.pool.QueryRow(ctx, query, id))
}

// GetByReference retrieves a dispatch by its reference code.
func (r *Repository) GetByReference(ctx context.Context, reference string) (*RouteDispatch, error) {
	query := fmt.Sprintf(`SELECT %s FROM route_dispatches WHERE reference = $1`, dispatchColumns)
	return scanDispatch(r.pool.QueryRow(ctx, query, reference))
}

// List returns dispatches matching the filters plus the total count.
func (r *Repository) List(ctx context.Context, req ListDispatchesRequest) ([]RouteDispatch, int, error) {
	var conditions []string
	var args []interface{}
	argPos := 1

	if req.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, *req.Status)
		argPos++
	}
	if req.VehicleID != nil {
		conditions = append(conditions, fmt.Sprintf("vehicle_id = $%d", argPos))
		args = append(args, *req.VehicleID)
		argPos++
	}
	if req.DriverID != nil {
		conditions = append(conditions, fmt.Sprintf("driver_id = $%d", argPos))
		args = append(args, *req.DriverID)
		argPos++
	}
	if req.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("dispatch_date >= $%d", argPos))
		args = append(args, *req.DateFrom)
		argPos++
	}
	if req.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("dispatch_date <= $%d", argPos))
		args = append(args, *req.DateTo)
		argPos++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM route_dispatches %s", whereClause)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 20
	}
	query := fmt.Sprintf(`SELECT %s FROM route_dispatches %s ORDER BY dispatch_date DESC, id DESC LIMIT $%d OFFSET $%d`,
		dispatchColumns, whereClause, argPos, argPos+1)
	args = append(args, limit, req.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var dispatches []RouteDispatch
	for rows.Next() {
		d, err := scanDispatch(rows)
		if err != nil {
			return nil, 0, err
		}
		dispatches = append(dispatches, *d)
	}
	return dispatches, total, rows.Err()
}

// NextReference issues the next dispatch reference inside the transaction.
func (t *txRepo) NextReference(ctx context.Context) (string, error) {
	return t.seq.Next(ctx, t.tx, shared.DocTypeDispatch)
}

// CreateDispatch inserts a new dispatch row.
func (t *txRepo) CreateDispatch(ctx context.Context, d RouteDispatch) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `
		INSERT INTO route_dispatches (
			reference, dispatch_date, vehicle_id, driver_id, route_name,
			source_location, destination_location, distance_km, estimated_hours,
			status, trip_sheet_id, total_fuel, mileage_kmpl, remarks, total_lr, created_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, 0, $15)
		RETURNING id`,
		d.Reference, d.DispatchDate, d.VehicleID, d.DriverID, d.RouteName,
		d.SourceLocation, d.DestinationLocation, d.DistanceKM, d.EstimatedHours,
		d.Status, d.TripSheetID, d.TotalFuel, d.MileageKMPL, d.Remarks, d.CreatedBy,
	).Scan(&id)
	return id, err
}

// GetForUpdate locks the dispatch row for the duration of the transaction.
// A lock held by a sibling transaction surfaces as ErrConcurrentModification.
func (t *txRepo) GetForUpdate(ctx context.Context, id int64) (*RouteDispatch, error) {
	query := fmt.Sprintf(`SELECT %s FROM route_dispatches WHERE id = $1 FOR UPDATE NOWAIT`, dispatchColumns)
	d, err := scanDispatch(t.tx.QueryRow(ctx, query, id))
	if err != nil {
		if db.IsLockConflict(err) {
			return nil, shared.ErrConcurrentModification
		}
		return nil, err
	}
	return d, nil
}

// UpdateDispatch applies a partial update to dispatch attributes.
func (t *txRepo) UpdateDispatch(ctx context.Context, id int64, updates map[string]interface{}) error {
	query := "UPDATE route_dispatches SET updated_at = NOW()"
	var args []interface{}
	argPos := 1
	for _, col := range []string{
		"dispatch_date", "vehicle_id", "driver_id", "route_name",
		"source_location", "destination_location", "distance_km", "estimated_hours",
		"total_fuel", "mileage_kmpl", "trip_sheet_id", "remarks",
	} {
		if v, ok := updates[col]; ok {
			query += fmt.Sprintf(", %s = $%d", col, argPos)
			args = append(args, v)
			argPos++
		}
	}
	query += fmt.Sprintf(" WHERE id = $%d", argPos)
	args = append(args, id)
	_, err := t.tx.Exec(ctx, query, args...)
	return err
}

// UpdateStatus moves a dispatch to a new status, stamping extra columns.
func (t *txRepo) UpdateStatus(ctx context.Context, id int64, status Status, updates map[string]interface{}) error {
	query := "UPDATE route_dispatches SET status = $1, updated_at = NOW()"
	args := []interface{}{status}
	argPos := 2
	for _, col := range []string{"started_at", "completed_at", "cancelled_at", "remarks"} {
		if v, ok := updates[col]; ok {
			query += fmt.Sprintf(", %s = $%d", col, argPos)
			args = append(args, v)
			argPos++
		}
	}
	query += fmt.Sprintf(" WHERE id = $%d", argPos)
	args = append(args, id)
	_, err := t.tx.Exec(ctx, query, args...)
	return err
}

// DeleteLorryReceipts removes all lorry receipts under a dispatch.
func (t *txRepo) DeleteLorryReceipts(ctx context.Context, dispatchID int64) (int64, error) {
	tag, err := t.tx.Exec(ctx, `DELETE FROM lorry_receipts WHERE dispatch_id = $1`, dispatchID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// DeleteEwayBills removes all e-way bills under a dispatch.
func (t *txRepo) DeleteEwayBills(ctx context.Context, dispatchID int64) (int64, error) {
	tag, err := t.tx.Exec(ctx, `DELETE FROM eway_bills WHERE dispatch_id = $1`, dispatchID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// DetachPODs clears dispatch and lorry receipt references on PODs so the
// delivery evidence survives the trip's removal.
func (t *txRepo) DetachPODs(ctx context.Context, dispatchID int64) (int64, error) {
	tag, err := t.tx.Exec(ctx, `
		UPDATE proof_of_deliveries
		SET dispatch_id = NULL,
		    lorry_receipt_id = CASE
		        WHEN lorry_receipt_id IN (SELECT id FROM lorry_receipts WHERE dispatch_id = $1)
		        THEN NULL ELSE lorry_receipt_id END,
		    updated_at = NOW()
		WHERE dispatch_id = $1
		   OR lorry_receipt_id IN (SELECT id FROM lorry_receipts WHERE dispatch_id = $1)`, dispatchID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// DeleteDispatch removes the dispatch row itself.
func (t *txRepo) DeleteDispatch(ctx context.Context, id int64) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM route_dispatches WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// CheckVehicleExists verifies the referenced fleet vehicle.
func (t *txRepo) CheckVehicleExists(ctx context.Context, vehicleID int64) (bool, error) {
	var exists bool
	err := t.tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM fleet_vehicles WHERE id = $1)`, vehicleID).Scan(&exists)
	return exists, err
}

// CheckDriverExists verifies the referenced driver partner.
func (t *txRepo) CheckDriverExists(ctx context.Context, driverID int64) (bool, error) {
	var exists bool
	err := t.tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM partners WHERE id = $1)`, driverID).Scan(&exists)
	return exists, err
}

// CheckTripSheetExists verifies the referenced trip sheet.
func (t *txRepo) CheckTripSheetExists(ctx context.Context, tripSheetID int64) (bool, error) {
	var exists bool
	err := t.tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM trip_sheets WHERE id = $1)`, tripSheetID).Scan(&exists)
	return exists, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDispatch(row rowScanner) (*RouteDispatch, error) {
	var d RouteDispatch
	err := row.Scan(
		&d.ID, &d.Reference, &d.DispatchDate, &d.VehicleID, &d.DriverID, &d.RouteName,
		&d.SourceLocation, &d.DestinationLocation, &d.DistanceKM, &d.EstimatedHours,
		&d.Status, &d.TripSheetID, &d.TotalFuel, &d.MileageKMPL, &d.Remarks, &d.TotalLR,
		&d.StartedAt, &d.CompletedAt, &d.CancelledAt, &d.CreatedBy, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

package tripsheet

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

const tripSheetColumns = `id, reference, vehicle_id, driver_id, date_start, date_end,
	       total_distance_km, remarks, status, created_by, created_at, updated_at`

// Repository provides PostgreSQL backed persistence for trip sheets.
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
	CreateTripSheet(ctx context.Context, ts TripSheet) (int64, error)
	GetForUpdate(ctx context.Context, id int64) (*TripSheet, error)
	UpdateTripSheet(ctx context.Context, id int64, updates map[string]interface{}) error
	UpdateStatus(ctx context.Context, id int64, status Status, updates map[string]interface{}) error
	DeleteTripSheet(ctx context.Context, id int64) error
	CheckVehicleExists(ctx context.Context, vehicleID int64) (bool, error)
	CheckDriverExists(ctx context.Context, driverID int64) (bool, error)
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

// Get retrieves a trip sheet by ID.
func (r *Repository) Get(ctx context.Context, id int64) (*TripSheet, error) {
	query := fmt.Sprintf(`SELECT %s FROM trip_sheets WHERE id = $1`, tripSheetColumns)
	return scanTripSheet(r.pool.QueryRow(ctx, query, id))
}

// List returns trip sheets matching the filters plus the total count.
func (r *Repository) List(ctx context.Context, req ListTripSheetsRequest) ([]TripSheet, int, error) {
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

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM trip_sheets %s", whereClause)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 20
	}
	query := fmt.Sprintf(`SELECT %s FROM trip_sheets %s ORDER BY id DESC LIMIT $%d OFFSET $%d`,
		tripSheetColumns, whereClause, argPos, argPos+1)
	args = append(args, limit, req.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var sheets []TripSheet
	for rows.Next() {
		ts, err := scanTripSheet(rows)
		if err != nil {
			return nil, 0, err
		}
		sheets = append(sheets, *ts)
	}
	return sheets, total, rows.Err()
}

// NextReference issues the next trip sheet reference inside the transaction.
func (t *txRepo) NextReference(ctx context.Context) (string, error) {
	return t.seq.Next(ctx, t.tx, shared.DocTypeTripSheet)
}

// CreateTripSheet inserts a new trip sheet row.
func (t *txRepo) CreateTripSheet(ctx context.Context, ts TripSheet) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `
		INSERT INTO trip_sheets (
			reference, vehicle_id, driver_id, date_start, date_end,
			total_distance_km, remarks, status, created_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		ts.Reference, ts.VehicleID, ts.DriverID, ts.DateStart, ts.DateEnd,
		ts.TotalDistanceKM, ts.Remarks, ts.Status, ts.CreatedBy,
	).Scan(&id)
	return id, err
}

// GetForUpdate locks the trip sheet row for the duration of the transaction.
func (t *txRepo) GetForUpdate(ctx context.Context, id int64) (*TripSheet, error) {
	query := fmt.Sprintf(`SELECT %s FROM trip_sheets WHERE id = $1 FOR UPDATE NOWAIT`, tripSheetColumns)
	ts, err := scanTripSheet(t.tx.QueryRow(ctx, query, id))
	if err != nil {
		if db.IsLockConflict(err) {
			return nil, shared.ErrConcurrentModification
		}
		return nil, err
	}
	return ts, nil
}

// UpdateTripSheet applies a partial update to trip sheet attributes.
func (t *txRepo) UpdateTripSheet(ctx context.Context, id int64, updates map[string]interface{}) error {
	query := "UPDATE trip_sheets SET updated_at = NOW()"
	var args []interface{}
	argPos := 1
	for _, col := range []string{
		"vehicle_id", "driver_id", "date_start", "date_end",
		"total_distance_km", "remarks",
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

// UpdateStatus moves a trip sheet to a new status, stamping extra columns.
func (t *txRepo) UpdateStatus(ctx context.Context, id int64, status Status, updates map[string]interface{}) error {
	query := "UPDATE trip_sheets SET status = $1, updated_at = NOW()"
	args := []interface{}{status}
	argPos := 2
	for _, col := range []string{"date_start", "date_end"} {
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

// DeleteTripSheet removes the trip sheet row. Dispatches pointing at it keep
// their link column nulled by the foreign key.
func (t *txRepo) DeleteTripSheet(ctx context.Context, id int64) error {
	if _, err := t.tx.Exec(ctx,
		`UPDATE route_dispatches SET trip_sheet_id = NULL, updated_at = NOW() WHERE trip_sheet_id = $1`, id); err != nil {
		return err
	}
	tag, err := t.tx.Exec(ctx, `DELETE FROM trip_sheets WHERE id = $1`, id)
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

// CheckDriverExists verifies the referenced driver partner record.
func (t *txRepo) CheckDriverExists(ctx context.Context, driverID int64) (bool, error) {
	var exists bool
	err := t.tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM partners WHERE id = $1)`, driverID).Scan(&exists)
	return exists, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTripSheet(row rowScanner) (*TripSheet, error) {
	var ts TripSheet
	err := row.Scan(
		&ts.ID, &ts.Reference, &ts.VehicleID, &ts.DriverID, &ts.DateStart, &ts.DateEnd,
		&ts.TotalDistanceKM, &ts.Remarks, &ts.Status, &ts.CreatedBy, &ts.CreatedAt, &ts.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	ts.DurationHours = ComputeDurationHours(ts.DateStart, ts.DateEnd)
	return &ts, nil
}

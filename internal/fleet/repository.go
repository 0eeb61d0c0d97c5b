package fleet

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Umair-28/logistics-management/internal/shared"
)

const vehicleColumns = `id, name, registration_number, status, capacity_kg,
	       maintenance_due, created_at, updated_at`

// Repository provides PostgreSQL backed persistence for fleet vehicles.
// Master data sees no status workflow, so plain pool queries suffice here.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create registers a new vehicle, idle until assigned work.
func (r *Repository) Create(ctx context.Context, req CreateVehicleRequest) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO fleet_vehicles (name, registration_number, status, capacity_kg, maintenance_due)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		req.Name, req.RegistrationNumber, VehicleIdle, req.CapacityKG, req.MaintenanceDue,
	).Scan(&id)
	return id, err
}

// Get retrieves a vehicle by ID.
func (r *Repository) Get(ctx context.Context, id int64) (*Vehicle, error) {
	query := fmt.Sprintf(`SELECT %s FROM fleet_vehicles WHERE id = $1`, vehicleColumns)
	return scanVehicle(r.pool.QueryRow(ctx, query, id))
}

// Update applies a partial update to a vehicle.
func (r *Repository) Update(ctx context.Context, id int64, req UpdateVehicleRequest) error {
	query := "UPDATE fleet_vehicles SET updated_at = NOW()"
	var args []interface{}
	argPos := 1

	if req.Name != nil {
		query += fmt.Sprintf(", name = $%d", argPos)
		args = append(args, *req.Name)
		argPos++
	}
	if req.RegistrationNumber != nil {
		query += fmt.Sprintf(", registration_number = $%d", argPos)
		args = append(args, *req.RegistrationNumber)
		argPos++
	}
	if req.Status != nil {
		query += fmt.Sprintf(", status = $%d", argPos)
		args = append(args, *req.Status)
		argPos++
	}
	if req.CapacityKG != nil {
		query += fmt.Sprintf(", capacity_kg = $%d", argPos)
		args = append(args, *req.CapacityKG)
		argPos++
	}
	if req.MaintenanceDue != nil {
		query += fmt.Sprintf(", maintenance_due = $%d", argPos)
		args = append(args, *req.MaintenanceDue)
		argPos++
	}

	query += fmt.Sprintf(" WHERE id = $%d", argPos)
	args = append(args, id)

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// List returns vehicles matching the filters plus the total count.
func (r *Repository) List(ctx context.Context, req ListVehiclesRequest) ([]Vehicle, int, error) {
	var conditions []string
	var args []interface{}
	argPos := 1

	if req.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, *req.Status)
		argPos++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM fleet_vehicles %s", whereClause)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 20
	}
	query := fmt.Sprintf(`SELECT %s FROM fleet_vehicles %s ORDER BY name ASC LIMIT $%d OFFSET $%d`,
		vehicleColumns, whereClause, argPos, argPos+1)
	args = append(args, limit, req.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var vehicles []Vehicle
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, 0, err
		}
		vehicles = append(vehicles, *v)
	}
	return vehicles, total, rows.Err()
}

// Delete removes a vehicle from the master.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM fleet_vehicles WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVehicle(row rowScanner) (*Vehicle, error) {
	var v Vehicle
	err := row.Scan(
		&v.ID, &v.Name, &v.RegistrationNumber, &v.Status, &v.CapacityKG,
		&v.MaintenanceDue, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &v, nil
}

package ewaybill

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Umair-28/logistics-management/internal/platform/db"
	"github.com/Umair-28/logistics-management/internal/shared"
)

const ewayBillColumns = `id, reference, ewaybill_no, dispatch_id, vehicle_number, transporter,
	       distance_km, valid_upto, remarks, status, created_by, created_at, updated_at`

// Repository provides PostgreSQL backed persistence for e-way bills.
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
	CreateEwayBill(ctx context.Context, b EwayBill) (int64, error)
	GetForUpdate(ctx context.Context, id int64) (*EwayBill, error)
	UpdateEwayBill(ctx context.Context, id int64, updates map[string]interface{}) error
	UpdateStatus(ctx context.Context, id int64, status Status) error
	DeleteEwayBill(ctx context.Context, id int64) error
	CheckDispatchExists(ctx context.Context, dispatchID int64) (bool, error)
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

// Get retrieves an e-way bill by ID.
func (r *Repository) Get(ctx context.Context, id int64) (*EwayBill, error) {
	query := fmt.Sprintf(`SELECT %s FROM eway_bills WHERE id = $1`, ewayBillColumns)
	return scanEwayBill(r.pool.QueryRow(ctx, query, id))
}

// List returns e-way bills matching the filters plus the total count.
func (r *Repository) List(ctx context.Context, req ListEwayBillsRequest) ([]EwayBill, int, error) {
	var conditions []string
	var args []interface{}
	argPos := 1

	if req.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, *req.Status)
		argPos++
	}
	if req.DispatchID != nil {
		conditions = append(conditions, fmt.Sprintf("dispatch_id = $%d", argPos))
		args = append(args, *req.DispatchID)
		argPos++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM eway_bills %s", whereClause)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 20
	}
	query := fmt.Sprintf(`SELECT %s FROM eway_bills %s ORDER BY id DESC LIMIT $%d OFFSET $%d`,
		ewayBillColumns, whereClause, argPos, argPos+1)
	args = append(args, limit, req.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var bills []EwayBill
	for rows.Next() {
		b, err := scanEwayBill(rows)
		if err != nil {
			return nil, 0, err
		}
		bills = append(bills, *b)
	}
	return bills, total, rows.Err()
}

// NextReference issues the next e-way bill reference inside the transaction.
func (t *txRepo) NextReference(ctx context.Context) (string, error) {
	return t.seq.Next(ctx, t.tx, shared.DocTypeEwayBill)
}

// CreateEwayBill inserts a new e-way bill row.
func (t *txRepo) CreateEwayBill(ctx context.Context, b EwayBill) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `
		INSERT INTO eway_bills (
			reference, ewaybill_no, dispatch_id, vehicle_number, transporter,
			distance_km, valid_upto, remarks, status, created_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`,
		b.Reference, b.EwayBillNo, b.DispatchID, b.VehicleNumber, b.Transporter,
		b.DistanceKM, b.ValidUpto, b.Remarks, b.Status, b.CreatedBy,
	).Scan(&id)
	return id, err
}

// GetForUpdate locks the e-way bill row for the duration of the transaction.
func (t *txRepo) GetForUpdate(ctx context.Context, id int64) (*EwayBill, error) {
	query := fmt.Sprintf(`SELECT %s FROM eway_bills WHERE id = $1 FOR UPDATE NOWAIT`, ewayBillColumns)
	b, err := scanEwayBill(t.tx.QueryRow(ctx, query, id))
	if err != nil {
		if db.IsLockConflict(err) {
			return nil, shared.ErrConcurrentModification
		}
		return nil, err
	}
	return b, nil
}

// UpdateEwayBill applies a partial update to e-way bill attributes.
func (t *txRepo) UpdateEwayBill(ctx context.Context, id int64, updates map[string]interface{}) error {
	query := "UPDATE eway_bills SET updated_at = NOW()"
	var args []interface{}
	argPos := 1
	for _, col := range []string{
		"ewaybill_no", "vehicle_number", "transporter", "distance_km",
		"valid_upto", "remarks",
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

// UpdateStatus moves an e-way bill to a new status.
func (t *txRepo) UpdateStatus(ctx context.Context, id int64, status Status) error {
	_, err := t.tx.Exec(ctx,
		`UPDATE eway_bills SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	return err
}

// DeleteEwayBill removes the e-way bill row itself.
func (t *txRepo) DeleteEwayBill(ctx context.Context, id int64) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM eway_bills WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// CheckDispatchExists verifies the parent dispatch.
func (t *txRepo) CheckDispatchExists(ctx context.Context, dispatchID int64) (bool, error) {
	var exists bool
	err := t.tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM route_dispatches WHERE id = $1)`, dispatchID).Scan(&exists)
	return exists, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEwayBill(row rowScanner) (*EwayBill, error) {
	var b EwayBill
	err := row.Scan(
		&b.ID, &b.Reference, &b.EwayBillNo, &b.DispatchID, &b.VehicleNumber, &b.Transporter,
		&b.DistanceKM, &b.ValidUpto, &b.Remarks, &b.Status, &b.CreatedBy, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	b.IsExpired = ComputeIsExpired(b.ValidUpto, time.Now())
	return &b, nil
}

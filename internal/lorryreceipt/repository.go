package lorryreceipt

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Umair-28/logistics-management/internal/platform/db"
	"github.com/Umair-28/logistics-management/internal/shared"
)

// ErrDuplicateLRNumber is returned when the consignment number is taken.
var ErrDuplicateLRNumber = errors.New("lorry receipt number already exists")

const lorryReceiptColumns = `id, reference, lr_number, dispatch_id, vehicle_id, driver_id,
	       consignor_name, consignee_name, source_location, destination_location,
	       package_count, total_weight_kg, freight_amount, payment_mode, remarks,
	       status, delivered_at, created_by, created_at, updated_at`

// Repository provides PostgreSQL backed persistence for lorry receipts.
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
	CreateLorryReceipt(ctx context.Context, lr LorryReceipt) (int64, error)
	GetForUpdate(ctx context.Context, id int64) (*LorryReceipt, error)
	UpdateLorryReceipt(ctx context.Context, id int64, updates map[string]interface{}) error
	UpdateStatus(ctx context.Context, id int64, status Status, updates map[string]interface{}) error
	DetachPODs(ctx context.Context, lrID int64) (int64, error)
	DeleteLorryReceipt(ctx context.Context, id int64) error
	RecountDispatchLRs(ctx context.Context, dispatchID int64) (int, error)
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

// Get retrieves a lorry receipt by ID.
func (r *Repository) Get(ctx context.Context, id int64) (*LorryReceipt, error) {
	query := fmt.Sprintf(`SELECT %s FROM lorry_receipts WHERE id = $1`, lorryReceiptColumns)
	return scanLorryReceipt(r.pool.QueryRow(ctx, query, id))
}

// List returns lorry receipts matching the filters plus the total count.
func (r *Repository) List(ctx context.Context, req ListLorryReceiptsRequest) ([]LorryReceipt, int, error) {
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
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM lorry_receipts %s", whereClause)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 20
	}
	query := fmt.Sprintf(`SELECT %s FROM lorry_receipts %s ORDER BY id DESC LIMIT $%d OFFSET $%d`,
		lorryReceiptColumns, whereClause, argPos, argPos+1)
	args = append(args, limit, req.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var receipts []LorryReceipt
	for rows.Next() {
		lr, err := scanLorryReceipt(rows)
		if err != nil {
			return nil, 0, err
		}
		receipts = append(receipts, *lr)
	}
	return receipts, total, rows.Err()
}

// NextReference issues the next receipt reference inside the transaction.
func (t *txRepo) NextReference(ctx context.Context) (string, error) {
	return t.seq.Next(ctx, t.tx, shared.DocTypeLorryReceipt)
}

// CreateLorryReceipt inserts a new receipt row. A clashing consignment
// number surfaces as ErrDuplicateLRNumber.
func (t *txRepo) CreateLorryReceipt(ctx context.Context, lr LorryReceipt) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `
		INSERT INTO lorry_receipts (
			reference, lr_number, dispatch_id, vehicle_id, driver_id,
			consignor_name, consignee_name, source_location, destination_location,
			package_count, total_weight_kg, freight_amount, payment_mode, remarks,
			status, created_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id`,
		lr.Reference, lr.LRNumber, lr.DispatchID, lr.VehicleID, lr.DriverID,
		lr.ConsignorName, lr.ConsigneeName, lr.SourceLocation, lr.DestinationLocation,
		lr.PackageCount, lr.TotalWeightKG, lr.FreightAmount, lr.PaymentMode, lr.Remarks,
		lr.Status, lr.CreatedBy,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.ConstraintName == "uq_lorry_receipts_lr_number" {
			return 0, ErrDuplicateLRNumber
		}
		return 0, err
	}
	return id, nil
}

// GetForUpdate locks the receipt row for the duration of the transaction.
func (t *txRepo) GetForUpdate(ctx context.Context, id int64) (*LorryReceipt, error) {
	query := fmt.Sprintf(`SELECT %s FROM lorry_receipts WHERE id = $1 FOR UPDATE NOWAIT`, lorryReceiptColumns)
	lr, err := scanLorryReceipt(t.tx.QueryRow(ctx, query, id))
	if err != nil {
		if db.IsLockConflict(err) {
			return nil, shared.ErrConcurrentModification
		}
		return nil, err
	}
	return lr, nil
}

// UpdateLorryReceipt applies a partial update to receipt attributes.
func (t *txRepo) UpdateLorryReceipt(ctx context.Context, id int64, updates map[string]interface{}) error {
	query := "UPDATE lorry_receipts SET updated_at = NOW()"
	var args []interface{}
	argPos := 1
	for _, col := range []string{
		"vehicle_id", "driver_id", "consignor_name", "consignee_name",
		"source_location", "destination_location", "package_count",
		"total_weight_kg", "freight_amount", "payment_mode", "remarks",
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

// UpdateStatus moves a receipt to a new status, stamping extra columns.
func (t *txRepo) UpdateStatus(ctx context.Context, id int64, status Status, updates map[string]interface{}) error {
	query := "UPDATE lorry_receipts SET status = $1, updated_at = NOW()"
	args := []interface{}{status}
	argPos := 2
	for _, col := range []string{"delivered_at"} {
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

// DetachPODs clears the receipt reference on PODs pointing at this receipt.
func (t *txRepo) DetachPODs(ctx context.Context, lrID int64) (int64, error) {
	tag, err := t.tx.Exec(ctx, `
		UPDATE proof_of_deliveries
		SET lorry_receipt_id = NULL, updated_at = NOW()
		WHERE lorry_receipt_id = $1`, lrID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// DeleteLorryReceipt removes the receipt row itself.
func (t *txRepo) DeleteLorryReceipt(ctx context.Context, id int64) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM lorry_receipts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// RecountDispatchLRs re-derives total_lr on the parent from the live child
// set. Runs inside the same transaction as the child insert or delete so
// the count is never stale.
func (t *txRepo) RecountDispatchLRs(ctx context.Context, dispatchID int64) (int, error) {
	var count int
	err := t.tx.QueryRow(ctx, `
		UPDATE route_dispatches
		SET total_lr = (SELECT COUNT(*) FROM lorry_receipts WHERE dispatch_id = $1),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING total_lr`, dispatchID).Scan(&count)
	return count, err
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

func scanLorryReceipt(row rowScanner) (*LorryReceipt, error) {
	var lr LorryReceipt
	err := row.Scan(
		&lr.ID, &lr.Reference, &lr.LRNumber, &lr.DispatchID, &lr.VehicleID, &lr.DriverID,
		&lr.ConsignorName, &lr.ConsigneeName, &lr.SourceLocation, &lr.DestinationLocation,
		&lr.PackageCount, &lr.TotalWeightKG, &lr.FreightAmount, &lr.PaymentMode, &lr.Remarks,
		&lr.Status, &lr.DeliveredAt, &lr.CreatedBy, &lr.CreatedAt, &lr.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	lr.StatusColor = lr.Status.Color()
	return &lr, nil
}

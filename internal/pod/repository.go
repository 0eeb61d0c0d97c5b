package pod

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

const podColumns = `id, reference, dispatch_id, lorry_receipt_id, received_by, delivery_date,
	       remarks, signed_document, signature, status, verified_by, verified_date,
	       created_by, created_at, updated_at`

// Repository provides PostgreSQL backed persistence for proofs of delivery.
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
	CreatePOD(ctx context.Context, p ProofOfDelivery) (int64, error)
	GetForUpdate(ctx context.Context, id int64) (*ProofOfDelivery, error)
	UpdatePOD(ctx context.Context, id int64, updates map[string]interface{}) error
	UpdateStatus(ctx context.Context, id int64, status Status, updates map[string]interface{}) error
	DeletePOD(ctx context.Context, id int64) error
	CheckDispatchExists(ctx context.Context, dispatchID int64) (bool, error)
	CheckLorryReceiptExists(ctx context.Context, lrID int64) (bool, error)
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

// Get retrieves a POD by ID.
func (r *Repository) Get(ctx context.Context, id int64) (*ProofOfDelivery, error) {
	query := fmt.Sprintf(`SELECT %s FROM proof_of_deliveries WHERE id = $1`, podColumns)
	return scanPOD(r.pool.QueryRow(ctx, query, id))
}

// List returns PODs matching the filters plus the total count.
func (r *Repository) List(ctx context.Context, req ListPODsRequest) ([]ProofOfDelivery, int, error) {
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
	if req.LorryReceiptID != nil {
		conditions = append(conditions, fmt.Sprintf("lorry_receipt_id = $%d", argPos))
		args = append(args, *req.LorryReceiptID)
		argPos++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM proof_of_deliveries %s", whereClause)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 20
	}
	query := fmt.Sprintf(`SELECT %s FROM proof_of_deliveries %s ORDER BY id DESC LIMIT $%d OFFSET $%d`,
		podColumns, whereClause, argPos, argPos+1)
	args = append(args, limit, req.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var pods []ProofOfDelivery
	for rows.Next() {
		p, err := scanPOD(rows)
		if err != nil {
			return nil, 0, err
		}
		pods = append(pods, *p)
	}
	return pods, total, rows.Err()
}

// NextReference issues the next POD reference inside the transaction.
func (t *txRepo) NextReference(ctx context.Context) (string, error) {
	return t.seq.Next(ctx, t.tx, shared.DocTypePOD)
}

// CreatePOD inserts a new POD row.
func (t *txRepo) CreatePOD(ctx context.Context, p ProofOfDelivery) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `
		INSERT INTO proof_of_deliveries (
			reference, dispatch_id, lorry_receipt_id, received_by, remarks,
			signed_document, signature, status, created_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		p.Reference, p.DispatchID, p.LorryReceiptID, p.ReceivedBy, p.Remarks,
		p.SignedDocument, p.Signature, p.Status, p.CreatedBy,
	).Scan(&id)
	return id, err
}

// GetForUpdate locks the POD row for the duration of the transaction.
func (t *txRepo) GetForUpdate(ctx context.Context, id int64) (*ProofOfDelivery, error) {
	query := fmt.Sprintf(`SELECT %s FROM proof_of_deliveries WHERE id = $1 FOR UPDATE NOWAIT`, podColumns)
	p, err := scanPOD(t.tx.QueryRow(ctx, query, id))
	if err != nil {
		if db.IsLockConflict(err) {
			return nil, shared.ErrConcurrentModification
		}
		return nil, err
	}
	return p, nil
}

// UpdatePOD applies a partial update to POD attributes.
func (t *txRepo) UpdatePOD(ctx context.Context, id int64, updates map[string]interface{}) error {
	query := "UPDATE proof_of_deliveries SET updated_at = NOW()"
	var args []interface{}
	argPos := 1
	for _, col := range []string{
		"received_by", "remarks", "signed_document", "signature",
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

// UpdateStatus moves a POD to a new status, stamping extra columns.
func (t *txRepo) UpdateStatus(ctx context.Context, id int64, status Status, updates map[string]interface{}) error {
	query := "UPDATE proof_of_deliveries SET status = $1, updated_at = NOW()"
	args := []interface{}{status}
	argPos := 2
	for _, col := range []string{"delivery_date", "verified_by", "verified_date"} {
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

// DeletePOD removes the POD row itself.
func (t *txRepo) DeletePOD(ctx context.Context, id int64) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM proof_of_deliveries WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// CheckDispatchExists verifies the referenced dispatch.
func (t *txRepo) CheckDispatchExists(ctx context.Context, dispatchID int64) (bool, error) {
	var exists bool
	err := t.tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM route_dispatches WHERE id = $1)`, dispatchID).Scan(&exists)
	return exists, err
}

// CheckLorryReceiptExists verifies the referenced lorry receipt.
func (t *txRepo) CheckLorryReceiptExists(ctx context.Context, lrID int64) (bool, error) {
	var exists bool
	err := t.tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM lorry_receipts WHERE id = $1)`, lrID).Scan(&exists)
	return exists, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPOD(row rowScanner) (*ProofOfDelivery, error) {
	var p ProofOfDelivery
	err := row.Scan(
		&p.ID, &p.Reference, &p.DispatchID, &p.LorryReceiptID, &p.ReceivedBy, &p.DeliveryDate,
		&p.Remarks, &p.SignedDocument, &p.Signature, &p.Status, &p.VerifiedBy, &p.VerifiedDate,
		&p.CreatedBy, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

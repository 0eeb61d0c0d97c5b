package contract

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

const contractColumns = `id, reference, partner_id, contract_type, start_date, end_date,
	       amount, remarks, status, created_by, created_at, updated_at`

// Repository provides PostgreSQL backed persistence for contracts.
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
	CreateContract(ctx context.Context, c Contract) (int64, error)
	GetForUpdate(ctx context.Context, id int64) (*Contract, error)
	UpdateContract(ctx context.Context, id int64, updates map[string]interface{}) error
	UpdateStatus(ctx context.Context, id int64, status Status) error
	DeleteContract(ctx context.Context, id int64) error
	CheckPartnerExists(ctx context.Context, partnerID int64) (bool, error)
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

// Get retrieves a contract by ID.
func (r *Repository) Get(ctx context.Context, id int64) (*Contract, error) {
	query := fmt.Sprintf(`SELECT %s FROM contracts WHERE id = $1`, contractColumns)
	return scanContract(r.pool.QueryRow(ctx, query, id))
}

// List returns contracts matching the filters plus the total count.
func (r *Repository) List(ctx context.Context, req ListContractsRequest) ([]Contract, int, error) {
	var conditions []string
	var args []interface{}
	argPos := 1

	if req.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, *req.Status)
		argPos++
	}
	if req.PartnerID != nil {
		conditions = append(conditions, fmt.Sprintf("partner_id = $%d", argPos))
		args = append(args, *req.PartnerID)
		argPos++
	}
	if req.Type != nil {
		conditions = append(conditions, fmt.Sprintf("contract_type = $%d", argPos))
		args = append(args, *req.Type)
		argPos++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM contracts %s", whereClause)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 20
	}
	query := fmt.Sprintf(`SELECT %s FROM contracts %s ORDER BY end_date DESC, id DESC LIMIT $%d OFFSET $%d`,
		contractColumns, whereClause, argPos, argPos+1)
	args = append(args, limit, req.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var contracts []Contract
	for rows.Next() {
		c, err := scanContract(rows)
		if err != nil {
			return nil, 0, err
		}
		contracts = append(contracts, *c)
	}
	return contracts, total, rows.Err()
}

// NextReference issues the next contract reference inside the transaction.
func (t *txRepo) NextReference(ctx context.Context) (string, error) {
	return t.seq.Next(ctx, t.tx, shared.DocTypeContract)
}

// CreateContract inserts a new contract row.
func (t *txRepo) CreateContract(ctx context.Context, c Contract) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `
		INSERT INTO contracts (
			reference, partner_id, contract_type, start_date, end_date,
			amount, remarks, status, created_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		c.Reference, c.PartnerID, c.Type, c.StartDate, c.EndDate,
		c.Amount, c.Remarks, c.Status, c.CreatedBy,
	).Scan(&id)
	return id, err
}

// GetForUpdate locks the contract row for the duration of the transaction.
func (t *txRepo) GetForUpdate(ctx context.Context, id int64) (*Contract, error) {
	query := fmt.Sprintf(`SELECT %s FROM contracts WHERE id = $1 FOR UPDATE NOWAIT`, contractColumns)
	c, err := scanContract(t.tx.QueryRow(ctx, query, id))
	if err != nil {
		if db.IsLockConflict(err) {
			return nil, shared.ErrConcurrentModification
		}
		return nil, err
	}
	return c, nil
}

// UpdateContract applies a partial update to contract attributes.
func (t *txRepo) UpdateContract(ctx context.Context, id int64, updates map[string]interface{}) error {
	query := "UPDATE contracts SET updated_at = NOW()"
	var args []interface{}
	argPos := 1
	for _, col := range []string{
		"partner_id", "contract_type", "start_date", "end_date", "amount", "remarks",
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

// UpdateStatus moves a contract to a new status.
func (t *txRepo) UpdateStatus(ctx context.Context, id int64, status Status) error {
	_, err := t.tx.Exec(ctx,
		`UPDATE contracts SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	return err
}

// DeleteContract removes the contract row itself.
func (t *txRepo) DeleteContract(ctx context.Context, id int64) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM contracts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// CheckPartnerExists verifies the referenced party.
func (t *txRepo) CheckPartnerExists(ctx context.Context, partnerID int64) (bool, error) {
	var exists bool
	err := t.tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM partners WHERE id = $1)`, partnerID).Scan(&exists)
	return exists, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContract(row rowScanner) (*Contract, error) {
	var c Contract
	err := row.Scan(
		&c.ID, &c.Reference, &c.PartnerID, &c.Type, &c.StartDate, &c.EndDate,
		&c.Amount, &c.Remarks, &c.Status, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	c.IsExpired = ComputeIsExpired(c.EndDate, time.Now())
	return &c, nil
}

package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"fitlesson-settlement/internal/domain"
	"fitlesson-settlement/internal/domain/model"
	"fitlesson-settlement/internal/domain/ports/repository"
)

var _ repository.RefundRepository = (*refundRepo)(nil)

type refundRepo struct{ pool *pgxpool.Pool }

func NewRefundRepo(pool *pgxpool.Pool) *refundRepo {
	return &refundRepo{pool: pool}
}

const refundColumns = `id, payment_id, requested_amount, refund_amount, status, reason, created_at`

func scanRefund(row pgx.Row) (*model.Refund, error) {
	r := &model.Refund{}
	if err := row.Scan(&r.ID, &r.PaymentID, &r.RequestedAmount, &r.RefundAmount, &r.Status, &r.Reason, &r.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return r, nil
}

func (r *refundRepo) Save(ctx context.Context, tx repository.Tx, ref *model.Refund) error {
	const q = `INSERT INTO refunds (` + refundColumns + `) VALUES ($1,$2,$3,$4,$5,$6,$7);`
	_, err := execSQL(ctx, r.pool, tx, q, ref.ID, ref.PaymentID, ref.RequestedAmount, ref.RefundAmount, ref.Status, ref.Reason, ref.CreatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *refundRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Refund, error) {
	q := `SELECT ` + refundColumns + ` FROM refunds WHERE id=$1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	row, err := pickRow(ctx, r.pool, tx, q+";", id)
	if err != nil {
		return nil, err
	}
	return scanRefund(row)
}

func (r *refundRepo) FindActiveByPayment(ctx context.Context, tx repository.Tx, paymentID string) (*model.Refund, error) {
	q := `SELECT ` + refundColumns + ` FROM refunds WHERE payment_id=$1 AND status <> 'rejected' LIMIT 1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	row, err := pickRow(ctx, r.pool, tx, q+";", paymentID)
	if err != nil {
		return nil, err
	}
	return scanRefund(row)
}

// UpdateStatusIf succeeds only when the refund still has the expected status
// at write time, so a losing concurrent decide() sees zero rows changed.
func (r *refundRepo) UpdateStatusIf(ctx context.Context, tx repository.Tx, id string, from, to model.RefundStatus, refundAmount int64) (bool, error) {
	const q = `UPDATE refunds SET status=$3, refund_amount=$4 WHERE id=$1 AND status=$2;`
	tag, err := execSQL(ctx, r.pool, tx, q, id, from, to, refundAmount)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	return tag.RowsAffected() > 0, nil
}

func (r *refundRepo) ListByWindow(ctx context.Context, tx repository.Tx, start, end *time.Time) ([]*model.Refund, error) {
	const q = `
SELECT ` + refundColumns + ` FROM refunds
WHERE ($1::timestamptz IS NULL OR created_at >= $1)
  AND ($2::timestamptz IS NULL OR created_at < $2)
ORDER BY created_at;`
	rows, err := pickRows(ctx, r.pool, tx, q, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Refund
	for rows.Next() {
		ref, err := scanRefund(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ref)
	}
	return out, rows.Err()
}

func (r *refundRepo) CountPending(ctx context.Context, tx repository.Tx) (int, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT COUNT(*) FROM refunds WHERE status='pending';`)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, domain.ErrReadDatabaseRow
	}
	return n, nil
}

func (r *refundRepo) ListPending(ctx context.Context, tx repository.Tx) ([]*model.Refund, error) {
	rows, err := pickRows(ctx, r.pool, tx, `SELECT `+refundColumns+` FROM refunds WHERE status='pending' ORDER BY created_at;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Refund
	for rows.Next() {
		ref, err := scanRefund(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ref)
	}
	return out, rows.Err()
}

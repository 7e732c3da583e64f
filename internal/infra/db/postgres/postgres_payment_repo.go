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

var _ repository.PaymentRepository = (*paymentRepo)(nil)

type paymentRepo struct{ pool *pgxpool.Pool }

func NewPaymentRepo(pool *pgxpool.Pool) *paymentRepo {
	return &paymentRepo{pool: pool}
}

const paymentColumns = `id, lesson_id, payer_id, trainer_id, amount, net_amount, status, payout_excluded, payout_request_id, created_at, paid_at`

func scanPayment(row pgx.Row) (*model.Payment, error) {
	p := &model.Payment{}
	if err := row.Scan(&p.ID, &p.LessonID, &p.PayerID, &p.TrainerID, &p.Amount, &p.NetAmount,
		&p.Status, &p.PayoutExcluded, &p.PayoutRequestID, &p.CreatedAt, &p.PaidAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return p, nil
}

func (r *paymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	const q = `
INSERT INTO payments (` + paymentColumns + `) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
ON CONFLICT (id) DO UPDATE SET
  status=$7, net_amount=$6, payout_excluded=$8, payout_request_id=$9, paid_at=$11;`
	_, err := execSQL(ctx, r.pool, tx, q, p.ID, p.LessonID, p.PayerID, p.TrainerID, p.Amount,
		p.NetAmount, p.Status, p.PayoutExcluded, p.PayoutRequestID, p.CreatedAt, p.PaidAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *paymentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error) {
	q := `SELECT ` + paymentColumns + ` FROM payments WHERE id=$1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	row, err := pickRow(ctx, r.pool, tx, q+";", id)
	if err != nil {
		return nil, err
	}
	return scanPayment(row)
}

func (r *paymentRepo) FindByLesson(ctx context.Context, tx repository.Tx, lessonID string) (*model.Payment, error) {
	q := `SELECT ` + paymentColumns + ` FROM payments WHERE lesson_id=$1 LIMIT 1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	row, err := pickRow(ctx, r.pool, tx, q+";", lessonID)
	if err != nil {
		return nil, err
	}
	return scanPayment(row)
}

// ApplyProcessorUpdate guards the UPDATE so a terminal paid status is never
// overwritten: redelivered or late webhook events fall through with no row
// changed, which the caller treats as an idempotent no-op.
func (r *paymentRepo) ApplyProcessorUpdate(ctx context.Context, tx repository.Tx, id string, status model.PaymentStatus, netAmount int64, paidAt *time.Time) (bool, error) {
	const q = `
UPDATE payments SET status=$2, net_amount=$3, paid_at=COALESCE($4, paid_at)
WHERE id=$1 AND status NOT IN ('paid','succeeded','completed','paid_out');`
	tag, err := execSQL(ctx, r.pool, tx, q, id, status, netAmount, paidAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	if tag.RowsAffected() > 0 {
		return true, nil
	}
	// No change: either the status guard held or the payment is unknown.
	row, err := pickRow(ctx, r.pool, tx, `SELECT 1 FROM payments WHERE id=$1;`, id)
	if err != nil {
		return false, err
	}
	var one int
	if err := row.Scan(&one); err != nil {
		if err == pgx.ErrNoRows {
			return false, domain.ErrNotFound
		}
		return false, domain.ErrReadDatabaseRow
	}
	return false, nil
}

func (r *paymentRepo) ExcludeFromPayout(ctx context.Context, tx repository.Tx, id string) error {
	return r.setExcluded(ctx, tx, id, true)
}

func (r *paymentRepo) ReincludeInPayout(ctx context.Context, tx repository.Tx, id string) error {
	return r.setExcluded(ctx, tx, id, false)
}

func (r *paymentRepo) setExcluded(ctx context.Context, tx repository.Tx, id string, excluded bool) error {
	tag, err := execSQL(ctx, r.pool, tx, `UPDATE payments SET payout_excluded=$2 WHERE id=$1;`, id, excluded)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

const eligiblePaymentsSQL = `
SELECT ` + paymentColumns + ` FROM payments
WHERE trainer_id=$1
  AND status IN ('paid','succeeded','completed')
  AND payout_excluded=FALSE
  AND payout_request_id IS NULL
ORDER BY created_at`

func (r *paymentRepo) LockEligibleForPayout(ctx context.Context, tx repository.Tx, trainerID string) ([]*model.Payment, error) {
	q := eligiblePaymentsSQL
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	return r.listEligible(ctx, tx, q, trainerID)
}

func (r *paymentRepo) ListEligibleForPayout(ctx context.Context, tx repository.Tx, trainerID string) ([]*model.Payment, error) {
	return r.listEligible(ctx, tx, eligiblePaymentsSQL, trainerID)
}

func (r *paymentRepo) listEligible(ctx context.Context, tx repository.Tx, q, trainerID string) ([]*model.Payment, error) {
	rows, err := pickRows(ctx, r.pool, tx, q+";", trainerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *paymentRepo) AssignPayoutRequest(ctx context.Context, tx repository.Tx, paymentIDs []string, payoutRequestID string) error {
	if len(paymentIDs) == 0 {
		return nil
	}
	const q = `UPDATE payments SET payout_request_id=$2 WHERE id = ANY($1);`
	if _, err := execSQL(ctx, r.pool, tx, q, paymentIDs, payoutRequestID); err != nil {
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *paymentRepo) ReleasePayoutRequest(ctx context.Context, tx repository.Tx, payoutRequestID string) error {
	const q = `UPDATE payments SET payout_request_id=NULL WHERE payout_request_id=$1;`
	if _, err := execSQL(ctx, r.pool, tx, q, payoutRequestID); err != nil {
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *paymentRepo) MarkPaidOut(ctx context.Context, tx repository.Tx, payoutRequestID string) error {
	const q = `UPDATE payments SET status='paid_out' WHERE payout_request_id=$1 AND status IN ('paid','succeeded','completed');`
	if _, err := execSQL(ctx, r.pool, tx, q, payoutRequestID); err != nil {
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *paymentRepo) ListByWindow(ctx context.Context, tx repository.Tx, start, end *time.Time) ([]*model.Payment, error) {
	const q = `
SELECT ` + paymentColumns + ` FROM payments
WHERE ($1::timestamptz IS NULL OR created_at >= $1)
  AND ($2::timestamptz IS NULL OR created_at < $2)
ORDER BY created_at;`
	rows, err := pickRows(ctx, r.pool, tx, q, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

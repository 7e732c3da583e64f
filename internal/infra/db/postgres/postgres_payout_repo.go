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

var _ repository.PayoutRequestRepository = (*payoutRepo)(nil)

type payoutRepo struct{ pool *pgxpool.Pool }

func NewPayoutRepo(pool *pgxpool.Pool) *payoutRepo {
	return &payoutRepo{pool: pool}
}

const payoutColumns = `id, trainer_id, gross_eligible, net_payout, status, created_at, processed_at, settled_at`

func scanPayout(row pgx.Row) (*model.PayoutRequest, error) {
	p := &model.PayoutRequest{}
	if err := row.Scan(&p.ID, &p.TrainerID, &p.GrossEligible, &p.NetPayout, &p.Status, &p.CreatedAt, &p.ProcessedAt, &p.SettledAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return p, nil
}

func (r *payoutRepo) Save(ctx context.Context, tx repository.Tx, p *model.PayoutRequest) error {
	const q = `INSERT INTO payout_requests (` + payoutColumns + `) VALUES ($1,$2,$3,$4,$5,$6,$7,$8);`
	_, err := execSQL(ctx, r.pool, tx, q, p.ID, p.TrainerID, p.GrossEligible, p.NetPayout, p.Status, p.CreatedAt, p.ProcessedAt, p.SettledAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *payoutRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.PayoutRequest, error) {
	q := `SELECT ` + payoutColumns + ` FROM payout_requests WHERE id=$1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	row, err := pickRow(ctx, r.pool, tx, q+";", id)
	if err != nil {
		return nil, err
	}
	return scanPayout(row)
}

func (r *payoutRepo) FindActiveByTrainer(ctx context.Context, tx repository.Tx, trainerID string) (*model.PayoutRequest, error) {
	q := `SELECT ` + payoutColumns + ` FROM payout_requests WHERE trainer_id=$1 AND status IN ('pending','approved') LIMIT 1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	row, err := pickRow(ctx, r.pool, tx, q+";", trainerID)
	if err != nil {
		return nil, err
	}
	return scanPayout(row)
}

// UpdateStatusIf is the compare-and-swap behind decide() and markSettled():
// the transition lands only if the expected prior status still holds.
func (r *payoutRepo) UpdateStatusIf(ctx context.Context, tx repository.Tx, id string, from, to model.PayoutStatus, at time.Time) (bool, error) {
	var q string
	if to == model.PayoutStatusPaid {
		q = `UPDATE payout_requests SET status=$3, settled_at=$4 WHERE id=$1 AND status=$2;`
	} else {
		q = `UPDATE payout_requests SET status=$3, processed_at=$4 WHERE id=$1 AND status=$2;`
	}
	tag, err := execSQL(ctx, r.pool, tx, q, id, from, to, at)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	return tag.RowsAffected() > 0, nil
}

func (r *payoutRepo) ListByWindow(ctx context.Context, tx repository.Tx, start, end *time.Time) ([]*model.PayoutRequest, error) {
	const q = `
SELECT ` + payoutColumns + ` FROM payout_requests
WHERE ($1::timestamptz IS NULL OR created_at >= $1)
  AND ($2::timestamptz IS NULL OR created_at < $2)
ORDER BY created_at;`
	rows, err := pickRows(ctx, r.pool, tx, q, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.PayoutRequest
	for rows.Next() {
		p, err := scanPayout(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *payoutRepo) CountPending(ctx context.Context, tx repository.Tx) (int, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT COUNT(*) FROM payout_requests WHERE status='pending';`)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, domain.ErrReadDatabaseRow
	}
	return n, nil
}

func (r *payoutRepo) ListApprovedBefore(ctx context.Context, tx repository.Tx, cutoff time.Time) ([]*model.PayoutRequest, error) {
	const q = `SELECT ` + payoutColumns + ` FROM payout_requests WHERE status='approved' AND processed_at < $1 ORDER BY processed_at;`
	rows, err := pickRows(ctx, r.pool, tx, q, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.PayoutRequest
	for rows.Next() {
		p, err := scanPayout(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *payoutRepo) ListPending(ctx context.Context, tx repository.Tx) ([]*model.PayoutRequest, error) {
	rows, err := pickRows(ctx, r.pool, tx, `SELECT `+payoutColumns+` FROM payout_requests WHERE status='pending' ORDER BY created_at;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.PayoutRequest
	for rows.Next() {
		p, err := scanPayout(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

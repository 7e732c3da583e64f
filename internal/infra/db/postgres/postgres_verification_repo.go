package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"fitlesson-settlement/internal/domain"
	"fitlesson-settlement/internal/domain/model"
	"fitlesson-settlement/internal/domain/ports/repository"
)

var _ repository.VerificationRepository = (*verificationRepo)(nil)

type verificationRepo struct{ pool *pgxpool.Pool }

func NewVerificationRepo(pool *pgxpool.Pool) *verificationRepo {
	return &verificationRepo{pool: pool}
}

const verificationColumns = `id, trainer_id, status, created_at`

func scanVerification(row pgx.Row) (*model.IdentityVerification, error) {
	v := &model.IdentityVerification{}
	if err := row.Scan(&v.ID, &v.TrainerID, &v.Status, &v.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return v, nil
}

func (r *verificationRepo) Save(ctx context.Context, tx repository.Tx, v *model.IdentityVerification) error {
	const q = `INSERT INTO identity_verifications (` + verificationColumns + `) VALUES ($1,$2,$3,$4);`
	_, err := execSQL(ctx, r.pool, tx, q, v.ID, v.TrainerID, v.Status, v.CreatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *verificationRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.IdentityVerification, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT `+verificationColumns+` FROM identity_verifications WHERE id=$1;`, id)
	if err != nil {
		return nil, err
	}
	return scanVerification(row)
}

// HistoryByTrainer orders by (created_at DESC, id DESC), the same ordering
// the authoritative-status rule uses.
func (r *verificationRepo) HistoryByTrainer(ctx context.Context, tx repository.Tx, trainerID string) ([]*model.IdentityVerification, error) {
	const q = `SELECT ` + verificationColumns + ` FROM identity_verifications WHERE trainer_id=$1 ORDER BY created_at DESC, id DESC;`
	rows, err := pickRows(ctx, r.pool, tx, q, trainerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.IdentityVerification
	for rows.Next() {
		v, err := scanVerification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *verificationRepo) UpdateStatusIf(ctx context.Context, tx repository.Tx, id string, from, to model.VerificationStatus) (bool, error) {
	const q = `UPDATE identity_verifications SET status=$3 WHERE id=$1 AND status=$2;`
	tag, err := execSQL(ctx, r.pool, tx, q, id, from, to)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	return tag.RowsAffected() > 0, nil
}

func (r *verificationRepo) CountPending(ctx context.Context, tx repository.Tx) (int, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT COUNT(*) FROM identity_verifications WHERE status='pending';`)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, domain.ErrReadDatabaseRow
	}
	return n, nil
}

func (r *verificationRepo) ListPending(ctx context.Context, tx repository.Tx) ([]*model.IdentityVerification, error) {
	rows, err := pickRows(ctx, r.pool, tx, `SELECT `+verificationColumns+` FROM identity_verifications WHERE status='pending' ORDER BY created_at;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.IdentityVerification
	for rows.Next() {
		v, err := scanVerification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

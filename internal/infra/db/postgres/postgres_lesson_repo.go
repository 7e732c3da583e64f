package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"fitlesson-settlement/internal/domain"
	"fitlesson-settlement/internal/domain/model"
	"fitlesson-settlement/internal/domain/ports/repository"
)

var _ repository.LessonRepository = (*lessonRepo)(nil)

type lessonRepo struct{ pool *pgxpool.Pool }

func NewLessonRepo(pool *pgxpool.Pool) *lessonRepo {
	return &lessonRepo{pool: pool}
}

func (r *lessonRepo) Save(ctx context.Context, tx repository.Tx, l *model.Lesson) error {
	const q = `
INSERT INTO lessons (id, trainer_id, price, start_at, status) VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (id) DO UPDATE SET price=$3, start_at=$4, status=$5;`
	_, err := execSQL(ctx, r.pool, tx, q, l.ID, l.TrainerID, l.Price, l.StartAt, l.Status)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *lessonRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Lesson, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT id, trainer_id, price, start_at, status FROM lessons WHERE id=$1;`, id)
	if err != nil {
		return nil, err
	}
	l := &model.Lesson{}
	if err := row.Scan(&l.ID, &l.TrainerID, &l.Price, &l.StartAt, &l.Status); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return l, nil
}

func (r *lessonRepo) UpdateStatus(ctx context.Context, tx repository.Tx, id string, status model.LessonStatus) error {
	tag, err := execSQL(ctx, r.pool, tx, `UPDATE lessons SET status=$2 WHERE id=$1;`, id, status)
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

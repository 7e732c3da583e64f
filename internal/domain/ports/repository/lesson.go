package repository

import (
	"context"

	"fitlesson-settlement/internal/domain/model"
)

type LessonRepository interface {
	Save(ctx context.Context, tx Tx, l *model.Lesson) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Lesson, error)
	UpdateStatus(ctx context.Context, tx Tx, id string, status model.LessonStatus) error
}

package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/voluntaria/platform/internal/event/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) ListExpirable(ctx context.Context, db *gorm.DB, now time.Time) ([]*domain.Event, error) {
	var events []*domain.Event
	err := db.WithContext(ctx).
		Model(&domain.Event{}).
		Where("status IN ?", []domain.Status{domain.StatusOpen, domain.StatusClosed}).
		Where("date <= ?", now).
		Order("date asc, id asc").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (r *repo) Complete(ctx context.Context, db *gorm.DB, ids []snowflake.ID, now time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := db.WithContext(ctx).Exec(
		`UPDATE events SET status = ?, updated_at = ? WHERE id IN ? AND status IN ?`,
		domain.StatusCompleted,
		now,
		ids,
		[]domain.Status{domain.StatusOpen, domain.StatusClosed},
	)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *repo) ListActive(ctx context.Context, db *gorm.DB) ([]*domain.Event, error) {
	var events []*domain.Event
	err := db.WithContext(ctx).
		Model(&domain.Event{}).
		Where("status IN ?", []domain.Status{domain.StatusOpen, domain.StatusClosed}).
		Order("date asc, id asc").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

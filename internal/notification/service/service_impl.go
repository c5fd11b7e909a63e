package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/voluntaria/platform/internal/notification/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB   *gorm.DB
	Log  *zap.Logger
	Repo domain.Repository
}

type Service struct {
	db   *gorm.DB
	log  *zap.Logger
	repo domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:   p.DB,
		log:  p.Log.Named("notification.service"),
		repo: p.Repo,
	}
}

func (s *Service) ListForUser(ctx context.Context, userID string, limit int) ([]domain.Notification, error) {
	id, err := parseID(userID)
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	items, err := s.repo.ListByUser(ctx, s.db, id, limit)
	if err != nil {
		return nil, err
	}

	notifications := make([]domain.Notification, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		notifications = append(notifications, *item)
	}
	return notifications, nil
}

func (s *Service) MarkRead(ctx context.Context, userID, id string) error {
	user, err := parseID(userID)
	if err != nil {
		return domain.ErrInvalidID
	}
	notification, err := parseID(id)
	if err != nil {
		return domain.ErrInvalidID
	}

	rows, err := s.repo.MarkRead(ctx, s.db, user, notification)
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func parseID(value string) (snowflake.ID, error) {
	return snowflake.ParseString(strings.TrimSpace(value))
}

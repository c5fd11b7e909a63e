package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/voluntaria/platform/internal/application/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindWithRelations(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Application, error) {
	var application domain.Application
	err := db.WithContext(ctx).
		Preload("Event").
		Preload("Volunteer").
		First(&application, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &application, nil
}

// UpdateStatus performs the single-row conditional write. The previous
// updated_at value (and the required status, for reapply) is part of the
// predicate, so a concurrent writer that got there first leaves this
// statement touching zero rows.
func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, upd domain.StatusUpdate) (int64, error) {
	values := map[string]interface{}{
		"status":     upd.Status,
		"updated_at": upd.UpdatedAt,
	}
	if upd.AppliedAt != nil {
		values["applied_at"] = *upd.AppliedAt
	}
	if upd.Message != nil {
		values["message"] = *upd.Message
	}
	if upd.Attachment != nil {
		values["attachment_path"] = upd.Attachment.Path
		values["attachment_name"] = upd.Attachment.Name
		values["attachment_mime_type"] = upd.Attachment.MimeType
		values["attachment_size_bytes"] = upd.Attachment.SizeBytes
	}

	stmt := db.WithContext(ctx).
		Model(&domain.Application{}).
		Where("id = ?", upd.ID).
		Where("updated_at = ?", upd.PrevUpdatedAt)
	if upd.RequireStatus != nil {
		stmt = stmt.Where("status = ?", *upd.RequireStatus)
	}

	result := stmt.Updates(values)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

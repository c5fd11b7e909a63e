package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Status string

const (
	StatusOpen      Status = "open"
	StatusClosed    Status = "closed"
	StatusCompleted Status = "completed"
)

// Event is owned by the listing service; the sweep only promotes expired
// open/closed events to completed and never reverts a completed one.
type Event struct {
	ID             snowflake.ID `gorm:"primaryKey" json:"id"`
	OrganizationID snowflake.ID `gorm:"not null;index" json:"organization_id"`
	Title          string       `gorm:"not null" json:"title"`
	Description    string       `json:"description,omitempty"`
	Location       string       `json:"location,omitempty"`
	Date           time.Time    `gorm:"not null;index" json:"date"`
	Duration       string       `json:"duration,omitempty"`
	Status         Status       `gorm:"not null;default:'open';index" json:"status"`
	CreatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Event) TableName() string { return "events" }

// EndsAt computes the event's effective end instant. Unparsable or absent
// duration contributes zero, so the end equals the start.
func (e Event) EndsAt() time.Time {
	return e.Date.Add(time.Duration(ParseDurationMinutes(e.Duration)) * time.Minute)
}

var ErrNotFound = errors.New("event_not_found")

type Repository interface {
	// ListExpirable returns open/closed events whose start instant is at or
	// before now. Duration can only push the end further into the future, so
	// this is a safe pre-filter.
	ListExpirable(ctx context.Context, db *gorm.DB, now time.Time) ([]*Event, error)

	// Complete marks the given events completed in a single batched update
	// and returns the number of rows touched.
	Complete(ctx context.Context, db *gorm.DB, ids []snowflake.ID, now time.Time) (int64, error)

	// ListActive returns open/closed events ordered by start date.
	ListActive(ctx context.Context, db *gorm.DB) ([]*Event, error)
}

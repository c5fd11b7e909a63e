package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	applicationdomain "github.com/voluntaria/platform/internal/application/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Type string

const (
	TypeApproved  Type = "application_approved"
	TypeRejected  Type = "application_rejected"
	TypeSubmitted Type = "application_submitted"
	TypeUpdated   Type = "application_updated"
)

// Notification is an in-app message addressed to a user. Rows are insert-only
// from the dispatcher's point of view; only the read flag is mutated later.
type Notification struct {
	ID      snowflake.ID      `gorm:"primaryKey" json:"id"`
	UserID  snowflake.ID      `gorm:"not null;index" json:"user_id"`
	Type    Type              `gorm:"not null" json:"type"`
	Title   string            `gorm:"not null" json:"title"`
	Message string            `json:"message,omitempty"`
	Status  *string           `json:"status,omitempty"`
	Link    string            `json:"link,omitempty"`
	Data    datatypes.JSONMap `gorm:"type:jsonb" json:"data,omitempty"`
	Read    bool              `gorm:"not null;default:false" json:"read"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (Notification) TableName() string { return "notifications" }

// ResultStatus classifies the outcome of a best-effort dispatch.
type ResultStatus string

const (
	StatusSent    ResultStatus = "sent"
	StatusFailed  ResultStatus = "failed"
	StatusSkipped ResultStatus = "skipped"
)

// Result is transient delivery metadata returned alongside a successful
// transition. It never turns into a transition failure.
type Result struct {
	Status ResultStatus `json:"status"`
	Error  string       `json:"error,omitempty"`
}

// TransitionNotice describes a transition that just committed. The
// application must be hydrated with its event and volunteer.
type TransitionNotice struct {
	Action      applicationdomain.Action
	Application applicationdomain.Application
}

// Dispatcher delivers the side effects of a committed transition: an email
// for approve/reject and an in-app notification row for approve/reject/
// cancel. Failures are reported in the Result, never as errors.
type Dispatcher interface {
	DispatchTransition(ctx context.Context, notice TransitionNotice) Result
}

var (
	ErrInvalidID = errors.New("invalid_notification_id")
	ErrNotFound  = errors.New("notification_not_found")
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, notification *Notification) error
	ListByUser(ctx context.Context, db *gorm.DB, userID snowflake.ID, limit int) ([]*Notification, error)
	MarkRead(ctx context.Context, db *gorm.DB, userID, id snowflake.ID) (int64, error)
}

type Service interface {
	ListForUser(ctx context.Context, userID string, limit int) ([]Notification, error)
	MarkRead(ctx context.Context, userID, id string) error
}

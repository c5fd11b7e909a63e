package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	eventdomain "github.com/voluntaria/platform/internal/event/domain"
	identitydomain "github.com/voluntaria/platform/internal/identity/domain"
	"gorm.io/gorm"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
)

// Application is a volunteer's candidacy for an event. The insert path
// (outside this core) guarantees at most one non-cancelled application per
// (event, volunteer) pair; transitions here never create rows, so they
// cannot break that invariant.
type Application struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	EventID     snowflake.ID `gorm:"not null;index:idx_applications_event_volunteer" json:"event_id"`
	VolunteerID snowflake.ID `gorm:"not null;index:idx_applications_event_volunteer" json:"volunteer_id"`
	Status      Status       `gorm:"not null;default:'pending';index" json:"status"`
	Message     string       `json:"message,omitempty"`

	AttachmentPath      *string `json:"attachment_path,omitempty"`
	AttachmentName      *string `json:"attachment_name,omitempty"`
	AttachmentMimeType  *string `json:"attachment_mime_type,omitempty"`
	AttachmentSizeBytes *int64  `json:"attachment_size_bytes,omitempty"`

	AppliedAt time.Time `gorm:"not null" json:"applied_at"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`

	Event     *eventdomain.Event        `gorm:"foreignKey:EventID" json:"event,omitempty"`
	Volunteer *identitydomain.Volunteer `gorm:"foreignKey:VolunteerID" json:"volunteer,omitempty"`
}

func (Application) TableName() string { return "applications" }

// Attachment carries the optional file metadata a volunteer may submit with
// a reapply. Each field is independently nullable.
type Attachment struct {
	Path      *string
	Name      *string
	MimeType  *string
	SizeBytes *int64
}

// StatusUpdate is the single-row conditional write the repository executes.
// PrevUpdatedAt (and RequireStatus, when set) are re-checked inside the same
// statement so concurrent transitions on one application serialize to
// exactly one winner.
type StatusUpdate struct {
	ID            snowflake.ID
	Status        Status
	PrevUpdatedAt time.Time
	RequireStatus *Status
	UpdatedAt     time.Time

	// Reapply only: reset submission fields.
	AppliedAt  *time.Time
	Message    *string
	Attachment *Attachment
}

type Repository interface {
	// FindWithRelations loads the application hydrated with its event and
	// volunteer in one consistent read. Returns nil when absent.
	FindWithRelations(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Application, error)

	// UpdateStatus applies the conditional update and reports rows affected.
	UpdateStatus(ctx context.Context, db *gorm.DB, upd StatusUpdate) (int64, error)
}

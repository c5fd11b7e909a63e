package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voluntaria/platform/internal/application/domain"
	"github.com/voluntaria/platform/internal/application/repository"
	"github.com/voluntaria/platform/internal/clock"
	eventdomain "github.com/voluntaria/platform/internal/event/domain"
	identitydomain "github.com/voluntaria/platform/internal/identity/domain"
	notificationdomain "github.com/voluntaria/platform/internal/notification/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type dispatcherStub struct {
	mu      sync.Mutex
	notices []notificationdomain.TransitionNotice
	result  notificationdomain.Result
}

func (d *dispatcherStub) DispatchTransition(ctx context.Context, notice notificationdomain.TransitionNotice) notificationdomain.Result {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.notices = append(d.notices, notice)
	if d.result.Status == "" {
		return notificationdomain.Result{Status: notificationdomain.StatusSent}
	}
	return d.result
}

func (d *dispatcherStub) calls() []notificationdomain.TransitionNotice {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]notificationdomain.TransitionNotice(nil), d.notices...)
}

// zeroRowsRepo delegates reads to the real repository but reports every
// conditional update as having touched no rows, as if a concurrent
// transition always wins.
type zeroRowsRepo struct {
	domain.Repository
}

func (r *zeroRowsRepo) UpdateStatus(ctx context.Context, db *gorm.DB, upd domain.StatusUpdate) (int64, error) {
	return 0, nil
}

type fixture struct {
	db          *gorm.DB
	clock       *clock.FakeClock
	dispatcher  *dispatcherStub
	service     domain.Service
	node        *snowflake.Node
	volunteer   identitydomain.Volunteer
	org         identitydomain.Organization
	event       eventdomain.Event
	application domain.Application
}

func setupService(t *testing.T, status domain.Status, opts ...func(*Params)) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&identitydomain.Volunteer{},
		&identitydomain.Organization{},
		&eventdomain.Event{},
		&domain.Application{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fc := clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	dispatcher := &dispatcherStub{}

	f := &fixture{
		db:         db,
		clock:      fc,
		dispatcher: dispatcher,
		node:       node,
	}

	f.volunteer = identitydomain.Volunteer{ID: node.Generate(), Name: "Ana", Email: "ana@example.com"}
	f.org = identitydomain.Organization{ID: node.Generate(), Name: "Instituto", Email: "org@example.com"}
	require.NoError(t, db.Create(&f.volunteer).Error)
	require.NoError(t, db.Create(&f.org).Error)

	f.event = eventdomain.Event{
		ID:             node.Generate(),
		OrganizationID: f.org.ID,
		Title:          "Mutirão",
		Date:           fc.Now().Add(48 * time.Hour),
		Duration:       "2 horas",
		Status:         eventdomain.StatusOpen,
	}
	require.NoError(t, db.Create(&f.event).Error)

	f.application = domain.Application{
		ID:          node.Generate(),
		EventID:     f.event.ID,
		VolunteerID: f.volunteer.ID,
		Status:      status,
		Message:     "quero ajudar",
		AppliedAt:   fc.Now().Add(-24 * time.Hour),
		// Pin the timestamps explicitly: left zero, gorm omits them and
		// sqlite's CURRENT_TIMESTAMP default fills them in a text format the
		// driver's time binding never matches, so the conditional update's
		// updated_at predicate would always miss.
		CreatedAt: fc.Now().Add(-24 * time.Hour),
		UpdatedAt: fc.Now().Add(-24 * time.Hour),
	}
	require.NoError(t, db.Create(&f.application).Error)

	params := Params{
		DB:         db,
		Log:        zap.NewNop(),
		Clock:      fc,
		Repo:       repository.Provide(),
		Dispatcher: dispatcher,
		Config:     Config{NotificationWait: time.Second},
	}
	for _, opt := range opts {
		opt(&params)
	}
	f.service = New(params)
	return f
}

func (f *fixture) transition(action domain.Action, actorID snowflake.ID) (domain.TransitionResponse, error) {
	return f.service.Transition(context.Background(), domain.TransitionRequest{
		Action:        action,
		ApplicationID: f.application.ID.String(),
		ActorID:       actorID.String(),
	})
}

func TestApproveByOrganization(t *testing.T) {
	f := setupService(t, domain.StatusPending)

	resp, err := f.transition(domain.ActionApprove, f.org.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, resp.Application.Status)
	assert.Equal(t, string(notificationdomain.StatusSent), resp.Notification.Status)

	calls := f.dispatcher.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, domain.ActionApprove, calls[0].Action)
	require.NotNil(t, calls[0].Application.Volunteer)
	assert.Equal(t, f.volunteer.Email, calls[0].Application.Volunteer.Email)
}

func TestRejectByOrganization(t *testing.T) {
	f := setupService(t, domain.StatusPending)

	resp, err := f.transition(domain.ActionReject, f.org.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, resp.Application.Status)
}

func TestApproveByVolunteerForbidden(t *testing.T) {
	f := setupService(t, domain.StatusPending)

	_, err := f.transition(domain.ActionApprove, f.volunteer.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.Empty(t, f.dispatcher.calls())
}

func TestCancelByVolunteer(t *testing.T) {
	f := setupService(t, domain.StatusPending)

	resp, err := f.transition(domain.ActionCancel, f.volunteer.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, resp.Application.Status)

	calls := f.dispatcher.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, domain.ActionCancel, calls[0].Action)
}

func TestCancelByOrganizationForbidden(t *testing.T) {
	f := setupService(t, domain.StatusPending)

	_, err := f.transition(domain.ActionCancel, f.org.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestCancelByStrangerForbidden(t *testing.T) {
	f := setupService(t, domain.StatusPending)

	_, err := f.transition(domain.ActionCancel, f.node.Generate())
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestReapplyRequiresCancelled(t *testing.T) {
	for _, status := range []domain.Status{domain.StatusPending, domain.StatusApproved, domain.StatusRejected} {
		t.Run(string(status), func(t *testing.T) {
			f := setupService(t, status)

			_, err := f.transition(domain.ActionReapply, f.volunteer.ID)
			assert.ErrorIs(t, err, domain.ErrNotCancelled)
			assert.Empty(t, f.dispatcher.calls())
		})
	}
}

func TestReapplyResetsSubmission(t *testing.T) {
	f := setupService(t, domain.StatusCancelled)
	f.clock.Advance(2 * time.Hour)

	attachmentPath := "/uploads/cv.pdf"
	resp, err := f.service.Transition(context.Background(), domain.TransitionRequest{
		Action:        domain.ActionReapply,
		ApplicationID: f.application.ID.String(),
		ActorID:       f.volunteer.ID.String(),
		Message:       "  segunda tentativa  ",
		Attachment:    &domain.Attachment{Path: &attachmentPath},
	})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusPending, resp.Application.Status)
	assert.Equal(t, "segunda tentativa", resp.Application.Message)
	assert.True(t, resp.Application.AppliedAt.Equal(f.clock.Now()), "applied_at should reset to now")
	require.NotNil(t, resp.Application.AttachmentPath)
	assert.Equal(t, attachmentPath, *resp.Application.AttachmentPath)

	// Reapply is a fresh submission, not a decision: no notification goes out.
	assert.Equal(t, string(notificationdomain.StatusSkipped), resp.Notification.Status)
	assert.Empty(t, f.dispatcher.calls())
}

func TestReapplyClearsStaleAttachment(t *testing.T) {
	f := setupService(t, domain.StatusCancelled)
	stale := "/uploads/old.pdf"
	require.NoError(t, f.db.Model(&domain.Application{}).
		Where("id = ?", f.application.ID).
		Update("attachment_path", stale).Error)

	resp, err := f.transition(domain.ActionReapply, f.volunteer.ID)
	require.NoError(t, err)
	assert.Nil(t, resp.Application.AttachmentPath)
	assert.Empty(t, resp.Application.Message)
}

func TestCancelThenReapply(t *testing.T) {
	f := setupService(t, domain.StatusPending)

	_, err := f.transition(domain.ActionCancel, f.volunteer.ID)
	require.NoError(t, err)

	f.clock.Advance(time.Hour)
	resp, err := f.transition(domain.ActionReapply, f.volunteer.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, resp.Application.Status)
	assert.True(t, resp.Application.AppliedAt.Equal(f.clock.Now()), "applied_at should reset to now")
}

func TestTransitionNotFound(t *testing.T) {
	f := setupService(t, domain.StatusPending)

	_, err := f.service.Transition(context.Background(), domain.TransitionRequest{
		Action:        domain.ActionCancel,
		ApplicationID: f.node.Generate().String(),
		ActorID:       f.volunteer.ID.String(),
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTransitionInvalidIDs(t *testing.T) {
	f := setupService(t, domain.StatusPending)

	_, err := f.service.Transition(context.Background(), domain.TransitionRequest{
		Action:        domain.ActionCancel,
		ApplicationID: "not-a-number",
		ActorID:       f.volunteer.ID.String(),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidID)

	_, err = f.service.Transition(context.Background(), domain.TransitionRequest{
		Action:        domain.ActionCancel,
		ApplicationID: f.application.ID.String(),
		ActorID:       "",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidActor)
}

func TestNotificationFailureDoesNotFailTransition(t *testing.T) {
	f := setupService(t, domain.StatusPending)
	f.dispatcher.result = notificationdomain.Result{
		Status: notificationdomain.StatusFailed,
		Error:  "smtp down",
	}

	resp, err := f.transition(domain.ActionApprove, f.org.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, resp.Application.Status)
	assert.Equal(t, string(notificationdomain.StatusFailed), resp.Notification.Status)
	assert.Equal(t, "smtp down", resp.Notification.Error)

	var persisted domain.Application
	require.NoError(t, f.db.First(&persisted, "id = ?", f.application.ID).Error)
	assert.Equal(t, domain.StatusApproved, persisted.Status)
}

func TestLostRaceIdempotentWhenTargetMatches(t *testing.T) {
	// The conditional update reports zero rows but the stored status already
	// equals the target: the duplicate call succeeds without re-notifying.
	f := setupService(t, domain.StatusApproved, func(p *Params) {
		p.Repo = &zeroRowsRepo{Repository: repository.Provide()}
	})

	resp, err := f.transition(domain.ActionApprove, f.org.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, resp.Application.Status)
	assert.Equal(t, string(notificationdomain.StatusSkipped), resp.Notification.Status)
	assert.Empty(t, f.dispatcher.calls())
}

func TestLostRaceConflictWhenTargetDiffers(t *testing.T) {
	f := setupService(t, domain.StatusRejected, func(p *Params) {
		p.Repo = &zeroRowsRepo{Repository: repository.Provide()}
	})

	_, err := f.transition(domain.ActionApprove, f.org.ID)
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Contains(t, err.Error(), "rejected")
}

func TestConcurrentOppositeDecisions(t *testing.T) {
	// Two organizations racing approve vs reject on one pending application:
	// exactly one write wins, the loser sees either a conflict or the
	// winner's idempotent echo.
	f := setupService(t, domain.StatusPending)

	var wg sync.WaitGroup
	results := make([]error, 2)
	actions := []domain.Action{domain.ActionApprove, domain.ActionReject}
	for i, action := range actions {
		wg.Add(1)
		go func(i int, action domain.Action) {
			defer wg.Done()
			_, results[i] = f.transition(action, f.org.ID)
		}(i, action)
	}
	wg.Wait()

	var persisted domain.Application
	require.NoError(t, f.db.First(&persisted, "id = ?", f.application.ID).Error)
	assert.Contains(t, []domain.Status{domain.StatusApproved, domain.StatusRejected}, persisted.Status)

	winners := 0
	for _, err := range results {
		if err == nil {
			winners++
		} else {
			assert.ErrorIs(t, err, domain.ErrConflict)
		}
	}
	assert.GreaterOrEqual(t, winners, 1)
}

package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/voluntaria/platform/internal/application/domain"
	"github.com/voluntaria/platform/internal/clock"
	notificationdomain "github.com/voluntaria/platform/internal/notification/domain"
	obsmetrics "github.com/voluntaria/platform/internal/observability/metrics"
	pkgdb "github.com/voluntaria/platform/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Config bounds the post-commit notification wait. The dispatch itself is
// best-effort; the timeout only keeps the response from hanging on a slow
// email provider.
type Config struct {
	NotificationWait time.Duration
}

func (c Config) withDefaults() Config {
	if c.NotificationWait <= 0 {
		c.NotificationWait = 15 * time.Second
	}
	return c
}

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	Clock      clock.Clock
	Repo       domain.Repository
	Dispatcher notificationdomain.Dispatcher
	Metrics    *obsmetrics.Metrics `optional:"true"`
	Config     Config              `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	clock      clock.Clock
	repo       domain.Repository
	dispatcher notificationdomain.Dispatcher
	metrics    *obsmetrics.Metrics
	cfg        Config
}

func New(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("application.service"),
		clock:      p.Clock,
		repo:       p.Repo,
		dispatcher: p.Dispatcher,
		metrics:    p.Metrics,
		cfg:        p.Config.withDefaults(),
	}
}

// Transition moves one application through its lifecycle: load with event
// and volunteer context, authorize the actor, validate the action's
// precondition, persist the new status with a conditional single-row write,
// then dispatch best-effort notifications whose outcome rides along as
// response metadata.
func (s *Service) Transition(ctx context.Context, req domain.TransitionRequest) (domain.TransitionResponse, error) {
	applicationID, err := parseID(req.ApplicationID)
	if err != nil {
		return domain.TransitionResponse{}, domain.ErrInvalidID
	}
	actorID, err := parseID(req.ActorID)
	if err != nil {
		return domain.TransitionResponse{}, domain.ErrInvalidActor
	}

	application, err := s.repo.FindWithRelations(ctx, s.db, applicationID)
	if err != nil {
		return domain.TransitionResponse{}, fmt.Errorf("%w: load application: %v", domain.ErrPersistence, err)
	}
	if application == nil {
		return domain.TransitionResponse{}, domain.ErrNotFound
	}

	if err := authorize(req.Action, application, actorID); err != nil {
		return domain.TransitionResponse{}, err
	}

	if req.Action == domain.ActionReapply && application.Status != domain.StatusCancelled {
		return domain.TransitionResponse{}, domain.ErrNotCancelled
	}

	now := s.clock.Now()
	upd := domain.StatusUpdate{
		ID:            application.ID,
		Status:        req.Action.TargetStatus(),
		PrevUpdatedAt: application.UpdatedAt,
		UpdatedAt:     now,
	}
	if req.Action == domain.ActionReapply {
		// A reapply is a fresh submission: applied-at resets to now, the
		// message is overwritten, and attachment fields revert to null
		// unless explicitly supplied.
		cancelled := domain.StatusCancelled
		upd.RequireStatus = &cancelled
		upd.AppliedAt = &now
		message := strings.TrimSpace(req.Message)
		upd.Message = &message
		attachment := req.Attachment
		if attachment == nil {
			attachment = &domain.Attachment{}
		}
		upd.Attachment = attachment
	}

	rows, err := s.repo.UpdateStatus(ctx, s.db, upd)
	if err != nil {
		// Reapply can trip the one-live-candidacy unique index when the
		// volunteer already submitted a fresh application for the event.
		if pkgdb.IsDuplicateKeyErr(err) {
			s.recordTransition(ctx, req.Action, "conflict")
			return domain.TransitionResponse{}, fmt.Errorf("%w: já existe uma candidatura ativa para este evento", domain.ErrConflict)
		}
		outcome := "error"
		if pkgdb.IsUnavailableErr(err) {
			outcome = "unavailable"
		}
		s.recordTransition(ctx, req.Action, outcome)
		return domain.TransitionResponse{}, fmt.Errorf("%w: update status: %v", domain.ErrPersistence, err)
	}
	if rows == 0 {
		return s.resolveLostRace(ctx, req.Action, applicationID)
	}

	updated, err := s.repo.FindWithRelations(ctx, s.db, applicationID)
	if err != nil || updated == nil {
		// The write committed; fall back to the in-memory copy.
		updated = application
		updated.Status = upd.Status
		updated.UpdatedAt = now
		if upd.AppliedAt != nil {
			updated.AppliedAt = *upd.AppliedAt
		}
		if upd.Message != nil {
			updated.Message = *upd.Message
		}
	}

	s.recordTransition(ctx, req.Action, "success")
	outcome := s.notify(ctx, req.Action, *updated)

	return domain.TransitionResponse{
		Application:  *updated,
		Notification: outcome,
	}, nil
}

// resolveLostRace handles a conditional update that touched zero rows: a
// concurrent transition won. The caller is told the persisted state — or,
// when that state already matches its target, the duplicate call succeeds
// idempotently without re-dispatching notifications.
func (s *Service) resolveLostRace(ctx context.Context, action domain.Action, id snowflake.ID) (domain.TransitionResponse, error) {
	current, err := s.repo.FindWithRelations(ctx, s.db, id)
	if err != nil {
		s.recordTransition(ctx, action, "error")
		return domain.TransitionResponse{}, fmt.Errorf("%w: reload after conflict: %v", domain.ErrPersistence, err)
	}
	if current == nil {
		s.recordTransition(ctx, action, "not_found")
		return domain.TransitionResponse{}, domain.ErrNotFound
	}

	if action == domain.ActionReapply && current.Status != domain.StatusCancelled {
		s.recordTransition(ctx, action, "invalid_state")
		return domain.TransitionResponse{}, domain.ErrNotCancelled
	}

	if current.Status == action.TargetStatus() {
		s.recordTransition(ctx, action, "duplicate")
		return domain.TransitionResponse{
			Application:  *current,
			Notification: domain.NotificationOutcome{Status: string(notificationdomain.StatusSkipped)},
		}, nil
	}

	s.recordTransition(ctx, action, "conflict")
	return domain.TransitionResponse{}, fmt.Errorf("%w: status is %q", domain.ErrConflict, current.Status)
}

// notify runs the dispatcher for approve/reject/cancel with a bounded
// timeout. Its result is response metadata only; it never unwinds the
// already-committed transition.
func (s *Service) notify(ctx context.Context, action domain.Action, application domain.Application) domain.NotificationOutcome {
	if action == domain.ActionReapply {
		return domain.NotificationOutcome{Status: string(notificationdomain.StatusSkipped)}
	}

	dispatchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.NotificationWait)
	defer cancel()

	result := s.dispatcher.DispatchTransition(dispatchCtx, notificationdomain.TransitionNotice{
		Action:      action,
		Application: application,
	})
	if result.Status == notificationdomain.StatusFailed {
		s.log.Warn("notification dispatch failed",
			zap.String("action", string(action)),
			zap.String("application_id", application.ID.String()),
			zap.String("error", result.Error),
		)
	}
	if s.metrics != nil {
		s.metrics.RecordNotification(ctx, "email", string(result.Status))
	}

	return domain.NotificationOutcome{
		Status: string(result.Status),
		Error:  result.Error,
	}
}

func authorize(action domain.Action, application *domain.Application, actorID snowflake.ID) error {
	switch action.RequiredRole() {
	case domain.RoleVolunteer:
		if application.VolunteerID != actorID {
			return domain.ErrForbidden
		}
	case domain.RoleOrganization:
		if application.Event == nil {
			return domain.ErrEventNotFound
		}
		if application.Event.OrganizationID != actorID {
			return domain.ErrForbidden
		}
	}
	return nil
}

func (s *Service) recordTransition(ctx context.Context, action domain.Action, outcome string) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordTransition(ctx, string(action), outcome)
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid id %q", value)
	}
	return id, nil
}

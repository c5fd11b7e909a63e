package sweeper

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/voluntaria/platform/internal/clock"
	eventdomain "github.com/voluntaria/platform/internal/event/domain"
	obsmetrics "github.com/voluntaria/platform/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const lockKey = "sweep:expired_events"

// Result reports one sweep run. Field names follow the public sweep
// endpoint's wire format.
type Result struct {
	CompletedIDs   []string  `json:"completedEventIds"`
	SkippedIDs     []string  `json:"skippedEventIds"`
	CompletedCount int       `json:"completedCount"`
	ProcessedAt    time.Time `json:"processedAt"`
}

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Clock   clock.Clock
	Repo    eventdomain.Repository
	Locker  *Locker             `optional:"true"`
	Metrics *obsmetrics.Metrics `optional:"true"`
	Config  Config              `optional:"true"`
}

// Sweeper promotes open/closed events whose effective end instant has passed
// to completed. Safe to re-run: with no new expirations a second run is a
// no-op.
type Sweeper struct {
	db      *gorm.DB
	log     *zap.Logger
	clock   clock.Clock
	repo    eventdomain.Repository
	locker  *Locker
	metrics *obsmetrics.Metrics
	cfg     Config
}

func New(p Params) *Sweeper {
	return &Sweeper{
		db:      p.DB,
		log:     p.Log.Named("sweeper"),
		clock:   p.Clock,
		repo:    p.Repo,
		locker:  p.Locker,
		metrics: p.Metrics,
		cfg:     p.Config.withDefaults(),
	}
}

// Sweep scans expirable events, partitions them by computed end instant, and
// unless dryRun is set completes the expired ones in one batched update.
func (s *Sweeper) Sweep(ctx context.Context, dryRun bool) (*Result, error) {
	now := s.clock.Now()
	result := &Result{
		CompletedIDs: []string{},
		SkippedIDs:   []string{},
		ProcessedAt:  now,
	}

	if s.locker != nil && !dryRun {
		token, ok, err := s.locker.TryLock(ctx, lockKey, s.cfg.LockTTL)
		if err != nil {
			s.log.Warn("sweep lock unavailable, proceeding unlocked", zap.Error(err))
		} else if !ok {
			s.log.Debug("sweep already held by another replica")
			return result, nil
		} else {
			defer func() {
				if err := s.locker.Release(ctx, lockKey, token); err != nil {
					s.log.Warn("sweep lock release failed", zap.Error(err))
				}
			}()
		}
	}

	candidates, err := s.repo.ListExpirable(ctx, s.db, now)
	if err != nil {
		s.recordSweep(ctx, "error", 0)
		return nil, fmt.Errorf("list expirable events: %w", err)
	}

	expired := make([]*eventdomain.Event, 0, len(candidates))
	for _, event := range candidates {
		if event == nil {
			continue
		}
		// A long-duration event may have started in the past but not ended.
		if event.EndsAt().After(now) {
			result.SkippedIDs = append(result.SkippedIDs, event.ID.String())
			continue
		}
		expired = append(expired, event)
		result.CompletedIDs = append(result.CompletedIDs, event.ID.String())
	}

	if dryRun {
		result.CompletedCount = len(expired)
		s.recordSweep(ctx, "dry_run", 0)
		return result, nil
	}

	if len(expired) == 0 {
		s.recordSweep(ctx, "noop", 0)
		return result, nil
	}

	ids := make([]snowflake.ID, 0, len(expired))
	for _, event := range expired {
		ids = append(ids, event.ID)
	}
	rows, err := s.repo.Complete(ctx, s.db, ids, now)
	if err != nil {
		s.recordSweep(ctx, "error", 0)
		return nil, fmt.Errorf("complete expired events: %w", err)
	}
	result.CompletedCount = int(rows)

	s.log.Info("expired events completed",
		zap.Int("candidates", len(candidates)),
		zap.Int("completed", result.CompletedCount),
		zap.Int("skipped", len(result.SkippedIDs)),
	)
	s.recordSweep(ctx, "success", result.CompletedCount)

	return result, nil
}

func (s *Sweeper) recordSweep(ctx context.Context, outcome string, completed int) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordSweep(ctx, outcome, completed)
}

package sweeper

import (
	"context"
	"sync"
	"time"

	"github.com/voluntaria/platform/internal/clock"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const sweepFlightKey = "expired_events"

type SchedulerParams struct {
	fx.In

	Log     *zap.Logger
	Clock   clock.Clock
	Sweeper *Sweeper
	Config  Config `optional:"true"`
}

// Scheduler throttles opportunistic sweep requests coming from read traffic.
// At most one sweep starts per refresh window, and callers that arrive while
// one is in flight share its outcome instead of starting another. All state
// is owned by this instance; a process restart just allows one eager sweep.
type Scheduler struct {
	log     *zap.Logger
	clock   clock.Clock
	sweeper *Sweeper
	cfg     Config

	mu    sync.Mutex
	last  time.Time
	group singleflight.Group
}

func NewScheduler(p SchedulerParams) *Scheduler {
	return &Scheduler{
		log:     p.Log.Named("sweeper.scheduler"),
		clock:   p.Clock,
		sweeper: p.Sweeper,
		cfg:     p.Config.withDefaults(),
	}
}

// Kick requests a sweep on behalf of a read request. Inside the refresh
// window it returns immediately; otherwise it runs (or joins) the single
// outstanding sweep. Failures are logged and swallowed so the triggering
// read never fails because of the sweep.
func (s *Scheduler) Kick(ctx context.Context) {
	if !s.due() {
		return
	}

	ch := s.group.DoChan(sweepFlightKey, func() (interface{}, error) {
		// Detached from the triggering request: a caller giving up must not
		// cancel the sweep for everyone sharing it.
		sweepCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.SweepTimeout)
		defer cancel()
		return s.sweeper.Sweep(sweepCtx, false)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			s.log.Warn("opportunistic sweep failed", zap.Error(res.Err))
		}
	case <-ctx.Done():
		// Caller moved on; the shared sweep keeps running.
	}
}

// RunForever drives the sweep on a fixed ticker; used by the standalone
// sweeper binary where no read traffic exists to kick it.
func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RefreshInterval)
	defer ticker.Stop()

	for {
		if _, err := s.sweeper.Sweep(ctx, false); err != nil {
			s.log.Warn("scheduled sweep failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) due() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	if !s.last.IsZero() && now.Sub(s.last) < s.cfg.RefreshInterval {
		return false
	}
	s.last = now
	return true
}

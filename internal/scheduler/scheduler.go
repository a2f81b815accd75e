package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	catalogdomain "github.com/smallbiznis/partdesk/internal/catalog/domain"
	"github.com/smallbiznis/partdesk/internal/clock"
	"github.com/smallbiznis/partdesk/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const retryDelay = time.Hour

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Clock   clock.Clock
	Cfg     config.Config
	Catalog catalogdomain.Service
	Repo    catalogdomain.Repository
}

// Scheduler drives the catalog sync: a catch-up run at startup when the
// last successful sync is older than the configured interval, then one
// run per day at the configured wall-clock time. A failed run is retried
// after an hour instead of waiting for the next day.
type Scheduler struct {
	db      *gorm.DB
	log     *zap.Logger
	clock   clock.Clock
	cfg     config.SyncConfig
	catalog catalogdomain.Service
	repo    catalogdomain.Repository

	mu      sync.Mutex
	nextRun time.Time
}

func New(p Params) *Scheduler {
	return &Scheduler{
		db:      p.DB,
		log:     p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		clock:   p.Clock,
		cfg:     p.Cfg.Sync,
		catalog: p.Catalog,
		repo:    p.Repo,
	}
}

// SyncOnStartup refreshes the catalog when no successful sync is recorded
// within the configured interval. A fresh mirror skips the run.
func (s *Scheduler) SyncOnStartup(ctx context.Context) {
	interval := time.Duration(s.cfg.IntervalHours) * time.Hour
	if interval <= 0 {
		interval = 24 * time.Hour
	}

	now := s.clock.Now()
	last, err := s.repo.LastSuccessfulSync(ctx, s.db)
	if err != nil {
		s.log.Warn("read last sync", zap.Error(err))
	}
	if last != nil && now.Sub(last.Timestamp) < interval {
		s.log.Info("catalog fresh, skipping startup sync",
			zap.Time("last_sync", last.Timestamp),
		)
		s.scheduleNext(now)
		return
	}

	if _, err := s.catalog.Sync(ctx, catalogdomain.TriggerStartup); err != nil {
		s.log.Warn("startup sync failed", zap.Error(err))
		s.scheduleRetry(now)
		return
	}
	s.scheduleNext(now)
}

// Tick runs the scheduled sync when it is due. Called once per ticker
// fire; exposed so tests can drive it with a fake clock.
func (s *Scheduler) Tick(ctx context.Context) {
	now := s.clock.Now()

	s.mu.Lock()
	due := !s.nextRun.IsZero() && !now.Before(s.nextRun)
	s.mu.Unlock()
	if !due {
		return
	}

	if _, err := s.catalog.Sync(ctx, catalogdomain.TriggerScheduled); err != nil {
		if errors.Is(err, catalogdomain.ErrSyncInProgress) {
			// A manual sync is running; it covers this slot.
			s.scheduleNext(now)
			return
		}
		s.log.Warn("scheduled sync failed", zap.Error(err))
		s.scheduleRetry(now)
		return
	}
	s.scheduleNext(now)
}

// RunForever drives Tick until the context is cancelled.
func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// NextRun reports the next scheduled sync time.
func (s *Scheduler) NextRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextRun
}

func (s *Scheduler) scheduleNext(now time.Time) {
	next := s.nextDailyRun(now)
	s.mu.Lock()
	s.nextRun = next
	s.mu.Unlock()
	s.log.Info("next catalog sync scheduled", zap.Time("at", next))
}

func (s *Scheduler) scheduleRetry(now time.Time) {
	next := now.Add(retryDelay)
	s.mu.Lock()
	s.nextRun = next
	s.mu.Unlock()
	s.log.Info("catalog sync retry scheduled", zap.Time("at", next))
}

// nextDailyRun returns the next occurrence of the configured daily time
// strictly after now.
func (s *Scheduler) nextDailyRun(now time.Time) time.Time {
	at, err := time.Parse("15:04", s.cfg.DailyTime)
	if err != nil {
		s.log.Warn("invalid daily sync time, using 02:00",
			zap.String("daily_time", s.cfg.DailyTime),
		)
		at = time.Date(0, 1, 1, 2, 0, 0, 0, time.UTC)
	}

	next := time.Date(now.Year(), now.Month(), now.Day(), at.Hour(), at.Minute(), 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

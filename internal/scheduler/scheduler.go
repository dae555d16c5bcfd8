// Package scheduler runs the periodic housekeeping jobs: cache eviction and
// expired ban cleanup.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/hostdeck/panel/backend/internal/logger"
)

// CacheSweeper is satisfied by *cache.Cache.
type CacheSweeper interface {
	CleanExpired() int
}

// BanSweeper is satisfied by *security.Manager.
type BanSweeper interface {
	CleanExpiredBans(ctx context.Context) []string
}

type Scheduler struct {
	Cron *cron.Cron

	cache CacheSweeper
	bans  BanSweeper
}

// New registers both sweeps. Non-positive intervals fall back to 5m for the
// cache and 10m for bans.
func New(c CacheSweeper, bans BanSweeper, cacheInterval, banInterval time.Duration) (*Scheduler, error) {
	if cacheInterval <= 0 {
		cacheInterval = 5 * time.Minute
	}
	if banInterval <= 0 {
		banInterval = 10 * time.Minute
	}

	s := &Scheduler{Cron: cron.New(), cache: c, bans: bans}
	if _, err := s.Cron.AddFunc(fmt.Sprintf("@every %s", cacheInterval), s.SweepCache); err != nil {
		return nil, fmt.Errorf("schedule cache sweep: %w", err)
	}
	if _, err := s.Cron.AddFunc(fmt.Sprintf("@every %s", banInterval), s.SweepBans); err != nil {
		return nil, fmt.Errorf("schedule ban sweep: %w", err)
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.Cron.Start()
	logger.Log().WithField("jobs", len(s.Cron.Entries())).Info("scheduler started")
}

// Stop halts the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
}

func (s *Scheduler) SweepCache() {
	if n := s.cache.CleanExpired(); n > 0 {
		logger.Log().WithField("evicted", n).Debug("cache sweep")
	}
}

func (s *Scheduler) SweepBans() {
	s.bans.CleanExpiredBans(context.Background())
}

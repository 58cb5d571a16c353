package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/autotradevip/atv-backend/internal/core/domain"
)

const jobTimeout = 30 * time.Second

// StatsSource yields a fresh user-base snapshot. The user service implements
// it and updates the gauges as a side effect.
type StatsSource interface {
	Stats(ctx context.Context) (domain.UserStats, error)
}

// AuditPurger deletes audit rows older than a cutoff.
type AuditPurger interface {
	PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Config holds the cron expressions and the audit retention period.
type Config struct {
	StatsRefreshSpec string
	AuditPurgeSpec   string
	AuditRetention   time.Duration
}

// Scheduler runs the periodic maintenance jobs.
type Scheduler struct {
	cron   *cron.Cron
	stats  StatsSource
	purger AuditPurger
	cfg    Config
	log    zerolog.Logger
	now    func() time.Time
}

// New creates a Scheduler. Jobs whose spec is empty are not registered.
func New(cfg Config, stats StatsSource, purger AuditPurger, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger))),
		stats:  stats,
		purger: purger,
		cfg:    cfg,
		log:    log,
		now:    time.Now,
	}
}

// Start registers the jobs and starts the cron loop.
func (s *Scheduler) Start() error {
	if s.cfg.StatsRefreshSpec != "" && s.stats != nil {
		if _, err := s.cron.AddFunc(s.cfg.StatsRefreshSpec, s.refreshStats); err != nil {
			return fmt.Errorf("schedule stats refresh %q: %w", s.cfg.StatsRefreshSpec, err)
		}
	}
	if s.cfg.AuditPurgeSpec != "" && s.purger != nil && s.cfg.AuditRetention > 0 {
		if _, err := s.cron.AddFunc(s.cfg.AuditPurgeSpec, s.purgeAudit); err != nil {
			return fmt.Errorf("schedule audit purge %q: %w", s.cfg.AuditPurgeSpec, err)
		}
	}

	s.cron.Start()
	s.log.Info().
		Str("stats_refresh", s.cfg.StatsRefreshSpec).
		Str("audit_purge", s.cfg.AuditPurgeSpec).
		Int("jobs", len(s.cron.Entries())).
		Msg("scheduler started")
	return nil
}

// Stop halts the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info().Msg("scheduler stopped")
}

func (s *Scheduler) refreshStats() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	st, err := s.stats.Stats(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("stats refresh failed")
		return
	}
	s.log.Debug().
		Int64("total", st.TotalUsers).
		Int64("vip", st.VIPUsers).
		Msg("user stats refreshed")
}

func (s *Scheduler) purgeAudit() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	cutoff := s.now().UTC().Add(-s.cfg.AuditRetention)
	n, err := s.purger.PurgeBefore(ctx, cutoff)
	if err != nil {
		s.log.Error().Err(err).Msg("audit purge failed")
		return
	}
	s.log.Info().Int64("deleted", n).Time("cutoff", cutoff).Msg("audit log purged")
}

package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Ammordius/NAGD-DKP-sub002/internal/config"
	"github.com/Ammordius/NAGD-DKP-sub002/internal/engine"
	"github.com/Ammordius/NAGD-DKP-sub002/pkg/logger"
)

// RefreshScheduler periodically re-runs the full rebuild so the
// rolling-window fields, which the delta path cannot maintain, are
// never more than one period stale. It also watches for a bulk load
// parked in the suspended state, where every maintenance hook silently
// no-ops.
type RefreshScheduler struct {
	cron   *cron.Cron
	engine *engine.Engine
	cfg    config.EngineConfig
}

func NewRefreshScheduler(eng *engine.Engine, cfg config.EngineConfig) *RefreshScheduler {
	return &RefreshScheduler{
		cron:   cron.New(cron.WithSeconds()),
		engine: eng,
		cfg:    cfg,
	}
}

func (s *RefreshScheduler) Start() error {
	if _, err := s.cron.AddFunc(s.cfg.RefreshCron, s.refreshWindows); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc("0 * * * * *", s.watchSuspended); err != nil {
		return err
	}

	s.cron.Start()
	logger.Info("Window refresh scheduler started")
	return nil
}

func (s *RefreshScheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info("Window refresh scheduler stopped")
}

func (s *RefreshScheduler) refreshWindows() {
	ctx := context.Background()

	if state := s.engine.State(); state != engine.StateNormal {
		logger.WithFields(map[string]interface{}{
			"state": state.String(),
		}).Info("window refresh skipped during bulk load")
		return
	}

	logger.Info("Starting window refresh")

	if err := s.engine.RebuildSummaries(ctx); err != nil {
		logger.Error("Failed to rebuild summaries:", err)
		return
	}
	if err := s.engine.RebuildPeriodTotals(ctx); err != nil {
		logger.Error("Failed to rebuild period totals:", err)
		return
	}
	if err := s.engine.RebuildAccountSummaries(ctx); err != nil {
		logger.Error("Failed to rebuild account summaries:", err)
		return
	}

	logger.Info("Window refresh completed")
}

// watchSuspended alerts when the coordinator has been out of normal
// longer than the expected bulk-load window; deltas and rebuilds are
// silently skipped the whole time, so a forgotten bulk load means
// aggregates drift indefinitely.
func (s *RefreshScheduler) watchSuspended() {
	state := s.engine.State()
	if state == engine.StateNormal {
		return
	}

	limit := time.Duration(s.cfg.SuspendAlertMinutes) * time.Minute
	if elapsed := time.Since(s.engine.StateSince()); elapsed > limit {
		logger.WithFields(map[string]interface{}{
			"state":   state.String(),
			"elapsed": elapsed.String(),
		}).Warn("bulk load has exceeded the expected window; aggregates are stale until end_bulk_load runs")
	}
}

func (s *RefreshScheduler) TriggerManualRefresh(ctx context.Context) error {
	return s.engine.RebuildAll(ctx)
}

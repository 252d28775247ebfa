package engine

import (
	"context"

	"github.com/Ammordius/NAGD-DKP-sub002/pkg/errors"
	"github.com/Ammordius/NAGD-DKP-sub002/pkg/logger"
)

// RebuildSummaries recomputes the whole dkp_summary table from the
// ledger and atomically replaces it. O(ledger), idempotent, safe to
// retry after any failure; this is the only path that refreshes the
// rolling-window fields.
func (e *Engine) RebuildSummaries(ctx context.Context) error {
	if e.skipRebuild() {
		return nil
	}
	e.rebuildMu.Lock()
	defer e.rebuildMu.Unlock()

	snap, err := e.loadSnapshot(ctx)
	if err != nil {
		return errors.New(errors.ErrRebuild, "failed to load ledger", err)
	}
	return e.rebuildSummariesFrom(ctx, snap)
}

func (e *Engine) RebuildRaidTotals(ctx context.Context) error {
	if e.skipRebuild() {
		return nil
	}
	e.rebuildMu.Lock()
	defer e.rebuildMu.Unlock()

	snap, err := e.loadSnapshot(ctx)
	if err != nil {
		return errors.New(errors.ErrRebuild, "failed to load ledger", err)
	}
	return e.rebuildRaidTotalsFrom(ctx, snap)
}

func (e *Engine) RebuildPeriodTotals(ctx context.Context) error {
	if e.skipRebuild() {
		return nil
	}
	e.rebuildMu.Lock()
	defer e.rebuildMu.Unlock()

	snap, err := e.loadSnapshot(ctx)
	if err != nil {
		return errors.New(errors.ErrRebuild, "failed to load ledger", err)
	}
	return e.rebuildPeriodTotalsFrom(ctx, snap)
}

func (e *Engine) RebuildAccountSummaries(ctx context.Context) error {
	if e.skipRebuild() {
		return nil
	}
	e.rebuildMu.Lock()
	defer e.rebuildMu.Unlock()

	snap, err := e.loadSnapshot(ctx)
	if err != nil {
		return errors.New(errors.ErrRebuild, "failed to load ledger", err)
	}
	return e.rebuildAccountsFrom(ctx, snap)
}

// RebuildAll refreshes every aggregate table from one ledger snapshot.
// The administrative recompute_full entry point.
func (e *Engine) RebuildAll(ctx context.Context) error {
	if e.skipRebuild() {
		return nil
	}
	e.rebuildMu.Lock()
	defer e.rebuildMu.Unlock()

	return e.rebuildAllLocked(ctx)
}

func (e *Engine) rebuildAllLocked(ctx context.Context) error {
	snap, err := e.loadSnapshot(ctx)
	if err != nil {
		return errors.New(errors.ErrRebuild, "failed to load ledger", err)
	}

	if err := e.rebuildSummariesFrom(ctx, snap); err != nil {
		return err
	}
	if err := e.rebuildRaidTotalsFrom(ctx, snap); err != nil {
		return err
	}
	if err := e.rebuildPeriodTotalsFrom(ctx, snap); err != nil {
		return err
	}
	if err := e.rebuildAccountsFrom(ctx, snap); err != nil {
		return err
	}

	logger.WithFields(map[string]interface{}{
		"raids":      len(snap.Raids),
		"attendance": len(snap.Attendance),
		"loot":       len(snap.Loot),
	}).Info("full rebuild completed")
	return nil
}

func (e *Engine) rebuildSummariesFrom(ctx context.Context, snap *Snapshot) error {
	rows := computeSummaries(snap, snap.Resolver(), e.now(), e.cfg.WindowShortDays, e.cfg.WindowLongDays)
	if err := e.summaries.ReplaceAll(ctx, rows); err != nil {
		return errors.New(errors.ErrRebuild, "failed to replace dkp_summary", err)
	}
	return nil
}

func (e *Engine) rebuildRaidTotalsFrom(ctx context.Context, snap *Snapshot) error {
	totals, attendance := computeRaidTotals(snap, snap.Resolver())
	if err := e.raidTotals.ReplaceAll(ctx, totals, attendance); err != nil {
		return errors.New(errors.ErrRebuild, "failed to replace raid totals", err)
	}
	return nil
}

func (e *Engine) rebuildPeriodTotalsFrom(ctx context.Context, snap *Snapshot) error {
	rows := computePeriodTotals(snap, e.now(), e.cfg.WindowShortDays, e.cfg.WindowLongDays)
	if err := e.periods.ReplaceAll(ctx, rows); err != nil {
		return errors.New(errors.ErrRebuild, "failed to replace period totals", err)
	}
	return nil
}

func (e *Engine) rebuildAccountsFrom(ctx context.Context, snap *Snapshot) error {
	rows := computeAccountSummaries(snap, snap.Resolver(), e.now(), e.cfg.WindowShortDays, e.cfg.WindowLongDays)
	if err := e.accounts.ReplaceAll(ctx, rows); err != nil {
		return errors.New(errors.ErrRebuild, "failed to replace account summaries", err)
	}
	return nil
}

// skipRebuild gates rebuild hooks while a bulk load is in flight: while
// Suspended nothing runs, and the Consolidating pass drives its own
// rebuild directly through rebuildAllLocked.
func (e *Engine) skipRebuild() bool {
	s := e.coordinator.State()
	if s == StateNormal {
		return false
	}
	logger.WithFields(map[string]interface{}{"state": s.String()}).Debug("rebuild skipped")
	return true
}

package engine

import (
	"context"
	"sort"

	"github.com/Ammordius/NAGD-DKP-sub002/internal/models"
	"github.com/Ammordius/NAGD-DKP-sub002/pkg/errors"
	"github.com/Ammordius/NAGD-DKP-sub002/pkg/logger"
)

// RecomputeScoped is the officer-edit fast path: after a single raid's
// rows change, replace that raid's totals tables and refresh the
// account summaries for every account with attendance on it. Extra
// account ids cover a removed attendee, whose account can no longer be
// derived from the (now deleted) row and must be passed explicitly.
//
// The scoping limits which accounts get written, not how much history
// is read: each target account's totals span its entire ledger.
func (e *Engine) RecomputeScoped(ctx context.Context, raidID int64, extraAccountIDs ...string) error {
	if s := e.coordinator.State(); s != StateNormal {
		logger.WithFields(map[string]interface{}{"state": s.String()}).Debug("scoped recompute skipped")
		return nil
	}

	e.rebuildMu.Lock()
	defer e.rebuildMu.Unlock()

	snap, err := e.loadSnapshot(ctx)
	if err != nil {
		return errors.New(errors.ErrScopedRecompute, "failed to load ledger", err)
	}
	res := snap.Resolver()

	total, attendance := computeRaidTotalsFor(snap, res, raidID)
	if err := e.raidTotals.ReplaceForRaid(ctx, raidID, total, attendance); err != nil {
		return errors.New(errors.ErrScopedRecompute, "failed to replace raid totals", err)
	}

	targets := make(map[string]bool)
	for _, id := range extraAccountIDs {
		if id != "" {
			targets[id] = true
		}
	}
	for _, a := range snap.Attendance {
		if a.RaidID != raidID {
			continue
		}
		if c, ok := res.Resolve(attendanceRef(a)); ok && c.AccountID != "" {
			targets[c.AccountID] = true
		}
	}
	for _, l := range snap.Loot {
		if l.RaidID != raidID {
			continue
		}
		if c, ok := res.Resolve(lootRef(l)); ok && c.AccountID != "" {
			targets[c.AccountID] = true
		}
	}
	if len(targets) == 0 {
		return nil
	}

	computed := computeAccountSummaries(snap, res, e.now(), e.cfg.WindowShortDays, e.cfg.WindowLongDays)
	byID := make(map[string]models.AccountSummary, len(computed))
	for _, row := range computed {
		byID[row.AccountID] = row
	}

	ids := make([]string, 0, len(targets))
	for id := range targets {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		if row, ok := byID[id]; ok {
			if err := e.accounts.Save(ctx, &row); err != nil {
				return errors.New(errors.ErrScopedRecompute, "failed to save account "+id, err)
			}
			continue
		}
		// The account no longer has any ledger rows; drop its summary.
		if err := e.accounts.Delete(ctx, id); err != nil {
			return errors.New(errors.ErrScopedRecompute, "failed to delete account "+id, err)
		}
	}

	logger.WithFields(map[string]interface{}{
		"raid_id":  raidID,
		"accounts": len(ids),
	}).Info("scoped recompute completed")
	return nil
}

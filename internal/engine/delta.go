package engine

import (
	"context"
	"sort"
	"time"

	"github.com/Ammordius/NAGD-DKP-sub002/internal/identity"
	"github.com/Ammordius/NAGD-DKP-sub002/internal/models"
	"github.com/Ammordius/NAGD-DKP-sub002/pkg/errors"
	"github.com/Ammordius/NAGD-DKP-sub002/pkg/logger"
)

type deltaAccum struct {
	name   string
	earned float64
	spent  int64
	date   time.Time
}

// ApplyAttendanceDelta is the cheap append path: resolve each newly
// inserted row, sum contributions per canonical key, and add the sums
// to the summary rows. Window fields are left alone (see
// SummaryRepository.AddEarned). No-ops while a bulk load is running;
// the consolidation rebuild covers everything inserted meanwhile.
func (e *Engine) ApplyAttendanceDelta(ctx context.Context, rows []models.RaidEventAttendance) error {
	if s := e.coordinator.State(); s != StateNormal {
		logger.WithFields(map[string]interface{}{"state": s.String()}).Debug("delta skipped")
		return nil
	}
	if len(rows) == 0 {
		return nil
	}

	res, err := e.resolverFromDB(ctx)
	if err != nil {
		return errors.New(errors.ErrLedgerWrite, "failed to build resolver", err)
	}

	accum := make(map[string]*deltaAccum)
	for _, row := range rows {
		c, ok := res.Resolve(attendanceRef(row))
		if !ok {
			continue
		}
		event, err := e.events.GetByID(ctx, row.EventID)
		if err != nil {
			return errors.New(errors.ErrLedgerWrite, "failed to load event", err)
		}
		if event == nil {
			continue
		}
		raid, err := e.raids.GetByID(ctx, row.RaidID)
		if err != nil {
			return errors.New(errors.ErrLedgerWrite, "failed to load raid", err)
		}
		if raid == nil {
			continue
		}

		a, ok := accum[c.Key]
		if !ok {
			a = &deltaAccum{name: c.Name, date: raid.RaidDate}
			accum[c.Key] = a
		}
		a.earned += event.DKPValue
		if raid.RaidDate.After(a.date) {
			a.date = raid.RaidDate
		}
	}

	return e.flushDeltas(ctx, accum, true)
}

// ApplyLootDelta is the redemption counterpart.
func (e *Engine) ApplyLootDelta(ctx context.Context, rows []models.RaidLoot) error {
	if s := e.coordinator.State(); s != StateNormal {
		logger.WithFields(map[string]interface{}{"state": s.String()}).Debug("delta skipped")
		return nil
	}
	if len(rows) == 0 {
		return nil
	}

	res, err := e.resolverFromDB(ctx)
	if err != nil {
		return errors.New(errors.ErrLedgerWrite, "failed to build resolver", err)
	}

	accum := make(map[string]*deltaAccum)
	for _, row := range rows {
		c, ok := res.Resolve(lootRef(row))
		if !ok {
			continue
		}
		raid, err := e.raids.GetByID(ctx, row.RaidID)
		if err != nil {
			return errors.New(errors.ErrLedgerWrite, "failed to load raid", err)
		}
		if raid == nil {
			continue
		}

		a, ok := accum[c.Key]
		if !ok {
			a = &deltaAccum{name: c.Name, date: raid.RaidDate}
			accum[c.Key] = a
		}
		a.spent += row.Cost
		if raid.RaidDate.After(a.date) {
			a.date = raid.RaidDate
		}
	}

	return e.flushDeltas(ctx, accum, false)
}

func (e *Engine) flushDeltas(ctx context.Context, accum map[string]*deltaAccum, earned bool) error {
	keys := make([]string, 0, len(accum))
	for k := range accum {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		a := accum[k]
		var err error
		if earned {
			err = e.summaries.AddEarned(ctx, k, a.name, a.earned, a.date)
		} else {
			err = e.summaries.AddSpent(ctx, k, a.name, a.spent, a.date)
		}
		if err != nil {
			return errors.New(errors.ErrLedgerWrite, "failed to apply delta for "+k, err)
		}
	}
	return nil
}

func (e *Engine) resolverFromDB(ctx context.Context) (*identity.Resolver, error) {
	links, err := e.links.All(ctx)
	if err != nil {
		return nil, err
	}
	names, err := e.attendance.NameIndex(ctx)
	if err != nil {
		return nil, err
	}
	return identity.NewResolver(links, identity.WithNameIndex(names)), nil
}

package engine

import (
	"context"

	"github.com/Ammordius/NAGD-DKP-sub002/internal/identity"
	"github.com/Ammordius/NAGD-DKP-sub002/internal/models"
)

// Snapshot is one consistent read of the whole ledger. Rebuilds compute
// from a snapshot with pure functions and replace aggregate tables with
// the output; they never edit aggregates in place.
type Snapshot struct {
	Raids       []models.Raid
	Events      []models.RaidEvent
	Attendance  []models.RaidEventAttendance
	Loot        []models.RaidLoot
	Links       []models.CharacterAccount
	Adjustments []models.DKPAdjustment
}

func (e *Engine) loadSnapshot(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{}
	var err error

	if snap.Raids, err = e.raids.All(ctx); err != nil {
		return nil, err
	}
	if snap.Events, err = e.events.All(ctx); err != nil {
		return nil, err
	}
	if snap.Attendance, err = e.attendance.All(ctx); err != nil {
		return nil, err
	}
	if snap.Loot, err = e.loot.All(ctx); err != nil {
		return nil, err
	}
	if snap.Links, err = e.links.All(ctx); err != nil {
		return nil, err
	}
	if snap.Adjustments, err = e.adjustments.All(ctx); err != nil {
		return nil, err
	}
	return snap, nil
}

// Resolver builds the canonical key resolver for this snapshot,
// harvesting the name backfill index from attendance rows that carry
// both a name and a char id.
func (s *Snapshot) Resolver(opts ...identity.ResolverOption) *identity.Resolver {
	names := make(map[string]int64)
	for _, a := range s.Attendance {
		if a.CharID == nil || a.CharacterName == "" {
			continue
		}
		if _, ok := names[a.CharacterName]; !ok {
			names[a.CharacterName] = *a.CharID
		}
	}
	all := append([]identity.ResolverOption{identity.WithNameIndex(names)}, opts...)
	return identity.NewResolver(s.Links, all...)
}

func (s *Snapshot) raidDates() map[int64]models.Raid {
	raids := make(map[int64]models.Raid, len(s.Raids))
	for _, r := range s.Raids {
		raids[r.RaidID] = r
	}
	return raids
}

func (s *Snapshot) eventValues() map[int64]models.RaidEvent {
	events := make(map[int64]models.RaidEvent, len(s.Events))
	for _, ev := range s.Events {
		events[ev.ID] = ev
	}
	return events
}

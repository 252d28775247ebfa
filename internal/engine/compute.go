package engine

import (
	"sort"
	"time"

	"github.com/Ammordius/NAGD-DKP-sub002/internal/identity"
	"github.com/Ammordius/NAGD-DKP-sub002/internal/models"
)

// sourceKey separates id-sourced and name-sourced accumulation for the
// same canonical key so the merge layer can apply the shadow rule.
type sourceKey struct {
	key      string
	fromName bool
}

// computeSummaries derives the full dkp_summary table from a ledger
// snapshot. Deterministic: output is sorted by character key, so two
// runs over the same ledger produce identical tables.
func computeSummaries(snap *Snapshot, res *identity.Resolver, now time.Time, shortDays, longDays int) []models.DKPSummary {
	raids := snap.raidDates()
	events := snap.eventValues()
	shortCutoff := now.AddDate(0, 0, -shortDays)
	longCutoff := now.AddDate(0, 0, -longDays)

	partials := make(map[sourceKey]*partial)
	get := func(c identity.Canonical, fromName bool) *partial {
		k := sourceKey{key: c.Key, fromName: fromName}
		p, ok := partials[k]
		if !ok {
			p = &partial{}
			partials[k] = p
		}
		if p.name == "" && c.Name != "" {
			p.name = c.Name
		}
		return p
	}

	for _, a := range snap.Attendance {
		c, ok := res.Resolve(attendanceRef(a))
		if !ok {
			continue
		}
		ev, ok := events[a.EventID]
		if !ok {
			continue
		}
		raid, ok := raids[a.RaidID]
		if !ok {
			continue
		}

		p := get(c, nameDerived(c, a.CharacterName))
		p.earned += ev.DKPValue
		if !raid.RaidDate.Before(shortCutoff) {
			p.earned30 += ev.DKPValue
		}
		if !raid.RaidDate.Before(longCutoff) {
			p.earned60 += ev.DKPValue
		}
		p.touch(raid.RaidDate)
	}

	for _, l := range snap.Loot {
		c, ok := res.Resolve(lootRef(l))
		if !ok {
			continue
		}
		p := get(c, nameDerived(c, l.CharacterName))
		p.spent += l.Cost
		if raid, ok := raids[l.RaidID]; ok {
			p.touch(raid.RaidDate)
		}
	}

	grouped := make(map[string][2]*partial)
	for k, p := range partials {
		pair := grouped[k.key]
		if k.fromName {
			pair[1] = p
		} else {
			pair[0] = p
		}
		grouped[k.key] = pair
	}

	adjustments := adjustmentIndex(snap.Adjustments)
	summaries := make([]models.DKPSummary, 0, len(grouped))
	for key, pair := range grouped {
		s := mergeGroup(key, pair[0], pair[1], res.IsShadow)
		applyAdjustment(&s, adjustments)
		summaries = append(summaries, s)
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].CharacterKey < summaries[j].CharacterKey
	})
	return summaries
}

// computeAccountSummaries rolls up per-account totals straight from
// ledger rows through character_account. It never reads merged summary
// rows: those can already disagree about which key owns a raid's
// credit, and summing them would re-introduce the double count at the
// account layer. Unlinked identities are omitted.
func computeAccountSummaries(snap *Snapshot, res *identity.Resolver, now time.Time, shortDays, longDays int) []models.AccountSummary {
	raids := snap.raidDates()
	events := snap.eventValues()
	shortCutoff := now.AddDate(0, 0, -shortDays)
	longCutoff := now.AddDate(0, 0, -longDays)

	type accPartial struct {
		name string
		partial
	}
	accounts := make(map[string]*accPartial)
	get := func(c identity.Canonical) *accPartial {
		p, ok := accounts[c.AccountID]
		if !ok {
			p = &accPartial{name: c.AccountName}
			accounts[c.AccountID] = p
		}
		return p
	}

	for _, a := range snap.Attendance {
		c, ok := res.Resolve(attendanceRef(a))
		if !ok || c.AccountID == "" {
			continue
		}
		ev, ok := events[a.EventID]
		if !ok {
			continue
		}
		raid, ok := raids[a.RaidID]
		if !ok {
			continue
		}

		p := get(c)
		p.earned += ev.DKPValue
		if !raid.RaidDate.Before(shortCutoff) {
			p.earned30 += ev.DKPValue
		}
		if !raid.RaidDate.Before(longCutoff) {
			p.earned60 += ev.DKPValue
		}
		p.touch(raid.RaidDate)
	}

	for _, l := range snap.Loot {
		c, ok := res.Resolve(lootRef(l))
		if !ok || c.AccountID == "" {
			continue
		}
		p := get(c)
		p.spent += l.Cost
		if raid, ok := raids[l.RaidID]; ok {
			p.touch(raid.RaidDate)
		}
	}

	adjustments := make(map[string]models.DKPAdjustment, len(snap.Adjustments))
	for _, adj := range snap.Adjustments {
		adjustments[adj.AdjustKey] = adj
	}

	rows := make([]models.AccountSummary, 0, len(accounts))
	for id, p := range accounts {
		row := models.AccountSummary{
			AccountID:    id,
			AccountName:  p.name,
			Earned:       p.earned,
			Spent:        p.spent,
			Earned30:     p.earned30,
			Earned60:     p.earned60,
			LastRaidDate: p.last,
		}
		if adj, ok := adjustments[id]; ok {
			row.Earned += adj.EarnedDelta
			row.Spent += adj.SpentDelta
		}
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool {
		return rows[i].AccountID < rows[j].AccountID
	})
	return rows
}

// computeRaidTotals derives both per-raid aggregate tables for every
// raid in the snapshot.
func computeRaidTotals(snap *Snapshot, res *identity.Resolver) ([]models.RaidDKPTotal, []models.RaidAttendanceDKP) {
	var totals []models.RaidDKPTotal
	var attendance []models.RaidAttendanceDKP

	for _, raid := range snap.Raids {
		total, att := computeRaidTotalsFor(snap, res, raid.RaidID)
		if total != nil {
			totals = append(totals, *total)
		}
		attendance = append(attendance, att...)
	}
	return totals, attendance
}

// computeRaidTotalsFor derives one raid's total and per-identity earned
// rows. Returns a nil total when the raid does not exist in the ledger
// (the scoped recomputer uses that to clear rows for a deleted raid).
func computeRaidTotalsFor(snap *Snapshot, res *identity.Resolver, raidID int64) (*models.RaidDKPTotal, []models.RaidAttendanceDKP) {
	raids := snap.raidDates()
	if _, ok := raids[raidID]; !ok {
		return nil, nil
	}
	events := snap.eventValues()

	total := &models.RaidDKPTotal{RaidID: raidID}
	for _, ev := range snap.Events {
		if ev.RaidID != raidID {
			continue
		}
		total.TotalDKP += ev.DKPValue
		total.EventCount++
	}

	type attPartial struct {
		name   string
		earned float64
	}
	perKey := make(map[string]*attPartial)
	for _, a := range snap.Attendance {
		if a.RaidID != raidID {
			continue
		}
		c, ok := res.Resolve(attendanceRef(a))
		if !ok {
			continue
		}
		ev, ok := events[a.EventID]
		if !ok {
			continue
		}
		p, ok := perKey[c.Key]
		if !ok {
			p = &attPartial{name: c.Name}
			perKey[c.Key] = p
		}
		p.earned += ev.DKPValue
	}

	keys := make([]string, 0, len(perKey))
	for k := range perKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := make([]models.RaidAttendanceDKP, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, models.RaidAttendanceDKP{
			RaidID:        raidID,
			CharacterKey:  k,
			CharacterName: perKey[k].name,
			Earned:        perKey[k].earned,
		})
	}
	return total, rows
}

// computePeriodTotals derives the pool-wide rolling-window rows.
func computePeriodTotals(snap *Snapshot, now time.Time, shortDays, longDays int) []models.DKPPeriodTotal {
	raids := snap.raidDates()
	events := snap.eventValues()

	rows := []models.DKPPeriodTotal{
		{Period: models.PeriodShort, ComputedAt: now},
		{Period: models.PeriodLong, ComputedAt: now},
	}
	cutoffs := []time.Time{
		now.AddDate(0, 0, -shortDays),
		now.AddDate(0, 0, -longDays),
	}

	for _, a := range snap.Attendance {
		ev, ok := events[a.EventID]
		if !ok {
			continue
		}
		raid, ok := raids[a.RaidID]
		if !ok {
			continue
		}
		for i := range rows {
			if !raid.RaidDate.Before(cutoffs[i]) {
				rows[i].Earned += ev.DKPValue
			}
		}
	}

	for _, l := range snap.Loot {
		raid, ok := raids[l.RaidID]
		if !ok {
			continue
		}
		for i := range rows {
			if !raid.RaidDate.Before(cutoffs[i]) {
				rows[i].Spent += l.Cost
			}
		}
	}

	return rows
}

// nameDerived reports whether a resolved contribution's key came from
// the raw name text itself. A name that backfilled to a char id is
// grouped with the id-sourced partial: the merge layer's shadow rule
// must only ever drop rows whose name literally is the id, never
// legitimately backfilled credit.
func nameDerived(c identity.Canonical, rawName string) bool {
	return c.FromName && c.Key == identity.Normalize(rawName)
}

func attendanceRef(a models.RaidEventAttendance) identity.IdentityRef {
	if a.CharID != nil {
		return identity.ByID(*a.CharID).WithName(a.CharacterName)
	}
	return identity.ByName(a.CharacterName)
}

func lootRef(l models.RaidLoot) identity.IdentityRef {
	if l.CharID != nil {
		return identity.ByID(*l.CharID).WithName(l.CharacterName)
	}
	return identity.ByName(l.CharacterName)
}

func adjustmentIndex(adjustments []models.DKPAdjustment) map[string]models.DKPAdjustment {
	index := make(map[string]models.DKPAdjustment, len(adjustments))
	for _, adj := range adjustments {
		index[identity.Normalize(adj.AdjustKey)] = adj
	}
	return index
}

// applyAdjustment matches an operator correction by normalized display
// name and applies its deltas on top of computed totals. Matching is by
// name, not key: adjustment keys are display names or account ids, and
// a numeric character key could collide with an unrelated account id.
func applyAdjustment(s *models.DKPSummary, index map[string]models.DKPAdjustment) {
	if s.CharacterName == "" {
		return
	}
	adj, ok := index[identity.Normalize(s.CharacterName)]
	if !ok {
		return
	}
	s.Earned += adj.EarnedDelta
	s.Spent += adj.SpentDelta
}

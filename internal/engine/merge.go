package engine

import (
	"time"

	"github.com/Ammordius/NAGD-DKP-sub002/internal/identity"
	"github.com/Ammordius/NAGD-DKP-sub002/internal/models"
)

// partial is the accumulated contribution of one raw key (id-sourced or
// name-sourced) before canonical-key groups are merged.
type partial struct {
	name     string
	earned   float64
	spent    int64
	earned30 float64
	earned60 float64
	last     *time.Time
}

func (p *partial) touch(d time.Time) {
	if p.last == nil || p.last.Before(d) {
		t := d
		p.last = &t
	}
}

// mergeGroup combines the id-sourced and name-sourced partials that
// landed on one canonical key. The rule is asymmetric per field: when
// the name row is a shadow of the id row, its earned/spent duplicate
// the same underlying events and are dropped, but window fields and the
// last-activity date still merge because distinct raids can genuinely
// be recorded under either key. Summing everything or dropping the
// whole shadow row both produce wrong totals.
func mergeGroup(key string, byID, byName *partial, shadow identity.ShadowFunc) models.DKPSummary {
	if byID == nil && byName == nil {
		return models.DKPSummary{CharacterKey: key}
	}
	if byID == nil {
		return summaryFrom(key, byName)
	}
	if byName == nil {
		return summaryFrom(key, byID)
	}

	s := models.DKPSummary{CharacterKey: key}
	s.CharacterName = byID.name
	if s.CharacterName == "" {
		s.CharacterName = byName.name
	}

	if shadow(key) {
		s.Earned = byID.earned
		s.Spent = byID.spent
	} else {
		s.Earned = byID.earned + byName.earned
		s.Spent = byID.spent + byName.spent
	}

	s.Earned30 = byID.earned30 + byName.earned30
	s.Earned60 = byID.earned60 + byName.earned60
	s.LastRaidDate = maxDate(byID.last, byName.last)
	return s
}

func summaryFrom(key string, p *partial) models.DKPSummary {
	return models.DKPSummary{
		CharacterKey:  key,
		CharacterName: p.name,
		Earned:        p.earned,
		Spent:         p.spent,
		Earned30:      p.earned30,
		Earned60:      p.earned60,
		LastRaidDate:  p.last,
	}
}

func maxDate(a, b *time.Time) *time.Time {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	if a.Before(*b) {
		return b
	}
	return a
}

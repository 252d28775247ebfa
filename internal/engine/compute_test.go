package engine

import (
	"testing"
	"time"

	"github.com/Ammordius/NAGD-DKP-sub002/internal/models"
)

func i64(v int64) *int64 { return &v }

func day(daysAgo int) time.Time {
	return time.Date(2026, 6, 1, 20, 0, 0, 0, time.UTC).AddDate(0, 0, -daysAgo)
}

// One raid, two tics worth 10 and 5. Alice (char id 1) attends both and
// buys an item for 3; Bob has no id yet and attends only the first tic.
func twoTicSnapshot() *Snapshot {
	return &Snapshot{
		Raids: []models.Raid{
			{RaidID: 100, Name: "Plane of Fear", RaidDate: day(5)},
		},
		Events: []models.RaidEvent{
			{ID: 1, RaidID: 100, Name: "on time", DKPValue: 10},
			{ID: 2, RaidID: 100, Name: "hour 1", DKPValue: 5},
		},
		Attendance: []models.RaidEventAttendance{
			{ID: 1, RaidID: 100, EventID: 1, CharID: i64(1), CharacterName: "Alice", CharKey: "1"},
			{ID: 2, RaidID: 100, EventID: 2, CharID: i64(1), CharacterName: "Alice", CharKey: "1"},
			{ID: 3, RaidID: 100, EventID: 1, CharacterName: "Bob", CharKey: "bob"},
		},
		Loot: []models.RaidLoot{
			{ID: 1, RaidID: 100, CharID: i64(1), CharacterName: "Alice", ItemName: "Cloak of Flames", Cost: 3},
		},
		Links: []models.CharacterAccount{
			{CharID: 1, AccountID: "acct-alice", AccountName: "alicemain"},
		},
	}
}

func findSummary(t *testing.T, rows []models.DKPSummary, key string) models.DKPSummary {
	t.Helper()
	for _, s := range rows {
		if s.CharacterKey == key {
			return s
		}
	}
	t.Fatalf("no summary row for key %q in %v", key, rows)
	return models.DKPSummary{}
}

func TestComputeSummariesEarnAndSpend(t *testing.T) {
	snap := twoTicSnapshot()
	now := day(0)

	rows := computeSummaries(snap, snap.Resolver(), now, 30, 60)
	if len(rows) != 2 {
		t.Fatalf("expected 2 summary rows, got %d", len(rows))
	}

	alice := findSummary(t, rows, "1")
	if alice.CharacterName != "Alice" {
		t.Errorf("alice name = %q, want the display name carried from id-keyed rows", alice.CharacterName)
	}
	if alice.Earned != 15 {
		t.Errorf("alice earned = %v, want 15", alice.Earned)
	}
	if alice.Spent != 3 {
		t.Errorf("alice spent = %v, want 3", alice.Spent)
	}
	if alice.Balance() != 12 {
		t.Errorf("alice balance = %v, want 12", alice.Balance())
	}
	if alice.Earned30 != 15 || alice.Earned60 != 15 {
		t.Errorf("alice windows = %v/%v, want 15/15", alice.Earned30, alice.Earned60)
	}
	if alice.LastRaidDate == nil || !alice.LastRaidDate.Equal(day(5)) {
		t.Errorf("alice last raid = %v, want %v", alice.LastRaidDate, day(5))
	}

	bob := findSummary(t, rows, "bob")
	if bob.Earned != 10 {
		t.Errorf("bob earned = %v, want 10", bob.Earned)
	}
	if bob.Spent != 0 {
		t.Errorf("bob spent = %v, want 0", bob.Spent)
	}
	if bob.CharacterName != "Bob" {
		t.Errorf("bob name = %q, want Bob", bob.CharacterName)
	}
}

func TestComputeSummariesDeterministic(t *testing.T) {
	snap := twoTicSnapshot()
	now := day(0)

	first := computeSummaries(snap, snap.Resolver(), now, 30, 60)
	second := computeSummaries(snap, snap.Resolver(), now, 30, 60)

	if len(first) != len(second) {
		t.Fatalf("row counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].CharacterKey != second[i].CharacterKey ||
			first[i].Earned != second[i].Earned ||
			first[i].Spent != second[i].Spent {
			t.Errorf("row %d differs between runs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestComputeSummariesNameBackfill(t *testing.T) {
	snap := twoTicSnapshot()
	// A later tic recorded by name only; the name index built from the
	// id-bearing rows must fold it onto Alice's key.
	snap.Attendance = append(snap.Attendance, models.RaidEventAttendance{
		ID: 4, RaidID: 100, EventID: 2, CharacterName: "alice", CharKey: "alice",
	})

	rows := computeSummaries(snap, snap.Resolver(), day(0), 30, 60)

	alice := findSummary(t, rows, "1")
	if alice.Earned != 20 {
		t.Errorf("alice earned = %v, want 20 (15 by id + 5 backfilled by name)", alice.Earned)
	}
	for _, s := range rows {
		if s.CharacterKey == "alice" {
			t.Errorf("name-sourced row kept its own key instead of folding onto the char id")
		}
	}
}

// A digit-only name collides with a real char key. Its earned/spent
// duplicate the id row's events and are dropped, but windows sum and
// the last-activity date advances.
func TestComputeSummariesShadowRow(t *testing.T) {
	snap := twoTicSnapshot()
	snap.Raids = append(snap.Raids, models.Raid{RaidID: 101, Name: "Hate", RaidDate: day(2)})
	snap.Events = append(snap.Events, models.RaidEvent{ID: 3, RaidID: 101, Name: "on time", DKPValue: 7})
	snap.Attendance = append(snap.Attendance, models.RaidEventAttendance{
		ID: 5, RaidID: 101, EventID: 3, CharacterName: "1", CharKey: "1",
	})

	rows := computeSummaries(snap, snap.Resolver(), day(0), 30, 60)

	alice := findSummary(t, rows, "1")
	if alice.Earned != 15 {
		t.Errorf("alice earned = %v, want 15 (shadow row's 7 dropped)", alice.Earned)
	}
	if alice.Earned30 != 22 {
		t.Errorf("alice earned30 = %v, want 22 (windows always sum)", alice.Earned30)
	}
	if alice.LastRaidDate == nil || !alice.LastRaidDate.Equal(day(2)) {
		t.Errorf("alice last raid = %v, want %v (date advances from shadow row)", alice.LastRaidDate, day(2))
	}
}

func TestComputeSummariesAdjustment(t *testing.T) {
	snap := twoTicSnapshot()
	snap.Adjustments = []models.DKPAdjustment{
		{AdjustKey: "Alice", EarnedDelta: -2, SpentDelta: 1, Note: "double-credited on import"},
	}

	rows := computeSummaries(snap, snap.Resolver(), day(0), 30, 60)

	alice := findSummary(t, rows, "1")
	if alice.Earned != 13 {
		t.Errorf("alice earned = %v, want 13 after -2 adjustment", alice.Earned)
	}
	if alice.Spent != 4 {
		t.Errorf("alice spent = %v, want 4 after +1 adjustment", alice.Spent)
	}
}

func TestComputeAccountSummaries(t *testing.T) {
	snap := twoTicSnapshot()
	// Second linked character on the same account.
	snap.Links = append(snap.Links, models.CharacterAccount{
		CharID: 2, AccountID: "acct-alice", AccountName: "alicemain",
	})
	snap.Attendance = append(snap.Attendance, models.RaidEventAttendance{
		ID: 6, RaidID: 100, EventID: 1, CharID: i64(2), CharacterName: "Alicealt", CharKey: "2",
	})

	rows := computeAccountSummaries(snap, snap.Resolver(), day(0), 30, 60)
	if len(rows) != 1 {
		t.Fatalf("expected 1 account row (bob is unlinked), got %d", len(rows))
	}

	acct := rows[0]
	if acct.AccountID != "acct-alice" {
		t.Fatalf("account id = %q", acct.AccountID)
	}
	if acct.Earned != 25 {
		t.Errorf("account earned = %v, want 25 (15 main + 10 alt)", acct.Earned)
	}
	if acct.Spent != 3 {
		t.Errorf("account spent = %v, want 3", acct.Spent)
	}
}

func TestComputeRaidTotals(t *testing.T) {
	snap := twoTicSnapshot()

	totals, attendance := computeRaidTotals(snap, snap.Resolver())
	if len(totals) != 1 {
		t.Fatalf("expected 1 raid total, got %d", len(totals))
	}
	if totals[0].TotalDKP != 15 || totals[0].EventCount != 2 {
		t.Errorf("raid total = %v/%d, want 15/2", totals[0].TotalDKP, totals[0].EventCount)
	}

	if len(attendance) != 2 {
		t.Fatalf("expected 2 attendance rows, got %d", len(attendance))
	}
	// Sorted by key within the raid.
	if attendance[0].CharacterKey != "1" || attendance[0].Earned != 15 {
		t.Errorf("row 0 = %+v, want key 1 earned 15", attendance[0])
	}
	if attendance[1].CharacterKey != "bob" || attendance[1].Earned != 10 {
		t.Errorf("row 1 = %+v, want key bob earned 10", attendance[1])
	}
}

func TestComputeRaidTotalsForMissingRaid(t *testing.T) {
	snap := twoTicSnapshot()

	total, attendance := computeRaidTotalsFor(snap, snap.Resolver(), 999)
	if total != nil {
		t.Errorf("expected nil total for unknown raid, got %+v", total)
	}
	if len(attendance) != 0 {
		t.Errorf("expected no attendance rows for unknown raid, got %d", len(attendance))
	}
}

func TestComputePeriodTotals(t *testing.T) {
	snap := twoTicSnapshot()
	// An old raid inside the long window but outside the short one.
	snap.Raids = append(snap.Raids, models.Raid{RaidID: 102, Name: "Sky", RaidDate: day(45)})
	snap.Events = append(snap.Events, models.RaidEvent{ID: 4, RaidID: 102, Name: "on time", DKPValue: 4})
	snap.Attendance = append(snap.Attendance, models.RaidEventAttendance{
		ID: 7, RaidID: 102, EventID: 4, CharID: i64(1), CharacterName: "Alice", CharKey: "1",
	})
	snap.Loot = append(snap.Loot, models.RaidLoot{
		ID: 2, RaidID: 102, CharID: i64(1), CharacterName: "Alice", ItemName: "Puppet Strings", Cost: 6,
	})

	rows := computePeriodTotals(snap, day(0), 30, 60)
	if len(rows) != 2 {
		t.Fatalf("expected 2 period rows, got %d", len(rows))
	}

	var short, long models.DKPPeriodTotal
	for _, r := range rows {
		switch r.Period {
		case models.PeriodShort:
			short = r
		case models.PeriodLong:
			long = r
		}
	}

	// Short window: only raid 100 (25 earned across 3 attendance rows, 3 spent).
	if short.Earned != 25 || short.Spent != 3 {
		t.Errorf("short window = %v/%v, want 25/3", short.Earned, short.Spent)
	}
	// Long window adds raid 102.
	if long.Earned != 29 || long.Spent != 9 {
		t.Errorf("long window = %v/%v, want 29/9", long.Earned, long.Spent)
	}
}

package service

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/Ammordius/NAGD-DKP-sub002/internal/engine"
	"github.com/Ammordius/NAGD-DKP-sub002/internal/identity"
	"github.com/Ammordius/NAGD-DKP-sub002/internal/models"
	"github.com/Ammordius/NAGD-DKP-sub002/internal/repository"
	"github.com/Ammordius/NAGD-DKP-sub002/pkg/errors"
	"github.com/Ammordius/NAGD-DKP-sub002/pkg/logger"

	"gorm.io/gorm"
)

// AttendanceEntry is one attendee on one tic, addressed by id or name.
type AttendanceEntry struct {
	EventID  int64
	Identity identity.IdentityRef
}

// LootEntry is one item charged to an identity on a raid.
type LootEntry struct {
	Identity identity.IdentityRef
	ItemName string
	Cost     int64
}

// LedgerService is the write surface for the ledger. Every mutation
// drives the matching engine hook: appends take the delta fast path,
// corrections force a full rebuild, and both end with a scoped
// recompute of the touched raid.
type LedgerService struct {
	engine     *engine.Engine
	raids      *repository.RaidRepository
	events     *repository.EventRepository
	attendance *repository.AttendanceRepository
	loot       *repository.LootRepository
	links      *repository.LinkRepository
}

func NewLedgerService(db *gorm.DB, eng *engine.Engine) *LedgerService {
	return &LedgerService{
		engine:     eng,
		raids:      repository.NewRaidRepository(db),
		events:     repository.NewEventRepository(db),
		attendance: repository.NewAttendanceRepository(db),
		loot:       repository.NewLootRepository(db),
		links:      repository.NewLinkRepository(db),
	}
}

func (s *LedgerService) CreateRaid(ctx context.Context, raid *models.Raid) error {
	if err := s.raids.Upsert(ctx, raid); err != nil {
		return errors.New(errors.ErrLedgerWrite, "failed to create raid", err)
	}
	return nil
}

func (s *LedgerService) AddEvent(ctx context.Context, event *models.RaidEvent) error {
	raid, err := s.raids.GetByID(ctx, event.RaidID)
	if err != nil {
		return errors.New(errors.ErrLedgerWrite, "failed to load raid", err)
	}
	if raid == nil {
		return errors.New(errors.ErrNotFound, fmt.Sprintf("raid %d not found", event.RaidID), nil)
	}

	if err := s.events.Create(ctx, event); err != nil {
		return errors.New(errors.ErrLedgerWrite, "failed to create event", err)
	}
	return s.engine.RecomputeScoped(ctx, event.RaidID)
}

// AppendAttendance records a batch of earned events for one raid. The
// whole batch shares one transaction; a duplicate (raid, tic, identity)
// rejects all of it with ErrDuplicateAttendance, and retrying the same
// payload will keep failing — the rows are already recorded.
func (s *LedgerService) AppendAttendance(ctx context.Context, raidID int64, entries []AttendanceEntry) error {
	if len(entries) == 0 {
		return nil
	}

	raid, err := s.raids.GetByID(ctx, raidID)
	if err != nil {
		return errors.New(errors.ErrLedgerWrite, "failed to load raid", err)
	}
	if raid == nil {
		return errors.New(errors.ErrNotFound, fmt.Sprintf("raid %d not found", raidID), nil)
	}

	res, err := s.resolver(ctx)
	if err != nil {
		return err
	}

	rows := make([]models.RaidEventAttendance, 0, len(entries))
	for _, entry := range entries {
		event, err := s.events.GetByID(ctx, entry.EventID)
		if err != nil {
			return errors.New(errors.ErrLedgerWrite, "failed to load event", err)
		}
		if event == nil || event.RaidID != raidID {
			return errors.New(errors.ErrNotFound, fmt.Sprintf("event %d not found on raid %d", entry.EventID, raidID), nil)
		}

		c, ok := res.Resolve(entry.Identity)
		if !ok {
			return errors.New(errors.ErrLedgerWrite, "blank identity", nil)
		}

		row := models.RaidEventAttendance{
			RaidID:        raidID,
			EventID:       entry.EventID,
			CharacterName: entry.Identity.Name(),
			CharKey:       c.Key,
		}
		if id, byID := entry.Identity.ID(); byID {
			row.CharID = &id
		} else if identity.Normalize(entry.Identity.Name()) != c.Key {
			// Name resolved to a known char id through the backfill
			// index; persist the id so future reads agree.
			if cid, ok := parseCharID(c.Key); ok {
				row.CharID = &cid
			}
		}
		rows = append(rows, row)
	}

	if err := s.attendance.CreateBatch(ctx, rows); err != nil {
		if stderrors.Is(err, gorm.ErrDuplicatedKey) {
			return errors.New(errors.ErrDuplicateAttendance, "already recorded", err)
		}
		return errors.New(errors.ErrLedgerWrite, "failed to insert attendance", err)
	}

	if err := s.engine.ApplyAttendanceDelta(ctx, rows); err != nil {
		return err
	}
	return s.engine.RecomputeScoped(ctx, raidID)
}

// AppendLoot records redemptions for one raid.
func (s *LedgerService) AppendLoot(ctx context.Context, raidID int64, entries []LootEntry) error {
	if len(entries) == 0 {
		return nil
	}

	raid, err := s.raids.GetByID(ctx, raidID)
	if err != nil {
		return errors.New(errors.ErrLedgerWrite, "failed to load raid", err)
	}
	if raid == nil {
		return errors.New(errors.ErrNotFound, fmt.Sprintf("raid %d not found", raidID), nil)
	}

	res, err := s.resolver(ctx)
	if err != nil {
		return err
	}

	rows := make([]models.RaidLoot, 0, len(entries))
	for _, entry := range entries {
		if entry.Cost < 0 {
			return errors.New(errors.ErrLedgerWrite, "loot cost must not be negative", nil)
		}
		if _, ok := res.Resolve(entry.Identity); !ok {
			return errors.New(errors.ErrLedgerWrite, "blank identity", nil)
		}

		row := models.RaidLoot{
			RaidID:        raidID,
			CharacterName: entry.Identity.Name(),
			ItemName:      entry.ItemName,
			Cost:          entry.Cost,
		}
		if id, byID := entry.Identity.ID(); byID {
			row.CharID = &id
		}
		rows = append(rows, row)
	}

	if err := s.loot.CreateBatch(ctx, rows); err != nil {
		return errors.New(errors.ErrLedgerWrite, "failed to insert loot", err)
	}

	if err := s.engine.ApplyLootDelta(ctx, rows); err != nil {
		return err
	}
	return s.engine.RecomputeScoped(ctx, raidID)
}

// UpdateEventValue corrects a tic's point value. The engine cannot
// derive a signed delta without knowing every prior contribution, so a
// value change always costs a full summary rebuild.
func (s *LedgerService) UpdateEventValue(ctx context.Context, eventID int64, dkpValue float64) error {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return errors.New(errors.ErrLedgerWrite, "failed to load event", err)
	}
	if event == nil {
		return errors.New(errors.ErrNotFound, fmt.Sprintf("event %d not found", eventID), nil)
	}

	if err := s.events.UpdateValue(ctx, eventID, dkpValue); err != nil {
		return errors.New(errors.ErrLedgerWrite, "failed to update event", err)
	}
	return s.rebuildAfterCorrection(ctx, event.RaidID)
}

// RemoveAttendance deletes an earned event. The owning account is
// captured before the delete and handed to the scoped recompute as an
// extra target, since the row will no longer exist to derive it from.
func (s *LedgerService) RemoveAttendance(ctx context.Context, id int64) error {
	row, err := s.attendance.GetByID(ctx, id)
	if err != nil {
		return errors.New(errors.ErrLedgerWrite, "failed to load attendance", err)
	}
	if row == nil {
		return errors.New(errors.ErrNotFound, fmt.Sprintf("attendance %d not found", id), nil)
	}

	var priorAccount string
	if res, err := s.resolver(ctx); err == nil {
		if c, ok := res.Resolve(rowRef(row)); ok {
			priorAccount = c.AccountID
		}
	}

	if err := s.attendance.Delete(ctx, id); err != nil {
		return errors.New(errors.ErrLedgerWrite, "failed to delete attendance", err)
	}
	return s.rebuildAfterCorrection(ctx, row.RaidID, priorAccount)
}

func (s *LedgerService) RemoveLoot(ctx context.Context, id int64) error {
	row, err := s.loot.GetByID(ctx, id)
	if err != nil {
		return errors.New(errors.ErrLedgerWrite, "failed to load loot", err)
	}
	if row == nil {
		return errors.New(errors.ErrNotFound, fmt.Sprintf("loot %d not found", id), nil)
	}

	var priorAccount string
	if res, err := s.resolver(ctx); err == nil {
		ref := identity.ByName(row.CharacterName)
		if row.CharID != nil {
			ref = identity.ByID(*row.CharID).WithName(row.CharacterName)
		}
		if c, ok := res.Resolve(ref); ok {
			priorAccount = c.AccountID
		}
	}

	if err := s.loot.Delete(ctx, id); err != nil {
		return errors.New(errors.ErrLedgerWrite, "failed to delete loot", err)
	}
	return s.rebuildAfterCorrection(ctx, row.RaidID, priorAccount)
}

// LinkCharacter attaches a character to an account. Totals shift
// between accounts, so account summaries need a rebuild.
func (s *LedgerService) LinkCharacter(ctx context.Context, link *models.CharacterAccount) error {
	if err := s.links.Upsert(ctx, link); err != nil {
		return errors.New(errors.ErrLedgerWrite, "failed to link character", err)
	}
	return s.engine.RebuildAccountSummaries(ctx)
}

func (s *LedgerService) rebuildAfterCorrection(ctx context.Context, raidID int64, extraAccounts ...string) error {
	if err := s.engine.RebuildSummaries(ctx); err != nil {
		return err
	}
	if err := s.engine.RebuildPeriodTotals(ctx); err != nil {
		return err
	}
	if err := s.engine.RecomputeScoped(ctx, raidID, extraAccounts...); err != nil {
		return err
	}
	logger.WithFields(map[string]interface{}{
		"raid_id": raidID,
	}).Info("correction applied")
	return nil
}

func (s *LedgerService) resolver(ctx context.Context) (*identity.Resolver, error) {
	links, err := s.links.All(ctx)
	if err != nil {
		return nil, errors.New(errors.ErrLedgerWrite, "failed to load links", err)
	}
	names, err := s.attendance.NameIndex(ctx)
	if err != nil {
		return nil, errors.New(errors.ErrLedgerWrite, "failed to build name index", err)
	}
	return identity.NewResolver(links, identity.WithNameIndex(names)), nil
}

func rowRef(row *models.RaidEventAttendance) identity.IdentityRef {
	if row.CharID != nil {
		return identity.ByID(*row.CharID).WithName(row.CharacterName)
	}
	return identity.ByName(row.CharacterName)
}

func parseCharID(key string) (int64, bool) {
	var id int64
	if _, err := fmt.Sscanf(key, "%d", &id); err != nil {
		return 0, false
	}
	return id, true
}

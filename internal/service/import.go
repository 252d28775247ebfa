package service

import (
	"context"
	"strconv"

	"github.com/Ammordius/NAGD-DKP-sub002/internal/engine"
	"github.com/Ammordius/NAGD-DKP-sub002/internal/identity"
	"github.com/Ammordius/NAGD-DKP-sub002/internal/models"
	"github.com/Ammordius/NAGD-DKP-sub002/internal/repository"
	"github.com/Ammordius/NAGD-DKP-sub002/pkg/errors"

	"gorm.io/gorm"
)

// ImportService is the bulk-load insert surface: raw batch inserts with
// explicit primary keys, valid only between BeginBulkLoad and
// EndBulkLoad. No aggregate work happens here; the consolidation pass
// rebuilds everything once at the end.
type ImportService struct {
	engine      *engine.Engine
	raids       *repository.RaidRepository
	events      *repository.EventRepository
	attendance  *repository.AttendanceRepository
	loot        *repository.LootRepository
	links       *repository.LinkRepository
	adjustments *repository.AdjustmentRepository
}

func NewImportService(db *gorm.DB, eng *engine.Engine) *ImportService {
	return &ImportService{
		engine:      eng,
		raids:       repository.NewRaidRepository(db),
		events:      repository.NewEventRepository(db),
		attendance:  repository.NewAttendanceRepository(db),
		loot:        repository.NewLootRepository(db),
		links:       repository.NewLinkRepository(db),
		adjustments: repository.NewAdjustmentRepository(db),
	}
}

func (s *ImportService) requireSuspended() error {
	if state := s.engine.State(); state != engine.StateSuspended {
		return errors.New(errors.ErrImport, "bulk insert requires an active bulk load (state "+state.String()+")", nil)
	}
	return nil
}

func (s *ImportService) InsertRaids(ctx context.Context, raids []models.Raid) error {
	if err := s.requireSuspended(); err != nil {
		return err
	}
	if err := s.raids.CreateBatch(ctx, raids); err != nil {
		return errors.New(errors.ErrImport, "failed to insert raids", err)
	}
	return nil
}

func (s *ImportService) InsertEvents(ctx context.Context, events []models.RaidEvent) error {
	if err := s.requireSuspended(); err != nil {
		return err
	}
	if err := s.events.CreateBatch(ctx, events); err != nil {
		return errors.New(errors.ErrImport, "failed to insert events", err)
	}
	return nil
}

// InsertAttendance backfills CharKey on rows that arrive without one,
// the same way the online path would have resolved them.
func (s *ImportService) InsertAttendance(ctx context.Context, rows []models.RaidEventAttendance) error {
	if err := s.requireSuspended(); err != nil {
		return err
	}
	for i := range rows {
		if rows[i].CharKey != "" {
			continue
		}
		if rows[i].CharID != nil {
			rows[i].CharKey = strconv.FormatInt(*rows[i].CharID, 10)
		} else {
			rows[i].CharKey = identity.Normalize(rows[i].CharacterName)
		}
	}
	if err := s.attendance.CreateBatch(ctx, rows); err != nil {
		return errors.New(errors.ErrImport, "failed to insert attendance", err)
	}
	return nil
}

func (s *ImportService) InsertLoot(ctx context.Context, rows []models.RaidLoot) error {
	if err := s.requireSuspended(); err != nil {
		return err
	}
	if err := s.loot.CreateBatch(ctx, rows); err != nil {
		return errors.New(errors.ErrImport, "failed to insert loot", err)
	}
	return nil
}

func (s *ImportService) InsertLinks(ctx context.Context, links []models.CharacterAccount) error {
	if err := s.requireSuspended(); err != nil {
		return err
	}
	if err := s.links.CreateBatch(ctx, links); err != nil {
		return errors.New(errors.ErrImport, "failed to insert links", err)
	}
	return nil
}

func (s *ImportService) InsertAdjustments(ctx context.Context, adjustments []models.DKPAdjustment) error {
	if err := s.requireSuspended(); err != nil {
		return err
	}
	for i := range adjustments {
		if err := s.adjustments.Upsert(ctx, &adjustments[i]); err != nil {
			return errors.New(errors.ErrImport, "failed to insert adjustment "+adjustments[i].AdjustKey, err)
		}
	}
	return nil
}

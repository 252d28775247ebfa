package engine

import (
	"context"
	"sync"
	"time"

	"github.com/Ammordius/NAGD-DKP-sub002/internal/config"
	"github.com/Ammordius/NAGD-DKP-sub002/internal/repository"

	"gorm.io/gorm"
)

// Engine owns every aggregate table. Callers append to or correct the
// ledger through the service layer, which drives these hooks; nothing
// else writes dkp_summary, dkp_by_account, raid_dkp_totals,
// raid_attendance_dkp or dkp_period_totals.
type Engine struct {
	db  *gorm.DB
	cfg config.EngineConfig

	raids       *repository.RaidRepository
	events      *repository.EventRepository
	attendance  *repository.AttendanceRepository
	loot        *repository.LootRepository
	links       *repository.LinkRepository
	adjustments *repository.AdjustmentRepository
	summaries   *repository.SummaryRepository
	accounts    *repository.AccountRepository
	raidTotals  *repository.RaidTotalsRepository
	periods     *repository.PeriodRepository

	coordinator *Coordinator

	// Serializes full rebuilds and scoped recomputes. Rebuilds are
	// replace-whole-table operations and must not interleave; scoped
	// recomputes could run concurrently for disjoint account sets but
	// funneling them through one lock is the simple safe choice.
	rebuildMu sync.Mutex

	now func() time.Time
}

func New(ctx context.Context, db *gorm.DB, cfg config.EngineConfig) (*Engine, error) {
	coordinator, err := NewCoordinator(ctx, repository.NewStateRepository(db))
	if err != nil {
		return nil, err
	}

	return &Engine{
		db:          db,
		cfg:         cfg,
		raids:       repository.NewRaidRepository(db),
		events:      repository.NewEventRepository(db),
		attendance:  repository.NewAttendanceRepository(db),
		loot:        repository.NewLootRepository(db),
		links:       repository.NewLinkRepository(db),
		adjustments: repository.NewAdjustmentRepository(db),
		summaries:   repository.NewSummaryRepository(db),
		accounts:    repository.NewAccountRepository(db),
		raidTotals:  repository.NewRaidTotalsRepository(db),
		periods:     repository.NewPeriodRepository(db),
		coordinator: coordinator,
		now:         time.Now,
	}, nil
}

func (e *Engine) State() State {
	return e.coordinator.State()
}

func (e *Engine) StateSince() time.Time {
	return e.coordinator.Since()
}

// SetClock pins the engine's notion of now; tests use it to make window
// cutoffs deterministic.
func (e *Engine) SetClock(now func() time.Time) {
	if now != nil {
		e.now = now
	}
}

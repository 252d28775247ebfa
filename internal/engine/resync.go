package engine

import (
	"context"
	"fmt"

	"github.com/Ammordius/NAGD-DKP-sub002/pkg/errors"
	"github.com/Ammordius/NAGD-DKP-sub002/pkg/logger"
)

// Tables whose primary keys the database generates. Bulk-loaded rows
// carry explicit ids, which leaves the generator behind the data; the
// next normal insert would collide without a resync.
var resyncTables = []string{
	"raid_events",
	"raid_loot",
	"raid_event_attendance",
}

// ResyncIdentifiers advances each table's id generator past the highest
// id present. Idempotent; part of the consolidation pass but also
// callable on its own after a partial consolidation.
func (e *Engine) ResyncIdentifiers(ctx context.Context) error {
	for _, table := range resyncTables {
		var row struct{ MaxID *int64 }
		err := e.db.WithContext(ctx).
			Raw("SELECT MAX(id) AS max_id FROM " + table).
			Scan(&row).Error
		if err != nil {
			return errors.New(errors.ErrBulkLoadState, "failed to read max id for "+table, err)
		}
		if row.MaxID == nil {
			continue
		}
		next := *row.MaxID + 1

		switch e.db.Dialector.Name() {
		case "mysql":
			// DDL values cannot be bound as parameters; next is an
			// int64, never user input.
			err = e.db.WithContext(ctx).
				Exec(fmt.Sprintf("ALTER TABLE %s AUTO_INCREMENT = %d", table, next)).Error
		case "sqlite":
			res := e.db.WithContext(ctx).
				Exec("UPDATE sqlite_sequence SET seq = ? WHERE name = ?", *row.MaxID, table)
			err = res.Error
			if err == nil && res.RowsAffected == 0 {
				err = e.db.WithContext(ctx).
					Exec("INSERT INTO sqlite_sequence (name, seq) VALUES (?, ?)", table, *row.MaxID).Error
			}
		default:
			return errors.New(errors.ErrBulkLoadState, "unsupported dialect "+e.db.Dialector.Name(), nil)
		}
		if err != nil {
			return errors.New(errors.ErrBulkLoadState, "failed to resync ids for "+table, err)
		}

		logger.WithFields(map[string]interface{}{
			"table":   table,
			"next_id": next,
		}).Info("identifier generator resynced")
	}
	return nil
}

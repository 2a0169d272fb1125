package sync

import (
	"context"

	"github.com/pfrederiksen/council-votes/internal/logger"
	"github.com/pfrederiksen/council-votes/internal/store"
)

// Clear deletes every record from the vote-tracking tables, children before
// parents so linked records never dangle. Deletion is best effort: a failing
// table is logged and the rest still run. Returns per-table deleted counts
// and the first error encountered.
func Clear(ctx context.Context, st store.RecordStore, tables Tables) (map[string]int, error) {
	order := []string{tables.Votes, tables.Motions, tables.Meetings, tables.Councillors}

	deleted := make(map[string]int, len(order))
	var firstErr error

	for _, table := range order {
		records, err := st.List(ctx, table)
		if err != nil {
			logger.Error("Failed to list records for clearing", logger.Fields{"table": table}, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		if len(records) == 0 {
			deleted[table] = 0
			continue
		}

		ids := make([]string, 0, len(records))
		for _, rec := range records {
			ids = append(ids, rec.ID)
		}

		if err := st.BatchDelete(ctx, table, ids); err != nil {
			logger.Error("Failed to clear table", logger.Fields{"table": table}, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		deleted[table] = len(ids)
		logger.Info("Cleared table", logger.Fields{"table": table, "deleted": len(ids)})
	}

	return deleted, firstErr
}

package catalog

import (
	"context"
	"database/sql"
	"fmt"

	"assessment-workers/internal/valuation"

	"github.com/redis/go-redis/v9"
)

const createUnitCostTable = `
		CREATE TABLE IF NOT EXISTS construction_unit_costs (
			schedule          TEXT           NOT NULL,
			construction_type TEXT           NOT NULL,
			usage             TEXT           NOT NULL,
			unit_cost         NUMERIC(14, 2),
			type_rank         INTEGER        NOT NULL,
			usage_rank        INTEGER        NOT NULL,
			PRIMARY KEY (schedule, construction_type, usage)
		)`

const deleteSchedule = `DELETE FROM construction_unit_costs WHERE schedule = $1`

const insertUnitCost = `
		INSERT INTO construction_unit_costs
			(schedule, construction_type, usage, unit_cost, type_rank, usage_rank)
		VALUES ($1, $2, $3, $4, $5, $6)`

// Seed replaces the rows of schedule with the entries of cat in one transaction, keeping
// catalog order in type_rank and usage_rank. The cached copy of the schedule, if any, is
// dropped afterwards so the next Load reads the new rows.
func Seed(ctx context.Context, db *sql.DB, rdb *redis.Client, schedule string, cat *valuation.CostCatalog) (int, error) {
	if db == nil {
		return 0, fmt.Errorf("seed requires a database connection")
	}
	if schedule == "" {
		return 0, fmt.Errorf("seed requires a schedule name")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin seed: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, createUnitCostTable); err != nil {
		return 0, fmt.Errorf("create unit cost table: %w", err)
	}
	if _, err := tx.ExecContext(ctx, deleteSchedule, schedule); err != nil {
		return 0, fmt.Errorf("clear schedule %s: %w", schedule, err)
	}

	n := 0
	for typeRank, ct := range cat.ConstructionTypes() {
		for usageRank, usage := range cat.AvailableUsagesFor(ct) {
			cost, _ := cat.Lookup(ct, usage)
			if _, err := tx.ExecContext(ctx, insertUnitCost,
				schedule, ct, usage, cost.StringFixed(2), typeRank, usageRank); err != nil {
				return n, fmt.Errorf("insert %s/%s: %w", ct, usage, err)
			}
			n++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit seed: %w", err)
	}

	if rdb != nil {
		if err := rdb.Del(ctx, cacheKeyPrefix+schedule).Err(); err != nil {
			return n, fmt.Errorf("invalidate catalog cache: %w", err)
		}
	}
	return n, nil
}

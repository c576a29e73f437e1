package sqlopt

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Plan is the measured cost of one query, extracted from the database's
// EXPLAIN (ANALYZE, BUFFERS, COSTS) output.
type Plan struct {
	TotalCost  float64
	ActualTime float64
}

type explainPlanNode struct {
	TotalCost       float64 `json:"Total Cost"`
	ActualTotalTime float64 `json:"Actual Total Time"`
}

type explainTopLevel struct {
	Plan explainPlanNode `json:"Plan"`
}

// explain runs a PostgreSQL EXPLAIN (ANALYZE, BUFFERS, COSTS, FORMAT JSON)
// and returns the planner's total cost and the measured actual runtime.
// The statement is not adapted to the configured dialect: every dialect
// gets this same statement over the pgx pool.
func explain(ctx context.Context, pool *pgxpool.Pool, query string) (Plan, error) {
	stmt := fmt.Sprintf("EXPLAIN (ANALYZE, BUFFERS, COSTS, FORMAT JSON) %s", query)
	rows, err := pool.Query(ctx, stmt)
	if err != nil {
		return Plan{}, fmt.Errorf("explain: %w", err)
	}
	defer rows.Close()

	var raw string
	found := false
	for rows.Next() {
		if err := rows.Scan(&raw); err != nil {
			return Plan{}, fmt.Errorf("scan explain output: %w", err)
		}
		found = true
	}
	if err := rows.Err(); err != nil {
		return Plan{}, err
	}
	if !found {
		return Plan{}, fmt.Errorf("explain returned no rows")
	}

	var top []explainTopLevel
	if err := json.Unmarshal([]byte(raw), &top); err != nil {
		return Plan{}, fmt.Errorf("parse explain json: %w", err)
	}
	if len(top) == 0 {
		return Plan{}, fmt.Errorf("explain json had no plan")
	}
	return Plan{TotalCost: top[0].Plan.TotalCost, ActualTime: top[0].Plan.ActualTotalTime}, nil
}

// Package sqlopt implements the SQL Optimization Subloop nested inside the
// Test agent: for every embedded query site it harvests a
// schema brief from the live database, asks the language-model handle for
// candidate rewrites, measures all of them with EXPLAIN, and splices the
// winner back into source while preserving indentation.
package sqlopt

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// tableRefPattern mirrors the Code agent's extraction heuristic so the
// optimizer can recover table names from a site's original text even if
// ReferencedTables was left empty by a conservative extraction pass.
var tableRefPattern = regexp.MustCompile(`(?i)\b(?:FROM|JOIN|UPDATE|INTO)\s+([A-Za-z_][A-Za-z0-9_\.]*)`)

func tablesIn(query string) []string {
	matches := tableRefPattern.FindAllStringSubmatch(query, -1)
	seen := make(map[string]bool)
	var out []string
	for _, m := range matches {
		t := strings.ToLower(m[1])
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

// harvestSchema queries information_schema and pg_indexes for each table and
// concatenates the result into a single text brief suitable for a
// language-model prompt.
func harvestSchema(ctx context.Context, pool *pgxpool.Pool, tables []string) (string, error) {
	var sb strings.Builder
	for _, table := range tables {
		fmt.Fprintf(&sb, "table %s:\n", table)

		colRows, err := pool.Query(ctx,
			`SELECT column_name, data_type FROM information_schema.columns WHERE table_name = $1 ORDER BY ordinal_position`,
			table)
		if err != nil {
			return "", fmt.Errorf("harvest columns for %s: %w", table, err)
		}
		for colRows.Next() {
			var name, dtype string
			if err := colRows.Scan(&name, &dtype); err != nil {
				colRows.Close()
				return "", fmt.Errorf("scan column for %s: %w", table, err)
			}
			fmt.Fprintf(&sb, "  - %s %s\n", name, dtype)
		}
		colRows.Close()

		idxRows, err := pool.Query(ctx,
			`SELECT indexname, indexdef FROM pg_indexes WHERE tablename = $1`, table)
		if err != nil {
			return "", fmt.Errorf("harvest indices for %s: %w", table, err)
		}
		for idxRows.Next() {
			var name, def string
			if err := idxRows.Scan(&name, &def); err != nil {
				idxRows.Close()
				return "", fmt.Errorf("scan index for %s: %w", table, err)
			}
			fmt.Fprintf(&sb, "  index %s: %s\n", name, def)
		}
		idxRows.Close()
	}
	return sb.String(), nil
}

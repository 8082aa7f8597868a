package persistence

import (
	"strings"

	"gorm.io/gorm/clause"
)

// sortColumns whitelists the columns a list query may order by. Anything
// else falls back to the default column, newest first.
type sortColumns struct {
	allowed  map[string]struct{}
	fallback string
}

func newSortColumns(fallback string, columns ...string) sortColumns {
	allowed := make(map[string]struct{}, len(columns)+1)
	allowed[fallback] = struct{}{}
	for _, c := range columns {
		allowed[c] = struct{}{}
	}
	return sortColumns{allowed: allowed, fallback: fallback}
}

// order resolves a requested column and direction into an ORDER BY term.
// The id column is appended as a tiebreaker so pages are stable.
func (s sortColumns) order(column, direction string) clause.OrderBy {
	name := strings.TrimSpace(column)
	if _, ok := s.allowed[name]; !ok {
		name = s.fallback
	}
	desc := !strings.EqualFold(strings.TrimSpace(direction), "asc")
	return clause.OrderBy{Columns: []clause.OrderByColumn{
		{Column: clause.Column{Name: name}, Desc: desc},
		{Column: clause.Column{Name: "id"}, Desc: desc},
	}}
}

var (
	inventorySort = newSortColumns("updated_at",
		"created_at", "product_id", "branch_id", "stock_current", "stock_minimum", "average_cost", "status")
	movementSort = newSortColumns("created_at",
		"movement_type", "quantity", "unit_cost", "balance_after")
	returnSort = newSortColumns("created_at",
		"updated_at", "status", "quantity", "sale_id", "customer_id", "branch_id", "approved_at")
)

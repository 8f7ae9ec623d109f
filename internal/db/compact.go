package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/wellywell/laundry/internal/types"
)

var compactSortColumns = map[string]string{
	"id":                  "s.id",
	"scheduled_pickup_at": "s.scheduled_pickup_at",
	"created_at":          "s.created_at",
	"status":              "s.status",
	"service_label":       "s.service_label",
}

// compactOrderClause picks the ORDER BY of the compact listing. A known
// sort_mode wins; otherwise a known sort_by with sort_dir; otherwise the
// default, which is agenda order under a status filter and newest first without one.
func compactOrderClause(f types.CompactFilter) string {
	byAgenda := "s.scheduled_pickup_at ASC, s.id ASC"
	switch strings.ToLower(f.SortMode) {
	case "recent":
		return "s.id DESC"
	case "oldest":
		return "s.id ASC"
	case "agenda":
		return byAgenda
	case "":
		if col, ok := compactSortColumns[f.SortBy]; ok {
			if strings.ToLower(f.SortDir) == "asc" {
				return col + " ASC, s.id ASC"
			}
			return col + " DESC, s.id DESC"
		}
	}
	if f.Status != "" {
		return byAgenda
	}
	return "s.id DESC"
}

// ListCompactOrders pages through orders with client, address and creator resolved.
func (d *Database) ListCompactOrders(ctx context.Context, f types.CompactFilter) (types.Page[types.QueueItem], error) {
	where := ` WHERE ($1 = '' OR s.status = $1) AND ($2 = 0 OR s.client_id = $2)`
	args := []any{string(f.Status), f.ClientID}

	var total int
	if err := d.pool.QueryRow(ctx, `SELECT count(*) FROM laundry_services s`+where, args...).Scan(&total); err != nil {
		return types.Page[types.QueueItem]{}, fmt.Errorf("failed counting rows %w", err)
	}

	query := queueItemSelect + where + `
		ORDER BY ` + compactOrderClause(f) + `
		LIMIT $3 OFFSET $4`
	rows, err := d.pool.Query(ctx, query, append(args, f.PerPage, (f.Page-1)*f.PerPage)...)
	if err != nil {
		return types.Page[types.QueueItem]{}, fmt.Errorf("failed collecting rows %w", err)
	}
	items, err := pgx.CollectRows(rows, pgx.RowToStructByName[types.QueueItem])
	if err != nil {
		return types.Page[types.QueueItem]{}, fmt.Errorf("failed unpacking rows %w", err)
	}
	return types.NewPage(items, total, f.Page, f.PerPage), nil
}

package analytics

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"ms-ordering/internal/models"
)

// DB handles analytics database operations
type DB struct {
	bun bun.IDB
}

func NewDB(db bun.IDB) *DB {
	return &DB{bun: db}
}

type statusCount struct {
	OrderStatus models.OrderStatus `bun:"order_status"`
	Count       int                `bun:"order_count"`
}

// CountByStatus groups a branch's orders created in [from, to) by status.
func (db *DB) CountByStatus(ctx context.Context, branchID string, from, to time.Time) (map[models.OrderStatus]int, error) {
	var rows []statusCount
	err := db.bun.NewSelect().
		ColumnExpr("o.order_status").
		ColumnExpr("COUNT(*) AS order_count").
		TableExpr("orders AS o").
		Where("o.pickup_location_id = ?", branchID).
		Where("o.created_at >= ? AND o.created_at < ?", from, to).
		GroupExpr("o.order_status").
		Scan(ctx, &rows)
	if err != nil {
		return nil, err
	}
	out := make(map[models.OrderStatus]int, len(rows))
	for _, r := range rows {
		out[r.OrderStatus] = r.Count
	}
	return out, nil
}

// SoldOrders returns served and completed orders of a branch in [from, to).
func (db *DB) SoldOrders(ctx context.Context, branchID string, from, to time.Time) ([]models.Order, error) {
	var orders []models.Order
	err := db.bun.NewSelect().
		Model(&orders).
		Where("o.pickup_location_id = ?", branchID).
		Where("o.order_status IN (?)", bun.In([]models.OrderStatus{models.OrderServed, models.OrderCompleted})).
		Where("o.created_at >= ? AND o.created_at < ?", from, to).
		OrderExpr("o.created_at ASC").
		Scan(ctx)
	return orders, err
}

func (db *DB) ItemsForOrders(ctx context.Context, orderIDs []string) ([]models.OrderItem, error) {
	var items []models.OrderItem
	if len(orderIDs) == 0 {
		return items, nil
	}
	err := db.bun.NewSelect().Model(&items).Where("oi.order_id IN (?)", bun.In(orderIDs)).Scan(ctx)
	return items, err
}

// PreparedStatuses returns kitchen rows of the given orders that reached
// prepared with both timestamps set.
func (db *DB) PreparedStatuses(ctx context.Context, orderIDs []string) ([]models.OrderScreenStatus, error) {
	var rows []models.OrderScreenStatus
	if len(orderIDs) == 0 {
		return rows, nil
	}
	err := db.bun.NewSelect().
		Model(&rows).
		Where("oss.order_id IN (?)", bun.In(orderIDs)).
		Where("oss.status = ?", models.KitchenPrepared).
		Where("oss.preparing_started_at IS NOT NULL AND oss.prepared_at IS NOT NULL").
		Scan(ctx)
	return rows, err
}

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"ms-ordering/internal/kitchen"
	"ms-ordering/internal/models"
	"ms-ordering/internal/utils"
)

type DB struct {
	Bun bun.IDB
}

func notFound(err error, what, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", what, id, utils.ErrNotFound)
	}
	return err
}

// RunInTx runs fn against a transaction-bound DB. fn must only use the DB it
// is given.
func (d *DB) RunInTx(ctx context.Context, fn func(ctx context.Context, tx *DB) error) error {
	return d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, &DB{Bun: tx})
	})
}

// ---------------- CATALOG ----------------

func (d *DB) MenuItemsByIDs(ctx context.Context, ids []string) ([]models.MenuItem, error) {
	var items []models.MenuItem
	if len(ids) == 0 {
		return items, nil
	}
	err := d.Bun.NewSelect().Model(&items).Where("mi.id IN (?)", bun.In(ids)).Scan(ctx)
	return items, err
}

func (d *DB) GetPickupLocation(ctx context.Context, id string) (*models.PickupLocation, error) {
	loc := new(models.PickupLocation)
	err := d.Bun.NewSelect().Model(loc).Where("pl.id = ?", id).Scan(ctx)
	if err != nil {
		return nil, notFound(err, "pickup location", id)
	}
	return loc, nil
}

// ---------------- CUSTOMERS & TABLES ----------------

// FindOrCreateCustomer matches on phone. The stored name is refreshed when
// the customer gives a new one.
func (d *DB) FindOrCreateCustomer(ctx context.Context, c *models.Customer) (*models.Customer, error) {
	existing := new(models.Customer)
	err := d.Bun.NewSelect().Model(existing).Where("c.phone = ?", c.Phone).Limit(1).Scan(ctx)
	if err == nil {
		if c.Name != "" && c.Name != existing.Name {
			existing.Name = c.Name
			if _, err := d.Bun.NewUpdate().Model(existing).Column("name").WherePK().Exec(ctx); err != nil {
				return nil, err
			}
		}
		return existing, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if _, err := d.Bun.NewInsert().Model(c).Exec(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

func (d *DB) GetCustomer(ctx context.Context, id string) (*models.Customer, error) {
	c := new(models.Customer)
	if err := d.Bun.NewSelect().Model(c).Where("c.id = ?", id).Scan(ctx); err != nil {
		return nil, notFound(err, "customer", id)
	}
	return c, nil
}

func (d *DB) CustomersByIDs(ctx context.Context, ids []string) (map[string]models.Customer, error) {
	out := make(map[string]models.Customer, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.Customer
	if err := d.Bun.NewSelect().Model(&rows).Where("c.id IN (?)", bun.In(ids)).Scan(ctx); err != nil {
		return nil, err
	}
	for _, c := range rows {
		out[c.ID] = c
	}
	return out, nil
}

func (d *DB) SessionByToken(ctx context.Context, token string) (*models.TableSession, error) {
	s := new(models.TableSession)
	if err := d.Bun.NewSelect().Model(s).Where("ts.session_token = ?", token).Scan(ctx); err != nil {
		return nil, notFound(err, "table session", token)
	}
	return s, nil
}

func (d *DB) SessionsByIDs(ctx context.Context, ids []string) (map[string]models.TableSession, error) {
	out := make(map[string]models.TableSession, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.TableSession
	if err := d.Bun.NewSelect().Model(&rows).Where("ts.id IN (?)", bun.In(ids)).Scan(ctx); err != nil {
		return nil, err
	}
	for _, s := range rows {
		out[s.ID] = s
	}
	return out, nil
}

func (d *DB) GetDiningTable(ctx context.Context, id string) (*models.DiningTable, error) {
	t := new(models.DiningTable)
	if err := d.Bun.NewSelect().Model(t).Where("dt.id = ?", id).Scan(ctx); err != nil {
		return nil, notFound(err, "dining table", id)
	}
	return t, nil
}

// ---------------- ORDERS ----------------

func (d *DB) InsertOrder(ctx context.Context, order *models.Order, items []models.OrderItem) error {
	if _, err := d.Bun.NewInsert().Model(order).Exec(ctx); err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	if len(items) == 0 {
		return nil
	}
	if _, err := d.Bun.NewInsert().Model(&items).Exec(ctx); err != nil {
		return fmt.Errorf("insert order items: %w", err)
	}
	return nil
}

func (d *DB) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	o := new(models.Order)
	if err := d.Bun.NewSelect().Model(o).Where("o.id = ?", id).Scan(ctx); err != nil {
		return nil, notFound(err, "order", id)
	}
	return o, nil
}

func (d *DB) OrderByTrackingToken(ctx context.Context, token string) (*models.Order, error) {
	o := new(models.Order)
	if err := d.Bun.NewSelect().Model(o).Where("o.tracking_token = ?", token).Scan(ctx); err != nil {
		return nil, notFound(err, "order with tracking token", token)
	}
	return o, nil
}

func (d *DB) OrdersForBranch(ctx context.Context, branchID string, statuses []models.OrderStatus) ([]models.Order, error) {
	var orders []models.Order
	q := d.Bun.NewSelect().Model(&orders).Where("o.pickup_location_id = ?", branchID)
	if len(statuses) > 0 {
		q = q.Where("o.order_status IN (?)", bun.In(statuses))
	}
	err := q.OrderExpr("o.pickup_date ASC, o.created_at ASC").Scan(ctx)
	return orders, err
}

func (d *DB) OrdersByIDs(ctx context.Context, ids []string) (map[string]models.Order, error) {
	out := make(map[string]models.Order, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.Order
	if err := d.Bun.NewSelect().Model(&rows).Where("o.id IN (?)", bun.In(ids)).Scan(ctx); err != nil {
		return nil, err
	}
	for _, o := range rows {
		out[o.ID] = o
	}
	return out, nil
}

func (d *DB) OrderItems(ctx context.Context, orderIDs []string) ([]models.OrderItem, error) {
	var items []models.OrderItem
	if len(orderIDs) == 0 {
		return items, nil
	}
	err := d.Bun.NewSelect().Model(&items).Where("oi.order_id IN (?)", bun.In(orderIDs)).OrderExpr("oi.name ASC").Scan(ctx)
	return items, err
}

// GuardedUpdate writes columns of order only while guardColumn still holds
// one of allowed. It reports false when another request changed the row
// first.
func (d *DB) GuardedUpdate(ctx context.Context, order *models.Order, guardColumn string, allowed []string, columns ...string) (bool, error) {
	res, err := d.Bun.NewUpdate().
		Model(order).
		Column(columns...).
		WherePK().
		Where("? IN (?)", bun.Ident(guardColumn), bun.In(allowed)).
		Exec(ctx)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// ServeIfPrepared moves a confirmed order to served only while none of its
// kitchen rows is short of prepared.
func (d *DB) ServeIfPrepared(ctx context.Context, order *models.Order) (bool, error) {
	res, err := d.Bun.NewUpdate().
		Model(order).
		Column("order_status", "served_by", "served_at", "updated_at").
		WherePK().
		Where("o.order_status = ?", models.OrderConfirmed).
		Where("NOT EXISTS (SELECT 1 FROM order_screen_statuses AS oss WHERE oss.order_id = o.id AND oss.status <> ?)", models.KitchenPrepared).
		Exec(ctx)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// ClaimReadyNotification stamps ready_notified_at once. Only the caller
// that gets true may send the order_ready message.
func (d *DB) ClaimReadyNotification(ctx context.Context, orderID string, at time.Time) (bool, error) {
	res, err := d.Bun.NewUpdate().
		Model((*models.Order)(nil)).
		Set("ready_notified_at = ?", at).
		Where("o.id = ?", orderID).
		Where("o.ready_notified_at IS NULL").
		Exec(ctx)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// ---------------- SCREENS ----------------

func (d *DB) GetScreen(ctx context.Context, id string) (*models.BranchScreen, error) {
	s := new(models.BranchScreen)
	if err := d.Bun.NewSelect().Model(s).Where("bs.id = ?", id).Scan(ctx); err != nil {
		return nil, notFound(err, "screen", id)
	}
	return s, nil
}

func (d *DB) IsScreenUser(ctx context.Context, screenID, userID string) (bool, error) {
	return d.Bun.NewSelect().
		Model((*models.BranchScreenUser)(nil)).
		Where("bsu.branch_screen_id = ?", screenID).
		Where("bsu.user_id = ?", userID).
		Exists(ctx)
}

func (d *DB) ScreenMenuItemIDs(ctx context.Context, screenID string) ([]string, error) {
	var ids []string
	err := d.Bun.NewSelect().
		Model((*models.BranchScreenMenuItem)(nil)).
		Column("bsm.menu_item_id").
		Where("bsm.branch_screen_id = ?", screenID).
		Scan(ctx, &ids)
	return ids, err
}

// KitchenRoutingForBranch loads the active kitchen screens of a branch with
// the menu items routed to each.
func (d *DB) KitchenRoutingForBranch(ctx context.Context, branchID string) ([]kitchen.ScreenRouting, error) {
	var screens []models.BranchScreen
	err := d.Bun.NewSelect().
		Model(&screens).
		Where("bs.pickup_location_id = ?", branchID).
		Where("bs.screen_type = ?", models.ScreenKitchen).
		Where("bs.is_active = ?", true).
		OrderExpr("bs.name ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	if len(screens) == 0 {
		return nil, nil
	}

	ids := make([]string, len(screens))
	for i, s := range screens {
		ids[i] = s.ID
	}
	var links []models.BranchScreenMenuItem
	if err := d.Bun.NewSelect().Model(&links).Where("bsm.branch_screen_id IN (?)", bun.In(ids)).Scan(ctx); err != nil {
		return nil, err
	}
	routed := make(map[string][]string, len(screens))
	for _, l := range links {
		routed[l.BranchScreenID] = append(routed[l.BranchScreenID], l.MenuItemID)
	}

	out := make([]kitchen.ScreenRouting, len(screens))
	for i, s := range screens {
		out[i] = kitchen.ScreenRouting{Screen: s, MenuItemIDs: routed[s.ID]}
	}
	return out, nil
}

// ---------------- SCREEN STATUSES ----------------

func (d *DB) InsertScreenStatuses(ctx context.Context, rows []models.OrderScreenStatus) error {
	if len(rows) == 0 {
		return nil
	}
	_, err := d.Bun.NewInsert().Model(&rows).Exec(ctx)
	return err
}

func (d *DB) GetScreenStatus(ctx context.Context, id string) (*models.OrderScreenStatus, error) {
	s := new(models.OrderScreenStatus)
	if err := d.Bun.NewSelect().Model(s).Where("oss.id = ?", id).Scan(ctx); err != nil {
		return nil, notFound(err, "screen status", id)
	}
	return s, nil
}

func (d *DB) StatusesForOrders(ctx context.Context, orderIDs []string) ([]models.OrderScreenStatus, error) {
	var rows []models.OrderScreenStatus
	if len(orderIDs) == 0 {
		return rows, nil
	}
	err := d.Bun.NewSelect().Model(&rows).Where("oss.order_id IN (?)", bun.In(orderIDs)).OrderExpr("oss.created_at ASC").Scan(ctx)
	return rows, err
}

// StatusesForScreen returns rows of a screen whose order is still in the
// kitchen stage.
func (d *DB) StatusesForScreen(ctx context.Context, screenID string) ([]models.OrderScreenStatus, error) {
	var rows []models.OrderScreenStatus
	err := d.Bun.NewSelect().
		Model(&rows).
		Join("JOIN orders AS o ON o.id = oss.order_id").
		Where("oss.branch_screen_id = ?", screenID).
		Where("o.order_status = ?", models.OrderConfirmed).
		OrderExpr("oss.created_at ASC").
		Scan(ctx)
	return rows, err
}

// UpdateScreenStatus persists row if its version is still expectedVersion
// and bumps the version. It reports false on a stale write.
func (d *DB) UpdateScreenStatus(ctx context.Context, row *models.OrderScreenStatus, expectedVersion int) (bool, error) {
	row.Version = expectedVersion + 1
	res, err := d.Bun.NewUpdate().
		Model(row).
		Column("status", "preparing_started_at", "prepared_at", "updated_by", "updated_at", "version").
		WherePK().
		Where("version = ?", expectedVersion).
		Exec(ctx)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n != 1 {
		row.Version = expectedVersion
		return false, nil
	}
	return true, nil
}

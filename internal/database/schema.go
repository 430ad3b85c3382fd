package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "github.com/uptrace/bun/driver/sqliteshim"

	"ms-ordering/internal/models"
)

// Tables in creation order. Drop in reverse.
var tables = []interface{}{
	(*models.PickupLocation)(nil),
	(*models.Customer)(nil),
	(*models.MenuItem)(nil),
	(*models.DiningTable)(nil),
	(*models.TableSession)(nil),
	(*models.Order)(nil),
	(*models.OrderItem)(nil),
	(*models.BranchScreen)(nil),
	(*models.BranchScreenUser)(nil),
	(*models.BranchScreenMenuItem)(nil),
	(*models.OrderScreenStatus)(nil),
	(*models.User)(nil),
	(*models.Role)(nil),
	(*models.Permission)(nil),
	(*models.UserRole)(nil),
	(*models.RolePermission)(nil),
	(*models.SmsLog)(nil),
	(*models.BusinessSetting)(nil),
}

// CreateSchema builds every table from the bun models. Production schemas
// come from the SQL migrations; this is for tests and local resets.
func CreateSchema(ctx context.Context, db bun.IDB) error {
	for _, m := range tables {
		if _, err := db.NewCreateTable().Model(m).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create table for %T: %w", m, err)
		}
	}

	_, err := db.NewCreateIndex().
		Model((*models.OrderScreenStatus)(nil)).
		Index("order_screen_statuses_order_screen_uq").
		Unique().
		IfNotExists().
		Column("order_id", "branch_screen_id").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("create order screen index: %w", err)
	}
	return nil
}

func DropSchema(ctx context.Context, db bun.IDB) error {
	for i := len(tables) - 1; i >= 0; i-- {
		if _, err := db.NewDropTable().Model(tables[i]).IfExists().Exec(ctx); err != nil {
			return fmt.Errorf("drop table for %T: %w", tables[i], err)
		}
	}
	return nil
}

// NewSQLiteMemory opens an isolated in-memory database with the schema
// applied. A single connection keeps every query on the same memory db.
func NewSQLiteMemory(ctx context.Context) (*bun.DB, error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	sqldb, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	if err := CreateSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// ClearData deletes every row except business settings, which the
// migrations seed.
func ClearData(ctx context.Context, db bun.IDB) error {
	for i := len(tables) - 1; i >= 0; i-- {
		if _, ok := tables[i].(*models.BusinessSetting); ok {
			continue
		}
		if _, err := db.NewDelete().Model(tables[i]).Where("1 = 1").Exec(ctx); err != nil {
			return fmt.Errorf("clear %T: %w", tables[i], err)
		}
	}
	return nil
}

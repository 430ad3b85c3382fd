package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"ms-ordering/internal/models"
	"ms-ordering/internal/utils"
)

type DB struct {
	Bun bun.IDB
}

// AvailableItems returns every item marked available, by name. Channel
// filtering happens in Go since channels are stored as a JSON list.
func (d *DB) AvailableItems(ctx context.Context) ([]models.MenuItem, error) {
	var items []models.MenuItem
	err := d.Bun.NewSelect().
		Model(&items).
		Where("mi.is_available = ?", true).
		OrderExpr("mi.name ASC").
		Scan(ctx)
	return items, err
}

func (d *DB) GetItem(ctx context.Context, id string) (*models.MenuItem, error) {
	item := new(models.MenuItem)
	if err := d.Bun.NewSelect().Model(item).Where("mi.id = ?", id).Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("menu item %s: %w", id, utils.ErrNotFound)
		}
		return nil, err
	}
	return item, nil
}

func (d *DB) InsertItem(ctx context.Context, item *models.MenuItem) error {
	_, err := d.Bun.NewInsert().Model(item).Exec(ctx)
	return err
}

// UpdateItem writes the given columns of item.
func (d *DB) UpdateItem(ctx context.Context, item *models.MenuItem, columns ...string) error {
	res, err := d.Bun.NewUpdate().Model(item).Column(columns...).WherePK().Exec(ctx)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("menu item %s: %w", item.ID, utils.ErrNotFound)
	}
	return nil
}

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

func (d *DB) RunInTx(ctx context.Context, fn func(ctx context.Context, tx *DB) error) error {
	return d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, &DB{Bun: tx})
	})
}

func (d *DB) GetPickupLocation(ctx context.Context, id string) (*models.PickupLocation, error) {
	loc := new(models.PickupLocation)
	if err := d.Bun.NewSelect().Model(loc).Where("pl.id = ?", id).Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("pickup location %s: %w", id, utils.ErrNotFound)
		}
		return nil, err
	}
	return loc, nil
}

func (d *DB) InsertScreen(ctx context.Context, s *models.BranchScreen) error {
	_, err := d.Bun.NewInsert().Model(s).Exec(ctx)
	return err
}

func (d *DB) GetScreen(ctx context.Context, id string) (*models.BranchScreen, error) {
	s := new(models.BranchScreen)
	if err := d.Bun.NewSelect().Model(s).Where("bs.id = ?", id).Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("screen %s: %w", id, utils.ErrNotFound)
		}
		return nil, err
	}
	return s, nil
}

func (d *DB) UpdateScreen(ctx context.Context, s *models.BranchScreen, columns ...string) error {
	_, err := d.Bun.NewUpdate().Model(s).Column(columns...).WherePK().Exec(ctx)
	return err
}

func (d *DB) ScreensForBranch(ctx context.Context, branchID string) ([]models.BranchScreen, error) {
	var screens []models.BranchScreen
	err := d.Bun.NewSelect().
		Model(&screens).
		Where("bs.pickup_location_id = ?", branchID).
		OrderExpr("bs.screen_type ASC, bs.name ASC").
		Scan(ctx)
	return screens, err
}

// ScreensForUser lists the active screens userID is assigned to.
func (d *DB) ScreensForUser(ctx context.Context, userID string) ([]models.BranchScreen, error) {
	var screens []models.BranchScreen
	err := d.Bun.NewSelect().
		Model(&screens).
		Join("JOIN branch_screen_users AS bsu ON bsu.branch_screen_id = bs.id").
		Where("bsu.user_id = ?", userID).
		Where("bs.is_active = ?", true).
		OrderExpr("bs.name ASC").
		Scan(ctx)
	return screens, err
}

func (d *DB) CountMenuItems(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	return d.Bun.NewSelect().Model((*models.MenuItem)(nil)).Where("mi.id IN (?)", bun.In(ids)).Count(ctx)
}

func (d *DB) UsersByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	var users []models.User
	if len(ids) == 0 {
		return users, nil
	}
	err := d.Bun.NewSelect().Model(&users).Where("u.id IN (?)", bun.In(ids)).Scan(ctx)
	return users, err
}

// ReplaceMenuItems swaps the routed item set of a screen. Call inside RunInTx.
func (d *DB) ReplaceMenuItems(ctx context.Context, screenID string, menuItemIDs []string) error {
	if _, err := d.Bun.NewDelete().
		Model((*models.BranchScreenMenuItem)(nil)).
		Where("branch_screen_id = ?", screenID).
		Exec(ctx); err != nil {
		return err
	}
	if len(menuItemIDs) == 0 {
		return nil
	}
	links := make([]models.BranchScreenMenuItem, len(menuItemIDs))
	for i, id := range menuItemIDs {
		links[i] = models.BranchScreenMenuItem{BranchScreenID: screenID, MenuItemID: id}
	}
	_, err := d.Bun.NewInsert().Model(&links).Exec(ctx)
	return err
}

// ReplaceUsers swaps the assigned users of a screen. Call inside RunInTx.
func (d *DB) ReplaceUsers(ctx context.Context, screenID string, userIDs []string) error {
	if _, err := d.Bun.NewDelete().
		Model((*models.BranchScreenUser)(nil)).
		Where("branch_screen_id = ?", screenID).
		Exec(ctx); err != nil {
		return err
	}
	if len(userIDs) == 0 {
		return nil
	}
	links := make([]models.BranchScreenUser, len(userIDs))
	for i, id := range userIDs {
		links[i] = models.BranchScreenUser{BranchScreenID: screenID, UserID: id}
	}
	_, err := d.Bun.NewInsert().Model(&links).Exec(ctx)
	return err
}

func (d *DB) MenuItemLinks(ctx context.Context, screenIDs []string) ([]models.BranchScreenMenuItem, error) {
	var links []models.BranchScreenMenuItem
	if len(screenIDs) == 0 {
		return links, nil
	}
	err := d.Bun.NewSelect().Model(&links).Where("bsm.branch_screen_id IN (?)", bun.In(screenIDs)).Scan(ctx)
	return links, err
}

func (d *DB) UserLinks(ctx context.Context, screenIDs []string) ([]models.BranchScreenUser, error) {
	var links []models.BranchScreenUser
	if len(screenIDs) == 0 {
		return links, nil
	}
	err := d.Bun.NewSelect().Model(&links).Where("bsu.branch_screen_id IN (?)", bun.In(screenIDs)).Scan(ctx)
	return links, err
}

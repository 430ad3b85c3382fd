package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

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

func (d *DB) TableByQRToken(ctx context.Context, qrToken string) (*models.DiningTable, error) {
	t := new(models.DiningTable)
	if err := d.Bun.NewSelect().Model(t).Where("dt.qr_token = ?", qrToken).Scan(ctx); err != nil {
		return nil, notFound(err, "table", qrToken)
	}
	return t, nil
}

func (d *DB) GetTable(ctx context.Context, id string) (*models.DiningTable, error) {
	t := new(models.DiningTable)
	if err := d.Bun.NewSelect().Model(t).Where("dt.id = ?", id).Scan(ctx); err != nil {
		return nil, notFound(err, "table", id)
	}
	return t, nil
}

func (d *DB) InsertSession(ctx context.Context, s *models.TableSession) error {
	_, err := d.Bun.NewInsert().Model(s).Exec(ctx)
	return err
}

func (d *DB) GetSession(ctx context.Context, id string) (*models.TableSession, error) {
	s := new(models.TableSession)
	if err := d.Bun.NewSelect().Model(s).Where("ts.id = ?", id).Scan(ctx); err != nil {
		return nil, notFound(err, "table session", id)
	}
	return s, nil
}

func (d *DB) SessionByToken(ctx context.Context, token string) (*models.TableSession, error) {
	s := new(models.TableSession)
	if err := d.Bun.NewSelect().Model(s).Where("ts.session_token = ?", token).Scan(ctx); err != nil {
		return nil, notFound(err, "table session", token)
	}
	return s, nil
}

func (d *DB) UpdateSession(ctx context.Context, s *models.TableSession, columns ...string) error {
	_, err := d.Bun.NewUpdate().Model(s).Column(columns...).WherePK().Exec(ctx)
	return err
}

// MarkVerified stamps the session unless someone already did.
func (d *DB) MarkVerified(ctx context.Context, s *models.TableSession) (bool, error) {
	res, err := d.Bun.NewUpdate().
		Model(s).
		Column("verified_at", "verified_by").
		WherePK().
		Where("verified_at IS NULL").
		Exec(ctx)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

// UnverifiedSince lists unverified sessions of a branch seen after since,
// newest first, together with their tables.
func (d *DB) UnverifiedSince(ctx context.Context, branchID string, since time.Time) ([]models.TableSession, map[string]models.DiningTable, error) {
	var tables []models.DiningTable
	if err := d.Bun.NewSelect().Model(&tables).Where("dt.pickup_location_id = ?", branchID).Scan(ctx); err != nil {
		return nil, nil, err
	}
	byID := make(map[string]models.DiningTable, len(tables))
	ids := make([]string, len(tables))
	for i, t := range tables {
		byID[t.ID] = t
		ids[i] = t.ID
	}
	var sessions []models.TableSession
	if len(ids) == 0 {
		return sessions, byID, nil
	}
	err := d.Bun.NewSelect().
		Model(&sessions).
		Where("ts.dining_table_id IN (?)", bun.In(ids)).
		Where("ts.verified_at IS NULL").
		Where("ts.last_seen_at >= ?", since).
		OrderExpr("ts.last_seen_at DESC").
		Scan(ctx)
	return sessions, byID, err
}

package db

import (
	"context"

	"github.com/uptrace/bun"

	"ms-ordering/internal/models"
)

type DB struct {
	Bun bun.IDB
}

// Settings returns the requested keys. Missing keys are absent from the map.
func (d *DB) Settings(ctx context.Context, keys ...string) (map[string]string, error) {
	var rows []models.BusinessSetting
	q := d.Bun.NewSelect().Model(&rows)
	if len(keys) > 0 {
		q = q.Where("bset.key IN (?)", bun.In(keys))
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	out := make(map[string]string, len(rows))
	for _, r := range rows {
		out[r.Key] = r.Value
	}
	return out, nil
}

func (d *DB) PutSetting(ctx context.Context, key, value string) error {
	_, err := d.Bun.NewInsert().
		Model(&models.BusinessSetting{Key: key, Value: value}).
		On(`CONFLICT ("key") DO UPDATE`).
		Set("value = EXCLUDED.value").
		Exec(ctx)
	return err
}

func (d *DB) InsertSmsLog(ctx context.Context, entry *models.SmsLog) error {
	_, err := d.Bun.NewInsert().Model(entry).Exec(ctx)
	return err
}

func (d *DB) SmsLogsForOrder(ctx context.Context, orderID string) ([]models.SmsLog, error) {
	var logs []models.SmsLog
	err := d.Bun.NewSelect().Model(&logs).Where("order_id = ?", orderID).OrderExpr("created_at ASC").Scan(ctx)
	return logs, err
}

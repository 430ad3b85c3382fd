package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-ordering/internal/models"
)

func TestNewSQLiteMemory_Isolated(t *testing.T) {
	ctx := context.Background()

	a, err := NewSQLiteMemory(ctx)
	require.NoError(t, err)
	defer a.Close()
	b, err := NewSQLiteMemory(ctx)
	require.NoError(t, err)
	defer b.Close()

	_, err = a.NewInsert().Model(&models.PickupLocation{ID: "b1", Name: "Main", IsActive: true, CreatedAt: time.Now()}).Exec(ctx)
	require.NoError(t, err)

	n, err := b.NewSelect().Model((*models.PickupLocation)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestOrderScreenStatusUnique(t *testing.T) {
	ctx := context.Background()
	db, err := NewSQLiteMemory(ctx)
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	first := models.OrderScreenStatus{ID: "s1", OrderID: "o1", BranchScreenID: "k1", Status: models.KitchenPending, Version: 1, CreatedAt: now, UpdatedAt: now}
	dup := first
	dup.ID = "s2"

	_, err = db.NewInsert().Model(&first).Exec(ctx)
	require.NoError(t, err)
	_, err = db.NewInsert().Model(&dup).Exec(ctx)
	assert.Error(t, err)
}

func TestDropSchema(t *testing.T) {
	ctx := context.Background()
	db, err := NewSQLiteMemory(ctx)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, DropSchema(ctx, db))
	require.NoError(t, CreateSchema(ctx, db))
}

func TestClearDataKeepsSettings(t *testing.T) {
	ctx := context.Background()
	db, err := NewSQLiteMemory(ctx)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.NewInsert().Model(&models.PickupLocation{ID: "b1", Name: "Main", IsActive: true, CreatedAt: time.Now()}).Exec(ctx)
	require.NoError(t, err)
	_, err = db.NewInsert().Model(&models.BusinessSetting{Key: "sms.whitelist", Value: ""}).Exec(ctx)
	require.NoError(t, err)

	require.NoError(t, ClearData(ctx, db))

	n, err := db.NewSelect().Model((*models.PickupLocation)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	n, err = db.NewSelect().Model((*models.BusinessSetting)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

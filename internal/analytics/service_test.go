package analytics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-ordering/internal/database"
	"ms-ordering/internal/models"
	"ms-ordering/internal/rbac"
	"ms-ordering/internal/utils"
)

var day1 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func manager(branchID string) *rbac.Principal {
	return rbac.NewPrincipal("mgr", "mgr", branchID, rbac.SourceLegacy,
		[]string{string(rbac.RoleBranchManager)}, rbac.LegacyPermissions(rbac.RoleBranchManager))
}

func newService(t *testing.T) *Service {
	t.Helper()
	ctx := context.Background()
	bunDB, err := database.NewSQLiteMemory(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { bunDB.Close() })

	order := func(id string, status models.OrderStatus, src models.SourceChannel, total string, at time.Time) *models.Order {
		return &models.Order{
			ID: id, CustomerID: "c1", PickupDate: at, PickupLocationID: "b1",
			SourceChannel: src, ReceiptStatus: models.ReceiptPending, OrderStatus: status,
			TrackingToken: "tok-" + id, TotalAmount: decimal.RequireFromString(total),
			CreatedAt: at, UpdatedAt: at,
		}
	}
	item := func(id, orderID, menuID, name, price string, qty int) *models.OrderItem {
		return &models.OrderItem{ID: id, OrderID: orderID, MenuItemID: menuID, Name: name,
			UnitPrice: decimal.RequireFromString(price), Quantity: qty}
	}
	started := day1.Add(time.Minute)
	prepared := started.Add(4 * time.Minute)

	rows := []interface{}{
		order("o1", models.OrderServed, models.SourceWeb, "10.00", day1),
		order("o2", models.OrderCompleted, models.SourceTable, "6.00", day1.Add(2*time.Hour)),
		order("o3", models.OrderCompleted, models.SourceWeb, "4.00", day1.Add(24*time.Hour)),
		order("o4", models.OrderCancelled, models.SourceWeb, "99.00", day1),
		order("o5", models.OrderConfirmed, models.SourceWeb, "3.00", day1),
		item("i1", "o1", "m-crois", "Croissant", "2.50", 4),
		item("i2", "o2", "m-coffee", "Coffee", "3.00", 2),
		item("i3", "o3", "m-crois", "Croissant", "2.00", 2),
		item("i4", "o4", "m-cake", "Cake", "99.00", 1),
		&models.OrderScreenStatus{ID: "s1", OrderID: "o1", BranchScreenID: "k1", Status: models.KitchenPrepared,
			PreparingStartedAt: &started, PreparedAt: &prepared, Version: 3, CreatedAt: day1, UpdatedAt: day1},
	}
	for _, r := range rows {
		_, err := bunDB.NewInsert().Model(r).Exec(ctx)
		require.NoError(t, err)
	}
	return NewService(NewDB(bunDB))
}

func TestBranchSales_Summary(t *testing.T) {
	svc := newService(t)

	got, err := svc.BranchSales(context.Background(), manager("b1"), "b1", day1.Truncate(24*time.Hour), day1.Add(72*time.Hour))
	require.NoError(t, err)

	assert.Equal(t, 2, got.OrdersByStatus[models.OrderCompleted])
	assert.Equal(t, 1, got.OrdersByStatus[models.OrderCancelled])
	assert.Equal(t, 1, got.OrdersByStatus[models.OrderConfirmed])
	assert.True(t, decimal.RequireFromString("20").Equal(got.Revenue), got.Revenue.String())
	assert.True(t, decimal.RequireFromString("14").Equal(got.BySource["web"]))
	assert.True(t, decimal.RequireFromString("6").Equal(got.BySource["table"]))

	require.Len(t, got.DailySales, 2)
	assert.Equal(t, "2026-03-02", got.DailySales[0].Date)
	assert.Equal(t, 2, got.DailySales[0].Orders)
	assert.Equal(t, "2026-03-03", got.DailySales[1].Date)

	require.Len(t, got.TopItems, 2)
	assert.Equal(t, "m-crois", got.TopItems[0].MenuItemID)
	assert.Equal(t, 6, got.TopItems[0].Quantity)
	assert.True(t, decimal.RequireFromString("14").Equal(got.TopItems[0].Revenue))

	require.Len(t, got.KitchenTimes, 1)
	assert.Equal(t, "k1", got.KitchenTimes[0].ScreenID)
	assert.Equal(t, 240.0, got.KitchenTimes[0].AvgPrepSeconds)
}

func TestBranchSales_PeriodBounds(t *testing.T) {
	svc := newService(t)

	got, err := svc.BranchSales(context.Background(), manager("b1"), "b1", day1.Add(24*time.Hour), day1.Add(48*time.Hour))
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("4").Equal(got.Revenue))
	assert.Len(t, got.DailySales, 1)

	_, err = svc.BranchSales(context.Background(), manager("b1"), "b1", day1, day1)
	var ve *utils.ValidationError
	assert.True(t, errors.As(err, &ve))
}

func TestBranchSales_Access(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.BranchSales(ctx, manager("b2"), "b1", day1, day1.Add(time.Hour))
	assert.ErrorIs(t, err, utils.ErrForbidden)

	waiter := rbac.NewPrincipal("w", "w", "b1", rbac.SourceLegacy,
		[]string{string(rbac.RoleBranchStaff)}, rbac.LegacyPermissions(rbac.RoleBranchStaff))
	_, err = svc.BranchSales(ctx, waiter, "b1", day1, day1.Add(time.Hour))
	assert.ErrorIs(t, err, utils.ErrForbidden)
}

package kitchen

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-ordering/internal/models"
)

func kitchenScreen(id, branch string) models.BranchScreen {
	return models.BranchScreen{ID: id, PickupLocationID: branch, ScreenType: models.ScreenKitchen, IsActive: true}
}

func TestFanOut_OnlyMatchingKitchenScreens(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	order := models.Order{ID: "o1", PickupLocationID: "b1"}
	items := []models.OrderItem{{MenuItemID: "A"}, {MenuItemID: "B"}}

	waiter := kitchenScreen("w1", "b1")
	waiter.ScreenType = models.ScreenWaiter
	inactive := kitchenScreen("k-off", "b1")
	inactive.IsActive = false

	screens := []ScreenRouting{
		{Screen: kitchenScreen("k1", "b1"), MenuItemIDs: []string{"A"}},
		{Screen: kitchenScreen("k2", "b1"), MenuItemIDs: []string{"C"}},
		{Screen: kitchenScreen("k3", "b2"), MenuItemIDs: []string{"A", "B"}},
		{Screen: waiter, MenuItemIDs: []string{"A"}},
		{Screen: inactive, MenuItemIDs: []string{"B"}},
	}

	rows := FanOut(order, items, screens, now)

	require.Len(t, rows, 1)
	assert.Equal(t, "k1", rows[0].BranchScreenID)
	assert.Equal(t, "o1", rows[0].OrderID)
	assert.Equal(t, models.KitchenPending, rows[0].Status)
	assert.Equal(t, 1, rows[0].Version)
	assert.Equal(t, now, rows[0].CreatedAt)
	assert.NotEmpty(t, rows[0].ID)
}

func TestFanOut_DuplicateScreenCollapsed(t *testing.T) {
	order := models.Order{ID: "o1", PickupLocationID: "b1"}
	items := []models.OrderItem{{MenuItemID: "A"}, {MenuItemID: "B"}}
	screens := []ScreenRouting{
		{Screen: kitchenScreen("k1", "b1"), MenuItemIDs: []string{"A"}},
		{Screen: kitchenScreen("k1", "b1"), MenuItemIDs: []string{"B"}},
	}

	assert.Len(t, FanOut(order, items, screens, time.Now()), 1)
}

func TestFanOut_NoKitchenScreensIsNoop(t *testing.T) {
	order := models.Order{ID: "o1", PickupLocationID: "b1"}
	rows := FanOut(order, []models.OrderItem{{MenuItemID: "A"}}, nil, time.Now())

	assert.NotNil(t, rows)
	assert.Empty(t, rows)
	assert.True(t, IsReadyToServe(rows))
}

func TestRoutedItems(t *testing.T) {
	items := []models.OrderItem{{MenuItemID: "A", Quantity: 2}, {MenuItemID: "B", Quantity: 1}}
	got := RoutedItems(items, []string{"B"})
	require.Len(t, got, 1)
	assert.Equal(t, "B", got[0].MenuItemID)
}

// Package kitchen holds the order-to-screen routing rules and the per-screen
// preparation state machine. Everything here is pure; persistence lives with
// the order service.
package kitchen

import (
	"time"

	"ms-ordering/internal/models"
	"ms-ordering/internal/utils"
)

// ScreenRouting is a branch screen together with the menu items routed to it.
type ScreenRouting struct {
	Screen      models.BranchScreen
	MenuItemIDs []string
}

// FanOut returns one pending status row per active kitchen screen of the
// order's branch whose routing intersects the order's items. Screens that
// appear more than once are collapsed.
func FanOut(order models.Order, items []models.OrderItem, screens []ScreenRouting, now time.Time) []models.OrderScreenStatus {
	ordered := make(map[string]bool, len(items))
	for _, it := range items {
		ordered[it.MenuItemID] = true
	}

	rows := make([]models.OrderScreenStatus, 0)
	seen := make(map[string]bool)
	for _, sr := range screens {
		s := sr.Screen
		if s.ScreenType != models.ScreenKitchen || !s.IsActive || s.PickupLocationID != order.PickupLocationID {
			continue
		}
		if seen[s.ID] || !intersects(sr.MenuItemIDs, ordered) {
			continue
		}
		seen[s.ID] = true
		rows = append(rows, models.OrderScreenStatus{
			ID:             utils.GenerateID(),
			OrderID:        order.ID,
			BranchScreenID: s.ID,
			Status:         models.KitchenPending,
			Version:        1,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
	}
	return rows
}

func intersects(routed []string, ordered map[string]bool) bool {
	for _, id := range routed {
		if ordered[id] {
			return true
		}
	}
	return false
}

// RoutedItems filters items down to those a screen is responsible for.
func RoutedItems(items []models.OrderItem, routed []string) []models.OrderItem {
	set := make(map[string]bool, len(routed))
	for _, id := range routed {
		set[id] = true
	}
	var out []models.OrderItem
	for _, it := range items {
		if set[it.MenuItemID] {
			out = append(out, it)
		}
	}
	return out
}

package order

import (
	"context"
	"fmt"

	"ms-ordering/internal/kitchen"
	"ms-ordering/internal/models"
	"ms-ordering/internal/notify"
	"ms-ordering/internal/order/db"
	orderkafka "ms-ordering/internal/order/kafka"
	"ms-ordering/internal/rbac"
)

type ConfirmResult struct {
	Order        models.Order               `json:"order"`
	Statuses     []models.OrderScreenStatus `json:"statuses"`
	ReadyToServe bool                       `json:"ready_to_serve"`
}

// loadForStaff loads an order and checks the principal's permission and
// branch scope.
func (s *OrderService) loadForStaff(ctx context.Context, p *rbac.Principal, orderID, perm string) (*models.Order, error) {
	if err := rbac.Require(p, perm); err != nil {
		return nil, err
	}
	order, err := s.DB.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := rbac.RequireBranch(p, order.PickupLocationID); err != nil {
		return nil, err
	}
	return order, nil
}

// ConfirmOrder moves an order out of pending_confirmation and creates one
// kitchen status row per kitchen screen routed to its items.
func (s *OrderService) ConfirmOrder(ctx context.Context, p *rbac.Principal, orderID string) (*ConfirmResult, error) {
	order, err := s.loadForStaff(ctx, p, orderID, rbac.PermOrdersConfirm)
	if err != nil {
		return nil, err
	}

	var rows []models.OrderScreenStatus
	err = s.withOrderLock(ctx, orderID, p.UserID, func() error {
		if order, err = s.DB.GetOrder(ctx, orderID); err != nil {
			return err
		}
		if order.OrderStatus != models.OrderPendingConfirmation {
			return ErrInvalidTransition
		}
		items, err := s.DB.OrderItems(ctx, []string{orderID})
		if err != nil {
			return err
		}
		routing, err := s.DB.KitchenRoutingForBranch(ctx, order.PickupLocationID)
		if err != nil {
			return err
		}

		now := s.now()
		rows = kitchen.FanOut(*order, items, routing, now)

		order.OrderStatus = models.OrderConfirmed
		order.ConfirmedBy = &p.UserID
		order.ConfirmedAt = &now
		order.UpdatedAt = now

		return s.DB.RunInTx(ctx, func(ctx context.Context, tx *db.DB) error {
			ok, err := tx.GuardedUpdate(ctx, order, "order_status",
				[]string{string(models.OrderPendingConfirmation)},
				"order_status", "confirmed_by", "confirmed_at", "updated_at")
			if err != nil {
				return err
			}
			if !ok {
				return ErrInvalidTransition
			}
			return tx.InsertScreenStatuses(ctx, rows)
		})
	})
	if err != nil {
		return nil, err
	}

	ready := kitchen.IsReadyToServe(rows)
	s.Logger.LogOrder("CONFIRMED", orderID, fmt.Sprintf("by=%s kitchen_rows=%d ready=%t", p.UserID, len(rows), ready))
	s.announce(ctx, orderkafka.Event{Type: orderkafka.OrderConfirmed, OrderID: orderID, BranchID: order.PickupLocationID, Status: string(order.OrderStatus), Actor: p.UserID})
	if ready {
		s.notifyReady(ctx, order)
	}

	return &ConfirmResult{Order: *order, Statuses: rows, ReadyToServe: ready}, nil
}

type StatusUpdateResult struct {
	Status       models.OrderScreenStatus `json:"status"`
	ReadyToServe bool                     `json:"ready_to_serve"`
}

// UpdateScreenStatus moves one kitchen status row. expectedVersion of zero
// means "whatever is current"; any other value must match the stored row.
func (s *OrderService) UpdateScreenStatus(ctx context.Context, p *rbac.Principal, statusID string, target models.KitchenStatus, expectedVersion int) (*StatusUpdateResult, error) {
	if !target.Valid() {
		return nil, kitchen.ErrInvalidStatus
	}
	if err := rbac.Require(p, rbac.PermKitchenUpdate); err != nil {
		return nil, err
	}

	row, err := s.DB.GetScreenStatus(ctx, statusID)
	if err != nil {
		return nil, err
	}
	if _, err := s.authorizeScreen(ctx, p, row.BranchScreenID); err != nil {
		return nil, err
	}

	order, err := s.DB.GetOrder(ctx, row.OrderID)
	if err != nil {
		return nil, err
	}
	if order.OrderStatus != models.OrderConfirmed {
		return nil, ErrInvalidTransition
	}

	if expectedVersion == 0 {
		expectedVersion = row.Version
	}
	if expectedVersion != row.Version {
		return nil, kitchen.ErrStaleStatus
	}

	next, err := kitchen.Transition(*row, target, p.UserID, s.now(), s.Policy)
	if err != nil {
		return nil, err
	}
	ok, err := s.DB.UpdateScreenStatus(ctx, &next, expectedVersion)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, kitchen.ErrStaleStatus
	}

	after, err := s.DB.StatusesForOrders(ctx, []string{order.ID})
	if err != nil {
		return nil, err
	}
	ready := kitchen.IsReadyToServe(after)

	s.Logger.LogKitchen(row.BranchScreenID, order.ID, fmt.Sprintf("%s -> %s by %s (v%d)", row.Status, next.Status, p.UserID, next.Version))
	s.announce(ctx, orderkafka.Event{
		Type:     orderkafka.KitchenStatusChanged,
		OrderID:  order.ID,
		BranchID: order.PickupLocationID,
		ScreenID: row.BranchScreenID,
		Status:   string(next.Status),
		Actor:    p.UserID,
	})
	if ready {
		s.notifyReady(ctx, order)
	}

	return &StatusUpdateResult{Status: next, ReadyToServe: ready}, nil
}

// notifyReady sends order_ready at most once per order. The stamp is claimed
// before sending, so a revert and a second readiness stay silent.
func (s *OrderService) notifyReady(ctx context.Context, order *models.Order) {
	if !order.NotifyWhenReady {
		return
	}
	claimed, err := s.DB.ClaimReadyNotification(ctx, order.ID, s.now())
	if err != nil {
		s.Logger.Error("ORDER", fmt.Sprintf("claim ready notification for %s: %v", order.ID, err))
		return
	}
	if !claimed {
		return
	}
	s.notifyCustomer(ctx, order, notify.EventOrderReady, "")
}

// authorizeScreen checks branch scope and, unless the principal manages
// screens, assignment to the screen.
func (s *OrderService) authorizeScreen(ctx context.Context, p *rbac.Principal, screenID string) (*models.BranchScreen, error) {
	screen, err := s.DB.GetScreen(ctx, screenID)
	if err != nil {
		return nil, err
	}
	if err := rbac.RequireBranch(p, screen.PickupLocationID); err != nil {
		return nil, err
	}
	if p.HasPermission(rbac.PermScreensManage) {
		return screen, nil
	}
	assigned, err := s.DB.IsScreenUser(ctx, screenID, p.UserID)
	if err != nil {
		return nil, err
	}
	if !assigned {
		return nil, ErrNotAssigned
	}
	return screen, nil
}

// MarkServed is only allowed once every kitchen row is prepared.
func (s *OrderService) MarkServed(ctx context.Context, p *rbac.Principal, orderID string) (*models.Order, error) {
	order, err := s.loadForStaff(ctx, p, orderID, rbac.PermOrdersServe)
	if err != nil {
		return nil, err
	}
	if order.OrderStatus != models.OrderConfirmed {
		return nil, ErrInvalidTransition
	}
	rows, err := s.DB.StatusesForOrders(ctx, []string{orderID})
	if err != nil {
		return nil, err
	}
	if !kitchen.IsReadyToServe(rows) {
		return nil, ErrNotReady
	}

	now := s.now()
	order.OrderStatus = models.OrderServed
	order.ServedBy = &p.UserID
	order.ServedAt = &now
	order.UpdatedAt = now
	ok, err := s.DB.ServeIfPrepared(ctx, order)
	if err != nil {
		return nil, err
	}
	if !ok {
		// a kitchen row reverted or the order moved on since the check above
		current, err := s.DB.GetOrder(ctx, orderID)
		if err != nil {
			return nil, err
		}
		if current.OrderStatus == models.OrderConfirmed {
			return nil, ErrNotReady
		}
		return nil, ErrInvalidTransition
	}

	s.Logger.LogOrder("SERVED", orderID, "by="+p.UserID)
	s.announce(ctx, orderkafka.Event{Type: orderkafka.OrderServed, OrderID: orderID, BranchID: order.PickupLocationID, Status: string(order.OrderStatus), Actor: p.UserID})
	return order, nil
}

// CompleteOrder is the cashier's reconciliation step.
func (s *OrderService) CompleteOrder(ctx context.Context, p *rbac.Principal, orderID string) (*models.Order, error) {
	order, err := s.loadForStaff(ctx, p, orderID, rbac.PermOrdersComplete)
	if err != nil {
		return nil, err
	}
	if order.OrderStatus != models.OrderServed {
		return nil, ErrInvalidTransition
	}

	order.OrderStatus = models.OrderCompleted
	order.UpdatedAt = s.now()
	if err := s.transition(ctx, order, []models.OrderStatus{models.OrderServed}); err != nil {
		return nil, err
	}

	s.Logger.LogOrder("COMPLETED", orderID, "by="+p.UserID)
	s.announce(ctx, orderkafka.Event{Type: orderkafka.OrderCompleted, OrderID: orderID, BranchID: order.PickupLocationID, Status: string(order.OrderStatus), Actor: p.UserID})
	return order, nil
}

func (s *OrderService) CancelOrder(ctx context.Context, p *rbac.Principal, orderID string) (*models.Order, error) {
	order, err := s.loadForStaff(ctx, p, orderID, rbac.PermOrdersCancel)
	if err != nil {
		return nil, err
	}

	from := []models.OrderStatus{models.OrderPendingConfirmation, models.OrderConfirmed}
	err = s.withOrderLock(ctx, orderID, p.UserID, func() error {
		if order, err = s.DB.GetOrder(ctx, orderID); err != nil {
			return err
		}
		if order.OrderStatus != from[0] && order.OrderStatus != from[1] {
			return ErrInvalidTransition
		}
		order.OrderStatus = models.OrderCancelled
		order.UpdatedAt = s.now()
		return s.transition(ctx, order, from)
	})
	if err != nil {
		return nil, err
	}

	s.Logger.LogOrder("CANCELLED", orderID, "by="+p.UserID)
	s.announce(ctx, orderkafka.Event{Type: orderkafka.OrderCancelled, OrderID: orderID, BranchID: order.PickupLocationID, Status: string(order.OrderStatus), Actor: p.UserID})
	return order, nil
}

// transition writes order_status (plus extra columns) guarded on from.
func (s *OrderService) transition(ctx context.Context, order *models.Order, from []models.OrderStatus, extra ...string) error {
	allowed := make([]string, len(from))
	for i, st := range from {
		allowed[i] = string(st)
	}
	cols := append([]string{"order_status", "updated_at"}, extra...)
	ok, err := s.DB.GuardedUpdate(ctx, order, "order_status", allowed, cols...)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidTransition
	}
	return nil
}

package order

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"ms-ordering/internal/kitchen"
	"ms-ordering/internal/models"
	"ms-ordering/internal/rbac"
)

// OrderCard is one order as shown on a staff board.
type OrderCard struct {
	Order           models.Order               `json:"order"`
	CustomerName    string                     `json:"customer_name"`
	Items           []models.OrderItem         `json:"items"`
	Statuses        []models.OrderScreenStatus `json:"statuses,omitempty"`
	Progress        kitchen.Progress           `json:"progress"`
	ReadyToServe    bool                       `json:"ready_to_serve"`
	SessionVerified bool                       `json:"session_verified"`
}

type WaiterBoard struct {
	BranchID            string      `json:"branch_id"`
	PendingConfirmation []OrderCard `json:"pending_confirmation"`
	InKitchen           []OrderCard `json:"in_kitchen"`
	ReadyToServe        []OrderCard `json:"ready_to_serve"`
	// UnverifiedSessions lists table sessions behind active orders that
	// staff still need to check.
	UnverifiedSessions []string `json:"unverified_sessions"`
}

type KitchenTicket struct {
	Status       models.OrderScreenStatus `json:"status"`
	PickupDate   string                   `json:"pickup_date"`
	TableID      *string                  `json:"dining_table_id,omitempty"`
	CustomerName string                   `json:"customer_name"`
	Items        []models.OrderItem       `json:"items"`
}

type KitchenBoard struct {
	Screen  models.BranchScreen `json:"screen"`
	Tickets []KitchenTicket     `json:"tickets"`
}

type CashierBoard struct {
	BranchID         string          `json:"branch_id"`
	Confirmed        []OrderCard     `json:"confirmed"`
	Served           []OrderCard     `json:"served"`
	OutstandingTotal decimal.Decimal `json:"outstanding_total"`
	PendingReceipts  int             `json:"pending_receipts"`
}

type Tracking struct {
	OrderID           string               `json:"order_id"`
	OrderStatus       models.OrderStatus   `json:"order_status"`
	ReceiptStatus     models.ReceiptStatus `json:"receipt_status"`
	DisapprovalReason string               `json:"disapproval_reason,omitempty"`
	PickupDate        string               `json:"pickup_date"`
	Total             decimal.Decimal      `json:"total"`
	Items             []models.OrderItem   `json:"items"`
	Progress          kitchen.Progress     `json:"progress"`
	ReadyToServe      bool                 `json:"ready_to_serve"`
}

// buildCards loads items, statuses, customers and sessions for orders in
// bulk. Readiness is recomputed from the rows on every call.
func (s *OrderService) buildCards(ctx context.Context, orders []models.Order) ([]OrderCard, error) {
	ids := make([]string, len(orders))
	customerIDs := make([]string, 0, len(orders))
	sessionIDs := make([]string, 0)
	for i, o := range orders {
		ids[i] = o.ID
		customerIDs = append(customerIDs, o.CustomerID)
		if o.TableSessionID != nil {
			sessionIDs = append(sessionIDs, *o.TableSessionID)
		}
	}

	items, err := s.DB.OrderItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	rows, err := s.DB.StatusesForOrders(ctx, ids)
	if err != nil {
		return nil, err
	}
	customers, err := s.DB.CustomersByIDs(ctx, customerIDs)
	if err != nil {
		return nil, err
	}
	sessions, err := s.DB.SessionsByIDs(ctx, sessionIDs)
	if err != nil {
		return nil, err
	}

	itemsByOrder := make(map[string][]models.OrderItem)
	for _, it := range items {
		itemsByOrder[it.OrderID] = append(itemsByOrder[it.OrderID], it)
	}
	rowsByOrder := kitchen.GroupByOrder(rows)

	cards := make([]OrderCard, len(orders))
	for i, o := range orders {
		verified := true
		if o.TableSessionID != nil {
			verified = sessions[*o.TableSessionID].Verified()
		}
		cards[i] = OrderCard{
			Order:           o,
			CustomerName:    customers[o.CustomerID].Name,
			Items:           itemsByOrder[o.ID],
			Statuses:        rowsByOrder[o.ID],
			Progress:        kitchen.Summarize(rowsByOrder[o.ID]),
			ReadyToServe:    kitchen.IsReadyToServe(rowsByOrder[o.ID]),
			SessionVerified: verified,
		}
	}
	return cards, nil
}

func (s *OrderService) WaiterBoard(ctx context.Context, p *rbac.Principal, branchID string) (*WaiterBoard, error) {
	if err := rbac.Require(p, rbac.PermOrdersView); err != nil {
		return nil, err
	}
	if err := rbac.RequireBranch(p, branchID); err != nil {
		return nil, err
	}

	orders, err := s.DB.OrdersForBranch(ctx, branchID, []models.OrderStatus{models.OrderPendingConfirmation, models.OrderConfirmed})
	if err != nil {
		return nil, err
	}
	cards, err := s.buildCards(ctx, orders)
	if err != nil {
		return nil, err
	}

	board := &WaiterBoard{
		BranchID:            branchID,
		PendingConfirmation: []OrderCard{},
		InKitchen:           []OrderCard{},
		ReadyToServe:        []OrderCard{},
		UnverifiedSessions:  []string{},
	}
	seen := make(map[string]bool)
	for _, c := range cards {
		switch {
		case c.Order.OrderStatus == models.OrderPendingConfirmation:
			board.PendingConfirmation = append(board.PendingConfirmation, c)
		case c.ReadyToServe:
			board.ReadyToServe = append(board.ReadyToServe, c)
		default:
			board.InKitchen = append(board.InKitchen, c)
		}
		if !c.SessionVerified && !seen[*c.Order.TableSessionID] {
			seen[*c.Order.TableSessionID] = true
			board.UnverifiedSessions = append(board.UnverifiedSessions, *c.Order.TableSessionID)
		}
	}
	return board, nil
}

// KitchenBoard lists the open rows of one kitchen screen with only the items
// routed to it.
func (s *OrderService) KitchenBoard(ctx context.Context, p *rbac.Principal, screenID string) (*KitchenBoard, error) {
	if err := rbac.Require(p, rbac.PermKitchenView); err != nil {
		return nil, err
	}
	screen, err := s.authorizeScreen(ctx, p, screenID)
	if err != nil {
		return nil, err
	}
	if screen.ScreenType != models.ScreenKitchen {
		return nil, ErrNotKitchenScreen
	}

	rows, err := s.DB.StatusesForScreen(ctx, screenID)
	if err != nil {
		return nil, err
	}
	routed, err := s.DB.ScreenMenuItemIDs(ctx, screenID)
	if err != nil {
		return nil, err
	}

	orderIDs := make([]string, len(rows))
	for i, r := range rows {
		orderIDs[i] = r.OrderID
	}
	orders, err := s.DB.OrdersByIDs(ctx, orderIDs)
	if err != nil {
		return nil, err
	}
	items, err := s.DB.OrderItems(ctx, orderIDs)
	if err != nil {
		return nil, err
	}
	customerIDs := make([]string, 0, len(orders))
	for _, o := range orders {
		customerIDs = append(customerIDs, o.CustomerID)
	}
	customers, err := s.DB.CustomersByIDs(ctx, customerIDs)
	if err != nil {
		return nil, err
	}

	itemsByOrder := make(map[string][]models.OrderItem)
	for _, it := range items {
		itemsByOrder[it.OrderID] = append(itemsByOrder[it.OrderID], it)
	}

	tickets := make([]KitchenTicket, 0, len(rows))
	for _, r := range rows {
		o := orders[r.OrderID]
		tickets = append(tickets, KitchenTicket{
			Status:       r,
			PickupDate:   o.PickupDate.Format("2006-01-02 15:04"),
			TableID:      o.DiningTableID,
			CustomerName: customers[o.CustomerID].Name,
			Items:        kitchen.RoutedItems(itemsByOrder[r.OrderID], routed),
		})
	}
	// prepared tickets sink to the bottom
	sort.SliceStable(tickets, func(i, j int) bool {
		pi := tickets[i].Status.Status == models.KitchenPrepared
		pj := tickets[j].Status.Status == models.KitchenPrepared
		return !pi && pj
	})
	return &KitchenBoard{Screen: *screen, Tickets: tickets}, nil
}

func (s *OrderService) CashierBoard(ctx context.Context, p *rbac.Principal, branchID string) (*CashierBoard, error) {
	if err := rbac.Require(p, rbac.PermOrdersView); err != nil {
		return nil, err
	}
	if err := rbac.RequireBranch(p, branchID); err != nil {
		return nil, err
	}

	orders, err := s.DB.OrdersForBranch(ctx, branchID, []models.OrderStatus{models.OrderConfirmed, models.OrderServed})
	if err != nil {
		return nil, err
	}
	cards, err := s.buildCards(ctx, orders)
	if err != nil {
		return nil, err
	}

	board := &CashierBoard{BranchID: branchID, Confirmed: []OrderCard{}, Served: []OrderCard{}, OutstandingTotal: decimal.Zero}
	for _, c := range cards {
		if c.Order.OrderStatus == models.OrderServed {
			board.Served = append(board.Served, c)
			board.OutstandingTotal = board.OutstandingTotal.Add(c.Order.TotalAmount)
		} else {
			board.Confirmed = append(board.Confirmed, c)
		}
		if c.Order.ReceiptStatus == models.ReceiptPending {
			board.PendingReceipts++
		}
	}
	return board, nil
}

// Track is the customer-facing view behind a tracking token.
func (s *OrderService) Track(ctx context.Context, token string) (*Tracking, error) {
	order, err := s.DB.OrderByTrackingToken(ctx, token)
	if err != nil {
		return nil, err
	}
	items, err := s.DB.OrderItems(ctx, []string{order.ID})
	if err != nil {
		return nil, err
	}
	rows, err := s.DB.StatusesForOrders(ctx, []string{order.ID})
	if err != nil {
		return nil, err
	}

	return &Tracking{
		OrderID:           order.ID,
		OrderStatus:       order.OrderStatus,
		ReceiptStatus:     order.ReceiptStatus,
		DisapprovalReason: order.DisapprovalReason,
		PickupDate:        order.PickupDate.Format("2006-01-02 15:04"),
		Total:             order.TotalAmount,
		Items:             items,
		Progress:          kitchen.Summarize(rows),
		ReadyToServe:      order.OrderStatus == models.OrderConfirmed && kitchen.IsReadyToServe(rows),
	}, nil
}

// OrderDetail is a single staff card, scoped to the principal's branch.
func (s *OrderService) OrderDetail(ctx context.Context, p *rbac.Principal, orderID string) (*OrderCard, error) {
	order, err := s.loadForStaff(ctx, p, orderID, rbac.PermOrdersView)
	if err != nil {
		return nil, err
	}
	cards, err := s.buildCards(ctx, []models.Order{*order})
	if err != nil {
		return nil, err
	}
	return &cards[0], nil
}

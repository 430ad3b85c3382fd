package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"ms-ordering/internal/menu"
	"ms-ordering/internal/models"
	"ms-ordering/internal/notify"
	"ms-ordering/internal/order/db"
	orderkafka "ms-ordering/internal/order/kafka"
	"ms-ordering/internal/utils"
)

type ItemRequest struct {
	MenuItemID string `json:"menu_item_id"`
	Quantity   int    `json:"quantity"`
}

type PlaceOrderRequest struct {
	Source            models.SourceChannel `json:"source_channel"`
	CustomerName      string               `json:"customer_name"`
	Phone             string               `json:"phone"`
	PickupLocationID  string               `json:"pickup_location_id"`
	PickupDate        time.Time            `json:"pickup_date"`
	TableSessionToken string               `json:"table_session_token"`
	ReceiptURL        string               `json:"receipt_url"`
	NotifyWhenReady   bool                 `json:"notify_when_ready"`
	Items             []ItemRequest        `json:"items"`
}

type PlaceOrderResult struct {
	Order models.Order       `json:"order"`
	Items []models.OrderItem `json:"items"`
	// SessionVerified is false for orders from a table session staff have
	// not confirmed yet.
	SessionVerified bool `json:"session_verified"`
}

// PlaceOrder records a customer checkout in pending_confirmation.
func (s *OrderService) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*PlaceOrderResult, error) {
	if !req.Source.Valid() {
		return nil, utils.NewValidationError("source_channel", "source must be web, telegram or table")
	}
	req.CustomerName = strings.TrimSpace(req.CustomerName)
	if req.CustomerName == "" {
		return nil, utils.NewValidationError("customer_name", "name is required")
	}
	if err := notify.ValidatePhone(req.Phone); err != nil {
		return nil, err
	}
	quantities, err := mergeItems(req.Items)
	if err != nil {
		return nil, err
	}

	order := models.Order{
		ID:              utils.GenerateID(),
		SourceChannel:   req.Source,
		ReceiptURL:      strings.TrimSpace(req.ReceiptURL),
		ReceiptStatus:   models.ReceiptPending,
		OrderStatus:     models.OrderPendingConfirmation,
		TrackingToken:   utils.GenerateToken(),
		NotifyWhenReady: req.NotifyWhenReady,
		PickupDate:      req.PickupDate,
		CreatedAt:       s.now(),
		UpdatedAt:       s.now(),
	}
	if order.PickupDate.IsZero() {
		order.PickupDate = s.now()
	}

	verified := true
	if req.Source == models.SourceTable {
		session, table, err := s.resolveTable(ctx, req.TableSessionToken)
		if err != nil {
			return nil, err
		}
		order.DiningTableID = &table.ID
		order.TableSessionID = &session.ID
		order.PickupLocationID = table.PickupLocationID
		verified = session.Verified()
	} else {
		order.PickupLocationID = req.PickupLocationID
	}

	loc, err := s.DB.GetPickupLocation(ctx, order.PickupLocationID)
	if errors.Is(err, utils.ErrNotFound) || (err == nil && !loc.IsActive) {
		return nil, utils.NewValidationError("pickup_location_id", "unknown or inactive pickup location")
	}
	if err != nil {
		return nil, err
	}

	items, total, err := s.priceItems(ctx, order.ID, menu.ChannelForSource(req.Source), quantities)
	if err != nil {
		return nil, err
	}
	order.TotalAmount = total

	err = s.DB.RunInTx(ctx, func(ctx context.Context, tx *db.DB) error {
		customer, err := tx.FindOrCreateCustomer(ctx, &models.Customer{
			ID:        utils.GenerateID(),
			Name:      req.CustomerName,
			Phone:     notify.NormalizePhone(req.Phone),
			CreatedAt: s.now(),
		})
		if err != nil {
			return fmt.Errorf("customer: %w", err)
		}
		order.CustomerID = customer.ID
		return tx.InsertOrder(ctx, &order, items)
	})
	if err != nil {
		s.Logger.Error("ORDER", fmt.Sprintf("place order failed: %v", err))
		return nil, err
	}

	s.Logger.LogOrder("PLACED", order.ID, fmt.Sprintf("source=%s branch=%s total=%s", order.SourceChannel, order.PickupLocationID, order.TotalAmount.StringFixed(2)))
	if !verified {
		s.Logger.Warn("ORDER", fmt.Sprintf("order %s placed from unverified table session", order.ID))
	}
	s.announce(ctx, orderkafka.Event{Type: orderkafka.OrderPlaced, OrderID: order.ID, BranchID: order.PickupLocationID, Status: string(order.OrderStatus)})

	return &PlaceOrderResult{Order: order, Items: items, SessionVerified: verified}, nil
}

func mergeItems(reqs []ItemRequest) (map[string]int, error) {
	if len(reqs) == 0 {
		return nil, utils.NewValidationError("items", "order has no items")
	}
	out := make(map[string]int, len(reqs))
	for _, r := range reqs {
		if r.MenuItemID == "" {
			return nil, utils.NewValidationError("items", "menu_item_id is required")
		}
		if r.Quantity <= 0 {
			return nil, utils.NewValidationError("items", "quantity must be positive")
		}
		out[r.MenuItemID] += r.Quantity
	}
	return out, nil
}

func (s *OrderService) resolveTable(ctx context.Context, token string) (*models.TableSession, *models.DiningTable, error) {
	if strings.TrimSpace(token) == "" {
		return nil, nil, utils.NewValidationError("table_session_token", "table orders need a session")
	}
	session, err := s.DB.SessionByToken(ctx, token)
	if errors.Is(err, utils.ErrNotFound) {
		return nil, nil, utils.NewValidationError("table_session_token", "unknown table session")
	}
	if err != nil {
		return nil, nil, err
	}
	table, err := s.DB.GetDiningTable(ctx, session.DiningTableID)
	if err != nil {
		return nil, nil, err
	}
	return session, table, nil
}

// priceItems snapshots name and price of each requested item.
func (s *OrderService) priceItems(ctx context.Context, orderID, channel string, quantities map[string]int) ([]models.OrderItem, decimal.Decimal, error) {
	ids := make([]string, 0, len(quantities))
	for id := range quantities {
		ids = append(ids, id)
	}
	found, err := s.DB.MenuItemsByIDs(ctx, ids)
	if err != nil {
		return nil, decimal.Zero, err
	}
	byID := make(map[string]models.MenuItem, len(found))
	for _, m := range found {
		byID[m.ID] = m
	}

	total := decimal.Zero
	items := make([]models.OrderItem, 0, len(ids))
	for _, id := range ids {
		m, ok := byID[id]
		switch {
		case !ok:
			return nil, decimal.Zero, utils.NewValidationError("items", fmt.Sprintf("menu item %s does not exist", id))
		case !m.IsAvailable:
			return nil, decimal.Zero, utils.NewValidationError("items", fmt.Sprintf("%s is not available", m.Name))
		case !menu.VisibleOn(m, channel):
			return nil, decimal.Zero, utils.NewValidationError("items", fmt.Sprintf("%s is not offered on %s", m.Name, channel))
		}
		item := models.OrderItem{
			ID:         utils.GenerateID(),
			OrderID:    orderID,
			MenuItemID: m.ID,
			Name:       m.Name,
			UnitPrice:  m.Price,
			Quantity:   quantities[id],
		}
		total = total.Add(item.LineTotal())
		items = append(items, item)
	}
	return items, total, nil
}

package order

import (
	"context"
	"fmt"
	"strings"

	"ms-ordering/internal/models"
	"ms-ordering/internal/notify"
	orderkafka "ms-ordering/internal/order/kafka"
	"ms-ordering/internal/rbac"
	"ms-ordering/internal/utils"
)

// ApproveReceipt accepts the customer's payment receipt. A previously
// disapproved receipt may be approved after a re-upload.
func (s *OrderService) ApproveReceipt(ctx context.Context, p *rbac.Principal, orderID string) (*models.Order, error) {
	return s.reviewReceipt(ctx, p, orderID, models.ReceiptApproved, "")
}

// DisapproveReceipt rejects the receipt. reason is shown to the customer
// and must not be blank.
func (s *OrderService) DisapproveReceipt(ctx context.Context, p *rbac.Principal, orderID, reason string) (*models.Order, error) {
	return s.reviewReceipt(ctx, p, orderID, models.ReceiptDisapproved, reason)
}

func (s *OrderService) reviewReceipt(ctx context.Context, p *rbac.Principal, orderID string, target models.ReceiptStatus, reason string) (*models.Order, error) {
	if err := rbac.Require(p, rbac.PermReceiptsReview); err != nil {
		return nil, err
	}
	reason = strings.TrimSpace(reason)
	if target == models.ReceiptDisapproved && reason == "" {
		return nil, utils.NewValidationError("reason", "a reason is required to disapprove a receipt")
	}

	order, err := s.loadForStaff(ctx, p, orderID, rbac.PermReceiptsReview)
	if err != nil {
		return nil, err
	}
	if order.OrderStatus == models.OrderCancelled {
		return nil, ErrInvalidTransition
	}
	if order.ReceiptStatus == target {
		return nil, ErrReceiptAlreadyReviewed
	}

	var from []string
	for _, st := range []models.ReceiptStatus{models.ReceiptPending, models.ReceiptApproved, models.ReceiptDisapproved} {
		if st != target {
			from = append(from, string(st))
		}
	}

	now := s.now()
	order.ReceiptStatus = target
	order.DisapprovalReason = reason
	order.ReviewedBy = &p.UserID
	order.ReviewedAt = &now
	order.UpdatedAt = now

	ok, err := s.DB.GuardedUpdate(ctx, order, "receipt_status", from,
		"receipt_status", "disapproval_reason", "reviewed_by", "reviewed_at", "updated_at")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrReceiptAlreadyReviewed
	}

	s.Logger.LogOrder("RECEIPT", orderID, fmt.Sprintf("%s by %s", target, p.UserID))
	s.announce(ctx, orderkafka.Event{Type: orderkafka.ReceiptReviewed, OrderID: orderID, BranchID: order.PickupLocationID, Status: string(target), Actor: p.UserID})

	event := notify.EventReceiptApproved
	if target == models.ReceiptDisapproved {
		event = notify.EventReceiptDisapproved
	}
	s.notifyCustomer(ctx, order, event, reason)

	return order, nil
}

package order

import (
	"context"
	"fmt"
	"time"

	"ms-ordering/internal/kitchen"
	"ms-ordering/internal/logger"
	"ms-ordering/internal/models"
	"ms-ordering/internal/notify"
	"ms-ordering/internal/order/db"
	orderkafka "ms-ordering/internal/order/kafka"
	"ms-ordering/internal/sse"
)

type Locker interface {
	Lock(ctx context.Context, orderID, owner string) (bool, error)
	Unlock(ctx context.Context, orderID, owner string) error
}

type EventPublisher interface {
	Publish(ctx context.Context, ev orderkafka.Event) error
}

type Notifier interface {
	Notify(ctx context.Context, msg notify.Message) models.SmsStatus
}

type BoardEmitter interface {
	Emit(ev sse.BoardEvent)
}

type OrderService struct {
	DB       *db.DB
	Lock     Locker
	Events   EventPublisher
	Notifier Notifier
	Boards   BoardEmitter
	Logger   *logger.Logger
	Policy   kitchen.TimestampPolicy
	now      func() time.Time
}

func NewOrderService(store *db.DB, lock Locker, events EventPublisher, notifier Notifier, boards BoardEmitter, log *logger.Logger, policy kitchen.TimestampPolicy) *OrderService {
	return &OrderService{
		DB:       store,
		Lock:     lock,
		Events:   events,
		Notifier: notifier,
		Boards:   boards,
		Logger:   log,
		Policy:   policy,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// announce publishes the domain event and refreshes local boards. Publish
// failures are logged only; the database is the source of truth.
func (s *OrderService) announce(ctx context.Context, ev orderkafka.Event) {
	ev.OccurredAt = s.now()
	if err := s.Events.Publish(ctx, ev); err != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("publish %s for order %s: %v", ev.Type, ev.OrderID, err))
	}
	s.Boards.Emit(ev.BoardEvent())
}

// withOrderLock runs fn while holding the distributed lock for orderID.
func (s *OrderService) withOrderLock(ctx context.Context, orderID, actor string, fn func() error) error {
	owner := actor + ":" + s.now().Format(time.RFC3339Nano)
	ok, err := s.Lock.Lock(ctx, orderID, owner)
	if err != nil {
		return fmt.Errorf("order lock: %w", err)
	}
	if !ok {
		return ErrOrderBusy
	}
	defer func() {
		if err := s.Lock.Unlock(context.Background(), orderID, owner); err != nil {
			s.Logger.Warn("REDIS", fmt.Sprintf("unlock order %s: %v", orderID, err))
		}
	}()
	return fn()
}

func (s *OrderService) notifyCustomer(ctx context.Context, order *models.Order, event notify.Event, reason string) {
	customer, err := s.DB.GetCustomer(ctx, order.CustomerID)
	if err != nil {
		s.Logger.Error("SMS", fmt.Sprintf("load customer for order %s: %v", order.ID, err))
		return
	}
	s.Notifier.Notify(ctx, notify.Message{
		Event:         event,
		OrderID:       order.ID,
		Phone:         customer.Phone,
		CustomerName:  customer.Name,
		TrackingToken: order.TrackingToken,
		Reason:        reason,
	})
}

func (s *OrderService) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	return s.DB.GetOrder(ctx, id)
}

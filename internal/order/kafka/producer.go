package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ms-ordering/internal/logger"
	"ms-ordering/internal/sse"
)

type EventType string

const (
	OrderPlaced          EventType = "order.placed"
	OrderConfirmed       EventType = "order.confirmed"
	OrderServed          EventType = "order.served"
	OrderCompleted       EventType = "order.completed"
	OrderCancelled       EventType = "order.cancelled"
	KitchenStatusChanged EventType = "kitchen.status_changed"
	ReceiptReviewed      EventType = "receipt.reviewed"
)

var AllEventTypes = []EventType{
	OrderPlaced, OrderConfirmed, OrderServed, OrderCompleted, OrderCancelled,
	KitchenStatusChanged, ReceiptReviewed,
}

var boardKinds = map[EventType]sse.BoardEventKind{
	OrderPlaced:          sse.KindOrderPlaced,
	OrderConfirmed:       sse.KindOrderConfirmed,
	OrderServed:          sse.KindOrderServed,
	OrderCompleted:       sse.KindOrderCompleted,
	OrderCancelled:       sse.KindOrderCancelled,
	KitchenStatusChanged: sse.KindKitchenStatus,
	ReceiptReviewed:      sse.KindReceiptReviewed,
}

func Topic(prefix string, t EventType) string {
	if prefix == "" {
		return string(t)
	}
	return prefix + "." + string(t)
}

func Topics(prefix string) []string {
	out := make([]string, 0, len(AllEventTypes))
	for _, t := range AllEventTypes {
		out = append(out, Topic(prefix, t))
	}
	return out
}

// Event is the payload written for every order workflow change.
type Event struct {
	Type       EventType `json:"type"`
	OrderID    string    `json:"order_id"`
	BranchID   string    `json:"branch_id"`
	ScreenID   string    `json:"screen_id,omitempty"`
	Status     string    `json:"status,omitempty"`
	Actor      string    `json:"actor,omitempty"`
	Origin     string    `json:"origin"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (e Event) BoardEvent() sse.BoardEvent {
	return sse.BoardEvent{
		Kind:     boardKinds[e.Type],
		BranchID: e.BranchID,
		OrderID:  e.OrderID,
		ScreenID: e.ScreenID,
		At:       e.OccurredAt,
	}
}

func Decode(value []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(value, &ev); err != nil {
		return ev, fmt.Errorf("decode event: %w", err)
	}
	if _, ok := boardKinds[ev.Type]; !ok {
		return ev, fmt.Errorf("unknown event type %q", ev.Type)
	}
	return ev, nil
}

// Writer is satisfied by the shared kafka producer.
type Writer interface {
	Publish(ctx context.Context, topic, key string, value []byte) error
}

type Publisher struct {
	writer Writer
	prefix string
	origin string
}

// NewPublisher tags every event with origin so instances can ignore their
// own events when relaying.
func NewPublisher(w Writer, prefix, origin string) *Publisher {
	return &Publisher{writer: w, prefix: prefix, origin: origin}
}

func (p *Publisher) Publish(ctx context.Context, ev Event) error {
	ev.Origin = p.origin
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	raw, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.writer.Publish(ctx, Topic(p.prefix, ev.Type), ev.OrderID, raw)
}

// LogPublisher stands in when Kafka is disabled.
type LogPublisher struct {
	Log *logger.Logger
}

func (p LogPublisher) Publish(_ context.Context, ev Event) error {
	p.Log.LogKafka("DISABLED", string(ev.Type), ev.OrderID)
	return nil
}

// BoardRelay turns events from other instances into local board events.
func BoardRelay(origin string, emitter *sse.BoardEventEmitter) func(topic string, key, value []byte) error {
	return func(_ string, _, value []byte) error {
		ev, err := Decode(value)
		if err != nil {
			return err
		}
		if ev.Origin == origin {
			return nil
		}
		emitter.Emit(ev.BoardEvent())
		return nil
	}
}

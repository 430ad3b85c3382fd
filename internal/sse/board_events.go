package sse

import (
	"context"
	"sync"
	"time"
)

type BoardEventKind string

const (
	KindOrderPlaced     BoardEventKind = "order_placed"
	KindOrderConfirmed  BoardEventKind = "order_confirmed"
	KindOrderServed     BoardEventKind = "order_served"
	KindOrderCompleted  BoardEventKind = "order_completed"
	KindOrderCancelled  BoardEventKind = "order_cancelled"
	KindKitchenStatus   BoardEventKind = "kitchen_status"
	KindReceiptReviewed BoardEventKind = "receipt_reviewed"
)

// BoardEvent tells screens of a branch to reload. It carries no board data;
// boards are always recomputed on load.
type BoardEvent struct {
	Kind     BoardEventKind `json:"kind"`
	BranchID string         `json:"branch_id"`
	OrderID  string         `json:"order_id,omitempty"`
	ScreenID string         `json:"screen_id,omitempty"`
	At       time.Time      `json:"at"`
}

// BoardEventEmitter fans board events out to subscribed SSE clients, keyed
// by branch.
type BoardEventEmitter struct {
	mu      sync.RWMutex
	clients map[string][]chan BoardEvent
}

func NewBoardEventEmitter() *BoardEventEmitter {
	return &BoardEventEmitter{clients: make(map[string][]chan BoardEvent)}
}

// Subscribe registers a client for branchID until ctx is done. The returned
// channel is closed on unsubscribe.
func (e *BoardEventEmitter) Subscribe(ctx context.Context, branchID string) <-chan BoardEvent {
	ch := make(chan BoardEvent, 16)

	e.mu.Lock()
	e.clients[branchID] = append(e.clients[branchID], ch)
	e.mu.Unlock()

	go func() {
		<-ctx.Done()
		e.remove(branchID, ch)
	}()
	return ch
}

// Emit never blocks; a client with a full buffer misses the event and picks
// up the state on its next reload.
func (e *BoardEventEmitter) Emit(ev BoardEvent) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, ch := range e.clients[ev.BranchID] {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (e *BoardEventEmitter) remove(branchID string, target chan BoardEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()

	clients := e.clients[branchID]
	for i, ch := range clients {
		if ch == target {
			e.clients[branchID] = append(clients[:i], clients[i+1:]...)
			close(target)
			break
		}
	}
	if len(e.clients[branchID]) == 0 {
		delete(e.clients, branchID)
	}
}

func (e *BoardEventEmitter) ClientCount(branchID string) int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.clients[branchID])
}

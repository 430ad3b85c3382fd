package sse

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitter_RoutesByBranch(t *testing.T) {
	e := NewBoardEventEmitter()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b1 := e.Subscribe(ctx, "b1")
	b2 := e.Subscribe(ctx, "b2")

	e.Emit(BoardEvent{Kind: KindKitchenStatus, BranchID: "b1", OrderID: "o1"})

	select {
	case ev := <-b1:
		assert.Equal(t, "o1", ev.OrderID)
		assert.False(t, ev.At.IsZero())
	case <-time.After(time.Second):
		t.Fatal("b1 subscriber got nothing")
	}

	select {
	case ev := <-b2:
		t.Fatalf("b2 should not receive %v", ev)
	default:
	}
}

func TestEmitter_UnsubscribeOnCancel(t *testing.T) {
	e := NewBoardEventEmitter()
	ctx, cancel := context.WithCancel(context.Background())

	ch := e.Subscribe(ctx, "b1")
	require.Equal(t, 1, e.ClientCount("b1"))

	cancel()
	_, open := <-ch
	assert.False(t, open)
	assert.Equal(t, 0, e.ClientCount("b1"))
}

func TestEmitter_SlowClientDoesNotBlock(t *testing.T) {
	e := NewBoardEventEmitter()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	e.Subscribe(ctx, "b1")

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			e.Emit(BoardEvent{Kind: KindOrderPlaced, BranchID: "b1"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("emit blocked on a full client")
	}
}

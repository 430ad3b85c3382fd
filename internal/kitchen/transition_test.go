package kitchen

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-ordering/internal/models"
)

var (
	t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	t1 = t0.Add(5 * time.Minute)
	t2 = t0.Add(12 * time.Minute)
)

func pendingRow() models.OrderScreenStatus {
	return models.OrderScreenStatus{ID: "s1", OrderID: "o1", BranchScreenID: "k1", Status: models.KitchenPending, Version: 1}
}

func TestTransition_RejectsUnknownStatus(t *testing.T) {
	_, err := Transition(pendingRow(), models.KitchenStatus("burnt"), "u1", t0, TimestampPolicy{})
	require.Error(t, err)
	assert.True(t, IsInvalidStatus(err))
}

func TestTransition_PreparingStampsOnce(t *testing.T) {
	row, err := Transition(pendingRow(), models.KitchenPreparing, "u1", t0, TimestampPolicy{})
	require.NoError(t, err)
	require.NotNil(t, row.PreparingStartedAt)
	assert.Equal(t, t0, *row.PreparingStartedAt)

	row, err = Transition(row, models.KitchenPreparing, "u2", t1, TimestampPolicy{})
	require.NoError(t, err)
	assert.Equal(t, t0, *row.PreparingStartedAt)
	assert.Equal(t, "u2", *row.UpdatedBy)
}

func TestTransition_PreparedStampsActorAndTime(t *testing.T) {
	row, err := Transition(pendingRow(), models.KitchenPrepared, "cook", t1, TimestampPolicy{})
	require.NoError(t, err)

	assert.Equal(t, models.KitchenPrepared, row.Status)
	require.NotNil(t, row.PreparedAt)
	assert.Equal(t, t1, *row.PreparedAt)
	require.NotNil(t, row.PreparingStartedAt)
	assert.Equal(t, "cook", *row.UpdatedBy)
}

func TestTransition_RevertKeepsTimestampsByDefault(t *testing.T) {
	row, _ := Transition(pendingRow(), models.KitchenPreparing, "u1", t0, TimestampPolicy{})
	row, _ = Transition(row, models.KitchenPrepared, "u1", t1, TimestampPolicy{})

	reverted, err := Transition(row, models.KitchenPending, "u1", t2, TimestampPolicy{})
	require.NoError(t, err)

	assert.Equal(t, models.KitchenPending, reverted.Status)
	assert.NotNil(t, reverted.PreparingStartedAt)
	assert.NotNil(t, reverted.PreparedAt)
}

func TestTransition_RevertClearsWhenConfigured(t *testing.T) {
	policy := TimestampPolicy{ClearOnRevert: true}
	row, _ := Transition(pendingRow(), models.KitchenPreparing, "u1", t0, policy)
	row, _ = Transition(row, models.KitchenPrepared, "u1", t1, policy)

	back, err := Transition(row, models.KitchenPreparing, "u1", t2, policy)
	require.NoError(t, err)
	assert.Nil(t, back.PreparedAt)
	assert.Equal(t, t0, *back.PreparingStartedAt)

	reset, err := Transition(back, models.KitchenPending, "u1", t2, policy)
	require.NoError(t, err)
	assert.Nil(t, reset.PreparingStartedAt)
	assert.Nil(t, reset.PreparedAt)
}

func TestTransition_DoesNotMutateInput(t *testing.T) {
	in := pendingRow()
	_, err := Transition(in, models.KitchenPrepared, "u1", t0, TimestampPolicy{})
	require.NoError(t, err)
	assert.Equal(t, models.KitchenPending, in.Status)
	assert.Nil(t, in.PreparedAt)
}

package kitchen

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ms-ordering/internal/models"
)

func row(orderID string, s models.KitchenStatus) models.OrderScreenStatus {
	return models.OrderScreenStatus{OrderID: orderID, Status: s}
}

func TestIsReadyToServe(t *testing.T) {
	assert.True(t, IsReadyToServe(nil))
	assert.True(t, IsReadyToServe([]models.OrderScreenStatus{row("o", models.KitchenPrepared)}))
	assert.False(t, IsReadyToServe([]models.OrderScreenStatus{
		row("o", models.KitchenPrepared),
		row("o", models.KitchenPreparing),
	}))
	assert.False(t, IsReadyToServe([]models.OrderScreenStatus{row("o", models.KitchenPending)}))
}

func TestReadinessByOrder(t *testing.T) {
	rows := []models.OrderScreenStatus{
		row("o1", models.KitchenPrepared),
		row("o1", models.KitchenPrepared),
		row("o2", models.KitchenPrepared),
		row("o2", models.KitchenPending),
	}

	got := ReadinessByOrder([]string{"o1", "o2", "o3"}, rows)

	assert.Equal(t, map[string]bool{"o1": true, "o2": false, "o3": true}, got)
}

func TestSummarize(t *testing.T) {
	p := Summarize([]models.OrderScreenStatus{
		row("o", models.KitchenPending),
		row("o", models.KitchenPrepared),
		row("o", models.KitchenPrepared),
	})
	assert.Equal(t, Progress{Pending: 1, Prepared: 2}, p)
}

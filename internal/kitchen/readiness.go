package kitchen

import "ms-ordering/internal/models"

// IsReadyToServe is true when every row is prepared. An order with no rows
// has no kitchen obligations and is ready.
func IsReadyToServe(rows []models.OrderScreenStatus) bool {
	for _, r := range rows {
		if r.Status != models.KitchenPrepared {
			return false
		}
	}
	return true
}

func ReadinessByOrder(orderIDs []string, rows []models.OrderScreenStatus) map[string]bool {
	byOrder := GroupByOrder(rows)
	out := make(map[string]bool, len(orderIDs))
	for _, id := range orderIDs {
		out[id] = IsReadyToServe(byOrder[id])
	}
	return out
}

func GroupByOrder(rows []models.OrderScreenStatus) map[string][]models.OrderScreenStatus {
	out := make(map[string][]models.OrderScreenStatus)
	for _, r := range rows {
		out[r.OrderID] = append(out[r.OrderID], r)
	}
	return out
}

// Progress counts rows per status, for board badges.
type Progress struct {
	Pending   int `json:"pending"`
	Preparing int `json:"preparing"`
	Prepared  int `json:"prepared"`
}

func Summarize(rows []models.OrderScreenStatus) Progress {
	var p Progress
	for _, r := range rows {
		switch r.Status {
		case models.KitchenPending:
			p.Pending++
		case models.KitchenPreparing:
			p.Preparing++
		case models.KitchenPrepared:
			p.Prepared++
		}
	}
	return p
}

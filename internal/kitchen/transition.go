package kitchen

import (
	"errors"
	"fmt"
	"time"

	"ms-ordering/internal/models"
	"ms-ordering/internal/utils"
)

var (
	ErrInvalidStatus = utils.NewValidationError("status", "status must be pending, preparing or prepared")
	ErrStaleStatus   = fmt.Errorf("%w: status row was changed by someone else", utils.ErrConflict)
)

// TimestampPolicy decides what happens to preparation timestamps when a row
// moves backwards.
type TimestampPolicy struct {
	ClearOnRevert bool
}

// Transition applies target to row. Any jump between the three states is
// allowed, including reversals.
func Transition(row models.OrderScreenStatus, target models.KitchenStatus, actorID string, now time.Time, policy TimestampPolicy) (models.OrderScreenStatus, error) {
	if !target.Valid() {
		return row, ErrInvalidStatus
	}

	from := row.Status
	switch target {
	case models.KitchenPending:
		if policy.ClearOnRevert {
			row.PreparingStartedAt = nil
			row.PreparedAt = nil
		}
	case models.KitchenPreparing:
		if row.PreparingStartedAt == nil {
			row.PreparingStartedAt = timePtr(now)
		}
		if policy.ClearOnRevert && from == models.KitchenPrepared {
			row.PreparedAt = nil
		}
	case models.KitchenPrepared:
		if row.PreparingStartedAt == nil {
			row.PreparingStartedAt = timePtr(now)
		}
		row.PreparedAt = timePtr(now)
	}

	row.Status = target
	if actorID != "" {
		row.UpdatedBy = &actorID
	}
	row.UpdatedAt = now
	return row, nil
}

func IsInvalidStatus(err error) bool {
	return errors.Is(err, ErrInvalidStatus)
}

func timePtr(t time.Time) *time.Time {
	return &t
}

package order

import (
	"fmt"

	"ms-ordering/internal/utils"
)

var (
	ErrOrderBusy              = fmt.Errorf("%w: order is being updated by another request", utils.ErrConflict)
	ErrInvalidTransition      = fmt.Errorf("%w: order is not in a state that allows this action", utils.ErrConflict)
	ErrNotReady               = fmt.Errorf("%w: kitchen has not finished this order", utils.ErrConflict)
	ErrReceiptAlreadyReviewed = fmt.Errorf("%w: receipt already has this review status", utils.ErrConflict)
	ErrNotAssigned            = fmt.Errorf("%w: user is not assigned to this screen", utils.ErrForbidden)
	ErrNotKitchenScreen       = utils.NewValidationError("screen_id", "screen is not a kitchen screen")
)

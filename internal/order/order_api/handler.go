package order_api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-ordering/internal/logger"
	"ms-ordering/internal/models"
	"ms-ordering/internal/order"
	"ms-ordering/internal/rbac"
	"ms-ordering/internal/utils"
)

type Handler struct {
	OrderService *order.OrderService
	Logger       *logger.Logger
}

func NewHandler(orderService *order.OrderService, log *logger.Logger) *Handler {
	return &Handler{OrderService: orderService, Logger: log}
}

// RegisterPublic mounts the customer endpoints. They need no staff token.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Post("/orders", h.PlaceOrder)
	r.Get("/orders/track/{token}", h.TrackOrder)
}

// RegisterStaff mounts the staff endpoints. The router must already carry
// the auth and rbac middleware.
func (h *Handler) RegisterStaff(r chi.Router) {
	r.Route("/orders/{orderId}", func(r chi.Router) {
		r.Get("/", h.GetOrder)
		r.Post("/confirm", h.ConfirmOrder)
		r.Post("/serve", h.MarkServed)
		r.Post("/complete", h.CompleteOrder)
		r.Post("/cancel", h.CancelOrder)
		r.Post("/receipt/approve", h.ApproveReceipt)
		r.Post("/receipt/disapprove", h.DisapproveReceipt)
	})
	r.Patch("/screen-statuses/{statusId}", h.UpdateScreenStatus)
	r.Get("/branches/{branchID}/waiter-board", h.WaiterBoard)
	r.Get("/branches/{branchID}/cashier-board", h.CashierBoard)
	r.Get("/screens/{screenID}/kitchen-board", h.KitchenBoard)
}

func (h *Handler) fail(w http.ResponseWriter, op, message string, err error) {
	status := utils.WriteError(w, message, err)
	if status >= http.StatusInternalServerError {
		h.Logger.Error("API", fmt.Sprintf("%s: %v", op, err))
		return
	}
	h.Logger.Warn("API", fmt.Sprintf("%s: %d %v", op, status, err))
}

func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req order.PlaceOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.fail(w, "PlaceOrder", "Invalid request body", utils.NewValidationError("body", err.Error()))
		return
	}

	result, err := h.OrderService.PlaceOrder(r.Context(), req)
	if err != nil {
		h.fail(w, "PlaceOrder", "Could not place order", err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, utils.SuccessResponse("Order placed", result))
}

func (h *Handler) TrackOrder(w http.ResponseWriter, r *http.Request) {
	tracking, err := h.OrderService.Track(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		h.fail(w, "TrackOrder", "Order not found", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Order status", tracking))
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	card, err := h.OrderService.OrderDetail(r.Context(), rbac.FromContext(r.Context()), chi.URLParam(r, "orderId"))
	if err != nil {
		h.fail(w, "GetOrder", "Could not load order", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Order", card))
}

func (h *Handler) ConfirmOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")
	result, err := h.OrderService.ConfirmOrder(r.Context(), rbac.FromContext(r.Context()), orderID)
	if err != nil {
		h.fail(w, "ConfirmOrder", "Could not confirm order", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Order confirmed", result))
}

func (h *Handler) MarkServed(w http.ResponseWriter, r *http.Request) {
	o, err := h.OrderService.MarkServed(r.Context(), rbac.FromContext(r.Context()), chi.URLParam(r, "orderId"))
	if err != nil {
		h.fail(w, "MarkServed", "Could not mark order served", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Order served", o))
}

func (h *Handler) CompleteOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.OrderService.CompleteOrder(r.Context(), rbac.FromContext(r.Context()), chi.URLParam(r, "orderId"))
	if err != nil {
		h.fail(w, "CompleteOrder", "Could not complete order", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Order completed", o))
}

func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.OrderService.CancelOrder(r.Context(), rbac.FromContext(r.Context()), chi.URLParam(r, "orderId"))
	if err != nil {
		h.fail(w, "CancelOrder", "Could not cancel order", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Order cancelled", o))
}

func (h *Handler) ApproveReceipt(w http.ResponseWriter, r *http.Request) {
	o, err := h.OrderService.ApproveReceipt(r.Context(), rbac.FromContext(r.Context()), chi.URLParam(r, "orderId"))
	if err != nil {
		h.fail(w, "ApproveReceipt", "Could not approve receipt", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Receipt approved", o))
}

func (h *Handler) DisapproveReceipt(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.fail(w, "DisapproveReceipt", "Invalid request body", utils.NewValidationError("body", err.Error()))
		return
	}

	o, err := h.OrderService.DisapproveReceipt(r.Context(), rbac.FromContext(r.Context()), chi.URLParam(r, "orderId"), body.Reason)
	if err != nil {
		h.fail(w, "DisapproveReceipt", "Could not disapprove receipt", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Receipt disapproved", o))
}

func (h *Handler) UpdateScreenStatus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status          models.KitchenStatus `json:"status"`
		ExpectedVersion int                  `json:"expected_version"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.fail(w, "UpdateScreenStatus", "Invalid request body", utils.NewValidationError("body", err.Error()))
		return
	}

	result, err := h.OrderService.UpdateScreenStatus(r.Context(), rbac.FromContext(r.Context()), chi.URLParam(r, "statusId"), body.Status, body.ExpectedVersion)
	if err != nil {
		h.fail(w, "UpdateScreenStatus", "Could not update kitchen status", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Kitchen status updated", result))
}

func (h *Handler) WaiterBoard(w http.ResponseWriter, r *http.Request) {
	board, err := h.OrderService.WaiterBoard(r.Context(), rbac.FromContext(r.Context()), chi.URLParam(r, "branchID"))
	if err != nil {
		h.fail(w, "WaiterBoard", "Could not load waiter board", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Waiter board", board))
}

func (h *Handler) CashierBoard(w http.ResponseWriter, r *http.Request) {
	board, err := h.OrderService.CashierBoard(r.Context(), rbac.FromContext(r.Context()), chi.URLParam(r, "branchID"))
	if err != nil {
		h.fail(w, "CashierBoard", "Could not load cashier board", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Cashier board", board))
}

func (h *Handler) KitchenBoard(w http.ResponseWriter, r *http.Request) {
	board, err := h.OrderService.KitchenBoard(r.Context(), rbac.FromContext(r.Context()), chi.URLParam(r, "screenID"))
	if err != nil {
		h.fail(w, "KitchenBoard", "Could not load kitchen board", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Kitchen board", board))
}

package menu_api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-ordering/internal/logger"
	"ms-ordering/internal/menu"
	"ms-ordering/internal/rbac"
	"ms-ordering/internal/utils"
)

type Handler struct {
	MenuService *menu.Service
	Logger      *logger.Logger
}

func NewHandler(svc *menu.Service, log *logger.Logger) *Handler {
	return &Handler{MenuService: svc, Logger: log}
}

func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/menu", h.ListMenu)
}

func (h *Handler) RegisterStaff(r chi.Router) {
	r.Post("/menu", h.CreateItem)
	r.Patch("/menu/{itemID}", h.UpdateItem)
}

func (h *Handler) ListMenu(w http.ResponseWriter, r *http.Request) {
	items, err := h.MenuService.List(r.Context(), r.URL.Query().Get("channel"))
	if err != nil {
		if utils.WriteError(w, "Could not load menu", err) >= http.StatusInternalServerError {
			h.Logger.Error("API", fmt.Sprintf("ListMenu: %v", err))
		}
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Menu", items))
}

func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req menu.CreateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, "Invalid request body", utils.NewValidationError("body", err.Error()))
		return
	}

	item, err := h.MenuService.CreateItem(r.Context(), rbac.FromContext(r.Context()), req)
	if err != nil {
		if utils.WriteError(w, "Could not create menu item", err) >= http.StatusInternalServerError {
			h.Logger.Error("API", fmt.Sprintf("CreateItem: %v", err))
		}
		return
	}
	utils.WriteJSON(w, http.StatusCreated, utils.SuccessResponse("Menu item created", item))
}

func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var req menu.UpdateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, "Invalid request body", utils.NewValidationError("body", err.Error()))
		return
	}

	item, err := h.MenuService.UpdateItem(r.Context(), rbac.FromContext(r.Context()), chi.URLParam(r, "itemID"), req)
	if err != nil {
		if utils.WriteError(w, "Could not update menu item", err) >= http.StatusInternalServerError {
			h.Logger.Error("API", fmt.Sprintf("UpdateItem: %v", err))
		}
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Menu item updated", item))
}

package screen_api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-ordering/internal/logger"
	"ms-ordering/internal/rbac"
	"ms-ordering/internal/screen"
	"ms-ordering/internal/utils"
)

type Handler struct {
	ScreenService *screen.Service
	Logger        *logger.Logger
}

func NewHandler(svc *screen.Service, log *logger.Logger) *Handler {
	return &Handler{ScreenService: svc, Logger: log}
}

// RegisterStaff mounts the screen endpoints under an authenticated router.
func (h *Handler) RegisterStaff(r chi.Router) {
	r.Get("/branches/{branchID}/screens", h.ListScreens)
	r.Get("/me/screens", h.MyScreens)
	r.Post("/screens", h.CreateScreen)
	r.Put("/screens/{screenID}/menu-items", h.SetRouting)
	r.Put("/screens/{screenID}/users", h.AssignUsers)
	r.Put("/screens/{screenID}/active", h.SetActive)
}

func (h *Handler) fail(w http.ResponseWriter, op, message string, err error) {
	if utils.WriteError(w, message, err) >= http.StatusInternalServerError {
		h.Logger.Error("API", fmt.Sprintf("%s: %v", op, err))
	}
}

func (h *Handler) ListScreens(w http.ResponseWriter, r *http.Request) {
	screens, err := h.ScreenService.List(r.Context(), rbac.FromContext(r.Context()), chi.URLParam(r, "branchID"))
	if err != nil {
		h.fail(w, "ListScreens", "Could not list screens", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Screens", screens))
}

func (h *Handler) MyScreens(w http.ResponseWriter, r *http.Request) {
	screens, err := h.ScreenService.Mine(r.Context(), rbac.FromContext(r.Context()))
	if err != nil {
		h.fail(w, "MyScreens", "Could not list screens", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Screens", screens))
}

func (h *Handler) CreateScreen(w http.ResponseWriter, r *http.Request) {
	var req screen.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.fail(w, "CreateScreen", "Invalid request body", utils.NewValidationError("body", err.Error()))
		return
	}
	created, err := h.ScreenService.Create(r.Context(), rbac.FromContext(r.Context()), req)
	if err != nil {
		h.fail(w, "CreateScreen", "Could not create screen", err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, utils.SuccessResponse("Screen created", created))
}

func (h *Handler) SetRouting(w http.ResponseWriter, r *http.Request) {
	var body struct {
		MenuItemIDs []string `json:"menu_item_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.fail(w, "SetRouting", "Invalid request body", utils.NewValidationError("body", err.Error()))
		return
	}
	detail, err := h.ScreenService.SetRouting(r.Context(), rbac.FromContext(r.Context()), chi.URLParam(r, "screenID"), body.MenuItemIDs)
	if err != nil {
		h.fail(w, "SetRouting", "Could not set routing", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Routing updated", detail))
}

func (h *Handler) AssignUsers(w http.ResponseWriter, r *http.Request) {
	var body struct {
		UserIDs []string `json:"user_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.fail(w, "AssignUsers", "Invalid request body", utils.NewValidationError("body", err.Error()))
		return
	}
	detail, err := h.ScreenService.AssignUsers(r.Context(), rbac.FromContext(r.Context()), chi.URLParam(r, "screenID"), body.UserIDs)
	if err != nil {
		h.fail(w, "AssignUsers", "Could not assign users", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Users assigned", detail))
}

func (h *Handler) SetActive(w http.ResponseWriter, r *http.Request) {
	var body struct {
		IsActive bool `json:"is_active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.fail(w, "SetActive", "Invalid request body", utils.NewValidationError("body", err.Error()))
		return
	}
	updated, err := h.ScreenService.SetActive(r.Context(), rbac.FromContext(r.Context()), chi.URLParam(r, "screenID"), body.IsActive)
	if err != nil {
		h.fail(w, "SetActive", "Could not update screen", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Screen updated", updated))
}

package tablesession_api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-ordering/internal/logger"
	"ms-ordering/internal/rbac"
	"ms-ordering/internal/tablesession"
	"ms-ordering/internal/utils"
)

type Handler struct {
	Sessions *tablesession.Service
	Logger   *logger.Logger
}

func NewHandler(svc *tablesession.Service, log *logger.Logger) *Handler {
	return &Handler{Sessions: svc, Logger: log}
}

func (h *Handler) RegisterPublic(r chi.Router) {
	r.Post("/tables/{qrToken}/sessions", h.StartSession)
	r.Post("/table-sessions/{token}/touch", h.TouchSession)
}

func (h *Handler) RegisterStaff(r chi.Router) {
	r.Get("/branches/{branchID}/table-sessions/unverified", h.ListUnverified)
	r.Post("/table-sessions/{sessionID}/verify", h.VerifySession)
}

func (h *Handler) fail(w http.ResponseWriter, op, message string, err error) {
	if utils.WriteError(w, message, err) >= http.StatusInternalServerError {
		h.Logger.Error("API", fmt.Sprintf("%s: %v", op, err))
	}
}

func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	res, err := h.Sessions.Start(r.Context(), chi.URLParam(r, "qrToken"))
	if err != nil {
		h.fail(w, "StartSession", "Could not start table session", err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, utils.SuccessResponse("Session started", res))
}

func (h *Handler) TouchSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.Sessions.Touch(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		h.fail(w, "TouchSession", "Unknown table session", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Session active", sess))
}

func (h *Handler) VerifySession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.Sessions.Verify(r.Context(), rbac.FromContext(r.Context()), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.fail(w, "VerifySession", "Could not verify session", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Session verified", sess))
}

func (h *Handler) ListUnverified(w http.ResponseWriter, r *http.Request) {
	list, err := h.Sessions.ListUnverified(r.Context(), rbac.FromContext(r.Context()), chi.URLParam(r, "branchID"))
	if err != nil {
		h.fail(w, "ListUnverified", "Could not list sessions", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Unverified sessions", list))
}

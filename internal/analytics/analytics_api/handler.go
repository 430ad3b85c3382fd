package analytics_api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"ms-ordering/internal/analytics"
	"ms-ordering/internal/logger"
	"ms-ordering/internal/rbac"
	"ms-ordering/internal/utils"
)

const (
	dateLayout    = "2006-01-02"
	defaultPeriod = 7 * 24 * time.Hour
)

// Handler handles analytics HTTP endpoints
type Handler struct {
	Service *analytics.Service
	Logger  *logger.Logger
	now     func() time.Time
}

func NewHandler(service *analytics.Service, log *logger.Logger) *Handler {
	return &Handler{Service: service, Logger: log, now: time.Now}
}

func (h *Handler) RegisterStaff(r chi.Router) {
	r.With(rbac.RequirePermission(rbac.PermReportsView)).Get("/branches/{branchID}/sales", h.GetBranchSales)
}

// GetBranchSales serves ?from=YYYY-MM-DD&to=YYYY-MM-DD. Both days are
// inclusive; the default is the last seven days.
func (h *Handler) GetBranchSales(w http.ResponseWriter, r *http.Request) {
	from, to, err := h.period(r)
	if err != nil {
		utils.WriteError(w, "Invalid period", err)
		return
	}

	summary, err := h.Service.BranchSales(r.Context(), rbac.FromContext(r.Context()), chi.URLParam(r, "branchID"), from, to)
	if err != nil {
		status := utils.WriteError(w, "Could not load sales", err)
		if status >= http.StatusInternalServerError {
			h.Logger.Error("ANALYTICS", fmt.Sprintf("branch sales: %v", err))
		}
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Branch sales", summary))
}

func (h *Handler) period(r *http.Request) (time.Time, time.Time, error) {
	today := h.now().UTC().Truncate(24 * time.Hour)
	to := today.Add(24 * time.Hour)
	from := to.Add(-defaultPeriod)

	if v := r.URL.Query().Get("to"); v != "" {
		day, err := time.Parse(dateLayout, v)
		if err != nil {
			return from, to, utils.NewValidationError("to", "expected YYYY-MM-DD")
		}
		to = day.Add(24 * time.Hour)
		from = to.Add(-defaultPeriod)
	}
	if v := r.URL.Query().Get("from"); v != "" {
		day, err := time.Parse(dateLayout, v)
		if err != nil {
			return from, to, utils.NewValidationError("from", "expected YYYY-MM-DD")
		}
		from = day
	}
	return from, to, nil
}

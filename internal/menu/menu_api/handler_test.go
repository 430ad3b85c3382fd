package menu_api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-ordering/internal/database"
	"ms-ordering/internal/logger"
	"ms-ordering/internal/menu"
	"ms-ordering/internal/menu/db"
	"ms-ordering/internal/rbac"
	"ms-ordering/internal/utils"
)

func newRouter(t *testing.T, p *rbac.Principal) chi.Router {
	bunDB, err := database.NewSQLiteMemory(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { bunDB.Close() })

	h := NewHandler(menu.NewService(&db.DB{Bun: bunDB}, logger.NewNop()), logger.NewNop())
	r := chi.NewRouter()
	h.RegisterPublic(r)
	r.Route("/staff", func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				next.ServeHTTP(w, req.WithContext(rbac.WithPrincipal(req.Context(), p)))
			})
		})
		h.RegisterStaff(r)
	})
	return r
}

func TestCreateThenList(t *testing.T) {
	p := rbac.NewPrincipal("m", "M", "b1", rbac.SourceLegacy, nil, rbac.LegacyPermissions(rbac.RoleBranchManager))
	r := newRouter(t, p)

	rec := httptest.NewRecorder()
	body := `{"name":"Samsa","price":"6.00","visibility_channels":["Telegram"]}`
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/staff/menu", strings.NewReader(body)))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/menu?channel=telegram", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data []struct {
			Name string `json:"name"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "Samsa", resp.Data[0].Name)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/menu", nil))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Data)
}

func TestCreateForbiddenForStaff(t *testing.T) {
	p := rbac.NewPrincipal("s", "S", "b1", rbac.SourceLegacy, nil, rbac.LegacyPermissions(rbac.RoleBranchStaff))
	r := newRouter(t, p)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/staff/menu", strings.NewReader(`{"name":"x","price":"1"}`)))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	var resp utils.APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
}

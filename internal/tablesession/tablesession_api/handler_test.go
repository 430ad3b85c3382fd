package tablesession_api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-ordering/internal/database"
	"ms-ordering/internal/logger"
	"ms-ordering/internal/models"
	"ms-ordering/internal/rbac"
	"ms-ordering/internal/tablesession"
	"ms-ordering/internal/tablesession/db"
)

func newRouter(t *testing.T, p *rbac.Principal) chi.Router {
	ctx := context.Background()
	bunDB, err := database.NewSQLiteMemory(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { bunDB.Close() })

	_, err = bunDB.NewInsert().Model(&models.DiningTable{ID: "t1", PickupLocationID: "b1", Label: "Window 1", QRToken: "qr-1"}).Exec(ctx)
	require.NoError(t, err)

	h := NewHandler(tablesession.NewService(&db.DB{Bun: bunDB}, logger.NewNop()), logger.NewNop())
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

func do(r chi.Router, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestSessionLifecycle(t *testing.T) {
	p := rbac.NewPrincipal("w1", "Waiter", "b1", rbac.SourceLegacy, nil, rbac.LegacyPermissions(rbac.RoleBranchStaff))
	r := newRouter(t, p)

	rec := do(r, http.MethodPost, "/tables/qr-1/sessions")
	require.Equal(t, http.StatusCreated, rec.Code)
	var started struct {
		Data tablesession.StartResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &started))
	sess := started.Data.Session
	assert.Equal(t, "Window 1", started.Data.Table.Label)

	rec = do(r, http.MethodPost, "/table-sessions/"+sess.SessionToken+"/touch")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(r, http.MethodGet, "/staff/branches/b1/table-sessions/unverified")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Data []struct {
			ID         string `json:"id"`
			TableLabel string `json:"table_label"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Data, 1)
	assert.Equal(t, sess.ID, list.Data[0].ID)
	assert.Equal(t, "Window 1", list.Data[0].TableLabel)

	rec = do(r, http.MethodPost, "/staff/table-sessions/"+sess.ID+"/verify")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(r, http.MethodGet, "/staff/branches/b1/table-sessions/unverified")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Empty(t, list.Data)
}

func TestUnknownTokensAndScope(t *testing.T) {
	p := rbac.NewPrincipal("w2", "Waiter", "b2", rbac.SourceLegacy, nil, rbac.LegacyPermissions(rbac.RoleBranchStaff))
	r := newRouter(t, p)

	assert.Equal(t, http.StatusNotFound, do(r, http.MethodPost, "/tables/qr-x/sessions").Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodPost, "/table-sessions/nope/touch").Code)
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodGet, "/staff/branches/b1/table-sessions/unverified").Code)
}

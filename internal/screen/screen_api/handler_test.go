package screen_api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-ordering/internal/database"
	"ms-ordering/internal/logger"
	"ms-ordering/internal/models"
	"ms-ordering/internal/rbac"
	"ms-ordering/internal/screen"
	"ms-ordering/internal/screen/db"
)

// testRouter serves the staff routes as whichever principal is current.
type testRouter struct {
	chi.Router
	as *rbac.Principal
}

func newRouter(t *testing.T) *testRouter {
	ctx := context.Background()
	bunDB, err := database.NewSQLiteMemory(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { bunDB.Close() })

	now := time.Now().UTC()
	for _, m := range []interface{}{
		&models.PickupLocation{ID: "b1", Name: "Main", IsActive: true, CreatedAt: now},
		&models.MenuItem{ID: "m1", Name: "Bread", Price: decimal.NewFromInt(1), IsAvailable: true, CreatedAt: now},
		&models.User{ID: "cook", Name: "Cook", IsActive: true, CreatedAt: now},
	} {
		_, err := bunDB.NewInsert().Model(m).Exec(ctx)
		require.NoError(t, err)
	}

	tr := &testRouter{Router: chi.NewRouter()}
	h := NewHandler(screen.NewService(&db.DB{Bun: bunDB}, logger.NewNop()), logger.NewNop())
	tr.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(rbac.WithPrincipal(req.Context(), tr.as)))
		})
	})
	h.RegisterStaff(tr)
	return tr
}

func (tr *testRouter) do(method, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	tr.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
	return rec
}

func manager() *rbac.Principal {
	return rbac.NewPrincipal("mgr", "Manager", "b1", rbac.SourceLegacy, nil, rbac.LegacyPermissions(rbac.RoleBranchManager))
}

func cook() *rbac.Principal {
	return rbac.NewPrincipal("cook", "Cook", "b1", rbac.SourceLegacy, nil, rbac.LegacyPermissions(rbac.RoleBranchStaff))
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, into interface{}) {
	t.Helper()
	wrapper := struct {
		Data interface{} `json:"data"`
	}{Data: into}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &wrapper))
}

func TestScreenLifecycle(t *testing.T) {
	r := newRouter(t)
	r.as = manager()

	rec := r.do(http.MethodPost, "/screens", `{"pickup_location_id":"b1","name":"Oven","screen_type":"kitchen"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created models.BranchScreen
	decode(t, rec, &created)
	require.NotEmpty(t, created.ID)

	rec = r.do(http.MethodPut, "/screens/"+created.ID+"/menu-items", `{"menu_item_ids":["m1","m1"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var detail screen.Detail
	decode(t, rec, &detail)
	assert.Equal(t, []string{"m1"}, detail.MenuItemIDs)

	rec = r.do(http.MethodPut, "/screens/"+created.ID+"/users", `{"user_ids":["cook"]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = r.do(http.MethodGet, "/branches/b1/screens", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []screen.Detail
	decode(t, rec, &list)
	require.Len(t, list, 1)
	assert.Equal(t, []string{"cook"}, list[0].UserIDs)

	r.as = cook()
	rec = r.do(http.MethodGet, "/me/screens", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var mine []models.BranchScreen
	decode(t, rec, &mine)
	require.Len(t, mine, 1)
	assert.Equal(t, created.ID, mine[0].ID)

	r.as = manager()
	rec = r.do(http.MethodPut, "/screens/"+created.ID+"/active", `{"is_active":false}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var updated models.BranchScreen
	decode(t, rec, &updated)
	assert.False(t, updated.IsActive)

	r.as = cook()
	rec = r.do(http.MethodGet, "/me/screens", "")
	require.Equal(t, http.StatusOK, rec.Code)
	mine = nil
	decode(t, rec, &mine)
	assert.Empty(t, mine)
}

func TestScreenWritesNeedManager(t *testing.T) {
	r := newRouter(t)
	r.as = cook()

	assert.Equal(t, http.StatusForbidden,
		r.do(http.MethodPost, "/screens", `{"pickup_location_id":"b1","name":"Oven","screen_type":"kitchen"}`).Code)

	r.as = manager()
	rec := r.do(http.MethodPost, "/screens", `{"pickup_location_id":"b1","name":"Till","screen_type":"cashier"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created models.BranchScreen
	decode(t, rec, &created)

	r.as = cook()
	assert.Equal(t, http.StatusForbidden, r.do(http.MethodPut, "/screens/"+created.ID+"/active", `{"is_active":false}`).Code)
	assert.Equal(t, http.StatusForbidden, r.do(http.MethodPut, "/screens/"+created.ID+"/users", `{"user_ids":["cook"]}`).Code)
}

func TestScreenBadInput(t *testing.T) {
	r := newRouter(t)
	r.as = manager()

	assert.Equal(t, http.StatusBadRequest, r.do(http.MethodPost, "/screens", `{`).Code)
	assert.Equal(t, http.StatusBadRequest,
		r.do(http.MethodPost, "/screens", `{"pickup_location_id":"b1","name":"Oven","screen_type":"bakery"}`).Code)

	rec := r.do(http.MethodPost, "/screens", `{"pickup_location_id":"b1","name":"Till","screen_type":"cashier"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created models.BranchScreen
	decode(t, rec, &created)

	assert.Equal(t, http.StatusBadRequest,
		r.do(http.MethodPut, "/screens/"+created.ID+"/menu-items", `{"menu_item_ids":["m1"]}`).Code)
	assert.Equal(t, http.StatusNotFound, r.do(http.MethodPut, "/screens/missing/active", `{"is_active":true}`).Code)
}

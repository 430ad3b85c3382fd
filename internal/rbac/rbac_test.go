package rbac

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ms-ordering/internal/auth"
	"ms-ordering/internal/logger"
	"ms-ordering/internal/models"
	"ms-ordering/internal/utils"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) GetUser(ctx context.Context, userID string) (*models.User, error) {
	args := m.Called(ctx, userID)
	if u := args.Get(0); u != nil {
		return u.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStore) RolesForUser(ctx context.Context, userID string) ([]models.Role, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]models.Role), args.Error(1)
}

func (m *MockStore) PermissionsForRoles(ctx context.Context, roleIDs []string) ([]string, error) {
	args := m.Called(ctx, roleIDs)
	return args.Get(0).([]string), args.Error(1)
}

func TestNormalizeLegacyRole(t *testing.T) {
	cases := map[string]LegacyRole{
		"admin":          RoleAdmin,
		" Owner ":        RoleAdmin,
		"SUPERADMIN":     RoleAdmin,
		"manager":        RoleBranchManager,
		"branch-manager": RoleBranchManager,
		"waiter":         RoleBranchStaff,
		"":               RoleBranchStaff,
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeLegacyRole(in), in)
	}
}

func TestLegacyPermissionsIsCopy(t *testing.T) {
	perms := LegacyPermissions(RoleBranchStaff)
	perms[0] = "tampered"
	assert.NotEqual(t, "tampered", LegacyPermissions(RoleBranchStaff)[0])
}

func TestPrincipal_AdminShortCircuits(t *testing.T) {
	p := NewPrincipal("u1", "Ann", "", SourceAssigned, []string{"Admin"}, nil)
	assert.True(t, p.HasPermission("anything.at.all"))
	assert.True(t, p.CanAccessBranch("b9"))

	var nilP *Principal
	assert.False(t, nilP.HasPermission(PermOrdersView))
}

func TestResolve_LegacyFallback(t *testing.T) {
	store := new(MockStore)
	store.On("GetUser", mock.Anything, "u1").Return(&models.User{ID: "u1", LegacyRole: "manager", IsActive: true}, nil)
	store.On("RolesForUser", mock.Anything, "u1").Return([]models.Role{}, nil)

	p, err := NewResolver(store).Resolve(context.Background(), "u1")
	require.NoError(t, err)

	assert.Equal(t, SourceLegacy, p.Source)
	assert.True(t, p.HasPermission(PermReceiptsReview))
	assert.False(t, p.HasPermission(PermSettingsManage))
	store.AssertNotCalled(t, "PermissionsForRoles", mock.Anything, mock.Anything)
}

func TestResolve_AssignedRolesWin(t *testing.T) {
	store := new(MockStore)
	store.On("GetUser", mock.Anything, "u2").Return(&models.User{ID: "u2", LegacyRole: "admin", IsActive: true}, nil)
	store.On("RolesForUser", mock.Anything, "u2").Return([]models.Role{{ID: "r1", Name: "cook"}}, nil)
	store.On("PermissionsForRoles", mock.Anything, []string{"r1"}).Return([]string{PermKitchenUpdate}, nil)

	p, err := NewResolver(store).Resolve(context.Background(), "u2")
	require.NoError(t, err)

	assert.Equal(t, SourceAssigned, p.Source)
	assert.False(t, p.IsAdmin())
	assert.True(t, p.HasPermission(PermKitchenUpdate))
	assert.False(t, p.HasPermission(PermOrdersConfirm))
}

func TestResolve_InactiveAndUnknown(t *testing.T) {
	store := new(MockStore)
	store.On("GetUser", mock.Anything, "off").Return(&models.User{ID: "off"}, nil)
	store.On("GetUser", mock.Anything, "ghost").Return(nil, utils.ErrNotFound)

	r := NewResolver(store)
	_, err := r.Resolve(context.Background(), "off")
	assert.ErrorIs(t, err, ErrInactiveUser)
	_, err = r.Resolve(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrUnknownUser)
	assert.ErrorIs(t, err, utils.ErrForbidden)
}

func TestMiddlewareChain(t *testing.T) {
	store := new(MockStore)
	store.On("GetUser", mock.Anything, "staff").Return(&models.User{ID: "staff", LegacyRole: "waiter", IsActive: true}, nil)
	store.On("RolesForUser", mock.Anything, "staff").Return([]models.Role{}, nil)

	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "staff", FromContext(r.Context()).UserID)
		w.WriteHeader(http.StatusNoContent)
	})
	mw := Middleware(NewResolver(store), logger.NewNop())

	serve := func(perm string) int {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req = req.WithContext(auth.WithUserID(req.Context(), "staff"))
		rec := httptest.NewRecorder()
		mw(RequirePermission(perm)(final)).ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusNoContent, serve(PermKitchenUpdate))
	assert.Equal(t, http.StatusForbidden, serve(PermReceiptsReview))

	rec := httptest.NewRecorder()
	mw(final).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

package rbac

import (
	"context"
	"errors"
	"fmt"

	"ms-ordering/internal/models"
	"ms-ordering/internal/utils"
)

var (
	ErrUnknownUser  = fmt.Errorf("%w: unknown staff user", utils.ErrForbidden)
	ErrInactiveUser = fmt.Errorf("%w: staff user is inactive", utils.ErrForbidden)
	ErrNoPrincipal  = fmt.Errorf("%w: no staff identity on request", utils.ErrForbidden)
)

// Store is the read side the resolver needs.
type Store interface {
	GetUser(ctx context.Context, userID string) (*models.User, error)
	RolesForUser(ctx context.Context, userID string) ([]models.Role, error)
	PermissionsForRoles(ctx context.Context, roleIDs []string) ([]string, error)
}

type Resolver struct {
	store Store
}

func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// Resolve loads the user's grants once. Assigned role rows win; a user with
// none falls back to the legacy role column.
func (r *Resolver) Resolve(ctx context.Context, userID string) (*Principal, error) {
	user, err := r.store.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, ErrUnknownUser
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	if !user.IsActive {
		return nil, ErrInactiveUser
	}

	branchID := ""
	if user.PickupLocationID != nil {
		branchID = *user.PickupLocationID
	}

	roles, err := r.store.RolesForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load roles: %w", err)
	}

	if len(roles) == 0 {
		legacy := NormalizeLegacyRole(user.LegacyRole)
		return NewPrincipal(user.ID, user.Name, branchID, SourceLegacy, []string{string(legacy)}, LegacyPermissions(legacy)), nil
	}

	names := make([]string, 0, len(roles))
	ids := make([]string, 0, len(roles))
	for _, role := range roles {
		names = append(names, role.Name)
		ids = append(ids, role.ID)
	}
	perms, err := r.store.PermissionsForRoles(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load permissions: %w", err)
	}
	return NewPrincipal(user.ID, user.Name, branchID, SourceAssigned, names, perms), nil
}

// Require returns ErrForbidden-classed errors when p lacks perm.
func Require(p *Principal, perm string) error {
	if p == nil {
		return ErrNoPrincipal
	}
	if !p.HasPermission(perm) {
		return fmt.Errorf("%w: missing permission %s", utils.ErrForbidden, perm)
	}
	return nil
}

func RequireBranch(p *Principal, branchID string) error {
	if p == nil {
		return ErrNoPrincipal
	}
	if !p.CanAccessBranch(branchID) {
		return fmt.Errorf("%w: no access to branch %s", utils.ErrForbidden, branchID)
	}
	return nil
}

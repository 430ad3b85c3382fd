package rbac

import (
	"context"
	"fmt"

	"ms-ordering/internal/models"
)

// MigrationStore is the write side used by MigrateLegacyRoles.
type MigrationStore interface {
	EnsureRole(ctx context.Context, name string) (*models.Role, error)
	EnsurePermission(ctx context.Context, name string) (*models.Permission, error)
	GrantPermission(ctx context.Context, roleID, permissionID string) error
	UsersWithoutRoles(ctx context.Context) ([]models.User, error)
	AssignRole(ctx context.Context, userID, roleID string) error
}

type MigrationReport struct {
	RolesEnsured  int
	UsersAssigned map[LegacyRole]int
}

// MigrateLegacyRoles writes role rows for every user still relying on the
// legacy role column. After it runs the legacy fallback in Resolve is only
// reached by users created without a role. Safe to run repeatedly.
func MigrateLegacyRoles(ctx context.Context, store MigrationStore) (*MigrationReport, error) {
	report := &MigrationReport{UsersAssigned: make(map[LegacyRole]int)}

	roleIDs := make(map[LegacyRole]string, len(LegacyRoles))
	for _, legacy := range LegacyRoles {
		role, err := store.EnsureRole(ctx, string(legacy))
		if err != nil {
			return nil, fmt.Errorf("ensure role %s: %w", legacy, err)
		}
		roleIDs[legacy] = role.ID
		report.RolesEnsured++

		for _, name := range legacyPermissions[legacy] {
			perm, err := store.EnsurePermission(ctx, name)
			if err != nil {
				return nil, fmt.Errorf("ensure permission %s: %w", name, err)
			}
			if err := store.GrantPermission(ctx, role.ID, perm.ID); err != nil {
				return nil, fmt.Errorf("grant %s to %s: %w", name, legacy, err)
			}
		}
	}

	users, err := store.UsersWithoutRoles(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users without roles: %w", err)
	}
	for _, u := range users {
		legacy := NormalizeLegacyRole(u.LegacyRole)
		if err := store.AssignRole(ctx, u.ID, roleIDs[legacy]); err != nil {
			return nil, fmt.Errorf("assign %s to user %s: %w", legacy, u.ID, err)
		}
		report.UsersAssigned[legacy]++
	}
	return report, nil
}

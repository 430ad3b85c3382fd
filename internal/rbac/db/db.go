package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"ms-ordering/internal/models"
	"ms-ordering/internal/utils"
)

type DB struct {
	Bun bun.IDB
}

func (d *DB) GetUser(ctx context.Context, userID string) (*models.User, error) {
	u := new(models.User)
	err := d.Bun.NewSelect().Model(u).Where("id = ?", userID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", userID, utils.ErrNotFound)
	}
	return u, err
}

func (d *DB) RolesForUser(ctx context.Context, userID string) ([]models.Role, error) {
	var roles []models.Role
	err := d.Bun.NewSelect().
		Model(&roles).
		Join("JOIN user_roles AS ur ON ur.role_id = r.id").
		Where("ur.user_id = ?", userID).
		OrderExpr("r.name ASC").
		Scan(ctx)
	return roles, err
}

func (d *DB) PermissionsForRoles(ctx context.Context, roleIDs []string) ([]string, error) {
	if len(roleIDs) == 0 {
		return nil, nil
	}
	var names []string
	err := d.Bun.NewSelect().
		Model((*models.Permission)(nil)).
		Column("p.name").
		Distinct().
		Join("JOIN role_permissions AS rp ON rp.permission_id = p.id").
		Where("rp.role_id IN (?)", bun.In(roleIDs)).
		Scan(ctx, &names)
	return names, err
}

func (d *DB) EnsureRole(ctx context.Context, name string) (*models.Role, error) {
	role := &models.Role{ID: utils.GenerateID(), Name: name}
	if _, err := d.Bun.NewInsert().Model(role).On("CONFLICT (name) DO NOTHING").Exec(ctx); err != nil {
		return nil, err
	}
	existing := new(models.Role)
	if err := d.Bun.NewSelect().Model(existing).Where("name = ?", name).Scan(ctx); err != nil {
		return nil, err
	}
	return existing, nil
}

func (d *DB) EnsurePermission(ctx context.Context, name string) (*models.Permission, error) {
	perm := &models.Permission{ID: utils.GenerateID(), Name: name}
	if _, err := d.Bun.NewInsert().Model(perm).On("CONFLICT (name) DO NOTHING").Exec(ctx); err != nil {
		return nil, err
	}
	existing := new(models.Permission)
	if err := d.Bun.NewSelect().Model(existing).Where("name = ?", name).Scan(ctx); err != nil {
		return nil, err
	}
	return existing, nil
}

func (d *DB) GrantPermission(ctx context.Context, roleID, permissionID string) error {
	_, err := d.Bun.NewInsert().
		Model(&models.RolePermission{RoleID: roleID, PermissionID: permissionID}).
		On("CONFLICT DO NOTHING").
		Exec(ctx)
	return err
}

func (d *DB) UsersWithoutRoles(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := d.Bun.NewSelect().
		Model(&users).
		Where("NOT EXISTS (SELECT 1 FROM user_roles AS ur WHERE ur.user_id = u.id)").
		OrderExpr("u.id ASC").
		Scan(ctx)
	return users, err
}

func (d *DB) AssignRole(ctx context.Context, userID, roleID string) error {
	_, err := d.Bun.NewInsert().
		Model(&models.UserRole{UserID: userID, RoleID: roleID}).
		On("CONFLICT DO NOTHING").
		Exec(ctx)
	return err
}

func (d *DB) CreateUser(ctx context.Context, u *models.User) error {
	_, err := d.Bun.NewInsert().Model(u).Exec(ctx)
	return err
}

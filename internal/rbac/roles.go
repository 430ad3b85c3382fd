// Package rbac resolves what a staff member may do.
//
// Users are granted roles through the user_roles table. Older accounts only
// carry a free-text role column; those are mapped onto one of three legacy
// roles until MigrateLegacyRoles has written real role rows for them.
package rbac

import "strings"

// LegacyRole is the normalized form of the free-text users.role column.
type LegacyRole string

const (
	RoleAdmin         LegacyRole = "admin"
	RoleBranchManager LegacyRole = "branch_manager"
	RoleBranchStaff   LegacyRole = "branch_staff"
)

var LegacyRoles = []LegacyRole{RoleAdmin, RoleBranchManager, RoleBranchStaff}

const (
	PermOrdersView     = "orders.view"
	PermOrdersConfirm  = "orders.confirm"
	PermOrdersServe    = "orders.serve"
	PermOrdersComplete = "orders.complete"
	PermOrdersCancel   = "orders.cancel"
	PermReceiptsReview = "receipts.review"
	PermKitchenView    = "kitchen.view"
	PermKitchenUpdate  = "kitchen.update"
	PermScreensManage  = "screens.manage"
	PermMenuManage     = "menu.manage"
	PermTablesVerify   = "tables.verify"
	PermUsersManage    = "users.manage"
	PermSettingsManage = "settings.manage"
	PermReportsView    = "reports.view"
	// PermAllBranches lifts the branch scope check.
	PermAllBranches = "branches.all"
)

var legacyPermissions = map[LegacyRole][]string{
	RoleAdmin: {
		PermOrdersView, PermOrdersConfirm, PermOrdersServe, PermOrdersComplete, PermOrdersCancel,
		PermReceiptsReview, PermKitchenView, PermKitchenUpdate, PermScreensManage, PermMenuManage,
		PermTablesVerify, PermUsersManage, PermSettingsManage, PermReportsView, PermAllBranches,
	},
	RoleBranchManager: {
		PermOrdersView, PermOrdersConfirm, PermOrdersServe, PermOrdersComplete, PermOrdersCancel,
		PermReceiptsReview, PermKitchenView, PermKitchenUpdate, PermScreensManage, PermMenuManage,
		PermTablesVerify, PermReportsView,
	},
	RoleBranchStaff: {
		PermOrdersView, PermOrdersConfirm, PermOrdersServe, PermKitchenView, PermKitchenUpdate,
		PermTablesVerify,
	},
}

// NormalizeLegacyRole maps a raw role string onto a legacy role. Anything
// unrecognized, including empty, becomes branch_staff.
func NormalizeLegacyRole(raw string) LegacyRole {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "admin", "administrator", "owner", "superadmin", "super_admin":
		return RoleAdmin
	case "manager", "branch_manager", "branch-manager", "branchmanager":
		return RoleBranchManager
	default:
		return RoleBranchStaff
	}
}

// LegacyPermissions returns a copy of the fixed permission set for role.
func LegacyPermissions(role LegacyRole) []string {
	perms := legacyPermissions[role]
	out := make([]string, len(perms))
	copy(out, perms)
	return out
}

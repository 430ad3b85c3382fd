package rbac

import (
	"context"
	"strings"
)

// Source records where a principal's grants came from.
type Source string

const (
	SourceAssigned Source = "assigned"
	SourceLegacy   Source = "legacy"
)

// Principal is the resolved identity of a staff member for one request. It is
// immutable once built.
type Principal struct {
	UserID   string
	Name     string
	BranchID string
	Source   Source
	roles    map[string]bool
	perms    map[string]bool
}

func NewPrincipal(userID, name, branchID string, source Source, roles, perms []string) *Principal {
	p := &Principal{
		UserID:   userID,
		Name:     name,
		BranchID: branchID,
		Source:   source,
		roles:    make(map[string]bool, len(roles)),
		perms:    make(map[string]bool, len(perms)),
	}
	for _, r := range roles {
		p.roles[strings.ToLower(r)] = true
	}
	for _, perm := range perms {
		p.perms[perm] = true
	}
	return p
}

func (p *Principal) HasRole(name string) bool {
	return p != nil && p.roles[strings.ToLower(name)]
}

func (p *Principal) IsAdmin() bool {
	return p.HasRole(string(RoleAdmin))
}

// HasPermission is always true for admins.
func (p *Principal) HasPermission(name string) bool {
	if p == nil {
		return false
	}
	return p.IsAdmin() || p.perms[name]
}

func (p *Principal) CanAccessBranch(branchID string) bool {
	if p == nil {
		return false
	}
	if p.HasPermission(PermAllBranches) {
		return true
	}
	return p.BranchID != "" && p.BranchID == branchID
}

func (p *Principal) Roles() []string {
	out := make([]string, 0, len(p.roles))
	for r := range p.roles {
		out = append(out, r)
	}
	return out
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func FromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey{}).(*Principal)
	return p
}

package rbac

import (
	"context"
	"sort"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/rolegate/rolegate/internal/shared"
)

// RoleStore looks up roles in one batch. Unknown ids are skipped.
type RoleStore interface {
	FindRolesByIDs(ctx context.Context, ids []string) ([]Role, error)
}

// PermissionStore looks up permissions in one batch. Unknown ids are skipped.
type PermissionStore interface {
	FindPermissionsByIDs(ctx context.Context, ids []string) ([]Permission, error)
}

// RoleNameResolver expands role ids into role names.
type RoleNameResolver interface {
	ResolveRoleNames(ctx context.Context, roleIDs []string) ([]string, error)
}

// Resolver expands role ids into names for authorization and validates
// references when roles and users are created.
type Resolver struct {
	roles RoleStore
	perms PermissionStore
	group singleflight.Group
}

// NewResolver constructs a Resolver.
func NewResolver(roles RoleStore, perms PermissionStore) *Resolver {
	return &Resolver{roles: roles, perms: perms}
}

// ResolveRoleNames returns the names of the roles in roleIDs. An empty input
// returns an empty result without touching storage. Missing ids are omitted,
// so a partial result is valid.
func (r *Resolver) ResolveRoleNames(ctx context.Context, roleIDs []string) ([]string, error) {
	ids := uniqueIDs(roleIDs)
	if len(ids) == 0 {
		return []string{}, nil
	}
	// The shared lookup outlives any single caller's cancellation.
	lookupCtx := context.WithoutCancel(ctx)
	ch := r.group.DoChan(strings.Join(ids, ","), func() (any, error) {
		roles, err := r.roles.FindRolesByIDs(lookupCtx, ids)
		if err != nil {
			return nil, err
		}
		names := make([]string, 0, len(roles))
		for _, role := range roles {
			names = append(names, role.Name)
		}
		return names, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		names := res.Val.([]string)
		out := make([]string, len(names))
		copy(out, names)
		return out, nil
	}
}

// ResolvePermissionsByIDs returns every referenced permission or fails with
// shared.ErrNotFound when any id does not resolve.
func (r *Resolver) ResolvePermissionsByIDs(ctx context.Context, ids []string) ([]Permission, error) {
	want := uniqueIDs(ids)
	if len(want) == 0 {
		return []Permission{}, nil
	}
	perms, err := r.perms.FindPermissionsByIDs(ctx, want)
	if err != nil {
		return nil, err
	}
	if len(perms) != len(want) {
		return nil, shared.NotFoundf("Some permissions not found: %s", missing(want, permissionIDs(perms)))
	}
	return perms, nil
}

// ResolveRolesByIDs returns every referenced role or fails with
// shared.ErrNotFound when any id does not resolve.
func (r *Resolver) ResolveRolesByIDs(ctx context.Context, ids []string) ([]Role, error) {
	want := uniqueIDs(ids)
	if len(want) == 0 {
		return []Role{}, nil
	}
	roles, err := r.roles.FindRolesByIDs(ctx, want)
	if err != nil {
		return nil, err
	}
	if len(roles) != len(want) {
		got := make([]string, 0, len(roles))
		for _, role := range roles {
			got = append(got, role.ID)
		}
		return nil, shared.NotFoundf("Some roles not found: %s", missing(want, got))
	}
	return roles, nil
}

// uniqueIDs trims, drops blanks and duplicates, and sorts.
func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func permissionIDs(perms []Permission) []string {
	out := make([]string, 0, len(perms))
	for _, p := range perms {
		out = append(out, p.ID)
	}
	return out
}

func missing(want, got []string) string {
	have := make(map[string]struct{}, len(got))
	for _, id := range got {
		have[id] = struct{}{}
	}
	var absent []string
	for _, id := range want {
		if _, ok := have[id]; !ok {
			absent = append(absent, id)
		}
	}
	return strings.Join(absent, ", ")
}

package guard

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	domainauth "github.com/itcache/portal/internal/domain/auth"
	"github.com/itcache/portal/internal/ports"
	"github.com/itcache/portal/internal/state"
)

// ClientGuard applies redirect policy to client-side navigations using the
// cached identity state. Decide is pure with respect to its inputs: calling
// it twice with the same state and path yields the same decision.
//
// The admin role id is resolved by name through the role directory exactly
// once and cached; singleflight collapses concurrent first lookups.
type ClientGuard struct {
	rules *Rules
	roles ports.RoleDirectory

	group singleflight.Group

	mu          sync.Mutex
	adminRoleID string
	resolved    bool
}

func NewClientGuard(rules *Rules, roles ports.RoleDirectory) *ClientGuard {
	return &ClientGuard{rules: rules, roles: roles}
}

// Decide maps (identity state, target path) to a gating decision.
// Unknown counts as unauthenticated: before the first resolution completes
// the guard must not let a protected navigation through.
func (g *ClientGuard) Decide(ctx context.Context, st state.AuthState, path string) (Decision, error) {
	if !st.Authenticated() {
		if g.rules.IsAuthEntry(path) {
			return Proceed(), nil
		}
		return RedirectTo(g.rules.LoginPath()), nil
	}

	if g.rules.IsAuthEntry(path) {
		return RedirectTo(g.rules.HomePath()), nil
	}

	if g.rules.IsAdminArea(path) {
		adminID, err := g.adminRole(ctx)
		if err != nil {
			return Decision{}, err
		}
		if st.User.Role != adminID {
			return RedirectTo(g.rules.HomePath()), nil
		}
	}

	return Proceed(), nil
}

func (g *ClientGuard) adminRole(ctx context.Context) (string, error) {
	g.mu.Lock()
	if g.resolved {
		id := g.adminRoleID
		g.mu.Unlock()
		return id, nil
	}
	g.mu.Unlock()

	v, err, _ := g.group.Do("admin-role-id", func() (any, error) {
		id, lookupErr := g.roles.IDByName(ctx, domainauth.AdminRoleName)
		if lookupErr != nil {
			return nil, lookupErr
		}
		g.mu.Lock()
		g.adminRoleID = id
		g.resolved = true
		g.mu.Unlock()
		return id, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

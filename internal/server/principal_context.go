package server

import (
	"context"

	"github.com/jacksonlee411/tenant-service/pkg/authz"
)

// Principal is the verified identity behind a bearer token.
type Principal struct {
	UserID    string
	Username  string
	Roles     authz.RoleSet
	TenantID  int64
	HasTenant bool
}

// caller adapts the request's principal and raw session cookie to the tenant
// services' caller context.
type caller struct {
	principal Principal
	cookie    string
	hasCookie bool
}

func (c caller) Roles() authz.RoleSet {
	if c.principal.Roles == nil {
		return authz.NewRoleSet()
	}
	return c.principal.Roles
}

func (c caller) TenantClaim() (int64, bool) {
	return c.principal.TenantID, c.principal.HasTenant
}

func (c caller) RawCookieToken() (string, bool) {
	return c.cookie, c.hasCookie
}

type callerContextKey struct{}

func withCaller(ctx context.Context, c caller) context.Context {
	return context.WithValue(ctx, callerContextKey{}, c)
}

func currentCaller(ctx context.Context) caller {
	c, _ := ctx.Value(callerContextKey{}).(caller)
	return c
}

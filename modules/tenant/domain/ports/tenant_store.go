package ports

import (
	"context"

	"github.com/jacksonlee411/tenant-service/modules/tenant/domain/types"
	"github.com/jacksonlee411/tenant-service/pkg/authz"
)

type TenantStore interface {
	FindByID(ctx context.Context, id int64) (types.Tenant, bool, error)
	FindBySubdomain(ctx context.Context, subdomain string) (types.Tenant, bool, error)
	List(ctx context.Context) ([]types.Tenant, error)
	Create(ctx context.Context, tenant types.Tenant) (types.Tenant, error)
	Update(ctx context.Context, tenant types.Tenant) (types.Tenant, error)
}

// SettingsProvider is polled on every request; implementations must not cache.
type SettingsProvider interface {
	Current(ctx context.Context) (types.ApplicationSettings, error)
}

// CallerContext is what the request layer knows about the caller after the
// bearer token has been verified.
type CallerContext interface {
	Roles() authz.RoleSet
	TenantClaim() (int64, bool)
	RawCookieToken() (string, bool)
}

// Provisioner creates the defaults a new tenant needs in sibling services.
type Provisioner interface {
	ProvisionDefaults(ctx context.Context, tenantID int64) error
}

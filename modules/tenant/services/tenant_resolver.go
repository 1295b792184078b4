package services

import (
	"context"
	"errors"

	"github.com/jacksonlee411/tenant-service/modules/tenant/domain/ports"
	"github.com/jacksonlee411/tenant-service/modules/tenant/domain/types"
	"github.com/jacksonlee411/tenant-service/pkg/tenantclaim"
)

const (
	ResolutionSourceOverride    = "override"
	ResolutionSourceAccessToken = "access_token"
	ResolutionSourceCookie      = "cookie"
	ResolutionSourceNone        = "none"
)

// ResolveInput is everything a strategy may look at for one request.
type ResolveInput struct {
	Caller   ports.CallerContext
	Override *int64
	Settings types.ApplicationSettings
}

// TenantResolver is one tenant identification strategy. CanResolve is a
// cheap precondition; Resolve does the actual work and may still come back
// empty.
type TenantResolver interface {
	Source() string
	CanResolve(in ResolveInput) bool
	Resolve(in ResolveInput) (int64, bool)
}

// OverrideResolver honours a tenant id passed explicitly by an endpoint.
// Only single-domain deployments accept it.
type OverrideResolver struct{}

func (OverrideResolver) Source() string { return ResolutionSourceOverride }

func (OverrideResolver) CanResolve(in ResolveInput) bool {
	return in.Settings.SingleDomainEnabled && in.Override != nil
}

func (OverrideResolver) Resolve(in ResolveInput) (int64, bool) {
	if in.Override == nil {
		return 0, false
	}
	return *in.Override, true
}

// AccessTokenResolver reads the tenant claim of the verified principal.
type AccessTokenResolver struct{}

func (AccessTokenResolver) Source() string { return ResolutionSourceAccessToken }

func (AccessTokenResolver) CanResolve(in ResolveInput) bool {
	return in.Caller != nil
}

func (AccessTokenResolver) Resolve(in ResolveInput) (int64, bool) {
	if in.Caller == nil {
		return 0, false
	}
	return in.Caller.TenantClaim()
}

// CookieResolver decodes the tenant claim embedded in the raw session cookie.
// It is inert unless single-domain multitenancy is enabled: multi-domain
// deployments identify tenants by host and must not pick up a scope from a
// cookie.
type CookieResolver struct {
	decode func(token string) (int64, bool)
}

func NewCookieResolver() CookieResolver {
	return CookieResolver{decode: tenantclaim.TenantID}
}

func (CookieResolver) Source() string { return ResolutionSourceCookie }

func (r CookieResolver) CanResolve(in ResolveInput) bool {
	if !in.Settings.SingleDomainEnabled || in.Caller == nil {
		return false
	}
	_, ok := in.Caller.RawCookieToken()
	return ok
}

func (r CookieResolver) Resolve(in ResolveInput) (int64, bool) {
	if !in.Settings.SingleDomainEnabled || in.Caller == nil {
		return 0, false
	}
	token, ok := in.Caller.RawCookieToken()
	if !ok {
		return 0, false
	}
	decode := r.decode
	if decode == nil {
		decode = tenantclaim.TenantID
	}
	return decode(token)
}

// ResolverChain tries its strategies in order and stops at the first hit.
type ResolverChain struct {
	settings  ports.SettingsProvider
	resolvers []TenantResolver
	metrics   Metrics
}

// DefaultResolvers returns the strategies in precedence order.
func DefaultResolvers() []TenantResolver {
	return []TenantResolver{OverrideResolver{}, AccessTokenResolver{}, NewCookieResolver()}
}

func NewResolverChain(settings ports.SettingsProvider, metrics Metrics, resolvers ...TenantResolver) (*ResolverChain, error) {
	if settings == nil {
		return nil, errors.New("tenant resolver: missing settings provider")
	}
	if len(resolvers) == 0 {
		resolvers = DefaultResolvers()
	}
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	return &ResolverChain{settings: settings, resolvers: resolvers, metrics: metrics}, nil
}

// Resolve reads the current application settings and runs the chain.
// An unresolved tenant is (0, false, nil); only the settings lookup can fail.
func (c *ResolverChain) Resolve(ctx context.Context, caller ports.CallerContext, override *int64) (int64, bool, error) {
	settings, err := c.settings.Current(ctx)
	if err != nil {
		return 0, false, err
	}
	id, ok := c.ResolveWith(settings, caller, override)
	return id, ok, nil
}

// ResolveWith runs the chain against settings the caller already fetched.
func (c *ResolverChain) ResolveWith(settings types.ApplicationSettings, caller ports.CallerContext, override *int64) (int64, bool) {
	in := ResolveInput{Caller: caller, Override: override, Settings: settings}
	for _, r := range c.resolvers {
		if !r.CanResolve(in) {
			continue
		}
		if id, ok := r.Resolve(in); ok {
			c.metrics.ObserveResolution(r.Source())
			return id, true
		}
	}
	c.metrics.ObserveResolution(ResolutionSourceNone)
	return 0, false
}

package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/jacksonlee411/tenant-service/modules/tenant/domain/ports"
	"github.com/jacksonlee411/tenant-service/modules/tenant/domain/types"
	"github.com/jacksonlee411/tenant-service/pkg/authz"
	"github.com/jacksonlee411/tenant-service/pkg/httperr"
	"go.uber.org/zap"
)

const (
	denialTenantAccess    = "tenant_access"
	denialAttributeChange = "attribute_change"
)

// AccessGate decides whether a caller may act on a tenant and change the
// attributes a write touches. Every check fails closed with a forbidden error.
type AccessGate struct {
	settings ports.SettingsProvider
	logger   *zap.Logger
	metrics  Metrics
}

func NewAccessGate(settings ports.SettingsProvider, logger *zap.Logger, metrics Metrics) (*AccessGate, error) {
	if settings == nil {
		return nil, errors.New("access gate: missing settings provider")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	return &AccessGate{settings: settings, logger: logger, metrics: metrics}, nil
}

// AssertCanAccessTenant allows tenant admins everywhere and single tenant
// admins only on the tenant bound to their own access token.
func (g *AccessGate) AssertCanAccessTenant(caller ports.CallerContext, tenantID int64) error {
	var roles authz.RoleSet
	if caller != nil {
		roles = caller.Roles()
	}
	if roles.Has(authz.RoleTenantAdmin) {
		return nil
	}
	if roles.Has(authz.RoleSingleTenantAdmin) {
		if claim, ok := caller.TenantClaim(); ok && claim == tenantID {
			return nil
		}
	}
	return g.deny(denialTenantAccess, fmt.Sprintf("not authorized to access tenant %d", tenantID),
		zap.Int64("tenant_id", tenantID), zap.Strings("roles", roles.Slice()))
}

// AssertCanChangeAttributes requires, for every changed attribute, that the
// caller holds one of the roles the permission matrix lists for it.
func (g *AccessGate) AssertCanChangeAttributes(ctx context.Context, roles authz.RoleSet, changed []authz.Attribute) error {
	for _, attr := range changed {
		if !roles.Intersects(authz.AuthorizedRoles(attr)) {
			return g.deny(denialAttributeChange, fmt.Sprintf("not authorized to change %s", attr),
				zap.String("attribute", string(attr)), zap.Strings("roles", roles.Slice()))
		}
	}
	for _, attr := range changed {
		if attr != authz.AttributeLegalContent || roles.Has(authz.RoleTenantAdmin) {
			continue
		}
		settings, err := g.settings.Current(ctx)
		if err != nil {
			return fmt.Errorf("access gate: read application settings: %w", err)
		}
		if !settings.LegalContentEditableBySingleTenantAdmin {
			return g.deny(denialAttributeChange, "not authorized to change legal content",
				zap.String("attribute", string(attr)), zap.Strings("roles", roles.Slice()))
		}
	}
	return nil
}

// AuthorizeMutation checks only what incoming actually changes on existing,
// so rewriting a stored value unchanged is never rejected.
func (g *AccessGate) AuthorizeMutation(ctx context.Context, caller ports.CallerContext, incoming types.Tenant, existing types.Tenant) error {
	var roles authz.RoleSet
	if caller != nil {
		roles = caller.Roles()
	}
	return g.AssertCanChangeAttributes(ctx, roles, ChangedAttributes(incoming, existing))
}

func (g *AccessGate) deny(check string, msg string, fields ...zap.Field) error {
	g.metrics.ObserveDenial(check)
	g.logger.Info("authorization denied", append([]zap.Field{zap.String("check", check)}, fields...)...)
	return httperr.NewForbidden(msg)
}

// ChangedAttributes lists the gated attributes whose values differ.
func ChangedAttributes(incoming types.Tenant, existing types.Tenant) []authz.Attribute {
	var out []authz.Attribute
	in, ex := incoming.Settings, existing.Settings
	if in.TopicsEnabled != ex.TopicsEnabled {
		out = append(out, authz.AttributeTopicsEnabled)
	}
	if in.DemographicsEnabled != ex.DemographicsEnabled {
		out = append(out, authz.AttributeDemographicsEnabled)
	}
	if in.TopicsInRegistrationEnabled != ex.TopicsInRegistrationEnabled {
		out = append(out, authz.AttributeTopicsInRegistrationEnabled)
	}
	if in.StatisticsEnabled != ex.StatisticsEnabled {
		out = append(out, authz.AttributeStatisticsEnabled)
	}
	if in.AppointmentsEnabled != ex.AppointmentsEnabled {
		out = append(out, authz.AttributeAppointmentsEnabled)
	}
	if legalContentChanged(incoming.Content, existing.Content) {
		out = append(out, authz.AttributeLegalContent)
	}
	return out
}

func legalContentChanged(incoming types.Content, existing types.Content) bool {
	return !incoming.Impressum.Equal(existing.Impressum) ||
		!incoming.Claim.Equal(existing.Claim) ||
		!incoming.DataPrivacy.Equal(existing.DataPrivacy)
}

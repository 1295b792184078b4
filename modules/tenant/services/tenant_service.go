package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jacksonlee411/tenant-service/modules/tenant/domain/ports"
	"github.com/jacksonlee411/tenant-service/modules/tenant/domain/types"
	"github.com/jacksonlee411/tenant-service/pkg/httperr"
	"go.uber.org/zap"
)

type TenantServiceOptions struct {
	Store       ports.TenantStore
	Settings    ports.SettingsProvider
	Provisioner ports.Provisioner
	Logger      *zap.Logger
	Metrics     Metrics
	Now         func() time.Time
}

// TenantService is the entry point for every tenant operation exposed over
// HTTP. Route-level role checks happen before it is called; tenant binding
// and attribute checks happen here.
type TenantService struct {
	store       ports.TenantStore
	settings    ports.SettingsProvider
	provisioner ports.Provisioner
	resolver    *ResolverChain
	gate        *AccessGate
	views       *ViewBuilder
	logger      *zap.Logger
	now         func() time.Time
}

func NewTenantService(opts TenantServiceOptions) (*TenantService, error) {
	if opts.Store == nil {
		return nil, errors.New("tenant service: missing store")
	}
	if opts.Settings == nil {
		return nil, errors.New("tenant service: missing settings provider")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	resolver, err := NewResolverChain(opts.Settings, metrics)
	if err != nil {
		return nil, err
	}
	gate, err := NewAccessGate(opts.Settings, logger, metrics)
	if err != nil {
		return nil, err
	}
	return &TenantService{
		store:       opts.Store,
		settings:    opts.Settings,
		provisioner: opts.Provisioner,
		resolver:    resolver,
		gate:        gate,
		views:       NewViewBuilder(opts.Store),
		logger:      logger,
		now:         now,
	}, nil
}

func (s *TenantService) Resolver() *ResolverChain { return s.resolver }
func (s *TenantService) Gate() *AccessGate        { return s.gate }

// Create stores a new tenant and provisions its default consulting type.
// Provisioning failures are logged; the tenant stays created.
func (s *TenantService) Create(ctx context.Context, tenant types.Tenant) (types.Tenant, error) {
	if tenant.ID != 0 {
		return types.Tenant{}, httperr.NewConflict("tenant id must not be set on create")
	}
	if err := validateTenant(tenant); err != nil {
		return types.Tenant{}, err
	}
	settings, err := s.settings.Current(ctx)
	if err != nil {
		return types.Tenant{}, err
	}
	if err := s.assertSubdomainFree(ctx, settings, tenant.Subdomain, 0); err != nil {
		return types.Tenant{}, err
	}

	now := s.now().UTC()
	tenant.CreateDate = now
	tenant.UpdateDate = now
	created, err := s.store.Create(ctx, tenant)
	if err != nil {
		return types.Tenant{}, fmt.Errorf("tenant service: create: %w", err)
	}
	s.logger.Info("tenant created", zap.Int64("tenant_id", created.ID), zap.String("subdomain", created.Subdomain))

	if s.provisioner != nil {
		if err := s.provisioner.ProvisionDefaults(ctx, created.ID); err != nil {
			s.logger.Warn("tenant default provisioning failed", zap.Int64("tenant_id", created.ID), zap.Error(err))
		}
	}
	return created, nil
}

// Update replaces the tenant's editable fields. The caller must be bound to
// the tenant and allowed to change every attribute that differs.
func (s *TenantService) Update(ctx context.Context, caller ports.CallerContext, id int64, incoming types.Tenant) (types.Tenant, error) {
	if err := s.gate.AssertCanAccessTenant(caller, id); err != nil {
		return types.Tenant{}, err
	}
	existing, ok, err := s.store.FindByID(ctx, id)
	if err != nil {
		return types.Tenant{}, fmt.Errorf("tenant service: find %d: %w", id, err)
	}
	if !ok {
		return types.Tenant{}, httperr.NewNotFound(fmt.Sprintf("tenant with given id could not be found: %d", id))
	}
	if err := validateTenant(incoming); err != nil {
		return types.Tenant{}, err
	}
	if err := s.gate.AuthorizeMutation(ctx, caller, incoming, existing); err != nil {
		return types.Tenant{}, err
	}
	if incoming.Subdomain != existing.Subdomain {
		settings, err := s.settings.Current(ctx)
		if err != nil {
			return types.Tenant{}, err
		}
		if err := s.assertSubdomainFree(ctx, settings, incoming.Subdomain, id); err != nil {
			return types.Tenant{}, err
		}
	}

	incoming.ID = id
	incoming.CreateDate = existing.CreateDate
	incoming.UpdateDate = s.now().UTC()
	updated, err := s.store.Update(ctx, incoming)
	if err != nil {
		return types.Tenant{}, fmt.Errorf("tenant service: update %d: %w", id, err)
	}
	s.logger.Info("tenant updated", zap.Int64("tenant_id", id))
	return updated, nil
}

// FindByID returns the full record to a caller bound to the tenant.
func (s *TenantService) FindByID(ctx context.Context, caller ports.CallerContext, id int64) (types.Tenant, error) {
	if err := s.gate.AssertCanAccessTenant(caller, id); err != nil {
		return types.Tenant{}, err
	}
	tenant, ok, err := s.store.FindByID(ctx, id)
	if err != nil {
		return types.Tenant{}, fmt.Errorf("tenant service: find %d: %w", id, err)
	}
	if !ok {
		return types.Tenant{}, httperr.NewNotFound(fmt.Sprintf("tenant with given id could not be found: %d", id))
	}
	return tenant, nil
}

func (s *TenantService) FindRestrictedByID(ctx context.Context, id int64, lang string) (types.RestrictedTenant, error) {
	tenant, ok, err := s.store.FindByID(ctx, id)
	if err != nil {
		return types.RestrictedTenant{}, fmt.Errorf("tenant service: find %d: %w", id, err)
	}
	if !ok {
		return types.RestrictedTenant{}, httperr.NewNotFound(fmt.Sprintf("tenant with given id could not be found: %d", id))
	}
	return tenant.Restricted(lang), nil
}

// FindBySubdomain returns the public view for a subdomain. With single-domain
// multitenancy a resolved tenant contributes its privacy policy to the view of
// the domain's main tenant.
func (s *TenantService) FindBySubdomain(ctx context.Context, caller ports.CallerContext, subdomain string, override *int64, lang string) (types.RestrictedTenant, error) {
	settings, err := s.settings.Current(ctx)
	if err != nil {
		return types.RestrictedTenant{}, err
	}
	main, ok, err := s.store.FindBySubdomain(ctx, subdomain)
	if err != nil {
		return types.RestrictedTenant{}, fmt.Errorf("tenant service: find subdomain %q: %w", subdomain, err)
	}
	if !ok && settings.SingleDomainEnabled && settings.MainTenantSubdomain != "" && settings.MainTenantSubdomain != subdomain {
		main, ok, err = s.store.FindBySubdomain(ctx, settings.MainTenantSubdomain)
		if err != nil {
			return types.RestrictedTenant{}, fmt.Errorf("tenant service: find subdomain %q: %w", settings.MainTenantSubdomain, err)
		}
	}
	if !ok {
		return types.RestrictedTenant{}, httperr.NewNotFound(fmt.Sprintf("tenant not found for subdomain %s", subdomain))
	}
	if !settings.SingleDomainEnabled {
		return main.Restricted(lang), nil
	}
	resolvedID, resolved := s.resolver.ResolveWith(settings, caller, override)
	if !resolved {
		return main.Restricted(lang), nil
	}
	return s.views.BuildView(ctx, main, resolvedID, lang)
}

func (s *TenantService) List(ctx context.Context) ([]types.BasicTenantLicensing, error) {
	tenants, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("tenant service: list: %w", err)
	}
	out := make([]types.BasicTenantLicensing, 0, len(tenants))
	for _, t := range tenants {
		out = append(out, t.BasicLicensing())
	}
	return out, nil
}

// SingleTenant serves installations that run exactly one tenant.
func (s *TenantService) SingleTenant(ctx context.Context, lang string) (types.RestrictedTenant, error) {
	tenants, err := s.store.List(ctx)
	if err != nil {
		return types.RestrictedTenant{}, fmt.Errorf("tenant service: list: %w", err)
	}
	switch len(tenants) {
	case 0:
		return types.RestrictedTenant{}, httperr.NewNotFound("no tenant configured")
	case 1:
		return tenants[0].Restricted(lang), nil
	default:
		return types.RestrictedTenant{}, httperr.NewBadRequest(fmt.Sprintf("expected a single tenant but found %d", len(tenants)))
	}
}

func (s *TenantService) assertSubdomainFree(ctx context.Context, settings types.ApplicationSettings, subdomain string, selfID int64) error {
	if settings.SingleDomainEnabled {
		return nil
	}
	other, ok, err := s.store.FindBySubdomain(ctx, subdomain)
	if err != nil {
		return fmt.Errorf("tenant service: find subdomain %q: %w", subdomain, err)
	}
	if ok && other.ID != selfID {
		return httperr.NewConflict(fmt.Sprintf("subdomain already in use: %s", subdomain))
	}
	return nil
}

func validateTenant(t types.Tenant) error {
	if strings.TrimSpace(t.Name) == "" {
		return httperr.NewBadRequest("name is required")
	}
	if strings.TrimSpace(t.Subdomain) == "" {
		return httperr.NewBadRequest("subdomain is required")
	}
	if t.Licensing.AllowedNumberOfUsers < 0 {
		return httperr.NewBadRequest("allowedNumberOfUsers must not be negative")
	}
	for field, tr := range map[string]types.Translations{
		"impressum":   t.Content.Impressum,
		"claim":       t.Content.Claim,
		"dataPrivacy": t.Content.DataPrivacy,
	} {
		for lang := range tr {
			if !isLanguageCode(lang) {
				return httperr.NewBadRequest(fmt.Sprintf("%s: invalid language code %q", field, lang))
			}
		}
	}
	return nil
}

func isLanguageCode(s string) bool {
	if len(s) != 2 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < 'a' || s[i] > 'z' {
			return false
		}
	}
	return true
}

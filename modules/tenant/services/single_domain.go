package services

import (
	"context"
	"fmt"

	"github.com/jacksonlee411/tenant-service/modules/tenant/domain/ports"
	"github.com/jacksonlee411/tenant-service/modules/tenant/domain/types"
	"github.com/jacksonlee411/tenant-service/pkg/httperr"
)

// ViewBuilder assembles the public view for single-domain deployments, where
// several tenants share one subdomain.
type ViewBuilder struct {
	store ports.TenantStore
}

func NewViewBuilder(store ports.TenantStore) *ViewBuilder {
	return &ViewBuilder{store: store}
}

// BuildView returns main's public view with the content privacy policy of the
// tenant identified by overrideID. Branding and texts stay with the domain.
func (b *ViewBuilder) BuildView(ctx context.Context, main types.Tenant, overrideID int64, lang string) (types.RestrictedTenant, error) {
	resolved, ok, err := b.store.FindByID(ctx, overrideID)
	if err != nil {
		return types.RestrictedTenant{}, fmt.Errorf("single domain view: find tenant %d: %w", overrideID, err)
	}
	if !ok {
		return types.RestrictedTenant{}, httperr.NewNotFound(fmt.Sprintf("tenant not found for id %d", overrideID))
	}
	return MergeForSingleDomain(main, resolved, lang), nil
}

func MergeForSingleDomain(main types.Tenant, resolved types.Tenant, lang string) types.RestrictedTenant {
	view := main.Restricted(lang)
	view.Content.Privacy = resolved.Content.Privacy
	return view
}

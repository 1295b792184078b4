// Package settings provides the application-wide switches the tenant core
// reads on every request: single-domain multitenancy, legal content editing by
// single tenant admins and the main tenant subdomain.
package settings

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/jacksonlee411/tenant-service/modules/tenant/domain/types"
)

const (
	EnvSingleDomainEnabled          = "MULTITENANCY_WITH_SINGLE_DOMAIN_ENABLED"
	EnvLegalContentBySingleTenantOK = "LEGAL_CONTENT_CHANGES_BY_SINGLE_TENANT_ADMINS_ALLOWED"
	EnvMainTenantSubdomain          = "MAIN_TENANT_SUBDOMAIN_FOR_SINGLE_DOMAIN"
)

type StaticProvider struct {
	settings types.ApplicationSettings
}

func NewStaticProvider(s types.ApplicationSettings) *StaticProvider {
	return &StaticProvider{settings: s}
}

func (p *StaticProvider) Current(context.Context) (types.ApplicationSettings, error) {
	return p.settings, nil
}

// FromEnv reads the settings from the process environment. Unset flags are
// false; malformed flags are an error.
func FromEnv() (types.ApplicationSettings, error) {
	single, err := envBool(EnvSingleDomainEnabled)
	if err != nil {
		return types.ApplicationSettings{}, err
	}
	legal, err := envBool(EnvLegalContentBySingleTenantOK)
	if err != nil {
		return types.ApplicationSettings{}, err
	}
	return types.ApplicationSettings{
		SingleDomainEnabled:                     single,
		LegalContentEditableBySingleTenantAdmin: legal,
		MainTenantSubdomain:                     strings.TrimSpace(os.Getenv(EnvMainTenantSubdomain)),
	}, nil
}

func envBool(key string) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("settings: invalid %s", key)
	}
	return v, nil
}

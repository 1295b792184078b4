package settings

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jacksonlee411/tenant-service/modules/tenant/domain/ports"
	"github.com/jacksonlee411/tenant-service/modules/tenant/domain/types"
	"github.com/redis/go-redis/v9"
)

const DefaultRedisKey = "tenant-service:application-settings"

// Hash fields of the settings key.
const (
	FieldSingleDomainEnabled          = "multitenancyWithSingleDomainEnabled"
	FieldLegalContentBySingleTenantOK = "legalContentChangesBySingleTenantAdminsAllowed"
	FieldMainTenantSubdomain          = "mainTenantSubdomainForSingleDomainMultitenancy"
)

// RedisProvider reads settings from a redis hash so operators can flip them
// without a restart. Fields absent from the hash fall back to the provider's
// defaults.
type RedisProvider struct {
	client   *redis.Client
	key      string
	defaults ports.SettingsProvider
}

func NewRedisProvider(url string, key string, defaults ports.SettingsProvider) (*RedisProvider, error) {
	if strings.TrimSpace(url) == "" {
		return nil, errors.New("settings: missing redis url")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("settings: parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("settings: connect redis: %w", err)
	}
	return NewRedisProviderWithClient(client, key, defaults), nil
}

func NewRedisProviderWithClient(client *redis.Client, key string, defaults ports.SettingsProvider) *RedisProvider {
	if strings.TrimSpace(key) == "" {
		key = DefaultRedisKey
	}
	if defaults == nil {
		defaults = NewStaticProvider(types.ApplicationSettings{})
	}
	return &RedisProvider{client: client, key: key, defaults: defaults}
}

func (p *RedisProvider) Close() error {
	if p.client == nil {
		return nil
	}
	return p.client.Close()
}

func (p *RedisProvider) Current(ctx context.Context) (types.ApplicationSettings, error) {
	out, err := p.defaults.Current(ctx)
	if err != nil {
		return types.ApplicationSettings{}, err
	}
	fields, err := p.client.HGetAll(ctx, p.key).Result()
	if err != nil {
		return types.ApplicationSettings{}, fmt.Errorf("settings: read %s: %w", p.key, err)
	}
	if raw, ok := fields[FieldSingleDomainEnabled]; ok {
		if out.SingleDomainEnabled, err = parseFlag(FieldSingleDomainEnabled, raw); err != nil {
			return types.ApplicationSettings{}, err
		}
	}
	if raw, ok := fields[FieldLegalContentBySingleTenantOK]; ok {
		if out.LegalContentEditableBySingleTenantAdmin, err = parseFlag(FieldLegalContentBySingleTenantOK, raw); err != nil {
			return types.ApplicationSettings{}, err
		}
	}
	if raw, ok := fields[FieldMainTenantSubdomain]; ok {
		out.MainTenantSubdomain = strings.TrimSpace(raw)
	}
	return out, nil
}

// Store writes all settings to the hash.
func (p *RedisProvider) Store(ctx context.Context, s types.ApplicationSettings) error {
	return p.client.HSet(ctx, p.key,
		FieldSingleDomainEnabled, strconv.FormatBool(s.SingleDomainEnabled),
		FieldLegalContentBySingleTenantOK, strconv.FormatBool(s.LegalContentEditableBySingleTenantAdmin),
		FieldMainTenantSubdomain, s.MainTenantSubdomain,
	).Err()
}

func parseFlag(field string, raw string) (bool, error) {
	v, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return false, fmt.Errorf("settings: invalid %s value %q", field, raw)
	}
	return v, nil
}

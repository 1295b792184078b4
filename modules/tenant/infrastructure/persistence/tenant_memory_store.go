package persistence

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/jacksonlee411/tenant-service/modules/tenant/domain/ports"
	"github.com/jacksonlee411/tenant-service/modules/tenant/domain/types"
	"gopkg.in/yaml.v3"
)

// TenantMemoryStore keeps tenants in process. It backs local runs and tests.
type TenantMemoryStore struct {
	mu     sync.Mutex
	byID   map[int64]types.Tenant
	nextID int64
}

func NewTenantMemoryStore(seed ...types.Tenant) ports.TenantStore {
	s := &TenantMemoryStore{byID: make(map[int64]types.Tenant), nextID: 1}
	// Explicit ids are placed first so implicit ones never take their slot.
	for _, t := range seed {
		if t.ID == 0 {
			continue
		}
		s.byID[t.ID] = cloneTenant(t)
		if t.ID >= s.nextID {
			s.nextID = t.ID + 1
		}
	}
	for _, t := range seed {
		if t.ID != 0 {
			continue
		}
		t.ID = s.nextID
		s.nextID++
		s.byID[t.ID] = cloneTenant(t)
	}
	return s
}

func (s *TenantMemoryStore) FindByID(_ context.Context, id int64) (types.Tenant, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.byID[id]
	if !ok {
		return types.Tenant{}, false, nil
	}
	return cloneTenant(t), true, nil
}

func (s *TenantMemoryStore) FindBySubdomain(_ context.Context, subdomain string) (types.Tenant, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.sortedIDsLocked() {
		if s.byID[id].Subdomain == subdomain {
			return cloneTenant(s.byID[id]), true, nil
		}
	}
	return types.Tenant{}, false, nil
}

func (s *TenantMemoryStore) List(context.Context) ([]types.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.Tenant, 0, len(s.byID))
	for _, id := range s.sortedIDsLocked() {
		out = append(out, cloneTenant(s.byID[id]))
	}
	return out, nil
}

func (s *TenantMemoryStore) Create(_ context.Context, tenant types.Tenant) (types.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tenant.ID = s.nextID
	s.nextID++
	s.byID[tenant.ID] = cloneTenant(tenant)
	return cloneTenant(tenant), nil
}

func (s *TenantMemoryStore) Update(_ context.Context, tenant types.Tenant) (types.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[tenant.ID]; !ok {
		return types.Tenant{}, fmt.Errorf("tenant %d does not exist", tenant.ID)
	}
	s.byID[tenant.ID] = cloneTenant(tenant)
	return cloneTenant(tenant), nil
}

func (s *TenantMemoryStore) sortedIDsLocked() []int64 {
	return slices.Sorted(maps.Keys(s.byID))
}

func cloneTenant(t types.Tenant) types.Tenant {
	t.Content.Impressum = maps.Clone(t.Content.Impressum)
	t.Content.Claim = maps.Clone(t.Content.Claim)
	t.Content.DataPrivacy = maps.Clone(t.Content.DataPrivacy)
	return t
}

type seedFile struct {
	Version int            `yaml:"version"`
	Tenants []types.Tenant `yaml:"tenants"`
}

// LoadSeed reads a versioned tenants yaml file.
func LoadSeed(path string) ([]types.Tenant, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseSeed(b)
}

func ParseSeed(b []byte) ([]types.Tenant, error) {
	var f seedFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, err
	}
	if f.Version != 1 {
		return nil, errors.New("tenant seed: unsupported version")
	}
	seen := make(map[int64]struct{}, len(f.Tenants))
	for i, t := range f.Tenants {
		if strings.TrimSpace(t.Name) == "" || strings.TrimSpace(t.Subdomain) == "" {
			return nil, fmt.Errorf("tenant seed: entry %d: name and subdomain are required", i)
		}
		if t.ID < 0 {
			return nil, fmt.Errorf("tenant seed: entry %d: id must be positive", i)
		}
		if t.ID == 0 {
			continue
		}
		if _, ok := seen[t.ID]; ok {
			return nil, fmt.Errorf("tenant seed: duplicate id %d", t.ID)
		}
		seen[t.ID] = struct{}{}
	}
	return f.Tenants, nil
}

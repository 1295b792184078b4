package services

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/jacksonlee411/tenant-service/modules/tenant/domain/types"
	"github.com/jacksonlee411/tenant-service/pkg/authz"
)

type fakeStore struct {
	mu      sync.Mutex
	byID    map[int64]types.Tenant
	nextID  int64
	findErr error
	updated []types.Tenant
}

func newFakeStore(tenants ...types.Tenant) *fakeStore {
	s := &fakeStore{byID: map[int64]types.Tenant{}, nextID: 1}
	for _, t := range tenants {
		s.byID[t.ID] = t
		if t.ID >= s.nextID {
			s.nextID = t.ID + 1
		}
	}
	return s
}

func (s *fakeStore) FindByID(_ context.Context, id int64) (types.Tenant, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return types.Tenant{}, false, s.findErr
	}
	t, ok := s.byID[id]
	return t, ok, nil
}

func (s *fakeStore) FindBySubdomain(_ context.Context, subdomain string) (types.Tenant, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return types.Tenant{}, false, s.findErr
	}
	for _, id := range s.sortedIDs() {
		if s.byID[id].Subdomain == subdomain {
			return s.byID[id], true, nil
		}
	}
	return types.Tenant{}, false, nil
}

func (s *fakeStore) List(context.Context) ([]types.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.Tenant, 0, len(s.byID))
	for _, id := range s.sortedIDs() {
		out = append(out, s.byID[id])
	}
	return out, nil
}

func (s *fakeStore) Create(_ context.Context, t types.Tenant) (types.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = s.nextID
	s.nextID++
	s.byID[t.ID] = t
	return t, nil
}

func (s *fakeStore) Update(_ context.Context, t types.Tenant) (types.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[t.ID]; !ok {
		return types.Tenant{}, errors.New("missing")
	}
	s.byID[t.ID] = t
	s.updated = append(s.updated, t)
	return t, nil
}

func (s *fakeStore) sortedIDs() []int64 {
	ids := make([]int64, 0, len(s.byID))
	for id := range s.byID {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

type staticSettings struct {
	settings types.ApplicationSettings
	err      error
	calls    int
}

func (s *staticSettings) Current(context.Context) (types.ApplicationSettings, error) {
	s.calls++
	return s.settings, s.err
}

type fakeCaller struct {
	roles    authz.RoleSet
	claim    *int64
	cookie   string
	hasToken bool
}

func (c fakeCaller) Roles() authz.RoleSet { return c.roles }

func (c fakeCaller) TenantClaim() (int64, bool) {
	if c.claim == nil {
		return 0, false
	}
	return *c.claim, true
}

func (c fakeCaller) RawCookieToken() (string, bool) {
	return c.cookie, c.hasToken
}

func callerWith(claim *int64, roles ...string) fakeCaller {
	return fakeCaller{roles: authz.NewRoleSet(roles...), claim: claim}
}

func cookieCaller(token string) fakeCaller {
	return fakeCaller{roles: authz.NewRoleSet(), cookie: token, hasToken: true}
}

func id64(v int64) *int64 { return &v }

type recordingMetrics struct {
	resolutions []string
	denials     []string
}

func (m *recordingMetrics) ObserveResolution(source string) {
	m.resolutions = append(m.resolutions, source)
}
func (m *recordingMetrics) ObserveDenial(check string) { m.denials = append(m.denials, check) }

type fakeProvisioner struct {
	calls []int64
	err   error
}

func (p *fakeProvisioner) ProvisionDefaults(_ context.Context, tenantID int64) error {
	p.calls = append(p.calls, tenantID)
	return p.err
}

// unsignedToken builds a three-segment token whose payload is the given JSON.
func unsignedToken(payload string) string {
	return "eyJhbGciOiJub25lIn0." + encodeSegment(payload) + ".sig"
}

package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/jacksonlee411/tenant-service/modules/tenant/domain/types"
	"github.com/jacksonlee411/tenant-service/modules/tenant/infrastructure/persistence"
	"github.com/jacksonlee411/tenant-service/modules/tenant/infrastructure/settings"
	"github.com/jacksonlee411/tenant-service/pkg/authz"
	"go.uber.org/zap"
)

var testSecret = []byte("test-secret")

func seedTenants() []types.Tenant {
	return []types.Tenant{
		{
			ID:        1,
			Name:      "Main",
			Subdomain: "app",
			Licensing: types.Licensing{AllowedNumberOfUsers: 5},
			Theming:   types.Theming{PrimaryColor: "#111111"},
			Content: types.Content{
				Impressum: types.Translations{"de": "Impressum", "en": "Imprint"},
				Privacy:   "main privacy",
			},
		},
		{
			ID:        7,
			Name:      "Agency",
			Subdomain: "agency",
			Theming:   types.Theming{PrimaryColor: "#777777"},
			Content:   types.Content{Privacy: "agency privacy"},
		},
	}
}

func newTestHandler(t *testing.T, s types.ApplicationSettings, tenants []types.Tenant) (http.Handler, *Metrics) {
	t.Helper()

	verifier, err := NewHS256Verifier(testSecret)
	if err != nil {
		t.Fatal(err)
	}
	t.Setenv("AUTHZ_MODE", "enforce")
	a, err := loadAuthorizer()
	if err != nil {
		t.Fatal(err)
	}
	m := NewMetrics()
	h, err := NewHandlerWithOptions(HandlerOptions{
		TenantStore: persistence.NewTenantMemoryStore(tenants...),
		Settings:    settings.NewStaticProvider(s),
		Verifier:    verifier,
		Authorizer:  a,
		Metrics:     m,
	})
	if err != nil {
		t.Fatal(err)
	}
	return h, m
}

func signToken(t *testing.T, tenantID *int64, roles ...string) string {
	t.Helper()

	claims := keycloakClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		TenantID: tenantID,
		Username: "tester",
	}
	claims.RealmAccess.Roles = roles
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	if err != nil {
		t.Fatal(err)
	}
	return raw
}

func do(t *testing.T, h http.Handler, method string, target string, body string, token string) *httptest.ResponseRecorder {
	t.Helper()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	var body struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	return body.Code
}

func id64(v int64) *int64 { return &v }

func TestHandler_Health(t *testing.T) {
	h, _ := newTestHandler(t, types.ApplicationSettings{}, seedTenants())
	for _, path := range []string{"/health", "/healthz"} {
		rec := do(t, h, http.MethodGet, path, "", "")
		if rec.Code != http.StatusOK || rec.Body.String() != "ok\n" {
			t.Fatalf("%s: status=%d body=%q", path, rec.Code, rec.Body.String())
		}
	}
}

func TestHandler_RequestIDHeader(t *testing.T) {
	h, _ := newTestHandler(t, types.ApplicationSettings{}, seedTenants())

	rec := do(t, h, http.MethodGet, "/health", "", "")
	if rec.Header().Get(requestIDHeader) == "" {
		t.Fatal("expected generated request id")
	}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "abc")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get(requestIDHeader); got != "abc" {
		t.Fatalf("request id=%q", got)
	}
}

func TestHandler_InternalRequiresBearer(t *testing.T) {
	h, _ := newTestHandler(t, types.ApplicationSettings{}, seedTenants())

	rec := do(t, h, http.MethodGet, "/tenant", "", "")
	if rec.Code != http.StatusUnauthorized || errorCode(t, rec) != "unauthorized" {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}

	rec = do(t, h, http.MethodGet, "/tenant", "", "not-a-token")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d", rec.Code)
	}
}

func TestHandler_InvalidBearerRejectedOnPublicRoute(t *testing.T) {
	h, _ := newTestHandler(t, types.ApplicationSettings{}, seedTenants())

	rec := do(t, h, http.MethodGet, "/tenant/public/app", "", "garbage")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d", rec.Code)
	}
}

func TestHandler_ListRequiresTenantAdmin(t *testing.T) {
	h, _ := newTestHandler(t, types.ApplicationSettings{}, seedTenants())

	rec := do(t, h, http.MethodGet, "/tenant", "", signToken(t, id64(1), authz.RoleSingleTenantAdmin))
	if rec.Code != http.StatusForbidden || errorCode(t, rec) != "forbidden" {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}

	rec = do(t, h, http.MethodGet, "/tenant", "", signToken(t, nil, authz.RoleTenantAdmin))
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	var rows []types.BasicTenantLicensing
	if err := json.Unmarshal(rec.Body.Bytes(), &rows); err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 || rows[0].ID != 1 || rows[0].Licensing.AllowedNumberOfUsers != 5 {
		t.Fatalf("rows=%+v", rows)
	}
}

func TestHandler_GetTenantBinding(t *testing.T) {
	h, _ := newTestHandler(t, types.ApplicationSettings{}, seedTenants())

	rec := do(t, h, http.MethodGet, "/tenant/7", "", signToken(t, id64(7), authz.RoleSingleTenantAdmin))
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}

	rec = do(t, h, http.MethodGet, "/tenant/1", "", signToken(t, id64(7), authz.RoleSingleTenantAdmin))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}

	rec = do(t, h, http.MethodGet, "/tenant/99", "", signToken(t, nil, authz.RoleTenantAdmin))
	if rec.Code != http.StatusNotFound || errorCode(t, rec) != "not_found" {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}

	rec = do(t, h, http.MethodGet, "/tenant/abc", "", signToken(t, nil, authz.RoleTenantAdmin))
	if rec.Code != http.StatusBadRequest || errorCode(t, rec) != "invalid_tenant_id" {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
}

func TestHandler_CreateTenant(t *testing.T) {
	h, _ := newTestHandler(t, types.ApplicationSettings{}, seedTenants())
	admin := signToken(t, nil, authz.RoleTenantAdmin)

	rec := do(t, h, http.MethodPost, "/tenant", `{"name":"New","subdomain":"new","licensing":{"allowedNumberOfUsers":3}}`, admin)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	var created types.Tenant
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}
	if created.ID == 0 || created.Subdomain != "new" || created.CreateDate.IsZero() {
		t.Fatalf("created=%+v", created)
	}

	rec = do(t, h, http.MethodPost, "/tenant", `{"name":"Dup","subdomain":"new"}`, admin)
	if rec.Code != http.StatusConflict || errorCode(t, rec) != "conflict" {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}

	rec = do(t, h, http.MethodPost, "/tenant", `{"name":`, admin)
	if rec.Code != http.StatusBadRequest || errorCode(t, rec) != "invalid_json" {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}

	rec = do(t, h, http.MethodPost, "/tenant", `{"name":"x","subdomain":"y"}`, signToken(t, id64(1), authz.RoleSingleTenantAdmin))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
}

func TestHandler_UpdateTenantAttributes(t *testing.T) {
	h, _ := newTestHandler(t, types.ApplicationSettings{}, seedTenants())

	body := `{"name":"Agency","subdomain":"agency","theming":{"primaryColor":"#000000"},"content":{"privacy":"agency privacy"}}`
	rec := do(t, h, http.MethodPut, "/tenant/7", body, signToken(t, id64(7), authz.RoleSingleTenantAdmin))
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}

	body = `{"name":"Agency","subdomain":"agency","theming":{"primaryColor":"#000000"},"content":{"privacy":"agency privacy"},"settings":{"featureTopicsEnabled":true}}`
	rec = do(t, h, http.MethodPut, "/tenant/7", body, signToken(t, id64(7), authz.RoleSingleTenantAdmin))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}

	rec = do(t, h, http.MethodPut, "/tenant/7", body, signToken(t, nil, authz.RoleTenantAdmin))
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	var updated types.Tenant
	if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
		t.Fatal(err)
	}
	if !updated.Settings.TopicsEnabled || updated.ID != 7 {
		t.Fatalf("updated=%+v", updated)
	}
}

func TestHandler_PublicBySubdomain(t *testing.T) {
	h, _ := newTestHandler(t, types.ApplicationSettings{}, seedTenants())

	rec := do(t, h, http.MethodGet, "/tenant/public/app?lang=en", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	var view types.RestrictedTenant
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatal(err)
	}
	if view.ID != 1 || view.Content.Impressum != "Imprint" || view.Content.Privacy != "main privacy" {
		t.Fatalf("view=%+v", view)
	}

	rec = do(t, h, http.MethodGet, "/tenant/public/missing", "", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status=%d", rec.Code)
	}

	rec = do(t, h, http.MethodGet, "/tenant/public/app?tenantId=-1", "", "")
	if rec.Code != http.StatusBadRequest || errorCode(t, rec) != "invalid_tenant_id" {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
}

func TestHandler_PublicSingleDomainCookieMerge(t *testing.T) {
	h, _ := newTestHandler(t, types.ApplicationSettings{
		SingleDomainEnabled: true,
		MainTenantSubdomain: "app",
	}, seedTenants())

	req := httptest.NewRequest(http.MethodGet, "/tenant/public/app", nil)
	req.Header.Set("Accept-Language", "en-GB,en;q=0.8")
	req.AddCookie(&http.Cookie{Name: keycloakCookieName, Value: signToken(t, id64(7))})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	var view types.RestrictedTenant
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatal(err)
	}
	if view.ID != 1 || view.Theming.PrimaryColor != "#111111" {
		t.Fatalf("expected main tenant branding, got %+v", view)
	}
	if view.Content.Privacy != "agency privacy" {
		t.Fatalf("privacy=%q", view.Content.Privacy)
	}
	if view.Content.Impressum != "Imprint" {
		t.Fatalf("impressum=%q", view.Content.Impressum)
	}
}

func TestHandler_PublicByIDAndSingle(t *testing.T) {
	h, _ := newTestHandler(t, types.ApplicationSettings{}, seedTenants())

	rec := do(t, h, http.MethodGet, "/tenant/public/id/7", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}

	rec = do(t, h, http.MethodGet, "/tenant/public/single", "", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}

	single, _ := newTestHandler(t, types.ApplicationSettings{}, seedTenants()[:1])
	rec = do(t, single, http.MethodGet, "/tenant/public/single", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}

	empty, _ := newTestHandler(t, types.ApplicationSettings{}, nil)
	rec = do(t, empty, http.MethodGet, "/tenant/public/single", "", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
}

func TestHandler_MethodNotAllowed(t *testing.T) {
	h, _ := newTestHandler(t, types.ApplicationSettings{}, seedTenants())

	rec := do(t, h, http.MethodDelete, "/tenant/public/app", "", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status=%d", rec.Code)
	}
}

func TestHandler_MetricsEndpoint(t *testing.T) {
	h, _ := newTestHandler(t, types.ApplicationSettings{}, seedTenants())

	_ = do(t, h, http.MethodGet, "/tenant/public/app", "", "")
	rec := do(t, h, http.MethodGet, "/metrics", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `tenant_service_http_requests_total{method="GET",route="/tenant/public/{subdomain}",status="200"} 1`) {
		t.Fatalf("missing request counter in:\n%s", body)
	}
}

func TestTenantStoreFromEnv(t *testing.T) {
	t.Setenv("TENANT_STORE", "memory")
	t.Setenv("TENANTS_PATH", "")
	store, err := tenantStoreFromEnv(t.Context())
	if err != nil {
		t.Fatal(err)
	}
	got, ok, err := store.FindBySubdomain(t.Context(), "app")
	if err != nil || !ok || got.ID != 1 {
		t.Fatalf("tenant=%+v ok=%v err=%v", got, ok, err)
	}

	t.Setenv("TENANT_STORE", "sqlite")
	if _, err := tenantStoreFromEnv(t.Context()); err == nil {
		t.Fatal("expected error")
	}
}

func TestSettingsFromEnv(t *testing.T) {
	t.Setenv(settings.EnvSingleDomainEnabled, "true")
	t.Setenv(settings.EnvLegalContentBySingleTenantOK, "")
	t.Setenv(settings.EnvMainTenantSubdomain, "")
	t.Setenv("SETTINGS_SOURCE", "")
	p, err := settingsFromEnv()
	if err != nil {
		t.Fatal(err)
	}
	s, err := p.Current(t.Context())
	if err != nil || !s.SingleDomainEnabled {
		t.Fatalf("settings=%+v err=%v", s, err)
	}

	mr := miniredis.RunT(t)
	t.Setenv("SETTINGS_SOURCE", "redis")
	t.Setenv("REDIS_URL", "redis://"+mr.Addr())
	t.Setenv("SETTINGS_REDIS_KEY", "")
	p, err = settingsFromEnv()
	if err != nil {
		t.Fatal(err)
	}
	mr.HSet(settings.DefaultRedisKey, "mainTenantSubdomainForSingleDomainMultitenancy", "app")
	s, err = p.Current(t.Context())
	if err != nil || !s.SingleDomainEnabled || s.MainTenantSubdomain != "app" {
		t.Fatalf("settings=%+v err=%v", s, err)
	}

	t.Setenv("SETTINGS_SOURCE", "consul")
	if _, err := settingsFromEnv(); err == nil {
		t.Fatal("expected error")
	}
}

func TestProvisionerFromEnv(t *testing.T) {
	t.Setenv("CONSULTING_TYPE_SERVICE_URL", "")
	t.Setenv("TOPIC_SERVICE_URL", "")
	p, err := provisionerFromEnv(zap.NewNop())
	if err != nil || p != nil {
		t.Fatalf("p=%v err=%v", p, err)
	}

	t.Setenv("CONSULTING_TYPE_SERVICE_URL", "http://consultingtypes.local")
	t.Setenv("TOPIC_SERVICE_URL", "http://topics.local")
	p, err = provisionerFromEnv(zap.NewNop())
	if err != nil || p == nil {
		t.Fatalf("p=%v err=%v", p, err)
	}

	t.Setenv("TOPIC_SERVICE_URL", "")
	if _, err := provisionerFromEnv(zap.NewNop()); err == nil {
		t.Fatal("expected error for missing topic service url")
	}
}

package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jacksonlee411/tenant-service/internal/routing"
	"github.com/jacksonlee411/tenant-service/modules/tenant/domain/ports"
	"github.com/jacksonlee411/tenant-service/modules/tenant/infrastructure/consultingtype"
	"github.com/jacksonlee411/tenant-service/modules/tenant/infrastructure/persistence"
	"github.com/jacksonlee411/tenant-service/modules/tenant/infrastructure/settings"
	"github.com/jacksonlee411/tenant-service/modules/tenant/services"
	"go.uber.org/zap"
)

func NewHandler() (http.Handler, error) {
	return NewHandlerWithOptions(HandlerOptions{})
}

// HandlerOptions overrides the dependencies NewHandlerWithOptions would
// otherwise build from the environment.
type HandlerOptions struct {
	TenantStore ports.TenantStore
	Settings    ports.SettingsProvider
	Provisioner ports.Provisioner
	Verifier    TokenVerifier
	Authorizer  authorizer
	Logger      *zap.Logger
	Metrics     *Metrics
}

func NewHandlerWithOptions(opts HandlerOptions) (http.Handler, error) {
	allowlistPath, err := configPath("ALLOWLIST_PATH", "config/routing/allowlist.yaml")
	if err != nil {
		return nil, err
	}
	a, err := routing.LoadAllowlist(allowlistPath)
	if err != nil {
		return nil, err
	}
	classifier, err := routing.NewClassifier(a, "server")
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = NewMetrics()
	}

	store := opts.TenantStore
	if store == nil {
		s, err := tenantStoreFromEnv(context.Background())
		if err != nil {
			return nil, err
		}
		store = s
	}

	settingsProvider := opts.Settings
	if settingsProvider == nil {
		p, err := settingsFromEnv()
		if err != nil {
			return nil, err
		}
		settingsProvider = p
	}

	provisioner := opts.Provisioner
	if provisioner == nil {
		p, err := provisionerFromEnv(logger)
		if err != nil {
			return nil, err
		}
		provisioner = p
	}

	verifier := opts.Verifier
	if verifier == nil {
		v, err := tokenVerifierFromEnv()
		if err != nil {
			return nil, err
		}
		verifier = v
	}

	routeAuthz := opts.Authorizer
	if routeAuthz == nil {
		az, err := loadAuthorizer()
		if err != nil {
			return nil, err
		}
		routeAuthz = az
	}

	svc, err := services.NewTenantService(services.TenantServiceOptions{
		Store:       store,
		Settings:    settingsProvider,
		Provisioner: provisioner,
		Logger:      logger,
		Metrics:     metrics,
	})
	if err != nil {
		return nil, err
	}
	api := &tenantAPI{svc: svc, logger: logger}

	router := routing.NewRouter(classifier)
	router.OnPanic(func(r *http.Request, rec any, stack []byte) {
		logger.Error("handler panic",
			zap.String("request_id", requestIDFromContext(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Any("panic", rec),
			zap.ByteString("stack", stack),
		)
	})
	handle := func(rc routing.RouteClass, method string, path string, fn http.HandlerFunc) {
		router.Handle(rc, method, path, metrics.instrument(fn))
	}

	ok := func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	}
	handle(routing.RouteClassOps, http.MethodGet, "/health", ok)
	handle(routing.RouteClassOps, http.MethodGet, "/healthz", ok)
	router.Handle(routing.RouteClassOps, http.MethodGet, "/metrics", metrics.Handler())

	handle(routing.RouteClassInternalAPI, http.MethodGet, "/tenant", api.handleList)
	handle(routing.RouteClassInternalAPI, http.MethodPost, "/tenant", api.handleCreate)
	handle(routing.RouteClassInternalAPI, http.MethodGet, "/tenant/{id}", api.handleGet)
	handle(routing.RouteClassInternalAPI, http.MethodPut, "/tenant/{id}", api.handleUpdate)

	handle(routing.RouteClassPublicAPI, http.MethodGet, "/tenant/public/single", api.handlePublicSingle)
	handle(routing.RouteClassPublicAPI, http.MethodGet, "/tenant/public/id/{id}", api.handlePublicByID)
	handle(routing.RouteClassPublicAPI, http.MethodGet, "/tenant/public/{subdomain}", api.handlePublicBySubdomain)

	return withRequestLog(logger, withAuthn(classifier, verifier, logger, withAuthz(classifier, routeAuthz, logger, router))), nil
}

func tenantStoreFromEnv(ctx context.Context) (ports.TenantStore, error) {
	switch strings.ToLower(getenvDefault("TENANT_STORE", "pg")) {
	case "memory":
		path, err := configPath("TENANTS_PATH", "config/tenants.yaml")
		if err != nil {
			return nil, err
		}
		seed, err := persistence.LoadSeed(path)
		if err != nil {
			return nil, err
		}
		return persistence.NewTenantMemoryStore(seed...), nil
	case "pg":
		pool, err := pgxpool.New(ctx, dbDSNFromEnv())
		if err != nil {
			return nil, err
		}
		return persistence.NewTenantPGStore(pool), nil
	default:
		return nil, errors.New("server: invalid TENANT_STORE (expected pg|memory)")
	}
}

func settingsFromEnv() (ports.SettingsProvider, error) {
	defaults, err := settings.FromEnv()
	if err != nil {
		return nil, err
	}
	static := settings.NewStaticProvider(defaults)
	switch strings.ToLower(getenvDefault("SETTINGS_SOURCE", "env")) {
	case "env":
		return static, nil
	case "redis":
		return settings.NewRedisProvider(os.Getenv("REDIS_URL"), os.Getenv("SETTINGS_REDIS_KEY"), static)
	default:
		return nil, errors.New("server: invalid SETTINGS_SOURCE (expected env|redis)")
	}
}

// provisionerFromEnv returns nil when the sibling services are not
// configured; tenants are then created without default consulting types.
func provisionerFromEnv(logger *zap.Logger) (ports.Provisioner, error) {
	ctURL := os.Getenv("CONSULTING_TYPE_SERVICE_URL")
	topicURL := os.Getenv("TOPIC_SERVICE_URL")
	if ctURL == "" && topicURL == "" {
		logger.Warn("default provisioning disabled: CONSULTING_TYPE_SERVICE_URL and TOPIC_SERVICE_URL unset")
		return nil, nil
	}
	templatePath, err := configPath("DEFAULT_CONSULTING_TYPE_PATH", "config/consultingtypes/default.json")
	if err != nil {
		return nil, err
	}
	c, err := consultingtype.NewFromFile(ctURL, topicURL, templatePath)
	if err != nil {
		return nil, err
	}
	return c, nil
}

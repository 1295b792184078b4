package server

import (
	"net/http"
	"strings"

	"github.com/jacksonlee411/tenant-service/internal/routing"
	"github.com/jacksonlee411/tenant-service/pkg/authz"
	"go.uber.org/zap"
)

func loadAuthorizer() (*authz.Authorizer, error) {
	modelPath, err := configPath("AUTHZ_MODEL_PATH", "config/access/model.conf")
	if err != nil {
		return nil, err
	}
	policyPath, err := configPath("AUTHZ_POLICY_PATH", "config/access/policy.csv")
	if err != nil {
		return nil, err
	}
	mode, err := authz.ModeFromEnv()
	if err != nil {
		return nil, err
	}
	return authz.NewAuthorizer(modelPath, policyPath, mode)
}

type authorizer interface {
	Authorize(roles authz.RoleSet, object string, action string) (allowed bool, enforced bool, err error)
}

// withAuthz applies the route-level policy to internal API routes. Tenant
// binding and per-attribute checks run later in the tenant service.
func withAuthz(classifier *routing.Classifier, a authorizer, logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rc := classifier.Classify(r.URL.Path)
		if rc != routing.RouteClassInternalAPI {
			next.ServeHTTP(w, r)
			return
		}

		object, action, shouldCheck := authzRequirementForRoute(r.Method, r.URL.Path)
		if !shouldCheck {
			next.ServeHTTP(w, r)
			return
		}

		roles := currentCaller(r.Context()).Roles()
		allowed, enforced, err := a.Authorize(roles, object, action)
		if err != nil {
			logger.Error("authz evaluation failed", zap.String("object", object), zap.String("action", action), zap.Error(err))
			routing.WriteError(w, r, rc, http.StatusInternalServerError, "authz_error", "authz error")
			return
		}
		if !allowed {
			logger.Info("route authorization denied",
				zap.String("object", object),
				zap.String("action", action),
				zap.Strings("roles", roles.Slice()),
				zap.Bool("enforced", enforced),
			)
		}
		if enforced && !allowed {
			routing.WriteError(w, r, rc, http.StatusForbidden, "forbidden", "forbidden")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func authzRequirementForRoute(method string, path string) (object string, action string, ok bool) {
	if path == "/tenant" {
		switch method {
		case http.MethodGet:
			return authz.ObjectTenants, authz.ActionRead, true
		case http.MethodPost:
			return authz.ObjectTenants, authz.ActionAdmin, true
		}
		return "", "", false
	}
	if path != "/tenant/public" && pathMatchRouteTemplate(path, "/tenant/{id}") {
		switch method {
		case http.MethodGet:
			return authz.ObjectTenant, authz.ActionRead, true
		case http.MethodPut:
			return authz.ObjectTenant, authz.ActionAdmin, true
		}
	}
	return "", "", false
}

func pathMatchRouteTemplate(path string, template string) bool {
	in := splitRouteSegments(path)
	want := splitRouteSegments(template)
	if len(in) != len(want) {
		return false
	}
	for i := range want {
		if in[i] == "" {
			return false
		}
		if routeTemplateIsParamSegment(want[i]) {
			continue
		}
		if in[i] != want[i] {
			return false
		}
	}
	return true
}

func splitRouteSegments(path string) []string {
	path = strings.TrimPrefix(strings.TrimSpace(path), "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

func routeTemplateIsParamSegment(s string) bool {
	return strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}") && len(s) > 2
}

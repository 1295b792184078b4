package server

import (
	"net/http"

	"github.com/jacksonlee411/tenant-service/internal/routing"
	"github.com/jacksonlee411/tenant-service/modules/tenant/infrastructure/consultingtype"
	"go.uber.org/zap"
)

const keycloakCookieName = "keycloak"

// withAuthn builds the caller for every non-ops request. A bearer token, when
// present, must verify; internal API routes require one. The raw keycloak
// cookie is kept unverified for the cookie tenant resolver.
func withAuthn(classifier *routing.Classifier, verifier TokenVerifier, logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rc := classifier.Classify(r.URL.Path)
		if rc == routing.RouteClassOps {
			next.ServeHTTP(w, r)
			return
		}

		var c caller
		if ck, err := r.Cookie(keycloakCookieName); err == nil && ck.Value != "" {
			c.cookie, c.hasCookie = ck.Value, true
		}

		authHeader := r.Header.Get("Authorization")
		raw, hasBearer := bearerToken(authHeader)
		switch {
		case hasBearer:
			p, err := verifier.Verify(raw)
			if err != nil {
				logger.Info("bearer token rejected", zap.String("path", r.URL.Path), zap.Error(err))
				routing.WriteError(w, r, rc, http.StatusUnauthorized, "unauthorized", "unauthorized")
				return
			}
			c.principal = p
		case rc == routing.RouteClassInternalAPI:
			routing.WriteError(w, r, rc, http.StatusUnauthorized, "unauthorized", "unauthorized")
			return
		default:
			authHeader = ""
		}

		ctx := withCaller(r.Context(), c)
		ctx = consultingtype.WithForwarded(ctx, consultingtype.Forwarded{
			Authorization: authHeader,
			TenantID:      c.principal.TenantID,
			HasTenant:     c.principal.HasTenant,
			RequestID:     requestIDFromContext(ctx),
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

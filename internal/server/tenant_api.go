package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/jacksonlee411/tenant-service/internal/routing"
	"github.com/jacksonlee411/tenant-service/modules/tenant/domain/types"
	"github.com/jacksonlee411/tenant-service/modules/tenant/services"
	"github.com/jacksonlee411/tenant-service/pkg/httperr"
	"go.uber.org/zap"
)

const maxTenantBodyBytes = 1 << 20

type tenantAPI struct {
	svc    *services.TenantService
	logger *zap.Logger
}

func (a *tenantAPI) handleList(w http.ResponseWriter, r *http.Request) {
	out, err := a.svc.List(r.Context())
	if err != nil {
		a.writeServiceError(w, r, routing.RouteClassInternalAPI, err)
		return
	}
	routing.WriteJSON(w, http.StatusOK, out)
}

func (a *tenantAPI) handleCreate(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeTenant(w, r)
	if !ok {
		return
	}
	created, err := a.svc.Create(r.Context(), in)
	if err != nil {
		a.writeServiceError(w, r, routing.RouteClassInternalAPI, err)
		return
	}
	routing.WriteJSON(w, http.StatusOK, created)
}

func (a *tenantAPI) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := tenantIDFromPath(w, r, routing.RouteClassInternalAPI)
	if !ok {
		return
	}
	t, err := a.svc.FindByID(r.Context(), currentCaller(r.Context()), id)
	if err != nil {
		a.writeServiceError(w, r, routing.RouteClassInternalAPI, err)
		return
	}
	routing.WriteJSON(w, http.StatusOK, t)
}

func (a *tenantAPI) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := tenantIDFromPath(w, r, routing.RouteClassInternalAPI)
	if !ok {
		return
	}
	in, ok := decodeTenant(w, r)
	if !ok {
		return
	}
	updated, err := a.svc.Update(r.Context(), currentCaller(r.Context()), id, in)
	if err != nil {
		a.writeServiceError(w, r, routing.RouteClassInternalAPI, err)
		return
	}
	routing.WriteJSON(w, http.StatusOK, updated)
}

func (a *tenantAPI) handlePublicBySubdomain(w http.ResponseWriter, r *http.Request) {
	var override *int64
	if raw := strings.TrimSpace(r.URL.Query().Get("tenantId")); raw != "" {
		id, err := parseTenantID(raw)
		if err != nil {
			routing.WriteError(w, r, routing.RouteClassPublicAPI, http.StatusBadRequest, "invalid_tenant_id", "invalid tenant id")
			return
		}
		override = &id
	}
	view, err := a.svc.FindBySubdomain(r.Context(), currentCaller(r.Context()), r.PathValue("subdomain"), override, requestLanguage(r))
	if err != nil {
		a.writeServiceError(w, r, routing.RouteClassPublicAPI, err)
		return
	}
	routing.WriteJSON(w, http.StatusOK, view)
}

func (a *tenantAPI) handlePublicByID(w http.ResponseWriter, r *http.Request) {
	id, ok := tenantIDFromPath(w, r, routing.RouteClassPublicAPI)
	if !ok {
		return
	}
	view, err := a.svc.FindRestrictedByID(r.Context(), id, requestLanguage(r))
	if err != nil {
		a.writeServiceError(w, r, routing.RouteClassPublicAPI, err)
		return
	}
	routing.WriteJSON(w, http.StatusOK, view)
}

func (a *tenantAPI) handlePublicSingle(w http.ResponseWriter, r *http.Request) {
	view, err := a.svc.SingleTenant(r.Context(), requestLanguage(r))
	if err != nil {
		a.writeServiceError(w, r, routing.RouteClassPublicAPI, err)
		return
	}
	routing.WriteJSON(w, http.StatusOK, view)
}

// writeServiceError maps typed service errors to their status. Anything
// untyped is a server fault: it is logged and its text is not exposed.
func (a *tenantAPI) writeServiceError(w http.ResponseWriter, r *http.Request, rc routing.RouteClass, err error) {
	status := httperr.StatusCode(err)
	if status == http.StatusInternalServerError {
		a.logger.Error("tenant request failed",
			zap.String("request_id", requestIDFromContext(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		routing.WriteError(w, r, rc, status, "internal_error", "internal error")
		return
	}
	routing.WriteError(w, r, rc, status, httperr.Code(err), err.Error())
}

func decodeTenant(w http.ResponseWriter, r *http.Request) (types.Tenant, bool) {
	var in types.Tenant
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxTenantBodyBytes))
	if err := dec.Decode(&in); err != nil {
		routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusBadRequest, "invalid_json", "invalid json")
		return types.Tenant{}, false
	}
	return in, true
}

func tenantIDFromPath(w http.ResponseWriter, r *http.Request, rc routing.RouteClass) (int64, bool) {
	id, err := parseTenantID(r.PathValue("id"))
	if err != nil {
		routing.WriteError(w, r, rc, http.StatusBadRequest, "invalid_tenant_id", "invalid tenant id")
		return 0, false
	}
	return id, true
}

func parseTenantID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, err
	}
	if id <= 0 {
		return 0, strconv.ErrRange
	}
	return id, nil
}

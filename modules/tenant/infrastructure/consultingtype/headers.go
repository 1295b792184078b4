package consultingtype

import (
	"context"
	"net/http"
	"strconv"

	"github.com/google/uuid"
)

// Forwarded carries the inbound request's credentials to outbound calls.
type Forwarded struct {
	Authorization string
	TenantID      int64
	HasTenant     bool
	RequestID     string
}

type forwardedKey struct{}

func WithForwarded(ctx context.Context, f Forwarded) context.Context {
	return context.WithValue(ctx, forwardedKey{}, f)
}

func ForwardedFromContext(ctx context.Context) (Forwarded, bool) {
	f, ok := ctx.Value(forwardedKey{}).(Forwarded)
	return f, ok
}

func applyForwardedHeaders(ctx context.Context, req *http.Request) {
	f, _ := ForwardedFromContext(ctx)
	if f.Authorization != "" {
		req.Header.Set("Authorization", f.Authorization)
	}
	if f.HasTenant {
		req.Header.Set("tenantId", strconv.FormatInt(f.TenantID, 10))
	}
	requestID := f.RequestID
	if requestID == "" {
		if id, err := uuid.NewV7(); err == nil {
			requestID = id.String()
		}
	}
	if requestID != "" {
		req.Header.Set("X-Request-Id", requestID)
	}
}

// Package tenantclaim reads the tenant id carried inside a JWT payload.
//
// Nothing in this package verifies a signature. The token is trusted only for
// its syntax: signature checks happen upstream (the gateway or the bearer
// verification in internal/server), and this decoder must never be used as an
// authentication boundary. Its sole use is to pick a tenant scope out of a
// cookie that a broken or stale client may send, so every failure degrades to
// "no tenant" instead of an error.
package tenantclaim

import (
	"strings"

	"github.com/golang-jwt/jwt/v4"
	"github.com/valyala/fastjson"
)

// ClaimTenantID is the payload key holding the numeric tenant id.
const ClaimTenantID = "tenantId"

// TenantID returns the positive integral tenantId claim of token, if any.
func TenantID(token string) (int64, bool) {
	payload, ok := payloadSegment(token)
	if !ok {
		return 0, false
	}
	raw, err := jwt.DecodeSegment(strings.TrimRight(payload, "="))
	if err != nil {
		return 0, false
	}
	return tenantIDFromPayload(raw)
}

func payloadSegment(token string) (string, bool) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	parts := strings.Split(token, ".")
	if len(parts) != 3 || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func tenantIDFromPayload(raw []byte) (int64, bool) {
	var p fastjson.Parser
	v, err := p.ParseBytes(raw)
	if err != nil || v.Type() != fastjson.TypeObject {
		return 0, false
	}
	claim := v.Get(ClaimTenantID)
	if claim == nil || claim.Type() != fastjson.TypeNumber {
		return 0, false
	}
	id, err := claim.Int64()
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

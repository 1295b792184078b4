package server

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/golang-jwt/jwt/v4"
	"github.com/jacksonlee411/tenant-service/pkg/authz"
)

// keycloakClaims is the subset of a Keycloak access token the service reads.
type keycloakClaims struct {
	jwt.RegisteredClaims
	RealmAccess struct {
		Roles []string `json:"roles"`
	} `json:"realm_access"`
	TenantID *int64 `json:"tenantId"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

type TokenVerifier interface {
	Verify(raw string) (Principal, error)
}

type jwtVerifier struct {
	method jwt.SigningMethod
	key    any
}

func NewHS256Verifier(secret []byte) (TokenVerifier, error) {
	if len(secret) == 0 {
		return nil, errors.New("server: empty token secret")
	}
	return &jwtVerifier{method: jwt.SigningMethodHS256, key: secret}, nil
}

func NewRSAVerifier(publicKeyPEM []byte) (TokenVerifier, error) {
	key, err := jwt.ParseRSAPublicKeyFromPEM(publicKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("server: parse token public key: %w", err)
	}
	return &jwtVerifier{method: jwt.SigningMethodRS256, key: key}, nil
}

// tokenVerifierFromEnv prefers an RSA public key over a shared secret.
func tokenVerifierFromEnv() (TokenVerifier, error) {
	if path := os.Getenv("AUTH_TOKEN_RSA_PUBLIC_KEY_PATH"); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("server: read token public key: %w", err)
		}
		return NewRSAVerifier(b)
	}
	if secret := os.Getenv("AUTH_TOKEN_HS256_SECRET"); secret != "" {
		return NewHS256Verifier([]byte(secret))
	}
	return nil, errors.New("server: missing AUTH_TOKEN_RSA_PUBLIC_KEY_PATH or AUTH_TOKEN_HS256_SECRET")
}

func (v *jwtVerifier) Verify(raw string) (Principal, error) {
	var claims keycloakClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != v.method.Alg() {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		if _, ok := v.key.(*rsa.PublicKey); ok {
			if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
				return nil, errors.New("unexpected signing method family")
			}
		}
		return v.key, nil
	})
	if err != nil {
		return Principal{}, err
	}

	p := Principal{
		UserID:   claims.UserID,
		Username: claims.Username,
		Roles:    authz.NewRoleSet(claims.RealmAccess.Roles...),
	}
	if p.UserID == "" {
		p.UserID = claims.Subject
	}
	if claims.TenantID != nil {
		p.TenantID = *claims.TenantID
		p.HasTenant = true
	}
	return p, nil
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// Package middleware provides HTTP middleware for authentication, request
// IDs, and rate limiting.
package middleware

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims holds the identity claims extracted from a verified token.
type TokenClaims struct {
	Subject string
	Issuer  string
	Email   string
	Name    string
}

// TokenValidator verifies a bearer token and returns its claims.
type TokenValidator interface {
	Validate(ctx context.Context, token string) (*TokenClaims, error)
}

// OIDCValidator verifies tokens against an OIDC provider's JWKS.
type OIDCValidator struct {
	verifier *oidc.IDTokenVerifier
}

// NewOIDCValidator discovers the provider at issuerURL and builds a verifier
// for the given audience.
func NewOIDCValidator(ctx context.Context, issuerURL, audience string) (*OIDCValidator, error) {
	provider, err := oidc.NewProvider(ctx, issuerURL)
	if err != nil {
		return nil, fmt.Errorf("oidc provider discovery: %w", err)
	}
	verifier := provider.Verifier(&oidc.Config{ClientID: audience})
	return &OIDCValidator{verifier: verifier}, nil
}

// Validate verifies the token signature and standard claims via the provider.
func (v *OIDCValidator) Validate(ctx context.Context, token string) (*TokenClaims, error) {
	idToken, err := v.verifier.Verify(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("token verification failed: %w", err)
	}

	var raw map[string]any
	if err := idToken.Claims(&raw); err != nil {
		return nil, fmt.Errorf("parse claims: %w", err)
	}

	claims := &TokenClaims{
		Subject: idToken.Subject,
		Issuer:  idToken.Issuer,
	}
	if email, ok := raw["email"].(string); ok {
		claims.Email = email
	}
	if name, ok := raw["name"].(string); ok {
		claims.Name = name
	}
	return claims, nil
}

// HS256Validator verifies tokens signed with a shared HS256 secret. Used for
// local development and the CLI token command.
type HS256Validator struct {
	secret []byte
}

// NewHS256Validator creates an HS256Validator.
func NewHS256Validator(secret string) (*HS256Validator, error) {
	if secret == "" {
		return nil, fmt.Errorf("JWT secret is required")
	}
	return &HS256Validator{secret: []byte(secret)}, nil
}

// Validate verifies an HS256-signed token and extracts its claims.
func (v *HS256Validator) Validate(_ context.Context, token string) (*TokenClaims, error) {
	tok, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("token verification failed: %w", err)
	}

	raw, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("parse claims: unsupported claim type %T", tok.Claims)
	}

	claims := &TokenClaims{}
	if sub, ok := raw["sub"].(string); ok {
		claims.Subject = sub
	}
	if iss, ok := raw["iss"].(string); ok {
		claims.Issuer = iss
	}
	if email, ok := raw["email"].(string); ok {
		claims.Email = email
	}
	if name, ok := raw["name"].(string); ok {
		claims.Name = name
	}
	return claims, nil
}

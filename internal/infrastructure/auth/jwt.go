// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package auth validates bearer tokens presented by approvers and other
// API callers.
package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"time"

	"github.com/auth0/go-jwt-middleware/v2/jwks"
	"github.com/auth0/go-jwt-middleware/v2/validator"
)

const (
	defaultJWKSURL  = "http://localhost:4457/.well-known/jwks"
	defaultAudience = "meeting-ingest-service"
)

// JWTAuthConfig holds the JWT validation configuration.
type JWTAuthConfig struct {
	// JWKSURL is the JSON Web Key Set endpoint of the identity provider.
	JWKSURL string
	// Audience is the expected token audience.
	Audience string
	// MockLocalPrincipal bypasses token validation and returns the given
	// principal. Local development only.
	MockLocalPrincipal string
}

// JWTAuth parses and validates bearer tokens.
type JWTAuth struct {
	config    JWTAuthConfig
	validator *validator.Validator
}

// HeimdallClaims are the custom claims the API gateway mints into
// tokens it forwards to backend services.
type HeimdallClaims struct {
	Principal string `json:"principal"`
	Email     string `json:"email,omitempty"`
}

// Validate checks that the required claims are present.
func (c *HeimdallClaims) Validate(_ context.Context) error {
	if c.Principal == "" {
		return errors.New("principal must be provided")
	}
	return nil
}

// NewJWTAuth creates a new JWTAuth from the given configuration.
func NewJWTAuth(config JWTAuthConfig) (*JWTAuth, error) {
	if config.JWKSURL == "" {
		config.JWKSURL = defaultJWKSURL
	}
	if config.Audience == "" {
		config.Audience = defaultAudience
	}

	issuerURL, err := url.Parse(config.JWKSURL)
	if err != nil {
		return nil, err
	}

	provider := jwks.NewCachingProvider(issuerURL, 5*time.Minute)

	jwtValidator, err := validator.New(
		provider.KeyFunc,
		validator.PS256,
		issuerURL.String(),
		[]string{config.Audience},
		validator.WithCustomClaims(func() validator.CustomClaims {
			return &HeimdallClaims{}
		}),
	)
	if err != nil {
		return nil, err
	}

	return &JWTAuth{
		config:    config,
		validator: jwtValidator,
	}, nil
}

// ParsePrincipal validates the token and returns the principal claim.
func (a *JWTAuth) ParsePrincipal(ctx context.Context, token string, logger *slog.Logger) (string, error) {
	if a.config.MockLocalPrincipal != "" {
		logger.WarnContext(ctx, "mock authentication enabled, skipping token validation",
			"principal", a.config.MockLocalPrincipal)
		return a.config.MockLocalPrincipal, nil
	}

	if a.validator == nil {
		return "", errors.New("JWT validator is not set up")
	}

	parsed, err := a.validator.ValidateToken(ctx, token)
	if err != nil {
		logger.DebugContext(ctx, "token validation failed", "error", err)
		return "", err
	}

	claims, ok := parsed.(*validator.ValidatedClaims)
	if !ok {
		return "", errors.New("unexpected claims type")
	}
	custom, ok := claims.CustomClaims.(*HeimdallClaims)
	if !ok {
		return "", errors.New("unexpected custom claims type")
	}

	return custom.Principal, nil
}

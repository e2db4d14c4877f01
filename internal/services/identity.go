package services

import (
	"context"
	"fmt"

	"github.com/localnerve/authorizer-go"
	"github.com/localnerve/jam-build-admindb/internal/config"
	"github.com/localnerve/jam-build-admindb/internal/types"
	"github.com/localnerve/jam-build-admindb/internal/utils"
	"go.uber.org/zap"
)

// IdentityProvider turns a session cookie into the caller's email.
type IdentityProvider interface {
	Identify(ctx context.Context, session string) (string, error)
}

// AuthorizerIdentity validates sessions against an Authorizer instance.
type AuthorizerIdentity struct {
	client *authorizer.AuthorizerClient
	roles  []*string
}

func NewAuthorizerIdentity(cfg *config.Config, redirectURL string, log *zap.Logger) (*AuthorizerIdentity, error) {
	// Ping the Authorizer service first
	if err := utils.PingAuthorizer(context.Background(), cfg.AuthzURL); err != nil {
		return nil, fmt.Errorf("authorizer ping failed: %w", err)
	}

	log.Info("initializing authorizer",
		zap.String("authorizerURL", cfg.AuthzURL),
		zap.String("clientID", cfg.AuthzClientID),
		zap.String("redirectURL", redirectURL))

	client, err := authorizer.NewAuthorizerClient(cfg.AuthzClientID, cfg.AuthzURL, redirectURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create authorizer client: %w", err)
	}
	role := "admin"
	return &AuthorizerIdentity{client: client, roles: []*string{&role}}, nil
}

func (a *AuthorizerIdentity) Identify(ctx context.Context, session string) (string, error) {
	if session == "" {
		return "", types.Unauthorized("auth.session", "Authorizer cookie \"cookie_session\" not found")
	}
	if err := ctx.Err(); err != nil {
		return "", types.Upstream("auth.canceled", err, "session validation canceled")
	}

	res, err := a.client.ValidateSession(&authorizer.ValidateSessionInput{
		Cookie: session,
		Roles:  a.roles,
	})
	if err != nil {
		return "", types.Unauthorized("auth.session", "Invalid session: %v", err)
	}
	if res == nil || !res.IsValid || res.User == nil {
		return "", types.Unauthorized("auth.session", "session is not valid")
	}
	return normalizeEmail(res.User.Email), nil
}

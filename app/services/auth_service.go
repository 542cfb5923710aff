package services

import (
	"context"
	"fmt"
	"time"

	"github.com/hsmarket/storefront/config"
	"github.com/hsmarket/storefront/pkg/auth"
	"github.com/hsmarket/storefront/pkg/cache"
	"github.com/hsmarket/storefront/pkg/logger"
)

const revokedPrefix = "auth:revoked:"

// AuthConfig holds the admin secret. PasswordHash wins over Password; with
// neither set admin login is disabled. Production rejects an empty or
// default signing Secret.
type AuthConfig struct {
	PasswordHash string
	Password     string
	Secret       string
	TTL          time.Duration
	Production   bool
}

// Session is returned by a successful login.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type AuthService struct {
	hash    string
	signer  *auth.Signer
	revoked cache.Store
	now     func() time.Time
}

// NewAuthService hashes cfg.Password when no hash is given, so plaintext is
// never compared directly.
func NewAuthService(cfg AuthConfig, revoked cache.Store) (*AuthService, error) {
	if cfg.TTL <= 0 {
		cfg.TTL = 12 * time.Hour
	}
	if weakSecret(cfg.Secret) {
		if cfg.Production {
			return nil, fmt.Errorf("auth service: %w", ErrWeakSecret)
		}
		logger.Warn("JWT_SECRET is unset or default; admin tokens can be forged by anyone who knows it")
	}
	hash := cfg.PasswordHash
	if hash == "" && cfg.Password != "" {
		h, err := auth.HashPassword(cfg.Password)
		if err != nil {
			return nil, fmt.Errorf("auth service: hash password: %w", err)
		}
		hash = h
	}
	if revoked == nil {
		revoked = cache.NewMemory()
	}
	return &AuthService{
		hash:    hash,
		signer:  auth.NewSigner(cfg.Secret, cfg.TTL),
		revoked: revoked,
		now:     time.Now,
	}, nil
}

func weakSecret(secret string) bool {
	return secret == "" || secret == config.DefaultJWTSecret
}

// Enabled reports whether an admin secret is configured.
func (s *AuthService) Enabled() bool { return s.hash != "" }

func (s *AuthService) Login(ctx context.Context, password string) (Session, error) {
	if !s.Enabled() {
		return Session{}, ErrAdminDisabled
	}
	if password == "" || !auth.CheckPassword(s.hash, password) {
		logger.WithCtx(ctx).Warn("admin login rejected")
		return Session{}, ErrInvalidCredentials
	}

	token, claims, err := s.signer.Issue("admin", auth.RoleAdmin)
	if err != nil {
		return Session{}, err
	}
	logger.WithCtx(ctx).Info("admin logged in", "jti", claims.ID)
	return Session{Token: token, ExpiresAt: claims.ExpiresAt.Time}, nil
}

// Authorize returns the claims of a valid, unrevoked admin token.
func (s *AuthService) Authorize(ctx context.Context, token string) (*auth.Claims, error) {
	claims, err := s.signer.Validate(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}
	if claims.Role != auth.RoleAdmin {
		return nil, ErrInvalidCredentials
	}
	if s.revoked.Has(ctx, revokedPrefix+claims.ID) {
		return nil, ErrTokenRevoked
	}
	return claims, nil
}

// Logout revokes token until it would have expired anyway.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	claims, err := s.Authorize(ctx, token)
	if err != nil {
		return err
	}
	ttl := claims.ExpiresAt.Time.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	if err := s.revoked.Set(ctx, revokedPrefix+claims.ID, true, ttl); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	logger.WithCtx(ctx).Info("admin logged out", "jti", claims.ID)
	return nil
}

// AngelaMos | 2026
// tokens.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwt"

	"github.com/carterperez-dev/coursemarket/internal/config"
	"github.com/carterperez-dev/coursemarket/internal/core"
	"github.com/carterperez-dev/coursemarket/internal/middleware"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// TokenManager mints and verifies the two token classes. Each class has
// its own HMAC secret and a type claim, and verification checks both.
type TokenManager struct {
	accessKey  []byte
	refreshKey []byte
	config     config.JWTConfig
}

func NewTokenManager(cfg config.JWTConfig) (*TokenManager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("token manager: %w", err)
	}

	return &TokenManager{
		accessKey:  []byte(cfg.AccessSecret),
		refreshKey: []byte(cfg.RefreshSecret),
		config:     cfg,
	}, nil
}

type IssuedToken struct {
	Token     string
	ExpiresAt time.Time
}

type RefreshTokenClaims struct {
	UserID    string
	TokenID   string
	ExpiresAt time.Time
}

func (m *TokenManager) IssueAccessToken(userID, role string) (IssuedToken, error) {
	return m.issue(
		userID,
		tokenTypeAccess,
		m.accessKey,
		m.config.AccessTokenExpire,
		map[string]any{"role": role},
	)
}

func (m *TokenManager) IssueRefreshToken(userID string) (IssuedToken, error) {
	return m.issue(
		userID,
		tokenTypeRefresh,
		m.refreshKey,
		m.config.RefreshTokenExpire,
		nil,
	)
}

func (m *TokenManager) issue(
	subject, tokenType string,
	key []byte,
	ttl time.Duration,
	extra map[string]any,
) (IssuedToken, error) {
	now := time.Now()
	expiresAt := now.Add(ttl)

	builder := jwt.NewBuilder().
		JwtID(uuid.NewString()).
		Issuer(m.config.Issuer).
		Audience([]string{m.config.Audience}).
		Subject(subject).
		IssuedAt(now).
		NotBefore(now).
		Expiration(expiresAt).
		Claim("type", tokenType)
	for name, value := range extra {
		builder = builder.Claim(name, value)
	}

	token, err := builder.Build()
	if err != nil {
		return IssuedToken{}, fmt.Errorf("build %s token: %w", tokenType, err)
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256(), key))
	if err != nil {
		return IssuedToken{}, fmt.Errorf("sign %s token: %w", tokenType, err)
	}

	return IssuedToken{Token: string(signed), ExpiresAt: expiresAt}, nil
}

// VerifyAccessToken satisfies middleware.TokenVerifier.
func (m *TokenManager) VerifyAccessToken(
	_ context.Context,
	tokenString string,
) (*middleware.AccessTokenClaims, error) {
	token, err := m.parse(tokenString, tokenTypeAccess, m.accessKey)
	if err != nil {
		return nil, err
	}

	var role string
	if err := token.Get("role", &role); err != nil || role == "" {
		return nil, fmt.Errorf(
			"verify access token: missing role claim: %w",
			core.ErrTokenInvalid,
		)
	}

	subject, _ := token.Subject()
	jti, _ := token.JwtID()
	exp, _ := token.Expiration()

	return &middleware.AccessTokenClaims{
		UserID:    subject,
		Role:      role,
		TokenID:   jti,
		ExpiresAt: exp,
	}, nil
}

func (m *TokenManager) VerifyRefreshToken(
	tokenString string,
) (*RefreshTokenClaims, error) {
	token, err := m.parse(tokenString, tokenTypeRefresh, m.refreshKey)
	if err != nil {
		return nil, err
	}

	subject, _ := token.Subject()
	jti, _ := token.JwtID()
	exp, _ := token.Expiration()

	return &RefreshTokenClaims{
		UserID:    subject,
		TokenID:   jti,
		ExpiresAt: exp,
	}, nil
}

func (m *TokenManager) parse(
	tokenString, wantType string,
	key []byte,
) (jwt.Token, error) {
	token, err := jwt.Parse(
		[]byte(tokenString),
		jwt.WithKey(jwa.HS256(), key),
		jwt.WithValidate(true),
		jwt.WithIssuer(m.config.Issuer),
		jwt.WithAudience(m.config.Audience),
	)
	if err != nil {
		if errors.Is(err, jwt.TokenExpiredError()) {
			return nil, fmt.Errorf("verify %s token: %w", wantType, core.ErrTokenExpired)
		}
		return nil, fmt.Errorf("verify %s token: %w", wantType, core.ErrTokenInvalid)
	}

	var tokenType string
	if err := token.Get("type", &tokenType); err != nil || tokenType != wantType {
		return nil, fmt.Errorf(
			"verify %s token: invalid token type: %w",
			wantType,
			core.ErrTokenInvalid,
		)
	}

	subject, ok := token.Subject()
	if !ok || subject == "" {
		return nil, fmt.Errorf(
			"verify %s token: missing subject: %w",
			wantType,
			core.ErrTokenInvalid,
		)
	}

	return token, nil
}

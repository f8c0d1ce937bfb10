// AngelaMos | 2026
// tokens_test.go

package auth

import (
	"context"
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/coursemarket/internal/config"
	"github.com/carterperez-dev/coursemarket/internal/core"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		AccessSecret:       "access-secret-for-tests-only-0123456789",
		RefreshSecret:      "refresh-secret-for-tests-only-9876543210",
		AccessTokenExpire:  15 * time.Minute,
		RefreshTokenExpire: 7 * 24 * time.Hour,
		Issuer:             "coursemarket",
		Audience:           "coursemarket-api",
	}
}

func newTestTokenManager(t *testing.T) *TokenManager {
	t.Helper()
	m, err := NewTokenManager(testJWTConfig())
	require.NoError(t, err)
	return m
}

func forge(t *testing.T, secret string, claims gojwt.MapClaims) string {
	t.Helper()
	token := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func baseClaims(tokenType string) gojwt.MapClaims {
	now := time.Now()
	return gojwt.MapClaims{
		"sub":  "user-1",
		"role": "user",
		"type": tokenType,
		"iss":  "coursemarket",
		"aud":  "coursemarket-api",
		"iat":  now.Unix(),
		"nbf":  now.Unix(),
		"exp":  now.Add(time.Hour).Unix(),
	}
}

func TestNewTokenManagerRejectsBadConfig(t *testing.T) {
	cfg := testJWTConfig()
	cfg.RefreshSecret = cfg.AccessSecret

	_, err := NewTokenManager(cfg)
	assert.Error(t, err)
}

func TestAccessTokenRoundTrip(t *testing.T) {
	m := newTestTokenManager(t)

	issued, err := m.IssueAccessToken("user-1", "admin")
	require.NoError(t, err)
	assert.NotEmpty(t, issued.Token)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), issued.ExpiresAt, 5*time.Second)

	claims, err := m.VerifyAccessToken(context.Background(), issued.Token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "admin", claims.Role)
	assert.NotEmpty(t, claims.TokenID)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	m := newTestTokenManager(t)

	issued, err := m.IssueRefreshToken("user-1")
	require.NoError(t, err)

	claims, err := m.VerifyRefreshToken(issued.Token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.True(t, claims.ExpiresAt.After(time.Now().Add(24*time.Hour)))
}

func TestTokenClassesDoNotCross(t *testing.T) {
	m := newTestTokenManager(t)

	access, err := m.IssueAccessToken("user-1", "user")
	require.NoError(t, err)
	refresh, err := m.IssueRefreshToken("user-1")
	require.NoError(t, err)

	_, err = m.VerifyRefreshToken(access.Token)
	assert.ErrorIs(t, err, core.ErrTokenInvalid)

	_, err = m.VerifyAccessToken(context.Background(), refresh.Token)
	assert.ErrorIs(t, err, core.ErrTokenInvalid)
}

func TestVerifyRejectsForgedTokens(t *testing.T) {
	m := newTestTokenManager(t)
	cfg := testJWTConfig()

	tests := []struct {
		name    string
		secret  string
		mutate  func(gojwt.MapClaims)
		refresh bool
		wantErr error
	}{
		{
			name:    "well formed access token",
			secret:  cfg.AccessSecret,
			mutate:  func(gojwt.MapClaims) {},
			wantErr: nil,
		},
		{
			name:    "unknown secret",
			secret:  "someone-elses-secret",
			mutate:  func(gojwt.MapClaims) {},
			wantErr: core.ErrTokenInvalid,
		},
		{
			name:    "access claims signed with refresh secret",
			secret:  cfg.RefreshSecret,
			mutate:  func(gojwt.MapClaims) {},
			wantErr: core.ErrTokenInvalid,
		},
		{
			name:    "refresh type signed with access secret",
			secret:  cfg.AccessSecret,
			mutate:  func(c gojwt.MapClaims) { c["type"] = tokenTypeRefresh },
			wantErr: core.ErrTokenInvalid,
		},
		{
			name:    "expired",
			secret:  cfg.AccessSecret,
			mutate:  func(c gojwt.MapClaims) { c["exp"] = time.Now().Add(-time.Hour).Unix() },
			wantErr: core.ErrTokenExpired,
		},
		{
			name:    "not yet valid",
			secret:  cfg.AccessSecret,
			mutate:  func(c gojwt.MapClaims) { c["nbf"] = time.Now().Add(time.Hour).Unix() },
			wantErr: core.ErrTokenInvalid,
		},
		{
			name:    "wrong audience",
			secret:  cfg.AccessSecret,
			mutate:  func(c gojwt.MapClaims) { c["aud"] = "another-api" },
			wantErr: core.ErrTokenInvalid,
		},
		{
			name:    "missing subject",
			secret:  cfg.AccessSecret,
			mutate:  func(c gojwt.MapClaims) { delete(c, "sub") },
			wantErr: core.ErrTokenInvalid,
		},
		{
			name:    "missing role",
			secret:  cfg.AccessSecret,
			mutate:  func(c gojwt.MapClaims) { delete(c, "role") },
			wantErr: core.ErrTokenInvalid,
		},
		{
			name:    "expired refresh token",
			secret:  cfg.RefreshSecret,
			mutate:  func(c gojwt.MapClaims) { c["type"] = tokenTypeRefresh; c["exp"] = time.Now().Add(-time.Minute).Unix() },
			refresh: true,
			wantErr: core.ErrTokenExpired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims := baseClaims(tokenTypeAccess)
			tt.mutate(claims)
			token := forge(t, tt.secret, claims)

			var err error
			if tt.refresh {
				_, err = m.VerifyRefreshToken(token)
			} else {
				_, err = m.VerifyAccessToken(context.Background(), token)
			}

			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	m := newTestTokenManager(t)

	for _, token := range []string{"", "not.a.token", "a.b"} {
		_, err := m.VerifyAccessToken(context.Background(), token)
		assert.ErrorIs(t, err, core.ErrTokenInvalid)
	}
}

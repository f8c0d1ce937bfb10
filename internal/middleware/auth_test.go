// AngelaMos | 2026
// auth_test.go

package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/coursemarket/internal/core"
)

type stubVerifier map[string]*AccessTokenClaims

func (s stubVerifier) VerifyAccessToken(_ context.Context, token string) (*AccessTokenClaims, error) {
	if token == "expired" {
		return nil, fmt.Errorf("verify: %w", core.ErrTokenExpired)
	}
	if claims, ok := s[token]; ok {
		return claims, nil
	}
	return nil, fmt.Errorf("verify: %w", core.ErrTokenInvalid)
}

var verifier = stubVerifier{
	"member": {UserID: "u1", Role: "user"},
	"root":   {UserID: "u2", Role: "admin"},
}

func echoIdentity(w http.ResponseWriter, r *http.Request) {
	core.OK(w, map[string]string{
		"userId": GetUserID(r.Context()),
		"role":   GetUserRole(r.Context()),
	})
}

func serve(h http.Handler, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp core.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Error.Code
}

func TestAuthenticator(t *testing.T) {
	h := Authenticator(verifier)(http.HandlerFunc(echoIdentity))

	tests := []struct {
		name   string
		header string
		status int
		code   string
	}{
		{"missing header", "", http.StatusUnauthorized, "UNAUTHORIZED"},
		{"wrong scheme", "Basic member", http.StatusUnauthorized, "UNAUTHORIZED"},
		{"expired", "Bearer expired", http.StatusUnauthorized, "TOKEN_EXPIRED"},
		{"unknown", "Bearer forged", http.StatusUnauthorized, "TOKEN_INVALID"},
		{"valid", "Bearer member", http.StatusOK, ""},
		{"lowercase scheme", "bearer member", http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(h, tt.header)
			require.Equal(t, tt.status, rec.Code)
			if tt.code != "" {
				assert.Equal(t, tt.code, errorCode(t, rec))
				return
			}

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, "u1", body["userId"])
			assert.Equal(t, "user", body["role"])
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	h := OptionalAuth(verifier)(http.HandlerFunc(echoIdentity))

	var body map[string]string

	rec := serve(h, "Bearer forged")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Empty(t, body["userId"])

	rec = serve(h, "Bearer root")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "u2", body["userId"])
}

func TestRequireAdmin(t *testing.T) {
	h := Authenticator(verifier)(RequireAdmin(http.HandlerFunc(echoIdentity)))

	assert.Equal(t, http.StatusForbidden, serve(h, "Bearer member").Code)
	assert.Equal(t, http.StatusOK, serve(h, "Bearer root").Code)

	bare := RequireAdmin(http.HandlerFunc(echoIdentity))
	assert.Equal(t, http.StatusUnauthorized, serve(bare, "").Code)
}

func TestWithIdentity(t *testing.T) {
	ctx := WithIdentity(context.Background(), "u9", "admin")

	assert.Equal(t, "u9", GetUserID(ctx))
	assert.True(t, IsAuthenticated(ctx))
	assert.True(t, IsAdmin(ctx))
	require.NotNil(t, GetClaims(ctx))

	assert.False(t, IsAuthenticated(context.Background()))
	assert.Nil(t, GetClaims(context.Background()))
}

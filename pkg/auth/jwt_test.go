package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

func newTestJWTService(t *testing.T) *JWTService {
	t.Helper()
	svc, err := NewJWTService(JWTConfig{
		Secret:     "test-secret-key-for-unit-tests",
		Issuer:     "agririsk-test",
		Expiration: 15 * time.Minute,
	})
	require.NoError(t, err)
	return svc
}

func TestGenerateAndValidateToken(t *testing.T) {
	svc := newTestJWTService(t)

	token, err := svc.GenerateToken("underwriter-7", []string{RoleUnderwriter})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "underwriter-7", claims.Subject)
	assert.Equal(t, "agririsk-test", claims.Issuer)
	assert.Equal(t, []string{RoleUnderwriter}, claims.Roles)
}

func TestNewJWTService_RequiresKey(t *testing.T) {
	_, err := NewJWTService(JWTConfig{})
	assert.Error(t, err)
	assert.False(t, JWTConfig{}.Enabled())
}

func TestValidateToken_Expired(t *testing.T) {
	svc, err := NewJWTService(JWTConfig{Secret: "s", Expiration: time.Nanosecond})
	require.NoError(t, err)

	token, err := svc.GenerateToken("client", []string{RoleAPIClient})
	require.NoError(t, err)
	time.Sleep(1100 * time.Millisecond)

	_, err = svc.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateToken_InvalidSignature(t *testing.T) {
	svc1, err := NewJWTService(JWTConfig{Secret: "secret-one"})
	require.NoError(t, err)
	svc2, err := NewJWTService(JWTConfig{Secret: "secret-two"})
	require.NoError(t, err)

	token, err := svc1.GenerateToken("client", nil)
	require.NoError(t, err)

	_, err = svc2.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateToken_WrongIssuer(t *testing.T) {
	issuer, err := NewJWTService(JWTConfig{Secret: "s", Issuer: "someone-else"})
	require.NoError(t, err)
	token, err := issuer.GenerateToken("client", nil)
	require.NoError(t, err)

	_, err = newTestJWTService(t).ValidateToken(token)
	assert.Error(t, err)
}

func TestRSA_ValidationOnly(t *testing.T) {
	privPEM, pubPEM, err := GenerateKeyPair()
	require.NoError(t, err)

	issuer, err := NewJWTService(JWTConfig{PrivateKeyPEM: string(privPEM)})
	require.NoError(t, err)
	validator, err := NewJWTService(JWTConfig{PublicKeyPEM: string(pubPEM)})
	require.NoError(t, err)

	token, err := issuer.GenerateToken("ops", []string{RoleAdmin})
	require.NoError(t, err)

	claims, err := validator.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "ops", claims.Subject)

	_, err = validator.GenerateToken("ops", nil)
	assert.Error(t, err, "validation-only mode cannot issue")
}

func TestHasRole(t *testing.T) {
	underwriter := Claims{Roles: []string{RoleUnderwriter}}
	assert.True(t, underwriter.HasRole(RoleUnderwriter))
	assert.False(t, underwriter.HasRole(RoleAdmin))
	assert.True(t, underwriter.HasAnyRole(RoleAdmin, RoleUnderwriter))
	assert.False(t, underwriter.HasAnyRole(RoleAPIClient))

	admin := Claims{Roles: []string{RoleAdmin}}
	assert.True(t, admin.HasRole(RoleAPIClient))
}

func TestClaimsFromContext(t *testing.T) {
	_, ok := ClaimsFromContext(context.Background())
	assert.False(t, ok)

	want := &Claims{Roles: []string{RoleAPIClient}}
	got, ok := ClaimsFromContext(ContextWithClaims(context.Background(), want))
	require.True(t, ok)
	assert.Same(t, want, got)
}

func TestUnaryAuthInterceptor(t *testing.T) {
	svc := newTestJWTService(t)
	interceptor := UnaryAuthInterceptor(svc,
		map[string][]string{"/risk.v1/Train": {RoleAdmin}},
		"/grpc.health.v1.Health/Check",
	)
	okHandler := func(ctx context.Context, req any) (any, error) {
		_, ok := ClaimsFromContext(ctx)
		return ok, nil
	}
	withToken := func(roles ...string) context.Context {
		token, err := svc.GenerateToken("caller", roles)
		require.NoError(t, err)
		return metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer "+token))
	}

	tests := []struct {
		name     string
		ctx      context.Context
		method   string
		wantCode codes.Code
		wantOK   bool
	}{
		{name: "skipped method", ctx: context.Background(), method: "/grpc.health.v1.Health/Check", wantCode: codes.OK},
		{name: "missing metadata", ctx: context.Background(), method: "/risk.v1/Score", wantCode: codes.Unauthenticated},
		{name: "missing header", ctx: metadata.NewIncomingContext(context.Background(), metadata.MD{}), method: "/risk.v1/Score", wantCode: codes.Unauthenticated},
		{name: "bad token", ctx: metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer nope")), method: "/risk.v1/Score", wantCode: codes.Unauthenticated},
		{name: "valid token", ctx: withToken(RoleAPIClient), method: "/risk.v1/Score", wantCode: codes.OK, wantOK: true},
		{name: "role denied", ctx: withToken(RoleAPIClient), method: "/risk.v1/Train", wantCode: codes.PermissionDenied},
		{name: "role granted", ctx: withToken(RoleAdmin), method: "/risk.v1/Train", wantCode: codes.OK, wantOK: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := interceptor(tt.ctx, nil, &grpc.UnaryServerInfo{FullMethod: tt.method}, okHandler)
			assert.Equal(t, tt.wantCode, status.Code(err))
			if err == nil {
				assert.Equal(t, tt.wantOK, resp)
			}
		})
	}
}

func TestHTTPMiddleware(t *testing.T) {
	svc := newTestJWTService(t)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	h := HTTPMiddleware(svc)(RequireRoleHTTP(RoleAdmin)(next))

	serve := func(header string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/bundles", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	adminToken, err := svc.GenerateToken("ops", []string{RoleAdmin})
	require.NoError(t, err)
	clientToken, err := svc.GenerateToken("client", []string{RoleAPIClient})
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, serve(""))
	assert.Equal(t, http.StatusUnauthorized, serve("Bearer garbage"))
	assert.Equal(t, http.StatusForbidden, serve("Bearer "+clientToken))
	assert.Equal(t, http.StatusNoContent, serve("Bearer "+adminToken))
}

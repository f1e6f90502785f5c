package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"scentrale/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-jwt-secret"

func makeToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func accessClaims(userID uuid.UUID) jwt.MapClaims {
	return jwt.MapClaims{
		"sub":   userID.String(),
		"email": "shopper@example.com",
		"role":  model.RoleCustomer,
		"type":  "access",
		"exp":   time.Now().Add(time.Hour).Unix(),
	}
}

func TestJWTAuth_ValidToken(t *testing.T) {
	userID := uuid.New()
	var captured model.Identity

	handler := JWTAuth(testSecret, zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := IdentityFromContext(r.Context())
		require.True(t, ok)
		captured = identity
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	req.Header.Set("Authorization", "Bearer "+makeToken(t, testSecret, accessClaims(userID)))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, userID, captured.UserID)
	assert.Equal(t, "shopper@example.com", captured.Email)
	assert.Equal(t, model.RoleCustomer, captured.Role)
}

func TestJWTAuth_AdminRole(t *testing.T) {
	userID := uuid.New()
	claims := accessClaims(userID)
	claims["role"] = model.RoleAdmin

	var captured model.Identity
	handler := JWTAuth(testSecret, zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured, _ = IdentityFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	req.Header.Set("Authorization", "Bearer "+makeToken(t, testSecret, claims))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.True(t, captured.IsAdmin())
}

func TestJWTAuth_MissingRoleDefaultsToCustomer(t *testing.T) {
	userID := uuid.New()
	claims := accessClaims(userID)
	delete(claims, "role")

	var captured model.Identity
	handler := JWTAuth(testSecret, zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured, _ = IdentityFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	req.Header.Set("Authorization", "Bearer "+makeToken(t, testSecret, claims))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, model.RoleCustomer, captured.Role)
}

func TestJWTAuth_Rejections(t *testing.T) {
	userID := uuid.New()

	expired := accessClaims(userID)
	expired["exp"] = time.Now().Add(-time.Hour).Unix()

	refresh := accessClaims(userID)
	refresh["type"] = "refresh"

	badSubject := accessClaims(userID)
	badSubject["sub"] = "not-a-uuid"

	tests := []struct {
		name     string
		header   string
		wantBody string
	}{
		{
			name:     "Missing header",
			header:   "",
			wantBody: "no authentication token provided",
		},
		{
			name:     "Not a bearer token",
			header:   "Basic dXNlcjpwYXNz",
			wantBody: "no authentication token provided",
		},
		{
			name:     "Garbage token",
			header:   "Bearer not.a.token",
			wantBody: "invalid or malformed token",
		},
		{
			name:     "Expired token",
			header:   "Bearer " + makeToken(t, testSecret, expired),
			wantBody: "token has expired",
		},
		{
			name:     "Wrong secret",
			header:   "Bearer " + makeToken(t, "other-secret", accessClaims(userID)),
			wantBody: "invalid or malformed token",
		},
		{
			name:     "Refresh token",
			header:   "Bearer " + makeToken(t, testSecret, refresh),
			wantBody: "invalid token type",
		},
		{
			name:     "Subject is not a user ID",
			header:   "Bearer " + makeToken(t, testSecret, badSubject),
			wantBody: "invalid or malformed token",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			handler := JWTAuth(testSecret, zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
			assert.False(t, called)
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	tests := []struct {
		name       string
		identity   *model.Identity
		wantStatus int
	}{
		{
			name:       "Admin passes",
			identity:   &model.Identity{UserID: uuid.New(), Role: model.RoleAdmin},
			wantStatus: http.StatusOK,
		},
		{
			name:       "Customer rejected",
			identity:   &model.Identity{UserID: uuid.New(), Role: model.RoleCustomer},
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "No identity rejected",
			identity:   nil,
			wantStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := RequireAdmin(zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodPut, "/api/orders/some-id/status", nil)
			if tt.identity != nil {
				req = req.WithContext(WithIdentity(req.Context(), *tt.identity))
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestCORS(t *testing.T) {
	handler := CORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("Headers on normal request", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "Content-Type, Authorization", rec.Header().Get("Access-Control-Allow-Headers"))
	})

	t.Run("Preflight short-circuits", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/orders", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}

func TestRecovery(t *testing.T) {
	handler := Recovery(zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "internal server error")
}

package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "s3cret"

func TestMiddleware(t *testing.T) {
	now := time.Now()

	valid, err := GenerateToken("ops", secret, time.Hour, now)
	require.NoError(t, err)

	expired, err := GenerateToken("ops", secret, time.Hour, now.Add(-2*time.Hour))
	require.NoError(t, err)

	otherKey, err := GenerateToken("ops", "other", time.Hour, now)
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "ops"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	type testCase struct {
		name     string
		setup    func(r *http.Request)
		wantCode int
		wantBody string
	}

	tests := []testCase{
		{name: "Missing", setup: func(*http.Request) {}, wantCode: http.StatusUnauthorized, wantBody: "missing token"},
		{name: "Bearer", setup: func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+valid) }, wantCode: http.StatusOK},
		{name: "Cookie", setup: func(r *http.Request) { r.AddCookie(&http.Cookie{Name: cookieName, Value: valid}) }, wantCode: http.StatusOK},
		{name: "Query", setup: func(r *http.Request) { r.URL.RawQuery = "token=" + valid }, wantCode: http.StatusOK},
		{name: "Wrong Scheme", setup: func(r *http.Request) { r.Header.Set("Authorization", "Basic "+valid) }, wantCode: http.StatusUnauthorized},
		{name: "Expired", setup: func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+expired) }, wantCode: http.StatusUnauthorized, wantBody: "token expired"},
		{name: "Wrong Key", setup: func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+otherKey) }, wantCode: http.StatusUnauthorized, wantBody: "invalid token"},
		{name: "Alg None", setup: func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+none) }, wantCode: http.StatusUnauthorized, wantBody: "invalid token"},
	}

	h := Middleware(secret)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/logs", nil)
			tt.setup(req)

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)

			if tt.wantBody != "" {
				assert.Contains(t, rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestGenerateToken_EmptySecret(t *testing.T) {
	_, err := GenerateToken("ops", "", time.Hour, time.Now())
	require.Error(t, err)
}

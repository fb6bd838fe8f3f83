package http_test

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/dunning/internal/deliverylog"
	"github.com/MrJamesThe3rd/dunning/internal/export"
	dunningHttp "github.com/MrJamesThe3rd/dunning/internal/http"
	"github.com/MrJamesThe3rd/dunning/internal/http/auth"
	"github.com/MrJamesThe3rd/dunning/internal/http/logs"
)

const secret = "s3cret"

func newRouter(t *testing.T, jwtSecret string) http.Handler {
	t.Helper()

	dir := t.TempDir()
	pdfDir := filepath.Join(dir, "invoices")
	require.NoError(t, os.MkdirAll(pdfDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(pdfDir, "invoice_4711.pdf"), []byte("%PDF-1.4"), 0o644))

	audit := deliverylog.NewAudit(filepath.Join(dir, "sent_log.csv"), time.UTC)

	return dunningHttp.New(dunningHttp.Options{
		AllowedOrigins: []string{"https://ops.example"},
		JWTSecret:      jwtSecret,
		PDFDir:         pdfDir,
	}, logs.NewHandler(export.NewService(audit)))
}

func do(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	return rec
}

func TestRouter_Open(t *testing.T) {
	router := newRouter(t, "")

	assert.Equal(t, http.StatusOK, do(router, httptest.NewRequest(http.MethodGet, "/healthz", nil)).Code)
	assert.Equal(t, http.StatusOK, do(router, httptest.NewRequest(http.MethodGet, "/api/v1/logs", nil)).Code)
	assert.Equal(t, http.StatusOK, do(router, httptest.NewRequest(http.MethodGet, "/", nil)).Code)

	pdf := do(router, httptest.NewRequest(http.MethodGet, "/invoices/invoice_4711.pdf", nil))
	assert.Equal(t, http.StatusOK, pdf.Code)
	assert.Equal(t, "%PDF-1.4", pdf.Body.String())

	metrics := do(router, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, metrics.Code)
	assert.Contains(t, metrics.Body.String(), "http_requests_total")
}

func TestRouter_Protected(t *testing.T) {
	router := newRouter(t, secret)

	assert.Equal(t, http.StatusUnauthorized, do(router, httptest.NewRequest(http.MethodGet, "/api/v1/logs", nil)).Code)
	assert.Equal(t, http.StatusUnauthorized, do(router, httptest.NewRequest(http.MethodGet, "/invoices/invoice_4711.pdf", nil)).Code)
	assert.Equal(t, http.StatusOK, do(router, httptest.NewRequest(http.MethodGet, "/healthz", nil)).Code)

	token, err := auth.GenerateToken("ops", secret, time.Hour, time.Now())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/logs", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusOK, do(router, req).Code)
}

func TestRouter_CORS(t *testing.T) {
	router := newRouter(t, "")

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/logs", nil)
	req.Header.Set("Origin", "https://ops.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)

	rec := do(router, req)
	assert.Equal(t, "https://ops.example", rec.Header().Get("Access-Control-Allow-Origin"))
}

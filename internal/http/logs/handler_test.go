package logs

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/MrJamesThe3rd/dunning/internal/deliverylog"
	"github.com/MrJamesThe3rd/dunning/internal/export"
)

var ts = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	audit := deliverylog.NewAudit(filepath.Join(t.TempDir(), "sent_log.csv"), time.UTC)
	require.NoError(t, audit.AppendRows([]deliverylog.Row{
		{Timestamp: ts, InvoiceID: "4711", InvoiceNumber: "INV-101", Interval: 3, DueDate: "2026-03-13",
			Status: deliverylog.StatusFailed, Method: deliverylog.MethodWhatsApp, Phone: "+966500000001", Message: "Invoice Reminder"},
		{Timestamp: ts.Add(time.Hour), InvoiceID: "4711", InvoiceNumber: "INV-101", Interval: 3, DueDate: "2026-03-13",
			Status: deliverylog.StatusSent, Method: deliverylog.MethodWhatsApp, Phone: "+966500000001", Message: "Invoice Reminder"},
		{Timestamp: ts, InvoiceID: "<script>", InvoiceNumber: "INV-102", Interval: -5, DueDate: "2026-03-05",
			Status: deliverylog.StatusEmail, Method: deliverylog.MethodEmail, Phone: "ap@acme.example", Message: "Overdue Notice"},
	}))

	h := NewHandler(export.NewService(audit))
	h.now = func() time.Time { return ts }

	r := chi.NewRouter()
	r.Get("/", h.Dashboard)
	r.Route("/api/v1/logs", h.Routes)

	return r
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))

	return rec
}

func TestHandler_List(t *testing.T) {
	type testCase struct {
		name      string
		query     string
		wantCode  int
		wantTotal int
	}

	tests := []testCase{
		{name: "All", query: "", wantCode: http.StatusOK, wantTotal: 3},
		{name: "Status Lower Case", query: "?status=sent", wantCode: http.StatusOK, wantTotal: 1},
		{name: "Invoice", query: "?invoice=471", wantCode: http.StatusOK, wantTotal: 2},
		{name: "Due", query: "?due=2026-03-05", wantCode: http.StatusOK, wantTotal: 1},
		{name: "Unknown Status", query: "?status=BOUNCED", wantCode: http.StatusBadRequest},
		{name: "Due Too Long", query: "?due=2026-03-05T00:00", wantCode: http.StatusBadRequest},
	}

	router := newTestRouter(t)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, router, "/api/v1/logs"+tt.query)
			require.Equal(t, tt.wantCode, rec.Code)

			if tt.wantCode != http.StatusOK {
				return
			}

			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var resp listResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantTotal, resp.Total)
			assert.Len(t, resp.Entries, tt.wantTotal)
		})
	}
}

func TestHandler_ListEntryShape(t *testing.T) {
	rec := get(t, newTestRouter(t), "/api/v1/logs?status=SENT")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp listResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Entries, 1)

	e := resp.Entries[0]
	assert.Equal(t, "4711", e.InvoiceID)
	assert.Equal(t, 2, e.Attempts)
	assert.Equal(t, "/invoices/invoice_4711.pdf", e.PDFURL)
	assert.Equal(t, "+966500000001", e.Destination)
}

func TestHandler_Export(t *testing.T) {
	rec := get(t, newTestRouter(t), "/api/v1/logs/export?invoice=4711")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="reminders_20260310_090000.xlsx"`, rec.Header().Get("Content-Disposition"))

	xl, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer xl.Close()

	rows, err := xl.GetRows("Reminders")
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestHandler_Summary(t *testing.T) {
	rec := get(t, newTestRouter(t), "/api/v1/logs/summary")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Total: 3  sent: 1  email: 1  failed: 1")
}

func TestHandler_Dashboard(t *testing.T) {
	rec := get(t, newTestRouter(t), "/?status=EMAIL")
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `<tr class="email">`)
	assert.Contains(t, body, `<option value="EMAIL" selected>`)
	assert.Contains(t, body, "&lt;script&gt;")
	assert.NotContains(t, body, "<td><script>")
	assert.NotContains(t, body, `class="sent"`)
}

package logs

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/MrJamesThe3rd/dunning/internal/deliverylog"
	"github.com/MrJamesThe3rd/dunning/internal/export"
)

//go:embed dashboard.html
var templates embed.FS

var dashboard = template.Must(template.New("dashboard.html").Funcs(template.FuncMap{
	"lower":  func(s deliverylog.Status) string { return strings.ToLower(string(s)) },
	"stamp":  func(t time.Time) string { return t.Format(deliverylog.TimestampLayout) },
	"pdfURL": pdfURL,
}).ParseFS(templates, "dashboard.html"))

type Handler struct {
	svc      *export.Service
	validate *validator.Validate
	now      func() time.Time
}

func NewHandler(svc *export.Service) *Handler {
	return &Handler{
		svc:      svc,
		validate: validator.New(),
		now:      time.Now,
	}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/export", h.export)
	r.Get("/summary", h.summary)
}

type listQuery struct {
	Status  string `validate:"omitempty,oneof=SENT FAILED EMAIL"`
	Invoice string `validate:"max=64"`
	Due     string `validate:"max=10"`
}

func (h *Handler) filter(r *http.Request) (export.Filter, error) {
	q := listQuery{
		Status:  strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("status"))),
		Invoice: strings.TrimSpace(r.URL.Query().Get("invoice")),
		Due:     strings.TrimSpace(r.URL.Query().Get("due")),
	}

	if err := h.validate.Struct(q); err != nil {
		return export.Filter{}, err
	}

	return export.Filter{Status: q.Status, Invoice: q.Invoice, DueDate: q.Due}, nil
}

func (h *Handler) entries(w http.ResponseWriter, r *http.Request) (export.Filter, []export.Entry, bool) {
	filter, err := h.filter(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return filter, nil, false
	}

	entries, err := h.svc.List(filter)
	if err != nil {
		slog.Error("failed to read audit trail", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)

		return filter, nil, false
	}

	return filter, entries, true
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	_, entries, ok := h.entries(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toResponseList(entries)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	_, entries, ok := h.entries(w, r)
	if !ok {
		return
	}

	buf, err := h.svc.Workbook(entries)
	if err != nil {
		slog.Error("failed to build workbook", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName(h.now())))

	if _, err := buf.WriteTo(w); err != nil {
		slog.Error("failed to write workbook", "error", err)
	}
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	_, entries, ok := h.entries(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	if _, err := w.Write([]byte(h.svc.GenerateSummary(entries))); err != nil {
		slog.Error("failed to write summary", "error", err)
	}
}

type dashboardData struct {
	Filter   export.Filter
	Statuses []deliverylog.Status
	Entries  []export.Entry
}

// Dashboard renders the filterable HTML table.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	filter, entries, ok := h.entries(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	err := dashboard.Execute(w, dashboardData{
		Filter:   filter,
		Statuses: []deliverylog.Status{deliverylog.StatusSent, deliverylog.StatusFailed, deliverylog.StatusEmail},
		Entries:  entries,
	})
	if err != nil {
		slog.Error("failed to render dashboard", "error", err)
	}
}

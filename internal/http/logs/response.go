package logs

import (
	"time"

	"github.com/MrJamesThe3rd/dunning/internal/deliverylog"
	"github.com/MrJamesThe3rd/dunning/internal/export"
	"github.com/MrJamesThe3rd/dunning/internal/notify"
)

type entryResponse struct {
	Timestamp     time.Time          `json:"timestamp"`
	InvoiceID     string             `json:"invoice_id"`
	InvoiceNumber string             `json:"invoice_number"`
	Interval      int                `json:"interval"`
	DueDate       string             `json:"due_date"`
	Status        deliverylog.Status `json:"status"`
	Method        deliverylog.Method `json:"method"`
	Destination   string             `json:"destination"`
	Message       string             `json:"message"`
	PDFURL        string             `json:"pdf_url"`
	Attempts      int                `json:"attempts"`
}

type listResponse struct {
	Entries []entryResponse `json:"entries"`
	Total   int             `json:"total"`
}

func pdfURL(invoiceID string) string {
	return "/invoices/" + notify.PDFName(invoiceID)
}

func toResponse(e export.Entry) entryResponse {
	return entryResponse{
		Timestamp:     e.Timestamp,
		InvoiceID:     e.InvoiceID,
		InvoiceNumber: e.InvoiceNumber,
		Interval:      e.Interval,
		DueDate:       e.DueDate,
		Status:        e.Status,
		Method:        e.Method,
		Destination:   e.Phone,
		Message:       e.Message,
		PDFURL:        pdfURL(e.InvoiceID),
		Attempts:      e.Attempts,
	}
}

func toResponseList(entries []export.Entry) listResponse {
	resp := listResponse{Entries: make([]entryResponse, len(entries)), Total: len(entries)}
	for i, e := range entries {
		resp.Entries[i] = toResponse(e)
	}

	return resp
}

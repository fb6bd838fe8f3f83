package zoho

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/dunning/internal/config"
	"github.com/MrJamesThe3rd/dunning/internal/invoice"
)

const (
	perPage   = 200
	maxPages  = 100
	orgHeader = "X-com-zoho-subscriptions-organizationid"
)

var (
	_ invoice.Source    = (*Client)(nil)
	_ invoice.PDFSource = (*Client)(nil)
)

type tokenProvider interface {
	Token(ctx context.Context) (string, error)
	Invalidate()
}

// Client reads invoices from Zoho Billing.
type Client struct {
	tokens tokenProvider
	apiURL string
	orgID  string
	client *http.Client
}

func NewClient(cfg config.ZohoConfig) *Client {
	httpClient := &http.Client{Timeout: 30 * time.Second}

	return &Client{
		tokens: NewTokenSource(cfg, httpClient),
		apiURL: strings.TrimRight(cfg.APIURL, "/"),
		orgID:  cfg.OrgID,
		client: httpClient,
	}
}

type address struct {
	Phone string `json:"phone"`
}

type invoiceDTO struct {
	InvoiceID       string          `json:"invoice_id"`
	Number          string          `json:"number"`
	InvoiceNumber   string          `json:"invoice_number"`
	Status          string          `json:"status"`
	DueDate         string          `json:"due_date"`
	InvoiceDate     string          `json:"invoice_date"`
	Date            string          `json:"date"`
	Total           decimal.Decimal `json:"total"`
	CurrencyCode    string          `json:"currency_code"`
	CustomerName    string          `json:"customer_name"`
	Email           string          `json:"email"`
	Phone           string          `json:"phone"`
	BillingAddress  address         `json:"billing_address"`
	ShippingAddress address         `json:"shipping_address"`
}

type listResponse struct {
	Code        int          `json:"code"`
	Message     string       `json:"message"`
	Invoices    []invoiceDTO `json:"invoices"`
	PageContext struct {
		Page        int  `json:"page"`
		HasMorePage bool `json:"has_more_page"`
	} `json:"page_context"`
}

func (d invoiceDTO) toInvoice() *invoice.Invoice {
	number := d.Number
	if number == "" {
		number = d.InvoiceNumber
	}

	invoiceDate := d.InvoiceDate
	if invoiceDate == "" {
		invoiceDate = d.Date
	}

	return &invoice.Invoice{
		ID:              d.InvoiceID,
		Number:          number,
		Status:          invoice.Status(strings.ToLower(d.Status)),
		DueDate:         parseDate(d.DueDate),
		InvoiceDate:     parseDate(invoiceDate),
		Total:           d.Total,
		CurrencyCode:    d.CurrencyCode,
		CustomerName:    d.CustomerName,
		Email:           d.Email,
		Phone:           d.Phone,
		BillingAddress:  invoice.Address{Phone: d.BillingAddress.Phone},
		ShippingAddress: invoice.Address{Phone: d.ShippingAddress.Phone},
	}
}

// parseDate returns nil for empty or malformed dates, which makes the invoice
// ineligible for reminders rather than failing the whole fetch.
func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}

	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil
	}

	return &t
}

// FetchAll walks every page of the invoice list.
func (c *Client) FetchAll(ctx context.Context) ([]*invoice.Invoice, error) {
	var invoices []*invoice.Invoice

	for page := 1; page <= maxPages; page++ {
		q := url.Values{
			"page":     {strconv.Itoa(page)},
			"per_page": {strconv.Itoa(perPage)},
		}

		body, err := c.get(ctx, c.apiURL+"/billing/v1/invoices?"+q.Encode(), "application/json")
		if err != nil {
			return nil, fmt.Errorf("%w: page %d: %v", invoice.ErrFetch, page, err)
		}

		var resp listResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("%w: decoding page %d: %v", invoice.ErrFetch, page, err)
		}

		for _, d := range resp.Invoices {
			invoices = append(invoices, d.toInvoice())
		}

		if !resp.PageContext.HasMorePage {
			return invoices, nil
		}
	}

	return nil, fmt.Errorf("%w: more than %d pages", invoice.ErrFetch, maxPages)
}

// FetchPDF downloads the rendered invoice.
func (c *Client) FetchPDF(ctx context.Context, invoiceID string) ([]byte, error) {
	endpoint := c.apiURL + "/billing/v1/invoices/" + url.PathEscape(invoiceID) + "?accept=pdf"

	body, err := c.get(ctx, endpoint, "application/pdf")
	if err != nil {
		return nil, fmt.Errorf("fetching pdf for invoice %s: %w", invoiceID, err)
	}

	return body, nil
}

// get retries once with a fresh token when Zoho rejects the cached one.
func (c *Client) get(ctx context.Context, endpoint, accept string) ([]byte, error) {
	body, status, err := c.do(ctx, endpoint, accept)
	if err != nil {
		return nil, err
	}

	if status == http.StatusUnauthorized {
		c.tokens.Invalidate()

		body, status, err = c.do(ctx, endpoint, accept)
		if err != nil {
			return nil, err
		}
	}

	if status != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d: %s", status, truncate(body, 512))
	}

	return body, nil
}

func (c *Client) do(ctx context.Context, endpoint, accept string) ([]byte, int, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("obtaining access token: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Authorization", "Zoho-oauthtoken "+token)
	req.Header.Set(orgHeader, c.orgID)
	req.Header.Set("Accept", accept)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("reading response: %w", err)
	}

	return body, resp.StatusCode, nil
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}

	return string(b)
}

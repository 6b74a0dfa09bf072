package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/artpar/invoicer/app"
	"github.com/artpar/invoicer/domain/invoice"
	"github.com/artpar/invoicer/domain/report"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// UserHeader carries the tenant on /api requests.
const UserHeader = "X-User-ID"

// dateLayout is accepted for due dates and payment dates besides RFC 3339.
const dateLayout = "2006-01-02"

// InvoiceHandler serves the invoice API.
type InvoiceHandler struct {
	service *app.InvoiceService
	logger  zerolog.Logger
}

// NewInvoiceHandler creates a new invoice handler.
func NewInvoiceHandler(service *app.InvoiceService, logger zerolog.Logger) *InvoiceHandler {
	return &InvoiceHandler{service: service, logger: logger}
}

// Routes mounts the tenant-scoped invoice endpoints.
func (h *InvoiceHandler) Routes(r chi.Router) {
	r.Get("/numbering/preview", h.PreviewNumber)
	r.Get("/reports/summary", h.Summary)

	r.Route("/invoices", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Get("/", h.List)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.Get)
			r.Post("/send", h.Send)
			r.Post("/view", h.MarkViewed)
			r.Post("/payments", h.RecordPayment)
			r.Get("/payments", h.Payments)
			r.Get("/pdf", h.PDF)
		})
	})
}

// CreateInvoiceRequest is the body of POST /api/invoices.
type CreateInvoiceRequest struct {
	ClientName   string             `json:"client_name" example:"Jane Client"`
	ClientEmail  string             `json:"client_email" example:"jane@example.com"`
	Currency     string             `json:"currency,omitempty" example:"USD"`
	Items        []invoice.LineItem `json:"items"`
	TaxRate      decimal.Decimal    `json:"tax_rate" swaggertype:"string" example:"10"`
	DiscountRate decimal.Decimal    `json:"discount_rate" swaggertype:"string" example:"5"`
	CostPrice    decimal.Decimal    `json:"cost_price" swaggertype:"string" example:"150"`
	DueDate      string             `json:"due_date,omitempty" example:"2024-02-14"`
	Notes        string             `json:"notes,omitempty"`
}

// InvoiceResponse is the JSON form of an invoice.
type InvoiceResponse struct {
	ID             string             `json:"id"`
	Number         string             `json:"number" example:"INV-202401-0001"`
	Status         invoice.Status     `json:"status" example:"sent"`
	ClientName     string             `json:"client_name"`
	ClientEmail    string             `json:"client_email,omitempty"`
	Currency       string             `json:"currency"`
	Items          []invoice.LineItem `json:"items"`
	TaxRate        decimal.Decimal    `json:"tax_rate" swaggertype:"string"`
	DiscountRate   decimal.Decimal    `json:"discount_rate" swaggertype:"string"`
	Subtotal       decimal.Decimal    `json:"subtotal" swaggertype:"string"`
	TaxAmount      decimal.Decimal    `json:"tax_amount" swaggertype:"string"`
	DiscountAmount decimal.Decimal    `json:"discount_amount" swaggertype:"string"`
	Total          decimal.Decimal    `json:"total" swaggertype:"string"`
	AmountPaid     decimal.Decimal    `json:"amount_paid" swaggertype:"string"`
	Remaining      decimal.Decimal    `json:"remaining" swaggertype:"string"`
	CostPrice      decimal.Decimal    `json:"cost_price,omitzero" swaggertype:"string"`
	Profit         *invoice.Profit    `json:"profit,omitempty"`
	DueDate        time.Time          `json:"due_date"`
	Notes          string             `json:"notes,omitempty"`
	ViewToken      string             `json:"view_token,omitempty"`
	SentAt         *time.Time         `json:"sent_at,omitempty"`
	ViewedAt       *time.Time         `json:"viewed_at,omitempty"`
	PaidAt         *time.Time         `json:"paid_at,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

// toInvoiceResponse converts an invoice for its owner.
func toInvoiceResponse(inv invoice.Invoice) InvoiceResponse {
	resp := publicInvoice(inv)
	resp.ClientEmail = inv.ClientEmail
	resp.CostPrice = inv.CostPrice
	resp.ViewToken = inv.ViewToken
	if !inv.CostPrice.IsZero() {
		p := inv.Profit()
		resp.Profit = &p
	}
	return resp
}

// publicInvoice converts an invoice for its client, omitting the owner's
// cost, profit and token.
func publicInvoice(inv invoice.Invoice) InvoiceResponse {
	return InvoiceResponse{
		ID:             inv.ID,
		Number:         inv.Number,
		Status:         inv.Status,
		ClientName:     inv.ClientName,
		Currency:       inv.Currency,
		Items:          inv.Items,
		TaxRate:        inv.TaxRate,
		DiscountRate:   inv.DiscountRate,
		Subtotal:       inv.Subtotal,
		TaxAmount:      inv.TaxAmount,
		DiscountAmount: inv.DiscountAmount,
		Total:          inv.Total,
		AmountPaid:     inv.AmountPaid,
		Remaining:      inv.Remaining(),
		DueDate:        inv.DueDate,
		Notes:          inv.Notes,
		SentAt:         inv.SentAt,
		ViewedAt:       inv.ViewedAt,
		PaidAt:         inv.PaidAt,
		CreatedAt:      inv.CreatedAt,
		UpdatedAt:      inv.UpdatedAt,
	}
}

// InvoiceListResponse wraps a list of invoices.
type InvoiceListResponse struct {
	Invoices []InvoiceResponse `json:"invoices"`
	Count    int               `json:"count"`
}

// Create creates a draft invoice.
//
//	@Summary		Create invoice
//	@Description	Creates a draft invoice, computing totals and allocating the next number for the current day
//	@Tags			Invoices
//	@Accept			json
//	@Produce		json
//	@Param			X-User-ID	header		string					true	"Tenant"
//	@Param			body		body		CreateInvoiceRequest	true	"Invoice"
//	@Success		201			{object}	InvoiceResponse
//	@Failure		400			{object}	ErrorResponseBody
//	@Router			/api/invoices [post]
func (h *InvoiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateInvoiceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	due, err := parseDate(req.DueDate, h.service.Location())
	if err != nil {
		writeError(w, h.logger, badRequest("due_date: "+err.Error()))
		return
	}

	inv, err := h.service.Create(r.Context(), userID(r), app.CreateInvoiceInput{
		ClientName:   req.ClientName,
		ClientEmail:  req.ClientEmail,
		Currency:     req.Currency,
		Items:        req.Items,
		TaxRate:      req.TaxRate,
		DiscountRate: req.DiscountRate,
		CostPrice:    req.CostPrice,
		DueDate:      due,
		Notes:        req.Notes,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toInvoiceResponse(inv))
}

// List lists the tenant's invoices.
//
//	@Summary		List invoices
//	@Tags			Invoices
//	@Produce		json
//	@Param			X-User-ID	header		string	true	"Tenant"
//	@Param			status		query		string	false	"Filter by status"
//	@Param			limit		query		int		false	"Maximum results"
//	@Success		200			{object}	InvoiceListResponse
//	@Failure		400			{object}	ErrorResponseBody
//	@Router			/api/invoices [get]
func (h *InvoiceHandler) List(w http.ResponseWriter, r *http.Request) {
	var filter app.ListFilter
	if s := r.URL.Query().Get("status"); s != "" {
		status, err := invoice.ParseStatus(s)
		if err != nil {
			writeError(w, h.logger, badRequest(err.Error()))
			return
		}
		filter.Status = status
	}
	if s := r.URL.Query().Get("limit"); s != "" {
		limit, err := strconv.Atoi(s)
		if err != nil || limit < 0 {
			writeError(w, h.logger, badRequest("limit must be a non-negative integer"))
			return
		}
		filter.Limit = limit
	}

	invoices, err := h.service.List(r.Context(), userID(r), filter)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	resp := InvoiceListResponse{Invoices: make([]InvoiceResponse, 0, len(invoices)), Count: len(invoices)}
	for _, inv := range invoices {
		resp.Invoices = append(resp.Invoices, toInvoiceResponse(inv))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get returns one invoice.
//
//	@Summary		Get invoice
//	@Tags			Invoices
//	@Produce		json
//	@Param			X-User-ID	header		string	true	"Tenant"
//	@Param			id			path		string	true	"Invoice ID"
//	@Success		200			{object}	InvoiceResponse
//	@Failure		404			{object}	ErrorResponseBody
//	@Router			/api/invoices/{id} [get]
func (h *InvoiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	inv, err := h.service.Get(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toInvoiceResponse(inv))
}

// Send issues a draft invoice.
//
//	@Summary		Send invoice
//	@Description	Moves a draft to sent (or overdue when already past due) and emails the client
//	@Tags			Invoices
//	@Produce		json
//	@Param			X-User-ID	header		string	true	"Tenant"
//	@Param			id			path		string	true	"Invoice ID"
//	@Success		200			{object}	InvoiceResponse
//	@Failure		404			{object}	ErrorResponseBody
//	@Failure		409			{object}	ErrorResponseBody	"Invoice is not a draft"
//	@Router			/api/invoices/{id}/send [post]
func (h *InvoiceHandler) Send(w http.ResponseWriter, r *http.Request) {
	inv, err := h.service.Send(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toInvoiceResponse(inv))
}

// MarkViewed records that the client saw the invoice.
//
//	@Summary		Mark invoice viewed
//	@Tags			Invoices
//	@Produce		json
//	@Param			X-User-ID	header		string	true	"Tenant"
//	@Param			id			path		string	true	"Invoice ID"
//	@Success		200			{object}	InvoiceResponse
//	@Failure		409			{object}	ErrorResponseBody	"Invoice is a draft"
//	@Router			/api/invoices/{id}/view [post]
func (h *InvoiceHandler) MarkViewed(w http.ResponseWriter, r *http.Request) {
	inv, err := h.service.MarkViewed(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toInvoiceResponse(inv))
}

// RecordPaymentRequest is the body of POST /api/invoices/{id}/payments.
type RecordPaymentRequest struct {
	Amount    decimal.Decimal `json:"amount" swaggertype:"string" example:"100.00"`
	Method    string          `json:"method,omitempty" example:"bank_transfer"`
	Reference string          `json:"reference,omitempty"`
	PaidAt    string          `json:"paid_at,omitempty" example:"2024-01-20"`
}

// PaymentResponse is the JSON form of a payment.
type PaymentResponse struct {
	ID        string                `json:"id"`
	InvoiceID string                `json:"invoice_id"`
	Amount    decimal.Decimal       `json:"amount" swaggertype:"string"`
	Method    invoice.PaymentMethod `json:"method"`
	Reference string                `json:"reference,omitempty"`
	PaidAt    time.Time             `json:"paid_at"`
	CreatedAt time.Time             `json:"created_at"`
}

func toPaymentResponse(p invoice.Payment) PaymentResponse {
	return PaymentResponse{
		ID:        p.ID,
		InvoiceID: p.InvoiceID,
		Amount:    p.Amount,
		Method:    p.Method,
		Reference: p.Reference,
		PaidAt:    p.PaidAt,
		CreatedAt: p.CreatedAt,
	}
}

// RecordPaymentResponse returns the payment and the updated invoice.
type RecordPaymentResponse struct {
	Payment PaymentResponse `json:"payment"`
	Invoice InvoiceResponse `json:"invoice"`
}

// RecordPayment records a payment against an invoice.
//
//	@Summary		Record payment
//	@Tags			Payments
//	@Accept			json
//	@Produce		json
//	@Param			X-User-ID	header		string					true	"Tenant"
//	@Param			id			path		string					true	"Invoice ID"
//	@Param			body		body		RecordPaymentRequest	true	"Payment"
//	@Success		201			{object}	RecordPaymentResponse
//	@Failure		400			{object}	ErrorResponseBody	"Amount not positive"
//	@Failure		409			{object}	ErrorResponseBody	"Invoice is a draft or already paid"
//	@Router			/api/invoices/{id}/payments [post]
func (h *InvoiceHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	var req RecordPaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	method, err := invoice.ParsePaymentMethod(req.Method)
	if err != nil {
		writeError(w, h.logger, badRequest(err.Error()))
		return
	}
	paidAt, err := parseDate(req.PaidAt, h.service.Location())
	if err != nil {
		writeError(w, h.logger, badRequest("paid_at: "+err.Error()))
		return
	}

	inv, payment, err := h.service.RecordPayment(r.Context(), userID(r), chi.URLParam(r, "id"), app.PaymentInput{
		Amount:    req.Amount,
		Method:    method,
		Reference: req.Reference,
		PaidAt:    paidAt,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, RecordPaymentResponse{
		Payment: toPaymentResponse(payment),
		Invoice: toInvoiceResponse(inv),
	})
}

// PaymentListResponse wraps a list of payments.
type PaymentListResponse struct {
	Payments []PaymentResponse `json:"payments"`
	Total    decimal.Decimal   `json:"total" swaggertype:"string"`
}

// Payments lists the payments recorded against an invoice.
//
//	@Summary		List payments
//	@Tags			Payments
//	@Produce		json
//	@Param			X-User-ID	header		string	true	"Tenant"
//	@Param			id			path		string	true	"Invoice ID"
//	@Success		200			{object}	PaymentListResponse
//	@Failure		404			{object}	ErrorResponseBody
//	@Router			/api/invoices/{id}/payments [get]
func (h *InvoiceHandler) Payments(w http.ResponseWriter, r *http.Request) {
	payments, err := h.service.Payments(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	resp := PaymentListResponse{
		Payments: make([]PaymentResponse, 0, len(payments)),
		Total:    invoice.SumPayments(payments),
	}
	for _, p := range payments {
		resp.Payments = append(resp.Payments, toPaymentResponse(p))
	}
	writeJSON(w, http.StatusOK, resp)
}

// PDF renders the invoice as a PDF document.
//
//	@Summary		Download invoice PDF
//	@Tags			Invoices
//	@Produce		application/pdf
//	@Param			X-User-ID	header	string	true	"Tenant"
//	@Param			id			path	string	true	"Invoice ID"
//	@Success		200			"PDF document"
//	@Failure		404			{object}	ErrorResponseBody
//	@Failure		501			{object}	ErrorResponseBody	"PDF rendering disabled"
//	@Router			/api/invoices/{id}/pdf [get]
func (h *InvoiceHandler) PDF(w http.ResponseWriter, r *http.Request) {
	inv, data, err := h.service.RenderPDF(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `inline; filename="`+inv.Number+`.pdf"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.logger.Error().Err(err).Msg("failed to write pdf")
	}
}

// NumberPreviewResponse shows what a pattern produces.
type NumberPreviewResponse struct {
	Pattern string `json:"pattern" example:"INV-{YYYY}{MM}-{0000}"`
	Example string `json:"example" example:"INV-202401-0001"`
	Next    string `json:"next" example:"INV-202401-0003"`
}

// PreviewNumber previews an invoice number pattern.
//
//	@Summary		Preview invoice number
//	@Description	Renders the first number of the day for a pattern, and the tenant's next number under the configured pattern
//	@Tags			Numbering
//	@Produce		json
//	@Param			X-User-ID	header		string	true	"Tenant"
//	@Param			pattern		query		string	false	"Pattern to preview (defaults to the configured one)"
//	@Success		200			{object}	NumberPreviewResponse
//	@Router			/api/numbering/preview [get]
func (h *InvoiceHandler) PreviewNumber(w http.ResponseWriter, r *http.Request) {
	pattern := r.URL.Query().Get("pattern")
	if pattern == "" {
		pattern = h.service.Options().NumberPattern
	}
	next, err := h.service.NextNumber(r.Context(), userID(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, NumberPreviewResponse{
		Pattern: pattern,
		Example: h.service.PreviewNumber(pattern),
		Next:    next,
	})
}

// SummaryResponse aggregates the tenant's invoices.
type SummaryResponse struct {
	InvoiceCount     int                    `json:"invoice_count"`
	ByStatus         map[invoice.Status]int `json:"by_status"`
	TotalInvoiced    decimal.Decimal        `json:"total_invoiced" swaggertype:"string"`
	TotalPaid        decimal.Decimal        `json:"total_paid" swaggertype:"string"`
	TotalOutstanding decimal.Decimal        `json:"total_outstanding" swaggertype:"string"`
	OverdueAmount    decimal.Decimal        `json:"overdue_amount" swaggertype:"string"`
	TotalProfit      decimal.Decimal        `json:"total_profit" swaggertype:"string"`
	CollectionRate   decimal.Decimal        `json:"collection_rate" swaggertype:"string"`
}

func toSummaryResponse(s report.Summary) SummaryResponse {
	return SummaryResponse{
		InvoiceCount:     s.InvoiceCount,
		ByStatus:         s.ByStatus,
		TotalInvoiced:    s.TotalInvoiced,
		TotalPaid:        s.TotalPaid,
		TotalOutstanding: s.TotalOutstanding,
		OverdueAmount:    s.OverdueAmount,
		TotalProfit:      s.TotalProfit,
		CollectionRate:   s.CollectionRate(),
	}
}

// Summary reports invoiced, paid and outstanding amounts.
//
//	@Summary		Invoice summary
//	@Tags			Reports
//	@Produce		json
//	@Param			X-User-ID	header		string	true	"Tenant"
//	@Success		200			{object}	SummaryResponse
//	@Router			/api/reports/summary [get]
func (h *InvoiceHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.Context(), userID(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toSummaryResponse(summary))
}

func userID(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(UserHeader))
}

// parseDate accepts RFC 3339 or YYYY-MM-DD, the latter as midnight in loc.
// Empty input yields the zero time.
func parseDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.ParseInLocation(dateLayout, s, loc)
}
